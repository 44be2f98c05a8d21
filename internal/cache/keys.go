package cache

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// LoginFailuresKey counts consecutive failed logins for an email address.
func LoginFailuresKey(email string) string {
	return fmt.Sprintf("login:failures:%s", strings.ToLower(strings.TrimSpace(email)))
}

// RateLimitKey counts API requests made by one employee in the current window.
func RateLimitKey(employeeID uuid.UUID) string {
	return fmt.Sprintf("ratelimit:%s", employeeID)
}
