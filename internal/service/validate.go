package service

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/kiranshivaraju/timetrack/pkg/models"
)

const (
	maxNameLen     = 200
	maxNoteLen     = 2000
	defaultCountry = "US"
)

// normalizeEmail trims and lower-cases an address and checks its syntax.
func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", validationf("Email is required.")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", validationf("Email %q is not a valid address.", raw)
	}
	return email, nil
}

// requiredText trims s and enforces a non-empty value of bounded length.
func requiredText(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", validationf("%s is required.", field)
	}
	if utf8.RuneCountInString(s) > maxNameLen {
		return "", validationf("%s must be at most %d characters.", field, maxNameLen)
	}
	return s, nil
}

// optionalText trims s; an empty result clears the field.
func optionalText(field string, s *string, limit int) (*string, error) {
	if s == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(v) > limit {
		return nil, validationf("%s must be at most %d characters.", field, limit)
	}
	return &v, nil
}

func validateAddress(field string, a models.Address) (models.Address, error) {
	out := models.Address{
		Street:     strings.TrimSpace(a.Street),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
	switch {
	case out.Street == "":
		return out, validationf("%s street is required.", field)
	case out.City == "":
		return out, validationf("%s city is required.", field)
	case out.State == "":
		return out, validationf("%s state is required.", field)
	case out.PostalCode == "":
		return out, validationf("%s postal code is required.", field)
	}
	if out.Country == "" {
		out.Country = defaultCountry
	}
	return out, nil
}

func validateCoordinates(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return validationf("Latitude and longitude must be given together.")
	}
	if lat != nil && (*lat < -90 || *lat > 90) {
		return validationf("Latitude must be between -90 and 90.")
	}
	if lng != nil && (*lng < -180 || *lng > 180) {
		return validationf("Longitude must be between -180 and 180.")
	}
	return nil
}

// normalizeTags trims, drops empties and de-duplicates while keeping order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
