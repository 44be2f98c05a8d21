package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/internal/api/response"
	"github.com/kiranshivaraju/timetrack/internal/service"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

// EmployeeService defines the employee operations the handlers depend on.
type EmployeeService interface {
	Me(ctx context.Context, p models.Principal) (*models.Employee, error)
	ListEmployees(ctx context.Context, p models.Principal, includeArchived bool) ([]*models.Employee, error)
	GetEmployee(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Employee, error)
	CreateEmployee(ctx context.Context, p models.Principal, in service.CreateEmployeeInput) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, p models.Principal, id uuid.UUID, in service.UpdateEmployeeInput) (*models.Employee, error)
	ArchiveEmployee(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Employee, error)
	RestoreEmployee(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Employee, error)
}

const employeeIDParam = "employeeID"

// NewEmployeeResource returns the handlers for /api/v1/admin/employees.
func NewEmployeeResource(svc EmployeeService) Resource {
	return Resource{
		List:    newListHandler(svc.ListEmployees),
		Get:     newByIDHandler(employeeIDParam, svc.GetEmployee),
		Create:  newCreateEmployeeHandler(svc),
		Update:  newUpdateEmployeeHandler(svc),
		Archive: newByIDHandler(employeeIDParam, svc.ArchiveEmployee),
		Restore: newByIDHandler(employeeIDParam, svc.RestoreEmployee),
	}
}

// NewMeHandler returns an http.HandlerFunc for GET /api/v1/me.
func NewMeHandler(svc EmployeeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		e, err := svc.Me(r.Context(), p)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, e)
	}
}

func newCreateEmployeeHandler(svc EmployeeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		var req struct {
			Email    string      `json:"email"`
			Name     string      `json:"name"`
			Password string      `json:"password"`
			Role     models.Role `json:"role"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		e, err := svc.CreateEmployee(r.Context(), p, service.CreateEmployeeInput{
			Email:    req.Email,
			Name:     req.Name,
			Password: req.Password,
			Role:     req.Role,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Created(w, e)
	}
}

func newUpdateEmployeeHandler(svc EmployeeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, employeeIDParam)
		if !ok {
			return
		}

		var req struct {
			Email    *string      `json:"email"`
			Name     *string      `json:"name"`
			Password *string      `json:"password"`
			Role     *models.Role `json:"role"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		e, err := svc.UpdateEmployee(r.Context(), p, id, service.UpdateEmployeeInput{
			Email:    req.Email,
			Name:     req.Name,
			Password: req.Password,
			Role:     req.Role,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, e)
	}
}
