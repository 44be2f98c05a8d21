package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/internal/api/response"
	"github.com/kiranshivaraju/timetrack/internal/service"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

// CustomerService defines the customer operations the handlers depend on.
type CustomerService interface {
	ListCustomers(ctx context.Context, p models.Principal, includeArchived bool) ([]*models.Customer, error)
	GetCustomer(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Customer, error)
	CreateCustomer(ctx context.Context, p models.Principal, in service.CreateCustomerInput) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, p models.Principal, id uuid.UUID, in service.UpdateCustomerInput) (*models.Customer, error)
	ArchiveCustomer(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Customer, error)
	RestoreCustomer(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Customer, error)
}

const customerIDParam = "customerID"

// NewCustomerResource returns the handlers for /api/v1/admin/customers.
func NewCustomerResource(svc CustomerService) Resource {
	return Resource{
		List:    newListHandler(svc.ListCustomers),
		Get:     newByIDHandler(customerIDParam, svc.GetCustomer),
		Create:  newCreateCustomerHandler(svc),
		Update:  newUpdateCustomerHandler(svc),
		Archive: newByIDHandler(customerIDParam, svc.ArchiveCustomer),
		Restore: newByIDHandler(customerIDParam, svc.RestoreCustomer),
	}
}

func newCreateCustomerHandler(svc CustomerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		var req struct {
			Name            string          `json:"name"`
			Email           *string         `json:"email"`
			Phone           *string         `json:"phone"`
			BusinessAddress *models.Address `json:"business_address"`
			MailingAddress  *models.Address `json:"mailing_address"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.BusinessAddress == nil {
			badRequest(w, "business_address is required")
			return
		}

		c, err := svc.CreateCustomer(r.Context(), p, service.CreateCustomerInput{
			Name:            req.Name,
			Email:           req.Email,
			Phone:           req.Phone,
			BusinessAddress: *req.BusinessAddress,
			MailingAddress:  req.MailingAddress,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Created(w, c)
	}
}

func newUpdateCustomerHandler(svc CustomerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, customerIDParam)
		if !ok {
			return
		}

		var req struct {
			Name                *string         `json:"name"`
			Email               *string         `json:"email"`
			Phone               *string         `json:"phone"`
			BusinessAddress     *models.Address `json:"business_address"`
			MailingAddress      *models.Address `json:"mailing_address"`
			ClearMailingAddress bool            `json:"clear_mailing_address"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		c, err := svc.UpdateCustomer(r.Context(), p, id, service.UpdateCustomerInput{
			Name:                req.Name,
			Email:               req.Email,
			Phone:               req.Phone,
			BusinessAddress:     req.BusinessAddress,
			MailingAddress:      req.MailingAddress,
			ClearMailingAddress: req.ClearMailingAddress,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, c)
	}
}
