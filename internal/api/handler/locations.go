package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/internal/api/response"
	"github.com/kiranshivaraju/timetrack/internal/service"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

// LocationService defines the job location operations the handlers depend on.
type LocationService interface {
	ListLocations(ctx context.Context, p models.Principal, customerID uuid.UUID, includeArchived bool) ([]*models.JobLocation, error)
	GetLocation(ctx context.Context, p models.Principal, id uuid.UUID) (*models.JobLocation, error)
	CreateLocation(ctx context.Context, p models.Principal, customerID uuid.UUID, in service.CreateLocationInput) (*models.JobLocation, error)
	UpdateLocation(ctx context.Context, p models.Principal, id uuid.UUID, in service.UpdateLocationInput) (*models.JobLocation, error)
	ArchiveLocation(ctx context.Context, p models.Principal, id uuid.UUID) (*models.JobLocation, error)
	RestoreLocation(ctx context.Context, p models.Principal, id uuid.UUID) (*models.JobLocation, error)
}

const locationIDParam = "locationID"

// NewLocationResource returns the handlers for locations. List and Create are
// nested under /admin/customers/{customerID}/locations; the rest live under
// /admin/locations/{locationID}.
func NewLocationResource(svc LocationService) Resource {
	return Resource{
		List:    newListLocationsHandler(svc),
		Get:     newByIDHandler(locationIDParam, svc.GetLocation),
		Create:  newCreateLocationHandler(svc),
		Update:  newUpdateLocationHandler(svc),
		Archive: newByIDHandler(locationIDParam, svc.ArchiveLocation),
		Restore: newByIDHandler(locationIDParam, svc.RestoreLocation),
	}
}

func newListLocationsHandler(svc LocationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := pathID(w, r, customerIDParam)
		if !ok {
			return
		}
		list := newListHandler(func(ctx context.Context, p models.Principal, includeArchived bool) ([]*models.JobLocation, error) {
			return svc.ListLocations(ctx, p, customerID, includeArchived)
		})
		list(w, r)
	}
}

type coordinates struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func newCreateLocationHandler(svc LocationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		customerID, ok := pathID(w, r, customerIDParam)
		if !ok {
			return
		}

		var req struct {
			Name    *string         `json:"name"`
			Address *models.Address `json:"address"`
			coordinates
			Tags []string `json:"tags"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Address == nil {
			badRequest(w, "address is required")
			return
		}

		loc, err := svc.CreateLocation(r.Context(), p, customerID, service.CreateLocationInput{
			Name:      req.Name,
			Address:   *req.Address,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
			Tags:      req.Tags,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Created(w, loc)
	}
}

func newUpdateLocationHandler(svc LocationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, locationIDParam)
		if !ok {
			return
		}

		var req struct {
			Name    *string         `json:"name"`
			Address *models.Address `json:"address"`
			coordinates
			ClearCoordinates bool      `json:"clear_coordinates"`
			Tags             *[]string `json:"tags"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		loc, err := svc.UpdateLocation(r.Context(), p, id, service.UpdateLocationInput{
			Name:             req.Name,
			Address:          req.Address,
			Latitude:         req.Latitude,
			Longitude:        req.Longitude,
			ClearCoordinates: req.ClearCoordinates,
			Tags:             req.Tags,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, loc)
	}
}
