package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/internal/api/response"
	"github.com/kiranshivaraju/timetrack/internal/service"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

// JobService defines the job operations the handlers depend on.
type JobService interface {
	ListJobs(ctx context.Context, p models.Principal, query service.JobQuery) ([]*models.Job, error)
	GetJob(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Job, error)
	CreateJob(ctx context.Context, p models.Principal, in service.CreateJobInput) (*models.Job, error)
	UpdateJob(ctx context.Context, p models.Principal, id uuid.UUID, in service.UpdateJobInput) (*models.Job, error)
	ArchiveJob(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Job, error)
	RestoreJob(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Job, error)
}

const jobIDParam = "jobID"

// NewJobResource returns the job handlers. List and Get also serve the
// employee-facing /api/v1/jobs routes.
func NewJobResource(svc JobService) Resource {
	return Resource{
		List:    newListJobsHandler(svc),
		Get:     newByIDHandler(jobIDParam, svc.GetJob),
		Create:  newCreateJobHandler(svc),
		Update:  newUpdateJobHandler(svc),
		Archive: newByIDHandler(jobIDParam, svc.ArchiveJob),
		Restore: newByIDHandler(jobIDParam, svc.RestoreJob),
	}
}

func newListJobsHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		q := newQueryParser(r)
		query := service.JobQuery{
			CustomerID:      q.uuidParam("customerId"),
			IncludeArchived: q.boolParam("showArchived"),
		}
		if q.err != nil {
			badRequest(w, q.err.Error())
			return
		}

		jobs, err := svc.ListJobs(r.Context(), p, query)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.List(w, jobs)
	}
}

func newCreateJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		var req struct {
			CustomerID uuid.UUID `json:"customer_id"`
			LocationID uuid.UUID `json:"location_id"`
			Name       string    `json:"name"`
			Note       *string   `json:"note"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.CustomerID == uuid.Nil {
			badRequest(w, "customer_id is required")
			return
		}
		if req.LocationID == uuid.Nil {
			badRequest(w, "location_id is required")
			return
		}

		job, err := svc.CreateJob(r.Context(), p, service.CreateJobInput{
			CustomerID: req.CustomerID,
			LocationID: req.LocationID,
			Name:       req.Name,
			Note:       req.Note,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Created(w, job)
	}
}

func newUpdateJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, jobIDParam)
		if !ok {
			return
		}

		var req struct {
			CustomerID *uuid.UUID `json:"customer_id"`
			LocationID *uuid.UUID `json:"location_id"`
			Name       *string    `json:"name"`
			Note       *string    `json:"note"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		job, err := svc.UpdateJob(r.Context(), p, id, service.UpdateJobInput{
			CustomerID: req.CustomerID,
			LocationID: req.LocationID,
			Name:       req.Name,
			Note:       req.Note,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, job)
	}
}
