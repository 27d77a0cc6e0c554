package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/approval"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/events"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/store"
)

// JobsHandler handles maintenance job and part request endpoints.
type JobsHandler struct {
	DB       *sql.DB
	Approver *approval.Approver
	Events   events.Publisher
}

type createJobRequest struct {
	Type        string          `json:"type"`
	SiteID      *int64          `json:"site_id"`
	Vehicle     string          `json:"vehicle"`
	Description string          `json:"description"`
	Parts       []model.JobPart `json:"parts"`
}

// Create handles POST /api/jobs.
func (h *JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Type == model.JobTypePartRequest && req.SiteID == nil {
		jsonError(w, http.StatusBadRequest, "part requests need a site")
		return
	}
	if req.SiteID != nil {
		site, err := store.GetSite(r.Context(), h.DB, *req.SiteID)
		if err != nil {
			slog.Error("failed to get site", "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to create job")
			return
		}
		if site == nil || site.DeletedAt != nil {
			jsonError(w, http.StatusBadRequest, "site not found")
			return
		}
	}

	job, err := store.CreateJob(r.Context(), h.DB, store.NewJob{
		Type:        req.Type,
		SiteID:      req.SiteID,
		Vehicle:     req.Vehicle,
		Description: req.Description,
		Parts:       req.Parts,
		CreatedBy:   currentUserID(r),
	})
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	slog.Info("job created", "user", GetClaims(r.Context()).Username,
		"job_id", job.ID, "type", job.Type, "document_code", job.DocumentCode)
	jsonResponse(w, http.StatusCreated, job)
}

// Get handles GET /api/jobs/{id}.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := store.GetJob(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get job", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get job")
		return
	}
	if job == nil {
		jsonError(w, http.StatusNotFound, "job not found")
		return
	}
	jsonResponse(w, http.StatusOK, job)
}

// Approve handles POST /api/jobs/{id}/approve. A rejected stock check is
// returned as 409 and leaves the job pending.
func (h *JobsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	out, err := h.Approver.Approve(r.Context(), id, currentUserID(r))
	if err != nil {
		slog.Warn("job approval refused", "job_id", id, "error", err)
		stockError(w, err, "approve job")
		return
	}

	eventType := events.TypeStockConsumed
	if out.Job.Type == model.JobTypePartRequest {
		eventType = events.TypePartRequestApproved
	}
	publish(r.Context(), h.Events, eventType, out.Result)
	jsonResponse(w, http.StatusOK, out)
}

// Reject handles POST /api/jobs/{id}/reject.
func (h *JobsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := h.Approver.Reject(r.Context(), id, currentUserID(r))
	if err != nil {
		stockError(w, err, "reject job")
		return
	}
	jsonResponse(w, http.StatusOK, job)
}
