// Package handler exposes the police verification workflow over HTTP.
// All routes here are mounted behind authentication with the police role.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"suraksha/internal/disclosure"
	"suraksha/internal/verification/models"
	"suraksha/internal/verification/service"
	workermodels "suraksha/internal/worker/models"
	id "suraksha/pkg/domain"
	"suraksha/pkg/platform/httputil"
	"suraksha/pkg/requestcontext"
)

// Service is the verification surface the handler needs.
type Service interface {
	Queue(ctx context.Context) ([]*workermodels.Worker, error)
	CaseFile(ctx context.Context, workerID id.WorkerID) (*service.CaseFile, error)
	RecordFaceCheck(ctx context.Context, workerID id.WorkerID) (*models.Record, error)
	Decide(ctx context.Context, workerID id.WorkerID, approve bool, remarks string) (*workermodels.Worker, error)
	EnsureArtifacts(ctx context.Context, workerID id.WorkerID) (*workermodels.Worker, error)
	LogIncident(ctx context.Context, workerID id.WorkerID, severity models.Severity, description, reportedBy string, evidenceURLs []string) (*models.Incident, error)
	Suspend(ctx context.Context, workerID id.WorkerID, permanent bool, reason string) (*workermodels.Worker, error)
	Reactivate(ctx context.Context, workerID id.WorkerID) (*workermodels.Worker, error)
	ExpireLapsed(ctx context.Context, asOf time.Time) (int, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the police routes on the given router. Authentication
// and role checks are applied by the caller.
func (h *Handler) Register(r chi.Router) {
	r.Get("/queue", h.handleQueue)
	r.Get("/workers/{workerID}", h.handleCaseFile)
	r.Post("/workers/{workerID}/face-check", h.handleFaceCheck)
	r.Post("/workers/{workerID}/decision", h.handleDecide)
	r.Post("/workers/{workerID}/artifacts", h.handleEnsureArtifacts)
	r.Post("/workers/{workerID}/incidents", h.handleLogIncident)
	r.Post("/workers/{workerID}/suspend", h.handleSuspend)
	r.Post("/workers/{workerID}/reactivate", h.handleReactivate)
	r.Post("/expiry/sweep", h.handleExpirySweep)
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	workers, err := h.service.Queue(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	views := make([]*disclosure.PoliceView, 0, len(workers))
	for _, worker := range workers {
		views = append(views, disclosure.ProjectPolice(worker))
	}
	httputil.WriteJSON(w, http.StatusOK, queueResponse{Workers: views, Count: len(views)})
}

func (h *Handler) handleCaseFile(w http.ResponseWriter, r *http.Request) {
	workerID, ok := workerIDParam(w, r)
	if !ok {
		return
	}
	file, err := h.service.CaseFile(r.Context(), workerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newCaseFileResponse(file))
}

func (h *Handler) handleFaceCheck(w http.ResponseWriter, r *http.Request) {
	workerID, ok := workerIDParam(w, r)
	if !ok {
		return
	}
	record, err := h.service.RecordFaceCheck(r.Context(), workerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workerID, ok := workerIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[decisionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	worker, err := h.service.Decide(ctx, workerID, req.approve(), req.Remarks)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, disclosure.ProjectPolice(worker))
}

func (h *Handler) handleEnsureArtifacts(w http.ResponseWriter, r *http.Request) {
	workerID, ok := workerIDParam(w, r)
	if !ok {
		return
	}
	worker, err := h.service.EnsureArtifacts(r.Context(), workerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, disclosure.ProjectPolice(worker))
}

func (h *Handler) handleLogIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workerID, ok := workerIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[incidentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	incident, err := h.service.LogIncident(ctx, workerID,
		models.Severity(req.Severity), req.Description, req.ReportedBy, req.EvidenceURLs)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, incident)
}

func (h *Handler) handleSuspend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workerID, ok := workerIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[suspendRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	worker, err := h.service.Suspend(ctx, workerID, req.Permanent, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, disclosure.ProjectPolice(worker))
}

func (h *Handler) handleReactivate(w http.ResponseWriter, r *http.Request) {
	workerID, ok := workerIDParam(w, r)
	if !ok {
		return
	}
	worker, err := h.service.Reactivate(r.Context(), workerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, disclosure.ProjectPolice(worker))
}

// handleExpirySweep is also run on a schedule; the endpoint exists so
// operators can trigger it out of band.
func (h *Handler) handleExpirySweep(w http.ResponseWriter, r *http.Request) {
	expired, err := h.service.ExpireLapsed(r.Context(), time.Now().UTC())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sweepResponse{Expired: expired})
}
