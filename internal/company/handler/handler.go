// Package handler exposes the employer company surface over HTTP: profile
// registration and the roster of linked workers. All routes here are
// mounted behind authentication with the company role.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"suraksha/internal/company/models"
	"suraksha/internal/disclosure"
	workermodels "suraksha/internal/worker/models"
	"suraksha/pkg/platform/httputil"
	"suraksha/pkg/requestcontext"
)

// Service is the company surface the handler needs.
type Service interface {
	Register(ctx context.Context, params models.RegisterParams) (*models.Company, error)
	Profile(ctx context.Context) (*models.Company, error)
	LinkWorker(ctx context.Context, officialID string) (*workermodels.Worker, error)
	UnlinkWorker(ctx context.Context, officialID string) (*workermodels.Worker, error)
	Roster(ctx context.Context) ([]*workermodels.Worker, error)
	RosterWorker(ctx context.Context, officialID string) (*workermodels.Worker, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the company routes on the given router. Authentication
// and role checks are applied by the caller.
func (h *Handler) Register(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Get("/profile", h.handleProfile)
	r.Get("/workers", h.handleRoster)
	r.Get("/workers/{officialID}", h.handleRosterWorker)
	r.Post("/workers/{officialID}/link", h.handleLinkWorker)
	r.Post("/workers/{officialID}/unlink", h.handleUnlinkWorker)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[registerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	company, err := h.service.Register(ctx, req.toParams())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, company)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	company, err := h.service.Profile(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, company)
}

func (h *Handler) handleRoster(w http.ResponseWriter, r *http.Request) {
	workers, err := h.service.Roster(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	views := make([]*disclosure.CompanyView, 0, len(workers))
	for _, worker := range workers {
		views = append(views, disclosure.ProjectCompany(worker))
	}
	httputil.WriteJSON(w, http.StatusOK, rosterResponse{Workers: views, Total: len(views)})
}

func (h *Handler) handleRosterWorker(w http.ResponseWriter, r *http.Request) {
	worker, err := h.service.RosterWorker(r.Context(), chi.URLParam(r, "officialID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, disclosure.ProjectCompany(worker))
}

func (h *Handler) handleLinkWorker(w http.ResponseWriter, r *http.Request) {
	worker, err := h.service.LinkWorker(r.Context(), chi.URLParam(r, "officialID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, disclosure.ProjectCompany(worker))
}

func (h *Handler) handleUnlinkWorker(w http.ResponseWriter, r *http.Request) {
	worker, err := h.service.UnlinkWorker(r.Context(), chi.URLParam(r, "officialID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, disclosure.ProjectCompany(worker))
}
