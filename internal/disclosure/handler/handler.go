// Package handler serves the public verification endpoints backing the QR
// code on a worker's ID card. The routes are unauthenticated; the
// projection layer guarantees nothing sensitive leaves.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"suraksha/internal/disclosure"
	workermodels "suraksha/internal/worker/models"
	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/platform/audit"
	"suraksha/pkg/platform/httputil"
	"suraksha/pkg/platform/sentinel"
)

// WorkerFinder resolves official worker IDs to worker records.
type WorkerFinder interface {
	FindByOfficialID(ctx context.Context, officialID string) (*workermodels.Worker, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Handler struct {
	workers   WorkerFinder
	publisher AuditPublisher
	logger    *slog.Logger
}

func New(workers WorkerFinder, publisher AuditPublisher, logger *slog.Logger) *Handler {
	return &Handler{workers: workers, publisher: publisher, logger: logger}
}

// Register mounts the public routes. /verify is the QR scan landing URL;
// /api/verify/worker/{officialID} is the machine endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Get("/verify", h.handleScan)
	r.Get("/api/verify/worker/{officialID}", h.handleVerify)
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, r.URL.Query().Get("id"))
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, chi.URLParam(r, "officialID"))
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, officialID string) {
	ctx := r.Context()

	officialID = strings.TrimSpace(officialID)
	if officialID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "official worker ID is required"))
		return
	}

	worker, err := h.workers.FindByOfficialID(ctx, officialID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			h.audit(ctx, audit.EventDisclosureDenied, nil, officialID)
			httputil.WriteError(w, notFound())
			return
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "worker lookup failed"))
		return
	}

	view, err := disclosure.ProjectPublic(worker)
	if err != nil {
		// Pending, rejected, suspended: all collapse to not-found so the
		// response never reveals an application is in flight.
		h.audit(ctx, audit.EventDisclosureDenied, worker, officialID)
		httputil.WriteError(w, notFound())
		return
	}

	h.audit(ctx, audit.EventDisclosureServed, worker, officialID)
	httputil.WriteJSON(w, http.StatusOK, view)
}

func notFound() error {
	return dErrors.New(dErrors.CodeNotFound, "no verified worker found")
}

// audit records the disclosure outcome. The lookup is a public read, so a
// failed audit write logs instead of failing the request.
func (h *Handler) audit(ctx context.Context, event audit.AuditEvent, worker *workermodels.Worker, officialID string) {
	if h.publisher == nil {
		return
	}
	e := audit.Event{
		Subject: officialID,
		Action:  string(event),
	}
	if worker != nil {
		e.WorkerID = worker.ID
	}
	if err := h.publisher.Emit(ctx, e); err != nil && h.logger != nil {
		h.logger.WarnContext(ctx, "disclosure audit write failed",
			"subject", officialID, "error", err)
	}
}
