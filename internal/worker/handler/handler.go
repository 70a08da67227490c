// Package handler exposes worker registration and onboarding over HTTP.
// All routes here are mounted behind authentication with the worker role.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"suraksha/internal/disclosure"
	"suraksha/internal/worker/models"
	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/platform/httputil"
	"suraksha/pkg/requestcontext"
)

// Service is the worker onboarding surface the handler needs.
type Service interface {
	Register(ctx context.Context) (*models.Worker, error)
	SaveStep(ctx context.Context, payload models.StepPayload) (*models.Worker, error)
	SaveSelfie(ctx context.Context, data []byte, contentType string) (*models.Worker, error)
	Submit(ctx context.Context, consent models.Step6Consent) (*models.Worker, error)
	Profile(ctx context.Context) (*models.Worker, error)
	Progress(ctx context.Context) (models.Progress, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the worker routes on the given router. Authentication
// and role checks are applied by the caller.
func (h *Handler) Register(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/onboarding/step/{step}", h.handleSaveStep)
	r.Post("/onboarding/selfie", h.handleSaveSelfie)
	r.Post("/onboarding/submit", h.handleSubmit)
	r.Get("/profile", h.handleProfile)
	r.Get("/progress", h.handleProgress)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	worker, err := h.service.Register(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, disclosure.ProjectOwner(worker))
}

func (h *Handler) handleSaveStep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	step, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "onboarding step must be a number"))
		return
	}

	payload, ok := decodeStepPayload(w, r, h.logger, ctx, requestID, step)
	if !ok {
		return
	}

	worker, err := h.service.SaveStep(ctx, payload)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newStepResponse(worker))
}

func (h *Handler) handleSaveSelfie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[selfieRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	data, contentType, err := req.decode()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	worker, err := h.service.SaveSelfie(ctx, data, contentType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newStepResponse(worker))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	consent, ok := httputil.DecodeAndPrepare[models.Step6Consent](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	worker, err := h.service.Submit(ctx, consent)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, disclosure.ProjectOwner(worker))
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	worker, err := h.service.Profile(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, disclosure.ProjectOwner(worker))
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.service.Progress(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, progress)
}
