// Package handler exposes signup and login over HTTP. These routes are the
// only ones mounted without authentication besides the public verify page.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"suraksha/internal/auth/service"
	"suraksha/pkg/platform/httputil"
	"suraksha/pkg/requestcontext"
)

// Service is the account surface the handler needs.
type Service interface {
	Signup(ctx context.Context, params service.SignupParams) (*service.Session, error)
	Login(ctx context.Context, mobile, password string) (*service.Session, error)
	RequestOTP(ctx context.Context, mobile string) error
	LoginOTP(ctx context.Context, mobile, code string) (*service.Session, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the auth routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/signup", h.handleSignup)
	r.Post("/login", h.handleLogin)
	r.Post("/otp/send", h.handleSendOTP)
	r.Post("/otp/verify", h.handleVerifyOTP)
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[signupRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	session, err := h.service.Signup(ctx, req.params())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, newSessionResponse(session))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[loginRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	session, err := h.service.Login(ctx, req.Mobile, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newSessionResponse(session))
}

func (h *Handler) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[otpSendRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	if err := h.service.RequestOTP(ctx, req.Mobile); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, otpSentResponse{Sent: true})
}

func (h *Handler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[otpVerifyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	session, err := h.service.LoginOTP(ctx, req.Mobile, req.Code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newSessionResponse(session))
}
