// Package service implements account signup and login for all caller roles.
package service

import (
	"context"
	"log/slog"
	"time"

	"suraksha/internal/auth/models"
	id "suraksha/pkg/domain"
	"suraksha/pkg/platform/audit"
	"suraksha/pkg/requestcontext"
)

// UserStore persists authentication accounts.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByMobile(ctx context.Context, mobile string) (*models.User, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(u *models.User, now time.Time) (string, error)
	TTL() time.Duration
}

// OTPService controls the mobile challenge flow for passwordless login.
type OTPService interface {
	Send(ctx context.Context, mobile string) error
	Verify(ctx context.Context, mobile, code string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serviceConfig) { cfg.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(cfg *serviceConfig) { cfg.auditPublisher = publisher }
}

// AuthService owns accounts and sessions. OTP login is optional; a nil otp
// collaborator disables the passwordless endpoints.
type AuthService struct {
	users     UserStore
	tokens    TokenIssuer
	otp       OTPService
	logger    *slog.Logger
	publisher AuditPublisher
}

func NewAuthService(users UserStore, tokens TokenIssuer, otp OTPService, opts ...Option) *AuthService {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		otp:       otp,
		logger:    cfg.logger,
		publisher: cfg.auditPublisher,
	}
}

// Session is the result of a successful signup or login.
type Session struct {
	User      *models.User
	Token     string
	ExpiresIn time.Duration
}

// emit records a security event. Audit failures log rather than block the
// login path; the synchronous fail-closed publisher guards state changes,
// not reads.
func (s *AuthService) emit(ctx context.Context, event audit.AuditEvent, subject, reason string) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event),
			"log_type", "audit",
			"subject", subject,
			"reason", reason,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if s.publisher == nil {
		return
	}
	e := audit.Event{
		Subject:   subject,
		Action:    string(event),
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
		IP:        requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	}
	if err := s.publisher.Emit(ctx, e); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"action", e.Action,
			"error", err,
		)
	}
}
