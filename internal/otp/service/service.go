// Package service implements OTP send and verify for mobile login.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Notifier,AuditPublisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"suraksha/internal/otp/models"
	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/platform/audit"
	"suraksha/pkg/platform/sentinel"
	"suraksha/pkg/requestcontext"
)

// Store persists outstanding challenges.
type Store interface {
	Save(ctx context.Context, c *models.Challenge) error
	Find(ctx context.Context, mobile string) (*models.Challenge, error)
	Delete(ctx context.Context, mobile string) error
}

// Notifier delivers the code to the worker's mobile.
type Notifier interface {
	Notify(ctx context.Context, recipient, subject, body string) error
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

// OTPService issues and checks login challenges.
type OTPService struct {
	store     Store
	notifier  Notifier
	logger    *slog.Logger
	publisher AuditPublisher
}

func NewOTPService(store Store, notifier Notifier, opts ...Option) *OTPService {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &OTPService{
		store:     store,
		notifier:  notifier,
		logger:    cfg.logger,
		publisher: cfg.auditPublisher,
	}
}

// Send issues a fresh challenge for the mobile number, replacing any
// outstanding one. The code travels only through the notifier.
func (s *OTPService) Send(ctx context.Context, mobile string) error {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return dErrors.New(dErrors.CodeValidation, "mobile is required")
	}

	challenge, err := models.NewChallenge(mobile, time.Now().UTC())
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate otp")
	}
	if err := s.store.Save(ctx, challenge); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store otp challenge")
	}

	body := fmt.Sprintf("Your Suraksha verification code is %s. It expires in %d minutes.",
		challenge.Code, int(models.TTL.Minutes()))
	if err := s.notifier.Notify(ctx, mobile, "Suraksha login code", body); err != nil {
		// Burn the stored challenge; the worker never received it.
		_ = s.store.Delete(ctx, mobile)
		return dErrors.External("otp delivery", err)
	}

	s.emit(ctx, audit.EventOTPSent, mobile, "")
	return nil
}

// Verify checks a guess against the outstanding challenge. A correct guess
// consumes the challenge; a miss burns one of the bounded attempts.
func (s *OTPService) Verify(ctx context.Context, mobile, code string) error {
	mobile = strings.TrimSpace(mobile)

	challenge, err := s.store.Find(ctx, mobile)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.emit(ctx, audit.EventOTPFailed, mobile, "no outstanding challenge")
		return invalidOTP()
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load otp challenge")
	}

	if challenge.Expired(time.Now().UTC()) {
		_ = s.store.Delete(ctx, mobile)
		s.emit(ctx, audit.EventOTPFailed, mobile, "challenge expired")
		return invalidOTP()
	}
	if challenge.Exhausted() {
		_ = s.store.Delete(ctx, mobile)
		s.emit(ctx, audit.EventOTPFailed, mobile, "attempts exhausted")
		return dErrors.New(dErrors.CodeExhausted, "too many incorrect attempts; request a new otp")
	}

	if !challenge.Match(code) {
		if err := s.store.Save(ctx, challenge); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record otp attempt")
		}
		s.emit(ctx, audit.EventOTPFailed, mobile, "code mismatch")
		return invalidOTP()
	}

	if err := s.store.Delete(ctx, mobile); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume otp challenge")
	}
	s.emit(ctx, audit.EventOTPVerified, mobile, "")
	return nil
}

func invalidOTP() error {
	return dErrors.New(dErrors.CodeUnauthorized, "otp is invalid or expired")
}

// emit records the OTP event. OTP traffic is high volume and the code is
// never included, so a failed audit write logs instead of failing login.
func (s *OTPService) emit(ctx context.Context, event audit.AuditEvent, mobile, reason string) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event),
			"log_type", "audit",
			"mobile", mobile,
			"reason", reason,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if s.publisher == nil {
		return
	}
	e := audit.Event{
		Subject:   mobile,
		Action:    string(event),
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
		IP:        requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	}
	if err := s.publisher.Emit(ctx, e); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "otp audit write failed", "error", err)
	}
}
