package service

import (
	"context"
	"errors"

	"suraksha/internal/auth/models"
	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/platform/audit"
	"suraksha/pkg/platform/sentinel"
	"suraksha/pkg/requestcontext"
)

// SignupParams carries the fields a new account needs. An empty Role
// defaults to worker; admin accounts are provisioned out of band.
type SignupParams struct {
	Mobile   string
	Email    string
	Password string
	Role     requestcontext.Role
}

// Signup creates an account and immediately opens a session, so new workers
// land in onboarding without a second round trip.
func (s *AuthService) Signup(ctx context.Context, params SignupParams) (*Session, error) {
	role := params.Role
	if role == "" {
		role = requestcontext.RoleWorker
	}
	if role == requestcontext.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin accounts cannot self-register")
	}

	u, err := models.NewUser(params.Mobile, params.Email, params.Password, role, requestcontext.Now(ctx).UTC())
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "mobile number is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	session, err := s.openSession(ctx, u)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, audit.EventLogin, u.ID.String(), "signup")
	return session, nil
}

// Login checks mobile plus password. Unknown mobile and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, mobile, password string) (*Session, error) {
	u, err := s.users.FindByMobile(ctx, mobile)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.emit(ctx, audit.EventAuthFailed, mobile, "unknown mobile")
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}

	if !u.CheckPassword(password) {
		s.emit(ctx, audit.EventAuthFailed, u.ID.String(), "wrong password")
		return nil, invalidCredentials()
	}

	session, err := s.openSession(ctx, u)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, audit.EventLogin, u.ID.String(), "password")
	return session, nil
}

// RequestOTP issues a login challenge for a registered mobile. An unknown
// mobile is reported as success so the endpoint cannot be used to probe
// which numbers hold accounts.
func (s *AuthService) RequestOTP(ctx context.Context, mobile string) error {
	if s.otp == nil {
		return dErrors.New(dErrors.CodeInternal, "otp login is not configured")
	}

	_, err := s.users.FindByMobile(ctx, mobile)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.emit(ctx, audit.EventAuthFailed, mobile, "otp requested for unknown mobile")
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}

	return s.otp.Send(ctx, mobile)
}

// LoginOTP exchanges a verified challenge code for a session.
func (s *AuthService) LoginOTP(ctx context.Context, mobile, code string) (*Session, error) {
	if s.otp == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "otp login is not configured")
	}

	if err := s.otp.Verify(ctx, mobile, code); err != nil {
		return nil, err
	}

	u, err := s.users.FindByMobile(ctx, mobile)
	if errors.Is(err, sentinel.ErrNotFound) {
		// Challenge verified but no account behind it. Treat like any other
		// failed login.
		s.emit(ctx, audit.EventAuthFailed, mobile, "otp for unknown mobile")
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}

	session, err := s.openSession(ctx, u)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, audit.EventLogin, u.ID.String(), "otp")
	return session, nil
}

func (s *AuthService) openSession(ctx context.Context, u *models.User) (*Session, error) {
	token, err := s.tokens.Issue(u, requestcontext.Now(ctx).UTC())
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token, ExpiresIn: s.tokens.TTL()}, nil
}

func invalidCredentials() error {
	return dErrors.New(dErrors.CodeUnauthorized, "invalid mobile number or password")
}
