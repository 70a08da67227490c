package handler

import (
	"time"

	"suraksha/internal/auth/service"
	"suraksha/pkg/requestcontext"
)

type signupRequest struct {
	Mobile   string `json:"mobile"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (r signupRequest) params() service.SignupParams {
	return service.SignupParams{
		Mobile:   r.Mobile,
		Email:    r.Email,
		Password: r.Password,
		Role:     requestcontext.Role(r.Role),
	}
}

type loginRequest struct {
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

type otpSendRequest struct {
	Mobile string `json:"mobile"`
}

type otpSentResponse struct {
	Sent bool `json:"sent"`
}

type otpVerifyRequest struct {
	Mobile string `json:"mobile"`
	Code   string `json:"code"`
}

// sessionResponse returns the bearer token plus enough account detail for
// the client to route to the right home screen. The password hash never
// leaves the service.
type sessionResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	OfficerID string `json:"officer_id,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
}

func newSessionResponse(s *service.Session) sessionResponse {
	resp := sessionResponse{
		Token:     s.Token,
		TokenType: "Bearer",
		ExpiresIn: int(s.ExpiresIn / time.Second),
		UserID:    s.User.ID.String(),
		Role:      string(s.User.Role),
	}
	if !s.User.OfficerID.IsNil() {
		resp.OfficerID = s.User.OfficerID.String()
	}
	if !s.User.CompanyID.IsNil() {
		resp.CompanyID = s.User.CompanyID.String()
	}
	return resp
}
