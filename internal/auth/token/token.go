// Package token issues and validates the JWT access tokens carried on every
// authenticated request.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"suraksha/internal/auth/models"
	id "suraksha/pkg/domain"
	dErrors "suraksha/pkg/domain-errors"
	authmw "suraksha/pkg/platform/middleware/auth"
	"suraksha/pkg/requestcontext"
)

const issuerName = "suraksha"

// Claims are the token claims. The subject is the account ID; role and the
// optional profile IDs let middleware rebuild the caller identity without a
// database read.
type Claims struct {
	Role      string `json:"role"`
	OfficerID string `json:"officer_id,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// Service signs and validates HS256 access tokens.
type Service struct {
	signingKey []byte
	ttl        time.Duration
}

func NewService(signingKey string, ttl time.Duration) *Service {
	return &Service{signingKey: []byte(signingKey), ttl: ttl}
}

// Issue signs an access token for the account.
func (s *Service) Issue(u *models.User, now time.Time) (string, error) {
	claims := Claims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuerName,
			ID:        uuid.NewString(),
		},
	}
	if !u.OfficerID.IsNil() {
		claims.OfficerID = u.OfficerID.String()
	}
	if !u.CompanyID.IsNil() {
		claims.CompanyID = u.CompanyID.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign access token")
	}
	return signed, nil
}

// TTL reports how long issued tokens stay valid.
func (s *Service) TTL() time.Duration { return s.ttl }

// ValidateToken parses and verifies a token and maps its claims to the
// middleware identity. It satisfies the auth middleware's TokenValidator.
func (s *Service) ValidateToken(tokenString string) (*authmw.Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(issuerName))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}

	out := &authmw.Claims{
		UserID: userID,
		Role:   requestcontext.Role(claims.Role),
	}
	if claims.OfficerID != "" {
		officerID, err := id.ParseOfficerID(claims.OfficerID)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
		}
		out.OfficerID = officerID
	}
	if claims.CompanyID != "" {
		companyID, err := id.ParseCompanyID(claims.CompanyID)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
		}
		out.CompanyID = companyID
	}
	return out, nil
}
