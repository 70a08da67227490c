// Package models holds the account record behind every authenticated caller.
// Workers, police officers, and company reviewers all log in through the same
// user table; the role decides which profile IDs travel in the token.
package models

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	id "suraksha/pkg/domain"
	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/requestcontext"
)

// MinPasswordLength is enforced at signup, not at login, so existing
// accounts keep working if the policy tightens.
const MinPasswordLength = 8

var mobilePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// User is an authentication account. PasswordHash is a bcrypt digest and is
// never serialized outward.
type User struct {
	ID           id.UserID
	Mobile       string
	Email        string
	PasswordHash string
	Role         requestcontext.Role
	// OfficerID is set only for police accounts and travels in the token so
	// verification decisions can be attributed to the deciding officer.
	OfficerID id.OfficerID
	// CompanyID is set only for company accounts.
	CompanyID id.CompanyID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser builds an account with a freshly hashed password. Police accounts
// get an officer profile ID minted here; company accounts get a company ID.
func NewUser(mobile, email, password string, role requestcontext.Role, now time.Time) (*User, error) {
	mobile = strings.TrimSpace(mobile)
	if !mobilePattern.MatchString(mobile) {
		return nil, dErrors.New(dErrors.CodeValidation, "mobile number must be 10 to 15 digits")
	}
	if len(password) < MinPasswordLength {
		return nil, dErrors.Newf(dErrors.CodeValidation, "password must be at least %d characters", MinPasswordLength)
	}
	if !validRole(role) {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown account role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	u := &User{
		ID:           id.NewUserID(),
		Mobile:       mobile,
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	switch role {
	case requestcontext.RolePolice:
		u.OfficerID = id.NewOfficerID()
	case requestcontext.RoleCompany:
		u.CompanyID = id.NewCompanyID()
	}
	return u, nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Clone returns a deep copy so stores can hand out records without aliasing.
func (u *User) Clone() *User {
	c := *u
	return &c
}

func validRole(role requestcontext.Role) bool {
	switch role {
	case requestcontext.RoleWorker, requestcontext.RolePolice, requestcontext.RoleCompany, requestcontext.RoleAdmin:
		return true
	}
	return false
}
