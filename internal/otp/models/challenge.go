// Package models holds the OTP challenge used for mobile login.
package models

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"
)

const (
	// TTL is how long a challenge stays valid after being sent.
	TTL = 10 * time.Minute
	// MaxAttempts bounds wrong guesses before the challenge burns.
	MaxAttempts = 3

	codeDigits = 6
)

// Challenge is one outstanding OTP for a mobile number. A new Send
// replaces any previous challenge for the same number.
type Challenge struct {
	Mobile    string    `json:"mobile"`
	Code      string    `json:"code"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// NewChallenge generates a fresh six-digit challenge.
func NewChallenge(mobile string, now time.Time) (*Challenge, error) {
	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	return &Challenge{
		Mobile:    mobile,
		Code:      code,
		ExpiresAt: now.Add(TTL),
		CreatedAt: now,
	}, nil
}

// Expired reports whether the challenge's window has passed.
func (c *Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Exhausted reports whether the guess budget is spent.
func (c *Challenge) Exhausted() bool {
	return c.Attempts >= MaxAttempts
}

// Match checks a guess in constant time and burns one attempt on a miss.
func (c *Challenge) Match(code string) bool {
	if subtle.ConstantTimeCompare([]byte(c.Code), []byte(code)) == 1 {
		return true
	}
	c.Attempts++
	return false
}

var codeMax = big.NewInt(1000000)

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeMax)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
