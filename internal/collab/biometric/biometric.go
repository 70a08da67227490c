// Package biometric wraps the external face-match service. Scores arrive
// on a vendor 0-100 scale and are normalized to 0-1 before they touch
// domain logic.
package biometric

import (
	"context"

	dErrors "suraksha/pkg/domain-errors"
)

// Match is the vendor's verdict on a single comparison: a score on the
// vendor 0-100 scale plus whether the capture passed the liveness check.
type Match struct {
	Score  float64
	IsLive bool
}

// Matcher compares a live selfie against the reference capture.
type Matcher interface {
	Compare(ctx context.Context, selfieRef, referenceRef string) (Match, error)
}

// NormalizeScore converts a vendor score on the 0-100 scale into the 0-1
// range used internally. Out-of-range input is an error, not a clamp:
// a score of 7350 means a unit mix-up upstream, and silently clamping it
// to 1.0 would fabricate a perfect match.
func NormalizeScore(vendorScore float64) (float64, error) {
	if vendorScore < 0 || vendorScore > 100 {
		return 0, dErrors.Newf(dErrors.CodeValidation, "face match score %.2f is outside the 0-100 scale", vendorScore)
	}
	return vendorScore / 100, nil
}

// StaticMatcher returns a fixed verdict. It stands in for the vendor
// integration in development and tests.
type StaticMatcher struct {
	Confidence float64
	Live       bool
	Err        error
}

func (m *StaticMatcher) Compare(context.Context, string, string) (Match, error) {
	if m.Err != nil {
		return Match{}, dErrors.External("face match service", m.Err)
	}
	return Match{Score: m.Confidence, IsLive: m.Live}, nil
}
