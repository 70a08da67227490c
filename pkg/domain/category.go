package domain

import dErrors "suraksha/pkg/domain-errors"

// WorkerCategory enumerates the kinds of workers the platform verifies.
type WorkerCategory string

const (
	CategoryDeliveryWorker WorkerCategory = "delivery_worker"
	CategoryAepsAgent      WorkerCategory = "aeps_agent"
)

// ParseWorkerCategory validates a category string at the trust boundary.
func ParseWorkerCategory(s string) (WorkerCategory, error) {
	switch WorkerCategory(s) {
	case CategoryDeliveryWorker, CategoryAepsAgent:
		return WorkerCategory(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown worker category: %s", s)
}

func (c WorkerCategory) String() string { return string(c) }

// Code returns the three-letter segment used in official worker IDs.
// Unknown categories fall back to the generic WRK code.
func (c WorkerCategory) Code() string {
	switch c {
	case CategoryDeliveryWorker:
		return "DLV"
	case CategoryAepsAgent:
		return "AEP"
	default:
		return "WRK"
	}
}
