package models

// Progress summarizes where a worker stands in onboarding. Served to the
// worker's own dashboard.
type Progress struct {
	OnboardingStep       int                `json:"onboarding_step"`
	Submitted            bool               `json:"submitted"`
	Status               WorkerStatus       `json:"status"`
	VerificationStatus   VerificationStatus `json:"verification_status"`
	MissingPrerequisites []string           `json:"missing_prerequisites,omitempty"`
}

// ProgressOf builds the onboarding summary for a worker record.
func ProgressOf(w *Worker) Progress {
	return Progress{
		OnboardingStep:       w.OnboardingStep,
		Submitted:            w.OnboardingStep == FinalStep,
		Status:               w.Status,
		VerificationStatus:   w.VerificationStatus,
		MissingPrerequisites: w.MissingPrerequisites(),
	}
}
