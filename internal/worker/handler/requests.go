package handler

import (
	"context"
	"log/slog"
	"net/http"

	"suraksha/internal/collab/assetstore"
	"suraksha/internal/worker/models"
	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/platform/httputil"
)

// decodeStepPayload decodes the request body into the payload type for the
// given step. Steps 3 and 6 have dedicated endpoints and are rejected here.
func decodeStepPayload(w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string, step int) (models.StepPayload, bool) {
	switch step {
	case 1:
		return decodeAs[models.Step1Basic](w, r, logger, ctx, requestID)
	case 2:
		return decodeAs[models.Step2Address](w, r, logger, ctx, requestID)
	case 4:
		return decodeAs[models.Step4Aadhaar](w, r, logger, ctx, requestID)
	case 5:
		return decodeAs[models.Step5AePS](w, r, logger, ctx, requestID)
	case 3:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "step 3 must be submitted through the selfie endpoint"))
		return nil, false
	case models.FinalStep:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "step 6 must be submitted through the submit endpoint"))
		return nil, false
	default:
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeInvalidInput, "onboarding step %d is out of range", step))
		return nil, false
	}
}

func decodeAs[T models.StepPayload](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (models.StepPayload, bool) {
	payload, ok := httputil.DecodeAndPrepare[T](w, r, logger, ctx, requestID)
	if !ok {
		return nil, false
	}
	return payload, true
}

type selfieRequest struct {
	ImageData string `json:"image_data"`
}

func (r selfieRequest) decode() ([]byte, string, error) {
	return assetstore.DecodeImage(r.ImageData)
}

// stepResponse is returned after each accepted step save.
type stepResponse struct {
	OnboardingStep       int      `json:"onboarding_step"`
	Submitted            bool     `json:"submitted"`
	MissingPrerequisites []string `json:"missing_prerequisites,omitempty"`
}

func newStepResponse(w *models.Worker) stepResponse {
	return stepResponse{
		OnboardingStep:       w.OnboardingStep,
		Submitted:            w.OnboardingStep == models.FinalStep,
		MissingPrerequisites: w.MissingPrerequisites(),
	}
}
