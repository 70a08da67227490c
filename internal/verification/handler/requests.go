package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"suraksha/internal/disclosure"
	"suraksha/internal/verification/models"
	"suraksha/internal/verification/service"
	id "suraksha/pkg/domain"
	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/platform/httputil"
)

func workerIDParam(w http.ResponseWriter, r *http.Request) (id.WorkerID, bool) {
	workerID, err := id.ParseWorkerID(chi.URLParam(r, "workerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.WorkerID{}, false
	}
	return workerID, true
}

type decisionRequest struct {
	Decision string `json:"decision"`
	Remarks  string `json:"remarks"`
}

func (r decisionRequest) validate() error {
	switch strings.ToLower(r.Decision) {
	case string(models.DecisionApproved), string(models.DecisionRejected):
		return nil
	default:
		return dErrors.New(dErrors.CodeInvalidInput, `decision must be "approved" or "rejected"`)
	}
}

func (r decisionRequest) approve() bool {
	return strings.ToLower(r.Decision) == string(models.DecisionApproved)
}

type incidentRequest struct {
	Severity     string   `json:"severity"`
	Description  string   `json:"description"`
	ReportedBy   string   `json:"reported_by"`
	EvidenceURLs []string `json:"evidence_urls"`
}

type suspendRequest struct {
	Permanent bool   `json:"permanent"`
	Reason    string `json:"reason"`
}

type queueResponse struct {
	Workers []*disclosure.PoliceView `json:"workers"`
	Count   int                      `json:"count"`
}

type sweepResponse struct {
	Expired int `json:"expired"`
}

type caseFileResponse struct {
	Worker    *disclosure.PoliceView `json:"worker"`
	OpenCase  *models.Record         `json:"open_case,omitempty"`
	History   []*models.Record       `json:"history"`
	Incidents []*models.Incident     `json:"incidents"`
}

func newCaseFileResponse(file *service.CaseFile) caseFileResponse {
	return caseFileResponse{
		Worker:    disclosure.ProjectPolice(file.Worker),
		OpenCase:  file.OpenCase,
		History:   file.History,
		Incidents: file.Incidents,
	}
}
