package audit

import (
	"context"
	"time"

	id "suraksha/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention.
	// Examples: verification decisions, worker ID issuance, suspensions.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and forensics.
	// Examples: OTP failures, auth failures, denied disclosure lookups.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled or aggregated with shorter retention.
	// Examples: onboarding step saves, OTP sends, QR regeneration.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	WorkerID  id.WorkerID
	Subject   string
	Action    string
	// Stage records where in the lifecycle the event happened, e.g.
	// an onboarding step number or a verification stage name.
	Stage    string
	Decision string
	Reason   string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
	// ActorID tracks who performed the action when different from the
	// worker, e.g. the police officer deciding a verification. It is a
	// string to support officer, company, and system actors alike.
	ActorID   string
	IP        string
	UserAgent string
}

// Store persists audit events. Implementations must be safe for
// concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByWorker(ctx context.Context, workerID id.WorkerID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

type AuditEvent string

const (
	// Onboarding events
	EventWorkerRegistered    AuditEvent = "worker_registered"
	EventOnboardingStepSaved AuditEvent = "onboarding_step_saved"
	EventOnboardingSubmitted AuditEvent = "onboarding_submitted"
	EventOnboardingRestarted AuditEvent = "onboarding_restarted"

	// Verification events
	EventFaceCheckRecorded   AuditEvent = "face_check_recorded"
	EventVerificationDecided AuditEvent = "verification_decided"
	EventWorkerIDIssued      AuditEvent = "worker_id_issued"
	EventQRGenerated         AuditEvent = "qr_generated"
	EventVerificationExpired AuditEvent = "verification_expired"

	// Incident and status events
	EventIncidentLogged    AuditEvent = "incident_logged"
	EventWorkerSuspended   AuditEvent = "worker_suspended"
	EventWorkerBlocked     AuditEvent = "worker_blocked"
	EventWorkerReactivated AuditEvent = "worker_reactivated"

	// Auth and OTP events
	EventOTPSent     AuditEvent = "otp_sent"
	EventOTPVerified AuditEvent = "otp_verified"
	EventOTPFailed   AuditEvent = "otp_failed"
	EventAuthFailed  AuditEvent = "auth_failed"
	EventLogin       AuditEvent = "login_succeeded"

	// Disclosure events
	EventDisclosureServed AuditEvent = "disclosure_served"
	EventDisclosureDenied AuditEvent = "disclosure_denied"

	// Company events
	EventCompanyRegistered AuditEvent = "company_registered"
	EventWorkerLinked      AuditEvent = "worker_linked"
	EventWorkerUnlinked    AuditEvent = "worker_unlinked"
)

// eventCategories maps each audit event to its category.
// Compliance: legal/regulatory significance, long retention required.
// Security: security monitoring, SIEM integration, alerting.
// Operations: debugging, operational visibility, can be sampled.
var eventCategories = map[AuditEvent]EventCategory{
	// Compliance events - require tamper-proof storage
	EventWorkerRegistered:    CategoryCompliance,
	EventOnboardingSubmitted: CategoryCompliance,
	EventVerificationDecided: CategoryCompliance,
	EventWorkerIDIssued:      CategoryCompliance,
	EventVerificationExpired: CategoryCompliance,
	EventIncidentLogged:      CategoryCompliance,
	EventWorkerSuspended:     CategoryCompliance,
	EventWorkerBlocked:       CategoryCompliance,
	EventWorkerReactivated:   CategoryCompliance,
	EventCompanyRegistered:   CategoryCompliance,
	EventWorkerLinked:        CategoryCompliance,
	EventWorkerUnlinked:      CategoryCompliance,

	// Security events - feed into SIEM and alerting
	EventOTPFailed:        CategorySecurity,
	EventAuthFailed:       CategorySecurity,
	EventDisclosureDenied: CategorySecurity,

	// Operations events - routine activity, can be sampled
	EventOnboardingStepSaved: CategoryOperations,
	EventOnboardingRestarted: CategoryOperations,
	EventFaceCheckRecorded:   CategoryOperations,
	EventQRGenerated:         CategoryOperations,
	EventOTPSent:             CategoryOperations,
	EventOTPVerified:         CategoryOperations,
	EventLogin:               CategoryOperations,
	EventDisclosureServed:    CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
