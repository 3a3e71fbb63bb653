package constants

// DocumentStatus is the canonical lifecycle status for rows in documents.
type DocumentStatus string

// Stable values (store these exact strings in DB).
const (
	DocStatusUploaded    DocumentStatus = "UPLOADED"     // stored, not yet processed
	DocStatusProcessing  DocumentStatus = "PROCESSING"   // OCR/extraction in progress
	DocStatusProcessed   DocumentStatus = "PROCESSED"    // extraction succeeded
	DocStatusNeedsReview DocumentStatus = "NEEDS_REVIEW" // low confidence, human review
	DocStatusFailed      DocumentStatus = "FAILED"       // terminal failure
)

// RequirementStatus is the lifecycle status of a compliance requirement.
type RequirementStatus string

const (
	ReqStatusPending      RequirementStatus = "PENDING"
	ReqStatusInProgress   RequirementStatus = "IN_PROGRESS"
	ReqStatusCompliant    RequirementStatus = "COMPLIANT"
	ReqStatusExpiringSoon RequirementStatus = "EXPIRING_SOON"
	ReqStatusExpired      RequirementStatus = "EXPIRED"
	ReqStatusNonCompliant RequirementStatus = "NON_COMPLIANT"
	ReqStatusWaived       RequirementStatus = "WAIVED"
)

// OpenRequirementStatuses are the statuses a new document can still satisfy.
// Everything else is terminal for linking purposes.
var OpenRequirementStatuses = []RequirementStatus{
	ReqStatusPending,
	ReqStatusExpiringSoon,
	ReqStatusExpired,
}

// IsOpen reports whether a requirement in this status accepts new documents.
func (s RequirementStatus) IsOpen() bool {
	for _, o := range OpenRequirementStatuses {
		if s == o {
			return true
		}
	}
	return false
}
