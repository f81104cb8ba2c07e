package dto

import "github.com/humna-mustafa/pakuni-api/internal/models"

// CreateSubmissionRequest is the mobile intake payload for a proposed
// correction.
type CreateSubmissionRequest struct {
	EntityType    models.EntityType     `json:"entityType"`
	EntityID      string                `json:"entityId"`
	EntityName    string                `json:"entityName"`
	FieldName     string                `json:"fieldName"`
	CurrentValue  string                `json:"currentValue"`
	ProposedValue string                `json:"proposedValue"`
	ChangeReason  string                `json:"changeReason"`
	SourceProof   string                `json:"sourceProof"`
	Type          models.SubmissionType `json:"type"`
	Priority      models.SubmissionPriority `json:"priority"`

	SubmitterName string              `json:"submitterName"`
	TrustLevel    int                 `json:"trustLevel"`
	AuthProvider  models.AuthProvider `json:"authProvider"`
	EmailVerified bool                `json:"emailVerified"`
}

// ReviewAction selects the reviewer decision.
type ReviewAction string

const (
	ReviewActionApprove ReviewAction = "APPROVE"
	ReviewActionReject  ReviewAction = "REJECT"
)

// ReviewSubmissionRequest captures a single reviewer decision.
type ReviewSubmissionRequest struct {
	Action          ReviewAction `json:"action"`
	Notes           string       `json:"notes"`
	RejectionReason string       `json:"rejectionReason"`
}

// ReviewResult is returned for a single review.
type ReviewResult struct {
	Submission *models.DataSubmission `json:"submission"`
	// Apply is set on approvals; partial failures are reported in
	// Apply.Errors without reverting the approval.
	Apply *models.ApplyReport `json:"apply,omitempty"`
}

// BulkReviewRequest processes several submissions with one decision.
type BulkReviewRequest struct {
	SubmissionIDs   []string     `json:"submissionIds"`
	Action          ReviewAction `json:"action"`
	Notes           string       `json:"notes"`
	RejectionReason string       `json:"rejectionReason"`
}

// BulkReviewResult reports per-item outcomes. Bulk review never fails
// atomically; failed items are listed in Errors.
type BulkReviewResult struct {
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

// SubmissionQuery mirrors supported listing filters.
type SubmissionQuery struct {
	Status     []models.SubmissionStatus
	Type       models.SubmissionType
	Priority   models.SubmissionPriority
	EntityType models.EntityType
	Sort       models.SubmissionSort
	Limit      int
	Offset     int
}

// DecisionResponse describes the intake verdict returned to the mobile
// client.
type DecisionResponse struct {
	Submission    *models.DataSubmission `json:"submission"`
	Verdict       models.SubmissionStatus `json:"verdict"`
	MatchedRuleID *string                 `json:"matchedRuleId,omitempty"`
}
