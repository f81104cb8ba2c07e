package models

import "time"

// EntityType identifies which canonical dataset a submission targets.
type EntityType string

const (
	EntityUniversity  EntityType = "UNIVERSITY"
	EntityMerit       EntityType = "MERIT"
	EntityDeadline    EntityType = "DEADLINE"
	EntityScholarship EntityType = "SCHOLARSHIP"
	EntityProgram     EntityType = "PROGRAM"
	EntityFee         EntityType = "FEE"
	EntityOther       EntityType = "OTHER"
)

// SubmissionType classifies the kind of correction being proposed.
type SubmissionType string

const (
	SubmissionMeritUpdate     SubmissionType = "MERIT_UPDATE"
	SubmissionDateCorrection  SubmissionType = "DATE_CORRECTION"
	SubmissionEntryTestUpdate SubmissionType = "ENTRY_TEST_UPDATE"
	SubmissionUniversityInfo  SubmissionType = "UNIVERSITY_INFO"
	SubmissionScholarshipInfo SubmissionType = "SCHOLARSHIP_INFO"
	SubmissionProgramInfo     SubmissionType = "PROGRAM_INFO"
	SubmissionFeeUpdate       SubmissionType = "FEE_UPDATE"
	SubmissionOther           SubmissionType = "OTHER"
)

// KnownSubmissionTypes lists every supported submission type.
var KnownSubmissionTypes = []SubmissionType{
	SubmissionMeritUpdate,
	SubmissionDateCorrection,
	SubmissionEntryTestUpdate,
	SubmissionUniversityInfo,
	SubmissionScholarshipInfo,
	SubmissionProgramInfo,
	SubmissionFeeUpdate,
	SubmissionOther,
}

// SubmissionPriority orders the review queue.
type SubmissionPriority string

const (
	PriorityLow    SubmissionPriority = "LOW"
	PriorityMedium SubmissionPriority = "MEDIUM"
	PriorityHigh   SubmissionPriority = "HIGH"
	PriorityUrgent SubmissionPriority = "URGENT"
)

// SubmissionStatus captures workflow states for proposed corrections.
type SubmissionStatus string

const (
	SubmissionStatusPending      SubmissionStatus = "PENDING"
	SubmissionStatusUnderReview  SubmissionStatus = "UNDER_REVIEW"
	SubmissionStatusApproved     SubmissionStatus = "APPROVED"
	SubmissionStatusRejected     SubmissionStatus = "REJECTED"
	SubmissionStatusAutoApproved SubmissionStatus = "AUTO_APPROVED"
)

// Terminal reports whether no further transitions are permitted.
func (s SubmissionStatus) Terminal() bool {
	switch s {
	case SubmissionStatusApproved, SubmissionStatusRejected, SubmissionStatusAutoApproved:
		return true
	}
	return false
}

// AuthProvider identifies how the submitter authenticated.
type AuthProvider string

const (
	AuthProviderGoogle AuthProvider = "GOOGLE"
	AuthProviderEmail  AuthProvider = "EMAIL"
	AuthProviderGuest  AuthProvider = "GUEST"
)

// SystemPrincipal is recorded as reviewer on auto-approved submissions.
const SystemPrincipal = "system"

// DataSubmission is a user-proposed correction to one field of one canonical
// entity, from intake through terminal review.
type DataSubmission struct {
	ID            string     `db:"id" json:"id"`
	EntityType    EntityType `db:"entity_type" json:"entityType"`
	EntityID      string     `db:"entity_id" json:"entityId"`
	EntityName    string     `db:"entity_name" json:"entityName"`
	FieldName     string     `db:"field_name" json:"fieldName"`
	CurrentValue  string     `db:"current_value" json:"currentValue"`
	ProposedValue string     `db:"proposed_value" json:"proposedValue"`
	ChangeReason  string     `db:"change_reason" json:"changeReason"`
	SourceProof   *string    `db:"source_proof" json:"sourceProof,omitempty"`

	SubmittedBy   *string      `db:"submitted_by" json:"submittedBy,omitempty"`
	SubmitterName string       `db:"submitter_name" json:"submitterName"`
	TrustLevel    int          `db:"trust_level" json:"trustLevel"`
	AuthProvider  AuthProvider `db:"auth_provider" json:"authProvider"`
	EmailVerified bool         `db:"email_verified" json:"emailVerified"`

	Type     SubmissionType     `db:"type" json:"type"`
	Priority SubmissionPriority `db:"priority" json:"priority"`

	Status    SubmissionStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`

	// ClaimedBy records who moved the submission to UNDER_REVIEW.
	// ReviewedBy/ReviewedAt are written together by the terminal decision
	// and stay null until then.
	ClaimedBy       *string    `db:"claimed_by" json:"claimedBy,omitempty"`
	ReviewedBy      *string    `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time `db:"reviewed_at" json:"reviewedAt,omitempty"`
	ReviewerNotes   *string    `db:"reviewer_notes" json:"reviewerNotes,omitempty"`
	RejectionReason *string    `db:"rejection_reason" json:"rejectionReason,omitempty"`
	AutoApproved    bool       `db:"auto_approved" json:"autoApproved"`
	MatchedRuleID   *string    `db:"matched_rule_id" json:"matchedRuleId,omitempty"`
}

// SubmissionSort selects the list ordering exposed to the admin panel.
type SubmissionSort string

const (
	SortByPriority SubmissionSort = "priority"
	SortByDate     SubmissionSort = "date"
	SortByTrust    SubmissionSort = "trust"
)

// SubmissionFilter constrains listing queries.
type SubmissionFilter struct {
	Status     []SubmissionStatus
	Type       SubmissionType
	Priority   SubmissionPriority
	EntityType EntityType
	Sort       SubmissionSort
	Limit      int
	Offset     int
}

// ModerationStatistics aggregates lifetime pipeline counts.
type ModerationStatistics struct {
	Total             int     `db:"total" json:"total"`
	Pending           int     `db:"pending" json:"pending"`
	UnderReview       int     `db:"under_review" json:"underReview"`
	Approved          int     `db:"approved" json:"approved"`
	Rejected          int     `db:"rejected" json:"rejected"`
	AutoApproved      int     `db:"auto_approved" json:"autoApproved"`
	AvgApprovalTimeMs float64 `db:"avg_approval_time_ms" json:"avgApprovalTimeMs"`
}
