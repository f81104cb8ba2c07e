package models

import "time"

// AuditAction constants represent moderation events to be logged.
const (
	AuditActionLogin            = "LOGIN"
	AuditActionSubmissionCreate = "SUBMISSION_CREATE"
	AuditActionEvaluate         = "SUBMISSION_EVALUATE"
	AuditActionAutoApprove      = "SUBMISSION_AUTO_APPROVE"
	AuditActionClaim            = "SUBMISSION_CLAIM"
	AuditActionReview           = "SUBMISSION_REVIEW"
	AuditActionBulkReview       = "SUBMISSION_BULK_REVIEW"
	AuditActionApply            = "SUBMISSION_APPLY"
	AuditActionRuleUpsert       = "RULE_UPSERT"
	AuditActionRuleDelete       = "RULE_DELETE"
	AuditActionRuleToggle       = "RULE_TOGGLE"
)

// AuditLog represents an append-only audit trail record. Entries reference
// entity ids only; the log owns no other entity's data.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
