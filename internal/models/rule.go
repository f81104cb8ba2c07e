package models

import (
	"time"

	"github.com/lib/pq"
)

// AutoApprovalRule is an administrator-configured predicate that, when
// matched, approves a submission without human review. All present conditions
// are conjunctive. Rules are evaluated in (Priority asc, CreatedAt asc, ID
// asc) order; the first match wins.
type AutoApprovalRule struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	Enabled     bool   `db:"enabled" json:"enabled"`
	// Priority is the explicit evaluation order; lower fires first.
	Priority int `db:"priority" json:"priority"`

	MinTrustLevel int `db:"min_trust_level" json:"minTrustLevel"`
	// SubmissionTypes the rule applies to. An empty list matches nothing;
	// there is no wildcard.
	SubmissionTypes pq.StringArray `db:"submission_types" json:"submissionTypes"`
	// MaxValueChangePercent caps numeric current→proposed drift; nil means
	// unlimited. A zero current value always exceeds a set limit.
	MaxValueChangePercent *float64 `db:"max_value_change_percent" json:"maxValueChangePercent,omitempty"`
	RequireSource         bool     `db:"require_source" json:"requireSource"`
	// AllowedAuthProviders restricts submitters; empty means all providers.
	AllowedAuthProviders pq.StringArray `db:"allowed_auth_providers" json:"allowedAuthProviders"`
	RequireEmailVerified bool           `db:"require_email_verified" json:"requireEmailVerified"`
	// AutoApproveGoogleUsers waives the email-verification condition for
	// Google-authenticated submitters. Other conditions still apply.
	AutoApproveGoogleUsers bool `db:"auto_approve_google_users" json:"autoApproveGoogleUsers"`

	NotifyAdmin bool `db:"notify_admin" json:"notifyAdmin"`

	// ApprovedCount is maintained by the store with an atomic increment; it
	// may undercount under concurrent auto-approvals and is reporting-only.
	ApprovedCount int64 `db:"approved_count" json:"approvedCount"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// AppliesToType reports whether the submission type is explicitly listed.
func (r *AutoApprovalRule) AppliesToType(t SubmissionType) bool {
	for _, raw := range r.SubmissionTypes {
		if SubmissionType(raw) == t {
			return true
		}
	}
	return false
}

// AllowsProvider reports whether the provider passes the allow-list. An empty
// list allows every provider.
func (r *AutoApprovalRule) AllowsProvider(p AuthProvider) bool {
	if len(r.AllowedAuthProviders) == 0 {
		return true
	}
	for _, raw := range r.AllowedAuthProviders {
		if AuthProvider(raw) == p {
			return true
		}
	}
	return false
}

// Lint returns configuration warnings for conditions that can never be
// jointly satisfied. Unreachable rules are legal; they simply never fire.
func (r *AutoApprovalRule) Lint() []string {
	var warnings []string
	if len(r.SubmissionTypes) == 0 {
		warnings = append(warnings, "submission_types is empty: rule matches no submissions")
	}
	if r.RequireEmailVerified && len(r.AllowedAuthProviders) > 0 {
		verifiable := false
		for _, raw := range r.AllowedAuthProviders {
			p := AuthProvider(raw)
			if p != AuthProviderGuest {
				verifiable = true
			}
			if p == AuthProviderGoogle && r.AutoApproveGoogleUsers {
				verifiable = true
			}
		}
		if !verifiable {
			warnings = append(warnings, "require_email_verified with guest-only providers: rule is unreachable")
		}
	}
	if r.MinTrustLevel < 0 || r.MinTrustLevel > 5 {
		warnings = append(warnings, "min_trust_level outside 0-5: rule may be unreachable")
	}
	return warnings
}
