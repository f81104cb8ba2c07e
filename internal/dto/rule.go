package dto

import "github.com/humna-mustafa/pakuni-api/internal/models"

// UpsertRuleRequest creates or replaces an auto-approval rule.
type UpsertRuleRequest struct {
	Name                   string   `json:"name"`
	Description            string   `json:"description"`
	Enabled                bool     `json:"enabled"`
	Priority               int      `json:"priority"`
	MinTrustLevel          int      `json:"minTrustLevel"`
	SubmissionTypes        []string `json:"submissionTypes"`
	MaxValueChangePercent  *float64 `json:"maxValueChangePercent"`
	RequireSource          bool     `json:"requireSource"`
	AllowedAuthProviders   []string `json:"allowedAuthProviders"`
	RequireEmailVerified   bool     `json:"requireEmailVerified"`
	AutoApproveGoogleUsers bool     `json:"autoApproveGoogleUsers"`
	NotifyAdmin            bool     `json:"notifyAdmin"`
}

// RuleResponse pairs a stored rule with configuration lint warnings.
type RuleResponse struct {
	Rule     *models.AutoApprovalRule `json:"rule"`
	Warnings []string                 `json:"warnings,omitempty"`
}
