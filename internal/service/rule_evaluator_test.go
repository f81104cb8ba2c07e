package service

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/humna-mustafa/pakuni-api/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func baseSubmission() *models.DataSubmission {
	return &models.DataSubmission{
		ID:            "sub-1",
		EntityType:    models.EntityMerit,
		EntityID:      "uni-42",
		FieldName:     "aggregate_cutoff",
		CurrentValue:  "80",
		ProposedValue: "82",
		Type:          models.SubmissionMeritUpdate,
		TrustLevel:    3,
		AuthProvider:  models.AuthProviderGoogle,
		EmailVerified: false,
		SourceProof:   strPtr("https://university.edu.pk/merit-2026"),
	}
}

func baseRule() *models.AutoApprovalRule {
	return &models.AutoApprovalRule{
		ID:                    "rule-1",
		Name:                  "trusted merit updates",
		Enabled:               true,
		MinTrustLevel:         3,
		SubmissionTypes:       pq.StringArray{string(models.SubmissionMeritUpdate)},
		MaxValueChangePercent: floatPtr(10),
		RequireSource:         true,
	}
}

func TestEvaluateRuleMatchesWhenAllConditionsHold(t *testing.T) {
	require.True(t, EvaluateRule(baseSubmission(), baseRule()))
}

func TestEvaluateRuleDisabledNeverMatches(t *testing.T) {
	rule := baseRule()
	rule.Enabled = false
	require.False(t, EvaluateRule(baseSubmission(), rule))
}

func TestEvaluateRuleTrustLevelBelowMinimum(t *testing.T) {
	submission := baseSubmission()
	submission.TrustLevel = 2
	require.False(t, EvaluateRule(submission, baseRule()))
}

func TestEvaluateRuleEmptyTypeListMatchesNothing(t *testing.T) {
	rule := baseRule()
	rule.SubmissionTypes = nil
	require.False(t, EvaluateRule(baseSubmission(), rule))

	rule.SubmissionTypes = pq.StringArray{}
	require.False(t, EvaluateRule(baseSubmission(), rule))
}

func TestEvaluateRuleTypeNotListed(t *testing.T) {
	submission := baseSubmission()
	submission.Type = models.SubmissionFeeUpdate
	require.False(t, EvaluateRule(submission, baseRule()))
}

func TestEvaluateRuleChangeLimit(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		proposed string
		limit    float64
		want     bool
	}{
		{"within limit", "80", "82", 10, true},
		{"exactly at limit", "100", "110", 10, true},
		{"over limit", "80", "95", 10, false},
		{"zero current always exceeds", "0", "5", 50, false},
		{"zero current zero proposed", "0", "0", 50, true},
		{"non-numeric current skips limit", "TBA", "85", 10, true},
		{"non-numeric proposed skips limit", "80", "pending", 10, true},
		{"negative swing uses absolute change", "100", "85", 10, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			submission := baseSubmission()
			submission.CurrentValue = tc.current
			submission.ProposedValue = tc.proposed
			rule := baseRule()
			rule.MaxValueChangePercent = floatPtr(tc.limit)
			require.Equal(t, tc.want, EvaluateRule(submission, rule))
		})
	}
}

func TestEvaluateRuleNoChangeLimitIgnoresValues(t *testing.T) {
	submission := baseSubmission()
	submission.CurrentValue = "10"
	submission.ProposedValue = "10000"
	rule := baseRule()
	rule.MaxValueChangePercent = nil
	require.True(t, EvaluateRule(submission, rule))
}

func TestEvaluateRuleRequireSource(t *testing.T) {
	submission := baseSubmission()
	submission.SourceProof = nil
	require.False(t, EvaluateRule(submission, baseRule()))

	submission.SourceProof = strPtr("   ")
	require.False(t, EvaluateRule(submission, baseRule()))

	rule := baseRule()
	rule.RequireSource = false
	require.True(t, EvaluateRule(submission, rule))
}

func TestEvaluateRuleProviderAllowList(t *testing.T) {
	rule := baseRule()
	rule.AllowedAuthProviders = pq.StringArray{string(models.AuthProviderEmail)}

	submission := baseSubmission()
	submission.AuthProvider = models.AuthProviderGoogle
	require.False(t, EvaluateRule(submission, rule))

	submission.AuthProvider = models.AuthProviderEmail
	require.True(t, EvaluateRule(submission, rule))

	// Empty allow-list admits every provider.
	rule.AllowedAuthProviders = nil
	submission.AuthProvider = models.AuthProviderGuest
	require.True(t, EvaluateRule(submission, rule))
}

func TestEvaluateRuleEmailVerification(t *testing.T) {
	rule := baseRule()
	rule.RequireEmailVerified = true

	submission := baseSubmission()
	submission.AuthProvider = models.AuthProviderEmail
	submission.EmailVerified = false
	require.False(t, EvaluateRule(submission, rule))

	submission.EmailVerified = true
	require.True(t, EvaluateRule(submission, rule))
}

func TestEvaluateRuleGoogleFastPathWaivesIdentityChecks(t *testing.T) {
	rule := baseRule()
	rule.RequireEmailVerified = true
	rule.AutoApproveGoogleUsers = true

	submission := baseSubmission()
	submission.AuthProvider = models.AuthProviderGoogle
	submission.EmailVerified = false
	require.True(t, EvaluateRule(submission, rule))

	// The waiver covers the identity checks only; other conditions still bind.
	submission.TrustLevel = 0
	require.False(t, EvaluateRule(submission, rule))

	submission.TrustLevel = 3
	submission.AuthProvider = models.AuthProviderEmail
	require.False(t, EvaluateRule(submission, rule))
}

func TestEvaluateRuleGoogleFastPathBypassesProviderAllowList(t *testing.T) {
	rule := baseRule()
	rule.AutoApproveGoogleUsers = true
	rule.RequireEmailVerified = true
	rule.AllowedAuthProviders = pq.StringArray{string(models.AuthProviderEmail)}

	// A Google submitter matches even though GOOGLE is absent from the
	// allow-list and the email is unverified.
	submission := baseSubmission()
	submission.AuthProvider = models.AuthProviderGoogle
	submission.EmailVerified = false
	require.True(t, EvaluateRule(submission, rule))

	// Guests get no waiver: not in the allow-list and not Google.
	submission.AuthProvider = models.AuthProviderGuest
	require.False(t, EvaluateRule(submission, rule))
}

func TestEvaluateRuleIsPure(t *testing.T) {
	submission := baseSubmission()
	rule := baseRule()
	before := *rule
	beforeSub := *submission

	for i := 0; i < 3; i++ {
		require.True(t, EvaluateRule(submission, rule))
	}
	require.Equal(t, before, *rule)
	require.Equal(t, beforeSub, *submission)
	require.Zero(t, rule.ApprovedCount)
}

func TestEvaluateRuleNilInputs(t *testing.T) {
	require.False(t, EvaluateRule(nil, baseRule()))
	require.False(t, EvaluateRule(baseSubmission(), nil))
}
