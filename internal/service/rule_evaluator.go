package service

import (
	"math"
	"strconv"
	"strings"

	"github.com/humna-mustafa/pakuni-api/internal/models"
)

// EvaluateRule reports whether the submission satisfies every condition of
// the rule. It is pure and deterministic: it never mutates its inputs and
// never consults the rule's counters.
//
// Condition order follows the documented contract: enabled, trust level,
// submission type, numeric change limit, source proof, auth provider, email
// verification. A rule with an empty submission-type list matches nothing;
// the list is never treated as a wildcard. When the rule fast-paths Google
// accounts, a Google submitter skips both identity conditions (provider
// allow-list and email verification); trust, type, change-limit and source
// conditions still bind.
func EvaluateRule(submission *models.DataSubmission, rule *models.AutoApprovalRule) bool {
	if submission == nil || rule == nil {
		return false
	}
	if !rule.Enabled {
		return false
	}
	if submission.TrustLevel < rule.MinTrustLevel {
		return false
	}
	if !rule.AppliesToType(submission.Type) {
		return false
	}
	if rule.MaxValueChangePercent != nil {
		if exceeds, comparable := exceedsChangeLimit(submission.CurrentValue, submission.ProposedValue, *rule.MaxValueChangePercent); comparable && exceeds {
			return false
		}
	}
	if rule.RequireSource {
		if submission.SourceProof == nil || strings.TrimSpace(*submission.SourceProof) == "" {
			return false
		}
	}
	googleFastPath := rule.AutoApproveGoogleUsers && submission.AuthProvider == models.AuthProviderGoogle
	if !googleFastPath {
		if !rule.AllowsProvider(submission.AuthProvider) {
			return false
		}
		if rule.RequireEmailVerified && !submission.EmailVerified {
			return false
		}
	}
	return true
}

// exceedsChangeLimit computes whether |proposed-current|/|current|*100 is over
// the limit. The second return is false when either value is non-numeric, in
// which case the limit does not apply. A zero current value makes the
// percentage undefined and any change is treated as exceeding.
func exceedsChangeLimit(currentRaw, proposedRaw string, limit float64) (exceeds, comparable bool) {
	current, err := strconv.ParseFloat(strings.TrimSpace(currentRaw), 64)
	if err != nil {
		return false, false
	}
	proposed, err := strconv.ParseFloat(strings.TrimSpace(proposedRaw), 64)
	if err != nil {
		return false, false
	}
	if current == 0 {
		return proposed != 0, true
	}
	change := math.Abs(proposed-current) / math.Abs(current) * 100
	return change > limit, true
}
