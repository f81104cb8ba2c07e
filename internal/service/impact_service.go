package service

import "github.com/humna-mustafa/pakuni-api/internal/models"

// impactProfile describes the dependent surface of one entity type.
type impactProfile struct {
	affected     int
	descriptions []string
}

// impactProfiles is a static mapping from entity type to the records a change
// is expected to touch. Counts are bounded heuristics for operator
// visibility, not a commitment matching the apply engine's mutation count.
var impactProfiles = map[models.EntityType]impactProfile{
	models.EntityMerit: {
		affected: 3,
		descriptions: []string{
			"merit cutoff list for the program",
			"admission chance recommendations",
			"saved comparison snapshots",
		},
	},
	models.EntityDeadline: {
		affected: 2,
		descriptions: []string{
			"application deadline calendar",
			"deadline reminder schedules",
		},
	},
	models.EntityFee: {
		affected: 3,
		descriptions: []string{
			"fee calculator inputs",
			"university comparison view",
			"affordability filters",
		},
	},
	models.EntityUniversity: {
		affected: 2,
		descriptions: []string{
			"university directory entry",
			"university detail screens",
		},
	},
	models.EntityScholarship: {
		affected: 2,
		descriptions: []string{
			"scholarship index",
			"scholarship eligibility matches",
		},
	},
	models.EntityProgram: {
		affected: 2,
		descriptions: []string{
			"program catalog entry",
			"university comparison view",
		},
	},
	models.EntityOther: {
		affected:     1,
		descriptions: []string{"the targeted record only"},
	},
}

// EstimateImpact returns an advisory estimate of how many records applying
// the submission would touch. It is informational only and never blocks or
// alters an approval decision.
func EstimateImpact(submission *models.DataSubmission) models.ImpactEstimate {
	profile, ok := impactProfiles[submission.EntityType]
	if !ok {
		profile = impactProfiles[models.EntityOther]
	}
	estimate := models.ImpactEstimate{
		AffectedCount:             profile.affected,
		RelatedChangeDescriptions: append([]string(nil), profile.descriptions...),
	}
	// Entry test corrections also ripple into preparation guidance even when
	// filed against a university record.
	if submission.Type == models.SubmissionEntryTestUpdate {
		estimate.AffectedCount++
		estimate.RelatedChangeDescriptions = append(estimate.RelatedChangeDescriptions, "entry test preparation guides")
	}
	return estimate
}
