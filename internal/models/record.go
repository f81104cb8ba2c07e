package models

import "time"

// CanonicalField is one field of one canonical entity (a merit cutoff, a
// deadline, a fee amount). Approved submissions are written here.
type CanonicalField struct {
	EntityType EntityType `db:"entity_type" json:"entityType"`
	EntityID   string     `db:"entity_id" json:"entityId"`
	FieldName  string     `db:"field_name" json:"fieldName"`
	Value      string     `db:"value" json:"value"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
	UpdatedBy  string     `db:"updated_by" json:"updatedBy"`
}

// ApplyReport summarises the outcome of propagating an approved submission.
// Errors holds one entry per failed cascade step; a non-empty slice with a
// positive UpdatedCount is a partial application, not a hard failure.
type ApplyReport struct {
	UpdatedCount int      `json:"updatedCount"`
	Errors       []string `json:"errors"`
}

// ImpactEstimate is the advisory output of the impact analyzer. It is a
// heuristic surfaced to reviewers and is not guaranteed to equal the apply
// engine's actual mutation count.
type ImpactEstimate struct {
	AffectedCount             int      `json:"affectedCount"`
	RelatedChangeDescriptions []string `json:"relatedChangeDescriptions"`
}
