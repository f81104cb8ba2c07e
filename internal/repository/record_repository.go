package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/humna-mustafa/pakuni-api/internal/models"
)

// RecordRepository stores canonical entity fields and the derived aggregates
// that the apply engine cascades into.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository constructs the repository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// UpsertField writes the canonical value for one entity field. The write is
// an absolute set, so replaying the same approved submission converges on the
// same state instead of compounding.
func (r *RecordRepository) UpsertField(ctx context.Context, field *models.CanonicalField) error {
	if field.UpdatedAt.IsZero() {
		field.UpdatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO canonical_fields (entity_type, entity_id, field_name, value, updated_at, updated_by)
	VALUES (:entity_type, :entity_id, :field_name, :value, :updated_at, :updated_by)
	ON CONFLICT (entity_type, entity_id, field_name) DO UPDATE SET
	 value = EXCLUDED.value,
	 updated_at = EXCLUDED.updated_at,
	 updated_by = EXCLUDED.updated_by`
	if _, err := r.db.NamedExecContext(ctx, query, field); err != nil {
		return fmt.Errorf("upsert canonical field: %w", err)
	}
	return nil
}

// GetField loads the canonical value for one entity field.
func (r *RecordRepository) GetField(ctx context.Context, entityType models.EntityType, entityID, fieldName string) (*models.CanonicalField, error) {
	const query = `SELECT entity_type, entity_id, field_name, value, updated_at, updated_by
	FROM canonical_fields WHERE entity_type = $1 AND entity_id = $2 AND field_name = $3`
	var field models.CanonicalField
	if err := r.db.GetContext(ctx, &field, query, entityType, entityID, fieldName); err != nil {
		return nil, err
	}
	return &field, nil
}

// RefreshAggregate recomputes a derived view row from the canonical fields of
// the given entity. The aggregate name is one of the statically known
// dependents of that entity type (cutoff lists, comparison tables, fee
// calculator inputs).
func (r *RecordRepository) RefreshAggregate(ctx context.Context, aggregate string, entityType models.EntityType, entityID string) error {
	const query = `INSERT INTO derived_aggregates (aggregate, entity_type, entity_id, payload, refreshed_at)
	SELECT $1, cf.entity_type, cf.entity_id, jsonb_object_agg(cf.field_name, cf.value), NOW()
	FROM canonical_fields cf
	WHERE cf.entity_type = $2 AND cf.entity_id = $3
	GROUP BY cf.entity_type, cf.entity_id
	ON CONFLICT (aggregate, entity_type, entity_id) DO UPDATE SET
	 payload = EXCLUDED.payload,
	 refreshed_at = EXCLUDED.refreshed_at`
	if _, err := r.db.ExecContext(ctx, query, aggregate, entityType, entityID); err != nil {
		return fmt.Errorf("refresh aggregate %s: %w", aggregate, err)
	}
	return nil
}
