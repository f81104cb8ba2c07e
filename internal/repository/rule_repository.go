package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/humna-mustafa/pakuni-api/internal/models"
)

const ruleColumns = `id, name, description, enabled, priority, min_trust_level, submission_types,
       max_value_change_percent, require_source, allowed_auth_providers, require_email_verified,
       auto_approve_google_users, notify_admin, approved_count, created_at, updated_at`

// RuleRepository persists auto-approval rule definitions.
type RuleRepository struct {
	db *sqlx.DB
}

// NewRuleRepository constructs the repository.
func NewRuleRepository(db *sqlx.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// List returns every rule in evaluation order: priority ascending, then
// creation time, then id. This ordering is the engine's documented total
// order and must stay stable for verdicts to be reproducible.
func (r *RuleRepository) List(ctx context.Context, enabledOnly bool) ([]models.AutoApprovalRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM auto_approval_rules`
	if enabledOnly {
		query += ` WHERE enabled = TRUE`
	}
	query += ` ORDER BY priority ASC, created_at ASC, id ASC`
	var rules []models.AutoApprovalRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return rules, nil
}

// GetByID fetches a rule by identifier.
func (r *RuleRepository) GetByID(ctx context.Context, id string) (*models.AutoApprovalRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM auto_approval_rules WHERE id = $1`
	var rule models.AutoApprovalRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		return nil, err
	}
	return &rule, nil
}

// Upsert inserts or replaces a rule definition, preserving the approved
// counter on replacement.
func (r *RuleRepository) Upsert(ctx context.Context, rule *models.AutoApprovalRule) error {
	now := time.Now().UTC()
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now
	const query = `INSERT INTO auto_approval_rules
	(id, name, description, enabled, priority, min_trust_level, submission_types, max_value_change_percent,
	 require_source, allowed_auth_providers, require_email_verified, auto_approve_google_users, notify_admin,
	 approved_count, created_at, updated_at)
	VALUES (:id, :name, :description, :enabled, :priority, :min_trust_level, :submission_types, :max_value_change_percent,
	 :require_source, :allowed_auth_providers, :require_email_verified, :auto_approve_google_users, :notify_admin,
	 :approved_count, :created_at, :updated_at)
	ON CONFLICT (id) DO UPDATE SET
	 name = EXCLUDED.name,
	 description = EXCLUDED.description,
	 enabled = EXCLUDED.enabled,
	 priority = EXCLUDED.priority,
	 min_trust_level = EXCLUDED.min_trust_level,
	 submission_types = EXCLUDED.submission_types,
	 max_value_change_percent = EXCLUDED.max_value_change_percent,
	 require_source = EXCLUDED.require_source,
	 allowed_auth_providers = EXCLUDED.allowed_auth_providers,
	 require_email_verified = EXCLUDED.require_email_verified,
	 auto_approve_google_users = EXCLUDED.auto_approve_google_users,
	 notify_admin = EXCLUDED.notify_admin,
	 updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("upsert rule: %w", err)
	}
	return nil
}

// Delete removes a rule definition.
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM auto_approval_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rule delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Toggle flips the enabled flag and returns the new value.
func (r *RuleRepository) Toggle(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE auto_approval_rules SET enabled = NOT enabled, updated_at = $1
	WHERE id = $2 RETURNING enabled`
	var enabled bool
	if err := r.db.GetContext(ctx, &enabled, query, time.Now().UTC(), id); err != nil {
		return false, err
	}
	return enabled, nil
}

// IncrementApprovedCount bumps the rule's lifetime auto-approval counter as a
// store-side atomic increment rather than a read-modify-write.
func (r *RuleRepository) IncrementApprovedCount(ctx context.Context, id string) error {
	const query = `UPDATE auto_approval_rules SET approved_count = approved_count + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment rule counter: %w", err)
	}
	return nil
}
