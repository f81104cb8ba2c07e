package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/humna-mustafa/pakuni-api/internal/models"
)

const submissionColumns = `id, entity_type, entity_id, entity_name, field_name, current_value, proposed_value,
       change_reason, source_proof, submitted_by, submitter_name, trust_level, auth_provider, email_verified,
       type, priority, status, created_at, claimed_by, reviewed_by, reviewed_at, reviewer_notes,
       rejection_reason, auto_approved, matched_rule_id`

// SubmissionRepository persists data-correction submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a new submission row.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.DataSubmission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.Status == "" {
		submission.Status = models.SubmissionStatusPending
	}
	if submission.Priority == "" {
		submission.Priority = models.PriorityMedium
	}
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO data_submissions
	(id, entity_type, entity_id, entity_name, field_name, current_value, proposed_value, change_reason,
	 source_proof, submitted_by, submitter_name, trust_level, auth_provider, email_verified, type, priority,
	 status, created_at, claimed_by, reviewed_by, reviewed_at, reviewer_notes, rejection_reason,
	 auto_approved, matched_rule_id)
	VALUES (:id, :entity_type, :entity_id, :entity_name, :field_name, :current_value, :proposed_value, :change_reason,
	 :source_proof, :submitted_by, :submitter_name, :trust_level, :auth_provider, :email_verified, :type, :priority,
	 :status, :created_at, :claimed_by, :reviewed_by, :reviewed_at, :reviewer_notes, :rejection_reason,
	 :auto_approved, :matched_rule_id)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// GetByID fetches a submission by identifier.
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*models.DataSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM data_submissions WHERE id = $1`
	var submission models.DataSubmission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// List returns submissions matching the filter.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.DataSubmission, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(`SELECT ` + submissionColumns + ` FROM data_submissions`)

	conditions := make([]string, 0, 4)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		conditions = append(conditions, fmt.Sprintf("entity_type = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}

	switch filter.Sort {
	case models.SortByPriority:
		builder.WriteString(` ORDER BY CASE priority
			WHEN 'URGENT' THEN 0 WHEN 'HIGH' THEN 1 WHEN 'MEDIUM' THEN 2 ELSE 3 END, created_at DESC`)
	case models.SortByTrust:
		builder.WriteString(" ORDER BY trust_level DESC, created_at DESC")
	default:
		builder.WriteString(" ORDER BY created_at DESC")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var submissions []models.DataSubmission
	if err := r.db.SelectContext(ctx, &submissions, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// PendingIDs returns the ids of submissions currently in PENDING status. The
// "select all" convenience in the admin panel never includes UNDER_REVIEW
// items.
func (r *SubmissionRepository) PendingIDs(ctx context.Context) ([]string, error) {
	const query = `SELECT id FROM data_submissions WHERE status = $1 ORDER BY created_at ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, models.SubmissionStatusPending); err != nil {
		return nil, fmt.Errorf("list pending ids: %w", err)
	}
	return ids, nil
}

// UpdateSubmissionParams groups mutable columns for review operations.
type UpdateSubmissionParams struct {
	ID              string
	Status          models.SubmissionStatus
	ReviewedBy      string
	ReviewedAt      time.Time
	ReviewerNotes   *string
	RejectionReason *string
	AutoApproved    bool
	MatchedRuleID   *string
}

// UpdateStatus persists a review outcome. The update is guarded on the
// submission still being reviewable; a concurrent transition surfaces as
// sql.ErrNoRows so callers can treat the violation as a no-op failure.
func (r *SubmissionRepository) UpdateStatus(ctx context.Context, params UpdateSubmissionParams) error {
	setParts := []string{
		"status = :status",
		"reviewed_by = :reviewed_by",
		"reviewed_at = :reviewed_at",
		"auto_approved = :auto_approved",
	}
	if params.ReviewerNotes != nil {
		setParts = append(setParts, "reviewer_notes = :reviewer_notes")
	}
	if params.RejectionReason != nil {
		setParts = append(setParts, "rejection_reason = :rejection_reason")
	}
	if params.MatchedRuleID != nil {
		setParts = append(setParts, "matched_rule_id = :matched_rule_id")
	}
	query := fmt.Sprintf("UPDATE data_submissions SET %s WHERE id = :id AND status IN ('%s', '%s')",
		strings.Join(setParts, ", "),
		models.SubmissionStatusPending,
		models.SubmissionStatusUnderReview,
	)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":               params.ID,
		"status":           params.Status,
		"reviewed_by":      params.ReviewedBy,
		"reviewed_at":      params.ReviewedAt,
		"reviewer_notes":   params.ReviewerNotes,
		"rejection_reason": params.RejectionReason,
		"auto_approved":    params.AutoApproved,
		"matched_rule_id":  params.MatchedRuleID,
	})
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check submission update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkUnderReview claims a pending submission for a reviewer. The claimer is
// recorded in claimed_by; reviewed_by/reviewed_at stay null until the
// terminal decision writes them together.
func (r *SubmissionRepository) MarkUnderReview(ctx context.Context, id, reviewerID string) error {
	const query = `UPDATE data_submissions SET status = $1, claimed_by = $2
	WHERE id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query,
		models.SubmissionStatusUnderReview, reviewerID, id, models.SubmissionStatusPending)
	if err != nil {
		return fmt.Errorf("mark submission under review: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check claim rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Statistics aggregates lifetime pipeline counts in a single query.
func (r *SubmissionRepository) Statistics(ctx context.Context) (*models.ModerationStatistics, error) {
	const query = `SELECT
	COUNT(*) AS total,
	COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
	COUNT(*) FILTER (WHERE status = 'UNDER_REVIEW') AS under_review,
	COUNT(*) FILTER (WHERE status = 'APPROVED') AS approved,
	COUNT(*) FILTER (WHERE status = 'REJECTED') AS rejected,
	COUNT(*) FILTER (WHERE status = 'AUTO_APPROVED') AS auto_approved,
	COALESCE(AVG(EXTRACT(EPOCH FROM (reviewed_at - created_at)) * 1000)
		FILTER (WHERE reviewed_at IS NOT NULL AND status IN ('APPROVED', 'AUTO_APPROVED')), 0) AS avg_approval_time_ms
	FROM data_submissions`
	var stats models.ModerationStatistics
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("submission statistics: %w", err)
	}
	return &stats, nil
}
