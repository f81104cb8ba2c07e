package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/humna-mustafa/pakuni-api/internal/dto"
	"github.com/humna-mustafa/pakuni-api/internal/models"
	"github.com/humna-mustafa/pakuni-api/internal/repository"
	appErrors "github.com/humna-mustafa/pakuni-api/pkg/errors"
)

type reviewSubmissionStore interface {
	GetByID(ctx context.Context, id string) (*models.DataSubmission, error)
	UpdateStatus(ctx context.Context, params repository.UpdateSubmissionParams) error
	MarkUnderReview(ctx context.Context, id, reviewerID string) error
}

// ReviewService drives the manual review state machine, including bulk
// variants.
type ReviewService struct {
	repo    reviewSubmissionStore
	apply   submissionApplier
	audit   auditLogger
	metrics verdictRecorder
	logger  *zap.Logger
	now     func() time.Time
}

// NewReviewService constructs the service.
func NewReviewService(repo reviewSubmissionStore, apply submissionApplier, audit auditLogger, metrics verdictRecorder, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		repo:    repo,
		apply:   apply,
		audit:   audit,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Claim moves a pending submission to UNDER_REVIEW for the given reviewer.
func (s *ReviewService) Claim(ctx context.Context, id, reviewerID string) (*models.DataSubmission, error) {
	if err := s.repo.MarkUnderReview(ctx, id, reviewerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.transitionError(ctx, id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to claim submission")
	}
	submission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return submission, nil
}

// Review applies a single reviewer decision. On approval the apply engine is
// invoked synchronously and its report is returned; partial application does
// not revert the approval but is surfaced distinctly from full success.
func (s *ReviewService) Review(ctx context.Context, id string, req dto.ReviewSubmissionRequest, reviewerID string) (*dto.ReviewResult, error) {
	if req.Action != dto.ReviewActionApprove && req.Action != dto.ReviewActionReject {
		return nil, appErrors.Clone(appErrors.ErrValidation, "action must be APPROVE or REJECT")
	}
	if req.Action == dto.ReviewActionReject && strings.TrimSpace(req.RejectionReason) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejectionReason is required when rejecting")
	}

	submission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if submission.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("submission %s is already %s", id, submission.Status))
	}

	status := models.SubmissionStatusApproved
	if req.Action == dto.ReviewActionReject {
		status = models.SubmissionStatusRejected
	}

	now := s.now()
	params := repository.UpdateSubmissionParams{
		ID:            submission.ID,
		Status:        status,
		ReviewedBy:    reviewerID,
		ReviewedAt:    now,
		ReviewerNotes: optionalString(req.Notes),
	}
	if status == models.SubmissionStatusRejected {
		params.RejectionReason = optionalString(req.RejectionReason)
	}
	if err := s.repo.UpdateStatus(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost the compare-on-write race: another reviewer finalized it
			// first. Treated as a no-op failure, nothing was mutated.
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "submission was finalized concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission")
	}

	submission.Status = status
	submission.ReviewedBy = &reviewerID
	submission.ReviewedAt = &now
	submission.ReviewerNotes = params.ReviewerNotes
	submission.RejectionReason = params.RejectionReason

	if s.metrics != nil {
		s.metrics.RecordVerdict(strings.ToLower(string(status)), "")
	}
	s.emitAudit(ctx, submission, reviewerID, req)

	result := &dto.ReviewResult{Submission: submission}
	if status == models.SubmissionStatusApproved && s.apply != nil {
		result.Apply = s.apply.Apply(ctx, submission)
		if len(result.Apply.Errors) > 0 {
			s.logger.Error("approved submission applied with errors",
				zap.String("submission_id", submission.ID),
				zap.Strings("errors", result.Apply.Errors))
		}
	}
	return result, nil
}

// ReviewBulk processes each id independently and sequentially. Per-item
// failures are collected and never abort the remaining items; the result
// always reports partial success counts instead of failing atomically.
func (s *ReviewService) ReviewBulk(ctx context.Context, req dto.BulkReviewRequest, reviewerID string) (*dto.BulkReviewResult, error) {
	if len(req.SubmissionIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "submissionIds is required")
	}
	if req.Action == dto.ReviewActionReject && strings.TrimSpace(req.RejectionReason) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejectionReason is required when rejecting")
	}

	result := &dto.BulkReviewResult{}
	seen := make(map[string]struct{}, len(req.SubmissionIDs))
	for _, id := range req.SubmissionIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if _, err := s.Review(ctx, id, dto.ReviewSubmissionRequest{
			Action:          req.Action,
			Notes:           req.Notes,
			RejectionReason: req.RejectionReason,
		}, reviewerID); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", id, err))
			continue
		}
		result.Processed++
	}

	s.emitBulkAudit(ctx, req, reviewerID, result)
	return result, nil
}

// transitionError loads the submission to distinguish "not found" from "in a
// non-claimable state".
func (s *ReviewService) transitionError(ctx context.Context, id string) error {
	submission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return appErrors.ErrNotFound
	}
	return appErrors.Clone(appErrors.ErrInvalidTransition,
		fmt.Sprintf("submission %s is %s and cannot be claimed", id, submission.Status))
}

func (s *ReviewService) emitAudit(ctx context.Context, submission *models.DataSubmission, reviewerID string, req dto.ReviewSubmissionRequest) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{
		"action": string(req.Action),
		"status": string(submission.Status),
		"notes":  req.Notes,
	})
	entry := &models.AuditLog{
		UserID:     &reviewerID,
		Action:     models.AuditActionReview,
		Resource:   "data_submission",
		ResourceID: &submission.ID,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "review-service",
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func (s *ReviewService) emitBulkAudit(ctx context.Context, req dto.BulkReviewRequest, reviewerID string, result *dto.BulkReviewResult) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"action":    string(req.Action),
		"requested": len(req.SubmissionIDs),
		"processed": result.Processed,
		"failed":    result.Failed,
	})
	entry := &models.AuditLog{
		UserID:    &reviewerID,
		Action:    models.AuditActionBulkReview,
		Resource:  "data_submission",
		NewValues: payload,
		IPAddress: "system",
		UserAgent: "review-service",
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
