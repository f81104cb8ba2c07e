package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/humna-mustafa/pakuni-api/internal/models"
)

type applyRecordStore interface {
	UpsertField(ctx context.Context, field *models.CanonicalField) error
	RefreshAggregate(ctx context.Context, aggregate string, entityType models.EntityType, entityID string) error
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// cascadeStep is one dependent update triggered by a canonical change. The
// mapping from entity type to steps is static; nothing is discovered at
// runtime.
type cascadeStep struct {
	description string
	run         func(ctx context.Context, s *ApplyService, submission *models.DataSubmission) error
}

func refreshStep(aggregate, description string) cascadeStep {
	return cascadeStep{
		description: description,
		run: func(ctx context.Context, s *ApplyService, submission *models.DataSubmission) error {
			return s.records.RefreshAggregate(ctx, aggregate, submission.EntityType, submission.EntityID)
		},
	}
}

func invalidateStep(pattern, description string) cascadeStep {
	return cascadeStep{
		description: description,
		run: func(ctx context.Context, s *ApplyService, submission *models.DataSubmission) error {
			if s.cache == nil {
				return nil
			}
			return s.cache.DeleteByPattern(ctx, fmt.Sprintf(pattern, submission.EntityID))
		},
	}
}

// cascades maps each entity type to the derived views that depend on it.
var cascades = map[models.EntityType][]cascadeStep{
	models.EntityMerit: {
		refreshStep("merit_cutoff_list", "merit cutoff list"),
		invalidateStep("recommendations:%s:*", "recommendation cache"),
	},
	models.EntityDeadline: {
		refreshStep("deadline_calendar", "deadline calendar"),
		invalidateStep("deadlines:%s:*", "deadline reminders cache"),
	},
	models.EntityFee: {
		refreshStep("fee_calculator", "fee calculator inputs"),
		refreshStep("university_comparison", "university comparison view"),
		invalidateStep("calculator:%s:*", "fee calculator cache"),
	},
	models.EntityUniversity: {
		refreshStep("university_directory", "university directory"),
		invalidateStep("universities:%s:*", "university detail cache"),
	},
	models.EntityScholarship: {
		refreshStep("scholarship_index", "scholarship index"),
		invalidateStep("scholarships:%s:*", "scholarship listing cache"),
	},
	models.EntityProgram: {
		refreshStep("program_catalog", "program catalog"),
		refreshStep("university_comparison", "university comparison view"),
	},
}

// ApplyService propagates an approved submission into canonical storage and
// its dependent views.
type ApplyService struct {
	records     applyRecordStore
	cache       cacheInvalidator
	logger      *zap.Logger
	stepTimeout time.Duration
}

// NewApplyService constructs the service. stepTimeout bounds each remote
// step; non-positive values fall back to 10s.
func NewApplyService(records applyRecordStore, cache cacheInvalidator, logger *zap.Logger, stepTimeout time.Duration) *ApplyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if stepTimeout <= 0 {
		stepTimeout = 10 * time.Second
	}
	return &ApplyService{records: records, cache: cache, logger: logger, stepTimeout: stepTimeout}
}

// Apply writes the proposed value to the canonical field and runs every
// cascade step for the entity type. Applying the same submission twice
// converges on the same state: the canonical write is an absolute set and
// aggregate refreshes recompute from canonical data.
//
// All steps are attempted even when one fails; failures are collected in the
// report instead of aborting siblings. There is no cancellation once apply
// begins and no compensating rollback on partial failure.
func (s *ApplyService) Apply(ctx context.Context, submission *models.DataSubmission) *models.ApplyReport {
	report := &models.ApplyReport{}

	if err := s.runStep(ctx, func(stepCtx context.Context) error {
		return s.records.UpsertField(stepCtx, &models.CanonicalField{
			EntityType: submission.EntityType,
			EntityID:   submission.EntityID,
			FieldName:  submission.FieldName,
			Value:      submission.ProposedValue,
			UpdatedBy:  reviewerOrSystem(submission),
		})
	}); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("canonical field update: %v", err))
		s.logger.Warn("canonical field update failed",
			zap.String("submission_id", submission.ID), zap.Error(err))
	} else {
		report.UpdatedCount++
	}

	for _, step := range cascades[submission.EntityType] {
		step := step
		if err := s.runStep(ctx, func(stepCtx context.Context) error {
			return step.run(stepCtx, s, submission)
		}); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", step.description, err))
			s.logger.Warn("cascade step failed",
				zap.String("submission_id", submission.ID),
				zap.String("step", step.description),
				zap.Error(err))
			continue
		}
		report.UpdatedCount++
	}

	return report
}

func (s *ApplyService) runStep(ctx context.Context, fn func(context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return fn(stepCtx)
}

func reviewerOrSystem(submission *models.DataSubmission) string {
	if submission.ReviewedBy != nil && *submission.ReviewedBy != "" {
		return *submission.ReviewedBy
	}
	return models.SystemPrincipal
}
