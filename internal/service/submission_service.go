package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/humna-mustafa/pakuni-api/internal/dto"
	"github.com/humna-mustafa/pakuni-api/internal/models"
	appErrors "github.com/humna-mustafa/pakuni-api/pkg/errors"
)

type submissionStore interface {
	Create(ctx context.Context, submission *models.DataSubmission) error
	GetByID(ctx context.Context, id string) (*models.DataSubmission, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.DataSubmission, error)
	PendingIDs(ctx context.Context) ([]string, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type submissionDecider interface {
	Decide(ctx context.Context, submission *models.DataSubmission) (*Decision, error)
}

// SubmissionService handles intake and read access for data-correction
// submissions.
type SubmissionService struct {
	repo                submissionStore
	decider             submissionDecider
	audit               auditLogger
	logger              *zap.Logger
	autoApprovalEnabled bool
}

// NewSubmissionService constructs the service.
func NewSubmissionService(repo submissionStore, decider submissionDecider, audit auditLogger, logger *zap.Logger, autoApprovalEnabled bool) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		repo:                repo,
		decider:             decider,
		audit:               audit,
		logger:              logger,
		autoApprovalEnabled: autoApprovalEnabled,
	}
}

// Submit validates and stores an incoming correction, then runs it through
// the auto-approval engine. The returned response carries the verdict so the
// mobile client can tell the user whether the change went live immediately.
func (s *SubmissionService) Submit(ctx context.Context, req dto.CreateSubmissionRequest, userID *string) (*dto.DecisionResponse, error) {
	if err := validateSubmissionRequest(req); err != nil {
		return nil, err
	}

	submission := &models.DataSubmission{
		EntityType:    models.EntityType(strings.ToUpper(string(req.EntityType))),
		EntityID:      req.EntityID,
		EntityName:    req.EntityName,
		FieldName:     req.FieldName,
		CurrentValue:  req.CurrentValue,
		ProposedValue: req.ProposedValue,
		ChangeReason:  req.ChangeReason,
		SourceProof:   optionalString(req.SourceProof),
		SubmittedBy:   userID,
		SubmitterName: req.SubmitterName,
		TrustLevel:    clampTrust(req.TrustLevel),
		AuthProvider:  models.AuthProvider(strings.ToUpper(string(req.AuthProvider))),
		EmailVerified: req.EmailVerified,
		Type:          models.SubmissionType(strings.ToUpper(string(req.Type))),
		Priority:      models.SubmissionPriority(strings.ToUpper(string(req.Priority))),
		Status:        models.SubmissionStatusPending,
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}
	s.emitAudit(ctx, submission, userID)

	resp := &dto.DecisionResponse{Submission: submission, Verdict: models.SubmissionStatusPending}
	if !s.autoApprovalEnabled || s.decider == nil {
		return resp, nil
	}

	decision, err := s.decider.Decide(ctx, submission)
	if err != nil {
		// The submission is safely queued; a broken rule set must not bounce
		// user intake.
		s.logger.Error("auto-approval decision failed",
			zap.String("submission_id", submission.ID), zap.Error(err))
		return resp, nil
	}
	resp.Verdict = decision.Verdict
	if decision.MatchedRuleID != "" {
		resp.MatchedRuleID = &decision.MatchedRuleID
	}
	return resp, nil
}

// Get returns a submission by id.
func (s *SubmissionService) Get(ctx context.Context, id string) (*models.DataSubmission, error) {
	submission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return submission, nil
}

// List returns submissions for the admin queue.
func (s *SubmissionService) List(ctx context.Context, query dto.SubmissionQuery) ([]models.DataSubmission, error) {
	filter := models.SubmissionFilter{
		Status:     query.Status,
		Type:       query.Type,
		Priority:   query.Priority,
		EntityType: query.EntityType,
		Sort:       query.Sort,
		Limit:      query.Limit,
		Offset:     query.Offset,
	}
	submissions, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return submissions, nil
}

// PendingIDs backs the admin panel's select-all-pending control.
func (s *SubmissionService) PendingIDs(ctx context.Context) ([]string, error) {
	ids, err := s.repo.PendingIDs(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending submissions")
	}
	return ids, nil
}

// Impact returns the advisory impact estimate for a submission.
func (s *SubmissionService) Impact(ctx context.Context, id string) (*models.ImpactEstimate, error) {
	submission, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	estimate := EstimateImpact(submission)
	return &estimate, nil
}

func (s *SubmissionService) emitAudit(ctx context.Context, submission *models.DataSubmission, userID *string) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{
		"entityType": string(submission.EntityType),
		"field":      submission.FieldName,
		"proposed":   submission.ProposedValue,
	})
	entry := &models.AuditLog{
		UserID:     userID,
		Action:     models.AuditActionSubmissionCreate,
		Resource:   "data_submission",
		ResourceID: &submission.ID,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "submission-service",
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func validateSubmissionRequest(req dto.CreateSubmissionRequest) error {
	if req.EntityType == "" || req.EntityID == "" || req.FieldName == "" {
		return appErrors.Clone(appErrors.ErrValidation, "entityType, entityId, and fieldName are required")
	}
	if strings.TrimSpace(req.ProposedValue) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "proposedValue is required")
	}
	if strings.TrimSpace(req.ChangeReason) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "changeReason is required")
	}
	switch models.EntityType(strings.ToUpper(string(req.EntityType))) {
	case models.EntityUniversity, models.EntityMerit, models.EntityDeadline,
		models.EntityScholarship, models.EntityProgram, models.EntityFee, models.EntityOther:
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unsupported entity type")
	}
	if !knownSubmissionType(models.SubmissionType(strings.ToUpper(string(req.Type)))) {
		return appErrors.Clone(appErrors.ErrValidation, "unsupported submission type")
	}
	switch models.AuthProvider(strings.ToUpper(string(req.AuthProvider))) {
	case models.AuthProviderGoogle, models.AuthProviderEmail, models.AuthProviderGuest:
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unsupported auth provider")
	}
	return nil
}

func knownSubmissionType(t models.SubmissionType) bool {
	for _, known := range models.KnownSubmissionTypes {
		if t == known {
			return true
		}
	}
	return false
}

func clampTrust(level int) int {
	if level < 0 {
		return 0
	}
	if level > 5 {
		return 5
	}
	return level
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	v := strings.TrimSpace(value)
	return &v
}
