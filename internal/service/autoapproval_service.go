package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/humna-mustafa/pakuni-api/internal/models"
	"github.com/humna-mustafa/pakuni-api/internal/repository"
	appErrors "github.com/humna-mustafa/pakuni-api/pkg/errors"
	"github.com/humna-mustafa/pakuni-api/pkg/notify"
)

type autoApprovalRuleStore interface {
	List(ctx context.Context, enabledOnly bool) ([]models.AutoApprovalRule, error)
	IncrementApprovedCount(ctx context.Context, id string) error
}

type autoApprovalSubmissionStore interface {
	UpdateStatus(ctx context.Context, params repository.UpdateSubmissionParams) error
}

type submissionApplier interface {
	Apply(ctx context.Context, submission *models.DataSubmission) *models.ApplyReport
}

type verdictRecorder interface {
	RecordVerdict(verdict string, ruleID string)
}

// Decision is the engine's verdict for an incoming submission.
type Decision struct {
	Verdict       models.SubmissionStatus
	MatchedRuleID string
	MatchedRule   *models.AutoApprovalRule
	Apply         *models.ApplyReport
}

// AutoApprovalService evaluates enabled rules against incoming submissions
// and finalises the fast path.
type AutoApprovalService struct {
	rules        autoApprovalRuleStore
	submissions  autoApprovalSubmissionStore
	apply        submissionApplier
	audit        auditLogger
	notifier     notify.Notifier
	metrics      verdictRecorder
	logger       *zap.Logger
	adminChannel string
	now          func() time.Time
}

// AutoApprovalServiceParams groups constructor dependencies.
type AutoApprovalServiceParams struct {
	Rules        autoApprovalRuleStore
	Submissions  autoApprovalSubmissionStore
	Apply        submissionApplier
	Audit        auditLogger
	Notifier     notify.Notifier
	Metrics      verdictRecorder
	Logger       *zap.Logger
	AdminChannel string
}

// NewAutoApprovalService constructs the engine.
func NewAutoApprovalService(params AutoApprovalServiceParams) *AutoApprovalService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &AutoApprovalService{
		rules:        params.Rules,
		submissions:  params.Submissions,
		apply:        params.Apply,
		audit:        params.Audit,
		notifier:     notifier,
		metrics:      params.Metrics,
		logger:       logger,
		adminChannel: params.AdminChannel,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Decide runs the submission through every enabled rule in the store's fixed
// order (priority asc, creation asc, id asc) and finalises the outcome. The
// first matching rule wins; partial matches across rules never combine. When
// no rule matches the submission stays PENDING for manual review.
func (s *AutoApprovalService) Decide(ctx context.Context, submission *models.DataSubmission) (*Decision, error) {
	rules, err := s.rules.List(ctx, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load auto-approval rules")
	}

	var matched *models.AutoApprovalRule
	for i := range rules {
		if EvaluateRule(submission, &rules[i]) {
			matched = &rules[i]
			break
		}
	}

	if matched == nil {
		if s.metrics != nil {
			s.metrics.RecordVerdict("pending", "")
		}
		s.emitAudit(ctx, submission, nil)
		return &Decision{Verdict: models.SubmissionStatusPending}, nil
	}

	decision := &Decision{
		Verdict:       models.SubmissionStatusAutoApproved,
		MatchedRuleID: matched.ID,
		MatchedRule:   matched,
	}

	now := s.now()
	system := models.SystemPrincipal
	if err := s.submissions.UpdateStatus(ctx, repository.UpdateSubmissionParams{
		ID:            submission.ID,
		Status:        models.SubmissionStatusAutoApproved,
		ReviewedBy:    system,
		ReviewedAt:    now,
		AutoApproved:  true,
		MatchedRuleID: &matched.ID,
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record auto-approval")
	}
	submission.Status = models.SubmissionStatusAutoApproved
	submission.ReviewedBy = &system
	submission.ReviewedAt = &now
	submission.AutoApproved = true
	submission.MatchedRuleID = &matched.ID

	// Exactly one increment per auto-approval. The counter is a store-side
	// atomic add; a failure here loses a statistic, not the approval.
	if err := s.rules.IncrementApprovedCount(ctx, matched.ID); err != nil {
		s.logger.Warn("failed to increment rule counter",
			zap.String("rule_id", matched.ID), zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.RecordVerdict("auto_approved", matched.ID)
	}
	s.emitAudit(ctx, submission, matched)

	if matched.NotifyAdmin {
		message := fmt.Sprintf("submission %s (%s/%s) auto-approved by rule %q",
			submission.ID, submission.EntityType, submission.FieldName, matched.Name)
		if err := s.notifier.Notify(ctx, s.adminChannel, message); err != nil {
			s.logger.Warn("admin notification failed", zap.Error(err))
		}
	}

	// Approval is one-way: a failed or partial apply is logged and surfaced
	// but never reverses the auto-approval.
	if s.apply != nil {
		decision.Apply = s.apply.Apply(ctx, submission)
		if len(decision.Apply.Errors) > 0 {
			s.logger.Error("auto-approved submission applied with errors",
				zap.String("submission_id", submission.ID),
				zap.Strings("errors", decision.Apply.Errors))
		}
	}

	return decision, nil
}

func (s *AutoApprovalService) emitAudit(ctx context.Context, submission *models.DataSubmission, matched *models.AutoApprovalRule) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"verdict":        string(submission.Status),
		"matchedRuleId":  ruleID(matched),
		"entityType":     string(submission.EntityType),
		"field":          submission.FieldName,
		"proposed_value": submission.ProposedValue,
	})
	action := models.AuditActionEvaluate
	if matched != nil {
		action = models.AuditActionAutoApprove
	}
	system := models.SystemPrincipal
	entry := &models.AuditLog{
		UserID:     &system,
		Action:     action,
		Resource:   "data_submission",
		ResourceID: &submission.ID,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "auto-approval-engine",
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func ruleID(rule *models.AutoApprovalRule) string {
	if rule == nil {
		return ""
	}
	return rule.ID
}
