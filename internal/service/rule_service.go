package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/humna-mustafa/pakuni-api/internal/dto"
	"github.com/humna-mustafa/pakuni-api/internal/models"
	appErrors "github.com/humna-mustafa/pakuni-api/pkg/errors"
)

type ruleStore interface {
	List(ctx context.Context, enabledOnly bool) ([]models.AutoApprovalRule, error)
	GetByID(ctx context.Context, id string) (*models.AutoApprovalRule, error)
	Upsert(ctx context.Context, rule *models.AutoApprovalRule) error
	Delete(ctx context.Context, id string) error
	Toggle(ctx context.Context, id string) (bool, error)
}

// RuleService manages auto-approval rule definitions for administrators. The
// engine only ever reads rules; all writes go through here.
type RuleService struct {
	repo   ruleStore
	audit  auditLogger
	logger *zap.Logger
}

// NewRuleService constructs the service.
func NewRuleService(repo ruleStore, audit auditLogger, logger *zap.Logger) *RuleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleService{repo: repo, audit: audit, logger: logger}
}

// List returns every rule with its lint warnings.
func (s *RuleService) List(ctx context.Context) ([]dto.RuleResponse, error) {
	rules, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rules")
	}
	responses := make([]dto.RuleResponse, 0, len(rules))
	for i := range rules {
		responses = append(responses, dto.RuleResponse{Rule: &rules[i], Warnings: rules[i].Lint()})
	}
	return responses, nil
}

// Upsert validates and stores a rule, returning configuration lint warnings.
// An unreachable rule is stored anyway; it simply never fires.
func (s *RuleService) Upsert(ctx context.Context, id string, req dto.UpsertRuleRequest, actorID string) (*dto.RuleResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name is required")
	}
	if req.MinTrustLevel < 0 || req.MinTrustLevel > 5 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "minTrustLevel must be between 0 and 5")
	}
	if req.MaxValueChangePercent != nil && *req.MaxValueChangePercent < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "maxValueChangePercent must not be negative")
	}
	types, err := normalizeTypes(req.SubmissionTypes)
	if err != nil {
		return nil, err
	}
	providers, err := normalizeProviders(req.AllowedAuthProviders)
	if err != nil {
		return nil, err
	}

	rule := &models.AutoApprovalRule{
		ID:                     id,
		Name:                   strings.TrimSpace(req.Name),
		Description:            strings.TrimSpace(req.Description),
		Enabled:                req.Enabled,
		Priority:               req.Priority,
		MinTrustLevel:          req.MinTrustLevel,
		SubmissionTypes:        types,
		MaxValueChangePercent:  req.MaxValueChangePercent,
		RequireSource:          req.RequireSource,
		AllowedAuthProviders:   providers,
		RequireEmailVerified:   req.RequireEmailVerified,
		AutoApproveGoogleUsers: req.AutoApproveGoogleUsers,
		NotifyAdmin:            req.NotifyAdmin,
	}
	if id != "" {
		if existing, err := s.repo.GetByID(ctx, id); err == nil {
			rule.CreatedAt = existing.CreatedAt
			rule.ApprovedCount = existing.ApprovedCount
		}
	}
	if err := s.repo.Upsert(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save rule")
	}
	s.emitAudit(ctx, models.AuditActionRuleUpsert, rule.ID, actorID, rule)
	return &dto.RuleResponse{Rule: rule, Warnings: rule.Lint()}, nil
}

// Delete removes a rule.
func (s *RuleService) Delete(ctx context.Context, id, actorID string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete rule")
	}
	s.emitAudit(ctx, models.AuditActionRuleDelete, id, actorID, nil)
	return nil
}

// Toggle flips a rule's enabled flag.
func (s *RuleService) Toggle(ctx context.Context, id, actorID string) (bool, error) {
	enabled, err := s.repo.Toggle(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.ErrNotFound
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle rule")
	}
	s.emitAudit(ctx, models.AuditActionRuleToggle, id, actorID, map[string]bool{"enabled": enabled})
	return enabled, nil
}

func (s *RuleService) emitAudit(ctx context.Context, action, ruleID, actorID string, payload interface{}) {
	if s.audit == nil {
		return
	}
	var values []byte
	if payload != nil {
		values, _ = json.Marshal(payload)
	}
	entry := &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "auto_approval_rule",
		ResourceID: &ruleID,
		NewValues:  values,
		IPAddress:  "system",
		UserAgent:  "rule-service",
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func normalizeTypes(raw []string) (pq.StringArray, error) {
	out := make(pq.StringArray, 0, len(raw))
	for _, t := range raw {
		st := models.SubmissionType(strings.ToUpper(strings.TrimSpace(t)))
		if st == "" {
			continue
		}
		if !knownSubmissionType(st) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported submission type: "+t)
		}
		out = append(out, string(st))
	}
	return out, nil
}

func normalizeProviders(raw []string) (pq.StringArray, error) {
	out := make(pq.StringArray, 0, len(raw))
	for _, p := range raw {
		ap := models.AuthProvider(strings.ToUpper(strings.TrimSpace(p)))
		switch ap {
		case "":
			continue
		case models.AuthProviderGoogle, models.AuthProviderEmail, models.AuthProviderGuest:
			out = append(out, string(ap))
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported auth provider: "+p)
		}
	}
	return out, nil
}
