package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/humna-mustafa/pakuni-api/internal/dto"
	"github.com/humna-mustafa/pakuni-api/internal/models"
	appErrors "github.com/humna-mustafa/pakuni-api/pkg/errors"
)

type submissionStoreStub struct {
	created []*models.DataSubmission
	byID    map[string]*models.DataSubmission
	filter  models.SubmissionFilter
	pending []string
}

func newSubmissionStoreStub() *submissionStoreStub {
	return &submissionStoreStub{byID: make(map[string]*models.DataSubmission)}
}

func (s *submissionStoreStub) Create(ctx context.Context, submission *models.DataSubmission) error {
	if submission.ID == "" {
		submission.ID = "generated-id"
	}
	s.created = append(s.created, submission)
	s.byID[submission.ID] = submission
	return nil
}

func (s *submissionStoreStub) GetByID(ctx context.Context, id string) (*models.DataSubmission, error) {
	if sub, ok := s.byID[id]; ok {
		return sub, nil
	}
	return nil, sql.ErrNoRows
}

func (s *submissionStoreStub) List(ctx context.Context, filter models.SubmissionFilter) ([]models.DataSubmission, error) {
	s.filter = filter
	result := make([]models.DataSubmission, 0, len(s.byID))
	for _, sub := range s.byID {
		result = append(result, *sub)
	}
	return result, nil
}

func (s *submissionStoreStub) PendingIDs(ctx context.Context) ([]string, error) {
	return s.pending, nil
}

type deciderStub struct {
	decision *Decision
	err      error
	calls    int
}

func (d *deciderStub) Decide(ctx context.Context, submission *models.DataSubmission) (*Decision, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	if d.decision != nil {
		return d.decision, nil
	}
	return &Decision{Verdict: models.SubmissionStatusPending}, nil
}

func validCreateRequest() dto.CreateSubmissionRequest {
	return dto.CreateSubmissionRequest{
		EntityType:    models.EntityMerit,
		EntityID:      "uni-42",
		EntityName:    "NUST",
		FieldName:     "aggregate_cutoff",
		CurrentValue:  "80",
		ProposedValue: "82",
		ChangeReason:  "updated merit list published",
		SourceProof:   "https://nust.edu.pk/merit",
		Type:          models.SubmissionMeritUpdate,
		Priority:      models.PriorityMedium,
		SubmitterName: "Ali",
		TrustLevel:    3,
		AuthProvider:  models.AuthProviderGoogle,
		EmailVerified: true,
	}
}

func TestSubmitQueuesAndDecides(t *testing.T) {
	store := newSubmissionStoreStub()
	decider := &deciderStub{decision: &Decision{
		Verdict:       models.SubmissionStatusAutoApproved,
		MatchedRuleID: "rule-1",
	}}
	audit := &auditStub{}
	svc := NewSubmissionService(store, decider, audit, nil, true)

	userID := "user-1"
	resp, err := svc.Submit(context.Background(), validCreateRequest(), &userID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusAutoApproved, resp.Verdict)
	require.Equal(t, "rule-1", *resp.MatchedRuleID)
	require.Len(t, store.created, 1)
	require.Equal(t, models.SubmissionStatusPending, store.created[0].Status)
	require.Equal(t, "user-1", *store.created[0].SubmittedBy)
	require.Equal(t, 1, decider.calls)
	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionSubmissionCreate, audit.logs[0].Action)
}

func TestSubmitAnonymous(t *testing.T) {
	store := newSubmissionStoreStub()
	svc := NewSubmissionService(store, &deciderStub{}, &auditStub{}, nil, true)

	req := validCreateRequest()
	req.AuthProvider = models.AuthProviderGuest
	resp, err := svc.Submit(context.Background(), req, nil)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusPending, resp.Verdict)
	require.Nil(t, store.created[0].SubmittedBy)
}

func TestSubmitDeciderFailureDoesNotBounceIntake(t *testing.T) {
	store := newSubmissionStoreStub()
	decider := &deciderStub{err: errors.New("rule table unreachable")}
	svc := NewSubmissionService(store, decider, &auditStub{}, nil, true)

	resp, err := svc.Submit(context.Background(), validCreateRequest(), nil)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusPending, resp.Verdict)
	require.Len(t, store.created, 1)
}

func TestSubmitAutoApprovalDisabledSkipsDecider(t *testing.T) {
	store := newSubmissionStoreStub()
	decider := &deciderStub{}
	svc := NewSubmissionService(store, decider, &auditStub{}, nil, false)

	resp, err := svc.Submit(context.Background(), validCreateRequest(), nil)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusPending, resp.Verdict)
	require.Zero(t, decider.calls)
}

func TestSubmitValidation(t *testing.T) {
	svc := NewSubmissionService(newSubmissionStoreStub(), &deciderStub{}, &auditStub{}, nil, true)

	tests := []struct {
		name   string
		mutate func(*dto.CreateSubmissionRequest)
	}{
		{"missing entity id", func(r *dto.CreateSubmissionRequest) { r.EntityID = "" }},
		{"missing field name", func(r *dto.CreateSubmissionRequest) { r.FieldName = "" }},
		{"missing proposed value", func(r *dto.CreateSubmissionRequest) { r.ProposedValue = "  " }},
		{"missing change reason", func(r *dto.CreateSubmissionRequest) { r.ChangeReason = "" }},
		{"unknown entity type", func(r *dto.CreateSubmissionRequest) { r.EntityType = "PLANET" }},
		{"unknown submission type", func(r *dto.CreateSubmissionRequest) { r.Type = "GOSSIP" }},
		{"unknown auth provider", func(r *dto.CreateSubmissionRequest) { r.AuthProvider = "FACEBOOK" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreateRequest()
			tc.mutate(&req)
			_, err := svc.Submit(context.Background(), req, nil)
			require.Error(t, err)
			require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestSubmitClampsTrustLevel(t *testing.T) {
	store := newSubmissionStoreStub()
	svc := NewSubmissionService(store, &deciderStub{}, &auditStub{}, nil, true)

	req := validCreateRequest()
	req.TrustLevel = 99
	_, err := svc.Submit(context.Background(), req, nil)
	require.NoError(t, err)
	require.Equal(t, 5, store.created[0].TrustLevel)

	req = validCreateRequest()
	req.TrustLevel = -2
	_, err = svc.Submit(context.Background(), req, nil)
	require.NoError(t, err)
	require.Equal(t, 0, store.created[1].TrustLevel)
}

func TestSubmitNormalizesEmptySourceProof(t *testing.T) {
	store := newSubmissionStoreStub()
	svc := NewSubmissionService(store, &deciderStub{}, &auditStub{}, nil, true)

	req := validCreateRequest()
	req.SourceProof = "   "
	_, err := svc.Submit(context.Background(), req, nil)
	require.NoError(t, err)
	require.Nil(t, store.created[0].SourceProof)
}

func TestGetNotFound(t *testing.T) {
	svc := NewSubmissionService(newSubmissionStoreStub(), nil, nil, nil, false)
	_, err := svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestListPassesFilter(t *testing.T) {
	store := newSubmissionStoreStub()
	svc := NewSubmissionService(store, nil, nil, nil, false)

	_, err := svc.List(context.Background(), dto.SubmissionQuery{
		Status: []models.SubmissionStatus{models.SubmissionStatusPending},
		Sort:   models.SortByPriority,
		Limit:  25,
	})
	require.NoError(t, err)
	require.Equal(t, models.SortByPriority, store.filter.Sort)
	require.Equal(t, 25, store.filter.Limit)
	require.Equal(t, []models.SubmissionStatus{models.SubmissionStatusPending}, store.filter.Status)
}

func TestPendingIDs(t *testing.T) {
	store := newSubmissionStoreStub()
	store.pending = []string{"sub-1", "sub-2"}
	svc := NewSubmissionService(store, nil, nil, nil, false)

	ids, err := svc.PendingIDs(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"sub-1", "sub-2"}, ids)
}

func TestImpactForStoredSubmission(t *testing.T) {
	store := newSubmissionStoreStub()
	submission := baseSubmission()
	submission.ID = "sub-1"
	store.byID["sub-1"] = submission
	svc := NewSubmissionService(store, nil, nil, nil, false)

	estimate, err := svc.Impact(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Equal(t, 3, estimate.AffectedCount)
	require.Contains(t, estimate.RelatedChangeDescriptions, "merit cutoff list for the program")
}
