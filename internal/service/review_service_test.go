package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/humna-mustafa/pakuni-api/internal/dto"
	"github.com/humna-mustafa/pakuni-api/internal/models"
	"github.com/humna-mustafa/pakuni-api/internal/repository"
	appErrors "github.com/humna-mustafa/pakuni-api/pkg/errors"
)

type reviewStoreStub struct {
	submissions map[string]*models.DataSubmission
	updateErr   error
}

func newReviewStoreStub(submissions ...*models.DataSubmission) *reviewStoreStub {
	stub := &reviewStoreStub{submissions: make(map[string]*models.DataSubmission)}
	for _, s := range submissions {
		stub.submissions[s.ID] = s
	}
	return stub
}

func (r *reviewStoreStub) GetByID(ctx context.Context, id string) (*models.DataSubmission, error) {
	if s, ok := r.submissions[id]; ok {
		copy := *s
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *reviewStoreStub) UpdateStatus(ctx context.Context, params repository.UpdateSubmissionParams) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	s, ok := r.submissions[params.ID]
	if !ok || s.Status.Terminal() {
		return sql.ErrNoRows
	}
	s.Status = params.Status
	s.ReviewedBy = &params.ReviewedBy
	s.ReviewedAt = &params.ReviewedAt
	s.ReviewerNotes = params.ReviewerNotes
	s.RejectionReason = params.RejectionReason
	return nil
}

func (r *reviewStoreStub) MarkUnderReview(ctx context.Context, id, reviewerID string) error {
	s, ok := r.submissions[id]
	if !ok || s.Status != models.SubmissionStatusPending {
		return sql.ErrNoRows
	}
	s.Status = models.SubmissionStatusUnderReview
	s.ClaimedBy = &reviewerID
	return nil
}

func pendingSubmission(id string) *models.DataSubmission {
	s := baseSubmission()
	s.ID = id
	s.Status = models.SubmissionStatusPending
	return s
}

func requireTransitionConflict(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
	require.Equal(t, appErrors.ErrInvalidTransition.Status, appErr.Status)
}

func TestReviewApprove(t *testing.T) {
	store := newReviewStoreStub(pendingSubmission("sub-1"))
	applier := &applierStub{}
	audit := &auditStub{}
	metrics := &verdictStub{}
	svc := NewReviewService(store, applier, audit, metrics, nil)

	result, err := svc.Review(context.Background(), "sub-1", dto.ReviewSubmissionRequest{
		Action: dto.ReviewActionApprove,
		Notes:  "verified against the university site",
	}, "reviewer-1")
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusApproved, result.Submission.Status)
	require.Equal(t, "reviewer-1", *result.Submission.ReviewedBy)
	require.NotNil(t, result.Apply)
	require.Equal(t, []string{"sub-1"}, applier.applied)
	require.Equal(t, []string{"approved"}, metrics.verdicts)
	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionReview, audit.logs[0].Action)
}

func TestReviewRejectRequiresReason(t *testing.T) {
	store := newReviewStoreStub(pendingSubmission("sub-1"))
	svc := NewReviewService(store, &applierStub{}, &auditStub{}, nil, nil)

	_, err := svc.Review(context.Background(), "sub-1", dto.ReviewSubmissionRequest{
		Action: dto.ReviewActionReject,
	}, "reviewer-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	// The submission stayed pending.
	s, _ := store.GetByID(context.Background(), "sub-1")
	require.Equal(t, models.SubmissionStatusPending, s.Status)
}

func TestReviewReject(t *testing.T) {
	store := newReviewStoreStub(pendingSubmission("sub-1"))
	applier := &applierStub{}
	svc := NewReviewService(store, applier, &auditStub{}, nil, nil)

	result, err := svc.Review(context.Background(), "sub-1", dto.ReviewSubmissionRequest{
		Action:          dto.ReviewActionReject,
		RejectionReason: "no source provided",
	}, "reviewer-1")
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusRejected, result.Submission.Status)
	require.Equal(t, "no source provided", *result.Submission.RejectionReason)
	// Rejections never touch canonical data.
	require.Nil(t, result.Apply)
	require.Empty(t, applier.applied)
}

func TestReviewInvalidAction(t *testing.T) {
	svc := NewReviewService(newReviewStoreStub(), &applierStub{}, &auditStub{}, nil, nil)
	_, err := svc.Review(context.Background(), "sub-1", dto.ReviewSubmissionRequest{Action: "ESCALATE"}, "reviewer-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReviewTerminalSubmissionConflicts(t *testing.T) {
	for _, status := range []models.SubmissionStatus{
		models.SubmissionStatusApproved,
		models.SubmissionStatusRejected,
		models.SubmissionStatusAutoApproved,
	} {
		t.Run(string(status), func(t *testing.T) {
			finalized := pendingSubmission("sub-1")
			finalized.Status = status
			store := newReviewStoreStub(finalized)
			applier := &applierStub{}
			svc := NewReviewService(store, applier, &auditStub{}, nil, nil)

			_, err := svc.Review(context.Background(), "sub-1", dto.ReviewSubmissionRequest{
				Action: dto.ReviewActionApprove,
			}, "reviewer-1")
			requireTransitionConflict(t, err)

			// The losing review mutates nothing.
			s, _ := store.GetByID(context.Background(), "sub-1")
			require.Equal(t, status, s.Status)
			require.Empty(t, applier.applied)
		})
	}
}

func TestReviewConcurrentFinalizeIsNoOp(t *testing.T) {
	store := newReviewStoreStub(pendingSubmission("sub-1"))
	store.updateErr = sql.ErrNoRows
	applier := &applierStub{}
	svc := NewReviewService(store, applier, &auditStub{}, nil, nil)

	_, err := svc.Review(context.Background(), "sub-1", dto.ReviewSubmissionRequest{
		Action: dto.ReviewActionApprove,
	}, "reviewer-1")
	requireTransitionConflict(t, err)
	require.Empty(t, applier.applied)
}

func TestReviewNotFound(t *testing.T) {
	svc := NewReviewService(newReviewStoreStub(), &applierStub{}, &auditStub{}, nil, nil)
	_, err := svc.Review(context.Background(), "missing", dto.ReviewSubmissionRequest{
		Action: dto.ReviewActionApprove,
	}, "reviewer-1")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestReviewApplyErrorsDoNotRevertApproval(t *testing.T) {
	store := newReviewStoreStub(pendingSubmission("sub-1"))
	applier := &applierStub{report: &models.ApplyReport{
		UpdatedCount: 1,
		Errors:       []string{"deadline calendar: timeout"},
	}}
	svc := NewReviewService(store, applier, &auditStub{}, nil, nil)

	result, err := svc.Review(context.Background(), "sub-1", dto.ReviewSubmissionRequest{
		Action: dto.ReviewActionApprove,
	}, "reviewer-1")
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusApproved, result.Submission.Status)
	require.Len(t, result.Apply.Errors, 1)

	s, _ := store.GetByID(context.Background(), "sub-1")
	require.Equal(t, models.SubmissionStatusApproved, s.Status)
}

func TestClaim(t *testing.T) {
	store := newReviewStoreStub(pendingSubmission("sub-1"))
	svc := NewReviewService(store, &applierStub{}, &auditStub{}, nil, nil)

	claimed, err := svc.Claim(context.Background(), "sub-1", "reviewer-1")
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusUnderReview, claimed.Status)
	require.Equal(t, "reviewer-1", *claimed.ClaimedBy)
	// Claiming records the claimer only; reviewed_by/reviewed_at are set
	// together by the terminal decision and stay null until then.
	require.Nil(t, claimed.ReviewedBy)
	require.Nil(t, claimed.ReviewedAt)
}

func TestClaimAlreadyClaimedConflicts(t *testing.T) {
	underReview := pendingSubmission("sub-1")
	underReview.Status = models.SubmissionStatusUnderReview
	store := newReviewStoreStub(underReview)
	svc := NewReviewService(store, &applierStub{}, &auditStub{}, nil, nil)

	_, err := svc.Claim(context.Background(), "sub-1", "reviewer-2")
	requireTransitionConflict(t, err)
}

func TestClaimMissingSubmission(t *testing.T) {
	svc := NewReviewService(newReviewStoreStub(), &applierStub{}, &auditStub{}, nil, nil)
	_, err := svc.Claim(context.Background(), "missing", "reviewer-1")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestBulkReviewPartialFailure(t *testing.T) {
	finalized := pendingSubmission("sub-3")
	finalized.Status = models.SubmissionStatusRejected
	store := newReviewStoreStub(
		pendingSubmission("sub-1"),
		pendingSubmission("sub-2"),
		finalized,
		pendingSubmission("sub-4"),
		pendingSubmission("sub-5"),
	)
	audit := &auditStub{}
	svc := NewReviewService(store, &applierStub{}, audit, nil, nil)

	result, err := svc.ReviewBulk(context.Background(), dto.BulkReviewRequest{
		SubmissionIDs: []string{"sub-1", "sub-2", "sub-3", "sub-4", "sub-5"},
		Action:        dto.ReviewActionApprove,
	}, "reviewer-1")
	require.NoError(t, err)
	require.Equal(t, 4, result.Processed)
	require.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "sub-3")

	// Successful items are finalized despite the failed sibling.
	for _, id := range []string{"sub-1", "sub-2", "sub-4", "sub-5"} {
		s, _ := store.GetByID(context.Background(), id)
		require.Equal(t, models.SubmissionStatusApproved, s.Status)
	}

	// One audit entry per processed item plus the bulk summary.
	require.Len(t, audit.logs, 5)
	require.Equal(t, models.AuditActionBulkReview, audit.logs[len(audit.logs)-1].Action)
}

func TestBulkReviewDeduplicatesIDs(t *testing.T) {
	store := newReviewStoreStub(pendingSubmission("sub-1"))
	applier := &applierStub{}
	svc := NewReviewService(store, applier, &auditStub{}, nil, nil)

	result, err := svc.ReviewBulk(context.Background(), dto.BulkReviewRequest{
		SubmissionIDs: []string{"sub-1", "sub-1", "sub-1"},
		Action:        dto.ReviewActionApprove,
	}, "reviewer-1")
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)
	require.Zero(t, result.Failed)
	require.Len(t, applier.applied, 1)
}

func TestBulkReviewValidation(t *testing.T) {
	svc := NewReviewService(newReviewStoreStub(), &applierStub{}, &auditStub{}, nil, nil)

	_, err := svc.ReviewBulk(context.Background(), dto.BulkReviewRequest{
		Action: dto.ReviewActionApprove,
	}, "reviewer-1")
	require.Error(t, err)

	_, err = svc.ReviewBulk(context.Background(), dto.BulkReviewRequest{
		SubmissionIDs: []string{"sub-1"},
		Action:        dto.ReviewActionReject,
	}, "reviewer-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBulkReviewNeverAtomic(t *testing.T) {
	store := newReviewStoreStub(pendingSubmission("sub-1"), pendingSubmission("sub-2"))
	store.updateErr = errors.New("write failed")
	svc := NewReviewService(store, &applierStub{}, &auditStub{}, nil, nil)

	result, err := svc.ReviewBulk(context.Background(), dto.BulkReviewRequest{
		SubmissionIDs: []string{"sub-1", "sub-2"},
		Action:        dto.ReviewActionApprove,
	}, "reviewer-1")
	require.NoError(t, err)
	require.Equal(t, 2, result.Failed)
	require.Zero(t, result.Processed)
}
