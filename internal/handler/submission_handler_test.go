package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humna-mustafa/pakuni-api/internal/dto"
	"github.com/humna-mustafa/pakuni-api/internal/middleware"
	"github.com/humna-mustafa/pakuni-api/internal/models"
	appErrors "github.com/humna-mustafa/pakuni-api/pkg/errors"
)

type submissionServiceMock struct {
	submitResp  *dto.DecisionResponse
	submitErr   error
	getResp     *models.DataSubmission
	getErr      error
	listResp    []models.DataSubmission
	lastQuery   dto.SubmissionQuery
	lastUserID  *string
	pendingResp []string
	impactResp  *models.ImpactEstimate
}

func (m *submissionServiceMock) Submit(ctx context.Context, req dto.CreateSubmissionRequest, userID *string) (*dto.DecisionResponse, error) {
	m.lastUserID = userID
	return m.submitResp, m.submitErr
}

func (m *submissionServiceMock) Get(ctx context.Context, id string) (*models.DataSubmission, error) {
	return m.getResp, m.getErr
}

func (m *submissionServiceMock) List(ctx context.Context, query dto.SubmissionQuery) ([]models.DataSubmission, error) {
	m.lastQuery = query
	return m.listResp, nil
}

func (m *submissionServiceMock) PendingIDs(ctx context.Context) ([]string, error) {
	return m.pendingResp, nil
}

func (m *submissionServiceMock) Impact(ctx context.Context, id string) (*models.ImpactEstimate, error) {
	return m.impactResp, nil
}

type reviewServiceMock struct {
	claimResp  *models.DataSubmission
	claimErr   error
	reviewResp *dto.ReviewResult
	reviewErr  error
	bulkResp   *dto.BulkReviewResult
	lastReview dto.ReviewSubmissionRequest
	lastBulk   dto.BulkReviewRequest
}

func (m *reviewServiceMock) Claim(ctx context.Context, id, reviewerID string) (*models.DataSubmission, error) {
	return m.claimResp, m.claimErr
}

func (m *reviewServiceMock) Review(ctx context.Context, id string, req dto.ReviewSubmissionRequest, reviewerID string) (*dto.ReviewResult, error) {
	m.lastReview = req
	return m.reviewResp, m.reviewErr
}

func (m *reviewServiceMock) ReviewBulk(ctx context.Context, req dto.BulkReviewRequest, reviewerID string) (*dto.BulkReviewResult, error) {
	m.lastBulk = req
	return m.bulkResp, nil
}

func reviewerContext(t *testing.T, w *httptest.ResponseRecorder) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "reviewer-1", Role: models.RoleModerator})
	return c
}

func TestSubmissionHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &submissionServiceMock{submitResp: &dto.DecisionResponse{
		Submission: &models.DataSubmission{ID: "sub-1"},
		Verdict:    models.SubmissionStatusAutoApproved,
	}}
	handler := NewSubmissionHandler(mockSvc, &reviewServiceMock{})

	body, _ := json.Marshal(dto.CreateSubmissionRequest{
		EntityType:    models.EntityMerit,
		EntityID:      "uni-42",
		FieldName:     "aggregate_cutoff",
		ProposedValue: "82",
		ChangeReason:  "merit list updated",
		Type:          models.SubmissionMeritUpdate,
		AuthProvider:  models.AuthProviderGoogle,
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/submissions", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	// Anonymous intake carries no user id.
	assert.Nil(t, mockSvc.lastUserID)
}

func TestSubmissionHandlerCreateAttachesUser(t *testing.T) {
	mockSvc := &submissionServiceMock{submitResp: &dto.DecisionResponse{
		Submission: &models.DataSubmission{ID: "sub-1"},
		Verdict:    models.SubmissionStatusPending,
	}}
	handler := NewSubmissionHandler(mockSvc, &reviewServiceMock{})

	w := httptest.NewRecorder()
	c := reviewerContext(t, w)
	req, _ := http.NewRequest(http.MethodPost, "/submissions", bytes.NewBufferString(`{"entityType":"MERIT"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, mockSvc.lastUserID)
	assert.Equal(t, "reviewer-1", *mockSvc.lastUserID)
}

func TestSubmissionHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSubmissionHandler(&submissionServiceMock{}, &reviewServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/submissions", bytes.NewBufferString(`{"entityType":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmissionHandlerListParsesQuery(t *testing.T) {
	mockSvc := &submissionServiceMock{}
	handler := NewSubmissionHandler(mockSvc, &reviewServiceMock{})

	w := httptest.NewRecorder()
	c := reviewerContext(t, w)
	req, _ := http.NewRequest(http.MethodGet,
		"/submissions?status=pending,under_review&type=merit_update&sort=priority&limit=25", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.SubmissionStatus{
		models.SubmissionStatusPending, models.SubmissionStatusUnderReview,
	}, mockSvc.lastQuery.Status)
	assert.Equal(t, models.SubmissionMeritUpdate, mockSvc.lastQuery.Type)
	assert.Equal(t, models.SortByPriority, mockSvc.lastQuery.Sort)
	assert.Equal(t, 25, mockSvc.lastQuery.Limit)
}

func TestSubmissionHandlerReviewNormalizesAction(t *testing.T) {
	mockReview := &reviewServiceMock{reviewResp: &dto.ReviewResult{
		Submission: &models.DataSubmission{ID: "sub-1", Status: models.SubmissionStatusApproved},
	}}
	handler := NewSubmissionHandler(&submissionServiceMock{}, mockReview)

	w := httptest.NewRecorder()
	c := reviewerContext(t, w)
	req, _ := http.NewRequest(http.MethodPost, "/submissions/sub-1/review",
		bytes.NewBufferString(`{"action":"approve"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}

	handler.Review(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ReviewActionApprove, mockReview.lastReview.Action)
}

func TestSubmissionHandlerReviewConflict(t *testing.T) {
	mockReview := &reviewServiceMock{reviewErr: appErrors.ErrInvalidTransition}
	handler := NewSubmissionHandler(&submissionServiceMock{}, mockReview)

	w := httptest.NewRecorder()
	c := reviewerContext(t, w)
	req, _ := http.NewRequest(http.MethodPost, "/submissions/sub-1/review",
		bytes.NewBufferString(`{"action":"APPROVE"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}

	handler.Review(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestSubmissionHandlerReviewUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSubmissionHandler(&submissionServiceMock{}, &reviewServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/submissions/sub-1/review",
		bytes.NewBufferString(`{"action":"APPROVE"}`))
	c.Request = req

	handler.Review(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmissionHandlerBulkReview(t *testing.T) {
	mockReview := &reviewServiceMock{bulkResp: &dto.BulkReviewResult{Processed: 4, Failed: 1}}
	handler := NewSubmissionHandler(&submissionServiceMock{}, mockReview)

	w := httptest.NewRecorder()
	c := reviewerContext(t, w)
	req, _ := http.NewRequest(http.MethodPost, "/submissions/bulk-review",
		bytes.NewBufferString(`{"submissionIds":["a","b"],"action":"reject","rejectionReason":"stale"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.ReviewBulk(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ReviewActionReject, mockReview.lastBulk.Action)
	assert.Equal(t, []string{"a", "b"}, mockReview.lastBulk.SubmissionIDs)
}

func TestSubmissionHandlerImpactMeta(t *testing.T) {
	mockSvc := &submissionServiceMock{impactResp: &models.ImpactEstimate{AffectedCount: 3}}
	handler := NewSubmissionHandler(mockSvc, &reviewServiceMock{})

	w := httptest.NewRecorder()
	c := reviewerContext(t, w)
	req, _ := http.NewRequest(http.MethodGet, "/submissions/sub-1/impact", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}

	handler.Impact(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Meta["approximate"])
}
