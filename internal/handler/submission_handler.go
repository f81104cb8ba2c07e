package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/humna-mustafa/pakuni-api/internal/dto"
	"github.com/humna-mustafa/pakuni-api/internal/models"
	appErrors "github.com/humna-mustafa/pakuni-api/pkg/errors"
	"github.com/humna-mustafa/pakuni-api/pkg/response"
)

type submissionService interface {
	Submit(ctx context.Context, req dto.CreateSubmissionRequest, userID *string) (*dto.DecisionResponse, error)
	Get(ctx context.Context, id string) (*models.DataSubmission, error)
	List(ctx context.Context, query dto.SubmissionQuery) ([]models.DataSubmission, error)
	PendingIDs(ctx context.Context) ([]string, error)
	Impact(ctx context.Context, id string) (*models.ImpactEstimate, error)
}

type reviewService interface {
	Claim(ctx context.Context, id, reviewerID string) (*models.DataSubmission, error)
	Review(ctx context.Context, id string, req dto.ReviewSubmissionRequest, reviewerID string) (*dto.ReviewResult, error)
	ReviewBulk(ctx context.Context, req dto.BulkReviewRequest, reviewerID string) (*dto.BulkReviewResult, error)
}

// SubmissionHandler exposes REST endpoints for the correction pipeline.
type SubmissionHandler struct {
	submissions submissionService
	reviews     reviewService
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(submissions submissionService, reviews reviewService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, reviews: reviews}
}

// Create godoc
// @Summary Submit a data correction
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubmissionRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Create(c *gin.Context) {
	var req dto.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid submission payload"))
		return
	}
	var userID *string
	if claims := claimsFromContext(c); claims != nil {
		userID = &claims.UserID
	}
	decision, err := h.submissions.Submit(c.Request.Context(), req, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, decision, nil)
}

// List godoc
// @Summary List submissions for the review queue
// @Tags Submissions
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param type query string false "Submission type"
// @Param priority query string false "Priority"
// @Param sort query string false "priority|date|trust"
// @Success 200 {object} response.Envelope
// @Router /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	query := dto.SubmissionQuery{
		Sort:   models.SubmissionSort(strings.ToLower(c.DefaultQuery("sort", string(models.SortByDate)))),
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}
	if rawType := c.Query("type"); rawType != "" {
		query.Type = models.SubmissionType(strings.ToUpper(rawType))
	}
	if rawPriority := c.Query("priority"); rawPriority != "" {
		query.Priority = models.SubmissionPriority(strings.ToUpper(rawPriority))
	}
	if rawEntity := c.Query("entityType"); rawEntity != "" {
		query.EntityType = models.EntityType(strings.ToUpper(rawEntity))
	}
	if rawStatus := c.Query("status"); rawStatus != "" {
		parts := strings.Split(rawStatus, ",")
		statuses := make([]models.SubmissionStatus, 0, len(parts))
		for _, part := range parts {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			statuses = append(statuses, models.SubmissionStatus(part))
		}
		query.Status = statuses
	}
	submissions, err := h.submissions.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, nil)
}

// Get godoc
// @Summary Get submission detail
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	submission, err := h.submissions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// PendingIDs godoc
// @Summary List ids of pending submissions
// @Tags Submissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /submissions/pending-ids [get]
func (h *SubmissionHandler) PendingIDs(c *gin.Context) {
	ids, err := h.submissions.PendingIDs(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ids, nil)
}

// Impact godoc
// @Summary Estimate the records affected by a submission
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/impact [get]
func (h *SubmissionHandler) Impact(c *gin.Context) {
	estimate, err := h.submissions.Impact(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, estimate, nil, map[string]interface{}{
		"approximate": true,
	})
}

// Claim godoc
// @Summary Claim a pending submission for review
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/claim [post]
func (h *SubmissionHandler) Claim(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	submission, err := h.reviews.Claim(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// Review godoc
// @Summary Review a submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body dto.ReviewSubmissionRequest true "Review decision"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/review [post]
func (h *SubmissionHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ReviewSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid review payload"))
		return
	}
	req.Action = dto.ReviewAction(strings.ToUpper(string(req.Action)))
	result, err := h.reviews.Review(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ReviewBulk godoc
// @Summary Review several submissions with one decision
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body dto.BulkReviewRequest true "Bulk decision"
// @Success 200 {object} response.Envelope
// @Router /submissions/bulk-review [post]
func (h *SubmissionHandler) ReviewBulk(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.BulkReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid bulk review payload"))
		return
	}
	req.Action = dto.ReviewAction(strings.ToUpper(string(req.Action)))
	result, err := h.reviews.ReviewBulk(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
