package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/humna-mustafa/pakuni-api/internal/dto"
	appErrors "github.com/humna-mustafa/pakuni-api/pkg/errors"
	"github.com/humna-mustafa/pakuni-api/pkg/response"
)

type ruleService interface {
	List(ctx context.Context) ([]dto.RuleResponse, error)
	Upsert(ctx context.Context, id string, req dto.UpsertRuleRequest, actorID string) (*dto.RuleResponse, error)
	Delete(ctx context.Context, id, actorID string) error
	Toggle(ctx context.Context, id, actorID string) (bool, error)
}

// RuleHandler exposes rule administration endpoints.
type RuleHandler struct {
	service ruleService
}

// NewRuleHandler constructs the handler.
func NewRuleHandler(service ruleService) *RuleHandler {
	return &RuleHandler{service: service}
}

// List godoc
// @Summary List auto-approval rules with lint warnings
// @Tags Rules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rules [get]
func (h *RuleHandler) List(c *gin.Context) {
	rules, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// Upsert godoc
// @Summary Create or replace an auto-approval rule
// @Tags Rules
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Param payload body dto.UpsertRuleRequest true "Rule definition"
// @Success 200 {object} response.Envelope
// @Router /rules/{id} [put]
func (h *RuleHandler) Upsert(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpsertRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid rule payload"))
		return
	}
	rule, err := h.service.Upsert(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// Delete godoc
// @Summary Delete an auto-approval rule
// @Tags Rules
// @Param id path string true "Rule ID"
// @Success 204
// @Router /rules/{id} [delete]
func (h *RuleHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Toggle godoc
// @Summary Toggle a rule's enabled flag
// @Tags Rules
// @Produce json
// @Param id path string true "Rule ID"
// @Success 200 {object} response.Envelope
// @Router /rules/{id}/toggle [post]
func (h *RuleHandler) Toggle(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	enabled, err := h.service.Toggle(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"enabled": enabled}, nil)
}
