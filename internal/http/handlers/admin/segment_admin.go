package admin

import (
	"errors"
	"strings"

	"github.com/fenxiao-next/internal/http/response"
	"github.com/fenxiao-next/internal/i18n"
	"github.com/fenxiao-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAvailableSegments 获取可分配的平台客户分组
func (h *Handler) GetAvailableSegments(c *gin.Context) {
	ruleID, ok := parseRuleID(c)
	if !ok {
		return
	}
	segments, err := h.SegmentService.AvailableSegments(c.Request.Context(), ruleID, strings.TrimSpace(c.Query("q")))
	if err != nil {
		respondSegmentError(c, err, "error.segment_assign_failed")
		return
	}
	response.Success(c, gin.H{
		"segments": segments,
	})
}

// GetAssignedSegments 获取规则折扣当前已分配的分组
// 平台侧为权威数据；平台不可用时回退本地镜像并打 stale 标。
func (h *Handler) GetAssignedSegments(c *gin.Context) {
	ruleID, ok := parseRuleID(c)
	if !ok {
		return
	}
	assignments, stale, err := h.SegmentService.ListAssigned(c.Request.Context(), ruleID)
	if err != nil {
		respondSegmentError(c, err, "error.segment_assign_failed")
		return
	}
	response.Success(c, gin.H{
		"assignments": assignments,
		"stale":       stale,
	})
}

// AssignSegment 为规则折扣分配客户分组
func (h *Handler) AssignSegment(c *gin.Context) {
	ruleID, ok := parseRuleID(c)
	if !ok {
		return
	}
	var req service.AssignSegmentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	assignment, err := h.SegmentService.Assign(c.Request.Context(), ruleID, req)
	if err != nil {
		respondSegmentError(c, err, "error.segment_assign_failed")
		return
	}
	response.Success(c, assignment)
}

// RemoveSegment 解除规则折扣与客户分组的绑定
func (h *Handler) RemoveSegment(c *gin.Context) {
	ruleID, ok := parseRuleID(c)
	if !ok {
		return
	}
	segmentID := strings.TrimSpace(c.Param("segment_id"))
	if segmentID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	if err := h.SegmentService.Remove(c.Request.Context(), ruleID, segmentID); err != nil {
		respondSegmentError(c, err, "error.segment_remove_failed")
		return
	}
	response.Success(c, gin.H{
		"removed": true,
	})
}

// respondSegmentError 分组类接口的统一错误映射
func respondSegmentError(c *gin.Context, err error, fallbackKey string) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		locale := i18n.ResolveLocale(c)
		response.ErrorWithData(c, response.CodeBadRequest, i18n.T(locale, "error.rule_invalid"), gin.H{
			"errors": validationErr.Issues,
		})
	case errors.Is(err, service.ErrRuleNotFound):
		respondError(c, response.CodeNotFound, "error.rule_not_found", nil)
	case errors.Is(err, service.ErrRuleInvalid):
		respondError(c, response.CodeBadRequest, "error.rule_invalid", nil)
	case errors.Is(err, service.ErrSegmentPrecondition):
		respondError(c, response.CodeBadRequest, "error.segment_precondition", nil)
	case errors.Is(err, service.ErrSegmentNotFound):
		respondError(c, response.CodeNotFound, "error.segment_not_found", nil)
	case errors.Is(err, service.ErrRuleNeedsRelink):
		respondError(c, response.CodeUpstream, "error.rule_needs_relink", nil)
	case errors.Is(err, service.ErrCatalogUnavailable):
		respondError(c, response.CodeUpstream, "error.catalog_unavailable", err)
	default:
		respondError(c, response.CodeUpstream, fallbackKey, err)
	}
}
