package admin

import (
	"errors"
	"strconv"

	"github.com/fenxiao-next/internal/http/response"
	"github.com/fenxiao-next/internal/i18n"
	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/repository"
	"github.com/fenxiao-next/internal/service"

	"github.com/gin-gonic/gin"
)

// PricingRuleRequest 定价规则保存请求
type PricingRuleRequest struct {
	Name               string                         `json:"name" binding:"required"`
	Status             string                         `json:"status"`
	DiscountTitle      string                         `json:"discount_title"`
	ApplyToCustomers   string                         `json:"apply_to_customers" binding:"required"`
	CustomerTags       models.StringArray             `json:"customer_tags"`
	SpecificCustomers  models.CustomerSelectionList   `json:"specific_customers"`
	ApplyToProducts    string                         `json:"apply_to_products" binding:"required"`
	SpecificProducts   models.ProductSelectionList    `json:"specific_products"`
	Collections        models.CollectionSelectionList `json:"collections"`
	ProductTags        models.StringArray             `json:"product_tags"`
	PriceType          string                         `json:"price_type" binding:"required"`
	DiscountValue      models.Money                   `json:"discount_value"`
	ExternalDiscountID string                         `json:"external_discount_id"`
}

func (r PricingRuleRequest) toDraft() service.RuleDraft {
	return service.RuleDraft{
		Name:               r.Name,
		Status:             r.Status,
		DiscountTitle:      r.DiscountTitle,
		ApplyToCustomers:   r.ApplyToCustomers,
		CustomerTags:       r.CustomerTags,
		SpecificCustomers:  r.SpecificCustomers,
		ApplyToProducts:    r.ApplyToProducts,
		SpecificProducts:   r.SpecificProducts,
		Collections:        r.Collections,
		ProductTags:        r.ProductTags,
		PriceType:          r.PriceType,
		DiscountValue:      r.DiscountValue,
		ExternalDiscountID: r.ExternalDiscountID,
	}
}

// UpdateRuleProductsRequest 替换规则商品集合请求
type UpdateRuleProductsRequest struct {
	Products models.ProductSelectionList `json:"products" binding:"required"`
}

// CreatePricingRule 创建定价规则
func (h *Handler) CreatePricingRule(c *gin.Context) {
	var req PricingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	outcome, err := h.PricingRuleService.Create(c.Request.Context(), req.toDraft())
	if err != nil {
		respondRuleSaveError(c, err, "error.rule_create_failed")
		return
	}
	response.Success(c, buildSaveOutcomePayload(c, outcome))
}

// UpdatePricingRule 更新定价规则
func (h *Handler) UpdatePricingRule(c *gin.Context) {
	ruleID, ok := parseRuleID(c)
	if !ok {
		return
	}
	var req PricingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	outcome, err := h.PricingRuleService.Update(c.Request.Context(), ruleID, req.toDraft())
	if err != nil {
		respondRuleSaveError(c, err, "error.rule_update_failed")
		return
	}
	response.Success(c, buildSaveOutcomePayload(c, outcome))
}

// UpdatePricingRuleProducts 整体替换规则的商品集合
func (h *Handler) UpdatePricingRuleProducts(c *gin.Context) {
	ruleID, ok := parseRuleID(c)
	if !ok {
		return
	}
	var req UpdateRuleProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	outcome, err := h.PricingRuleService.UpdateProducts(c.Request.Context(), ruleID, req.Products)
	if err != nil {
		respondRuleSaveError(c, err, "error.rule_update_failed")
		return
	}
	response.Success(c, buildSaveOutcomePayload(c, outcome))
}

// GetPricingRule 获取定价规则详情
func (h *Handler) GetPricingRule(c *gin.Context) {
	ruleID, ok := parseRuleID(c)
	if !ok {
		return
	}
	rule, err := h.PricingRuleService.Get(ruleID)
	if err != nil {
		if errors.Is(err, service.ErrRuleNotFound) {
			respondError(c, response.CodeNotFound, "error.rule_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.rule_fetch_failed", err)
		return
	}
	response.Success(c, rule)
}

// GetPricingRules 获取定价规则列表
func (h *Handler) GetPricingRules(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	rules, total, err := h.PricingRuleService.List(repository.PricingRuleListFilter{
		Status:     c.Query("status"),
		SyncStatus: c.Query("sync_status"),
		Keyword:    c.Query("keyword"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.rule_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rules, response.BuildPagination(page, pageSize, total))
}

// DeletePricingRule 删除定价规则
// 只删除本地规则与分组镜像，远端折扣资源保留。
func (h *Handler) DeletePricingRule(c *gin.Context) {
	ruleID, ok := parseRuleID(c)
	if !ok {
		return
	}
	if err := h.PricingRuleService.Delete(ruleID); err != nil {
		if errors.Is(err, service.ErrRuleNotFound) {
			respondError(c, response.CodeNotFound, "error.rule_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.rule_delete_failed", err)
		return
	}
	response.Success(c, gin.H{
		"deleted": true,
	})
}

// ResyncPricingRule 重放规则的定向同步
func (h *Handler) ResyncPricingRule(c *gin.Context) {
	ruleID, ok := parseRuleID(c)
	if !ok {
		return
	}
	if err := h.PricingRuleService.ResyncTargeting(c.Request.Context(), ruleID); err != nil {
		switch {
		case errors.Is(err, service.ErrRuleNotFound):
			respondError(c, response.CodeNotFound, "error.rule_not_found", nil)
		case errors.Is(err, service.ErrSegmentPrecondition):
			respondError(c, response.CodeBadRequest, "error.segment_precondition", nil)
		case errors.Is(err, service.ErrRuleNeedsRelink):
			respondError(c, response.CodeUpstream, "error.rule_needs_relink", nil)
		default:
			respondError(c, response.CodeUpstream, "error.rule_sync_failed", err)
		}
		return
	}
	response.Success(c, gin.H{
		"synced": true,
	})
}

func parseRuleID(c *gin.Context) (uint, bool) {
	ruleID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || ruleID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return 0, false
	}
	return uint(ruleID), true
}

// respondRuleSaveError 保存类接口的统一错误映射
func respondRuleSaveError(c *gin.Context, err error, fallbackKey string) {
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
	case errors.Is(err, service.ErrRuleExternalIDImmutable):
		respondError(c, response.CodeConflict, "error.rule_external_immutable", nil)
	case errors.Is(err, service.ErrDiscountCreateFailed):
		respondError(c, response.CodeUpstream, "error.discount_create_failed", err)
	default:
		respondError(c, response.CodeInternal, fallbackKey, err)
	}
}

// buildSaveOutcomePayload 构造保存结果响应
// 保存成功但远端同步失败时仍返回成功：规则已落库，sync_error 单独透出。
func buildSaveOutcomePayload(c *gin.Context, outcome *service.SaveOutcome) gin.H {
	data := gin.H{
		"rule":     outcome.Rule,
		"warnings": outcome.Warnings,
	}
	if outcome.SessionState != "" {
		data["session_state"] = outcome.SessionState
	}
	if outcome.Diff != nil {
		data["selection_diff"] = outcome.Diff
	}
	if outcome.SyncErr != nil {
		key := "error.rule_sync_failed"
		if errors.Is(outcome.SyncErr, service.ErrRuleNeedsRelink) {
			key = "error.rule_needs_relink"
		}
		data["sync_error"] = i18n.T(i18n.ResolveLocale(c), key)
	}
	return data
}
