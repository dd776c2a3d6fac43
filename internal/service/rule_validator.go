package service

import (
	"fmt"
	"strings"

	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/models"

	"github.com/shopspring/decimal"
)

// RuleDraft 规则编辑草稿
type RuleDraft struct {
	Name               string
	Status             string
	DiscountTitle      string
	ApplyToCustomers   string
	CustomerTags       models.StringArray
	SpecificCustomers  models.CustomerSelectionList
	ApplyToProducts    string
	SpecificProducts   models.ProductSelectionList
	Collections        models.CollectionSelectionList
	ProductTags        models.StringArray
	PriceType          string
	DiscountValue      models.Money
	ExternalDiscountID string // 仅用于拒绝篡改，不允许通过草稿修改
}

// ValidationIssue 校验失败项（可定位到字段）
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// PriceCeilingWarning 价格上限提示
// 远端折扣机制只能降价不能提价：当 new_price 高于商品当前售价时，
// 结算仍按当前售价收款，页面展示价可能与结算价不一致。提示不阻断保存。
type PriceCeilingWarning struct {
	ProductExternalID string       `json:"product_external_id"`
	ProductTitle      string       `json:"product_title"`
	CurrentPrice      models.Money `json:"current_price"`
	ProposedPrice     models.Money `json:"proposed_price"`
	Message           string       `json:"message"`
}

// ValidationResult 草稿校验结果
type ValidationResult struct {
	Errors   []ValidationIssue     `json:"errors"`
	Warnings []PriceCeilingWarning `json:"warnings"`
}

// Valid 判断是否通过硬校验（警告不阻断）
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// ValidationError 携带字段级校验失败项的错误
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return ErrRuleInvalid.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return strings.Join(parts, "; ")
}

// Unwrap 支持 errors.Is(err, ErrRuleInvalid)
func (e *ValidationError) Unwrap() error {
	return ErrRuleInvalid
}

// ValidateRuleDraft 校验规则草稿
// prices 为已知商品当前售价（外部商品ID → 售价），仅用于 new_price 的上限提示，
// 允许为空（无法取得售价时跳过提示，不作为硬校验失败）。
func ValidateRuleDraft(draft RuleDraft, prices map[string]models.Money) ValidationResult {
	var result ValidationResult

	if strings.TrimSpace(draft.Name) == "" {
		result.Errors = append(result.Errors, ValidationIssue{Field: "name", Message: "名称不能为空"})
	}
	if draft.Status != "" && draft.Status != constants.RuleStatusActive && draft.Status != constants.RuleStatusInactive {
		result.Errors = append(result.Errors, ValidationIssue{Field: "status", Message: "状态不合法"})
	}
	if !constants.IsValidCustomerCondition(draft.ApplyToCustomers) {
		result.Errors = append(result.Errors, ValidationIssue{Field: "apply_to_customers", Message: "客户条件不合法"})
	}
	if !constants.IsValidProductCondition(draft.ApplyToProducts) {
		result.Errors = append(result.Errors, ValidationIssue{Field: "apply_to_products", Message: "商品条件不合法"})
	}
	if !constants.IsValidPriceType(draft.PriceType) {
		result.Errors = append(result.Errors, ValidationIssue{Field: "price_type", Message: "价格类型不合法"})
	}

	if draft.DiscountValue.Decimal.IsNegative() {
		result.Errors = append(result.Errors, ValidationIssue{Field: "discount_value", Message: "优惠数值不能为负"})
	} else if draft.PriceType == constants.PriceTypePercentOff &&
		draft.DiscountValue.Decimal.GreaterThan(decimal.NewFromInt(100)) {
		result.Errors = append(result.Errors, ValidationIssue{Field: "discount_value", Message: "折扣比例不能超过 100"})
	}

	switch draft.ApplyToCustomers {
	case constants.CustomerConditionSpecific:
		if len(draft.SpecificCustomers) == 0 {
			result.Errors = append(result.Errors, ValidationIssue{Field: "specific_customers", Message: "指定客户不能为空"})
		}
	case constants.CustomerConditionCustomerTags:
		if len(draft.CustomerTags) == 0 {
			result.Errors = append(result.Errors, ValidationIssue{Field: "customer_tags", Message: "客户标签不能为空"})
		}
	}
	switch draft.ApplyToProducts {
	case constants.ProductConditionSpecific:
		if len(draft.SpecificProducts) == 0 {
			result.Errors = append(result.Errors, ValidationIssue{Field: "specific_products", Message: "指定商品不能为空"})
		}
	case constants.ProductConditionCollections:
		if len(draft.Collections) == 0 {
			result.Errors = append(result.Errors, ValidationIssue{Field: "collections", Message: "商品系列不能为空"})
		}
	case constants.ProductConditionProductTags:
		if len(draft.ProductTags) == 0 {
			result.Errors = append(result.Errors, ValidationIssue{Field: "product_tags", Message: "商品标签不能为空"})
		}
	}

	result.Warnings = ComputePriceCeilingWarnings(draft, prices)
	return result
}

// ComputePriceCeilingWarnings 计算价格上限提示
// 每次价格类型、优惠数值或选中商品变化后都需重算；条件不再成立时提示自动清除。
func ComputePriceCeilingWarnings(draft RuleDraft, prices map[string]models.Money) []PriceCeilingWarning {
	if draft.PriceType != constants.PriceTypeNewPrice {
		return nil
	}
	var warnings []PriceCeilingWarning
	for _, product := range draft.SpecificProducts {
		current, known := prices[product.ExternalID]
		if !known {
			continue
		}
		if draft.DiscountValue.Decimal.GreaterThan(current.Decimal) {
			warnings = append(warnings, PriceCeilingWarning{
				ProductExternalID: product.ExternalID,
				ProductTitle:      product.Title,
				CurrentPrice:      current,
				ProposedPrice:     draft.DiscountValue,
				Message: fmt.Sprintf("商品「%s」当前售价 %s 低于设定价 %s，结算仍按当前售价收款，页面价格可能与结算价不一致",
					product.Title, current.String(), draft.DiscountValue.String()),
			})
		}
	}
	return warnings
}
