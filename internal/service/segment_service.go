package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/logger"
	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/platform"
	"github.com/fenxiao-next/internal/repository"

	"github.com/shopspring/decimal"
)

// SegmentClient 平台分组操作接口
type SegmentClient interface {
	ListSegments(ctx context.Context, query string) ([]platform.Segment, error)
	ListAssignedSegments(ctx context.Context, discountID string) ([]platform.SegmentAssignment, error)
	AssignSegment(ctx context.Context, discountID string, in platform.SegmentAssignment) (*platform.SegmentAssignment, error)
	RemoveSegment(ctx context.Context, discountID, segmentID string) error
}

// SegmentService 分组分配服务
// 每个 (外部折扣, 分组) 对只有 未分配 → 已分配 → 未分配 两种迁移；
// 分配前置条件是规则已绑定外部折扣，未绑定时直接拒绝、不发起网络请求。
type SegmentService struct {
	rules    repository.PricingRuleRepository
	bindings repository.SegmentBindingRepository
	client   SegmentClient
}

// NewSegmentService 创建分组分配服务
func NewSegmentService(
	rules repository.PricingRuleRepository,
	bindings repository.SegmentBindingRepository,
	client SegmentClient,
) *SegmentService {
	return &SegmentService{rules: rules, bindings: bindings, client: client}
}

// AssignSegmentInput 分配分组输入
type AssignSegmentInput struct {
	SegmentID        string       `json:"segment_id"`
	SegmentName      string       `json:"segment_name"`
	MinimumType      string       `json:"minimum_type"`
	MinimumQuantity  int          `json:"minimum_quantity"`
	MinimumAmount    models.Money `json:"minimum_amount"`
	MinimumCurrency  string       `json:"minimum_currency"`
	CombinesProduct  bool         `json:"combines_product"`
	CombinesOrder    bool         `json:"combines_order"`
	CombinesShipping bool         `json:"combines_shipping"`
}

// AvailableSegments 获取可分配的平台分组
func (s *SegmentService) AvailableSegments(ctx context.Context, ruleID uint, query string) ([]platform.Segment, error) {
	if _, err := s.requireLinkedRule(ruleID); err != nil {
		return nil, err
	}
	segments, err := s.client.ListSegments(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return segments, nil
}

// ListAssigned 获取规则当前已分配的分组
// 平台侧为权威数据源，成功后顺带重建本地镜像；
// 平台不可用时回退到镜像（stale 返回 true）。
func (s *SegmentService) ListAssigned(ctx context.Context, ruleID uint) ([]platform.SegmentAssignment, bool, error) {
	rule, err := s.requireLinkedRule(ruleID)
	if err != nil {
		return nil, false, err
	}
	assignments, err := s.client.ListAssignedSegments(ctx, rule.ExternalDiscountID)
	if err != nil {
		mirrored, mirrorErr := s.bindings.ListByDiscount(rule.ExternalDiscountID)
		if mirrorErr != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
		}
		logger.Warnw("assigned_segments_fallback_to_mirror",
			"rule_id", ruleID,
			"external_discount_id", rule.ExternalDiscountID,
			"error", err,
		)
		return bindingsToAssignments(mirrored), true, nil
	}
	if err := s.bindings.ReplaceByDiscount(rule.ExternalDiscountID, assignmentsToBindings(rule.ExternalDiscountID, assignments)); err != nil {
		logger.Warnw("segment_mirror_rebuild_failed", "rule_id", ruleID, "error", err)
	}
	return assignments, false, nil
}

// Assign 将分组分配给规则的外部折扣
func (s *SegmentService) Assign(ctx context.Context, ruleID uint, input AssignSegmentInput) (*platform.SegmentAssignment, error) {
	rule, err := s.requireLinkedRule(ruleID)
	if err != nil {
		return nil, err
	}
	if err := validateAssignInput(input); err != nil {
		return nil, err
	}

	assignment := platform.SegmentAssignment{
		SegmentID:   input.SegmentID,
		SegmentName: input.SegmentName,
		Minimum:     buildMinimum(input),
		Combines: platform.CombinesWith{
			Product:  input.CombinesProduct,
			Order:    input.CombinesOrder,
			Shipping: input.CombinesShipping,
		},
	}
	created, err := s.client.AssignSegment(ctx, rule.ExternalDiscountID, assignment)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return nil, ErrRuleNeedsRelink
		}
		return nil, fmt.Errorf("%w: %v", ErrSegmentAssignFailed, err)
	}

	binding := assignmentToBinding(rule.ExternalDiscountID, *created)
	if err := s.bindings.Upsert(&binding); err != nil {
		logger.Warnw("segment_mirror_upsert_failed", "rule_id", ruleID, "segment_id", created.SegmentID, "error", err)
	}
	return created, nil
}

// Remove 解除分组分配
// 仅解绑该分组：不删除折扣资源，也不影响其它分组绑定。
// 平台侧已不存在该绑定时视为已解除。
func (s *SegmentService) Remove(ctx context.Context, ruleID uint, segmentID string) error {
	rule, err := s.requireLinkedRule(ruleID)
	if err != nil {
		return err
	}
	if segmentID == "" {
		return ErrSegmentNotFound
	}
	if err := s.client.RemoveSegment(ctx, rule.ExternalDiscountID, segmentID); err != nil {
		if !errors.Is(err, platform.ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrSegmentRemoveFailed, err)
		}
	}
	if err := s.bindings.DeleteByDiscountAndSegment(rule.ExternalDiscountID, segmentID); err != nil {
		logger.Warnw("segment_mirror_delete_failed", "rule_id", ruleID, "segment_id", segmentID, "error", err)
	}
	return nil
}

// requireLinkedRule 取规则并要求已绑定外部折扣
func (s *SegmentService) requireLinkedRule(ruleID uint) (*models.PricingRule, error) {
	if ruleID == 0 {
		return nil, ErrRuleInvalid
	}
	rule, err := s.rules.GetByID(ruleID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrRuleNotFound
	}
	if !rule.HasExternalDiscount() {
		return nil, ErrSegmentPrecondition
	}
	return rule, nil
}

func validateAssignInput(input AssignSegmentInput) error {
	if input.SegmentID == "" {
		return &ValidationError{Issues: []ValidationIssue{{Field: "segment_id", Message: "分组ID不能为空"}}}
	}
	switch input.MinimumType {
	case "", constants.MinimumTypeNone:
	case constants.MinimumTypeQuantity:
		if input.MinimumQuantity <= 0 {
			return &ValidationError{Issues: []ValidationIssue{{Field: "minimum_quantity", Message: "最低件数必须大于 0"}}}
		}
	case constants.MinimumTypeSubtotal:
		if input.MinimumAmount.Decimal.LessThanOrEqual(decimal.Zero) {
			return &ValidationError{Issues: []ValidationIssue{{Field: "minimum_amount", Message: "最低消费金额必须大于 0"}}}
		}
	default:
		return &ValidationError{Issues: []ValidationIssue{{Field: "minimum_type", Message: "门槛类型不合法"}}}
	}
	return nil
}

func buildMinimum(input AssignSegmentInput) platform.MinimumRequirement {
	minimum := platform.MinimumRequirement{Type: input.MinimumType}
	if minimum.Type == "" {
		minimum.Type = constants.MinimumTypeNone
	}
	switch minimum.Type {
	case constants.MinimumTypeQuantity:
		minimum.Quantity = input.MinimumQuantity
	case constants.MinimumTypeSubtotal:
		minimum.Amount = input.MinimumAmount.String()
		minimum.Currency = input.MinimumCurrency
	}
	return minimum
}

func assignmentToBinding(discountID string, assignment platform.SegmentAssignment) models.SegmentBinding {
	binding := models.SegmentBinding{
		ExternalDiscountID: discountID,
		SegmentID:          assignment.SegmentID,
		SegmentName:        assignment.SegmentName,
		MinimumType:        assignment.Minimum.Type,
		MinimumQuantity:    assignment.Minimum.Quantity,
		MinimumCurrency:    assignment.Minimum.Currency,
		CombinesProduct:    assignment.Combines.Product,
		CombinesOrder:      assignment.Combines.Order,
		CombinesShipping:   assignment.Combines.Shipping,
	}
	if binding.MinimumType == "" {
		binding.MinimumType = constants.MinimumTypeNone
	}
	if assignment.Minimum.Amount != "" {
		if amount, err := decimal.NewFromString(assignment.Minimum.Amount); err == nil {
			binding.MinimumAmount = models.NewMoneyFromDecimal(amount)
		}
	}
	return binding
}

func assignmentsToBindings(discountID string, assignments []platform.SegmentAssignment) []models.SegmentBinding {
	bindings := make([]models.SegmentBinding, 0, len(assignments))
	for _, a := range assignments {
		bindings = append(bindings, assignmentToBinding(discountID, a))
	}
	return bindings
}

func bindingsToAssignments(bindings []models.SegmentBinding) []platform.SegmentAssignment {
	assignments := make([]platform.SegmentAssignment, 0, len(bindings))
	for _, b := range bindings {
		assignment := platform.SegmentAssignment{
			SegmentID:   b.SegmentID,
			SegmentName: b.SegmentName,
			Minimum:     platform.MinimumRequirement{Type: b.MinimumType},
			Combines: platform.CombinesWith{
				Product:  b.CombinesProduct,
				Order:    b.CombinesOrder,
				Shipping: b.CombinesShipping,
			},
		}
		switch b.MinimumType {
		case constants.MinimumTypeQuantity:
			assignment.Minimum.Quantity = b.MinimumQuantity
		case constants.MinimumTypeSubtotal:
			assignment.Minimum.Amount = b.MinimumAmount.String()
			assignment.Minimum.Currency = b.MinimumCurrency
		}
		assignments = append(assignments, assignment)
	}
	return assignments
}
