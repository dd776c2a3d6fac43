package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/logger"
	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/platform"
	"github.com/fenxiao-next/internal/queue"
	"github.com/fenxiao-next/internal/repository"

	"gorm.io/gorm"
)

// DiscountSyncClient 外部折扣同步接口
type DiscountSyncClient interface {
	CreateDiscount(ctx context.Context, in platform.DiscountInput) (*platform.Discount, error)
	UpdateDiscount(ctx context.Context, discountID string, in platform.DiscountInput) (*platform.Discount, error)
	SyncTargeting(ctx context.Context, discountID string, payload platform.TargetingPayload) error
}

// ProductPriceResolver 商品当前售价解析接口
type ProductPriceResolver interface {
	ResolvePrices(ctx context.Context, externalIDs []string) (map[string]models.Money, error)
}

// PricingRuleService 定价规则服务
// 保存与同步是两个边界分明的步骤：本地保存成功后远端同步失败，
// 不回滚本地数据，只记录同步状态并通过 SaveOutcome.SyncErr 上报。
type PricingRuleService struct {
	repo     repository.PricingRuleRepository
	bindings repository.SegmentBindingRepository
	sync     DiscountSyncClient
	prices   ProductPriceResolver
	queue    *queue.Client
}

// NewPricingRuleService 创建定价规则服务
func NewPricingRuleService(
	repo repository.PricingRuleRepository,
	bindings repository.SegmentBindingRepository,
	syncClient DiscountSyncClient,
	prices ProductPriceResolver,
	queueClient *queue.Client,
) *PricingRuleService {
	return &PricingRuleService{
		repo:     repo,
		bindings: bindings,
		sync:     syncClient,
		prices:   prices,
		queue:    queueClient,
	}
}

// SaveOutcome 保存结果
// Rule 为已落库的规则；SyncErr 非空表示保存成功但远端同步失败（或待重试）。
type SaveOutcome struct {
	Rule         *models.PricingRule
	Warnings     []PriceCeilingWarning
	Diff         *SelectionDiff
	SyncErr      error
	SessionState string
}

// Create 创建定价规则
// 需要外部折扣的规则在同一事务内完成本地建档与远端折扣创建：
// 远端创建失败则整体回滚，调用方不可能观察到「创建成功但缺少外部ID」。
func (s *PricingRuleService) Create(ctx context.Context, draft RuleDraft) (*SaveOutcome, error) {
	session := NewEditSession()
	advanceSession(session, SessionStateValidating)
	normalizeDraft(&draft)
	prices := s.lookupPrices(ctx, draft)
	result := ValidateRuleDraft(draft, prices)
	if !result.Valid() {
		advanceSession(session, SessionStateDraft)
		return nil, &ValidationError{Issues: result.Errors}
	}
	if draft.ExternalDiscountID != "" {
		return nil, ErrRuleExternalIDImmutable
	}

	advanceSession(session, SessionStateSaving)
	rule := buildRuleFromDraft(draft)
	if !requiresExternalDiscount(draft) {
		if err := s.repo.Create(rule); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRuleCreateFailed, err)
		}
		// 占位草稿没有远端资源，保存落库即完成本轮会话
		advanceSession(session, SessionStateSynced)
		return &SaveOutcome{Rule: rule, Warnings: result.Warnings, SessionState: session.State()}, nil
	}

	err := s.repo.Transaction(func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.Create(rule); err != nil {
			return fmt.Errorf("%w: %v", ErrRuleCreateFailed, err)
		}
		discount, err := s.sync.CreateDiscount(ctx, buildDiscountInput(rule))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDiscountCreateFailed, err)
		}
		rule.ExternalDiscountID = discount.ID
		if err := txRepo.Update(rule); err != nil {
			return fmt.Errorf("%w: %v", ErrRuleCreateFailed, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome := &SaveOutcome{Rule: rule, Warnings: result.Warnings}
	outcome.SyncErr = s.syncTargeting(ctx, rule)
	outcome.SessionState = settleSession(session, outcome.SyncErr)
	return outcome, nil
}

// Update 更新定价规则
// external_discount_id 不可变：草稿试图改写已存在的外部ID时拒绝保存。
func (s *PricingRuleService) Update(ctx context.Context, id uint, draft RuleDraft) (*SaveOutcome, error) {
	if id == 0 {
		return nil, ErrRuleInvalid
	}
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrRuleNotFound
	}
	if draft.ExternalDiscountID != "" && draft.ExternalDiscountID != existing.ExternalDiscountID {
		return nil, ErrRuleExternalIDImmutable
	}

	session := NewEditSession()
	advanceSession(session, SessionStateValidating)
	normalizeDraft(&draft)
	prices := s.lookupPrices(ctx, draft)
	result := ValidateRuleDraft(draft, prices)
	if !result.Valid() {
		advanceSession(session, SessionStateDraft)
		return nil, &ValidationError{Issues: result.Errors}
	}

	advanceSession(session, SessionStateSaving)
	diff := DiffProductSelections(existing.SpecificProducts, draft.SpecificProducts)
	applyDraft(existing, draft)

	if existing.HasExternalDiscount() {
		if err := s.repo.Update(existing); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRuleUpdateFailed, err)
		}
		if _, err := s.sync.UpdateDiscount(ctx, existing.ExternalDiscountID, buildDiscountInput(existing)); err != nil {
			outcome := &SaveOutcome{Rule: existing, Warnings: result.Warnings, Diff: &diff}
			outcome.SyncErr = s.recordSyncFailure(ctx, existing, err)
			outcome.SessionState = settleSession(session, outcome.SyncErr)
			return outcome, nil
		}
	} else if requiresExternalDiscount(draft) {
		// 此前是占位草稿，本次更新开始需要远端折扣：补建并落ID
		err := s.repo.Transaction(func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)
			if err := txRepo.Update(existing); err != nil {
				return fmt.Errorf("%w: %v", ErrRuleUpdateFailed, err)
			}
			discount, err := s.sync.CreateDiscount(ctx, buildDiscountInput(existing))
			if err != nil {
				return fmt.Errorf("%w: %v", ErrDiscountCreateFailed, err)
			}
			existing.ExternalDiscountID = discount.ID
			return txRepo.Update(existing)
		})
		if err != nil {
			return nil, err
		}
	} else {
		if err := s.repo.Update(existing); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRuleUpdateFailed, err)
		}
		advanceSession(session, SessionStateSynced)
		return &SaveOutcome{Rule: existing, Warnings: result.Warnings, Diff: &diff, SessionState: session.State()}, nil
	}

	outcome := &SaveOutcome{Rule: existing, Warnings: result.Warnings, Diff: &diff}
	outcome.SyncErr = s.syncTargeting(ctx, existing)
	outcome.SessionState = settleSession(session, outcome.SyncErr)
	return outcome, nil
}

// UpdateProducts 替换规则的指定商品集合并触发全量定向同步
func (s *PricingRuleService) UpdateProducts(ctx context.Context, id uint, products models.ProductSelectionList) (*SaveOutcome, error) {
	if id == 0 {
		return nil, ErrRuleInvalid
	}
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrRuleNotFound
	}
	if len(products) == 0 {
		return nil, &ValidationError{Issues: []ValidationIssue{
			{Field: "specific_products", Message: "指定商品不能为空"},
		}}
	}

	diff := DiffProductSelections(existing.SpecificProducts, products)
	existing.ApplyToProducts = constants.ProductConditionSpecific
	existing.SpecificProducts = products
	if err := s.repo.Update(existing); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuleUpdateFailed, err)
	}

	outcome := &SaveOutcome{Rule: existing, Diff: &diff}
	if existing.HasExternalDiscount() {
		outcome.SyncErr = s.syncTargeting(ctx, existing)
	}
	return outcome, nil
}

// Get 获取规则详情
func (s *PricingRuleService) Get(id uint) (*models.PricingRule, error) {
	if id == 0 {
		return nil, ErrRuleInvalid
	}
	rule, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrRuleNotFound
	}
	return rule, nil
}

// List 获取规则列表
func (s *PricingRuleService) List(filter repository.PricingRuleListFilter) ([]models.PricingRule, int64, error) {
	return s.repo.List(filter)
}

// Delete 删除规则
// 仅删除本地记录与分组绑定镜像；外部折扣资源不在此处删除。
func (s *PricingRuleService) Delete(id uint) error {
	if id == 0 {
		return ErrRuleInvalid
	}
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrRuleNotFound
	}
	return s.repo.Transaction(func(tx *gorm.DB) error {
		if existing.HasExternalDiscount() {
			if err := s.bindings.WithTx(tx).DeleteByDiscount(existing.ExternalDiscountID); err != nil {
				return fmt.Errorf("%w: %v", ErrRuleDeleteFailed, err)
			}
		}
		if err := s.repo.WithTx(tx).Delete(id); err != nil {
			return fmt.Errorf("%w: %v", ErrRuleDeleteFailed, err)
		}
		return nil
	})
}

// ResyncTargeting 以当前规则内容重放定向同步（幂等，可反复执行）
func (s *PricingRuleService) ResyncTargeting(ctx context.Context, id uint) error {
	rule, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if rule == nil {
		return ErrRuleNotFound
	}
	if !rule.HasExternalDiscount() {
		return ErrSegmentPrecondition
	}
	return s.syncTargeting(ctx, rule)
}

// syncTargeting 推送全量定向集合并记录同步状态
func (s *PricingRuleService) syncTargeting(ctx context.Context, rule *models.PricingRule) error {
	if err := s.sync.SyncTargeting(ctx, rule.ExternalDiscountID, BuildTargetingPayload(rule)); err != nil {
		return s.recordSyncFailure(ctx, rule, err)
	}
	now := time.Now()
	rule.SyncStatus = constants.SyncStatusSynced
	rule.LastSyncError = ""
	rule.LastSyncedAt = &now
	if err := s.repo.UpdateSyncState(rule.ID, constants.SyncStatusSynced, "", &now); err != nil {
		logger.Errorw("sync_state_update_failed", "rule_id", rule.ID, "error", err)
	}
	return nil
}

// recordSyncFailure 记录同步失败并分类上报
// 远端资源不存在 → needs_relink（需人工重新关联，本引擎不自动重建）；
// 远端拒绝 → sync_failed（载荷问题，重试同一载荷无意义）；
// 网络类失败 → sync_failed 并入队重试（全量替换幂等，可安全重放）。
func (s *PricingRuleService) recordSyncFailure(ctx context.Context, rule *models.PricingRule, cause error) error {
	status := constants.SyncStatusSyncFailed
	reported := fmt.Errorf("%w: %v", ErrRuleSyncFailed, cause)
	switch {
	case errors.Is(cause, platform.ErrNotFound):
		status = constants.SyncStatusNeedsRelink
		reported = ErrRuleNeedsRelink
	case errors.Is(cause, platform.ErrRejected):
	default:
		if err := s.queue.EnqueueTargetingSync(queue.TargetingSyncPayload{RuleID: rule.ID}); err != nil {
			logger.Errorw("targeting_sync_enqueue_failed", "rule_id", rule.ID, "error", err)
		}
	}
	rule.SyncStatus = status
	rule.LastSyncError = cause.Error()
	if err := s.repo.UpdateSyncState(rule.ID, status, cause.Error(), nil); err != nil {
		logger.Errorw("sync_state_update_failed", "rule_id", rule.ID, "error", err)
	}
	logger.Warnw("targeting_sync_failed",
		"rule_id", rule.ID,
		"external_discount_id", rule.ExternalDiscountID,
		"status", status,
		"error", cause,
	)
	return reported
}

// advanceSession 按保存流程推进编辑会话
// 迁移表覆盖保存流程的全部路径，被拒绝说明流程编码有误，记错误日志。
func advanceSession(session *EditSession, to string) {
	if err := session.Transition(to); err != nil {
		logger.Errorw("edit_session_transition_rejected", "error", err)
	}
}

// settleSession 以同步结果收束会话并返回终态
func settleSession(session *EditSession, syncErr error) string {
	if syncErr != nil {
		advanceSession(session, SessionStateSyncFailed)
	} else {
		advanceSession(session, SessionStateSynced)
	}
	return session.State()
}

// lookupPrices 为 new_price 草稿取商品当前售价；目录不可用时跳过提示
func (s *PricingRuleService) lookupPrices(ctx context.Context, draft RuleDraft) map[string]models.Money {
	if draft.PriceType != constants.PriceTypeNewPrice || len(draft.SpecificProducts) == 0 || s.prices == nil {
		return nil
	}
	ids := make([]string, 0, len(draft.SpecificProducts))
	for _, p := range draft.SpecificProducts {
		ids = append(ids, p.ExternalID)
	}
	prices, err := s.prices.ResolvePrices(ctx, ids)
	if err != nil {
		logger.Warnw("price_lookup_failed", "error", err)
		return nil
	}
	return prices
}

// BuildTargetingPayload 由规则构造全量定向载荷
// 载荷始终携带完整期望集合：这是远端全量替换契约的边界保障，
// 任何调用方都无法只发送增量。
func BuildTargetingPayload(rule *models.PricingRule) platform.TargetingPayload {
	payload := platform.TargetingPayload{
		Customers: platform.CustomerTargeting{Mode: rule.ApplyToCustomers},
		Products:  platform.ProductTargeting{Mode: rule.ApplyToProducts},
	}
	switch rule.ApplyToCustomers {
	case constants.CustomerConditionSpecific:
		ids := make([]string, 0, len(rule.SpecificCustomers))
		for _, c := range rule.SpecificCustomers {
			ids = append(ids, c.ExternalID)
		}
		payload.Customers.CustomerIDs = ids
	case constants.CustomerConditionCustomerTags:
		payload.Customers.Tags = rule.CustomerTags
	}
	switch rule.ApplyToProducts {
	case constants.ProductConditionSpecific:
		ids := make([]string, 0, len(rule.SpecificProducts))
		for _, p := range rule.SpecificProducts {
			ids = append(ids, p.ExternalID)
		}
		payload.Products.ProductIDs = ids
	case constants.ProductConditionCollections:
		ids := make([]string, 0, len(rule.Collections))
		for _, c := range rule.Collections {
			ids = append(ids, c.ExternalID)
		}
		payload.Products.CollectionIDs = ids
	case constants.ProductConditionProductTags:
		payload.Products.Tags = rule.ProductTags
	}
	return payload
}

// requiresExternalDiscount 判断草稿是否需要外部折扣资源
// 优惠数值为零的草稿是占位草稿，允许先保存、不建远端资源。
func requiresExternalDiscount(draft RuleDraft) bool {
	return draft.DiscountValue.Decimal.IsPositive()
}

func normalizeDraft(draft *RuleDraft) {
	draft.Name = strings.TrimSpace(draft.Name)
	draft.DiscountTitle = strings.TrimSpace(draft.DiscountTitle)
	if draft.Status == "" {
		draft.Status = constants.RuleStatusActive
	}
	if draft.DiscountTitle == "" {
		draft.DiscountTitle = draft.Name
	}
}

func buildRuleFromDraft(draft RuleDraft) *models.PricingRule {
	return &models.PricingRule{
		Name:              draft.Name,
		Status:            draft.Status,
		DiscountTitle:     draft.DiscountTitle,
		ApplyToCustomers:  draft.ApplyToCustomers,
		CustomerTags:      draft.CustomerTags,
		SpecificCustomers: draft.SpecificCustomers,
		ApplyToProducts:   draft.ApplyToProducts,
		SpecificProducts:  draft.SpecificProducts,
		Collections:       draft.Collections,
		ProductTags:       draft.ProductTags,
		PriceType:         draft.PriceType,
		DiscountValue:     draft.DiscountValue,
		SyncStatus:        constants.SyncStatusDraft,
	}
}

func applyDraft(rule *models.PricingRule, draft RuleDraft) {
	rule.Name = draft.Name
	rule.Status = draft.Status
	rule.DiscountTitle = draft.DiscountTitle
	rule.ApplyToCustomers = draft.ApplyToCustomers
	rule.CustomerTags = draft.CustomerTags
	rule.SpecificCustomers = draft.SpecificCustomers
	rule.ApplyToProducts = draft.ApplyToProducts
	rule.SpecificProducts = draft.SpecificProducts
	rule.Collections = draft.Collections
	rule.ProductTags = draft.ProductTags
	rule.PriceType = draft.PriceType
	rule.DiscountValue = draft.DiscountValue
}

func buildDiscountInput(rule *models.PricingRule) platform.DiscountInput {
	return platform.DiscountInput{
		Title:     rule.DiscountTitle,
		PriceType: rule.PriceType,
		Value:     rule.DiscountValue.String(),
	}
}
