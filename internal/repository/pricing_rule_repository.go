package repository

import (
	"errors"
	"time"

	"github.com/fenxiao-next/internal/models"

	"gorm.io/gorm"
)

// PricingRuleRepository 定价规则数据访问接口
type PricingRuleRepository interface {
	GetByID(id uint) (*models.PricingRule, error)
	GetByExternalDiscountID(externalID string) (*models.PricingRule, error)
	Create(rule *models.PricingRule) error
	Update(rule *models.PricingRule) error
	UpdateSyncState(id uint, status, syncError string, syncedAt *time.Time) error
	Delete(id uint) error
	List(filter PricingRuleListFilter) ([]models.PricingRule, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormPricingRuleRepository
}

// PricingRuleListFilter 定价规则列表筛选
type PricingRuleListFilter struct {
	Status     string
	SyncStatus string
	Keyword    string
	Page       int
	PageSize   int
}

// GormPricingRuleRepository GORM 实现
type GormPricingRuleRepository struct {
	db *gorm.DB
}

// NewPricingRuleRepository 创建定价规则仓库
func NewPricingRuleRepository(db *gorm.DB) *GormPricingRuleRepository {
	return &GormPricingRuleRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPricingRuleRepository) WithTx(tx *gorm.DB) *GormPricingRuleRepository {
	if tx == nil {
		return r
	}
	return &GormPricingRuleRepository{db: tx}
}

// Transaction 执行事务
func (r *GormPricingRuleRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByID 根据ID获取定价规则
func (r *GormPricingRuleRepository) GetByID(id uint) (*models.PricingRule, error) {
	var rule models.PricingRule
	if err := r.db.First(&rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// GetByExternalDiscountID 根据外部折扣ID获取定价规则
func (r *GormPricingRuleRepository) GetByExternalDiscountID(externalID string) (*models.PricingRule, error) {
	if externalID == "" {
		return nil, nil
	}
	var rule models.PricingRule
	if err := r.db.Where("external_discount_id = ?", externalID).First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// Create 创建定价规则
func (r *GormPricingRuleRepository) Create(rule *models.PricingRule) error {
	return r.db.Create(rule).Error
}

// Update 更新定价规则
func (r *GormPricingRuleRepository) Update(rule *models.PricingRule) error {
	return r.db.Save(rule).Error
}

// UpdateSyncState 更新同步状态字段
func (r *GormPricingRuleRepository) UpdateSyncState(id uint, status, syncError string, syncedAt *time.Time) error {
	updates := map[string]interface{}{
		"sync_status":     status,
		"last_sync_error": syncError,
	}
	if syncedAt != nil {
		updates["last_synced_at"] = *syncedAt
	}
	return r.db.Model(&models.PricingRule{}).Where("id = ?", id).Updates(updates).Error
}

// Delete 删除定价规则
func (r *GormPricingRuleRepository) Delete(id uint) error {
	return r.db.Delete(&models.PricingRule{}, id).Error
}

// List 获取定价规则列表
func (r *GormPricingRuleRepository) List(filter PricingRuleListFilter) ([]models.PricingRule, int64, error) {
	var rules []models.PricingRule
	query := r.db.Model(&models.PricingRule{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.SyncStatus != "" {
		query = query.Where("sync_status = ?", filter.SyncStatus)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where("name LIKE ? OR discount_title LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("id desc").Find(&rules).Error; err != nil {
		return nil, 0, err
	}
	return rules, total, nil
}
