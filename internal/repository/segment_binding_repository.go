package repository

import (
	"errors"

	"github.com/fenxiao-next/internal/models"

	"gorm.io/gorm"
)

// SegmentBindingRepository 分组绑定镜像数据访问接口
type SegmentBindingRepository interface {
	GetByDiscountAndSegment(externalDiscountID, segmentID string) (*models.SegmentBinding, error)
	ListByDiscount(externalDiscountID string) ([]models.SegmentBinding, error)
	Upsert(binding *models.SegmentBinding) error
	DeleteByDiscountAndSegment(externalDiscountID, segmentID string) error
	DeleteByDiscount(externalDiscountID string) error
	ReplaceByDiscount(externalDiscountID string, bindings []models.SegmentBinding) error
	WithTx(tx *gorm.DB) *GormSegmentBindingRepository
}

// GormSegmentBindingRepository GORM 实现
type GormSegmentBindingRepository struct {
	db *gorm.DB
}

// NewSegmentBindingRepository 创建分组绑定仓库
func NewSegmentBindingRepository(db *gorm.DB) *GormSegmentBindingRepository {
	return &GormSegmentBindingRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSegmentBindingRepository) WithTx(tx *gorm.DB) *GormSegmentBindingRepository {
	if tx == nil {
		return r
	}
	return &GormSegmentBindingRepository{db: tx}
}

// GetByDiscountAndSegment 根据折扣与分组获取绑定
func (r *GormSegmentBindingRepository) GetByDiscountAndSegment(externalDiscountID, segmentID string) (*models.SegmentBinding, error) {
	var binding models.SegmentBinding
	err := r.db.Where("external_discount_id = ? AND segment_id = ?", externalDiscountID, segmentID).First(&binding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &binding, nil
}

// ListByDiscount 获取折扣的全部绑定镜像
func (r *GormSegmentBindingRepository) ListByDiscount(externalDiscountID string) ([]models.SegmentBinding, error) {
	var bindings []models.SegmentBinding
	if err := r.db.Where("external_discount_id = ?", externalDiscountID).Order("id asc").Find(&bindings).Error; err != nil {
		return nil, err
	}
	return bindings, nil
}

// Upsert 写入或更新绑定镜像
func (r *GormSegmentBindingRepository) Upsert(binding *models.SegmentBinding) error {
	existing, err := r.GetByDiscountAndSegment(binding.ExternalDiscountID, binding.SegmentID)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.Create(binding).Error
	}
	binding.ID = existing.ID
	binding.CreatedAt = existing.CreatedAt
	return r.db.Save(binding).Error
}

// DeleteByDiscountAndSegment 删除单条绑定镜像
func (r *GormSegmentBindingRepository) DeleteByDiscountAndSegment(externalDiscountID, segmentID string) error {
	return r.db.Where("external_discount_id = ? AND segment_id = ?", externalDiscountID, segmentID).
		Delete(&models.SegmentBinding{}).Error
}

// DeleteByDiscount 删除折扣的全部绑定镜像
func (r *GormSegmentBindingRepository) DeleteByDiscount(externalDiscountID string) error {
	return r.db.Where("external_discount_id = ?", externalDiscountID).Delete(&models.SegmentBinding{}).Error
}

// ReplaceByDiscount 以平台返回的分配结果整体重建镜像
func (r *GormSegmentBindingRepository) ReplaceByDiscount(externalDiscountID string, bindings []models.SegmentBinding) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("external_discount_id = ?", externalDiscountID).
			Delete(&models.SegmentBinding{}).Error; err != nil {
			return err
		}
		for i := range bindings {
			bindings[i].ID = 0
			bindings[i].ExternalDiscountID = externalDiscountID
			if err := tx.Create(&bindings[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
