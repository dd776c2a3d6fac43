package models

import (
	"time"

	"gorm.io/gorm"
)

// PricingRule 分销定价规则
// external_discount_id 在首次成功同步后写入，此后不可变更；
// 重新同步始终更新同一个外部折扣资源，绝不新建第二个。
type PricingRule struct {
	ID                uint                    `gorm:"primarykey" json:"id"`                                       // 主键
	Name              string                  `gorm:"not null" json:"name"`                                       // 规则名称
	Status            string                  `gorm:"not null;default:active" json:"status"`                      // 状态（active/inactive）
	DiscountTitle     string                  `gorm:"not null" json:"discount_title"`                             // 折扣展示名称（买家可见）
	ApplyToCustomers  string                  `gorm:"not null" json:"apply_to_customers"`                         // 客户条件（all/logged_in/non_logged_in/specific/customer_tags）
	CustomerTags      StringArray             `gorm:"type:text" json:"customer_tags"`                             // 客户标签集合
	SpecificCustomers CustomerSelectionList   `gorm:"type:text" json:"specific_customers"`                        // 指定客户集合
	ApplyToProducts   string                  `gorm:"not null" json:"apply_to_products"`                          // 商品条件（all/specific_products/collections/product_tags）
	SpecificProducts  ProductSelectionList    `gorm:"type:text" json:"specific_products"`                         // 指定商品集合
	Collections       CollectionSelectionList `gorm:"type:text" json:"collections"`                               // 商品集合（collection）选择
	ProductTags       StringArray             `gorm:"type:text" json:"product_tags"`                              // 商品标签集合
	PriceType         string                  `gorm:"not null" json:"price_type"`                                 // 价格类型（percent_off/amount_off/new_price）
	DiscountValue     Money                   `gorm:"type:decimal(20,2);not null;default:0" json:"discount_value"` // 折扣数值
	ExternalDiscountID string                 `gorm:"index" json:"external_discount_id"`                          // 外部折扣资源ID（首次同步后写入，不可变）
	SyncStatus        string                  `gorm:"not null;default:draft" json:"sync_status"`                  // 同步状态（draft/synced/sync_failed/needs_relink）
	LastSyncError     string                  `gorm:"type:text" json:"last_sync_error"`                           // 最近一次同步失败原因
	LastSyncedAt      *time.Time              `json:"last_synced_at"`                                             // 最近一次同步成功时间
	CreatedAt         time.Time               `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt         time.Time               `gorm:"index" json:"updated_at"`                                    // 更新时间
	DeletedAt         gorm.DeletedAt          `gorm:"index" json:"-"`                                             // 软删除时间
}

// TableName 指定表名
func (PricingRule) TableName() string {
	return "pricing_rules"
}

// HasExternalDiscount 是否已绑定外部折扣资源
func (r *PricingRule) HasExternalDiscount() bool {
	return r != nil && r.ExternalDiscountID != ""
}
