package models

import (
	"time"
)

// SegmentBinding 客户分组与外部折扣的绑定记录（平台侧为权威，本表为镜像）
// 镜像行不做软删除，避免历史行占用 (external_discount_id, segment_id) 唯一索引
type SegmentBinding struct {
	ID                 uint      `gorm:"primarykey" json:"id"`                                                                   // 主键
	ExternalDiscountID string    `gorm:"uniqueIndex:idx_segment_binding_discount_segment;not null" json:"external_discount_id"` // 外部折扣资源ID
	SegmentID          string    `gorm:"uniqueIndex:idx_segment_binding_discount_segment;not null" json:"segment_id"`           // 平台分组ID
	SegmentName        string    `gorm:"not null" json:"segment_name"`                                                          // 分组名称
	MinimumType        string    `gorm:"not null;default:none" json:"minimum_type"`                                             // 门槛类型（none/quantity/subtotal）
	MinimumQuantity    int       `gorm:"not null;default:0" json:"minimum_quantity"`                                            // 最低件数
	MinimumAmount      Money     `gorm:"type:decimal(20,2);not null;default:0" json:"minimum_amount"`                           // 最低消费金额
	MinimumCurrency    string    `json:"minimum_currency"`                                                                      // 最低消费币种
	CombinesProduct    bool      `gorm:"not null;default:false" json:"combines_product"`                                        // 可与商品折扣叠加
	CombinesOrder      bool      `gorm:"not null;default:false" json:"combines_order"`                                          // 可与订单折扣叠加
	CombinesShipping   bool      `gorm:"not null;default:false" json:"combines_shipping"`                                       // 可与运费折扣叠加
	CreatedAt          time.Time `gorm:"index" json:"created_at"`                                                               // 创建时间
	UpdatedAt          time.Time `gorm:"index" json:"updated_at"`                                                               // 更新时间
}

// TableName 指定表名
func (SegmentBinding) TableName() string {
	return "segment_bindings"
}
