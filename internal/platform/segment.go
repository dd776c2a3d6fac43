package platform

import (
	"context"
	"net/http"
)

// MinimumRequirement 分组生效门槛
type MinimumRequirement struct {
	Type     string `json:"type"`               // none/quantity/subtotal
	Quantity int    `json:"quantity,omitempty"` // 最低件数
	Amount   string `json:"amount,omitempty"`   // 最低消费金额（十进制字符串）
	Currency string `json:"currency,omitempty"` // 币种
}

// CombinesWith 折扣叠加规则
type CombinesWith struct {
	Product  bool `json:"product"`  // 可与商品折扣叠加
	Order    bool `json:"order"`    // 可与订单折扣叠加
	Shipping bool `json:"shipping"` // 可与运费折扣叠加
}

// SegmentAssignment 折扣的分组分配记录
type SegmentAssignment struct {
	SegmentID   string             `json:"segment_id"`   // 平台分组ID
	SegmentName string             `json:"segment_name"` // 分组名称
	Minimum     MinimumRequirement `json:"minimum"`      // 生效门槛
	Combines    CombinesWith       `json:"combines"`     // 叠加规则
}

// ListAssignedSegments 拉取折扣当前已分配的分组（平台侧为权威数据）
func (c *Client) ListAssignedSegments(ctx context.Context, discountID string) ([]SegmentAssignment, error) {
	var resp struct {
		Assignments []SegmentAssignment `json:"assignments"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/discounts/"+discountID+"/segments", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Assignments, nil
}

// AssignSegment 将分组分配给折扣
func (c *Client) AssignSegment(ctx context.Context, discountID string, in SegmentAssignment) (*SegmentAssignment, error) {
	var resp struct {
		Assignment SegmentAssignment `json:"assignment"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/discounts/"+discountID+"/segments", nil, in, &resp); err != nil {
		return nil, err
	}
	return &resp.Assignment, nil
}

// RemoveSegment 解除折扣的分组分配
func (c *Client) RemoveSegment(ctx context.Context, discountID, segmentID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/discounts/"+discountID+"/segments/"+segmentID, nil, nil, nil)
}
