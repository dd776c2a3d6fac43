package platform

import (
	"context"
	"net/http"
)

// DiscountInput 创建外部折扣输入
type DiscountInput struct {
	Title     string `json:"title"`      // 折扣展示标题
	PriceType string `json:"price_type"` // 优惠类型（percent_off/amount_off/new_price）
	Value     string `json:"value"`      // 优惠数值（十进制字符串）
}

// Discount 外部折扣资源
type Discount struct {
	ID        string `json:"id"`         // 外部折扣ID
	Title     string `json:"title"`      // 折扣展示标题
	PriceType string `json:"price_type"` // 优惠类型
	Value     string `json:"value"`      // 优惠数值
	Status    string `json:"status"`     // 平台侧状态
}

// CustomerTargeting 客户侧定向（全量集合）
type CustomerTargeting struct {
	Mode        string   `json:"mode"`         // all/logged_in/non_logged_in/specific/customer_tags
	CustomerIDs []string `json:"customer_ids"` // specific 模式下的客户ID全集
	Tags        []string `json:"tags"`         // customer_tags 模式下的标签全集
}

// ProductTargeting 商品侧定向（全量集合）
type ProductTargeting struct {
	Mode          string   `json:"mode"`           // all/specific_products/collections/product_tags
	ProductIDs    []string `json:"product_ids"`    // specific_products 模式下的商品ID全集
	CollectionIDs []string `json:"collection_ids"` // collections 模式下的系列ID全集
	Tags          []string `json:"tags"`           // product_tags 模式下的标签全集
}

// TargetingPayload 折扣定向全量载荷
// 平台以本载荷整体替换折扣的定向集合，不支持增量修改
type TargetingPayload struct {
	Customers CustomerTargeting `json:"customers"`
	Products  ProductTargeting  `json:"products"`
}

// CreateDiscount 在平台创建折扣资源
func (c *Client) CreateDiscount(ctx context.Context, in DiscountInput) (*Discount, error) {
	var resp struct {
		Discount Discount `json:"discount"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/discounts", nil, in, &resp); err != nil {
		return nil, err
	}
	if resp.Discount.ID == "" {
		return nil, ErrResponseInvalid
	}
	return &resp.Discount, nil
}

// GetDiscount 查询平台折扣资源
func (c *Client) GetDiscount(ctx context.Context, discountID string) (*Discount, error) {
	var resp struct {
		Discount Discount `json:"discount"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/discounts/"+discountID, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Discount, nil
}

// UpdateDiscount 更新平台折扣的标题与优惠参数
func (c *Client) UpdateDiscount(ctx context.Context, discountID string, in DiscountInput) (*Discount, error) {
	var resp struct {
		Discount Discount `json:"discount"`
	}
	if err := c.doJSON(ctx, http.MethodPut, "/api/v1/discounts/"+discountID, nil, in, &resp); err != nil {
		return nil, err
	}
	return &resp.Discount, nil
}

// DeleteDiscount 删除平台折扣资源
func (c *Client) DeleteDiscount(ctx context.Context, discountID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/discounts/"+discountID, nil, nil, nil)
}

// SyncTargeting 全量替换折扣的定向集合
func (c *Client) SyncTargeting(ctx context.Context, discountID string, payload TargetingPayload) error {
	return c.doJSON(ctx, http.MethodPut, "/api/v1/discounts/"+discountID+"/targeting", nil, payload, nil)
}
