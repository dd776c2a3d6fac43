package platform

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fenxiao-next/internal/models"
)

// ProductHit 商品搜索结果
type ProductHit struct {
	ExternalID string       `json:"external_id"` // 平台商品ID
	Title      string       `json:"title"`       // 商品标题
	Handle     string       `json:"handle"`      // 商品 handle
	Price      models.Money `json:"price"`       // 当前售价
	ImageURL   string       `json:"image_url"`   // 主图地址
}

// CustomerHit 客户搜索结果
type CustomerHit struct {
	ExternalID  string `json:"external_id"`  // 平台客户ID
	Email       string `json:"email"`        // 邮箱
	DisplayName string `json:"display_name"` // 展示名
}

// CollectionHit 商品系列搜索结果
type CollectionHit struct {
	ExternalID   string `json:"external_id"`   // 平台系列ID
	Title        string `json:"title"`         // 系列标题
	ProductCount int    `json:"product_count"` // 所含商品数
}

// Segment 平台客户分组
type Segment struct {
	ID            string `json:"id"`             // 分组ID
	Name          string `json:"name"`           // 分组名称
	CustomerCount int    `json:"customer_count"` // 分组内客户数
}

// SearchProducts 按关键字搜索商品
func (c *Client) SearchProducts(ctx context.Context, query string, limit int) ([]ProductHit, error) {
	var resp struct {
		Products []ProductHit `json:"products"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/products/search", c.searchQuery(query, limit), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// SearchCustomers 按关键字搜索客户
func (c *Client) SearchCustomers(ctx context.Context, query string, limit int) ([]CustomerHit, error) {
	var resp struct {
		Customers []CustomerHit `json:"customers"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/customers/search", c.searchQuery(query, limit), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Customers, nil
}

// SearchCollections 按关键字搜索商品系列
func (c *Client) SearchCollections(ctx context.Context, query string, limit int) ([]CollectionHit, error) {
	var resp struct {
		Collections []CollectionHit `json:"collections"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/collections/search", c.searchQuery(query, limit), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Collections, nil
}

// GetProducts 按外部ID批量拉取商品（用于校验当前售价）
func (c *Client) GetProducts(ctx context.Context, externalIDs []string) ([]ProductHit, error) {
	if len(externalIDs) == 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("ids", strings.Join(externalIDs, ","))
	var resp struct {
		Products []ProductHit `json:"products"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/products", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// ListCustomerTags 拉取店铺全量客户标签
func (c *Client) ListCustomerTags(ctx context.Context) ([]string, error) {
	var resp struct {
		Tags []string `json:"tags"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/customers/tags", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tags, nil
}

// ListProductTags 拉取店铺全量商品标签
func (c *Client) ListProductTags(ctx context.Context) ([]string, error) {
	var resp struct {
		Tags []string `json:"tags"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/products/tags", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tags, nil
}

// ListSegments 按关键字拉取平台客户分组
func (c *Client) ListSegments(ctx context.Context, query string) ([]Segment, error) {
	q := url.Values{}
	if query != "" {
		q.Set("query", query)
	}
	var resp struct {
		Segments []Segment `json:"segments"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/segments", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Segments, nil
}

func (c *Client) searchQuery(query string, limit int) url.Values {
	if limit <= 0 || limit > c.cfg.SearchLimit {
		limit = c.cfg.SearchLimit
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))
	return q
}
