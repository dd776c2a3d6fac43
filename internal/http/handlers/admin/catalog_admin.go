package admin

import (
	"context"
	"errors"
	"strings"

	"github.com/fenxiao-next/internal/http/response"
	"github.com/fenxiao-next/internal/service"

	"github.com/gin-gonic/gin"
)

// SearchCatalogProducts 按关键字搜索平台商品
func (h *Handler) SearchCatalogProducts(c *gin.Context) {
	h.respondCatalogSearch(c, func(ctx context.Context, query string) (interface{}, bool, error) {
		hits, superseded, err := h.CatalogService.SearchProducts(ctx, query)
		return hits, superseded, err
	})
}

// SearchCatalogCustomers 按关键字搜索平台客户
func (h *Handler) SearchCatalogCustomers(c *gin.Context) {
	h.respondCatalogSearch(c, func(ctx context.Context, query string) (interface{}, bool, error) {
		hits, superseded, err := h.CatalogService.SearchCustomers(ctx, query)
		return hits, superseded, err
	})
}

// SearchCatalogCollections 按关键字搜索平台商品集合
func (h *Handler) SearchCatalogCollections(c *gin.Context) {
	h.respondCatalogSearch(c, func(ctx context.Context, query string) (interface{}, bool, error) {
		hits, superseded, err := h.CatalogService.SearchCollections(ctx, query)
		return hits, superseded, err
	})
}

// GetCatalogCustomerTags 获取平台客户标签列表
func (h *Handler) GetCatalogCustomerTags(c *gin.Context) {
	tags, err := h.CatalogService.ListCustomerTags(c.Request.Context())
	if err != nil {
		respondCatalogDegraded(c, err, "tags")
		return
	}
	response.Success(c, gin.H{
		"tags": tags,
	})
}

// GetCatalogProductTags 获取平台商品标签列表
func (h *Handler) GetCatalogProductTags(c *gin.Context) {
	tags, err := h.CatalogService.ListProductTags(c.Request.Context())
	if err != nil {
		respondCatalogDegraded(c, err, "tags")
		return
	}
	response.Success(c, gin.H{
		"tags": tags,
	})
}

// respondCatalogSearch 搜索类接口的统一响应
// 目录不可用时降级为空结果并打标，不阻断编辑流程；
// 被更新请求取代的结果直接丢弃，只告知客户端该响应已过期。
func (h *Handler) respondCatalogSearch(c *gin.Context, search func(context.Context, string) (interface{}, bool, error)) {
	query := strings.TrimSpace(c.Query("q"))
	hits, superseded, err := search(c.Request.Context(), query)
	if err != nil {
		respondCatalogDegraded(c, err, "items")
		return
	}
	if superseded {
		response.Success(c, gin.H{
			"items":      []interface{}{},
			"superseded": true,
		})
		return
	}
	response.Success(c, gin.H{
		"items": hits,
	})
}

// respondCatalogDegraded 目录不可用时返回空集合与降级标记
func respondCatalogDegraded(c *gin.Context, err error, key string) {
	if !errors.Is(err, service.ErrCatalogUnavailable) {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	requestLog(c).Warnw("catalog_degraded", "error", err)
	response.Success(c, gin.H{
		key:        []interface{}{},
		"degraded": true,
	})
}
