package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fenxiao-next/internal/cache"
	"github.com/fenxiao-next/internal/logger"
	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/platform"
)

// CatalogClient 平台目录读取接口
type CatalogClient interface {
	SearchProducts(ctx context.Context, query string, limit int) ([]platform.ProductHit, error)
	SearchCustomers(ctx context.Context, query string, limit int) ([]platform.CustomerHit, error)
	SearchCollections(ctx context.Context, query string, limit int) ([]platform.CollectionHit, error)
	GetProducts(ctx context.Context, externalIDs []string) ([]platform.ProductHit, error)
	ListCustomerTags(ctx context.Context) ([]string, error)
	ListProductTags(ctx context.Context) ([]string, error)
	ListSegments(ctx context.Context, query string) ([]platform.Segment, error)
}

// CatalogService 目录搜索服务
// 搜索按种类携带单调递增请求令牌：迟到的旧结果直接丢弃，
// 不会覆盖更新的结果（superseded 返回 true，不视为错误）。
type CatalogService struct {
	client CatalogClient
	tagTTL time.Duration

	productSeq    atomic.Uint64
	customerSeq   atomic.Uint64
	collectionSeq atomic.Uint64

	productDone    atomic.Uint64
	customerDone   atomic.Uint64
	collectionDone atomic.Uint64
}

// NewCatalogService 创建目录搜索服务
func NewCatalogService(client CatalogClient, tagTTL time.Duration) *CatalogService {
	if tagTTL <= 0 {
		tagTTL = 5 * time.Minute
	}
	return &CatalogService{client: client, tagTTL: tagTTL}
}

// SearchProducts 搜索商品
// 返回值 superseded 为 true 表示结果已被更新的搜索取代，调用方应丢弃。
func (s *CatalogService) SearchProducts(ctx context.Context, query string) ([]platform.ProductHit, bool, error) {
	token := s.productSeq.Add(1)
	hits, err := s.client.SearchProducts(ctx, query, 0)
	if !advanceToken(&s.productDone, token) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return hits, false, nil
}

// SearchCustomers 搜索客户
func (s *CatalogService) SearchCustomers(ctx context.Context, query string) ([]platform.CustomerHit, bool, error) {
	token := s.customerSeq.Add(1)
	hits, err := s.client.SearchCustomers(ctx, query, 0)
	if !advanceToken(&s.customerDone, token) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return hits, false, nil
}

// SearchCollections 搜索商品系列
func (s *CatalogService) SearchCollections(ctx context.Context, query string) ([]platform.CollectionHit, bool, error) {
	token := s.collectionSeq.Add(1)
	hits, err := s.client.SearchCollections(ctx, query, 0)
	if !advanceToken(&s.collectionDone, token) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return hits, false, nil
}

// ListCustomerTags 获取客户标签全集（带缓存）
func (s *CatalogService) ListCustomerTags(ctx context.Context) ([]string, error) {
	if tags, hit, err := cache.GetCustomerTags(ctx); err == nil && hit {
		return tags, nil
	}
	tags, err := s.client.ListCustomerTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if err := cache.SetCustomerTags(ctx, tags, s.tagTTL); err != nil {
		logger.Warnw("customer_tags_cache_write_failed", "error", err)
	}
	return tags, nil
}

// ListProductTags 获取商品标签全集（带缓存）
func (s *CatalogService) ListProductTags(ctx context.Context) ([]string, error) {
	if tags, hit, err := cache.GetProductTags(ctx); err == nil && hit {
		return tags, nil
	}
	tags, err := s.client.ListProductTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if err := cache.SetProductTags(ctx, tags, s.tagTTL); err != nil {
		logger.Warnw("product_tags_cache_write_failed", "error", err)
	}
	return tags, nil
}

// ListSegments 获取平台客户分组
func (s *CatalogService) ListSegments(ctx context.Context, query string) ([]platform.Segment, error) {
	segments, err := s.client.ListSegments(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return segments, nil
}

// ResolvePrices 解析商品当前售价（外部商品ID → 售价）
func (s *CatalogService) ResolvePrices(ctx context.Context, externalIDs []string) (map[string]models.Money, error) {
	if len(externalIDs) == 0 {
		return nil, nil
	}
	hits, err := s.client.GetProducts(ctx, externalIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	prices := make(map[string]models.Money, len(hits))
	for _, hit := range hits {
		prices[hit.ExternalID] = hit.Price
	}
	return prices, nil
}

// advanceToken 仅当 token 仍是最新时推进已交付水位
func advanceToken(done *atomic.Uint64, token uint64) bool {
	for {
		cur := done.Load()
		if token <= cur {
			return false
		}
		if done.CompareAndSwap(cur, token) {
			return true
		}
	}
}
