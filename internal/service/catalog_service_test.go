package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/platform"

	"github.com/shopspring/decimal"
)

type stubCatalogClient struct {
	products  map[string][]platform.ProductHit
	tags      []string
	segments  []platform.Segment
	err       error
	blockOn   string        // 搜索词等于该值时阻塞
	unblock   chan struct{} // 收到信号后放行
	tagCalls  int
	callOrder []string
	mu        sync.Mutex
}

func (s *stubCatalogClient) SearchProducts(_ context.Context, query string, _ int) ([]platform.ProductHit, error) {
	if s.blockOn != "" && query == s.blockOn {
		<-s.unblock
	}
	s.mu.Lock()
	s.callOrder = append(s.callOrder, query)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.products[query], nil
}

func (s *stubCatalogClient) SearchCustomers(_ context.Context, query string, _ int) ([]platform.CustomerHit, error) {
	if s.err != nil {
		return nil, s.err
	}
	return nil, nil
}

func (s *stubCatalogClient) SearchCollections(_ context.Context, query string, _ int) ([]platform.CollectionHit, error) {
	if s.err != nil {
		return nil, s.err
	}
	return nil, nil
}

func (s *stubCatalogClient) GetProducts(_ context.Context, externalIDs []string) ([]platform.ProductHit, error) {
	if s.err != nil {
		return nil, s.err
	}
	var hits []platform.ProductHit
	for _, id := range externalIDs {
		hits = append(hits, platform.ProductHit{
			ExternalID: id,
			Price:      models.NewMoneyFromDecimal(decimal.NewFromInt(88)),
		})
	}
	return hits, nil
}

func (s *stubCatalogClient) ListCustomerTags(_ context.Context) ([]string, error) {
	s.tagCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.tags, nil
}

func (s *stubCatalogClient) ListProductTags(_ context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tags, nil
}

func (s *stubCatalogClient) ListSegments(_ context.Context, _ string) ([]platform.Segment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.segments, nil
}

func TestSearchProductsReturnsHits(t *testing.T) {
	client := &stubCatalogClient{
		products: map[string][]platform.ProductHit{
			"tea": {{ExternalID: "P1", Title: "红茶"}},
		},
	}
	svc := NewCatalogService(client, time.Minute)

	hits, superseded, err := svc.SearchProducts(context.Background(), "tea")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if superseded {
		t.Fatalf("single search must not be superseded")
	}
	if len(hits) != 1 || hits[0].ExternalID != "P1" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
}

func TestSearchProductsStaleResultDiscarded(t *testing.T) {
	client := &stubCatalogClient{
		products: map[string][]platform.ProductHit{
			"old": {{ExternalID: "OLD"}},
			"new": {{ExternalID: "NEW"}},
		},
		blockOn: "old",
		unblock: make(chan struct{}),
	}
	svc := NewCatalogService(client, time.Minute)

	type searchResult struct {
		hits       []platform.ProductHit
		superseded bool
		err        error
	}
	oldDone := make(chan searchResult, 1)
	go func() {
		hits, superseded, err := svc.SearchProducts(context.Background(), "old")
		oldDone <- searchResult{hits: hits, superseded: superseded, err: err}
	}()

	// 等旧搜索取到令牌后再发起新搜索
	time.Sleep(20 * time.Millisecond)
	newHits, superseded, err := svc.SearchProducts(context.Background(), "new")
	if err != nil {
		t.Fatalf("new search failed: %v", err)
	}
	if superseded {
		t.Fatalf("newer search must win")
	}
	if len(newHits) != 1 || newHits[0].ExternalID != "NEW" {
		t.Fatalf("unexpected new hits: %+v", newHits)
	}

	close(client.unblock)
	old := <-oldDone
	if old.err != nil {
		t.Fatalf("stale search must not error: %v", old.err)
	}
	if !old.superseded {
		t.Fatalf("stale result must be marked superseded")
	}
	if old.hits != nil {
		t.Fatalf("stale result must be dropped, got %+v", old.hits)
	}
}

func TestSearchProductsUnavailable(t *testing.T) {
	client := &stubCatalogClient{err: platform.ErrUnavailable}
	svc := NewCatalogService(client, time.Minute)

	_, superseded, err := svc.SearchProducts(context.Background(), "tea")
	if superseded {
		t.Fatalf("failure must not be reported as superseded")
	}
	if !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected catalog unavailable, got %v", err)
	}
}

func TestListCustomerTags(t *testing.T) {
	client := &stubCatalogClient{tags: []string{"vip", "wholesale"}}
	svc := NewCatalogService(client, time.Minute)

	tags, err := svc.ListCustomerTags(context.Background())
	if err != nil {
		t.Fatalf("list tags failed: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("unexpected tags: %v", tags)
	}

	client.err = platform.ErrUnavailable
	if _, err := svc.ListCustomerTags(context.Background()); !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected catalog unavailable, got %v", err)
	}
}

func TestResolvePrices(t *testing.T) {
	client := &stubCatalogClient{}
	svc := NewCatalogService(client, time.Minute)

	prices, err := svc.ResolvePrices(context.Background(), []string{"P1", "P2"})
	if err != nil {
		t.Fatalf("resolve prices failed: %v", err)
	}
	if len(prices) != 2 || prices["P1"].String() != "88.00" {
		t.Fatalf("unexpected prices: %+v", prices)
	}

	prices, err = svc.ResolvePrices(context.Background(), nil)
	if err != nil || prices != nil {
		t.Fatalf("empty input must be a no-op, got %+v %v", prices, err)
	}
}
