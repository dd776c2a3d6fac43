package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/platform"
	"github.com/fenxiao-next/internal/provider"
	"github.com/fenxiao-next/internal/queue"
	"github.com/fenxiao-next/internal/repository"
	"github.com/fenxiao-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type handlerSyncStub struct {
	created      int
	syncPayloads []platform.TargetingPayload
}

func (s *handlerSyncStub) CreateDiscount(ctx context.Context, input platform.DiscountInput) (*platform.Discount, error) {
	s.created++
	return &platform.Discount{ID: fmt.Sprintf("D%d", s.created), Title: input.Title}, nil
}

func (s *handlerSyncStub) UpdateDiscount(ctx context.Context, externalID string, input platform.DiscountInput) (*platform.Discount, error) {
	return &platform.Discount{ID: externalID, Title: input.Title}, nil
}

func (s *handlerSyncStub) SyncTargeting(ctx context.Context, externalID string, payload platform.TargetingPayload) error {
	s.syncPayloads = append(s.syncPayloads, payload)
	return nil
}

func setupPricingRuleHandlerTest(t *testing.T) (*gin.Engine, *handlerSyncStub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:pricing_rule_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.PricingRule{}, &models.SegmentBinding{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	ruleRepo := repository.NewPricingRuleRepository(db)
	bindingRepo := repository.NewSegmentBindingRepository(db)
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("queue client: %v", err)
	}
	stub := &handlerSyncStub{}
	ruleService := service.NewPricingRuleService(ruleRepo, bindingRepo, stub, nil, queueClient)

	h := New(&provider.Container{
		PricingRuleRepo:    ruleRepo,
		SegmentBindingRepo: bindingRepo,
		PricingRuleService: ruleService,
	})

	r := gin.New()
	r.POST("/pricing-rules", h.CreatePricingRule)
	r.POST("/pricing-rules/:id/resync", h.ResyncPricingRule)
	return r, stub
}

func TestCreatePricingRuleHandler(t *testing.T) {
	r, stub := setupPricingRuleHandlerTest(t)

	body := `{
		"name": "分销商九折",
		"apply_to_customers": "customer_tags",
		"customer_tags": ["vip"],
		"apply_to_products": "specific_products",
		"specific_products": [{"external_id": "P1", "title": "茶具"}],
		"price_type": "percent_off",
		"discount_value": "10"
	}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/pricing-rules", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var resp struct {
		StatusCode int `json:"status_code"`
		Data       struct {
			Rule models.PricingRule `json:"rule"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d, body %s", resp.StatusCode, w.Body.String())
	}
	if resp.Data.Rule.ExternalDiscountID != "D1" {
		t.Fatalf("external discount id want D1 got %s", resp.Data.Rule.ExternalDiscountID)
	}
	if len(stub.syncPayloads) != 1 {
		t.Fatalf("expected 1 targeting sync, got %d", len(stub.syncPayloads))
	}
}

func TestCreatePricingRuleHandlerValidation(t *testing.T) {
	r, stub := setupPricingRuleHandlerTest(t)

	body := `{
		"name": "超额折扣",
		"apply_to_customers": "all",
		"apply_to_products": "all",
		"price_type": "percent_off",
		"discount_value": "150"
	}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/pricing-rules", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var resp struct {
		StatusCode int `json:"status_code"`
		Data       struct {
			Errors []service.ValidationIssue `json:"errors"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("status_code want 400 got %d", resp.StatusCode)
	}
	if len(resp.Data.Errors) == 0 || resp.Data.Errors[0].Field != "discount_value" {
		t.Fatalf("expected discount_value issue, got %+v", resp.Data.Errors)
	}
	if stub.created != 0 {
		t.Fatalf("invalid draft must not create remote discount, created %d", stub.created)
	}
}

func TestResyncPricingRuleHandlerPrecondition(t *testing.T) {
	r, stub := setupPricingRuleHandlerTest(t)

	// 折扣数值为 0 的草稿不创建外部折扣
	body := `{
		"name": "占位草稿",
		"apply_to_customers": "all",
		"apply_to_products": "all",
		"price_type": "percent_off",
		"discount_value": "0"
	}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/pricing-rules", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if stub.created != 0 {
		t.Fatalf("placeholder draft must not create remote discount, created %d", stub.created)
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodPost, "/pricing-rules/1/resync", nil)
	r.ServeHTTP(w2, req2)
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w2.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("resync without external id status_code want 400 got %d", resp.StatusCode)
	}
}
