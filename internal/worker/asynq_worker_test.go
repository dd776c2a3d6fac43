package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/platform"
	"github.com/fenxiao-next/internal/provider"
	"github.com/fenxiao-next/internal/queue"
	"github.com/fenxiao-next/internal/repository"
	"github.com/fenxiao-next/internal/service"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

type workerSyncStub struct {
	syncErr   error
	syncCalls int
}

func (s *workerSyncStub) CreateDiscount(ctx context.Context, input platform.DiscountInput) (*platform.Discount, error) {
	return &platform.Discount{ID: "D1", Title: input.Title}, nil
}

func (s *workerSyncStub) UpdateDiscount(ctx context.Context, externalID string, input platform.DiscountInput) (*platform.Discount, error) {
	return &platform.Discount{ID: externalID, Title: input.Title}, nil
}

func (s *workerSyncStub) SyncTargeting(ctx context.Context, externalID string, payload platform.TargetingPayload) error {
	s.syncCalls++
	return s.syncErr
}

func setupWorkerTest(t *testing.T, stub *workerSyncStub) *Consumer {
	t.Helper()
	if err := models.InitDB("sqlite", "file::memory:?cache=shared", models.DBPoolConfig{MaxOpenConns: 1, MaxIdleConns: 1}); err != nil {
		t.Fatalf("init db: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ruleRepo := repository.NewPricingRuleRepository(models.DB)
	bindingRepo := repository.NewSegmentBindingRepository(models.DB)
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("queue client: %v", err)
	}
	svc := service.NewPricingRuleService(ruleRepo, bindingRepo, stub, nil, queueClient)
	return NewConsumer(&provider.Container{
		PricingRuleRepo:    ruleRepo,
		SegmentBindingRepo: bindingRepo,
		PricingRuleService: svc,
	})
}

func targetingTask(t *testing.T, ruleID uint) *asynq.Task {
	t.Helper()
	task, err := queue.NewTargetingSyncTask(queue.TargetingSyncPayload{RuleID: ruleID})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	return task
}

func TestHandleTargetingSyncInvalidPayload(t *testing.T) {
	consumer := setupWorkerTest(t, &workerSyncStub{})

	if err := consumer.handleTargetingSync(context.Background(), asynq.NewTask(queue.TaskTargetingSync, []byte("{"))); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
	if err := consumer.handleTargetingSync(context.Background(), targetingTask(t, 0)); err != nil {
		t.Fatalf("zero rule id should be skipped, got %v", err)
	}
}

func TestHandleTargetingSyncRuleMissingIsTerminal(t *testing.T) {
	stub := &workerSyncStub{}
	consumer := setupWorkerTest(t, stub)

	if err := consumer.handleTargetingSync(context.Background(), targetingTask(t, 99999)); err != nil {
		t.Fatalf("missing rule should not retry, got %v", err)
	}
	if stub.syncCalls != 0 {
		t.Fatalf("expected no sync calls, got %d", stub.syncCalls)
	}
}

func TestHandleTargetingSyncTransientFailureRetries(t *testing.T) {
	stub := &workerSyncStub{syncErr: platform.ErrUnavailable}
	consumer := setupWorkerTest(t, stub)

	rule := &models.PricingRule{
		Name:               "工作流规则",
		Status:             "active",
		ExternalDiscountID: "D900",
		DiscountTitle:      "工作流规则",
		PriceType:          "percent_off",
		DiscountValue:      models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		ApplyToCustomers:   "all",
		ApplyToProducts:    "all",
		SyncStatus:         "sync_failed",
	}
	if err := consumer.PricingRuleRepo.Create(rule); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	err := consumer.handleTargetingSync(context.Background(), targetingTask(t, rule.ID))
	if err == nil {
		t.Fatalf("transient failure should surface for retry")
	}
	if !errors.Is(err, service.ErrRuleSyncFailed) {
		t.Fatalf("expected ErrRuleSyncFailed, got %v", err)
	}

	stub.syncErr = nil
	if err := consumer.handleTargetingSync(context.Background(), targetingTask(t, rule.ID)); err != nil {
		t.Fatalf("retry should succeed, got %v", err)
	}
	stored, err := consumer.PricingRuleRepo.GetByID(rule.ID)
	if err != nil || stored == nil {
		t.Fatalf("load rule: %v", err)
	}
	if stored.SyncStatus != "synced" {
		t.Fatalf("expected synced after retry, got %s", stored.SyncStatus)
	}
	if stub.syncCalls != 2 {
		t.Fatalf("expected 2 sync calls, got %d", stub.syncCalls)
	}
}

func TestHandleTargetingSyncNeedsRelinkIsTerminal(t *testing.T) {
	stub := &workerSyncStub{syncErr: platform.ErrNotFound}
	consumer := setupWorkerTest(t, stub)

	rule := &models.PricingRule{
		Name:               "失联规则",
		Status:             "active",
		ExternalDiscountID: "D901",
		DiscountTitle:      "失联规则",
		PriceType:          "percent_off",
		DiscountValue:      models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		ApplyToCustomers:   "all",
		ApplyToProducts:    "all",
		SyncStatus:         "synced",
	}
	if err := consumer.PricingRuleRepo.Create(rule); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	if err := consumer.handleTargetingSync(context.Background(), targetingTask(t, rule.ID)); err != nil {
		t.Fatalf("needs_relink should not retry, got %v", err)
	}
	stored, err := consumer.PricingRuleRepo.GetByID(rule.ID)
	if err != nil || stored == nil {
		t.Fatalf("load rule: %v", err)
	}
	if stored.SyncStatus != "needs_relink" {
		t.Fatalf("expected needs_relink, got %s", stored.SyncStatus)
	}
}
