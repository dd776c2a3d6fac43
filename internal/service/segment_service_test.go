package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/platform"
	"github.com/fenxiao-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stubSegmentClient struct {
	assigned    map[string][]platform.SegmentAssignment
	segments    []platform.Segment
	assignErr   error
	removeErr   error
	listErr     error
	callCount   int
	removeCalls []string
}

func newStubSegmentClient() *stubSegmentClient {
	return &stubSegmentClient{assigned: map[string][]platform.SegmentAssignment{}}
}

func (s *stubSegmentClient) ListSegments(_ context.Context, _ string) ([]platform.Segment, error) {
	s.callCount++
	return s.segments, nil
}

func (s *stubSegmentClient) ListAssignedSegments(_ context.Context, discountID string) ([]platform.SegmentAssignment, error) {
	s.callCount++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.assigned[discountID], nil
}

func (s *stubSegmentClient) AssignSegment(_ context.Context, discountID string, in platform.SegmentAssignment) (*platform.SegmentAssignment, error) {
	s.callCount++
	if s.assignErr != nil {
		return nil, s.assignErr
	}
	s.assigned[discountID] = append(s.assigned[discountID], in)
	return &in, nil
}

func (s *stubSegmentClient) RemoveSegment(_ context.Context, discountID, segmentID string) error {
	s.callCount++
	s.removeCalls = append(s.removeCalls, segmentID)
	if s.removeErr != nil {
		return s.removeErr
	}
	var kept []platform.SegmentAssignment
	for _, a := range s.assigned[discountID] {
		if a.SegmentID != segmentID {
			kept = append(kept, a)
		}
	}
	s.assigned[discountID] = kept
	return nil
}

func setupSegmentServiceTest(t *testing.T) (*SegmentService, *stubSegmentClient, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.PricingRule{}, &models.SegmentBinding{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&models.PricingRule{}).Error; err != nil {
		t.Fatalf("clean pricing rules failed: %v", err)
	}
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.SegmentBinding{}).Error; err != nil {
		t.Fatalf("clean segment bindings failed: %v", err)
	}

	client := newStubSegmentClient()
	svc := NewSegmentService(
		repository.NewPricingRuleRepository(db),
		repository.NewSegmentBindingRepository(db),
		client,
	)
	return svc, client, db
}

func createSegmentTestRule(t *testing.T, db *gorm.DB, externalID string) *models.PricingRule {
	t.Helper()
	rule := &models.PricingRule{
		Name:               "分组测试规则",
		Status:             constants.RuleStatusActive,
		DiscountTitle:      "分组测试",
		ApplyToCustomers:   constants.CustomerConditionAll,
		ApplyToProducts:    constants.ProductConditionAll,
		PriceType:          constants.PriceTypePercentOff,
		DiscountValue:      models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		ExternalDiscountID: externalID,
		SyncStatus:         constants.SyncStatusSynced,
	}
	if err := db.Create(rule).Error; err != nil {
		t.Fatalf("create rule failed: %v", err)
	}
	return rule
}

func TestAssignWithoutExternalIDNeverCallsPlatform(t *testing.T) {
	svc, client, db := setupSegmentServiceTest(t)
	rule := createSegmentTestRule(t, db, "")

	_, err := svc.Assign(context.Background(), rule.ID, AssignSegmentInput{SegmentID: "SEG1"})
	if !errors.Is(err, ErrSegmentPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if client.callCount != 0 {
		t.Fatalf("precondition violation must not reach the platform, calls=%d", client.callCount)
	}
}

func TestAssignListRemoveLifecycle(t *testing.T) {
	svc, _, db := setupSegmentServiceTest(t)
	rule := createSegmentTestRule(t, db, "D100")

	assigned, err := svc.Assign(context.Background(), rule.ID, AssignSegmentInput{
		SegmentID:       "SEG1",
		SegmentName:     "VIP 客户",
		MinimumType:     constants.MinimumTypeQuantity,
		MinimumQuantity: 2,
	})
	if err != nil {
		t.Fatalf("assign segment failed: %v", err)
	}
	if assigned.Minimum.Type != constants.MinimumTypeQuantity || assigned.Minimum.Quantity != 2 {
		t.Fatalf("unexpected minimum: %+v", assigned.Minimum)
	}

	list, stale, err := svc.ListAssigned(context.Background(), rule.ID)
	if err != nil {
		t.Fatalf("list assigned failed: %v", err)
	}
	if stale {
		t.Fatalf("platform reachable, result must not be stale")
	}
	if len(list) != 1 || list[0].SegmentID != "SEG1" {
		t.Fatalf("unexpected assignments: %+v", list)
	}

	if err := svc.Remove(context.Background(), rule.ID, "SEG1"); err != nil {
		t.Fatalf("remove segment failed: %v", err)
	}
	list, _, err = svc.ListAssigned(context.Background(), rule.ID)
	if err != nil {
		t.Fatalf("list assigned failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no assignments after remove, got %+v", list)
	}

	// 分组操作不得影响外部折扣绑定
	var got models.PricingRule
	if err := db.First(&got, rule.ID).Error; err != nil {
		t.Fatalf("reload rule failed: %v", err)
	}
	if got.ExternalDiscountID != "D100" {
		t.Fatalf("external discount id must be unchanged, got %s", got.ExternalDiscountID)
	}
}

func TestAssignValidatesMinimum(t *testing.T) {
	svc, client, db := setupSegmentServiceTest(t)
	rule := createSegmentTestRule(t, db, "D200")

	_, err := svc.Assign(context.Background(), rule.ID, AssignSegmentInput{
		SegmentID:   "SEG1",
		MinimumType: constants.MinimumTypeQuantity,
	})
	if !errors.Is(err, ErrRuleInvalid) {
		t.Fatalf("expected invalid minimum rejected, got %v", err)
	}

	_, err = svc.Assign(context.Background(), rule.ID, AssignSegmentInput{
		SegmentID:   "SEG1",
		MinimumType: constants.MinimumTypeSubtotal,
	})
	if !errors.Is(err, ErrRuleInvalid) {
		t.Fatalf("expected invalid subtotal rejected, got %v", err)
	}
	if client.callCount != 0 {
		t.Fatalf("validation failures must not reach the platform")
	}
}

func TestAssignStaleDiscountReportsRelink(t *testing.T) {
	svc, client, db := setupSegmentServiceTest(t)
	rule := createSegmentTestRule(t, db, "D300")
	client.assignErr = platform.ErrNotFound

	_, err := svc.Assign(context.Background(), rule.ID, AssignSegmentInput{SegmentID: "SEG1"})
	if !errors.Is(err, ErrRuleNeedsRelink) {
		t.Fatalf("expected needs relink, got %v", err)
	}
}

func TestListAssignedFallsBackToMirror(t *testing.T) {
	svc, client, db := setupSegmentServiceTest(t)
	rule := createSegmentTestRule(t, db, "D400")

	if _, err := svc.Assign(context.Background(), rule.ID, AssignSegmentInput{
		SegmentID:   "SEG1",
		SegmentName: "VIP",
	}); err != nil {
		t.Fatalf("assign segment failed: %v", err)
	}

	client.listErr = platform.ErrUnavailable
	list, stale, err := svc.ListAssigned(context.Background(), rule.ID)
	if err != nil {
		t.Fatalf("mirror fallback failed: %v", err)
	}
	if !stale {
		t.Fatalf("mirror fallback must be marked stale")
	}
	if len(list) != 1 || list[0].SegmentID != "SEG1" {
		t.Fatalf("unexpected mirrored assignments: %+v", list)
	}
}

func TestRemoveTreatsMissingBindingAsRemoved(t *testing.T) {
	svc, client, db := setupSegmentServiceTest(t)
	rule := createSegmentTestRule(t, db, "D500")
	client.removeErr = platform.ErrNotFound

	if err := svc.Remove(context.Background(), rule.ID, "SEG-GONE"); err != nil {
		t.Fatalf("remove of missing binding must succeed, got %v", err)
	}
}
