package service

import (
	"testing"

	"github.com/fenxiao-next/internal/models"
)

func TestDiffProductSelectionsIdentity(t *testing.T) {
	set := models.ProductSelectionList{
		{ExternalID: "P2", Title: "商品2"},
		{ExternalID: "P1", Title: "商品1"},
	}
	diff := DiffProductSelections(set, set)
	if len(diff.Added) != 0 || len(diff.Removed) != 0 {
		t.Fatalf("diff(S, S) must have empty added/removed, got %+v", diff)
	}
	if len(diff.Unchanged) != 2 {
		t.Fatalf("diff(S, S) unchanged want 2 got %d", len(diff.Unchanged))
	}
}

func TestDiffProductSelectionsAddRemove(t *testing.T) {
	current := models.ProductSelectionList{
		{ExternalID: "P1", Title: "商品1"},
		{ExternalID: "P2", Title: "商品2"},
	}
	desired := models.ProductSelectionList{
		{ExternalID: "P2", Title: "商品2"},
		{ExternalID: "P3", Title: "商品3"},
	}
	diff := DiffProductSelections(current, desired)
	if len(diff.Added) != 1 || diff.Added[0].ExternalID != "P3" {
		t.Fatalf("unexpected added: %+v", diff.Added)
	}
	if len(diff.Removed) != 1 || diff.Removed[0].ExternalID != "P1" {
		t.Fatalf("unexpected removed: %+v", diff.Removed)
	}
	if len(diff.Unchanged) != 1 || diff.Unchanged[0].ExternalID != "P2" {
		t.Fatalf("unexpected unchanged: %+v", diff.Unchanged)
	}
}

func TestDiffProductSelectionsOrderIndependent(t *testing.T) {
	a := models.ProductSelectionList{
		{ExternalID: "P1"}, {ExternalID: "P2"}, {ExternalID: "P3"},
	}
	b := models.ProductSelectionList{
		{ExternalID: "P3"}, {ExternalID: "P1"}, {ExternalID: "P2"},
	}
	diff := DiffProductSelections(a, b)
	if len(diff.Added) != 0 || len(diff.Removed) != 0 || len(diff.Unchanged) != 3 {
		t.Fatalf("expected identical sets regardless of order, got %+v", diff)
	}
	if diff.Unchanged[0].ExternalID != "P1" || diff.Unchanged[2].ExternalID != "P3" {
		t.Fatalf("expected deterministic ordering, got %+v", diff.Unchanged)
	}
}

func TestDiffProductSelectionsEmptySets(t *testing.T) {
	desired := models.ProductSelectionList{{ExternalID: "P1"}}
	diff := DiffProductSelections(nil, desired)
	if len(diff.Added) != 1 || len(diff.Removed) != 0 {
		t.Fatalf("unexpected diff from empty current: %+v", diff)
	}

	diff = DiffProductSelections(desired, nil)
	if len(diff.Added) != 0 || len(diff.Removed) != 1 {
		t.Fatalf("unexpected diff to empty desired: %+v", diff)
	}
}
