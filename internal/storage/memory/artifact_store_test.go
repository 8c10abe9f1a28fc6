package memory

import (
	"context"
	"errors"
	"testing"

	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/storage"
)

func TestArtifactStore_PutAndGet(t *testing.T) {
	store := NewArtifactStore()
	ctx := context.Background()

	data := []byte("# Report\n")
	if err := store.Put(ctx, "run-1/REPORT.md", data, "text/markdown"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	data[0] = 'X'

	got, err := store.Get("run-1/REPORT.md")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Data) != "# Report\n" {
		t.Errorf("stored data shares memory with caller: %q", got.Data)
	}
	if got.ContentType != "text/markdown" {
		t.Errorf("ContentType mismatch: %s", got.ContentType)
	}

	if err := store.Put(ctx, "run-1/REPORT.md", data, "text/markdown"); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if _, err := store.Get("nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestArtifactStore_Names(t *testing.T) {
	store := NewArtifactStore()
	ctx := context.Background()
	_ = store.Put(ctx, "b.csv", nil, "text/csv")
	_ = store.Put(ctx, "a.csv", nil, "text/csv")

	names := store.Names()
	if len(names) != 2 || names[0] != "a.csv" || names[1] != "b.csv" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestPolicySource_LoadReturnsCopies(t *testing.T) {
	records := []domain.PolicyRecord{
		{PolicyID: "p1", PremiumAmount: 100},
		{PolicyID: "p2", PremiumAmount: 0},
	}
	src := NewPolicySource("fixtures", records)
	records[0].PolicyID = "changed"

	got, stats, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got[0].PolicyID != "p1" {
		t.Error("source shares records with caller")
	}
	if stats.Rows != 2 || stats.NonPositivePremium != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if src.Name() != "fixtures" {
		t.Errorf("unexpected name %s", src.Name())
	}
}
