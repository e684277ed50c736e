package store

import (
	"context"
	"encoding/json"
	"testing"
)

func TestSnapshotStoreFileRoundTrip(t *testing.T) {
	s := NewSnapshotStore(nil, t.TempDir())
	ctx := context.Background()

	kpis := map[string]float64{"EBITDA": 3450.0, "NetDebt": 18750.0}
	payload, err := json.Marshal(kpis)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Put(ctx, "PPL", "ppl_q2_2024.txt", payload); err != nil {
		t.Fatalf("Put: %v", err)
	}

	snap, err := s.Latest(ctx, "PPL")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if snap == nil {
		t.Fatal("snapshot missing after Put")
	}
	if snap.DocID != "ppl_q2_2024.txt" {
		t.Errorf("doc id = %q", snap.DocID)
	}
	var got map[string]float64
	if err := json.Unmarshal(snap.KPIs, &got); err != nil {
		t.Fatal(err)
	}
	if got["EBITDA"] != 3450.0 {
		t.Errorf("EBITDA = %v", got["EBITDA"])
	}
	if snap.ExtractedAt.IsZero() {
		t.Error("extracted_at not set")
	}
}

func TestSnapshotStoreMiss(t *testing.T) {
	s := NewSnapshotStore(nil, t.TempDir())

	snap, err := s.Latest(context.Background(), "ENB")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if snap != nil {
		t.Errorf("expected miss, got %+v", snap)
	}
}

func TestSnapshotStoreOverwriteKeepsLatest(t *testing.T) {
	s := NewSnapshotStore(nil, t.TempDir())
	ctx := context.Background()

	if err := s.Put(ctx, "PPL", "ppl_q1_2024.txt", []byte(`{"EBITDA":3290}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "PPL", "ppl_q2_2024.txt", []byte(`{"EBITDA":3450}`)); err != nil {
		t.Fatal(err)
	}

	snap, err := s.Latest(ctx, "PPL")
	if err != nil {
		t.Fatal(err)
	}
	if snap.DocID != "ppl_q2_2024.txt" {
		t.Errorf("latest snapshot = %q, want the second write", snap.DocID)
	}
}
