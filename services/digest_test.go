package services

import (
	"context"
	"errors"
	"testing"

	"dealtracker/models"
)

// stubStore returns canned data so service logic can be tested without a
// database.
type stubStore struct {
	entries []models.DigestEntry
	history []models.Deal
}

func (s *stubStore) AppendDeals(ctx context.Context, deals []models.Deal) (int, error) {
	return len(deals), nil
}

func (s *stubStore) DealsOn(ctx context.Context, day string) ([]models.DigestEntry, error) {
	return s.entries, nil
}

func (s *stubStore) LineageHistory(ctx context.Context, retailer, productID string) ([]models.Deal, error) {
	return s.history, nil
}

func (s *stubStore) PurgeOlderThan(ctx context.Context, days int) (int64, error) { return 0, nil }

func (s *stubStore) CreateRun(ctx context.Context, run *models.IngestRun) (int64, error) {
	return 1, nil
}

func (s *stubStore) UpdateRun(ctx context.Context, run *models.IngestRun) error { return nil }

func (s *stubStore) Log(ctx context.Context, runID *int64, level models.LogLevel, message, retailer string) error {
	return nil
}

func (s *stubStore) AddSubscriber(ctx context.Context, email string) (*models.Subscriber, error) {
	return &models.Subscriber{Email: email}, nil
}

func (s *stubStore) Subscribers(ctx context.Context) ([]models.Subscriber, error) {
	return nil, nil
}

func (s *stubStore) Close() error { return nil }

func TestSelectForDate_EmptyDay(t *testing.T) {
	svc := NewDigestService(&stubStore{})

	_, err := svc.SelectForDate(context.Background(), "2026-08-29")
	if !errors.Is(err, ErrEmptyDigest) {
		t.Fatalf("expected ErrEmptyDigest, got %v", err)
	}
}

func TestSelectForDate_CategoryLabels(t *testing.T) {
	store := &stubStore{entries: []models.DigestEntry{
		{Retailer: "takealot", Title: "Mouse", Category: "Electronics", PriceValue: intPtr(100)},
		{Retailer: "loot", Title: "Serum", Category: "Beauty", PriceValue: intPtr(200)},
		{Retailer: "takealot", Title: "Hose", Category: "", PriceValue: intPtr(300)},
		{Retailer: "takealot", Title: "Keyboard", Category: "Electronics", PriceValue: intPtr(400)},
	}}

	digest, err := NewDigestService(store).SelectForDate(context.Background(), "2026-08-29")
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if digest.Date != "2026-08-29" {
		t.Fatalf("unexpected date %s", digest.Date)
	}
	if digest.Deals[0].Category != "Takealot • Electronics" {
		t.Fatalf("unexpected label %q", digest.Deals[0].Category)
	}
	if digest.Deals[1].Category != "Loot • Beauty" {
		t.Fatalf("unexpected label %q", digest.Deals[1].Category)
	}
	if digest.Deals[2].Category != "Takealot • Other" {
		t.Fatalf("blank category should label as Other, got %q", digest.Deals[2].Category)
	}

	want := []string{"Loot • Beauty", "Takealot • Electronics", "Takealot • Other"}
	if len(digest.Categories) != len(want) {
		t.Fatalf("expected %d distinct categories, got %d", len(want), len(digest.Categories))
	}
	for i, w := range want {
		if digest.Categories[i] != w {
			t.Fatalf("category %d: expected %q, got %q", i, w, digest.Categories[i])
		}
	}
}

func TestNewLows(t *testing.T) {
	deals := []models.DigestEntry{
		{Title: "A", IsNewLow: true},
		{Title: "B", IsNewLow: false},
		{Title: "C", IsNewLow: true},
		{Title: "D", IsNewLow: true},
	}

	lows := NewLows(deals, 2)
	if len(lows) != 2 {
		t.Fatalf("expected cap of 2, got %d", len(lows))
	}
	if lows[0].Title != "A" || lows[1].Title != "C" {
		t.Fatalf("expected order preserved, got %s, %s", lows[0].Title, lows[1].Title)
	}

	if all := NewLows(deals, 0); len(all) != 3 {
		t.Fatalf("max 0 should mean no cap, got %d", len(all))
	}

	if none := NewLows([]models.DigestEntry{{IsNewLow: false}}, 10); len(none) != 0 {
		t.Fatalf("expected no lows, got %d", len(none))
	}
}
