package services

import (
	"context"

	"dealtracker/models"
	"dealtracker/normalize"
	"dealtracker/storage"
)

// IngestService turns one retailer's raw listings into stored snapshots.
type IngestService struct {
	store storage.Store
}

func NewIngestService(store storage.Store) *IngestService {
	return &IngestService{store: store}
}

// BatchResult summarizes one ProcessBatch call.
type BatchResult struct {
	Found     int // raw listings received from the fetcher
	Malformed int // dropped by the normalizer
	Inserted  int // snapshots actually written (duplicates excluded)
}

// ProcessBatch normalizes each raw listing and appends the survivors for the
// given day. Malformed listings are skipped and counted, never fatal; the
// append is idempotent, so re-running a day's batch inserts nothing new.
func (s *IngestService) ProcessBatch(ctx context.Context, n *normalize.Normalizer, raws []models.RawListing, day string) (*BatchResult, error) {
	result := &BatchResult{Found: len(raws)}

	deals := make([]models.Deal, 0, len(raws))
	for i := range raws {
		deal, ok := n.Normalize(&raws[i], day)
		if !ok {
			result.Malformed++
			continue
		}
		deals = append(deals, deal)
	}

	inserted, err := s.store.AppendDeals(ctx, deals)
	result.Inserted = inserted
	if err != nil {
		return result, err
	}
	return result, nil
}
