package services

import (
	"context"
	"fmt"

	"dealtracker/models"
	"dealtracker/storage"
)

// MinPrice returns a lineage's historic minimum over non-null prices.
// ok is false when no snapshot in the history carries a price; such a
// lineage never produces a new-low flag.
func MinPrice(history []models.Deal) (min int, ok bool) {
	for _, d := range history {
		if d.PriceValue == nil {
			continue
		}
		if !ok || *d.PriceValue < min {
			min = *d.PriceValue
			ok = true
		}
	}
	return min, ok
}

// IsNewLow reports whether a snapshot sits at its lineage's historic
// minimum. Ties are permitted: every snapshot at the minimum is a new low,
// recomputed from the full history on each query.
func IsNewLow(d models.Deal, history []models.Deal) bool {
	if d.PriceValue == nil {
		return false
	}
	min, ok := MinPrice(history)
	return ok && *d.PriceValue == min
}

// Analyzer answers low-price questions for a single product lineage.
// Comparison scope is always per (retailer, product_id); identical products
// at different retailers never share a lineage.
type Analyzer struct {
	store storage.Store
}

func NewAnalyzer(store storage.Store) *Analyzer {
	return &Analyzer{store: store}
}

// LineageReport is a lineage's full history with its minimum and per-day
// new-low flags, ordered by scraped_date.
type LineageReport struct {
	Retailer  string
	ProductID string
	Deals     []models.Deal
	MinPrice  *int
	NewLow    []bool
}

func (a *Analyzer) Lineage(ctx context.Context, retailer, productID string) (*LineageReport, error) {
	history, err := a.store.LineageHistory(ctx, retailer, productID)
	if err != nil {
		return nil, fmt.Errorf("lineage %s/%s: %w", retailer, productID, err)
	}

	report := &LineageReport{
		Retailer:  retailer,
		ProductID: productID,
		Deals:     history,
		NewLow:    make([]bool, len(history)),
	}

	if min, ok := MinPrice(history); ok {
		report.MinPrice = &min
		for i, d := range history {
			report.NewLow[i] = d.PriceValue != nil && *d.PriceValue == min
		}
	}

	return report, nil
}
