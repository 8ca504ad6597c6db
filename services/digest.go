package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"dealtracker/models"
	"dealtracker/storage"
)

// ErrEmptyDigest is returned when no snapshots exist for the target date.
// Callers decide whether that is fatal: the page renderer aborts loudly
// rather than publish an empty page, the mailer sends a no-deals notice.
var ErrEmptyDigest = errors.New("no deals for target date")

// Digest is the ordered, categorized selection renderers consume.
type Digest struct {
	Date       string
	Deals      []models.DigestEntry
	Categories []string
}

// DigestService selects a day's snapshots, annotated with the new-low flag,
// for the page renderer and the mailer.
type DigestService struct {
	store storage.Store
}

func NewDigestService(store storage.Store) *DigestService {
	return &DigestService{store: store}
}

// SelectForDate returns all snapshots for the given day ordered cheapest
// first (unpriced last), with each entry's category rewritten to the
// "Retailer • Category" label the filter UI groups by, plus the distinct
// sorted label set.
func (s *DigestService) SelectForDate(ctx context.Context, day string) (*Digest, error) {
	entries, err := s.store.DealsOn(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("select deals for %s: %w", day, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDigest, day)
	}

	seen := make(map[string]bool)
	var categories []string
	for i := range entries {
		label := displayCategory(entries[i].Retailer, entries[i].Category)
		entries[i].Category = label
		if !seen[label] {
			seen[label] = true
			categories = append(categories, label)
		}
	}
	sort.Strings(categories)

	return &Digest{Date: day, Deals: entries, Categories: categories}, nil
}

// NewLows filters a digest down to its new-low entries, keeping order
// (cheapest first) and capping at max when max > 0.
func NewLows(deals []models.DigestEntry, max int) []models.DigestEntry {
	var lows []models.DigestEntry
	for _, d := range deals {
		if !d.IsNewLow {
			continue
		}
		lows = append(lows, d)
		if max > 0 && len(lows) == max {
			break
		}
	}
	return lows
}

func displayCategory(retailer, category string) string {
	if category == "" {
		category = "Other"
	}
	return capitalize(retailer) + " • " + category
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
