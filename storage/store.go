package storage

import (
	"context"

	"dealtracker/models"
)

// Store is the durable, idempotent append-only log of deal snapshots.
// Backends resolve duplicate (retailer, product_id, scraped_date) keys via
// their native uniqueness constraint, so concurrent appenders racing on the
// same key observe a no-op rather than an error.
type Store interface {
	// AppendDeals inserts each snapshot independently, ignoring rows whose
	// key already exists, and returns the count actually inserted.
	AppendDeals(ctx context.Context, deals []models.Deal) (int, error)

	// DealsOn returns every snapshot recorded for the given day joined with
	// its lineage's historic minimum, ordered price ascending with unpriced
	// snapshots last.
	DealsOn(ctx context.Context, day string) ([]models.DigestEntry, error)

	// LineageHistory returns all snapshots for one (retailer, product_id)
	// pair ordered by scraped_date.
	LineageHistory(ctx context.Context, retailer, productID string) ([]models.Deal, error)

	// PurgeOlderThan deletes snapshots dated strictly before today-days and
	// returns the count removed. The boundary day itself is retained.
	PurgeOlderThan(ctx context.Context, days int) (int64, error)

	CreateRun(ctx context.Context, run *models.IngestRun) (int64, error)
	UpdateRun(ctx context.Context, run *models.IngestRun) error
	Log(ctx context.Context, runID *int64, level models.LogLevel, message, retailer string) error

	AddSubscriber(ctx context.Context, email string) (*models.Subscriber, error)
	Subscribers(ctx context.Context) ([]models.Subscriber, error)

	Close() error
}
