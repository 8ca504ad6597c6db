package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dealtracker/models"
)

// PostgresStore is the pgx-backed Store for deployments that outgrow the
// single-file database. Semantics are identical to SQLiteStore; the
// uniqueness constraint on (retailer, product_id, scraped_date) resolves
// append races in both backends.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var pgMigrations = []string{
	`CREATE TABLE IF NOT EXISTS deals (
		id BIGSERIAL PRIMARY KEY,
		retailer TEXT NOT NULL,
		product_id TEXT NOT NULL,
		title TEXT,
		url TEXT,
		price TEXT,
		orig_price TEXT,
		image TEXT,
		scraped_date TEXT NOT NULL,
		UNIQUE(retailer, product_id, scraped_date)
	);
	CREATE INDEX IF NOT EXISTS idx_deals_date ON deals(scraped_date);
	CREATE INDEX IF NOT EXISTS idx_deals_lineage ON deals(retailer, product_id);`,

	`ALTER TABLE deals ADD COLUMN IF NOT EXISTS price_value INTEGER;`,

	`ALTER TABLE deals ADD COLUMN IF NOT EXISTS category TEXT;`,

	`CREATE TABLE IF NOT EXISTS ingest_runs (
		id BIGSERIAL PRIMARY KEY,
		retailer TEXT,
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ,
		status TEXT,
		listings_found INTEGER,
		listings_new INTEGER,
		malformed INTEGER,
		errors_count INTEGER
	);
	CREATE TABLE IF NOT EXISTS ingest_logs (
		id BIGSERIAL PRIMARY KEY,
		run_id BIGINT,
		timestamp TIMESTAMPTZ,
		level TEXT,
		message TEXT,
		retailer TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_logs_run ON ingest_logs(run_id, timestamp);`,

	`CREATE TABLE IF NOT EXISTS subscribers (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		subscribed_at TIMESTAMPTZ DEFAULT NOW()
	);`,
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`)
	if err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var version int
	err = s.pool.QueryRow(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err == pgx.ErrNoRows {
		if _, err := s.pool.Exec(ctx, `INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema_version: %w", err)
		}
		version = 0
	} else if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := version; i < len(pgMigrations); i++ {
		if _, err := s.pool.Exec(ctx, pgMigrations[i]); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := s.pool.Exec(ctx, `UPDATE schema_version SET version = $1`, i+1); err != nil {
			return fmt.Errorf("stamp migration %d: %w", i+1, err)
		}
	}

	return nil
}

func (s *PostgresStore) AppendDeals(ctx context.Context, deals []models.Deal) (int, error) {
	inserted := 0
	failed := 0
	var lastErr error
	for _, d := range deals {
		tag, err := s.pool.Exec(ctx, `
			INSERT INTO deals
				(retailer, product_id, title, url, price, price_value, orig_price, category, image, scraped_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (retailer, product_id, scraped_date) DO NOTHING`,
			d.Retailer, d.ProductID, d.Title, d.URL, d.Price,
			d.PriceValue, emptyToNil(d.OrigPrice), emptyToNil(d.Category), emptyToNil(d.Image), d.ScrapedDate)
		if err != nil {
			failed++
			lastErr = err
			continue
		}
		if tag.RowsAffected() > 0 {
			inserted++
		}
	}

	if lastErr != nil {
		return inserted, fmt.Errorf("append: %d of %d snapshots failed: %w", failed, len(deals), lastErr)
	}
	return inserted, nil
}

func (s *PostgresStore) DealsOn(ctx context.Context, day string) ([]models.DigestEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT d.retailer, d.title, d.price, d.orig_price, d.url, d.image,
			COALESCE(d.category, 'Other'),
			d.price_value,
			(d.price_value IS NOT NULL AND d.price_value = m.min_price)
		FROM deals AS d
		LEFT JOIN (
			SELECT retailer, product_id, MIN(price_value) AS min_price
			FROM deals
			WHERE price_value IS NOT NULL
			GROUP BY retailer, product_id
		) AS m
			ON d.retailer = m.retailer AND d.product_id = m.product_id
		WHERE d.scraped_date = $1
		ORDER BY d.price_value ASC NULLS LAST`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.DigestEntry
	for rows.Next() {
		var e models.DigestEntry
		var orig, image *string
		if err := rows.Scan(&e.Retailer, &e.Title, &e.Price, &orig, &e.URL, &image,
			&e.Category, &e.PriceValue, &e.IsNewLow); err != nil {
			return nil, err
		}
		if orig != nil {
			e.OrigPrice = *orig
		}
		if image != nil {
			e.Image = *image
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) LineageHistory(ctx context.Context, retailer, productID string) ([]models.Deal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, retailer, product_id, title, url, price, price_value, orig_price,
			COALESCE(category, 'Other'), image, scraped_date
		FROM deals WHERE retailer = $1 AND product_id = $2
		ORDER BY scraped_date`, retailer, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deals []models.Deal
	for rows.Next() {
		var d models.Deal
		var orig, image *string
		if err := rows.Scan(&d.ID, &d.Retailer, &d.ProductID, &d.Title, &d.URL, &d.Price,
			&d.PriceValue, &orig, &d.Category, &image, &d.ScrapedDate); err != nil {
			return nil, err
		}
		if orig != nil {
			d.OrigPrice = *orig
		}
		if image != nil {
			d.Image = *image
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

func (s *PostgresStore) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days).Format(models.DayFormat)
	tag, err := s.pool.Exec(ctx, `DELETE FROM deals WHERE scraped_date < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, run *models.IngestRun) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO ingest_runs (retailer, started_at, status, listings_found, listings_new, malformed, errors_count)
		VALUES ($1, $2, $3, 0, 0, 0, 0)
		RETURNING id`,
		run.Retailer, run.StartedAt, run.Status).Scan(&id)
	return id, err
}

func (s *PostgresStore) UpdateRun(ctx context.Context, run *models.IngestRun) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE ingest_runs SET finished_at = $1, status = $2, listings_found = $3,
			listings_new = $4, malformed = $5, errors_count = $6
		WHERE id = $7`,
		run.FinishedAt, run.Status, run.ListingsFound,
		run.ListingsNew, run.Malformed, run.ErrorsCount, run.ID)
	return err
}

func (s *PostgresStore) Log(ctx context.Context, runID *int64, level models.LogLevel, message, retailer string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ingest_logs (run_id, timestamp, level, message, retailer)
		VALUES ($1, $2, $3, $4, $5)`,
		runID, time.Now(), level, message, retailer)
	return err
}

func (s *PostgresStore) AddSubscriber(ctx context.Context, email string) (*models.Subscriber, error) {
	sub := &models.Subscriber{
		ID:           uuid.New(),
		Email:        email,
		SubscribedAt: time.Now(),
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO subscribers (id, email, subscribed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO NOTHING`,
		sub.ID, sub.Email, sub.SubscribedAt)
	if err != nil {
		return nil, err
	}

	if tag.RowsAffected() == 0 {
		err := s.pool.QueryRow(ctx, `
			SELECT id, email, subscribed_at FROM subscribers WHERE email = $1`, email).
			Scan(&sub.ID, &sub.Email, &sub.SubscribedAt)
		if err != nil {
			return nil, err
		}
	}

	return sub, nil
}

func (s *PostgresStore) Subscribers(ctx context.Context) ([]models.Subscriber, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, email, subscribed_at FROM subscribers ORDER BY subscribed_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.Subscriber
	for rows.Next() {
		var sub models.Subscriber
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.SubscribedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
