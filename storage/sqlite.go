package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"dealtracker/models"
)

type SQLiteStore struct {
	db *sql.DB
}

// migrations is the ordered schema history, gated on PRAGMA user_version.
// A database created by an earlier deployment picks up from wherever it
// stopped; price_value and category arrived after the first schema shipped,
// so upgraded databases keep their existing rows with nulls in the new
// columns.
var migrations = []string{
	// 1: base deals log
	`CREATE TABLE IF NOT EXISTS deals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
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

	// 2: numeric price for low-price comparison
	`ALTER TABLE deals ADD COLUMN price_value INTEGER;`,

	// 3: advisory category metadata
	`ALTER TABLE deals ADD COLUMN category TEXT;`,

	// 4: ingestion run bookkeeping
	`CREATE TABLE IF NOT EXISTS ingest_runs (
		id INTEGER PRIMARY KEY,
		retailer TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		listings_found INTEGER,
		listings_new INTEGER,
		malformed INTEGER,
		errors_count INTEGER
	);
	CREATE TABLE IF NOT EXISTS ingest_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		retailer TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_logs_run ON ingest_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON ingest_runs(status, started_at);`,

	// 5: email digest subscribers
	`CREATE TABLE IF NOT EXISTS subscribers (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		subscribed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`,
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	var version int
	if err := s.db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		if _, err := s.db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := s.db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, i+1)); err != nil {
			return fmt.Errorf("stamp migration %d: %w", i+1, err)
		}
	}

	return nil
}

// AppendDeals inserts each snapshot with INSERT OR IGNORE keyed on
// (retailer, product_id, scraped_date). One malformed snapshot doesn't stop
// the rest of the batch; duplicates are silent no-ops excluded from the
// returned count.
func (s *SQLiteStore) AppendDeals(ctx context.Context, deals []models.Deal) (int, error) {
	stmt, err := s.db.PrepareContext(ctx, `
		INSERT OR IGNORE INTO deals
			(retailer, product_id, title, url, price, price_value, orig_price, category, image, scraped_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare append: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	failed := 0
	var lastErr error
	for _, d := range deals {
		result, err := stmt.ExecContext(ctx,
			d.Retailer, d.ProductID, d.Title, d.URL, d.Price,
			d.PriceValue, nullStr(d.OrigPrice), nullStr(d.Category), nullStr(d.Image), d.ScrapedDate)
		if err != nil {
			failed++
			lastErr = err
			continue
		}
		if n, _ := result.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if lastErr != nil {
		return inserted, fmt.Errorf("append: %d of %d snapshots failed: %w", failed, len(deals), lastErr)
	}
	return inserted, nil
}

// DealsOn joins the day's snapshots against each lineage's minimum non-null
// price. The join is LEFT so unpriced snapshots stay visible to renderers;
// they sort last and are never flagged as a new low.
func (s *SQLiteStore) DealsOn(ctx context.Context, day string) ([]models.DigestEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.retailer, d.title, d.price, d.orig_price, d.url, d.image,
			COALESCE(d.category, 'Other'),
			d.price_value,
			CASE WHEN d.price_value IS NOT NULL AND d.price_value = m.min_price THEN 1 ELSE 0 END
		FROM deals AS d
		LEFT JOIN (
			SELECT retailer, product_id, MIN(price_value) AS min_price
			FROM deals
			WHERE price_value IS NOT NULL
			GROUP BY retailer, product_id
		) AS m
			ON d.retailer = m.retailer AND d.product_id = m.product_id
		WHERE d.scraped_date = ?
		ORDER BY d.price_value IS NULL, d.price_value ASC`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.DigestEntry
	for rows.Next() {
		var e models.DigestEntry
		var orig, image sql.NullString
		var priceValue sql.NullInt64
		var newLow int
		if err := rows.Scan(&e.Retailer, &e.Title, &e.Price, &orig, &e.URL, &image,
			&e.Category, &priceValue, &newLow); err != nil {
			return nil, err
		}
		e.OrigPrice = orig.String
		e.Image = image.String
		if priceValue.Valid {
			v := int(priceValue.Int64)
			e.PriceValue = &v
		}
		e.IsNewLow = newLow == 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) LineageHistory(ctx context.Context, retailer, productID string) ([]models.Deal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, retailer, product_id, title, url, price, price_value, orig_price,
			COALESCE(category, 'Other'), image, scraped_date
		FROM deals WHERE retailer = ? AND product_id = ?
		ORDER BY scraped_date`, retailer, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deals []models.Deal
	for rows.Next() {
		var d models.Deal
		var orig, image sql.NullString
		var priceValue sql.NullInt64
		if err := rows.Scan(&d.ID, &d.Retailer, &d.ProductID, &d.Title, &d.URL, &d.Price,
			&priceValue, &orig, &d.Category, &image, &d.ScrapedDate); err != nil {
			return nil, err
		}
		d.OrigPrice = orig.String
		d.Image = image.String
		if priceValue.Valid {
			v := int(priceValue.Int64)
			d.PriceValue = &v
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// PurgeOlderThan removes snapshots dated strictly before today-days. The
// cutoff is exclusive: a snapshot exactly days old is retained.
func (s *SQLiteStore) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days).Format(models.DayFormat)
	result, err := s.db.ExecContext(ctx, `DELETE FROM deals WHERE scraped_date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge: %w", err)
	}
	return result.RowsAffected()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run *models.IngestRun) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (retailer, started_at, status, listings_found, listings_new, malformed, errors_count)
		VALUES (?, ?, ?, 0, 0, 0, 0)`,
		run.Retailer, run.StartedAt, run.Status)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(ctx context.Context, run *models.IngestRun) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE ingest_runs SET finished_at = ?, status = ?, listings_found = ?,
			listings_new = ?, malformed = ?, errors_count = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.ListingsFound,
		run.ListingsNew, run.Malformed, run.ErrorsCount, run.ID)
	return err
}

func (s *SQLiteStore) Log(ctx context.Context, runID *int64, level models.LogLevel, message, retailer string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingest_logs (run_id, timestamp, level, message, retailer)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, retailer)
	return err
}

// AddSubscriber registers an email for the digest, returning the existing
// record when the address is already subscribed.
func (s *SQLiteStore) AddSubscriber(ctx context.Context, email string) (*models.Subscriber, error) {
	sub := &models.Subscriber{
		ID:           uuid.New(),
		Email:        email,
		SubscribedAt: time.Now(),
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO subscribers (id, email, subscribed_at)
		VALUES (?, ?, ?)`,
		sub.ID.String(), sub.Email, sub.SubscribedAt)
	if err != nil {
		return nil, err
	}

	if n, _ := result.RowsAffected(); n == 0 {
		row := s.db.QueryRowContext(ctx, `
			SELECT id, email, subscribed_at FROM subscribers WHERE email = ?`, email)
		var id string
		if err := row.Scan(&id, &sub.Email, &sub.SubscribedAt); err != nil {
			return nil, err
		}
		sub.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, err
		}
	}

	return sub, nil
}

func (s *SQLiteStore) Subscribers(ctx context.Context) ([]models.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, subscribed_at FROM subscribers ORDER BY subscribed_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.Subscriber
	for rows.Next() {
		var sub models.Subscriber
		var id string
		if err := rows.Scan(&id, &sub.Email, &sub.SubscribedAt); err != nil {
			return nil, err
		}
		if sub.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
