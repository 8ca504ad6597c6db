package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dealtracker/config"
	"dealtracker/httputil"
	"dealtracker/logging"
	"dealtracker/mailer"
	"dealtracker/models"
	"dealtracker/pipeline"
	"dealtracker/render"
	"dealtracker/scheduler"
	"dealtracker/services"
	"dealtracker/storage"
	"dealtracker/workers"
)

var (
	scrapeNow  = flag.Bool("scrape", false, "Run the scrape pipeline once and exit")
	renderNow  = flag.Bool("render", false, "Render the digest page once and exit")
	emailNow   = flag.Bool("email", false, "Email the digest to subscribers once and exit")
	purgeNow   = flag.Bool("purge", false, "Purge snapshots outside the retention window and exit")
	subscribe  = flag.String("subscribe", "", "Add a subscriber email and exit")
	history    = flag.String("history", "", "Print price history for retailer:product_id and exit")
	targetDate = flag.String("date", "", "Target date (YYYY-MM-DD) for -render and -email, defaults to today")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logFile, err := logging.Setup("dealtracker.log")
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting dealtracker...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Loaded %d retailer configs", len(cfg.Retailers))
	for id, r := range cfg.Retailers {
		log.Printf("  - %s (%s)", r.Name, id)
	}

	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	day := *targetDate
	if day == "" {
		day = time.Now().Format(models.DayFormat)
	}

	digests := services.NewDigestService(store)

	// One-shot commands
	switch {
	case *subscribe != "":
		sub, err := store.AddSubscriber(ctx, *subscribe)
		if err != nil {
			log.Fatalf("Subscribe failed: %v", err)
		}
		log.Printf("Subscribed %s (%s)", sub.Email, sub.ID)
		return

	case *history != "":
		retailer, productID, ok := strings.Cut(*history, ":")
		if !ok {
			log.Fatalf("Invalid -history value %q, expected retailer:product_id", *history)
		}
		report, err := services.NewAnalyzer(store).Lineage(ctx, retailer, productID)
		if err != nil {
			log.Fatalf("History lookup failed: %v", err)
		}
		printLineage(report)
		return

	case *purgeNow:
		deleted, err := store.PurgeOlderThan(ctx, cfg.RetentionDays)
		if err != nil {
			log.Fatalf("Purge failed: %v", err)
		}
		log.Printf("Deleted %d snapshots older than %d days", deleted, cfg.RetentionDays)
		return
	}

	clients := httputil.NewClients(cfg.ProxyURL)

	pipe, err := pipeline.New(cfg, store, clients)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	if *scrapeNow {
		log.Println("Running scrape...")
		if err := pipe.RunAll(ctx); err != nil {
			log.Fatalf("Scrape failed: %v", err)
		}
		log.Println("Scrape complete!")
		return
	}

	if *renderNow {
		if err := renderDigest(ctx, cfg, digests, day); err != nil {
			log.Fatalf("Render failed: %v", err)
		}
		return
	}

	if *emailNow {
		if err := emailDigest(ctx, cfg, store, digests, day); err != nil {
			log.Fatalf("Email failed: %v", err)
		}
		return
	}

	// Daemon mode
	cycle := func(ctx context.Context) error {
		if err := pipe.RunAll(ctx); err != nil {
			return err
		}
		today := time.Now().Format(models.DayFormat)
		if err := renderDigest(ctx, cfg, digests, today); err != nil {
			log.Printf("Render error: %v", err)
		}
		if err := emailDigest(ctx, cfg, store, digests, today); err != nil {
			log.Printf("Email error: %v", err)
		}
		return nil
	}

	sched := scheduler.New(cfg, cycle)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	retention := workers.NewRetentionWorker(store, cfg.RetentionDays)
	go retention.Run(ctx, 24*time.Hour)
	sched.SetWorkers(retention)
	log.Println("Retention worker started")

	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	log.Println("Goodbye!")
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DB_DRIVER=postgres requires DATABASE_URL")
		}
		store, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Println("Connected to Postgres")
		return store, nil
	case "sqlite", "":
		store, err := storage.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		log.Printf("SQLite database: %s", cfg.DBPath)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}

// renderDigest writes the digest page for day and publishes it to S3 when
// publishing is configured. An empty digest is an error here so that a broken
// scrape never silently replaces yesterday's page.
func renderDigest(ctx context.Context, cfg *config.Config, digests *services.DigestService, day string) error {
	digest, err := digests.SelectForDate(ctx, day)
	if err != nil {
		return err
	}

	if err := render.WriteFile(cfg.OutputHTML, digest, cfg.SignupEmbed); err != nil {
		return err
	}
	log.Printf("Rendered %d deals for %s to %s", len(digest.Deals), day, cfg.OutputHTML)

	if cfg.Publish.Enabled {
		pub, err := storage.NewPublisher(ctx, cfg.Publish)
		if err != nil {
			return fmt.Errorf("publisher init: %w", err)
		}
		f, err := os.Open(cfg.OutputHTML)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pub.PublishPage(ctx, f); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		log.Printf("Published digest page to %s", pub.PublicURL())
	}
	return nil
}

// emailDigest sends the day's digest. A day with no snapshots is not an
// error for email, there is simply nothing to announce.
func emailDigest(ctx context.Context, cfg *config.Config, store storage.Store, digests *services.DigestService, day string) error {
	digest, err := digests.SelectForDate(ctx, day)
	if err != nil {
		if errors.Is(err, services.ErrEmptyDigest) {
			log.Printf("No deals for %s, skipping digest email", day)
			return nil
		}
		return err
	}

	m, err := mailer.New(cfg.Email, store)
	if err != nil {
		return err
	}
	return m.SendDigest(ctx, digest)
}

func printLineage(report *services.LineageReport) {
	fmt.Printf("History for %s/%s (%d snapshots)\n", report.Retailer, report.ProductID, len(report.Deals))
	if report.MinPrice != nil {
		fmt.Printf("Lineage minimum: %d\n", *report.MinPrice)
	}
	for i, d := range report.Deals {
		price := "-"
		if d.PriceValue != nil {
			price = fmt.Sprintf("%d", *d.PriceValue)
		}
		marker := ""
		if i < len(report.NewLow) && report.NewLow[i] {
			marker = "  <- new low"
		}
		fmt.Printf("  %s  %-10s %s%s\n", d.ScrapedDate, price, d.Price, marker)
	}
}
