package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"dealtracker/config"
	"dealtracker/fetch"
	"dealtracker/httputil"
	"dealtracker/models"
	"dealtracker/normalize"
	"dealtracker/services"
	"dealtracker/storage"
)

// Pipeline runs the per-retailer ingestion cycle: fetch raw listings,
// normalize, append to the price store, and record the run. Retailers are
// independent; one failing never stops the others.
type Pipeline struct {
	cfg         *config.Config
	store       storage.Store
	ingest      *services.IngestService
	fetchers    map[string]fetch.Fetcher
	normalizers map[string]*normalize.Normalizer
}

func New(cfg *config.Config, store storage.Store, clients *httputil.Clients) (*Pipeline, error) {
	p := &Pipeline{
		cfg:         cfg,
		store:       store,
		ingest:      services.NewIngestService(store),
		fetchers:    make(map[string]fetch.Fetcher),
		normalizers: make(map[string]*normalize.Normalizer),
	}

	for id, retailerCfg := range cfg.Retailers {
		fetcher, err := fetch.New(retailerCfg, clients)
		if err != nil {
			return nil, err
		}
		p.fetchers[id] = fetcher

		normalizer, err := normalize.New(id, retailerCfg.ProductIDPattern, nil)
		if err != nil {
			return nil, fmt.Errorf("retailer %s: %w", id, err)
		}
		p.normalizers[id] = normalizer
	}

	return p, nil
}

func (p *Pipeline) RunAll(ctx context.Context) error {
	for id := range p.cfg.Retailers {
		if err := p.RunRetailer(ctx, id); err != nil {
			log.Printf("Error running retailer %s: %v", id, err)
		}
	}
	return nil
}

func (p *Pipeline) RunRetailer(ctx context.Context, retailerID string) error {
	fetcher, ok := p.fetchers[retailerID]
	if !ok {
		return fmt.Errorf("unknown retailer: %s", retailerID)
	}
	normalizer := p.normalizers[retailerID]

	run := &models.IngestRun{
		Retailer:  retailerID,
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}

	runID, err := p.store.CreateRun(ctx, run)
	if err != nil {
		return err
	}
	run.ID = runID

	defer func() {
		now := time.Now()
		run.FinishedAt = &now
		if err := p.store.UpdateRun(ctx, run); err != nil {
			log.Printf("Error updating run %d: %v", run.ID, err)
		}
	}()

	p.log(ctx, run.ID, models.LogLevelInfo, fmt.Sprintf("Starting ingestion for %s", retailerID), retailerID)

	raws, err := fetcher.Fetch(ctx)
	if err != nil {
		run.Status = models.RunStatusFailed
		run.ErrorsCount++
		p.log(ctx, run.ID, models.LogLevelError, fmt.Sprintf("Fetch error: %v", err), retailerID)
		return err
	}

	day := time.Now().Format(models.DayFormat)
	result, err := p.ingest.ProcessBatch(ctx, normalizer, raws, day)
	run.ListingsFound = result.Found
	run.ListingsNew = result.Inserted
	run.Malformed = result.Malformed
	if err != nil {
		// Some snapshots in the batch failed to write; the rest are in.
		run.ErrorsCount++
		p.log(ctx, run.ID, models.LogLevelWarn, fmt.Sprintf("Partial append: %v", err), retailerID)
	}

	run.Status = models.RunStatusCompleted
	p.log(ctx, run.ID, models.LogLevelInfo,
		fmt.Sprintf("Completed: %d found, %d malformed, %d new (duplicates ignored)",
			result.Found, result.Malformed, result.Inserted), retailerID)

	return nil
}

func (p *Pipeline) RetailerIDs() []string {
	var ids []string
	for id := range p.cfg.Retailers {
		ids = append(ids, id)
	}
	return ids
}

func (p *Pipeline) log(ctx context.Context, runID int64, level models.LogLevel, message, retailer string) {
	log.Printf("[%s] %s: %s", level, retailer, message)
	if err := p.store.Log(ctx, &runID, level, message, retailer); err != nil {
		log.Printf("Error writing run log: %v", err)
	}
}
