package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"dealtracker/config"
)

// Triggerable allows workers to be triggered manually
type Triggerable interface {
	Trigger()
}

// Scheduler runs the daily tracking cycle on a cron expression or a fixed
// interval, whichever is configured.
type Scheduler struct {
	cfg    *config.Config
	cycle  func(ctx context.Context) error
	cron   *cron.Cron
	ticker *time.Ticker
	stopCh chan struct{}

	retentionWorker Triggerable
}

func New(cfg *config.Config, cycle func(ctx context.Context) error) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		cycle:  cycle,
		cron:   cron.New(),
		stopCh: make(chan struct{}),
	}
}

// SetWorkers registers background workers for manual triggering
func (s *Scheduler) SetWorkers(retention Triggerable) {
	s.retentionWorker = retention
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Scheduler.Cron != "" {
		log.Printf("Starting scheduler with cron: %s", s.cfg.Scheduler.Cron)
		_, err := s.cron.AddFunc(s.cfg.Scheduler.Cron, func() {
			s.runCycle(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	} else if s.cfg.Scheduler.Interval > 0 {
		log.Printf("Starting scheduler with interval: %s", s.cfg.Scheduler.Interval)
		s.ticker = time.NewTicker(s.cfg.Scheduler.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.runCycle(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		log.Println("No schedule configured, daemon is idle until stopped")
	}

	return nil
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if err := s.cycle(ctx); err != nil {
		log.Printf("Scheduled run error: %v", err)
	}
	if s.retentionWorker != nil {
		s.retentionWorker.Trigger()
	}
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}
