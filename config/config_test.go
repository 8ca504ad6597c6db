package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"DB_DRIVER", "DB_PATH", "RETENTION_DAYS", "DIGEST_MAX_DEALS",
		"SCRAPE_CRON", "SCRAPE_INTERVAL", "OUTPUT_HTML", "S3_KEY",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("expected sqlite default, got %s", cfg.DBDriver)
	}
	if cfg.DBPath != "deals.db" {
		t.Fatalf("unexpected db path %s", cfg.DBPath)
	}
	if cfg.RetentionDays != 30 {
		t.Fatalf("expected 30 day retention, got %d", cfg.RetentionDays)
	}
	if cfg.Email.MaxDeals != 10 {
		t.Fatalf("expected 10 max deals, got %d", cfg.Email.MaxDeals)
	}
	if cfg.Scheduler.Cron != "" || cfg.Scheduler.Interval != 0 {
		t.Fatalf("expected no schedule by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://deals:x@localhost/deals")
	t.Setenv("RETENTION_DAYS", "7")
	t.Setenv("SCRAPE_INTERVAL", "6h")
	t.Setenv("SCRAPE_CRON", "0 8 * * *")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("unexpected driver %s", cfg.DBDriver)
	}
	if cfg.DatabaseURL != "postgres://deals:x@localhost/deals" {
		t.Fatalf("unexpected database url %s", cfg.DatabaseURL)
	}
	if cfg.RetentionDays != 7 {
		t.Fatalf("unexpected retention %d", cfg.RetentionDays)
	}
	if cfg.Scheduler.Interval != 6*time.Hour {
		t.Fatalf("unexpected interval %s", cfg.Scheduler.Interval)
	}
	if cfg.Scheduler.Cron != "0 8 * * *" {
		t.Fatalf("unexpected cron %s", cfg.Scheduler.Cron)
	}
}

func TestLoadRetailerConfigs(t *testing.T) {
	dir := t.TempDir()
	retailersDir := filepath.Join(dir, "config", "retailers")
	if err := os.MkdirAll(retailersDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	yaml := `id: takealot
name: Takealot
handler: browser
base_url: https://www.takealot.com
deals_url: https://www.takealot.com/deals
product_id_pattern: '/PLID(\d+)'
scroll_rounds: 15
settle_ms: 7000
`
	if err := os.WriteFile(filepath.Join(retailersDir, "takealot.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(oldWD) })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	r, ok := cfg.Retailers["takealot"]
	if !ok {
		t.Fatalf("takealot config not loaded")
	}
	if r.Name != "Takealot" || r.Handler != "browser" {
		t.Fatalf("unexpected retailer config %+v", r)
	}
	if r.ProductIDPattern != `/PLID(\d+)` {
		t.Fatalf("unexpected pattern %s", r.ProductIDPattern)
	}
	if r.ScrollRounds != 15 || r.SettleMS != 7000 {
		t.Fatalf("unexpected scroll config %+v", r)
	}
}
