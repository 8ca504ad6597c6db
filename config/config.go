package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBDriver      string // sqlite or postgres
	DBPath        string
	DatabaseURL   string
	RetentionDays int
	Scheduler     SchedulerConfig
	Email         EmailConfig
	Publish       PublishConfig
	OutputHTML    string
	SignupEmbed   string
	ProxyURL      string
	LogLevel      string
	Retailers     map[string]*RetailerConfig
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

type EmailConfig struct {
	SendGridKey string
	Sender      string
	MaxDeals    int
}

type PublishConfig struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Key             string
}

type RetailerConfig struct {
	ID               string `yaml:"id"`
	Name             string `yaml:"name"`
	Handler          string `yaml:"handler"`
	BaseURL          string `yaml:"base_url"`
	DealsURL         string `yaml:"deals_url"`
	ProductIDPattern string `yaml:"product_id_pattern"`
	ScrollRounds     int    `yaml:"scroll_rounds"`
	ScrollDelayMS    int    `yaml:"scroll_delay_ms"`
	SettleMS         int    `yaml:"settle_ms"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBDriver:      getEnv("DB_DRIVER", "sqlite"),
		DBPath:        getEnv("DB_PATH", "deals.db"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RetentionDays: getEnvInt("RETENTION_DAYS", 30),
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SCRAPE_CRON"),
		},
		Email: EmailConfig{
			SendGridKey: os.Getenv("SENDGRID_API_KEY"),
			Sender:      getEnv("DIGEST_SENDER", "deals@localhost"),
			MaxDeals:    getEnvInt("DIGEST_MAX_DEALS", 10),
		},
		Publish: PublishConfig{
			Enabled:         os.Getenv("PUBLISH_S3") == "true",
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			Key:             getEnv("S3_KEY", "index.html"),
		},
		OutputHTML:  getEnv("OUTPUT_HTML", "index.html"),
		SignupEmbed: os.Getenv("SIGNUP_EMBED_HTML"),
		ProxyURL:    os.Getenv("PROXY_URL"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Retailers:   make(map[string]*RetailerConfig),
	}

	if interval := os.Getenv("SCRAPE_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadRetailerConfigs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadRetailerConfigs() error {
	configDir := "config/retailers"
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(configDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var retailer RetailerConfig
		if err := yaml.Unmarshal(data, &retailer); err != nil {
			return err
		}

		c.Retailers[retailer.ID] = &retailer
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
