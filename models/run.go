package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IngestRun records one retailer's ingestion cycle.
type IngestRun struct {
	ID            int64      `json:"id" db:"id"`
	Retailer      string     `json:"retailer" db:"retailer"`
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	FinishedAt    *time.Time `json:"finished_at" db:"finished_at"`
	Status        RunStatus  `json:"status" db:"status"`
	ListingsFound int        `json:"listings_found" db:"listings_found"`
	ListingsNew   int        `json:"listings_new" db:"listings_new"`
	Malformed     int        `json:"malformed" db:"malformed"`
	ErrorsCount   int        `json:"errors_count" db:"errors_count"`
}
