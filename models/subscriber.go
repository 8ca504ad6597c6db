package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscriber receives the daily new-low email digest.
type Subscriber struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	SubscribedAt time.Time `json:"subscribed_at" db:"subscribed_at"`
}
