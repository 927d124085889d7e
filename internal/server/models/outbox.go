package models

import "time"

// OutboxEvent is one append-only outbox row, written in the same
// transaction as the entry mutations it describes and later drained to the
// downstream event store by the relay.
type OutboxEvent struct {
	ID          int64
	EventType   string
	UserID      string
	Payload     []byte
	Processed   bool
	CreatedAt   time.Time
	ProcessedAt *time.Time
}
