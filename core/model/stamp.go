package model

import (
	"time"

	"github.com/google/uuid"
)

// StampCreated assigns a fresh identifier when id is nil and returns the
// creation timestamp truncated to the precision kept by the stores.
func StampCreated(id *uuid.UUID, now time.Time) time.Time {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	return now.UTC().Truncate(time.Microsecond)
}

// StampNow returns a pointer to the normalized timestamp.
func StampNow(now time.Time) *time.Time {
	t := now.UTC().Truncate(time.Microsecond)
	return &t
}
