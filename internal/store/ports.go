package store

import (
	"context"

	"trainerworkload/internal/core"
)

// Ports used by the services layer.
type (
	TrainerReader interface {
		// Get returns a copy of the record, or false when username is unknown.
		Get(ctx context.Context, username string) (core.TrainerRecord, bool)
	}

	TrainerWriter interface {
		GetOrCreate(ctx context.Context, username string, seed core.TrainerSeed) core.TrainerRecord

		// Update finds or creates the record and runs fn on it while holding
		// the record's lock. fn must not retain the pointer.
		Update(ctx context.Context, username string, seed core.TrainerSeed, fn func(*core.TrainerRecord)) core.TrainerRecord
	}

	TrainerStore interface {
		TrainerReader
		TrainerWriter
	}
)
