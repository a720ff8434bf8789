package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"trainerworkload/internal/amqp"
	"trainerworkload/internal/core"
	"trainerworkload/internal/ingest"
	applog "trainerworkload/internal/log"
)

// EventHandler is the ingestion adapter as seen by the worker.
type EventHandler interface {
	Handle(ctx context.Context, raw ingest.RawEvent) error
}

// IngestWorker feeds queued training messages to the ingestion adapter.
type IngestWorker struct {
	adapter EventHandler
}

func NewIngestWorker(adapter EventHandler) *IngestWorker {
	return &IngestWorker{adapter: adapter}
}

// HandleTrainingMessage applies one message. Errors caused by the payload
// itself are marked with amqp.ErrRejected so the message is not redelivered.
func (w *IngestWorker) HandleTrainingMessage(ctx context.Context, msg *amqp.TrainingMessage) error {
	slog.DebugContext(ctx, "Processing training message",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldMessageID, msg.MessageID,
		applog.FieldUsername, msg.Username)

	err := w.adapter.Handle(ctx, msg.RawEvent)
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrMalformedEvent) || errors.Is(err, core.ErrInvalidTrainerData) {
		return fmt.Errorf("%w: %w", amqp.ErrRejected, err)
	}
	return fmt.Errorf("apply training message: %w", err)
}
