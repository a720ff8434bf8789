package services

import (
	"context"
	"fmt"
	"log/slog"

	"trainerworkload/internal/core"
	applog "trainerworkload/internal/log"
	"trainerworkload/internal/store"
)

// WorkloadService aggregates training minutes per trainer, year and month,
// and renders trainer views.
type WorkloadService struct {
	store store.TrainerStore
}

func NewWorkloadService(store store.TrainerStore) *WorkloadService {
	return &WorkloadService{store: store}
}

// Apply routes the event's signed duration to the trainer's month entry,
// creating the trainer, year and month as needed.
func (s *WorkloadService) Apply(ctx context.Context, e core.TrainingEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}

	var total int64
	month := core.MonthName(e.Date)
	s.store.Update(ctx, e.Username, e.Seed(), func(r *core.TrainerRecord) {
		total = r.AddMinutes(e.Date, e.Delta())
	})

	fields := applog.NewFields().
		WithComponent(applog.ComponentWorkload).
		WithOperation(applog.OpApply).
		WithTrainer(e.Username, e.Date.Year(), month)
	fields[applog.FieldAction] = string(e.Action)
	fields[applog.FieldDelta] = e.Delta()
	fields[applog.FieldTotal] = total
	slog.InfoContext(ctx, "Training workload applied", fields.ToSlice()...)

	return nil
}

// GetTrainer is the plain lookup: absence is reported, not an error.
func (s *WorkloadService) GetTrainer(ctx context.Context, username string) (core.TrainerRecord, bool) {
	return s.store.Get(ctx, username)
}

// GetTrainerView returns the monthly workload view of a trainer.
func (s *WorkloadService) GetTrainerView(ctx context.Context, username string) (core.TrainerView, error) {
	if !core.IsValidTrainer(username) {
		return core.TrainerView{}, core.ErrInvalidTrainerData
	}
	rec, ok := s.store.Get(ctx, username)
	if !ok {
		return core.TrainerView{}, fmt.Errorf("%w: %s", core.ErrTrainerNotFound, username)
	}
	return core.NewTrainerView(rec), nil
}
