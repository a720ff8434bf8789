package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"trainerworkload/internal/core"
)

var nov2024 = time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC)

func TestGetAbsent(t *testing.T) {
	s := New()
	if _, ok := s.Get(context.Background(), "ghost"); ok {
		t.Fatalf("expected absent")
	}
	if s.Len() != 0 {
		t.Fatalf("lookup must not create records")
	}
}

func TestGetOrCreateKeepsFirstSeed(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := s.GetOrCreate(ctx, "alice", core.TrainerSeed{FirstName: "Alice", Status: core.StatusActive})
	if r.FirstName != "Alice" || r.Status != core.StatusActive {
		t.Fatalf("unexpected record: %+v", r)
	}

	r = s.GetOrCreate(ctx, "alice", core.TrainerSeed{FirstName: "Other", Status: core.StatusInactive})
	if r.FirstName != "Alice" || r.Status != core.StatusActive {
		t.Fatalf("record was replaced: %+v", r)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d", s.Len())
	}
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Update(ctx, "alice", core.TrainerSeed{}, func(r *core.TrainerRecord) {
		r.AddMinutes(nov2024, 10)
	})

	r, _ := s.Get(ctx, "alice")
	r.Years[0].Months[0].Minutes = 1000

	again, _ := s.Get(ctx, "alice")
	if again.Years[0].Months[0].Minutes != 10 {
		t.Fatalf("caller mutated stored record: %+v", again.Years)
	}
}

func TestConcurrentUpdatesAreNotLost(t *testing.T) {
	ctx := context.Background()
	s := New()

	const workers, perWorker = 16, 200
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s.Update(ctx, "shared", core.TrainerSeed{}, func(r *core.TrainerRecord) {
					r.AddMinutes(nov2024, 1)
				})
			}
		}()
	}
	wg.Wait()

	r, ok := s.Get(ctx, "shared")
	if !ok {
		t.Fatalf("record missing")
	}
	if len(r.Years) != 1 || len(r.Years[0].Months) != 1 {
		t.Fatalf("duplicate entries created: %+v", r.Years)
	}
	if got := r.Years[0].Months[0].Minutes; got != workers*perWorker {
		t.Fatalf("total = %d, want %d", got, workers*perWorker)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d", s.Len())
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	// Missing file -> empty store
	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil || s.Len() != 0 {
		t.Fatalf("missing file: len=%d err=%v", s.Len(), err)
	}

	path := filepath.Join(dir, "seed.json")
	content := `[
		{"username": "test_trainer", "firstName": "John", "lastName": "Doe", "status": "active",
		 "years": [{"year": 2024, "months": [{"month": "november", "minutes": 10}]}]},
		{"username": "test_trainer", "firstName": "Dup"}
	]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}
	r, ok := s.Get(context.Background(), "test_trainer")
	if !ok {
		t.Fatalf("seeded trainer missing")
	}
	if r.FirstName != "John" || r.Status != core.StatusActive {
		t.Fatalf("unexpected seeded record: %+v", r)
	}
	if r.Years[0].Months[0].Minutes != 10 {
		t.Fatalf("unexpected seeded minutes: %+v", r.Years)
	}
}

func TestNewFromFileErrors(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(name, content string) string {
		t.Helper()
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}

	if _, err := NewFromFile(mustWrite("bad.json", "{not json")); err == nil {
		t.Fatalf("expected decode error")
	}
	_, err := NewFromFile(mustWrite("blank.json", `[{"username": "  "}]`))
	if !errors.Is(err, core.ErrInvalidTrainerData) {
		t.Fatalf("expected ErrInvalidTrainerData, got %v", err)
	}

	tests := []struct {
		name    string
		content string
	}{
		{"unknown status", `[{"username": "t1", "status": "retired"}]`},
		{"repeated year", `[{"username": "t1", "years": [{"year": 2024}, {"year": 2024}]}]`},
		{"repeated month", `[{"username": "t1", "years": [{"year": 2024, "months": [
			{"month": "november", "minutes": 1}, {"month": "november", "minutes": 2}]}]}]`},
		{"unknown month", `[{"username": "t1", "years": [{"year": 2024, "months": [{"month": "smarch", "minutes": 3}]}]}]`},
		{"capitalized month", `[{"username": "t1", "years": [{"year": 2024, "months": [{"month": "November", "minutes": 3}]}]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFromFile(mustWrite(strings.ReplaceAll(tt.name, " ", "_")+".json", tt.content))
			if !errors.Is(err, core.ErrInvalidRecord) {
				t.Fatalf("expected ErrInvalidRecord, got %v", err)
			}
		})
	}
}

func TestSeedIsAllOrNothing(t *testing.T) {
	s := New()
	good := core.TrainerRecord{Username: "good"}
	bad := core.TrainerRecord{Username: "bad", Status: "retired"}
	if err := s.Seed(good, bad); !errors.Is(err, core.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("failed seed inserted %d records", s.Len())
	}
}
