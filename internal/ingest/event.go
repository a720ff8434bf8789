// Package ingest turns externally sourced training payloads into canonical
// core.TrainingEvent values and hands them to the aggregation engine.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"trainerworkload/internal/core"
)

const dateLayout = "2006-01-02"

// RawEvent is a training payload as it arrives on the wire. Nothing in it
// has been checked yet.
type RawEvent struct {
	Username   string      `json:"trainerUsername"`
	FirstName  string      `json:"trainerFirstName,omitempty"`
	LastName   string      `json:"trainerLastName,omitempty"`
	Active     bool        `json:"active"`
	Date       string      `json:"trainingDate"`
	Duration   json.Number `json:"trainingDuration"`
	ActionType string      `json:"actionType,omitempty"`
}

// Applier is the aggregation engine as seen by the adapter.
type Applier interface {
	Apply(ctx context.Context, e core.TrainingEvent) error
}

// Adapter is the only entry point for untyped training payloads.
type Adapter struct {
	engine Applier
}

func NewAdapter(engine Applier) *Adapter {
	return &Adapter{engine: engine}
}

// Handle checks the payload shape and applies the resulting event.
// Shape failures wrap core.ErrMalformedEvent and never reach the engine.
func (a *Adapter) Handle(ctx context.Context, raw RawEvent) error {
	e, err := Parse(raw)
	if err != nil {
		return err
	}
	return a.engine.Apply(ctx, e)
}

// Decode unmarshals a single JSON payload. Unknown fields are ignored,
// anything after the first value is not.
func Decode(data []byte) (RawEvent, error) {
	var raw RawEvent
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return RawEvent{}, fmt.Errorf("%w: %v", core.ErrMalformedEvent, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return RawEvent{}, fmt.Errorf("%w: trailing data after event", core.ErrMalformedEvent)
	}
	return raw, nil
}

// Parse converts raw into a canonical event.
func Parse(raw RawEvent) (core.TrainingEvent, error) {
	date, err := parseDate(raw.Date)
	if err != nil {
		return core.TrainingEvent{}, err
	}
	duration, err := parseDuration(raw.Duration)
	if err != nil {
		return core.TrainingEvent{}, err
	}
	action, err := ParseAction(raw.ActionType)
	if err != nil {
		return core.TrainingEvent{}, err
	}
	return core.TrainingEvent{
		Username:  raw.Username,
		FirstName: raw.FirstName,
		LastName:  raw.LastName,
		Active:    raw.Active,
		Date:      date,
		Duration:  duration,
		Action:    action,
	}, nil
}

// ParseAction accepts ADD, DELETE and REMOVE in any case. Empty means ADD.
func ParseAction(s string) (core.ActionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ADD":
		return core.ActionAdd, nil
	case "DELETE", "REMOVE":
		return core.ActionRemove, nil
	default:
		return "", fmt.Errorf("%w: unknown action type %q", core.ErrMalformedEvent, s)
	}
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: missing training date", core.ErrMalformedEvent)
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid training date %q", core.ErrMalformedEvent, s)
	}
	return d, nil
}

func parseDuration(n json.Number) (int64, error) {
	s := strings.TrimSpace(n.String())
	if s == "" {
		return 0, fmt.Errorf("%w: missing training duration", core.ErrMalformedEvent)
	}
	d, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid training duration %q", core.ErrMalformedEvent, s)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: negative training duration %d", core.ErrMalformedEvent, d)
	}
	return d, nil
}
