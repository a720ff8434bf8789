package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	StatusActive   TrainerStatus = "ACTIVE"
	StatusInactive TrainerStatus = "INACTIVE"
)

const (
	ActionAdd    ActionType = "ADD"
	ActionRemove ActionType = "REMOVE"
)

type (
	TrainerStatus string

	// ActionType selects the sign of a duration delta.
	ActionType string

	MonthEntry struct {
		Month   string `json:"month"`
		Minutes int64  `json:"minutes"`
	}

	YearEntry struct {
		Year   int          `json:"year"`
		Months []MonthEntry `json:"months"`
	}

	TrainerRecord struct {
		Username  string        `json:"username"`
		FirstName string        `json:"firstName,omitempty"`
		LastName  string        `json:"lastName,omitempty"`
		Status    TrainerStatus `json:"status"`
		Years     []YearEntry   `json:"years"`
	}

	// TrainerSeed holds the fields a new TrainerRecord is created from.
	TrainerSeed struct {
		FirstName string
		LastName  string
		Status    TrainerStatus
	}

	TrainingEvent struct {
		Username  string
		FirstName string
		LastName  string
		Active    bool
		Date      time.Time
		Duration  int64 // minutes, never negative
		Action    ActionType
	}
)

var (
	ErrInvalidTrainerData = errors.New("Invalid trainer data (empty username)")
	ErrTrainerNotFound    = errors.New("Trainer not found")
	ErrMalformedEvent     = errors.New("malformed training event")
	ErrInvalidRecord      = errors.New("invalid trainer record")
)

var monthNames = func() map[string]bool {
	m := make(map[string]bool, 12)
	for i := time.January; i <= time.December; i++ {
		m[strings.ToLower(i.String())] = true
	}
	return m
}()

// IsValidTrainer reports whether username can identify a trainer.
func IsValidTrainer(username string) bool {
	return strings.TrimSpace(username) != ""
}

// StatusFromActive maps the active flag carried by events to a status.
func StatusFromActive(active bool) TrainerStatus {
	if active {
		return StatusActive
	}
	return StatusInactive
}

// MonthName returns the lowercase English month name used as MonthEntry key.
func MonthName(t time.Time) string {
	return strings.ToLower(t.Month().String())
}

func (s TrainerStatus) String() string {
	return string(s)
}

func (s TrainerStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// IsMonthName reports whether name is one of the twelve lowercase English
// month names produced by MonthName.
func IsMonthName(name string) bool {
	return monthNames[name]
}

// Delta returns the signed number of minutes the event contributes.
func (e TrainingEvent) Delta() int64 {
	if e.Action == ActionRemove {
		return -e.Duration
	}
	return e.Duration
}

// Seed returns the creation fields for the event's trainer.
func (e TrainingEvent) Seed() TrainerSeed {
	return TrainerSeed{
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Status:    StatusFromActive(e.Active),
	}
}

func (e TrainingEvent) Validate() error {
	if !IsValidTrainer(e.Username) {
		return ErrInvalidTrainerData
	}
	return nil
}

// NewTrainerRecord builds an empty record for username.
func NewTrainerRecord(username string, seed TrainerSeed) TrainerRecord {
	status := seed.Status
	if status == "" {
		status = StatusActive
	}
	return TrainerRecord{
		Username:  username,
		FirstName: seed.FirstName,
		LastName:  seed.LastName,
		Status:    status,
	}
}

// AddMinutes finds or appends the year and month entries for date and adds
// delta to the month total. Years and months keep first-insertion order.
func (r *TrainerRecord) AddMinutes(date time.Time, delta int64) int64 {
	year := r.year(date.Year())
	month := year.month(MonthName(date))
	month.Minutes += delta
	return month.Minutes
}

func (r *TrainerRecord) year(n int) *YearEntry {
	for i := range r.Years {
		if r.Years[i].Year == n {
			return &r.Years[i]
		}
	}
	r.Years = append(r.Years, YearEntry{Year: n})
	return &r.Years[len(r.Years)-1]
}

func (y *YearEntry) month(name string) *MonthEntry {
	for i := range y.Months {
		if y.Months[i].Month == name {
			return &y.Months[i]
		}
	}
	y.Months = append(y.Months, MonthEntry{Month: name})
	return &y.Months[len(y.Months)-1]
}

// Validate checks a stored record: non-blank username, a known status, no
// repeated year, and canonical, unrepeated month names within each year.
func (r TrainerRecord) Validate() error {
	if !IsValidTrainer(r.Username) {
		return ErrInvalidTrainerData
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: %s: unknown status %q", ErrInvalidRecord, r.Username, r.Status)
	}
	years := make(map[int]bool, len(r.Years))
	for _, y := range r.Years {
		if years[y.Year] {
			return fmt.Errorf("%w: %s: year %d repeated", ErrInvalidRecord, r.Username, y.Year)
		}
		years[y.Year] = true

		months := make(map[string]bool, len(y.Months))
		for _, m := range y.Months {
			if !IsMonthName(m.Month) {
				return fmt.Errorf("%w: %s: unknown month %q in %d", ErrInvalidRecord, r.Username, m.Month, y.Year)
			}
			if months[m.Month] {
				return fmt.Errorf("%w: %s: month %s repeated in %d", ErrInvalidRecord, r.Username, m.Month, y.Year)
			}
			months[m.Month] = true
		}
	}
	return nil
}

// Clone returns a deep copy that shares no slices with r.
func (r TrainerRecord) Clone() TrainerRecord {
	out := r
	out.Years = make([]YearEntry, len(r.Years))
	for i, y := range r.Years {
		out.Years[i] = YearEntry{
			Year:   y.Year,
			Months: append([]MonthEntry(nil), y.Months...),
		}
	}
	return out
}
