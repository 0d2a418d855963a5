package challenge

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"
)

// TotalDays is the length of one challenge cycle.
const TotalDays = 21

var (
	ErrDayAlreadyCompleted = errors.New("day already completed")
	ErrDayLocked           = errors.New("day is beyond the current day")
	ErrInvalidDay          = errors.New("day must be between 1 and 21")
	ErrEmptyHabitName      = errors.New("habit name is required")
)

// Record is the single persisted unit of user progress. The JSON field
// names are the wire format shared with the web client and the remote
// challenge_data column, so they must not change.
type Record struct {
	HabitName           string     `json:"habitName"`
	StartDate           time.Time  `json:"startDate"`
	CompletedDays       []int      `json:"completedDays"`
	IsCompleted         bool       `json:"isCompleted"`
	LastInteractionDate *time.Time `json:"lastInteractionDate"`
}

// NewRecord starts a fresh challenge for the given habit.
func NewRecord(habitName string, now time.Time) (*Record, error) {
	habitName = strings.TrimSpace(habitName)
	if habitName == "" {
		return nil, ErrEmptyHabitName
	}
	return &Record{
		HabitName:     habitName,
		StartDate:     now,
		CompletedDays: []int{},
		IsCompleted:   false,
	}, nil
}

// CurrentDay is the next day the user is allowed to complete.
func (r *Record) CurrentDay() int {
	return len(r.CompletedDays) + 1
}

// IsFinished reports whether all 21 days are done.
func (r *Record) IsFinished() bool {
	return len(r.CompletedDays) >= TotalDays
}

// ProgressPercent returns completion as a rounded whole percentage.
func (r *Record) ProgressPercent() int {
	return int(math.Round(100 * float64(len(r.CompletedDays)) / float64(TotalDays)))
}

// HasDay reports whether the given day is already completed.
func (r *Record) HasDay(day int) bool {
	for _, d := range r.CompletedDays {
		if d == day {
			return true
		}
	}
	return false
}

// MarkDay completes a day. Only days up to the current day can be
// marked, and marking a day twice is rejected so the day list stays a
// set. Days only ever grow; there is no unmark operation.
func (r *Record) MarkDay(day int, now time.Time) error {
	if day < 1 || day > TotalDays {
		return ErrInvalidDay
	}
	if r.HasDay(day) {
		return ErrDayAlreadyCompleted
	}
	if day > r.CurrentDay() {
		return ErrDayLocked
	}

	r.CompletedDays = append(r.CompletedDays, day)
	sort.Ints(r.CompletedDays)
	r.IsCompleted = r.IsFinished()
	t := now
	r.LastInteractionDate = &t
	return nil
}

// Clone returns a deep copy so callers can hand out snapshots without
// sharing the day slice.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	cp.CompletedDays = append([]int(nil), r.CompletedDays...)
	if r.LastInteractionDate != nil {
		t := *r.LastInteractionDate
		cp.LastInteractionDate = &t
	}
	return &cp
}

// Progress is the derived view served alongside the record.
type Progress struct {
	CurrentDay      int  `json:"current_day"`
	CompletedCount  int  `json:"completed_count"`
	ProgressPercent int  `json:"progress_percent"`
	IsFinished      bool `json:"is_finished"`
}

// ProgressOf computes the dashboard stats for a record.
func ProgressOf(r *Record) Progress {
	return Progress{
		CurrentDay:      r.CurrentDay(),
		CompletedCount:  len(r.CompletedDays),
		ProgressPercent: r.ProgressPercent(),
		IsFinished:      r.IsFinished(),
	}
}
