package challenge

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	now := time.Now()

	rec, err := NewRecord("قراءة", now)
	require.NoError(t, err)

	assert.Equal(t, "قراءة", rec.HabitName)
	assert.Equal(t, now, rec.StartDate)
	assert.Empty(t, rec.CompletedDays)
	assert.False(t, rec.IsCompleted)
	assert.Nil(t, rec.LastInteractionDate)
	assert.Equal(t, 1, rec.CurrentDay())
}

func TestNewRecord_EmptyHabitName(t *testing.T) {
	_, err := NewRecord("", time.Now())
	assert.ErrorIs(t, err, ErrEmptyHabitName)

	_, err = NewRecord("   ", time.Now())
	assert.ErrorIs(t, err, ErrEmptyHabitName)
}

func TestMarkDay_Sequence(t *testing.T) {
	now := time.Now()
	rec, err := NewRecord("رياضة", now)
	require.NoError(t, err)

	for day := 1; day <= 5; day++ {
		require.NoError(t, rec.MarkDay(day, now))
	}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, rec.CompletedDays)
	assert.Equal(t, 6, rec.CurrentDay())
	require.NotNil(t, rec.LastInteractionDate)
}

func TestMarkDay_TwiceIsRejected(t *testing.T) {
	now := time.Now()
	rec, _ := NewRecord("قراءة", now)

	require.NoError(t, rec.MarkDay(1, now))
	err := rec.MarkDay(1, now)

	assert.ErrorIs(t, err, ErrDayAlreadyCompleted)
	assert.Equal(t, []int{1}, rec.CompletedDays, "day list must stay a set")
}

func TestMarkDay_BeyondCurrentDayIsRejected(t *testing.T) {
	now := time.Now()
	rec, _ := NewRecord("قراءة", now)

	require.NoError(t, rec.MarkDay(1, now))

	err := rec.MarkDay(5, now)
	assert.ErrorIs(t, err, ErrDayLocked)
	assert.Equal(t, []int{1}, rec.CompletedDays)
}

func TestMarkDay_OutOfRange(t *testing.T) {
	now := time.Now()
	rec, _ := NewRecord("قراءة", now)

	assert.ErrorIs(t, rec.MarkDay(0, now), ErrInvalidDay)
	assert.ErrorIs(t, rec.MarkDay(22, now), ErrInvalidDay)
}

func TestIsCompleted_LatchesAtTwentyOne(t *testing.T) {
	now := time.Now()
	rec, _ := NewRecord("قراءة", now)

	for day := 1; day <= 20; day++ {
		require.NoError(t, rec.MarkDay(day, now))
		assert.False(t, rec.IsCompleted, "must not complete before day 21")
	}

	require.NoError(t, rec.MarkDay(21, now))
	assert.True(t, rec.IsCompleted)
	assert.True(t, rec.IsFinished())

	// No removal API exists, so completion can never be undone.
	assert.ErrorIs(t, rec.MarkDay(21, now), ErrDayAlreadyCompleted)
	assert.True(t, rec.IsCompleted)
}

func TestProgressPercent(t *testing.T) {
	now := time.Now()
	rec, _ := NewRecord("قراءة", now)

	assert.Equal(t, 0, rec.ProgressPercent())

	for day := 1; day <= 7; day++ {
		require.NoError(t, rec.MarkDay(day, now))
	}
	assert.Equal(t, 33, rec.ProgressPercent())

	for day := 8; day <= 21; day++ {
		require.NoError(t, rec.MarkDay(day, now))
	}
	assert.Equal(t, 100, rec.ProgressPercent())
}

func TestJSONRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	rec, _ := NewRecord("قراءة", now)
	require.NoError(t, rec.MarkDay(1, now))

	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"habitName"`)
	assert.Contains(t, string(raw), `"completedDays"`)

	var back Record
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, rec.HabitName, back.HabitName)
	assert.Equal(t, rec.CompletedDays, back.CompletedDays)
	assert.True(t, rec.StartDate.Equal(back.StartDate))
}

func TestClone_IsDeep(t *testing.T) {
	now := time.Now()
	rec, _ := NewRecord("قراءة", now)
	require.NoError(t, rec.MarkDay(1, now))

	cp := rec.Clone()
	require.NoError(t, cp.MarkDay(2, now))

	assert.Equal(t, []int{1}, rec.CompletedDays)
	assert.Equal(t, []int{1, 2}, cp.CompletedDays)
}

func TestFallbackQuoteRotation(t *testing.T) {
	now := time.Now()
	rec, _ := NewRecord("قراءة", now)

	first := FallbackQuoteFor(rec)
	assert.NotEmpty(t, first)

	require.NoError(t, rec.MarkDay(1, now))
	assert.NotEqual(t, first, FallbackQuoteFor(rec))
}

func TestShareText(t *testing.T) {
	now := time.Now()
	rec, _ := NewRecord("قراءة", now)
	require.NoError(t, rec.MarkDay(1, now))
	require.NoError(t, rec.MarkDay(2, now))

	text := ShareText(rec)
	assert.Contains(t, text, "2")
	assert.Contains(t, text, "قراءة")
	assert.Contains(t, text, "#تحدي_21_يوم")
}
