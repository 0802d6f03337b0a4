package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func testGrid() Grid {
	return Grid{StartHour: 8, EndHour: 18, RowHeightPx: 80, MinHeightPx: 20}
}

func event(day, sh, sm, eh, em int) models.ResolvedEvent {
	return models.ResolvedEvent{Lesson: models.Lesson{
		Day: day, StartHour: sh, StartMinute: sm, EndHour: eh, EndMinute: em,
	}}
}

func TestLayoutBasicGeometry(t *testing.T) {
	window := WeekWindow(date(2026, time.September, 1))
	days := Layout([]models.ResolvedEvent{event(0, 9, 0, 10, 0)}, window, testGrid())

	require.Len(t, days, DaysPerWeek)
	require.Len(t, days[0].Events, 1)
	got := days[0].Events[0]
	assert.Equal(t, 80.0, got.TopPx)
	assert.Equal(t, 80.0, got.HeightPx)
}

func TestLayoutPartialHourPlacement(t *testing.T) {
	window := WeekWindow(date(2026, time.September, 1))
	days := Layout([]models.ResolvedEvent{event(2, 10, 30, 11, 15)}, window, testGrid())

	got := days[2].Events[0]
	assert.Equal(t, 200.0, got.TopPx)
	assert.Equal(t, 60.0, got.HeightPx)
}

func TestLayoutClampsZeroAndNegativeDurations(t *testing.T) {
	window := WeekWindow(date(2026, time.September, 1))
	events := []models.ResolvedEvent{
		event(0, 9, 0, 9, 0),  // zero duration
		event(1, 10, 0, 9, 0), // end before start
	}
	days := Layout(events, window, testGrid())

	assert.Equal(t, 20.0, days[0].Events[0].HeightPx)
	assert.Equal(t, 20.0, days[1].Events[0].HeightPx)
}

func TestLayoutNeverReturnsNegativeTop(t *testing.T) {
	window := WeekWindow(date(2026, time.September, 1))
	days := Layout([]models.ResolvedEvent{event(0, 6, 0, 9, 0)}, window, testGrid())

	got := days[0].Events[0]
	assert.Equal(t, 0.0, got.TopPx)
	// Two of the three hours are before the grid start and get clipped.
	assert.Equal(t, 80.0, got.HeightPx)
}

func TestLayoutClipsEventsBelowVisibleRange(t *testing.T) {
	window := WeekWindow(date(2026, time.September, 1))
	days := Layout([]models.ResolvedEvent{event(0, 17, 0, 21, 0)}, window, testGrid())

	got := days[0].Events[0]
	assert.Equal(t, 720.0, got.TopPx)
	assert.Equal(t, 80.0, got.HeightPx)
}

func TestLayoutDropsOutOfRangeDays(t *testing.T) {
	window := WeekWindow(date(2026, time.September, 1))
	events := []models.ResolvedEvent{event(-1, 9, 0, 10, 0), event(7, 9, 0, 10, 0)}
	days := Layout(events, window, testGrid())
	for _, day := range days {
		assert.Empty(t, day.Events)
	}
}

func TestLayoutSortsWithinDayByStartTime(t *testing.T) {
	window := WeekWindow(date(2026, time.September, 1))
	events := []models.ResolvedEvent{
		event(3, 14, 0, 15, 0),
		event(3, 8, 30, 9, 15),
		event(3, 11, 0, 12, 0),
	}
	days := Layout(events, window, testGrid())

	require.Len(t, days[3].Events, 3)
	assert.Equal(t, 8, days[3].Events[0].StartHour)
	assert.Equal(t, 11, days[3].Events[1].StartHour)
	assert.Equal(t, 14, days[3].Events[2].StartHour)
}

func TestNowIndicatorOnlyForTodayColumn(t *testing.T) {
	window := WeekWindow(date(2026, time.September, 1))
	now := time.Date(2026, time.September, 2, 10, 30, 0, 0, time.UTC) // Wednesday

	ind := Now(now, window, testGrid())
	require.NotNil(t, ind)
	assert.Equal(t, 2, ind.DayIndex)
	assert.Equal(t, 200.0, ind.TopPx)

	outside := time.Date(2026, time.September, 14, 10, 0, 0, 0, time.UTC)
	assert.Nil(t, Now(outside, window, testGrid()))

	afterHours := time.Date(2026, time.September, 2, 22, 0, 0, 0, time.UTC)
	assert.Nil(t, Now(afterHours, window, testGrid()))
}

func TestColorForIsDeterministic(t *testing.T) {
	assert.Equal(t, ColorFor("Mathematics"), ColorFor("Mathematics"))
	assert.NotEmpty(t, ColorFor(""))
	for _, name := range []string{"Math", "Physics", "History", "Art"} {
		assert.Contains(t, palette, ColorFor(name))
	}
}
