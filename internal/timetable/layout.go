package timetable

import (
	"sort"
	"time"

	"github.com/noah-isme/timetable-api/internal/models"
)

// Grid describes the visible hour range and row geometry of the weekly view.
type Grid struct {
	StartHour   int
	EndHour     int
	RowHeightPx float64
	MinHeightPx float64
}

// Day is one column of the laid-out week.
type Day struct {
	Date   time.Time              `json:"date"`
	Events []models.ResolvedEvent `json:"events"`
}

// NowIndicator marks the current time on today's column. Present only when
// "now" falls inside the window and the visible hour range.
type NowIndicator struct {
	DayIndex int     `json:"day_index"`
	TopPx    float64 `json:"top_px"`
}

// Layout buckets events into the seven columns of the window and computes
// each event's vertical geometry. Events outside the visible hour range are
// clipped rather than dropped; tops never go negative and heights never fall
// below the configured minimum.
func Layout(events []models.ResolvedEvent, window [DaysPerWeek]time.Time, grid Grid) []Day {
	days := make([]Day, DaysPerWeek)
	for i := range days {
		days[i] = Day{Date: window[i]}
	}

	for _, ev := range events {
		if ev.Day < 0 || ev.Day >= DaysPerWeek {
			continue
		}
		positioned := ev
		positioned.TopPx, positioned.HeightPx = geometry(ev.Lesson, grid)
		days[ev.Day].Events = append(days[ev.Day].Events, positioned)
	}

	for i := range days {
		evs := days[i].Events
		sort.SliceStable(evs, func(a, b int) bool {
			sa := evs[a].StartHour*60 + evs[a].StartMinute
			sb := evs[b].StartHour*60 + evs[b].StartMinute
			return sa < sb
		})
	}
	return days
}

func geometry(l models.Lesson, grid Grid) (top, height float64) {
	top = TimeToOffsetPx(l.StartHour, l.StartMinute, grid.StartHour, grid.RowHeightPx)
	height = float64(l.DurationMinutes()) / 60 * grid.RowHeightPx

	if top < 0 {
		// Starts before the visible range: clip the hidden part.
		height += top
		top = 0
	}
	if grid.EndHour > grid.StartHour {
		visible := float64(grid.EndHour-grid.StartHour) * grid.RowHeightPx
		if top > visible {
			top = visible
		}
		if top+height > visible {
			height = visible - top
		}
	}
	if height < grid.MinHeightPx {
		height = grid.MinHeightPx
	}
	return top, height
}

// Now computes the current-time indicator for the window, or nil when today
// is not one of its columns or the time is outside the visible hours.
func Now(now time.Time, window [DaysPerWeek]time.Time, grid Grid) *NowIndicator {
	for i, day := range window {
		if !SameCalendarDay(now, day) {
			continue
		}
		if now.Hour() < grid.StartHour || now.Hour() >= grid.EndHour {
			return nil
		}
		return &NowIndicator{
			DayIndex: i,
			TopPx:    TimeToOffsetPx(now.Hour(), now.Minute(), grid.StartHour, grid.RowHeightPx),
		}
	}
	return nil
}
