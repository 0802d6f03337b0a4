package timetable

import "time"

// DaysPerWeek is the width of the weekly grid.
const DaysPerWeek = 7

// WeekWindow returns the Monday..Sunday window containing anchor. A Sunday
// anchor resolves to the preceding Monday, not the next one.
func WeekWindow(anchor time.Time) [DaysPerWeek]time.Time {
	monday := StartOfWeek(anchor)
	var window [DaysPerWeek]time.Time
	for i := 0; i < DaysPerWeek; i++ {
		window[i] = monday.AddDate(0, 0, i)
	}
	return window
}

// StartOfWeek truncates a date to the Monday of its week at midnight.
func StartOfWeek(anchor time.Time) time.Time {
	// time.Weekday has Sunday=0; fold into Monday=0..Sunday=6 first.
	offset := (int(anchor.Weekday()) + 6) % 7
	y, m, d := anchor.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, anchor.Location())
}

// SameCalendarDay compares year/month/day only.
func SameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// TimeToOffsetPx maps a wall-clock time onto a vertical pixel offset in a
// grid that starts at dayStartHour. Minutes contribute fractionally.
func TimeToOffsetPx(hour, minute, dayStartHour int, pxPerHour float64) float64 {
	return (float64(hour-dayStartHour) + float64(minute)/60) * pxPerHour
}

// WeekdayIndex converts a date's weekday into the Monday=0..Sunday=6 index
// used by lesson rows.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
