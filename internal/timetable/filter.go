package timetable

import (
	"strings"

	"github.com/noah-isme/timetable-api/internal/models"
)

// Filters narrows an assembled event list. Zero-valued fields match
// everything except SelectedChild: when RequireChild is set and no child is
// selected, the result is empty regardless of the other filters.
type Filters struct {
	Course  string
	Class   string
	Teacher string

	RequireChild  bool
	SelectedChild models.StudentID
	ChildClasses  []models.ClassID
}

// Apply returns the matching subset of events. It never mutates the input
// and every element of the output is an element of the input.
func Apply(events []models.ResolvedEvent, f Filters) []models.ResolvedEvent {
	if f.RequireChild {
		if f.SelectedChild.IsZero() {
			return []models.ResolvedEvent{}
		}
	}

	childSet := make(map[models.ClassID]struct{}, len(f.ChildClasses))
	for _, id := range f.ChildClasses {
		childSet[id] = struct{}{}
	}

	out := make([]models.ResolvedEvent, 0, len(events))
	for _, ev := range events {
		if f.Course != "" && !strings.EqualFold(ev.CourseName, f.Course) {
			continue
		}
		if f.Class != "" && !matchesClass(ev, f.Class) {
			continue
		}
		if f.Teacher != "" && !matchesTeacher(ev, f.Teacher) {
			continue
		}
		if f.RequireChild && !inClassSet(ev, childSet) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// A class matches when either its denormalized name or its id equals the
// filter value. Joins are not always consistent, so both are checked.
func matchesClass(ev models.ResolvedEvent, want string) bool {
	if strings.EqualFold(ev.ClassName, want) {
		return true
	}
	return ev.ClassRef != nil && string(*ev.ClassRef) == want
}

func matchesTeacher(ev models.ResolvedEvent, want string) bool {
	if strings.EqualFold(ev.TeacherName, want) {
		return true
	}
	return ev.TeacherID != nil && string(*ev.TeacherID) == want
}

func inClassSet(ev models.ResolvedEvent, set map[models.ClassID]struct{}) bool {
	if ev.ClassRef == nil {
		return false
	}
	_, ok := set[*ev.ClassRef]
	return ok
}
