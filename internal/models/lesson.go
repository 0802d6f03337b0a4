package models

// Lesson is the source-of-truth weekly scheduling record. Day is always
// Monday=0..Sunday=6 once a row has crossed the repository boundary.
type Lesson struct {
	ID          LessonID   `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	ClassRef    *ClassID   `db:"class_ref" json:"class_ref,omitempty"`
	SubjectRef  *SubjectID `db:"subject_ref" json:"subject_ref,omitempty"`
	Day         int        `db:"day" json:"day"`
	StartHour   int        `db:"start_hour" json:"start_hour"`
	StartMinute int        `db:"start_minute" json:"start_minute"`
	EndHour     int        `db:"end_hour" json:"end_hour"`
	EndMinute   int        `db:"end_minute" json:"end_minute"`
	Location    *string    `db:"location" json:"location,omitempty"`
	Color       *string    `db:"color" json:"color,omitempty"`
}

// LessonPatch carries the fields an edit may change. Nil means "leave as is".
type LessonPatch struct {
	Title       *string    `json:"title,omitempty"`
	ClassRef    *ClassID   `json:"class_ref,omitempty"`
	SubjectRef  *SubjectID `json:"subject_ref,omitempty"`
	Day         *int       `json:"day,omitempty"`
	StartHour   *int       `json:"start_hour,omitempty"`
	StartMinute *int       `json:"start_minute,omitempty"`
	EndHour     *int       `json:"end_hour,omitempty"`
	EndMinute   *int       `json:"end_minute,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Color       *string    `json:"color,omitempty"`
}

// Apply returns a copy of the lesson with the patch folded in.
func (p LessonPatch) Apply(base Lesson) Lesson {
	out := base
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.ClassRef != nil {
		out.ClassRef = p.ClassRef
	}
	if p.SubjectRef != nil {
		out.SubjectRef = p.SubjectRef
	}
	if p.Day != nil {
		out.Day = NormalizeDay(*p.Day)
	}
	if p.StartHour != nil {
		out.StartHour = *p.StartHour
	}
	if p.StartMinute != nil {
		out.StartMinute = *p.StartMinute
	}
	if p.EndHour != nil {
		out.EndHour = *p.EndHour
	}
	if p.EndMinute != nil {
		out.EndMinute = *p.EndMinute
	}
	if p.Location != nil {
		out.Location = p.Location
	}
	if p.Color != nil {
		out.Color = p.Color
	}
	return out
}

// NormalizeDay folds any source day representation into Monday=0..Sunday=6.
// Legacy rows occasionally carry 7 (ISO Sunday) or negative offsets.
func NormalizeDay(raw int) int {
	return ((raw % 7) + 7) % 7
}

// DurationMinutes returns end minus start in minutes. It may be zero or
// negative; rendering clamps, this layer does not enforce end > start.
func (l Lesson) DurationMinutes() int {
	return (l.EndHour*60 + l.EndMinute) - (l.StartHour*60 + l.StartMinute)
}
