package models

import "strconv"

// The backing store mixes numeric surrogates and opaque string keys for the
// same logical entities. Each entity gets its own string-based identifier
// type so conversions happen once, at the edges, instead of ad hoc parsing
// at call sites.

type LessonID string

type ClassID string

type SubjectID string

type TeacherID string

type StudentID string

func (id LessonID) String() string  { return string(id) }
func (id ClassID) String() string   { return string(id) }
func (id SubjectID) String() string { return string(id) }
func (id TeacherID) String() string { return string(id) }
func (id StudentID) String() string { return string(id) }

func (id LessonID) IsZero() bool  { return id == "" }
func (id ClassID) IsZero() bool   { return id == "" }
func (id SubjectID) IsZero() bool { return id == "" }
func (id TeacherID) IsZero() bool { return id == "" }
func (id StudentID) IsZero() bool { return id == "" }

// LessonIDFromInt64 converts a numeric surrogate into the canonical form.
func LessonIDFromInt64(n int64) LessonID {
	return LessonID(strconv.FormatInt(n, 10))
}

// Numeric reports whether the identifier is a plain base-10 integer, which
// is what the legacy key path expects. Opaque keys (UUIDs, composites) fail
// this check and must go through the fallback strategies instead.
func (id LessonID) Numeric() bool {
	if id == "" {
		return false
	}
	_, err := strconv.ParseInt(string(id), 10, 64)
	return err == nil
}
