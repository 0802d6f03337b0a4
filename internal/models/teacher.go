package models

import "strings"

// Teacher is the slice of the users table this service reads.
type Teacher struct {
	ID        TeacherID `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
}

// DisplayName joins the name parts, tolerating either being blank.
func (t Teacher) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(t.FirstName) + " " + strings.TrimSpace(t.LastName))
}

// ClassSubjectTeacher pins a teacher to a (class, subject) pair, overriding
// the class's default teacher. Most classes only carry the default.
type ClassSubjectTeacher struct {
	ClassRef   ClassID    `db:"class_ref" json:"class_ref"`
	SubjectRef SubjectID  `db:"subject_ref" json:"subject_ref"`
	TeacherRef *TeacherID `db:"teacher_ref" json:"teacher_ref,omitempty"`
}
