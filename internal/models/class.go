package models

// Class represents an academic class or section.
type Class struct {
	ID                ClassID    `db:"id" json:"id"`
	Name              string     `db:"name" json:"name"`
	DefaultTeacherRef *TeacherID `db:"default_teacher_ref" json:"default_teacher_ref,omitempty"`
}

// Enrollment links a student to a class.
type Enrollment struct {
	StudentRef StudentID `db:"student_ref" json:"student_ref"`
	ClassRef   ClassID   `db:"class_ref" json:"class_ref"`
}
