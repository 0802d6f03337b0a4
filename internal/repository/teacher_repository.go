package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// TeacherRepository reads teacher display data from the users table.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs the repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByID loads a teacher by id.
func (r *TeacherRepository) FindByID(ctx context.Context, id models.TeacherID) (*models.Teacher, error) {
	const query = `SELECT id, first_name, last_name FROM users WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// AssignmentRepository reads the class_subject_teacher join view.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// FindByClassAndSubject returns the explicit assignment for a pair, if any.
func (r *AssignmentRepository) FindByClassAndSubject(ctx context.Context, classRef models.ClassID, subjectRef models.SubjectID) (*models.ClassSubjectTeacher, error) {
	const query = `SELECT class_ref, subject_ref, teacher_ref FROM class_subject_teacher WHERE class_ref = $1 AND subject_ref = $2 LIMIT 1`
	var assignment models.ClassSubjectTeacher
	if err := r.db.GetContext(ctx, &assignment, query, classRef, subjectRef); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// EnrollmentRepository reads the class_enrollment relationship table.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListClassRefsByStudent returns the classes a student is enrolled in.
func (r *EnrollmentRepository) ListClassRefsByStudent(ctx context.Context, studentRef models.StudentID) ([]models.ClassID, error) {
	const query = `SELECT class_ref FROM class_enrollment WHERE student_ref = $1`
	var refs []models.ClassID
	if err := r.db.SelectContext(ctx, &refs, query, studentRef); err != nil {
		return nil, fmt.Errorf("list enrollments for student: %w", err)
	}
	return refs, nil
}
