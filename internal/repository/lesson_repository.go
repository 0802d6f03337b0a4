package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

const lessonColumns = "id, title, subject_ref, class_ref, day, start_hour, start_minute, end_hour, end_minute, location, color"

// LessonRepository provides persistence for lesson rows. It is the single
// normalization boundary: whatever shape rows take in the store, everything
// above this package sees canonical lessons with Monday=0 days.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository creates a new lesson repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// ListAll returns every lesson row. The weekly pattern repeats every week
// (day is a weekday index, not an absolute date), so there is no
// week-bounded variant.
func (r *LessonRepository) ListAll(ctx context.Context) ([]models.Lesson, error) {
	query := fmt.Sprintf("SELECT %s FROM lessons ORDER BY day ASC, start_hour ASC, start_minute ASC", lessonColumns)
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	normalizeLessons(lessons)
	return lessons, nil
}

// FindByID loads a lesson by its native key.
func (r *LessonRepository) FindByID(ctx context.Context, id models.LessonID) (*models.Lesson, error) {
	query := fmt.Sprintf("SELECT %s FROM lessons WHERE id = $1", lessonColumns)
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	lesson.Day = models.NormalizeDay(lesson.Day)
	return &lesson, nil
}

// FindByFingerprint returns lessons matching the structural fingerprint used
// by the search-then-act fallback. Callers decide what to do when the match
// is not unique.
func (r *LessonRepository) FindByFingerprint(ctx context.Context, title string, day int) ([]models.Lesson, error) {
	query := fmt.Sprintf("SELECT %s FROM lessons WHERE title = $1 AND day = $2", lessonColumns)
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, title, models.NormalizeDay(day)); err != nil {
		return nil, fmt.Errorf("find lessons by fingerprint: %w", err)
	}
	normalizeLessons(lessons)
	return lessons, nil
}

// Insert stores a new lesson and returns its identifier as reported by the
// store, normalized into the canonical id type regardless of the key's
// native shape.
func (r *LessonRepository) Insert(ctx context.Context, lesson *models.Lesson) (models.LessonID, error) {
	if lesson.ID.IsZero() {
		lesson.ID = models.LessonID(uuid.NewString())
	}
	lesson.Day = models.NormalizeDay(lesson.Day)

	const query = `INSERT INTO lessons (id, title, subject_ref, class_ref, day, start_hour, start_minute, end_hour, end_minute, location, color)
VALUES (:id, :title, :subject_ref, :class_ref, :day, :start_hour, :start_minute, :end_hour, :end_minute, :location, :color)`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return "", fmt.Errorf("insert lesson: %w", err)
	}
	return lesson.ID, nil
}

// UpdateByID rewrites a lesson row addressed by its native key and reports
// how many rows matched. Zero is not an error here: the caller's fallback
// chain interprets it.
func (r *LessonRepository) UpdateByID(ctx context.Context, lesson models.Lesson) (int64, error) {
	lesson.Day = models.NormalizeDay(lesson.Day)
	const query = `UPDATE lessons SET title = :title, subject_ref = :subject_ref, class_ref = :class_ref, day = :day, start_hour = :start_hour, start_minute = :start_minute, end_hour = :end_hour, end_minute = :end_minute, location = :location, color = :color WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, lesson)
	if err != nil {
		return 0, fmt.Errorf("update lesson by id: %w", err)
	}
	return rowsAffected(res)
}

// UpdateBySubjectRef rewrites the lesson addressed by its subject reference,
// the secondary key the legacy clients fall back to when the native key does
// not match.
func (r *LessonRepository) UpdateBySubjectRef(ctx context.Context, subjectRef models.SubjectID, lesson models.Lesson) (int64, error) {
	lesson.Day = models.NormalizeDay(lesson.Day)
	const query = `UPDATE lessons SET title = $1, day = $2, start_hour = $3, start_minute = $4, end_hour = $5, end_minute = $6, location = $7, color = $8 WHERE subject_ref = $9`
	res, err := r.db.ExecContext(ctx, query,
		lesson.Title, lesson.Day, lesson.StartHour, lesson.StartMinute,
		lesson.EndHour, lesson.EndMinute, lesson.Location, lesson.Color, subjectRef)
	if err != nil {
		return 0, fmt.Errorf("update lesson by subject ref: %w", err)
	}
	return rowsAffected(res)
}

// DeleteByID removes a lesson by its native key and reports rows matched.
func (r *LessonRepository) DeleteByID(ctx context.Context, id models.LessonID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete lesson by id: %w", err)
	}
	return rowsAffected(res)
}

// DeleteBySubjectRef removes lessons by the secondary key.
func (r *LessonRepository) DeleteBySubjectRef(ctx context.Context, subjectRef models.SubjectID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE subject_ref = $1`, subjectRef)
	if err != nil {
		return 0, fmt.Errorf("delete lesson by subject ref: %w", err)
	}
	return rowsAffected(res)
}

func normalizeLessons(lessons []models.Lesson) {
	for i := range lessons {
		lessons[i].Day = models.NormalizeDay(lessons[i].Day)
	}
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		// Some drivers cannot report affected rows; treat it as one match
		// rather than failing a write that already committed.
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 1, nil
	}
	return n, nil
}
