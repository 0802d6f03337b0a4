package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

const (
	unknownClassLabel  = "Unknown Class"
	untitledLabel      = "Untitled"
	weekCacheKeyPrefix = "timetable:week:"

	// WeekCachePattern matches every cached assembled week; mutations
	// invalidate with it.
	WeekCachePattern = weekCacheKeyPrefix + "*"
)

type lessonReader interface {
	ListAll(ctx context.Context) ([]models.Lesson, error)
}

type classReader interface {
	ListAll(ctx context.Context) ([]models.Class, error)
}

type subjectReader interface {
	ListAll(ctx context.Context) ([]models.Subject, error)
}

type enrollmentReader interface {
	ListClassRefsByStudent(ctx context.Context, studentRef models.StudentID) ([]models.ClassID, error)
}

type pairResolver interface {
	ResolveAll(ctx context.Context, pairs []PairKey) map[PairKey]TeacherResolution
}

// WeekView is a laid-out week ready for rendering.
type WeekView struct {
	WeekStart time.Time                `json:"week_start"`
	Days      []timetable.Day          `json:"days"`
	Now       *timetable.NowIndicator  `json:"now,omitempty"`
	Warnings  []string                 `json:"warnings,omitempty"`
}

// TimetableService turns loosely-normalized lesson, class and subject rows
// into a conflict-tolerant weekly grid of resolved events.
type TimetableService struct {
	lessons     lessonReader
	classes     classReader
	subjects    subjectReader
	enrollments enrollmentReader
	resolver    pairResolver
	cache       *CacheService
	grid        timetable.Grid
	logger      *zap.Logger
	now         func() time.Time
}

// NewTimetableService constructs the service.
func NewTimetableService(lessons lessonReader, classes classReader, subjects subjectReader, enrollments enrollmentReader, resolver pairResolver, cache *CacheService, grid timetable.Grid, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		lessons:     lessons,
		classes:     classes,
		subjects:    subjects,
		enrollments: enrollments,
		resolver:    resolver,
		cache:       cache,
		grid:        grid,
		logger:      logger,
		now:         time.Now,
	}
}

// Assemble loads lessons plus the class and subject reference tables, joins
// them in memory and resolves a teacher per distinct (class, subject) pair.
// A dangling foreign key degrades that row's labels; it never drops the row
// or aborts the pass. Reference-table load failures degrade the whole pass
// with a warning; only the lessons load itself is fatal.
func (s *TimetableService) Assemble(ctx context.Context) ([]models.ResolvedEvent, []string, error) {
	cacheKey := weekCacheKeyPrefix + "events"
	var cached []models.ResolvedEvent
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, nil, nil
	}

	var (
		wg          sync.WaitGroup
		lessons     []models.Lesson
		classes     []models.Class
		subjects    []models.Subject
		lessonsErr  error
		classesErr  error
		subjectsErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		lessons, lessonsErr = s.lessons.ListAll(ctx)
	}()
	go func() {
		defer wg.Done()
		classes, classesErr = s.classes.ListAll(ctx)
	}()
	go func() {
		defer wg.Done()
		subjects, subjectsErr = s.subjects.ListAll(ctx)
	}()
	wg.Wait()

	if lessonsErr != nil {
		return nil, nil, appErrors.Wrap(lessonsErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}

	var warnings []string
	if classesErr != nil {
		s.logger.Warn("class reference load failed, labels degraded", zap.Error(classesErr))
		warnings = append(warnings, "class names are temporarily unavailable")
	}
	if subjectsErr != nil {
		s.logger.Warn("subject reference load failed, labels degraded", zap.Error(subjectsErr))
		warnings = append(warnings, "subject names are temporarily unavailable")
	}

	classByID := make(map[models.ClassID]models.Class, len(classes))
	for _, c := range classes {
		classByID[c.ID] = c
	}
	subjectByID := make(map[models.SubjectID]models.Subject, len(subjects))
	for _, sub := range subjects {
		subjectByID[sub.ID] = sub
	}

	pairs := make([]PairKey, 0, len(lessons))
	for _, lesson := range lessons {
		pairs = append(pairs, pairKeyFor(lesson))
	}
	resolutions := s.resolver.ResolveAll(ctx, pairs)

	events := make([]models.ResolvedEvent, 0, len(lessons))
	for _, lesson := range lessons {
		events = append(events, s.join(lesson, classByID, subjectByID, resolutions))
	}

	s.cache.Set(ctx, cacheKey, events)
	return events, warnings, nil
}

func pairKeyFor(lesson models.Lesson) PairKey {
	var key PairKey
	if lesson.ClassRef != nil {
		key.Class = *lesson.ClassRef
	}
	if lesson.SubjectRef != nil {
		key.Subject = *lesson.SubjectRef
	}
	return key
}

func (s *TimetableService) join(lesson models.Lesson, classByID map[models.ClassID]models.Class, subjectByID map[models.SubjectID]models.Subject, resolutions map[PairKey]TeacherResolution) models.ResolvedEvent {
	event := models.ResolvedEvent{Lesson: lesson}

	event.ClassName = unknownClassLabel
	if lesson.ClassRef != nil {
		if class, ok := classByID[*lesson.ClassRef]; ok && class.Name != "" {
			event.ClassName = class.Name
		}
	}

	var subject *models.Subject
	if lesson.SubjectRef != nil {
		if sub, ok := subjectByID[*lesson.SubjectRef]; ok {
			subject = &sub
		}
	}

	switch {
	case subject != nil && subject.Name != "":
		event.CourseName = subject.Name
	case lesson.Title != "":
		event.CourseName = lesson.Title
	default:
		event.CourseName = untitledLabel
	}

	if event.Title == "" {
		event.Title = event.CourseName
	}

	resolution, ok := resolutions[pairKeyFor(lesson)]
	if !ok || resolution.Name == "" {
		resolution = TeacherResolution{Name: NoTeacherAssigned}
	}
	event.TeacherName = resolution.Name
	event.TeacherID = resolution.TeacherID

	event.EventColor = resolveColor(lesson, subject)
	return event
}

// Color preference order: a color carried by the lesson, then the subject's
// stored color, then a deterministic hash of the subject name, then of the
// title.
func resolveColor(lesson models.Lesson, subject *models.Subject) string {
	if lesson.Color != nil && *lesson.Color != "" {
		return *lesson.Color
	}
	if subject != nil {
		if subject.Color != nil && *subject.Color != "" {
			return *subject.Color
		}
		if subject.Name != "" {
			return timetable.ColorFor(subject.Name)
		}
	}
	return timetable.ColorFor(lesson.Title)
}

// Week assembles, filters and lays out the week containing anchor.
func (s *TimetableService) Week(ctx context.Context, anchor time.Time, filters timetable.Filters) (*WeekView, error) {
	events, warnings, err := s.Assemble(ctx)
	if err != nil {
		return nil, err
	}

	window := timetable.WeekWindow(anchor)
	filtered := timetable.Apply(events, filters)

	return &WeekView{
		WeekStart: window[0],
		Days:      timetable.Layout(filtered, window, s.grid),
		Now:       timetable.Now(s.now(), window, s.grid),
		Warnings:  warnings,
	}, nil
}

// StudentWeek is the parent-facing variant: the selected child's enrollment
// determines the visible classes, and no selected child means an empty week
// by design, not "show everything".
func (s *TimetableService) StudentWeek(ctx context.Context, studentRef models.StudentID, anchor time.Time, filters timetable.Filters) (*WeekView, error) {
	filters.RequireChild = true
	filters.SelectedChild = studentRef

	if !studentRef.IsZero() {
		classRefs, err := s.enrollments.ListClassRefsByStudent(ctx, studentRef)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
				fmt.Sprintf("failed to load enrollments for student %s", studentRef))
		}
		filters.ChildClasses = classRefs
	}

	return s.Week(ctx, anchor, filters)
}
