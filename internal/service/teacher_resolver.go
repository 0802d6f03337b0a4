package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
)

// NoTeacherAssigned is the sentinel every failed resolution terminates in.
// Resolution never errors and never returns an empty name.
const NoTeacherAssigned = "No teacher assigned"

const (
	resolveStepAssignment   = "assignment"
	resolveStepClassDefault = "class_default"
	resolveStepSentinel     = "sentinel"
)

type assignmentLookup interface {
	FindByClassAndSubject(ctx context.Context, classRef models.ClassID, subjectRef models.SubjectID) (*models.ClassSubjectTeacher, error)
}

type classLookup interface {
	FindByID(ctx context.Context, id models.ClassID) (*models.Class, error)
}

type teacherLookup interface {
	FindByID(ctx context.Context, id models.TeacherID) (*models.Teacher, error)
}

// TeacherResolution is the outcome of a fallback-chain resolution.
type TeacherResolution struct {
	Name      string            `json:"name"`
	TeacherID *models.TeacherID `json:"teacher_id,omitempty"`
}

// PairKey identifies a distinct (class, subject) combination within an
// assembly pass. Either side may be empty when the lesson row is missing
// that foreign key.
type PairKey struct {
	Class   models.ClassID
	Subject models.SubjectID
}

// TeacherResolver determines which teacher is responsible for a (class,
// subject) pair. The schema allows a teacher to be pinned per pair,
// overriding the class's default teacher; most rows only carry the default.
// The resolver prefers specificity without requiring it.
type TeacherResolver struct {
	assignments assignmentLookup
	classes     classLookup
	teachers    teacherLookup
	metrics     *MetricsService
	logger      *zap.Logger
	concurrency int
}

// NewTeacherResolver constructs a resolver.
func NewTeacherResolver(assignments assignmentLookup, classes classLookup, teachers teacherLookup, metrics *MetricsService, logger *zap.Logger, concurrency int) *TeacherResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 4
	}
	return &TeacherResolver{
		assignments: assignments,
		classes:     classes,
		teachers:    teachers,
		metrics:     metrics,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Resolve walks the fallback chain: explicit class-subject assignment, then
// the class's default teacher, then the sentinel. Lookup failures at any
// step are treated as "not found" for that step and logged; they never
// propagate to the caller.
func (r *TeacherResolver) Resolve(ctx context.Context, classRef *models.ClassID, subjectRef *models.SubjectID) TeacherResolution {
	if classRef != nil && subjectRef != nil {
		if res, ok := r.resolveAssignment(ctx, *classRef, *subjectRef); ok {
			r.metrics.RecordResolverStep(resolveStepAssignment, true)
			return res
		}
		r.metrics.RecordResolverStep(resolveStepAssignment, false)
	}

	if classRef != nil {
		if res, ok := r.resolveClassDefault(ctx, *classRef); ok {
			r.metrics.RecordResolverStep(resolveStepClassDefault, true)
			return res
		}
		r.metrics.RecordResolverStep(resolveStepClassDefault, false)
	}

	r.metrics.RecordResolverStep(resolveStepSentinel, true)
	return TeacherResolution{Name: NoTeacherAssigned}
}

func (r *TeacherResolver) resolveAssignment(ctx context.Context, classRef models.ClassID, subjectRef models.SubjectID) (TeacherResolution, bool) {
	assignment, err := r.assignments.FindByClassAndSubject(ctx, classRef, subjectRef)
	if err != nil {
		r.logger.Warn("teacher resolution: assignment lookup failed",
			zap.String("class_ref", classRef.String()),
			zap.String("subject_ref", subjectRef.String()),
			zap.Error(err))
		return TeacherResolution{}, false
	}
	if assignment == nil || assignment.TeacherRef == nil {
		return TeacherResolution{}, false
	}
	return r.teacherByID(ctx, *assignment.TeacherRef, resolveStepAssignment)
}

func (r *TeacherResolver) resolveClassDefault(ctx context.Context, classRef models.ClassID) (TeacherResolution, bool) {
	class, err := r.classes.FindByID(ctx, classRef)
	if err != nil {
		r.logger.Warn("teacher resolution: class lookup failed",
			zap.String("class_ref", classRef.String()),
			zap.Error(err))
		return TeacherResolution{}, false
	}
	if class == nil || class.DefaultTeacherRef == nil {
		return TeacherResolution{}, false
	}
	return r.teacherByID(ctx, *class.DefaultTeacherRef, resolveStepClassDefault)
}

func (r *TeacherResolver) teacherByID(ctx context.Context, id models.TeacherID, step string) (TeacherResolution, bool) {
	teacher, err := r.teachers.FindByID(ctx, id)
	if err != nil {
		r.logger.Warn("teacher resolution: teacher lookup failed",
			zap.String("teacher_ref", id.String()),
			zap.String("step", step),
			zap.Error(err))
		return TeacherResolution{}, false
	}
	name := teacher.DisplayName()
	if name == "" {
		return TeacherResolution{}, false
	}
	teacherID := teacher.ID
	return TeacherResolution{Name: name, TeacherID: &teacherID}, true
}

// ResolveAll resolves each distinct pair exactly once, concurrently. Many
// lessons share a pair (a recurring weekly subject), so the chain must not
// re-run per lesson row.
func (r *TeacherResolver) ResolveAll(ctx context.Context, pairs []PairKey) map[PairKey]TeacherResolution {
	distinct := make([]PairKey, 0, len(pairs))
	seen := make(map[PairKey]struct{}, len(pairs))
	for _, pair := range pairs {
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}
		distinct = append(distinct, pair)
	}

	results := make(map[PairKey]TeacherResolution, len(distinct))
	var mu sync.Mutex
	var wg sync.WaitGroup

	sem := make(chan struct{}, r.concurrency)
	for _, pair := range distinct {
		pair := pair
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			var classRef *models.ClassID
			var subjectRef *models.SubjectID
			if !pair.Class.IsZero() {
				c := pair.Class
				classRef = &c
			}
			if !pair.Subject.IsZero() {
				s := pair.Subject
				subjectRef = &s
			}
			res := r.Resolve(ctx, classRef, subjectRef)

			mu.Lock()
			results[pair] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	return results
}
