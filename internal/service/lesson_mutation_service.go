package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

const (
	opUpdate = "update"
	opDelete = "delete"
	opCreate = "create"

	strategyDirectID     = "direct_id"
	strategySecondaryKey = "secondary_key"
	strategyFingerprint  = "fingerprint"
	strategyRecreate     = "destroy_recreate"
)

type lessonStore interface {
	FindByFingerprint(ctx context.Context, title string, day int) ([]models.Lesson, error)
	Insert(ctx context.Context, lesson *models.Lesson) (models.LessonID, error)
	UpdateByID(ctx context.Context, lesson models.Lesson) (int64, error)
	UpdateBySubjectRef(ctx context.Context, subjectRef models.SubjectID, lesson models.Lesson) (int64, error)
	DeleteByID(ctx context.Context, id models.LessonID) (int64, error)
	DeleteBySubjectRef(ctx context.Context, subjectRef models.SubjectID) (int64, error)
}

// StrategyOutcome records one fallback attempt. Outcomes are values, not
// exceptions: the orchestrator iterates and stops at the first success.
type StrategyOutcome struct {
	Strategy string `json:"strategy"`
	Matched  bool   `json:"matched"`
	Err      error  `json:"-"`
}

// MutationResult reports which strategy finally persisted the mutation.
type MutationResult struct {
	Lesson   *models.Lesson    `json:"lesson,omitempty"`
	Strategy string            `json:"strategy"`
	Attempts []StrategyOutcome `json:"attempts"`
}

// CreateLessonInput is the validated shape of a create request.
type CreateLessonInput struct {
	Title       string  `validate:"required"`
	Day         int     `validate:"min=0,max=6"`
	StartHour   int     `validate:"min=0,max=23"`
	StartMinute int     `validate:"min=0,max=59"`
	EndHour     int     `validate:"min=0,max=24"`
	EndMinute   int     `validate:"min=0,max=59"`
	ClassRef    *models.ClassID
	SubjectRef  *models.SubjectID
	Location    *string
	Color       *string
}

// LessonMutationService applies create/update/delete requests against the
// lesson store. The identifier scheme used by clients does not always match
// the store's native key, so a direct update can silently match zero rows;
// updates and deletes therefore walk an ordered strategy chain and stop at
// the first one that reports success. Nothing local is patched when every
// strategy fails.
type LessonMutationService struct {
	store     lessonStore
	cache     *CacheService
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewLessonMutationService constructs the service.
func NewLessonMutationService(store lessonStore, cache *CacheService, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *LessonMutationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonMutationService{store: store, cache: cache, validator: validate, metrics: metrics, logger: logger}
}

// Create inserts a new lesson. There is no fallback chain for inserts; the
// returned lesson carries the identifier in canonical form whatever shape
// the store reported it in.
func (s *LessonMutationService) Create(ctx context.Context, req dto.LessonRequest) (*models.Lesson, error) {
	lesson := req.Patch().Apply(models.Lesson{})
	input := CreateLessonInput{
		Title:       lesson.Title,
		Day:         lesson.Day,
		StartHour:   lesson.StartHour,
		StartMinute: lesson.StartMinute,
		EndHour:     lesson.EndHour,
		EndMinute:   lesson.EndMinute,
		ClassRef:    lesson.ClassRef,
		SubjectRef:  lesson.SubjectRef,
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	id, err := s.store.Insert(ctx, &lesson)
	if err != nil {
		s.metrics.RecordMutationAttempt(opCreate, "insert", "error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}
	lesson.ID = id

	s.metrics.RecordMutationAttempt(opCreate, "insert", "success")
	s.cache.Invalidate(ctx, WeekCachePattern)
	return &lesson, nil
}

// Update rewrites the lesson the in-memory target describes. The desired
// final state is the target with the patch folded in.
func (s *LessonMutationService) Update(ctx context.Context, target models.Lesson, patch models.LessonPatch) (*MutationResult, error) {
	desired := patch.Apply(target)
	result := &MutationResult{}

	strategies := []struct {
		name  string
		apply func(context.Context) (bool, error)
	}{
		{strategyDirectID, func(ctx context.Context) (bool, error) {
			if target.ID.IsZero() {
				return false, nil
			}
			desired.ID = target.ID
			n, err := s.store.UpdateByID(ctx, desired)
			return n > 0, err
		}},
		{strategySecondaryKey, func(ctx context.Context) (bool, error) {
			ref := secondaryKey(target, desired)
			if ref == nil {
				return false, nil
			}
			n, err := s.store.UpdateBySubjectRef(ctx, *ref, desired)
			return n > 0, err
		}},
		{strategyFingerprint, func(ctx context.Context) (bool, error) {
			rows, err := s.store.FindByFingerprint(ctx, target.Title, target.Day)
			if err != nil {
				return false, err
			}
			if len(rows) != 1 {
				return false, nil
			}
			desired.ID = rows[0].ID
			n, err := s.store.UpdateByID(ctx, desired)
			return n > 0, err
		}},
	}

	for _, strategy := range strategies {
		matched, err := strategy.apply(ctx)
		result.Attempts = append(result.Attempts, StrategyOutcome{Strategy: strategy.name, Matched: matched, Err: err})
		s.recordAttempt(opUpdate, strategy.name, matched, err)
		if err != nil {
			s.logger.Warn("lesson update strategy failed",
				zap.String("strategy", strategy.name),
				zap.String("lesson_id", target.ID.String()),
				zap.Error(err))
			continue
		}
		if matched {
			result.Strategy = strategy.name
			result.Lesson = &desired
			s.cache.Invalidate(ctx, WeekCachePattern)
			return result, nil
		}
	}

	// Last resort: delete whatever row the target describes and insert the
	// desired final state as a new row. Row identity is traded for forward
	// progress; the degraded path is logged so it stays auditable.
	recreated, err := s.destroyAndRecreate(ctx, target, desired, result)
	if err != nil {
		return nil, err
	}
	if recreated != nil {
		result.Strategy = strategyRecreate
		result.Lesson = recreated
		s.cache.Invalidate(ctx, WeekCachePattern)
		return result, nil
	}

	return nil, s.mutationFailure("update", target.ID, result.Attempts)
}

func (s *LessonMutationService) destroyAndRecreate(ctx context.Context, target, desired models.Lesson, result *MutationResult) (*models.Lesson, error) {
	deleted, attempts := s.tryDelete(ctx, target)
	result.Attempts = append(result.Attempts, attempts...)
	if !deleted {
		s.recordAttempt(opUpdate, strategyRecreate, false, nil)
		return nil, nil
	}

	s.logger.Warn("lesson update degraded to destroy-and-recreate",
		zap.String("lesson_id", target.ID.String()),
		zap.String("title", target.Title))

	replacement := desired
	replacement.ID = ""
	if _, err := s.store.Insert(ctx, &replacement); err != nil {
		// The original row is gone and the replacement was not written.
		// This is actual data loss, not a failed no-op, and retrying the
		// insert without an idempotency key could duplicate the row if the
		// delete did not actually take effect.
		s.recordAttempt(opUpdate, strategyRecreate, false, err)
		s.logger.Error("destroy-and-recreate lost the lesson",
			zap.String("lesson_id", target.ID.String()),
			zap.String("title", target.Title),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrDataLoss.Code, appErrors.ErrDataLoss.Status, appErrors.ErrDataLoss.Message)
	}

	s.recordAttempt(opUpdate, strategyRecreate, true, nil)
	result.Attempts = append(result.Attempts, StrategyOutcome{Strategy: strategyRecreate, Matched: true})
	return &replacement, nil
}

// Remove deletes the lesson the target describes. A nil target is a no-op:
// there is nothing selected, so there is nothing to do and no call is made.
func (s *LessonMutationService) Remove(ctx context.Context, target *models.Lesson) (*MutationResult, error) {
	if target == nil {
		return &MutationResult{Strategy: "noop"}, nil
	}

	deleted, attempts := s.tryDelete(ctx, *target)
	result := &MutationResult{Attempts: attempts}
	if deleted {
		for _, attempt := range attempts {
			if attempt.Matched {
				result.Strategy = attempt.Strategy
			}
		}
		s.cache.Invalidate(ctx, WeekCachePattern)
		return result, nil
	}

	return nil, s.mutationFailure("delete", target.ID, attempts)
}

func (s *LessonMutationService) tryDelete(ctx context.Context, target models.Lesson) (bool, []StrategyOutcome) {
	strategies := []struct {
		name  string
		apply func(context.Context) (bool, error)
	}{
		{strategyDirectID, func(ctx context.Context) (bool, error) {
			if target.ID.IsZero() {
				return false, nil
			}
			n, err := s.store.DeleteByID(ctx, target.ID)
			return n > 0, err
		}},
		{strategySecondaryKey, func(ctx context.Context) (bool, error) {
			if target.SubjectRef == nil {
				return false, nil
			}
			n, err := s.store.DeleteBySubjectRef(ctx, *target.SubjectRef)
			return n > 0, err
		}},
		{strategyFingerprint, func(ctx context.Context) (bool, error) {
			rows, err := s.store.FindByFingerprint(ctx, target.Title, target.Day)
			if err != nil {
				return false, err
			}
			if len(rows) != 1 {
				return false, nil
			}
			n, err := s.store.DeleteByID(ctx, rows[0].ID)
			return n > 0, err
		}},
	}

	var attempts []StrategyOutcome
	for _, strategy := range strategies {
		matched, err := strategy.apply(ctx)
		attempts = append(attempts, StrategyOutcome{Strategy: strategy.name, Matched: matched, Err: err})
		s.recordAttempt(opDelete, strategy.name, matched, err)
		if err != nil {
			s.logger.Warn("lesson delete strategy failed",
				zap.String("strategy", strategy.name),
				zap.String("lesson_id", target.ID.String()),
				zap.Error(err))
			continue
		}
		if matched {
			return true, attempts
		}
	}
	return false, attempts
}

func (s *LessonMutationService) recordAttempt(op, strategy string, matched bool, err error) {
	outcome := "miss"
	switch {
	case err != nil:
		outcome = "error"
	case matched:
		outcome = "success"
	}
	s.metrics.RecordMutationAttempt(op, strategy, outcome)
}

// mutationFailure aggregates the chain's outcomes so the caller sees the
// last concrete error, not just "it failed".
func (s *LessonMutationService) mutationFailure(op string, id models.LessonID, attempts []StrategyOutcome) error {
	var lastErr error
	for _, attempt := range attempts {
		if attempt.Err != nil {
			lastErr = attempt.Err
		}
	}

	message := fmt.Sprintf("failed to %s lesson %q: no strategy matched", op, id)
	if lastErr != nil {
		message = fmt.Sprintf("failed to %s lesson %q: %v", op, id, lastErr)
	}
	s.logger.Error("lesson mutation exhausted all strategies",
		zap.String("operation", op),
		zap.String("lesson_id", id.String()),
		zap.Int("attempts", len(attempts)),
		zap.Error(lastErr))
	return appErrors.Wrap(lastErr, appErrors.ErrMutationFailed.Code, appErrors.ErrMutationFailed.Status, message)
}

func secondaryKey(target, desired models.Lesson) *models.SubjectID {
	if target.SubjectRef != nil {
		return target.SubjectRef
	}
	return desired.SubjectRef
}
