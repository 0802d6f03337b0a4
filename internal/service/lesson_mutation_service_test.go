package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

// lessonStoreFake is an in-memory lesson table with scriptable failures.
type lessonStoreFake struct {
	lessons map[models.LessonID]models.Lesson
	calls   []string

	insertErr          error
	updateByIDErr      error
	updateBySubjectErr error
	deleteByIDErr      error
	deleteBySubjectErr error
	fingerprintErr     error
}

func newLessonStoreFake(lessons ...models.Lesson) *lessonStoreFake {
	fake := &lessonStoreFake{lessons: make(map[models.LessonID]models.Lesson)}
	for _, lesson := range lessons {
		fake.lessons[lesson.ID] = lesson
	}
	return fake
}

func (f *lessonStoreFake) record(call string) { f.calls = append(f.calls, call) }

func (f *lessonStoreFake) ListAll(ctx context.Context) ([]models.Lesson, error) {
	out := make([]models.Lesson, 0, len(f.lessons))
	for _, lesson := range f.lessons {
		out = append(out, lesson)
	}
	return out, nil
}

func (f *lessonStoreFake) FindByFingerprint(ctx context.Context, title string, day int) ([]models.Lesson, error) {
	f.record("FindByFingerprint")
	if f.fingerprintErr != nil {
		return nil, f.fingerprintErr
	}
	var out []models.Lesson
	for _, lesson := range f.lessons {
		if lesson.Title == title && lesson.Day == day {
			out = append(out, lesson)
		}
	}
	return out, nil
}

func (f *lessonStoreFake) Insert(ctx context.Context, lesson *models.Lesson) (models.LessonID, error) {
	f.record("Insert")
	if f.insertErr != nil {
		return "", f.insertErr
	}
	if lesson.ID.IsZero() {
		lesson.ID = models.LessonID("generated-1")
	}
	f.lessons[lesson.ID] = *lesson
	return lesson.ID, nil
}

func (f *lessonStoreFake) UpdateByID(ctx context.Context, lesson models.Lesson) (int64, error) {
	f.record("UpdateByID")
	if f.updateByIDErr != nil {
		return 0, f.updateByIDErr
	}
	if _, ok := f.lessons[lesson.ID]; !ok {
		return 0, nil
	}
	f.lessons[lesson.ID] = lesson
	return 1, nil
}

func (f *lessonStoreFake) UpdateBySubjectRef(ctx context.Context, subjectRef models.SubjectID, lesson models.Lesson) (int64, error) {
	f.record("UpdateBySubjectRef")
	if f.updateBySubjectErr != nil {
		return 0, f.updateBySubjectErr
	}
	var n int64
	for id, existing := range f.lessons {
		if existing.SubjectRef != nil && *existing.SubjectRef == subjectRef {
			lesson.ID = id
			f.lessons[id] = lesson
			n++
		}
	}
	return n, nil
}

func (f *lessonStoreFake) DeleteByID(ctx context.Context, id models.LessonID) (int64, error) {
	f.record("DeleteByID")
	if f.deleteByIDErr != nil {
		return 0, f.deleteByIDErr
	}
	if _, ok := f.lessons[id]; !ok {
		return 0, nil
	}
	delete(f.lessons, id)
	return 1, nil
}

func (f *lessonStoreFake) DeleteBySubjectRef(ctx context.Context, subjectRef models.SubjectID) (int64, error) {
	f.record("DeleteBySubjectRef")
	if f.deleteBySubjectErr != nil {
		return 0, f.deleteBySubjectErr
	}
	var n int64
	for id, existing := range f.lessons {
		if existing.SubjectRef != nil && *existing.SubjectRef == subjectRef {
			delete(f.lessons, id)
			n++
		}
	}
	return n, nil
}

func newMutationFixture(store *lessonStoreFake) *LessonMutationService {
	return NewLessonMutationService(store, nil, nil, nil, zap.NewNop())
}

func titleRef(s string) *string { return &s }

func TestUpdateUsesDirectIDWhenItMatches(t *testing.T) {
	store := newLessonStoreFake(models.Lesson{ID: "l1", Title: "Math", Day: 0})
	svc := newMutationFixture(store)

	result, err := svc.Update(context.Background(), models.Lesson{ID: "l1", Title: "Math", Day: 0}, models.LessonPatch{Title: titleRef("Algebra")})
	require.NoError(t, err)
	assert.Equal(t, strategyDirectID, result.Strategy)
	assert.Equal(t, "Algebra", store.lessons["l1"].Title)
	assert.Equal(t, []string{"UpdateByID"}, store.calls, "no fallback once the direct path matched")
}

func TestUpdateFallsBackToSecondaryKey(t *testing.T) {
	store := newLessonStoreFake(models.Lesson{ID: "native-uuid", Title: "Math", Day: 0, SubjectRef: subjectIDRef("s1")})
	svc := newMutationFixture(store)

	// The client knows the row by a synthesized id the store has never seen.
	target := models.Lesson{ID: "42", Title: "Math", Day: 0, SubjectRef: subjectIDRef("s1")}
	result, err := svc.Update(context.Background(), target, models.LessonPatch{Title: titleRef("Algebra")})
	require.NoError(t, err)
	assert.Equal(t, strategySecondaryKey, result.Strategy)
	assert.Equal(t, "Algebra", store.lessons["native-uuid"].Title)
}

func TestUpdateFallsBackToUniqueFingerprint(t *testing.T) {
	// Native id matches zero rows but (title, day) uniquely matches exactly
	// one. Must succeed via the fingerprint strategy and must not fall
	// through to destroy-and-recreate.
	store := newLessonStoreFake(models.Lesson{ID: "native-1", Title: "Biology", Day: 3})
	svc := newMutationFixture(store)

	target := models.Lesson{ID: "stale-99", Title: "Biology", Day: 3}
	result, err := svc.Update(context.Background(), target, models.LessonPatch{StartHour: intRef(10)})
	require.NoError(t, err)
	assert.Equal(t, strategyFingerprint, result.Strategy)
	assert.Equal(t, 10, store.lessons["native-1"].StartHour)
	assert.NotContains(t, store.calls, "DeleteByID", "unique structural match must not destroy the row")
	assert.NotContains(t, store.calls, "Insert")
}

func TestUpdateAmbiguousFingerprintSkipsToRecreate(t *testing.T) {
	store := newLessonStoreFake(
		models.Lesson{ID: "a", Title: "PE", Day: 2, SubjectRef: subjectIDRef("s-pe")},
		models.Lesson{ID: "b", Title: "PE", Day: 2, SubjectRef: subjectIDRef("s-pe2")},
	)
	svc := newMutationFixture(store)

	// Unknown id, no subject ref on the target, two fingerprint matches.
	// The delete phase of destroy-and-recreate hits the same ambiguity, so
	// nothing is deleted and the replacement insert never runs.
	target := models.Lesson{ID: "zz", Title: "PE", Day: 2}
	_, err := svc.Update(context.Background(), target, models.LessonPatch{Title: titleRef("Gym")})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrMutationFailed.Code, appErr.Code)
	assert.NotContains(t, store.calls, "Insert")
	assert.Len(t, store.lessons, 2, "nothing was changed")
}

func TestUpdateDestroyAndRecreateAsLastResort(t *testing.T) {
	store := newLessonStoreFake(models.Lesson{ID: "old", Title: "Chemistry", Day: 4, SubjectRef: subjectIDRef("s1")})
	store.updateByIDErr = errors.New("type mismatch for id column")
	store.updateBySubjectErr = errors.New("update path unavailable")
	store.fingerprintErr = errors.New("search path unavailable")
	svc := newMutationFixture(store)

	target := models.Lesson{ID: "old", Title: "Chemistry", Day: 4, SubjectRef: subjectIDRef("s1")}
	result, err := svc.Update(context.Background(), target, models.LessonPatch{Title: titleRef("Chem Lab")})
	require.NoError(t, err)
	assert.Equal(t, strategyRecreate, result.Strategy)
	require.NotNil(t, result.Lesson)
	assert.Equal(t, "Chem Lab", result.Lesson.Title)
	assert.NotEqual(t, models.LessonID("old"), result.Lesson.ID, "row identity is not preserved")
	assert.Len(t, store.lessons, 1)
}

func TestUpdateRecreateInsertFailureIsDataLoss(t *testing.T) {
	store := newLessonStoreFake(models.Lesson{ID: "old", Title: "Chemistry", Day: 4})
	store.updateByIDErr = errors.New("broken")
	store.updateBySubjectErr = errors.New("broken")
	svc := newMutationFixture(store)

	// Fingerprint update also fails, delete by id succeeds, then the
	// insert blows up: the row is gone and that must surface as fatal.
	store.fingerprintErr = errors.New("broken")
	store.insertErr = errors.New("insert rejected")

	target := models.Lesson{ID: "old", Title: "Chemistry", Day: 4}
	_, err := svc.Update(context.Background(), target, models.LessonPatch{Title: titleRef("Chem Lab")})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDataLoss.Code, appErr.Code, "delete-then-failed-insert is data loss, not an ordinary failure")
}

func TestUpdateFailureReportsLastConcreteError(t *testing.T) {
	store := newLessonStoreFake()
	lastErr := errors.New("fingerprint index unavailable")
	store.fingerprintErr = lastErr
	svc := newMutationFixture(store)

	target := models.Lesson{Title: "Ghost", Day: 1}
	_, err := svc.Update(context.Background(), target, models.LessonPatch{Title: titleRef("Still Ghost")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fingerprint index unavailable")
}

func TestRemoveNilTargetIsNoOp(t *testing.T) {
	store := newLessonStoreFake(models.Lesson{ID: "l1", Title: "Math", Day: 0})
	svc := newMutationFixture(store)

	result, err := svc.Remove(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "noop", result.Strategy)
	assert.Empty(t, store.calls, "a nil target must not touch the store")
	assert.Len(t, store.lessons, 1)
}

func TestRemoveWalksFallbackChain(t *testing.T) {
	store := newLessonStoreFake(models.Lesson{ID: "native-1", Title: "History", Day: 2})
	svc := newMutationFixture(store)

	target := models.Lesson{ID: "stale-7", Title: "History", Day: 2}
	result, err := svc.Remove(context.Background(), &target)
	require.NoError(t, err)
	assert.Equal(t, strategyFingerprint, result.Strategy)
	assert.Empty(t, store.lessons)
}

func TestCreateThenAssembleRoundTrip(t *testing.T) {
	store := newLessonStoreFake()
	svc := newMutationFixture(store)

	day := 1
	start := 9
	end := 10
	created, err := svc.Create(context.Background(), dto.LessonRequest{
		Title: titleRef("Geography"), Day: &day, StartHour: &start, EndHour: &end,
	})
	require.NoError(t, err)
	require.False(t, created.ID.IsZero())

	f := newAssemblerFixture()
	lessons, err := store.ListAll(context.Background())
	require.NoError(t, err)
	f.lessons.items = lessons

	events, _, err := f.service().Assemble(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, created.ID, events[0].ID)
	assert.Equal(t, "Geography", events[0].Title)
}

func TestCreateValidatesPayload(t *testing.T) {
	store := newLessonStoreFake()
	svc := newMutationFixture(store)

	_, err := svc.Create(context.Background(), dto.LessonRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, store.calls)
}

func intRef(n int) *int { return &n }
