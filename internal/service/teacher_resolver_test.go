package service

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
)

type assignmentStub struct {
	items map[PairKey]*models.ClassSubjectTeacher
	err   error
	calls int32
}

func (s *assignmentStub) FindByClassAndSubject(ctx context.Context, classRef models.ClassID, subjectRef models.SubjectID) (*models.ClassSubjectTeacher, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	if item, ok := s.items[PairKey{Class: classRef, Subject: subjectRef}]; ok {
		return item, nil
	}
	return nil, sql.ErrNoRows
}

type classStub struct {
	items map[models.ClassID]*models.Class
	err   error
}

func (s *classStub) FindByID(ctx context.Context, id models.ClassID) (*models.Class, error) {
	if s.err != nil {
		return nil, s.err
	}
	if item, ok := s.items[id]; ok {
		return item, nil
	}
	return nil, sql.ErrNoRows
}

type teacherStub struct {
	items map[models.TeacherID]*models.Teacher
	err   error
}

func (s *teacherStub) FindByID(ctx context.Context, id models.TeacherID) (*models.Teacher, error) {
	if s.err != nil {
		return nil, s.err
	}
	if item, ok := s.items[id]; ok {
		return item, nil
	}
	return nil, sql.ErrNoRows
}

func teacherIDRef(id string) *models.TeacherID {
	tid := models.TeacherID(id)
	return &tid
}

func classIDRef(id string) *models.ClassID {
	cid := models.ClassID(id)
	return &cid
}

func subjectIDRef(id string) *models.SubjectID {
	sid := models.SubjectID(id)
	return &sid
}

func newResolverFixture(assignments *assignmentStub, classes *classStub, teachers *teacherStub) *TeacherResolver {
	return NewTeacherResolver(assignments, classes, teachers, nil, zap.NewNop(), 4)
}

func TestResolvePrefersExplicitAssignmentOverClassDefault(t *testing.T) {
	assignments := &assignmentStub{items: map[PairKey]*models.ClassSubjectTeacher{
		{Class: "classX", Subject: "math"}: {ClassRef: "classX", SubjectRef: "math", TeacherRef: teacherIDRef("t-doe")},
	}}
	classes := &classStub{items: map[models.ClassID]*models.Class{
		"classX": {ID: "classX", Name: "Class X", DefaultTeacherRef: teacherIDRef("t-smith")},
	}}
	teachers := &teacherStub{items: map[models.TeacherID]*models.Teacher{
		"t-doe":   {ID: "t-doe", FirstName: "J.", LastName: "Doe"},
		"t-smith": {ID: "t-smith", FirstName: "A.", LastName: "Smith"},
	}}
	resolver := newResolverFixture(assignments, classes, teachers)

	math := resolver.Resolve(context.Background(), classIDRef("classX"), subjectIDRef("math"))
	assert.Equal(t, "J. Doe", math.Name)
	require.NotNil(t, math.TeacherID)
	assert.Equal(t, models.TeacherID("t-doe"), *math.TeacherID)

	// A subject without an explicit assignment falls back to the default.
	history := resolver.Resolve(context.Background(), classIDRef("classX"), subjectIDRef("history"))
	assert.Equal(t, "A. Smith", history.Name)
}

func TestResolveFallsBackToClassDefaultOnAssignmentError(t *testing.T) {
	assignments := &assignmentStub{err: errors.New("connection reset")}
	classes := &classStub{items: map[models.ClassID]*models.Class{
		"c1": {ID: "c1", DefaultTeacherRef: teacherIDRef("t1")},
	}}
	teachers := &teacherStub{items: map[models.TeacherID]*models.Teacher{
		"t1": {ID: "t1", FirstName: "Ana", LastName: "Lopes"},
	}}
	resolver := newResolverFixture(assignments, classes, teachers)

	res := resolver.Resolve(context.Background(), classIDRef("c1"), subjectIDRef("s1"))
	assert.Equal(t, "Ana Lopes", res.Name)
}

func TestResolveSentinelWhenNothingMatches(t *testing.T) {
	resolver := newResolverFixture(&assignmentStub{}, &classStub{}, &teacherStub{})

	cases := []struct {
		class   *models.ClassID
		subject *models.SubjectID
	}{
		{nil, nil},
		{classIDRef("missing"), nil},
		{nil, subjectIDRef("orphan")},
		{classIDRef("missing"), subjectIDRef("orphan")},
	}
	for _, tc := range cases {
		res := resolver.Resolve(context.Background(), tc.class, tc.subject)
		assert.Equal(t, NoTeacherAssigned, res.Name)
		assert.Nil(t, res.TeacherID)
	}
}

func TestResolveNeverReturnsEmptyName(t *testing.T) {
	// Every collaborator failing still terminates in the sentinel.
	boom := errors.New("boom")
	resolver := newResolverFixture(&assignmentStub{err: boom}, &classStub{err: boom}, &teacherStub{err: boom})

	res := resolver.Resolve(context.Background(), classIDRef("c1"), subjectIDRef("s1"))
	assert.Equal(t, NoTeacherAssigned, res.Name)
}

func TestResolveTreatsBlankTeacherNameAsMiss(t *testing.T) {
	assignments := &assignmentStub{items: map[PairKey]*models.ClassSubjectTeacher{
		{Class: "c1", Subject: "s1"}: {ClassRef: "c1", SubjectRef: "s1", TeacherRef: teacherIDRef("t-blank")},
	}}
	classes := &classStub{items: map[models.ClassID]*models.Class{
		"c1": {ID: "c1", DefaultTeacherRef: teacherIDRef("t-named")},
	}}
	teachers := &teacherStub{items: map[models.TeacherID]*models.Teacher{
		"t-blank": {ID: "t-blank"},
		"t-named": {ID: "t-named", FirstName: "Sam", LastName: "Pri"},
	}}
	resolver := newResolverFixture(assignments, classes, teachers)

	res := resolver.Resolve(context.Background(), classIDRef("c1"), subjectIDRef("s1"))
	assert.Equal(t, "Sam Pri", res.Name)
}

func TestResolveAllMemoizesPerDistinctPair(t *testing.T) {
	assignments := &assignmentStub{items: map[PairKey]*models.ClassSubjectTeacher{
		{Class: "c1", Subject: "s1"}: {ClassRef: "c1", SubjectRef: "s1", TeacherRef: teacherIDRef("t1")},
	}}
	teachers := &teacherStub{items: map[models.TeacherID]*models.Teacher{
		"t1": {ID: "t1", FirstName: "Jane", LastName: "Doe"},
	}}
	resolver := newResolverFixture(assignments, &classStub{}, teachers)

	// Many lessons sharing a pair: a recurring weekly subject.
	pairs := make([]PairKey, 0, 20)
	for i := 0; i < 10; i++ {
		pairs = append(pairs, PairKey{Class: "c1", Subject: "s1"})
		pairs = append(pairs, PairKey{Class: "c2", Subject: "s2"})
	}

	results := resolver.ResolveAll(context.Background(), pairs)
	require.Len(t, results, 2)
	assert.Equal(t, "Jane Doe", results[PairKey{Class: "c1", Subject: "s1"}].Name)
	assert.Equal(t, NoTeacherAssigned, results[PairKey{Class: "c2", Subject: "s2"}].Name)
	assert.Equal(t, int32(2), atomic.LoadInt32(&assignments.calls),
		"fallback chain must run once per distinct pair, not per lesson")
}
