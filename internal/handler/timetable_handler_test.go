package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/internal/timetable"
)

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type fakeWeekProvider struct {
	view        *service.WeekView
	err         error
	lastAnchor  time.Time
	lastFilters timetable.Filters
	lastStudent models.StudentID
}

func (f *fakeWeekProvider) Week(_ context.Context, anchor time.Time, filters timetable.Filters) (*service.WeekView, error) {
	f.lastAnchor = anchor
	f.lastFilters = filters
	return f.view, f.err
}

func (f *fakeWeekProvider) StudentWeek(_ context.Context, studentRef models.StudentID, anchor time.Time, filters timetable.Filters) (*service.WeekView, error) {
	f.lastStudent = studentRef
	f.lastAnchor = anchor
	f.lastFilters = filters
	return f.view, f.err
}

func emptyWeekView() *service.WeekView {
	view := &service.WeekView{WeekStart: time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)}
	view.Days = make([]timetable.Day, 7)
	for i := range view.Days {
		view.Days[i] = timetable.Day{Date: view.WeekStart.AddDate(0, 0, i)}
	}
	return view
}

func TestTimetableHandlerWeekRejectsBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewTimetableHandler(&fakeWeekProvider{view: emptyWeekView()})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/timetable?week=next-tuesday", nil)

	h.Week(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTimetableHandlerWeekPassesFiltersAndAnchor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	provider := &fakeWeekProvider{view: emptyWeekView()}
	h := NewTimetableHandler(provider)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/timetable?week=2026-09-03&class=Grade%207A&teacher=Doe", nil)

	h.Week(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2026, time.September, 3, 0, 0, 0, 0, time.UTC), provider.lastAnchor)
	assert.Equal(t, "Grade 7A", provider.lastFilters.Class)
	assert.Equal(t, "Doe", provider.lastFilters.Teacher)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "2026-08-31T00:00:00Z", envelope.Data["week_start"])
}

func TestTimetableHandlerWeekDefaultsToNow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	provider := &fakeWeekProvider{view: emptyWeekView()}
	h := NewTimetableHandler(provider)
	fixed := time.Date(2026, time.September, 10, 9, 30, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/timetable", nil)

	h.Week(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fixed, provider.lastAnchor)
}

func TestTimetableHandlerSurfacesWarningsInMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	view := emptyWeekView()
	view.Warnings = []string{"class names unavailable"}
	h := NewTimetableHandler(&fakeWeekProvider{view: view})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/timetable", nil)

	h.Week(c)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	warnings, ok := envelope.Meta["warnings"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, "class names unavailable", warnings[0])
}

func TestTimetableHandlerStudentWeekUsesPathParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	provider := &fakeWeekProvider{view: emptyWeekView()}
	h := NewTimetableHandler(provider)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/stu-9/timetable", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-9"}}

	h.StudentWeek(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StudentID("stu-9"), provider.lastStudent)
}
