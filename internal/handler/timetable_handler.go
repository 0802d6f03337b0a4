package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

const weekParamLayout = "2006-01-02"

type weekProvider interface {
	Week(ctx context.Context, anchor time.Time, filters timetable.Filters) (*service.WeekView, error)
	StudentWeek(ctx context.Context, studentRef models.StudentID, anchor time.Time, filters timetable.Filters) (*service.WeekView, error)
}

// TimetableHandler serves the assembled weekly views.
type TimetableHandler struct {
	service weekProvider
	now     func() time.Time
}

// NewTimetableHandler constructs handler.
func NewTimetableHandler(svc weekProvider) *TimetableHandler {
	return &TimetableHandler{service: svc, now: time.Now}
}

func parseFilters(c *gin.Context) timetable.Filters {
	return timetable.Filters{
		Course:  c.Query("course"),
		Class:   c.Query("class"),
		Teacher: c.Query("teacher"),
	}
}

// weekAnchor reads the week query parameter, defaulting to now. Any date
// inside the wanted week works; the anchor is folded to Monday downstream.
func weekAnchor(c *gin.Context, now func() time.Time) (time.Time, error) {
	raw := c.Query("week")
	if raw == "" {
		return now(), nil
	}
	anchor, err := time.Parse(weekParamLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "week must be formatted as YYYY-MM-DD")
	}
	return anchor, nil
}

// Week godoc
// @Summary Weekly timetable
// @Tags Timetable
// @Produce json
// @Param week query string false "Any date inside the requested week (YYYY-MM-DD)"
// @Param course query string false "Filter by course name"
// @Param class query string false "Filter by class name or id"
// @Param teacher query string false "Filter by teacher name or id"
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) Week(c *gin.Context) {
	anchor, err := weekAnchor(c, h.now)
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.service.Week(c.Request.Context(), anchor, parseFilters(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	var meta map[string]interface{}
	if len(view.Warnings) > 0 {
		meta = map[string]interface{}{"warnings": view.Warnings}
	}
	response.JSON(c, http.StatusOK, view, nil, meta)
}

// StudentWeek godoc
// @Summary Weekly timetable scoped to one student's classes
// @Tags Timetable
// @Produce json
// @Param id path string true "Student ID"
// @Param week query string false "Any date inside the requested week (YYYY-MM-DD)"
// @Param course query string false "Filter by course name"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/timetable [get]
func (h *TimetableHandler) StudentWeek(c *gin.Context) {
	anchor, err := weekAnchor(c, h.now)
	if err != nil {
		response.Error(c, err)
		return
	}

	studentRef := models.StudentID(c.Param("id"))
	view, err := h.service.StudentWeek(c.Request.Context(), studentRef, anchor, parseFilters(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	var meta map[string]interface{}
	if len(view.Warnings) > 0 {
		meta = map[string]interface{}{"warnings": view.Warnings}
	}
	response.JSON(c, http.StatusOK, view, nil, meta)
}
