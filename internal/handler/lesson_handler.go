package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type lessonMutator interface {
	Create(ctx context.Context, req dto.LessonRequest) (*models.Lesson, error)
	Update(ctx context.Context, target models.Lesson, patch models.LessonPatch) (*service.MutationResult, error)
	Remove(ctx context.Context, target *models.Lesson) (*service.MutationResult, error)
}

// LessonHandler manages lesson mutation endpoints.
type LessonHandler struct {
	service lessonMutator
}

// NewLessonHandler constructs handler.
func NewLessonHandler(svc lessonMutator) *LessonHandler {
	return &LessonHandler{service: svc}
}

// Create godoc
// @Summary Create lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body dto.LessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Router /lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	var req dto.LessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lesson, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// targetFrom rebuilds the lesson the client believes it is mutating. The
// path id may be stale or from a different id space, so the body's title
// and day ride along as fallback match material.
func targetFrom(c *gin.Context, req dto.LessonRequest) models.Lesson {
	target := models.Lesson{ID: models.LessonID(c.Param("id"))}
	if req.Title != nil {
		target.Title = *req.Title
	}
	if req.Day != nil {
		target.Day = models.NormalizeDay(*req.Day)
	}
	target.SubjectRef = req.SubjectRef
	target.ClassRef = req.ClassRef
	return target
}

// Update godoc
// @Summary Update lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID as the client knows it"
// @Param payload body dto.LessonRequest true "Lesson payload"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id} [put]
func (h *LessonHandler) Update(c *gin.Context) {
	var req dto.LessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.service.Update(c.Request.Context(), targetFrom(c, req), req.Patch())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete lesson
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID as the client knows it"
// @Param title query string false "Lesson title, used when the id does not match"
// @Param day query int false "Weekday index, used when the id does not match"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id} [delete]
func (h *LessonHandler) Delete(c *gin.Context) {
	target := &models.Lesson{ID: models.LessonID(c.Param("id"))}
	target.Title = c.Query("title")
	if raw := c.Query("day"); raw != "" {
		if day, err := strconv.Atoi(raw); err == nil {
			target.Day = models.NormalizeDay(day)
		}
	}
	if raw := c.Query("subject_ref"); raw != "" {
		ref := models.SubjectID(raw)
		target.SubjectRef = &ref
	}

	result, err := h.service.Remove(c.Request.Context(), target)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
