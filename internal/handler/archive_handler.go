package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type archiver interface {
	Schedule(ctx context.Context, anchor time.Time) (*service.ArchiveTicket, error)
	Resolve(token string) (string, error)
}

// ArchiveHandler manages background week snapshots.
type ArchiveHandler struct {
	service archiver
}

// NewArchiveHandler constructs handler.
func NewArchiveHandler(svc archiver) *ArchiveHandler {
	return &ArchiveHandler{service: svc}
}

// Schedule godoc
// @Summary Schedule a background PDF snapshot of a week
// @Tags Export
// @Produce json
// @Param week query string false "Any date inside the requested week (YYYY-MM-DD)"
// @Success 202 {object} response.Envelope
// @Router /timetable/archives [post]
func (h *ArchiveHandler) Schedule(c *gin.Context) {
	anchor, err := weekAnchor(c, time.Now)
	if err != nil {
		response.Error(c, err)
		return
	}
	ticket, err := h.service.Schedule(c.Request.Context(), anchor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, ticket, nil)
}

// Download godoc
// @Summary Download a rendered week snapshot
// @Tags Export
// @Produce application/pdf
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /timetable/archives/{token} [get]
func (h *ArchiveHandler) Download(c *gin.Context) {
	path, err := h.service.Resolve(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(path, "timetable.pdf")
}
