package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/export"
	"github.com/noah-isme/timetable-api/pkg/response"
)

// ExportHandler renders the weekly view as a downloadable document.
type ExportHandler struct {
	service weekProvider
	pdf     *export.PDFExporter
	csv     *export.CSVExporter
}

// NewExportHandler constructs handler.
func NewExportHandler(svc weekProvider) *ExportHandler {
	return &ExportHandler{service: svc, pdf: export.NewPDFExporter(), csv: export.NewCSVExporter()}
}

func (h *ExportHandler) week(c *gin.Context) (*service.WeekView, error) {
	anchor, err := weekAnchor(c, time.Now)
	if err != nil {
		return nil, err
	}
	return h.service.Week(c.Request.Context(), anchor, timetable.Filters{
		Course:  c.Query("course"),
		Class:   c.Query("class"),
		Teacher: c.Query("teacher"),
	})
}

// PDF godoc
// @Summary Export the weekly timetable as PDF
// @Tags Export
// @Produce application/pdf
// @Param week query string false "Any date inside the requested week (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Router /timetable/export.pdf [get]
func (h *ExportHandler) PDF(c *gin.Context) {
	view, err := h.week(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.pdf.RenderWeek(service.SheetFromWeek(view))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=timetable-%s.pdf", view.WeekStart.Format("2006-01-02")))
	c.Data(http.StatusOK, "application/pdf", payload)
}

// CSV godoc
// @Summary Export the weekly timetable as CSV
// @Tags Export
// @Produce text/csv
// @Param week query string false "Any date inside the requested week (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Router /timetable/export.csv [get]
func (h *ExportHandler) CSV(c *gin.Context) {
	view, err := h.week(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.csv.RenderWeek(service.SheetFromWeek(view))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=timetable-%s.csv", view.WeekStart.Format("2006-01-02")))
	c.Data(http.StatusOK, "text/csv", payload)
}
