package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/export"
	"github.com/noah-isme/timetable-api/pkg/jobs"
	"github.com/noah-isme/timetable-api/pkg/storage"
)

const archiveJobType = "render_week_snapshot"

type weekLoader interface {
	Week(ctx context.Context, anchor time.Time, filters timetable.Filters) (*WeekView, error)
}

// ArchiveTicket is the receipt for a scheduled snapshot. The token is valid
// for download once the background render completes.
type ArchiveTicket struct {
	JobID     string    `json:"job_id"`
	File      string    `json:"file"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ArchiveService renders weekly snapshots to disk in the background. A
// snapshot request returns immediately with a signed download token; the
// PDF lands in the archive directory when the worker gets to it.
type ArchiveService struct {
	weeks  weekLoader
	pdf    *export.PDFExporter
	store  *storage.LocalStorage
	signer *storage.SignedURLSigner
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewArchiveService constructs the service and its render queue.
func NewArchiveService(weeks weekLoader, store *storage.LocalStorage, signer *storage.SignedURLSigner, workers int, logger *zap.Logger) *ArchiveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ArchiveService{
		weeks:  weeks,
		pdf:    export.NewPDFExporter(),
		store:  store,
		signer: signer,
		logger: logger,
	}
	s.queue = jobs.NewQueue("week-archive", s.process, jobs.QueueConfig{
		Workers: workers,
		Logger:  logger,
	})
	return s
}

// Start launches the render workers.
func (s *ArchiveService) Start(ctx context.Context) { s.queue.Start(ctx) }

// Stop drains the render workers.
func (s *ArchiveService) Stop() { s.queue.Stop() }

func archiveFilename(weekStart time.Time) string {
	return fmt.Sprintf("timetable-%s.pdf", weekStart.Format("2006-01-02"))
}

// Schedule enqueues a snapshot of the week containing anchor and returns a
// download ticket.
func (s *ArchiveService) Schedule(ctx context.Context, anchor time.Time) (*ArchiveTicket, error) {
	weekStart := timetable.StartOfWeek(anchor)
	jobID := uuid.NewString()
	filename := archiveFilename(weekStart)

	token, expiresAt, err := s.signer.Generate(jobID, filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign archive token")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: jobID, Type: archiveJobType, Payload: weekStart}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule archive render")
	}

	s.logger.Info("week snapshot scheduled",
		zap.String("job_id", jobID),
		zap.String("file", filename))
	return &ArchiveTicket{JobID: jobID, File: filename, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *ArchiveService) process(ctx context.Context, job jobs.Job) error {
	weekStart, ok := job.Payload.(time.Time)
	if !ok {
		return fmt.Errorf("unexpected payload for %s job %s", job.Type, job.ID)
	}

	view, err := s.weeks.Week(ctx, weekStart, timetable.Filters{})
	if err != nil {
		return fmt.Errorf("assemble week %s: %w", weekStart.Format("2006-01-02"), err)
	}

	payload, err := s.pdf.RenderWeek(SheetFromWeek(view))
	if err != nil {
		return fmt.Errorf("render week %s: %w", weekStart.Format("2006-01-02"), err)
	}

	if _, err := s.store.Save(archiveFilename(weekStart), payload); err != nil {
		return fmt.Errorf("store week snapshot: %w", err)
	}
	return nil
}

// Resolve validates a download token and returns the on-disk path of the
// snapshot it references. ErrNotFound is returned until the render lands.
func (s *ArchiveService) Resolve(token string) (string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid archive token")
	}

	file, err := s.store.Open(relPath)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "snapshot is not ready")
	}
	defer file.Close() //nolint:errcheck
	return s.store.Path(relPath), nil
}

// SheetFromWeek converts a laid-out week into the print shape.
func SheetFromWeek(view *WeekView) export.WeekSheet {
	sheet := export.WeekSheet{
		Title: "Week of " + view.WeekStart.Format("2 January 2006"),
	}
	for _, day := range view.Days {
		col := export.DaySheet{Name: day.Date.Format("Monday")}
		for _, ev := range day.Events {
			entry := export.Entry{
				Time:    fmt.Sprintf("%02d:%02d-%02d:%02d", ev.StartHour, ev.StartMinute, ev.EndHour, ev.EndMinute),
				Title:   ev.Title,
				Class:   ev.ClassName,
				Teacher: ev.TeacherName,
			}
			if ev.Location != nil {
				entry.Room = *ev.Location
			}
			col.Entries = append(col.Entries, entry)
		}
		sheet.Days = append(sheet.Days, col)
	}
	return sheet
}

// CleanupExpired removes snapshots older than ttl.
func (s *ArchiveService) CleanupExpired(ttl time.Duration) ([]string, error) {
	return s.store.CleanupOlderThan(ttl)
}
