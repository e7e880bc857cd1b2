// Package actionlog appends an audit row for every meaningful document
// mutation. Recording is best-effort: a failed append is logged and never
// fails the operation that triggered it.
package actionlog

import (
	"context"
	"log/slog"
	"time"

	"github.com/docuflow/docuflow/internal/models"
	"github.com/docuflow/docuflow/internal/repository"
)

type Recorder struct {
	repo repository.ActionLogRepository
	log  *slog.Logger
}

func NewRecorder(repo repository.ActionLogRepository, log *slog.Logger) *Recorder {
	return &Recorder{repo: repo, log: log}
}

func (r *Recorder) Record(ctx context.Context, userID, documentID int64, employeeID *int64, action string) {
	err := r.repo.Append(ctx, &models.ActionLog{
		UserID:     userID,
		DocumentID: documentID,
		EmployeeID: employeeID,
		Action:     action,
	})
	if err != nil {
		r.log.Warn("action log append failed",
			"action", action,
			"user_id", userID,
			"document_id", documentID,
			"error", err,
		)
	}
}

func (r *Recorder) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.ActionLog, error) {
	return r.repo.ListByUser(ctx, userID, limit, offset)
}

func (r *Recorder) CountByAction(ctx context.Context, userID int64, since time.Time) (map[string]int, error) {
	return r.repo.CountByAction(ctx, userID, since)
}
