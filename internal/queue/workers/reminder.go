// Package workers holds the asynq task handlers run by cmd/worker.
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/docuflow/docuflow/internal/apperr"
	"github.com/docuflow/docuflow/internal/document"
	"github.com/docuflow/docuflow/internal/queue"
)

type ReminderWorker struct {
	docs *document.Service
	log  *slog.Logger
}

func NewReminderWorker(docs *document.Service, log *slog.Logger) *ReminderWorker {
	return &ReminderWorker{docs: docs, log: log}
}

// ProcessTask re-sends the share mail for one pending share. A share that
// vanished or got signed between enqueue and delivery is done, not failed;
// retrying would never succeed.
func (w *ReminderWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.ShareReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	err := w.docs.Remind(ctx, payload.OwnerID, payload.SharedDocumentID)
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Kind == apperr.KindNotFound {
			w.log.Info("skipping reminder for missing share",
				"shared_document_id", payload.SharedDocumentID)
			return nil
		}
		return fmt.Errorf("remind share %d: %w", payload.SharedDocumentID, err)
	}
	w.log.Info("reminder sent", "shared_document_id", payload.SharedDocumentID)
	return nil
}
