package reports

import (
	"context"
	"testing"
	"time"

	"github.com/docuflow/docuflow/internal/models"
	"github.com/docuflow/docuflow/internal/repository"
)

func TestForOwner(t *testing.T) {
	mem := repository.NewMemory()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mem.Now = func() time.Time { return now }
	ctx := context.Background()

	doc, err := mem.Create(ctx, &models.Document{PDFID: "doc-1", UserID: 1, Name: "NDA", Pages: 1})
	if err != nil {
		t.Fatalf("seed doc: %v", err)
	}
	for _, action := range []string{models.ActionCreated, models.ActionShared, models.ActionShared, models.ActionSigned} {
		if err := mem.Append(ctx, &models.ActionLog{UserID: 1, DocumentID: doc.ID, Action: action}); err != nil {
			t.Fatalf("seed action: %v", err)
		}
	}
	// Another owner's activity stays out of the summary.
	if err := mem.Append(ctx, &models.ActionLog{UserID: 2, DocumentID: doc.ID, Action: models.ActionCreated}); err != nil {
		t.Fatalf("seed foreign action: %v", err)
	}

	for _, status := range []int{models.ShareStatusPending, models.ShareStatusSigned} {
		if _, _, err := mem.CreateShare(ctx, &models.SharedDocument{
			DocumentID: doc.ID, UserID: 1, EmployeeID: int64(status + 10), Status: status, ValidFor: 60,
		}, nil); err != nil {
			t.Fatalf("seed share: %v", err)
		}
	}

	svc := NewService(
		repository.MemoryActions{Memory: mem},
		repository.MemoryShares{Memory: mem},
		repository.MemoryDocuments{Memory: mem},
	)
	svc.now = func() time.Time { return now }

	sum, err := svc.ForOwner(ctx, 1, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.ActiveDocuments != 1 || sum.TotalShares != 2 || sum.SignedShares != 1 || sum.PendingShares != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.ActionCounts[models.ActionShared] != 2 || sum.ActionCounts[models.ActionCreated] != 1 {
		t.Fatalf("action counts = %+v", sum.ActionCounts)
	}

	activity, err := svc.Activity(ctx, 1, 10, 0)
	if err != nil || len(activity) != 4 {
		t.Fatalf("activity = %v, %v", activity, err)
	}
}
