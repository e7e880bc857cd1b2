// Package reports aggregates the action log and share records into the
// dashboard numbers.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/docuflow/docuflow/internal/models"
	"github.com/docuflow/docuflow/internal/repository"
)

type Service struct {
	actions repository.ActionLogRepository
	shares  repository.ShareRepository
	docs    repository.DocumentRepository
	now     func() time.Time
}

func NewService(actions repository.ActionLogRepository, shares repository.ShareRepository, docs repository.DocumentRepository) *Service {
	return &Service{actions: actions, shares: shares, docs: docs, now: time.Now}
}

type Summary struct {
	Since           time.Time      `json:"since"`
	ActiveDocuments int            `json:"active_documents"`
	TotalShares     int            `json:"total_shares"`
	SignedShares    int            `json:"signed_shares"`
	PendingShares   int            `json:"pending_shares"`
	ActionCounts    map[string]int `json:"action_counts"`
}

// ForOwner builds the owner's activity summary over the trailing window.
func (s *Service) ForOwner(ctx context.Context, ownerID int64, window time.Duration) (*Summary, error) {
	since := s.now().Add(-window)

	counts, err := s.actions.CountByAction(ctx, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("count actions: %w", err)
	}
	shares, err := s.shares.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	docs, err := s.docs.ListActive(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	sum := &Summary{
		Since:           since,
		ActiveDocuments: len(docs),
		TotalShares:     len(shares),
		ActionCounts:    counts,
	}
	for _, sh := range shares {
		if sh.Status == models.ShareStatusSigned {
			sum.SignedShares++
		} else {
			sum.PendingShares++
		}
	}
	return sum, nil
}

// Activity returns the owner's recent action log page.
func (s *Service) Activity(ctx context.Context, ownerID int64, limit, offset int) ([]models.ActionLog, error) {
	return s.actions.ListByUser(ctx, ownerID, limit, offset)
}
