package models

import (
	"encoding/json"
	"time"
)

// Share statuses. A share is created pending and becomes signed exactly once,
// when the signed PDF is re-saved through the tokenized link.
const (
	ShareStatusPending = 0
	ShareStatusSigned  = 1
)

type SharedDocument struct {
	ID                 int64           `json:"id" db:"id"`
	SharedDocumentName *string         `json:"shared_document_name,omitempty" db:"shared_document_name"`
	DocumentID         int64           `json:"document_id" db:"document_id"`
	UserID             int64           `json:"user_id" db:"user_id"`
	EmployeeID         int64           `json:"employee_id" db:"employee_id"`
	AccessHash         string          `json:"-" db:"access_hash"`
	Status             int             `json:"status" db:"status"`
	// ValidFor is the lifetime of the access link in minutes from creation.
	// Zero means the link is terminally dead (set when the share is signed).
	ValidFor  int             `json:"valid_for" db:"valid_for"`
	SignedAt  *time.Time      `json:"signed_at,omitempty" db:"signed_at"`
	FilePath  *string         `json:"file_path,omitempty" db:"file_path"`
	Pages     *int            `json:"pages,omitempty" db:"pages"`
	Canvas    json.RawMessage `json:"canvas,omitempty" db:"canvas"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// ExpiredAt reports whether the access link is dead at the given instant.
// Expiry is derived, never stored: created_at + valid_for minutes.
func (s *SharedDocument) ExpiredAt(now time.Time) bool {
	return now.After(s.CreatedAt.Add(time.Duration(s.ValidFor) * time.Minute))
}
