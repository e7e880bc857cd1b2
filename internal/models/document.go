package models

import (
	"encoding/json"
	"time"
)

type Document struct {
	ID         int64           `json:"id" db:"id"`
	PDFID      string          `json:"pdf_id" db:"pdf_id"`
	UserID     int64           `json:"user_id" db:"user_id"`
	Name       string          `json:"name" db:"name"`
	FilePath   string          `json:"file_path" db:"file_path"`
	Pages      int             `json:"pages" db:"pages"`
	Canvas     json.RawMessage `json:"canvas,omitempty" db:"canvas"`
	UpdateDate int64           `json:"update_date" db:"update_date"`
	IsArchived bool            `json:"is_archived" db:"is_archived"`
	DeletedAt  *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// Trashed reports whether the document is in the trash. Archived and trashed
// are independent axes; "active" means neither.
func (d *Document) Trashed() bool { return d.DeletedAt != nil }

type Partial struct {
	ID         int64      `json:"id" db:"id"`
	UserID     int64      `json:"user_id" db:"user_id"`
	DocumentID *int64     `json:"document_id,omitempty" db:"document_id"`
	EmployeeID *int64     `json:"employee_id,omitempty" db:"employee_id"`
	FilePath   string     `json:"file_path" db:"file_path"`
	FileType   string     `json:"file_type" db:"file_type"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

const (
	PartialTypeSignature = "signature"
	PartialTypeInitials  = "initials"
	PartialTypeText      = "text"
	PartialTypeLiteral   = "literal"
)
