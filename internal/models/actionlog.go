package models

import "time"

// Document actions recorded in the append-only log.
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionShared   = "shared"
	ActionReminded = "reminded"
	ActionSigned   = "signed"
	ActionTrashed  = "trashed"
	ActionArchived = "archived"
	ActionRestored = "restored"
	ActionDeleted  = "deleted"
)

type ActionLog struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	DocumentID int64     `json:"document_id" db:"document_id"`
	EmployeeID *int64    `json:"employee_id,omitempty" db:"employee_id"`
	Action     string    `json:"action" db:"action"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
