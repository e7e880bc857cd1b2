// Package queue carries the asynchronous work the HTTP contract allows:
// reminder fan-out moved off the request path with at-least-once delivery.
package queue

const (
	TypeShareReminder = "share:reminder"
)

type ShareReminderPayload struct {
	OwnerID          int64 `json:"owner_id"`
	SharedDocumentID int64 `json:"shared_document_id"`
}
