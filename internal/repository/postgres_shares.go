package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docuflow/docuflow/internal/models"
)

type PostgresShares struct {
	db *pgxpool.Pool
}

const shareColumns = `id, shared_document_name, document_id, user_id, employee_id, access_hash, status, valid_for, signed_at, file_path, pages, canvas, created_at, updated_at`

func scanShare(row interface{ Scan(...any) error }, s *models.SharedDocument) error {
	return row.Scan(&s.ID, &s.SharedDocumentName, &s.DocumentID, &s.UserID, &s.EmployeeID,
		&s.AccessHash, &s.Status, &s.ValidFor, &s.SignedAt, &s.FilePath, &s.Pages, &s.Canvas,
		&s.CreatedAt, &s.UpdatedAt)
}

func (r *PostgresShares) GetPending(ctx context.Context, documentID, employeeID int64) (*models.SharedDocument, error) {
	var s models.SharedDocument
	err := scanShare(r.db.QueryRow(ctx,
		`SELECT `+shareColumns+` FROM shared_documents
		 WHERE document_id = $1 AND employee_id = $2 AND status = 0`,
		documentID, employeeID,
	), &s)
	if err != nil {
		return nil, fmt.Errorf("get pending share: %w", mapErr(err))
	}
	return &s, nil
}

func (r *PostgresShares) Get(ctx context.Context, id int64) (*models.SharedDocument, error) {
	var s models.SharedDocument
	err := scanShare(r.db.QueryRow(ctx,
		`SELECT `+shareColumns+` FROM shared_documents WHERE id = $1`, id,
	), &s)
	if err != nil {
		return nil, fmt.Errorf("get share %d: %w", id, mapErr(err))
	}
	return &s, nil
}

func (r *PostgresShares) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM shared_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete share %d: %w", id, err)
	}
	return nil
}

// Create inserts the share and runs send before committing, so a failed mail
// leaves no phantom share behind. Concurrent sharers race on the partial
// unique index over (document_id, employee_id) WHERE status = 0; the loser
// re-reads and returns the winner's row as an idempotent result.
func (r *PostgresShares) Create(ctx context.Context, share *models.SharedDocument, send func(*models.SharedDocument) error) (bool, *models.SharedDocument, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, nil, fmt.Errorf("begin share tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var out models.SharedDocument
	err = scanShare(tx.QueryRow(ctx,
		`INSERT INTO shared_documents (document_id, user_id, employee_id, access_hash, status, valid_for)
		 VALUES ($1, $2, $3, $4, 0, $5)
		 RETURNING `+shareColumns,
		share.DocumentID, share.UserID, share.EmployeeID, share.AccessHash, share.ValidFor,
	), &out)
	if err != nil {
		if errors.Is(mapErr(err), ErrConflict) {
			existing, getErr := r.GetPending(ctx, share.DocumentID, share.EmployeeID)
			if getErr != nil {
				return false, nil, fmt.Errorf("re-read after conflict: %w", getErr)
			}
			return false, existing, nil
		}
		return false, nil, fmt.Errorf("insert share: %w", err)
	}

	if send != nil {
		if err := send(&out); err != nil {
			return false, nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, nil, fmt.Errorf("commit share: %w", err)
	}
	return true, &out, nil
}

func (r *PostgresShares) MarkSigned(ctx context.Context, share *models.SharedDocument) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE shared_documents
		 SET shared_document_name = $1, file_path = $2, canvas = $3, pages = $4,
		     status = 1, signed_at = $5, valid_for = 0, updated_at = now()
		 WHERE id = $6`,
		share.SharedDocumentName, share.FilePath, share.Canvas, share.Pages, share.SignedAt, share.ID,
	)
	if err != nil {
		return fmt.Errorf("mark share %d signed: %w", share.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresShares) list(ctx context.Context, where string, args ...any) ([]models.SharedDocument, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+shareColumns+` FROM shared_documents WHERE `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	defer rows.Close()

	var out []models.SharedDocument
	for rows.Next() {
		var s models.SharedDocument
		if err := scanShare(rows, &s); err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresShares) ListByOwner(ctx context.Context, ownerID int64) ([]models.SharedDocument, error) {
	return r.list(ctx, `user_id = $1`, ownerID)
}

func (r *PostgresShares) ListSignedByOwner(ctx context.Context, ownerID int64) ([]models.SharedDocument, error) {
	return r.list(ctx, `user_id = $1 AND status = 1`, ownerID)
}
