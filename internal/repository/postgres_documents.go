package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docuflow/docuflow/internal/models"
)

type PostgresDocuments struct {
	db *pgxpool.Pool
}

const documentColumns = `id, pdf_id, user_id, name, file_path, pages, canvas, update_date, is_archived, deleted_at, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }, d *models.Document) error {
	return row.Scan(&d.ID, &d.PDFID, &d.UserID, &d.Name, &d.FilePath, &d.Pages, &d.Canvas,
		&d.UpdateDate, &d.IsArchived, &d.DeletedAt, &d.CreatedAt, &d.UpdatedAt)
}

func (r *PostgresDocuments) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {
	var out models.Document
	err := scanDocument(r.db.QueryRow(ctx,
		`INSERT INTO documents (pdf_id, user_id, name, file_path, pages, canvas, update_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+documentColumns,
		doc.PDFID, doc.UserID, doc.Name, doc.FilePath, doc.Pages, doc.Canvas, doc.UpdateDate,
	), &out)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", mapErr(err))
	}
	return &out, nil
}

func (r *PostgresDocuments) GetByPDFID(ctx context.Context, pdfID string) (*models.Document, error) {
	var d models.Document
	err := scanDocument(r.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE pdf_id = $1 AND deleted_at IS NULL`, pdfID,
	), &d)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", pdfID, mapErr(err))
	}
	return &d, nil
}

func (r *PostgresDocuments) GetTrashedByPDFID(ctx context.Context, pdfID string) (*models.Document, error) {
	var d models.Document
	err := scanDocument(r.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE pdf_id = $1 AND deleted_at IS NOT NULL`, pdfID,
	), &d)
	if err != nil {
		return nil, fmt.Errorf("get trashed document %s: %w", pdfID, mapErr(err))
	}
	return &d, nil
}

func (r *PostgresDocuments) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	var d models.Document
	err := scanDocument(r.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id,
	), &d)
	if err != nil {
		return nil, fmt.Errorf("get document %d: %w", id, mapErr(err))
	}
	return &d, nil
}

func (r *PostgresDocuments) Update(ctx context.Context, doc *models.Document) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE documents SET name = $1, file_path = $2, pages = $3, canvas = $4, update_date = $5, updated_at = now()
		 WHERE id = $6`,
		doc.Name, doc.FilePath, doc.Pages, doc.Canvas, doc.UpdateDate, doc.ID,
	)
	if err != nil {
		return fmt.Errorf("update document %d: %w", doc.ID, mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresDocuments) list(ctx context.Context, where string, args ...any) ([]models.Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		if err := scanDocument(rows, &d); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *PostgresDocuments) ListActive(ctx context.Context, ownerID int64) ([]models.Document, error) {
	return r.list(ctx, `user_id = $1 AND deleted_at IS NULL AND NOT is_archived`, ownerID)
}

func (r *PostgresDocuments) ListArchived(ctx context.Context, ownerID int64) ([]models.Document, error) {
	return r.list(ctx, `user_id = $1 AND deleted_at IS NULL AND is_archived`, ownerID)
}

func (r *PostgresDocuments) ListTrashed(ctx context.Context, ownerID int64) ([]models.Document, error) {
	return r.list(ctx, `user_id = $1 AND deleted_at IS NOT NULL`, ownerID)
}

func (r *PostgresDocuments) SetArchived(ctx context.Context, id int64, archived bool) error {
	return r.exec(ctx, `UPDATE documents SET is_archived = $1, updated_at = now() WHERE id = $2`, archived, id)
}

func (r *PostgresDocuments) Trash(ctx context.Context, id int64, at time.Time) error {
	return r.exec(ctx, `UPDATE documents SET deleted_at = $1, updated_at = now() WHERE id = $2 AND deleted_at IS NULL`, at, id)
}

func (r *PostgresDocuments) Restore(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE documents SET deleted_at = NULL, updated_at = now() WHERE id = $1 AND deleted_at IS NOT NULL`, id)
}

func (r *PostgresDocuments) ForceDelete(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
}

func (r *PostgresDocuments) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type PostgresPartials struct {
	db *pgxpool.Pool
}

func (r *PostgresPartials) Create(ctx context.Context, p *models.Partial) (*models.Partial, error) {
	var out models.Partial
	err := r.db.QueryRow(ctx,
		`INSERT INTO partials (user_id, document_id, employee_id, file_path, file_type)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, user_id, document_id, employee_id, file_path, file_type, created_at`,
		p.UserID, p.DocumentID, p.EmployeeID, p.FilePath, p.FileType,
	).Scan(&out.ID, &out.UserID, &out.DocumentID, &out.EmployeeID, &out.FilePath, &out.FileType, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert partial: %w", mapErr(err))
	}
	return &out, nil
}

func (r *PostgresPartials) ListByOwner(ctx context.Context, ownerID int64) ([]models.Partial, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, document_id, employee_id, file_path, file_type, created_at
		 FROM partials WHERE user_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list partials: %w", err)
	}
	defer rows.Close()

	var out []models.Partial
	for rows.Next() {
		var p models.Partial
		if err := rows.Scan(&p.ID, &p.UserID, &p.DocumentID, &p.EmployeeID, &p.FilePath, &p.FileType, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan partial: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
