package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docuflow/docuflow/internal/models"
)

type PostgresEmployees struct {
	db *pgxpool.Pool
}

const employeeColumns = `id, user_id, name, email, created_at`

func scanEmployee(row interface{ Scan(...any) error }, e *models.Employee) error {
	return row.Scan(&e.ID, &e.UserID, &e.Name, &e.Email, &e.CreatedAt)
}

func (r *PostgresEmployees) Get(ctx context.Context, id int64) (*models.Employee, error) {
	var e models.Employee
	err := scanEmployee(r.db.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id,
	), &e)
	if err != nil {
		return nil, fmt.Errorf("get employee %d: %w", id, mapErr(err))
	}
	return &e, nil
}

func (r *PostgresEmployees) GetOwned(ctx context.Context, ownerID, id int64) (*models.Employee, error) {
	var e models.Employee
	err := scanEmployee(r.db.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = $1 AND user_id = $2`, id, ownerID,
	), &e)
	if err != nil {
		return nil, fmt.Errorf("get employee %d: %w", id, mapErr(err))
	}
	return &e, nil
}

func (r *PostgresEmployees) List(ctx context.Context, ownerID int64) ([]models.Employee, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE user_id = $1 ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []models.Employee
	for rows.Next() {
		var e models.Employee
		if err := scanEmployee(rows, &e); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresEmployees) Create(ctx context.Context, e *models.Employee) (*models.Employee, error) {
	var out models.Employee
	err := scanEmployee(r.db.QueryRow(ctx,
		`INSERT INTO employees (user_id, name, email) VALUES ($1, $2, $3)
		 RETURNING `+employeeColumns,
		e.UserID, e.Name, e.Email,
	), &out)
	if err != nil {
		return nil, fmt.Errorf("insert employee: %w", mapErr(err))
	}
	return &out, nil
}

func (r *PostgresEmployees) Delete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM employees WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete employee %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
