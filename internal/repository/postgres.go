package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres bundles the pgx-backed implementations of every repository
// interface over one pool.
type Postgres struct {
	Documents *PostgresDocuments
	Shares    *PostgresShares
	Partials  *PostgresPartials
	Employees *PostgresEmployees
	Templates *PostgresTemplates
	Otp       *PostgresOtp
	Users     *PostgresUsers
	Actions   *PostgresActions
	Settings  *PostgresSettings
	Billing   *PostgresBilling
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{
		Documents: &PostgresDocuments{db: db},
		Shares:    &PostgresShares{db: db},
		Partials:  &PostgresPartials{db: db},
		Employees: &PostgresEmployees{db: db},
		Templates: &PostgresTemplates{db: db},
		Otp:       &PostgresOtp{db: db},
		Users:     &PostgresUsers{db: db},
		Actions:   &PostgresActions{db: db},
		Settings:  &PostgresSettings{db: db},
		Billing:   &PostgresBilling{db: db},
	}
}

const uniqueViolation = "23505"

// mapErr translates pgx errors into the package sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrConflict
	}
	return err
}
