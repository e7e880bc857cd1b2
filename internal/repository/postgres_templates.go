package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docuflow/docuflow/internal/models"
)

type PostgresTemplates struct {
	db *pgxpool.Pool
}

const templateColumns = `id, name, subject, template_type, body, is_active, created_at, updated_at`

func scanTemplate(row interface{ Scan(...any) error }, t *models.EmailTemplate) error {
	return row.Scan(&t.ID, &t.Name, &t.Subject, &t.TemplateType, &t.Body, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
}

func (r *PostgresTemplates) List(ctx context.Context) ([]models.EmailTemplate, error) {
	rows, err := r.db.Query(ctx, `SELECT `+templateColumns+` FROM email_templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []models.EmailTemplate
	for rows.Next() {
		var t models.EmailTemplate
		if err := scanTemplate(rows, &t); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresTemplates) Get(ctx context.Context, id int64) (*models.EmailTemplate, error) {
	var t models.EmailTemplate
	err := scanTemplate(r.db.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM email_templates WHERE id = $1`, id,
	), &t)
	if err != nil {
		return nil, fmt.Errorf("get template %d: %w", id, mapErr(err))
	}
	return &t, nil
}

func (r *PostgresTemplates) GetTemplateByName(ctx context.Context, name string) (*models.EmailTemplate, error) {
	var t models.EmailTemplate
	err := scanTemplate(r.db.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM email_templates WHERE name = $1`, name,
	), &t)
	if err != nil {
		return nil, fmt.Errorf("get template %q: %w", name, mapErr(err))
	}
	return &t, nil
}

func (r *PostgresTemplates) Create(ctx context.Context, t *models.EmailTemplate) (*models.EmailTemplate, error) {
	var out models.EmailTemplate
	err := scanTemplate(r.db.QueryRow(ctx,
		`INSERT INTO email_templates (name, subject, template_type, body, is_active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+templateColumns,
		t.Name, t.Subject, t.TemplateType, t.Body, t.IsActive,
	), &out)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", mapErr(err))
	}
	return &out, nil
}

func (r *PostgresTemplates) Update(ctx context.Context, t *models.EmailTemplate) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE email_templates
		 SET name = $1, subject = $2, template_type = $3, body = $4, is_active = $5, updated_at = now()
		 WHERE id = $6`,
		t.Name, t.Subject, t.TemplateType, t.Body, t.IsActive, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update template %d: %w", t.ID, mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresTemplates) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM email_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresTemplates) ListVariables(ctx context.Context, templateID int64) ([]models.EmailTemplateVariable, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, template_id, variable_name, display_name, default_value
		 FROM email_template_variables WHERE template_id = $1 ORDER BY variable_name`, templateID)
	if err != nil {
		return nil, fmt.Errorf("list template variables: %w", err)
	}
	defer rows.Close()

	var out []models.EmailTemplateVariable
	for rows.Next() {
		var v models.EmailTemplateVariable
		if err := rows.Scan(&v.ID, &v.TemplateID, &v.VariableName, &v.DisplayName, &v.DefaultValue); err != nil {
			return nil, fmt.Errorf("scan template variable: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *PostgresTemplates) UpsertVariable(ctx context.Context, v *models.EmailTemplateVariable) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO email_template_variables (template_id, variable_name, display_name, default_value)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (template_id, variable_name)
		 DO UPDATE SET display_name = EXCLUDED.display_name, default_value = EXCLUDED.default_value`,
		v.TemplateID, v.VariableName, v.DisplayName, v.DefaultValue,
	)
	if err != nil {
		return fmt.Errorf("upsert template variable: %w", err)
	}
	return nil
}
