package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docuflow/docuflow/internal/models"
)

type PostgresActions struct {
	db *pgxpool.Pool
}

func (r *PostgresActions) Append(ctx context.Context, entry *models.ActionLog) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO action_logs (user_id, document_id, employee_id, action)
		 VALUES ($1, $2, $3, $4)`,
		entry.UserID, entry.DocumentID, entry.EmployeeID, entry.Action,
	)
	if err != nil {
		return fmt.Errorf("insert action log: %w", err)
	}
	return nil
}

func (r *PostgresActions) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.ActionLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, document_id, employee_id, action, created_at
		 FROM action_logs WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list action logs: %w", err)
	}
	defer rows.Close()

	var out []models.ActionLog
	for rows.Next() {
		var l models.ActionLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.DocumentID, &l.EmployeeID, &l.Action, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan action log: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresActions) CountByAction(ctx context.Context, userID int64, since time.Time) (map[string]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT action, COUNT(*) FROM action_logs
		 WHERE user_id = $1 AND created_at >= $2
		 GROUP BY action`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("count action logs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return nil, fmt.Errorf("scan action count: %w", err)
		}
		counts[action] = n
	}
	return counts, rows.Err()
}

type PostgresSettings struct {
	db *pgxpool.Pool
}

const settingsColumns = `id, app_name, app_logo, video_url, stripe_app_key, stripe_secret_key, updated_at`

func (r *PostgresSettings) Get(ctx context.Context) (*models.SuperAdminSetting, error) {
	var s models.SuperAdminSetting
	err := r.db.QueryRow(ctx,
		`SELECT `+settingsColumns+` FROM super_admin_settings ORDER BY id LIMIT 1`,
	).Scan(&s.ID, &s.AppName, &s.AppLogo, &s.VideoURL, &s.StripeAppKey, &s.StripeSecretKey, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", mapErr(err))
	}
	return &s, nil
}

func (r *PostgresSettings) Save(ctx context.Context, s *models.SuperAdminSetting) error {
	existing, err := r.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		_, err = r.db.Exec(ctx,
			`INSERT INTO super_admin_settings (app_name, app_logo, video_url, stripe_app_key, stripe_secret_key)
			 VALUES ($1, $2, $3, $4, $5)`,
			s.AppName, s.AppLogo, s.VideoURL, s.StripeAppKey, s.StripeSecretKey,
		)
		if err != nil {
			return fmt.Errorf("insert settings: %w", err)
		}
		return nil
	}
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		`UPDATE super_admin_settings
		 SET app_name = $1, app_logo = $2, video_url = $3, stripe_app_key = $4, stripe_secret_key = $5, updated_at = now()
		 WHERE id = $6`,
		s.AppName, s.AppLogo, s.VideoURL, s.StripeAppKey, s.StripeSecretKey, existing.ID,
	)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

type PostgresBilling struct {
	db *pgxpool.Pool
}

func (r *PostgresBilling) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, price_id, amount_cents, interval, is_active
		 FROM subscription_plans WHERE is_active ORDER BY amount_cents`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var out []models.SubscriptionPlan
	for rows.Next() {
		var p models.SubscriptionPlan
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceID, &p.AmountCents, &p.Interval, &p.IsActive); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresBilling) GetPlan(ctx context.Context, id int64) (*models.SubscriptionPlan, error) {
	var p models.SubscriptionPlan
	err := r.db.QueryRow(ctx,
		`SELECT id, name, price_id, amount_cents, interval, is_active
		 FROM subscription_plans WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.PriceID, &p.AmountCents, &p.Interval, &p.IsActive)
	if err != nil {
		return nil, fmt.Errorf("get plan %d: %w", id, mapErr(err))
	}
	return &p, nil
}

func (r *PostgresBilling) CreateSubscription(ctx context.Context, s *models.Subscription) (*models.Subscription, error) {
	var out models.Subscription
	err := r.db.QueryRow(ctx,
		`INSERT INTO subscriptions (user_id, plan_id, provider_customer_id, provider_subscription_id, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, user_id, plan_id, provider_customer_id, provider_subscription_id, status, current_period_end, created_at`,
		s.UserID, s.PlanID, s.ProviderCustomerID, s.ProviderSubscriptionID, s.Status,
	).Scan(&out.ID, &out.UserID, &out.PlanID, &out.ProviderCustomerID, &out.ProviderSubscriptionID,
		&out.Status, &out.CurrentPeriodEnd, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert subscription: %w", err)
	}
	return &out, nil
}

func (r *PostgresBilling) UpdateSubscriptionStatus(ctx context.Context, providerSubscriptionID, status string, periodEnd *time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE subscriptions SET status = $1, current_period_end = $2
		 WHERE provider_subscription_id = $3`,
		status, periodEnd, providerSubscriptionID,
	)
	if err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresBilling) GetSubscriptionByUser(ctx context.Context, userID int64) (*models.Subscription, error) {
	var s models.Subscription
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, plan_id, provider_customer_id, provider_subscription_id, status, current_period_end, created_at
		 FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, userID,
	).Scan(&s.ID, &s.UserID, &s.PlanID, &s.ProviderCustomerID, &s.ProviderSubscriptionID,
		&s.Status, &s.CurrentPeriodEnd, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get subscription for user %d: %w", userID, mapErr(err))
	}
	return &s, nil
}
