// Package billing fronts the payment provider. The service never touches
// card data: it creates hosted checkout sessions and keeps the local
// subscription row in step with provider webhooks.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/docuflow/docuflow/internal/apperr"
	"github.com/docuflow/docuflow/internal/models"
	"github.com/docuflow/docuflow/internal/repository"
)

// SecretSource resolves the provider secret key, normally from the cached
// super-admin settings.
type SecretSource interface {
	Get(ctx context.Context) (*models.SuperAdminSetting, error)
}

type Service struct {
	repo          repository.BillingRepository
	users         repository.UserRepository
	secrets       SecretSource
	webhookSecret string
	successURL    string
	cancelURL     string
	log           *slog.Logger

	// newClient is swappable so tests never talk to the provider.
	newClient func(secretKey string) stripeAPI
}

type stripeAPI interface {
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type liveAPI struct{ c *client.API }

func (a liveAPI) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return a.c.CheckoutSessions.New(params)
}

func NewService(repo repository.BillingRepository, users repository.UserRepository, secrets SecretSource, webhookSecret, frontendBaseURL string, log *slog.Logger) *Service {
	return &Service{
		repo:          repo,
		users:         users,
		secrets:       secrets,
		webhookSecret: webhookSecret,
		successURL:    frontendBaseURL + "/billing/success",
		cancelURL:     frontendBaseURL + "/billing/cancel",
		log:           log,
		newClient: func(secretKey string) stripeAPI {
			return liveAPI{c: client.New(secretKey, nil)}
		},
	}
}

func (s *Service) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	return s.repo.ListPlans(ctx)
}

type CheckoutResult struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// Checkout opens a hosted checkout session for the plan and records a
// pending subscription keyed by the provider session.
func (s *Service) Checkout(ctx context.Context, userID, planID int64) (*CheckoutResult, error) {
	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("plan not found")
		}
		return nil, fmt.Errorf("load plan: %w", err)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.NotFound("user not found")
	}

	st, err := s.secrets.Get(ctx)
	if err != nil || st.StripeSecretKey == "" {
		return nil, apperr.Dependency("payment provider is not configured", err)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail: stripe.String(user.Email),
		SuccessURL:    stripe.String(s.successURL),
		CancelURL:     stripe.String(s.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(plan.PriceID),
			Quantity: stripe.Int64(1),
		}},
		ClientReferenceID: stripe.String(fmt.Sprintf("%d", userID)),
	}
	sess, err := s.newClient(st.StripeSecretKey).NewCheckoutSession(params)
	if err != nil {
		return nil, apperr.Dependency("creating checkout session failed", err)
	}

	if _, err := s.repo.CreateSubscription(ctx, &models.Subscription{
		UserID:                 userID,
		PlanID:                 plan.ID,
		ProviderSubscriptionID: sess.ID,
		Status:                 models.SubscriptionPending,
	}); err != nil {
		return nil, fmt.Errorf("record pending subscription: %w", err)
	}

	return &CheckoutResult{SessionID: sess.ID, CheckoutURL: sess.URL}, nil
}

// HandleWebhook verifies the provider signature and applies the status
// transition. Unknown event types are acknowledged and ignored.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return apperr.New(apperr.KindUnauthorized, "webhook signature verification failed")
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return apperr.Validation("malformed checkout session payload", nil)
		}
		return s.transition(ctx, sess.ID, models.SubscriptionActive, nil)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return apperr.Validation("malformed subscription payload", nil)
		}
		end := time.Unix(sub.CurrentPeriodEnd, 0)
		return s.transition(ctx, sub.ID, models.SubscriptionCanceled, &end)

	default:
		s.log.Debug("ignoring webhook event", "type", event.Type)
		return nil
	}
}

func (s *Service) transition(ctx context.Context, providerID, status string, periodEnd *time.Time) error {
	err := s.repo.UpdateSubscriptionStatus(ctx, providerID, status, periodEnd)
	if errors.Is(err, repository.ErrNotFound) {
		// The provider can replay events for subscriptions we never saw.
		s.log.Warn("webhook for unknown subscription", "provider_id", providerID, "status", status)
		return nil
	}
	return err
}

func (s *Service) Current(ctx context.Context, userID int64) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscriptionByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("no subscription")
		}
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	return sub, nil
}
