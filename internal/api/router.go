// Package api wires the HTTP surface: routing, middleware and handler
// construction.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/docuflow/docuflow/internal/actionlog"
	"github.com/docuflow/docuflow/internal/api/handlers"
	"github.com/docuflow/docuflow/internal/api/middleware"
	"github.com/docuflow/docuflow/internal/auth"
	"github.com/docuflow/docuflow/internal/billing"
	"github.com/docuflow/docuflow/internal/cache"
	"github.com/docuflow/docuflow/internal/config"
	"github.com/docuflow/docuflow/internal/document"
	"github.com/docuflow/docuflow/internal/employee"
	"github.com/docuflow/docuflow/internal/mail"
	"github.com/docuflow/docuflow/internal/models"
	"github.com/docuflow/docuflow/internal/otp"
	"github.com/docuflow/docuflow/internal/queue"
	"github.com/docuflow/docuflow/internal/reports"
	"github.com/docuflow/docuflow/internal/repository"
	"github.com/docuflow/docuflow/internal/settings"
	"github.com/docuflow/docuflow/internal/signer"
	"github.com/docuflow/docuflow/internal/storage"
	"github.com/docuflow/docuflow/internal/template"
	"github.com/docuflow/docuflow/internal/token"
)

type Router struct {
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	log   *slog.Logger
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, log *slog.Logger) *Router {
	return &Router{db: db, redis: rdb, cfg: cfg, log: log}
}

func (rt *Router) Setup() (http.Handler, error) {
	repos := repository.NewPostgres(rt.db)

	blobs, err := storage.NewMinio(rt.cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	engine := template.NewEngine()
	mailer := mail.NewMailer(repos.Templates, engine, mail.NewSMTPSender(rt.cfg.SMTP))
	sg := signer.New([]byte(rt.cfg.Auth.AppKey))
	tokens := token.NewIssuer(rt.cfg.Auth.AppKey)
	redisCache := cache.NewCache(rt.redis)
	queueClient := queue.NewClient(rt.cfg.Redis)
	actions := actionlog.NewRecorder(repos.Actions, rt.log)

	docSvc := document.NewService(document.Deps{
		Documents: repos.Documents,
		Shares:    repos.Shares,
		Partials:  repos.Partials,
		Employees: repos.Employees,
		Storage:   blobs,
		Mailer:    mailer,
		Tokens:    tokens,
		Actions:   actions,
		Logger:    rt.log,
		ValidFor:  rt.cfg.Share.ValidMinutes,
	})
	authSvc := auth.NewService(repos.Users, sg, mailer, rt.cfg.Auth.JWTSecret, rt.cfg.Frontend.BaseURL)
	otpSvc := otp.NewService(repos.Otp, mailer)
	empSvc := employee.NewService(repos.Employees)
	tplSvc := template.NewService(repos.Templates, engine)
	settingsSvc := settings.NewService(repos.Settings, redisCache, blobs, rt.log)
	billingSvc := billing.NewService(repos.Billing, repos.Users, settingsSvc, rt.cfg.Billing.WebhookSecret, rt.cfg.Frontend.BaseURL, rt.log)
	reportsSvc := reports.NewService(repos.Actions, repos.Shares, repos.Documents)

	authn := auth.NewMiddleware(rt.cfg.Auth.JWTSecret, repos.Users)
	otpLimiter := middleware.NewRateLimiter(redisCache, "otp", 5, time.Minute)

	health := handlers.NewHealthHandler(rt.db, rt.redis)
	docH := handlers.NewDocumentHandler(docSvc, queueClient, rt.cfg.Frontend.BaseURL)
	authH := handlers.NewAuthHandler(authSvc, otpSvc)
	otpH := handlers.NewOTPHandler(otpSvc, authSvc)
	empH := handlers.NewEmployeeHandler(empSvc)
	tplH := handlers.NewTemplateHandler(tplSvc)
	settingsH := handlers.NewSettingsHandler(settingsSvc)
	billingH := handlers.NewBillingHandler(billingSvc)
	reportsH := handlers.NewReportsHandler(reportsSvc)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.AllowedOrigins))

	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// Public surface: registration, login, signed verification links, OTP
	// exchange, the mailed signing link and the billing webhook.
	r.Post("/api/register", authH.Register)
	r.Post("/api/login", authH.Login)
	r.Get("/api/verify-email/{id}", authH.VerifyEmail)

	r.Group(func(r chi.Router) {
		r.Use(otpLimiter.Limit)
		r.Post("/api/user/request-otp", otpH.Request)
		r.Post("/api/user/verify-otp", otpH.Verify)
	})

	r.Get("/api/documents/{shared}/{doc_pdf}/{emp}/employee-view", docH.EmployeeView)
	r.Post("/api/billing/webhook", billingH.Webhook)

	// Authenticated surface.
	r.Route("/api", func(r chi.Router) {
		r.Use(authn.Authenticate)

		r.Get("/me", authH.Me)
		r.Post("/otp-settings", authH.OTPSettings)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", docH.Store)
			r.Get("/", docH.ListActive)
			r.Get("/signed", docH.ListSigned)
			r.Get("/archived", docH.ListArchived)
			r.Get("/trashed", docH.ListTrashed)
			r.Get("/track", docH.Track)
			r.Put("/{pdf_id}", docH.Update)
			r.Post("/share", docH.Share)
			r.Post("/bulk-share", docH.BulkShare)
			r.Post("/remind", docH.Remind)
			r.Post("/remind-all", docH.RemindAll)
			r.Post("/{pdf_id}/archive", docH.Archive)
			r.Post("/{pdf_id}/unarchive", docH.Unarchive)
			r.Post("/{pdf_id}/trash", docH.Trash)
			r.Post("/{pdf_id}/restore", docH.Restore)
			r.Delete("/{pdf_id}/force", docH.ForceDelete)
			r.Post("/download-signed", docH.DownloadSigned)
			r.Post("/download-cors", docH.DownloadSigned)
		})

		r.Route("/partials", func(r chi.Router) {
			r.Post("/", docH.StorePartial)
			r.Get("/", docH.ListPartials)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", empH.List)
			r.Post("/", empH.Create)
			r.Post("/import", empH.Import)
			r.Delete("/{id}", empH.Delete)
		})

		r.Route("/billing", func(r chi.Router) {
			r.Get("/plans", billingH.Plans)
			r.Post("/checkout", billingH.Checkout)
			r.Get("/subscription", billingH.Subscription)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", reportsH.Summary)
			r.Get("/activity", reportsH.Activity)
		})

		// Super-admin surface.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleSuperAdmin))

			r.Route("/templates", func(r chi.Router) {
				r.Get("/", tplH.List)
				r.Post("/", tplH.Create)
				r.Get("/{id}", tplH.Get)
				r.Put("/{id}", tplH.Update)
				r.Delete("/{id}", tplH.Delete)
				r.Get("/{id}/variables", tplH.Variables)
				r.Post("/{id}/variables", tplH.UpsertVariable)
				r.Post("/{id}/preview", tplH.Preview)
			})

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", settingsH.Get)
				r.Put("/", settingsH.Update)
				r.Post("/logo", settingsH.UploadLogo)
			})
		})
	})

	return r, nil
}
