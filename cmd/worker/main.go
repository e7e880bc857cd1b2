package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/docuflow/docuflow/internal/actionlog"
	"github.com/docuflow/docuflow/internal/config"
	"github.com/docuflow/docuflow/internal/database"
	"github.com/docuflow/docuflow/internal/document"
	"github.com/docuflow/docuflow/internal/mail"
	"github.com/docuflow/docuflow/internal/queue"
	"github.com/docuflow/docuflow/internal/queue/workers"
	"github.com/docuflow/docuflow/internal/repository"
	"github.com/docuflow/docuflow/internal/storage"
	"github.com/docuflow/docuflow/internal/template"
	"github.com/docuflow/docuflow/internal/token"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	blobs, err := storage.NewMinio(cfg.Storage)
	if err != nil {
		slog.Error("object storage unavailable", "error", err)
		os.Exit(1)
	}

	repos := repository.NewPostgres(db)
	engine := template.NewEngine()
	mailer := mail.NewMailer(repos.Templates, engine, mail.NewSMTPSender(cfg.SMTP))

	docSvc := document.NewService(document.Deps{
		Documents: repos.Documents,
		Shares:    repos.Shares,
		Partials:  repos.Partials,
		Employees: repos.Employees,
		Storage:   blobs,
		Mailer:    mailer,
		Tokens:    token.NewIssuer(cfg.Auth.AppKey),
		Actions:   actionlog.NewRecorder(repos.Actions, logger),
		Logger:    logger,
		ValidFor:  cfg.Share.ValidMinutes,
	})

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	reminder := workers.NewReminderWorker(docSvc, logger)
	mux.Handle(queue.TypeShareReminder, asynq.HandlerFunc(reminder.ProcessTask))

	slog.Info("starting worker", "concurrency", 10)
	if err := srv.Run(mux); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
