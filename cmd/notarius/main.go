package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/notarius-app/notarius/app/controllers"
	"github.com/notarius-app/notarius/app/repository"
	"github.com/notarius-app/notarius/internal/pkg/cache"
	"github.com/notarius-app/notarius/internal/pkg/database"
	"github.com/notarius-app/notarius/internal/pkg/env"
	"github.com/notarius-app/notarius/internal/pkg/ledger"
	"github.com/notarius-app/notarius/internal/pkg/outbox"
	"github.com/notarius-app/notarius/internal/pkg/payments"
	"github.com/notarius-app/notarius/internal/pkg/reconcile"
	"github.com/notarius-app/notarius/internal/pkg/router"
	"github.com/notarius-app/notarius/internal/pkg/scheduler"
)

func main() {
	app, workers := NewApplication()
	defer workers.Stop()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

// NewApplication wires configuration, storage, background workers and the
// HTTP surface. Configuration problems (missing provider secrets) are fatal
// here; per-request failures never are.
func NewApplication() (*fiber.App, *scheduler.Scheduler) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	cfg, err := payments.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("payment provider configuration invalid: %v", err)
	}
	if env.GetEnv("ADMIN_API_KEY", "") == "" {
		log.Fatal("ADMIN_API_KEY is required")
	}

	feedURLs := make(map[string]string)
	for _, name := range cfg.ProviderNames() {
		feedURLs[name] = cfg.FeedURL(name)
	}
	feed := reconcile.NewHTTPFeed(feedURLs, reconcile.DefaultFeedTimeout)
	controllers.Setup(cfg, feed)

	workers := startWorkers(cfg, feed)

	app := fiber.New(fiber.Config{
		BodyLimit: 1 << 20, // webhook payloads are small
	})
	app.Use(recover.New(), logger.New())

	router.InstallRouter(app)

	return app, workers
}

// startWorkers registers the periodic loops: outbox dispatch, webhook
// retries, retention purge and per-provider reconciliation windows.
func startWorkers(cfg *payments.Config, feed reconcile.ProviderFeed) *scheduler.Scheduler {
	repos := repository.GetGlobalRepositories()

	dispatcher := outbox.NewDispatcher(repos.Job, repos.Record, ledger.NewClientFromEnv()).
		WithStats(func(field string) {
			_ = cache.IncrementCounter("dispatcher_stats", field, 1)
		})

	webhookSvc := payments.NewService(cfg, repos.Webhook, repos.Payment).
		WithStats(func(field string) {
			_ = cache.IncrementCounter("webhook_stats", field, 1)
		})

	engine := reconcile.NewEngine(feed, repos.Reconciliation, repos.Payment)

	s := scheduler.NewScheduler(scheduler.RealClock())
	s.Every("outbox-dispatch", envDuration("DISPATCH_INTERVAL", time.Minute), dispatcher.Tick)
	s.Every("webhook-retries", envDuration("WEBHOOK_RETRY_INTERVAL", 30*time.Second), webhookSvc.ProcessDueRetries)
	s.Every("webhook-purge", envDuration("WEBHOOK_PURGE_INTERVAL", time.Hour), webhookSvc.PurgeExpired)

	reconcileEvery := envDuration("RECONCILE_INTERVAL", 6*time.Hour)
	for _, name := range cfg.ProviderNames() {
		provider := name
		if cfg.FeedURL(provider) == "" {
			continue
		}
		s.Every("reconcile-"+provider, reconcileEvery, func(ctx context.Context) error {
			_, err := engine.Run(ctx, provider, "")
			return err
		})
	}
	return s
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := env.GetEnv(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s %q, using %s", key, raw, def)
		return def
	}
	return d
}
