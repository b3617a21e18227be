package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrsaas/internal/domain/audit"
	"hrsaas/internal/domain/auth"
	"hrsaas/internal/domain/billing"
	"hrsaas/internal/domain/complaints"
	"hrsaas/internal/domain/notifications"
	"hrsaas/internal/domain/payment"
	"hrsaas/internal/domain/payroll"
	"hrsaas/internal/domain/performance"
	"hrsaas/internal/domain/reports"
	"hrsaas/internal/domain/settings"
	"hrsaas/internal/domain/training"
	"hrsaas/internal/domain/trips"
	"hrsaas/internal/domain/users"
	"hrsaas/internal/platform/config"
	cryptoutil "hrsaas/internal/platform/crypto"
	"hrsaas/internal/platform/db"
	"hrsaas/internal/platform/email"
	"hrsaas/internal/platform/jobs"
	"hrsaas/internal/platform/metrics"
	"hrsaas/internal/platform/querier"
	"hrsaas/internal/platform/storage"
	"hrsaas/internal/transport/http/api"
	audithandler "hrsaas/internal/transport/http/handlers/audit"
	authhandler "hrsaas/internal/transport/http/handlers/auth"
	billinghandler "hrsaas/internal/transport/http/handlers/billing"
	complaintshandler "hrsaas/internal/transport/http/handlers/complaints"
	notificationshandler "hrsaas/internal/transport/http/handlers/notifications"
	payrollhandler "hrsaas/internal/transport/http/handlers/payroll"
	performancehandler "hrsaas/internal/transport/http/handlers/performance"
	reportshandler "hrsaas/internal/transport/http/handlers/reports"
	settingshandler "hrsaas/internal/transport/http/handlers/settings"
	traininghandler "hrsaas/internal/transport/http/handlers/training"
	tripshandler "hrsaas/internal/transport/http/handlers/trips"
	usershandler "hrsaas/internal/transport/http/handlers/users"
	"hrsaas/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	Pool   *pgxpool.Pool
	Router http.Handler
	Jobs   *jobs.Service
}

type pinger interface {
	Ping(ctx context.Context) error
}

// deps holds every service the router mounts, built once over a querier.
type deps struct {
	auth          *auth.Service
	authStore     *auth.Store
	users         *users.Service
	settings      *settings.Service
	payments      *payment.Service
	billing       *billing.Service
	payroll       *payroll.Service
	complaints    *complaints.Service
	trips         *trips.Service
	training      *training.Service
	performance   *performance.Service
	reports       *reports.Service
	audit         *audit.Service
	notifications *notifications.Service
	idempotency   *middleware.IdempotencyStore
	jobs          *jobs.Service
	metrics       *metrics.Collector
}

func wire(cfg config.Config, q querier.Querier, files storage.Storage, sealer *cryptoutil.Service) *deps {
	d := &deps{
		authStore:   auth.NewStore(q),
		users:       users.NewService(users.NewStore(q), cfg.SaaSMode),
		settings:    settings.NewService(settings.NewStore(q), cfg.SaaSMode),
		payments:    payment.NewService(payment.NewStore(q), sealer),
		complaints:  complaints.NewService(complaints.NewStore(q)),
		trips:       trips.NewService(trips.NewStore(q)),
		training:    training.NewService(training.NewStore(q)),
		performance: performance.NewService(performance.NewStore(q)),
		reports:     reports.NewService(reports.NewStore(q)),
		audit:       audit.New(q),
		idempotency: middleware.NewIdempotencyStore(q),
		jobs:        jobs.New(q),
		metrics:     metrics.New(),
	}
	d.auth = auth.NewService(d.authStore, sealer, cfg.JWTSecret)
	d.billing = billing.NewService(billing.NewStore(q), d.payments)
	d.payroll = payroll.NewService(payroll.NewStore(q), d.settings, files)
	d.notifications = notifications.New(notifications.NewStore(q), email.New(cfg.Mail), d.settings, d.jobs)
	d.notifications.DefaultFrom = cfg.Mail.From
	return d
}

// New connects to Postgres, applies migrations and seed data, and wires the
// HTTP router and background jobs.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	sealer, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	d := wire(cfg, pool, files, sealer)
	if cfg.Jobs.Enabled {
		schedule(cfg, d)
	}
	return &App{
		Config: cfg,
		Pool:   pool,
		Router: routes(cfg, d, pool),
		Jobs:   d.jobs,
	}, nil
}

func schedule(cfg config.Config, d *deps) {
	d.jobs.Every(jobs.JobPlanExpiry, cfg.Jobs.PlanExpiryInterval, func(ctx context.Context) (any, error) {
		expired, err := d.billing.ExpirePlans(ctx)
		if err != nil {
			return nil, err
		}
		for _, companyID := range expired {
			if err := d.notifications.Notify(ctx, companyID, companyID, notifications.TypePlanExpired,
				"Your plan has expired", "Your company was moved to the default plan."); err != nil {
				slog.Warn("plan expiry notification failed", "companyId", companyID, "err", err)
			}
		}
		return map[string]any{"expired": expired}, nil
	})
	d.jobs.Every(jobs.JobIdempotencyPurge, cfg.Jobs.IdempotencyPurgeInterval, func(ctx context.Context) (any, error) {
		deleted, err := d.idempotency.Purge(ctx, time.Now().Add(-cfg.Jobs.IdempotencyTTL))
		return map[string]int64{"deleted": deleted}, err
	})
}

func routes(cfg config.Config, d *deps, ready pinger) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.Logger(d.metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := ready.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, d.metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	authHandler := authhandler.NewHandler(d.auth, d.audit)
	payrollHandler := payrollhandler.NewHandler(d.payroll, d.audit)
	payrollHandler.Notify = d.notifications
	complaintsHandler := complaintshandler.NewHandler(d.complaints, d.audit)
	complaintsHandler.Notify = d.notifications
	tripsHandler := tripshandler.NewHandler(d.trips, d.audit)
	tripsHandler.Notify = d.notifications
	trainingHandler := traininghandler.NewHandler(d.training, d.audit)
	trainingHandler.Notify = d.notifications
	performanceHandler := performancehandler.NewHandler(d.performance, d.audit)
	performanceHandler.Notify = d.notifications
	billingHandler := billinghandler.NewHandler(d.billing, d.idempotency, d.audit)
	billingHandler.Notify = d.notifications

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret, d.authStore))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		authHandler.RegisterPublic(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			authHandler.RegisterRoutes(r)
			usershandler.NewHandler(d.users, d.billing, d.audit).RegisterRoutes(r)
			settingshandler.NewHandler(d.settings, d.payments, d.audit).RegisterRoutes(r)
			billingHandler.RegisterRoutes(r)
			payrollHandler.RegisterRoutes(r)
			complaintsHandler.RegisterRoutes(r)
			tripsHandler.RegisterRoutes(r)
			trainingHandler.RegisterRoutes(r)
			performanceHandler.RegisterRoutes(r)
			audithandler.NewHandler(d.audit).RegisterRoutes(r)
			reportshandler.NewHandler(d.reports).RegisterRoutes(r)
			notificationshandler.NewHandler(d.notifications).RegisterRoutes(r)
		})
	})
	return router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	if a.Config.Jobs.Enabled {
		a.Jobs.Start(ctx)
	}
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("hrsaas server listening", "addr", a.Config.Addr, "env", a.Config.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}
