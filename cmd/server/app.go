package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	authhandler "safenest/internal/auth/handler"
	authmodels "safenest/internal/auth/models"
	authservice "safenest/internal/auth/service"
	accountstore "safenest/internal/auth/store/account"
	sessionstore "safenest/internal/auth/store/session"
	"safenest/internal/auth/token"
	contacthandler "safenest/internal/contact/handler"
	contactservice "safenest/internal/contact/service"
	contactstore "safenest/internal/contact/store"
	dashboardhandler "safenest/internal/dashboard/handler"
	dashboardservice "safenest/internal/dashboard/service"
	onboardinghandler "safenest/internal/onboarding/handler"
	onboardingservice "safenest/internal/onboarding/service"
	onboardingstore "safenest/internal/onboarding/store"
	"safenest/internal/platform/config"
	"safenest/internal/platform/metrics"
	"safenest/internal/platform/postgres"
	platformredis "safenest/internal/platform/redis"
	residenthandler "safenest/internal/resident/handler"
	residentservice "safenest/internal/resident/service"
	residentstore "safenest/internal/resident/store"
	"safenest/internal/seed"
	settingshandler "safenest/internal/settings/handler"
	settingsservice "safenest/internal/settings/service"
	settingsstore "safenest/internal/settings/store"
	httptransport "safenest/internal/transport/http"
	"safenest/pkg/platform/audit/publisher"
	auditmemory "safenest/pkg/platform/audit/store/memory"
	auditpostgres "safenest/pkg/platform/audit/store/postgres"
	"safenest/pkg/platform/tx"
)

const auditBufferSize = 512

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type requestStore interface {
	onboardingservice.Store
	seed.RequestStore
}

type residentStore interface {
	residentservice.Store
	seed.ResidentStore
}

type accountStore interface {
	authservice.AccountStore
	Save(ctx context.Context, account *authmodels.Account) error
}

// app holds the wired dependencies for one process.
type app struct {
	cfg     config.Server
	logger  *slog.Logger
	metrics *metrics.Metrics

	db    *sql.DB
	redis *platformredis.Client

	requestStore  requestStore
	residentStore residentStore
	contactStore  contactservice.Store
	settingsStore settingsservice.Store
	accounts      accountStore
	sessions      authservice.SessionStore
	txRunner      txRunner

	auditPublisher *publisher.Publisher
	outbox         *auditpostgres.Store

	auth       *authservice.Service
	onboarding *onboardingservice.Service
	residents  *residentservice.Service
	contacts   *contactservice.Service
	settings   *settingsservice.Service
	dashboard  *dashboardservice.Service
}

// buildApp picks Postgres or in-memory stores from DATABASE_URL and Redis or
// in-memory sessions from REDIS_URL, then wires the services.
func buildApp(ctx context.Context, cfg config.Server, log *slog.Logger, m *metrics.Metrics, migrate bool) (*app, error) {
	a := &app{cfg: cfg, logger: log, metrics: m}

	if err := a.openStores(ctx, migrate); err != nil {
		a.close()
		return nil, err
	}
	if err := a.openSessions(ctx); err != nil {
		a.close()
		return nil, err
	}
	if err := a.bootstrapAdmin(ctx); err != nil {
		a.close()
		return nil, err
	}
	if err := a.wireServices(); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStores(ctx context.Context, migrate bool) error {
	if a.cfg.DatabaseURL == "" {
		a.logger.Warn("DATABASE_URL not set, using in-memory stores")
		a.requestStore = onboardingstore.NewInMemory()
		a.residentStore = residentstore.NewInMemory()
		a.contactStore = contactstore.NewInMemory()
		a.settingsStore = settingsstore.NewInMemory()
		a.accounts = accountstore.NewInMemory()
		a.txRunner = tx.NewMemoryRunner()
		a.auditPublisher = publisher.NewPublisher(auditmemory.NewInMemoryStore(),
			publisher.WithAsyncBuffer(auditBufferSize),
			publisher.WithLogger(a.logger),
		)
		return nil
	}

	db, err := postgres.Open(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	a.db = db
	if migrate {
		if err := postgres.Migrate(ctx, db, a.logger); err != nil {
			return err
		}
	}
	a.requestStore = onboardingstore.NewPostgres(db)
	a.residentStore = residentstore.NewPostgres(db)
	a.contactStore = contactstore.NewPostgres(db)
	a.settingsStore = settingsstore.NewPostgres(db)
	a.accounts = accountstore.NewPostgres(db)
	a.txRunner = tx.NewSQLRunner(db)
	a.outbox = auditpostgres.New(db)
	// Sync so outbox rows join the caller's transaction.
	a.auditPublisher = publisher.NewPublisher(a.outbox, publisher.WithLogger(a.logger))
	return nil
}

func (a *app) openSessions(ctx context.Context) error {
	client, err := platformredis.New(ctx, a.cfg.Redis)
	if err != nil {
		return err
	}
	if client == nil {
		a.sessions = sessionstore.NewInMemory()
		return nil
	}
	a.redis = client
	a.sessions = sessionstore.NewRedis(client.Client)
	return nil
}

// bootstrapAdmin stores the configured admin credentials so a fresh
// deployment can sign in.
func (a *app) bootstrapAdmin(ctx context.Context) error {
	if a.cfg.Auth.AdminEmail == "" {
		return errors.New("ADMIN_EMAIL must be set")
	}
	if a.cfg.Auth.AdminPasswordHash == "" {
		a.logger.Warn("ADMIN_PASSWORD_HASH not set, admin account not bootstrapped")
		return nil
	}
	err := a.accounts.Save(ctx, &authmodels.Account{
		Email:        a.cfg.Auth.AdminEmail,
		PasswordHash: a.cfg.Auth.AdminPasswordHash,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin account: %w", err)
	}
	return nil
}

func (a *app) wireServices() error {
	var err error
	a.auth, err = authservice.New(a.accounts, a.sessions, token.NewSigner(a.cfg.Auth.SigningKey),
		authservice.Config{AdminEmail: a.cfg.Auth.AdminEmail, SessionTTL: a.cfg.Auth.SessionTTL},
		authservice.WithLogger(a.logger),
		authservice.WithAuditPublisher(a.auditPublisher),
		authservice.WithMetrics(a.metrics),
	)
	if err != nil {
		return err
	}

	a.onboarding, err = onboardingservice.New(a.requestStore, a.residentStore, a.txRunner,
		onboardingservice.WithLogger(a.logger),
		onboardingservice.WithAuditPublisher(a.auditPublisher),
		onboardingservice.WithMetrics(a.metrics),
		onboardingservice.WithCaseManager(a.cfg.DefaultCaseManager),
	)
	if err != nil {
		return err
	}

	a.residents = residentservice.New(a.residentStore, a.txRunner,
		residentservice.WithLogger(a.logger),
		residentservice.WithAuditPublisher(a.auditPublisher),
		residentservice.WithMetrics(a.metrics),
		residentservice.WithCaseManager(a.cfg.DefaultCaseManager),
	)
	a.contacts = contactservice.New(a.contactStore, a.txRunner,
		contactservice.WithLogger(a.logger),
		contactservice.WithAuditPublisher(a.auditPublisher),
		contactservice.WithMetrics(a.metrics),
	)
	a.settings = settingsservice.New(a.settingsStore, a.txRunner,
		settingsservice.WithLogger(a.logger),
		settingsservice.WithAuditPublisher(a.auditPublisher),
	)
	a.dashboard = dashboardservice.New(a.onboarding, a.residents, a.contacts, a.settings)
	return nil
}

func (a *app) router(gatherer prometheus.Gatherer) http.Handler {
	onboarding := onboardinghandler.New(a.onboarding, a.logger)
	contacts := contacthandler.New(a.contacts, a.logger)
	residents := residenthandler.New(a.residents, a.logger)
	settings := settingshandler.New(a.settings, a.logger)
	dashboard := dashboardhandler.New(a.dashboard, a.logger)
	session := authhandler.New(a.auth, a.logger)

	var checks []httptransport.HealthCheck
	if a.db != nil {
		checks = append(checks, httptransport.HealthCheck{Name: "postgres", Check: a.db.PingContext})
	}
	if a.redis != nil {
		checks = append(checks, httptransport.HealthCheck{Name: "redis", Check: a.redis.Health})
	}

	return httptransport.NewRouter(httptransport.Config{
		Logger:         a.logger,
		Metrics:        a.metrics,
		Gatherer:       gatherer,
		Authenticator:  a.auth,
		RequestTimeout: a.cfg.RequestTimeout,
		HealthChecks:   checks,
	}, httptransport.Routes{
		Public: []httptransport.PublicRoutes{onboarding, contacts, settings},
		SignIn: session,
		Admin:  []httptransport.AdminRoutes{session, dashboard, onboarding, contacts, residents, settings},
	})
}

// close drains the audit buffer before closing connections.
func (a *app) close() {
	if a.auditPublisher != nil {
		a.auditPublisher.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close postgres", "error", err)
		}
	}
}
