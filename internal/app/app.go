// Package app is the composition root. It turns a Config into stores,
// services and handlers, picking an in-process fallback for every external
// collaborator that is not configured.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	catalogHandler "sparkfish/internal/catalog/handler"
	catalogService "sparkfish/internal/catalog/service"
	catalogStore "sparkfish/internal/catalog/store"
	certificateHandler "sparkfish/internal/certificate/handler"
	certificateMetrics "sparkfish/internal/certificate/metrics"
	"sparkfish/internal/certificate/render"
	certificateService "sparkfish/internal/certificate/service"
	certificateStore "sparkfish/internal/certificate/store"
	checkoutHandler "sparkfish/internal/checkout/handler"
	checkoutMetrics "sparkfish/internal/checkout/metrics"
	checkoutService "sparkfish/internal/checkout/service"
	contactHandler "sparkfish/internal/contact/handler"
	contactMetrics "sparkfish/internal/contact/metrics"
	contactService "sparkfish/internal/contact/service"
	"sparkfish/internal/dashboard"
	enrollmentHandler "sparkfish/internal/enrollment/handler"
	enrollmentMetrics "sparkfish/internal/enrollment/metrics"
	enrollmentService "sparkfish/internal/enrollment/service"
	enrollmentStore "sparkfish/internal/enrollment/store"
	"sparkfish/internal/events"
	"sparkfish/internal/events/kafka"
	httpapi "sparkfish/internal/http"
	identityService "sparkfish/internal/identity/service"
	identityStore "sparkfish/internal/identity/store"
	"sparkfish/internal/identity/token"
	"sparkfish/internal/notification"
	"sparkfish/internal/notification/sendgrid"
	"sparkfish/internal/payment"
	paymentHandler "sparkfish/internal/payment/handler"
	paymentMetrics "sparkfish/internal/payment/metrics"
	"sparkfish/internal/payment/stripe"
	"sparkfish/internal/platform/config"
	"sparkfish/internal/platform/metrics"
	"sparkfish/internal/platform/postgres"
	platformRedis "sparkfish/internal/platform/redis"
	"sparkfish/internal/platform/tracing"
	rateLimitMetrics "sparkfish/internal/ratelimit/metrics"
	rateLimitMiddleware "sparkfish/internal/ratelimit/middleware"
	rateLimitStore "sparkfish/internal/ratelimit/store"
	"sparkfish/internal/reconcile"
	"sparkfish/internal/storage"
	"sparkfish/internal/storage/gcs"
	"sparkfish/migrations"
	"sparkfish/pkg/platform/circuit"
)

const (
	txTimeout         = 10 * time.Second
	sendTimeout       = 15 * time.Second
	eventsPartitions  = 3
	eventsReplication = 1
)

// App holds the wired service graph.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry

	Tokens       *token.Service
	Identity     *identityService.Service
	Catalog      *catalogService.Service
	Enrollments  *enrollmentService.Service
	Certificates *certificateService.Service
	Checkout     *checkoutService.Service
	Contact      *contactService.Service
	Dashboard    *dashboard.Service
	Processor    payment.Processor
	Publisher    events.Publisher
	Notifier     *notification.AsyncDispatcher

	db        *sql.DB
	redis     *platformRedis.Client
	kafka     *kafka.Publisher
	bucket    *gcs.Store
	files     *storage.Memory
	limiter   *rateLimitMiddleware.Middleware
	reconcile *reconcile.Metrics
	router    http.Handler
	closers   []func(context.Context) error
}

// New builds the graph. On error everything opened so far is released.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: metrics.NewRegistry(),
	}

	shutdownTracing, err := tracing.Init(ctx, cfg.ServiceName, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.closers = append(a.closers, shutdownTracing)

	if err := a.openInfrastructure(ctx); err != nil {
		_ = a.Close(context.WithoutCancel(ctx))
		return nil, err
	}
	a.wireServices()
	a.router = a.buildRouter()
	return a, nil
}

func (a *App) openInfrastructure(ctx context.Context) error {
	cfg := a.Config

	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		a.db = db
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		if err := migrations.Apply(ctx, db); err != nil {
			return err
		}
	} else {
		a.Logger.WarnContext(ctx, "DATABASE_URL not set; using in-memory stores")
	}

	rc, err := platformRedis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rc != nil {
		a.redis = rc
		a.closers = append(a.closers, func(context.Context) error { return rc.Close() })
	}

	if cfg.Storage.Bucket != "" {
		bucket, err := gcs.New(ctx, gcs.Config{Bucket: cfg.Storage.Bucket, EmulatorHost: cfg.Storage.EmulatorHost})
		if err != nil {
			return fmt.Errorf("open certificate bucket: %w", err)
		}
		a.bucket = bucket
		a.closers = append(a.closers, func(context.Context) error { return bucket.Close() })
	} else {
		a.files = storage.NewMemory(cfg.Server.BaseURL)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := kafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic, a.Logger)
		if err != nil {
			return fmt.Errorf("create event publisher: %w", err)
		}
		a.kafka = pub
		a.closers = append(a.closers, func(context.Context) error { pub.Close(); return nil })
		if err := pub.EnsureTopic(ctx, eventsPartitions, eventsReplication); err != nil {
			return fmt.Errorf("ensure events topic: %w", err)
		}
		a.Publisher = pub
	} else {
		a.Publisher = events.NewMemory()
	}

	if cfg.Stripe.SecretKey != "" {
		a.Processor = stripe.New(cfg.Stripe.SecretKey)
	} else {
		a.Logger.WarnContext(ctx, "STRIPE_SECRET_KEY not set; paid checkout disabled")
		a.Processor = payment.Unconfigured{}
	}

	var mailer notification.Mailer
	if cfg.SendGrid.APIKey != "" {
		sg, err := sendgrid.New(sendgrid.Config{
			APIKey:    cfg.SendGrid.APIKey,
			FromEmail: cfg.SendGrid.FromEmail,
			FromName:  cfg.SendGrid.FromName,
		}, a.Logger)
		if err != nil {
			return fmt.Errorf("create mailer: %w", err)
		}
		mailer = sg
	} else {
		mailer = notification.NewLogMailer(a.Logger)
	}
	dispatcher := notification.NewDispatcher(mailer, cfg.Server.BaseURL, cfg.Contact.Inbox,
		notification.WithMetrics(notification.NewMetrics(a.Registry)))
	a.Notifier = notification.NewAsync(dispatcher, a.Logger, sendTimeout)
	a.closers = append(a.closers, a.Notifier.Close)

	a.Contact = contactService.New(dispatcher,
		contactService.WithLogger(a.Logger),
		contactService.WithMetrics(contactMetrics.New(a.Registry)),
		contactService.WithPublisher(a.Publisher),
	)
	return nil
}

func (a *App) wireServices() {
	cfg := a.Config

	var (
		catalogs     catalogService.Store
		enrollments  enrollmentService.Store
		certificates certificateService.Store
	)
	identityOpts := []identityService.Option{identityService.WithLogger(a.Logger)}
	certificateOpts := []certificateService.Option{
		certificateService.WithLogger(a.Logger),
		certificateService.WithMetrics(certificateMetrics.New(a.Registry)),
		certificateService.WithNotifier(a.Notifier),
		certificateService.WithPublisher(a.Publisher),
	}

	if a.db != nil {
		catalogs = catalogStore.NewPostgres(a.db)
		enrollments = enrollmentStore.NewPostgres(a.db)
		people := identityStore.NewPostgres(a.db)
		certificates = certificateStore.NewPostgres(a.db)
		a.Identity = identityService.New(people, people, identityOpts...)
		certificateOpts = append(certificateOpts, certificateService.WithTxRunner(postgres.NewTxRunner(a.db, txTimeout)))
	} else {
		seats := catalogStore.NewInMemory()
		catalogs = seats
		enrollments = enrollmentStore.NewInMemory(seats)
		people := identityStore.NewInMemory()
		certificates = certificateStore.NewInMemory()
		a.Identity = identityService.New(people, people, identityOpts...)
	}

	a.Tokens = token.New(cfg.Server.SessionSigningKey)
	a.Catalog = catalogService.New(catalogs, catalogService.WithLogger(a.Logger))
	a.Enrollments = enrollmentService.New(enrollments, a.Catalog, a.Identity,
		enrollmentService.WithLogger(a.Logger),
		enrollmentService.WithMetrics(enrollmentMetrics.New(a.Registry)),
		enrollmentService.WithNotifier(a.Notifier),
		enrollmentService.WithPublisher(a.Publisher),
	)
	a.Certificates = certificateService.New(certificateService.Deps{
		Store:       certificates,
		Authorizer:  a.Identity,
		Enrollments: a.Enrollments,
		Catalog:     a.Catalog,
		Learners:    a.Identity,
		Renderer:    render.NewRenderer(cfg.Server.BaseURL),
		Objects:     a.objects(),
	}, certificateOpts...)
	a.Checkout = checkoutService.New(a.Catalog, a.Enrollments, a.Processor, cfg.Server.BaseURL,
		checkoutService.WithLogger(a.Logger),
		checkoutService.WithMetrics(checkoutMetrics.New(a.Registry)),
		checkoutService.WithEmailResolver(a.Identity),
	)
	a.Dashboard = dashboard.NewService(a.Identity, a.Enrollments, a.Catalog, a.Certificates, cfg.Server.BaseURL, a.Logger)

	var counter rateLimitStore.Counter = rateLimitStore.NewMemory()
	if a.redis != nil {
		counter = rateLimitStore.NewFallback(
			rateLimitStore.NewRedis(a.redis.Client),
			counter,
			circuit.New("ratelimit-redis"),
			a.Logger,
		)
	}
	a.limiter = rateLimitMiddleware.New(counter, a.Logger,
		rateLimitMiddleware.WithMetrics(rateLimitMetrics.New(a.Registry)))
	a.reconcile = reconcile.NewMetrics(a.Registry)
}

func (a *App) objects() storage.ObjectStore {
	if a.bucket != nil {
		return a.bucket
	}
	return a.files
}

// Reconciler builds a reconciliation pass over the configured processor.
func (a *App) Reconciler(lookback time.Duration, dryRun bool) *reconcile.Reconciler {
	if lookback <= 0 {
		lookback = a.Config.Reconcile.Lookback
	}
	return reconcile.New(a.Processor, a.Enrollments, lookback,
		reconcile.WithLogger(a.Logger),
		reconcile.WithMetrics(a.reconcile),
		reconcile.WithConcurrency(a.Config.Reconcile.Concurrency),
		reconcile.WithDryRun(dryRun),
	)
}

// Handler returns the HTTP surface.
func (a *App) Handler() http.Handler {
	return a.router
}

func (a *App) buildRouter() http.Handler {
	deps := httpapi.Deps{
		Logger:      a.Logger,
		Registry:    a.Registry,
		HTTPMetrics: metrics.New(a.Registry),
		Sessions:    a.Tokens,
		Admins:      a.Identity,
		Limiter:     a.limiter,
		Contact:     httpapi.ContactPolicy(a.Config.Contact),
		Ready:       a.Ready,

		Catalog:      catalogHandler.New(a.Catalog, a.Logger),
		Enrollments:  enrollmentHandler.New(a.Enrollments, a.Logger),
		Certificates: certificateHandler.New(a.Certificates, a.Logger),
		Checkout:     checkoutHandler.New(a.Checkout, a.Logger),
		ContactForm:  contactHandler.New(a.Contact, a.Logger),
		Dashboard:    dashboard.NewHandler(a.Dashboard, a.Logger),
		Webhook: paymentHandler.NewWebhookHandler(a.Config.Stripe.WebhookSecret, a.Enrollments,
			paymentMetrics.New(a.Registry), a.Logger),
	}
	if a.files != nil {
		deps.Files = a.files.Handler()
	}
	return httpapi.NewRouter(deps)
}

// Ready reports whether the configured backing services answer.
func (a *App) Ready(ctx context.Context) error {
	var errs []error
	if a.db != nil {
		if err := a.db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Health(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if a.kafka != nil {
		if err := a.kafka.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("kafka: %w", err))
		}
	}
	if a.bucket != nil {
		if err := a.bucket.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
