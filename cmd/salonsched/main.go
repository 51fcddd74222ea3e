package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/stilistico/salonsched/internal/config"
	"github.com/stilistico/salonsched/internal/conflict"
	"github.com/stilistico/salonsched/internal/db"
	"github.com/stilistico/salonsched/internal/dispatch"
	"github.com/stilistico/salonsched/internal/handlers"
	"github.com/stilistico/salonsched/internal/httpx"
	"github.com/stilistico/salonsched/internal/kafkax"
	"github.com/stilistico/salonsched/internal/notifier"
	"github.com/stilistico/salonsched/internal/otelx"
	"github.com/stilistico/salonsched/internal/outbox"
	"github.com/stilistico/salonsched/internal/phone"
	"github.com/stilistico/salonsched/internal/runtime"
	"github.com/stilistico/salonsched/internal/scheduler"
	"github.com/stilistico/salonsched/internal/storage"
	"github.com/stilistico/salonsched/migrations"
)

func main() {
	service := config.String("SERVICE_NAME", "salonsched")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	reminders, err := config.LoadReminders()
	if err != nil {
		logger.Error("reminder config invalid", "err", err)
		panic(err)
	}

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, migrations.FS); err != nil {
		logger.Error("migrations failed", "err", err)
		panic(err)
	}

	appointmentRepo := storage.NewAppointmentRepository(pool)
	hoursRepo := storage.NewWorkingHoursRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	recorder := outbox.NewRecorder(pool, outboxRepo, logger)

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   kafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	smsProvider := strings.ToLower(config.String("SMS_PROVIDER", "noop"))
	var sender notifier.Notifier
	switch smsProvider {
	case "webhook":
		sender = notifier.NewWebhookNotifier(
			config.String("SMS_WEBHOOK_URL", ""),
			config.String("SMS_WEBHOOK_TOKEN", ""),
		)
	default:
		sender = notifier.NewNoopNotifier()
	}

	normalizer := phone.Normalizer{DefaultCountryCode: reminders.DefaultCountryCode}
	runner := dispatch.NewRunner(appointmentRepo, sender, normalizer, recorder, logger, reminders.Workers)

	reminderScheduler := scheduler.New(runner, scheduler.Config{
		FireTime: reminders.FireTime,
		Location: reminders.Location,
		LeadDays: reminders.LeadDays,
	}, logger)
	go reminderScheduler.Run(ctx)

	checker := conflict.NewChecker(hoursRepo, appointmentRepo)
	bookingHandler := handlers.NewBookingHandler(checker, appointmentRepo, logger)
	adminHandler := handlers.NewAdminHandler(reminderScheduler, appointmentRepo, recorder, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)},
	)
	mux.HandleFunc("/bookings", bookingHandler.Create)
	mux.HandleFunc("/admin/reminders/run", adminHandler.RunReminders)
	mux.HandleFunc("/admin/duplicates/reconcile", adminHandler.ReconcileDuplicates)

	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1 << 20),
	}
	if redisURL := config.String("REDIS_URL", ""); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "err", err)
			panic(err)
		}
		limiter := httpx.NewRedisRateLimiter(redis.NewClient(opts),
			config.Int("RATE_LIMIT_PER_MINUTE", 60), time.Minute, "salonsched")
		middlewares = append(middlewares, limiter.Middleware(logger, true))
	}

	handler := httpx.Chain(mux, middlewares...)
	handler = otelhttp.NewHandler(handler, "salonsched")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
