package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"qitt-service/internal/config"
	assignmentOverview "qitt-service/internal/http-server/handlers/assignments/overview"
	assignmentUnread "qitt-service/internal/http-server/handlers/assignments/unread"
	assignmentView "qitt-service/internal/http-server/handlers/assignments/view"
	dashboardGet "qitt-service/internal/http-server/handlers/dashboard/get"
	notificationList "qitt-service/internal/http-server/handlers/notifications/list"
	notificationRead "qitt-service/internal/http-server/handlers/notifications/read"
	notificationSend "qitt-service/internal/http-server/handlers/notifications/send"
	timetableCreate "qitt-service/internal/http-server/handlers/timetable/create"
	timetableDelete "qitt-service/internal/http-server/handlers/timetable/delete"
	timetableFreeTime "qitt-service/internal/http-server/handlers/timetable/freetime"
	timetableToday "qitt-service/internal/http-server/handlers/timetable/today"
	timetableUpdate "qitt-service/internal/http-server/handlers/timetable/update"
	timetableWeek "qitt-service/internal/http-server/handlers/timetable/week"
	"qitt-service/internal/lock"
	"qitt-service/internal/notify"
	svc "qitt-service/internal/service"
	"qitt-service/internal/storage/postgres"
	"qitt-service/pkg/handlers/slogpretty"
	"qitt-service/pkg/middleware/mwLogger"
	"qitt-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	loc, err := cfg.Location()
	if err != nil {
		log.Error("Failed to load timezone", slog.String("timezone", cfg.Timezone), sl.Err(err))
		os.Exit(1)
	}

	resolver, err := cfg.Schedule.Resolver()
	if err != nil {
		log.Error("Failed to build schedule resolver", sl.Err(err))
		os.Exit(1)
	}

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	if cfg.MigrateOnStart {
		if err := storage.Migrate(context.Background()); err != nil {
			log.Error("Failed to apply migrations", sl.Err(err))
			os.Exit(1)
		}
		log.Info("Migrations applied")
	}

	locker, err := lock.NewRedisLock(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	// pusher stays a nil interface when push is disabled.
	var (
		publisher *notify.AMQPPublisher
		pusher    notify.Publisher
	)
	if cfg.Push.Enabled {
		publisher, err = notify.NewAMQPPublisher(cfg.Push.AMQPURL, cfg.Push.Queue)
		if err != nil {
			log.Error("Failed to init push publisher", sl.Err(err))
			os.Exit(1)
		}
		pusher = publisher
		log.Info("Push publisher enabled", slog.String("queue", cfg.Push.Queue))
	}

	service := svc.NewService(storage, resolver, loc)

	notifier := notify.NewService(log, storage, locker, pusher)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Assignments
	router.Get("/groups/{groupID}/assignments/overview", assignmentOverview.New(log, service))
	router.Get("/groups/{groupID}/assignments/unread", assignmentUnread.New(log, service))
	router.Post("/assignments/{id}/view", assignmentView.New(log, service))

	// Timetable
	router.Get("/groups/{groupID}/timetable/today", timetableToday.New(log, service))
	router.Get("/groups/{groupID}/timetable/free-time", timetableFreeTime.New(log, service))
	router.Get("/groups/{groupID}/timetable/week", timetableWeek.New(log, service))
	router.Post("/groups/{groupID}/timetable", timetableCreate.New(log, service))
	router.Put("/timetable/{id}", timetableUpdate.New(log, service))
	router.Delete("/timetable/{id}", timetableDelete.New(log, service))

	// Dashboard
	router.Get("/groups/{groupID}/dashboard", dashboardGet.New(log, service))

	// Notifications
	router.Post("/groups/{groupID}/notifications", notificationSend.New(log, notifier))
	router.Get("/notifications", notificationList.New(log, notifier))
	router.Post("/notifications/{id}/read", notificationRead.New(log, notifier))

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if err := storage.Close(); err != nil {
		log.Error("Failed to close storage", sl.Err(err))
	} else {
		log.Info("Storage closed")
	}

	if err := locker.Close(); err != nil {
		log.Error("Failed to close locker", sl.Err(err))
	} else {
		log.Info("Locker closed")
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error("Failed to close push publisher", sl.Err(err))
		} else {
			log.Info("Push publisher closed")
		}
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
