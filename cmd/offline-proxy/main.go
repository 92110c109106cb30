package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/newsdigest/offline-client/pkg/config"
	"github.com/newsdigest/offline-client/pkg/events"
	"github.com/newsdigest/offline-client/pkg/lifecycle"
	"github.com/newsdigest/offline-client/pkg/logging"
	"github.com/newsdigest/offline-client/pkg/notify"
	"github.com/newsdigest/offline-client/pkg/store"
	"github.com/newsdigest/offline-client/pkg/strategy"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Pretty,
		Output: os.Stderr,
	})

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Offline proxy failed")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx := context.Background()

	var cacheStore store.Store
	var registry lifecycle.Registry

	switch cfg.Cache.Backend {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			return fmt.Errorf("connect to redis at %s: %w", cfg.Cache.RedisAddr, err)
		}
		logger.Info().Str("addr", cfg.Cache.RedisAddr).Msg("Connected to Redis")

		cacheStore = store.NewRedisStore(redisClient)
		registry = lifecycle.NewRedisRegistry(redisClient)

	default:
		memStore := store.NewMemoryStore()
		defer memStore.Close()
		cacheStore = memStore
		registry = lifecycle.NewMemoryRegistry()
	}

	manager, err := lifecycle.NewManager(cacheStore, http.DefaultClient, registry, nil, lifecycle.Config{
		StaticRole:  cfg.Cache.StaticRole,
		DynamicRole: cfg.Cache.DynamicRole,
		Version:     cfg.Cache.Version,
		Origin:      cfg.Site.Origin,
		Manifest:    cfg.Site.Manifest,
	}, logging.NewLogger("lifecycle"))
	if err != nil {
		return fmt.Errorf("create lifecycle manager: %w", err)
	}

	tasks := strategy.NewBackgroundTasks(logging.NewLogger("strategy"))
	executor := strategy.NewExecutor(cacheStore, http.DefaultClient, manager, cfg.Site.FallbackPath, tasks, logging.NewLogger("strategy"))

	notifyHandler := notify.NewHandler(
		logNotifier{logger: logging.NewLogger("notify")},
		logOpener{logger: logging.NewLogger("notify")},
		cfg.Site.Origin+"/",
		logging.NewLogger("notify"),
	)

	router, err := events.NewRouter(manager, executor, notifyHandler, cfg.Site.Origin, logging.NewLogger("events"))
	if err != nil {
		return fmt.Errorf("create event router: %w", err)
	}

	if _, err := router.Dispatch(ctx, events.Event{Kind: events.KindInstall}); err != nil {
		return fmt.Errorf("install: %w", err)
	}
	if _, err := router.Dispatch(ctx, events.Event{Kind: events.KindActivate}); err != nil {
		return fmt.Errorf("activate: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler(manager))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Str("origin", cfg.Site.Origin).Msg("Starting offline proxy")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	// Let detached cache writes finish before the store goes away.
	tasks.Wait()
	return nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// readyHandler reports ready once the lifecycle reached the active phase.
func readyHandler(manager *lifecycle.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager.Phase() != lifecycle.PhaseActive {
			http.Error(w, fmt.Sprintf("lifecycle phase: %s", manager.Phase()), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}

// logNotifier surfaces notifications in the log. The proxy has no display
// surface of its own.
type logNotifier struct {
	logger zerolog.Logger
}

func (n logNotifier) Show(ctx context.Context, payload notify.Payload) error {
	n.logger.Info().Str("title", payload.Title).Str("body", payload.Body).Msg("Notification")
	return nil
}

func (n logNotifier) Dismiss(ctx context.Context) error {
	n.logger.Debug().Msg("Notification dismissed")
	return nil
}

// logOpener logs the URL a notification click would open.
type logOpener struct {
	logger zerolog.Logger
}

func (o logOpener) OpenURL(ctx context.Context, url string) error {
	o.logger.Info().Str("url", url).Msg("Opening URL")
	return nil
}
