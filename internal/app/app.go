package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmhodges/clock"

	"github.com/MrSnakeDoc/snoozzd/internal/alarm"
	"github.com/MrSnakeDoc/snoozzd/internal/browser"
	"github.com/MrSnakeDoc/snoozzd/internal/config"
	"github.com/MrSnakeDoc/snoozzd/internal/httpserver"
	"github.com/MrSnakeDoc/snoozzd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/snoozzd/internal/logger"
	"github.com/MrSnakeDoc/snoozzd/internal/notify"
	"github.com/MrSnakeDoc/snoozzd/internal/redis"
	"github.com/MrSnakeDoc/snoozzd/internal/scheduler"
	"github.com/MrSnakeDoc/snoozzd/internal/snooze"
	"github.com/MrSnakeDoc/snoozzd/internal/sources/defaults"
	"github.com/MrSnakeDoc/snoozzd/internal/store"
	"github.com/MrSnakeDoc/snoozzd/internal/store/connect"
	"github.com/MrSnakeDoc/snoozzd/internal/store/memory"
	"github.com/MrSnakeDoc/snoozzd/internal/store/postgres"
	redisstore "github.com/MrSnakeDoc/snoozzd/internal/store/redis"
	"github.com/MrSnakeDoc/snoozzd/internal/utils"
	"github.com/MrSnakeDoc/snoozzd/internal/version"
)

type App struct {
	cfg     *config.Config
	logger  logger.Logger
	server  *httpserver.Server
	backend store.Backend
	host    *alarm.TimerHost
	coord   *alarm.Coordinator
	hub     *browser.Hub
	runner  *scheduler.Runner
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	seeded, err := defaults.Seed(cfg.OptionsFile)
	if err != nil {
		loggerClient.Warn("failed to load options file, using factory defaults",
			logger.String("file", cfg.OptionsFile),
			logger.Error(err))
	}

	// Initialize storage early - fail fast if unavailable
	backend, err := openBackend(context.Background(), cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open %s storage: %v", cfg.Storage, err)
		os.Exit(1)
	}
	loggerClient.Info("storage initialized", logger.String("backend", cfg.Storage))

	clk := clock.New()
	host := alarm.NewTimerHost(clk, cfg.AlarmMinDelay)
	coord := alarm.NewCoordinator(host, clk, cfg.Debounce, loggerClient)
	hub := browser.NewHub(cfg.BrowserCallTimeout, cfg.AllowedOrigins, loggerClient)

	records := snooze.NewStore(backend, seeded)

	channels := notify.Multi{hub, notify.NewLog(loggerClient)}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			loggerClient.Warn("telegram notifications disabled", logger.Error(err))
		} else {
			channels = append(channels, tg)
			loggerClient.Info("telegram notifications enabled")
		}
	}
	notifier := notify.NewGate(channels, records.Options, loggerClient)

	orch := scheduler.NewOrchestrator(
		records,
		coord,
		scheduler.NewDeliverer(hub, notifier, loggerClient),
		clk,
		scheduler.Settings{
			Horizon:      cfg.AlarmHorizon,
			DueTolerance: cfg.DueTolerance,
			Location:     cfg.Location,
		},
		loggerClient,
	)
	launcher := scheduler.NewLauncher(records, orch, clk, loggerClient)
	runner := scheduler.NewRunner(orch, launcher, scheduler.NewClickHandler(records, hub, loggerClient),
		records, backend, coord, hub.Events(), clk, loggerClient, cfg.PollInterval)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      clk.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		Clock:          clk,
		Location:       cfg.Location,
		BrowserName:    cfg.BrowserName,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
		StorageName:    cfg.Storage,
		Backend:        backend,
		Store:          records,
		Snoozer:        snooze.NewSnoozer(records, notifier, clk, cfg.Location, cfg.AllowFileURLs, loggerClient),
		Orchestrator:   orch,
		Runner:         runner,
		Alarm:          coord,
		Hub:            hub,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:     cfg,
		logger:  loggerClient,
		server:  server,
		backend: backend,
		host:    host,
		coord:   coord,
		hub:     hub,
		runner:  runner,
	}
}

func openBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Backend, error) {
	policy := connect.Policy{
		ConnectTimeout: cfg.ConnectTimeout,
		RetryInterval:  cfg.RetryInterval,
		MaxWait:        cfg.MaxWait,
		PingTimeout:    cfg.PingTimeout,
		WarnThreshold:  cfg.WarnThreshold,
	}

	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn("using in-memory storage, snoozed items are lost on restart")
		return memory.New(), nil
	case config.StoragePostgres:
		return postgres.Open(ctx, cfg.PostgresDSN, policy, log)
	case config.StorageRedis:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:         cfg.RedisAddr,
			User:         cfg.RedisUser,
			Password:     cfg.RedisPassword,
			RedisDB:      cfg.RedisDB,
			DialTimeout:  cfg.RedisDT,
			ReadTimeout:  cfg.RedisRT,
			WriteTimeout: cfg.RedisWT,
			PoolSize:     cfg.RedisPoolSize,
			Retry:        policy,
		}, log)
		if err != nil {
			return nil, err
		}
		return redisstore.NewStore(client), nil
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}

func (a *App) Run() error {
	a.logger.Infof("💤 Starting snoozzd v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Runs the startup pass before serving, so items parked for launch wake first
	if err := a.runner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start wake engine: %w", err)
	}
	a.logger.Info("wake engine started",
		logger.Duration("poll_interval", a.cfg.PollInterval),
		logger.String("timezone", a.cfg.Location.String()))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.shutdownEngine()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	serverErr := a.server.Stop(shutdownCtx)

	a.shutdownEngine()
	if serverErr != nil {
		return fmt.Errorf("failed to stop server: %w", serverErr)
	}

	a.logger.Info("✅ snoozzd stopped cleanly")
	return nil
}

func (a *App) shutdownEngine() {
	a.runner.Stop()
	a.coord.Stop()
	a.host.Close()
	a.hub.Close()
	utils.CloseLogged(a.backend, "storage", a.logger)
}
