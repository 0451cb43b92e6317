package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"shrimpquote_backend/internal/admin"
	"shrimpquote_backend/internal/conversation"
	"shrimpquote_backend/internal/escalation"
	apphttp "shrimpquote_backend/internal/http"
	"shrimpquote_backend/internal/http/router"
	"shrimpquote_backend/internal/intent"
	"shrimpquote_backend/internal/pricing"
	"shrimpquote_backend/internal/proforma"
	"shrimpquote_backend/internal/session"
	"shrimpquote_backend/internal/webhook"
	"shrimpquote_backend/internal/whatsapp"
	"shrimpquote_backend/platform/config"
	"shrimpquote_backend/platform/db"
	"shrimpquote_backend/platform/logger"
	"shrimpquote_backend/platform/validator"
)

const sessionMaintenanceInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	var prices pricing.Writer
	var health apphttp.HealthChecker

	if cfg.DatabaseURL != "" {
		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, cfg, "migrations")
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")

		if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
			p, err := db.NewPool(ctx, cfg)
			if err != nil {
				return err
			}
			pool = p
			return nil
		}); err != nil {
			log.Error("failed to connect to database", "error", err)
			panic("failed to connect to database: " + err.Error())
		}
		defer pool.Close()
		log.Info("database connection established")

		prices = pricing.NewPostgresRepository(pool)
		health = db.NewPoolAdapter(pool)
	} else {
		seed, err := pricing.LoadSeedFile(cfg.PriceSeedPath)
		if err != nil {
			log.Error("failed to load price seed", "error", err, "path", cfg.PriceSeedPath)
			panic("failed to load price seed: " + err.Error())
		}
		prices = pricing.NewMemoryFromSeed(seed)
		log.Info("price list loaded from seed file", "path", cfg.PriceSeedPath)
	}

	var redisClient *redis.Client
	if cfg.IsRedisEnabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.GetRedisPassword(),
			DB:       cfg.GetRedisDB(),
		})
		defer func() { _ = redisClient.Close() }()
		log.Info("redis connected", "addr", cfg.GetRedisAddr())
	}

	// Session store: Redis when available so replicas share conversations,
	// otherwise in-memory with periodic file snapshots.
	var driver session.Driver
	if redisClient != nil {
		driver = session.NewRedisDriver(redisClient)
	} else {
		memory := session.NewMemoryDriver()
		if err := memory.Restore(cfg.GetSessionSnapshotPath()); err != nil {
			log.Warn("session snapshot restore failed", "error", err)
		}
		go sessionMaintenance(ctx, memory, cfg.GetSessionSnapshotPath(), log)
		driver = memory
	}
	sessions := session.NewStore(driver, cfg.GetSessionTTL(), log)

	// ========================================================================
	// Collaborators
	// ========================================================================

	var fallback intent.FallbackClassifier
	if gemini, err := intent.NewGemini(ctx, cfg, log); err != nil {
		log.Warn("gemini classifier unavailable, heuristics only", "error", err)
	} else if gemini != nil {
		fallback = gemini
		log.Info("gemini fallback classifier initialized", "model", cfg.GetGeminiModel())
	}
	classifier := intent.New(fallback, cfg.GetGeminiTimeout(), log)

	whatsappClient := whatsapp.NewClient(cfg, log)
	if whatsappClient == nil {
		log.Warn("WHATSAPP_BASE_URL not configured; outbound delivery disabled")
	}

	gotenberg := proforma.NewGotenberg(cfg)
	archive, err := proforma.NewArchive(cfg)
	if err != nil {
		log.Error("failed to initialize proforma archive", "error", err)
		panic("failed to initialize proforma archive: " + err.Error())
	}
	if archive != nil {
		if err := withRetry(ctx, log, "ensure proforma bucket", 5, 2*time.Second, func() error {
			return archive.EnsureBucket(ctx)
		}); err != nil {
			log.Error("failed to ensure proforma bucket", "error", err)
			panic("failed to ensure proforma bucket: " + err.Error())
		}
	}

	var queue *asynq.Client
	if redisClient != nil {
		queue = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.GetRedisPassword(),
			DB:       cfg.GetRedisDB(),
		})
		defer func() { _ = queue.Close() }()
	}
	documents := proforma.NewService(queue, gotenberg, archive, whatsappClient, log)

	var escalator conversation.Escalator
	if notifier := escalation.NewNotifier(cfg, log); notifier != nil {
		escalator = notifier
		log.Info("escalation notifier initialized", "desk", cfg.GetSalesDeskAddress())
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	engine := conversation.NewEngine(sessions, prices, classifier, documents, escalator, log)

	val := validator.New()
	webhookModule := webhook.NewModule(engine, whatsappClient, redisClient, cfg, val, log)
	adminModule := admin.NewModule(prices, cfg, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: health,
		Modules: []apphttp.Module{
			webhookModule,
			adminModule,
		},
	}

	httpEngine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- httpEngine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		if memory, ok := driver.(*session.MemoryDriver); ok {
			if err := memory.Snapshot(cfg.GetSessionSnapshotPath()); err != nil {
				log.Warn("final session snapshot failed", "error", err)
			}
		}
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// sessionMaintenance periodically prunes idle sessions and writes the
// fire-and-forget snapshot used to survive restarts.
func sessionMaintenance(ctx context.Context, memory *session.MemoryDriver, snapshotPath string, log *logger.Logger) {
	ticker := time.NewTicker(sessionMaintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := memory.PruneExpired(); pruned > 0 {
				log.Debug("pruned idle sessions", "count", pruned)
			}
			if err := memory.Snapshot(snapshotPath); err != nil {
				log.Warn("session snapshot failed", "error", err)
			}
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
