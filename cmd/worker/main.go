// The worker renders and delivers proforma documents queued by the API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"shrimpquote_backend/internal/proforma"
	"shrimpquote_backend/internal/whatsapp"
	"shrimpquote_backend/platform/config"
	"shrimpquote_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	if !cfg.IsRedisEnabled() {
		panic("REDIS_ADDR is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	whatsappClient := whatsapp.NewClient(cfg, log)
	if whatsappClient == nil {
		log.Warn("WHATSAPP_BASE_URL not configured; rendered documents cannot be delivered")
	}

	gotenberg := proforma.NewGotenberg(cfg)
	if gotenberg == nil {
		panic("GOTENBERG_URL is required for the worker")
	}

	archive, err := proforma.NewArchive(cfg)
	if err != nil {
		log.Error("failed to initialize proforma archive", "error", err)
		panic("failed to initialize proforma archive: " + err.Error())
	}
	if archive != nil {
		ensureCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := archive.EnsureBucket(ensureCtx); err != nil {
			cancel()
			log.Error("failed to ensure proforma bucket", "error", err)
			panic("failed to ensure proforma bucket: " + err.Error())
		}
		cancel()
	}

	service := proforma.NewService(nil, gotenberg, archive, whatsappClient, log)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.GetRedisPassword(),
		DB:       cfg.GetRedisDB(),
	}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			proforma.QueueProformas: 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(proforma.TaskRenderProforma, service.HandleRender)

	go func() {
		<-ctx.Done()
		log.Info("shutdown signal received, stopping worker")
		server.Shutdown()
	}()

	log.Info("worker listening", "queue", proforma.QueueProformas)
	if err := server.Run(mux); err != nil {
		log.Error("worker error", "error", err)
		panic("worker error: " + err.Error())
	}
}
