package webhook

import (
	"github.com/redis/go-redis/v9"

	"shrimpquote_backend/internal/conversation"
	apphttp "shrimpquote_backend/internal/http"
	"shrimpquote_backend/platform/config"
	"shrimpquote_backend/platform/httpkit"
	"shrimpquote_backend/platform/logger"
	"shrimpquote_backend/platform/validator"

	"golang.org/x/time/rate"
)

// ModuleConfig combines the config interfaces the webhook module needs.
type ModuleConfig interface {
	config.DedupConfig
	config.RateLimitConfig
}

// Module is the inbound webhook module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule wires the inbound adapter. redisClient may be nil; the deduper
// then keeps its seen-set in process.
func NewModule(engine *conversation.Engine, responder Responder, redisClient *redis.Client, cfg ModuleConfig, val *validator.Validator, log *logger.Logger) *Module {
	dedup := NewDeduper(redisClient, cfg.GetDedupWindow(), log)
	limiter := httpkit.NewKeyedRateLimiter(rate.Limit(cfg.GetRateLimitRPS()), cfg.GetRateLimitBurst(), log)
	handler := NewHandler(engine, responder, limiter, dedup, val, log)

	return &Module{handler: handler}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the provided router context.
// The gateway authenticates with a shared secret at the network layer, not
// with the admin JWT, so the route stays outside the protected groups.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/webhook/whatsapp", m.handler.HandleInbound)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
