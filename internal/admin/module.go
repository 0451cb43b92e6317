package admin

import (
	apphttp "shrimpquote_backend/internal/http"
	"shrimpquote_backend/internal/pricing"
	"shrimpquote_backend/platform/config"
	"shrimpquote_backend/platform/logger"
	"shrimpquote_backend/platform/validator"
)

// Module is the price-management module implementing http.Module.
type Module struct {
	handler *Handler
}

func NewModule(prices pricing.Writer, cfg config.AdminConfig, val *validator.Validator, log *logger.Logger) *Module {
	service := NewService(prices, cfg, log)
	return &Module{handler: NewHandler(service, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "admin"
}

// RegisterRoutes mounts the admin routes. Login is public; everything else
// sits behind the JWT middleware on the admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/auth/login", m.handler.HandleLogin)

	ctx.Admin.GET("/prices", m.handler.HandleListPrices)
	ctx.Admin.PUT("/prices", m.handler.HandleUpsertPrice)
	ctx.Admin.PUT("/fixed-cost", m.handler.HandleSetFixedCost)
	ctx.Admin.PUT("/freight-rates", m.handler.HandleUpsertFreightRate)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
