package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shrimpquote_backend/platform/httpkit"
	"shrimpquote_backend/platform/validator"
)

const (
	errInvalidRequest = "invalid request body"
	errValidation     = "validation error"
)

// Handler handles admin HTTP requests.
type Handler struct {
	service *Service
	val     *validator.Validator
}

func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// LoginRequest is the operator sign-in body.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

// UpsertPriceRequest sets one base price.
type UpsertPriceRequest struct {
	Product  string  `json:"product" validate:"required,max=30"`
	Size     string  `json:"size" validate:"required,max=10"`
	USDPerKg float64 `json:"usdPerKg" validate:"required,gt=0"`
}

// SetFixedCostRequest sets the flat surcharge.
type SetFixedCostRequest struct {
	USDPerKg float64 `json:"usdPerKg" validate:"gte=0"`
}

// UpsertFreightRateRequest sets the stored freight for a destination.
type UpsertFreightRateRequest struct {
	Destination string  `json:"destination" validate:"required,max=60"`
	USDPerKg    float64 `json:"usdPerKg" validate:"gte=0"`
}

// HandleLogin signs the operator in.
// POST /api/v1/auth/login
func (h *Handler) HandleLogin(c *gin.Context) {
	var req LoginRequest
	if !h.bind(c, &req) {
		return
	}

	token, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, LoginResponse{AccessToken: token})
}

// HandleListPrices returns the full price catalog.
// GET /api/v1/admin/prices
func (h *Handler) HandleListPrices(c *gin.Context) {
	list, err := h.service.ListPrices(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, list)
}

// HandleUpsertPrice creates or updates one base price.
// PUT /api/v1/admin/prices
func (h *Handler) HandleUpsertPrice(c *gin.Context) {
	var req UpsertPriceRequest
	if !h.bind(c, &req) {
		return
	}

	err := h.service.UpsertPrice(c.Request.Context(), req.Product, req.Size, req.USDPerKg)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleSetFixedCost updates the flat surcharge.
// PUT /api/v1/admin/fixed-cost
func (h *Handler) HandleSetFixedCost(c *gin.Context) {
	var req SetFixedCostRequest
	if !h.bind(c, &req) {
		return
	}

	err := h.service.SetFixedCost(c.Request.Context(), req.USDPerKg)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleUpsertFreightRate creates or updates a destination freight rate.
// PUT /api/v1/admin/freight-rates
func (h *Handler) HandleUpsertFreightRate(c *gin.Context) {
	var req UpsertFreightRateRequest
	if !h.bind(c, &req) {
		return
	}

	err := h.service.UpsertFreightRate(c.Request.Context(), req.Destination, req.USDPerKg)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation, err.Error())
		return false
	}
	return true
}
