// Package admin provides the price-management bounded context: the sales
// desk signs in with a single operator account and maintains the price
// list the conversation engine quotes from.
package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"shrimpquote_backend/internal/extract"
	"shrimpquote_backend/internal/pricing"
	"shrimpquote_backend/platform/apperr"
	"shrimpquote_backend/platform/config"
	"shrimpquote_backend/platform/logger"
)

const accessTokenType = "access"

var errInvalidCredentials = apperr.Unauthorized("invalid credentials")

// ProductPrices is one product's price list entries.
type ProductPrices struct {
	Product string             `json:"product"`
	Sizes   map[string]float64 `json:"sizes"`
}

// PriceList is the full price catalog as the admin UI sees it.
type PriceList struct {
	FixedCost float64         `json:"fixedCost"`
	Products  []ProductPrices `json:"products"`
}

// Service implements admin operations against the pricing writer.
type Service struct {
	prices pricing.Writer
	cfg    config.AdminConfig
	log    *logger.Logger
}

func NewService(prices pricing.Writer, cfg config.AdminConfig, log *logger.Logger) *Service {
	return &Service{prices: prices, cfg: cfg, log: log}
}

// Login verifies the operator credentials and issues a short-lived access
// token. Username and password checks both run on every attempt so timing
// does not reveal which one failed.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.GetAdminUser())) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(s.cfg.GetAdminPasswordHash()), []byte(password))
	if !userOK || passErr != nil {
		return "", errInvalidCredentials
	}

	claims := jwt.MapClaims{
		"sub":  username,
		"type": accessTokenType,
		"exp":  time.Now().Add(s.cfg.GetAccessTokenTTL()).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "sign access token", err)
	}
	return signed, nil
}

// ListPrices assembles the full catalog. Products without any priced size
// are skipped rather than reported as errors.
func (s *Service) ListPrices(ctx context.Context) (PriceList, error) {
	fixed, err := s.prices.FixedCost(ctx)
	if err != nil {
		return PriceList{}, err
	}

	list := PriceList{FixedCost: fixed}
	for _, product := range extract.KnownProducts() {
		sizes, err := s.prices.AvailableSizes(ctx, product)
		if err != nil {
			var appErr *apperr.Error
			if errors.As(err, &appErr) && appErr.Kind == apperr.KindNotFound {
				continue
			}
			return PriceList{}, err
		}

		entry := ProductPrices{Product: product, Sizes: make(map[string]float64, len(sizes))}
		for _, size := range sizes {
			price, err := s.prices.BasePrice(ctx, product, size)
			if err != nil {
				return PriceList{}, err
			}
			entry.Sizes[size] = price
		}
		list.Products = append(list.Products, entry)
	}
	return list, nil
}

// UpsertPrice stores one base price in USD per kilogram.
func (s *Service) UpsertPrice(ctx context.Context, product, size string, usdPerKg float64) error {
	if usdPerKg <= 0 {
		return apperr.Validation("price must be positive")
	}
	canonical, ok := extract.CanonicalProduct(product)
	if !ok {
		return apperr.Validation("unknown product " + product)
	}
	if err := s.prices.UpsertBasePrice(ctx, canonical, size, usdPerKg); err != nil {
		return err
	}
	s.log.Info("base price updated", "product", canonical, "size", size, "usd_kg", usdPerKg)
	return nil
}

// SetFixedCost stores the flat USD/kg surcharge applied to every quote.
func (s *Service) SetFixedCost(ctx context.Context, usdPerKg float64) error {
	if usdPerKg < 0 {
		return apperr.Validation("fixed cost cannot be negative")
	}
	if err := s.prices.SetFixedCost(ctx, usdPerKg); err != nil {
		return err
	}
	s.log.Info("fixed cost updated", "usd_kg", usdPerKg)
	return nil
}

// UpsertFreightRate stores the USD/kg freight rate for a destination.
func (s *Service) UpsertFreightRate(ctx context.Context, destination string, usdPerKg float64) error {
	if usdPerKg < 0 {
		return apperr.Validation("freight rate cannot be negative")
	}
	if destination == "" {
		return apperr.Validation("destination is required")
	}
	if err := s.prices.UpsertFreightRate(ctx, destination, usdPerKg); err != nil {
		return err
	}
	s.log.Info("freight rate updated", "destination", destination, "usd_kg", usdPerKg)
	return nil
}
