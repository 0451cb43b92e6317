package pricing

import (
	"context"

	"shrimpquote_backend/platform/apperr"
)

// Repository is the pricing data source. "Not found" is always distinct
// from a zero price.
type Repository interface {
	// BasePrice returns the USD/kg base price for a product and size.
	// A missing entry returns an apperr NotFound whose Details carry the
	// available sizes for the product.
	BasePrice(ctx context.Context, product, size string) (float64, error)

	// AvailableSizes lists the sizes with a price for the product.
	AvailableSizes(ctx context.Context, product string) ([]string, error)

	// FixedCost returns the flat USD/kg surcharge applied to every quote.
	FixedCost(ctx context.Context) (float64, error)

	// FreightRate returns the stored USD/kg freight for a destination, or
	// NotFound when the desk has no rate on file.
	FreightRate(ctx context.Context, destination string) (float64, error)
}

// Writer extends Repository with the mutations the admin API needs.
type Writer interface {
	Repository

	UpsertBasePrice(ctx context.Context, product, size string, usdPerKg float64) error
	SetFixedCost(ctx context.Context, usdPerKg float64) error
	UpsertFreightRate(ctx context.Context, destination string, usdPerKg float64) error
}

func notFoundPrice(product, size string, available []string) error {
	return apperr.NotFound("no price for " + product + " " + size).WithDetails(available)
}
