package pricing

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"shrimpquote_backend/platform/apperr"
)

// Seed is the YAML shape of a price list file. Used for development and
// tests; production reads from Postgres.
type Seed struct {
	FixedCost    float64                       `yaml:"fixed_cost"`
	BasePrices   map[string]map[string]float64 `yaml:"base_prices"`
	FreightRates map[string]float64            `yaml:"freight_rates"`
}

// MemoryRepository is an in-memory Writer backed by an optional YAML seed.
type MemoryRepository struct {
	mu        sync.RWMutex
	fixedCost float64
	prices    map[string]map[string]float64
	freight   map[string]float64
}

// NewMemoryRepository creates an empty in-memory repository with the
// default fixed cost.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		fixedCost: 0.25,
		prices:    make(map[string]map[string]float64),
		freight:   make(map[string]float64),
	}
}

// NewMemoryFromSeed builds a repository from parsed seed data.
func NewMemoryFromSeed(seed Seed) *MemoryRepository {
	repo := NewMemoryRepository()
	if seed.FixedCost > 0 {
		repo.fixedCost = seed.FixedCost
	}
	for product, sizes := range seed.BasePrices {
		key := canonProduct(product)
		repo.prices[key] = make(map[string]float64, len(sizes))
		for size, price := range sizes {
			repo.prices[key][size] = price
		}
	}
	for destination, rate := range seed.FreightRates {
		repo.freight[strings.ToLower(destination)] = rate
	}
	return repo
}

// LoadSeedFile reads and parses a YAML price list.
func LoadSeedFile(path string) (Seed, error) {
	var seed Seed
	raw, err := os.ReadFile(path)
	if err != nil {
		return seed, err
	}
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return seed, err
	}
	return seed, nil
}

func canonProduct(product string) string {
	return strings.ToUpper(strings.TrimSpace(product))
}

func (r *MemoryRepository) BasePrice(ctx context.Context, product, size string) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sizes, ok := r.prices[canonProduct(product)]
	if !ok {
		return 0, notFoundPrice(product, size, nil)
	}
	price, ok := sizes[size]
	if !ok {
		return 0, notFoundPrice(product, size, sortedKeys(sizes))
	}
	return price, nil
}

func (r *MemoryRepository) AvailableSizes(ctx context.Context, product string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sizes, ok := r.prices[canonProduct(product)]
	if !ok {
		return nil, apperr.NotFound("unknown product " + product)
	}
	return sortedKeys(sizes), nil
}

func (r *MemoryRepository) FixedCost(ctx context.Context) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fixedCost, nil
}

func (r *MemoryRepository) FreightRate(ctx context.Context, destination string) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rate, ok := r.freight[strings.ToLower(destination)]
	if !ok {
		return 0, apperr.NotFound("no freight rate for " + destination)
	}
	return rate, nil
}

func (r *MemoryRepository) UpsertBasePrice(ctx context.Context, product, size string, usdPerKg float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := canonProduct(product)
	if r.prices[key] == nil {
		r.prices[key] = make(map[string]float64)
	}
	r.prices[key][size] = usdPerKg
	return nil
}

func (r *MemoryRepository) SetFixedCost(ctx context.Context, usdPerKg float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fixedCost = usdPerKg
	return nil
}

func (r *MemoryRepository) UpsertFreightRate(ctx context.Context, destination string, usdPerKg float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.freight[strings.ToLower(destination)] = usdPerKg
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
