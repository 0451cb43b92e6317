package admin

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"shrimpquote_backend/internal/pricing"
	"shrimpquote_backend/platform/apperr"
	"shrimpquote_backend/platform/logger"
)

type adminConfig struct {
	user string
	hash string
}

func (c adminConfig) GetJWTAccessSecret() string       { return "test-secret" }
func (c adminConfig) GetAccessTokenTTL() time.Duration { return 15 * time.Minute }
func (c adminConfig) GetAdminUser() string             { return c.user }
func (c adminConfig) GetAdminPasswordHash() string     { return c.hash }

func newTestService(t *testing.T) (*Service, *pricing.MemoryRepository) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	repo := pricing.NewMemoryRepository()
	cfg := adminConfig{user: "desk", hash: string(hash)}
	return NewService(repo, cfg, logger.New("development")), repo
}

func TestLogin_IssuesAccessToken(t *testing.T) {
	svc, _ := newTestService(t)

	token, err := svc.Login(context.Background(), "desk", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("issued token does not verify: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != "desk" {
		t.Fatalf("sub = %v, want desk", claims["sub"])
	}
	if claims["type"] != "access" {
		t.Fatalf("type = %v, want access", claims["type"])
	}
}

func TestLogin_RejectsWrongPasswordAndUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "desk", "wrong"); apperr.GetKind(err) != apperr.KindUnauthorized {
		t.Fatalf("wrong password: err = %v, want unauthorized", err)
	}
	if _, err := svc.Login(ctx, "intruder", "correct-horse"); apperr.GetKind(err) != apperr.KindUnauthorized {
		t.Fatalf("wrong user: err = %v, want unauthorized", err)
	}
}

func TestListPrices_ReturnsSeededCatalog(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	if err := repo.SetFixedCost(ctx, 1.50); err != nil {
		t.Fatalf("seed fixed cost: %v", err)
	}
	if err := repo.UpsertBasePrice(ctx, "HLSO", "16/20", 8.55); err != nil {
		t.Fatalf("seed price: %v", err)
	}
	if err := repo.UpsertBasePrice(ctx, "HLSO", "21/25", 8.10); err != nil {
		t.Fatalf("seed price: %v", err)
	}

	list, err := svc.ListPrices(ctx)
	if err != nil {
		t.Fatalf("list prices: %v", err)
	}
	if list.FixedCost != 1.50 {
		t.Fatalf("fixed cost = %v, want 1.50", list.FixedCost)
	}
	if len(list.Products) != 1 {
		t.Fatalf("products = %d, want 1", len(list.Products))
	}
	hlso := list.Products[0]
	if hlso.Product != "HLSO" {
		t.Fatalf("product = %q, want HLSO", hlso.Product)
	}
	if hlso.Sizes["16/20"] != 8.55 || hlso.Sizes["21/25"] != 8.10 {
		t.Fatalf("sizes = %v", hlso.Sizes)
	}
}

func TestUpsertPrice_ValidatesInput(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	if err := svc.UpsertPrice(ctx, "GIBBERISH", "16/20", 8.55); apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("unknown product: err = %v, want validation", err)
	}
	if err := svc.UpsertPrice(ctx, "HLSO", "16/20", 0); apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("zero price: err = %v, want validation", err)
	}

	if err := svc.UpsertPrice(ctx, "hlso", "16/20", 8.55); err != nil {
		t.Fatalf("lowercase product should canonicalize: %v", err)
	}
	price, err := repo.BasePrice(ctx, "HLSO", "16/20")
	if err != nil || price != 8.55 {
		t.Fatalf("stored price = %v, %v", price, err)
	}
}

func TestUpsertFreightRate_StoresByDestination(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	if err := svc.UpsertFreightRate(ctx, "Houston", 0.25); err != nil {
		t.Fatalf("upsert freight: %v", err)
	}
	rate, err := repo.FreightRate(ctx, "houston")
	if err != nil || rate != 0.25 {
		t.Fatalf("stored rate = %v, %v", rate, err)
	}

	if err := svc.UpsertFreightRate(ctx, "", 0.25); apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("empty destination: want validation error")
	}
}
