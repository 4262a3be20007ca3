// Command seed-db loads the default product catalog, a starter promo code
// set, and an admin API key into the database. Safe to run repeatedly:
// existing rows are left alone or refreshed, never duplicated.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avelinak/atelier-shop/db"
	"github.com/avelinak/atelier-shop/internal/domain/auth"
	"github.com/avelinak/atelier-shop/internal/domain/product"
	"github.com/avelinak/atelier-shop/internal/domain/promo"
	"github.com/avelinak/atelier-shop/internal/repository"
)

type productJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Colors      []string        `json:"colors"`
	Sizes       []string        `json:"sizes"`
	Images      []string        `json:"images"`
	Category    string          `json:"category"`
	Categories  []string        `json:"categories"`
	Stock       int             `json:"stock"`
	Rating      float64         `json:"rating"`
	ReviewCount int             `json:"reviewCount"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "", "path to products JSON file (default: embedded catalog)")
	flag.StringVar(&apiKey, "api-key", "", "admin API key to seed (or SHOP_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or SHOP_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("SHOP_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or SHOP_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("SHOP_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, repository.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedPromoCodes(ctx, repository.NewPromoRepository(pool)); err != nil {
		return errors.Wrap(err, "seed promo codes")
	}
	if err := seedAPIKey(ctx, repository.NewAPIKeyRepository(pool), apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}
	return nil
}

func seedProducts(ctx context.Context, repo *repository.ProductRepository, productsFile string) error {
	data := db.SeedProducts
	if productsFile != "" {
		slog.Info("reading products file", slog.String("path", productsFile))
		var err error
		data, err = os.ReadFile(productsFile)
		if err != nil {
			return errors.Wrap(err, "read products file")
		}
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("inserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if err := repo.Create(ctx, &product.Product{
			ID:           p.ID,
			Name:         p.Name,
			Description:  p.Description,
			Price:        p.Price,
			DiscountType: product.DiscountPercentage,
			Colors:       p.Colors,
			Sizes:        p.Sizes,
			Images:       p.Images,
			Category:     p.Category,
			Categories:   p.Categories,
			Stock:        p.Stock,
			Rating:       p.Rating,
			ReviewCount:  p.ReviewCount,
		}); err != nil {
			return errors.Wrapf(err, "insert product %s", p.ID)
		}

		slog.Info("inserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}
	return nil
}

func seedPromoCodes(ctx context.Context, repo *repository.PromoRepository) error {
	slog.Info("seeding starter promo codes")

	now := time.Now()
	limit := 100
	codes := []promo.PromoCode{
		{
			Code:          "WELCOME10",
			Description:   "Welcome: 10% off your first order",
			DiscountType:  promo.DiscountPercentage,
			DiscountValue: decimal.NewFromInt(10),
			StartDate:     now,
			EndDate:       now.AddDate(1, 0, 0),
			IsActive:      true,
		},
		{
			Code:            "FREESHIP",
			Description:     "Free shipping on orders over 50",
			DiscountType:    promo.DiscountShipping,
			DiscountValue:   decimal.Zero,
			MinimumPurchase: decimal.NewFromInt(50),
			StartDate:       now,
			EndDate:         now.AddDate(1, 0, 0),
			UsageLimit:      &limit,
			IsActive:        true,
		},
	}

	for i := range codes {
		c := &codes[i]
		if _, err := repo.FindByCode(ctx, c.Code); err == nil {
			slog.Info("promo code exists, skipping", slog.String("code", c.Code))
			continue
		} else if !errors.Is(err, promo.ErrNotFound) {
			return errors.Wrapf(err, "check promo code %s", c.Code)
		}

		c.ID = uuid.New().String()
		if err := repo.Create(ctx, c); err != nil {
			return errors.Wrapf(err, "insert promo code %s", c.Code)
		}
		slog.Info("inserted promo code", slog.String("code", c.Code))
	}
	return nil
}

func seedAPIKey(ctx context.Context, repo *repository.APIKeyRepository, apiKey, pepper string) error {
	slog.Info("seeding admin API key")

	if err := repo.Upsert(ctx, &auth.APIKeyInfo{
		ID:      "default",
		KeyHash: auth.HashKey(apiKey, pepper),
		Name:    "Default admin key",
		Scopes:  []string{"admin"},
	}); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"))
	return nil
}
