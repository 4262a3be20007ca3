package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avelinak/atelier-shop/internal/domain/product"
)

const (
	productColumns = `id, name, description, price, original_price, discount_percentage,
		discount_type, discount_end_date, is_black_friday, colors, sizes, images,
		category, categories, sales_count, stock, sold_out, hidden, rating,
		review_count, created_at, updated_at`

	listProductsSQL = `SELECT ` + productColumns + `
		FROM products WHERE hidden = FALSE ORDER BY id`

	listProductsByCategorySQL = `SELECT ` + productColumns + `
		FROM products WHERE hidden = FALSE AND ($1 = category OR $1 = ANY(categories))
		ORDER BY id`

	getProductByIDSQL = `SELECT ` + productColumns + `
		FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + `
		FROM products WHERE id = ANY($1)`

	insertProductSQL = `INSERT INTO products (id, name, description, price, original_price,
		discount_percentage, discount_type, discount_end_date, is_black_friday,
		colors, sizes, images, category, categories, sales_count, stock, sold_out,
		hidden, rating, review_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (id) DO NOTHING`

	updateProductSQL = `UPDATE products SET
		name = $2, description = $3, price = $4, original_price = $5,
		discount_percentage = $6, discount_type = $7, discount_end_date = $8,
		is_black_friday = $9, colors = $10, sizes = $11, images = $12,
		category = $13, categories = $14, stock = $15, sold_out = $16,
		hidden = $17, rating = $18, review_count = $19, updated_at = now()
		WHERE id = $1`

	incrementSalesSQL = `UPDATE products
		SET sales_count = GREATEST(0, sales_count + $2), updated_at = now()
		WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all visible products ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// ListByCategory returns visible products whose primary category or category
// list matches.
func (r *ProductRepository) ListByCategory(ctx context.Context, category string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsByCategorySQL, category)
	if err != nil {
		return nil, fmt.Errorf("listing products in category %q: %w", category, err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Create inserts a product, ignoring duplicates by ID.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, insertProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.OriginalPrice,
		p.DiscountPercentage, string(p.DiscountType), p.DiscountEndDate, p.IsBlackFridayDeal,
		p.Colors, p.Sizes, p.Images, p.Category, p.Categories,
		p.SalesCount, p.Stock, p.SoldOut, p.Hidden, p.Rating, p.ReviewCount,
	)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

// Update persists all mutable product fields.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.OriginalPrice,
		p.DiscountPercentage, string(p.DiscountType), p.DiscountEndDate, p.IsBlackFridayDeal,
		p.Colors, p.Sizes, p.Images, p.Category, p.Categories,
		p.Stock, p.SoldOut, p.Hidden, p.Rating, p.ReviewCount,
	)
	if err != nil {
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// IncrementSales adjusts the sales counter by delta in one atomic statement,
// clamped at zero.
func (r *ProductRepository) IncrementSales(ctx context.Context, id string, delta int) error {
	tag, err := r.pool.Exec(ctx, incrementSalesSQL, id, delta)
	if err != nil {
		return fmt.Errorf("adjusting sales count for product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p            product.Product
		discountType string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.OriginalPrice,
		&p.DiscountPercentage, &discountType, &p.DiscountEndDate, &p.IsBlackFridayDeal,
		&p.Colors, &p.Sizes, &p.Images, &p.Category, &p.Categories,
		&p.SalesCount, &p.Stock, &p.SoldOut, &p.Hidden, &p.Rating,
		&p.ReviewCount, &p.CreatedAt, &p.UpdatedAt,
	)
	p.DiscountType = product.DiscountType(discountType)
	return p, err
}
