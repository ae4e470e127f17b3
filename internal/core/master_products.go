package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ProductInput holds the fields required to create a product.
type ProductInput struct {
	Name          string
	Type          ProductType
	SalesPrice    decimal.Decimal
	PurchasePrice decimal.Decimal
	HSNCode       string
	Category      string
}

// ProductService manages the product catalog.
type ProductService interface {
	Create(ctx context.Context, in ProductInput) (*Product, error)
	Get(ctx context.Context, id int) (*Product, error)
	List(ctx context.Context, f ListFilter) (*Page[Product], error)
}

type productService struct {
	pool *pgxpool.Pool
}

// NewProductService constructs a ProductService backed by PostgreSQL.
func NewProductService(pool *pgxpool.Pool) ProductService {
	return &productService{pool: pool}
}

const productColumns = `id, name, type, sales_price, purchase_price, hsn_code, category, is_active, created_at`

func scanProduct(row rowScanner) (*Product, error) {
	p := &Product{}
	err := row.Scan(&p.ID, &p.Name, &p.Type, &p.SalesPrice, &p.PurchasePrice,
		&p.HSNCode, &p.Category, &p.IsActive, &p.CreatedAt)
	return p, err
}

func (s *productService) Create(ctx context.Context, in ProductInput) (*Product, error) {
	const op = "create product"
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalidInput(op, "name", "name is required")
	}
	if in.Type == "" {
		in.Type = ProductTypeGoods
	}
	if in.Type != ProductTypeGoods && in.Type != ProductTypeService {
		return nil, invalidInput(op, "type", "type must be Goods or Service, got %q", in.Type)
	}
	if in.SalesPrice.IsNegative() || in.PurchasePrice.IsNegative() {
		return nil, invalidInput(op, "price", "prices must not be negative")
	}
	if in.HSNCode != "" {
		if v := ValidateHSNCode(in.HSNCode); !v.Valid {
			return nil, invalidInput(op, "hsn_code", "%s", strings.Join(v.Errors, "; "))
		}
	}

	p, err := scanProduct(s.pool.QueryRow(ctx, `
		INSERT INTO products (name, type, sales_price, purchase_price, hsn_code, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+productColumns,
		strings.TrimSpace(in.Name), in.Type, in.SalesPrice, in.PurchasePrice,
		strings.TrimSpace(in.HSNCode), strings.TrimSpace(in.Category),
	))
	if err != nil {
		return nil, fmt.Errorf("create product %q: %w", in.Name, err)
	}
	return p, nil
}

func (s *productService) Get(ctx context.Context, id int) (*Product, error) {
	return getProduct(ctx, s.pool, id)
}

func getProduct(ctx context.Context, q querier, id int) (*Product, error) {
	p, err := scanProduct(q.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("get product", "product", id)
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

func (s *productService) List(ctx context.Context, f ListFilter) (*Page[Product], error) {
	f = f.Normalize()

	var w whereBuilder
	if f.Query != "" {
		p := likePattern(f.Query)
		w.add("(name ILIKE ? OR hsn_code ILIKE ? OR category ILIKE ?)", p, p, p)
	}

	page := &Page[Product]{Items: []Product{}, Page: f.Page, Limit: f.Limit}
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM products"+w.sql(), w.args...).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	query := "SELECT " + productColumns + " FROM products" + w.sql() +
		" ORDER BY created_at DESC, id DESC LIMIT " + w.next(f.Limit) + " OFFSET " + w.next(f.Offset())
	rows, err := s.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		page.Items = append(page.Items, *p)
	}
	return page, rows.Err()
}
