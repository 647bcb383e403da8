package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog/dto"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, code, name, category, min_stock_level, is_active, created_at, updated_at
        )
        VALUES (
            :id, :code, :name, :category, :min_stock_level, :is_active, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) FindProductByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT * FROM products WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *PGRepository) FindProductByCode(ctx context.Context, code string) (*model.Product, error) {
	var product model.Product
	query := `SELECT * FROM products WHERE code = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &product, query, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *PGRepository) FindAllProducts(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	var products []model.Product
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Category != "" {
		conditions = append(conditions, "category = :category")
		args["category"] = f.Category
	}
	if f.IsActive != nil {
		conditions = append(conditions, "is_active = :is_active")
		args["is_active"] = *f.IsActive
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(name ILIKE :search OR code ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM products" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM products" + whereClause + " ORDER BY code ASC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &products, args)
	return products, count, err
}

func (r *PGRepository) UpdateProduct(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET code = :code,
            name = :name,
            category = :category,
            min_stock_level = :min_stock_level,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) IsCodeUnique(ctx context.Context, code, excludeID string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM products WHERE code = $1`
	args := []interface{}{code}
	if excludeID != "" {
		query += ` AND id != $2`
		args = append(args, excludeID)
	}

	err := r.DB.GetContext(ctx, &count, query, args...)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *PGRepository) CreateVariant(ctx context.Context, v *model.ProductVariant) error {
	query := `
        INSERT INTO product_variants (
            id, product_id, sku, size, color, unit_price, min_stock_level, is_active, created_at, updated_at
        )
        VALUES (
            :id, :product_id, :sku, :size, :color, :unit_price, :min_stock_level, :is_active, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, v)
	return err
}

func (r *PGRepository) FindVariantByID(ctx context.Context, id string) (*model.ProductVariant, error) {
	var variant model.ProductVariant
	query := `SELECT * FROM product_variants WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &variant, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

func (r *PGRepository) FindVariantsByProduct(ctx context.Context, productID string) ([]model.ProductVariant, error) {
	var variants []model.ProductVariant
	query := `SELECT * FROM product_variants WHERE product_id = $1 ORDER BY sku ASC`
	err := r.DB.SelectContext(ctx, &variants, query, productID)
	return variants, err
}

func (r *PGRepository) FindVariantByAttrs(ctx context.Context, productID string, size, color *string) (*model.ProductVariant, error) {
	query := `SELECT * FROM product_variants WHERE product_id = $1`
	args := []interface{}{productID}

	if size != nil && *size != "" {
		args = append(args, *size)
		query += fmt.Sprintf(" AND size = $%d", len(args))
	} else {
		query += " AND size IS NULL"
	}
	if color != nil && *color != "" {
		args = append(args, *color)
		query += fmt.Sprintf(" AND color = $%d", len(args))
	} else {
		query += " AND color IS NULL"
	}
	query += " LIMIT 1"

	var variant model.ProductVariant
	err := r.DB.GetContext(ctx, &variant, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

func (r *PGRepository) UpdateVariant(ctx context.Context, v *model.ProductVariant) error {
	query := `
        UPDATE product_variants
        SET sku = :sku,
            size = :size,
            color = :color,
            unit_price = :unit_price,
            min_stock_level = :min_stock_level,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, v)
	return err
}

func (r *PGRepository) IsSKUUnique(ctx context.Context, productID, sku, excludeID string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM product_variants WHERE product_id = $1 AND sku = $2`
	args := []interface{}{productID, sku}
	if excludeID != "" {
		query += ` AND id != $3`
		args = append(args, excludeID)
	}

	err := r.DB.GetContext(ctx, &count, query, args...)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
