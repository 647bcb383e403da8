package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales/dto"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateOrder(ctx context.Context, so *model.SalesOrder) error {
	query := `
        INSERT INTO sales_orders (
            id, customer_name, status, confirmed_at, cancelled_at, created_at, updated_at
        )
        VALUES (
            :id, :customer_name, :status, :confirmed_at, :cancelled_at, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, so)
	return err
}

func (r *PGRepository) FindOrderByID(ctx context.Context, id string) (*model.SalesOrder, error) {
	var so model.SalesOrder
	err := r.DB.GetContext(ctx, &so, `SELECT * FROM sales_orders WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	err = r.DB.SelectContext(ctx, &so.Items,
		`SELECT * FROM sales_order_items WHERE sales_order_id = $1 ORDER BY position ASC`, id)
	if err != nil {
		return nil, err
	}
	return &so, nil
}

func (r *PGRepository) FindAllOrders(ctx context.Context, f *dto.SalesOrderFilters) ([]model.SalesOrder, int, error) {
	var orders []model.SalesOrder
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM sales_orders" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM sales_orders" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &orders, args)
	return orders, count, err
}

func (r *PGRepository) AddItem(ctx context.Context, item *model.SalesOrderItem) error {
	query := `
        INSERT INTO sales_order_items (
            id, sales_order_id, variant_id, quantity, unit_price, position, created_at, updated_at
        )
        VALUES (
            :id, :sales_order_id, :variant_id, :quantity, :unit_price, :position, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, item)
	return err
}

func (r *PGRepository) UpdateOrderStatus(ctx context.Context, so *model.SalesOrder) error {
	query := `
        UPDATE sales_orders
        SET status = :status,
            confirmed_at = :confirmed_at,
            cancelled_at = :cancelled_at,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, so)
	return err
}

func (r *PGRepository) DeleteOrder(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sales_order_items WHERE sales_order_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sales_orders WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}
