package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/purchase/dto"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateOrder(ctx context.Context, po *model.PurchaseOrder) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	orderQuery := `
        INSERT INTO purchase_orders (
            id, supplier_name, payer_name, order_date, is_reimbursed, reimbursed_date, created_at, updated_at
        )
        VALUES (
            :id, :supplier_name, :payer_name, :order_date, :is_reimbursed, :reimbursed_date, :created_at, :updated_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, orderQuery, po); err != nil {
		return fmt.Errorf("failed to insert purchase order: %w", err)
	}

	itemQuery := `
        INSERT INTO purchase_items (
            id, purchase_order_id, variant_id, qty_ordered, qty_received, unit_cost, created_at, updated_at
        )
        VALUES (
            :id, :purchase_order_id, :variant_id, :qty_ordered, :qty_received, :unit_cost, :created_at, :updated_at
        )
    `
	for i := range po.Items {
		if _, err := tx.NamedExecContext(ctx, itemQuery, &po.Items[i]); err != nil {
			return fmt.Errorf("failed to insert purchase item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *PGRepository) FindOrderByID(ctx context.Context, id string) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := r.DB.GetContext(ctx, &po, `SELECT * FROM purchase_orders WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	err = r.DB.SelectContext(ctx, &po.Items,
		`SELECT * FROM purchase_items WHERE purchase_order_id = $1 ORDER BY created_at ASC`, id)
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *PGRepository) FindAllOrders(ctx context.Context, f *dto.PurchaseOrderFilters) ([]model.PurchaseOrder, int, error) {
	var orders []model.PurchaseOrder
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.PayerName != "" {
		conditions = append(conditions, "payer_name = :payer_name")
		args["payer_name"] = f.PayerName
	}
	if f.PendingOnly {
		conditions = append(conditions, "payer_name IS NOT NULL AND is_reimbursed = false")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM purchase_orders" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM purchase_orders" + whereClause + " ORDER BY order_date DESC"
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

func (r *PGRepository) FindItemByID(ctx context.Context, itemID string) (*model.PurchaseItem, error) {
	var item model.PurchaseItem
	err := r.DB.GetContext(ctx, &item, `SELECT * FROM purchase_items WHERE id = $1 LIMIT 1`, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *PGRepository) UpdateItemReceived(ctx context.Context, itemID string, qtyReceived int64, updatedAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE purchase_items SET qty_received = $1, updated_at = $2 WHERE id = $3`,
		qtyReceived, updatedAt, itemID)
	return err
}

const insertRecordQuery = `
    INSERT INTO reimbursement_records (
        id, purchase_order_id, payer_name, state, reimbursed_date, recorded_at
    )
    VALUES (
        :id, :purchase_order_id, :payer_name, :state, :reimbursed_date, :recorded_at
    )
`

func (r *PGRepository) MarkReimbursed(ctx context.Context, po *model.PurchaseOrder, record *model.ReimbursementRecord) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	updateQuery := `
        UPDATE purchase_orders
        SET is_reimbursed = :is_reimbursed,
            reimbursed_date = :reimbursed_date,
            updated_at = :updated_at
        WHERE id = :id
    `
	if _, err := tx.NamedExecContext(ctx, updateQuery, po); err != nil {
		return fmt.Errorf("failed to update purchase order: %w", err)
	}
	if _, err := tx.NamedExecContext(ctx, insertRecordQuery, record); err != nil {
		return fmt.Errorf("failed to append reimbursement record: %w", err)
	}
	return tx.Commit()
}

func (r *PGRepository) AppendReimbursementRecord(ctx context.Context, record *model.ReimbursementRecord) error {
	_, err := r.DB.NamedExecContext(ctx, insertRecordQuery, record)
	return err
}

func (r *PGRepository) ListReimbursementRecords(ctx context.Context, purchaseOrderID string) ([]model.ReimbursementRecord, error) {
	var records []model.ReimbursementRecord
	err := r.DB.SelectContext(ctx, &records,
		`SELECT * FROM reimbursement_records WHERE purchase_order_id = $1 ORDER BY recorded_at ASC`, purchaseOrderID)
	return records, err
}
