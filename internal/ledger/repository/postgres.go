package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger/dto"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const insertEventQuery = `
    INSERT INTO stock_events (
        id, variant_id, kind, quantity, reason, ref_type, ref_id, occurred_at
    )
    VALUES (
        :id, :variant_id, :kind, :quantity, :reason, :ref_type, :ref_id, :occurred_at
    )
`

func (r *PGRepository) AppendEvent(ctx context.Context, e *model.StockEvent) error {
	_, err := r.DB.NamedExecContext(ctx, insertEventQuery, e)
	return err
}

func (r *PGRepository) AppendEvents(ctx context.Context, events []*model.StockEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		if _, err := tx.NamedExecContext(ctx, insertEventQuery, e); err != nil {
			return fmt.Errorf("failed to append stock event: %w", err)
		}
	}
	return tx.Commit()
}

func (r *PGRepository) SumByVariant(ctx context.Context, variantID string) (int64, error) {
	var sum int64
	query := `SELECT COALESCE(SUM(quantity), 0) FROM stock_events WHERE variant_id = $1`
	err := r.DB.GetContext(ctx, &sum, query, variantID)
	return sum, err
}

func (r *PGRepository) SumByVariantAsOf(ctx context.Context, variantID string, at time.Time) (int64, error) {
	var sum int64
	query := `SELECT COALESCE(SUM(quantity), 0) FROM stock_events WHERE variant_id = $1 AND occurred_at <= $2`
	err := r.DB.GetContext(ctx, &sum, query, variantID, at)
	return sum, err
}

func (r *PGRepository) SumAllVariants(ctx context.Context) (map[string]int64, error) {
	rows, err := r.DB.QueryxContext(ctx, `SELECT variant_id, COALESCE(SUM(quantity), 0) FROM stock_events GROUP BY variant_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := map[string]int64{}
	for rows.Next() {
		var variantID string
		var sum int64
		if err := rows.Scan(&variantID, &sum); err != nil {
			return nil, err
		}
		sums[variantID] = sum
	}
	return sums, rows.Err()
}

func (r *PGRepository) ListEvents(ctx context.Context, f *dto.EventFilters) ([]model.StockEvent, int, error) {
	var events []model.StockEvent
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.VariantID != "" {
		conditions = append(conditions, "variant_id = :variant_id")
		args["variant_id"] = f.VariantID
	}
	if f.Kind != "" {
		conditions = append(conditions, "kind = :kind")
		args["kind"] = f.Kind
	}
	if f.RefType != "" {
		conditions = append(conditions, "ref_type = :ref_type")
		args["ref_type"] = f.RefType
	}
	if f.RefID != "" {
		conditions = append(conditions, "ref_id = :ref_id")
		args["ref_id"] = f.RefID
	}
	if f.StartDate != nil {
		conditions = append(conditions, "occurred_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "occurred_at <= :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM stock_events" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM stock_events" + whereClause + " ORDER BY occurred_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &events, args)
	return events, count, err
}
