package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/apperr"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog"
	catalogdto "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog/dto"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger"
	ledgerdto "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger/dto"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/logger"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/purchase"
	purchasedto "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/purchase/dto"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/report"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/report/dto"
)

type reportUseCase struct {
	catalogRepo  catalog.Repository
	ledgerRepo   ledger.Repository
	purchaseRepo purchase.Repository
	logger       logger.ZapLogger
}

func NewReportUseCase(
	catalogRepo catalog.Repository,
	ledgerRepo ledger.Repository,
	purchaseRepo purchase.Repository,
	log logger.ZapLogger,
) report.UseCase {
	return &reportUseCase{
		catalogRepo:  catalogRepo,
		ledgerRepo:   ledgerRepo,
		purchaseRepo: purchaseRepo,
		logger:       log,
	}
}

func (uc *reportUseCase) LowStockReport(ctx context.Context) ([]dto.LowStockRow, error) {
	active := true
	products, _, err := uc.catalogRepo.FindAllProducts(ctx, &catalogdto.ProductFilters{IsActive: &active})
	if err != nil {
		return nil, apperr.StoreUnavailable("catalog.FindAllProducts", err)
	}

	sums, err := uc.ledgerRepo.SumAllVariants(ctx)
	if err != nil {
		return nil, apperr.StoreUnavailable("ledger.SumAllVariants", err)
	}

	var rows []dto.LowStockRow
	for i := range products {
		p := &products[i]
		variants, err := uc.catalogRepo.FindVariantsByProduct(ctx, p.ID)
		if err != nil {
			return nil, apperr.StoreUnavailable("catalog.FindVariantsByProduct", err)
		}
		for j := range variants {
			v := &variants[j]
			if !v.IsActive {
				continue
			}
			threshold := model.EffectiveThreshold(p, v)
			if threshold <= 0 {
				continue
			}
			onHand := sums[v.ID]
			if onHand >= threshold {
				continue
			}
			rows = append(rows, dto.LowStockRow{
				VariantID:   v.ID,
				SKU:         v.SKU,
				ProductCode: p.Code,
				ProductName: p.Name,
				Size:        v.Size,
				Color:       v.Color,
				OnHand:      onHand,
				Threshold:   threshold,
				ReorderQty:  threshold - onHand,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].SKU < rows[j].SKU })
	return rows, nil
}

func (uc *reportUseCase) pendingOrders(ctx context.Context) ([]model.PurchaseOrder, error) {
	orders, _, err := uc.purchaseRepo.FindAllOrders(ctx, &purchasedto.PurchaseOrderFilters{PendingOnly: true})
	if err != nil {
		return nil, apperr.StoreUnavailable("purchase.FindAllOrders", err)
	}
	return orders, nil
}

func (uc *reportUseCase) PendingReimbursements(ctx context.Context) ([]dto.PendingReimbursementRow, error) {
	orders, err := uc.pendingOrders(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.PendingReimbursementRow, 0, len(orders))
	for _, po := range orders {
		rows = append(rows, dto.PendingReimbursementRow{
			PurchaseOrderID: po.ID,
			SupplierName:    po.SupplierName,
			PayerName:       *po.PayerName,
			OrderDate:       po.OrderDate,
		})
	}
	return rows, nil
}

func (uc *reportUseCase) PendingReimbursementTotals(ctx context.Context) ([]dto.PayerTotal, error) {
	orders, err := uc.pendingOrders(ctx)
	if err != nil {
		return nil, err
	}

	totals := map[string]*dto.PayerTotal{}
	for _, po := range orders {
		full, err := uc.purchaseRepo.FindOrderByID(ctx, po.ID)
		if err != nil {
			return nil, apperr.StoreUnavailable("purchase.FindOrderByID", err)
		}
		if full == nil {
			continue
		}

		amount := decimal.Zero
		for _, item := range full.Items {
			amount = amount.Add(item.UnitCost.Mul(decimal.NewFromInt(item.QtyOrdered)))
		}

		payer := *po.PayerName
		t, ok := totals[payer]
		if !ok {
			t = &dto.PayerTotal{PayerName: payer}
			totals[payer] = t
		}
		t.Orders++
		t.Total = t.Total.Add(amount)
	}

	out := make([]dto.PayerTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PayerName < out[j].PayerName })
	return out, nil
}

func (uc *reportUseCase) StockAsOf(ctx context.Context, variantID string, at time.Time) (int64, error) {
	v, err := uc.catalogRepo.FindVariantByID(ctx, variantID)
	if err != nil {
		return 0, apperr.StoreUnavailable("catalog.FindVariantByID", err)
	}
	if v == nil {
		return 0, apperr.ErrUnknownVariant
	}
	sum, err := uc.ledgerRepo.SumByVariantAsOf(ctx, variantID, at)
	if err != nil {
		return 0, apperr.StoreUnavailable("ledger.SumByVariantAsOf", err)
	}
	return sum, nil
}

func (uc *reportUseCase) VariantMovementHistory(ctx context.Context, filters *dto.MovementHistoryFilters) ([]model.StockEvent, int, error) {
	events, count, err := uc.ledgerRepo.ListEvents(ctx, &ledgerdto.EventFilters{
		VariantID: filters.VariantID,
		StartDate: filters.StartDate,
		EndDate:   filters.EndDate,
		Page:      filters.Page,
		PageSize:  filters.PageSize,
	})
	if err != nil {
		return nil, 0, apperr.StoreUnavailable("ledger.ListEvents", err)
	}
	return events, count, nil
}
