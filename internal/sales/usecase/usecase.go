package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/apperr"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger"
	ledgerdto "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger/dto"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/lock"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/logger"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales/dto"
)

type salesUseCase struct {
	repo        sales.Repository
	catalogRepo catalog.Repository
	ledgerUC    ledger.UseCase
	locker      lock.Locker
	logger      logger.ZapLogger
}

func NewSalesUseCase(
	repo sales.Repository,
	catalogRepo catalog.Repository,
	ledgerUC ledger.UseCase,
	locker lock.Locker,
	log logger.ZapLogger,
) sales.UseCase {
	return &salesUseCase{
		repo:        repo,
		catalogRepo: catalogRepo,
		ledgerUC:    ledgerUC,
		locker:      locker,
		logger:      log,
	}
}

func orderLockKey(orderID string) string {
	return "lock:salesorder:" + orderID
}

// lockOrder serializes the status check-then-act per order. Without it two
// concurrent Confirm calls could both observe OPEN and consume the lines
// twice.
func (uc *salesUseCase) lockOrder(ctx context.Context, orderID string) (lock.Unlocker, error) {
	unlock, err := uc.locker.Lock(ctx, orderLockKey(orderID))
	if err != nil {
		return nil, apperr.StoreUnavailable("sales.lock", err)
	}
	return unlock, nil
}

func (uc *salesUseCase) OpenOrder(ctx context.Context, input *dto.OpenOrderInput) (*model.SalesOrder, error) {
	now := time.Now()
	var customer *string
	if input != nil && input.CustomerName != "" {
		c := input.CustomerName
		customer = &c
	}

	so := &model.SalesOrder{
		BaseModel:    model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		CustomerName: customer,
		Status:       model.SalesOrderOpen,
	}
	if err := uc.repo.CreateOrder(ctx, so); err != nil {
		return nil, apperr.StoreUnavailable("sales.CreateOrder", err)
	}
	return so, nil
}

func (uc *salesUseCase) AddLineItem(ctx context.Context, input *dto.AddLineItemInput) (*model.SalesOrderItem, error) {
	if input.Quantity <= 0 {
		return nil, apperr.ErrInvalidQuantity
	}

	unlock, err := uc.lockOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	so, err := uc.repo.FindOrderByID(ctx, input.OrderID)
	if err != nil {
		return nil, apperr.StoreUnavailable("sales.FindOrderByID", err)
	}
	if so == nil {
		return nil, apperr.ErrNotFound
	}
	if so.Status != model.SalesOrderOpen {
		return nil, apperr.ErrOrderNotOpen
	}

	v, err := uc.catalogRepo.FindVariantByID(ctx, input.VariantID)
	if err != nil {
		return nil, apperr.StoreUnavailable("catalog.FindVariantByID", err)
	}
	if v == nil {
		return nil, apperr.ErrUnknownVariant
	}
	if !v.IsActive {
		return nil, errors.New("variant is deactivated")
	}

	// Snapshot the price now; later catalog edits never change the line.
	price := v.UnitPrice
	if input.UnitPrice != nil {
		price = *input.UnitPrice
	}

	now := time.Now()
	item := &model.SalesOrderItem{
		BaseModel:    model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		SalesOrderID: so.ID,
		VariantID:    input.VariantID,
		Quantity:     input.Quantity,
		UnitPrice:    price,
		Position:     len(so.Items),
	}
	if err := uc.repo.AddItem(ctx, item); err != nil {
		return nil, apperr.StoreUnavailable("sales.AddItem", err)
	}
	return item, nil
}

func (uc *salesUseCase) Confirm(ctx context.Context, orderID string) (*model.SalesOrder, error) {
	unlock, err := uc.lockOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	so, err := uc.repo.FindOrderByID(ctx, orderID)
	if err != nil {
		return nil, apperr.StoreUnavailable("sales.FindOrderByID", err)
	}
	if so == nil {
		return nil, apperr.ErrNotFound
	}
	if so.Status != model.SalesOrderOpen {
		return nil, apperr.ErrOrderNotOpen
	}
	if len(so.Items) == 0 {
		return nil, errors.New("cannot confirm an empty order")
	}

	lines := make([]ledgerdto.ConsumeLine, 0, len(so.Items))
	for _, item := range so.Items {
		lines = append(lines, ledgerdto.ConsumeLine{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}

	if _, err := uc.ledgerUC.ConsumeBatch(ctx, &ledgerdto.ConsumeBatchInput{
		Lines:   lines,
		RefType: model.StockRefSalesOrder,
		RefID:   so.ID,
		Reason:  "sales order confirmed",
	}); err != nil {
		return nil, err
	}

	now := time.Now()
	so.Status = model.SalesOrderConfirmed
	so.ConfirmedAt = &now
	so.UpdatedAt = now
	if err := uc.repo.UpdateOrderStatus(ctx, so); err != nil {
		// The consumption is already in the ledger but the order stays
		// OPEN; put the stock back so a retry does not consume twice.
		uc.reverseConsumption(ctx, so)
		return nil, apperr.StoreUnavailable("sales.UpdateOrderStatus", err)
	}

	uc.logger.Info("sales order confirmed",
		zap.String("sales_order_id", so.ID),
		zap.Int("lines", len(so.Items)),
	)
	return so, nil
}

// reverseConsumption compensates a committed consumption whose order never
// made it to CONFIRMED. Adjustment failures are logged, not returned: the
// caller already has the original error and the ledger keeps the trail.
func (uc *salesUseCase) reverseConsumption(ctx context.Context, so *model.SalesOrder) {
	for _, item := range so.Items {
		if _, err := uc.ledgerUC.RecordAdjustment(ctx, &ledgerdto.RecordAdjustmentInput{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Reason:    "sales order confirmation rolled back",
			RefType:   model.StockRefSalesOrder,
			RefID:     so.ID,
		}); err != nil {
			uc.logger.Error("failed to reverse consumption",
				zap.String("sales_order_id", so.ID),
				zap.String("variant_id", item.VariantID),
				zap.Error(err),
			)
		}
	}
}

func (uc *salesUseCase) Cancel(ctx context.Context, orderID string) (*model.SalesOrder, error) {
	unlock, err := uc.lockOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	so, err := uc.repo.FindOrderByID(ctx, orderID)
	if err != nil {
		return nil, apperr.StoreUnavailable("sales.FindOrderByID", err)
	}
	if so == nil {
		return nil, apperr.ErrNotFound
	}
	if so.Status != model.SalesOrderConfirmed {
		return nil, apperr.ErrOrderNotConfirmed
	}

	for _, item := range so.Items {
		if _, err := uc.ledgerUC.RecordAdjustment(ctx, &ledgerdto.RecordAdjustmentInput{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Reason:    "sales order cancelled",
			RefType:   model.StockRefSalesOrder,
			RefID:     so.ID,
		}); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	so.Status = model.SalesOrderCancelled
	so.CancelledAt = &now
	so.UpdatedAt = now
	if err := uc.repo.UpdateOrderStatus(ctx, so); err != nil {
		// The order stays CONFIRMED; take the restock back so a retried
		// Cancel does not add the lines twice.
		for _, item := range so.Items {
			if _, aerr := uc.ledgerUC.RecordAdjustment(ctx, &ledgerdto.RecordAdjustmentInput{
				VariantID: item.VariantID,
				Quantity:  -item.Quantity,
				Reason:    "sales order cancellation rolled back",
				RefType:   model.StockRefSalesOrder,
				RefID:     so.ID,
			}); aerr != nil {
				uc.logger.Error("failed to reverse cancellation restock",
					zap.String("sales_order_id", so.ID),
					zap.String("variant_id", item.VariantID),
					zap.Error(aerr),
				)
			}
		}
		return nil, apperr.StoreUnavailable("sales.UpdateOrderStatus", err)
	}

	uc.logger.Info("sales order cancelled",
		zap.String("sales_order_id", so.ID),
		zap.Int("lines", len(so.Items)),
	)
	return so, nil
}

func (uc *salesUseCase) Discard(ctx context.Context, orderID string) error {
	unlock, err := uc.lockOrder(ctx, orderID)
	if err != nil {
		return err
	}
	defer unlock()

	so, err := uc.repo.FindOrderByID(ctx, orderID)
	if err != nil {
		return apperr.StoreUnavailable("sales.FindOrderByID", err)
	}
	if so == nil {
		return apperr.ErrNotFound
	}
	if so.Status != model.SalesOrderOpen {
		return apperr.ErrOrderNotOpen
	}
	if err := uc.repo.DeleteOrder(ctx, orderID); err != nil {
		return apperr.StoreUnavailable("sales.DeleteOrder", err)
	}
	return nil
}

func (uc *salesUseCase) GetOrder(ctx context.Context, id string) (*model.SalesOrder, error) {
	so, err := uc.repo.FindOrderByID(ctx, id)
	if err != nil {
		return nil, apperr.StoreUnavailable("sales.FindOrderByID", err)
	}
	if so == nil {
		return nil, apperr.ErrNotFound
	}
	return so, nil
}

func (uc *salesUseCase) ListOrders(ctx context.Context, filters *dto.SalesOrderFilters) ([]model.SalesOrder, int, error) {
	orders, count, err := uc.repo.FindAllOrders(ctx, filters)
	if err != nil {
		return nil, 0, apperr.StoreUnavailable("sales.FindAllOrders", err)
	}
	return orders, count, nil
}
