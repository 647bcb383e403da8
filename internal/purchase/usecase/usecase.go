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
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/purchase"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/purchase/dto"
)

type purchaseUseCase struct {
	repo        purchase.Repository
	catalogRepo catalog.Repository
	ledgerUC    ledger.UseCase
	locker      lock.Locker
	logger      logger.ZapLogger
}

func NewPurchaseUseCase(
	repo purchase.Repository,
	catalogRepo catalog.Repository,
	ledgerUC ledger.UseCase,
	locker lock.Locker,
	log logger.ZapLogger,
) purchase.UseCase {
	return &purchaseUseCase{
		repo:        repo,
		catalogRepo: catalogRepo,
		ledgerUC:    ledgerUC,
		locker:      locker,
		logger:      log,
	}
}

func itemLockKey(itemID string) string {
	return "lock:purchaseitem:" + itemID
}

func poLockKey(purchaseOrderID string) string {
	return "lock:purchaseorder:" + purchaseOrderID
}

func (uc *purchaseUseCase) CreatePurchaseOrder(ctx context.Context, input *dto.CreatePurchaseOrderInput) (*model.PurchaseOrder, error) {
	if len(input.Items) == 0 {
		return nil, errors.New("purchase order requires at least one item")
	}
	for _, item := range input.Items {
		if item.QtyOrdered <= 0 {
			return nil, apperr.ErrInvalidQuantity
		}
		v, err := uc.catalogRepo.FindVariantByID(ctx, item.VariantID)
		if err != nil {
			return nil, apperr.StoreUnavailable("catalog.FindVariantByID", err)
		}
		if v == nil {
			return nil, apperr.ErrUnknownVariant
		}
	}

	now := time.Now()
	orderDate := now
	if input.OrderDate != nil {
		orderDate = *input.OrderDate
	}

	var payer *string
	if input.PayerName != "" {
		p := input.PayerName
		payer = &p
	}

	po := &model.PurchaseOrder{
		BaseModel:    model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		SupplierName: input.SupplierName,
		PayerName:    payer,
		OrderDate:    orderDate,
		IsReimbursed: false,
	}
	for _, item := range input.Items {
		po.Items = append(po.Items, model.PurchaseItem{
			BaseModel:       model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			PurchaseOrderID: po.ID,
			VariantID:       item.VariantID,
			QtyOrdered:      item.QtyOrdered,
			QtyReceived:     0,
			UnitCost:        item.UnitCost,
		})
	}

	if err := uc.repo.CreateOrder(ctx, po); err != nil {
		return nil, apperr.StoreUnavailable("purchase.CreateOrder", err)
	}

	// An advanced payment opens the reimbursement machine in pending.
	if payer != nil {
		record := &model.ReimbursementRecord{
			ID:              uuid.New().String(),
			PurchaseOrderID: po.ID,
			PayerName:       *payer,
			State:           model.ReimbursementPending,
			RecordedAt:      now,
		}
		if err := uc.repo.AppendReimbursementRecord(ctx, record); err != nil {
			return nil, apperr.StoreUnavailable("purchase.AppendReimbursementRecord", err)
		}
	}

	uc.logger.Info("purchase order created",
		zap.String("purchase_order_id", po.ID),
		zap.Int("items", len(po.Items)),
		zap.String("reimbursement", string(po.ReimbursementState())),
	)
	return po, nil
}

func (uc *purchaseUseCase) GetPurchaseOrder(ctx context.Context, id string) (*model.PurchaseOrder, error) {
	po, err := uc.repo.FindOrderByID(ctx, id)
	if err != nil {
		return nil, apperr.StoreUnavailable("purchase.FindOrderByID", err)
	}
	if po == nil {
		return nil, apperr.ErrNotFound
	}
	return po, nil
}

func (uc *purchaseUseCase) ListPurchaseOrders(ctx context.Context, filters *dto.PurchaseOrderFilters) ([]model.PurchaseOrder, int, error) {
	orders, count, err := uc.repo.FindAllOrders(ctx, filters)
	if err != nil {
		return nil, 0, apperr.StoreUnavailable("purchase.FindAllOrders", err)
	}
	return orders, count, nil
}

func (uc *purchaseUseCase) ReceiveBatch(ctx context.Context, input *dto.ReceiveBatchInput) (*model.StockEvent, error) {
	if input.Quantity <= 0 {
		return nil, apperr.ErrInvalidQuantity
	}

	// The received counter is read, incremented, and written back; the
	// per-item lock keeps concurrent batches from both reading the same
	// starting value and silently dropping one delivery.
	unlock, err := uc.locker.Lock(ctx, itemLockKey(input.ItemID))
	if err != nil {
		return nil, apperr.StoreUnavailable("purchase.lock", err)
	}
	defer unlock()

	po, err := uc.repo.FindOrderByID(ctx, input.PurchaseOrderID)
	if err != nil {
		return nil, apperr.StoreUnavailable("purchase.FindOrderByID", err)
	}
	if po == nil {
		return nil, apperr.ErrNotFound
	}

	item, err := uc.repo.FindItemByID(ctx, input.ItemID)
	if err != nil {
		return nil, apperr.StoreUnavailable("purchase.FindItemByID", err)
	}
	if item == nil || item.PurchaseOrderID != po.ID {
		return nil, apperr.ErrNotFound
	}

	newReceived := item.QtyReceived + input.Quantity
	if newReceived > item.QtyOrdered && !input.AllowOverReceipt {
		return nil, apperr.ErrInvalidTransition
	}

	event, err := uc.ledgerUC.RecordReceipt(ctx, &ledgerdto.RecordReceiptInput{
		VariantID: item.VariantID,
		Quantity:  input.Quantity,
		RefType:   model.StockRefPurchaseOrder,
		RefID:     po.ID,
		Reason:    "purchase batch received",
	})
	if err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateItemReceived(ctx, item.ID, newReceived, time.Now()); err != nil {
		// The receipt is already in the ledger; the counter is derived
		// bookkeeping and can be repaired from it.
		uc.logger.Error("receipt recorded but received counter update failed",
			zap.String("purchase_item_id", item.ID),
			zap.Error(err),
		)
		return nil, apperr.StoreUnavailable("purchase.UpdateItemReceived", err)
	}

	uc.logger.Info("purchase batch received",
		zap.String("purchase_order_id", po.ID),
		zap.String("purchase_item_id", item.ID),
		zap.Int64("quantity", input.Quantity),
		zap.Int64("received_total", newReceived),
	)
	return event, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MarkReimbursed moves a purchase order pending -> reimbursed. The move is
// one-way: repeating it with the identical date is a no-op success, any
// other call against a settled order fails.
func (uc *purchaseUseCase) MarkReimbursed(ctx context.Context, purchaseOrderID string, reimbursedDate time.Time) (*model.ReimbursementRecord, error) {
	unlock, err := uc.locker.Lock(ctx, poLockKey(purchaseOrderID))
	if err != nil {
		return nil, apperr.StoreUnavailable("purchase.lock", err)
	}
	defer unlock()

	po, err := uc.repo.FindOrderByID(ctx, purchaseOrderID)
	if err != nil {
		return nil, apperr.StoreUnavailable("purchase.FindOrderByID", err)
	}
	if po == nil {
		return nil, apperr.ErrNotFound
	}

	switch po.ReimbursementState() {
	case model.ReimbursementNone:
		// No payer advanced this order; there is nothing to settle.
		return nil, apperr.ErrInvalidTransition
	case model.ReimbursementReimbursed:
		if po.ReimbursedDate != nil && sameDay(*po.ReimbursedDate, reimbursedDate) {
			records, err := uc.repo.ListReimbursementRecords(ctx, purchaseOrderID)
			if err != nil {
				return nil, apperr.StoreUnavailable("purchase.ListReimbursementRecords", err)
			}
			for i := len(records) - 1; i >= 0; i-- {
				if records[i].State == model.ReimbursementReimbursed {
					return &records[i], nil
				}
			}
			// No stored transition for this order; answer from the
			// order's own columns rather than returning nothing.
			return &model.ReimbursementRecord{
				PurchaseOrderID: po.ID,
				PayerName:       *po.PayerName,
				State:           model.ReimbursementReimbursed,
				ReimbursedDate:  po.ReimbursedDate,
				RecordedAt:      po.UpdatedAt,
			}, nil
		}
		return nil, apperr.ErrInvalidTransition
	}

	now := time.Now()
	date := reimbursedDate
	po.IsReimbursed = true
	po.ReimbursedDate = &date
	po.UpdatedAt = now

	record := &model.ReimbursementRecord{
		ID:              uuid.New().String(),
		PurchaseOrderID: po.ID,
		PayerName:       *po.PayerName,
		State:           model.ReimbursementReimbursed,
		ReimbursedDate:  &date,
		RecordedAt:      now,
	}

	if err := uc.repo.MarkReimbursed(ctx, po, record); err != nil {
		return nil, apperr.StoreUnavailable("purchase.MarkReimbursed", err)
	}

	uc.logger.Info("purchase order reimbursed",
		zap.String("purchase_order_id", po.ID),
		zap.String("payer", record.PayerName),
	)
	return record, nil
}

func (uc *purchaseUseCase) ReimbursementHistory(ctx context.Context, purchaseOrderID string) ([]model.ReimbursementRecord, error) {
	records, err := uc.repo.ListReimbursementRecords(ctx, purchaseOrderID)
	if err != nil {
		return nil, apperr.StoreUnavailable("purchase.ListReimbursementRecords", err)
	}
	return records, nil
}
