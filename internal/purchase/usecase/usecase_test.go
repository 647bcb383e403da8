package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/apperr"
	catalogrepo "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog/repository"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger"
	ledgerdto "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger/dto"
	ledgerrepo "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger/repository"
	ledgeruc "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger/usecase"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/lock"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/logger"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/purchase"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/purchase/dto"
	purchaserepo "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/purchase/repository"
)

type fixture struct {
	catalogRepo  *catalogrepo.MemoryRepository
	purchaseRepo *purchaserepo.MemoryRepository
	ledgerUC     ledger.UseCase
	uc           purchase.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalogRepo := catalogrepo.NewMemoryRepository()
	purchaseRepo := purchaserepo.NewMemoryRepository()
	ledgerUC := ledgeruc.NewLedgerUseCase(ledgerrepo.NewMemoryRepository(), catalogRepo, lock.NewKeyMutex(), nil, nil, logger.NewNop())
	return &fixture{
		catalogRepo:  catalogRepo,
		purchaseRepo: purchaseRepo,
		ledgerUC:     ledgerUC,
		uc:           NewPurchaseUseCase(purchaseRepo, catalogRepo, ledgerUC, lock.NewKeyMutex(), logger.NewNop()),
	}
}

func (f *fixture) seedVariant(t *testing.T) *model.ProductVariant {
	t.Helper()
	now := time.Now()
	p := &model.Product{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Code:      "P-" + uuid.New().String()[:8],
		Name:      "Test Product",
		IsActive:  true,
	}
	require.NoError(t, f.catalogRepo.CreateProduct(context.Background(), p))

	v := &model.ProductVariant{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		ProductID: p.ID,
		SKU:       "SKU-" + uuid.New().String()[:8],
		IsActive:  true,
	}
	require.NoError(t, f.catalogRepo.CreateVariant(context.Background(), v))
	return v
}

func (f *fixture) createOrder(t *testing.T, payer string, qtyOrdered int64) *model.PurchaseOrder {
	t.Helper()
	v := f.seedVariant(t)
	po, err := f.uc.CreatePurchaseOrder(context.Background(), &dto.CreatePurchaseOrderInput{
		SupplierName: "Acme Wholesale",
		PayerName:    payer,
		Items: []dto.CreatePurchaseItemInput{
			{VariantID: v.ID, QtyOrdered: qtyOrdered, UnitCost: decimal.NewFromInt(40)},
		},
	})
	require.NoError(t, err)
	return po
}

func TestCreatePurchaseOrder(t *testing.T) {
	f := newFixture(t)
	po := f.createOrder(t, "Somchai", 5)

	assert.Equal(t, model.ReimbursementPending, po.ReimbursementState())
	require.Len(t, po.Items, 1)
	assert.Equal(t, int64(5), po.Items[0].QtyOrdered)
	assert.Equal(t, int64(0), po.Items[0].QtyReceived)

	// An advanced payment opens the transition log in pending.
	records, err := f.uc.ReimbursementHistory(context.Background(), po.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.ReimbursementPending, records[0].State)
}

func TestCreatePurchaseOrderWithoutPayer(t *testing.T) {
	f := newFixture(t)
	po := f.createOrder(t, "", 5)

	assert.Equal(t, model.ReimbursementNone, po.ReimbursementState())

	records, err := f.uc.ReimbursementHistory(context.Background(), po.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCreatePurchaseOrderValidation(t *testing.T) {
	f := newFixture(t)
	v := f.seedVariant(t)

	_, err := f.uc.CreatePurchaseOrder(context.Background(), &dto.CreatePurchaseOrderInput{
		SupplierName: "Acme Wholesale",
		Items:        []dto.CreatePurchaseItemInput{{VariantID: v.ID, QtyOrdered: 0}},
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)

	_, err = f.uc.CreatePurchaseOrder(context.Background(), &dto.CreatePurchaseOrderInput{
		SupplierName: "Acme Wholesale",
		Items:        []dto.CreatePurchaseItemInput{{VariantID: uuid.New().String(), QtyOrdered: 3}},
	})
	assert.ErrorIs(t, err, apperr.ErrUnknownVariant)
}

func TestReceiveBatchAccumulates(t *testing.T) {
	f := newFixture(t)
	po := f.createOrder(t, "", 5)
	item := po.Items[0]

	for _, qty := range []int64{3, 2} {
		_, err := f.uc.ReceiveBatch(context.Background(), &dto.ReceiveBatchInput{
			PurchaseOrderID: po.ID,
			ItemID:          item.ID,
			Quantity:        qty,
		})
		require.NoError(t, err)
	}

	stored, err := f.purchaseRepo.FindItemByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stored.QtyReceived)

	// Each batch is its own receipt event.
	events, _, err := f.ledgerUC.ListEvents(context.Background(), &ledgerdto.EventFilters{VariantID: item.VariantID})
	require.NoError(t, err)
	assert.Len(t, events, 2)

	onHand, err := f.ledgerUC.OnHand(context.Background(), item.VariantID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), onHand)
}

func TestReceiveBatchOverReceipt(t *testing.T) {
	f := newFixture(t)
	po := f.createOrder(t, "", 5)
	item := po.Items[0]

	_, err := f.uc.ReceiveBatch(context.Background(), &dto.ReceiveBatchInput{
		PurchaseOrderID: po.ID,
		ItemID:          item.ID,
		Quantity:        6,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	// The rejected batch must not reach the ledger.
	onHand, err := f.ledgerUC.OnHand(context.Background(), item.VariantID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), onHand)

	// The supplier shipped extra and the operator accepts it explicitly.
	_, err = f.uc.ReceiveBatch(context.Background(), &dto.ReceiveBatchInput{
		PurchaseOrderID:  po.ID,
		ItemID:           item.ID,
		Quantity:         6,
		AllowOverReceipt: true,
	})
	require.NoError(t, err)

	stored, err := f.purchaseRepo.FindItemByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), stored.QtyReceived)
}

func TestConcurrentReceiveBatchKeepsOrderedCap(t *testing.T) {
	f := newFixture(t)
	po := f.createOrder(t, "", 5)
	item := po.Items[0]

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.ReceiveBatch(context.Background(), &dto.ReceiveBatchInput{
				PurchaseOrderID: po.ID,
				ItemID:          item.ID,
				Quantity:        3,
			})
		}(i)
	}
	wg.Wait()

	// The second batch sees the first one's counter and is rejected as an
	// over-receipt; neither delivery is silently dropped.
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
		}
	}
	assert.Equal(t, 1, succeeded)

	stored, err := f.purchaseRepo.FindItemByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.QtyReceived)

	onHand, err := f.ledgerUC.OnHand(context.Background(), item.VariantID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), onHand)
}

func TestReceiveBatchUnknownItem(t *testing.T) {
	f := newFixture(t)
	po := f.createOrder(t, "", 5)
	other := f.createOrder(t, "", 5)

	// An item id from a different order is rejected.
	_, err := f.uc.ReceiveBatch(context.Background(), &dto.ReceiveBatchInput{
		PurchaseOrderID: po.ID,
		ItemID:          other.Items[0].ID,
		Quantity:        1,
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMarkReimbursed(t *testing.T) {
	f := newFixture(t)
	po := f.createOrder(t, "Somchai", 5)

	date := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	record, err := f.uc.MarkReimbursed(context.Background(), po.ID, date)
	require.NoError(t, err)
	assert.Equal(t, model.ReimbursementReimbursed, record.State)
	assert.Equal(t, "Somchai", record.PayerName)

	stored, err := f.uc.GetPurchaseOrder(context.Background(), po.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsReimbursed)
	assert.Equal(t, model.ReimbursementReimbursed, stored.ReimbursementState())

	records, err := f.uc.ReimbursementHistory(context.Background(), po.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, model.ReimbursementPending, records[0].State)
	assert.Equal(t, model.ReimbursementReimbursed, records[1].State)
}

func TestMarkReimbursedWithoutPayer(t *testing.T) {
	f := newFixture(t)
	po := f.createOrder(t, "", 5)

	_, err := f.uc.MarkReimbursed(context.Background(), po.ID, time.Now())
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestMarkReimbursedSameDayIsIdempotent(t *testing.T) {
	f := newFixture(t)
	po := f.createOrder(t, "Somchai", 5)

	date := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	_, err := f.uc.MarkReimbursed(context.Background(), po.ID, date)
	require.NoError(t, err)

	// Same calendar day, different clock time: no-op success.
	record, err := f.uc.MarkReimbursed(context.Background(), po.ID, date.Add(6*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, model.ReimbursementReimbursed, record.State)

	// No extra transition was appended.
	records, err := f.uc.ReimbursementHistory(context.Background(), po.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestMarkReimbursedSameDayWithoutTransitionLog(t *testing.T) {
	f := newFixture(t)
	v := f.seedVariant(t)

	// An order already settled in the store but with no transition rows,
	// e.g. data imported before the log existed.
	now := time.Now()
	payer := "Somchai"
	date := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	po := &model.PurchaseOrder{
		BaseModel:      model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		SupplierName:   "Acme Wholesale",
		PayerName:      &payer,
		OrderDate:      now,
		IsReimbursed:   true,
		ReimbursedDate: &date,
	}
	po.Items = []model.PurchaseItem{{
		BaseModel:       model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		PurchaseOrderID: po.ID,
		VariantID:       v.ID,
		QtyOrdered:      5,
		UnitCost:        decimal.NewFromInt(40),
	}}
	require.NoError(t, f.purchaseRepo.CreateOrder(context.Background(), po))

	record, err := f.uc.MarkReimbursed(context.Background(), po.ID, date)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, model.ReimbursementReimbursed, record.State)
	assert.Equal(t, "Somchai", record.PayerName)
	require.NotNil(t, record.ReimbursedDate)
	assert.True(t, record.ReimbursedDate.Equal(date))
}

func TestMarkReimbursedDifferentDateRejected(t *testing.T) {
	f := newFixture(t)
	po := f.createOrder(t, "Somchai", 5)

	date := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	_, err := f.uc.MarkReimbursed(context.Background(), po.ID, date)
	require.NoError(t, err)

	_, err = f.uc.MarkReimbursed(context.Background(), po.ID, date.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestListPurchaseOrdersPendingOnly(t *testing.T) {
	f := newFixture(t)
	pending := f.createOrder(t, "Somchai", 5)
	f.createOrder(t, "", 5)
	settled := f.createOrder(t, "Malee", 5)
	_, err := f.uc.MarkReimbursed(context.Background(), settled.ID, time.Now())
	require.NoError(t, err)

	orders, count, err := f.uc.ListPurchaseOrders(context.Background(), &dto.PurchaseOrderFilters{PendingOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, orders, 1)
	assert.Equal(t, pending.ID, orders[0].ID)
}
