package usecase

import (
	"context"
	"errors"
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
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales/dto"
	salesrepo "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales/repository"
)

type fixture struct {
	catalogRepo *catalogrepo.MemoryRepository
	ledgerUC    ledger.UseCase
	uc          sales.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalogRepo := catalogrepo.NewMemoryRepository()
	ledgerUC := ledgeruc.NewLedgerUseCase(ledgerrepo.NewMemoryRepository(), catalogRepo, lock.NewKeyMutex(), nil, nil, logger.NewNop())
	return &fixture{
		catalogRepo: catalogRepo,
		ledgerUC:    ledgerUC,
		uc:          NewSalesUseCase(salesrepo.NewMemoryRepository(), catalogRepo, ledgerUC, lock.NewKeyMutex(), logger.NewNop()),
	}
}

func (f *fixture) seedVariant(t *testing.T, price int64, stock int64) *model.ProductVariant {
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
		UnitPrice: decimal.NewFromInt(price),
		IsActive:  true,
	}
	require.NoError(t, f.catalogRepo.CreateVariant(context.Background(), v))

	if stock > 0 {
		_, err := f.ledgerUC.RecordReceipt(context.Background(), &ledgerdto.RecordReceiptInput{
			VariantID: v.ID,
			Quantity:  stock,
		})
		require.NoError(t, err)
	}
	return v
}

func (f *fixture) openWithLine(t *testing.T, v *model.ProductVariant, qty int64) *model.SalesOrder {
	t.Helper()
	so, err := f.uc.OpenOrder(context.Background(), &dto.OpenOrderInput{CustomerName: "Walk-in"})
	require.NoError(t, err)
	_, err = f.uc.AddLineItem(context.Background(), &dto.AddLineItemInput{
		OrderID:   so.ID,
		VariantID: v.ID,
		Quantity:  qty,
	})
	require.NoError(t, err)
	return so
}

func TestAddLineItemSnapshotsPrice(t *testing.T) {
	f := newFixture(t)
	v := f.seedVariant(t, 150, 10)
	so, err := f.uc.OpenOrder(context.Background(), &dto.OpenOrderInput{})
	require.NoError(t, err)

	item, err := f.uc.AddLineItem(context.Background(), &dto.AddLineItemInput{
		OrderID:   so.ID,
		VariantID: v.ID,
		Quantity:  2,
	})
	require.NoError(t, err)
	assert.True(t, item.UnitPrice.Equal(decimal.NewFromInt(150)))

	// Explicit price override, e.g. a negotiated discount.
	discounted := decimal.NewFromInt(120)
	item, err = f.uc.AddLineItem(context.Background(), &dto.AddLineItemInput{
		OrderID:   so.ID,
		VariantID: v.ID,
		Quantity:  1,
		UnitPrice: &discounted,
	})
	require.NoError(t, err)
	assert.True(t, item.UnitPrice.Equal(discounted))
}

func TestAddLineItemValidation(t *testing.T) {
	f := newFixture(t)
	v := f.seedVariant(t, 100, 10)
	so, err := f.uc.OpenOrder(context.Background(), &dto.OpenOrderInput{})
	require.NoError(t, err)

	_, err = f.uc.AddLineItem(context.Background(), &dto.AddLineItemInput{
		OrderID: so.ID, VariantID: v.ID, Quantity: 0,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)

	_, err = f.uc.AddLineItem(context.Background(), &dto.AddLineItemInput{
		OrderID: so.ID, VariantID: uuid.New().String(), Quantity: 1,
	})
	assert.ErrorIs(t, err, apperr.ErrUnknownVariant)

	_, err = f.uc.AddLineItem(context.Background(), &dto.AddLineItemInput{
		OrderID: uuid.New().String(), VariantID: v.ID, Quantity: 1,
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConfirmConsumesStock(t *testing.T) {
	f := newFixture(t)
	v := f.seedVariant(t, 100, 10)
	so := f.openWithLine(t, v, 4)

	confirmed, err := f.uc.Confirm(context.Background(), so.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SalesOrderConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.ConfirmedAt)

	onHand, err := f.ledgerUC.OnHand(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), onHand)

	events, _, err := f.ledgerUC.ListEvents(context.Background(), &ledgerdto.EventFilters{
		VariantID: v.ID,
		Kind:      string(model.StockEventConsumption),
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(-4), events[0].Quantity)
	require.NotNil(t, events[0].RefID)
	assert.Equal(t, so.ID, *events[0].RefID)
}

func TestConfirmInsufficientStockLeavesOrderOpen(t *testing.T) {
	f := newFixture(t)
	a := f.seedVariant(t, 100, 10)
	b := f.seedVariant(t, 100, 1)

	so := f.openWithLine(t, a, 4)
	_, err := f.uc.AddLineItem(context.Background(), &dto.AddLineItemInput{
		OrderID: so.ID, VariantID: b.ID, Quantity: 2,
	})
	require.NoError(t, err)

	_, err = f.uc.Confirm(context.Background(), so.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsInsufficientStock(err))

	// Nothing consumed, order still open and retryable.
	onHandA, _ := f.ledgerUC.OnHand(context.Background(), a.ID)
	onHandB, _ := f.ledgerUC.OnHand(context.Background(), b.ID)
	assert.Equal(t, int64(10), onHandA)
	assert.Equal(t, int64(1), onHandB)

	stored, err := f.uc.GetOrder(context.Background(), so.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SalesOrderOpen, stored.Status)

	// Stock arrives; the same order confirms.
	_, err = f.ledgerUC.RecordReceipt(context.Background(), &ledgerdto.RecordReceiptInput{
		VariantID: b.ID, Quantity: 5,
	})
	require.NoError(t, err)
	_, err = f.uc.Confirm(context.Background(), so.ID)
	require.NoError(t, err)
}

func TestConfirmStateMachine(t *testing.T) {
	f := newFixture(t)
	v := f.seedVariant(t, 100, 10)
	so := f.openWithLine(t, v, 2)

	_, err := f.uc.Confirm(context.Background(), so.ID)
	require.NoError(t, err)

	// A confirmed order cannot be confirmed again or receive lines.
	_, err = f.uc.Confirm(context.Background(), so.ID)
	assert.ErrorIs(t, err, apperr.ErrOrderNotOpen)
	_, err = f.uc.AddLineItem(context.Background(), &dto.AddLineItemInput{
		OrderID: so.ID, VariantID: v.ID, Quantity: 1,
	})
	assert.ErrorIs(t, err, apperr.ErrOrderNotOpen)
}

func TestConcurrentConfirmConsumesOnce(t *testing.T) {
	f := newFixture(t)
	v := f.seedVariant(t, 100, 10)
	so := f.openWithLine(t, v, 4)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Confirm(context.Background(), so.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, apperr.ErrOrderNotOpen)
		}
	}
	assert.Equal(t, 1, succeeded)

	onHand, err := f.ledgerUC.OnHand(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), onHand)

	events, _, err := f.ledgerUC.ListEvents(context.Background(), &ledgerdto.EventFilters{
		VariantID: v.ID,
		Kind:      string(model.StockEventConsumption),
	})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestConcurrentCancelRestoresOnce(t *testing.T) {
	f := newFixture(t)
	v := f.seedVariant(t, 100, 10)
	so := f.openWithLine(t, v, 4)

	_, err := f.uc.Confirm(context.Background(), so.ID)
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Cancel(context.Background(), so.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, apperr.ErrOrderNotConfirmed)
		}
	}
	assert.Equal(t, 1, succeeded)

	onHand, err := f.ledgerUC.OnHand(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), onHand)
}

// failingStatusRepo drops the next UpdateOrderStatus calls on the floor, as a
// flaky store would.
type failingStatusRepo struct {
	sales.Repository
	failures int
}

func (r *failingStatusRepo) UpdateOrderStatus(ctx context.Context, so *model.SalesOrder) error {
	if r.failures > 0 {
		r.failures--
		return errors.New("connection reset")
	}
	return r.Repository.UpdateOrderStatus(ctx, so)
}

func TestConfirmStatusWriteFailureRestoresStock(t *testing.T) {
	catalogRepo := catalogrepo.NewMemoryRepository()
	ledgerUC := ledgeruc.NewLedgerUseCase(ledgerrepo.NewMemoryRepository(), catalogRepo, lock.NewKeyMutex(), nil, nil, logger.NewNop())
	repo := &failingStatusRepo{Repository: salesrepo.NewMemoryRepository(), failures: 1}
	f := &fixture{
		catalogRepo: catalogRepo,
		ledgerUC:    ledgerUC,
		uc:          NewSalesUseCase(repo, catalogRepo, ledgerUC, lock.NewKeyMutex(), logger.NewNop()),
	}
	v := f.seedVariant(t, 100, 10)
	so := f.openWithLine(t, v, 4)

	_, err := f.uc.Confirm(context.Background(), so.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsStoreUnavailable(err))

	// The consumption was compensated, the order is still open.
	onHand, err := f.ledgerUC.OnHand(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), onHand)

	stored, err := f.uc.GetOrder(context.Background(), so.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SalesOrderOpen, stored.Status)

	// A retry consumes the lines exactly once.
	_, err = f.uc.Confirm(context.Background(), so.ID)
	require.NoError(t, err)
	onHand, err = f.ledgerUC.OnHand(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), onHand)
}

func TestConfirmEmptyOrder(t *testing.T) {
	f := newFixture(t)
	so, err := f.uc.OpenOrder(context.Background(), &dto.OpenOrderInput{})
	require.NoError(t, err)

	_, err = f.uc.Confirm(context.Background(), so.ID)
	assert.Error(t, err)
}

func TestCancelRestoresStockWithAdjustments(t *testing.T) {
	f := newFixture(t)
	v := f.seedVariant(t, 100, 10)
	so := f.openWithLine(t, v, 4)

	_, err := f.uc.Confirm(context.Background(), so.ID)
	require.NoError(t, err)

	cancelled, err := f.uc.Cancel(context.Background(), so.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SalesOrderCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	onHand, err := f.ledgerUC.OnHand(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), onHand)

	// The reversal is a compensating adjustment; the original consumption
	// stays in the ledger.
	events, _, err := f.ledgerUC.ListEvents(context.Background(), &ledgerdto.EventFilters{VariantID: v.ID})
	require.NoError(t, err)
	kinds := map[model.StockEventKind]int{}
	for _, e := range events {
		kinds[e.Kind]++
	}
	assert.Equal(t, 1, kinds[model.StockEventConsumption])
	assert.Equal(t, 1, kinds[model.StockEventAdjustment])
}

func TestCancelRequiresConfirmedOrder(t *testing.T) {
	f := newFixture(t)
	v := f.seedVariant(t, 100, 10)
	so := f.openWithLine(t, v, 2)

	_, err := f.uc.Cancel(context.Background(), so.ID)
	assert.ErrorIs(t, err, apperr.ErrOrderNotConfirmed)
}

func TestDiscard(t *testing.T) {
	f := newFixture(t)
	v := f.seedVariant(t, 100, 10)
	so := f.openWithLine(t, v, 2)

	require.NoError(t, f.uc.Discard(context.Background(), so.ID))
	_, err := f.uc.GetOrder(context.Background(), so.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// Discarding never touched the ledger.
	onHand, _ := f.ledgerUC.OnHand(context.Background(), v.ID)
	assert.Equal(t, int64(10), onHand)
}

func TestDiscardConfirmedOrderRejected(t *testing.T) {
	f := newFixture(t)
	v := f.seedVariant(t, 100, 10)
	so := f.openWithLine(t, v, 2)

	_, err := f.uc.Confirm(context.Background(), so.ID)
	require.NoError(t, err)

	err = f.uc.Discard(context.Background(), so.ID)
	assert.ErrorIs(t, err, apperr.ErrOrderNotOpen)
}
