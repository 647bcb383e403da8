package listener

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog"
	catalogdto "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog/dto"
	catalogrepo "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog/repository"
	catalogusecase "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog/usecase"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger"
	ledgerdto "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger/dto"
	ledgerrepo "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger/repository"
	ledgerusecase "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger/usecase"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/lock"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/logger"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales"
	salesdto "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales/dto"
	salesrepo "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales/repository"
	salesusecase "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales/usecase"
)

type fixture struct {
	catalogUC catalog.UseCase
	ledgerUC  ledger.UseCase
	salesUC   sales.UseCase
	listener  *OrderListener
}

func newFixture() *fixture {
	log := logger.NewNop()
	catalogRepo := catalogrepo.NewMemoryRepository()
	catalogUC := catalogusecase.NewCatalogUseCase(catalogRepo, log)
	ledgerUC := ledgerusecase.NewLedgerUseCase(ledgerrepo.NewMemoryRepository(), catalogRepo, lock.NewKeyMutex(), nil, nil, log)
	salesUC := salesusecase.NewSalesUseCase(salesrepo.NewMemoryRepository(), catalogRepo, ledgerUC, lock.NewKeyMutex(), log)
	return &fixture{
		catalogUC: catalogUC,
		ledgerUC:  ledgerUC,
		salesUC:   salesUC,
		listener:  NewOrderListener(nil, salesUC, catalogUC, log),
	}
}

func (f *fixture) seedStock(t *testing.T, size, color string, qty int64) *model.ProductVariant {
	t.Helper()
	p, err := f.catalogUC.CreateProduct(context.Background(), &catalogdto.CreateProductInput{
		Code: "TS-001",
		Name: "Basic T-Shirt",
		Variants: []catalogdto.CreateVariantInput{
			{SKU: "TS-001-" + size + "-" + color, Size: size, Color: color},
		},
	})
	require.NoError(t, err)
	v := &p.Variants[0]

	if qty > 0 {
		_, err = f.ledgerUC.RecordReceipt(context.Background(), &ledgerdto.RecordReceiptInput{
			VariantID: v.ID,
			Quantity:  qty,
		})
		require.NoError(t, err)
	}
	return v
}

func orderEvent(t *testing.T, items []OrderItemPayload) []byte {
	t.Helper()
	raw, err := json.Marshal(OrderCreatedEvent{
		EventID:   "evt-1",
		EventType: "OrderCreated",
		Payload: OrderPayload{
			ExternalRef:  "pos-42",
			CustomerName: "Walk-in",
			Items:        items,
		},
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
	return raw
}

func TestProcessMessageConfirmsOrder(t *testing.T) {
	f := newFixture()
	v := f.seedStock(t, "S", "red", 10)

	size, color := "S", "red"
	f.listener.ProcessMessage(context.Background(), orderEvent(t, []OrderItemPayload{
		{ProductCode: "TS-001", Size: &size, Color: &color, Quantity: 4},
	}))

	onHand, err := f.ledgerUC.OnHand(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), onHand)

	orders, _, err := f.salesUC.ListOrders(context.Background(), &salesdto.SalesOrderFilters{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, model.SalesOrderConfirmed, orders[0].Status)
}

func TestProcessMessageInsufficientStockLeavesOrderOpen(t *testing.T) {
	f := newFixture()
	v := f.seedStock(t, "S", "red", 2)

	size, color := "S", "red"
	f.listener.ProcessMessage(context.Background(), orderEvent(t, []OrderItemPayload{
		{ProductCode: "TS-001", Size: &size, Color: &color, Quantity: 5},
	}))

	// Nothing consumed; the order waits for stock.
	onHand, err := f.ledgerUC.OnHand(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), onHand)

	orders, _, err := f.salesUC.ListOrders(context.Background(), &salesdto.SalesOrderFilters{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, model.SalesOrderOpen, orders[0].Status)
}

func TestProcessMessageUnknownVariantDiscardsOrder(t *testing.T) {
	f := newFixture()
	f.seedStock(t, "S", "red", 10)

	size, color := "XL", "green"
	f.listener.ProcessMessage(context.Background(), orderEvent(t, []OrderItemPayload{
		{ProductCode: "TS-001", Size: &size, Color: &color, Quantity: 1},
	}))

	orders, _, err := f.salesUC.ListOrders(context.Background(), &salesdto.SalesOrderFilters{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestProcessMessageIgnoresOtherEventTypes(t *testing.T) {
	f := newFixture()
	f.seedStock(t, "S", "red", 10)

	raw, err := json.Marshal(OrderCreatedEvent{EventID: "evt-2", EventType: "OrderShipped"})
	require.NoError(t, err)
	f.listener.ProcessMessage(context.Background(), raw)

	orders, _, err := f.salesUC.ListOrders(context.Background(), &salesdto.SalesOrderFilters{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestProcessMessageMalformedPayload(t *testing.T) {
	f := newFixture()
	f.listener.ProcessMessage(context.Background(), []byte("not json"))

	orders, _, err := f.salesUC.ListOrders(context.Background(), &salesdto.SalesOrderFilters{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}
