package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/apperr"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/logger"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/sales/dto"
)

// MessageReader is the consumer surface the listener needs. Satisfied by
// broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// OrderListener consumes OrderCreated events published by the external
// order-entry frontend and runs them through the sales workflow.
type OrderListener struct {
	consumer  MessageReader
	salesUC   sales.UseCase
	catalogUC catalog.UseCase
	logger    logger.ZapLogger
}

func NewOrderListener(consumer MessageReader, salesUC sales.UseCase, catalogUC catalog.UseCase, log logger.ZapLogger) *OrderListener {
	return &OrderListener{
		consumer:  consumer,
		salesUC:   salesUC,
		catalogUC: catalogUC,
		logger:    log,
	}
}

func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("Starting order events listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping order events listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.ProcessMessage(ctx, msg.Value)
		}
	}
}

type OrderCreatedEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ExternalRef  string             `json:"external_ref"`
	CustomerName string             `json:"customer_name"`
	Items        []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductCode string           `json:"product_code"`
	Size        *string          `json:"size"`
	Color       *string          `json:"color"`
	Quantity    int64            `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

// ProcessMessage handles one raw event. Exported so it can be exercised
// without a live broker.
func (l *OrderListener) ProcessMessage(ctx context.Context, value []byte) {
	var event OrderCreatedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal order event", zap.Error(err))
		return
	}

	if event.EventType != "OrderCreated" {
		return
	}

	l.logger.Info("Processing OrderCreated event", zap.String("external_ref", event.Payload.ExternalRef))

	so, err := l.salesUC.OpenOrder(ctx, &dto.OpenOrderInput{CustomerName: event.Payload.CustomerName})
	if err != nil {
		l.logger.Error("Failed to open sales order", zap.Error(err))
		return
	}

	for _, item := range event.Payload.Items {
		variant, err := l.catalogUC.ResolveVariant(ctx, item.ProductCode, item.Size, item.Color)
		if err != nil {
			l.logger.Error("Failed to resolve variant for order item",
				zap.String("external_ref", event.Payload.ExternalRef),
				zap.String("product_code", item.ProductCode),
				zap.Error(err),
			)
			l.discard(ctx, so.ID)
			return
		}
		if _, err := l.salesUC.AddLineItem(ctx, &dto.AddLineItemInput{
			OrderID:   so.ID,
			VariantID: variant.ID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}); err != nil {
			l.logger.Error("Failed to add order line",
				zap.String("external_ref", event.Payload.ExternalRef),
				zap.Error(err),
			)
			l.discard(ctx, so.ID)
			return
		}
	}

	if _, err := l.salesUC.Confirm(ctx, so.ID); err != nil {
		if apperr.IsInsufficientStock(err) {
			// Expected outcome, not a fault. The order stays open for
			// manual follow-up once stock arrives.
			l.logger.Warn("Order confirmation rejected: insufficient stock",
				zap.String("external_ref", event.Payload.ExternalRef),
				zap.String("sales_order_id", so.ID),
				zap.Error(err),
			)
			return
		}
		l.logger.Error("Failed to confirm sales order",
			zap.String("external_ref", event.Payload.ExternalRef),
			zap.Error(err),
		)
	}
}

func (l *OrderListener) discard(ctx context.Context, orderID string) {
	if err := l.salesUC.Discard(ctx, orderID); err != nil {
		l.logger.Error("Failed to discard incomplete order", zap.String("sales_order_id", orderID), zap.Error(err))
	}
}
