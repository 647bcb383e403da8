package publisher

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/broker"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/logger"
)

// MovementPublisher pushes appended ledger events onto the stock.movements
// topic for downstream reporting and integrations. Messages are keyed by
// variant id so per-variant ordering is preserved within a partition.
type MovementPublisher struct {
	producer *broker.KafkaProducer
	logger   logger.ZapLogger
}

func NewMovementPublisher(producer *broker.KafkaProducer, log logger.ZapLogger) *MovementPublisher {
	return &MovementPublisher{
		producer: producer,
		logger:   log,
	}
}

type stockMovementEvent struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	Payload   model.StockEvent `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
}

func (p *MovementPublisher) PublishMovement(ctx context.Context, e *model.StockEvent) {
	msg := stockMovementEvent{
		EventID:   e.ID,
		EventType: "StockMovementRecorded",
		Payload:   *e,
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		p.logger.Error("failed to marshal stock movement event", zap.Error(err))
		return
	}
	if err := p.producer.Publish(ctx, []byte(e.VariantID), data); err != nil {
		// The ledger write already committed; the feed is best-effort.
		p.logger.Error("failed to publish stock movement event",
			zap.String("event_id", e.ID),
			zap.Error(err),
		)
	}
}
