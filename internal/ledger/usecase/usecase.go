package usecase

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/apperr"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger/dto"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/cache"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/lock"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/logger"
)

const onHandCacheTTL = time.Minute

type ledgerUseCase struct {
	repo        ledger.Repository
	catalogRepo catalog.Repository
	locker      lock.Locker
	cache       *cache.RedisClient // optional on-hand cache
	publisher   ledger.Publisher   // optional movement feed
	logger      logger.ZapLogger
}

func NewLedgerUseCase(
	repo ledger.Repository,
	catalogRepo catalog.Repository,
	locker lock.Locker,
	c *cache.RedisClient,
	publisher ledger.Publisher,
	log logger.ZapLogger,
) ledger.UseCase {
	return &ledgerUseCase{
		repo:        repo,
		catalogRepo: catalogRepo,
		locker:      locker,
		cache:       c,
		publisher:   publisher,
		logger:      log,
	}
}

func (uc *ledgerUseCase) variantExists(ctx context.Context, variantID string) error {
	v, err := uc.catalogRepo.FindVariantByID(ctx, variantID)
	if err != nil {
		return apperr.StoreUnavailable("catalog.FindVariantByID", err)
	}
	if v == nil {
		return apperr.ErrUnknownVariant
	}
	return nil
}

func lockKey(variantID string) string {
	return "lock:stock:" + variantID
}

// lockVariants acquires the per-variant locks for all ids in sorted order so
// overlapping multi-line transactions cannot deadlock.
func (uc *ledgerUseCase) lockVariants(ctx context.Context, variantIDs []string) (func(), error) {
	ids := make([]string, 0, len(variantIDs))
	seen := map[string]bool{}
	for _, id := range variantIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var unlockers []lock.Unlocker
	releaseAll := func() {
		for i := len(unlockers) - 1; i >= 0; i-- {
			unlockers[i]()
		}
	}

	for _, id := range ids {
		unlock, err := uc.locker.Lock(ctx, lockKey(id))
		if err != nil {
			releaseAll()
			return nil, apperr.StoreUnavailable("ledger.lock", err)
		}
		unlockers = append(unlockers, unlock)
	}
	return releaseAll, nil
}

func (uc *ledgerUseCase) append(ctx context.Context, e *model.StockEvent) error {
	if err := uc.repo.AppendEvent(ctx, e); err != nil {
		return apperr.StoreUnavailable("ledger.AppendEvent", err)
	}
	uc.afterAppend(ctx, e)
	return nil
}

func (uc *ledgerUseCase) afterAppend(ctx context.Context, e *model.StockEvent) {
	uc.invalidateOnHand(ctx, e.VariantID)
	if uc.publisher != nil {
		uc.publisher.PublishMovement(ctx, e)
	}
}

func newEvent(kind model.StockEventKind, variantID string, qty int64, reason, refType, refID string) *model.StockEvent {
	var rt, ri *string
	if refType != "" {
		rt = &refType
	}
	if refID != "" {
		ri = &refID
	}
	return &model.StockEvent{
		ID:         uuid.New().String(),
		VariantID:  variantID,
		Kind:       kind,
		Quantity:   qty,
		Reason:     reason,
		RefType:    rt,
		RefID:      ri,
		OccurredAt: time.Now(),
	}
}

func (uc *ledgerUseCase) RecordReceipt(ctx context.Context, input *dto.RecordReceiptInput) (*model.StockEvent, error) {
	if input.Quantity <= 0 {
		return nil, apperr.ErrInvalidQuantity
	}
	if err := uc.variantExists(ctx, input.VariantID); err != nil {
		return nil, err
	}

	// Receipts commute with each other but not with a concurrent
	// consumption check on the same variant, so they take the same lock.
	release, err := uc.lockVariants(ctx, []string{input.VariantID})
	if err != nil {
		return nil, err
	}
	defer release()

	e := newEvent(model.StockEventReceipt, input.VariantID, input.Quantity, input.Reason, input.RefType, input.RefID)
	if err := uc.append(ctx, e); err != nil {
		return nil, err
	}

	uc.logger.Info("stock receipt recorded",
		zap.String("variant_id", input.VariantID),
		zap.Int64("quantity", input.Quantity),
	)
	return e, nil
}

func (uc *ledgerUseCase) RecordConsumption(ctx context.Context, input *dto.RecordConsumptionInput) (*model.StockEvent, error) {
	events, err := uc.ConsumeBatch(ctx, &dto.ConsumeBatchInput{
		Lines:   []dto.ConsumeLine{{VariantID: input.VariantID, Quantity: input.Quantity}},
		RefType: input.RefType,
		RefID:   input.RefID,
		Reason:  input.Reason,
	})
	if err != nil {
		return nil, err
	}
	return &events[0], nil
}

// ConsumeBatch is the correctness-critical path. All per-variant locks are
// held across check and write, every availability check passes before any
// event is appended, and the batch is committed in one transaction. A
// failing line leaves every variant's on-hand untouched.
func (uc *ledgerUseCase) ConsumeBatch(ctx context.Context, input *dto.ConsumeBatchInput) ([]model.StockEvent, error) {
	if len(input.Lines) == 0 {
		return nil, apperr.ErrInvalidQuantity
	}

	requested := map[string]int64{}
	variantIDs := make([]string, 0, len(input.Lines))
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, apperr.ErrInvalidQuantity
		}
		if _, ok := requested[line.VariantID]; !ok {
			variantIDs = append(variantIDs, line.VariantID)
		}
		requested[line.VariantID] += line.Quantity
	}

	for _, id := range variantIDs {
		if err := uc.variantExists(ctx, id); err != nil {
			return nil, err
		}
	}

	release, err := uc.lockVariants(ctx, variantIDs)
	if err != nil {
		return nil, err
	}
	defer release()

	for _, id := range variantIDs {
		onHand, err := uc.repo.SumByVariant(ctx, id)
		if err != nil {
			return nil, apperr.StoreUnavailable("ledger.SumByVariant", err)
		}
		if onHand-requested[id] < 0 {
			return nil, &apperr.InsufficientStockError{
				VariantID: id,
				Available: onHand,
				Requested: requested[id],
			}
		}
	}

	events := make([]*model.StockEvent, 0, len(input.Lines))
	for _, line := range input.Lines {
		events = append(events, newEvent(
			model.StockEventConsumption, line.VariantID, -line.Quantity,
			input.Reason, input.RefType, input.RefID,
		))
	}
	if err := uc.repo.AppendEvents(ctx, events); err != nil {
		return nil, apperr.StoreUnavailable("ledger.AppendEvents", err)
	}

	out := make([]model.StockEvent, 0, len(events))
	for _, e := range events {
		uc.afterAppend(ctx, e)
		out = append(out, *e)
	}

	uc.logger.Info("stock consumption recorded",
		zap.Int("lines", len(out)),
		zap.String("ref_id", input.RefID),
	)
	return out, nil
}

// RecordAdjustment never re-checks non-negativity: it is the explicit
// override path for manual corrections and cancellation reversals.
func (uc *ledgerUseCase) RecordAdjustment(ctx context.Context, input *dto.RecordAdjustmentInput) (*model.StockEvent, error) {
	if input.Quantity == 0 {
		return nil, apperr.ErrInvalidQuantity
	}
	if input.Reason == "" {
		return nil, apperr.ErrMissingReason
	}
	if err := uc.variantExists(ctx, input.VariantID); err != nil {
		return nil, err
	}

	release, err := uc.lockVariants(ctx, []string{input.VariantID})
	if err != nil {
		return nil, err
	}
	defer release()

	e := newEvent(model.StockEventAdjustment, input.VariantID, input.Quantity, input.Reason, input.RefType, input.RefID)
	if err := uc.append(ctx, e); err != nil {
		return nil, err
	}

	uc.logger.Info("stock adjustment recorded",
		zap.String("variant_id", input.VariantID),
		zap.Int64("quantity", input.Quantity),
		zap.String("reason", input.Reason),
	)
	return e, nil
}

func onHandCacheKey(variantID string) string {
	return "stock:onhand:" + variantID
}

func (uc *ledgerUseCase) invalidateOnHand(ctx context.Context, variantID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Client.Del(ctx, onHandCacheKey(variantID)).Err(); err != nil {
		uc.logger.Warn("failed to invalidate on-hand cache", zap.Error(err))
	}
}

func (uc *ledgerUseCase) OnHand(ctx context.Context, variantID string) (int64, error) {
	if err := uc.variantExists(ctx, variantID); err != nil {
		return 0, err
	}

	if uc.cache != nil {
		val, err := uc.cache.Client.Get(ctx, onHandCacheKey(variantID)).Result()
		if err == nil {
			if sum, err := strconv.ParseInt(val, 10, 64); err == nil {
				return sum, nil
			}
		}
	}

	sum, err := uc.repo.SumByVariant(ctx, variantID)
	if err != nil {
		return 0, apperr.StoreUnavailable("ledger.SumByVariant", err)
	}

	if uc.cache != nil {
		uc.cache.Client.Set(ctx, onHandCacheKey(variantID), strconv.FormatInt(sum, 10), onHandCacheTTL)
	}
	return sum, nil
}

func (uc *ledgerUseCase) OnHandAsOf(ctx context.Context, variantID string, at time.Time) (int64, error) {
	if err := uc.variantExists(ctx, variantID); err != nil {
		return 0, err
	}
	sum, err := uc.repo.SumByVariantAsOf(ctx, variantID, at)
	if err != nil {
		return 0, apperr.StoreUnavailable("ledger.SumByVariantAsOf", err)
	}
	return sum, nil
}

func (uc *ledgerUseCase) IsLowStock(ctx context.Context, variantID string) (bool, error) {
	v, err := uc.catalogRepo.FindVariantByID(ctx, variantID)
	if err != nil {
		return false, apperr.StoreUnavailable("catalog.FindVariantByID", err)
	}
	if v == nil {
		return false, apperr.ErrUnknownVariant
	}
	p, err := uc.catalogRepo.FindProductByID(ctx, v.ProductID)
	if err != nil {
		return false, apperr.StoreUnavailable("catalog.FindProductByID", err)
	}

	threshold := model.EffectiveThreshold(p, v)
	if threshold <= 0 {
		// No reorder point configured; never reported as low.
		return false, nil
	}

	onHand, err := uc.OnHand(ctx, variantID)
	if err != nil {
		return false, err
	}
	return onHand < threshold, nil
}

func (uc *ledgerUseCase) ListEvents(ctx context.Context, filters *dto.EventFilters) ([]model.StockEvent, int, error) {
	events, count, err := uc.repo.ListEvents(ctx, filters)
	if err != nil {
		return nil, 0, apperr.StoreUnavailable("ledger.ListEvents", err)
	}
	return events, count, nil
}
