package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogrepo "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog/repository"
	ledgerrepo "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger/repository"
	ledgerusecase "github.com/niwatnet1979-coder/168vsc-inventory-service/internal/ledger/usecase"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/model"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/lock"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/logger"
)

func setupRouter(t *testing.T) (*gin.Engine, *catalogrepo.MemoryRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalogRepo := catalogrepo.NewMemoryRepository()
	uc := ledgerusecase.NewLedgerUseCase(ledgerrepo.NewMemoryRepository(), catalogRepo, lock.NewKeyMutex(), nil, nil, logger.NewNop())

	engine := gin.New()
	NewLedgerHandler(uc, logger.NewNop()).RegisterRoutes(engine.Group("/api/v1"))
	return engine, catalogRepo
}

func seedVariant(t *testing.T, repo *catalogrepo.MemoryRepository) *model.ProductVariant {
	t.Helper()
	now := time.Now()
	p := &model.Product{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Code:      "TS-001",
		Name:      "Basic T-Shirt",
		IsActive:  true,
	}
	require.NoError(t, repo.CreateProduct(context.Background(), p))

	v := &model.ProductVariant{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		ProductID: p.ID,
		SKU:       "TS-001-S",
		IsActive:  true,
	}
	require.NoError(t, repo.CreateVariant(context.Background(), v))
	return v
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestRecordReceiptEndpoint(t *testing.T) {
	engine, catalogRepo := setupRouter(t)
	v := seedVariant(t, catalogRepo)

	rec := doJSON(t, engine, http.MethodPost, "/api/v1/stock/receipts", gin.H{
		"variant_id": v.ID,
		"quantity":   10,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/api/v1/stock/"+v.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		OnHand int64 `json:"on_hand"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(10), body.OnHand)
}

func TestRecordReceiptValidation(t *testing.T) {
	engine, catalogRepo := setupRouter(t)
	v := seedVariant(t, catalogRepo)

	// Binding rejects non-positive quantities before the usecase runs.
	rec := doJSON(t, engine, http.MethodPost, "/api/v1/stock/receipts", gin.H{
		"variant_id": v.ID,
		"quantity":   -1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, engine, http.MethodPost, "/api/v1/stock/receipts", gin.H{
		"variant_id": uuid.New().String(),
		"quantity":   5,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConsumptionConflictPayload(t *testing.T) {
	engine, catalogRepo := setupRouter(t)
	v := seedVariant(t, catalogRepo)

	rec := doJSON(t, engine, http.MethodPost, "/api/v1/stock/receipts", gin.H{
		"variant_id": v.ID,
		"quantity":   10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, engine, http.MethodPost, "/api/v1/stock/consumptions", gin.H{
		"variant_id": v.ID,
		"quantity":   15,
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		VariantID string `json:"variant_id"`
		Available int64  `json:"available"`
		Requested int64  `json:"requested"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, v.ID, body.VariantID)
	assert.Equal(t, int64(10), body.Available)
	assert.Equal(t, int64(15), body.Requested)
}

func TestOnHandAsOfQuery(t *testing.T) {
	engine, catalogRepo := setupRouter(t)
	v := seedVariant(t, catalogRepo)

	rec := doJSON(t, engine, http.MethodPost, "/api/v1/stock/receipts", gin.H{
		"variant_id": v.ID,
		"quantity":   10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	before := url.QueryEscape(time.Now().Add(-time.Hour).UTC().Format(time.RFC3339))
	rec = doJSON(t, engine, http.MethodGet, fmt.Sprintf("/api/v1/stock/%s?at=%s", v.ID, before), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		OnHand int64 `json:"on_hand"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(0), body.OnHand)

	rec = doJSON(t, engine, http.MethodGet, "/api/v1/stock/"+v.ID+"?at=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVariantEventsEndpoint(t *testing.T) {
	engine, catalogRepo := setupRouter(t)
	v := seedVariant(t, catalogRepo)

	for _, qty := range []int64{5, 3} {
		rec := doJSON(t, engine, http.MethodPost, "/api/v1/stock/receipts", gin.H{
			"variant_id": v.ID,
			"quantity":   qty,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, engine, http.MethodGet, "/api/v1/stock/"+v.ID+"/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Total)
}
