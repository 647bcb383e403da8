package handler

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/catalog/dto"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/httperr"
	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/logger"
)

var skuPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]*$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("skucode", func(fl validator.FieldLevel) bool {
			return skuPattern.MatchString(fl.Field().String())
		})
	}
}

type CatalogHandler struct {
	usecase catalog.UseCase
	logger  logger.ZapLogger
}

func NewCatalogHandler(uc catalog.UseCase, log logger.ZapLogger) *CatalogHandler {
	return &CatalogHandler{usecase: uc, logger: log}
}

func (h *CatalogHandler) RegisterRoutes(r *gin.RouterGroup) {
	products := r.Group("/products")
	{
		products.POST("", h.CreateProduct)
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProduct)
		products.PUT("/:id/threshold", h.UpdateProductThreshold)
		products.POST("/:id/variants", h.AddVariant)
		products.GET("/:id/variants", h.ListVariants)
	}

	variants := r.Group("/variants")
	{
		variants.GET("/resolve", h.ResolveVariant)
		variants.GET("/:id", h.GetVariant)
		variants.PUT("/:id/threshold", h.UpdateVariantThreshold)
		variants.DELETE("/:id", h.DeactivateVariant)
	}
}

type createVariantRequest struct {
	SKU           string          `json:"sku" binding:"required,skucode"`
	Size          string          `json:"size"`
	Color         string          `json:"color"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	MinStockLevel *int64          `json:"min_stock_level" binding:"omitempty,gte=0"`
}

type createProductRequest struct {
	Code          string                 `json:"code" binding:"required"`
	Name          string                 `json:"name" binding:"required"`
	Category      string                 `json:"category"`
	MinStockLevel int64                  `json:"min_stock_level" binding:"gte=0"`
	Variants      []createVariantRequest `json:"variants" binding:"dive"`
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := &dto.CreateProductInput{
		Code:          req.Code,
		Name:          req.Name,
		Category:      req.Category,
		MinStockLevel: req.MinStockLevel,
	}
	for _, v := range req.Variants {
		input.Variants = append(input.Variants, dto.CreateVariantInput{
			SKU:           v.SKU,
			Size:          v.Size,
			Color:         v.Color,
			UnitPrice:     v.UnitPrice,
			MinStockLevel: v.MinStockLevel,
		})
	}

	product, err := h.usecase.CreateProduct(c.Request.Context(), input)
	if err != nil {
		h.logger.Error("Failed to create product", zap.String("code", req.Code), zap.Error(err))
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.usecase.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	filters := &dto.ProductFilters{
		Category:    c.Query("category"),
		SearchQuery: c.Query("q"),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "page_size", 20),
	}
	if raw := c.Query("is_active"); raw != "" {
		active := raw == "true"
		filters.IsActive = &active
	}

	products, count, err := h.usecase.ListProducts(c.Request.Context(), filters)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": products, "total": count})
}

type updateThresholdRequest struct {
	MinStockLevel int64 `json:"min_stock_level" binding:"gte=0"`
}

func (h *CatalogHandler) UpdateProductThreshold(c *gin.Context) {
	var req updateThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.usecase.UpdateProductThreshold(c.Request.Context(), c.Param("id"), req.MinStockLevel)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) AddVariant(c *gin.Context) {
	var req createVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	variant, err := h.usecase.AddVariant(c.Request.Context(), &dto.CreateVariantInput{
		ProductID:     c.Param("id"),
		SKU:           req.SKU,
		Size:          req.Size,
		Color:         req.Color,
		UnitPrice:     req.UnitPrice,
		MinStockLevel: req.MinStockLevel,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, variant)
}

func (h *CatalogHandler) ListVariants(c *gin.Context) {
	variants, err := h.usecase.ListVariants(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": variants})
}

func (h *CatalogHandler) GetVariant(c *gin.Context) {
	variant, err := h.usecase.GetVariant(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, variant)
}

// ResolveVariant looks a variant up by product code plus the size/color pair,
// the same resolution order entry uses.
func (h *CatalogHandler) ResolveVariant(c *gin.Context) {
	code := c.Query("product_code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_code is required"})
		return
	}
	var size, color *string
	if raw, ok := c.GetQuery("size"); ok {
		size = &raw
	}
	if raw, ok := c.GetQuery("color"); ok {
		color = &raw
	}

	variant, err := h.usecase.ResolveVariant(c.Request.Context(), code, size, color)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, variant)
}

type updateVariantThresholdRequest struct {
	MinStockLevel *int64 `json:"min_stock_level" binding:"omitempty,gte=0"`
}

func (h *CatalogHandler) UpdateVariantThreshold(c *gin.Context) {
	var req updateVariantThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	variant, err := h.usecase.UpdateVariantThreshold(c.Request.Context(), c.Param("id"), req.MinStockLevel)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, variant)
}

func (h *CatalogHandler) DeactivateVariant(c *gin.Context) {
	variant, err := h.usecase.DeactivateVariant(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, variant)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
