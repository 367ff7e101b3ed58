package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bidderpro-backend-go/internal/core"
	"bidderpro-backend-go/internal/models"
	"bidderpro-backend-go/internal/pricing"
)

// PricingHandler exposes the reference data the estimate form is built from.
type PricingHandler struct {
	priceTable       pricing.PriceTable
	defaultLaborRate float64
}

// NewPricingHandler creates a new PricingHandler.
func NewPricingHandler(priceTable pricing.PriceTable, defaultLaborRate float64) *PricingHandler {
	return &PricingHandler{priceTable: priceTable.Clone(), defaultLaborRate: defaultLaborRate}
}

// DefaultPriceTable handles GET /api/v1/pricing/default.
func (h *PricingHandler) DefaultPriceTable(c *gin.Context) {
	c.JSON(http.StatusOK, PriceTableResponse{
		Materials:        h.priceTable.Clone(),
		UnitPriceSum:     h.priceTable.Sum(),
		DefaultBuffer:    core.DefaultBufferPercent,
		MinBuffer:        pricing.MinBufferPercent,
		MaxBuffer:        pricing.MaxBufferPercent,
		MinSquareFeet:    pricing.MinSquareFootage,
		MinLaborRate:     pricing.MinLaborRate,
		DefaultLaborRate: h.defaultLaborRate,
	})
}

// ProjectTypes handles GET /api/v1/project-types.
func (h *PricingHandler) ProjectTypes(c *gin.Context) {
	c.JSON(http.StatusOK, ProjectTypesResponse{
		ProjectTypes: append([]string(nil), models.ProjectTypes...),
		Default:      models.ProjectKitchenRemodel,
	})
}
