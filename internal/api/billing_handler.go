package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bidderpro-backend-go/internal/core"
)

// BillingHandler handles billing-related API endpoints.
type BillingHandler struct {
	billingService core.BillingService
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(bs core.BillingService) *BillingHandler {
	return &BillingHandler{billingService: bs}
}

// SubscribeLinkResponse carries the upgrade link.
type SubscribeLinkResponse struct {
	URL string `json:"url"`
}

// SubscribeLink handles GET /api/v1/billing/subscribe. The optional email
// query parameter is carried over to the link.
func (h *BillingHandler) SubscribeLink(c *gin.Context) {
	c.JSON(http.StatusOK, SubscribeLinkResponse{
		URL: h.billingService.SubscriptionLink(c.Request.Context(), c.Query("email")),
	})
}
