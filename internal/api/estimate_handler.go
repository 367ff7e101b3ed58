package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bidderpro-backend-go/internal/core"
	"bidderpro-backend-go/internal/middleware"
	"bidderpro-backend-go/internal/models"
	"bidderpro-backend-go/internal/pricing"
	"bidderpro-backend-go/internal/report"
)

// PlansField is the multipart field carrying the optional building plans.
const PlansField = "plans"

var allowedPlanExtensions = map[string]bool{".pdf": true, ".png": true, ".jpg": true, ".jpeg": true}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// EstimateHandler handles the generate-estimate action and its export.
type EstimateHandler struct {
	estimates core.EstimateService
	billing   core.BillingService
	logger    *zap.Logger
}

// NewEstimateHandler creates a new EstimateHandler.
func NewEstimateHandler(es core.EstimateService, bs core.BillingService, logger *zap.Logger) *EstimateHandler {
	return &EstimateHandler{estimates: es, billing: bs, logger: logger}
}

// mapEstimateErrorToStatus maps errors from core.EstimateService to HTTP status codes and ErrorResponse.
func (h *EstimateHandler) mapEstimateErrorToStatus(c *gin.Context, session *core.Session, err error) {
	var statusCode int
	var errResponse ErrorResponse
	var inputErr *pricing.InvalidInputError

	switch {
	case errors.As(err, &inputErr):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Invalid estimate input", Details: inputErr.Error(), Field: inputErr.Field}
	case errors.Is(err, core.ErrTrialExpired):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{
			Error:        "trial_expired",
			Details:      "Your free trial has ended. Subscribe to keep generating estimates.",
			SubscribeURL: h.billing.SubscriptionLink(c.Request.Context(), session.User.Email),
		}
	case errors.Is(err, core.ErrUserNotFound):
		statusCode = http.StatusUnauthorized
		errResponse = ErrorResponse{Error: "Session user no longer exists", Details: "Please sign in again."}
	default:
		h.logger.Error("Internal Server Error in EstimateHandler", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred while generating the estimate."}
	}
	c.JSON(statusCode, errResponse)
}

// Generate handles POST /api/v1/estimates.
func (h *EstimateHandler) Generate(c *gin.Context) {
	session, view, ok := h.generate(c)
	if !ok {
		return
	}
	h.logger.Info("Estimate generated",
		zap.String("email", session.User.Email),
		zap.String("projectType", view.Project.ProjectType),
		zap.Float64("total", view.Result.Total))
	c.JSON(http.StatusOK, view)
}

// Export handles POST /api/v1/estimates/export and responds with the
// estimate as an XLSX workbook.
func (h *EstimateHandler) Export(c *gin.Context) {
	_, view, ok := h.generate(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteEstimate(&buf, view); err != nil {
		h.logger.Error("Failed to render estimate workbook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to export estimate"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFileName(view.Project.ProjectName)))
	c.Data(http.StatusOK, report.ContentType, buf.Bytes())
}

func (h *EstimateHandler) generate(c *gin.Context) (*core.Session, *models.EstimateView, bool) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context"})
		return nil, nil, false
	}

	req, errResp := bindEstimateRequest(c)
	if errResp != nil {
		c.JSON(http.StatusBadRequest, errResp)
		return nil, nil, false
	}

	view, err := h.estimates.Generate(c.Request.Context(), session, req)
	if err != nil {
		h.mapEstimateErrorToStatus(c, session, err)
		return nil, nil, false
	}
	return session, view, true
}

// bindEstimateRequest reads the estimate form from JSON or from a
// multipart/url-encoded form. Only the name of an uploaded plans file is kept.
func bindEstimateRequest(c *gin.Context) (models.EstimateRequest, *ErrorResponse) {
	var req models.EstimateRequest
	if c.ContentType() == gin.MIMEJSON {
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, &ErrorResponse{Error: "Invalid request payload", Details: err.Error()}
		}
		return req, nil
	}

	if err := c.ShouldBind(&req); err != nil {
		return req, &ErrorResponse{Error: "Invalid request payload", Details: err.Error()}
	}
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return req, nil
	}

	file, err := c.FormFile(PlansField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return req, nil
	case err != nil:
		return req, &ErrorResponse{Error: "Invalid plans upload", Details: err.Error(), Field: PlansField}
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedPlanExtensions[ext] {
		return req, &ErrorResponse{
			Error:   "Invalid plans upload",
			Details: "plans must be a PDF, PNG or JPG file",
			Field:   PlansField,
		}
	}
	req.AttachmentName = filepath.Base(file.Filename)
	return req, nil
}

func exportFileName(projectName string) string {
	name := strings.Trim(unsafeFileChars.ReplaceAllString(strings.TrimSpace(projectName), "-"), "-.")
	if name == "" {
		return "estimate.xlsx"
	}
	return name + "-estimate.xlsx"
}
