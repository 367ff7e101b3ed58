package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"bidderpro-backend-go/internal/models"
	"bidderpro-backend-go/internal/pricing"
)

// DefaultBufferPercent is applied when the request leaves the buffer unset.
const DefaultBufferPercent = 20

type estimateService struct {
	priceTable       pricing.PriceTable
	defaultLaborRate float64
	audit            AuditService
	logger           *zap.Logger
	now              func() time.Time
}

// NewEstimateService creates an EstimateService. priceTable is used whenever
// a request does not carry its own table.
func NewEstimateService(priceTable pricing.PriceTable, defaultLaborRate float64, audit AuditService, logger *zap.Logger) (EstimateService, error) {
	if err := priceTable.Validate(); err != nil {
		return nil, fmt.Errorf("default price table: %w", err)
	}
	if defaultLaborRate < pricing.MinLaborRate {
		return nil, fmt.Errorf("default labor rate %.2f is below the %.2f floor", defaultLaborRate, pricing.MinLaborRate)
	}
	return &estimateService{
		priceTable:       priceTable.Clone(),
		defaultLaborRate: defaultLaborRate,
		audit:            audit,
		logger:           logger,
		now:              time.Now,
	}, nil
}

// Generate refuses expired sessions, prices the request and renders the view.
func (s *estimateService) Generate(ctx context.Context, session *Session, req models.EstimateRequest) (*models.EstimateView, error) {
	if session == nil || session.User == nil {
		return nil, ErrUserNotFound
	}
	email := session.User.Email

	if !session.Trial.Active() {
		s.record(ctx, email, models.ActionTrialExpiredBlocked, map[string]any{"expiredAt": session.Trial.ExpiresAt})
		return nil, ErrTrialExpired
	}

	projectType := strings.TrimSpace(req.ProjectType)
	if projectType == "" {
		projectType = models.ProjectTypes[0]
	}
	if !models.IsProjectType(projectType) {
		return nil, &pricing.InvalidInputError{
			Field:  "projectType",
			Reason: fmt.Sprintf("must be one of %s", strings.Join(models.ProjectTypes, ", ")),
		}
	}

	input := pricing.EstimateInput{
		SquareFootage: req.SquareFootage,
		BufferPercent: DefaultBufferPercent,
		LaborRate:     s.defaultLaborRate,
		PriceTable:    s.priceTable,
	}
	if req.BufferPercent != nil {
		input.BufferPercent = *req.BufferPercent
	}
	if req.IncludeLabor && req.LaborRate != nil {
		input.LaborRate = *req.LaborRate
	}
	if len(req.PriceTable) > 0 {
		input.PriceTable = req.PriceTable
	}

	result, err := pricing.Estimate(input)
	if err != nil {
		var inputErr *pricing.InvalidInputError
		if errors.As(err, &inputErr) {
			s.logger.Debug("Rejected estimate input", zap.String("email", email), zap.String("field", inputErr.Field))
		}
		return nil, err
	}

	view := &models.EstimateView{
		Project: models.ProjectDetails{
			ProjectName:    strings.TrimSpace(req.ProjectName),
			ZipCode:        req.ZipCode,
			ProjectType:    projectType,
			Summary:        req.Summary,
			Materials:      req.Materials,
			AttachmentName: req.AttachmentName,
		},
		SquareFootage: input.SquareFootage,
		BufferPercent: input.BufferPercent,
		LaborRate:     input.LaborRate,
		LaborIncluded: req.IncludeLabor,
		Result:        result,
		Formatted:     formatResult(result),
		Suppliers:     append([]string(nil), Suppliers...),
		Explanation:   Explanation(req.ZipCode),
		GeneratedAt:   s.now().UTC(),
	}

	s.record(ctx, email, models.ActionEstimateGenerated, map[string]any{
		"projectType":   projectType,
		"squareFootage": input.SquareFootage,
		"total":         result.Total,
	})
	return view, nil
}

func (s *estimateService) record(ctx context.Context, email, action string, details map[string]any) {
	if err := s.audit.Record(ctx, email, action, details); err != nil {
		s.logger.Warn("Failed to record audit event", zap.String("action", action), zap.Error(err))
	}
}

func formatResult(result *pricing.EstimateResult) models.FormattedEstimate {
	lines := make([]string, 0, len(result.LineItems))
	for _, li := range result.LineItems {
		lines = append(lines, fmt.Sprintf("%s: %s (%s/sq ft)",
			li.Material, FormatMoney(li.LineCost), strconv.FormatFloat(li.UnitPrice, 'f', -1, 64)))
	}
	return models.FormattedEstimate{
		LineItems:        lines,
		MaterialSubtotal: FormatMoney(result.MaterialSubtotal),
		BufferAmount:     FormatMoney(result.BufferAmount),
		LaborCost:        FormatMoney(result.LaborCost),
		Total:            FormatMoney(result.Total),
	}
}
