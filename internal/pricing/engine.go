// Package pricing computes construction cost estimates from square footage,
// a material buffer, a labor rate and a per-square-foot price table.
package pricing

import (
	"errors"
	"fmt"
	"math"
)

const (
	MinSquareFootage = 100
	MinBufferPercent = 0
	MaxBufferPercent = 30
	MinLaborRate     = 10.0
)

// ErrInvalidInput is wrapped by every validation failure returned by Estimate.
var ErrInvalidInput = errors.New("invalid estimate input")

// InvalidInputError names the offending field.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

func invalid(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}

// EstimateInput holds everything the engine needs.
type EstimateInput struct {
	SquareFootage int
	BufferPercent int
	LaborRate     float64
	PriceTable    PriceTable
}

// LineItem is one material's cost at the requested square footage.
type LineItem struct {
	Material  string  `json:"material"`
	UnitPrice float64 `json:"unitPrice"`
	LineCost  float64 `json:"lineCost"`
}

// EstimateResult is the itemized breakdown.
// Total == MaterialSubtotal + BufferAmount + LaborCost.
type EstimateResult struct {
	LineItems        []LineItem `json:"lineItems"`
	MaterialSubtotal float64    `json:"materialSubtotal"`
	BufferAmount     float64    `json:"bufferAmount"`
	LaborCost        float64    `json:"laborCost"`
	Total            float64    `json:"total"`
}

// Validate range-checks the input. The first offending field is reported.
func (in EstimateInput) Validate() error {
	if in.SquareFootage < MinSquareFootage {
		return invalid("squareFootage", fmt.Sprintf("must be at least %d, got %d", MinSquareFootage, in.SquareFootage))
	}
	if in.BufferPercent < MinBufferPercent || in.BufferPercent > MaxBufferPercent {
		return invalid("bufferPercent", fmt.Sprintf("must be between %d and %d, got %d", MinBufferPercent, MaxBufferPercent, in.BufferPercent))
	}
	if !isFinite(in.LaborRate) || in.LaborRate < MinLaborRate {
		return invalid("laborRate", fmt.Sprintf("must be at least %.2f, got %.2f", MinLaborRate, in.LaborRate))
	}
	return in.PriceTable.Validate()
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Estimate computes the cost breakdown. It has no side effects and does not
// modify in.PriceTable.
func Estimate(in EstimateInput) (*EstimateResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	sqFt := float64(in.SquareFootage)
	result := &EstimateResult{
		LineItems: make([]LineItem, 0, len(in.PriceTable)),
	}
	for _, item := range in.PriceTable {
		lineCost := item.UnitPrice * sqFt
		result.LineItems = append(result.LineItems, LineItem{
			Material:  item.Material,
			UnitPrice: item.UnitPrice,
			LineCost:  lineCost,
		})
		result.MaterialSubtotal += lineCost
	}

	result.BufferAmount = result.MaterialSubtotal * float64(in.BufferPercent) / 100
	result.LaborCost = sqFt * in.LaborRate
	result.Total = result.MaterialSubtotal + result.BufferAmount + result.LaborCost

	return result, nil
}
