package api

import (
	"time"

	"bidderpro-backend-go/internal/core"
	"bidderpro-backend-go/internal/models"
	"bidderpro-backend-go/internal/pricing"
)

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`             // A high-level error message or code
	Details string `json:"details,omitempty"` // More specific details about the error, if available
	// Field names the offending input for validation errors.
	Field string `json:"field,omitempty"`
	// SubscribeURL is set when the caller's trial has ended.
	SubscribeURL string `json:"subscribeUrl,omitempty"`
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// SessionResponse describes the signed-in user and their trial.
type SessionResponse struct {
	User         *models.UserRecord `json:"user"`
	Trial        core.TrialStatus   `json:"trial"`
	SubscribeURL string             `json:"subscribeUrl,omitempty"`
}

// SignInResponse is returned by POST /api/v1/session.
type SignInResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Created   bool      `json:"created"`
	SessionResponse
}

// PriceTableResponse is returned by GET /api/v1/pricing/default.
type PriceTableResponse struct {
	Materials        pricing.PriceTable `json:"materials"`
	UnitPriceSum     float64            `json:"unitPriceSum"`
	DefaultBuffer    int                `json:"defaultBufferPercent"`
	MinBuffer        int                `json:"minBufferPercent"`
	MaxBuffer        int                `json:"maxBufferPercent"`
	MinSquareFeet    int                `json:"minSquareFootage"`
	MinLaborRate     float64            `json:"minLaborRate"`
	DefaultLaborRate float64            `json:"defaultLaborRate"`
}

// ProjectTypesResponse is returned by GET /api/v1/project-types.
type ProjectTypesResponse struct {
	ProjectTypes []string `json:"projectTypes"`
	Default      string   `json:"default"`
}
