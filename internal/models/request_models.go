package models

import "bidderpro-backend-go/internal/pricing"

// SignInRequest is the body of POST /api/v1/session.
// Both fields are checked by the trial gate so that a missing value produces
// the sign-in warning instead of a generic binding error.
type SignInRequest struct {
	Name  string `json:"name" form:"name"`
	Email string `json:"email" form:"email"`
}

// EstimateRequest carries the estimate form. It binds from JSON and from
// multipart/url-encoded forms; Materials and PriceTable are JSON only.
type EstimateRequest struct {
	ProjectName   string              `json:"projectName" form:"projectName"`
	ZipCode       string              `json:"zipCode" form:"zipCode"`
	ProjectType   string              `json:"projectType" form:"projectType"`
	SquareFootage int                 `json:"squareFootage" form:"squareFootage"`
	BufferPercent *int                `json:"bufferPercent,omitempty" form:"bufferPercent"`
	IncludeLabor  bool                `json:"includeLabor" form:"includeLabor"`
	LaborRate     *float64            `json:"laborRate,omitempty" form:"laborRate"`
	Summary       string              `json:"summary,omitempty" form:"summary"`
	Materials     map[string][]string `json:"materials,omitempty" form:"-"`
	PriceTable    pricing.PriceTable  `json:"priceTable,omitempty" form:"-"`

	// AttachmentName is set from the uploaded plans file, never from the body.
	AttachmentName string `json:"-" form:"-"`
}
