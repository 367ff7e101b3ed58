package models

import (
	"time"

	"bidderpro-backend-go/internal/pricing"
)

// Project types offered by the estimate form.
const (
	ProjectKitchenRemodel  = "Kitchen Remodel"
	ProjectFullHomeReno    = "Full Home Reno"
	ProjectGarageBuild     = "Garage Build"
	ProjectRoofReplacement = "Roof Replacement"
	ProjectConcreteWork    = "Concrete Work"
	ProjectOther           = "Other"
)

// ProjectTypes lists the project types in form order.
var ProjectTypes = []string{
	ProjectKitchenRemodel,
	ProjectFullHomeReno,
	ProjectGarageBuild,
	ProjectRoofReplacement,
	ProjectConcreteWork,
	ProjectOther,
}

// IsProjectType reports whether t is one of ProjectTypes.
func IsProjectType(t string) bool {
	for _, pt := range ProjectTypes {
		if pt == t {
			return true
		}
	}
	return false
}

// ProjectDetails is echoed back unchanged; none of it affects pricing.
type ProjectDetails struct {
	ProjectName    string              `json:"projectName"`
	ZipCode        string              `json:"zipCode"`
	ProjectType    string              `json:"projectType"`
	Summary        string              `json:"summary,omitempty"`
	Materials      map[string][]string `json:"materials,omitempty"`
	AttachmentName string              `json:"attachmentName,omitempty"`
}

// FormattedEstimate holds display strings such as "$58,520.00".
type FormattedEstimate struct {
	LineItems        []string `json:"lineItems"`
	MaterialSubtotal string   `json:"materialSubtotal"`
	BufferAmount     string   `json:"bufferAmount"`
	LaborCost        string   `json:"laborCost"`
	Total            string   `json:"total"`
}

// EstimateView is the immutable result of one generate-estimate action.
type EstimateView struct {
	Project       ProjectDetails          `json:"project"`
	SquareFootage int                     `json:"squareFootage"`
	BufferPercent int                     `json:"bufferPercent"`
	LaborRate     float64                 `json:"laborRate"`
	LaborIncluded bool                    `json:"laborIncluded"`
	Result        *pricing.EstimateResult `json:"result"`
	Formatted     FormattedEstimate       `json:"formatted"`
	Suppliers     []string                `json:"suppliers"`
	Explanation   string                  `json:"explanation"`
	GeneratedAt   time.Time               `json:"generatedAt"`
}
