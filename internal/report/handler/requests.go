package handler

import (
	"cleanghana/internal/image"
	"cleanghana/internal/report"
	"cleanghana/pkg/domainerrors"
)

// CreateRequest is the submission payload. ReporterID never comes from
// the body; it is taken from the authenticated context.
type CreateRequest struct {
	Type     string           `json:"type"`
	Location *report.Location `json:"location"`

	Description   string `json:"description,omitempty"`
	WasteCategory string `json:"wasteCategory,omitempty"`
	// ImageData carries raw photo bytes, base64 in JSON. It is encoded
	// into a data URI server-side; ImageRef passes a reference through
	// unchanged.
	ImageData []byte `json:"imageData,omitempty"`
	ImageRef  string `json:"imageUrl,omitempty"`

	MaterialType     string `json:"materialType,omitempty"`
	QuantityEstimate string `json:"quantity,omitempty"`
}

// ToNewRecord builds the domain submission for the given reporter.
func (r CreateRequest) ToNewRecord(reporterID string) report.NewRecord {
	n := report.NewRecord{
		Type:             report.Type(r.Type),
		Location:         r.Location,
		ReporterID:       reporterID,
		Description:      r.Description,
		WasteCategory:    r.WasteCategory,
		ImageRef:         r.ImageRef,
		MaterialType:     r.MaterialType,
		QuantityEstimate: r.QuantityEstimate,
	}
	if len(r.ImageData) > 0 {
		n.ImageRef = image.EncodeAttachment(r.ImageData)
	}
	return n
}

// StatusRequest asks for a lifecycle transition on behalf of a role.
type StatusRequest struct {
	Status string `json:"status"`
	Role   string `json:"role"`
}

// Parse validates both fields up front.
func (r StatusRequest) Parse() (report.Status, report.Role, error) {
	role, err := report.ParseRole(r.Role)
	if err != nil {
		return "", "", err
	}
	switch report.Status(r.Status) {
	case report.StatusResolved, report.StatusCollected:
		return report.Status(r.Status), role, nil
	default:
		return "", "", domainerrors.New(domainerrors.CodeBadRequest, "status must be resolved or collected")
	}
}

// parseFilter maps the optional ?type= query onto a domain filter.
func parseFilter(raw string) (report.Filter, error) {
	if raw == "" {
		return report.Filter{}, nil
	}
	t := report.Type(raw)
	if !t.Valid() {
		return report.Filter{}, domainerrors.New(domainerrors.CodeBadRequest, "unknown record type: "+raw)
	}
	return report.Filter{Type: t}, nil
}
