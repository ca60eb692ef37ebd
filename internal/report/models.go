package report

import (
	"strings"
	"time"

	"cleanghana/pkg/domainerrors"
)

// Type discriminates the two record variants sharing the collection.
type Type string

const (
	TypeWasteReport      Type = "waste_report"
	TypeRecyclingRequest Type = "recycling_request"
)

// Valid reports whether t is a known record type.
func (t Type) Valid() bool {
	return t == TypeWasteReport || t == TypeRecyclingRequest
}

// Status is the lifecycle position of a record. Which values are legal
// depends on the record type; see lifecycle.go.
type Status string

const (
	StatusPending   Status = "pending"
	StatusResolved  Status = "resolved"
	StatusReady     Status = "ready"
	StatusCollected Status = "collected"
)

// Role determines which lifecycle operations a caller may perform.
type Role string

const (
	RoleCitizen   Role = "citizen"
	RoleAuthority Role = "authority"
	RoleRecycler  Role = "recycler"
)

// ParseRole validates a role string from the transport layer.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCitizen, RoleAuthority, RoleRecycler:
		return Role(s), nil
	default:
		return "", domainerrors.New(domainerrors.CodeBadRequest, "unknown role: "+s)
	}
}

// Location is a resolved position with a human-readable address. Immutable
// once attached to a record.
type Location struct {
	Latitude       float64 `json:"lat"`
	Longitude      float64 `json:"lng"`
	DisplayAddress string  `json:"address"`
}

// MaterialTypes is the fixed set of materials a pickup request may carry.
var MaterialTypes = []string{
	"Plastic Bottles (PET)",
	"Water Sachets",
	"Cardboard / Paper",
	"Aluminum Cans",
}

// PlaceholderImageRef stands in for real object storage when a report is
// submitted without a photo.
const PlaceholderImageRef = "https://placehold.co/600x400/e2e8f0/1e293b?text=Waste+Image"

// Record is the single persisted entity, polymorphic over Type. Variant
// fields are empty on the other variant.
type Record struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Status     Status    `json:"status"`
	Location   Location  `json:"location"`
	ReporterID string    `json:"reporterId"`
	CreatedAt  time.Time `json:"createdAt"`

	// WasteReport fields.
	Description   string `json:"description,omitempty"`
	WasteCategory string `json:"wasteCategory,omitempty"`
	ImageRef      string `json:"imageUrl,omitempty"`

	// RecyclingRequest fields.
	MaterialType     string `json:"materialType,omitempty"`
	QuantityEstimate string `json:"quantity,omitempty"`
}

// NewRecord is the submission shape. The store assigns ID, CreatedAt and the
// initial Status.
type NewRecord struct {
	Type       Type      `json:"type"`
	Location   *Location `json:"location"`
	ReporterID string    `json:"reporterId"`

	Description   string `json:"description,omitempty"`
	WasteCategory string `json:"wasteCategory,omitempty"`
	ImageRef      string `json:"imageUrl,omitempty"`

	MaterialType     string `json:"materialType,omitempty"`
	QuantityEstimate string `json:"quantity,omitempty"`
}

// Validate enforces submission constraints before any I/O happens. The
// service calls it up front and stores repeat it defensively.
func (n NewRecord) Validate() error {
	if !n.Type.Valid() {
		return domainerrors.New(domainerrors.CodeValidation, "record type must be waste_report or recycling_request")
	}
	if n.Location == nil {
		return domainerrors.New(domainerrors.CodeValidation, "location is required")
	}
	if strings.TrimSpace(n.Location.DisplayAddress) == "" {
		return domainerrors.New(domainerrors.CodeValidation, "location address must not be empty")
	}
	if n.ReporterID == "" {
		return domainerrors.New(domainerrors.CodeValidation, "reporterId is required")
	}

	switch n.Type {
	case TypeWasteReport:
		if strings.TrimSpace(n.Description) == "" {
			return domainerrors.New(domainerrors.CodeValidation, "description is required for a waste report")
		}
	case TypeRecyclingRequest:
		if strings.TrimSpace(n.QuantityEstimate) == "" {
			return domainerrors.New(domainerrors.CodeValidation, "quantity estimate is required for a pickup request")
		}
		if n.MaterialType != "" && !validMaterial(n.MaterialType) {
			return domainerrors.New(domainerrors.CodeValidation, "unknown material type: "+n.MaterialType)
		}
	}
	return nil
}

func validMaterial(m string) bool {
	for _, known := range MaterialTypes {
		if known == m {
			return true
		}
	}
	return false
}

// Filter restricts a query or subscription to one record type. The zero
// value matches everything.
type Filter struct {
	Type Type
}

// Matches reports whether r passes the filter.
func (f Filter) Matches(r Record) bool {
	return f.Type == "" || r.Type == f.Type
}

// Snapshot is the full current result set for one filter, ordered by
// CreatedAt descending. Subscribers receive a fresh Snapshot per change,
// never a diff.
type Snapshot []Record
