package view

import (
	"context"
	"sync"

	"cleanghana/internal/image"
	"cleanghana/internal/report"
)

// CitizenForm is the submission workflow for a citizen: acquire a
// location, fill in the variant fields, attach an optional photo, then
// submit either form. Fields reset after a successful submission.
type CitizenForm struct {
	svc     ReportService
	locator Locator

	mu         sync.Mutex
	reporterID string
	location   *report.Location
	locating   bool
	closed     bool

	// Waste report fields.
	Description   string
	WasteCategory string
	imageRef      string

	// Pickup request fields.
	MaterialType     string
	QuantityEstimate string
}

func NewCitizenForm(svc ReportService, locator Locator, reporterID string) *CitizenForm {
	return &CitizenForm{svc: svc, locator: locator, reporterID: reporterID}
}

// Locate resolves the current position and caches it on the form. A
// resolution that lands after Close is discarded so a torn-down form
// never changes state.
func (f *CitizenForm) Locate(ctx context.Context) {
	f.mu.Lock()
	if f.closed || f.locating {
		f.mu.Unlock()
		return
	}
	f.locating = true
	f.mu.Unlock()

	loc := f.locator.Resolve(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.locating = false
	if f.closed {
		return
	}
	f.location = &loc
}

// Location returns the cached position, nil until Locate completes.
func (f *CitizenForm) Location() *report.Location {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.location == nil {
		return nil
	}
	loc := *f.location
	return &loc
}

// AttachImage encodes the photo bytes as a data URI on the form.
// Oversized or empty payloads fall back to the placeholder reference.
func (f *CitizenForm) AttachImage(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageRef = image.EncodeAttachment(data)
}

// SubmitWasteReport builds and submits a waste report from the current
// fields, resetting them on success.
func (f *CitizenForm) SubmitWasteReport(ctx context.Context) (report.Record, error) {
	f.mu.Lock()
	n := report.NewRecord{
		Type:          report.TypeWasteReport,
		Location:      f.location,
		ReporterID:    f.reporterID,
		Description:   f.Description,
		WasteCategory: f.WasteCategory,
		ImageRef:      f.imageRef,
	}
	f.mu.Unlock()

	rec, err := f.svc.Submit(ctx, n)
	if err != nil {
		return report.Record{}, err
	}
	f.reset()
	return rec, nil
}

// SubmitPickupRequest builds and submits a recycling request from the
// current fields, resetting them on success.
func (f *CitizenForm) SubmitPickupRequest(ctx context.Context) (report.Record, error) {
	f.mu.Lock()
	n := report.NewRecord{
		Type:             report.TypeRecyclingRequest,
		Location:         f.location,
		ReporterID:       f.reporterID,
		MaterialType:     f.MaterialType,
		QuantityEstimate: f.QuantityEstimate,
	}
	f.mu.Unlock()

	rec, err := f.svc.Submit(ctx, n)
	if err != nil {
		return report.Record{}, err
	}
	f.reset()
	return rec, nil
}

func (f *CitizenForm) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.location = nil
	f.Description = ""
	f.WasteCategory = ""
	f.imageRef = ""
	f.MaterialType = ""
	f.QuantityEstimate = ""
}

// Close marks the form torn down. In-flight location resolutions are
// discarded when they land.
func (f *CitizenForm) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}
