package view

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cleanghana/internal/report"
	"cleanghana/internal/report/service"
)

type staticLocator struct {
	loc report.Location
}

func (l staticLocator) Resolve(context.Context) report.Location { return l.loc }

// blockingLocator does not return until released.
type blockingLocator struct {
	release chan struct{}
	loc     report.Location
}

func (l *blockingLocator) Resolve(context.Context) report.Location {
	<-l.release
	return l.loc
}

type ViewSuite struct {
	suite.Suite
	store   *report.MemoryStore
	service *service.Service
	ctx     context.Context
}

func TestViewSuite(t *testing.T) {
	suite.Run(t, new(ViewSuite))
}

func (s *ViewSuite) SetupTest() {
	s.store = report.NewMemoryStore(nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = service.New(s.store, nil, logger, nil)
	s.ctx = context.Background()
}

func (s *ViewSuite) TearDownTest() {
	_ = s.store.Close()
}

func (s *ViewSuite) submitWasteReport(desc string) report.Record {
	rec, err := s.service.Submit(s.ctx, report.NewRecord{
		Type:        report.TypeWasteReport,
		Location:    &report.Location{Latitude: 5.6037, Longitude: -0.1870, DisplayAddress: "Legon, Accra"},
		ReporterID:  "anon-1",
		Description: desc,
	})
	s.Require().NoError(err)
	return rec
}

func (s *ViewSuite) submitPickupRequest(qty string) report.Record {
	rec, err := s.service.Submit(s.ctx, report.NewRecord{
		Type:             report.TypeRecyclingRequest,
		Location:         &report.Location{Latitude: 5.6037, Longitude: -0.1870, DisplayAddress: "Legon, Accra"},
		ReporterID:       "anon-1",
		MaterialType:     "Water Sachets",
		QuantityEstimate: qty,
	})
	s.Require().NoError(err)
	return rec
}

// waitFor polls until cond passes or the deadline expires.
func (s *ViewSuite) waitFor(cond func() bool, msg string) {
	s.T().Helper()
	deadline := time.After(time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			s.FailNow(msg)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (s *ViewSuite) TestAuthorityViewSeesWasteReportsOnly() {
	s.submitWasteReport("bin one")
	s.submitPickupRequest("2 bags")

	v, err := NewAuthorityView(s.ctx, s.service)
	s.Require().NoError(err)
	defer v.Close()

	s.waitFor(func() bool { return len(v.Reports()) == 1 }, "initial snapshot never arrived")
	s.Equal(report.TypeWasteReport, v.Reports()[0].Type)
}

func (s *ViewSuite) TestAuthorityCountsAndResolve() {
	first := s.submitWasteReport("bin one")
	s.submitWasteReport("bin two")

	v, err := NewAuthorityView(s.ctx, s.service)
	s.Require().NoError(err)
	defer v.Close()

	s.waitFor(func() bool { return v.Counts().Total == 2 }, "initial snapshot never arrived")
	s.Equal(Counts{Total: 2, Pending: 2}, v.Counts())
	s.True(v.CanResolve(v.Reports()[0]))

	rec, err := v.Resolve(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(report.StatusResolved, rec.Status)
	s.False(v.CanResolve(rec))

	s.waitFor(func() bool { return v.Counts().Resolved == 1 }, "resolution never reached the view")
	s.Equal(Counts{Total: 2, Pending: 1, Resolved: 1}, v.Counts())
}

func (s *ViewSuite) TestRecyclerViewCollects() {
	req := s.submitPickupRequest("3 bags")
	s.submitWasteReport("not a pickup")

	v, err := NewRecyclerView(s.ctx, s.service)
	s.Require().NoError(err)
	defer v.Close()

	s.waitFor(func() bool { return v.Ready() == 1 }, "initial snapshot never arrived")
	s.Len(v.Requests(), 1)
	s.True(v.CanCollect(v.Requests()[0]))

	rec, err := v.Collect(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(report.StatusCollected, rec.Status)
	s.False(v.CanCollect(rec), "no action on a collected request")

	s.waitFor(func() bool { return v.Ready() == 0 }, "collection never reached the view")
}

func (s *ViewSuite) TestActionGatingByRoleStatusAndType() {
	authority, err := NewAuthorityView(s.ctx, s.service)
	s.Require().NoError(err)
	defer authority.Close()
	recycler, err := NewRecyclerView(s.ctx, s.service)
	s.Require().NoError(err)
	defer recycler.Close()

	pendingReport := report.Record{Type: report.TypeWasteReport, Status: report.StatusPending}
	resolvedReport := report.Record{Type: report.TypeWasteReport, Status: report.StatusResolved}
	readyRequest := report.Record{Type: report.TypeRecyclingRequest, Status: report.StatusReady}
	collectedRequest := report.Record{Type: report.TypeRecyclingRequest, Status: report.StatusCollected}

	s.True(authority.CanResolve(pendingReport))
	s.False(authority.CanResolve(resolvedReport))
	s.False(authority.CanResolve(readyRequest), "resolve never applies to pickups")

	s.True(recycler.CanCollect(readyRequest))
	s.False(recycler.CanCollect(collectedRequest))
	s.False(recycler.CanCollect(pendingReport), "collect never applies to waste reports")
}

func (s *ViewSuite) TestViewCloseIsIdempotent() {
	v, err := NewAuthorityView(s.ctx, s.service)
	s.Require().NoError(err)
	v.Close()
	v.Close()
}

func (s *ViewSuite) TestCitizenFormSubmitsWasteReportAndResets() {
	f := NewCitizenForm(s.service, staticLocator{loc: report.Location{
		Latitude: 5.6037, Longitude: -0.1870, DisplayAddress: "Legon, Accra",
	}}, "anon-1")
	f.Locate(s.ctx)
	s.Require().NotNil(f.Location())

	f.Description = "Overflowing bin"
	f.WasteCategory = "General"

	rec, err := f.SubmitWasteReport(s.ctx)
	s.Require().NoError(err)
	s.Equal(report.TypeWasteReport, rec.Type)
	s.Equal("Overflowing bin", rec.Description)
	s.Equal(report.PlaceholderImageRef, rec.ImageRef)

	s.Empty(f.Description, "fields reset after success")
	s.Nil(f.Location(), "location reset after success")
}

func (s *ViewSuite) TestCitizenFormSubmitsPickupRequest() {
	f := NewCitizenForm(s.service, staticLocator{loc: report.Location{
		Latitude: 5.6037, Longitude: -0.1870, DisplayAddress: "Legon, Accra",
	}}, "anon-1")
	f.Locate(s.ctx)

	f.MaterialType = "Aluminum Cans"
	f.QuantityEstimate = "one sack"

	rec, err := f.SubmitPickupRequest(s.ctx)
	s.Require().NoError(err)
	s.Equal(report.TypeRecyclingRequest, rec.Type)
	s.Equal("Aluminum Cans", rec.MaterialType)
	s.Equal(report.StatusReady, rec.Status)
}

func (s *ViewSuite) TestCitizenFormKeepsFieldsOnFailure() {
	f := NewCitizenForm(s.service, staticLocator{}, "anon-1")
	f.Description = "no location yet"

	_, err := f.SubmitWasteReport(s.ctx)
	s.Error(err)
	s.Equal("no location yet", f.Description, "failed submit must not reset the form")
}

func (s *ViewSuite) TestCitizenFormAttachImage() {
	f := NewCitizenForm(s.service, staticLocator{loc: report.Location{
		Latitude: 1, Longitude: 2, DisplayAddress: "somewhere",
	}}, "anon-1")
	f.Locate(s.ctx)
	f.Description = "with photo"
	f.AttachImage([]byte("\x89PNG\r\n\x1a\nfakepng"))

	rec, err := f.SubmitWasteReport(s.ctx)
	s.Require().NoError(err)
	s.Contains(rec.ImageRef, "data:")
	s.NotEqual(report.PlaceholderImageRef, rec.ImageRef)
}

func (s *ViewSuite) TestCitizenFormDiscardsLocationAfterClose() {
	locator := &blockingLocator{
		release: make(chan struct{}),
		loc:     report.Location{Latitude: 1, Longitude: 2, DisplayAddress: "late"},
	}
	f := NewCitizenForm(s.service, locator, "anon-1")

	done := make(chan struct{})
	go func() {
		f.Locate(s.ctx)
		close(done)
	}()

	f.Close()
	close(locator.release)
	<-done

	s.Nil(f.Location(), "a resolution landing after teardown must be discarded")
}
