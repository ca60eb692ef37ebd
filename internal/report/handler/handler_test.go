package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"cleanghana/internal/identity"
	"cleanghana/internal/report"
	"cleanghana/internal/report/handler/mocks"
	"cleanghana/internal/report/service"
	"cleanghana/pkg/domainerrors"
)

//go:generate mockgen -source=handler.go -destination=mocks/report-mocks.go -package=mocks Service

type ReportHandlerSuite struct {
	suite.Suite
	ctx      context.Context
	provider *identity.Provider
	token    string
}

func TestReportHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReportHandlerSuite))
}

func (s *ReportHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
	s.provider = identity.NewProvider("")
	_, token, err := s.provider.SignInAnonymously(s.ctx)
	s.Require().NoError(err)
	s.token = token
}

func (s *ReportHandlerSuite) newRouter(svc Service, locator Locator) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(svc, locator, s.provider, logger)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func (s *ReportHandlerSuite) newMockRouter(t *testing.T) (http.Handler, *mocks.MockService, *mocks.MockLocator) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	svc := mocks.NewMockService(ctrl)
	locator := mocks.NewMockLocator(ctrl)
	return s.newRouter(svc, locator), svc, locator
}

func (s *ReportHandlerSuite) do(router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	s.T().Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer "+s.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func (s *ReportHandlerSuite) TestCreateUsesIdentityFromToken() {
	router, svc, _ := s.newMockRouter(s.T())

	svc.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, n report.NewRecord) (report.Record, error) {
			s.True(strings.HasPrefix(n.ReporterID, "anon-"), "reporter must come from the token")
			s.Equal(report.TypeWasteReport, n.Type)
			return report.Record{ID: "rec-1", Type: n.Type, Status: report.StatusPending}, nil
		})

	w := s.do(router, http.MethodPost, "/api/reports", CreateRequest{
		Type:        string(report.TypeWasteReport),
		Location:    &report.Location{Latitude: 5.6, Longitude: -0.18, DisplayAddress: "Legon"},
		Description: "Overflowing bin",
	})

	s.Equal(http.StatusCreated, w.Code)
	var rec report.Record
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &rec))
	s.Equal("rec-1", rec.ID)
}

func (s *ReportHandlerSuite) TestCreateEncodesImageData() {
	router, svc, _ := s.newMockRouter(s.T())

	svc.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, n report.NewRecord) (report.Record, error) {
			s.True(strings.HasPrefix(n.ImageRef, "data:"), "raw bytes must become a data URI")
			return report.Record{ID: "rec-2"}, nil
		})

	w := s.do(router, http.MethodPost, "/api/reports", CreateRequest{
		Type:        string(report.TypeWasteReport),
		Location:    &report.Location{Latitude: 1, Longitude: 2, DisplayAddress: "x"},
		Description: "with photo",
		ImageData:   []byte("\x89PNG\r\n\x1a\nfakepng"),
	})
	s.Equal(http.StatusCreated, w.Code)
}

func (s *ReportHandlerSuite) TestCreateRejectsMissingToken() {
	router, _, _ := s.newMockRouter(s.T())

	req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *ReportHandlerSuite) TestCreateValidationErrorMapsTo400() {
	router, svc, _ := s.newMockRouter(s.T())
	svc.EXPECT().Submit(gomock.Any(), gomock.Any()).
		Return(report.Record{}, domainerrors.New(domainerrors.CodeValidation, "location is required"))

	w := s.do(router, http.MethodPost, "/api/reports", CreateRequest{Type: string(report.TypeWasteReport)})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "validation_failed")
}

func (s *ReportHandlerSuite) TestListFiltersByType() {
	router, svc, _ := s.newMockRouter(s.T())
	svc.EXPECT().List(gomock.Any(), report.Filter{Type: report.TypeRecyclingRequest}).
		Return(report.Snapshot{{ID: "r1", Type: report.TypeRecyclingRequest}}, nil)

	w := s.do(router, http.MethodGet, "/api/reports?type=recycling_request", nil)
	s.Equal(http.StatusOK, w.Code)

	var resp ListResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(1, resp.Count)
	s.Equal("r1", resp.Reports[0].ID)
}

func (s *ReportHandlerSuite) TestListRejectsUnknownType() {
	router, _, _ := s.newMockRouter(s.T())
	w := s.do(router, http.MethodGet, "/api/reports?type=bogus", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ReportHandlerSuite) TestStatusTransition() {
	router, svc, _ := s.newMockRouter(s.T())
	svc.EXPECT().Transition(gomock.Any(), "rec-9", report.StatusResolved, report.RoleAuthority).
		Return(report.Record{ID: "rec-9", Status: report.StatusResolved}, nil)

	w := s.do(router, http.MethodPost, "/api/reports/rec-9/status", StatusRequest{
		Status: string(report.StatusResolved),
		Role:   string(report.RoleAuthority),
	})
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"resolved"`)
}

func (s *ReportHandlerSuite) TestStatusRejectsBadRole() {
	router, _, _ := s.newMockRouter(s.T())
	w := s.do(router, http.MethodPost, "/api/reports/rec-9/status", StatusRequest{
		Status: string(report.StatusResolved),
		Role:   "admin",
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ReportHandlerSuite) TestStatusRejectsNonTerminalTarget() {
	router, _, _ := s.newMockRouter(s.T())
	w := s.do(router, http.MethodPost, "/api/reports/rec-9/status", StatusRequest{
		Status: string(report.StatusPending),
		Role:   string(report.RoleAuthority),
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ReportHandlerSuite) TestStatusForbiddenMapsTo403() {
	router, svc, _ := s.newMockRouter(s.T())
	svc.EXPECT().Transition(gomock.Any(), "rec-9", report.StatusResolved, report.RoleRecycler).
		Return(report.Record{}, domainerrors.New(domainerrors.CodeForbidden, "only an authority may resolve"))

	w := s.do(router, http.MethodPost, "/api/reports/rec-9/status", StatusRequest{
		Status: string(report.StatusResolved),
		Role:   string(report.RoleRecycler),
	})
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *ReportHandlerSuite) TestLocateReturnsResolvedLocation() {
	router, _, locator := s.newMockRouter(s.T())
	locator.EXPECT().Resolve(gomock.Any()).Return(report.Location{
		Latitude: 5.6037, Longitude: -0.1870,
		DisplayAddress: "Legon, Accra (Default Fallback)",
	})

	w := s.do(router, http.MethodGet, "/api/locate", nil)
	s.Equal(http.StatusOK, w.Code)

	var loc report.Location
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &loc))
	s.Equal("Legon, Accra (Default Fallback)", loc.DisplayAddress)
}

// TestStreamDeliversSnapshots runs the SSE endpoint end to end against a
// live in-memory store.
func TestStreamDeliversSnapshots(t *testing.T) {
	store := report.NewMemoryStore(nil)
	defer store.Close()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(store, nil, logger, nil)

	provider := identity.NewProvider("")
	_, token, err := provider.SignInAnonymously(context.Background())
	require.NoError(t, err)

	h := New(svc, nil, provider, logger)
	r := chi.NewRouter()
	h.Register(r)
	server := httptest.NewServer(r)
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/reports/stream?type=waste_report", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readSnapshot := func() report.Snapshot {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var snap report.Snapshot
				require.NoError(t, json.Unmarshal([]byte(data), &snap))
				return snap
			}
		}
	}

	// The initial snapshot arrives before any write.
	assert.Empty(t, readSnapshot())

	_, err = svc.Submit(context.Background(), report.NewRecord{
		Type:        report.TypeWasteReport,
		Location:    &report.Location{Latitude: 5.6, Longitude: -0.18, DisplayAddress: "Legon"},
		ReporterID:  "anon-1",
		Description: "Overflowing bin",
	})
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := readSnapshot()
		if len(snap) == 1 {
			assert.Equal(t, "Overflowing bin", snap[0].Description)
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("snapshot with the new record never arrived")
		}
	}
}
