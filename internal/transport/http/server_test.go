package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/attacksurface/sentinel/internal/llm"
	"github.com/attacksurface/sentinel/internal/models"
	"github.com/attacksurface/sentinel/internal/store"
	"github.com/attacksurface/sentinel/internal/wsprogress"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRecon struct {
	assets []models.Asset
	err    error
}

func (s stubRecon) RunScan(ctx context.Context, scanID, domain string) ([]models.Asset, error) {
	return s.assets, s.err
}

type stubStore struct {
	records map[string]models.ScanRecord
	saveErr error
	getErr  error
}

func newStubStore() *stubStore {
	return &stubStore{records: map[string]models.ScanRecord{}}
}

func (s *stubStore) Save(ctx context.Context, domain string, assets []models.Asset) (models.ScanRecord, error) {
	if s.saveErr != nil {
		return models.ScanRecord{}, s.saveErr
	}
	record := models.NewScanRecord(domain, assets, time.Now())
	record.ScanID = "scan-fixed-id"
	s.records[record.ScanID] = record
	return record, nil
}

func (s *stubStore) Get(ctx context.Context, scanID string) (models.ScanRecord, bool, error) {
	if s.getErr != nil {
		return models.ScanRecord{}, false, s.getErr
	}
	record, ok := s.records[scanID]
	return record, ok, nil
}

func newTestServer(recon Recon, st store.ScanStore) *Server {
	gateway := llm.NewGateway(nil, nil)
	return NewServer(recon, st, gateway, wsprogress.NewHub())
}

func TestHandleScan_InvalidDomainReturns400(t *testing.T) {
	s := newTestServer(stubRecon{}, newStubStore())
	r := s.Router()

	body, _ := json.Marshal(map[string]string{"domain": "not a domain"})
	req := httptest.NewRequest("POST", "/scan", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestHandleScan_SuccessReturnsLowercasedRecord(t *testing.T) {
	recon := stubRecon{assets: []models.Asset{{Subdomain: "app.example.com", Severity: models.SeverityLow}}}
	st := newStubStore()
	s := newTestServer(recon, st)
	r := s.Router()

	body, _ := json.Marshal(map[string]string{"domain": "EXAMPLE.com"})
	req := httptest.NewRequest("POST", "/scan", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "example.com", resp["domain"])
	assert.Equal(t, float64(1), resp["total_assets"])
}

func TestHandleScan_ReconFailureReturns500(t *testing.T) {
	recon := stubRecon{err: assertErr{}}
	s := newTestServer(recon, newStubStore())
	r := s.Router()

	body, _ := json.Marshal(map[string]string{"domain": "example.com"})
	req := httptest.NewRequest("POST", "/scan", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, 500, w.Code)
}

func TestHandleScan_PersistenceFailureReturns503(t *testing.T) {
	recon := stubRecon{assets: []models.Asset{}}
	st := newStubStore()
	st.saveErr = &store.Error{Kind: store.ErrWriteFailed}
	s := newTestServer(recon, st)
	r := s.Router()

	body, _ := json.Marshal(map[string]string{"domain": "example.com"})
	req := httptest.NewRequest("POST", "/scan", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, 503, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(store.ErrWriteFailed), resp["error"])
}

func TestHandleGetScan_MissingReturns404(t *testing.T) {
	s := newTestServer(stubRecon{}, newStubStore())
	r := s.Router()

	req := httptest.NewRequest("GET", "/scan/does-not-exist", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
}

func TestHandleSummary_MissingScanReturns404(t *testing.T) {
	s := newTestServer(stubRecon{}, newStubStore())
	r := s.Router()

	body, _ := json.Marshal(map[string]string{"scan_id": "nope"})
	req := httptest.NewRequest("POST", "/summary", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
}

func TestHandleSummary_DegradesWhenLLMUnavailable(t *testing.T) {
	st := newStubStore()
	st.records["scan-1"] = models.ScanRecord{ScanID: "scan-1", Domain: "example.com"}
	s := newTestServer(stubRecon{}, st)
	r := s.Router()

	body, _ := json.Marshal(map[string]string{"scan_id": "scan-1"})
	req := httptest.NewRequest("POST", "/summary", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)
	var resp llm.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Summary)
}

func TestHandleSimulate_DeterministicOnlySkipsLLM(t *testing.T) {
	st := newStubStore()
	st.records["scan-1"] = models.ScanRecord{
		ScanID: "scan-1",
		Domain: "example.com",
		Assets: []models.Asset{{Subdomain: "app.example.com", IP: "1.2.3.4", OpenPorts: []int{22}, RiskScore: 60, Severity: models.SeverityHigh}},
	}
	s := newTestServer(stubRecon{}, st)
	s.LLM = llm.NewGateway(narrativeProvider{}, nil)
	r := s.Router()

	body, _ := json.Marshal(map[string]any{"scan_id": "scan-1", "deterministic_only": true})
	req := httptest.NewRequest("POST", "/simulate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)
	var resp struct {
		AttackSimulation models.AttackGraph `json:"attack_simulation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEqual(t, "llm narrative", resp.AttackSimulation.ImpactSummary)
}

// narrativeProvider answers every call with a valid enhancement overlay, so
// any LLM involvement would show up in the graph's impact_summary.
type narrativeProvider struct{}

func (narrativeProvider) Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	return `{"impact_summary":"llm narrative"}`, nil
}

func TestHandlePosture_MissingScanReturns404(t *testing.T) {
	s := newTestServer(stubRecon{}, newStubStore())
	r := s.Router()

	body, _ := json.Marshal(map[string]string{"scan_id": "nope"})
	req := httptest.NewRequest("POST", "/posture", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
}

func TestHandleHealth_ReturnsHealthy(t *testing.T) {
	s := newTestServer(stubRecon{}, newStubStore())
	r := s.Router()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

type assertErr struct{}

func (assertErr) Error() string { return "recon failed" }
