// Package http is the gin-based API surface: it validates input, invokes
// the core pipeline, and maps every failure mode to the response shape
// spec'd for the service.
package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/attacksurface/sentinel/internal/attackgraph"
	"github.com/attacksurface/sentinel/internal/llm"
	"github.com/attacksurface/sentinel/internal/models"
	"github.com/attacksurface/sentinel/internal/posture"
	"github.com/attacksurface/sentinel/internal/store"
	"github.com/attacksurface/sentinel/internal/wsprogress"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var domainPattern = regexp.MustCompile(`^(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)

// Recon is the scan-execution dependency (satisfied by
// *orchestrator.Orchestrator).
type Recon interface {
	RunScan(ctx context.Context, scanID, domain string) ([]models.Asset, error)
}

// Server wires the core components behind the HTTP contract.
type Server struct {
	Orchestrator Recon
	Store        store.ScanStore
	LLM          *llm.Gateway
	Progress     *wsprogress.Hub
}

func NewServer(o Recon, s store.ScanStore, gateway *llm.Gateway, progress *wsprogress.Hub) *Server {
	return &Server{Orchestrator: o, Store: s, LLM: gateway, Progress: progress}
}

// Router builds the gin engine with every route spec'd for this service.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/health", s.handleHealth)
	r.GET("/ws", s.handleWebsocket)
	r.POST("/scan", s.handleScan)
	r.GET("/scan/:id", s.handleGetScan)
	r.POST("/summary", s.handleSummary)
	r.POST("/simulate", s.handleSimulate)
	r.POST("/posture", s.handlePosture)

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleWebsocket(c *gin.Context) {
	s.Progress.ServeWS(c.Writer, c.Request)
}

type scanRequest struct {
	Domain string `json:"domain" binding:"required"`
}

func (s *Server) handleScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	domain := strings.ToLower(strings.TrimSpace(req.Domain))
	if !domainPattern.MatchString(domain) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid domain"})
		return
	}

	scanID := uuid.NewString()
	assets, err := s.Orchestrator.RunScan(c.Request.Context(), scanID, domain)
	if err != nil {
		log.Printf("http: recon failed for %s: %v", domain, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconnaissance failed"})
		return
	}

	record, err := s.Store.Save(c.Request.Context(), domain, assets)
	if err != nil {
		writeStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"scan_id":      record.ScanID,
		"domain":       record.Domain,
		"total_assets": record.TotalAssets,
		"assets":       record.Assets,
	})
}

func (s *Server) handleGetScan(c *gin.Context) {
	id := c.Param("id")

	record, found, err := s.Store.Get(c.Request.Context(), id)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
		return
	}

	c.JSON(http.StatusOK, record)
}

type scanIDRequest struct {
	ScanID string `json:"scan_id" binding:"required"`
}

func (s *Server) handleSummary(c *gin.Context) {
	var req scanIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	record, found, err := s.Store.Get(c.Request.Context(), req.ScanID)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
		return
	}

	summary := s.LLM.Summarize(c.Request.Context(), record.Domain, record.Assets)
	c.JSON(http.StatusOK, summary)
}

type simulateRequest struct {
	ScanID            string `json:"scan_id" binding:"required"`
	DeterministicOnly bool   `json:"deterministic_only"`
}

func (s *Server) handleSimulate(c *gin.Context) {
	var req simulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	record, found, err := s.Store.Get(c.Request.Context(), req.ScanID)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
		return
	}

	graph := attackgraph.Build(record.Domain, record.Assets, attackgraph.DefaultRiskThreshold)
	if !req.DeterministicOnly {
		graph = s.LLM.Simulate(c.Request.Context(), graph)
	}

	c.JSON(http.StatusOK, gin.H{"attack_simulation": graph})
}

func (s *Server) handlePosture(c *gin.Context) {
	var req scanIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	record, found, err := s.Store.Get(c.Request.Context(), req.ScanID)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
		return
	}

	report := posture.Generate(c.Request.Context(), s.LLM.Posture, record.Domain, record.Assets)
	c.JSON(http.StatusOK, report)
}

func writeStoreError(c *gin.Context, err error) {
	log.Printf("http: persistence failure: %v", err)

	kind := string(store.ErrUnavailable)
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		kind = string(storeErr.Kind)
	}

	c.JSON(http.StatusServiceUnavailable, gin.H{"error": kind})
}
