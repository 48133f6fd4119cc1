package store

import (
	"context"
	"sync"
	"time"

	"github.com/attacksurface/sentinel/internal/models"
	"github.com/google/uuid"
)

// Memory is an in-process ScanStore, used for local development and as the
// fallback when no MONGO_URI is configured. It never fails.
type Memory struct {
	mu      sync.RWMutex
	records map[string]models.ScanRecord
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]models.ScanRecord)}
}

func (m *Memory) Save(ctx context.Context, domain string, assets []models.Asset) (models.ScanRecord, error) {
	record := models.NewScanRecord(domain, assets, time.Now())
	record.ScanID = uuid.NewString()

	m.mu.Lock()
	m.records[record.ScanID] = record
	m.mu.Unlock()

	return record, nil
}

func (m *Memory) Get(ctx context.Context, scanID string) (models.ScanRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[scanID]
	return record, ok, nil
}
