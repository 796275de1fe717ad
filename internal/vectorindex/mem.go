package vectorindex

import (
	"context"
	"sync"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
)

// memHandle is a fake HNSWIndex used by tests that exercise task logic
// without a real vecgo graph.
type memHandle struct {
	mu          sync.Mutex
	maxElements int
	count       int
}

func (h *memHandle) GetMaxElements() int { h.mu.Lock(); defer h.mu.Unlock(); return h.maxElements }

func (h *memHandle) ResizeMaxElements(newMax int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if newMax <= h.maxElements {
		return nil
	}
	h.maxElements = newMax
	return nil
}

func (h *memHandle) Len() int { h.mu.Lock(); defer h.mu.Unlock(); return h.count }

// MemAdapter is an in-memory Adapter implementation for unit tests, upholding
// the same idempotence contracts as HNSWAdapter without building a real HNSW
// graph.
type MemAdapter struct {
	snap SnapshotManager

	mu      sync.Mutex
	regions map[uint64]*memHandle
}

func NewMemAdapter() *MemAdapter {
	return &MemAdapter{regions: make(map[uint64]*memHandle)}
}

func (a *MemAdapter) GetVectorIndex(regionID uint64) (HNSWIndex, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, ok := a.regions[regionID]
	if !ok {
		return nil, false
	}
	return h, true
}

func (a *MemAdapter) LoadOrBuildVectorIndex(ctx context.Context, regionID uint64, cfg Config) (HNSWIndex, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if h, ok := a.regions[regionID]; ok {
		return h, nil
	}
	maxElements := cfg.MaxElements
	if maxElements <= 0 {
		maxElements = 1
	}
	h := &memHandle{maxElements: maxElements}
	a.regions[regionID] = h
	return h, nil
}

func (a *MemAdapter) DeleteVectorIndex(regionID uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.regions[regionID]; !ok {
		return errkind.New(errkind.VectorIndexNotFound, "no vector index for region %d", regionID)
	}
	delete(a.regions, regionID)
	return nil
}

func (a *MemAdapter) UpdateSnapshotLogID(regionID uint64, logID uint64) error {
	a.mu.Lock()
	_, ok := a.regions[regionID]
	a.mu.Unlock()
	if !ok {
		return errkind.New(errkind.VectorIndexNotFound, "no vector index for region %d", regionID)
	}
	return nil
}

func (a *MemAdapter) GetSnapshotManager() SnapshotManager { return a.snap }

// SetSnapshotManager lets tests attach a FileSnapshotManager (or another
// fake) to a MemAdapter.
func (a *MemAdapter) SetSnapshotManager(s SnapshotManager) { a.snap = s }

// StaticPeerProbe is a fixed-answer PeerProbe fake for Split pre-validate
// tests: every address not in Missing reports the index present.
type StaticPeerProbe struct {
	Missing map[string]bool
}

func (p *StaticPeerProbe) CheckVectorIndexExists(ctx context.Context, peerAddr string, vectorIndexID uint64) (bool, error) {
	if p.Missing != nil && p.Missing[peerAddr] {
		return false, nil
	}
	return true, nil
}
