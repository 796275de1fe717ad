package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/vecgo/index/hnsw"
	"github.com/hupe1980/vecgo/metric"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
)

// handle is one region's concrete vector-index instance. vecgo's hnsw.HNSW
// has no notion of a fixed capacity (it grows its node slice unboundedly),
// so GetMaxElements/ResizeMaxElements — HNSW-variant-specific capacity
// controls — are adapter-level bookkeeping enforced on Insert rather than
// something the underlying library provides. This is the
// UpdateDefinition enlargement path's actual effect: it raises the cap this
// adapter checks, not a resize inside vecgo itself. See DESIGN.md.
type handle struct {
	regionID uint64
	cfg      Config

	mu          sync.Mutex
	index       *hnsw.HNSW
	maxElements int
	vectors     [][]float32 // copy of inserted vectors; its length is what Len and Insert's capacity check use
	snapshotLog uint64
}

func (h *handle) GetMaxElements() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxElements
}

func (h *handle) ResizeMaxElements(newMax int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if newMax <= h.maxElements {
		// UpdateDefinition task contract: shrink/no-op requests are a no-op
		// success, never an error.
		return nil
	}
	h.maxElements = newMax
	return nil
}

func (h *handle) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.vectors)
}

// Insert adds a vector to the index, enforcing the adapter-level capacity
// cap. No task inserts vectors directly (that is the client-write path,
// out of scope here) but this is needed to exercise vecgo's hnsw.HNSW
// meaningfully rather than constructing it and never using it.
func (h *handle) Insert(v []float32) (uint32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.vectors) >= h.maxElements {
		return 0, errkind.New(errkind.IllegalParameters, "vector index for region %d is at capacity %d", h.regionID, h.maxElements)
	}
	id, err := h.index.Insert(v)
	if err != nil {
		return 0, err
	}
	h.vectors = append(h.vectors, append([]float32(nil), v...))
	return id, nil
}

func distanceFunc(metricName string) (hnsw.DistanceFunc, error) {
	switch metricName {
	case "", "l2", "euclidean":
		return metric.SquaredL2, nil
	case "cosine":
		return func(v1, v2 []float32) (float32, error) {
			sim, err := metric.CosineSimilarity(v1, v2)
			if err != nil {
				return 0, err
			}
			return 1 - sim, nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported distance metric %q", metricName)
	}
}

// HNSWAdapter implements Adapter over github.com/hupe1980/vecgo/hnsw, one
// instance per INDEX region, grounded on hupe1980-vecgo's own package API
// (hnsw.New, hnsw.Options).
type HNSWAdapter struct {
	tuning HNSWTuning
	snap   SnapshotManager

	mu      sync.RWMutex
	regions map[uint64]*handle
}

// NewHNSWAdapter builds an adapter with the given snapshot manager (e.g. a
// FileSnapshotManager) and HNSW tuning.
func NewHNSWAdapter(tuning HNSWTuning, snap SnapshotManager) *HNSWAdapter {
	return &HNSWAdapter{tuning: tuning, snap: snap, regions: make(map[uint64]*handle)}
}

func (a *HNSWAdapter) GetVectorIndex(regionID uint64) (HNSWIndex, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	h, ok := a.regions[regionID]
	if !ok {
		return nil, false
	}
	return h, true
}

// LoadOrBuildVectorIndex is idempotent: calling it a second time for a
// region that already has a handle returns the existing one unchanged.
func (a *HNSWAdapter) LoadOrBuildVectorIndex(ctx context.Context, regionID uint64, cfg Config) (HNSWIndex, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if h, ok := a.regions[regionID]; ok {
		return h, nil
	}

	df, err := distanceFunc(cfg.DistanceMetric)
	if err != nil {
		return nil, errkind.Wrap(errkind.IllegalParameters, err, "build vector index for region %d", regionID)
	}

	maxElements := cfg.MaxElements
	if maxElements <= 0 {
		maxElements = 1
	}

	idx := hnsw.New(cfg.Dimension, func(o *hnsw.Options) {
		o.M = a.tuning.M
		o.EF = a.tuning.EfSearch
		o.DistanceFunc = df
	})
	_ = a.tuning.EfConstruction // construction-time EF is fixed to o.EF in vecgo's API; retained for documentation/tuning symmetry

	h := &handle{regionID: regionID, cfg: cfg, index: idx, maxElements: maxElements}
	a.regions[regionID] = h
	return h, nil
}

func (a *HNSWAdapter) DeleteVectorIndex(regionID uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.regions[regionID]; !ok {
		return errkind.New(errkind.VectorIndexNotFound, "no vector index for region %d", regionID)
	}
	delete(a.regions, regionID)
	if a.snap != nil {
		return a.snap.DeleteSnapshots(regionID)
	}
	return nil
}

func (a *HNSWAdapter) UpdateSnapshotLogID(regionID uint64, logID uint64) error {
	a.mu.Lock()
	h, ok := a.regions[regionID]
	a.mu.Unlock()
	if !ok {
		return errkind.New(errkind.VectorIndexNotFound, "no vector index for region %d", regionID)
	}
	h.mu.Lock()
	h.snapshotLog = logID
	h.mu.Unlock()
	return nil
}

func (a *HNSWAdapter) GetSnapshotManager() SnapshotManager { return a.snap }

// ErrNoSnapshotManager is returned by a FileSnapshotManager operation when
// misconfigured with an empty directory.
var ErrNoSnapshotManager = errors.New("vectorindex: no snapshot directory configured")
