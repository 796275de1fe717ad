// Package vectorindex is the Vector-Index Adapter (component D): a per-region
// vector-index lifecycle facade over a pluggable HNSW engine. The underlying
// index math (construction, distance kernels, SIMD) is out of scope here —
// this package only owns load/build/delete/resize/snapshot lifecycle, built
// on github.com/hupe1980/vecgo's hnsw package.
package vectorindex

import (
	"context"
)

// Config is the parameter set needed to build one region's vector index,
// mirroring region.IndexParameter plus the HNSW construction knobs in
// defaults.go.
type Config struct {
	Dimension      int
	DistanceMetric string
	MaxElements    int
}

// SnapshotManager persists and removes on-disk vector-index snapshots.
// Exposed separately via GetSnapshotManager.
type SnapshotManager interface {
	WriteSnapshot(regionID uint64, logID uint64) error
	DeleteSnapshots(regionID uint64) error
}

// PeerProbe checks a remote peer for the presence of a vector index over
// RPC, without fabricating a wire format (transport is out of scope here).
type PeerProbe interface {
	CheckVectorIndexExists(ctx context.Context, peerAddr string, vectorIndexID uint64) (bool, error)
}

// HNSWIndex is the subset of HNSW-variant-specific capability that a
// concrete per-region index handle exposes.
type HNSWIndex interface {
	GetMaxElements() int
	ResizeMaxElements(newMax int) error
	Len() int
}

// Adapter is the Vector-Index Adapter's capability set.
type Adapter interface {
	GetVectorIndex(regionID uint64) (HNSWIndex, bool)
	LoadOrBuildVectorIndex(ctx context.Context, regionID uint64, cfg Config) (HNSWIndex, error)
	DeleteVectorIndex(regionID uint64) error
	UpdateSnapshotLogID(regionID uint64, logID uint64) error
	GetSnapshotManager() SnapshotManager
}
