package vectorindex

import (
	"os"
	"strconv"
)

// HNSWTuning carries the construction-time knobs for the concrete HNSW
// engine. Defaults and env-tunable overrides are grounded on
// pavandhadge-vectron/worker/internal/shard/hnsw_defaults.go's
// DefaultHNSWConfig, simplified to the parameters vecgo's hnsw.Options
// exposes.
type HNSWTuning struct {
	M              int
	EfConstruction int
	EfSearch       int
}

// DefaultHNSWTuning returns the default HNSW construction parameters, with
// DINGO_HNSW_* environment overrides in the same env-tunable-defaults style.
func DefaultHNSWTuning() HNSWTuning {
	t := HNSWTuning{M: 16, EfConstruction: 200, EfSearch: 100}
	if v := os.Getenv("DINGO_HNSW_M"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			t.M = n
		}
	}
	if v := os.Getenv("DINGO_HNSW_EF_CONSTRUCTION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			t.EfConstruction = n
		}
	}
	if v := os.Getenv("DINGO_HNSW_EF_SEARCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			t.EfSearch = n
		}
	}
	return t
}
