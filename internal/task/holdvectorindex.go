package task

import (
	"context"
	"log"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
	"github.com/zhangjie0303/zj-dingo-store/internal/vectorindex"
)

// HoldVectorIndexTask loads or builds a region's vector index on demand, or
// drops it. LoadOrBuildVectorIndex is itself idempotent, so a repeated
// is_hold=true is a no-op.
type HoldVectorIndexTask struct{}

func (t *HoldVectorIndexTask) PreValidate(env *Env, cmd *regioncmd.Command) error {
	if cmd.Payload.HoldVectorIndex == nil {
		return errkind.New(errkind.IllegalParameters, "HOLD_VECTOR_INDEX command %d has no payload", cmd.ID)
	}
	r, err := env.Regions.Get(cmd.RegionID)
	if err != nil {
		return errkind.Wrap(errkind.Internal, err, "lookup region %d", cmd.RegionID)
	}
	if r == nil {
		return errkind.New(errkind.RegionNotFound, "region %d not found", cmd.RegionID)
	}
	if _, ok := env.Engine.GetNode(cmd.RegionID); !ok {
		return errkind.New(errkind.RaftNotFound, "no raft node for region %d", cmd.RegionID)
	}
	return nil
}

func (t *HoldVectorIndexTask) Run(ctx context.Context, env *Env, cmd *regioncmd.Command) error {
	p := cmd.Payload.HoldVectorIndex
	r, err := env.Regions.Get(cmd.RegionID)
	if err != nil {
		return errkind.Wrap(errkind.Internal, err, "lookup region %d", cmd.RegionID)
	}
	if r == nil {
		return errkind.New(errkind.RegionNotFound, "region %d not found", cmd.RegionID)
	}

	_, held := env.VectorIndex.GetVectorIndex(cmd.RegionID)

	if p.IsHold {
		if !held {
			cfg := vectorindex.Config{
				Dimension:      r.Definition.IndexParam.Dimension,
				DistanceMetric: r.Definition.IndexParam.DistanceMetric,
				MaxElements:    r.Definition.IndexParam.MaxElements,
			}
			go func() {
				if _, err := env.VectorIndex.LoadOrBuildVectorIndex(context.Background(), cmd.RegionID, cfg); err != nil {
					log.Printf("[ERROR] build vector index for region %d: %v", cmd.RegionID, err)
				}
			}()
		}
	} else if held {
		if err := env.VectorIndex.DeleteVectorIndex(cmd.RegionID); err != nil {
			return errkind.Wrap(errkind.Internal, err, "delete vector index for region %d", cmd.RegionID)
		}
	}

	r.IsHoldVectorIndex = p.IsHold
	if err := env.Regions.UpdateRegion(r); err != nil {
		return errkind.Wrap(errkind.Internal, err, "persist is_hold_vector_index for region %d", cmd.RegionID)
	}
	return nil
}
