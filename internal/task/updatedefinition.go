package task

import (
	"context"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
	"github.com/zhangjie0303/zj-dingo-store/internal/region"
	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
)

// UpdateDefinitionTask currently supports only HNSW max-elements
// enlargement. A request at or below the current cap is a no-op success,
// not an error; any other parameter change this region's definition does
// not model yet is reported as a parameter error.
type UpdateDefinitionTask struct{}

func (t *UpdateDefinitionTask) PreValidate(env *Env, cmd *regioncmd.Command) error {
	if cmd.Payload.UpdateDefinition == nil {
		return errkind.New(errkind.IllegalParameters, "UPDATE_DEFINITION command %d has no payload", cmd.ID)
	}
	r, err := env.Regions.Get(cmd.RegionID)
	if err != nil {
		return errkind.Wrap(errkind.Internal, err, "lookup region %d", cmd.RegionID)
	}
	if r == nil {
		return errkind.New(errkind.RegionNotFound, "region %d not found", cmd.RegionID)
	}
	if r.State != region.StateNormal {
		return errkind.New(errkind.RegionState, "region %d is in state %s, not %s", cmd.RegionID, r.State, region.StateNormal)
	}
	return nil
}

func (t *UpdateDefinitionTask) Run(ctx context.Context, env *Env, cmd *regioncmd.Command) error {
	p := cmd.Payload.UpdateDefinition
	r, err := env.Regions.Get(cmd.RegionID)
	if err != nil {
		return errkind.Wrap(errkind.Internal, err, "lookup region %d", cmd.RegionID)
	}
	if r == nil {
		return errkind.New(errkind.RegionNotFound, "region %d not found", cmd.RegionID)
	}
	if r.Type != region.TypeIndex {
		return errkind.New(errkind.IllegalParameters, "region %d is not an INDEX region", cmd.RegionID)
	}

	if p.NewMaxElements <= r.Definition.IndexParam.MaxElements {
		// Shrink or equal: no-op success.
		return nil
	}

	idx, ok := env.VectorIndex.GetVectorIndex(cmd.RegionID)
	if ok {
		if err := idx.ResizeMaxElements(p.NewMaxElements); err != nil {
			return errkind.Wrap(errkind.IllegalParameters, err, "resize vector index for region %d", cmd.RegionID)
		}
	}

	r.Definition.IndexParam.MaxElements = p.NewMaxElements
	if err := env.Regions.UpdateRegion(r); err != nil {
		return errkind.Wrap(errkind.Internal, err, "persist new max-elements for region %d", cmd.RegionID)
	}
	return nil
}
