package task

import (
	"context"

	"github.com/zhangjie0303/zj-dingo-store/internal/engine"
	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
	"github.com/zhangjie0303/zj-dingo-store/internal/region"
	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
)

// CreateTask brings a brand-new region record into existence and stands up
// its raft node. Failure at any step leaves the record in NEW (or absent)
// so a retried CREATE with the same id is permitted.
type CreateTask struct{}

func (t *CreateTask) PreValidate(env *Env, cmd *regioncmd.Command) error {
	p := cmd.Payload.Create
	if p == nil {
		return errkind.New(errkind.IllegalParameters, "CREATE command %d has no payload", cmd.ID)
	}
	existing, err := env.Regions.Get(p.RegionID)
	if err != nil {
		return errkind.Wrap(errkind.Internal, err, "lookup region %d", p.RegionID)
	}
	if existing != nil && existing.State != region.StateNew {
		return errkind.New(errkind.RegionExist, "region %d already exists in state %s", p.RegionID, existing.State)
	}
	return nil
}

func (t *CreateTask) Run(ctx context.Context, env *Env, cmd *regioncmd.Command) error {
	p := cmd.Payload.Create
	if p == nil {
		return errkind.New(errkind.IllegalParameters, "CREATE command %d has no payload", cmd.ID)
	}

	r := &region.Region{
		ID:         p.RegionID,
		Type:       region.Type(p.Type),
		Definition: definitionFromDTO(p.Definition),
		State:      region.StateNew,
		ParentID:   p.ParentID,
	}
	if existing, err := env.Regions.Get(p.RegionID); err != nil {
		return errkind.Wrap(errkind.Internal, err, "lookup region %d", p.RegionID)
	} else if existing == nil {
		if err := env.Regions.Add(r); err != nil {
			return errkind.Wrap(errkind.Internal, err, "persist region %d", p.RegionID)
		}
	}

	env.Metrics.RegisterRegion(p.RegionID)

	meta := region.RaftMeta{}
	lf := func(regionID uint64) engine.RaftEventListener { return engine.NewLoggingRegionListener(regionID) }
	if err := env.Engine.AddNode(ctx, r, meta, lf, false); err != nil {
		return errkind.Wrap(errkind.Internal, err, "add raft node for region %d", p.RegionID)
	}

	target := region.StateNormal
	if p.ParentID != 0 {
		target = region.StateStandby
	}
	if _, err := env.Regions.UpdateState(p.RegionID, target); err != nil {
		return errkind.Wrap(errkind.Internal, err, "transition region %d to %s", p.RegionID, target)
	}
	return nil
}
