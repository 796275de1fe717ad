package task

import (
	"context"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
	"github.com/zhangjie0303/zj-dingo-store/internal/region"
	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
)

// StopTask shuts down an ORPHANed region's raft node. State is retained:
// there is no further transition out of ORPHAN on stop.
type StopTask struct{}

func (t *StopTask) PreValidate(env *Env, cmd *regioncmd.Command) error {
	r, err := env.Regions.Get(cmd.RegionID)
	if err != nil {
		return errkind.Wrap(errkind.Internal, err, "lookup region %d", cmd.RegionID)
	}
	if r == nil {
		return errkind.New(errkind.RegionNotFound, "region %d not found", cmd.RegionID)
	}
	if r.State != region.StateOrphan {
		return errkind.New(errkind.RegionState, "region %d is in state %s, not %s", cmd.RegionID, r.State, region.StateOrphan)
	}
	return nil
}

func (t *StopTask) Run(ctx context.Context, env *Env, cmd *regioncmd.Command) error {
	if err := env.Engine.StopNode(ctx, cmd.RegionID); err != nil {
		return errkind.Wrap(errkind.Internal, err, "stop raft node for region %d", cmd.RegionID)
	}
	return nil
}
