package task

import (
	"context"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
	"github.com/zhangjie0303/zj-dingo-store/internal/region"
	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
)

// PurgeTask removes a DELETED region's record from the Region Meta Store
// entirely. Runs on the shared executor.
type PurgeTask struct{}

func (t *PurgeTask) PreValidate(env *Env, cmd *regioncmd.Command) error {
	r, err := env.Regions.Get(cmd.RegionID)
	if err != nil {
		return errkind.Wrap(errkind.Internal, err, "lookup region %d", cmd.RegionID)
	}
	if r == nil {
		return errkind.New(errkind.RegionNotFound, "region %d not found", cmd.RegionID)
	}
	if r.State != region.StateDeleted {
		return errkind.New(errkind.RegionState, "region %d is in state %s, not %s", cmd.RegionID, r.State, region.StateDeleted)
	}
	return nil
}

func (t *PurgeTask) Run(ctx context.Context, env *Env, cmd *regioncmd.Command) error {
	if err := env.Regions.Delete(cmd.RegionID); err != nil {
		return errkind.Wrap(errkind.Internal, err, "purge region %d", cmd.RegionID)
	}
	env.Metrics.UnregisterRegion(cmd.RegionID)
	return nil
}
