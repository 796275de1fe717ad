package task

import (
	"context"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
)

// SwitchSplitTask sets or clears the region's externally-visible
// disable_split flag. No other side effects.
type SwitchSplitTask struct{}

func (t *SwitchSplitTask) PreValidate(env *Env, cmd *regioncmd.Command) error {
	if cmd.Payload.SwitchSplit == nil {
		return errkind.New(errkind.IllegalParameters, "SWITCH_SPLIT command %d has no payload", cmd.ID)
	}
	r, err := env.Regions.Get(cmd.RegionID)
	if err != nil {
		return errkind.Wrap(errkind.Internal, err, "lookup region %d", cmd.RegionID)
	}
	if r == nil {
		return errkind.New(errkind.RegionNotFound, "region %d not found", cmd.RegionID)
	}
	return nil
}

func (t *SwitchSplitTask) Run(ctx context.Context, env *Env, cmd *regioncmd.Command) error {
	r, err := env.Regions.Get(cmd.RegionID)
	if err != nil {
		return errkind.Wrap(errkind.Internal, err, "lookup region %d", cmd.RegionID)
	}
	if r == nil {
		return errkind.New(errkind.RegionNotFound, "region %d not found", cmd.RegionID)
	}
	r.DisableSplit = cmd.Payload.SwitchSplit.DisableSplit
	if err := env.Regions.UpdateRegion(r); err != nil {
		return errkind.Wrap(errkind.Internal, err, "persist disable_split for region %d", cmd.RegionID)
	}
	return nil
}
