package task

import (
	"context"
	"time"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
	"github.com/zhangjie0303/zj-dingo-store/internal/region"
	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
)

// DeleteTask tears a region down and, as its terminal step, removes the
// record from the Region Meta Store. Every sub-step is individually
// idempotent so the best-effort sequence can be safely retried from wherever
// it left off.
type DeleteTask struct{}

func (t *DeleteTask) PreValidate(env *Env, cmd *regioncmd.Command) error {
	r, err := env.Regions.Get(cmd.RegionID)
	if err != nil {
		return errkind.Wrap(errkind.Internal, err, "lookup region %d", cmd.RegionID)
	}
	if r == nil {
		return errkind.New(errkind.RegionNotFound, "region %d not found", cmd.RegionID)
	}
	switch r.State {
	case region.StateDeleting:
		return errkind.New(errkind.RegionDeleting, "region %d is already deleting", cmd.RegionID)
	case region.StateDeleted:
		return errkind.New(errkind.RegionDeleted, "region %d is already deleted", cmd.RegionID)
	case region.StateSplitting:
		return errkind.New(errkind.RegionSplitting, "region %d is splitting", cmd.RegionID)
	case region.StateMerging:
		return errkind.New(errkind.RegionState, "region %d is merging", cmd.RegionID)
	}
	return nil
}

func (t *DeleteTask) Run(ctx context.Context, env *Env, cmd *regioncmd.Command) error {
	r, err := env.Regions.Get(cmd.RegionID)
	if err != nil {
		return errkind.Wrap(errkind.Internal, err, "lookup region %d", cmd.RegionID)
	}
	if r == nil {
		return errkind.New(errkind.RegionNotFound, "region %d not found", cmd.RegionID)
	}

	if r.State != region.StateDeleting && r.State != region.StateDeleted {
		if _, err := env.Regions.UpdateState(cmd.RegionID, region.StateDeleting); err != nil {
			return errkind.Wrap(errkind.Internal, err, "transition region %d to DELETING", cmd.RegionID)
		}
	}

	if err := env.Engine.DestroyNode(ctx, cmd.RegionID); err != nil {
		return errkind.Wrap(errkind.Internal, err, "destroy raft node for region %d", cmd.RegionID)
	}

	// Deleting the region's key range from the raw row-codec'd KV engine is
	// out of scope: that engine is not modeled here.

	if r.Type == region.TypeIndex {
		if err := env.VectorIndex.DeleteVectorIndex(cmd.RegionID); err != nil && !errkind.Is(err, errkind.VectorIndexNotFound) {
			return errkind.Wrap(errkind.Internal, err, "delete vector index for region %d", cmd.RegionID)
		}
	}

	if env.Dispatch != nil && env.NextCommandID != nil {
		destroyCmd := &regioncmd.Command{
			ID:              env.NextCommandID(),
			RegionID:        cmd.RegionID,
			Kind:            regioncmd.KindDestroyExecutor,
			CreateTimestamp: time.Now(),
		}
		if err := env.Dispatch.Dispatch(ctx, destroyCmd); err != nil {
			return errkind.Wrap(errkind.Internal, err, "dispatch DESTROY_EXECUTOR for region %d", cmd.RegionID)
		}
	}

	if r.State != region.StateDeleted {
		if _, err := env.Regions.UpdateState(cmd.RegionID, region.StateDeleted); err != nil {
			return errkind.Wrap(errkind.Internal, err, "transition region %d to DELETED", cmd.RegionID)
		}
	}
	env.Metrics.UnregisterRegion(cmd.RegionID)

	if err := env.Regions.Delete(cmd.RegionID); err != nil {
		return errkind.Wrap(errkind.Internal, err, "remove region %d from meta store", cmd.RegionID)
	}
	return nil
}
