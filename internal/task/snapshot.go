package task

import (
	"context"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
)

// SnapshotTask takes a raft snapshot unconditionally, whether the region's
// node is leader or follower. A failure is reported but never changes the
// region's state.
type SnapshotTask struct{}

func (t *SnapshotTask) PreValidate(env *Env, cmd *regioncmd.Command) error {
	if _, ok := env.Engine.GetNode(cmd.RegionID); !ok {
		return errkind.New(errkind.RaftNotFound, "no raft node for region %d", cmd.RegionID)
	}
	return nil
}

func (t *SnapshotTask) Run(ctx context.Context, env *Env, cmd *regioncmd.Command) error {
	if err := env.Engine.DoSnapshot(ctx, cmd.RegionID); err != nil {
		return errkind.Wrap(errkind.Internal, err, "snapshot region %d", cmd.RegionID)
	}
	return nil
}
