package task

import (
	"context"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
)

// SnapshotVectorIndexTask writes a vector-index snapshot and records the log
// id it was taken at.
type SnapshotVectorIndexTask struct{}

func (t *SnapshotVectorIndexTask) PreValidate(env *Env, cmd *regioncmd.Command) error {
	r, err := env.Regions.Get(cmd.RegionID)
	if err != nil {
		return errkind.Wrap(errkind.Internal, err, "lookup region %d", cmd.RegionID)
	}
	if r == nil {
		return errkind.New(errkind.RegionNotFound, "region %d not found", cmd.RegionID)
	}
	if _, ok := env.VectorIndex.GetVectorIndex(cmd.RegionID); !ok {
		return errkind.New(errkind.VectorIndexNotFound, "no vector index for region %d", cmd.RegionID)
	}
	return nil
}

func (t *SnapshotVectorIndexTask) Run(ctx context.Context, env *Env, cmd *regioncmd.Command) error {
	r, err := env.Regions.Get(cmd.RegionID)
	if err != nil {
		return errkind.Wrap(errkind.Internal, err, "lookup region %d", cmd.RegionID)
	}
	if r == nil {
		return errkind.New(errkind.RegionNotFound, "region %d not found", cmd.RegionID)
	}

	sm := env.VectorIndex.GetSnapshotManager()
	if sm == nil {
		return errkind.New(errkind.Internal, "no snapshot manager configured")
	}
	logID := r.RaftMeta.AppliedIndex
	if err := sm.WriteSnapshot(cmd.RegionID, logID); err != nil {
		return errkind.Wrap(errkind.Internal, err, "write vector-index snapshot for region %d", cmd.RegionID)
	}
	if err := env.VectorIndex.UpdateSnapshotLogID(cmd.RegionID, logID); err != nil {
		return errkind.Wrap(errkind.Internal, err, "update snapshot log id for region %d", cmd.RegionID)
	}
	return nil
}
