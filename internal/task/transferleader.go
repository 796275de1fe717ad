package task

import (
	"context"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
	"github.com/zhangjie0303/zj-dingo-store/internal/region"
	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
)

// TransferLeaderTask asks the engine to move raft leadership to another
// peer. A refusal is reported but leaves the region unchanged: it is not
// treated as a fatal failure of the region itself.
type TransferLeaderTask struct{}

func (t *TransferLeaderTask) PreValidate(env *Env, cmd *regioncmd.Command) error {
	p := cmd.Payload.TransferLeader
	if p == nil {
		return errkind.New(errkind.IllegalParameters, "TRANSFER_LEADER command %d has no payload", cmd.ID)
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
	if p.TargetPeer.StoreID == env.StoreID {
		return errkind.New(errkind.RaftTransferLeader, "transfer-leader target for region %d is self", cmd.RegionID)
	}
	if p.TargetPeer.Host == "" || p.TargetPeer.Host == "0.0.0.0" {
		return errkind.New(errkind.IllegalParameters, "transfer-leader target for region %d has no usable host", cmd.RegionID)
	}
	return nil
}

func (t *TransferLeaderTask) Run(ctx context.Context, env *Env, cmd *regioncmd.Command) error {
	target := peerFromDTO(cmd.Payload.TransferLeader.TargetPeer)
	if err := env.Engine.TransferLeader(cmd.RegionID, target); err != nil {
		return errkind.Wrap(errkind.RaftTransferLeader, err, "transfer leader for region %d to store %d", cmd.RegionID, target.StoreID)
	}
	return nil
}
