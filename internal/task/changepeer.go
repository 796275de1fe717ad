package task

import (
	"context"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
	"github.com/zhangjie0303/zj-dingo-store/internal/region"
	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
)

// ChangePeerTask applies a new peer set to a region's raft group. LEARNER
// peers are retained in the definition but filtered out of the voter set
// handed to the engine.
type ChangePeerTask struct{}

func (t *ChangePeerTask) region(env *Env, cmd *regioncmd.Command) (*region.Region, error) {
	r, err := env.Regions.Get(cmd.RegionID)
	if err != nil {
		return nil, errkind.Wrap(errkind.Internal, err, "lookup region %d", cmd.RegionID)
	}
	if r == nil {
		return nil, errkind.New(errkind.RegionNotFound, "region %d not found", cmd.RegionID)
	}
	return r, nil
}

func (t *ChangePeerTask) PreValidate(env *Env, cmd *regioncmd.Command) error {
	if cmd.Payload.ChangePeer == nil {
		return errkind.New(errkind.IllegalParameters, "CHANGE_PEER command %d has no payload", cmd.ID)
	}
	r, err := t.region(env, cmd)
	if err != nil {
		return err
	}
	if r.State != region.StateNormal {
		return errkind.New(errkind.RegionState, "region %d is in state %s, not %s", cmd.RegionID, r.State, region.StateNormal)
	}
	node, ok := env.Engine.GetNode(cmd.RegionID)
	if !ok {
		return errkind.New(errkind.RaftNotFound, "no raft node for region %d", cmd.RegionID)
	}
	if !node.IsLeader() {
		return errkind.New(errkind.RaftNotLeader, "region %d is not raft leader", cmd.RegionID)
	}
	return nil
}

func (t *ChangePeerTask) Run(ctx context.Context, env *Env, cmd *regioncmd.Command) error {
	r, err := t.region(env, cmd)
	if err != nil {
		return err
	}
	newPeers := peersFromDTO(cmd.Payload.ChangePeer.NewDefinitionPeers)

	voters := make([]region.Peer, 0, len(newPeers))
	for _, p := range newPeers {
		if p.Role == region.RoleVoter {
			voters = append(voters, p)
		}
	}
	if err := env.Engine.ChangeNode(ctx, cmd.RegionID, voters); err != nil {
		return errkind.Wrap(errkind.Internal, err, "change voter set for region %d", cmd.RegionID)
	}

	r.Definition.Peers = newPeers
	r.Epoch.ConfVersion++
	if err := env.Regions.UpdateRegion(r); err != nil {
		return errkind.Wrap(errkind.Internal, err, "persist new peer set for region %d", cmd.RegionID)
	}
	return nil
}
