package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zhangjie0303/zj-dingo-store/internal/engine"
	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
	"github.com/zhangjie0303/zj-dingo-store/internal/region"
	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
)

// SplitTask submits a split as an async replicated write on the parent's
// raft group. The actual NORMAL->SPLITTING->NORMAL (parent) and
// STANDBY->NORMAL (child) transitions happen in region.SplitApplier, which
// the engine invokes from its own apply path once the write commits,
// external to this task; Run returns right after handing the batch to
// AsyncWrite and waits neither for acceptance nor for commit.
type SplitTask struct{}

// probeTimeout bounds the whole follower vector-index probe in PreValidate.
const probeTimeout = 5 * time.Second

func (t *SplitTask) parentAndChild(env *Env, cmd *regioncmd.Command) (*region.Region, *region.Region, *regioncmd.SplitPayload, error) {
	p := cmd.Payload.Split
	if p == nil {
		return nil, nil, nil, errkind.New(errkind.IllegalParameters, "SPLIT command %d has no payload", cmd.ID)
	}
	parent, err := env.Regions.Get(p.SplitFromRegionID)
	if err != nil {
		return nil, nil, nil, errkind.Wrap(errkind.Internal, err, "lookup parent region %d", p.SplitFromRegionID)
	}
	if parent == nil {
		return nil, nil, nil, errkind.New(errkind.RegionNotFound, "parent region %d not found", p.SplitFromRegionID)
	}
	child, err := env.Regions.Get(p.SplitToRegionID)
	if err != nil {
		return nil, nil, nil, errkind.Wrap(errkind.Internal, err, "lookup child region %d", p.SplitToRegionID)
	}
	if child == nil {
		return nil, nil, nil, errkind.New(errkind.RegionNotFound, "pre-created child region %d not found", p.SplitToRegionID)
	}
	return parent, child, p, nil
}

func (t *SplitTask) PreValidate(env *Env, cmd *regioncmd.Command) error {
	parent, _, p, err := t.parentAndChild(env, cmd)
	if err != nil {
		return err
	}

	if string(p.SplitWatershedKey) <= string(parent.Definition.StartKey) || string(p.SplitWatershedKey) >= string(parent.Definition.EndKey) {
		return errkind.New(errkind.KeyOutOfRange, "split key for region %d not strictly inside parent range", p.SplitFromRegionID)
	}
	if parent.State != region.StateNormal && parent.State != region.StateStandby {
		return errkind.New(errkind.RegionState, "parent region %d is in state %s, not splittable", p.SplitFromRegionID, parent.State)
	}

	node, ok := env.Engine.GetNode(p.SplitFromRegionID)
	if !ok {
		return errkind.New(errkind.RaftNotFound, "no raft node for parent region %d", p.SplitFromRegionID)
	}
	if !node.IsLeader() {
		return errkind.New(errkind.RaftNotLeader, "parent region %d is not raft leader", p.SplitFromRegionID)
	}

	if parent.Type == region.TypeIndex {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		if err := t.probeFollowerIndexes(ctx, env, parent); err != nil {
			return err
		}
	}
	return nil
}

// probeFollowerIndexes polls each follower in definition order and aborts on
// the first one that reports the vector index missing, rather than
// gathering every follower's answer first. "Sequential, first miss aborts"
// is the simpler contract and the one this adapter implements. See
// DESIGN.md.
func (t *SplitTask) probeFollowerIndexes(ctx context.Context, env *Env, parent *region.Region) error {
	if env.PeerProbe == nil {
		return nil
	}
	for _, peer := range parent.Definition.Peers {
		if peer.StoreID == env.StoreID {
			continue
		}
		addr := fmt.Sprintf("%s:%d", peer.Host, peer.Port)
		present, err := env.PeerProbe.CheckVectorIndexExists(ctx, addr, parent.Definition.IndexID)
		if err != nil {
			return errkind.Wrap(errkind.Internal, err, "probe vector index on peer %s", addr)
		}
		if !present {
			return errkind.New(errkind.VectorIndexNotFound, "follower %s has no vector index for region %d", addr, parent.ID)
		}
	}
	return nil
}

func (t *SplitTask) Run(ctx context.Context, env *Env, cmd *regioncmd.Command) error {
	parent, _, p, err := t.parentAndChild(env, cmd)
	if err != nil {
		return err
	}

	batch, err := json.Marshal(region.SplitBatch{
		SplitFromRegionID: p.SplitFromRegionID,
		SplitToRegionID:   p.SplitToRegionID,
		SplitWatershedKey: p.SplitWatershedKey,
	})
	if err != nil {
		return errkind.Wrap(errkind.Internal, err, "encode split batch for region %d", p.SplitFromRegionID)
	}

	// The task's own job is submission; the NORMAL->SPLITTING->NORMAL and
	// STANDBY->NORMAL transitions happen later, when the engine applies this
	// batch through region.SplitApplier, external to this task. Run returns
	// right after handing the batch to AsyncWrite; a commit failure is only
	// logged from the callback.
	env.Engine.AsyncWrite(ctx, parent.ID, engine.WriteBatch(batch), func(err error) {
		if err != nil {
			logFailure(cmd, errkind.Wrap(errkind.Internal, err, "split for region %d failed to commit", p.SplitFromRegionID))
		}
	})
	return nil
}
