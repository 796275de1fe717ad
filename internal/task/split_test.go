package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
	"github.com/zhangjie0303/zj-dingo-store/internal/region"
	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
	"github.com/zhangjie0303/zj-dingo-store/internal/vectorindex"
)

func addStandbyChild(t *testing.T, env *Env, id uint64, parentID uint64) {
	r := &region.Region{
		ID: id, Type: region.TypeStore, State: region.StateNew, ParentID: parentID,
		Definition: region.Definition{StartKey: []byte{byte(id)}, EndKey: []byte{byte(id) + 1}},
	}
	require.NoError(t, env.Regions.Add(r))
	_, err := env.Regions.UpdateState(id, region.StateStandby)
	require.NoError(t, err)
}

func splitCmd(parentID, childID uint64, watershed byte) *regioncmd.Command {
	return &regioncmd.Command{
		RegionID: parentID,
		Payload: regioncmd.Payload{Split: &regioncmd.SplitPayload{
			SplitFromRegionID: parentID,
			SplitToRegionID:   childID,
			SplitWatershedKey: []byte{watershed},
		}},
	}
}

func TestSplitTask_PreValidate_RejectsWatershedOutsideParentRange(t *testing.T) {
	env := newFakeEnv()
	addNormalRegion(t, env, 10)
	addStandbyChild(t, env, 11, 10)

	task := &SplitTask{}
	err := task.PreValidate(env, splitCmd(10, 11, 20))
	require.True(t, errkind.Is(err, errkind.KeyOutOfRange))
}

func TestSplitTask_PreValidate_RejectsNonLeaderParent(t *testing.T) {
	env := newFakeEnv()
	addNormalRegion(t, env, 10)
	addStandbyChild(t, env, 11, 10)
	require.NoError(t, env.Engine.TransferLeader(10, region.Peer{StoreID: 2}))

	task := &SplitTask{}
	err := task.PreValidate(env, splitCmd(10, 11, 5))
	require.True(t, errkind.Is(err, errkind.RaftNotLeader))
}

func TestSplitTask_PreValidate_AbortsOnFirstMissingFollowerIndex(t *testing.T) {
	env := newFakeEnv()
	r := &region.Region{
		ID: 10, Type: region.TypeIndex, State: region.StateNew,
		Definition: region.Definition{
			StartKey: []byte{0}, EndKey: []byte{10},
			Peers: []region.Peer{
				{StoreID: 1, Host: "self", Port: 1},
				{StoreID: 2, Host: "peer-b", Port: 9191},
			},
		},
	}
	require.NoError(t, env.Regions.Add(r))
	_, err := env.Regions.UpdateState(10, region.StateNormal)
	require.NoError(t, err)
	require.NoError(t, env.Engine.AddNode(context.Background(), r, region.RaftMeta{}, nil, false))
	addStandbyChild(t, env, 11, 10)

	env.PeerProbe = &vectorindex.StaticPeerProbe{Missing: map[string]bool{"peer-b:9191": true}}

	task := &SplitTask{}
	err = task.PreValidate(env, splitCmd(10, 11, 5))
	require.True(t, errkind.Is(err, errkind.VectorIndexNotFound))
}

func TestSplitTask_Run_ReturnsWithoutWaitingForCommit(t *testing.T) {
	env := newFakeEnv()
	addNormalRegion(t, env, 10)
	addStandbyChild(t, env, 11, 10)

	task := &SplitTask{}
	start := time.Now()
	require.NoError(t, task.Run(context.Background(), env, splitCmd(10, 11, 5)))
	require.Less(t, time.Since(start), 100*time.Millisecond, "Run must return on submission, not on commit")
}
