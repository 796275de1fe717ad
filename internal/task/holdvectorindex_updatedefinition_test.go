package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
	"github.com/zhangjie0303/zj-dingo-store/internal/region"
	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
	"github.com/zhangjie0303/zj-dingo-store/internal/vectorindex"
)

func addIndexRegion(t *testing.T, env *Env, id uint64, maxElements int) *region.Region {
	r := &region.Region{
		ID: id, Type: region.TypeIndex, State: region.StateNew,
		Definition: region.Definition{
			StartKey: []byte{byte(id)}, EndKey: []byte{byte(id) + 1},
			Peers:      []region.Peer{{StoreID: 1}},
			IndexParam: region.IndexParameter{Dimension: 4, DistanceMetric: "l2", MaxElements: maxElements},
		},
	}
	require.NoError(t, env.Regions.Add(r))
	_, err := env.Regions.UpdateState(id, region.StateNormal)
	require.NoError(t, err)
	require.NoError(t, env.Engine.AddNode(context.Background(), r, region.RaftMeta{}, nil, false))
	got, err := env.Regions.Get(id)
	require.NoError(t, err)
	return got
}

func holdCmd(regionID uint64, isHold bool) *regioncmd.Command {
	return &regioncmd.Command{RegionID: regionID, Payload: regioncmd.Payload{HoldVectorIndex: &regioncmd.HoldVectorIndexPayload{IsHold: isHold}}}
}

func TestHoldVectorIndexTask_PreValidate_RejectsMissingRaftNode(t *testing.T) {
	env := newFakeEnv()
	require.NoError(t, env.Regions.Add(&region.Region{ID: 10, Type: region.TypeIndex, State: region.StateNew,
		Definition: region.Definition{StartKey: []byte{0}, EndKey: []byte{10}}}))

	task := &HoldVectorIndexTask{}
	err := task.PreValidate(env, holdCmd(10, true))
	require.True(t, errkind.Is(err, errkind.RaftNotFound))
}

func TestHoldVectorIndexTask_Run_HoldFalseWithoutPriorHoldIsNoOp(t *testing.T) {
	env := newFakeEnv()
	addIndexRegion(t, env, 10, 100)

	task := &HoldVectorIndexTask{}
	require.NoError(t, task.Run(context.Background(), env, holdCmd(10, false)))

	r, err := env.Regions.Get(10)
	require.NoError(t, err)
	require.False(t, r.IsHoldVectorIndex)
	_, held := env.VectorIndex.GetVectorIndex(10)
	require.False(t, held)
}

func TestHoldVectorIndexTask_Run_DropsHeldIndex(t *testing.T) {
	env := newFakeEnv()
	addIndexRegion(t, env, 10, 100)
	_, err := env.VectorIndex.LoadOrBuildVectorIndex(context.Background(), 10, vectorindex.Config{Dimension: 4, MaxElements: 100})
	require.NoError(t, err)

	task := &HoldVectorIndexTask{}
	require.NoError(t, task.Run(context.Background(), env, holdCmd(10, false)))

	_, held := env.VectorIndex.GetVectorIndex(10)
	require.False(t, held)
	r, err := env.Regions.Get(10)
	require.NoError(t, err)
	require.False(t, r.IsHoldVectorIndex)
}

func updateDefCmd(regionID uint64, newMax int) *regioncmd.Command {
	return &regioncmd.Command{RegionID: regionID, Payload: regioncmd.Payload{UpdateDefinition: &regioncmd.UpdateDefinitionPayload{NewMaxElements: newMax}}}
}

func TestUpdateDefinitionTask_PreValidate_RejectsNonNormalRegion(t *testing.T) {
	env := newFakeEnv()
	require.NoError(t, env.Regions.Add(&region.Region{ID: 10, Type: region.TypeIndex, State: region.StateNew,
		Definition: region.Definition{StartKey: []byte{0}, EndKey: []byte{10}}}))

	task := &UpdateDefinitionTask{}
	err := task.PreValidate(env, updateDefCmd(10, 200))
	require.True(t, errkind.Is(err, errkind.RegionState))
}

func TestUpdateDefinitionTask_Run_ShrinkRequestIsNoOp(t *testing.T) {
	env := newFakeEnv()
	addIndexRegion(t, env, 10, 100)

	task := &UpdateDefinitionTask{}
	require.NoError(t, task.Run(context.Background(), env, updateDefCmd(10, 50)))

	r, err := env.Regions.Get(10)
	require.NoError(t, err)
	require.Equal(t, 100, r.Definition.IndexParam.MaxElements)
}

func TestUpdateDefinitionTask_Run_EnlargeResizesLiveIndex(t *testing.T) {
	env := newFakeEnv()
	addIndexRegion(t, env, 10, 100)
	_, err := env.VectorIndex.LoadOrBuildVectorIndex(context.Background(), 10, vectorindex.Config{Dimension: 4, MaxElements: 100})
	require.NoError(t, err)

	task := &UpdateDefinitionTask{}
	require.NoError(t, task.Run(context.Background(), env, updateDefCmd(10, 200)))

	r, err := env.Regions.Get(10)
	require.NoError(t, err)
	require.Equal(t, 200, r.Definition.IndexParam.MaxElements)
}

func TestUpdateDefinitionTask_Run_RejectsNonIndexRegion(t *testing.T) {
	env := newFakeEnv()
	addNormalRegion(t, env, 10)

	task := &UpdateDefinitionTask{}
	err := task.Run(context.Background(), env, updateDefCmd(10, 200))
	require.True(t, errkind.Is(err, errkind.IllegalParameters))
}
