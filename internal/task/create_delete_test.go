package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
	"github.com/zhangjie0303/zj-dingo-store/internal/region"
	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
)

func newCreateCmd(regionID uint64) *regioncmd.Command {
	return &regioncmd.Command{
		RegionID: regionID,
		Payload: regioncmd.Payload{Create: &regioncmd.CreatePayload{
			RegionID: regionID,
			Type:     int(region.TypeStore),
			Definition: regioncmd.DefinitionDTO{
				StartKey: []byte{0},
				EndKey:   []byte{10},
				Peers:    []regioncmd.PeerDTO{{StoreID: 1}},
			},
		}},
	}
}

func TestCreateTask_PreValidate_RejectsDuplicateOnNormalRegion(t *testing.T) {
	env := newFakeEnv()
	task := &CreateTask{}
	cmd := newCreateCmd(10)

	require.NoError(t, task.PreValidate(env, cmd))
	require.NoError(t, task.Run(context.Background(), env, cmd))

	// Region is now NORMAL; a duplicate CREATE must be rejected...
	err := task.PreValidate(env, cmd)
	require.True(t, errkind.Is(err, errkind.RegionExist))
}

func TestCreateTask_PreValidate_AllowsRetryAfterPartialFailure(t *testing.T) {
	env := newFakeEnv()
	// Simulate a CREATE that persisted the record but crashed before
	// advancing past NEW.
	require.NoError(t, env.Regions.Add(&region.Region{
		ID: 10, Type: region.TypeStore, State: region.StateNew,
		Definition: region.Definition{StartKey: []byte{0}, EndKey: []byte{10}},
	}))

	task := &CreateTask{}
	require.NoError(t, task.PreValidate(env, newCreateCmd(10)))
}

func TestCreateTask_PreValidate_RejectsDeletedRegionUntilPurged(t *testing.T) {
	env := newFakeEnv()
	require.NoError(t, env.Regions.Add(&region.Region{
		ID: 10, Type: region.TypeStore, State: region.StateDeleted,
	}))

	task := &CreateTask{}
	err := task.PreValidate(env, newCreateCmd(10))
	require.True(t, errkind.Is(err, errkind.RegionExist), "a DELETED region must not be reusable before PURGE removes it")

	require.NoError(t, env.Regions.Delete(10))
	require.NoError(t, task.PreValidate(env, newCreateCmd(10)))
}

func TestCreateTask_Run_RegistersRegionMetrics(t *testing.T) {
	env := newFakeEnv()
	task := &CreateTask{}
	cmd := newCreateCmd(10)
	require.NoError(t, task.Run(context.Background(), env, cmd))

	require.NotNil(t, env.Metrics.Get(10))
	r, err := env.Regions.Get(10)
	require.NoError(t, err)
	require.Equal(t, region.StateNormal, r.State)
}

func TestCreateTask_Run_SplitChildLandsInStandby(t *testing.T) {
	env := newFakeEnv()
	task := &CreateTask{}
	cmd := newCreateCmd(11)
	cmd.Payload.Create.ParentID = 10
	require.NoError(t, task.Run(context.Background(), env, cmd))

	r, err := env.Regions.Get(11)
	require.NoError(t, err)
	require.Equal(t, region.StateStandby, r.State)
}

func TestDeleteTask_PreValidate_RejectsAlreadyDeleted(t *testing.T) {
	env := newFakeEnv()
	addNormalRegion(t, env, 10)
	_, err := env.Regions.UpdateState(10, region.StateDeleting)
	require.NoError(t, err)
	_, err = env.Regions.UpdateState(10, region.StateDeleted)
	require.NoError(t, err)

	task := &DeleteTask{}
	err = task.PreValidate(env, &regioncmd.Command{RegionID: 10})
	require.True(t, errkind.Is(err, errkind.RegionDeleted))
}

func TestDeleteTask_Run_SelfDispatchesDestroyExecutorWhenWired(t *testing.T) {
	env := newFakeEnv()
	addNormalRegion(t, env, 10)

	var dispatched *regioncmd.Command
	env.Dispatch = dispatcherFunc(func(ctx context.Context, cmd *regioncmd.Command) error {
		dispatched = cmd
		return nil
	})
	env.NextCommandID = func() uint64 { return 42 }

	task := &DeleteTask{}
	require.NoError(t, task.Run(context.Background(), env, &regioncmd.Command{RegionID: 10}))

	require.NotNil(t, dispatched)
	require.Equal(t, regioncmd.KindDestroyExecutor, dispatched.Kind)
	require.Equal(t, uint64(10), dispatched.RegionID)
	require.Equal(t, uint64(42), dispatched.ID)

	r, err := env.Regions.Get(10)
	require.NoError(t, err)
	require.Nil(t, r, "DELETE's terminal step must remove region 10 from the meta store")
}

type dispatcherFunc func(ctx context.Context, cmd *regioncmd.Command) error

func (f dispatcherFunc) Dispatch(ctx context.Context, cmd *regioncmd.Command) error { return f(ctx, cmd) }
