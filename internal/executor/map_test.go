package executor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
	"github.com/zhangjie0303/zj-dingo-store/internal/task"
)

func TestMap_EnsureExecutor_ReusesExisting(t *testing.T) {
	m := NewMap(&task.Env{Commands: regioncmd.NewMemLog()})
	defer m.StopAll()

	e1 := m.EnsureExecutor(10)
	e2 := m.EnsureExecutor(10)
	require.Same(t, e1, e2)

	got, ok := m.Get(10)
	require.True(t, ok)
	require.Same(t, e1, got)
}

func TestMap_Shared_IsDistinctFromRegionExecutors(t *testing.T) {
	m := NewMap(&task.Env{Commands: regioncmd.NewMemLog()})
	defer m.StopAll()

	shared := m.Shared()
	require.NotNil(t, shared)

	regionExec := m.EnsureExecutor(10)
	require.NotSame(t, shared, regionExec)
}

func TestMap_Remove_StopsAndUnregisters(t *testing.T) {
	m := NewMap(&task.Env{Commands: regioncmd.NewMemLog()})
	defer m.StopAll()

	m.EnsureExecutor(10)
	m.Remove(10)

	_, ok := m.Get(10)
	require.False(t, ok)
}

func TestMap_Remove_UnknownRegionIsNoOp(t *testing.T) {
	m := NewMap(&task.Env{Commands: regioncmd.NewMemLog()})
	defer m.StopAll()

	require.NotPanics(t, func() { m.Remove(999) })
}
