package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
	"github.com/zhangjie0303/zj-dingo-store/internal/task"
)

// recordingTask appends its command id to a shared, mutex-guarded slice so
// tests can assert on execution order.
type recordingTask struct {
	order *[]uint64
	mu    *sync.Mutex
	delay time.Duration
}

func (t *recordingTask) PreValidate(env *task.Env, cmd *regioncmd.Command) error { return nil }

func (t *recordingTask) Run(ctx context.Context, env *task.Env, cmd *regioncmd.Command) error {
	if t.delay > 0 {
		time.Sleep(t.delay)
	}
	t.mu.Lock()
	*t.order = append(*t.order, cmd.ID)
	t.mu.Unlock()
	return nil
}

func newTestEnv() *task.Env {
	return &task.Env{Commands: regioncmd.NewMemLog()}
}

func TestExecutor_RunsJobsInFIFOOrder(t *testing.T) {
	env := newTestEnv()
	e := New(1, env)
	e.Init()
	defer e.Stop()

	var mu sync.Mutex
	var order []uint64

	for i := uint64(1); i <= 5; i++ {
		cmd := &regioncmd.Command{ID: i, RegionID: 1}
		require.NoError(t, env.Commands.Add(cmd))
		ok := e.Execute(context.Background(), &recordingTask{order: &order, mu: &mu}, cmd)
		require.True(t, ok)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 5
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []uint64{1, 2, 3, 4, 5}, order)
}

func TestExecutor_Stop_DrainsQueueThenRejects(t *testing.T) {
	env := newTestEnv()
	e := New(1, env)
	e.Init()

	var mu sync.Mutex
	var order []uint64

	cmd := &regioncmd.Command{ID: 1, RegionID: 1}
	require.NoError(t, env.Commands.Add(cmd))
	require.True(t, e.Execute(context.Background(), &recordingTask{order: &order, mu: &mu, delay: 20 * time.Millisecond}, cmd))

	e.Stop()

	mu.Lock()
	require.Equal(t, []uint64{1}, order)
	mu.Unlock()

	ok := e.Execute(context.Background(), &recordingTask{order: &order, mu: &mu}, &regioncmd.Command{ID: 2, RegionID: 1})
	require.False(t, ok, "Execute must reject work after Stop")
}

func TestExecutor_Stop_IsIdempotent(t *testing.T) {
	env := newTestEnv()
	e := New(1, env)
	e.Init()
	e.Stop()
	require.NotPanics(t, func() { e.Stop() })
}
