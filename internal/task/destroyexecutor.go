package task

import (
	"context"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
)

// DestroyExecutorTask removes the per-region executor named by the command's
// region id. Always dispatched to the shared executor: a task cannot tear
// down the very queue it is running on.
type DestroyExecutorTask struct{}

func (t *DestroyExecutorTask) PreValidate(env *Env, cmd *regioncmd.Command) error {
	if env.RemoveExecutor == nil {
		return errkind.New(errkind.Internal, "no executor removal hook configured")
	}
	return nil
}

func (t *DestroyExecutorTask) Run(ctx context.Context, env *Env, cmd *regioncmd.Command) error {
	env.RemoveExecutor(cmd.RegionID)
	return nil
}
