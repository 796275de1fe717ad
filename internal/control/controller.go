// Package control implements the Region Controller (component G): the
// single entry point that turns an incoming command into a running task on
// the right executor, grounded on pavandhadge-vectron/worker/internal/shard's
// Manager as "the thing that owns dispatch for every region this store
// hosts", generalized from shard-assignment reconciliation to a
// command dispatch and recovery model.
package control

import (
	"context"
	"sync/atomic"

	"github.com/zhangjie0303/zj-dingo-store/internal/engine"
	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
	"github.com/zhangjie0303/zj-dingo-store/internal/executor"
	"github.com/zhangjie0303/zj-dingo-store/internal/region"
	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
	"github.com/zhangjie0303/zj-dingo-store/internal/task"
)

// Coordinator is the placement-driver-facing side of the store: its only
// obligation here is to accept an early, out-of-band heartbeat request.
// gRPC transport to an actual coordinator is out of scope here;
// NoopCoordinator below is the default.
type Coordinator interface {
	TriggerHeartbeat(regionID uint64)
}

// NoopCoordinator discards every trigger; used where no coordinator
// transport is wired up (tests, ENG_MEMORY-only deployments).
type NoopCoordinator struct{}

func (NoopCoordinator) TriggerHeartbeat(regionID uint64) {}

// Controller is the Region Controller. It owns the executor map and the env
// every task runs against, and is itself the task.Dispatcher/task.Notifier
// the env is wired to, so a task can enqueue a follow-up command or ask for
// an early heartbeat without importing this package.
type Controller struct {
	env       *task.Env
	regions   region.Store
	commands  regioncmd.Log
	executors *executor.Map
	notifier  Coordinator

	nextID atomic.Uint64
}

// New builds a Controller and its Env, wiring the Env's Dispatcher/Notifier
// back to the Controller itself and its executor-removal hook to the
// executor Map, completing the cycle env <-> controller <-> executors that a
// one-shot constructor call cannot express with value types alone.
func New(env *task.Env, notifier Coordinator) *Controller {
	if notifier == nil {
		notifier = NoopCoordinator{}
	}
	c := &Controller{
		env:      env,
		regions:  env.Regions,
		commands: env.Commands,
		notifier: notifier,
	}
	env.Dispatch = c
	env.Notify = c
	env.NextCommandID = c.nextCommandID
	c.executors = executor.NewMap(env)
	env.RemoveExecutor = c.executors.Remove

	if setter, ok := env.Engine.(engine.ApplierSetter); ok {
		setter.SetApplier(&region.SplitApplier{Store: env.Regions})
	}
	return c
}

func (c *Controller) nextCommandID() uint64 {
	return c.nextID.Add(1)
}

// TriggerHeartbeat implements task.Notifier.
func (c *Controller) TriggerHeartbeat(regionID uint64) {
	c.notifier.TriggerHeartbeat(regionID)
}

// Init scans the Region Meta Store for every alive region and creates an
// executor for each, on top of the shared executor the Map already created.
// Also seeds the self-dispatch command id counter past every id on record at
// Init, so a follow-up command this store mints never reuses the id of a
// command recorded before Init. Ids dispatched after Init do not advance the
// counter.
func (c *Controller) Init() error {
	regions, err := c.regions.ScanAllAlive()
	if err != nil {
		return errkind.Wrap(errkind.Internal, err, "scan alive regions")
	}
	for _, r := range regions {
		c.executors.EnsureExecutor(r.ID)
	}

	cmds, err := c.commands.GetAll()
	if err != nil {
		return errkind.Wrap(errkind.Internal, err, "scan command log")
	}
	var maxID uint64
	for _, cmd := range cmds {
		if cmd.ID > maxID {
			maxID = cmd.ID
		}
	}
	c.nextID.Store(maxID)
	return nil
}

// Recover redispatches every command still at status=NONE: a process
// restart resumes in-flight work rather than dropping it.
func (c *Controller) Recover() error {
	pending, err := c.commands.GetByStatus(regioncmd.StatusNone)
	if err != nil {
		return errkind.Wrap(errkind.Internal, err, "scan pending commands")
	}
	for _, cmd := range pending {
		if err := c.InnerDispatch(context.Background(), cmd); err != nil {
			// Recovery is best-effort per command; one bad command must not
			// block the rest of the store from coming up.
			_ = task.Finalize(c.env, cmd, err)
		}
	}
	return nil
}

// Dispatch is the external entry point: reject a repeat id, persist, then
// route to InnerDispatch.
func (c *Controller) Dispatch(ctx context.Context, cmd *regioncmd.Command) error {
	exists, err := c.commands.IsExist(cmd.ID)
	if err != nil {
		return errkind.Wrap(errkind.Internal, err, "check command %d", cmd.ID)
	}
	if exists {
		return errkind.New(errkind.RegionRepeatCommand, "command %d already dispatched", cmd.ID)
	}
	if err := c.commands.Add(cmd); err != nil {
		return errkind.Wrap(errkind.Internal, err, "persist command %d", cmd.ID)
	}
	return c.InnerDispatch(ctx, cmd)
}

// InnerDispatch builds the task for cmd.Kind and hands it to the right
// executor. A kind with no builder (MERGE today) is an internal error:
// such a command should never have passed pre-validation upstream.
func (c *Controller) InnerDispatch(ctx context.Context, cmd *regioncmd.Command) error {
	if cmd.Kind == regioncmd.KindCreate {
		c.executors.EnsureExecutor(cmd.RegionID)
	}

	build, ok := task.Builders[cmd.Kind]
	if !ok {
		return errkind.New(errkind.Internal, "no task builder for kind %s", cmd.Kind)
	}

	var target *executor.Executor
	if cmd.Kind.RegionAgnostic() {
		target = c.executors.Shared()
	} else {
		var ok bool
		target, ok = c.executors.Get(cmd.RegionID)
		if !ok {
			return errkind.New(errkind.RegionNotFound, "no executor for region %d", cmd.RegionID)
		}
	}

	t := build()
	if !target.Execute(ctx, t, cmd) {
		return errkind.New(errkind.Internal, "executor for command %d (region %d) is shutting down", cmd.ID, cmd.RegionID)
	}
	return nil
}

// PreValidate runs a command's pre-validation stage outside the executor,
// exactly as the heartbeat layer is expected to call it before a command is
// ever queued or persisted.
func (c *Controller) PreValidate(cmd *regioncmd.Command) error {
	build, ok := task.Builders[cmd.Kind]
	if !ok {
		return errkind.New(errkind.Internal, "no task builder for kind %s", cmd.Kind)
	}
	return build().PreValidate(c.env, cmd)
}

// StopAll shuts down every executor. Used at process shutdown.
func (c *Controller) StopAll() {
	c.executors.StopAll()
}
