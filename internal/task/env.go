// Package task holds the Task Definitions (component E): one task per
// command kind, each encapsulating pre-validation (cheap, side-effect-free,
// callable from the heartbeat thread before enqueue) and validate+act (run on
// a Control Executor). Finalize (status write-back + notify) is common to
// every kind and lives in Finalize, called once by the executor after Run
// returns (and by the controller's Recover when a redispatch fails), rather
// than duplicated per task.
package task

import (
	"context"
	"log"

	"github.com/zhangjie0303/zj-dingo-store/internal/engine"
	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
	"github.com/zhangjie0303/zj-dingo-store/internal/metrics"
	"github.com/zhangjie0303/zj-dingo-store/internal/region"
	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
	"github.com/zhangjie0303/zj-dingo-store/internal/vectorindex"
)

// Notifier requests an immediate heartbeat, used by tasks whose command has
// is_notify set so the coordinator observes completion without waiting for
// the next heartbeat interval.
type Notifier interface {
	TriggerHeartbeat(regionID uint64)
}

// Dispatcher lets a task enqueue a follow-up command through the controller,
// used by Delete to hand DESTROY_EXECUTOR to the shared executor: a task
// must never tear down its own executor from inside itself.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd *regioncmd.Command) error
}

// Env is the explicit context/env struct threaded into the controller and
// every task at construction, in place of a package-level singleton. It is
// built once at process bootstrap and never mutated after; tests construct
// their own Env against fake adapters.
type Env struct {
	StoreID uint64

	Regions     region.Store
	Commands    regioncmd.Log
	Engine      engine.Adapter
	VectorIndex vectorindex.Adapter
	PeerProbe   vectorindex.PeerProbe
	Metrics     *metrics.Registry
	Notify      Notifier
	Dispatch    Dispatcher

	// NextCommandID allocates a fresh, unique command id for tasks that
	// dispatch a follow-up command (Delete's DESTROY_EXECUTOR). Wired by the
	// controller to the same id source that issues dispatch-level command
	// ids.
	NextCommandID func() uint64

	// RemoveExecutor tears down the per-region executor for regionID. Wired
	// by the controller to the executor map; injected here (rather than
	// imported directly) so DestroyExecutor doesn't need to import the
	// executor package, avoiding a control <-> task <-> executor cycle.
	RemoveExecutor func(regionID uint64)
}

// Task is the shape every command kind's task definition implements.
// PreValidate is cheap and side-effect-free: the heartbeat layer calls it,
// through Controller.PreValidate, before a command is persisted;
// Controller.Dispatch and the executor do not call it.
// Run performs the validate+act stage on the owning executor.
type Task interface {
	PreValidate(env *Env, cmd *regioncmd.Command) error
	Run(ctx context.Context, env *Env, cmd *regioncmd.Command) error
}

// Builder constructs a fresh Task instance for one dispatch. Tasks are
// stateless beyond the Command/Env they're given, so builders are trivial,
// but the table-of-constructors shape keeps kind->task construction in one
// place.
type Builder func() Task

// Builders is the kind -> task constructor table, a process-wide constant
// built once at package init. MERGE has no entry: it is a placeholder
// command kind with no task, and InnerDispatch must return an internal
// error for it.
var Builders = map[regioncmd.Kind]Builder{
	regioncmd.KindCreate:              func() Task { return &CreateTask{} },
	regioncmd.KindDelete:              func() Task { return &DeleteTask{} },
	regioncmd.KindSplit:               func() Task { return &SplitTask{} },
	regioncmd.KindChangePeer:          func() Task { return &ChangePeerTask{} },
	regioncmd.KindTransferLeader:      func() Task { return &TransferLeaderTask{} },
	regioncmd.KindSnapshot:            func() Task { return &SnapshotTask{} },
	regioncmd.KindPurge:               func() Task { return &PurgeTask{} },
	regioncmd.KindSnapshotVectorIndex: func() Task { return &SnapshotVectorIndexTask{} },
	regioncmd.KindUpdateDefinition:    func() Task { return &UpdateDefinitionTask{} },
	regioncmd.KindSwitchSplit:         func() Task { return &SwitchSplitTask{} },
	regioncmd.KindHoldVectorIndex:     func() Task { return &HoldVectorIndexTask{} },
	regioncmd.KindStop:                func() Task { return &StopTask{} },
	regioncmd.KindDestroyExecutor:     func() Task { return &DestroyExecutorTask{} },
}

// Finalize writes the command's terminal status back through the Command
// Log and, when is_notify is set, triggers an immediate heartbeat.
// Pre-validation errors are never persisted: Finalize is called only with
// Run's outcome, or with a redispatch error from Recover, never with a
// PreValidate result. Validate-and-act errors mark FAIL, and a FAIL is
// terminal.
func Finalize(env *Env, cmd *regioncmd.Command, runErr error) error {
	status := regioncmd.StatusDone
	if runErr != nil {
		status = regioncmd.StatusFail
		logFailure(cmd, runErr)
	}
	if err := env.Commands.UpdateStatus(cmd.ID, status); err != nil {
		return errkind.Wrap(errkind.Internal, err, "finalize command %d", cmd.ID)
	}
	if cmd.IsNotify && env.Notify != nil {
		env.Notify.TriggerHeartbeat(cmd.RegionID)
	}
	return runErr
}

func logFailure(cmd *regioncmd.Command, err error) {
	if errkind.Expected(err) {
		log.Printf("[DEBUG] command %d (region %d, kind %s) failed: %v", cmd.ID, cmd.RegionID, cmd.Kind, err)
		return
	}
	log.Printf("[ERROR] command %d (region %d, kind %s) failed: %v", cmd.ID, cmd.RegionID, cmd.Kind, err)
}
