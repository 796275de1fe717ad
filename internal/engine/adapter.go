// Package engine is the Engine Adapter (component C): a uniform facade over
// the underlying consensus+storage engine, polymorphic over engine variants
// {memory-only, raft-backed}, grounded on
// pavandhadge-vectron/worker/internal/shard/manager.go's ShardManager methods.
package engine

import (
	"context"

	"github.com/zhangjie0303/zj-dingo-store/internal/region"
)

// Variant names the two concrete engine backends this package supports.
type Variant int

const (
	VariantMemory Variant = iota
	VariantRaftStore
)

func (v Variant) String() string {
	if v == VariantRaftStore {
		return "ENG_RAFT_STORE"
	}
	return "ENG_MEMORY"
}

// ListenerFactory builds a raft event listener for one region's node,
// passed as AddNode's "listener_factory" argument.
type ListenerFactory func(regionID uint64) RaftEventListener

// RaftEventListener receives raft-level lifecycle events for one region's
// node. The concrete dragonboat-backed listener is in listener.go.
type RaftEventListener interface {
	LeaderChanged(leaderID uint64, term uint64)
	MembershipChanged()
	SnapshotReceived(index uint64)
}

// WriteBatch is an opaque, engine-specific replicated write, proposed through
// AsyncWrite. Its internal encoding is owned by the caller (the Split task);
// the engine itself never interprets its bytes beyond proposing them to
// raft and handing them to the configured Applier once they commit.
type WriteBatch []byte

// Applier interprets a write batch once it has been durably committed and
// mutates whatever region-local state it encodes. The engine invokes it
// from inside its own apply path rather than from AsyncWrite's completion
// callback, so that every replica applying the committed entry observes the
// same mutation as the proposing leader, not just the leader itself.
type Applier interface {
	Apply(regionID uint64, batch []byte) error
}

// ApplierSetter is implemented by engine variants whose apply path needs an
// Applier wired in after construction (process bootstrap builds the engine
// before it has a region.Store to hand the Applier).
type ApplierSetter interface {
	SetApplier(Applier)
}

// CompletionFunc is invoked, exactly once, when an AsyncWrite either commits
// or fails to commit.
type CompletionFunc func(err error)

// NodeHandle is a live reference to one region's raft node.
type NodeHandle interface {
	IsLeader() bool
	GetLeaderID() uint64
	GetPeerID() uint64
	ListPeers() ([]uint64, error)
}

// Adapter is the Engine Adapter's capability set, translated into idiomatic
// Go with explicit error returns in place of a Status return value.
type Adapter interface {
	AddNode(ctx context.Context, r *region.Region, meta region.RaftMeta, lf ListenerFactory, isRestart bool) error
	StopNode(ctx context.Context, regionID uint64) error
	DestroyNode(ctx context.Context, regionID uint64) error
	GetNode(regionID uint64) (NodeHandle, bool)
	ChangeNode(ctx context.Context, regionID uint64, voters []region.Peer) error
	TransferLeader(regionID uint64, peer region.Peer) error
	DoSnapshot(ctx context.Context, regionID uint64) error
	AsyncWrite(ctx context.Context, regionID uint64, batch WriteBatch, done CompletionFunc)
}
