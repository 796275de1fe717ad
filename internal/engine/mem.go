package engine

import (
	"context"
	"sync"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
	"github.com/zhangjie0303/zj-dingo-store/internal/region"
)

// MemEngine is the ENG_MEMORY variant: it replicates nothing and keeps only an
// in-memory node record per region, with the local store as leader until
// TransferLeader moves it. ChangeNode, TransferLeader, DoSnapshot and
// AsyncWrite fail with RAFT_NOT_FOUND for a region that has no node, and
// TransferLeader to the local store fails with RAFT_TRANSFER_LEADER. Used by
// unit tests and by regions of a type that doesn't need replication.
type MemEngine struct {
	selfID uint64

	mu      sync.Mutex
	nodes   map[uint64]*memNode
	applier Applier
}

// NewMemEngine builds a no-op engine. selfID is the local store/peer id,
// used so memNode.IsLeader reports true for single-node test setups.
func NewMemEngine(selfID uint64) *MemEngine {
	return &MemEngine{selfID: selfID, nodes: make(map[uint64]*memNode)}
}

// SetApplier wires the Applier that AsyncWrite hands every committed batch
// to before invoking its completion callback.
func (e *MemEngine) SetApplier(a Applier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.applier = a
}

type memNode struct {
	leaderID uint64
	selfID   uint64
	peers    []uint64
}

func (n *memNode) IsLeader() bool        { return n.leaderID == n.selfID }
func (n *memNode) GetLeaderID() uint64    { return n.leaderID }
func (n *memNode) GetPeerID() uint64      { return n.selfID }
func (n *memNode) ListPeers() ([]uint64, error) { return n.peers, nil }

func (e *MemEngine) AddNode(ctx context.Context, r *region.Region, meta region.RaftMeta, lf ListenerFactory, isRestart bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	peers := make([]uint64, 0, len(r.Definition.Peers))
	for _, p := range r.Definition.Peers {
		peers = append(peers, p.StoreID)
	}
	e.nodes[r.ID] = &memNode{leaderID: e.selfID, selfID: e.selfID, peers: peers}
	return nil
}

func (e *MemEngine) StopNode(ctx context.Context, regionID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.nodes, regionID)
	return nil
}

func (e *MemEngine) DestroyNode(ctx context.Context, regionID uint64) error {
	return e.StopNode(ctx, regionID)
}

func (e *MemEngine) GetNode(regionID uint64) (NodeHandle, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.nodes[regionID]
	if !ok {
		return nil, false
	}
	return n, true
}

func (e *MemEngine) ChangeNode(ctx context.Context, regionID uint64, voters []region.Peer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.nodes[regionID]
	if !ok {
		return errkind.New(errkind.RaftNotFound, "no memory node for region %d", regionID)
	}
	peers := make([]uint64, 0, len(voters))
	for _, p := range voters {
		peers = append(peers, p.StoreID)
	}
	n.peers = peers
	return nil
}

func (e *MemEngine) TransferLeader(regionID uint64, peer region.Peer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.nodes[regionID]
	if !ok {
		return errkind.New(errkind.RaftNotFound, "no memory node for region %d", regionID)
	}
	if peer.StoreID == n.selfID {
		return errkind.New(errkind.RaftTransferLeader, "cannot transfer leadership of region %d to self", regionID)
	}
	n.leaderID = peer.StoreID
	return nil
}

func (e *MemEngine) DoSnapshot(ctx context.Context, regionID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.nodes[regionID]; !ok {
		return errkind.New(errkind.RaftNotFound, "no memory node for region %d", regionID)
	}
	return nil
}

func (e *MemEngine) AsyncWrite(ctx context.Context, regionID uint64, batch WriteBatch, done CompletionFunc) {
	go func() {
		e.mu.Lock()
		_, ok := e.nodes[regionID]
		applier := e.applier
		e.mu.Unlock()
		if !ok {
			done(errkind.New(errkind.RaftNotFound, "no memory node for region %d", regionID))
			return
		}
		if applier != nil {
			if err := applier.Apply(regionID, []byte(batch)); err != nil {
				done(errkind.Wrap(errkind.Internal, err, "apply write for region %d", regionID))
				return
			}
		}
		done(nil)
	}()
}
