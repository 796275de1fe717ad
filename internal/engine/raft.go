package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lni/dragonboat/v3"
	"github.com/lni/dragonboat/v3/config"
	sm "github.com/lni/dragonboat/v3/statemachine"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
	"github.com/zhangjie0303/zj-dingo-store/internal/region"
)

// RaftEngine is the ENG_RAFT_STORE variant: one dragonboat NodeHost per store
// process, one raft cluster (ClusterID = region id) per region. Grounded on
// pavandhadge-vectron/worker/internal/shard/manager.go's ShardManager
// (StartOnDiskCluster/StopCluster/SyncRequestAddNode/RequestLeaderTransfer)
// and state_machine.go's per-shard IOnDiskStateMachine.
type RaftEngine struct {
	nh     *dragonboat.NodeHost
	nodeID uint64

	mu        sync.RWMutex
	nodes     map[uint64]*raftNodeHandle
	listeners map[uint64]RaftEventListener
	applier   Applier
}

// NewRaftEngine wraps an already-constructed dragonboat NodeHost. Building
// the NodeHost itself (data directory, raft address, RTT) is process
// bootstrap (component J) concern, not the engine adapter's. dragonboat only
// supports one NodeHost-wide raftio.IRaftEventListener, installed at
// NodeHost construction and demuxed by cluster id (see listener.go); bootstrap
// is expected to pass engine.NewDragonboatEventListener(raftEngine.ListenerFor)
// as that NodeHost-wide listener, so AddNode's own per-call ListenerFactory
// argument ends up reachable through ListenerFor.
func NewRaftEngine(nh *dragonboat.NodeHost, nodeID uint64) *RaftEngine {
	return &RaftEngine{nh: nh, nodeID: nodeID, nodes: make(map[uint64]*raftNodeHandle), listeners: make(map[uint64]RaftEventListener)}
}

// BindNodeHost attaches the dragonboat NodeHost once it exists. Process
// bootstrap must construct the RaftEngine before the NodeHost (so
// ListenerFor can be handed to NodeHostConfig.RaftEventListener) and bind
// the NodeHost back in once NewNodeHost succeeds.
func (e *RaftEngine) BindNodeHost(nh *dragonboat.NodeHost) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nh = nh
}

// SetApplier wires the Applier every region's state machine hands committed
// batches to. Must be called before AddNode starts that region's cluster:
// AddNode captures the Applier at the time it builds that cluster's state
// machine.
func (e *RaftEngine) SetApplier(a Applier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.applier = a
}

// ListenerFor looks up the RaftEventListener AddNode registered for
// regionID, for the NodeHost-wide listener to demux into. Its signature
// matches ListenerFactory so it can be passed directly as one.
func (e *RaftEngine) ListenerFor(regionID uint64) RaftEventListener {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.listeners[regionID]
}

type raftNodeHandle struct {
	nh       *dragonboat.NodeHost
	regionID uint64
	selfID   uint64
}

func (h *raftNodeHandle) IsLeader() bool {
	leaderID, valid, err := h.nh.GetLeaderID(h.regionID)
	return err == nil && valid && leaderID == h.selfID
}

func (h *raftNodeHandle) GetLeaderID() uint64 {
	leaderID, valid, err := h.nh.GetLeaderID(h.regionID)
	if err != nil || !valid {
		return 0
	}
	return leaderID
}

func (h *raftNodeHandle) GetPeerID() uint64 { return h.selfID }

func (h *raftNodeHandle) ListPeers() ([]uint64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m, err := h.nh.SyncGetClusterMembership(ctx, h.regionID)
	if err != nil {
		return nil, errkind.Wrap(errkind.RaftNotFound, err, "list peers for region %d", h.regionID)
	}
	out := make([]uint64, 0, len(m.Nodes))
	for id := range m.Nodes {
		out = append(out, id)
	}
	return out, nil
}

// AddNode starts a dragonboat on-disk raft cluster for the region, joining
// an existing cluster when is_restart indicates this store already hosts a
// replica without bootstrap data, per the join/bootstrap branching in
// ShardManager.SyncShards.
func (e *RaftEngine) AddNode(ctx context.Context, r *region.Region, meta region.RaftMeta, lf ListenerFactory, isRestart bool) error {
	rc := config.Config{
		NodeID:             e.nodeID,
		ClusterID:          r.ID,
		ElectionRTT:        10,
		HeartbeatRTT:       1,
		CheckQuorum:        true,
		SnapshotEntries:    100,
		CompactionOverhead: 50,
	}

	initialMembers := make(map[uint64]string)
	for _, p := range r.Definition.VoterPeers() {
		initialMembers[p.StoreID] = fmt.Sprintf("%s:%d", p.Host, p.Port)
	}

	e.mu.RLock()
	applier := e.applier
	e.mu.RUnlock()
	createFSM := func(clusterID uint64, nodeID uint64) sm.IOnDiskStateMachine {
		return newRegionStateMachine(clusterID, nodeID, applier)
	}

	join := isRestart && len(initialMembers) == 0
	if err := e.nh.StartOnDiskCluster(initialMembers, join, createFSM, rc); err != nil {
		return errkind.Wrap(errkind.Internal, err, "start raft node for region %d", r.ID)
	}

	e.mu.Lock()
	e.nodes[r.ID] = &raftNodeHandle{nh: e.nh, regionID: r.ID, selfID: e.nodeID}
	if lf != nil {
		e.listeners[r.ID] = lf(r.ID)
	}
	e.mu.Unlock()
	return nil
}

func (e *RaftEngine) StopNode(ctx context.Context, regionID uint64) error {
	e.mu.Lock()
	delete(e.nodes, regionID)
	delete(e.listeners, regionID)
	e.mu.Unlock()
	if err := e.nh.StopCluster(regionID); err != nil {
		return errkind.Wrap(errkind.Internal, err, "stop raft node for region %d", regionID)
	}
	return nil
}

// DestroyNode stops the raft node and drops the on-disk log/snapshot data
// dragonboat keeps for it.
func (e *RaftEngine) DestroyNode(ctx context.Context, regionID uint64) error {
	if err := e.StopNode(ctx, regionID); err != nil {
		return err
	}
	if err := e.nh.RemoveData(regionID, e.nodeID); err != nil {
		return errkind.Wrap(errkind.Internal, err, "remove raft data for region %d", regionID)
	}
	return nil
}

func (e *RaftEngine) GetNode(regionID uint64) (NodeHandle, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n, ok := e.nodes[regionID]
	if !ok {
		return nil, false
	}
	return n, true
}

// ChangeNode reconciles the raft cluster's voter membership with the given
// target set, adding missing voters and removing ones no longer wanted.
// Grounded on Manager.reconcileMembership's add/remove-until-converged loop.
func (e *RaftEngine) ChangeNode(ctx context.Context, regionID uint64, voters []region.Peer) error {
	desired := make(map[uint64]region.Peer, len(voters))
	for _, p := range voters {
		desired[p.StoreID] = p
	}

	membership, err := e.nh.SyncGetClusterMembership(ctx, regionID)
	if err != nil {
		return errkind.Wrap(errkind.RaftNotFound, err, "get membership for region %d", regionID)
	}

	for storeID, p := range desired {
		if _, ok := membership.Nodes[storeID]; ok {
			continue
		}
		addr := fmt.Sprintf("%s:%d", p.Host, p.Port)
		if err := e.nh.SyncRequestAddNode(ctx, regionID, storeID, addr, membership.ConfigChangeID); err != nil {
			return errkind.Wrap(errkind.Internal, err, "add voter %d to region %d", storeID, regionID)
		}
		if membership, err = e.nh.SyncGetClusterMembership(ctx, regionID); err != nil {
			return errkind.Wrap(errkind.Internal, err, "refresh membership for region %d", regionID)
		}
	}

	for storeID := range membership.Nodes {
		if _, ok := desired[storeID]; ok {
			continue
		}
		if err := e.nh.SyncRequestDeleteNode(ctx, regionID, storeID, membership.ConfigChangeID); err != nil {
			return errkind.Wrap(errkind.Internal, err, "remove voter %d from region %d", storeID, regionID)
		}
		if membership, err = e.nh.SyncGetClusterMembership(ctx, regionID); err != nil {
			return errkind.Wrap(errkind.Internal, err, "refresh membership for region %d", regionID)
		}
	}
	return nil
}

func (e *RaftEngine) TransferLeader(regionID uint64, peer region.Peer) error {
	if err := e.nh.RequestLeaderTransfer(regionID, peer.StoreID); err != nil {
		return errkind.Wrap(errkind.RaftTransferLeader, err, "transfer leadership of region %d to %d", regionID, peer.StoreID)
	}
	return nil
}

func (e *RaftEngine) DoSnapshot(ctx context.Context, regionID uint64) error {
	if _, err := e.nh.SyncRequestSnapshot(ctx, regionID, dragonboat.SnapshotOption{}); err != nil {
		return errkind.Wrap(errkind.Internal, err, "snapshot region %d", regionID)
	}
	return nil
}

// AsyncWrite proposes batch through dragonboat's no-op-session path,
// invoking done once the proposal commits or fails. Used by Split to commit
// the range change as a replicated operation.
func (e *RaftEngine) AsyncWrite(ctx context.Context, regionID uint64, batch WriteBatch, done CompletionFunc) {
	go func() {
		cs := e.nh.GetNoOPSession(regionID)
		_, err := e.nh.SyncPropose(ctx, cs, batch)
		if err != nil {
			done(errkind.Wrap(errkind.Internal, err, "propose write to region %d", regionID))
			return
		}
		done(nil)
	}()
}
