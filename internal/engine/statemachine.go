package engine

import (
	"io"
	"log"
	"sync/atomic"

	sm "github.com/lni/dragonboat/v3/statemachine"
)

// regionStateMachine is the per-region on-disk state machine backing one
// dragonboat raft cluster. It tracks the applied index and, when an Applier
// is configured, hands each committed entry's bytes to it before
// acknowledging the entry applied. Update runs identically on every
// replica — leader and followers alike — which is what lets a committed
// write's region-state mutation (e.g. Split's parent/child transition)
// reach followers without this package owning that mutation's logic
// itself. The raw LSM engine and row-codec a production state machine
// would also drive are external collaborators out of scope here.
//
// Grounded on pavandhadge-vectron/worker/internal/shard/state_machine.go's
// StateMachine, generalized from a PebbleDB-backed vector store to a
// minimal applied-index tracker plus a pluggable apply hook.
type regionStateMachine struct {
	clusterID uint64
	nodeID    uint64
	applied   uint64
	applier   Applier
}

func newRegionStateMachine(clusterID, nodeID uint64, applier Applier) sm.IOnDiskStateMachine {
	return &regionStateMachine{clusterID: clusterID, nodeID: nodeID, applier: applier}
}

func (s *regionStateMachine) Open(stopc <-chan struct{}) (uint64, error) {
	return atomic.LoadUint64(&s.applied), nil
}

func (s *regionStateMachine) Update(entries []sm.Entry) ([]sm.Entry, error) {
	for i := range entries {
		if s.applier != nil && len(entries[i].Cmd) > 0 {
			if err := s.applier.Apply(s.clusterID, entries[i].Cmd); err != nil {
				log.Printf("apply entry %d for region %d: %v", entries[i].Index, s.clusterID, err)
			}
		}
		atomic.StoreUint64(&s.applied, entries[i].Index)
		entries[i].Result = sm.Result{Value: entries[i].Index}
	}
	return entries, nil
}

func (s *regionStateMachine) Lookup(query interface{}) (interface{}, error) {
	return atomic.LoadUint64(&s.applied), nil
}

func (s *regionStateMachine) Sync() error { return nil }

func (s *regionStateMachine) PrepareSnapshot() (interface{}, error) {
	return atomic.LoadUint64(&s.applied), nil
}

func (s *regionStateMachine) SaveSnapshot(ctx interface{}, w io.Writer, done <-chan struct{}) error {
	idx, _ := ctx.(uint64)
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(idx >> (8 * i))
	}
	_, err := w.Write(buf[:])
	return err
}

func (s *regionStateMachine) RecoverFromSnapshot(r io.Reader, done <-chan struct{}) error {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	var idx uint64
	for i := 0; i < 8; i++ {
		idx |= uint64(buf[i]) << (8 * i)
	}
	atomic.StoreUint64(&s.applied, idx)
	return nil
}

func (s *regionStateMachine) Close() error { return nil }
