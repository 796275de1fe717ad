package region

import (
	"sync"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
)

// MemStore is an in-memory Store implementation used by tests that exercise
// the control plane without a pebble directory on disk. It upholds the same
// FSM and epoch invariants as PebbleStore.
type MemStore struct {
	mu        sync.RWMutex
	regions   map[uint64]*Region
	raftMetas map[uint64]RaftMeta
}

func NewMemStore() *MemStore {
	return &MemStore{regions: make(map[uint64]*Region), raftMetas: make(map[uint64]RaftMeta)}
}

func (s *MemStore) Close() error { return nil }

func (s *MemStore) Get(id uint64) (*Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.regions[id]
	if !ok {
		return nil, nil
	}
	c := r.Clone()
	c.RaftMeta = s.raftMetas[id]
	return c, nil
}

func (s *MemStore) Add(r *Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.regions[r.ID]; ok && existing.State != StateDeleted {
		return errkind.New(errkind.RegionExist, "region %d already exists", r.ID)
	}
	if r.State != StateDeleted && string(r.Definition.StartKey) >= string(r.Definition.EndKey) {
		return errkind.New(errkind.KeyInvalid, "region %d has empty or inverted range", r.ID)
	}
	c := r.Clone()
	c.pushHistory(c.State)
	s.regions[r.ID] = c
	s.raftMetas[r.ID] = r.RaftMeta
	return nil
}

func (s *MemStore) UpdateState(id uint64, newState State) (*Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.regions[id]
	if !ok {
		return nil, errkind.New(errkind.RegionNotFound, "region %d not found", id)
	}
	if err := ValidateTransition(r.State, newState); err != nil {
		return nil, err
	}
	r.State = newState
	r.pushHistory(newState)
	c := r.Clone()
	c.RaftMeta = s.raftMetas[id]
	return c, nil
}

func (s *MemStore) UpdateRegion(r *Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.regions[r.ID]
	if !ok {
		return errkind.New(errkind.RegionNotFound, "region %d not found", r.ID)
	}
	if existing.Epoch != r.Epoch && !existing.Epoch.Less(r.Epoch) {
		return errkind.New(errkind.Internal, "region %d epoch would move backward", r.ID)
	}
	s.regions[r.ID] = r.Clone()
	s.raftMetas[r.ID] = r.RaftMeta
	return nil
}

func (s *MemStore) Delete(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.regions, id)
	delete(s.raftMetas, id)
	return nil
}

// GetRaftMeta reads a region's raft-meta sibling record directly, without
// fetching the region record itself.
func (s *MemStore) GetRaftMeta(id uint64) (RaftMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.raftMetas[id], nil
}

// PutRaftMeta persists a region's raft-meta sibling record directly, without
// touching the region record itself.
func (s *MemStore) PutRaftMeta(id uint64, meta RaftMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raftMetas[id] = meta
	return nil
}

func (s *MemStore) ScanAllAlive() ([]*Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Region, 0, len(s.regions))
	for id, r := range s.regions {
		if r.State != StateDeleted {
			c := r.Clone()
			c.RaftMeta = s.raftMetas[id]
			out = append(out, c)
		}
	}
	return out, nil
}
