package region

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
)

// Store is the Region Meta Store (component A): a persistent map of region-id
// to region record with atomic, FSM-validated state transitions. Every
// mutating call is persisted before returning.
type Store interface {
	Get(id uint64) (*Region, error)
	Add(r *Region) error
	UpdateState(id uint64, newState State) (*Region, error)
	UpdateRegion(r *Region) error
	Delete(id uint64) error
	GetRaftMeta(id uint64) (RaftMeta, error)
	PutRaftMeta(id uint64, meta RaftMeta) error
	ScanAllAlive() ([]*Region, error)
	Close() error
}

const (
	keyPrefix         = "R/"
	raftMetaKeyPrefix = "RM/"
)

func regionKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", keyPrefix, id))
}

func raftMetaKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", raftMetaKeyPrefix, id))
}

// PebbleStore implements Store on top of a cockroachdb/pebble keyspace,
// generalized from a raw byte store to a JSON-codec'd region-record store.
type PebbleStore struct {
	mu sync.RWMutex
	db *pebble.DB
}

// OpenPebbleStore opens (creating if necessary) a pebble-backed Region Meta
// Store at the given directory.
func OpenPebbleStore(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open region meta store: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

func (s *PebbleStore) persist(r *Region) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal region %d: %w", r.ID, err)
	}
	return s.db.Set(regionKey(r.ID), b, pebble.Sync)
}

func (s *PebbleStore) Get(id uint64) (*Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(id)
}

func (s *PebbleStore) get(id uint64) (*Region, error) {
	v, closer, err := s.db.Get(regionKey(id))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	var r Region
	if err := json.Unmarshal(v, &r); err != nil {
		return nil, fmt.Errorf("unmarshal region %d: %w", id, err)
	}
	meta, err := s.getRaftMeta(id)
	if err != nil {
		return nil, err
	}
	r.RaftMeta = meta
	return &r, nil
}

func (s *PebbleStore) getRaftMeta(id uint64) (RaftMeta, error) {
	v, closer, err := s.db.Get(raftMetaKey(id))
	if err == pebble.ErrNotFound {
		return RaftMeta{}, nil
	}
	if err != nil {
		return RaftMeta{}, err
	}
	defer closer.Close()
	var m RaftMeta
	if err := json.Unmarshal(v, &m); err != nil {
		return RaftMeta{}, fmt.Errorf("unmarshal raft-meta %d: %w", id, err)
	}
	return m, nil
}

func (s *PebbleStore) putRaftMeta(id uint64, meta RaftMeta) error {
	b, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal raft-meta %d: %w", id, err)
	}
	return s.db.Set(raftMetaKey(id), b, pebble.Sync)
}

// GetRaftMeta reads a region's raft-meta sibling record directly, without
// fetching the region record itself.
func (s *PebbleStore) GetRaftMeta(id uint64) (RaftMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getRaftMeta(id)
}

// PutRaftMeta persists a region's raft-meta sibling record directly, without
// touching the region record itself.
func (s *PebbleStore) PutRaftMeta(id uint64, meta RaftMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putRaftMeta(id, meta)
}

// Add inserts a brand-new region record. Invariant 1 (start_key < end_key)
// is enforced here for any non-deleted region.
func (s *PebbleStore) Add(r *Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, err := s.get(r.ID); err != nil {
		return err
	} else if existing != nil {
		return errkind.New(errkind.RegionExist, "region %d already exists", r.ID)
	}
	if r.State != StateDeleted && string(r.Definition.StartKey) >= string(r.Definition.EndKey) {
		return errkind.New(errkind.KeyInvalid, "region %d has empty or inverted range", r.ID)
	}
	r.pushHistory(r.State)
	if err := s.persist(r); err != nil {
		return err
	}
	return s.putRaftMeta(r.ID, r.RaftMeta)
}

// UpdateState validates the transition against the FSM, appends to history,
// and persists atomically, returning the updated record.
func (s *PebbleStore) UpdateState(id uint64, newState State) (*Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errkind.New(errkind.RegionNotFound, "region %d not found", id)
	}
	if err := ValidateTransition(r.State, newState); err != nil {
		return nil, err
	}
	r.State = newState
	r.pushHistory(newState)
	if err := s.persist(r); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateRegion persists an already-mutated record as-is (used by tasks that
// change the definition or epoch without changing state, e.g.
// UpdateDefinition, SwitchSplit, Split's epoch bump). Invariant 2 (epoch
// monotonicity) is enforced here.
func (s *PebbleStore) UpdateRegion(r *Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.get(r.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return errkind.New(errkind.RegionNotFound, "region %d not found", r.ID)
	}
	if existing.Epoch.Less(r.Epoch) == false && existing.Epoch != r.Epoch {
		return errkind.New(errkind.Internal, "region %d epoch would move backward: %+v -> %+v", r.ID, existing.Epoch, r.Epoch)
	}
	if err := s.persist(r); err != nil {
		return err
	}
	return s.putRaftMeta(r.ID, r.RaftMeta)
}

// Delete removes a region and its raft-meta sibling record from the
// persistent store. Invariant 4: called only by Purge and by the terminal
// step of Delete.
func (s *PebbleStore) Delete(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Delete(regionKey(id), pebble.Sync); err != nil {
		return err
	}
	return s.db.Delete(raftMetaKey(id), pebble.Sync)
}

// ScanAllAlive returns every region whose state is not DELETED.
func (s *PebbleStore) ScanAllAlive() ([]*Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	iter := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte("R0"), // exclusive upper bound, one past "R/"
	})
	defer iter.Close()

	var out []*Region
	for iter.First(); iter.Valid(); iter.Next() {
		var r Region
		if err := json.Unmarshal(iter.Value(), &r); err != nil {
			return nil, fmt.Errorf("unmarshal region during scan: %w", err)
		}
		if r.State != StateDeleted {
			meta, err := s.getRaftMeta(r.ID)
			if err != nil {
				return nil, err
			}
			r.RaftMeta = meta
			out = append(out, &r)
		}
	}
	return out, iter.Error()
}
