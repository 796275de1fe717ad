package regioncmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
)

// Log is the Command Log (component B): a persistent map of command-id to
// command record with status, surviving process restart. Add is the
// deduplication point: it is rejected if the id is already present.
type Log interface {
	IsExist(id uint64) (bool, error)
	Add(cmd *Command) error
	UpdateStatus(id uint64, status Status) error
	Get(id uint64) (*Command, error)
	GetByStatus(status Status) ([]*Command, error)
	GetByRegion(regionID uint64) ([]*Command, error)
	GetAll() ([]*Command, error)
	Close() error
}

const cmdKeyPrefix = "C/"

func cmdKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", cmdKeyPrefix, id))
}

// PebbleLog implements Log on a cockroachdb/pebble keyspace distinct from the
// Region Meta Store's, using a "C/"+id key layout.
type PebbleLog struct {
	mu sync.RWMutex
	db *pebble.DB
}

func OpenPebbleLog(dir string) (*PebbleLog, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open command log: %w", err)
	}
	return &PebbleLog{db: db}, nil
}

func (l *PebbleLog) Close() error { return l.db.Close() }

func (l *PebbleLog) IsExist(id uint64) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, err := l.get(id)
	return c != nil, err
}

func (l *PebbleLog) get(id uint64) (*Command, error) {
	v, closer, err := l.db.Get(cmdKey(id))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	var c Command
	if err := json.Unmarshal(v, &c); err != nil {
		return nil, fmt.Errorf("unmarshal command %d: %w", id, err)
	}
	return &c, nil
}

func (l *PebbleLog) persist(c *Command) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal command %d: %w", c.ID, err)
	}
	return l.db.Set(cmdKey(c.ID), b, pebble.Sync)
}

// Add rejects a repeat id: this is the system's one deduplication point.
func (l *PebbleLog) Add(cmd *Command) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	existing, err := l.get(cmd.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return errkind.New(errkind.RegionRepeatCommand, "command %d already dispatched", cmd.ID)
	}
	return l.persist(cmd)
}

func (l *PebbleLog) UpdateStatus(id uint64, status Status) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, err := l.get(id)
	if err != nil {
		return err
	}
	if c == nil {
		return errkind.New(errkind.Internal, "command %d not found", id)
	}
	c.Status = status
	return l.persist(c)
}

func (l *PebbleLog) Get(id uint64) (*Command, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.get(id)
}

func (l *PebbleLog) scanAll() ([]*Command, error) {
	iter := l.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(cmdKeyPrefix),
		UpperBound: []byte("C0"),
	})
	defer iter.Close()

	var out []*Command
	for iter.First(); iter.Valid(); iter.Next() {
		var c Command
		if err := json.Unmarshal(iter.Value(), &c); err != nil {
			return nil, fmt.Errorf("unmarshal command during scan: %w", err)
		}
		out = append(out, &c)
	}
	return out, iter.Error()
}

func sortByID(cmds []*Command) {
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].ID < cmds[j].ID })
}

func (l *PebbleLog) GetByStatus(status Status) ([]*Command, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	all, err := l.scanAll()
	if err != nil {
		return nil, err
	}
	var out []*Command
	for _, c := range all {
		if c.Status == status {
			out = append(out, c)
		}
	}
	sortByID(out)
	return out, nil
}

func (l *PebbleLog) GetByRegion(regionID uint64) ([]*Command, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	all, err := l.scanAll()
	if err != nil {
		return nil, err
	}
	var out []*Command
	for _, c := range all {
		if c.RegionID == regionID {
			out = append(out, c)
		}
	}
	sortByID(out)
	return out, nil
}

func (l *PebbleLog) GetAll() ([]*Command, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	all, err := l.scanAll()
	if err != nil {
		return nil, err
	}
	sortByID(all)
	return all, nil
}
