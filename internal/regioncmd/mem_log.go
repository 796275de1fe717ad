package regioncmd

import (
	"sync"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
)

// MemLog is an in-memory Log implementation for tests.
type MemLog struct {
	mu   sync.RWMutex
	cmds map[uint64]*Command
}

func NewMemLog() *MemLog {
	return &MemLog{cmds: make(map[uint64]*Command)}
}

func (l *MemLog) Close() error { return nil }

func (l *MemLog) clone(c *Command) *Command {
	cp := *c
	return &cp
}

func (l *MemLog) IsExist(id uint64) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.cmds[id]
	return ok, nil
}

func (l *MemLog) Add(cmd *Command) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.cmds[cmd.ID]; ok {
		return errkind.New(errkind.RegionRepeatCommand, "command %d already dispatched", cmd.ID)
	}
	l.cmds[cmd.ID] = l.clone(cmd)
	return nil
}

func (l *MemLog) UpdateStatus(id uint64, status Status) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.cmds[id]
	if !ok {
		return errkind.New(errkind.Internal, "command %d not found", id)
	}
	c.Status = status
	return nil
}

func (l *MemLog) Get(id uint64) (*Command, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.cmds[id]
	if !ok {
		return nil, nil
	}
	return l.clone(c), nil
}

func (l *MemLog) GetByStatus(status Status) ([]*Command, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*Command
	for _, c := range l.cmds {
		if c.Status == status {
			out = append(out, l.clone(c))
		}
	}
	sortByID(out)
	return out, nil
}

func (l *MemLog) GetByRegion(regionID uint64) ([]*Command, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*Command
	for _, c := range l.cmds {
		if c.RegionID == regionID {
			out = append(out, l.clone(c))
		}
	}
	sortByID(out)
	return out, nil
}

func (l *MemLog) GetAll() ([]*Command, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Command, 0, len(l.cmds))
	for _, c := range l.cmds {
		out = append(out, l.clone(c))
	}
	sortByID(out)
	return out, nil
}
