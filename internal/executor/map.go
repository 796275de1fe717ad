package executor

import (
	"sync"

	"github.com/zhangjie0303/zj-dingo-store/internal/task"
)

// sharedKey is the Map's internal id for the distinguished shared executor,
// which never collides with a real region id (region ids are always > 0).
const sharedKey = 0

// Map is the registry of per-region executors plus the shared one. Guarded
// by a mutex over map membership only: registrations and removals never
// happen from inside the executor they reference, and no lock is held
// while a task runs.
type Map struct {
	env *task.Env

	mu        sync.RWMutex
	executors map[uint64]*Executor
}

// NewMap creates the registry and its shared executor, started immediately.
func NewMap(env *task.Env) *Map {
	m := &Map{env: env, executors: make(map[uint64]*Executor)}
	shared := New(sharedKey, env)
	shared.Init()
	m.executors[sharedKey] = shared
	return m
}

// Shared returns the distinguished shared executor used for PURGE and
// DESTROY_EXECUTOR.
func (m *Map) Shared() *Executor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.executors[sharedKey]
}

// Get returns the executor for regionID, if one is registered.
func (m *Map) Get(regionID uint64) (*Executor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.executors[regionID]
	return e, ok
}

// EnsureExecutor returns the executor for regionID, creating and starting
// one if none exists yet. Used by CREATE's dispatch path and by restart-time
// executor creation for every alive region.
func (m *Map) EnsureExecutor(regionID uint64) *Executor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.executors[regionID]; ok {
		return e
	}
	e := New(regionID, m.env)
	e.Init()
	m.executors[regionID] = e
	return e
}

// Remove stops and unregisters the executor for regionID, a no-op if none
// exists. Called only from DestroyExecutorTask, which always runs on the
// shared executor so it never tears down its own queue.
func (m *Map) Remove(regionID uint64) {
	m.mu.Lock()
	e, ok := m.executors[regionID]
	if ok {
		delete(m.executors, regionID)
	}
	m.mu.Unlock()
	if ok {
		e.Stop()
	}
}

// StopAll stops every executor, including the shared one, joining all
// workers. Used at process shutdown.
func (m *Map) StopAll() {
	m.mu.Lock()
	all := make([]*Executor, 0, len(m.executors))
	for _, e := range m.executors {
		all = append(all, e)
	}
	m.executors = make(map[uint64]*Executor)
	m.mu.Unlock()
	for _, e := range all {
		e.Stop()
	}
}
