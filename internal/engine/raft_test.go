package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRaftEngine_ListenerFor_UnregisteredRegionReturnsNil(t *testing.T) {
	e := NewRaftEngine(nil, 1)
	require.Nil(t, e.ListenerFor(10))
}

func TestRaftEngine_BindNodeHost_ReplacesNilNodeHost(t *testing.T) {
	e := NewRaftEngine(nil, 1)
	require.NotPanics(t, func() { e.BindNodeHost(nil) })
}

func TestRaftEngine_ListenerFor_ReflectsManuallyRegisteredListener(t *testing.T) {
	e := NewRaftEngine(nil, 1)
	rl := &recordingRegionListener{}
	e.mu.Lock()
	e.listeners[10] = rl
	e.mu.Unlock()

	require.Same(t, rl, e.ListenerFor(10))
	require.Nil(t, e.ListenerFor(20))
}
