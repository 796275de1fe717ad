package regioncmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
)

func TestMemLog_Add_RejectsRepeatID(t *testing.T) {
	l := NewMemLog()
	cmd := &Command{ID: 1, RegionID: 10, Kind: KindSnapshot, CreateTimestamp: time.Now()}
	require.NoError(t, l.Add(cmd))

	err := l.Add(&Command{ID: 1, RegionID: 10, Kind: KindSnapshot, CreateTimestamp: time.Now()})
	require.True(t, errkind.Is(err, errkind.RegionRepeatCommand))

	all, err := l.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestMemLog_UpdateStatus_ReachesTerminal(t *testing.T) {
	l := NewMemLog()
	cmd := &Command{ID: 1, RegionID: 10, Kind: KindSnapshot}
	require.NoError(t, l.Add(cmd))
	require.NoError(t, l.UpdateStatus(1, StatusDone))

	got, err := l.Get(1)
	require.NoError(t, err)
	require.Equal(t, StatusDone, got.Status)
}

func TestMemLog_GetByStatus_FiltersAndOrdersByID(t *testing.T) {
	l := NewMemLog()
	require.NoError(t, l.Add(&Command{ID: 2, Kind: KindSnapshot, Status: StatusNone}))
	require.NoError(t, l.Add(&Command{ID: 1, Kind: KindSnapshot, Status: StatusNone}))
	require.NoError(t, l.Add(&Command{ID: 3, Kind: KindSnapshot, Status: StatusDone}))

	pending, err := l.GetByStatus(StatusNone)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, uint64(1), pending[0].ID)
	require.Equal(t, uint64(2), pending[1].ID)
}
