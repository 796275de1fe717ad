package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zhangjie0303/zj-dingo-store/internal/errkind"
)

func TestMemAdapter_LoadOrBuild_IdempotentOnRepeat(t *testing.T) {
	a := NewMemAdapter()
	h1, err := a.LoadOrBuildVectorIndex(context.Background(), 10, Config{Dimension: 4, MaxElements: 100})
	require.NoError(t, err)

	h2, err := a.LoadOrBuildVectorIndex(context.Background(), 10, Config{Dimension: 4, MaxElements: 999})
	require.NoError(t, err)

	require.Same(t, h1, h2)
	require.Equal(t, 100, h2.GetMaxElements(), "second call must not overwrite the existing handle's tuning")
}

func TestMemAdapter_ResizeMaxElements_ShrinkIsNoOp(t *testing.T) {
	a := NewMemAdapter()
	h, err := a.LoadOrBuildVectorIndex(context.Background(), 10, Config{Dimension: 4, MaxElements: 100})
	require.NoError(t, err)

	require.NoError(t, h.ResizeMaxElements(50))
	require.Equal(t, 100, h.GetMaxElements())

	require.NoError(t, h.ResizeMaxElements(200))
	require.Equal(t, 200, h.GetMaxElements())
}

func TestMemAdapter_DeleteVectorIndex_UnknownRegion(t *testing.T) {
	a := NewMemAdapter()
	err := a.DeleteVectorIndex(99)
	require.True(t, errkind.Is(err, errkind.VectorIndexNotFound))
}

func TestMemAdapter_DeleteThenGet_NotFound(t *testing.T) {
	a := NewMemAdapter()
	_, err := a.LoadOrBuildVectorIndex(context.Background(), 10, Config{Dimension: 4, MaxElements: 100})
	require.NoError(t, err)
	require.NoError(t, a.DeleteVectorIndex(10))

	_, ok := a.GetVectorIndex(10)
	require.False(t, ok)
}

func TestStaticPeerProbe_MissingOverride(t *testing.T) {
	p := &StaticPeerProbe{Missing: map[string]bool{"peer-b:9191": true}}

	ok, err := p.CheckVectorIndexExists(context.Background(), "peer-a:9191", 1)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = p.CheckVectorIndexExists(context.Background(), "peer-b:9191", 1)
	require.NoError(t, err)
	require.False(t, ok)
}
