package regioncmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKind_String_CoversKnownKinds(t *testing.T) {
	require.Equal(t, "CREATE", KindCreate.String())
	require.Equal(t, "DESTROY_EXECUTOR", KindDestroyExecutor.String())
	require.Equal(t, "UNKNOWN", Kind(999).String())
}

func TestKind_RegionAgnostic_OnlyPurgeAndDestroyExecutor(t *testing.T) {
	require.True(t, KindPurge.RegionAgnostic())
	require.True(t, KindDestroyExecutor.RegionAgnostic())
	require.False(t, KindCreate.RegionAgnostic())
	require.False(t, KindSplit.RegionAgnostic())
}

func TestStatus_String(t *testing.T) {
	require.Equal(t, "NONE", StatusNone.String())
	require.Equal(t, "DONE", StatusDone.String())
	require.Equal(t, "FAIL", StatusFail.String())
}
