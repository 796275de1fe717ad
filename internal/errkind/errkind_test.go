package errkind

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIs_MatchesWrappedKind(t *testing.T) {
	err := Wrap(RegionNotFound, errors.New("boom"), "region %d", 10)
	require.True(t, Is(err, RegionNotFound))
	require.False(t, Is(err, RegionExist))
}

func TestIs_FalseForPlainError(t *testing.T) {
	require.False(t, Is(errors.New("plain"), Internal))
}

func TestExpected_TrueForRejectionKinds(t *testing.T) {
	require.True(t, Expected(New(RegionState, "bad state")))
	require.True(t, Expected(New(KeyOutOfRange, "bad key")))
}

func TestExpected_FalseForInternalAndPlainErrors(t *testing.T) {
	require.False(t, Expected(New(Internal, "boom")))
	require.False(t, Expected(errors.New("plain")))
}

func TestError_UnwrapExposesCause(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(Internal, cause, "wrapping")
	require.ErrorIs(t, err, cause)
}
