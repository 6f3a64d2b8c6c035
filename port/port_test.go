package port

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	require.Equal(t, "SHMEM", SHMEM.String())
	require.Equal(t, "PUBSUB", PUBSUB.String())
	require.Equal(t, "RPC", RPC.String())
	require.Equal(t, "UNKNOWN", Kind(99).String())
}
