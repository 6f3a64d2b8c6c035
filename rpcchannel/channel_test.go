package rpcchannel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alephcore/msginfra/meta"
	"github.com/alephcore/msginfra/msgerr"
)

func TestChannelSendRecvRoundTrip(t *testing.T) {
	ch, err := NewChannel("a->b", 4, 32)
	require.NoError(t, err)
	defer ch.GetRecvPort().Join()
	defer ch.GetSendPort().Join()

	m, err := meta.NewMeta(meta.Uint8, 3)
	require.NoError(t, err)
	require.NoError(t, ch.GetSendPort().Send(m, []byte{1, 2, 3}))

	got, payload, err := ch.GetRecvPort().Recv()
	require.NoError(t, err)
	require.Equal(t, m, got)
	require.Equal(t, []byte{1, 2, 3}, payload)
}

func TestChannelProbeReflectsAvailability(t *testing.T) {
	ch, err := NewChannel("a->b", 4, 32)
	require.NoError(t, err)
	defer ch.GetRecvPort().Join()
	defer ch.GetSendPort().Join()

	require.False(t, ch.GetRecvPort().Probe())

	m, err := meta.NewMeta(meta.Uint8, 1)
	require.NoError(t, err)
	require.NoError(t, ch.GetSendPort().Send(m, []byte{1}))

	require.Eventually(t, func() bool { return ch.GetRecvPort().Probe() }, time.Second, 10*time.Millisecond)
}

func TestChannelJoinClosesRecv(t *testing.T) {
	ch, err := NewChannel("a->b", 2, 16)
	require.NoError(t, err)

	require.NoError(t, ch.GetRecvPort().Join())
	_, _, err = ch.GetRecvPort().Recv()
	require.ErrorIs(t, err, msgerr.ErrChannelClosed)
}

func TestPoolAllocatesDistinctAddresses(t *testing.T) {
	a := allocAddr()
	b := allocAddr()
	require.NotEqual(t, a, b)
	releaseAddr(a)
	releaseAddr(b)
}
