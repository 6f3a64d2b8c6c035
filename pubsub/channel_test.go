package pubsub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alephcore/msginfra/meta"
)

// These are integration tests against a real NATS broker, the way the
// other transport packages' tests exercise real listeners; they skip
// cleanly when no broker is reachable at the default URL.

func TestChannelSendRecvRoundTrip(t *testing.T) {
	nc, err := Connect("")
	if err != nil {
		t.Skipf("no NATS server reachable: %v", err)
	}
	defer nc.Close()

	ch, err := NewChannel("a->b", "msginfra.test.roundtrip", nc, 4)
	require.NoError(t, err)
	defer ch.GetRecvPort().Join()

	m, err := meta.NewMeta(meta.Uint8, 2)
	require.NoError(t, err)
	require.NoError(t, ch.GetSendPort().Send(m, []byte{5, 6}))

	require.Eventually(t, func() bool { return ch.GetRecvPort().Probe() }, time.Second, 10*time.Millisecond)
	got, payload, err := ch.GetRecvPort().Recv()
	require.NoError(t, err)
	require.Equal(t, m, got)
	require.Equal(t, []byte{5, 6}, payload)
}

func TestChannelDropsOldestBeyondCapacity(t *testing.T) {
	nc, err := Connect("")
	if err != nil {
		t.Skipf("no NATS server reachable: %v", err)
	}
	defer nc.Close()

	ch, err := NewChannel("a->b", "msginfra.test.capacity", nc, 2)
	require.NoError(t, err)
	defer ch.GetRecvPort().Join()

	m, err := meta.NewMeta(meta.Uint8, 1)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, ch.GetSendPort().Send(m, []byte{byte(i)}))
	}

	require.Eventually(t, func() bool { return ch.GetRecvPort().Probe() }, time.Second, 10*time.Millisecond)
	_, payload, err := ch.GetRecvPort().Recv()
	require.NoError(t, err)
	require.Equal(t, byte(1), payload[0], "oldest sample (0) should have been dropped")
}
