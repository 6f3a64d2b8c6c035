package ringshm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alephcore/msginfra/meta"
	"github.com/alephcore/msginfra/msgerr"
	"github.com/alephcore/msginfra/port"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager()
}

func TestRingFIFOOrder(t *testing.T) {
	mgr := newTestManager(t)
	ring, err := mgr.AllocChannelSharedMemory(16, 4)
	require.NoError(t, err)
	defer mgr.DeleteAllSharedMemory()

	ch := NewChannel("a->b", ring)
	send := ch.GetSendPort()
	recv := ch.GetRecvPort()

	m, err := meta.NewMeta(meta.Uint8, 1)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.NoError(t, send.Send(m, []byte{byte(i)}))
	}
	for i := 0; i < 4; i++ {
		_, payload, err := recv.Recv()
		require.NoError(t, err)
		require.Equal(t, byte(i), payload[0])
	}
}

func TestRingBackpressureBlocksProducerUntilConsumed(t *testing.T) {
	mgr := newTestManager(t)
	ring, err := mgr.AllocChannelSharedMemory(8, 1)
	require.NoError(t, err)
	defer mgr.DeleteAllSharedMemory()

	ch := NewChannel("a->b", ring)
	send := ch.GetSendPort()
	recv := ch.GetRecvPort()

	m, err := meta.NewMeta(meta.Uint8, 1)
	require.NoError(t, err)
	require.NoError(t, send.Send(m, []byte{1}))

	sentSecond := make(chan struct{})
	go func() {
		_ = send.Send(m, []byte{2})
		close(sentSecond)
	}()

	select {
	case <-sentSecond:
		t.Fatal("second send completed before the single slot was drained")
	default:
	}

	_, payload, err := recv.Recv()
	require.NoError(t, err)
	require.Equal(t, byte(1), payload[0])

	<-sentSecond
	_, payload, err = recv.Recv()
	require.NoError(t, err)
	require.Equal(t, byte(2), payload[0])
}

func TestRingSemaphoreBalanceInvariant(t *testing.T) {
	mgr := newTestManager(t)
	ring, err := mgr.AllocChannelSharedMemory(4, 6)
	require.NoError(t, err)
	defer mgr.DeleteAllSharedMemory()

	require.Equal(t, 6, ring.Balance())

	ch := NewChannel("a->b", ring)
	send := ch.GetSendPort()
	recv := ch.GetRecvPort()
	m, err := meta.NewMeta(meta.Uint8, 1)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, send.Send(m, []byte{byte(i)}))
		require.Equal(t, 6, ring.Balance())
	}
	for i := 0; i < 3; i++ {
		_, _, err := recv.Recv()
		require.NoError(t, err)
		require.Equal(t, 6, ring.Balance())
	}
}

func TestSendRejectsOversizedPayload(t *testing.T) {
	mgr := newTestManager(t)
	ring, err := mgr.AllocChannelSharedMemory(4, 2)
	require.NoError(t, err)
	defer mgr.DeleteAllSharedMemory()

	ch := NewChannel("a->b", ring)
	send := ch.GetSendPort()

	m, err := meta.NewMeta(meta.Uint8, 16)
	require.NoError(t, err)
	err = send.Send(m, make([]byte, 16))
	require.ErrorIs(t, err, msgerr.ErrPayloadTooLarge)
}

func TestCleanupIsIdempotent(t *testing.T) {
	mgr := newTestManager(t)
	_, err := mgr.AllocChannelSharedMemory(4, 2)
	require.NoError(t, err)

	require.NoError(t, mgr.DeleteAllSharedMemory())
	require.NoError(t, mgr.DeleteAllSharedMemory())
}

func TestAttachChannelFromEnvRoundTrips(t *testing.T) {
	mgr := newTestManager(t)
	ring, err := mgr.AllocChannelSharedMemory(8, 4)
	require.NoError(t, err)
	defer mgr.DeleteAllSharedMemory()

	ch := NewChannel("main->relay", ring)
	for k, v := range ChannelEnv("TORELAY", ch) {
		t.Setenv(k, v)
	}

	attached, err := AttachChannelFromEnv("TORELAY")
	require.NoError(t, err)
	require.Equal(t, "main->relay", attached.Name())

	m, err := meta.NewMeta(meta.Uint8, 1)
	require.NoError(t, err)
	require.NoError(t, ch.GetSendPort().Send(m, []byte{42}))

	_, payload, err := attached.GetRecvPort().Recv()
	require.NoError(t, err)
	require.Equal(t, byte(42), payload[0])
}

func TestSelectorObserverFiresOnStoreNotOnlyOnDrain(t *testing.T) {
	mgr := newTestManager(t)
	ring, err := mgr.AllocChannelSharedMemory(8, 4)
	require.NoError(t, err)
	defer mgr.DeleteAllSharedMemory()

	ch := NewChannel("a->b", ring)
	recv := ch.GetRecvPort()

	notified := make(chan struct{}, 1)
	unsub := recv.(port.Observable).AddObserver(func() {
		select {
		case notified <- struct{}{}:
		default:
		}
	})
	defer unsub()

	m, err := meta.NewMeta(meta.Uint8, 1)
	require.NoError(t, err)
	require.NoError(t, ch.GetSendPort().Send(m, []byte{1}))

	select {
	case <-notified:
	default:
		t.Fatal("observer was not notified on Store, only would have been on drain")
	}
}

func TestJoinClosesSendAndRecv(t *testing.T) {
	mgr := newTestManager(t)
	ring, err := mgr.AllocChannelSharedMemory(4, 2)
	require.NoError(t, err)
	defer mgr.DeleteAllSharedMemory()

	ch := NewChannel("a->b", ring)
	send := ch.GetSendPort()
	recv := ch.GetRecvPort()

	require.NoError(t, send.Join())
	m, err := meta.NewMeta(meta.Uint8, 1)
	require.NoError(t, err)
	require.ErrorIs(t, send.Send(m, []byte{1}), msgerr.ErrChannelClosed)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, err := recv.Recv()
		require.ErrorIs(t, err, msgerr.ErrChannelClosed)
	}()
	require.NoError(t, recv.Join())
	wg.Wait()
}
