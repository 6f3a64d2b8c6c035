package selector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alephcore/msginfra/meta"
	"github.com/alephcore/msginfra/port"
	"github.com/alephcore/msginfra/ringshm"
)

func newTestChannel(t *testing.T, mgr *ringshm.Manager, capacity int) port.Channel {
	t.Helper()
	ring, err := mgr.AllocChannelSharedMemory(8, capacity)
	require.NoError(t, err)
	return ringshm.NewChannel("t", ring)
}

func TestSelectFirstMatchWinsOnPreloadedPort(t *testing.T) {
	mgr := ringshm.NewManager()
	defer mgr.DeleteAllSharedMemory()

	ch1 := newTestChannel(t, mgr, 2)
	ch2 := newTestChannel(t, mgr, 2)

	m, err := meta.NewMeta(meta.Uint8, 1)
	require.NoError(t, err)
	require.NoError(t, ch1.GetSendPort().Send(m, []byte{7}))

	var chosen int
	idx := Select([]Case{
		{Port: ch1.GetRecvPort(), Action: func(p port.RecvPort) { chosen = 1; _, _, _ = p.Recv() }},
		{Port: ch2.GetRecvPort(), Action: func(p port.RecvPort) { chosen = 2 }},
	})
	require.Equal(t, 0, idx)
	require.Equal(t, 1, chosen)
}

func TestSelectWakesOnArrival(t *testing.T) {
	mgr := ringshm.NewManager()
	defer mgr.DeleteAllSharedMemory()

	ch := newTestChannel(t, mgr, 2)
	m, err := meta.NewMeta(meta.Uint8, 1)
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = ch.GetSendPort().Send(m, []byte{9})
	}()

	done := make(chan struct{})
	go func() {
		Select([]Case{
			{Port: ch.GetRecvPort(), Action: func(p port.RecvPort) { _, _, _ = p.Recv() }},
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Select never woke up on arrival")
	}
}

func TestTrySelectNonBlocking(t *testing.T) {
	mgr := ringshm.NewManager()
	defer mgr.DeleteAllSharedMemory()

	ch := newTestChannel(t, mgr, 2)
	idx, ok := TrySelect([]Case{
		{Port: ch.GetRecvPort(), Action: func(p port.RecvPort) {}},
	})
	require.False(t, ok)
	require.Equal(t, -1, idx)
}
