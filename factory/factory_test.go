package factory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alephcore/msginfra/meta"
	"github.com/alephcore/msginfra/msgerr"
	"github.com/alephcore/msginfra/port"
	"github.com/alephcore/msginfra/ringshm"
)

func TestGetChannelRejectsZeroCapacity(t *testing.T) {
	f := New(nil)
	defer f.ShmManager().DeleteAllSharedMemory()

	_, err := f.GetChannel(port.SHMEM, 0, 16, "a", "b")
	require.ErrorIs(t, err, msgerr.ErrResourceExhausted)
}

func TestGetChannelShmemSingleSlotIsBlockingVariant(t *testing.T) {
	f := New(nil)
	defer f.ShmManager().DeleteAllSharedMemory()

	ch, err := f.GetChannel(port.SHMEM, 1, 16, "a", "b")
	require.NoError(t, err)
	require.IsType(t, &ringshm.BlockRecvPort{}, ch.GetRecvPort())
}

func TestGetChannelShmemMultiSlotIsGeneralVariant(t *testing.T) {
	f := New(nil)
	defer f.ShmManager().DeleteAllSharedMemory()

	ch, err := f.GetChannel(port.SHMEM, 4, 16, "a", "b")
	require.NoError(t, err)
	require.IsType(t, &ringshm.RecvPortImpl{}, ch.GetRecvPort())
}

func TestGetChannelShmemRoundTrip(t *testing.T) {
	f := New(nil)
	defer f.ShmManager().DeleteAllSharedMemory()

	ch, err := f.GetChannel(port.SHMEM, 4, 16, "a", "b")
	require.NoError(t, err)

	m, err := meta.NewMeta(meta.Int32, 2)
	require.NoError(t, err)
	require.NoError(t, ch.GetSendPort().Send(m, []byte{1, 0, 0, 0, 2, 0, 0, 0}))

	got, payload, err := ch.GetRecvPort().Recv()
	require.NoError(t, err)
	require.Equal(t, m, got)
	require.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0}, payload)
}

func TestGetChannelPubsubWithoutConnFails(t *testing.T) {
	f := New(nil)
	defer f.ShmManager().DeleteAllSharedMemory()

	_, err := f.GetChannel(port.PUBSUB, 4, 16, "a", "b")
	require.ErrorIs(t, err, msgerr.ErrResourceExhausted)
}
