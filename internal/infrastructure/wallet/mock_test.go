package wallet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seedflow-backend/internal/domain/wallet"
)

func TestMock_ConnectDisconnect(t *testing.T) {
	m := NewMock(func() float64 { return 0.5 })
	assert.Equal(t, wallet.StateDisconnected, m.State())

	require.NoError(t, m.Connect(context.Background(), "Phantom"))
	assert.Equal(t, wallet.StateConnected, m.State())
	assert.Equal(t, "phantom", m.Provider())
	assert.Len(t, m.Address(), 32)
	assert.Equal(t, 6.0, m.Balance())

	require.NoError(t, m.Disconnect(context.Background()))
	assert.Equal(t, wallet.StateDisconnected, m.State())
	assert.Empty(t, m.Address())
	assert.ErrorIs(t, m.Disconnect(context.Background()), wallet.ErrNotConnected)
}

func TestMock_UnknownProvider(t *testing.T) {
	m := NewMock(nil)
	assert.ErrorIs(t, m.Connect(context.Background(), "metamask"), wallet.ErrUnknownProvider)
	assert.Equal(t, wallet.StateDisconnected, m.State())
}

func TestMock_BalanceRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		m := NewMock(nil)
		require.NoError(t, m.Connect(context.Background(), "solflare"))
		assert.GreaterOrEqual(t, m.Balance(), 1.0)
		assert.LessOrEqual(t, m.Balance(), 11.0)
	}
}

func TestSessions(t *testing.T) {
	s := NewSessions(nil)
	w, err := s.Connect(context.Background(), "phantom")
	require.NoError(t, err)

	got, err := s.Get(w.Address())
	require.NoError(t, err)
	assert.Same(t, w, got)

	addr := w.Address()
	require.NoError(t, s.Disconnect(context.Background(), addr))
	_, err = s.Get(addr)
	assert.ErrorIs(t, err, wallet.ErrNotConnected)
	assert.ErrorIs(t, s.Disconnect(context.Background(), addr), wallet.ErrNotConnected)
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "abcd...xyz", wallet.ShortAddress("abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, "short", wallet.ShortAddress("short"))
}
