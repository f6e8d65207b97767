package wallet

import (
	"context"
	"errors"
)

var (
	ErrNotConnected    = errors.New("wallet not connected")
	ErrUnknownProvider = errors.New("unknown wallet provider")
)

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnected    State = "connected"
)

// Wallet is the capability surface of an external wallet adapter.
type Wallet interface {
	State() State
	Address() string
	Balance() float64
	Connect(ctx context.Context, provider string) error
	Disconnect(ctx context.Context) error
}

// ShortAddress renders an address as "abcd...xyz" for display.
func ShortAddress(addr string) string {
	if len(addr) <= 7 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-3:]
}
