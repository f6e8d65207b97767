package wallet

import (
	"context"
	"math"
	"math/rand/v2"
	"strings"
	"sync"

	"seedflow-backend/internal/domain/wallet"
	"seedflow-backend/pkg/id"
)

var Providers = []string{"phantom", "solflare"}

var _ wallet.Wallet = (*Mock)(nil)

// Mock is a browser-wallet stand-in with a fabricated address and balance.
type Mock struct {
	mu       sync.RWMutex
	provider string
	address  string
	balance  float64
	state    wallet.State
	rand     func() float64
}

func NewMock(rnd func() float64) *Mock {
	if rnd == nil {
		rnd = rand.Float64
	}
	return &Mock{state: wallet.StateDisconnected, rand: rnd}
}

func (m *Mock) State() wallet.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Mock) Address() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.address
}

func (m *Mock) Balance() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balance
}

func (m *Mock) Provider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.provider
}

func (m *Mock) Connect(ctx context.Context, provider string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := strings.ToLower(provider)
	if !knownProvider(p) {
		return wallet.ErrUnknownProvider
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.provider = p
	m.address = id.NewID32()
	m.balance = math.Round((1+m.rand()*10)*1e4) / 1e4
	m.state = wallet.StateConnected
	return nil
}

func (m *Mock) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != wallet.StateConnected {
		return wallet.ErrNotConnected
	}
	m.state = wallet.StateDisconnected
	m.address = ""
	m.balance = 0
	return nil
}

func knownProvider(p string) bool {
	for _, k := range Providers {
		if k == p {
			return true
		}
	}
	return false
}

// Sessions keeps one connected mock wallet per address.
type Sessions struct {
	mu      sync.RWMutex
	wallets map[string]*Mock
	rand    func() float64
}

func NewSessions(rnd func() float64) *Sessions {
	return &Sessions{wallets: make(map[string]*Mock), rand: rnd}
}

func (s *Sessions) Connect(ctx context.Context, provider string) (*Mock, error) {
	w := NewMock(s.rand)
	if err := w.Connect(ctx, provider); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.wallets[w.Address()] = w
	s.mu.Unlock()
	return w, nil
}

func (s *Sessions) Get(address string) (*Mock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[address]
	if !ok {
		return nil, wallet.ErrNotConnected
	}
	return w, nil
}

func (s *Sessions) Disconnect(ctx context.Context, address string) error {
	s.mu.Lock()
	w, ok := s.wallets[address]
	delete(s.wallets, address)
	s.mu.Unlock()
	if !ok {
		return wallet.ErrNotConnected
	}
	return w.Disconnect(ctx)
}
