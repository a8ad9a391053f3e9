package state

import (
	"sync"

	"github.com/pandodao/drm-wallet/core"
)

// Store is the single writer for a wallet's root state. Every mutation goes
// through Dispatch; readers get deep copies.
type Store struct {
	mu    sync.RWMutex
	state core.RootState

	// notify keeps subscriber callbacks in dispatch order
	notify sync.Mutex
	subs   map[int]func(core.RootState)
	nextID int
}

func New() *Store {
	return NewWithState(core.RootState{Wallet: Reset(), Network: core.NetworkState{PendingConfirmations: []string{}}})
}

// NewWithState starts from a state restored elsewhere. Callers validate it first.
func NewWithState(s core.RootState) *Store {
	return &Store{
		state: s.Clone(),
		subs:  map[int]func(core.RootState){},
	}
}

// Dispatch applies a and returns the error the action produced, if any. A
// rejected action still bumps the version since it sets the error flag.
func (s *Store) Dispatch(a Action) error {
	s.mu.Lock()
	next, err := Reduce(s.state, a)
	next.Version = s.state.Version + 1
	s.state = next

	snapshot := next.Clone()
	s.notify.Lock()
	fns := make([]func(core.RootState), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
	s.notify.Unlock()

	return err
}

// Subscribe registers fn to receive a snapshot after every dispatch. fn must
// not dispatch.
func (s *Store) Subscribe(fn func(core.RootState)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) Snapshot() core.RootState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

func (s *Store) Wallet() core.WalletState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Wallet.Clone()
}

func (s *Store) Network() core.NetworkState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Network.Clone()
}

func (s *Store) Mining() core.MiningState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Mining
}

func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Version
}

// Transaction returns a copy of the transaction with id.
func (s *Store) Transaction(id string) (*core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.state.Wallet.Find(id); i >= 0 {
		return s.state.Wallet.Transactions[i].Clone(), true
	}

	return nil, false
}
