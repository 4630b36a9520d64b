// Package memory keeps all repositories in-process. It backs STORAGE=memory
// and the service tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"wbuilder/internal/domain/models"
	"wbuilder/internal/domain/repositories"
	"wbuilder/internal/utils"
)

// Store holds every table of the memory backend.
//
// Writes are serialized by txMu. ExecTx holds txMu for the whole unit of work and
// restores a snapshot if fn fails, so a failed transaction leaves no trace.
// Reads outside a transaction may observe the writes of one in flight.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	clock *utils.MonotonicClock
	seq   int64

	users     map[string]models.User
	projects  map[string]models.Project
	versions  map[string][]models.Version           // key: project ID
	entries   map[string][]models.ConversationEntry // key: project ID
	ledger    []models.CreditTransaction
	purchases map[string]models.Purchase
}

// NewStore initializes an empty store using the wall clock.
func NewStore() *Store {
	return NewStoreWithClock(utils.NewMonotonicClock())
}

// NewStoreWithClock initializes an empty store with a custom clock (tests).
func NewStoreWithClock(clock *utils.MonotonicClock) *Store {
	return &Store{
		clock:     clock,
		users:     make(map[string]models.User),
		projects:  make(map[string]models.Project),
		versions:  make(map[string][]models.Version),
		entries:   make(map[string][]models.ConversationEntry),
		purchases: make(map[string]models.Purchase),
	}
}

// Repositories returned by the store share its state.

func (s *Store) Users() repositories.UserRepository                 { return &userRepo{s} }
func (s *Store) Projects() repositories.ProjectRepository           { return &projectRepo{s} }
func (s *Store) Versions() repositories.VersionRepository           { return &versionRepo{s} }
func (s *Store) Conversations() repositories.ConversationRepository { return &conversationRepo{s} }
func (s *Store) CreditTransactions() repositories.CreditTransactionRepository {
	return &creditTxRepo{s}
}
func (s *Store) Purchases() repositories.PurchaseRepository { return &purchaseRepo{s} }
func (s *Store) TxManager() repositories.TransactionManager { return &txManager{s} }

type txKey struct{}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(bool)
	return ok
}

type txManager struct{ s *Store }

// ExecTx runs fn atomically. Nested calls join the outer transaction.
func (m *txManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	m.s.txMu.Lock()
	defer m.s.txMu.Unlock()

	snap := m.s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.s.restore(snap)
		return err
	}
	return nil
}

// write runs fn under the write locks. Inside a transaction txMu is already
// held by ExecTx.
func (s *Store) write(ctx context.Context, fn func() error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// next returns a timestamp and sequence number. Caller holds mu.
func (s *Store) next() (time.Time, int64) {
	s.seq++
	return s.clock.Next(), s.seq
}

type snapshot struct {
	seq       int64
	users     map[string]models.User
	projects  map[string]models.Project
	versions  map[string][]models.Version
	entries   map[string][]models.ConversationEntry
	ledger    []models.CreditTransaction
	purchases map[string]models.Purchase
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		seq:       s.seq,
		users:     maps.Clone(s.users),
		projects:  maps.Clone(s.projects),
		versions:  make(map[string][]models.Version, len(s.versions)),
		entries:   make(map[string][]models.ConversationEntry, len(s.entries)),
		ledger:    slices.Clone(s.ledger),
		purchases: maps.Clone(s.purchases),
	}
	for id, vs := range s.versions {
		snap.versions[id] = slices.Clone(vs)
	}
	for id, es := range s.entries {
		snap.entries[id] = slices.Clone(es)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq = snap.seq
	s.users = snap.users
	s.projects = snap.projects
	s.versions = snap.versions
	s.entries = snap.entries
	s.ledger = snap.ledger
	s.purchases = snap.purchases
}
