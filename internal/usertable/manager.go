package usertable

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-table/pkg/logger"
)

// Store persists table snapshots between requests of one session.
type Store interface {
	// Load returns the saved state, or nil when the session has none.
	Load(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, sessionID string, s State) error
	Delete(ctx context.Context, sessionID string) error
}

type session struct {
	table    *Table
	lastUsed time.Time
}

// Manager keeps one live Table per browser session. Tables are restored from the
// store on first use and saved after every change.
type Manager struct {
	svc   *Service
	store Store
	log   *zap.Logger
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
	group    singleflight.Group
}

// NewManager creates a Manager. store may be nil, in which case state lives only in memory.
func NewManager(svc *Service, store Store, log *zap.Logger) *Manager {
	return &Manager{
		svc:      svc,
		store:    store,
		log:      log.Named("sessions"),
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Open returns the live table of a session, restoring it from the store if needed.
// Concurrent first requests of one session share a single restore.
func (m *Manager) Open(ctx context.Context, sessionID string) (*Table, error) {
	if t := m.lookup(sessionID); t != nil {
		return t, nil
	}

	v, err, _ := m.group.Do(sessionID, func() (interface{}, error) {
		if t := m.lookup(sessionID); t != nil {
			return t, nil
		}

		initial := NewState()
		if m.store != nil {
			// Shared by every waiter, so one canceled request must not fail the rest.
			saved, err := m.store.Load(context.WithoutCancel(ctx), sessionID)
			if err != nil {
				return nil, fmt.Errorf("restore session state: %w", err)
			}
			if saved != nil {
				initial = *saved
			}
		}

		t := NewTable(m.svc, initial, m.log)
		t.OnChange(m.persist(sessionID))

		m.mu.Lock()
		m.sessions[sessionID] = &session{table: t, lastUsed: m.now()}
		m.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

func (m *Manager) lookup(sessionID string) *Table {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil
	}
	s.lastUsed = m.now()
	return s.table
}

func (m *Manager) persist(sessionID string) ChangeFunc {
	return func(ctx context.Context, s State) {
		if m.store == nil {
			return
		}
		// The request may already be finished when a slow call reconciles.
		ctx = context.WithoutCancel(ctx)
		if err := m.store.Save(ctx, sessionID, s); err != nil {
			logger.WithContext(ctx, m.log).Warn("failed to save session state", zap.Error(err))
		}
	}
}

// Close tears down a session: its table is closed and its saved state removed.
func (m *Manager) Close(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if ok {
		s.table.Close()
	}
	if m.store != nil {
		if err := m.store.Delete(ctx, sessionID); err != nil {
			return fmt.Errorf("delete session state: %w", err)
		}
	}
	return nil
}

// Evict closes tables idle for longer than idle. Their saved state stays in the store,
// so a returning session is restored without fetching again.
func (m *Manager) Evict(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	var stale []*Table
	for id, s := range m.sessions {
		if s.lastUsed.Before(cutoff) {
			stale = append(stale, s.table)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, t := range stale {
		t.Close()
	}
	return len(stale)
}

// RunJanitor evicts idle tables every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Evict(idle); n > 0 {
				m.log.Debug("evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}

// Len returns the number of live tables.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown closes every live table. Saved state is kept.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.table.Close()
	}
}
