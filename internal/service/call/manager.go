package call

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/z-guardian/backend/internal/analysis/reply"
	model "github.com/zhouzirui/z-guardian/backend/internal/model/call"
	"github.com/zhouzirui/z-guardian/backend/internal/service/history"
	"github.com/zhouzirui/z-guardian/backend/internal/timer"
)

var ErrSessionNotFound = errors.New("call session not found")

// StartOptions customises a new call. Blank fields fall back to the manager defaults.
type StartOptions struct {
	AIName   string
	CodeWord string
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// Config is the template for new calls; ID, AIName and CodeWord may be overridden per call.
	Config    Config
	Scheduler timer.Scheduler
	Alerts    AlertDispatcher
	History   history.Recorder
	Hub       *Hub
	// NewRand seeds per-call randomness. Defaults to a time-seeded PCG.
	NewRand func() reply.Rand
	// Rephraser optionally rewrites rule-based replies, e.g. with an LLM.
	Rephraser Rephraser
	Logger    zerolog.Logger
}

// Manager keeps the live calls of this process.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     ManagerOptions
	logger   zerolog.Logger
}

// NewManager bootstraps the in-memory call registry.
func NewManager(opts ManagerOptions) *Manager {
	if opts.Scheduler == nil {
		opts.Scheduler = timer.NewRealtime()
	}
	if opts.NewRand == nil {
		opts.NewRand = func() reply.Rand {
			return rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
		}
	}
	return &Manager{
		sessions: make(map[string]*Session),
		opts:     opts,
		logger:   opts.Logger.With().Str("component", "call_manager").Logger(),
	}
}

// Start creates, registers and starts a call.
func (m *Manager) Start(ctx context.Context, in StartOptions) (*Session, error) {
	cfg := m.opts.Config
	cfg.ID = ""
	if in.AIName != "" {
		cfg.AIName = in.AIName
	}
	if in.CodeWord != "" {
		cfg.CodeWord = in.CodeWord
	}
	cfg = cfg.withDefaults()

	rng := newLockedRand(m.opts.NewRand())

	var listener Listener
	if m.opts.Hub != nil {
		listener = m.opts.Hub.Publish
	}

	session := New(cfg, Dependencies{
		Scheduler: m.opts.Scheduler,
		Rand:      rng,
		Responder: reply.NewGenerator(cfg.AIName, rng),
		Rephraser: m.opts.Rephraser,
		Alerts:    m.opts.Alerts,
		History:   m.opts.History,
		Listener:  listener,
		Logger:    m.opts.Logger,
	})

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	if err := session.Start(ctx); err != nil {
		m.remove(session.ID())
		return nil, err
	}
	return session, nil
}

// Get retrieves a live call by identifier.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// End hangs up a call and forgets it.
func (m *Manager) End(ctx context.Context, id string) (model.Summary, error) {
	session, err := m.Get(id)
	if err != nil {
		return model.Summary{}, err
	}

	summary, err := session.End(ctx)
	m.remove(id)
	if m.opts.Hub != nil {
		m.opts.Hub.CloseSession(id)
	}
	return summary, err
}

// List returns snapshots of the live calls, oldest first.
func (m *Manager) List() []model.State {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	states := make([]model.State, 0, len(sessions))
	for _, s := range sessions {
		states = append(states, s.Snapshot())
	}
	sort.Slice(states, func(i, j int) bool {
		if states[i].StartedAt.Equal(states[j].StartedAt) {
			return states[i].ID < states[j].ID
		}
		return states[i].StartedAt.Before(states[j].StartedAt)
	})
	return states
}

// Shutdown ends every live call so each one reaches the history store.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		if _, err := m.End(ctx, id); err != nil && !errors.Is(err, ErrNotActive) && !errors.Is(err, ErrSessionNotFound) {
			m.logger.Warn().Err(err).Str("call_id", id).Msg("end call on shutdown")
		}
	}
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
