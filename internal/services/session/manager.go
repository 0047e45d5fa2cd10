package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/image-editor/internal/services/dispatcher"
	"github.com/phambaophuc/image-editor/internal/services/params"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many active sessions")
)

// Session pairs the state with the prompter its parameter entry waits on.
type Session struct {
	*State
	Prompter *params.ChannelPrompter
}

type ManagerOptions struct {
	Dispatcher      dispatcher.Dispatcher
	Previews        *PreviewRegistry
	Compressor      Compressor
	Events          EventPublisher
	Logger          *zap.Logger
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
	MaxSessions     int
}

// Manager keeps the live editing sessions. Sessions idle longer than
// IdleTimeout are closed by a background loop.
type Manager struct {
	opts   ManagerOptions
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	ctx         context.Context
	cancel      context.CancelFunc
	cleanupDone chan struct{}
}

func NewManager(opts ManagerOptions) *Manager {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Previews == nil {
		opts.Previews = NewPreviewRegistry()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		opts:        opts,
		logger:      opts.Logger,
		sessions:    make(map[string]*Session),
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}

	if opts.IdleTimeout > 0 && opts.CleanupInterval > 0 {
		go m.cleanupLoop()
	} else {
		close(m.cleanupDone)
	}
	return m
}

// Context lives until Shutdown; background operations run under it.
func (m *Manager) Context() context.Context { return m.ctx }

func (m *Manager) Previews() *PreviewRegistry { return m.opts.Previews }

func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx.Err() != nil {
		return nil, ErrClosed
	}
	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		if !m.evictLRU() {
			return nil, ErrTooManySessions
		}
	}

	id := uuid.New().String()
	prompter := params.NewChannelPrompter()
	state := NewState(id, Options{
		Dispatcher: m.opts.Dispatcher,
		Collector:  params.NewCollector(prompter, m.logger),
		Previews:   m.opts.Previews,
		Compressor: m.opts.Compressor,
		Events:     m.opts.Events,
		Logger:     m.logger,
	})

	sess := &Session{State: state, Prompter: prompter}
	m.sessions[id] = sess
	m.logger.Info("Session created", zap.String("session_id", id))
	return sess, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	closeSession(sess)
	m.logger.Info("Session deleted", zap.String("session_id", id))
	return nil
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown stops the cleanup loop and closes every session.
func (m *Manager) Shutdown() {
	m.cancel()
	<-m.cleanupDone

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		closeSession(sess)
	}
}

// CleanupExpired closes sessions idle since before now-IdleTimeout. Busy
// sessions are kept until their operation settles.
func (m *Manager) CleanupExpired(now time.Time) int {
	if m.opts.IdleTimeout <= 0 {
		return 0
	}
	cutoff := now.Add(-m.opts.IdleTimeout)

	m.mu.Lock()
	var expired []*Session
	for id, sess := range m.sessions {
		if sess.Busy() {
			continue
		}
		if sess.LastActivity().Before(cutoff) {
			expired = append(expired, sess)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, sess := range expired {
		closeSession(sess)
	}
	if len(expired) > 0 {
		m.logger.Info("Expired idle sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

func (m *Manager) cleanupLoop() {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(m.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case now := <-ticker.C:
			m.CleanupExpired(now)
		}
	}
}

// evictLRU drops the least recently used idle session. Caller holds mu.
func (m *Manager) evictLRU() bool {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, sess := range m.sessions {
		if sess.Busy() {
			continue
		}
		if last := sess.LastActivity(); oldestID == "" || last.Before(oldest) {
			oldestID, oldest = id, last
		}
	}
	if oldestID == "" {
		return false
	}

	sess := m.sessions[oldestID]
	delete(m.sessions, oldestID)
	closeSession(sess)
	m.logger.Info("Evicted least recently used session", zap.String("session_id", oldestID))
	return true
}

func closeSession(sess *Session) {
	_ = sess.Prompter.Cancel()
	sess.Close()
}
