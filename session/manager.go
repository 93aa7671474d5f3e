package session

import (
	"context"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/mbolis/patrol-report/form"
	"github.com/mbolis/patrol-report/log"
	"github.com/mbolis/patrol-report/model"
	"github.com/mbolis/patrol-report/validation"
)

type Repository interface {
	Saver
	Get(ctx context.Context, id string) (model.Report, error)
}

// Manager keeps at most one open session per report.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	repo     Repository
	engine   *validation.Engine
	renderer *form.Renderer
	opts     Options
}

func NewManager(repo Repository, engine *validation.Engine, renderer *form.Renderer, opts Options) *Manager {
	return &Manager{
		sessions: map[string]*Session{},
		repo:     repo,
		engine:   engine,
		renderer: renderer,
		opts:     opts,
	}
}

// Open returns the session of report id, loading the report if nobody has
// it open yet.
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s, nil
	}

	rep, err := m.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	token, err := uuid.NewV4()
	if err != nil {
		return nil, errors.Wrap(err, "session token")
	}

	s := New(token.String(), rep, m.engine, m.renderer, m.repo, m.opts)
	m.sessions[id] = s
	log.ForReport(id).Debug("session.open")
	return s, nil
}

// Get finds the open session of report id holding token.
func (m *Manager) Get(id, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || s.token != token {
		return nil, errors.Wrapf(ErrNotFound, "%q", id)
	}
	return s, nil
}

// Close flushes and forgets the session of report id.
func (m *Manager) Close(id, token string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok || s.token != token {
		m.mu.Unlock()
		return errors.Wrapf(ErrNotFound, "%q", id)
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	log.ForReport(id).Debug("session.close")
	return s.Close()
}

// Flush saves the pending edits of report id, if it is open.
func (m *Manager) Flush(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return s.Flush()
}

// Discard forgets the session of report id without saving, for a report
// that is being deleted.
func (m *Manager) Discard(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.discard()
	}
}

// CloseAll flushes every open session.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = map[string]*Session{}
	m.mu.Unlock()

	var result *multierror.Error
	for id, s := range sessions {
		if err := s.Close(); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "report %q", id))
		}
	}
	return result.ErrorOrNil()
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
