package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/ggass"
)

var (
	errSessionNotFound = errors.New("session not found")
	errTooManySessions = errors.New("too many sessions")
)

type session struct {
	id      string
	engine  *ggass.Engine
	created time.Time

	// mu orders renders with their version bumps.
	mu sync.Mutex
	// version counts distinct frames served; stale forces the next render
	// to start a new one.
	version uint64
	stale   bool
}

// render renders the session's engine at t into f and returns the version
// of the result. The version only moves when the frame differs from the
// previous one, so it serves as an entity tag.
func (sess *session) render(s *Server, t int64, f *ggass.Frame) (uint64, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.render(sess.engine, t, f); err != nil {
		return 0, err
	}
	if sess.stale || sess.version == 0 || f.Changed() != 0 {
		sess.version++
		sess.stale = false
	}
	return sess.version, nil
}

func (sess *session) setTrack(track []byte) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.stale = true
	return sess.engine.SetTrack(track)
}

func (sess *session) setFrameSize(width, height int) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.stale = true
	return sess.engine.SetFrameSize(width, height)
}

// sessions owns the engines of open sessions.
type sessions struct {
	mu      sync.Mutex
	m       map[string]*session
	max     int
	metrics *metrics
}

func newSessions(limit int, m *metrics) *sessions {
	return &sessions{
		m:       make(map[string]*session),
		max:     limit,
		metrics: m,
	}
}

func (s *sessions) create(opts ...ggass.EngineOption) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.m) >= s.max {
		return nil, errTooManySessions
	}

	e, err := ggass.Create(opts...)
	if err != nil {
		return nil, err
	}
	sess := &session{
		id:      uuid.New().String(),
		engine:  e,
		created: time.Now(),
	}
	s.m[sess.id] = sess
	s.metrics.sessions.Set(float64(len(s.m)))
	return sess, nil
}

func (s *sessions) get(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[id]
	if !ok {
		return nil, errSessionNotFound
	}
	return sess, nil
}

func (s *sessions) remove(id string) error {
	s.mu.Lock()
	sess, ok := s.m[id]
	delete(s.m, id)
	s.metrics.sessions.Set(float64(len(s.m)))
	s.mu.Unlock()

	if !ok {
		return errSessionNotFound
	}
	sess.engine.Destroy()
	return nil
}

func (s *sessions) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

// closeAll destroys every session and returns how many there were.
func (s *sessions) closeAll() int {
	s.mu.Lock()
	all := s.m
	s.m = make(map[string]*session)
	s.metrics.sessions.Set(0)
	s.mu.Unlock()

	for _, sess := range all {
		sess.engine.Destroy()
	}
	return len(all)
}
