package session

import (
	"sync"

	"TrenchGame/internal/shared/transport/ws"
)

// Manager binds live connections to a value, typically the battle the
// connection plays in. A binding is dropped automatically when its
// connection closes, and onClose runs for it outside the lock.
type Manager[V any] struct {
	sync.RWMutex
	conns   map[string]ws.WSConn
	values  map[string]V
	onClose func(conn ws.WSConn, v V)
}

func NewManager[V any](onClose func(conn ws.WSConn, v V)) *Manager[V] {
	return &Manager[V]{
		conns:   make(map[string]ws.WSConn),
		values:  make(map[string]V),
		onClose: onClose,
	}
}

// Bind associates conn with v. It reports false if conn is already bound.
func (s *Manager[V]) Bind(conn ws.WSConn, v V) bool {
	if conn == nil {
		return false
	}
	s.Lock()
	defer s.Unlock()
	id := conn.ID()
	if _, ok := s.conns[id]; ok {
		return false
	}
	s.conns[id] = conn
	s.values[id] = v
	go s.watchConnDone(conn)
	return true
}

func (s *Manager[V]) watchConnDone(conn ws.WSConn) {
	<-conn.Done()
	if v, ok := s.Unbind(conn); ok && s.onClose != nil {
		s.onClose(conn, v)
	}
}

// Unbind removes the binding of conn and returns its value.
func (s *Manager[V]) Unbind(conn ws.WSConn) (V, bool) {
	s.Lock()
	defer s.Unlock()
	id := conn.ID()
	v, ok := s.values[id]
	if !ok || s.conns[id] != conn {
		var zero V
		return zero, false
	}
	delete(s.conns, id)
	delete(s.values, id)
	return v, true
}

func (s *Manager[V]) Get(conn ws.WSConn) (V, bool) {
	s.RLock()
	defer s.RUnlock()
	v, ok := s.values[conn.ID()]
	return v, ok
}

func (s *Manager[V]) Len() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.conns)
}
