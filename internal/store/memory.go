package store

import (
	"context"
	"strconv"
	"sync"

	"github.com/rmehta/truthdare/internal/models"
)

// MemoryStore is a mutex-guarded in-process SessionStore. It backs tests and
// single-node deployments that run without Redis. Sessions are held in the
// same flat hash layout the Redis store uses, so both implementations share
// one codec.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]map[string]string
}

// NewMemoryStore returns an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]map[string]string),
	}
}

func (m *MemoryStore) Get(_ context.Context, roomID int64) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.sessions[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make(map[string]string, len(h))
	for k, v := range h {
		cp[k] = v
	}
	return DecodeSession(roomID, cp)
}

func (m *MemoryStore) Create(_ context.Context, roomID int64, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[roomID]; ok {
		return ErrExists
	}
	h, err := EncodeSession(s)
	if err != nil {
		return err
	}
	m.sessions[roomID] = h
	return nil
}

func (m *MemoryStore) IncrField(_ context.Context, roomID int64, field string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.sessions[roomID]
	if !ok {
		return ErrNotFound
	}
	cur, err := parseCount(h[field])
	if err != nil {
		return err
	}
	h[field] = strconv.Itoa(cur + delta)
	return nil
}

func (m *MemoryStore) SetFields(_ context.Context, roomID int64, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.sessions[roomID]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		enc, err := EncodeField(v)
		if err != nil {
			return err
		}
		h[k] = enc
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, roomID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, roomID)
	return nil
}
