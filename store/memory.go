package store

import (
	"context"
	"sync"
	"time"

	"github.com/isdmx/codelab/project"
)

type memoryEntry struct {
	project   Project
	expiresAt time.Time
}

// MemoryStore keeps projects in a map. Contents are lost on restart.
type MemoryStore struct {
	mu        sync.RWMutex
	projects  map[string]memoryEntry
	opts      options
	lastSweep time.Time
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{projects: make(map[string]memoryEntry), opts: o}
}

// Save stores a copy of files under a new id. With a TTL set, Save also
// sweeps out expired entries.
func (s *MemoryStore) Save(_ context.Context, files project.Submission) (string, error) {
	if err := files.Validate(); err != nil {
		return "", err
	}

	now := s.opts.now()
	entry := memoryEntry{
		project: Project{ID: s.opts.newID(), Files: files.Clone(), CreatedAt: now},
	}
	if s.opts.ttl > 0 {
		entry.expiresAt = now.Add(s.opts.ttl)
	}

	s.mu.Lock()
	s.sweepLocked(now)
	s.projects[entry.project.ID] = entry
	s.mu.Unlock()

	return entry.project.ID, nil
}

// sweepLocked drops expired entries, at most once per TTL period.
func (s *MemoryStore) sweepLocked(now time.Time) {
	if s.opts.ttl <= 0 || now.Sub(s.lastSweep) < s.opts.ttl {
		return
	}
	s.lastSweep = now
	for id, entry := range s.projects {
		if !now.Before(entry.expiresAt) {
			delete(s.projects, id)
		}
	}
}

// Load returns a copy of the saved project. Expired entries are dropped on
// access.
func (s *MemoryStore) Load(_ context.Context, id string) (Project, error) {
	s.mu.RLock()
	entry, ok := s.projects[id]
	s.mu.RUnlock()

	if !ok {
		return Project{}, notFound(id)
	}

	if !entry.expiresAt.IsZero() && !s.opts.now().Before(entry.expiresAt) {
		s.mu.Lock()
		delete(s.projects, id)
		s.mu.Unlock()
		return Project{}, notFound(id)
	}

	p := entry.project
	p.Files = p.Files.Clone()
	return p, nil
}

// Len returns the number of stored projects, including expired ones not yet
// dropped by a Load or a Save sweep.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.projects)
}

// Close releases nothing; it exists to satisfy Store.
func (*MemoryStore) Close() error {
	return nil
}
