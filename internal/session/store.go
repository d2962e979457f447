package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"askrag/internal/rag"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a message shown once on the next page render.
type Notice struct {
	Level Level
	Text  string
}

// Entry is one browser session. Hold the lock while reading or changing State.
type Entry struct {
	sync.Mutex
	State *rag.Session

	notices  []Notice
	lastSeen time.Time
}

func (e *Entry) AddNotice(level Level, text string) {
	e.notices = append(e.notices, Notice{Level: level, Text: text})
}

// PopNotices returns pending notices and clears them.
func (e *Entry) PopNotices() []Notice {
	n := e.notices
	e.notices = nil
	return n
}

// Store maps session ids to entries. Entries idle for longer than ttl are dropped on access.
type Store struct {
	mu      sync.Mutex
	entries map[string]*Entry
	ttl     time.Duration
	now     func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]*Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the entry for id, creating a fresh one under a new id when id is unknown
// or expired. The returned id is the one to hand back to the client.
func (s *Store) Get(id string) (*Entry, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	if e, ok := s.entries[id]; ok {
		e.lastSeen = now
		return e, id
	}

	id = uuid.NewString()
	e := &Entry{State: rag.NewSession(), lastSeen: now}
	s.entries[id] = e
	log.Debug().Str("session_id", id).Msg("Created session")
	return e, id
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) sweep(now time.Time) {
	for id, e := range s.entries {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.entries, id)
			log.Debug().Str("session_id", id).Msg("Expired session")
		}
	}
}
