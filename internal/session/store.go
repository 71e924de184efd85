package session

import (
	"sync"

	"github.com/Ayash-Bera/travelbot/internal/models"
)

// Store keeps one append-only transcript per session id for the lifetime of
// the process.
type Store struct {
	mu          sync.Mutex
	transcripts map[string][]models.ChatTurn
	turnLocks   map[string]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		transcripts: make(map[string][]models.ChatTurn),
		turnLocks:   make(map[string]*sync.Mutex),
	}
}

// History returns a copy of the transcript, oldest turn first.
func (s *Store) History(id string) []models.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.transcripts[id]
	history := make([]models.ChatTurn, len(turns))
	copy(history, turns)
	return history
}

// Append adds turns to the end of the transcript.
func (s *Store) Append(id string, turns ...models.ChatTurn) {
	if len(turns) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcripts[id] = append(s.transcripts[id], turns...)
}

// Lock serializes submissions within one session. Call the returned
// function to release it.
func (s *Store) Lock(id string) func() {
	s.mu.Lock()
	lock, ok := s.turnLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.turnLocks[id] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Len reports how many sessions have a transcript.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transcripts)
}
