package registration

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// draftTTL is how long an untouched wizard survives. Every handler call goes
// through Get, so any activity refreshes the clock; only abandoned drafts age
// out.
const draftTTL = time.Hour

// Store holds in-progress registration wizards. Drafts live only in memory;
// nothing is persisted until the account is created. Finished wizards are
// evicted immediately and abandoned ones are swept on the next Create.
type Store struct {
	mu      sync.Mutex
	wizards map[string]*Wizard
	touched map[string]time.Time

	source             QuestionSource
	scorer             Scorer
	registrar          Registrar
	secondsPerQuestion int

	ttl time.Duration
	now func() time.Time
}

func NewStore(source QuestionSource, scorer Scorer, registrar Registrar, secondsPerQuestion int) *Store {
	return &Store{
		wizards:            make(map[string]*Wizard),
		touched:            make(map[string]time.Time),
		source:             source,
		scorer:             scorer,
		registrar:          registrar,
		secondsPerQuestion: secondsPerQuestion,
		ttl:                draftTTL,
		now:                time.Now,
	}
}

// Create starts a new wizard and returns it.
func (s *Store) Create() *Wizard {
	s.sweep()

	w := NewWizard(uuid.NewString(), s.source, s.scorer, s.registrar, s.secondsPerQuestion)
	w.onDone = s.evict

	s.mu.Lock()
	s.wizards[w.ID] = w
	s.touched[w.ID] = s.now()
	s.mu.Unlock()

	return w
}

// Get looks up a wizard by id and refreshes its idle clock.
func (s *Store) Get(id string) (*Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wizards[id]
	if !ok {
		return nil, fmt.Errorf("registration session not found")
	}
	s.touched[id] = s.now()
	return w, nil
}

// Remove drops a wizard, stopping its expiry timer if one is running.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	w, ok := s.wizards[id]
	delete(s.wizards, id)
	delete(s.touched, id)
	s.mu.Unlock()

	if ok {
		w.mu.Lock()
		w.stopTimerLocked()
		w.mu.Unlock()
	}
}

// evict drops a finished wizard. The wizard calls this with its own mutex
// held, after its timer has already been stopped, so only the store lock is
// taken here.
func (s *Store) evict(id string) {
	s.mu.Lock()
	delete(s.wizards, id)
	delete(s.touched, id)
	s.mu.Unlock()
}

// sweep evicts wizards idle past the TTL. The store lock is released before
// the stale timers are stopped; evict acquires locks in the opposite order.
func (s *Store) sweep() {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var stale []*Wizard
	for id, at := range s.touched {
		if at.Before(cutoff) {
			stale = append(stale, s.wizards[id])
			delete(s.wizards, id)
			delete(s.touched, id)
		}
	}
	s.mu.Unlock()

	for _, w := range stale {
		w.mu.Lock()
		w.stopTimerLocked()
		w.mu.Unlock()
	}
}
