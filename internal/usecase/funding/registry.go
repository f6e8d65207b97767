package funding

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry tracks live wizards by id.
type Registry struct {
	mu      sync.RWMutex
	wizards map[uuid.UUID]*Wizard
}

func NewRegistry() *Registry {
	return &Registry{wizards: make(map[uuid.UUID]*Wizard)}
}

func (r *Registry) Put(w *Wizard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wizards[w.ID()] = w
}

func (r *Registry) Get(id string) (*Wizard, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrWizardNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wizards[u]
	if !ok {
		return nil, ErrWizardNotFound
	}
	return w, nil
}

func (r *Registry) Forget(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.wizards, id)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.wizards)
}

// Sweep drops every wizard created before cutoff and returns how many went.
func (r *Registry) Sweep(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, w := range r.wizards {
		if w.expired(cutoff) {
			delete(r.wizards, id)
			n++
		}
	}
	return n
}
