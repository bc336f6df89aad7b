package forms

import "sync"

// Guard is the pending flag of every form instance: one submission per key
// at a time. It debounces double submits and guards nothing else.
type Guard struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

// NewGuard creates an empty guard
func NewGuard() *Guard {
	return &Guard{pending: make(map[string]struct{})}
}

// Acquire marks key as pending. ok is false when a submission for key is
// already outstanding; otherwise release must be called when it finishes.
func (g *Guard) Acquire(key string) (release func(), ok bool) {
	if g == nil {
		return func() {}, true
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.pending[key]; busy {
		return nil, false
	}
	g.pending[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.pending, key)
			g.mu.Unlock()
		})
	}, true
}
