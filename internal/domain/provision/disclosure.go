package provision

import (
	"sync"

	"github.com/google/uuid"

	"github.com/medtrack/console/internal/platform/backend"
)

// DisclosureNotice accompanies every credential hand-off.
const DisclosureNotice = "This password is shown once and cannot be retrieved again. Copy it before closing."

// Disclosure holds freshly generated section credentials for exactly one
// view. Put stores a result under a random token; Claim returns it and
// removes it, so a second claim fails. Nothing here is ever persisted.
type Disclosure struct {
	mu      sync.Mutex
	pending map[string]backend.CreationResult
}

func NewDisclosure() *Disclosure {
	return &Disclosure{pending: make(map[string]backend.CreationResult)}
}

// Put stores a result and returns its one-time token.
func (d *Disclosure) Put(result backend.CreationResult) string {
	token := uuid.NewString()
	d.mu.Lock()
	d.pending[token] = result
	d.mu.Unlock()
	return token
}

// Claim hands the credentials over and forgets them.
func (d *Disclosure) Claim(token string) (backend.CreationResult, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	result, ok := d.pending[token]
	if ok {
		delete(d.pending, token)
	}
	return result, ok
}

// Discard drops an unclaimed result, the dismiss-without-viewing path.
func (d *Disclosure) Discard(token string) {
	d.mu.Lock()
	delete(d.pending, token)
	d.mu.Unlock()
}

// Pending returns how many results await a claim.
func (d *Disclosure) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
