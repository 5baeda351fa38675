package pix

import (
	"sync"

	"github.com/google/uuid"

	"github.com/pix/backend/internal/domain/pix"
)

// ClaimWaiter lets callers block until a claim reaches a terminal status.
// Waiters register a channel per claim ID; resolution notifies every
// registered waiter. Abandoned waits must deregister so nothing leaks.
type ClaimWaiter struct {
	mu      sync.Mutex
	waiters map[uuid.UUID][]chan *pix.Claim
}

// NewClaimWaiter creates a new ClaimWaiter
func NewClaimWaiter() *ClaimWaiter {
	return &ClaimWaiter{
		waiters: make(map[uuid.UUID][]chan *pix.Claim),
	}
}

// Register adds a waiter for the claim and returns its channel.
// The channel is buffered so notification never blocks the notifier.
func (w *ClaimWaiter) Register(claimID uuid.UUID) chan *pix.Claim {
	ch := make(chan *pix.Claim, 1)
	w.mu.Lock()
	w.waiters[claimID] = append(w.waiters[claimID], ch)
	w.mu.Unlock()
	return ch
}

// Deregister removes a waiter's channel. Safe to call after Notify.
func (w *ClaimWaiter) Deregister(claimID uuid.UUID, ch chan *pix.Claim) {
	w.mu.Lock()
	defer w.mu.Unlock()

	chans := w.waiters[claimID]
	for i, c := range chans {
		if c == ch {
			w.waiters[claimID] = append(chans[:i], chans[i+1:]...)
			break
		}
	}
	if len(w.waiters[claimID]) == 0 {
		delete(w.waiters, claimID)
	}
}

// Notify delivers the terminal claim snapshot to all registered waiters
// and clears the registration. Non-terminal claims are ignored.
func (w *ClaimWaiter) Notify(claim *pix.Claim) {
	if !claim.Status.IsTerminal() {
		return
	}

	w.mu.Lock()
	chans := w.waiters[claim.ID]
	delete(w.waiters, claim.ID)
	w.mu.Unlock()

	for _, ch := range chans {
		select {
		case ch <- claim:
		default:
		}
	}
}

// PendingWaiters returns the number of claims with registered waiters
func (w *ClaimWaiter) PendingWaiters() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.waiters)
}
