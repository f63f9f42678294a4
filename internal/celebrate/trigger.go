// Package celebrate latches the one-shot celebration for a candle session.
package celebrate

import (
	"sync"

	"github.com/rbright/cakemic/internal/fsm"
)

// Trigger fires at most once per armed period.
type Trigger struct {
	mu    sync.Mutex
	state fsm.State
}

// NewTrigger returns an armed trigger.
func NewTrigger() *Trigger {
	return &Trigger{state: fsm.StateArmed}
}

// State returns the current latch state.
func (t *Trigger) State() fsm.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Evaluate reports true only on the armed -> fired edge. Observing a complete
// session again while fired is ignored.
func (t *Trigger) Evaluate(complete bool) bool {
	if !complete {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	next, err := fsm.Transition(t.state, fsm.EventComplete)
	if err != nil {
		return false
	}
	t.state = next
	return true
}

// Relight re-arms the trigger.
func (t *Trigger) Relight() {
	t.mu.Lock()
	defer t.mu.Unlock()

	next, err := fsm.Transition(t.state, fsm.EventRelight)
	if err != nil {
		return
	}
	t.state = next
}
