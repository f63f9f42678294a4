// Package fsm holds the celebration latch: armed until every candle is out,
// fired until the cake is relit.
package fsm

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition reports an event the current state does not accept.
var ErrInvalidTransition = errors.New("invalid transition")

type State string

type Event string

const (
	StateArmed State = "armed"
	StateFired State = "fired"
)

const (
	EventComplete Event = "complete"
	EventRelight  Event = "relight"
)

type edge struct {
	from State
	on   Event
}

var transitions = map[edge]State{
	{StateArmed, EventComplete}: StateFired,
	{StateArmed, EventRelight}:  StateArmed,
	{StateFired, EventRelight}:  StateArmed,
}

func (s State) known() bool {
	return s == StateArmed || s == StateFired
}

// Transition returns the state reached from current on event. A refused event
// leaves current in place.
func Transition(current State, event Event) (State, error) {
	if !current.known() {
		return current, fmt.Errorf("unknown state %q", current)
	}
	next, ok := transitions[edge{current, event}]
	if !ok {
		return current, fmt.Errorf("%w: %s on %q", ErrInvalidTransition, current, event)
	}
	return next, nil
}
