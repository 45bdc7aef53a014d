package verification

import (
	"errors"
	"fmt"
	"sync"

	"github.com/luca-patrignani/headsup-poker/protocol"
)

var (
	ErrNotActive  = errors.New("verification not started")
	ErrNotForward = errors.New("verification state can only move forward")
)

// StateMachine tracks the progress of a dispute for one seat. States only
// move forward through protocol.VerificationStates.
type StateMachine struct {
	mu         sync.Mutex
	state      protocol.VerificationState
	active     bool
	challenger int
	reason     string
}

func NewStateMachine() *StateMachine {
	return &StateMachine{state: protocol.VerificationNone, challenger: -1}
}

// Trigger opens the dispute. Only the first call has effect; the others
// return false.
func (m *StateMachine) Trigger(challenger int, reason string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active {
		return false
	}
	m.active = true
	m.challenger = challenger
	m.reason = reason
	return true
}

// Advance moves to s, which must come after the current state.
func (m *StateMachine) Advance(s protocol.VerificationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return ErrNotActive
	}
	if s.Index() <= m.state.Index() {
		return fmt.Errorf("%w: %s after %s", ErrNotForward, s, m.state)
	}
	m.state = s
	return nil
}

func (m *StateMachine) State() protocol.VerificationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *StateMachine) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Challenger returns the seat that opened the dispute, or -1.
func (m *StateMachine) Challenger() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.challenger
}

func (m *StateMachine) Reason() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reason
}

func (m *StateMachine) Ended() bool {
	return m.State() == protocol.VerificationEnded
}
