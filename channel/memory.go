package channel

import (
	"context"
	"fmt"
	"sync"

	"github.com/luca-patrignani/headsup-poker/ledger"
	"github.com/luca-patrignani/headsup-poker/protocol"
)

// DefaultCapacity bounds each per-direction queue of a Pair.
const DefaultCapacity = 64

// Pair connects two seats in the same process. Both endpoints share the
// game lifecycle and the transcript, which plays the role of the public
// log an external verifier reads.
type Pair struct {
	state      *State
	transcript *ledger.Transcript
	ends       [2]*Endpoint
}

// NewPair creates a connected pair whose queues hold up to capacity
// messages each.
func NewPair(gameID string, capacity int) *Pair {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	p := &Pair{
		state:      NewState(),
		transcript: ledger.NewTranscript(gameID),
	}
	for seat := range p.ends {
		p.ends[seat] = &Endpoint{
			seat:          seat,
			pair:          p,
			turns:         make(chan protocol.TurnSubmission, capacity),
			claims:        make(chan protocol.ResultClaim, capacity),
			confirmations: make(chan protocol.ResultConfirmation, capacity),
			challenges:    make(chan protocol.Challenge, capacity),
			updates:       make(chan protocol.VerificationUpdate, capacity),
		}
	}
	return p
}

// Endpoint returns the side of the pair used by seat.
func (p *Pair) Endpoint(seat int) *Endpoint {
	return p.ends[seat]
}

func (p *Pair) Transcript() *ledger.Transcript {
	return p.transcript
}

// PublishVerificationUpdate delivers an update of the external verifier to
// both seats.
func (p *Pair) PublishVerificationUpdate(ctx context.Context, u protocol.VerificationUpdate) error {
	for _, e := range p.ends {
		if err := enqueue(ctx, e.updates, u); err != nil {
			return err
		}
	}
	return nil
}

// Endpoint is the TurnChannel of one seat of a Pair. Its queues hold the
// messages addressed to that seat.
type Endpoint struct {
	seat int
	pair *Pair
	send sync.Mutex

	turns         chan protocol.TurnSubmission
	claims        chan protocol.ResultClaim
	confirmations chan protocol.ResultConfirmation
	challenges    chan protocol.Challenge
	updates       chan protocol.VerificationUpdate
}

func (e *Endpoint) peer() *Endpoint {
	return e.pair.ends[1-e.seat]
}

func (e *Endpoint) Transcript() *ledger.Transcript {
	return e.pair.transcript
}

// deliver admits m, records it and enqueues it on the opponent's side.
// The send lock keeps the transcript order equal to the queue order.
func deliver[T protocol.Message](ctx context.Context, e *Endpoint, m T, queue chan T) error {
	if m.Sender() != e.seat {
		return fmt.Errorf("seat %d cannot send on behalf of seat %d", e.seat, m.Sender())
	}
	e.send.Lock()
	defer e.send.Unlock()
	if err := e.pair.state.Admit(m); err != nil {
		return err
	}
	if _, err := e.pair.transcript.Append(m); err != nil {
		return err
	}
	return enqueue(ctx, queue, m)
}

func enqueue[T any](ctx context.Context, queue chan T, m T) error {
	select {
	case queue <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func dequeue[T any](ctx context.Context, queue chan T) (T, error) {
	select {
	case m := <-queue:
		return m, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (e *Endpoint) SubmitTurn(ctx context.Context, t protocol.TurnSubmission) error {
	return deliver(ctx, e, t, e.peer().turns)
}

func (e *Endpoint) ReceiveTurnOver(ctx context.Context) (protocol.TurnSubmission, error) {
	return dequeue(ctx, e.turns)
}

func (e *Endpoint) ClaimResult(ctx context.Context, c protocol.ResultClaim) error {
	return deliver(ctx, e, c, e.peer().claims)
}

func (e *Endpoint) ReceiveResultClaimed(ctx context.Context) (protocol.ResultClaim, error) {
	return dequeue(ctx, e.claims)
}

func (e *Endpoint) ConfirmResult(ctx context.Context, c protocol.ResultConfirmation) error {
	return deliver(ctx, e, c, e.peer().confirmations)
}

func (e *Endpoint) ReceiveGameOver(ctx context.Context) (protocol.ResultConfirmation, error) {
	return dequeue(ctx, e.confirmations)
}

func (e *Endpoint) ChallengeGame(ctx context.Context, c protocol.Challenge) error {
	return deliver(ctx, e, c, e.peer().challenges)
}

func (e *Endpoint) ReceiveGameChallenged(ctx context.Context) (protocol.Challenge, error) {
	return dequeue(ctx, e.challenges)
}

func (e *Endpoint) ReceiveVerificationUpdate(ctx context.Context) (protocol.VerificationUpdate, error) {
	return dequeue(ctx, e.updates)
}
