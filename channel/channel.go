package channel

import (
	"context"
	"errors"
	"sync"

	"github.com/luca-patrignani/headsup-poker/ledger"
	"github.com/luca-patrignani/headsup-poker/protocol"
)

var (
	ErrAlreadyConfirmed  = errors.New("already confirmed")
	ErrAlreadyFolded     = errors.New("already folded")
	ErrAlreadyClaimed    = errors.New("already claimed")
	ErrAlreadyChallenged = errors.New("already challenged")
	ErrNoClaim           = errors.New("no result claimed by the opponent")
)

// TurnChannel carries the messages of one seat to and from its opponent.
// Messages in one direction are delivered in submission order, at most
// once, to exactly one receiver. Receive methods block until a message
// arrives or ctx is done.
type TurnChannel interface {
	SubmitTurn(ctx context.Context, t protocol.TurnSubmission) error
	ReceiveTurnOver(ctx context.Context) (protocol.TurnSubmission, error)

	ClaimResult(ctx context.Context, c protocol.ResultClaim) error
	ReceiveResultClaimed(ctx context.Context) (protocol.ResultClaim, error)
	ConfirmResult(ctx context.Context, c protocol.ResultConfirmation) error
	ReceiveGameOver(ctx context.Context) (protocol.ResultConfirmation, error)

	ChallengeGame(ctx context.Context, c protocol.Challenge) error
	ReceiveGameChallenged(ctx context.Context) (protocol.Challenge, error)
	ReceiveVerificationUpdate(ctx context.Context) (protocol.VerificationUpdate, error)
}

// Recorder is implemented by channels that keep a transcript of the
// messages they carry.
type Recorder interface {
	Transcript() *ledger.Transcript
}

// State is the lifecycle of a game shared by both directions of a channel.
// It rejects submissions that come after the game has been decided.
type State struct {
	mu         sync.Mutex
	claimedBy  int
	confirmed  bool
	folded     bool
	challenged [2]bool
}

func NewState() *State {
	return &State{claimedBy: -1}
}

func (s *State) anyChallenge() bool {
	return s.challenged[0] || s.challenged[1]
}

// Turn admits a turn submission from seat from.
func (s *State) Turn(from int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn()
}

// Fold admits the fold of seat from. The game is over after it.
func (s *State) Fold(from int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.turn(); err != nil {
		return err
	}
	s.folded = true
	return nil
}

func (s *State) turn() error {
	switch {
	case s.confirmed:
		return ErrAlreadyConfirmed
	case s.folded:
		return ErrAlreadyFolded
	case s.anyChallenge():
		return ErrAlreadyChallenged
	case s.claimedBy >= 0:
		return ErrAlreadyClaimed
	}
	return nil
}

// Claim admits the result claim of seat from.
func (s *State) Claim(from int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.confirmed:
		return ErrAlreadyConfirmed
	case s.folded:
		return ErrAlreadyFolded
	case s.anyChallenge():
		return ErrAlreadyChallenged
	case s.claimedBy >= 0:
		return ErrAlreadyClaimed
	}
	s.claimedBy = from
	return nil
}

// Confirm admits the confirmation of seat from, which must answer the
// opponent's claim.
func (s *State) Confirm(from int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.confirmed:
		return ErrAlreadyConfirmed
	case s.folded:
		return ErrAlreadyFolded
	case s.anyChallenge():
		return ErrAlreadyChallenged
	case s.claimedBy < 0 || s.claimedBy == from:
		return ErrNoClaim
	}
	s.confirmed = true
	return nil
}

// Challenge admits the challenge of seat from. Each seat challenges once.
func (s *State) Challenge(from int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.confirmed:
		return ErrAlreadyConfirmed
	case s.challenged[from]:
		return ErrAlreadyChallenged
	}
	s.challenged[from] = true
	return nil
}

// Admit applies the rule matching the type of m.
func (s *State) Admit(m protocol.Message) error {
	switch msg := m.(type) {
	case protocol.TurnSubmission:
		if _, ok := msg.Turn.(protocol.Fold); ok {
			return s.Fold(msg.From)
		}
		return s.Turn(msg.From)
	case protocol.ResultClaim:
		return s.Claim(msg.From)
	case protocol.ResultConfirmation:
		return s.Confirm(msg.From)
	case protocol.Challenge:
		return s.Challenge(msg.From)
	case protocol.VerificationUpdate:
		return nil
	}
	return errors.New("unknown message")
}
