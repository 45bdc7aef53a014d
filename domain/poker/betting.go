package poker

import (
	"errors"
	"fmt"
)

// BetKind classifies a stake update.
type BetKind string

const (
	BetRaise BetKind = "RAISE"
	BetCall  BetKind = "CALL"
	BetCheck BetKind = "CHECK"
	BetFold  BetKind = "FOLD"
)

var (
	ErrInvalidBet        = errors.New("invalid bet")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrCannotCall        = errors.New("cannot call when opponent's bets are not higher")
	ErrCannotCheck       = errors.New("cannot check when player and opponent's bets are not equal")
	ErrCannotRaise       = errors.New("cannot raise when opponent's bets are lower")
	ErrNonPositiveRaise  = errors.New("raise amount must be a positive number")
	ErrCannotFold        = errors.New("fold not allowed because player and opponent bets are equal: use check instead")
)

// Betting tracks the stakes of a heads-up hand from the point of view of one
// seat. Stakes only grow and the bet leader is whoever raised last.
type Betting struct {
	self   int
	funds  [2]uint
	stakes [2]uint
	leader int
}

// NewBetting creates the betting state for seat self. blinds are posted
// immediately and leader is the seat that bets first.
func NewBetting(self int, funds [2]uint, blinds [2]uint, leader int) (*Betting, error) {
	if self != 0 && self != 1 {
		return nil, fmt.Errorf("invalid seat %d", self)
	}
	for seat := range blinds {
		if blinds[seat] > funds[seat] {
			return nil, fmt.Errorf("blind %d for seat %d exceeds funds %d: %w", blinds[seat], seat, funds[seat], ErrInsufficientFunds)
		}
	}
	return &Betting{
		self:   self,
		funds:  funds,
		stakes: blinds,
		leader: leader,
	}, nil
}

func (b *Betting) peer() int {
	return 1 - b.self
}

// SelfStake returns the amount committed by the owning seat.
func (b *Betting) SelfStake() uint {
	return b.stakes[b.self]
}

// PeerStake returns the amount committed by the opponent.
func (b *Betting) PeerStake() uint {
	return b.stakes[b.peer()]
}

// Stakes returns both stakes indexed by seat.
func (b *Betting) Stakes() [2]uint {
	return b.stakes
}

func (b *Betting) Funds() [2]uint {
	return b.funds
}

func (b *Betting) Leader() int {
	return b.leader
}

func (b *Betting) IsLeader() bool {
	return b.leader == b.self
}

// Call matches the opponent's stake. complete is true when the call closes
// the betting round.
func (b *Betting) Call() (stake uint, complete bool, err error) {
	if b.PeerStake() <= b.SelfStake() {
		return 0, false, ErrCannotCall
	}
	return b.increase(b.PeerStake() - b.SelfStake())
}

func (b *Betting) Check() (stake uint, complete bool, err error) {
	if b.PeerStake() != b.SelfStake() {
		return 0, false, ErrCannotCheck
	}
	return b.increase(0)
}

// Raise sets the own stake to the opponent's stake plus amount and makes
// the owning seat the bet leader.
func (b *Betting) Raise(amount uint) (stake uint, complete bool, err error) {
	if amount == 0 {
		return 0, false, ErrNonPositiveRaise
	}
	if b.PeerStake() < b.SelfStake() {
		return 0, false, ErrCannotRaise
	}
	return b.increase(b.PeerStake() - b.SelfStake() + amount)
}

func (b *Betting) increase(amount uint) (uint, bool, error) {
	if b.SelfStake()+amount > b.funds[b.self] {
		return 0, false, ErrInsufficientFunds
	}
	b.stakes[b.self] += amount
	if b.SelfStake() > b.PeerStake() {
		b.leader = b.self
	}
	complete := !b.IsLeader() && b.SelfStake() == b.PeerStake()
	return b.SelfStake(), complete, nil
}

// CanFold reports whether folding is allowed during phase.
func (b *Betting) CanFold(phase GamePhase) error {
	if b.SelfStake() == b.PeerStake() && phase != Showdown {
		return ErrCannotFold
	}
	return nil
}

// OnPeerStake classifies the stake the opponent has just committed. An
// invalid value leaves the state untouched and returns ErrInvalidBet.
// complete is true when the owning seat leads the round and the opponent
// has answered without raising.
func (b *Betting) OnPeerStake(value uint) (kind BetKind, complete bool, err error) {
	switch {
	case value > b.funds[b.peer()]:
		return "", false, fmt.Errorf("%w: stake %d exceeds funds %d", ErrInvalidBet, value, b.funds[b.peer()])
	case value < b.PeerStake():
		return "", false, fmt.Errorf("%w: stake decreased from %d to %d", ErrInvalidBet, b.PeerStake(), value)
	case value > b.SelfStake():
		kind = BetRaise
		b.leader = b.peer()
	case value == b.SelfStake() && value == b.PeerStake():
		kind = BetCheck
	case value == b.SelfStake():
		kind = BetCall
	default:
		return "", false, fmt.Errorf("%w: stake %d does not match %d", ErrInvalidBet, value, b.SelfStake())
	}
	b.stakes[b.peer()] = value
	return kind, b.IsLeader(), nil
}
