package poker

import (
	"errors"
	"log/slog"
	"slices"
)

// Table is the snapshot of a hand the arbiter decides on. Cards that are
// not known are omitted or face down.
type Table struct {
	Funds     [2]uint
	Stakes    [2]uint
	Hole      [2][]Card
	Community []Card
}

func complete(cards []Card, n int) bool {
	if len(cards) != n {
		return false
	}
	for _, c := range cards {
		if !c.FaceUp() {
			return false
		}
	}
	return true
}

// Hands returns the 7-card hands of the seats whose cards are all known.
func (t Table) Hands() [2][]Card {
	var hands [2][]Card
	if !complete(t.Community, 5) {
		return hands
	}
	for seat, hole := range t.Hole {
		if complete(hole, 2) {
			hands[seat] = append(append([]Card(nil), hole...), t.Community...)
		}
	}
	return hands
}

// Result is the outcome of a hand, indexed by seat.
type Result struct {
	IsWinner   [2]bool   `json:"isWinner"`
	FundsShare [2]uint   `json:"fundsShare"`
	Hands      [2][]Card `json:"hands"`
}

func (r Result) Equal(o Result) bool {
	return r.IsWinner == o.IsWinner &&
		r.FundsShare == o.FundsShare &&
		slices.Equal(r.Hands[0], o.Hands[0]) &&
		slices.Equal(r.Hands[1], o.Hands[1])
}

// Arbiter computes results from the point of view of Seat. Every method is
// a pure function of its inputs and conserves the sum of the funds. Logger
// may be nil.
type Arbiter struct {
	Seat      int
	Evaluator HandEvaluator
	Logger    *slog.Logger
}

func (a Arbiter) opponent() int {
	return 1 - a.Seat
}

func (a Arbiter) hands(t Table) [2][]Card {
	sol, err := a.Evaluator.Solve(t.Hands())
	if err != nil {
		if a.Logger != nil {
			a.Logger.Warn("cannot evaluate the hands", "error", err)
		}
		return [2][]Card{}
	}
	return sol.BestHands
}

// Showdown splits the funds according to the hand evaluator. A tie leaves
// both players whole.
func (a Arbiter) Showdown(t Table) (Result, error) {
	sol, err := a.Evaluator.Solve(t.Hands())
	if err != nil {
		return Result{}, err
	}
	r := Result{IsWinner: sol.Winners, Hands: sol.BestHands}
	switch {
	case sol.Winners[0] && sol.Winners[1]:
		r.FundsShare = t.Funds
	case sol.Winners[0]:
		r.FundsShare = moveStake(t, 1)
	case sol.Winners[1]:
		r.FundsShare = moveStake(t, 0)
	default:
		return Result{}, errors.New("no hand to evaluate at showdown")
	}
	return r, nil
}

// SelfFold is the result of the arbiter's own seat folding.
func (a Arbiter) SelfFold(t Table) Result {
	return a.fold(t, a.Seat)
}

// OpponentFold is the result of the opponent folding.
func (a Arbiter) OpponentFold(t Table) Result {
	return a.fold(t, a.opponent())
}

func (a Arbiter) fold(t Table, folder int) Result {
	var r Result
	r.IsWinner[1-folder] = true
	r.FundsShare = moveStake(t, folder)
	r.Hands = a.hands(t)
	return r
}

// Adjudicated is the result of a verification that caught cheater lying:
// the honest seat takes all the funds. The seats know different cards when
// a dispute interrupts the hand, so the result carries no hands.
func (a Arbiter) Adjudicated(t Table, cheater int) Result {
	var r Result
	honest := 1 - cheater
	r.IsWinner[honest] = true
	r.FundsShare[honest] = t.Funds[0] + t.Funds[1]
	return r
}

// TimeoutClaim is the result of a verification won because absent stopped
// playing: only the stake of absent moves. Like Adjudicated, it carries no
// hands.
func (a Arbiter) TimeoutClaim(t Table, absent int) Result {
	var r Result
	r.IsWinner[1-absent] = true
	r.FundsShare = moveStake(t, absent)
	return r
}

// moveStake transfers the stake of loser to the other seat.
func moveStake(t Table, loser int) [2]uint {
	var share [2]uint
	share[loser] = t.Funds[loser] - t.Stakes[loser]
	share[1-loser] = t.Funds[1-loser] + t.Stakes[loser]
	return share
}
