package game

import (
	"github.com/luca-patrignani/headsup-poker/domain/poker"
	"github.com/luca-patrignani/headsup-poker/protocol"
)

func (e *Engine) canAct() error {
	switch {
	case !e.started:
		return ErrNotStarted
	case e.phase == poker.End:
		return ErrGameOver
	case e.phase == poker.Verification:
		return ErrVerification
	case !e.myTurn:
		return ErrNotYourTurn
	}
	return nil
}

// Call matches the stake of the opponent.
func (e *Engine) Call() error {
	return e.bet((*poker.Betting).Call)
}

func (e *Engine) Check() error {
	return e.bet((*poker.Betting).Check)
}

// Raise bets amount more than the opponent.
func (e *Engine) Raise(amount uint) error {
	return e.bet(func(b *poker.Betting) (uint, bool, error) {
		return b.Raise(amount)
	})
}

// bet applies op to a copy of the betting state, so that a rejected action
// or a failed submission leaves the game untouched.
func (e *Engine) bet(op func(*poker.Betting) (uint, bool, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.canAct(); err != nil {
		return err
	}
	next := *e.betting
	stake, complete, err := op(&next)
	if err != nil {
		return err
	}
	if err := e.submit(protocol.Bet{Stake: stake}); err != nil {
		return err
	}
	*e.betting = next
	e.myTurn = false
	e.log.Debug("bet placed", "stake", stake, "complete", complete)
	if complete {
		return e.closeRound()
	}
	e.expect(awaitBet)
	return nil
}

// Fold gives the pot to the opponent. Folding is only allowed when the
// stakes differ.
func (e *Engine) Fold() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.canAct(); err != nil {
		return err
	}
	if err := e.betting.CanFold(e.phase); err != nil {
		return err
	}
	if err := e.submit(protocol.Fold{}); err != nil {
		return err
	}
	e.finish(e.arbiter.SelfFold(e.table()))
	return nil
}

// Cheats break the protocol on purpose, to see the verification at work.
type Cheats struct {
	e *Engine
}

func (e *Engine) Cheats() Cheats {
	return Cheats{e: e}
}

// ToggleCardCooperation switches between forwarding cards normally and
// forwarding them without removing the own layer. It returns true when
// cooperation is off.
func (c Cheats) ToggleCardCooperation() bool {
	c.e.mu.Lock()
	defer c.e.mu.Unlock()
	c.e.noCooperation = !c.e.noCooperation
	return c.e.noCooperation
}

// SwitchCards replaces the own hole cards with a and b when computing the
// result.
func (c Cheats) SwitchCards(a, b poker.Card) {
	c.e.mu.Lock()
	defer c.e.mu.Unlock()
	c.e.switched = &[2]poker.Card{a, b}
}

// StackDeck makes the final deck deal the card of slot 2 to slot 0 as
// well. Only seat 1 sends the final deck, so it has no effect on seat 0.
func (c Cheats) StackDeck() {
	c.e.mu.Lock()
	defer c.e.mu.Unlock()
	c.e.stacked = true
}
