package game

import (
	"fmt"
	"slices"

	"github.com/luca-patrignani/headsup-poker/domain/deck"
	"github.com/luca-patrignani/headsup-poker/domain/poker"
	"github.com/luca-patrignani/headsup-poker/protocol"
	"github.com/luca-patrignani/headsup-poker/verification"
)

// streetSlots returns the community slots dealt when entering p.
func streetSlots(p poker.GamePhase) []int {
	switch p {
	case poker.Flop:
		return verification.CommunitySlots[:3]
	case poker.Turn:
		return verification.CommunitySlots[3:4]
	case poker.River:
		return verification.CommunitySlots[4:5]
	}
	return nil
}

func (e *Engine) sendHello() error {
	hello, err := e.keys.Hello()
	if err != nil {
		return err
	}
	return e.submit(hello)
}

func (e *Engine) onTurn(ts protocol.TurnSubmission) error {
	if e.phase == poker.End || e.phase == poker.Verification {
		e.log.Debug("turn ignored", "kind", ts.Turn.Kind(), "phase", e.phase)
		return nil
	}
	if ts.Seq != e.peerSeq+1 {
		return violation("Out of order turn", fmt.Errorf("got turn %d after %d", ts.Seq, e.peerSeq))
	}
	key := e.peerKey
	if hello, ok := ts.Turn.(protocol.Hello); ok && e.await == awaitHello {
		k, err := hello.Key()
		if err != nil {
			return violation("Invalid key", err)
		}
		key = k
	}
	if key == nil {
		return violation("Out of turn", fmt.Errorf("%s before hello", ts.Turn.Kind()))
	}
	if err := ts.VerifySignature(key); err != nil {
		return violation("Invalid signature", err)
	}
	e.peerSeq = ts.Seq
	e.disarm()
	e.log.Debug("turn received", "kind", ts.Turn.Kind(), "seq", ts.Seq)

	switch turn := ts.Turn.(type) {
	case protocol.Hello:
		if e.await == awaitHello {
			e.peerKey = key
			return e.onHello()
		}
	case protocol.Deck:
		if e.await == awaitDeck {
			return e.onDeck(turn)
		}
	case protocol.Reveal:
		switch e.await {
		case awaitReveal:
			return e.onReveal(turn)
		case awaitShowdown:
			return e.onShowdownReveal(turn)
		}
	case protocol.Bet:
		if e.await == awaitBet {
			return e.onBet(turn)
		}
	case protocol.Fold:
		switch e.await {
		case awaitBet, awaitReveal, awaitShowdown:
			return e.onFold()
		}
	}
	return violation("Out of turn", fmt.Errorf("%s while awaiting %s", ts.Turn.Kind(), e.await))
}

// onHello completes the key exchange. Seat 0 then opens the deck exchange.
func (e *Engine) onHello() error {
	if e.seat == 1 {
		if err := e.sendHello(); err != nil {
			return err
		}
		e.expect(awaitDeck)
		return nil
	}
	tokens, secrets, err := e.codec.Pass(e.codec.NewDeck(), e.seat)
	if err != nil {
		return err
	}
	e.secrets = secrets
	if err := e.submit(protocol.Deck{Tokens: tokens}); err != nil {
		return err
	}
	e.expect(awaitDeck)
	return nil
}

// onDeck handles the deck of the opponent. The deck of seat 1 is the final
// one: it carries the layers of both seats.
func (e *Engine) onDeck(d protocol.Deck) error {
	if len(d.Tokens) != deck.Size {
		return violation("Invalid deck", fmt.Errorf("%d cards", len(d.Tokens)))
	}
	for slot, t := range d.Tokens {
		if _, _, err := deck.Parse(t); err != nil {
			return violation("Invalid deck", fmt.Errorf("slot %d: %w", slot, err))
		}
	}
	if e.seat == 0 {
		// each of our layers must cover exactly one slot
		seen := make(map[deck.Secret]int, deck.Size)
		for slot, t := range d.Tokens {
			layer, ok := e.codec.Layer(t, e.secrets)
			if !ok {
				return violation("Invalid deck", fmt.Errorf("slot %d lost our layer", slot))
			}
			if prev, dup := seen[layer]; dup {
				return violation("Invalid deck", fmt.Errorf("slots %d and %d carry the same card", prev, slot))
			}
			seen[layer] = slot
		}
		e.tokens = d.Tokens
		return e.enterPreFlop()
	}
	tokens, secrets, err := e.codec.Pass(d.Tokens, e.seat)
	if err != nil {
		return err
	}
	if e.stacked {
		tokens[0] = tokens[2]
	}
	e.secrets = secrets
	if err := e.submit(protocol.Deck{Tokens: tokens}); err != nil {
		return err
	}
	e.tokens = tokens
	return e.enterPreFlop()
}

// enterPreFlop deals the hole cards: each seat strips its layer from the
// cards of the opponent, seat 0 first.
func (e *Engine) enterPreFlop() error {
	e.moveTo(poker.PreFlop)
	if e.seat == 0 {
		if err := e.sendReveal(verification.HoleSlots(1)); err != nil {
			return err
		}
	}
	e.expectReveal(verification.HoleSlots(e.seat))
	return nil
}

func (e *Engine) expectReveal(slots []int) {
	e.pending = slots
	e.expect(awaitReveal)
}

// sendReveal forwards slots with the own layer removed.
func (e *Engine) sendReveal(slots []int) error {
	r := protocol.Reveal{Cards: make(map[int]deck.Token, len(slots))}
	for _, slot := range slots {
		t := e.tokens[slot]
		if !e.noCooperation {
			stripped, ok := e.codec.Decrypt(t, e.secrets)
			if !ok {
				return fmt.Errorf("slot %d does not carry our layer", slot)
			}
			t = stripped
		}
		r.Cards[slot] = t
	}
	return e.submit(r)
}

// sendHoleCards shows the own hole cards at showdown.
func (e *Engine) sendHoleCards() error {
	r := protocol.Reveal{Cards: make(map[int]deck.Token, 2)}
	for _, slot := range verification.HoleSlots(e.seat) {
		if e.noCooperation {
			r.Cards[slot] = e.tokens[slot]
		} else {
			r.Cards[slot] = e.plain[slot]
		}
	}
	return e.submit(r)
}

func (e *Engine) onReveal(r protocol.Reveal) error {
	if err := e.learn(r, e.pending, true); err != nil {
		return err
	}
	if e.phase == poker.PreFlop && e.seat == 1 {
		if err := e.sendReveal(verification.HoleSlots(0)); err != nil {
			return err
		}
	}
	return e.openRound()
}

// learn records the cards of slots. When strip is set the own layer is
// still on the revealed tokens.
func (e *Engine) learn(r protocol.Reveal, slots []int, strip bool) error {
	if len(r.Cards) != len(slots) {
		return violation("Invalid card", fmt.Errorf("%d cards revealed, %d expected", len(r.Cards), len(slots)))
	}
	cards := make([]poker.Card, len(slots))
	tokens := make([]deck.Token, len(slots))
	for i, slot := range slots {
		t, ok := r.Cards[slot]
		if !ok {
			return violation("Invalid card", fmt.Errorf("slot %d not revealed", slot))
		}
		if err := e.codec.Validate(t); err != nil {
			return violation("Invalid card", fmt.Errorf("slot %d: %w", slot, err))
		}
		if strip {
			if t, ok = e.codec.Decrypt(t, e.secrets); !ok {
				return violation("Invalid card", fmt.Errorf("slot %d: our layer is missing", slot))
			}
		}
		index, err := e.codec.Plain(t)
		if err != nil {
			return violation("Invalid card", fmt.Errorf("slot %d: %w", slot, err))
		}
		card, err := poker.FromIndex(index)
		if err != nil {
			return violation("Invalid card", err)
		}
		if e.dealt(card) || slices.Contains(cards[:i], card) {
			return violation("Invalid card", fmt.Errorf("slot %d: %s is already on the table", slot, card))
		}
		cards[i], tokens[i] = card, t
	}
	for i, slot := range slots {
		e.cards[slot] = cards[i]
		e.plain[slot] = tokens[i]
	}
	return nil
}

// dealt reports whether card is in a slot the seat already knows.
func (e *Engine) dealt(card poker.Card) bool {
	for _, c := range e.cards {
		if c.FaceUp() && c == card {
			return true
		}
	}
	return false
}

// openRound starts a betting round: the bet leader acts first.
func (e *Engine) openRound() error {
	if e.betting.IsLeader() {
		e.requestBet()
		return nil
	}
	e.expect(awaitBet)
	return nil
}

func (e *Engine) requestBet() {
	e.myTurn = true
	e.expect(awaitNothing)
	if h := e.handlers.OnBetRequested; h != nil {
		e.emit(h)
	}
}

func (e *Engine) onBet(b protocol.Bet) error {
	kind, complete, err := e.betting.OnPeerStake(b.Stake)
	if err != nil {
		return violation("Invalid bet", err)
	}
	e.log.Debug("bet received", "kind", kind, "stake", b.Stake)
	if h := e.handlers.OnBetsReceived; h != nil {
		e.emit(func() { h(kind, b.Stake) })
	}
	if complete {
		return e.closeRound()
	}
	e.requestBet()
	return nil
}

func (e *Engine) onFold() error {
	e.log.Info("opponent folded", "phase", e.phase)
	if h := e.handlers.OnBetsReceived; h != nil {
		stake := e.betting.PeerStake()
		e.emit(func() { h(poker.BetFold, stake) })
	}
	e.finish(e.arbiter.OpponentFold(e.table()))
	return nil
}

// closeRound moves to the next phase and deals its cards.
func (e *Engine) closeRound() error {
	next := e.phase.Next()
	e.moveTo(next)
	if next == poker.Showdown {
		return e.enterShowdown()
	}
	slots := streetSlots(next)
	if err := e.sendReveal(slots); err != nil {
		return err
	}
	e.expectReveal(slots)
	return nil
}

// enterShowdown makes the bet leader show its cards first. The other seat
// waits for them before deciding whether to show and claim or to fold.
func (e *Engine) enterShowdown() error {
	if e.betting.IsLeader() {
		if err := e.sendHoleCards(); err != nil {
			return err
		}
	}
	e.expect(awaitShowdown)
	return nil
}

func (e *Engine) onShowdownReveal(r protocol.Reveal) error {
	if err := e.learn(r, verification.HoleSlots(1-e.seat), false); err != nil {
		return err
	}
	res, err := e.arbiter.Showdown(e.table())
	if err != nil {
		return err
	}
	e.computed = &res
	if e.betting.IsLeader() {
		e.expect(awaitClaim)
		if e.claim != nil {
			c := *e.claim
			e.claim = nil
			return e.judgeClaim(c)
		}
		return nil
	}
	if !res.IsWinner[e.seat] {
		e.log.Info("hand lost at showdown, folding")
		if err := e.submit(protocol.Fold{}); err != nil {
			return err
		}
		e.finish(e.arbiter.SelfFold(e.table()))
		return nil
	}
	if err := e.sendHoleCards(); err != nil {
		return err
	}
	if err := e.ch.ClaimResult(e.ctx, protocol.ResultClaim{From: e.seat, Result: res}); err != nil {
		return err
	}
	e.expect(awaitGameOver)
	return nil
}

func (e *Engine) onClaim(c protocol.ResultClaim) error {
	switch {
	case e.phase == poker.End || e.phase == poker.Verification:
		return nil
	case e.phase != poker.Showdown || !e.betting.IsLeader():
		return violation("Unexpected claim", fmt.Errorf("claim during %s", e.phase))
	case e.await != awaitClaim:
		// the cards of the opponent are still on their way
		e.claim = &c
		return nil
	}
	return e.judgeClaim(c)
}

// judgeClaim confirms a claim equal to the own result.
func (e *Engine) judgeClaim(c protocol.ResultClaim) error {
	if !c.Result.Equal(*e.computed) {
		return violation("Result mismatch", nil)
	}
	if err := e.ch.ConfirmResult(e.ctx, protocol.ResultConfirmation{From: e.seat, Result: c.Result}); err != nil {
		return err
	}
	e.finish(*e.computed)
	return nil
}

func (e *Engine) onGameOver(c protocol.ResultConfirmation) error {
	if e.await != awaitGameOver {
		e.log.Warn("unexpected confirmation", "phase", e.phase)
		return nil
	}
	if !c.Result.Equal(*e.computed) {
		e.log.Warn("confirmed result differs from the claim")
	}
	e.finish(*e.computed)
	return nil
}
