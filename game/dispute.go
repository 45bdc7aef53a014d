package game

import (
	"github.com/luca-patrignani/headsup-poker/domain/poker"
	"github.com/luca-patrignani/headsup-poker/protocol"
)

// challenge opens a dispute after a local check failed on a message of the
// opponent, or after the opponent stopped answering.
func (e *Engine) challenge(reason string, timeout bool) {
	if e.phase == poker.End || !e.dispute.Trigger(e.seat, reason) {
		return
	}
	e.log.Warn("verification triggered", "reason", reason, "timeout", timeout)
	e.interrupt()
	e.disclose(protocol.Challenge{From: e.seat, Reason: reason, Timeout: timeout, Secrets: e.secrets})
	e.startDriver(reason)
}

func (e *Engine) onChallenge(c protocol.Challenge) error {
	e.log.Warn("challenged by opponent", "reason", c.Reason, "counter", c.Counter)
	if c.Counter {
		return nil
	}
	counter := protocol.Challenge{From: e.seat, Reason: c.Reason, Counter: true, Secrets: e.secrets}
	if e.phase == poker.End {
		// the result stands, but the verifier still needs our secrets
		e.disclose(counter)
		return nil
	}
	if !e.dispute.Trigger(c.From, c.Reason) {
		// both seats opened the dispute and both disclosed already
		return nil
	}
	e.interrupt()
	e.disclose(counter)
	e.startDriver(c.Reason)
	return nil
}

// interrupt suspends the deal and the betting.
func (e *Engine) interrupt() {
	e.moveTo(poker.Verification)
	e.myTurn = false
	e.claim = nil
	e.expect(awaitNothing)
}

// disclose sends our deck secrets to the verifier, once.
func (e *Engine) disclose(c protocol.Challenge) {
	if e.challengeSent {
		return
	}
	if err := e.ch.ChallengeGame(e.ctx, c); err != nil {
		e.log.Error("cannot send challenge", "error", err)
		return
	}
	e.challengeSent = true
}

func (e *Engine) startDriver(reason string) {
	if e.closed {
		return
	}
	updates := e.driver.Drive(e.ctx, reason)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for u := range updates {
			e.mu.Lock()
			e.onUpdate(u)
			e.mu.Unlock()
		}
	}()
}

func (e *Engine) onUpdate(u protocol.VerificationUpdate) {
	if e.phase != poker.Verification {
		return
	}
	if err := e.dispute.Advance(u.State); err != nil {
		e.log.Warn("verification update ignored", "error", err)
		return
	}
	e.log.Info("verification progressed", "state", u.State, "message", u.Message)
	if h := e.handlers.OnVerificationStateChanged; h != nil {
		e.emit(func() { h(u.State, u.Message) })
	}
	if u.State != protocol.VerificationEnded {
		return
	}
	v := u.Verdict
	if v == nil || (v.Cheater != 0 && v.Cheater != 1) {
		e.log.Error("verification ended without a valid verdict", "verdict", v)
		return
	}
	e.log.Warn("verdict", "cheater", v.Cheater, "cause", v.Cause, "reason", v.Reason)
	t := e.table()
	if v.Cause == protocol.CauseTimeout {
		e.finish(e.arbiter.TimeoutClaim(t, v.Cheater))
		return
	}
	e.finish(e.arbiter.Adjudicated(t, v.Cheater))
}
