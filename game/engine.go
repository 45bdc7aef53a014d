package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.dedis.ch/kyber/v4"

	"github.com/luca-patrignani/headsup-poker/channel"
	"github.com/luca-patrignani/headsup-poker/domain/deck"
	"github.com/luca-patrignani/headsup-poker/domain/poker"
	"github.com/luca-patrignani/headsup-poker/protocol"
	"github.com/luca-patrignani/headsup-poker/verification"
)

// awaiting is the message the engine waits for from the opponent.
type awaiting int

const (
	awaitNothing awaiting = iota
	awaitHello
	awaitDeck
	awaitReveal
	awaitBet
	awaitShowdown
	awaitClaim
	awaitGameOver
)

func (a awaiting) String() string {
	return [...]string{"nothing", "hello", "deck", "reveal", "bet", "showdown", "claim", "game over"}[a]
}

// Engine plays one hand for one seat. It is a single actor: player actions,
// messages of the opponent and verification updates are all served under
// the same lock, in the order they arrive.
type Engine struct {
	mu sync.Mutex

	seat     int
	gameID   uuid.UUID
	config   Config
	ch       channel.TurnChannel
	codec    *deck.Codec
	arbiter  poker.Arbiter
	driver   verification.Driver
	handlers Handlers
	log      *slog.Logger

	keys    protocol.KeyPair
	peerKey kyber.Point
	seq     uint64
	peerSeq uint64

	phase   poker.GamePhase
	betting *poker.Betting
	myTurn  bool
	await   awaiting
	pending []int

	secrets deck.SecretSet
	tokens  []deck.Token
	cards   [verification.DealtSlots]poker.Card
	plain   [verification.DealtSlots]deck.Token

	computed *poker.Result
	claim    *protocol.ResultClaim
	result   *poker.Result

	dispute       *verification.StateMachine
	challengeSent bool

	noCooperation bool
	switched      *[2]poker.Card
	stacked       bool

	timer    *time.Timer
	timerGen uint64

	queue  []func()
	notify chan struct{}

	started bool
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	done    chan struct{}
}

// NewEngine creates the engine of gc.Seat. Nothing is sent before Start.
func NewEngine(gc GameContext) (*Engine, error) {
	if gc.Seat != 0 && gc.Seat != 1 {
		return nil, fmt.Errorf("invalid seat %d", gc.Seat)
	}
	if gc.Channel == nil {
		return nil, errors.New("missing turn channel")
	}
	if err := gc.Config.Validate(); err != nil {
		return nil, err
	}
	gc = gc.withDefaults()
	betting, err := poker.NewBetting(gc.Seat, gc.Config.Funds, gc.Config.Blinds, 0)
	if err != nil {
		return nil, err
	}
	log := gc.Logger.With("seat", gc.Seat, "game", gc.GameID.String())
	return &Engine{
		seat:     gc.Seat,
		gameID:   gc.GameID,
		config:   gc.Config,
		ch:       gc.Channel,
		codec:    gc.Codec,
		arbiter:  poker.Arbiter{Seat: gc.Seat, Evaluator: gc.Evaluator, Logger: log},
		driver:   gc.Driver,
		handlers: gc.Handlers,
		log:      log,
		keys:     protocol.NewKeyPair(),
		phase:    poker.Start,
		betting:  betting,
		dispute:  verification.NewStateMachine(),
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// Start opens the game. The engine runs until ctx is done or Close is
// called; seat 0 sends the first message.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return errors.New("game already started")
	}
	if e.closed {
		return errors.New("engine closed")
	}
	e.started = true
	e.ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(5)
	go e.dispatch()
	go pump(e, e.ch.ReceiveTurnOver, e.onTurn)
	go pump(e, e.ch.ReceiveResultClaimed, e.onClaim)
	go pump(e, e.ch.ReceiveGameOver, e.onGameOver)
	go pump(e, e.ch.ReceiveGameChallenged, e.onChallenge)

	e.log.Info("game started", "funds", e.config.Funds, "blinds", e.config.Blinds)
	if e.seat == 0 {
		if err := e.sendHello(); err != nil {
			return err
		}
	}
	e.expect(awaitHello)
	return nil
}

// Close stops the engine and waits for its goroutines.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.disarm()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
	return nil
}

// Done is closed when the game reaches END.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func pump[T any](e *Engine, receive func(context.Context) (T, error), handle func(T) error) {
	defer e.wg.Done()
	for {
		m, err := receive(e.ctx)
		if err != nil {
			if e.ctx.Err() == nil {
				e.log.Error("receive failed", "error", err)
			}
			return
		}
		e.mu.Lock()
		if err := handle(m); err != nil {
			e.fail(err)
		}
		e.mu.Unlock()
	}
}

// fail escalates protocol violations and logs the other errors.
func (e *Engine) fail(err error) {
	var v *ProtocolViolation
	if errors.As(err, &v) {
		e.log.Warn("protocol violation", "error", err)
		e.challenge(v.Reason, false)
		return
	}
	e.log.Error("cannot proceed", "phase", e.phase, "error", err)
}

func (e *Engine) dispatch() {
	defer e.wg.Done()
	for {
		select {
		case <-e.ctx.Done():
			return
		case <-e.notify:
		}
		e.mu.Lock()
		batch := e.queue
		e.queue = nil
		e.mu.Unlock()
		for _, fn := range batch {
			fn()
		}
	}
}

// emit queues fn for the dispatcher. It never blocks, so it can be called
// with the lock held.
func (e *Engine) emit(fn func()) {
	e.queue = append(e.queue, fn)
	select {
	case e.notify <- struct{}{}:
	default:
	}
}

func (e *Engine) moveTo(p poker.GamePhase) {
	if !e.phase.CanMoveTo(p) {
		e.log.Error("illegal phase change", "from", e.phase, "to", p)
		return
	}
	e.log.Info("phase changed", "from", e.phase, "to", p)
	e.phase = p
	if p == poker.End {
		close(e.done)
	}
}

// expect records what the opponent must send next and arms the turn timer.
func (e *Engine) expect(a awaiting) {
	e.await = a
	e.disarm()
	if a == awaitNothing || e.config.TurnTimeout <= 0 {
		return
	}
	gen := e.timerGen
	e.timer = time.AfterFunc(e.config.TurnTimeout, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if gen != e.timerGen || e.await == awaitNothing {
			return
		}
		e.log.Warn("opponent timed out", "awaiting", a)
		e.challenge("Turn timeout", true)
	})
}

func (e *Engine) disarm() {
	e.timerGen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *Engine) submit(turn protocol.Turn) error {
	ts := protocol.TurnSubmission{Seq: e.seq + 1, From: e.seat, Turn: turn}
	if err := ts.Sign(e.keys.Private); err != nil {
		return err
	}
	if err := e.ch.SubmitTurn(e.ctx, ts); err != nil {
		return fmt.Errorf("cannot submit %s: %w", turn.Kind(), err)
	}
	e.seq = ts.Seq
	e.log.Debug("turn sent", "kind", turn.Kind(), "seq", ts.Seq)
	return nil
}

func (e *Engine) finish(res poker.Result) {
	if e.result != nil {
		return
	}
	e.result = &res
	e.myTurn = false
	e.expect(awaitNothing)
	e.moveTo(poker.End)
	e.log.Info("game ended", "winners", res.IsWinner, "funds", res.FundsShare)
	if h := e.handlers.OnGameEnded; h != nil {
		e.emit(func() { h(res) })
	}
}

// table is the view of the hand the arbiter decides on. Own hole cards
// are the switched ones when that cheat is active.
func (e *Engine) table() poker.Table {
	t := poker.Table{Funds: e.config.Funds, Stakes: e.betting.Stakes()}
	for seat := range t.Hole {
		t.Hole[seat] = e.hole(seat)
	}
	for _, slot := range verification.CommunitySlots {
		if e.cards[slot].FaceUp() {
			t.Community = append(t.Community, e.cards[slot])
		}
	}
	return t
}

func (e *Engine) hole(seat int) []poker.Card {
	if seat == e.seat && e.switched != nil {
		return append([]poker.Card(nil), e.switched[:]...)
	}
	var cards []poker.Card
	for _, slot := range verification.HoleSlots(seat) {
		if e.cards[slot].FaceUp() {
			cards = append(cards, e.cards[slot])
		}
	}
	return cards
}

func (e *Engine) Seat() int {
	return e.seat
}

func (e *Engine) GameID() uuid.UUID {
	return e.gameID
}

func (e *Engine) State() poker.GamePhase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

func (e *Engine) VerificationState() protocol.VerificationState {
	return e.dispute.State()
}

// Result returns the outcome of the game once it has reached END.
func (e *Engine) Result() (poker.Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.result == nil {
		return poker.Result{}, false
	}
	return *e.result, true
}

// Stakes returns the committed stakes indexed by seat.
func (e *Engine) Stakes() [2]uint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.betting.Stakes()
}

// IsMyTurn reports whether the engine waits for a bet of the player.
func (e *Engine) IsMyTurn() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.myTurn
}

// PlayerCards returns the two hole cards of the seat, face down until dealt.
func (e *Engine) PlayerCards() []poker.Card {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.switched != nil {
		return append([]poker.Card(nil), e.switched[:]...)
	}
	return e.slots(verification.HoleSlots(e.seat))
}

// OpponentCards returns the hole cards of the opponent, face down unless
// revealed at showdown.
func (e *Engine) OpponentCards() []poker.Card {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.slots(verification.HoleSlots(1 - e.seat))
}

// CommunityCards returns the five community cards, face down until dealt.
func (e *Engine) CommunityCards() []poker.Card {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.slots(verification.CommunitySlots)
}

func (e *Engine) slots(slots []int) []poker.Card {
	cards := make([]poker.Card, len(slots))
	for i, s := range slots {
		cards[i] = e.cards[s]
	}
	return cards
}

// HandDescriptions describes the hands known to the seat, such as
// "pair of aces".
func (e *Engine) HandDescriptions() [2]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	sol, err := e.arbiter.Evaluator.Solve(e.table().Hands())
	if err != nil {
		return [2]string{}
	}
	return sol.Descriptions
}
