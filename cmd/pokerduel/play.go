package main

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/pterm/pterm"

	"github.com/luca-patrignani/headsup-poker/domain/poker"
	"github.com/luca-patrignani/headsup-poker/game"
	"github.com/luca-patrignani/headsup-poker/protocol"
)

// Cheats a bot can play.
const (
	cheatNone          = "none"
	cheatUncooperative = "uncooperative"
	cheatSwitch        = "switch"
	cheatStack         = "stack"
)

func validCheat(cheat string) error {
	switch cheat {
	case cheatNone, cheatUncooperative, cheatSwitch, cheatStack:
		return nil
	}
	return errors.New("unknown cheat " + strconv.Quote(cheat))
}

// human asks the terminal user for every bet.
type human struct {
	engine *game.Engine
	funds  [2]uint
	turns  chan struct{}

	mu   sync.Mutex
	last *pterm.Panel
}

func newHuman(funds [2]uint) *human {
	return &human{funds: funds, turns: make(chan struct{}, 1)}
}

func (h *human) handlers() game.Handlers {
	return game.Handlers{
		OnBetRequested: func() {
			select {
			case h.turns <- struct{}{}:
			default:
			}
		},
		OnBetsReceived: func(kind poker.BetKind, amount uint) {
			panel := betPanel(kind, amount)
			h.mu.Lock()
			h.last = &panel
			h.mu.Unlock()
		},
		OnVerificationStateChanged: printVerification,
	}
}

// play runs the prompts until the game ends.
func (h *human) play(ctx context.Context) (poker.Result, error) {
	for {
		select {
		case <-ctx.Done():
			return poker.Result{}, ctx.Err()
		case <-h.engine.Done():
			res, _ := h.engine.Result()
			printState(h.engine, h.funds, resultPanel(res, h.engine.Seat(), h.funds))
			return res, nil
		case <-h.turns:
			var panels []pterm.Panel
			h.mu.Lock()
			if h.last != nil {
				panels = append(panels, *h.last)
			}
			h.mu.Unlock()
			printState(h.engine, h.funds, panels...)
			h.askBet()
		}
	}
}

func (h *human) askBet() {
	actions := []string{"Check", "Call", "Raise", "Fold"}
	for h.engine.IsMyTurn() {
		selected, _ := pterm.DefaultInteractiveSelect.WithDefaultText("Select your next action").WithOptions(actions).Show()
		var err error
		switch selected {
		case "Check":
			err = h.engine.Check()
		case "Call":
			err = h.engine.Call()
		case "Raise":
			amount, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Enter the amount to raise").Show()
			n, perr := strconv.ParseUint(amount, 10, 0)
			if perr != nil {
				pterm.Error.Printfln("Invalid amount: %s", amount)
				continue
			}
			err = h.engine.Raise(uint(n))
		case "Fold":
			err = h.engine.Fold()
		}
		if err != nil {
			pterm.Error.Printfln("Invalid action: %s", err.Error())
		}
	}
}

// bot checks when it can and calls otherwise. Its cheat, if any, is
// played on the first bet request.
type bot struct {
	engine *game.Engine
	cheat  string
	log    *slog.Logger
	played bool
}

func (b *bot) handlers() game.Handlers {
	return game.Handlers{
		OnBetRequested: b.act,
		OnVerificationStateChanged: func(state protocol.VerificationState, message string) {
			b.log.Info("verification", "state", state, "message", message)
		},
	}
}

// prepare applies the cheats that must be active before the deal.
func (b *bot) prepare() {
	switch b.cheat {
	case cheatUncooperative:
		b.engine.Cheats().ToggleCardCooperation()
	case cheatStack:
		b.engine.Cheats().StackDeck()
	}
}

func (b *bot) act() {
	if b.cheat == cheatSwitch && !b.played {
		b.played = true
		aceOfSpades, _ := poker.NewCard(poker.Spade, poker.Ace)
		aceOfHearts, _ := poker.NewCard(poker.Heart, poker.Ace)
		b.engine.Cheats().SwitchCards(aceOfSpades, aceOfHearts)
		b.log.Info("bot switched its cards")
	}
	if err := b.engine.Check(); err == nil {
		return
	}
	if err := b.engine.Call(); err == nil {
		return
	}
	if err := b.engine.Fold(); err != nil {
		b.log.Error("bot cannot bet", "error", err)
	}
}
