package game

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/luca-patrignani/headsup-poker/channel"
	"github.com/luca-patrignani/headsup-poker/domain/deck"
	"github.com/luca-patrignani/headsup-poker/domain/poker"
	"github.com/luca-patrignani/headsup-poker/protocol"
	"github.com/luca-patrignani/headsup-poker/verification"
)

// GameContext gathers what an Engine needs to play one hand. It is owned by
// the surrounding application and passed to NewEngine.
type GameContext struct {
	Seat    int
	GameID  uuid.UUID
	Config  Config
	Channel channel.TurnChannel

	// Optional collaborators. NewEngine fills the missing ones with the
	// placeholder codec, the paulhankin/poker evaluator and a driver
	// matching the channel.
	Codec     *deck.Codec
	Evaluator poker.HandEvaluator
	Driver    verification.Driver
	Logger    *slog.Logger

	Handlers Handlers
}

// Handlers are notified of the events of a game. They run one at a time on
// a goroutine of the engine and may call back into it.
type Handlers struct {
	OnBetRequested             func()
	OnBetsReceived             func(kind poker.BetKind, amount uint)
	OnGameEnded                func(result poker.Result)
	OnVerificationStateChanged func(state protocol.VerificationState, message string)
}

func (gc GameContext) withDefaults() GameContext {
	if gc.GameID == uuid.Nil {
		gc.GameID = uuid.New()
	}
	if gc.Codec == nil {
		gc.Codec = deck.NewCodec()
	}
	if gc.Evaluator == nil {
		gc.Evaluator = poker.Evaluator{}
	}
	if gc.Logger == nil {
		gc.Logger = slog.Default()
	}
	if gc.Driver == nil {
		gc.Driver = gc.defaultDriver()
	}
	return gc
}

// defaultDriver adjudicates from the transcript when the channel keeps one,
// and otherwise waits for an external verifier.
func (gc GameContext) defaultDriver() verification.Driver {
	rec, ok := gc.Channel.(channel.Recorder)
	if !ok {
		return verification.ChannelDriver{Source: gc.Channel}
	}
	return &verification.Simulator{
		InitialDelay: gc.Config.VerificationDelay,
		Step:         gc.Config.VerificationStep,
		Logger:       gc.Logger,
		Referee: &verification.TranscriptReferee{
			Transcript: rec.Transcript(),
			Funds:      gc.Config.Funds,
			Blinds:     gc.Config.Blinds,
			Evaluator:  gc.Evaluator,
			Codec:      gc.Codec,
		},
	}
}
