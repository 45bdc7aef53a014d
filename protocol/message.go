package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/luca-patrignani/headsup-poker/domain/deck"
	"github.com/luca-patrignani/headsup-poker/domain/poker"
)

// Verifier is the sender of messages that do not come from a seat.
const Verifier = -1

// Message is a value exchanged over a turn channel. The set of
// implementations is closed: TurnSubmission, ResultClaim,
// ResultConfirmation, Challenge and VerificationUpdate.
type Message interface {
	Sender() int
	messageType() string
}

// TurnKind tags the payload of a TurnSubmission.
type TurnKind string

const (
	TurnHello  TurnKind = "HELLO"
	TurnDeck   TurnKind = "DECK"
	TurnReveal TurnKind = "REVEAL"
	TurnBet    TurnKind = "BET"
	TurnFold   TurnKind = "FOLD"
)

// Turn is the payload of a TurnSubmission.
type Turn interface {
	Kind() TurnKind
}

// Hello opens the game: it carries the group the seat signs with and its
// public key.
type Hello struct {
	Group     string `json:"group"`
	PublicKey []byte `json:"public_key"`
}

// Deck is the whole deck after one encryption and shuffle pass.
type Deck struct {
	Tokens []deck.Token `json:"tokens"`
}

// Reveal forwards cards with the sender's layer removed, keyed by slot.
type Reveal struct {
	Cards map[int]deck.Token `json:"cards"`
}

// Bet carries the cumulative stake of the sender.
type Bet struct {
	Stake uint `json:"stake"`
}

type Fold struct{}

func (Hello) Kind() TurnKind  { return TurnHello }
func (Deck) Kind() TurnKind   { return TurnDeck }
func (Reveal) Kind() TurnKind { return TurnReveal }
func (Bet) Kind() TurnKind    { return TurnBet }
func (Fold) Kind() TurnKind   { return TurnFold }

// TurnSubmission is a signed turn. Seq starts from 1 for each sender and
// grows by one per submission.
type TurnSubmission struct {
	Seq       uint64
	From      int
	Turn      Turn
	Signature []byte
}

type turnWire struct {
	Seq       uint64          `json:"seq"`
	From      int             `json:"from"`
	Kind      TurnKind        `json:"kind"`
	Body      json.RawMessage `json:"body"`
	Signature []byte          `json:"signature,omitempty"`
}

func (t TurnSubmission) MarshalJSON() ([]byte, error) {
	if t.Turn == nil {
		return nil, fmt.Errorf("turn %d from seat %d has no payload", t.Seq, t.From)
	}
	body, err := json.Marshal(t.Turn)
	if err != nil {
		return nil, err
	}
	return json.Marshal(turnWire{
		Seq:       t.Seq,
		From:      t.From,
		Kind:      t.Turn.Kind(),
		Body:      body,
		Signature: t.Signature,
	})
}

func (t *TurnSubmission) UnmarshalJSON(b []byte) error {
	var w turnWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	var turn Turn
	switch w.Kind {
	case TurnHello:
		var h Hello
		if err := json.Unmarshal(w.Body, &h); err != nil {
			return err
		}
		turn = h
	case TurnDeck:
		var d Deck
		if err := json.Unmarshal(w.Body, &d); err != nil {
			return err
		}
		turn = d
	case TurnReveal:
		var r Reveal
		if err := json.Unmarshal(w.Body, &r); err != nil {
			return err
		}
		turn = r
	case TurnBet:
		var bet Bet
		if err := json.Unmarshal(w.Body, &bet); err != nil {
			return err
		}
		turn = bet
	case TurnFold:
		turn = Fold{}
	default:
		return fmt.Errorf("unknown turn kind %q", w.Kind)
	}
	*t = TurnSubmission{Seq: w.Seq, From: w.From, Turn: turn, Signature: w.Signature}
	return nil
}

// ResultClaim proposes the result computed by the sender.
type ResultClaim struct {
	From   int          `json:"from"`
	Result poker.Result `json:"result"`
}

// ResultConfirmation accepts the claimed result and ends the game.
type ResultConfirmation struct {
	From   int          `json:"from"`
	Result poker.Result `json:"result"`
}

// Challenge opens a dispute. The sender discloses its deck secrets so that
// the verifier can replay the deal. Counter marks the disclosure sent in
// answer to the opponent's challenge, Timeout a claim that the opponent
// stopped playing.
type Challenge struct {
	From    int            `json:"from"`
	Reason  string         `json:"reason"`
	Timeout bool           `json:"timeout,omitempty"`
	Counter bool           `json:"counter,omitempty"`
	Secrets deck.SecretSet `json:"secrets"`
}

// VerificationUpdate reports the progress of a dispute. Verdict is set
// once State is VerificationEnded.
type VerificationUpdate struct {
	State   VerificationState `json:"state"`
	Message string            `json:"message"`
	Verdict *Verdict          `json:"verdict,omitempty"`
}

func (t TurnSubmission) Sender() int     { return t.From }
func (r ResultClaim) Sender() int        { return r.From }
func (r ResultConfirmation) Sender() int { return r.From }
func (c Challenge) Sender() int          { return c.From }
func (VerificationUpdate) Sender() int   { return Verifier }

func (TurnSubmission) messageType() string     { return "turn" }
func (ResultClaim) messageType() string        { return "claim" }
func (ResultConfirmation) messageType() string { return "confirmation" }
func (Challenge) messageType() string          { return "challenge" }
func (VerificationUpdate) messageType() string { return "verification" }

// Type returns the wire tag of m.
func Type(m Message) string {
	return m.messageType()
}

type envelope struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body"`
}

// Encode serializes m in a tagged envelope.
func Encode(m Message) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: m.messageType(), Body: body})
}

// Decode is the inverse of Encode.
func Decode(b []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	switch env.Type {
	case "turn":
		var t TurnSubmission
		err := json.Unmarshal(env.Body, &t)
		return t, err
	case "claim":
		var c ResultClaim
		err := json.Unmarshal(env.Body, &c)
		return c, err
	case "confirmation":
		var c ResultConfirmation
		err := json.Unmarshal(env.Body, &c)
		return c, err
	case "challenge":
		var c Challenge
		err := json.Unmarshal(env.Body, &c)
		return c, err
	case "verification":
		var u VerificationUpdate
		err := json.Unmarshal(env.Body, &u)
		return u, err
	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
}
