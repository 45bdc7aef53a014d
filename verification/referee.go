package verification

import (
	"context"
	"errors"
	"fmt"

	"go.dedis.ch/kyber/v4"

	"github.com/luca-patrignani/headsup-poker/domain/deck"
	"github.com/luca-patrignani/headsup-poker/domain/poker"
	"github.com/luca-patrignani/headsup-poker/ledger"
	"github.com/luca-patrignani/headsup-poker/protocol"
)

// DealtSlots is the number of deck slots used by a hand: two hole cards per
// seat and five community cards.
const DealtSlots = 9

// HoleSlots returns the deck slots of the hole cards of seat.
func HoleSlots(seat int) []int {
	return []int{2 * seat, 2*seat + 1}
}

// CommunitySlots are the slots of the flop, the turn and the river.
var CommunitySlots = []int{4, 5, 6, 7, 8}

// Referee decides who cheated in a dispute.
type Referee interface {
	Adjudicate(ctx context.Context) (protocol.Verdict, error)
}

// TranscriptReferee replays the transcript of a game. Since both seats read
// the same messages they obtain the same verdict. The rules are applied in
// order:
//
//  1. the author of the first turn breaking the protocol (bad signature,
//     malformed reveal, bet out of turn or out of range) cheated;
//  2. when both seats disclosed their secrets, a deck that is not a
//     permutation of the cards, a reveal that does not match the deck or a
//     claim that does not match the replayed showdown is a lie of its author;
//  3. a timeout challenge is upheld against the absent seat;
//  4. a seat that disclosed no secrets is considered absent;
//  5. otherwise the challenge was unfounded and the challenger cheated.
type TranscriptReferee struct {
	Transcript *ledger.Transcript
	Funds      [2]uint
	Blinds     [2]uint
	Evaluator  poker.HandEvaluator
	Codec      *deck.Codec
}

type replay struct {
	keys       [2]kyber.Point
	seqs       [2]uint64
	stakes     [2]uint
	nextBettor int
	firstDeck  []deck.Token
	finalDeck  []deck.Token
	reveals    []protocol.TurnSubmission
	secrets    [2]*deck.SecretSet
	challenges []protocol.Challenge
	claims     []protocol.ResultClaim
}

type violation struct {
	seat   int
	reason string
}

func (r *TranscriptReferee) Adjudicate(ctx context.Context) (protocol.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return protocol.Verdict{}, err
	}
	if err := r.Transcript.Verify(); err != nil {
		return protocol.Verdict{}, fmt.Errorf("transcript is corrupted: %w", err)
	}
	rp := replay{stakes: r.Blinds}
	for _, m := range r.Transcript.Messages() {
		switch msg := m.(type) {
		case protocol.TurnSubmission:
			if v := r.checkTurn(&rp, msg); v != nil {
				return lie(v.seat, v.reason), nil
			}
		case protocol.Challenge:
			rp.challenges = append(rp.challenges, msg)
			if msg.Secrets.Player == msg.From && len(msg.Secrets.Secrets) > 0 {
				secrets := msg.Secrets
				rp.secrets[msg.From] = &secrets
			}
		case protocol.ResultClaim:
			rp.claims = append(rp.claims, msg)
		}
	}
	if len(rp.challenges) == 0 {
		return protocol.Verdict{}, errors.New("no dispute in transcript")
	}

	if rp.secrets[0] != nil && rp.secrets[1] != nil && len(rp.finalDeck) == deck.Size {
		v, err := r.checkDeal(&rp)
		if err != nil {
			return protocol.Verdict{}, err
		}
		if v != nil {
			return lie(v.seat, v.reason), nil
		}
	}

	for _, c := range rp.challenges {
		if c.Timeout && !c.Counter {
			return protocol.Verdict{Cheater: 1 - c.From, Cause: protocol.CauseTimeout, Reason: "stopped playing"}, nil
		}
	}
	for seat, s := range rp.secrets {
		if s == nil {
			return protocol.Verdict{Cheater: seat, Cause: protocol.CauseTimeout, Reason: "withheld deck secrets"}, nil
		}
	}
	for _, seat := range []int{0, 1} {
		for _, c := range rp.challenges {
			if c.From == seat && !c.Counter {
				return lie(seat, "unfounded challenge: "+c.Reason), nil
			}
		}
	}
	return protocol.Verdict{}, errors.New("only counter challenges in transcript")
}

func lie(seat int, reason string) protocol.Verdict {
	return protocol.Verdict{Cheater: seat, Cause: protocol.CauseCaughtLie, Reason: reason}
}

func (r *TranscriptReferee) checkTurn(rp *replay, t protocol.TurnSubmission) *violation {
	from := t.From
	if from != 0 && from != 1 {
		return nil
	}
	if t.Seq != rp.seqs[from]+1 {
		return &violation{from, fmt.Sprintf("turn %d out of order", t.Seq)}
	}
	rp.seqs[from] = t.Seq

	if hello, ok := t.Turn.(protocol.Hello); ok {
		if rp.keys[from] != nil {
			return &violation{from, "second hello"}
		}
		key, err := hello.Key()
		if err != nil {
			return &violation{from, err.Error()}
		}
		rp.keys[from] = key
	}
	if rp.keys[from] == nil {
		return &violation{from, "turn before hello"}
	}
	if err := t.VerifySignature(rp.keys[from]); err != nil {
		return &violation{from, "invalid signature"}
	}

	switch turn := t.Turn.(type) {
	case protocol.Deck:
		if len(turn.Tokens) != deck.Size {
			return &violation{from, fmt.Sprintf("deck of %d cards", len(turn.Tokens))}
		}
		if from == 0 {
			rp.firstDeck = turn.Tokens
		} else {
			rp.finalDeck = turn.Tokens
		}
	case protocol.Reveal:
		for slot, token := range turn.Cards {
			if slot < 0 || slot >= DealtSlots {
				return &violation{from, fmt.Sprintf("reveal of slot %d", slot)}
			}
			if err := r.Codec.Validate(token); err != nil {
				return &violation{from, err.Error()}
			}
		}
		rp.reveals = append(rp.reveals, t)
	case protocol.Bet:
		if from != rp.nextBettor {
			return &violation{from, "bet out of turn"}
		}
		top := max(rp.stakes[0], rp.stakes[1])
		if turn.Stake < top || turn.Stake > r.Funds[from] {
			return &violation{from, fmt.Sprintf("invalid bet %d", turn.Stake)}
		}
		rp.stakes[from] = turn.Stake
		rp.nextBettor = 1 - from
	}
	return nil
}

// permutation strips the layers of sets from tokens and checks that every
// card of the deck is left exactly once.
func (r *TranscriptReferee) permutation(tokens []deck.Token, sets ...deck.SecretSet) ([]deck.Token, error) {
	bare := make([]deck.Token, len(tokens))
	seen := make(map[int]int, len(tokens))
	for slot, t := range tokens {
		for _, set := range sets {
			var ok bool
			if t, ok = r.Codec.Decrypt(t, set); !ok {
				return nil, fmt.Errorf("slot %d lost the layer of seat %d", slot, set.Player)
			}
		}
		index, err := r.Codec.Plain(t)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", slot, err)
		}
		if prev, dup := seen[index]; dup {
			return nil, fmt.Errorf("slots %d and %d hold the same card", prev, slot)
		}
		seen[index] = slot
		bare[slot] = t
	}
	return bare, nil
}

// checkDeal replays the deal with the disclosed secrets.
func (r *TranscriptReferee) checkDeal(rp *replay) (*violation, error) {
	if len(rp.firstDeck) == deck.Size {
		if _, err := r.permutation(rp.firstDeck, *rp.secrets[0]); err != nil {
			return &violation{0, "first deck: " + err.Error()}, nil
		}
	}
	bare, err := r.permutation(rp.finalDeck, *rp.secrets[0], *rp.secrets[1])
	if err != nil {
		return &violation{1, "final deck: " + err.Error()}, nil
	}
	var cards [DealtSlots]poker.Card
	for slot := range cards {
		index, err := r.Codec.Plain(bare[slot])
		if err != nil {
			return nil, err
		}
		if cards[slot], err = poker.FromIndex(index); err != nil {
			return nil, err
		}
	}

	for _, t := range rp.reveals {
		reveal := t.Turn.(protocol.Reveal)
		for slot, token := range reveal.Cards {
			want, _ := r.Codec.Decrypt(rp.finalDeck[slot], *rp.secrets[t.From])
			if slot/2 == t.From {
				want = bare[slot]
			}
			if token != want {
				return &violation{t.From, fmt.Sprintf("revealed slot %d does not match the deck", slot)}, nil
			}
		}
	}

	table := poker.Table{Funds: r.Funds, Stakes: rp.stakes}
	for seat := range table.Hole {
		for _, slot := range HoleSlots(seat) {
			table.Hole[seat] = append(table.Hole[seat], cards[slot])
		}
	}
	for _, slot := range CommunitySlots {
		table.Community = append(table.Community, cards[slot])
	}
	for _, c := range rp.claims {
		want, err := poker.Arbiter{Seat: c.From, Evaluator: r.Evaluator}.Showdown(table)
		if err != nil {
			return nil, err
		}
		if !want.Equal(c.Result) {
			return &violation{c.From, "claimed result does not match the deal"}, nil
		}
	}
	return nil, nil
}
