package poker

import (
	"errors"
	"fmt"

	"github.com/paulhankin/poker"
)

// ErrDuplicateCard is returned for a hand that holds the same card twice.
var ErrDuplicateCard = errors.New("duplicate card")

// Solution is the verdict of a HandEvaluator. Entries of absent hands are
// left empty.
type Solution struct {
	Winners      [2]bool
	BestHands    [2][]Card
	Descriptions [2]string
}

// HandEvaluator decides which of the given 7-card hands wins. A nil hand
// belongs to a player that folded or never revealed.
type HandEvaluator interface {
	Solve(hands [2][]Card) (Solution, error)
}

// Evaluator is the HandEvaluator backed by paulhankin/poker.
type Evaluator struct{}

func (Evaluator) Solve(hands [2][]Card) (Solution, error) {
	var sol Solution
	var scores [2]int16
	present := 0
	for seat, hand := range hands {
		if hand == nil {
			continue
		}
		final, err := makeFinalHand(hand)
		if err != nil {
			return Solution{}, fmt.Errorf("seat %d: %w", seat, err)
		}
		scores[seat] = poker.Eval7(&final)
		desc, err := poker.Describe(final[:])
		if err != nil {
			return Solution{}, fmt.Errorf("seat %d: %w", seat, err)
		}
		sol.BestHands[seat] = append([]Card(nil), hand...)
		sol.Descriptions[seat] = desc
		present++
	}
	switch present {
	case 0:
	case 1:
		for seat := range hands {
			sol.Winners[seat] = hands[seat] != nil
		}
	default:
		sol.Winners[0] = scores[0] >= scores[1]
		sol.Winners[1] = scores[1] >= scores[0]
	}
	return sol, nil
}

func makeFinalHand(hand []Card) ([7]poker.Card, error) {
	var finalHand [7]poker.Card
	if len(hand) != 7 {
		return finalHand, fmt.Errorf("expected 7 cards, got %d", len(hand))
	}
	seen := make(map[Card]bool, len(hand))
	for i, c := range hand {
		if seen[c] {
			return [7]poker.Card{}, fmt.Errorf("%w: %s at idx %d", ErrDuplicateCard, c, i)
		}
		seen[c] = true
		card, err := poker.MakeCard(poker.Suit(c.suit), poker.Rank(c.rank))
		if err != nil {
			return [7]poker.Card{}, fmt.Errorf("invalid card at idx %d: %w", i, err)
		}
		finalHand[i] = card
	}
	return finalHand, nil
}
