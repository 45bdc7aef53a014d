package poker

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestIntToCard(t *testing.T) {
	expectedCard := Card{suit: Heart, rank: 2}
	testCard, err := IntToCard(28)
	if err != nil {
		t.Fatal(err)
	}
	if testCard != expectedCard {
		t.Fatalf("expected %v, get %v", expectedCard, testCard)
	}
}

func TestAllIndexesConvert(t *testing.T) {
	for i := 0; i < 52; i++ {
		c, err := FromIndex(i)
		if err != nil {
			t.Fatal(err)
		}
		if c.Index() != i {
			t.Fatalf("expected index %d, got %d", i, c.Index())
		}
	}
	if _, err := FromIndex(52); err == nil {
		t.Fatal("expected an error for index 52")
	}
}

func TestCardStringFaces(t *testing.T) {
	c := Card{suit: Heart, rank: 1}
	if !strings.Contains(c.String(), "A") || !strings.Contains(c.String(), "♥") {
		t.Fatalf("expected A♥, got %s", c.String())
	}
	c = Card{suit: Club, rank: 11}
	if !strings.Contains(c.String(), "J") || !strings.Contains(c.String(), "♣") {
		t.Fatalf("expected J♣, got %s", c.String())
	}
	if (Card{}).String() != FaceDown {
		t.Fatalf("expected face down card, got %s", Card{}.String())
	}
}

func TestCardJSON(t *testing.T) {
	hand := []Card{{suit: Spade, rank: King}, {}}
	b, err := json.Marshal(hand)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "[51,-1]" {
		t.Fatalf("unexpected encoding %s", b)
	}
	var decoded []Card
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded[0] != hand[0] || decoded[1].FaceUp() {
		t.Fatalf("expected %v, got %v", hand, decoded)
	}
}
