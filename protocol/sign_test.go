package protocol

import (
	"encoding/json"
	"testing"

	"github.com/luca-patrignani/headsup-poker/domain/deck"
)

func TestSignAndVerify(t *testing.T) {
	kp := NewKeyPair()
	ts := &TurnSubmission{Seq: 7, From: 1, Turn: Reveal{Cards: map[int]deck.Token{4: "s0_1_2"}}}
	if err := ts.Sign(kp.Private); err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if err := ts.VerifySignature(kp.Public); err != nil {
		t.Fatalf("signature verification failed: %v", err)
	}

	// the signature must survive the wire
	b, err := json.Marshal(ts)
	if err != nil {
		t.Fatal(err)
	}
	var decoded TurnSubmission
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}
	if err := decoded.VerifySignature(kp.Public); err != nil {
		t.Fatalf("decoded signature verification failed: %v", err)
	}
}

func TestVerifyFailsIfTampered(t *testing.T) {
	kp := NewKeyPair()
	ts := &TurnSubmission{Seq: 3, From: 0, Turn: Bet{Stake: 10}}
	if err := ts.Sign(kp.Private); err != nil {
		t.Fatal(err)
	}
	ts.Turn = Bet{Stake: 1000}
	if err := ts.VerifySignature(kp.Public); err == nil {
		t.Fatal("expected verification to fail after tampering")
	}
}

func TestVerifyFailsWithOtherKey(t *testing.T) {
	ts := &TurnSubmission{Seq: 1, From: 0, Turn: Fold{}}
	if err := ts.Sign(NewKeyPair().Private); err != nil {
		t.Fatal(err)
	}
	if err := ts.VerifySignature(NewKeyPair().Public); err == nil {
		t.Fatal("expected verification to fail with another key")
	}
	unsigned := &TurnSubmission{Seq: 1, From: 0, Turn: Fold{}}
	if err := unsigned.VerifySignature(NewKeyPair().Public); err == nil {
		t.Fatal("expected an error for a missing signature")
	}
}

func TestHelloKey(t *testing.T) {
	kp := NewKeyPair()
	h, err := kp.Hello()
	if err != nil {
		t.Fatal(err)
	}
	pub, err := h.Key()
	if err != nil {
		t.Fatal(err)
	}
	if !pub.Equal(kp.Public) {
		t.Fatal("decoded key differs")
	}
	h.Group = "P256"
	if _, err := h.Key(); err == nil {
		t.Fatal("expected an unsupported group error")
	}
}
