package ledger

import (
	"testing"

	"github.com/luca-patrignani/headsup-poker/protocol"
)

// TestNewTranscript verifies that a new transcript starts with a valid genesis block.
func TestNewTranscript(t *testing.T) {
	tr := NewTranscript("game-1")
	if tr.Len() != 1 {
		t.Fatalf("expected 1 block (genesis), got %d", tr.Len())
	}
	genesis := tr.GetLatest()
	if genesis.Index != 0 {
		t.Fatalf("genesis index should be 0, got %d", genesis.Index)
	}
	if genesis.PrevHash != "0" {
		t.Fatalf("genesis PrevHash should be '0', got %s", genesis.PrevHash)
	}
	if genesis.Hash == "" {
		t.Fatal("genesis block should have a hash")
	}
	if len(tr.Messages()) != 0 {
		t.Fatalf("expected no messages, got %d", len(tr.Messages()))
	}
	if err := tr.Verify(); err != nil {
		t.Fatal(err)
	}
}

// TestAppendChainsBlocks verifies the linkage of appended blocks.
func TestAppendChainsBlocks(t *testing.T) {
	tr := NewTranscript("game-2")
	msgs := []protocol.Message{
		protocol.TurnSubmission{Seq: 1, From: 0, Turn: protocol.Bet{Stake: 10}},
		protocol.TurnSubmission{Seq: 1, From: 1, Turn: protocol.Bet{Stake: 20}},
		protocol.Challenge{From: 0, Reason: "Invalid bet"},
	}
	for _, m := range msgs {
		if _, err := tr.Append(m); err != nil {
			t.Fatal(err)
		}
	}
	if tr.Len() != len(msgs)+1 {
		t.Fatalf("expected %d blocks, got %d", len(msgs)+1, tr.Len())
	}
	for i := 1; i < tr.Len(); i++ {
		prev, _ := tr.GetByIndex(i - 1)
		cur, _ := tr.GetByIndex(i)
		if cur.PrevHash != prev.Hash {
			t.Fatalf("block %d does not link to block %d", i, i-1)
		}
		if cur.From != msgs[i-1].Sender() {
			t.Fatalf("block %d: expected sender %d, got %d", i, msgs[i-1].Sender(), cur.From)
		}
	}
	if got := tr.Messages(); len(got) != len(msgs) || got[2].(protocol.Challenge).Reason != "Invalid bet" {
		t.Fatalf("unexpected messages %v", got)
	}
	if err := tr.Verify(); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.GetByIndex(10); err == nil {
		t.Fatal("expected out of range error")
	}
}

// TestVerifyDetectsTampering verifies that modifying a block breaks the chain.
func TestVerifyDetectsTampering(t *testing.T) {
	tr := NewTranscript("game-3")
	if _, err := tr.Append(protocol.TurnSubmission{Seq: 1, From: 0, Turn: protocol.Bet{Stake: 10}}); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Append(protocol.TurnSubmission{Seq: 1, From: 1, Turn: protocol.Fold{}}); err != nil {
		t.Fatal(err)
	}
	tr.blocks[1].Payload = []byte(`{"type":"turn","body":{"seq":1,"from":0,"kind":"BET","body":{"stake":999}}}`)
	if err := tr.Verify(); err == nil {
		t.Fatal("expected tampering to be detected")
	}
}
