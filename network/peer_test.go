package network

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/luca-patrignani/headsup-poker/channel"
	"github.com/luca-patrignani/headsup-poker/protocol"
)

func newPeers(t *testing.T, opts ...func(seat int, address string) []Option) [2]*Peer {
	t.Helper()
	listeners, addresses, err := CreateListeners(2)
	if err != nil {
		t.Fatal(err)
	}
	var peers [2]*Peer
	for seat := range peers {
		var o []Option
		for _, opt := range opts {
			o = append(o, opt(seat, addresses[seat])...)
		}
		peers[seat] = NewPeer(seat, listeners[seat], addresses[1-seat], o...)
	}
	t.Cleanup(func() {
		for _, p := range peers {
			p.Close()
		}
	})
	return peers
}

func bet(seq uint64, from int) protocol.TurnSubmission {
	return protocol.TurnSubmission{Seq: seq, From: from, Turn: protocol.Bet{Stake: uint(seq) * 10}}
}

func fold(seq uint64, from int) protocol.TurnSubmission {
	return protocol.TurnSubmission{Seq: seq, From: from, Turn: protocol.Fold{}}
}

func rawPost(t *testing.T, address string, clock uint64, m protocol.Message) int {
	t.Helper()
	body, err := protocol.Encode(m)
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPost, "http://"+address+"/"+protocol.Type(m), bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set(clockHeader, strconv.FormatUint(clock, 10))
	req.Header.Set(senderHeader, strconv.Itoa(m.Sender()))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestPeerDeliversInOrder(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	peers := newPeers(t)
	n := 10
	fatal := make(chan error, 1)
	go func() {
		for i := 1; i <= n; i++ {
			if err := peers[0].SubmitTurn(ctx, bet(uint64(i), 0)); err != nil {
				fatal <- err
				return
			}
		}
		fatal <- nil
	}()
	for i := 1; i <= n; i++ {
		ts, err := peers[1].ReceiveTurnOver(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if ts.Seq != uint64(i) {
			t.Fatalf("expected turn %d, received %d", i, ts.Seq)
		}
	}
	if err := <-fatal; err != nil {
		t.Fatal(err)
	}
	for seat, p := range peers {
		if p.Transcript().Len() != n+1 {
			t.Fatalf("seat %d recorded %d blocks", seat, p.Transcript().Len())
		}
		if err := p.Transcript().Verify(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPeerDeliversRetransmissionOnce(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	peers := newPeers(t)
	address := peers[1].Addr()

	if code := rawPost(t, address, 1, bet(1, 0)); code != http.StatusAccepted {
		t.Fatalf("status code %d", code)
	}
	if code := rawPost(t, address, 1, bet(1, 0)); code != http.StatusAccepted {
		t.Fatalf("retransmission answered with %d", code)
	}
	if code := rawPost(t, address, 3, bet(3, 0)); code != http.StatusNotAcceptable {
		t.Fatalf("gap answered with %d", code)
	}
	if code := rawPost(t, address, 2, bet(2, 0)); code != http.StatusAccepted {
		t.Fatalf("status code %d", code)
	}

	for _, seq := range []uint64{1, 2} {
		ts, err := peers[1].ReceiveTurnOver(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if ts.Seq != seq {
			t.Fatalf("expected turn %d, received %d", seq, ts.Seq)
		}
	}
	short, stop := context.WithTimeout(ctx, 50*time.Millisecond)
	defer stop()
	if ts, err := peers[1].ReceiveTurnOver(short); err == nil {
		t.Fatalf("turn %d delivered twice", ts.Seq)
	}
}

func TestPeerRejectsWrongSender(t *testing.T) {
	peers := newPeers(t)
	if code := rawPost(t, peers[1].Addr(), 1, bet(1, 1)); code != http.StatusForbidden {
		t.Fatalf("own message answered with %d", code)
	}
}

func TestPeerRejectsClaimAfterChallenge(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	peers := newPeers(t)
	if err := peers[1].ChallengeGame(ctx, protocol.Challenge{From: 1, Reason: "Invalid card"}); err != nil {
		t.Fatal(err)
	}
	if _, err := peers[0].ReceiveGameChallenged(ctx); err != nil {
		t.Fatal(err)
	}

	body, err := protocol.Encode(protocol.ResultClaim{From: 1})
	if err != nil {
		t.Fatal(err)
	}
	url := "http://" + peers[0].Addr() + "/claim"
	err = deliver(ctx, http.DefaultClient, url, 2, 1, body, time.Second)
	if !errors.Is(err, channel.ErrAlreadyChallenged) {
		t.Fatalf("expected %v, got %v", channel.ErrAlreadyChallenged, err)
	}
	if err := peers[0].ClaimResult(ctx, protocol.ResultClaim{From: 0}); !errors.Is(err, channel.ErrAlreadyChallenged) {
		t.Fatalf("expected %v, got %v", channel.ErrAlreadyChallenged, err)
	}
}

func TestPeerRejectsTurnAfterFold(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	peers := newPeers(t)
	if err := peers[0].SubmitTurn(ctx, bet(1, 0)); err != nil {
		t.Fatal(err)
	}
	if err := peers[1].SubmitTurn(ctx, fold(1, 1)); err != nil {
		t.Fatal(err)
	}
	for _, p := range peers {
		if _, err := p.ReceiveTurnOver(ctx); err != nil {
			t.Fatal(err)
		}
	}

	if err := peers[0].SubmitTurn(ctx, bet(2, 0)); !errors.Is(err, channel.ErrAlreadyFolded) {
		t.Fatalf("expected %v, got %v", channel.ErrAlreadyFolded, err)
	}
	// the other seat refuses it too, whoever sends it
	body, err := protocol.Encode(bet(2, 0))
	if err != nil {
		t.Fatal(err)
	}
	err = deliver(ctx, http.DefaultClient, "http://"+peers[1].Addr()+"/turn", 2, 0, body, time.Second)
	if !errors.Is(err, channel.ErrAlreadyFolded) {
		t.Fatalf("expected %v, got %v", channel.ErrAlreadyFolded, err)
	}
}

func TestPeerTimesOut(t *testing.T) {
	listeners, addresses, err := CreateListeners(2)
	if err != nil {
		t.Fatal(err)
	}
	// nobody serves the opponent
	listeners[1].Close()
	p := NewPeer(0, listeners[0], addresses[1], WithTimeout(100*time.Millisecond))
	defer p.Close()
	if err := p.SubmitTurn(context.Background(), bet(1, 0)); err == nil {
		t.Fatal("expected the submission to time out")
	}
}

func TestVerifierPublishesToBothSeats(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	peers := newPeers(t)
	v := NewVerifier([2]string{peers[0].Addr(), peers[1].Addr()})
	for _, s := range protocol.VerificationStates {
		if err := v.Publish(ctx, protocol.VerificationUpdate{State: s, Message: string(s)}); err != nil {
			t.Fatal(err)
		}
	}
	for seat, p := range peers {
		for _, s := range protocol.VerificationStates {
			u, err := p.ReceiveVerificationUpdate(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if u.State != s {
				t.Fatalf("seat %d: expected %s, received %s", seat, s, u.State)
			}
		}
	}
}
