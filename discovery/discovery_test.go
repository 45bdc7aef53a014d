package discovery

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func entry(t *testing.T, o any) Entry {
	t.Helper()
	info, err := json.Marshal(o)
	if err != nil {
		t.Fatal(err)
	}
	return Entry{Info: info, Time: time.Now()}
}

func TestMatchSkipsOtherOffers(t *testing.T) {
	own := Offer{Game: "g1", Seat: 0, Address: "10.0.0.1:7000"}
	entries := make(chan Entry, 4)
	entries <- Entry{Info: []byte("not json")}
	entries <- entry(t, Offer{Game: "g1", Seat: 0, Address: "10.0.0.2:7000"})
	entries <- entry(t, Offer{Game: "g2", Seat: 1, Address: "10.0.0.3:7000"})
	entries <- entry(t, Offer{Game: "g1", Seat: 1, Address: "10.0.0.4:7000"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	o, err := match(ctx, own, entries)
	if err != nil {
		t.Fatal(err)
	}
	if o.Address != "10.0.0.4:7000" {
		t.Fatalf("matched %+v", o)
	}
}

func TestMatchAnyGame(t *testing.T) {
	if !(Offer{Game: "g2", Seat: 0}).Matches(Offer{Seat: 1}) {
		t.Fatal("an offer without game should match any game")
	}
	if (Offer{Seat: 2}).Matches(Offer{Seat: 1}) {
		t.Fatal("only the other seat matches")
	}
}

func TestMatchStops(t *testing.T) {
	entries := make(chan Entry)
	close(entries)
	if _, err := match(context.Background(), Offer{}, entries); err == nil {
		t.Fatal("expected an error on closed entries")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := match(ctx, Offer{}, make(chan Entry)); err == nil {
		t.Fatal("expected the context error")
	}
}

func TestFindOpponent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	fatal := make(chan error, 2)
	found := make(chan Offer, 2)
	for seat := range 2 {
		go func() {
			o, err := FindOpponent(ctx, Offer{Game: "multicast", Seat: seat, Address: "seat"}, 53552, 100*time.Millisecond)
			fatal <- err
			found <- o
		}()
	}
	for range 2 {
		if err := <-fatal; err != nil {
			// multicast is not available everywhere
			t.Skip(err)
		}
		if o := <-found; o.Game != "multicast" {
			t.Fatalf("unexpected offer %+v", o)
		}
	}
}
