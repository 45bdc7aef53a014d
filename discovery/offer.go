package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Offer announces a seat waiting for an opponent.
type Offer struct {
	Game    string `json:"game,omitempty"`
	Seat    int    `json:"seat"`
	Address string `json:"address"`
}

// Matches reports whether o can play against own: the other seat of the
// same game, or of any game when own names none.
func (o Offer) Matches(own Offer) bool {
	return o.Seat == 1-own.Seat && (own.Game == "" || o.Game == own.Game)
}

// FindOpponent announces own on port and returns the first matching offer.
func FindOpponent(ctx context.Context, own Offer, port uint16, interval time.Duration) (Offer, error) {
	info, err := json.Marshal(own)
	if err != nil {
		return Offer{}, err
	}
	d := &Discover{Info: info, Port: port, IntervalBetweenAnnouncements: interval}
	if err := d.Start(); err != nil {
		return Offer{}, err
	}
	defer d.Close()
	return match(ctx, own, d.Entries)
}

func match(ctx context.Context, own Offer, entries <-chan Entry) (Offer, error) {
	for {
		select {
		case <-ctx.Done():
			return Offer{}, ctx.Err()
		case entry, ok := <-entries:
			if !ok {
				return Offer{}, errors.New("discovery stopped")
			}
			var o Offer
			if err := json.Unmarshal(entry.Info, &o); err != nil {
				continue
			}
			if o.Matches(own) {
				return o, nil
			}
		}
	}
}
