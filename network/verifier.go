package network

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/luca-patrignani/headsup-poker/protocol"
)

// Verifier publishes the progress of an external dispute resolution to
// both seats of a game.
type Verifier struct {
	Addresses [2]string
	Client    *http.Client
	Scheme    string
	Timeout   time.Duration

	mu    sync.Mutex
	clock uint64
}

func NewVerifier(addresses [2]string) *Verifier {
	return &Verifier{Addresses: addresses, Client: &http.Client{}, Scheme: "http"}
}

// Publish delivers u to both seats. Updates are numbered in publication
// order, so every seat sees them in that order.
func (v *Verifier) Publish(ctx context.Context, u protocol.VerificationUpdate) error {
	body, err := protocol.Encode(u)
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clock++
	clock := v.clock
	errs := make(chan error, len(v.Addresses))
	for _, address := range v.Addresses {
		go func(address string) {
			url := v.Scheme + "://" + address + "/" + protocol.Type(u)
			errs <- deliver(ctx, v.Client, url, clock, protocol.Verifier, body, v.Timeout)
		}(address)
	}
	var first error
	for range v.Addresses {
		if err := <-errs; err != nil && first == nil {
			first = err
		}
	}
	return first
}
