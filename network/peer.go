package network

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/luca-patrignani/headsup-poker/channel"
	"github.com/luca-patrignani/headsup-poker/ledger"
	"github.com/luca-patrignani/headsup-poker/protocol"
)

const (
	clockHeader  = "Clock"
	senderHeader = "SenderRank"

	retryInterval = 20 * time.Millisecond
)

// Peer is the TurnChannel of one seat over HTTP. Every message is posted
// to the opponent with a per-sender clock: the receiver accepts clock n+1
// after n, acknowledges duplicates without delivering them again and
// refuses gaps, so the sender retries until the messages arrive in order.
type Peer struct {
	Seat        int
	PeerAddress string

	server     *http.Server
	listener   net.Listener
	client     *http.Client
	scheme     string
	tlsConfig  *tls.Config
	timeout    time.Duration
	log        *slog.Logger
	state      *channel.State
	transcript *ledger.Transcript

	send  sync.Mutex
	clock uint64

	recv   sync.Mutex
	clocks map[int]uint64

	turns         chan protocol.TurnSubmission
	claims        chan protocol.ResultClaim
	confirmations chan protocol.ResultConfirmation
	challenges    chan protocol.Challenge
	updates       chan protocol.VerificationUpdate
}

// NewPeer serves the messages addressed to seat on l and sends its own to
// peerAddress.
func NewPeer(seat int, l net.Listener, peerAddress string, opts ...Option) *Peer {
	p := &Peer{
		Seat:          seat,
		PeerAddress:   peerAddress,
		listener:      l,
		client:        &http.Client{},
		scheme:        "http",
		log:           slog.Default(),
		state:         channel.NewState(),
		clocks:        make(map[int]uint64),
		turns:         make(chan protocol.TurnSubmission, channel.DefaultCapacity),
		claims:        make(chan protocol.ResultClaim, channel.DefaultCapacity),
		confirmations: make(chan protocol.ResultConfirmation, channel.DefaultCapacity),
		challenges:    make(chan protocol.Challenge, channel.DefaultCapacity),
		updates:       make(chan protocol.VerificationUpdate, channel.DefaultCapacity),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.transcript == nil {
		p.transcript = ledger.NewTranscript(fmt.Sprintf("seat-%d", seat))
	}
	p.client.Timeout = p.timeout
	p.server = &http.Server{Handler: p}
	if p.tlsConfig != nil {
		l = tls.NewListener(l, p.tlsConfig)
	}
	go func() {
		err := p.server.Serve(l)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.log.Error("peer server stopped", "error", err)
		}
	}()
	return p
}

// Addr returns the address the peer listens on.
func (p *Peer) Addr() string {
	return p.listener.Addr().String()
}

func (p *Peer) Close() error {
	return p.server.Shutdown(context.Background())
}

func (p *Peer) Transcript() *ledger.Transcript {
	return p.transcript
}

func (p *Peer) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	clock, err := strconv.ParseUint(req.Header.Get(clockHeader), 10, 64)
	if err != nil {
		http.Error(rw, "Clock field is not a number", http.StatusBadRequest)
		return
	}
	sender, err := strconv.Atoi(req.Header.Get(senderHeader))
	if err != nil {
		http.Error(rw, "SenderRank field is not a number", http.StatusBadRequest)
		return
	}
	content, err := io.ReadAll(req.Body)
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}
	m, err := protocol.Decode(content)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	if req.URL.Path != "/"+protocol.Type(m) || m.Sender() != sender || sender == p.Seat {
		http.Error(rw, "unexpected sender or message type", http.StatusForbidden)
		return
	}

	p.recv.Lock()
	defer p.recv.Unlock()
	last := p.clocks[sender]
	switch {
	case clock <= last:
		rw.WriteHeader(http.StatusAccepted)
		return
	case clock != last+1:
		rw.WriteHeader(http.StatusNotAcceptable)
		return
	}
	p.clocks[sender] = clock
	if err := p.state.Admit(m); err != nil {
		http.Error(rw, err.Error(), http.StatusConflict)
		return
	}
	if _, err := p.transcript.Append(m); err != nil {
		p.log.Error("cannot record message", "type", protocol.Type(m), "error", err)
	}
	if err := p.enqueue(req.Context(), m); err != nil {
		rw.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	rw.WriteHeader(http.StatusAccepted)
}

func (p *Peer) enqueue(ctx context.Context, m protocol.Message) error {
	switch msg := m.(type) {
	case protocol.TurnSubmission:
		return push(ctx, p.turns, msg)
	case protocol.ResultClaim:
		return push(ctx, p.claims, msg)
	case protocol.ResultConfirmation:
		return push(ctx, p.confirmations, msg)
	case protocol.Challenge:
		return push(ctx, p.challenges, msg)
	case protocol.VerificationUpdate:
		return push(ctx, p.updates, msg)
	}
	return fmt.Errorf("unknown message %T", m)
}

func push[T any](ctx context.Context, queue chan T, m T) error {
	select {
	case queue <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func pop[T any](ctx context.Context, queue chan T) (T, error) {
	select {
	case m := <-queue:
		return m, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// post admits m locally and delivers it to the opponent.
func (p *Peer) post(ctx context.Context, m protocol.Message) error {
	if m.Sender() != p.Seat {
		return fmt.Errorf("seat %d cannot send on behalf of seat %d", p.Seat, m.Sender())
	}
	body, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	p.send.Lock()
	defer p.send.Unlock()
	if err := p.state.Admit(m); err != nil {
		return err
	}
	p.clock++
	url := p.scheme + "://" + p.PeerAddress + "/" + protocol.Type(m)
	if err := deliver(ctx, p.client, url, p.clock, p.Seat, body, p.timeout); err != nil {
		return err
	}
	if _, err := p.transcript.Append(m); err != nil {
		p.log.Error("cannot record message", "type", protocol.Type(m), "error", err)
	}
	return nil
}

// deliver posts body until the receiver accepts it, refuses it, or the
// attempts time out.
func deliver(ctx context.Context, client *http.Client, url string, clock uint64, sender int, body []byte, timeout time.Duration) error {
	start := time.Now()
	var lastErr error
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set(clockHeader, strconv.FormatUint(clock, 10))
		req.Header.Set(senderHeader, strconv.Itoa(sender))
		resp, err := client.Do(req)
		if err == nil {
			reason, _ := io.ReadAll(resp.Body)
			if err := resp.Body.Close(); err != nil {
				return err
			}
			switch resp.StatusCode {
			case http.StatusAccepted:
				return nil
			case http.StatusConflict, http.StatusForbidden, http.StatusBadRequest:
				return rejection(string(bytes.TrimSpace(reason)))
			}
			lastErr = fmt.Errorf("status code %d", resp.StatusCode)
		} else {
			lastErr = err
		}
		if timeout > 0 && time.Since(start) > timeout {
			return fmt.Errorf("connection attempts timed out: %w", lastErr)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

func rejection(reason string) error {
	for _, err := range []error{
		channel.ErrAlreadyConfirmed,
		channel.ErrAlreadyFolded,
		channel.ErrAlreadyClaimed,
		channel.ErrAlreadyChallenged,
		channel.ErrNoClaim,
	} {
		if reason == err.Error() {
			return err
		}
	}
	return fmt.Errorf("rejected by opponent: %s", reason)
}

func (p *Peer) SubmitTurn(ctx context.Context, t protocol.TurnSubmission) error {
	return p.post(ctx, t)
}

func (p *Peer) ReceiveTurnOver(ctx context.Context) (protocol.TurnSubmission, error) {
	return pop(ctx, p.turns)
}

func (p *Peer) ClaimResult(ctx context.Context, c protocol.ResultClaim) error {
	return p.post(ctx, c)
}

func (p *Peer) ReceiveResultClaimed(ctx context.Context) (protocol.ResultClaim, error) {
	return pop(ctx, p.claims)
}

func (p *Peer) ConfirmResult(ctx context.Context, c protocol.ResultConfirmation) error {
	return p.post(ctx, c)
}

func (p *Peer) ReceiveGameOver(ctx context.Context) (protocol.ResultConfirmation, error) {
	return pop(ctx, p.confirmations)
}

func (p *Peer) ChallengeGame(ctx context.Context, c protocol.Challenge) error {
	return p.post(ctx, c)
}

func (p *Peer) ReceiveGameChallenged(ctx context.Context) (protocol.Challenge, error) {
	return pop(ctx, p.challenges)
}

func (p *Peer) ReceiveVerificationUpdate(ctx context.Context) (protocol.VerificationUpdate, error) {
	return pop(ctx, p.updates)
}

// CreateListeners opens n listeners on free localhost ports.
func CreateListeners(n int) ([]net.Listener, []string, error) {
	listeners := make([]net.Listener, 0, n)
	addresses := make([]string, 0, n)
	for i := 0; i < n; i++ {
		l, err := net.Listen("tcp", "localhost:0")
		if err != nil {
			for _, open := range listeners {
				open.Close()
			}
			return nil, nil, err
		}
		listeners = append(listeners, l)
		addresses = append(addresses, l.Addr().String())
	}
	return listeners, addresses, nil
}
