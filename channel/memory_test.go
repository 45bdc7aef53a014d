package channel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/headsup-poker/domain/poker"
	"github.com/luca-patrignani/headsup-poker/protocol"
)

func bet(seq uint64, from int, stake uint) protocol.TurnSubmission {
	return protocol.TurnSubmission{Seq: seq, From: from, Turn: protocol.Bet{Stake: stake}}
}

func TestPairFIFO(t *testing.T) {
	ctx := context.Background()
	p := NewPair("fifo", 8)
	alice, bob := p.Endpoint(0), p.Endpoint(1)

	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, alice.SubmitTurn(ctx, bet(i, 0, uint(i*10))))
	}
	for i := uint64(1); i <= 5; i++ {
		got, err := bob.ReceiveTurnOver(ctx)
		require.NoError(t, err)
		require.Equal(t, i, got.Seq)
	}
	require.Equal(t, 6, p.Transcript().Len())
	require.NoError(t, p.Transcript().Verify())
}

func TestPairExactlyOneReceiver(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	p := NewPair("receivers", 0)
	alice, bob := p.Endpoint(0), p.Endpoint(1)

	const n = 20
	var mu sync.Mutex
	seen := make(map[uint64]int)
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				mu.Lock()
				total := 0
				for _, c := range seen {
					total += c
				}
				mu.Unlock()
				if total >= n {
					return
				}
				rctx, rcancel := context.WithTimeout(ctx, 50*time.Millisecond)
				got, err := bob.ReceiveTurnOver(rctx)
				rcancel()
				if err != nil {
					continue
				}
				mu.Lock()
				seen[got.Seq]++
				mu.Unlock()
			}
		}()
	}
	for i := uint64(1); i <= n; i++ {
		require.NoError(t, alice.SubmitTurn(ctx, bet(i, 0, uint(i))))
	}
	wg.Wait()
	require.Len(t, seen, n)
	for seq, c := range seen {
		require.Equalf(t, 1, c, "turn %d delivered %d times", seq, c)
	}
}

func TestPairRejectsAfterConfirmation(t *testing.T) {
	ctx := context.Background()
	p := NewPair("confirm", 0)
	alice, bob := p.Endpoint(0), p.Endpoint(1)
	result := poker.Result{IsWinner: [2]bool{true, false}, FundsShare: [2]uint{1100, 900}}

	require.ErrorIs(t, bob.ConfirmResult(ctx, protocol.ResultConfirmation{From: 1, Result: result}), ErrNoClaim)
	require.NoError(t, alice.ClaimResult(ctx, protocol.ResultClaim{From: 0, Result: result}))
	require.ErrorIs(t, alice.SubmitTurn(ctx, bet(1, 0, 10)), ErrAlreadyClaimed)
	require.ErrorIs(t, bob.ClaimResult(ctx, protocol.ResultClaim{From: 1, Result: result}), ErrAlreadyClaimed)
	require.ErrorIs(t, alice.ConfirmResult(ctx, protocol.ResultConfirmation{From: 0, Result: result}), ErrNoClaim)

	claim, err := bob.ReceiveResultClaimed(ctx)
	require.NoError(t, err)
	require.True(t, claim.Result.Equal(result))

	require.NoError(t, bob.ConfirmResult(ctx, protocol.ResultConfirmation{From: 1, Result: claim.Result}))
	over, err := alice.ReceiveGameOver(ctx)
	require.NoError(t, err)
	require.True(t, over.Result.Equal(result))

	require.ErrorIs(t, bob.SubmitTurn(ctx, bet(1, 1, 10)), ErrAlreadyConfirmed)
	require.ErrorIs(t, bob.ConfirmResult(ctx, protocol.ResultConfirmation{From: 1, Result: result}), ErrAlreadyConfirmed)
	require.ErrorIs(t, alice.ChallengeGame(ctx, protocol.Challenge{From: 0, Reason: "late"}), ErrAlreadyConfirmed)
}

func TestPairRejectsAfterChallenge(t *testing.T) {
	ctx := context.Background()
	p := NewPair("challenge", 0)
	alice, bob := p.Endpoint(0), p.Endpoint(1)

	require.NoError(t, alice.ChallengeGame(ctx, protocol.Challenge{From: 0, Reason: "Invalid bet"}))
	require.ErrorIs(t, alice.ChallengeGame(ctx, protocol.Challenge{From: 0, Reason: "again"}), ErrAlreadyChallenged)
	require.ErrorIs(t, bob.SubmitTurn(ctx, bet(1, 1, 10)), ErrAlreadyChallenged)
	require.ErrorIs(t, bob.ClaimResult(ctx, protocol.ResultClaim{From: 1}), ErrAlreadyChallenged)

	// the opponent can still disclose its own evidence
	require.NoError(t, bob.ChallengeGame(ctx, protocol.Challenge{From: 1, Counter: true}))
	c, err := bob.ReceiveGameChallenged(ctx)
	require.NoError(t, err)
	require.Equal(t, "Invalid bet", c.Reason)
}

func TestPairRejectsAfterFold(t *testing.T) {
	ctx := context.Background()
	p := NewPair("fold", 0)
	alice, bob := p.Endpoint(0), p.Endpoint(1)

	require.NoError(t, alice.SubmitTurn(ctx, bet(1, 0, 50)))
	require.NoError(t, bob.SubmitTurn(ctx, protocol.TurnSubmission{Seq: 1, From: 1, Turn: protocol.Fold{}}))
	require.ErrorIs(t, alice.SubmitTurn(ctx, bet(2, 0, 70)), ErrAlreadyFolded)
	require.ErrorIs(t, bob.SubmitTurn(ctx, bet(2, 1, 70)), ErrAlreadyFolded)
	require.ErrorIs(t, alice.ClaimResult(ctx, protocol.ResultClaim{From: 0}), ErrAlreadyFolded)

	// a late dispute can still collect the evidence
	require.NoError(t, alice.ChallengeGame(ctx, protocol.Challenge{From: 0, Reason: "Invalid bet"}))
}

func TestPairSenderMustOwnEndpoint(t *testing.T) {
	p := NewPair("impersonation", 0)
	require.Error(t, p.Endpoint(0).SubmitTurn(context.Background(), bet(1, 1, 10)))
}

func TestPairReceiveHonoursContext(t *testing.T) {
	p := NewPair("cancel", 0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Endpoint(0).ReceiveTurnOver(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPublishVerificationUpdate(t *testing.T) {
	ctx := context.Background()
	p := NewPair("updates", 0)
	u := protocol.VerificationUpdate{State: protocol.VerificationStarted, Message: "Result mismatch"}
	require.NoError(t, p.PublishVerificationUpdate(ctx, u))
	for seat := 0; seat < 2; seat++ {
		got, err := p.Endpoint(seat).ReceiveVerificationUpdate(ctx)
		require.NoError(t, err)
		require.Equal(t, u, got)
	}
}
