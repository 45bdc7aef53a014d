package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/headsup-poker/channel"
	"github.com/luca-patrignani/headsup-poker/protocol"
)

type fixedReferee struct {
	verdict protocol.Verdict
	err     error
}

func (f fixedReferee) Adjudicate(context.Context) (protocol.Verdict, error) {
	return f.verdict, f.err
}

func collect(t *testing.T, updates <-chan protocol.VerificationUpdate) []protocol.VerificationUpdate {
	t.Helper()
	var got []protocol.VerificationUpdate
	timeout := time.After(2 * time.Second)
	for {
		select {
		case u, ok := <-updates:
			if !ok {
				return got
			}
			got = append(got, u)
		case <-timeout:
			t.Fatal("driver did not close its channel")
		}
	}
}

func TestSimulatorSkipsChallenged(t *testing.T) {
	verdict := protocol.Verdict{Cheater: 1, Cause: protocol.CauseCaughtLie, Reason: "invalid card"}
	sim := &Simulator{
		InitialDelay: 5 * time.Millisecond,
		Step:         5 * time.Millisecond,
		Referee:      fixedReferee{verdict: verdict},
	}
	got := collect(t, sim.Drive(context.Background(), "Invalid card"))

	var states []protocol.VerificationState
	for _, u := range got {
		states = append(states, u.State)
		require.Equal(t, "Invalid card", u.Message)
	}
	require.Equal(t, []protocol.VerificationState{
		protocol.VerificationStarted,
		protocol.VerificationResultSubmitted,
		protocol.VerificationResultConfirmed,
		protocol.VerificationEnded,
	}, states)
	for _, u := range got[:len(got)-1] {
		require.Nil(t, u.Verdict)
	}
	require.Equal(t, &verdict, got[len(got)-1].Verdict)
}

func TestSimulatorStallsWithoutVerdict(t *testing.T) {
	sim := &Simulator{
		InitialDelay: time.Millisecond,
		Step:         time.Millisecond,
		Referee:      fixedReferee{err: errors.New("verifier unavailable")},
	}
	got := collect(t, sim.Drive(context.Background(), "Result mismatch"))
	require.Len(t, got, 3)
	require.Equal(t, protocol.VerificationResultConfirmed, got[2].State)
}

func TestSimulatorCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sim := &Simulator{InitialDelay: time.Hour, Step: time.Hour, Referee: fixedReferee{}}
	updates := sim.Drive(ctx, "cancelled")
	cancel()
	require.Empty(t, collect(t, updates))
}

func TestChannelDriverStopsAtEnded(t *testing.T) {
	ctx := context.Background()
	p := channel.NewPair("external", 0)
	verdict := protocol.Verdict{Cheater: 0, Cause: protocol.CauseTimeout}
	for _, s := range []protocol.VerificationState{
		protocol.VerificationStarted,
		protocol.VerificationResultChallenged,
		protocol.VerificationEnded,
		protocol.VerificationStarted,
	} {
		u := protocol.VerificationUpdate{State: s}
		if s == protocol.VerificationEnded {
			u.Verdict = &verdict
		}
		require.NoError(t, p.PublishVerificationUpdate(ctx, u))
	}

	got := collect(t, ChannelDriver{Source: p.Endpoint(1)}.Drive(ctx, "timeout"))
	require.Len(t, got, 3)
	require.Equal(t, protocol.VerificationResultChallenged, got[1].State)
	require.Equal(t, &verdict, got[2].Verdict)
}
