package verification

import (
	"context"
	"log/slog"
	"time"

	"github.com/luca-patrignani/headsup-poker/protocol"
)

// Driver produces the updates of a dispute. The returned channel is closed
// after the terminal update, or earlier if ctx is done or the dispute
// stalls.
type Driver interface {
	Drive(ctx context.Context, reason string) <-chan protocol.VerificationUpdate
}

// Simulator drives a dispute with local timers: the first update comes
// after InitialDelay, then one every Step. RESULT_CHALLENGED is skipped
// and the verdict of the terminal update is asked to Referee.
type Simulator struct {
	InitialDelay time.Duration
	Step         time.Duration
	Referee      Referee
	Logger       *slog.Logger
}

func (s *Simulator) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Simulator) Drive(ctx context.Context, reason string) <-chan protocol.VerificationUpdate {
	out := make(chan protocol.VerificationUpdate, len(protocol.VerificationStates))
	go func() {
		defer close(out)
		wait := s.InitialDelay
		state := protocol.VerificationStarted
		for {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			u := protocol.VerificationUpdate{State: state, Message: reason}
			if state == protocol.VerificationEnded {
				v, err := s.Referee.Adjudicate(ctx)
				if err != nil {
					s.logger().Error("verification stalled", "reason", reason, "error", err)
					return
				}
				u.Verdict = &v
			}
			select {
			case out <- u:
			case <-ctx.Done():
				return
			}
			if state == protocol.VerificationEnded {
				return
			}
			state = state.Next()
			if state == protocol.VerificationResultChallenged {
				state = state.Next()
			}
			wait = s.Step
		}
	}()
	return out
}

// UpdateSource is the part of a turn channel that carries the messages of
// an external verifier.
type UpdateSource interface {
	ReceiveVerificationUpdate(ctx context.Context) (protocol.VerificationUpdate, error)
}

// ChannelDriver forwards the updates an external verifier sends over the
// turn channel.
type ChannelDriver struct {
	Source UpdateSource
}

func (d ChannelDriver) Drive(ctx context.Context, reason string) <-chan protocol.VerificationUpdate {
	out := make(chan protocol.VerificationUpdate, len(protocol.VerificationStates))
	go func() {
		defer close(out)
		for {
			u, err := d.Source.ReceiveVerificationUpdate(ctx)
			if err != nil {
				return
			}
			select {
			case out <- u:
			case <-ctx.Done():
				return
			}
			if u.State == protocol.VerificationEnded {
				return
			}
		}
	}()
	return out
}
