package game

import "errors"

var (
	ErrNotStarted   = errors.New("game not started")
	ErrNotYourTurn  = errors.New("not your turn")
	ErrGameOver     = errors.New("game is over")
	ErrVerification = errors.New("game is under verification")
)

// ProtocolViolation is a message of the opponent that breaks the protocol.
// It is never tolerated: the engine answers by opening a dispute.
type ProtocolViolation struct {
	Reason string
	Err    error
}

func (v *ProtocolViolation) Error() string {
	if v.Err == nil {
		return v.Reason
	}
	return v.Reason + ": " + v.Err.Error()
}

func (v *ProtocolViolation) Unwrap() error {
	return v.Err
}

func violation(reason string, err error) error {
	return &ProtocolViolation{Reason: reason, Err: err}
}
