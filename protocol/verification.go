package protocol

// VerificationState is the progress of a dispute.
type VerificationState string

const (
	VerificationNone             VerificationState = "NONE"
	VerificationStarted          VerificationState = "STARTED"
	VerificationResultSubmitted  VerificationState = "RESULT_SUBMITTED"
	VerificationResultConfirmed  VerificationState = "RESULT_CONFIRMED"
	VerificationResultChallenged VerificationState = "RESULT_CHALLENGED"
	VerificationEnded            VerificationState = "ENDED"
)

// VerificationStates lists the states in the order a dispute goes through them.
var VerificationStates = []VerificationState{
	VerificationNone,
	VerificationStarted,
	VerificationResultSubmitted,
	VerificationResultConfirmed,
	VerificationResultChallenged,
	VerificationEnded,
}

// Index returns the position of s in VerificationStates, or -1.
func (s VerificationState) Index() int {
	for i, v := range VerificationStates {
		if v == s {
			return i
		}
	}
	return -1
}

// Next returns the state after s, staying on VerificationEnded.
func (s VerificationState) Next() VerificationState {
	i := s.Index()
	if i < 0 || i == len(VerificationStates)-1 {
		return VerificationEnded
	}
	return VerificationStates[i+1]
}

// Cause tells how a dispute was decided.
type Cause string

const (
	// CauseCaughtLie means the cheater sent something the protocol forbids.
	CauseCaughtLie Cause = "CAUGHT_LIE"
	// CauseTimeout means the cheater stopped answering.
	CauseTimeout Cause = "TIMEOUT"
)

// Verdict is the decision of the verifier.
type Verdict struct {
	Cheater int    `json:"cheater"`
	Cause   Cause  `json:"cause"`
	Reason  string `json:"reason"`
}
