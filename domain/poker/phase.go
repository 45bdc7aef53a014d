package poker

// GamePhase is the stage a single hand is in.
type GamePhase string

const (
	Start        GamePhase = "START"
	PreFlop      GamePhase = "PREFLOP"
	Flop         GamePhase = "FLOP"
	Turn         GamePhase = "TURN"
	River        GamePhase = "RIVER"
	Showdown     GamePhase = "SHOWDOWN"
	End          GamePhase = "END"
	Verification GamePhase = "VERIFICATION"
)

var phaseOrder = []GamePhase{Start, PreFlop, Flop, Turn, River, Showdown, End}

func (p GamePhase) index() int {
	for i, q := range phaseOrder {
		if q == p {
			return i
		}
	}
	return -1
}

// Next returns the phase that follows p. End is terminal and the
// verification interrupt can only be left for End.
func (p GamePhase) Next() GamePhase {
	if p == Verification {
		return End
	}
	i := p.index()
	if i < 0 || i == len(phaseOrder)-1 {
		return End
	}
	return phaseOrder[i+1]
}

// CanMoveTo reports whether moving from p to q keeps phases monotonic.
func (p GamePhase) CanMoveTo(q GamePhase) bool {
	switch {
	case p == End:
		return false
	case q == Verification:
		return p != Verification
	case p == Verification:
		return q == End
	default:
		return q.index() > p.index()
	}
}

// Dealing reports whether reveals of community or private cards happen in p.
func (p GamePhase) Dealing() bool {
	switch p {
	case PreFlop, Flop, Turn, River:
		return true
	}
	return false
}
