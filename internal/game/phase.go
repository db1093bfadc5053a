package game

// Phase represents where a hand is in its lifecycle. The machine is linear:
// WaitingToStart -> PreFlop -> Flop -> Turn -> River -> Showdown ->
// HandComplete, and back to WaitingToStart when the next hand begins. Folding
// down to a single contender jumps any street straight to Showdown.
type Phase int

const (
	WaitingToStart Phase = iota
	PreFlop
	Flop
	Turn
	River
	Showdown
	HandComplete
)

// String returns the string representation of a phase
func (p Phase) String() string {
	switch p {
	case WaitingToStart:
		return "waiting"
	case PreFlop:
		return "preflop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	case Showdown:
		return "showdown"
	case HandComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// IsBetting reports whether actions are accepted during this phase.
func (p Phase) IsBetting() bool {
	return p >= PreFlop && p <= River
}

// Action represents a player action
type Action int

const (
	Fold Action = iota
	Check
	Call
	Bet
	Raise
	AllIn
)

// String returns the string representation of an action
func (a Action) String() string {
	switch a {
	case Fold:
		return "fold"
	case Check:
		return "check"
	case Call:
		return "call"
	case Bet:
		return "bet"
	case Raise:
		return "raise"
	case AllIn:
		return "allin"
	default:
		return "unknown"
	}
}

// ParseAction converts a wire-format action name to an Action.
func ParseAction(s string) (Action, bool) {
	switch s {
	case "fold":
		return Fold, true
	case "check":
		return Check, true
	case "call":
		return Call, true
	case "bet":
		return Bet, true
	case "raise":
		return Raise, true
	case "allin", "all-in":
		return AllIn, true
	default:
		return Fold, false
	}
}
