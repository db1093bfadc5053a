package game

import (
	"fmt"

	"github.com/cardroomlabs/holdem/internal/deck"
)

// Status is a player's standing in the current hand.
type Status int

const (
	// StatusActive players can act and bet.
	StatusActive Status = iota
	// StatusFolded players are out of the hand until the next deal.
	StatusFolded
	// StatusAllIn players have committed their whole stack; they stay
	// eligible for the pot but cannot act again.
	StatusAllIn
	// StatusSittingOut players are at the table but not dealt in.
	StatusSittingOut
)

// String returns the string representation of a status
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusFolded:
		return "folded"
	case StatusAllIn:
		return "all-in"
	case StatusSittingOut:
		return "sitting-out"
	default:
		return "unknown"
	}
}

// Player is one occupied seat: identity plus the mutable economic state of
// the hand. The engine owns players exclusively; collaborators read them
// through the engine's accessors.
type Player struct {
	ID   int
	Name string
	Seat int

	stack     int
	bet       int
	holeCards []deck.Card
	status    Status
}

// NewPlayer creates a player seated at seat with the given starting stack.
func NewPlayer(id int, name string, stack, seat int) *Player {
	p := &Player{
		ID:     id,
		Name:   name,
		Seat:   seat,
		status: StatusActive,
	}
	p.SetStack(stack)
	return p
}

// Stack returns the player's chip stack.
func (p *Player) Stack() int { return p.stack }

// SetStack sets the chip stack, clamping to zero. Negative stacks are a
// defect prevented here rather than surfaced as an error.
func (p *Player) SetStack(stack int) {
	if stack < 0 {
		stack = 0
	}
	p.stack = stack
}

// Bet returns the player's bet in the current betting round.
func (p *Player) Bet() int { return p.bet }

// Status returns the player's current status.
func (p *Player) Status() Status { return p.status }

// SetStatus overrides the player's status. Used for sitting in/out between
// hands; mid-hand transitions happen through MakeBet and Fold.
func (p *Player) SetStatus(s Status) { p.status = s }

// HoleCards returns the player's hole cards (nil until dealt).
func (p *Player) HoleCards() []deck.Card { return p.holeCards }

// SetHoleCards deals the player exactly two cards.
func (p *Player) SetHoleCards(cards []deck.Card) error {
	if len(cards) != 2 {
		return fmt.Errorf("player must have exactly 2 hole cards, got %d", len(cards))
	}
	p.holeCards = []deck.Card{cards[0], cards[1]}
	return nil
}

// CanAct reports whether the player may take a betting action.
func (p *Player) CanAct() bool {
	return p.status == StatusActive && p.stack > 0
}

// InHand reports whether the player is still eligible for the pot.
func (p *Player) InHand() bool {
	return p.status == StatusActive || p.status == StatusAllIn
}

// MakeBet moves min(amount, stack) from the stack into the player's
// current-round bet and returns the amount actually moved; the caller is
// responsible for adding it to the pot. Exhausting the stack to exactly zero
// transitions the player to all-in. Non-active players bet nothing.
func (p *Player) MakeBet(amount int) int {
	if p.status != StatusActive {
		return 0
	}

	actual := min(amount, p.stack)
	p.stack -= actual
	p.bet += actual

	if p.stack == 0 && actual > 0 {
		p.status = StatusAllIn
	}
	return actual
}

// Fold takes the player out of the hand. Irreversible until the next deal.
func (p *Player) Fold() {
	p.status = StatusFolded
}

// ResetBet zeroes the current-round bet at the start of a new street. The
// stack is untouched; the chips already moved to the pot.
func (p *Player) ResetBet() {
	p.bet = 0
}

// PrepareForNewHand clears the bet and hole cards and restores Active status.
// Players who sat out stay out, and a player with no chips left is sat out
// until they reload.
func (p *Player) PrepareForNewHand() {
	p.bet = 0
	p.holeCards = nil

	if p.status != StatusSittingOut {
		if p.stack > 0 {
			p.status = StatusActive
		} else {
			p.status = StatusSittingOut
		}
	}
}

// String returns a debug representation of the player.
func (p *Player) String() string {
	return fmt.Sprintf("Player %d (%s): stack=%d bet=%d status=%s seat=%d",
		p.ID, p.Name, p.stack, p.bet, p.status, p.Seat)
}
