package deck

import (
	"errors"
	rand "math/rand/v2"
)

// Size is the number of cards in a full deck.
const Size = 52

// ErrDeckEmpty is returned by Draw when every card has been drawn. The hand
// engine recovers from this internally; it is exported so callers and tests
// can distinguish exhaustion from other failures.
var ErrDeckEmpty = errors.New("deck: no cards remaining")

// Deck is a shuffled 52-card sequence with a draw cursor. Drawn cards stay in
// the sequence; the cursor marks how many have been handed out, so a Deck can
// be reshuffled or reset without reallocating.
type Deck struct {
	cards  []Card
	cursor int
	rng    *rand.Rand
}

// New creates a full deck, shuffled and ready to draw from. The RNG is
// required so shuffles are reproducible in tests.
func New(rng *rand.Rand) *Deck {
	if rng == nil {
		panic("deck: rng is required")
	}
	d := &Deck{
		cards: make([]Card, 0, Size),
		rng:   rng,
	}
	d.Reset()
	return d
}

// Reset rebuilds the canonical 52-card set in fixed generation order and
// shuffles it. The draw cursor returns to the top of the deck.
func (d *Deck) Reset() {
	d.cards = d.cards[:0]
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}
	d.Shuffle()
}

// Shuffle applies a single Fisher-Yates pass over the whole sequence and
// resets the draw cursor.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
	d.cursor = 0
}

// CanDraw returns whether at least n cards remain undrawn.
func (d *Deck) CanDraw(n int) bool {
	return d.cursor+n <= len(d.cards)
}

// Draw returns the next card and advances the cursor.
func (d *Deck) Draw() (Card, error) {
	if d.cursor >= len(d.cards) {
		return Card{}, ErrDeckEmpty
	}
	card := d.cards[d.cursor]
	d.cursor++
	return card, nil
}

// Remaining returns the number of undrawn cards.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.cursor
}
