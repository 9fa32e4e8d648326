package game

import (
	"math/rand"

	"github.com/google/uuid"
)

// DeckSize is the number of cards in a standard deck.
const DeckSize = 108

// Deck owns a room's draw pile and discard pile. Hands live on the players.
type Deck struct {
	rng     *rand.Rand
	draw    []Card // next card is draw[0]
	discard []Card // top is the last element
}

// NewDeck returns an empty deck. Call Build before drawing.
func NewDeck(rng *rand.Rand) *Deck {
	return &Deck{rng: rng}
}

// Build replaces both piles with a freshly shuffled standard deck.
func (d *Deck) Build() {
	d.draw = Shuffle(d.rng, standardCards())
	d.discard = nil
}

func standardCards() []Card {
	cards := make([]Card, 0, DeckSize)
	add := func(c Color, v Value) {
		cards = append(cards, Card{ID: uuid.NewString(), Color: c, Value: v})
	}
	for _, c := range Palette {
		add(c, numbers[0])
		for _, v := range numbers[1:] {
			add(c, v)
			add(c, v)
		}
		for _, v := range []Value{Skip, Reverse, Draw2} {
			add(c, v)
			add(c, v)
		}
	}
	for i := 0; i < 4; i++ {
		add(Black, Wild)
		add(Black, Wild4)
	}
	return cards
}

// Shuffle returns a uniformly permuted copy of cards.
func Shuffle(rng *rand.Rand, cards []Card) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Draw takes up to n cards from the draw pile, recycling the discard pile
// when it runs dry. If fewer than n cards could be found it returns what it
// has together with ErrDeckExhausted.
func (d *Deck) Draw(n int) ([]Card, error) {
	out := make([]Card, 0, n)
	for len(out) < n {
		if len(d.draw) == 0 {
			d.Recycle()
		}
		if len(d.draw) == 0 {
			return out, ErrDeckExhausted
		}
		out = append(out, d.draw[0])
		d.draw = d.draw[1:]
	}
	return out, nil
}

// Recycle shuffles everything under the top discard back into the draw
// pile. It does nothing while the draw pile still has cards or the discard
// pile has one card or fewer.
func (d *Deck) Recycle() {
	if len(d.draw) > 0 || len(d.discard) <= 1 {
		return
	}
	top := d.discard[len(d.discard)-1]
	d.draw = Shuffle(d.rng, d.discard[:len(d.discard)-1])
	d.discard = []Card{top}
}

// flip draws the first non-wild card to seed the discard pile. Wilds met on
// the way go to the bottom of the draw pile.
func (d *Deck) flip() (Card, error) {
	for range d.draw {
		c := d.draw[0]
		d.draw = d.draw[1:]
		if !c.IsWild() {
			d.discard = append(d.discard, c)
			return c, nil
		}
		d.draw = append(d.draw, c)
	}
	return Card{}, ErrDeckExhausted
}

// Discard puts c on top of the discard pile.
func (d *Deck) Discard(c Card) {
	d.discard = append(d.discard, c)
}

// Top returns the top discard. ok is false when the pile is empty.
func (d *Deck) Top() (c Card, ok bool) {
	if len(d.discard) == 0 {
		return Card{}, false
	}
	return d.discard[len(d.discard)-1], true
}

// DrawCount is the number of cards left in the draw pile.
func (d *Deck) DrawCount() int { return len(d.draw) }

// DiscardCount is the number of cards in the discard pile.
func (d *Deck) DiscardCount() int { return len(d.discard) }
