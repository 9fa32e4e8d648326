package game

import "fmt"

// Color is a card colour. Black only appears on wild cards.
type Color string

const (
	Red    Color = "red"
	Blue   Color = "blue"
	Green  Color = "green"
	Yellow Color = "yellow"
	Black  Color = "black"
)

// Palette is the set of colours a player may choose after a wild.
var Palette = [...]Color{Red, Blue, Green, Yellow}

// Playable reports whether c is one of the four palette colours.
func (c Color) Playable() bool {
	for _, p := range Palette {
		if c == p {
			return true
		}
	}
	return false
}

// Value is a card face: a digit or an action.
type Value string

const (
	Skip    Value = "skip"
	Reverse Value = "reverse"
	Draw2   Value = "draw2"
	Wild    Value = "wild"
	Wild4   Value = "wild4"
)

var numbers = [...]Value{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}

// Card is immutable once dealt.
type Card struct {
	ID    string `json:"id"`
	Color Color  `json:"color"`
	Value Value  `json:"value"`
}

func (c Card) String() string {
	return fmt.Sprintf("%s %s", c.Color, c.Value)
}

// IsWild reports whether the card is black.
func (c Card) IsWild() bool {
	return c.Color == Black
}

// drawPenalty is the number of cards the next player takes.
func (c Card) drawPenalty() int {
	switch c.Value {
	case Draw2:
		return 2
	case Wild4:
		return 4
	}
	return 0
}

// IsLegal reports whether card may be played onto top while active is the
// colour to match.
func IsLegal(card, top Card, active Color) bool {
	if card.Color == Black {
		return true
	}
	if card.Color == active {
		return true
	}
	return card.Value == top.Value
}
