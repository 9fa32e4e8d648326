// Package bot decides moves for computer-controlled seats.
package bot

import "unoserver/internal/game"

// Strategy picks the next action for a bot holding hand, given the discard
// top and the colour to match. It must return a legal play or a draw.
type Strategy interface {
	Name() string
	Next(hand []game.Card, top game.Card, active game.Color) game.Action
}

// FirstLegal plays the first legal card in hand order, else draws. Wild
// colours are left to the engine.
type FirstLegal struct{}

func (FirstLegal) Name() string { return "first-legal" }

func (FirstLegal) Next(hand []game.Card, top game.Card, active game.Color) game.Action {
	for _, c := range hand {
		if game.IsLegal(c, top, active) {
			return game.Action{Type: game.ActionPlay, CardID: c.ID}
		}
	}
	return game.Action{Type: game.ActionDraw}
}

// SaveWilds plays coloured cards before wilds and draws only when nothing
// is legal.
type SaveWilds struct{}

func (SaveWilds) Name() string { return "save-wilds" }

func (SaveWilds) Next(hand []game.Card, top game.Card, active game.Color) game.Action {
	wild := ""
	for _, c := range hand {
		if !game.IsLegal(c, top, active) {
			continue
		}
		if !c.IsWild() {
			return game.Action{Type: game.ActionPlay, CardID: c.ID}
		}
		if wild == "" {
			wild = c.ID
		}
	}
	if wild != "" {
		return game.Action{Type: game.ActionPlay, CardID: wild}
	}
	return game.Action{Type: game.ActionDraw}
}
