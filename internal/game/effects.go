package game

// resolve applies the played card's effect and moves the turn on. The card
// has already been moved to the discard pile.
func (m *Match) resolve(card Card, chosen Color) {
	next := m.step(m.current)

	skip := card.Value == Skip
	if card.Value == Reverse {
		if len(m.players) > 2 {
			m.direction = -m.direction
			next = m.step(m.current)
		} else {
			skip = true
		}
	}
	if skip {
		next = m.step(next)
	}

	color := card.Color
	if card.IsWild() {
		switch {
		case chosen.Playable():
			color = chosen
		case m.players[m.current].IsBot:
			color = Palette[m.rng.Intn(len(Palette))]
		default:
			// Turn and active colour hold until chooseColor.
			m.phase = PhaseAwaitingColor
			m.pending = &pendingColor{
				playerID: m.players[m.current].ID,
				cardID:   card.ID,
				draw:     card.drawPenalty(),
			}
			return
		}
	}
	m.activeColor = color
	m.current = m.penalize(next, card.drawPenalty())
}

// penalize makes the seat at next draw n cards and returns the seat after
// it. With n == 0 it returns next unchanged. A short deck means a short
// draw, never an error.
func (m *Match) penalize(next, n int) int {
	if n == 0 {
		return next
	}
	victim := m.players[next]
	cards, _ := m.deck.Draw(n)
	if len(cards) > 0 {
		victim.Hand = append(victim.Hand, cards...)
		m.touch(victim.ID)
	}
	return m.step(next)
}

// step returns the seat after i in the current direction.
func (m *Match) step(i int) int {
	n := len(m.players)
	return ((i+m.direction)%n + n) % n
}
