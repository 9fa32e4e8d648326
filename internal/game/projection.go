package game

// PublicPlayer is what every viewer may know about a seat.
type PublicPlayer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CardCount int    `json:"cardCount"`
	IsBot     bool   `json:"isBot"`
	Connected bool   `json:"connected"`
}

// PublicView is the room state every connection receives. It never
// carries hand contents or draw pile order.
type PublicView struct {
	RoomID             string         `json:"roomId"`
	Phase              Phase          `json:"phase"`
	Players            []PublicPlayer `json:"players"`
	CurrentPlayerIndex int            `json:"currentPlayerIndex"`
	CurrentPlayerID    string         `json:"currentPlayerId,omitempty"`
	Direction          int            `json:"direction"`
	ActiveColor        Color          `json:"activeColor,omitempty"`
	TopDiscard         *Card          `json:"topDiscard,omitempty"`
	DrawPileCount      int            `json:"drawPileCount"`
	AwaitingColorFrom  string         `json:"awaitingColorFrom,omitempty"`
	WinnerID           string         `json:"winnerId,omitempty"`
}

// PrivateView is one player's own hand.
type PrivateView struct {
	PlayerID string `json:"playerId"`
	Hand     []Card `json:"hand"`
}

// Public projects the state shared with every viewer.
func (m *Match) Public() PublicView {
	v := PublicView{
		RoomID:             m.ID,
		Phase:              m.phase,
		Players:            make([]PublicPlayer, len(m.players)),
		CurrentPlayerIndex: m.current,
		Direction:          m.direction,
		DrawPileCount:      m.deck.DrawCount(),
		WinnerID:           m.winner,
	}
	for i, p := range m.players {
		v.Players[i] = PublicPlayer{
			ID:        p.ID,
			Name:      p.Name,
			CardCount: len(p.Hand),
			IsBot:     p.IsBot,
			Connected: p.Connected,
		}
	}
	if m.phase == PhaseLobby {
		return v
	}
	if len(m.players) > 0 && m.phase != PhaseGameOver {
		v.CurrentPlayerID = m.players[m.current].ID
	}
	v.ActiveColor = m.activeColor
	if top, ok := m.deck.Top(); ok {
		v.TopDiscard = &top
	}
	if m.pending != nil {
		v.AwaitingColorFrom = m.pending.playerID
	}
	return v
}

// Private projects playerID's own hand. ok is false for an unknown seat.
func (m *Match) Private(playerID string) (v PrivateView, ok bool) {
	i := m.seat(playerID)
	if i < 0 {
		return PrivateView{}, false
	}
	hand := make([]Card, len(m.players[i].Hand))
	copy(hand, m.players[i].Hand)
	return PrivateView{PlayerID: playerID, Hand: hand}, true
}
