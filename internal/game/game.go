package game

// Phase is where a match sits in its lifecycle.
type Phase string

const (
	PhaseLobby         Phase = "lobby"
	PhasePlaying       Phase = "playing"
	PhaseAwaitingColor Phase = "awaiting_color"
	PhaseGameOver      Phase = "game_over"
)

const (
	// HandSize is the number of cards dealt to each seat.
	HandSize = 7
	// MinPlayers is the number of seats needed to start.
	MinPlayers = 2
	// MaxPlayers caps the seats in one room.
	MaxPlayers = 10
)

// ActionType names a move.
type ActionType string

const (
	ActionStart       ActionType = "start_game"
	ActionPlay        ActionType = "play_card"
	ActionDraw        ActionType = "draw_card"
	ActionChooseColor ActionType = "choose_color"
)

// Action represents a move a seated player can make. CardID is set for
// plays; Color is the chosen colour for plays of a wild or for
// ActionChooseColor.
type Action struct {
	Type   ActionType
	CardID string
	Color  Color
}

// Player is one seat. The hand is owned by the match and never leaves it
// except through Private.
type Player struct {
	ID        string
	Name      string
	Hand      []Card
	IsBot     bool
	Connected bool
}

func (p *Player) find(cardID string) int {
	for i, c := range p.Hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}
