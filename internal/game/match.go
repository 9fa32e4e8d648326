package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

type pendingColor struct {
	playerID string
	cardID   string
	draw     int
}

// Match is the authoritative state of one room's game. It is not safe for
// concurrent use; the owning room serializes every call.
type Match struct {
	ID string

	rng         *rand.Rand
	deck        *Deck
	phase       Phase
	players     []*Player
	current     int
	direction   int
	activeColor Color
	pending     *pendingColor
	winner      string

	// touched lists the players whose hands changed during the last Apply.
	touched []string
}

// NewMatch creates a match in the lobby. A nil rng gets a time-seeded one.
func NewMatch(id string, rng *rand.Rand) *Match {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Match{
		ID:        id,
		rng:       rng,
		deck:      NewDeck(rng),
		phase:     PhaseLobby,
		direction: 1,
	}
}

// Seat appends a new player. Only allowed in the lobby.
func (m *Match) Seat(name string, bot bool) (Player, error) {
	if m.phase != PhaseLobby {
		return Player{}, ErrRoomAlreadyStarted
	}
	if len(m.players) >= MaxPlayers {
		return Player{}, ErrRoomFull
	}
	p := &Player{ID: uuid.NewString(), Name: name, IsBot: bot}
	m.players = append(m.players, p)
	return *p, nil
}

// Apply validates and executes one action for playerID. A rejected action
// leaves the match untouched.
func (m *Match) Apply(playerID string, a Action) error {
	m.touched = m.touched[:0]
	var err error
	switch a.Type {
	case ActionStart:
		err = m.start(playerID)
	case ActionPlay:
		err = m.play(playerID, a.CardID, a.Color)
	case ActionDraw:
		err = m.drawCard(playerID)
	case ActionChooseColor:
		err = m.chooseColor(playerID, a.Color)
	default:
		err = fmt.Errorf("unknown action type %q: %w", a.Type, ErrInvalidPhase)
	}
	if err != nil {
		m.touched = m.touched[:0]
	}
	return err
}

// Touched returns the ids of players whose hands changed in the last
// accepted Apply.
func (m *Match) Touched() []string {
	out := make([]string, len(m.touched))
	copy(out, m.touched)
	return out
}

func (m *Match) touch(playerID string) {
	for _, id := range m.touched {
		if id == playerID {
			return
		}
	}
	m.touched = append(m.touched, playerID)
}

func (m *Match) start(playerID string) error {
	if m.seat(playerID) < 0 {
		return ErrUnknownPlayer
	}
	if m.phase != PhaseLobby {
		return ErrRoomAlreadyStarted
	}
	if len(m.players) < MinPlayers {
		return ErrNotEnoughPlayers
	}

	m.deck.Build()
	for _, p := range m.players {
		p.Hand, _ = m.deck.Draw(HandSize)
		m.touch(p.ID)
	}
	top, err := m.deck.flip()
	if err != nil {
		return fmt.Errorf("seed discard: %w", err)
	}
	m.activeColor = top.Color
	m.current = 0
	m.direction = 1
	m.phase = PhasePlaying
	return nil
}

// turnOf checks that playerID holds the turn in the playing phase.
func (m *Match) turnOf(playerID string) (*Player, error) {
	if m.phase != PhasePlaying {
		return nil, ErrInvalidPhase
	}
	idx := m.seat(playerID)
	if idx < 0 {
		return nil, ErrUnknownPlayer
	}
	if idx != m.current {
		return nil, ErrNotYourTurn
	}
	return m.players[idx], nil
}

func (m *Match) play(playerID, cardID string, chosen Color) error {
	p, err := m.turnOf(playerID)
	if err != nil {
		return err
	}
	ci := p.find(cardID)
	if ci < 0 {
		return ErrUnknownCard
	}
	card := p.Hand[ci]
	top, _ := m.deck.Top()
	if !IsLegal(card, top, m.activeColor) {
		return ErrIllegalMove
	}
	if card.IsWild() && chosen != "" && !chosen.Playable() {
		return ErrInvalidColorChoice
	}

	p.Hand = append(p.Hand[:ci:ci], p.Hand[ci+1:]...)
	m.touch(p.ID)
	m.deck.Discard(card)

	if len(p.Hand) == 0 {
		m.phase = PhaseGameOver
		m.winner = p.ID
		return nil
	}
	m.resolve(card, chosen)
	return nil
}

func (m *Match) drawCard(playerID string) error {
	p, err := m.turnOf(playerID)
	if err != nil {
		return err
	}
	cards, err := m.deck.Draw(1)
	if len(cards) == 0 {
		return err
	}
	p.Hand = append(p.Hand, cards...)
	m.touch(p.ID)
	m.current = m.step(m.current)
	return nil
}

func (m *Match) chooseColor(playerID string, color Color) error {
	if m.phase != PhaseAwaitingColor || m.pending == nil {
		return ErrInvalidColorChoice
	}
	if m.pending.playerID != playerID {
		return ErrNotYourTurn
	}
	if !color.Playable() {
		return ErrInvalidColorChoice
	}
	draw := m.pending.draw
	m.pending = nil
	m.phase = PhasePlaying
	m.activeColor = color
	m.current = m.penalize(m.step(m.current), draw)
	return nil
}

func (m *Match) seat(playerID string) int {
	for i, p := range m.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// SetConnected flags a seat's connection state. Returns false for an
// unknown player.
func (m *Match) SetConnected(playerID string, connected bool) bool {
	i := m.seat(playerID)
	if i < 0 {
		return false
	}
	m.players[i].Connected = connected
	return true
}

// Phase returns the current phase.
func (m *Match) Phase() Phase { return m.phase }

// Turn returns the seat holding the turn (or owing a colour choice).
func (m *Match) Turn() Player {
	if len(m.players) == 0 {
		return Player{}
	}
	return m.players[m.current].withoutHand()
}

// Player looks up a seat by id. The returned copy has no hand.
func (m *Match) Player(playerID string) (Player, bool) {
	i := m.seat(playerID)
	if i < 0 {
		return Player{}, false
	}
	return m.players[i].withoutHand(), true
}

// Players returns every seat in turn order, without hands.
func (m *Match) Players() []Player {
	out := make([]Player, len(m.players))
	for i, p := range m.players {
		out[i] = p.withoutHand()
	}
	return out
}

// Hand returns a copy of playerID's hand.
func (m *Match) Hand(playerID string) []Card {
	i := m.seat(playerID)
	if i < 0 {
		return nil
	}
	return append([]Card(nil), m.players[i].Hand...)
}

// Top returns the discard top and the colour to match.
func (m *Match) Top() (Card, Color) {
	c, _ := m.deck.Top()
	return c, m.activeColor
}

// Winner returns the winning seat once the game is over.
func (m *Match) Winner() (Player, bool) {
	if m.winner == "" {
		return Player{}, false
	}
	return m.Player(m.winner)
}

func (p *Player) withoutHand() Player {
	cp := *p
	cp.Hand = nil
	return cp
}
