// Package local plays a room in-process. Calls go straight to the room and
// every bot turn that follows is played before the call returns.
package local

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"unoserver/internal/game"
	"unoserver/internal/protocol"
	"unoserver/internal/room"
)

// Game is one human seat in a local room.
type Game struct {
	room     *room.Room
	playerID string
	inbox    *inbox
}

// inbox buffers the events addressed to the human.
type inbox struct {
	mu     sync.Mutex
	events []protocol.Event
	hand   []game.Card
}

func (b *inbox) Send(e protocol.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if h, ok := e.(protocol.HandUpdate); ok {
		b.hand = h.Hand
	}
	b.events = append(b.events, e)
}

// New seats name and the given number of bots in a fresh local room.
func New(name string, bots int, opts room.Options) (*Game, error) {
	ctx := context.Background()
	r := room.NewLocal("local-"+uuid.NewString()[:8], opts)
	g := &Game{room: r, inbox: &inbox{}}
	id, err := r.Join(ctx, name, g.inbox)
	if err != nil {
		r.Stop()
		return nil, err
	}
	g.playerID = id
	for i := 0; i < bots; i++ {
		if _, err := r.AddBot(ctx, id, ""); err != nil {
			r.Stop()
			return nil, err
		}
	}
	return g, nil
}

// PlayerID is the human's seat id.
func (g *Game) PlayerID() string { return g.playerID }

// RoomID is the id of the underlying room.
func (g *Game) RoomID() string { return g.room.ID }

// Do runs a game command for the human. The command's room id is ignored.
func (g *Game) Do(cmd protocol.GameCommand) error {
	return g.room.Submit(context.Background(), g.playerID, cmd.Action())
}

func (g *Game) Start() error {
	return g.Do(protocol.StartGame{RoomID: g.room.ID})
}

// Play plays cardID. color is used only for wild cards and may be empty.
func (g *Game) Play(cardID string, color game.Color) error {
	return g.Do(protocol.PlayCard{RoomID: g.room.ID, CardID: cardID, SelectedColor: color})
}

func (g *Game) Draw() error {
	return g.Do(protocol.DrawCard{RoomID: g.room.ID})
}

func (g *Game) ChooseColor(color game.Color) error {
	return g.Do(protocol.ChooseColor{RoomID: g.room.ID, Color: color})
}

// View returns the public state after the last call.
func (g *Game) View() game.PublicView { return g.room.View() }

// Hand returns the human's latest hand.
func (g *Game) Hand() []game.Card {
	g.inbox.mu.Lock()
	defer g.inbox.mu.Unlock()
	return append([]game.Card(nil), g.inbox.hand...)
}

// Events returns and clears the events received since the last call.
func (g *Game) Events() []protocol.Event {
	g.inbox.mu.Lock()
	defer g.inbox.mu.Unlock()
	events := g.inbox.events
	g.inbox.events = nil
	return events
}

// Close stops the room.
func (g *Game) Close() { g.room.Stop() }
