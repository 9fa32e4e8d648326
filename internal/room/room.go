// Package room runs game rooms. Each room applies commands one at a time,
// either on its own worker goroutine or, for in-process play, on the
// caller's goroutine under a lock.
package room

import (
	"context"
	"crypto/subtle"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"unoserver/internal/bot"
	"unoserver/internal/game"
	"unoserver/internal/protocol"
)

// Sink receives the events for one connection. Send must not block.
type Sink interface {
	Send(e protocol.Event)
}

// Summary describes a finished game.
type Summary struct {
	RoomID     string
	WinnerID   string
	WinnerName string
	Players    []string
	FinishedAt time.Time
}

// Options configure a room.
type Options struct {
	// BotDelay is how long a bot waits before its move is queued.
	BotDelay time.Duration
	// Strategy picks bot moves. Defaults to bot.FirstLegal.
	Strategy bot.Strategy
	// Rand drives shuffles and bot colour picks. Defaults to a time seed.
	Rand     *rand.Rand
	Logger   logrus.FieldLogger
	OnFinish func(Summary)
}

// Info is a snapshot of a room readable without going through its queue.
type Info struct {
	ID         string     `json:"id"`
	Phase      game.Phase `json:"phase"`
	Players    int        `json:"players"`
	Connected  int        `json:"connected"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastActive time.Time  `json:"lastActive"`
	FinishedAt time.Time  `json:"finishedAt,omitzero"`
}

type task struct {
	fn    func() error
	human bool
	resp  chan error
}

// Room owns one match and the connections bound to it.
type Room struct {
	ID string

	log      logrus.FieldLogger
	match    *game.Match
	sinks    map[string]Sink   // playerID -> connection
	tokens   map[string]string // playerID -> rejoin secret
	strategy bot.Strategy
	botDelay time.Duration
	botTimer *time.Timer
	onFinish func(Summary)
	finished bool

	synchronous bool
	mu          sync.Mutex // serializes tasks in synchronous mode
	inbox       chan task
	done        chan struct{}
	stopOnce    sync.Once

	snapMu sync.RWMutex
	info   Info
	view   game.PublicView
}

func newRoom(id string, opts Options, synchronous bool) *Room {
	if opts.Strategy == nil {
		opts.Strategy = bot.FirstLegal{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	now := time.Now()
	r := &Room{
		ID:          id,
		log:         opts.Logger.WithField("room", id),
		match:       game.NewMatch(id, opts.Rand),
		sinks:       make(map[string]Sink),
		tokens:      make(map[string]string),
		strategy:    opts.Strategy,
		botDelay:    opts.BotDelay,
		onFinish:    opts.OnFinish,
		synchronous: synchronous,
		inbox:       make(chan task, 64),
		done:        make(chan struct{}),
		info:        Info{ID: id, Phase: game.PhaseLobby, CreatedAt: now, LastActive: now},
	}
	r.view = r.match.Public()
	return r
}

// New starts a room with its own worker goroutine. Stop releases it.
func New(id string, opts Options) *Room {
	r := newRoom(id, opts, false)
	go r.run()
	return r
}

// NewLocal creates a room that runs every command on the caller's
// goroutine. Bot turns that follow a command are played before the call
// returns.
func NewLocal(id string, opts Options) *Room {
	return newRoom(id, opts, true)
}

func (r *Room) run() {
	for {
		select {
		case t := <-r.inbox:
			t.resp <- r.exec(t)
		case <-r.done:
			r.cancelBot()
			r.log.Debug("room worker stopped")
			return
		}
	}
}

// Stop shuts the room down and cancels pending bot moves. Commands sent
// afterwards fail with game.ErrRoomNotFound.
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		if r.synchronous {
			r.mu.Lock()
			r.cancelBot()
			r.mu.Unlock()
		}
	})
}

func (r *Room) stopped() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// do runs fn as one serialized command.
func (r *Room) do(ctx context.Context, human bool, fn func() error) error {
	t := task{fn: fn, human: human, resp: make(chan error, 1)}
	if r.synchronous {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.stopped() {
			return game.ErrRoomNotFound
		}
		return r.exec(t)
	}

	select {
	case r.inbox <- t:
	case <-r.done:
		return game.ErrRoomNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-t.resp:
		return err
	case <-r.done:
		return game.ErrRoomNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Room) exec(t task) error {
	err := t.fn()
	if err == nil {
		r.followUp()
	}
	r.snapshot(t.human)
	return err
}

func (r *Room) snapshot(human bool) {
	view := r.match.Public()
	connected := len(r.sinks)
	r.snapMu.Lock()
	defer r.snapMu.Unlock()
	r.view = view
	r.info.Phase = view.Phase
	r.info.Players = len(view.Players)
	r.info.Connected = connected
	if human {
		r.info.LastActive = time.Now()
	}
}

// Info returns the latest snapshot.
func (r *Room) Info() Info {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	return r.info
}

// View returns the latest public projection.
func (r *Room) View() game.PublicView {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	return r.view
}

// Join seats a new human, binds sink to the seat and announces it.
func (r *Room) Join(ctx context.Context, name string, sink Sink) (string, error) {
	var playerID string
	err := r.do(ctx, true, func() error {
		p, err := r.match.Seat(name, false)
		if err != nil {
			return err
		}
		playerID = p.ID
		r.tokens[p.ID] = uuid.NewString()
		r.bind(p.ID, sink)
		r.log.WithFields(logrus.Fields{"player": p.ID, "name": name}).Info("player joined")
		r.broadcast()
		return nil
	})
	return playerID, err
}

// Rejoin binds sink to an existing seat, replacing any earlier connection.
// token must be the one sent with the seat's RoomJoined event.
func (r *Room) Rejoin(ctx context.Context, playerID, token string, sink Sink) error {
	return r.do(ctx, true, func() error {
		want, ok := r.tokens[playerID]
		if !ok || subtle.ConstantTimeCompare([]byte(want), []byte(token)) != 1 {
			r.log.WithField("player", playerID).Warn("rejoin refused")
			return game.ErrUnknownPlayer
		}
		if old, ok := r.sinks[playerID]; ok && old != sink {
			old.Send(protocol.ErrorEvent(game.ErrUnknownPlayer))
		}
		r.bind(playerID, sink)
		r.log.WithField("player", playerID).Info("player reconnected")
		r.broadcast()
		if r.match.Phase() != game.PhaseLobby {
			r.sendHand(playerID)
		}
		return nil
	})
}

func (r *Room) bind(playerID string, sink Sink) {
	r.sinks[playerID] = sink
	r.match.SetConnected(playerID, true)
	sink.Send(protocol.RoomJoined{RoomID: r.ID, PlayerID: playerID, Token: r.tokens[playerID]})
}

// Leave unbinds sink from playerID if it is still the bound connection.
// The seat and hand stay for a later Rejoin.
func (r *Room) Leave(ctx context.Context, playerID string, sink Sink) error {
	return r.do(ctx, true, func() error {
		if r.sinks[playerID] != sink {
			return nil
		}
		delete(r.sinks, playerID)
		r.match.SetConnected(playerID, false)
		r.log.WithField("player", playerID).Info("player disconnected")
		r.broadcast()
		return nil
	})
}

// AddBot seats a computer player on behalf of a seated player.
func (r *Room) AddBot(ctx context.Context, requester, name string) (string, error) {
	return r.addBot(ctx, requester, nil, name)
}

// AddBotFrom is AddBot for a connection. It fails with
// game.ErrUnknownPlayer unless sink is still bound to requester.
func (r *Room) AddBotFrom(ctx context.Context, requester string, sink Sink, name string) (string, error) {
	return r.addBot(ctx, requester, sink, name)
}

func (r *Room) addBot(ctx context.Context, requester string, sink Sink, name string) (string, error) {
	var botID string
	err := r.do(ctx, true, func() error {
		if _, ok := r.match.Player(requester); !ok {
			return game.ErrUnknownPlayer
		}
		if sink != nil && r.sinks[requester] != sink {
			return game.ErrUnknownPlayer
		}
		if name == "" {
			name = botName(len(r.match.Players()))
		}
		p, err := r.match.Seat(name, true)
		if err != nil {
			return err
		}
		botID = p.ID
		r.log.WithFields(logrus.Fields{"player": p.ID, "name": name}).Info("bot seated")
		r.broadcast()
		return nil
	})
	return botID, err
}

// Submit applies one action for playerID. A rejected action leaves the
// room unchanged and produces no events.
func (r *Room) Submit(ctx context.Context, playerID string, a game.Action) error {
	return r.do(ctx, true, func() error {
		return r.apply(playerID, a)
	})
}

// SubmitFrom is Submit for a connection. A connection displaced by a
// later Rejoin can no longer act for the seat.
func (r *Room) SubmitFrom(ctx context.Context, playerID string, sink Sink, a game.Action) error {
	return r.do(ctx, true, func() error {
		if r.sinks[playerID] != sink {
			return game.ErrUnknownPlayer
		}
		return r.apply(playerID, a)
	})
}

func (r *Room) apply(playerID string, a game.Action) error {
	entry := r.log.WithFields(logrus.Fields{"player": playerID, "action": a.Type})
	if err := r.match.Apply(playerID, a); err != nil {
		entry.WithField("code", game.Code(err)).Debug("action rejected")
		return err
	}
	entry.Debug("action accepted")
	if a.Type == game.ActionStart {
		r.log.WithField("players", len(r.match.Players())).Info("game started")
	}
	r.broadcast()
	for _, id := range r.match.Touched() {
		r.sendHand(id)
	}
	r.checkFinished()
	return nil
}

func (r *Room) broadcast() {
	e := protocol.StateUpdate{PublicView: r.match.Public()}
	for _, s := range r.sinks {
		s.Send(e)
	}
}

func (r *Room) sendHand(playerID string) {
	s, ok := r.sinks[playerID]
	if !ok {
		return
	}
	v, ok := r.match.Private(playerID)
	if !ok {
		return
	}
	s.Send(protocol.HandUpdate{PrivateView: v})
}

func (r *Room) checkFinished() {
	if r.finished || r.match.Phase() != game.PhaseGameOver {
		return
	}
	r.finished = true
	r.cancelBot()
	now := time.Now()
	r.snapMu.Lock()
	r.info.FinishedAt = now
	r.snapMu.Unlock()

	sum := Summary{RoomID: r.ID, FinishedAt: now}
	if w, ok := r.match.Winner(); ok {
		sum.WinnerID = w.ID
		sum.WinnerName = w.Name
	}
	for _, p := range r.match.Players() {
		sum.Players = append(sum.Players, p.Name)
	}
	r.log.WithFields(logrus.Fields{"winner": sum.WinnerID, "name": sum.WinnerName}).Info("game over")
	if r.onFinish != nil {
		go r.onFinish(sum)
	}
}
