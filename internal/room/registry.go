package room

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	mrand "math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"unoserver/internal/game"
	"unoserver/internal/storage"
)

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
	codeAttempts = 32
)

var errCodeSpace = errors.New("no free room code")

// Recorder stores finished games.
type Recorder interface {
	RecordResult(ctx context.Context, r storage.Result) error
}

// RegistryOptions configure a Registry.
type RegistryOptions struct {
	// Room is the template for every room. Its Rand and OnFinish are
	// replaced per room.
	Room Options
	// NewRand seeds each room. Nil uses a time seed.
	NewRand func() *mrand.Rand
	// RetainFinished is how long a finished room stays listed.
	RetainFinished time.Duration
	// IdleTimeout evicts rooms with no connected human for this long.
	IdleTimeout time.Duration
	Recorder    Recorder
	Logger      logrus.FieldLogger
}

// Registry owns the live rooms of a process.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	opts  RegistryOptions
	log   logrus.FieldLogger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts RegistryOptions) *Registry {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Room.Logger == nil {
		opts.Room.Logger = opts.Logger
	}
	return &Registry{
		rooms: make(map[string]*Room),
		opts:  opts,
		log:   opts.Logger,
	}
}

// Create opens a room and seats hostName as player 0.
func (g *Registry) Create(ctx context.Context, hostName string, sink Sink) (*Room, string, error) {
	r, err := g.open()
	if err != nil {
		return nil, "", err
	}
	playerID, err := r.Join(ctx, hostName, sink)
	if err != nil {
		g.Remove(r.ID)
		return nil, "", err
	}
	g.log.WithFields(logrus.Fields{"room": r.ID, "player": playerID}).Info("room created")
	return r, playerID, nil
}

func (g *Registry) open() (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < codeAttempts; i++ {
		code, err := generateCode()
		if err != nil {
			return nil, err
		}
		if _, taken := g.rooms[code]; taken {
			continue
		}
		opts := g.opts.Room
		opts.Rand = nil
		if g.opts.NewRand != nil {
			opts.Rand = g.opts.NewRand()
		}
		opts.OnFinish = g.record
		r := New(code, opts)
		g.rooms[code] = r
		return r, nil
	}
	return nil, errCodeSpace
}

// Join seats name in an existing lobby.
func (g *Registry) Join(ctx context.Context, roomID, name string, sink Sink) (*Room, string, error) {
	r, ok := g.Get(roomID)
	if !ok {
		return nil, "", game.ErrRoomNotFound
	}
	playerID, err := r.Join(ctx, name, sink)
	if err != nil {
		return nil, "", err
	}
	return r, playerID, nil
}

// Rejoin binds sink to a retained seat.
func (g *Registry) Rejoin(ctx context.Context, roomID, playerID, token string, sink Sink) (*Room, error) {
	r, ok := g.Get(roomID)
	if !ok {
		return nil, game.ErrRoomNotFound
	}
	if err := r.Rejoin(ctx, playerID, token, sink); err != nil {
		return nil, err
	}
	return r, nil
}

// Get looks a room up by its code. Codes are case-insensitive.
func (g *Registry) Get(roomID string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[normalize(roomID)]
	return r, ok
}

// List returns info for every live room, newest first.
func (g *Registry) List() []Info {
	g.mu.RLock()
	infos := make([]Info, 0, len(g.rooms))
	for _, r := range g.rooms {
		infos = append(infos, r.Info())
	}
	g.mu.RUnlock()
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos
}

// Remove stops a room and forgets it.
func (g *Registry) Remove(roomID string) {
	g.mu.Lock()
	r, ok := g.rooms[normalize(roomID)]
	delete(g.rooms, normalize(roomID))
	g.mu.Unlock()
	if ok {
		r.Stop()
	}
}

// CleanupLoop evicts stale rooms every interval until ctx is done.
func (g *Registry) CleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			g.cleanup(now)
		}
	}
}

func (g *Registry) cleanup(now time.Time) {
	var stale []*Room
	g.mu.Lock()
	for id, r := range g.rooms {
		info := r.Info()
		reason := ""
		switch {
		case !info.FinishedAt.IsZero() && now.Sub(info.FinishedAt) >= g.opts.RetainFinished:
			reason = "finished"
		case info.Connected == 0 && g.opts.IdleTimeout > 0 && now.Sub(info.LastActive) >= g.opts.IdleTimeout:
			reason = "idle"
		default:
			continue
		}
		g.log.WithFields(logrus.Fields{"room": id, "reason": reason}).Info("evicting room")
		delete(g.rooms, id)
		stale = append(stale, r)
	}
	g.mu.Unlock()
	for _, r := range stale {
		r.Stop()
	}
}

// Close stops every room.
func (g *Registry) Close() {
	g.mu.Lock()
	rooms := g.rooms
	g.rooms = make(map[string]*Room)
	g.mu.Unlock()
	for _, r := range rooms {
		r.Stop()
	}
}

func (g *Registry) record(s Summary) {
	if g.opts.Recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := g.opts.Recorder.RecordResult(ctx, storage.Result{
		RoomID:     s.RoomID,
		WinnerID:   s.WinnerID,
		WinnerName: s.WinnerName,
		Players:    s.Players,
		FinishedAt: s.FinishedAt,
	})
	if err != nil {
		g.log.WithError(err).WithField("room", s.RoomID).Error("record result")
	}
}

func normalize(roomID string) string {
	return strings.ToUpper(strings.TrimSpace(roomID))
}

func generateCode() (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
