package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"unoserver/internal/game"
)

// maxBotChain bounds the bot turns played inline after one local command.
const maxBotChain = 10000

func botName(seat int) string {
	return fmt.Sprintf("Bot %d", seat+1)
}

// followUp queues the next bot move when a bot holds the turn. It runs
// after every accepted task, inside the serialized section.
func (r *Room) followUp() {
	if r.synchronous {
		r.playBotsInline()
		return
	}
	p, ok := r.botTurn()
	if !ok {
		r.cancelBot()
		return
	}
	if r.botTimer != nil {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(r.botDelay, func() {
		err := r.do(context.Background(), false, func() error {
			if r.botTimer != t {
				return nil // cancelled after firing
			}
			r.botTimer = nil
			return r.botMove(p.ID)
		})
		if err != nil && !errors.Is(err, game.ErrRoomNotFound) {
			r.log.WithFields(logrus.Fields{"player": p.ID, "code": game.Code(err)}).Error("bot stalled")
		}
	})
	r.botTimer = t
}

func (r *Room) playBotsInline() {
	for i := 0; i < maxBotChain; i++ {
		p, ok := r.botTurn()
		if !ok {
			return
		}
		if err := r.botMove(p.ID); err != nil {
			r.log.WithFields(logrus.Fields{"player": p.ID, "code": game.Code(err)}).Error("bot stalled")
			return
		}
	}
}

func (r *Room) botTurn() (game.Player, bool) {
	if r.match.Phase() != game.PhasePlaying {
		return game.Player{}, false
	}
	p := r.match.Turn()
	return p, p.IsBot
}

// botMove plays for playerID if it still holds the turn. A move that went
// stale while queued is dropped. When the strategy's pick is rejected the
// bot draws instead, so the turn still moves on.
func (r *Room) botMove(playerID string) error {
	p, ok := r.botTurn()
	if !ok || p.ID != playerID {
		return nil
	}
	top, active := r.match.Top()
	a := r.strategy.Next(r.match.Hand(playerID), top, active)
	err := r.apply(playerID, a)
	if err == nil || a.Type == game.ActionDraw {
		return err
	}
	r.log.WithFields(logrus.Fields{"player": playerID, "code": game.Code(err)}).Warn("bot move rejected, drawing")
	return r.apply(playerID, game.Action{Type: game.ActionDraw})
}

func (r *Room) cancelBot() {
	if r.botTimer != nil {
		r.botTimer.Stop()
		r.botTimer = nil
	}
}
