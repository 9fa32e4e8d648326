package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"

	"unoserver/internal/protocol"
	"unoserver/internal/room"
)

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
	leaveTimeout = 5 * time.Second
)

// wsSink queues encoded events for one connection's writer goroutine.
type wsSink struct {
	send chan []byte
	done chan struct{}
	log  logrus.FieldLogger
}

func newSink(log logrus.FieldLogger) *wsSink {
	return &wsSink{
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
		log:  log,
	}
}

// Send never blocks. Events for a closed or saturated connection are dropped.
func (c *wsSink) Send(e protocol.Event) {
	data, err := protocol.EncodeEvent(e)
	if err != nil {
		c.log.WithError(err).Error("encode event")
		return
	}
	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.log.WithField("event", e.Kind()).Warn("send buffer full, dropping event")
	}
}

func (c *wsSink) writeLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case msg := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// binding is the room and seat a connection speaks for.
type binding struct {
	room     *room.Room
	playerID string
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{OriginPatterns: s.origins}
	if len(s.origins) == 0 {
		opts.InsecureSkipVerify = true
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		s.log.WithError(err).WithField("remote", r.RemoteAddr).Warn("websocket accept")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()
	log := s.log.WithField("remote", r.RemoteAddr)
	sink := newSink(log)
	defer close(sink.done)
	go sink.writeLoop(ctx, conn)

	var b binding
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		cmd, err := protocol.DecodeCommand(data)
		if err != nil {
			log.WithError(err).Debug("bad command")
			sink.Send(protocol.ErrorEvent(err))
			continue
		}
		if err := s.handleCommand(ctx, &b, sink, cmd); err != nil {
			sink.Send(protocol.ErrorEvent(err))
		}
		if b.room != nil {
			log = log.WithFields(logrus.Fields{"room": b.room.ID, "player": b.playerID})
		}
	}

	if b.room != nil {
		lctx, cancel := context.WithTimeout(context.Background(), leaveTimeout)
		defer cancel()
		if err := b.room.Leave(lctx, b.playerID, sink); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			log.WithError(err).Debug("leave")
		}
	}
	log.Info("connection closed")
}

// handleCommand routes one command. A returned error goes back to this
// connection only.
func (s *Server) handleCommand(ctx context.Context, b *binding, sink *wsSink, cmd protocol.Command) error {
	switch c := cmd.(type) {
	case protocol.CreateRoom:
		if b.room != nil {
			return protocol.ErrAlreadyBound
		}
		rm, playerID, err := s.rooms.Create(ctx, c.PlayerName, sink)
		if err != nil {
			return err
		}
		*b = binding{room: rm, playerID: playerID}
		return nil

	case protocol.JoinRoom:
		if b.room != nil {
			return protocol.ErrAlreadyBound
		}
		rm, playerID, err := s.rooms.Join(ctx, c.RoomID, c.PlayerName, sink)
		if err != nil {
			return err
		}
		*b = binding{room: rm, playerID: playerID}
		return nil

	case protocol.RejoinRoom:
		if b.room != nil {
			return protocol.ErrAlreadyBound
		}
		rm, err := s.rooms.Rejoin(ctx, c.RoomID, c.PlayerID, c.Token, sink)
		if err != nil {
			return err
		}
		*b = binding{room: rm, playerID: c.PlayerID}
		return nil
	}

	rc, ok := cmd.(protocol.RoomCommand)
	if !ok {
		return nil
	}
	if b.room == nil {
		return protocol.ErrNotBound
	}
	if !strings.EqualFold(strings.TrimSpace(rc.Room()), b.room.ID) {
		s.log.WithFields(logrus.Fields{"room": b.room.ID, "player": b.playerID, "target": rc.Room()}).
			Debug("dropping command for another room")
		return nil
	}

	switch c := cmd.(type) {
	case protocol.AddBot:
		_, err := b.room.AddBotFrom(ctx, b.playerID, sink, c.Name)
		return err
	case protocol.GameCommand:
		return b.room.SubmitFrom(ctx, b.playerID, sink, c.Action())
	}
	return nil
}
