package protocol

import (
	"encoding/json"
	"strings"

	"unoserver/internal/game"
)

// Command is a decoded client message.
type Command interface {
	Kind() Kind
	validate() error
}

// RoomCommand targets a room the connection is already bound to.
type RoomCommand interface {
	Command
	Room() string
}

// GameCommand is a RoomCommand that maps onto an engine action.
type GameCommand interface {
	RoomCommand
	Action() game.Action
}

type CreateRoom struct {
	PlayerName string `json:"playerName"`
}

type JoinRoom struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

// RejoinRoom binds a new connection to a retained seat. Token is the
// secret handed out in the seat's room_joined event.
type RejoinRoom struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Token    string `json:"token"`
}

// AddBot seats a computer player while the room is in the lobby.
type AddBot struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name,omitempty"`
}

type StartGame struct {
	RoomID string `json:"roomId"`
}

type PlayCard struct {
	RoomID        string     `json:"roomId"`
	CardID        string     `json:"cardId"`
	SelectedColor game.Color `json:"selectedColor,omitempty"`
}

type DrawCard struct {
	RoomID string `json:"roomId"`
}

type ChooseColor struct {
	RoomID string     `json:"roomId"`
	Color  game.Color `json:"color"`
}

func (CreateRoom) Kind() Kind  { return KindCreateRoom }
func (JoinRoom) Kind() Kind    { return KindJoinRoom }
func (RejoinRoom) Kind() Kind  { return KindRejoinRoom }
func (AddBot) Kind() Kind      { return KindAddBot }
func (StartGame) Kind() Kind   { return KindStartGame }
func (PlayCard) Kind() Kind    { return KindPlayCard }
func (DrawCard) Kind() Kind    { return KindDrawCard }
func (ChooseColor) Kind() Kind { return KindChooseColor }

func (c AddBot) Room() string      { return c.RoomID }
func (c StartGame) Room() string   { return c.RoomID }
func (c PlayCard) Room() string    { return c.RoomID }
func (c DrawCard) Room() string    { return c.RoomID }
func (c ChooseColor) Room() string { return c.RoomID }

func (c StartGame) Action() game.Action {
	return game.Action{Type: game.ActionStart}
}

func (c PlayCard) Action() game.Action {
	return game.Action{Type: game.ActionPlay, CardID: c.CardID, Color: c.SelectedColor}
}

func (c DrawCard) Action() game.Action {
	return game.Action{Type: game.ActionDraw}
}

func (c ChooseColor) Action() game.Action {
	return game.Action{Type: game.ActionChooseColor, Color: c.Color}
}

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return badRequest("%s required", field)
	}
	return nil
}

func (c CreateRoom) validate() error { return required("playerName", c.PlayerName) }

func (c JoinRoom) validate() error {
	if err := required("roomId", c.RoomID); err != nil {
		return err
	}
	return required("playerName", c.PlayerName)
}

func (c RejoinRoom) validate() error {
	if err := required("roomId", c.RoomID); err != nil {
		return err
	}
	if err := required("playerId", c.PlayerID); err != nil {
		return err
	}
	return required("token", c.Token)
}

func (c AddBot) validate() error    { return required("roomId", c.RoomID) }
func (c StartGame) validate() error { return required("roomId", c.RoomID) }
func (c DrawCard) validate() error  { return required("roomId", c.RoomID) }

func (c PlayCard) validate() error {
	if err := required("roomId", c.RoomID); err != nil {
		return err
	}
	return required("cardId", c.CardID)
}

func (c ChooseColor) validate() error {
	if err := required("roomId", c.RoomID); err != nil {
		return err
	}
	return required("color", string(c.Color))
}

// DecodeCommand parses one client frame.
func DecodeCommand(data []byte) (Command, error) {
	var env Envelope
	if err := strictUnmarshal(data, &env); err != nil {
		return nil, badRequest("invalid envelope: %v", err)
	}
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return nil, badRequest("missing payload for %q", env.Type)
	}
	switch env.Type {
	case KindCreateRoom:
		return decode[CreateRoom](env.Payload)
	case KindJoinRoom:
		return decode[JoinRoom](env.Payload)
	case KindRejoinRoom:
		return decode[RejoinRoom](env.Payload)
	case KindAddBot:
		return decode[AddBot](env.Payload)
	case KindStartGame:
		return decode[StartGame](env.Payload)
	case KindPlayCard:
		return decode[PlayCard](env.Payload)
	case KindDrawCard:
		return decode[DrawCard](env.Payload)
	case KindChooseColor:
		return decode[ChooseColor](env.Payload)
	}
	return nil, badRequest("unknown command %q", env.Type)
}

func decode[T Command](payload json.RawMessage) (Command, error) {
	var c T
	if err := strictUnmarshal(payload, &c); err != nil {
		return nil, badRequest("invalid %s payload: %v", c.Kind(), err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// EncodeCommand frames a command. Clients and tests use it.
func EncodeCommand(c Command) ([]byte, error) {
	p, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: c.Kind(), Payload: p})
}
