package protocol

import (
	"encoding/json"

	"unoserver/internal/game"
)

// Event is a message from a room to one or more connections.
type Event interface {
	Kind() Kind
}

// RoomJoined goes only to the connection that took the seat. Token
// authorizes a later rejoin_room and appears in no other event.
type RoomJoined struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Token    string `json:"token"`
}

// StateUpdate carries the public projection to every connection in a room.
type StateUpdate struct {
	game.PublicView
}

// HandUpdate carries one player's hand to that player only.
type HandUpdate struct {
	game.PrivateView
}

type Error struct {
	Message string `json:"message"`
}

func (RoomJoined) Kind() Kind  { return KindRoomJoined }
func (StateUpdate) Kind() Kind { return KindStateUpdate }
func (HandUpdate) Kind() Kind  { return KindHandUpdate }
func (Error) Kind() Kind       { return KindError }

// ErrorEvent builds the error event for a rejected command.
func ErrorEvent(err error) Error {
	return Error{Message: Code(err)}
}

// Code returns the wire code for err. Decode failures keep their detail.
func Code(err error) string {
	if isBadRequest(err) {
		return err.Error()
	}
	return game.Code(err)
}

// EncodeEvent frames an event.
func EncodeEvent(e Event) ([]byte, error) {
	p, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: e.Kind(), Payload: p})
}

// DecodeEvent parses a room frame. Clients and tests use it.
func DecodeEvent(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, badRequest("invalid envelope: %v", err)
	}
	var e Event
	var err error
	switch env.Type {
	case KindRoomJoined:
		var v RoomJoined
		err = json.Unmarshal(env.Payload, &v)
		e = v
	case KindStateUpdate:
		var v StateUpdate
		err = json.Unmarshal(env.Payload, &v)
		e = v
	case KindHandUpdate:
		var v HandUpdate
		err = json.Unmarshal(env.Payload, &v)
		e = v
	case KindError:
		var v Error
		err = json.Unmarshal(env.Payload, &v)
		e = v
	default:
		return nil, badRequest("unknown event %q", env.Type)
	}
	if err != nil {
		return nil, badRequest("invalid %s payload: %v", env.Type, err)
	}
	return e, nil
}
