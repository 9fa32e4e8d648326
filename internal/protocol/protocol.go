// Package protocol defines the messages exchanged between participants and
// rooms. Every message travels in an Envelope; the set of commands and
// events is closed and anything that does not parse is rejected.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Kind tags an Envelope.
type Kind string

// Commands, client to room.
const (
	KindCreateRoom  Kind = "create_room"
	KindJoinRoom    Kind = "join_room"
	KindRejoinRoom  Kind = "rejoin_room"
	KindAddBot      Kind = "add_bot"
	KindStartGame   Kind = "start_game"
	KindPlayCard    Kind = "play_card"
	KindDrawCard    Kind = "draw_card"
	KindChooseColor Kind = "choose_color"
)

// Events, room to client.
const (
	KindRoomJoined  Kind = "room_joined"
	KindStateUpdate Kind = "state_update"
	KindHandUpdate  Kind = "hand_update"
	KindError       Kind = "error"
)

// ErrBadRequest wraps every decode failure.
var ErrBadRequest = errors.New("BadRequest")

// Binding errors for commands that do not fit the connection's state.
var (
	ErrAlreadyBound = fmt.Errorf("%w: connection already bound to a room", ErrBadRequest)
	ErrNotBound     = fmt.Errorf("%w: connection not bound to a room", ErrBadRequest)
)

// Envelope is the JSON frame for every message.
type Envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// strictUnmarshal decodes exactly one JSON value with no unknown fields.
func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("trailing data")
	}
	return nil
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

func isBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest)
}
