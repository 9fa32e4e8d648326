package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unoserver/internal/game"
)

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		raw  string
		want Command
	}{
		{`{"type":"create_room","payload":{"playerName":"alice"}}`, CreateRoom{PlayerName: "alice"}},
		{`{"type":"join_room","payload":{"roomId":"ABC123","playerName":"bob"}}`, JoinRoom{RoomID: "ABC123", PlayerName: "bob"}},
		{`{"type":"rejoin_room","payload":{"roomId":"ABC123","playerId":"p1","token":"t1"}}`, RejoinRoom{RoomID: "ABC123", PlayerID: "p1", Token: "t1"}},
		{`{"type":"add_bot","payload":{"roomId":"ABC123"}}`, AddBot{RoomID: "ABC123"}},
		{`{"type":"start_game","payload":{"roomId":"ABC123"}}`, StartGame{RoomID: "ABC123"}},
		{`{"type":"play_card","payload":{"roomId":"ABC123","cardId":"c1"}}`, PlayCard{RoomID: "ABC123", CardID: "c1"}},
		{`{"type":"play_card","payload":{"roomId":"ABC123","cardId":"c1","selectedColor":"blue"}}`, PlayCard{RoomID: "ABC123", CardID: "c1", SelectedColor: game.Blue}},
		{`{"type":"draw_card","payload":{"roomId":"ABC123"}}`, DrawCard{RoomID: "ABC123"}},
		{`{"type":"choose_color","payload":{"roomId":"ABC123","color":"green"}}`, ChooseColor{RoomID: "ABC123", Color: game.Green}},
	}
	for _, tt := range tests {
		t.Run(string(tt.want.Kind()), func(t *testing.T) {
			got, err := DecodeCommand([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeCommandRejects(t *testing.T) {
	tests := map[string]string{
		"not json":          `hello`,
		"unknown type":      `{"type":"shuffle","payload":{}}`,
		"missing payload":   `{"type":"draw_card"}`,
		"null payload":      `{"type":"draw_card","payload":null}`,
		"string payload":    `{"type":"draw_card","payload":"{\"roomId\":\"A\"}"}`,
		"unknown field":     `{"type":"draw_card","payload":{"roomId":"A","cards":3}}`,
		"envelope extra":    `{"type":"draw_card","payload":{"roomId":"A"},"x":1}`,
		"missing room":      `{"type":"draw_card","payload":{}}`,
		"blank name":        `{"type":"create_room","payload":{"playerName":"  "}}`,
		"missing card":      `{"type":"play_card","payload":{"roomId":"A"}}`,
		"missing colour":    `{"type":"choose_color","payload":{"roomId":"A"}}`,
		"wrong field type":  `{"type":"play_card","payload":{"roomId":"A","cardId":7}}`,
		"trailing garbage":  `{"type":"draw_card","payload":{"roomId":"A"}} {}`,
		"missing player id": `{"type":"rejoin_room","payload":{"roomId":"A","token":"t"}}`,
		"missing token":     `{"type":"rejoin_room","payload":{"roomId":"A","playerId":"p1"}}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCommand([]byte(raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrBadRequest)
		})
	}
}

func TestGameCommandActions(t *testing.T) {
	var cmd GameCommand = PlayCard{RoomID: "R", CardID: "c", SelectedColor: game.Red}
	assert.Equal(t, "R", cmd.Room())
	assert.Equal(t, game.Action{Type: game.ActionPlay, CardID: "c", Color: game.Red}, cmd.Action())

	cmd = ChooseColor{RoomID: "R", Color: game.Blue}
	assert.Equal(t, game.Action{Type: game.ActionChooseColor, Color: game.Blue}, cmd.Action())

	cmd = DrawCard{RoomID: "R"}
	assert.Equal(t, game.ActionDraw, cmd.Action().Type)

	cmd = StartGame{RoomID: "R"}
	assert.Equal(t, game.ActionStart, cmd.Action().Type)
}

func TestEncodeCommandDecodes(t *testing.T) {
	data, err := EncodeCommand(PlayCard{RoomID: "R", CardID: "c"})
	require.NoError(t, err)

	got, err := DecodeCommand(data)
	require.NoError(t, err)
	assert.Equal(t, PlayCard{RoomID: "R", CardID: "c"}, got)
}

func TestEventFraming(t *testing.T) {
	view := game.PublicView{RoomID: "R", Phase: game.PhasePlaying, DrawPileCount: 79}
	data, err := EncodeEvent(StateUpdate{PublicView: view})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"state_update"`)
	assert.Contains(t, string(data), `"drawPileCount":79`)

	e, err := DecodeEvent(data)
	require.NoError(t, err)
	su, ok := e.(StateUpdate)
	require.True(t, ok)
	assert.Equal(t, view, su.PublicView)
}

func TestErrorEventCodes(t *testing.T) {
	assert.Equal(t, Error{Message: "NotYourTurn"}, ErrorEvent(game.ErrNotYourTurn))
	assert.Equal(t, "RoomNotFound", ErrorEvent(errors.Join(errors.New("lookup"), game.ErrRoomNotFound)).Message)
	assert.Equal(t, "Internal", ErrorEvent(errors.New("boom")).Message)

	_, err := DecodeCommand([]byte(`{"type":"nope","payload":{}}`))
	assert.Contains(t, ErrorEvent(err).Message, "BadRequest")
}
