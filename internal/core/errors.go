package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeRoomNotFound       = "room_not_found"
	ErrCodeRoomFull           = "room_full"
	ErrCodeNameTaken          = "name_taken"
	ErrCodeNotInRoom          = "not_in_room"
	ErrCodeNotSeated          = "not_seated"
	ErrCodeNotListener        = "not_listener"
	ErrCodeBadRequest         = "bad_request"
	ErrCodeMessageNotFound    = "message_not_found"
	ErrCodePersistenceFailed  = "persistence_failed"
	ErrCodeGenerationInFlight = "generation_in_flight"
	ErrCodeGenerationFailed   = "generation_failed"
	ErrCodeBotBattleState     = "bot_battle_state"
	ErrCodeUserDisconnected   = "user_disconnected"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
	ErrNotInRoom    = errors.New("not in room")
	ErrBadRequest   = errors.New("bad request")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
