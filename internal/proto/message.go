// Package proto defines the websocket wire protocol: one JSON envelope per
// message in either direction, with a type tag selecting the payload shape.
package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbound message types.
const (
	InboundCreateRoom       = "createRoom"
	InboundJoinRoom         = "joinRoom"
	InboundWatchRoom        = "watchRoom"
	InboundSetTopic         = "setTopic"
	InboundSetMode          = "setMode"
	InboundSelectSide       = "select_side"
	InboundChatMessage      = "chatMessage"
	InboundHoldIt           = "holdit"
	InboundObjection        = "objection"
	InboundSwitchSpeaker    = "switch_speaker"
	InboundChangePose       = "change_pose"
	InboundCrossExamination = "crossExamination"
	InboundGenerate         = "generate"
	InboundReplay           = "replayRoom"
)

// Outbound message types.
const (
	OutboundRoomCreated        = "roomCreated"
	OutboundRoomJoined         = "roomJoined"
	OutboundUpdateUUID         = "updateUUID"
	OutboundRequestTopic       = "requestTopic"
	OutboundTopicSet           = "topicSet"
	OutboundModeSet            = "modeSet"
	OutboundPlayerJoined       = "playerJoined"
	OutboundWaitingPlayer      = "waitingPlayer"
	OutboundSideSelected       = "sideSelected"
	OutboundShowChatBox        = "showChatBox"
	OutboundChatMessage        = "chatMessage"
	OutboundHoldItChatLog      = "holditChatLog"
	OutboundHoldItTriggered    = "holditTriggered"
	OutboundObjectionTriggered = "objectionTriggered"
	OutboundSpeakerSwitched    = "speakerSwitched"
	OutboundLoadPose           = "loadPose"
	OutboundCrossExamination   = "crossExamination"
	OutboundGeneratedText      = "generatedText"
	OutboundGenerationDone     = "generationComplete"
	OutboundBotJoined          = "botJoined"
	OutboundLoadingJudgement   = "loadingJudgement"
	OutboundJudgement          = "judgement"
	OutboundPlaybackComplete   = "playbackComplete"
	OutboundError              = "error"
)

// RoomRef addresses an existing room by name.
type RoomRef struct {
	Room string `json:"room"`
}

// CreateRoomData opens a new room.
type CreateRoomData struct {
	Room string `json:"room"`
	Name string `json:"name"`
}

// JoinRoomData takes the second seat of an existing room.
type JoinRoomData struct {
	Room string `json:"room"`
	Name string `json:"name"`
}

// TopicData sets the room topic.
type TopicData struct {
	Topic string `json:"topic"`
}

// ModeData sets the room interaction mode.
type ModeData struct {
	Mode string `json:"mode"`
}

// SelectSideData binds a side and avatar to the sender's seat.
type SelectSideData struct {
	Side      string `json:"side"`
	SpriteKey string `json:"spriteKey,omitempty"`
}

// ChatMessageData appends one line to the room's chat log.
type ChatMessageData struct {
	Message string `json:"message"`
}

// ObjectionData flags one prior chat line by its id.
type ObjectionData struct {
	MessageID int64 `json:"messageId"`
}

// ChangePoseData changes the sender's avatar animation.
type ChangePoseData struct {
	Animation string `json:"animation"`
}

// GenerateData requests an assisted-chat completion.
type GenerateData struct {
	Prompt string `json:"prompt"`
}

// ReplayData spectates a finished room's persisted history.
type ReplayData struct {
	RoomID int64 `json:"roomId"`
}

// Outbound is the envelope for messages sent to the client. RoomInfo carries
// the post-mutation room snapshot on room-scoped events.
type Outbound struct {
	Type     string `json:"type"`
	Room     string `json:"room,omitempty"`
	Data     any    `json:"data,omitempty"`
	RoomInfo any    `json:"roomInfo,omitempty"`
	Error    *Error `json:"error,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
