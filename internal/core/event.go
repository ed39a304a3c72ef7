package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRoomCreated acknowledges a createRoom to its caller.
	EventRoomCreated EventKind = iota
	// EventRoomJoined acknowledges a joinRoom to its caller.
	EventRoomJoined
	// EventUpdateUUID delivers the caller's store-issued user id.
	EventUpdateUUID
	// EventRequestTopic asks the room creator to pick a topic.
	EventRequestTopic
	// EventTopicSet announces the room topic.
	EventTopicSet
	// EventModeSet announces the room mode.
	EventModeSet
	// EventPlayerJoined announces the second seat filling.
	EventPlayerJoined
	// EventWaitingPlayer tells a lone participant to wait for a partner.
	EventWaitingPlayer
	// EventSideSelected announces a side/avatar pick.
	EventSideSelected
	// EventShowChatBox tells clients to restore normal chat input.
	EventShowChatBox
	// EventChatMessage carries one appended chat line.
	EventChatMessage
	// EventHoldItChatLog privately delivers the evidence-selection slice.
	EventHoldItChatLog
	// EventHoldItTriggered announces a hold-it interruption room-wide.
	EventHoldItTriggered
	// EventObjectionTriggered announces an objection and its evidence line.
	EventObjectionTriggered
	// EventSpeakerSwitched announces a speaker/listener exchange.
	EventSpeakerSwitched
	// EventLoadPose announces an avatar pose change.
	EventLoadPose
	// EventCrossExamination announces the cross-examination cue.
	EventCrossExamination
	// EventGeneratedText privately streams a partial assistant turn.
	EventGeneratedText
	// EventGenerationComplete privately delivers the final AI chat box log.
	EventGenerationComplete
	// EventBotJoined announces the automated opponent taking a seat.
	EventBotJoined
	// EventLoadingJudgement announces that judging has started.
	EventLoadingJudgement
	// EventJudgement delivers the automated-opponent verdict.
	EventJudgement
	// EventPlaybackComplete marks the end of a historical replay.
	EventPlaybackComplete
	// EventError notifies about a domain error or a disconnect notice.
	EventError
)

// Event is sent to clients to describe what happened in the system.
// RoomInfo, when set, is the snapshot taken right after the mutation the
// event describes.
type Event struct {
	Kind     EventKind
	Room     string
	Data     any
	RoomInfo *RoomInfo
	Error    *CoreError
}

// UserInfo is one participant entry of a room snapshot.
type UserInfo struct {
	UserID    int64  `json:"userId"`
	Name      string `json:"name"`
	SpriteKey string `json:"spriteKey"`
	Side      Side   `json:"side"`
	IsSpeaker bool   `json:"isSpeaker"`
}

// RoomInfo is the room snapshot appended to room-scoped events.
type RoomInfo struct {
	Name        string     `json:"name"`
	Users       []UserInfo `json:"users"`
	Speaker     string     `json:"speaker"`
	SpeakerSide Side       `json:"speakerSide"`
	ChatInfo    ChatInfo   `json:"chatInfo"`
	AudioURL    string     `json:"audioUrl"`
	EffectURL   string     `json:"effectUrl"`
}

// SideSelectedData announces a side pick.
type SideSelectedData struct {
	UserName  string `json:"userName"`
	Side      Side   `json:"side"`
	SpriteKey string `json:"spriteKey"`
}

// CallerData names the participant who triggered an interruption.
type CallerData struct {
	UserID   int64  `json:"userId"`
	UserName string `json:"userName"`
}

// ObjectionData carries the flagged evidence line room-wide.
type ObjectionData struct {
	UserID   int64      `json:"userId"`
	UserName string     `json:"userName"`
	Message  *ChatEntry `json:"message"`
}

// SpeakerSwitchedData announces the new speaker.
type SpeakerSwitchedData struct {
	UserName string `json:"userName"`
	Side     Side   `json:"side"`
}

// PoseData announces an avatar animation change.
type PoseData struct {
	Side         Side   `json:"side"`
	Animation    string `json:"animation"`
	CharacterKey string `json:"characterKey"`
}

// GeneratedTextData streams the accumulated assistant turn so far.
type GeneratedTextData struct {
	Message   ChatEntry `json:"message"`
	MessageID int64     `json:"messageId"`
}

// GenerationCompleteData delivers the final AI chat box log.
type GenerationCompleteData struct {
	ChatLog []ChatEntry `json:"chatLog"`
}

// SpeakerScore is one parsed judgement block.
type SpeakerScore struct {
	Speaker     string `json:"speaker"`
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

// JudgementData is the automated-opponent verdict.
type JudgementData struct {
	Winner      string         `json:"winner"`
	Score       int            `json:"score"`
	Explanation string         `json:"explanation"`
	Scores      []SpeakerScore `json:"scores"`
}
