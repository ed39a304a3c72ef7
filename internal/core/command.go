package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandCreateRoom registers a new room with the caller seated first.
	CommandCreateRoom CommandKind = iota
	// CommandJoinRoom seats the caller in an existing room.
	CommandJoinRoom
	// CommandWatchRoom attaches the caller as a spectator without a seat.
	CommandWatchRoom
	// CommandSetTopic sets the room topic.
	CommandSetTopic
	// CommandSetMode sets the room mode (text/speech).
	CommandSetMode
	// CommandSelectSide binds a side and avatar to the caller's seat.
	CommandSelectSide
	// CommandChatMessage appends a line to the room's chat log.
	CommandChatMessage
	// CommandHoldIt starts the interruption sub-protocol.
	CommandHoldIt
	// CommandObjection flags one prior chat line after a hold-it.
	CommandObjection
	// CommandSwitchSpeaker exchanges speaker and listener.
	CommandSwitchSpeaker
	// CommandChangePose changes the caller's avatar animation.
	CommandChangePose
	// CommandCrossExamination broadcasts the cross-examination cue.
	CommandCrossExamination
	// CommandGenerate requests an assisted-chat completion stream.
	CommandGenerate
	// CommandReplay spectates a finished room's persisted history.
	CommandReplay
	// CommandStartBotBattle seats the automated opponent in a room.
	CommandStartBotBattle
	// CommandFeedBotBattle injects one operator-side line and requests the
	// opponent's reply.
	CommandFeedBotBattle
	// CommandEndBotBattle stops the battle and requests a judgement.
	CommandEndBotBattle

	// commandInject rebroadcasts one already-decided action into a live
	// room. This is the only write path for the replay engine and the
	// automated opponent.
	commandInject
	// commandEvict removes a disconnected client from its room.
	commandEvict
	// commandDeleteRoom tears down a transient room after playback.
	commandDeleteRoom
	// commandGenerationDone commits a finished generation stream.
	commandGenerationDone
	// commandGenerationFailed clears an aborted generation stream.
	commandGenerationFailed
	// commandBotReply appends the automated opponent's generated turn.
	commandBotReply
	// commandJudgementReady broadcasts a parsed verdict.
	commandJudgementReady
	// commandListJoinable answers a lobby listing request.
	commandListJoinable
)

// Command represents an action requested by a client or an internal
// collaborator. Fields beyond Kind and Client are set per kind.
type Command struct {
	Kind   CommandKind
	Client *Client

	Room      string // room name
	Name      string // display name for create/join
	Text      string // chat line, generate prompt, topic, mode, animation
	Side      Side
	SpriteKey string
	MessageID int64 // objection evidence reference
	RoomID    int64 // historical replay target

	Inject  *InjectedAction
	Gen     *generationResult
	Verdict *JudgementData

	// Reply, when non-nil, receives the outcome of a control-surface
	// command (bot battle start/feed/end). nil means success.
	Reply chan error

	listReply chan []OpenRoom
}

// InjectedAction is one already-decided event fed through the live-echo
// path: its identifiers were assigned before injection, so the handler only
// mutates in-memory state and rebroadcasts.
type InjectedAction struct {
	Kind      string // "message" or a store.ActionKind value
	Message   *ChatEntry
	UserID    int64
	UserName  string
	Side      Side
	Text      string // pose animation payload
	MessageID int64  // objection evidence reference
	Last      bool   // final item of a historical playback
}

// generationResult carries a finished or failed stream back into the loop.
type generationResult struct {
	requester *Client
	boxID     int64
	messageID int64
	text      string
	err       error
}
