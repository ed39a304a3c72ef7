package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/courtlive/courtroom-server/internal/ai"
	"github.com/courtlive/courtroom-server/internal/store"
)

// defaultReplayDelay paces historical playback events.
const defaultReplayDelay = 5 * time.Second

// Hub is the single writer for all room state. Every mutation — a
// connection's direct action, a replay injection, an automated-opponent turn
// — arrives as a Command and is applied by one loop goroutine, so handlers
// never observe a room mid-mutation. Collaborator calls (store, text
// generation) that must not stall the loop run on side goroutines and feed
// their results back in as commands.
type Hub struct {
	commands chan *Command
	done     chan struct{}

	registry *Registry
	store    store.Store
	gen      ai.Generator
	log      zerolog.Logger

	// ReplayDelay is the fixed inter-event delay of historical playback.
	ReplayDelay time.Duration

	generating map[genKey]bool
	battles    map[string]*botBattle

	runCtx context.Context
}

type genKey struct {
	room   string
	userID int64
}

// NewHub creates a hub. gen may be nil when no text-generation collaborator
// is configured; generate actions then fail gracefully.
func NewHub(st store.Store, gen ai.Generator, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		commands:    make(chan *Command, 64),
		done:        make(chan struct{}),
		registry:    NewRegistry(),
		store:       st,
		gen:         gen,
		log:         *logger,
		ReplayDelay: defaultReplayDelay,
		generating:  make(map[genKey]bool),
		battles:     make(map[string]*botBattle),
	}
}

// Run processes commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.runCtx = ctx
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-h.commands:
			h.dispatch(ctx, cmd)
		}
	}
}

// RegisterClient starts forwarding a client's commands into the loop.
func (h *Hub) RegisterClient(c *Client) {
	go func() {
		for cmd := range c.Commands {
			cmd.Client = c
			h.submit(cmd)
		}
	}()
}

// UnregisterClient stops the client's command pump and evicts it from its
// room. Must be called exactly once, after the transport read loop exits.
func (h *Hub) UnregisterClient(c *Client) {
	close(c.Commands)
	h.submit(&Command{Kind: commandEvict, Client: c})
}

// Submit queues a command built outside a client pump (HTTP control
// surface, internal collaborators).
func (h *Hub) Submit(cmd *Command) {
	h.submit(cmd)
}

func (h *Hub) submit(cmd *Command) {
	select {
	case h.commands <- cmd:
	case <-h.done:
	}
}

// ListJoinable snapshots the lobby listing. Safe to call from any goroutine:
// it round-trips through the loop.
func (h *Hub) ListJoinable() []OpenRoom {
	reply := make(chan []OpenRoom, 1)
	h.submit(&Command{Kind: commandListJoinable, listReply: reply})
	select {
	case rooms := <-reply:
		return rooms
	case <-h.done:
		return nil
	}
}

func (h *Hub) dispatch(ctx context.Context, cmd *Command) {
	switch cmd.Kind {
	case CommandCreateRoom:
		h.handleCreateRoom(ctx, cmd)
	case CommandJoinRoom:
		h.handleJoinRoom(ctx, cmd)
	case CommandWatchRoom:
		h.handleWatchRoom(cmd)
	case CommandSetTopic:
		h.handleSetTopic(ctx, cmd)
	case CommandSetMode:
		h.handleSetMode(ctx, cmd)
	case CommandSelectSide:
		h.handleSelectSide(ctx, cmd)
	case CommandChatMessage:
		h.handleChatMessage(ctx, cmd)
	case CommandHoldIt:
		h.handleHoldIt(ctx, cmd)
	case CommandObjection:
		h.handleObjection(ctx, cmd)
	case CommandSwitchSpeaker:
		h.handleSwitchSpeaker(ctx, cmd)
	case CommandChangePose:
		h.handleChangePose(ctx, cmd)
	case CommandCrossExamination:
		h.handleCrossExamination(cmd)
	case CommandGenerate:
		h.handleGenerate(ctx, cmd)
	case CommandReplay:
		h.handleReplay(ctx, cmd)
	case CommandStartBotBattle:
		h.handleStartBotBattle(ctx, cmd)
	case CommandFeedBotBattle:
		h.handleFeedBotBattle(ctx, cmd)
	case CommandEndBotBattle:
		h.handleEndBotBattle(cmd)
	case commandInject:
		h.handleInject(cmd)
	case commandEvict:
		h.handleEvict(cmd)
	case commandDeleteRoom:
		h.handleDeleteRoom(cmd)
	case commandGenerationDone:
		h.handleGenerationDone(ctx, cmd)
	case commandGenerationFailed:
		h.handleGenerationFailed(cmd)
	case commandBotReply:
		h.handleBotReply(ctx, cmd)
	case commandJudgementReady:
		h.handleJudgementReady(cmd)
	case commandListJoinable:
		cmd.listReply <- h.registry.ListJoinable()
	default:
		h.log.Warn().Int("kind", int(cmd.Kind)).Msg("unsupported command kind")
	}
}

// sendError delivers a domain error to one caller.
func (h *Hub) sendError(c *Client, room, code, msg string) {
	if c == nil {
		return
	}
	c.send(&Event{Kind: EventError, Room: room, Error: coreError(code, msg)})
}

// ==== room lifecycle ====

func (h *Hub) handleCreateRoom(ctx context.Context, cmd *Command) {
	name := cmd.Room
	if name == "" || cmd.Name == "" {
		h.sendError(cmd.Client, name, ErrCodeBadRequest, "room name and display name required")
		return
	}

	if existing := h.registry.Lookup(name); existing != nil {
		// Idempotent for a connection already inside the room of that name.
		if _, ok := existing.clients[cmd.Client]; ok {
			cmd.Client.send(&Event{Kind: EventRoomCreated, Room: name, Data: name, RoomInfo: existing.snapshot()})
			return
		}
		h.sendError(cmd.Client, name, ErrCodeNameTaken, "room name already in use")
		return
	}

	user, err := h.store.CreateGuestUser(ctx, cmd.Name)
	if err != nil {
		h.log.Error().Err(err).Str("room", name).Msg("create user failed")
		h.sendError(cmd.Client, name, ErrCodePersistenceFailed, "could not create user")
		return
	}

	rec, err := h.store.CreateRoom(ctx, name)
	if err != nil {
		h.log.Error().Err(err).Str("room", name).Msg("create room failed")
		h.sendError(cmd.Client, name, ErrCodePersistenceFailed, "could not create room")
		return
	}

	if err := h.store.LinkUserToRoom(ctx, user.ID, rec.ID); err != nil {
		h.log.Error().Err(err).Str("room", name).Msg("link user to room failed")
		h.sendError(cmd.Client, name, ErrCodePersistenceFailed, "could not join room")
		return
	}

	cmd.Client.UserID = user.ID
	cmd.Client.Name = cmd.Name

	room := newRoom(name)
	room.ID = rec.ID
	room.addClient(cmd.Client)
	h.seatClient(room, cmd.Client)
	h.registry.Register(room)

	h.log.Info().Str("room", name).Int64("user_id", user.ID).Msg("room created")

	cmd.Client.send(&Event{Kind: EventUpdateUUID, Room: name, Data: user.ID})
	cmd.Client.send(&Event{Kind: EventRoomCreated, Room: name, Data: name, RoomInfo: room.snapshot()})
	cmd.Client.send(&Event{Kind: EventRequestTopic, Room: name})
}

func (h *Hub) handleJoinRoom(ctx context.Context, cmd *Command) {
	name := cmd.Room
	room := h.registry.Lookup(name)
	if room == nil || room.transient {
		h.sendError(cmd.Client, name, ErrCodeRoomNotFound, "room not found")
		return
	}
	if room.seatCount() >= 2 {
		h.sendError(cmd.Client, name, ErrCodeRoomFull, "room is full")
		return
	}

	user, err := h.store.CreateGuestUser(ctx, cmd.Name)
	if err != nil {
		h.log.Error().Err(err).Str("room", name).Msg("create user failed")
		h.sendError(cmd.Client, name, ErrCodePersistenceFailed, "could not create user")
		return
	}
	if err := h.store.LinkUserToRoom(ctx, user.ID, room.ID); err != nil {
		h.log.Error().Err(err).Str("room", name).Msg("link user to room failed")
		h.sendError(cmd.Client, name, ErrCodePersistenceFailed, "could not join room")
		return
	}

	cmd.Client.UserID = user.ID
	cmd.Client.Name = cmd.Name
	room.addClient(cmd.Client)
	h.seatClient(room, cmd.Client)

	h.log.Info().Str("room", name).Int64("user_id", user.ID).Msg("user joined room")

	cmd.Client.send(&Event{Kind: EventUpdateUUID, Room: name, Data: user.ID})
	cmd.Client.send(&Event{Kind: EventRoomJoined, Room: name, Data: cmd.Client.SpriteKey, RoomInfo: room.snapshot()})

	if room.seatCount() == 2 {
		room.broadcast(&Event{Kind: EventPlayerJoined, Room: name})
	}
}

func (h *Hub) handleWatchRoom(cmd *Command) {
	room := h.registry.Lookup(cmd.Room)
	if room == nil {
		h.sendError(cmd.Client, cmd.Room, ErrCodeRoomNotFound, "room not found")
		return
	}
	room.addClient(cmd.Client)
	cmd.Client.send(&Event{Kind: EventRoomJoined, Room: cmd.Room, RoomInfo: room.snapshot()})
}

func (h *Hub) handleEvict(cmd *Command) {
	room := h.registry.roomOf(cmd.Client)
	if room == nil {
		return
	}

	room.isActive = false
	room.broadcast(&Event{
		Kind:  EventError,
		Room:  room.Name,
		Error: coreError(ErrCodeUserDisconnected, cmd.Client.Name+" has disconnected"),
	})
	room.removeClient(cmd.Client)
	delete(h.generating, genKey{room: room.Name, userID: cmd.Client.UserID})

	if room.empty() {
		h.log.Info().Str("room", room.Name).Msg("room empty, deleting")
		h.endBattleState(room.Name)
		h.registry.Delete(room.Name)
	}
}

func (h *Hub) handleDeleteRoom(cmd *Command) {
	room := h.registry.Lookup(cmd.Room)
	if room == nil || !room.transient {
		return
	}
	room.broadcast(&Event{Kind: EventPlaybackComplete, Room: room.Name})
	h.registry.Delete(room.Name)
}

// ==== room metadata ====

func (h *Hub) handleSetTopic(ctx context.Context, cmd *Command) {
	room := h.registry.roomOf(cmd.Client)
	if room == nil {
		h.sendError(cmd.Client, "", ErrCodeNotInRoom, "join a room first")
		return
	}
	if !room.hasSeat(cmd.Client) {
		h.sendError(cmd.Client, room.Name, ErrCodeNotSeated, "spectators cannot set the topic")
		return
	}
	room.Topic = cmd.Text
	h.persistRoomMeta(ctx, room)
	room.broadcast(&Event{Kind: EventTopicSet, Room: room.Name, Data: cmd.Text})
}

func (h *Hub) handleSetMode(ctx context.Context, cmd *Command) {
	room := h.registry.roomOf(cmd.Client)
	if room == nil {
		h.sendError(cmd.Client, "", ErrCodeNotInRoom, "join a room first")
		return
	}
	if !room.hasSeat(cmd.Client) {
		h.sendError(cmd.Client, room.Name, ErrCodeNotSeated, "spectators cannot set the mode")
		return
	}
	room.Mode = cmd.Text
	h.persistRoomMeta(ctx, room)
	room.broadcast(&Event{Kind: EventModeSet, Room: room.Name, Data: cmd.Text})
}

// persistRoomMeta stores topic/mode best effort; metadata is broadcast even
// when the write fails because it is not part of the replayable action log.
func (h *Hub) persistRoomMeta(ctx context.Context, room *Room) {
	if room.transient {
		return
	}
	if err := h.store.UpdateRoomMeta(ctx, room.ID, room.Topic, room.Mode); err != nil {
		h.log.Warn().Err(err).Str("room", room.Name).Msg("update room meta failed")
	}
}

// ==== chat ====

func (h *Hub) handleChatMessage(ctx context.Context, cmd *Command) {
	room := h.registry.roomOf(cmd.Client)
	if room == nil {
		h.sendError(cmd.Client, "", ErrCodeNotInRoom, "join a room first")
		return
	}
	if !room.hasSeat(cmd.Client) {
		h.sendError(cmd.Client, room.Name, ErrCodeNotSeated, "spectators cannot chat")
		return
	}

	now := time.Now()
	id, err := h.store.AppendChatMessage(ctx, room.ID, cmd.Client.UserID, cmd.Text, now)
	if err != nil {
		// Dropped message: no in-memory mutation, no broadcast.
		h.log.Error().Err(err).Str("room", room.Name).Msg("append chat message failed")
		return
	}

	entry := ChatEntry{
		ID:        id,
		UserID:    cmd.Client.UserID,
		User:      cmd.Client.Name,
		Message:   cmd.Text,
		Timestamp: minuteStamp(now),
	}
	room.appendChat(entry, now)
	room.broadcast(&Event{Kind: EventChatMessage, Room: room.Name, Data: entry, RoomInfo: room.snapshot()})
}

// ==== pose / cues ====

func (h *Hub) handleChangePose(ctx context.Context, cmd *Command) {
	room := h.registry.roomOf(cmd.Client)
	if room == nil || !room.hasSeat(cmd.Client) {
		h.sendError(cmd.Client, "", ErrCodeNotSeated, "no seat in a room")
		return
	}

	if !h.persistAction(ctx, room, cmd.Client.UserID, store.ActionChangePose, jsonPayload{"animation": cmd.Text}) {
		return
	}

	room.broadcast(&Event{
		Kind: EventLoadPose,
		Room: room.Name,
		Data: PoseData{
			Side:         cmd.Client.Side,
			Animation:    cmd.Text,
			CharacterKey: cmd.Client.SpriteKey,
		},
		RoomInfo: room.snapshot(),
	})
}

func (h *Hub) handleCrossExamination(cmd *Command) {
	room := h.registry.roomOf(cmd.Client)
	if room == nil {
		h.sendError(cmd.Client, "", ErrCodeNotInRoom, "join a room first")
		return
	}
	room.broadcast(&Event{Kind: EventCrossExamination, Room: room.Name})
}

// persistAction writes one action-log record, treating a missing id as
// failure. Transient playback rooms skip the write and report success.
func (h *Hub) persistAction(ctx context.Context, room *Room, userID int64, kind store.ActionKind, payload jsonPayload) bool {
	if room.transient {
		return true
	}
	id, err := h.store.AppendUserAction(ctx, room.ID, userID, kind, payload.marshal())
	if err != nil || id == 0 {
		h.log.Error().Err(err).Str("room", room.Name).Str("action", string(kind)).Msg("append user action failed")
		return false
	}
	return true
}
