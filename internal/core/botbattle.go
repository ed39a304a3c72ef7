package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/courtlive/courtroom-server/internal/ai"
	"github.com/courtlive/courtroom-server/internal/store"
)

// botBattle tracks one room where the second seat is driven by the text
// generator instead of a socket. Feed and judgement requests arrive over the
// HTTP control surface and are answered through Command.Reply.
type botBattle struct {
	bot     *Client
	judging bool
}

// replyOutcome answers a control-surface command. nil means accepted.
func replyOutcome(cmd *Command, err error) {
	if cmd.Reply != nil {
		cmd.Reply <- err
	}
}

// handleStartBotBattle seats the automated opponent opposite the single
// seated participant and marks the room as a battle.
func (h *Hub) handleStartBotBattle(ctx context.Context, cmd *Command) {
	room := h.registry.Lookup(cmd.Room)
	if room == nil || room.transient {
		replyOutcome(cmd, coreError(ErrCodeRoomNotFound, "room not found"))
		return
	}
	if room.isBotBattle {
		replyOutcome(cmd, coreError(ErrCodeBotBattleState, "battle already running"))
		return
	}
	if room.seatCount() != 1 {
		replyOutcome(cmd, coreError(ErrCodeBadRequest, "room needs exactly one seated participant"))
		return
	}
	if h.gen == nil {
		replyOutcome(cmd, coreError(ErrCodeGenerationFailed, "text generation not configured"))
		return
	}

	botUser, err := h.store.FindOrCreateBot(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("resolve bot identity failed")
		replyOutcome(cmd, coreError(ErrCodePersistenceFailed, "could not resolve opponent"))
		return
	}
	if err := h.store.LinkUserToRoom(ctx, botUser.ID, room.ID); err != nil {
		h.log.Error().Err(err).Str("room", room.Name).Msg("link bot to room failed")
		replyOutcome(cmd, coreError(ErrCodePersistenceFailed, "could not seat opponent"))
		return
	}

	operator := room.speaker
	side := SideProsecution
	if operator != nil {
		side = operator.Side.Opposite()
	}

	bot := newSyntheticClient(uuid.NewString(), botUser.ID, botUser.Username, side)
	room.addClient(bot)
	h.seatClient(room, bot)
	room.isBotBattle = true
	h.battles[room.Name] = &botBattle{bot: bot}

	h.log.Info().Str("room", room.Name).Int64("bot_id", botUser.ID).Msg("bot battle started")

	room.broadcast(&Event{
		Kind:     EventBotJoined,
		Room:     room.Name,
		Data:     CallerData{UserID: botUser.ID, UserName: botUser.Username},
		RoomInfo: room.snapshot(),
	})
	room.broadcast(&Event{Kind: EventPlayerJoined, Room: room.Name})
	replyOutcome(cmd, nil)
}

// handleFeedBotBattle records one operator-side line through the normal chat
// path, hands the floor to the opponent and requests its reply off-loop.
func (h *Hub) handleFeedBotBattle(ctx context.Context, cmd *Command) {
	room := h.registry.Lookup(cmd.Room)
	battle := h.battles[cmd.Room]
	if room == nil || battle == nil {
		replyOutcome(cmd, coreError(ErrCodeBotBattleState, "no battle running in this room"))
		return
	}
	if battle.judging {
		replyOutcome(cmd, coreError(ErrCodeBotBattleState, "judgement in progress"))
		return
	}
	operator := room.otherSeat(battle.bot)
	if operator == nil {
		replyOutcome(cmd, coreError(ErrCodeBadRequest, "operator seat is vacant"))
		return
	}

	now := time.Now()
	id, err := h.store.AppendChatMessage(ctx, room.ID, operator.UserID, cmd.Text, now)
	if err != nil {
		h.log.Error().Err(err).Str("room", room.Name).Msg("append battle line failed")
		replyOutcome(cmd, coreError(ErrCodePersistenceFailed, "line not recorded"))
		return
	}

	entry := ChatEntry{
		ID:        id,
		UserID:    operator.UserID,
		User:      operator.Name,
		Message:   cmd.Text,
		Timestamp: minuteStamp(now),
	}
	room.appendChat(entry, now)
	room.broadcast(&Event{Kind: EventChatMessage, Room: room.Name, Data: entry, RoomInfo: room.snapshot()})

	if room.speaker != battle.bot {
		if h.persistAction(ctx, room, operator.UserID, store.ActionSwitchSpeaker, jsonPayload{"newSpeakerId": battle.bot.UserID}) {
			h.applySwitchSpeaker(room, battle.bot)
		}
	}

	system := battlePrompt(room, battle.bot)
	messages := []ai.Message{{Role: ai.RoleUser, Content: transcriptText(room)}}

	go func() {
		text, err := h.gen.Complete(h.runCtx, system, messages)
		h.submit(&Command{Kind: commandBotReply, Room: room.Name, Gen: &generationResult{text: text, err: err}})
	}()

	replyOutcome(cmd, nil)
}

// handleBotReply commits the opponent's generated turn and returns the floor
// to the operator.
func (h *Hub) handleBotReply(ctx context.Context, cmd *Command) {
	room := h.registry.Lookup(cmd.Room)
	battle := h.battles[cmd.Room]
	if room == nil || battle == nil {
		return
	}
	operator := room.otherSeat(battle.bot)

	if cmd.Gen.err != nil {
		h.log.Error().Err(cmd.Gen.err).Str("room", room.Name).Msg("bot reply generation failed")
		room.broadcast(&Event{
			Kind:  EventError,
			Room:  room.Name,
			Error: coreError(ErrCodeGenerationFailed, "opponent could not reply"),
		})
		if operator != nil && room.speaker == battle.bot {
			h.applySwitchSpeaker(room, operator)
		}
		return
	}

	text := strings.TrimSpace(cmd.Gen.text)
	now := time.Now()
	id, err := h.store.AppendChatMessage(ctx, room.ID, battle.bot.UserID, text, now)
	if err != nil {
		h.log.Error().Err(err).Str("room", room.Name).Msg("append bot reply failed")
		return
	}

	entry := ChatEntry{
		ID:        id,
		UserID:    battle.bot.UserID,
		User:      battle.bot.Name,
		Message:   text,
		Timestamp: minuteStamp(now),
		IsBot:     true,
	}
	room.appendChat(entry, now)
	room.broadcast(&Event{Kind: EventChatMessage, Room: room.Name, Data: entry, RoomInfo: room.snapshot()})

	if operator != nil && room.speaker == battle.bot {
		if h.persistAction(ctx, room, battle.bot.UserID, store.ActionSwitchSpeaker, jsonPayload{"newSpeakerId": operator.UserID}) {
			h.applySwitchSpeaker(room, operator)
		}
	}
}

// handleEndBotBattle freezes the battle and requests a verdict off-loop.
func (h *Hub) handleEndBotBattle(cmd *Command) {
	room := h.registry.Lookup(cmd.Room)
	battle := h.battles[cmd.Room]
	if room == nil || battle == nil {
		replyOutcome(cmd, coreError(ErrCodeBotBattleState, "no battle running in this room"))
		return
	}
	if battle.judging {
		replyOutcome(cmd, coreError(ErrCodeBotBattleState, "judgement in progress"))
		return
	}
	battle.judging = true

	room.broadcast(&Event{Kind: EventLoadingJudgement, Room: room.Name})

	system, transcript := judgePrompt(room)
	go func() {
		text, err := h.gen.Complete(h.runCtx, system, []ai.Message{{Role: ai.RoleUser, Content: transcript}})
		verdictCmd := &Command{Kind: commandJudgementReady, Room: room.Name, Gen: &generationResult{err: err}}
		if err == nil {
			verdictCmd.Verdict = ParseJudgement(text)
		}
		h.submit(verdictCmd)
	}()

	replyOutcome(cmd, nil)
}

// handleJudgementReady broadcasts the parsed verdict and tears down the
// battle state. The room itself stays up until its participants leave.
func (h *Hub) handleJudgementReady(cmd *Command) {
	room := h.registry.Lookup(cmd.Room)
	if room == nil {
		h.endBattleState(cmd.Room)
		return
	}

	if cmd.Gen != nil && cmd.Gen.err != nil {
		h.log.Error().Err(cmd.Gen.err).Str("room", room.Name).Msg("judgement generation failed")
		room.broadcast(&Event{
			Kind:  EventError,
			Room:  room.Name,
			Error: coreError(ErrCodeGenerationFailed, "judgement failed"),
		})
		if battle := h.battles[cmd.Room]; battle != nil {
			battle.judging = false
		}
		return
	}
	if cmd.Verdict == nil {
		h.log.Error().Str("room", room.Name).Msg("judgement verdict did not parse")
		room.broadcast(&Event{
			Kind:  EventError,
			Room:  room.Name,
			Error: coreError(ErrCodeGenerationFailed, "verdict could not be parsed"),
		})
		if battle := h.battles[cmd.Room]; battle != nil {
			battle.judging = false
		}
		return
	}

	h.log.Info().Str("room", room.Name).Str("winner", cmd.Verdict.Winner).Msg("judgement delivered")
	room.broadcast(&Event{Kind: EventJudgement, Room: room.Name, Data: *cmd.Verdict})

	room.isBotBattle = false
	h.endBattleState(cmd.Room)
}

// endBattleState drops battle bookkeeping for a room.
func (h *Hub) endBattleState(roomName string) {
	delete(h.battles, roomName)
}

// battlePrompt frames the opponent's next turn.
func battlePrompt(room *Room, bot *Client) string {
	var sb strings.Builder
	sb.WriteString("You are ")
	sb.WriteString(bot.Name)
	sb.WriteString(", arguing the ")
	sb.WriteString(string(bot.Side))
	sb.WriteString(" side of a courtroom debate")
	if room.Topic != "" {
		sb.WriteString(" on the topic: ")
		sb.WriteString(room.Topic)
	}
	sb.WriteString(". Reply with your next argument only, two sentences at most.")
	return sb.String()
}

// transcriptText renders the shared chat log for prompt context.
func transcriptText(room *Room) string {
	if len(room.chat.ChatLog) == 0 {
		return "The debate has not started. Make the opening argument."
	}
	var sb strings.Builder
	for _, entry := range room.chat.ChatLog {
		fmt.Fprintf(&sb, "%s: %s\n", entry.User, entry.Message)
	}
	return sb.String()
}
