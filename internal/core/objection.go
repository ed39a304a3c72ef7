package core

import (
	"context"
	"fmt"

	"github.com/courtlive/courtroom-server/internal/store"
)

// Interruption cues forwarded opaquely to clients.
const (
	objectionAudioURL  = "/assets/audio/objection.mp3"
	holdItEffectURL    = "/assets/audio/pw/holdit.wav"
	objectionEffectURL = "/assets/audio/pw/objection.wav"
)

// handleHoldIt runs phase one of the interruption sub-protocol: snapshot the
// slice of chat since the previous hold-it, filter it to the current
// speaker's lines, and deliver it privately to the caller while the room
// gets the ambient cue. State is mutated only after the action write
// succeeds, so a persistence failure is a true no-op.
func (h *Hub) handleHoldIt(ctx context.Context, cmd *Command) {
	room := h.registry.roomOf(cmd.Client)
	if room == nil {
		h.sendError(cmd.Client, "", ErrCodeNotInRoom, "join a room first")
		return
	}
	if !room.hasSeat(cmd.Client) {
		h.sendError(cmd.Client, room.Name, ErrCodeNotSeated, "spectators cannot hold it")
		return
	}
	if cmd.Client == room.speaker {
		h.sendError(cmd.Client, room.Name, ErrCodeNotListener, "the speaker cannot interrupt themselves")
		return
	}

	if !h.persistAction(ctx, room, cmd.Client.UserID, store.ActionHoldIt, nil) {
		h.sendError(cmd.Client, room.Name, ErrCodePersistenceFailed, "hold-it not recorded")
		return
	}

	h.applyHoldIt(room, cmd.Client, CallerData{UserID: cmd.Client.UserID, UserName: cmd.Client.Name})
}

// applyHoldIt mutates objection bookkeeping and emits both deliveries.
// evidenceTo may be nil during injection when the original caller's
// connection no longer exists; the private delivery is then skipped.
func (h *Hub) applyHoldIt(room *Room, evidenceTo *Client, caller CallerData) {
	room.inObjection = true
	room.AudioURL = objectionAudioURL
	room.EffectURL = holdItEffectURL

	room.previousObjectionIndex = room.objectionIndex
	room.objectionIndex = len(room.chat.ChatLog)

	if evidenceTo != nil && room.speaker != nil {
		slice := room.chat.ChatLog[room.previousObjectionIndex:room.objectionIndex]
		evidence := make([]ChatEntry, 0, len(slice))
		for _, entry := range slice {
			if entry.UserID == room.speaker.UserID {
				evidence = append(evidence, entry)
			}
		}
		evidenceTo.send(&Event{Kind: EventHoldItChatLog, Room: room.Name, Data: evidence})
	}

	room.broadcast(&Event{
		Kind:     EventHoldItTriggered,
		Room:     room.Name,
		Data:     caller,
		RoomInfo: room.snapshot(),
	})
	room.EffectURL = ""
}

// handleObjection runs phase two: publicly flag one line from the evidence
// slice delivered by the preceding hold-it.
func (h *Hub) handleObjection(ctx context.Context, cmd *Command) {
	room := h.registry.roomOf(cmd.Client)
	if room == nil {
		h.sendError(cmd.Client, "", ErrCodeNotInRoom, "join a room first")
		return
	}
	if !room.hasSeat(cmd.Client) {
		h.sendError(cmd.Client, room.Name, ErrCodeNotSeated, "spectators cannot object")
		return
	}

	entry := room.findChatEntry(cmd.MessageID)
	if entry == nil {
		h.sendError(cmd.Client, room.Name, ErrCodeMessageNotFound,
			fmt.Sprintf("message %d not in chat log", cmd.MessageID))
		return
	}

	if !h.persistAction(ctx, room, cmd.Client.UserID, store.ActionObjection, jsonPayload{"id": cmd.MessageID}) {
		h.sendError(cmd.Client, room.Name, ErrCodePersistenceFailed, "objection not recorded")
		return
	}

	h.applyObjection(room, ObjectionData{
		UserID:   cmd.Client.UserID,
		UserName: cmd.Client.Name,
		Message:  entry,
	})
}

// applyObjection broadcasts the flagged line and restores normal input.
func (h *Hub) applyObjection(room *Room, data ObjectionData) {
	room.AudioURL = objectionAudioURL
	room.EffectURL = objectionEffectURL

	room.broadcast(&Event{
		Kind:     EventObjectionTriggered,
		Room:     room.Name,
		Data:     data,
		RoomInfo: room.snapshot(),
	})
	room.broadcast(&Event{Kind: EventShowChatBox, Room: room.Name, RoomInfo: room.snapshot()})

	room.EffectURL = ""
	room.inObjection = false
}
