package core

import (
	"context"

	"github.com/courtlive/courtroom-server/internal/store"
)

// seatClient places a joiner into a seat and applies the default role
// assignment: the first seat-holder takes defence and the speaker role, the
// second takes the side complementary to whatever the first currently holds
// and becomes listener. Explicit select_side actions can override sides
// afterwards.
func (h *Hub) seatClient(room *Room, c *Client) {
	if !room.seat(c) {
		return
	}

	if room.seatCount() == 1 {
		c.Side = SideDefence
		c.SpriteKey = defaultSprite(c.Side)
		room.speaker = c
		room.Side = c.Side
		return
	}

	first := room.otherSeat(c)
	if first.Side == "" {
		first.Side = SideDefence
		first.SpriteKey = defaultSprite(first.Side)
	}
	c.Side = first.Side.Opposite()
	c.SpriteKey = defaultSprite(c.Side)
	room.listener = c
	room.isActive = true
}

func (h *Hub) handleSelectSide(ctx context.Context, cmd *Command) {
	room := h.registry.roomOf(cmd.Client)
	if room == nil {
		h.sendError(cmd.Client, "", ErrCodeNotInRoom, "join a room first")
		return
	}
	if !room.hasSeat(cmd.Client) {
		h.sendError(cmd.Client, room.Name, ErrCodeNotSeated, "spectators have no side")
		return
	}
	if cmd.Side != SideDefence && cmd.Side != SideProsecution {
		h.sendError(cmd.Client, room.Name, ErrCodeBadRequest, "unknown side")
		return
	}

	if !h.persistAction(ctx, room, cmd.Client.UserID, store.ActionSelectSide, jsonPayload{"side": cmd.Side}) {
		h.sendError(cmd.Client, room.Name, ErrCodePersistenceFailed, "side selection not recorded")
		return
	}

	cmd.Client.Side = cmd.Side
	if cmd.SpriteKey != "" {
		cmd.Client.SpriteKey = cmd.SpriteKey
	} else {
		cmd.Client.SpriteKey = defaultSprite(cmd.Side)
	}
	if cmd.Client == room.speaker {
		room.Side = cmd.Side
	}
	room.AudioURL = "/assets/audio/questioning.mp3"
	room.isActive = room.seatCount() == 2

	room.broadcast(&Event{
		Kind: EventSideSelected,
		Room: room.Name,
		Data: SideSelectedData{
			UserName:  cmd.Client.Name,
			Side:      cmd.Client.Side,
			SpriteKey: cmd.Client.SpriteKey,
		},
	})
	room.broadcast(&Event{Kind: EventShowChatBox, Room: room.Name, RoomInfo: room.snapshot()})

	if room.seatCount() != 2 {
		room.broadcast(&Event{Kind: EventWaitingPlayer, Room: room.Name})
	}
}

// handleSwitchSpeaker exchanges speaker and listener atomically. The target
// is resolved strictly over seat-holders, so spectators and any future
// non-seated connections can never become speaker.
func (h *Hub) handleSwitchSpeaker(ctx context.Context, cmd *Command) {
	room := h.registry.roomOf(cmd.Client)
	if room == nil {
		h.sendError(cmd.Client, "", ErrCodeNotInRoom, "join a room first")
		return
	}
	if !room.hasSeat(cmd.Client) {
		h.sendError(cmd.Client, room.Name, ErrCodeNotSeated, "spectators cannot switch speaker")
		return
	}
	if room.speaker == nil {
		h.sendError(cmd.Client, room.Name, ErrCodeBadRequest, "no speaker to switch from")
		return
	}

	newSpeaker := room.otherSeat(room.speaker)
	if newSpeaker == nil {
		h.sendError(cmd.Client, room.Name, ErrCodeBadRequest, "no partner seated")
		return
	}

	if !h.persistAction(ctx, room, cmd.Client.UserID, store.ActionSwitchSpeaker, jsonPayload{"newSpeakerId": newSpeaker.UserID}) {
		h.sendError(cmd.Client, room.Name, ErrCodePersistenceFailed, "switch not recorded")
		return
	}

	h.applySwitchSpeaker(room, newSpeaker)
}

// applySwitchSpeaker mutates roles and broadcasts; shared with the
// injection path, which has already decided the action.
func (h *Hub) applySwitchSpeaker(room *Room, newSpeaker *Client) {
	room.listener = room.speaker
	room.speaker = newSpeaker
	room.Side = newSpeaker.Side

	room.broadcast(&Event{
		Kind:     EventSpeakerSwitched,
		Room:     room.Name,
		Data:     SpeakerSwitchedData{UserName: newSpeaker.Name, Side: newSpeaker.Side},
		RoomInfo: room.snapshot(),
	})
}
