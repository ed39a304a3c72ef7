package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/courtlive/courtroom-server/internal/store"
)

// injectMessage marks an InjectedAction carrying a chat line rather than an
// action-log record.
const injectMessage = "message"

// handleReplay reconstructs a finished room from its persisted history and
// plays it back to the caller at a fixed cadence. The reconstructed room is
// transient: nothing it does is written back to the store, and it is torn
// down when playback completes.
func (h *Hub) handleReplay(ctx context.Context, cmd *Command) {
	rec, err := h.store.GetRoomByID(ctx, cmd.RoomID)
	if err != nil {
		h.log.Error().Err(err).Int64("room_id", cmd.RoomID).Msg("fetch room for replay failed")
		h.sendError(cmd.Client, "", ErrCodeRoomNotFound, "no such recorded room")
		return
	}

	if h.registry.Lookup(rec.Name) != nil {
		h.sendError(cmd.Client, rec.Name, ErrCodeNameTaken, "room is currently live")
		return
	}

	history, err := h.store.FetchRoomHistory(ctx, rec.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("room_id", rec.ID).Msg("fetch room history failed")
		h.sendError(cmd.Client, rec.Name, ErrCodePersistenceFailed, "could not load history")
		return
	}

	users, err := h.store.ListRoomUsers(ctx, rec.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("room_id", rec.ID).Msg("list room users failed")
		h.sendError(cmd.Client, rec.Name, ErrCodePersistenceFailed, "could not load participants")
		return
	}

	room := newRoom(rec.Name)
	room.ID = rec.ID
	room.Topic = rec.Topic
	room.Mode = rec.Mode
	room.transient = true

	// Reconstruct the original seats as synthetic stand-ins so role events
	// replay against real seat-holders.
	for _, u := range users {
		if u.IsBot || room.seatCount() == 2 {
			continue
		}
		stand := newSyntheticClient(uuid.NewString(), u.ID, u.Username, SideDefence)
		room.addClient(stand)
		h.seatClient(room, stand)
	}

	room.addClient(cmd.Client)
	h.registry.Register(room)

	cmd.Client.send(&Event{Kind: EventRoomJoined, Room: rec.Name, RoomInfo: room.snapshot()})
	h.log.Info().Str("room", rec.Name).Int("events", len(history)).Msg("starting playback")

	go h.playback(h.runCtx, rec.Name, history)
}

// playback feeds history items into the loop one by one, spaced by the
// configured delay, then requests room teardown.
func (h *Hub) playback(ctx context.Context, roomName string, history []store.HistoryItem) {
	for i, item := range history {
		action := injectedFromHistory(item)
		if action == nil {
			continue
		}
		action.Last = i == len(history)-1
		h.submit(&Command{Kind: commandInject, Room: roomName, Inject: action})

		select {
		case <-time.After(h.ReplayDelay):
		case <-ctx.Done():
			return
		}
	}
	h.submit(&Command{Kind: commandDeleteRoom, Room: roomName})
}

// injectedFromHistory converts one persisted history item into the live-echo
// form. Generate actions are private side-channel traffic and are skipped.
func injectedFromHistory(item store.HistoryItem) *InjectedAction {
	if item.Message != nil {
		m := item.Message
		return &InjectedAction{
			Kind: injectMessage,
			Message: &ChatEntry{
				ID:        m.ID,
				UserID:    m.UserID,
				User:      m.Username,
				Message:   m.Text,
				Timestamp: minuteStamp(m.Timestamp),
			},
			UserID:   m.UserID,
			UserName: m.Username,
		}
	}

	a := item.Action
	action := &InjectedAction{
		Kind:     string(a.Kind),
		UserID:   a.UserID,
		UserName: a.Username,
	}

	var payload struct {
		ID        int64  `json:"id"`
		Side      Side   `json:"side"`
		Animation string `json:"animation"`
	}
	if err := json.Unmarshal(a.Payload, &payload); err == nil {
		action.MessageID = payload.ID
		action.Side = payload.Side
		action.Text = payload.Animation
	}

	if a.Kind == store.ActionGenerate {
		return nil
	}
	return action
}

// ReplayRoomByName queues one already-decided action for rebroadcast into
// the named live room. This is the injection primitive external
// orchestrators use for events that originate outside the per-connection
// action path.
func (h *Hub) ReplayRoomByName(name string, action *InjectedAction) {
	h.submit(&Command{Kind: commandInject, Room: name, Inject: action})
}

// handleInject applies one already-decided action to the live room: chat
// lines are appended to the in-memory log first, then every kind is
// rebroadcast with a freshly computed snapshot.
func (h *Hub) handleInject(cmd *Command) {
	room := h.registry.Lookup(cmd.Room)
	if room == nil || cmd.Inject == nil {
		return
	}
	inject := cmd.Inject

	switch inject.Kind {
	case injectMessage:
		if inject.Message == nil {
			return
		}
		at := time.UnixMilli(inject.Message.Timestamp)
		room.appendChat(*inject.Message, at)
		room.broadcast(&Event{
			Kind:     EventChatMessage,
			Room:     room.Name,
			Data:     *inject.Message,
			RoomInfo: room.snapshot(),
		})

	case string(store.ActionHoldIt):
		h.applyHoldIt(room, nil, CallerData{UserID: inject.UserID, UserName: inject.UserName})

	case string(store.ActionObjection):
		h.applyObjection(room, ObjectionData{
			UserID:   inject.UserID,
			UserName: inject.UserName,
			Message:  room.findChatEntry(inject.MessageID),
		})

	case string(store.ActionSwitchSpeaker):
		if room.speaker == nil {
			return
		}
		if next := room.otherSeat(room.speaker); next != nil {
			h.applySwitchSpeaker(room, next)
		}

	case string(store.ActionSelectSide):
		seat := room.seatByUserID(inject.UserID)
		if seat == nil || (inject.Side != SideDefence && inject.Side != SideProsecution) {
			return
		}
		seat.Side = inject.Side
		seat.SpriteKey = defaultSprite(inject.Side)
		if seat == room.speaker {
			room.Side = inject.Side
		}
		room.broadcast(&Event{
			Kind: EventSideSelected,
			Room: room.Name,
			Data: SideSelectedData{UserName: seat.Name, Side: seat.Side, SpriteKey: seat.SpriteKey},
		})
		room.broadcast(&Event{Kind: EventShowChatBox, Room: room.Name, RoomInfo: room.snapshot()})

	case string(store.ActionChangePose):
		seat := room.seatByUserID(inject.UserID)
		if seat == nil {
			return
		}
		room.broadcast(&Event{
			Kind:     EventLoadPose,
			Room:     room.Name,
			Data:     PoseData{Side: seat.Side, Animation: inject.Text, CharacterKey: seat.SpriteKey},
			RoomInfo: room.snapshot(),
		})

	default:
		h.log.Warn().Str("kind", inject.Kind).Msg("unsupported injected action")
	}
}
