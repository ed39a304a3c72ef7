package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/courtlive/courtroom-server/internal/ai"
	"github.com/courtlive/courtroom-server/internal/store"
)

// handleGenerate starts an assisted-chat completion for the caller's private
// AI chat box. Store writes for the box run inline: the loop owns box state
// the same way it owns room state. Only the completion stream itself, which
// can take seconds, runs on a side goroutine; its outcome re-enters the loop
// as a command.
func (h *Hub) handleGenerate(ctx context.Context, cmd *Command) {
	room := h.registry.roomOf(cmd.Client)
	if room == nil {
		h.sendError(cmd.Client, "", ErrCodeNotInRoom, "join a room first")
		return
	}
	if !room.hasSeat(cmd.Client) {
		h.sendError(cmd.Client, room.Name, ErrCodeNotSeated, "spectators cannot use assisted chat")
		return
	}
	if h.gen == nil {
		h.sendError(cmd.Client, room.Name, ErrCodeGenerationFailed, "text generation not configured")
		return
	}

	key := genKey{room: room.Name, userID: cmd.Client.UserID}
	if h.generating[key] {
		h.sendError(cmd.Client, room.Name, ErrCodeGenerationInFlight, "a generation is already running")
		return
	}

	if !h.persistAction(ctx, room, cmd.Client.UserID, store.ActionGenerate, jsonPayload{"prompt": cmd.Text}) {
		h.sendError(cmd.Client, room.Name, ErrCodePersistenceFailed, "generate not recorded")
		return
	}

	box, err := h.store.GetOrCreateAIChatBox(ctx, room.ID, cmd.Client.UserID)
	if err != nil {
		h.log.Error().Err(err).Str("room", room.Name).Msg("get ai chat box failed")
		h.sendError(cmd.Client, room.Name, ErrCodePersistenceFailed, "could not open assistant chat")
		return
	}

	boxLog, err := h.store.GetAIChatLog(ctx, box.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("box_id", box.ID).Msg("get ai chat log failed")
		h.sendError(cmd.Client, room.Name, ErrCodePersistenceFailed, "could not load assistant chat")
		return
	}

	if _, err := h.store.AppendAIChatMessage(ctx, box.ID, cmd.Client.UserID, cmd.Text); err != nil {
		h.log.Error().Err(err).Int64("box_id", box.ID).Msg("append ai user turn failed")
		h.sendError(cmd.Client, room.Name, ErrCodePersistenceFailed, "could not record prompt")
		return
	}

	bot, err := h.store.FindOrCreateBot(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("resolve bot identity failed")
		h.sendError(cmd.Client, room.Name, ErrCodePersistenceFailed, "could not resolve assistant")
		return
	}

	// The assistant turn gets its row up front so the client can address the
	// stream by a stable id; the text is committed when the stream finishes.
	placeholderID, err := h.store.AppendAIChatMessage(ctx, box.ID, bot.ID, "")
	if err != nil {
		h.log.Error().Err(err).Int64("box_id", box.ID).Msg("append ai placeholder failed")
		h.sendError(cmd.Client, room.Name, ErrCodePersistenceFailed, "could not start generation")
		return
	}

	h.generating[key] = true

	system := assistPrompt(room, cmd.Client)
	messages := assistMessages(boxLog, cmd.Client.UserID, cmd.Text)

	h.log.Info().Str("room", room.Name).Int64("user_id", cmd.Client.UserID).Msg("generation started")
	go h.streamGeneration(h.runCtx, cmd.Client, room.Name, box.ID, placeholderID, system, messages)
}

// assistPrompt frames the completion around the caller's current position in
// the debate.
func assistPrompt(room *Room, c *Client) string {
	var sb strings.Builder
	sb.WriteString("You are a courtroom debate assistant. Write the next argument for the ")
	sb.WriteString(string(c.Side))
	sb.WriteString(" side, speaking as ")
	sb.WriteString(c.Name)
	sb.WriteString(". Keep it short and punchy.")
	if room.Topic != "" {
		sb.WriteString(" The debate topic is: ")
		sb.WriteString(room.Topic)
		sb.WriteString(".")
	}
	if len(room.chat.ChatLog) > 0 {
		sb.WriteString("\n\nDebate so far:\n")
		for _, entry := range room.chat.ChatLog {
			fmt.Fprintf(&sb, "%s: %s\n", entry.User, entry.Message)
		}
	}
	return sb.String()
}

// assistMessages converts the persisted box log plus the fresh prompt into
// alternating conversation turns.
func assistMessages(boxLog []*store.AIChatMessage, userID int64, prompt string) []ai.Message {
	messages := make([]ai.Message, 0, len(boxLog)+1)
	for _, m := range boxLog {
		if m.Text == "" {
			continue
		}
		role := ai.RoleUser
		if m.IsBot {
			role = ai.RoleAssistant
		}
		messages = append(messages, ai.Message{Role: role, Content: m.Text})
	}
	return append(messages, ai.Message{Role: ai.RoleUser, Content: prompt})
}

// streamGeneration consumes the delta stream off-loop, forwarding the
// accumulated text privately to the requester, then hands the final outcome
// back to the loop.
func (h *Hub) streamGeneration(ctx context.Context, requester *Client, roomName string, boxID, messageID int64, system string, messages []ai.Message) {
	result := &generationResult{requester: requester, boxID: boxID, messageID: messageID}

	stream, err := h.gen.Stream(ctx, system, messages)
	if err != nil {
		result.err = err
		h.submit(&Command{Kind: commandGenerationFailed, Room: roomName, Client: requester, Gen: result})
		return
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		delta, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.err = err
			h.submit(&Command{Kind: commandGenerationFailed, Room: roomName, Client: requester, Gen: result})
			return
		}

		sb.WriteString(delta)
		requester.send(&Event{
			Kind: EventGeneratedText,
			Room: roomName,
			Data: GeneratedTextData{
				Message:   ChatEntry{ID: messageID, UserID: 0, User: "AI Assistant", Message: sb.String(), IsBot: true},
				MessageID: messageID,
			},
		})
	}

	result.text = sb.String()
	h.submit(&Command{Kind: commandGenerationDone, Room: roomName, Client: requester, Gen: result})
}

// handleGenerationDone commits the streamed turn into its placeholder row and
// delivers the refreshed box log.
func (h *Hub) handleGenerationDone(ctx context.Context, cmd *Command) {
	g := cmd.Gen
	delete(h.generating, genKey{room: cmd.Room, userID: g.requester.UserID})

	if err := h.store.UpdateAIChatMessage(ctx, g.messageID, g.text); err != nil {
		h.log.Error().Err(err).Int64("message_id", g.messageID).Msg("commit generated turn failed")
		h.sendError(g.requester, cmd.Room, ErrCodePersistenceFailed, "could not save generated text")
		return
	}

	boxLog, err := h.store.GetAIChatLog(ctx, g.boxID)
	if err != nil {
		h.log.Error().Err(err).Int64("box_id", g.boxID).Msg("reload ai chat log failed")
		h.sendError(g.requester, cmd.Room, ErrCodePersistenceFailed, "could not load assistant chat")
		return
	}

	entries := make([]ChatEntry, 0, len(boxLog))
	for _, m := range boxLog {
		entries = append(entries, ChatEntry{
			ID:        m.ID,
			UserID:    m.UserID,
			User:      m.Username,
			Message:   m.Text,
			IsBot:     m.IsBot,
			Timestamp: minuteStamp(m.Timestamp),
		})
	}

	h.log.Info().Str("room", cmd.Room).Int64("user_id", g.requester.UserID).Msg("generation complete")
	g.requester.send(&Event{
		Kind: EventGenerationComplete,
		Room: cmd.Room,
		Data: GenerationCompleteData{ChatLog: entries},
	})
}

// handleGenerationFailed clears the in-flight guard and reports the failure
// to the requester.
func (h *Hub) handleGenerationFailed(cmd *Command) {
	g := cmd.Gen
	delete(h.generating, genKey{room: cmd.Room, userID: g.requester.UserID})

	h.log.Error().Err(g.err).Str("room", cmd.Room).Int64("user_id", g.requester.UserID).Msg("generation failed")
	h.sendError(g.requester, cmd.Room, ErrCodeGenerationFailed, "text generation failed")
}
