package http

import (
	"encoding/json"

	"github.com/courtlive/courtroom-server/internal/core"
	"github.com/courtlive/courtroom-server/internal/proto"
)

// inboundToCommand decodes one wire envelope into a core command. A protocol
// error means the envelope was understood but invalid and the connection
// stays up; a hard error tears the connection down.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundCreateRoom:
		var data proto.CreateRoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Room == "" || data.Name == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room and name are required"}, nil
		}
		return &core.Command{Kind: core.CommandCreateRoom, Room: data.Room, Name: data.Name}, nil, nil

	case proto.InboundJoinRoom:
		var data proto.JoinRoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Room == "" || data.Name == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room and name are required"}, nil
		}
		return &core.Command{Kind: core.CommandJoinRoom, Room: data.Room, Name: data.Name}, nil, nil

	case proto.InboundWatchRoom:
		var data proto.RoomRef
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		return &core.Command{Kind: core.CommandWatchRoom, Room: data.Room}, nil, nil

	case proto.InboundSetTopic:
		var data proto.TopicData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		return &core.Command{Kind: core.CommandSetTopic, Text: data.Topic}, nil, nil

	case proto.InboundSetMode:
		var data proto.ModeData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		return &core.Command{Kind: core.CommandSetMode, Text: data.Mode}, nil, nil

	case proto.InboundSelectSide:
		var data proto.SelectSideData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind:      core.CommandSelectSide,
			Side:      core.Side(data.Side),
			SpriteKey: data.SpriteKey,
		}, nil, nil

	case proto.InboundChatMessage:
		var data proto.ChatMessageData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Message == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "message is required"}, nil
		}
		return &core.Command{Kind: core.CommandChatMessage, Text: data.Message}, nil, nil

	case proto.InboundHoldIt:
		return &core.Command{Kind: core.CommandHoldIt}, nil, nil

	case proto.InboundObjection:
		var data proto.ObjectionData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		return &core.Command{Kind: core.CommandObjection, MessageID: data.MessageID}, nil, nil

	case proto.InboundSwitchSpeaker:
		return &core.Command{Kind: core.CommandSwitchSpeaker}, nil, nil

	case proto.InboundChangePose:
		var data proto.ChangePoseData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		return &core.Command{Kind: core.CommandChangePose, Text: data.Animation}, nil, nil

	case proto.InboundCrossExamination:
		return &core.Command{Kind: core.CommandCrossExamination}, nil, nil

	case proto.InboundGenerate:
		var data proto.GenerateData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Prompt == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "prompt is required"}, nil
		}
		return &core.Command{Kind: core.CommandGenerate, Text: data.Prompt}, nil, nil

	case proto.InboundReplay:
		var data proto.ReplayData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.RoomID == 0 {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "roomId is required"}, nil
		}
		return &core.Command{Kind: core.CommandReplay, RoomID: data.RoomID}, nil, nil

	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

// eventTypes maps core event kinds to wire type tags.
var eventTypes = map[core.EventKind]string{
	core.EventRoomCreated:        proto.OutboundRoomCreated,
	core.EventRoomJoined:         proto.OutboundRoomJoined,
	core.EventUpdateUUID:         proto.OutboundUpdateUUID,
	core.EventRequestTopic:       proto.OutboundRequestTopic,
	core.EventTopicSet:           proto.OutboundTopicSet,
	core.EventModeSet:            proto.OutboundModeSet,
	core.EventPlayerJoined:       proto.OutboundPlayerJoined,
	core.EventWaitingPlayer:      proto.OutboundWaitingPlayer,
	core.EventSideSelected:       proto.OutboundSideSelected,
	core.EventShowChatBox:        proto.OutboundShowChatBox,
	core.EventChatMessage:        proto.OutboundChatMessage,
	core.EventHoldItChatLog:      proto.OutboundHoldItChatLog,
	core.EventHoldItTriggered:    proto.OutboundHoldItTriggered,
	core.EventObjectionTriggered: proto.OutboundObjectionTriggered,
	core.EventSpeakerSwitched:    proto.OutboundSpeakerSwitched,
	core.EventLoadPose:           proto.OutboundLoadPose,
	core.EventCrossExamination:   proto.OutboundCrossExamination,
	core.EventGeneratedText:      proto.OutboundGeneratedText,
	core.EventGenerationComplete: proto.OutboundGenerationDone,
	core.EventBotJoined:          proto.OutboundBotJoined,
	core.EventLoadingJudgement:   proto.OutboundLoadingJudgement,
	core.EventJudgement:          proto.OutboundJudgement,
	core.EventPlaybackComplete:   proto.OutboundPlaybackComplete,
}

// outboundFromEvent wraps a core event into the wire envelope.
func outboundFromEvent(event *core.Event) proto.Outbound {
	if event.Kind == core.EventError {
		out := proto.Outbound{Type: proto.OutboundError, Room: event.Room}
		if event.Error != nil {
			out.Error = &proto.Error{Code: event.Error.Code, Msg: event.Error.Message}
		} else {
			out.Error = &proto.Error{Code: "unknown", Msg: "unknown error"}
		}
		return out
	}

	typ, ok := eventTypes[event.Kind]
	if !ok {
		typ = "event"
	}
	out := proto.Outbound{Type: typ, Room: event.Room, Data: event.Data}
	if event.RoomInfo != nil {
		out.RoomInfo = event.RoomInfo
	}
	return out
}
