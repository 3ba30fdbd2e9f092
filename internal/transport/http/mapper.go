package http

import (
	"encoding/json"

	"github.com/vovakirdan/chatrelay/internal/core"
	"github.com/vovakirdan/chatrelay/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeCreateRoom:
		var create proto.CreateRoomData
		if len(inbound.Data) > 0 {
			if err := json.Unmarshal(inbound.Data, &create); err != nil {
				return nil, nil, err
			}
		}
		return &core.Command{
			Kind:        core.CommandCreateRoom,
			Name:        create.Name,
			Description: create.Description,
			Private:     create.IsPrivate,
		}, nil, nil
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if join.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandJoinRoom,
			Room: join.Room,
		}, nil, nil
	case proto.InboundTypeLeave:
		var leave proto.JoinData
		if err := json.Unmarshal(inbound.Data, &leave); err != nil {
			return nil, nil, err
		}
		if leave.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandLeaveRoom,
			Room: leave.Room,
		}, nil, nil
	case proto.InboundTypeMsg:
		var msg proto.MsgData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		if msg.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandSendMessage,
			Room: msg.Room,
			Text: msg.Text,
		}, nil, nil
	case proto.InboundTypeListRooms:
		return &core.Command{Kind: core.CommandListRooms}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func userRef(id core.Identity) proto.UserRef {
	return proto.UserRef{ID: id.UserID, Name: id.Name}
}

func roomData(info *core.RoomInfo) proto.RoomData {
	return proto.RoomData{
		ID:          info.ID,
		Name:        info.Name,
		Description: info.Description,
		IsPrivate:   info.Private,
		Creator:     userRef(info.Creator),
		CreatedAt:   info.CreatedAt.Unix(),
		MemberCount: info.MemberCount,
	}
}

func eventMessage(msg *core.Message) proto.EventMessage {
	return proto.EventMessage{
		ID:   msg.ID,
		Room: msg.RoomID,
		From: userRef(msg.Sender),
		Text: msg.Text,
		TS:   msg.CreatedAt.Unix(),
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventWelcome:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventTypeWelcome,
			Data: proto.EventWelcome{
				User:       userRef(event.User),
				ServerTime: event.ServerTime.Unix(),
				Protocol:   proto.ProtocolVersion,
			},
		}
	case core.EventRoomCreated:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventTypeRoomCreated,
			Data:  proto.EventRoomCreated{Room: roomData(event.Room)},
		}
	case core.EventRoomJoined:
		history := make([]proto.EventMessage, 0, len(event.History))
		for i := range event.History {
			history = append(history, eventMessage(&event.History[i]))
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventTypeRoomJoined,
			Data: proto.EventRoomJoined{
				Room:        roomData(event.Room),
				History:     history,
				MemberCount: event.Room.MemberCount,
			},
		}
	case core.EventUserJoined:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventTypeUserJoined,
			Data: proto.EventUserJoined{
				Room:        event.RoomID,
				User:        userRef(event.User),
				MemberCount: event.MemberCount,
			},
		}
	case core.EventUserLeft:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventTypeUserLeft,
			Data: proto.EventUserLeft{
				Room:        event.RoomID,
				User:        userRef(event.User),
				MemberCount: event.MemberCount,
			},
		}
	case core.EventNewMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventTypeNewMessage,
			Data:  eventMessage(event.Message),
		}
	case core.EventRoomsList:
		rooms := make([]proto.RoomSummaryData, 0, len(event.Rooms))
		for _, room := range event.Rooms {
			rooms = append(rooms, proto.RoomSummaryData{
				ID:          room.ID,
				Name:        room.Name,
				Description: room.Description,
				MemberCount: room.MemberCount,
				CreatedAt:   room.CreatedAt.Unix(),
			})
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventTypeRoomsList,
			Data:  proto.EventRoomsList{Rooms: rooms},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
