package snowflake

import (
	"errors"
	"fmt"

	"dev.acmcsuf.com/snowflake/ledfx"
	"google.golang.org/protobuf/types/known/structpb"
)

// Websocket messages are binary protobuf encoded structpb.Structs. Each
// message carries exactly one of the fields below.
const (
	fieldGetMode  = "get_mode"
	fieldSetMode  = "set_mode"
	fieldNextMode = "next_mode"
	fieldMode     = "mode"
	fieldFrame    = "frame"
	fieldError    = "error"
)

var errUnknownMessage = errors.New("unknown message")

func newMessage(field string, value *structpb.Value) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{field: value},
	}
}

// GetModeRequest returns a client message asking for the active mode.
func GetModeRequest() *structpb.Struct {
	return newMessage(fieldGetMode, structpb.NewBoolValue(true))
}

// SetModeRequest returns a client message switching to the given mode.
func SetModeRequest(m Mode) *structpb.Struct {
	return newMessage(fieldSetMode, structpb.NewStringValue(m.String()))
}

// NextModeRequest returns a client message switching to the next mode.
func NextModeRequest() *structpb.Struct {
	return newMessage(fieldNextMode, structpb.NewBoolValue(true))
}

func modeMessage(m Mode) *structpb.Struct {
	return newMessage(fieldMode, structpb.NewStringValue(m.String()))
}

func frameMessage(frame *ledfx.Frame) *structpb.Struct {
	values := make([]*structpb.Value, len(frame))
	for i, c := range frame {
		values[i] = structpb.NewNumberValue(float64(c))
	}
	return newMessage(fieldFrame, structpb.NewListValue(&structpb.ListValue{Values: values}))
}

func errorMessage(err error) *structpb.Struct {
	return newMessage(fieldError, structpb.NewStringValue(err.Error()))
}

func isErrorMessage(msg *structpb.Struct) bool {
	_, ok := msg.GetFields()[fieldError]
	return ok
}

// DecodeMode returns the mode carried by a server message.
func DecodeMode(msg *structpb.Struct) (Mode, bool) {
	v, ok := msg.GetFields()[fieldMode]
	if !ok {
		return 0, false
	}
	m, err := ParseMode(v.GetStringValue())
	return m, err == nil
}

// DecodeFrame returns the frame carried by a server message.
func DecodeFrame(msg *structpb.Struct) (ledfx.Frame, bool) {
	var frame ledfx.Frame

	v, ok := msg.GetFields()[fieldFrame]
	if !ok {
		return frame, false
	}

	values := v.GetListValue().GetValues()
	if len(values) != len(frame) {
		return frame, false
	}

	for i, v := range values {
		frame[i] = ledfx.Color(uint32(v.GetNumberValue()))
	}
	return frame, true
}

// DecodeError returns the error carried by a server message.
func DecodeError(msg *structpb.Struct) (string, bool) {
	v, ok := msg.GetFields()[fieldError]
	return v.GetStringValue(), ok
}

type clientCommand uint8

const (
	commandGetMode clientCommand = iota
	commandSetMode
	commandNextMode
)

type clientRequest struct {
	command clientCommand
	mode    Mode
}

func parseClientMessage(msg *structpb.Struct) (clientRequest, error) {
	fields := msg.GetFields()
	if len(fields) != 1 {
		return clientRequest{}, fmt.Errorf("%w: expected one field, got %d", errUnknownMessage, len(fields))
	}

	for name, value := range fields {
		switch name {
		case fieldGetMode:
			return clientRequest{command: commandGetMode}, nil
		case fieldNextMode:
			return clientRequest{command: commandNextMode}, nil
		case fieldSetMode:
			m, err := ParseMode(value.GetStringValue())
			if err != nil {
				return clientRequest{}, err
			}
			return clientRequest{command: commandSetMode, mode: m}, nil
		default:
			return clientRequest{}, fmt.Errorf("%w: %q", errUnknownMessage, name)
		}
	}

	panic("unreachable")
}
