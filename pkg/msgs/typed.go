package msgs

import (
	"fmt"

	"github.com/golang/protobuf/proto"
)

// TypeID masks
const (
	TypeIDMaskKind uint32 = 0x80000000
	TypeIDMaskID   uint32 = 0x0000ffff
)

// Message Kinds
const (
	TypeIDKindCommand uint32 = 0x00000000
	TypeIDKindEvent   uint32 = 0x80000000
)

// Event is a message which can be wrapped in Typed.
type Event interface {
	proto.Message
	TypeID() uint32
}

// Typed wraps an encoded event with its type ID.
type Typed struct {
	TypeId               uint32   `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Message              []byte   `protobuf:"bytes,2,opt,name=message,proto3" json:"message,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

// Reset implements proto.Message.
func (m *Typed) Reset() { *m = Typed{} }

// String implements proto.Message.
func (m *Typed) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*Typed) ProtoMessage() {}

// ErrUnknownType indicates unknown type id.
type ErrUnknownType struct {
	TypeID uint32
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

// EventTypes maps type IDs to event constructors.
var EventTypes = map[uint32]func() Event{
	PacketEventTypeID: func() Event { return &PacketEvent{} },
	RejectEventTypeID: func() Event { return &RejectEvent{} },
}

// TypedFrom wraps an event.
func TypedFrom(ev Event) (*Typed, error) {
	data, err := proto.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return &Typed{TypeId: ev.TypeID(), Message: data}, nil
}

// Decode decodes the wrapped event.
func (m *Typed) Decode() (Event, error) {
	newEvent, ok := EventTypes[m.TypeId]
	if !ok {
		return nil, &ErrUnknownType{TypeID: m.TypeId}
	}
	ev := newEvent()
	if err := proto.Unmarshal(m.Message, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Encode encodes the Typed to bytes.
func (m *Typed) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// IsEvent determines if the message is an event.
func (m *Typed) IsEvent() bool {
	return m.TypeId&TypeIDMaskKind == TypeIDKindEvent
}

// Encode wraps and encodes an event.
func Encode(ev Event) ([]byte, error) {
	typed, err := TypedFrom(ev)
	if err != nil {
		return nil, err
	}
	return typed.Encode()
}

// DecodeTyped decodes bytes into Typed.
func DecodeTyped(data []byte) (*Typed, error) {
	var typed Typed
	if err := proto.Unmarshal(data, &typed); err != nil {
		return nil, err
	}
	return &typed, nil
}

// Decode decodes bytes produced by Encode.
func Decode(data []byte) (Event, error) {
	typed, err := DecodeTyped(data)
	if err != nil {
		return nil, err
	}
	return typed.Decode()
}
