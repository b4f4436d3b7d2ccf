package msgs

import (
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/google/uuid"
)

// PacketEvent reports a payload accepted by a deframer.
type PacketEvent struct {
	Id                   string   `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	Station              string   `protobuf:"bytes,2,opt,name=station,proto3" json:"station,omitempty"`
	Link                 string   `protobuf:"bytes,3,opt,name=link,proto3" json:"link,omitempty"`
	Payload              []byte   `protobuf:"bytes,4,opt,name=payload,proto3" json:"payload,omitempty"`
	TimeNs               int64    `protobuf:"varint,5,opt,name=time_ns,json=timeNs,proto3" json:"time_ns,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

// Reset implements proto.Message.
func (m *PacketEvent) Reset() { *m = PacketEvent{} }

// String implements proto.Message.
func (m *PacketEvent) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*PacketEvent) ProtoMessage() {}

// RejectEvent reports a frame dropped by a deframer.
type RejectEvent struct {
	Id                   string   `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	Station              string   `protobuf:"bytes,2,opt,name=station,proto3" json:"station,omitempty"`
	Link                 string   `protobuf:"bytes,3,opt,name=link,proto3" json:"link,omitempty"`
	Reason               string   `protobuf:"bytes,4,opt,name=reason,proto3" json:"reason,omitempty"`
	Message              string   `protobuf:"bytes,5,opt,name=message,proto3" json:"message,omitempty"`
	TimeNs               int64    `protobuf:"varint,6,opt,name=time_ns,json=timeNs,proto3" json:"time_ns,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

// Reset implements proto.Message.
func (m *RejectEvent) Reset() { *m = RejectEvent{} }

// String implements proto.Message.
func (m *RejectEvent) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*RejectEvent) ProtoMessage() {}

// NewPacketEvent creates a PacketEvent with a new ID.
func NewPacketEvent(station, link string, payload []byte, at time.Time) *PacketEvent {
	return &PacketEvent{
		Id:      uuid.New().String(),
		Station: station,
		Link:    link,
		Payload: payload,
		TimeNs:  at.UnixNano(),
	}
}

// NewRejectEvent creates a RejectEvent with a new ID.
func NewRejectEvent(station, link, reason string, err error, at time.Time) *RejectEvent {
	ev := &RejectEvent{
		Id:      uuid.New().String(),
		Station: station,
		Link:    link,
		Reason:  reason,
		TimeNs:  at.UnixNano(),
	}
	if err != nil {
		ev.Message = err.Error()
	}
	return ev
}

// Time returns the receive time.
func (m *PacketEvent) Time() time.Time {
	return time.Unix(0, m.TimeNs)
}

// Time returns the reject time.
func (m *RejectEvent) Time() time.Time {
	return time.Unix(0, m.TimeNs)
}

// TypeID implements Event.
func (m *PacketEvent) TypeID() uint32 { return PacketEventTypeID }

// TypeID implements Event.
func (m *RejectEvent) TypeID() uint32 { return RejectEventTypeID }

// TypeIDs
const (
	PacketEventTypeID uint32 = TypeIDKindEvent | 0x0001
	RejectEventTypeID uint32 = TypeIDKindEvent | 0x0002
)
