package msgs

import (
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/brick.go/pkg/framework"
)

// TypeID Groups
const (
	GroupBrick  uint32 = 0x00100000
	GroupCustom uint32 = 0x7f000000 // base group id for custom messages.
)

// TypeIDs
const (
	DeviceStateTypeID   uint32 = TypeIDKindEvent | GroupBrick | 0x0000
	MotorSetTypeID      uint32 = GroupBrick | 0x0001
	EncoderOffsetTypeID uint32 = GroupBrick | 0x0002
	EmergencyStopTypeID uint32 = GroupBrick | 0x0003
)

// Motor modes of MotorSet and PortState.
const (
	ModeFloat    = "float"
	ModeSpeed    = "speed"
	ModePosition = "position"
)

// PortState is the state of a motor, its encoder and the sensor port
// with the same index.
type PortState struct {
	Port         int32    `protobuf:"varint,1,opt,name=port,proto3" json:"port,omitempty"`
	MotorMode    string   `protobuf:"bytes,2,opt,name=motor_mode,proto3" json:"motor_mode,omitempty"`
	Speed        int32    `protobuf:"zigzag32,3,opt,name=speed,proto3" json:"speed,omitempty"`
	Target       int32    `protobuf:"zigzag32,4,opt,name=target,proto3" json:"target,omitempty"`
	Encoder      int32    `protobuf:"zigzag32,5,opt,name=encoder,proto3" json:"encoder,omitempty"`
	SensorType   string   `protobuf:"bytes,6,opt,name=sensor_type,proto3" json:"sensor_type,omitempty"`
	SensorValue  uint32   `protobuf:"varint,7,opt,name=sensor_value,proto3" json:"sensor_value,omitempty"`
	Channels     []uint32 `protobuf:"varint,8,rep,packed,name=channels,proto3" json:"channels,omitempty"`
	I2CIn        [][]byte `protobuf:"bytes,9,rep,name=i2c_in,proto3" json:"i2c_in,omitempty"`
	PendingDelta int32    `protobuf:"zigzag32,10,opt,name=pending_delta,proto3" json:"pending_delta,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *PortState) ProtoMessage() {}

// Reset implements proto.Message.
func (m *PortState) Reset() { *m = PortState{} }

// String implements proto.Message.
func (m *PortState) String() string { return proto.CompactTextString(m) }

// DeviceState is an Event message reflecting the device after an
// exchange.
type DeviceState struct {
	Seq    uint64       `protobuf:"varint,1,opt,name=seq,proto3" json:"seq,omitempty"`
	Ports  []*PortState `protobuf:"bytes,2,rep,name=ports,proto3" json:"ports,omitempty"`
	Errors []string     `protobuf:"bytes,3,rep,name=errors,proto3" json:"errors,omitempty"`
}

// NewMessage implements Message.
func (m *DeviceState) NewMessage() fx.Message { return &DeviceState{} }

// TypeID implements SerializableMessage.
func (m *DeviceState) TypeID() uint32 { return DeviceStateTypeID }

// Serializable implements SerializableMessage.
func (m *DeviceState) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DeviceState) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DeviceState) Reset() { *m = DeviceState{} }

// String implements proto.Message.
func (m *DeviceState) String() string { return proto.CompactTextString(m) }

// MotorSet changes how a motor is driven.
type MotorSet struct {
	Port   int32  `protobuf:"varint,1,opt,name=port,proto3" json:"port,omitempty"`
	Mode   string `protobuf:"bytes,2,opt,name=mode,proto3" json:"mode,omitempty"`
	Speed  int32  `protobuf:"zigzag32,3,opt,name=speed,proto3" json:"speed,omitempty"`
	Target int32  `protobuf:"zigzag32,4,opt,name=target,proto3" json:"target,omitempty"`
}

// NewMessage implements Message.
func (m *MotorSet) NewMessage() fx.Message { return &MotorSet{} }

// TypeID implements SerializableMessage.
func (m *MotorSet) TypeID() uint32 { return MotorSetTypeID }

// Serializable implements SerializableMessage.
func (m *MotorSet) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *MotorSet) ProtoMessage() {}

// Reset implements proto.Message.
func (m *MotorSet) Reset() { *m = MotorSet{} }

// String implements proto.Message.
func (m *MotorSet) String() string { return proto.CompactTextString(m) }

// EncoderOffset offsets an encoder.
type EncoderOffset struct {
	Port  int32 `protobuf:"varint,1,opt,name=port,proto3" json:"port,omitempty"`
	Delta int32 `protobuf:"zigzag32,2,opt,name=delta,proto3" json:"delta,omitempty"`
}

// NewMessage implements Message.
func (m *EncoderOffset) NewMessage() fx.Message { return &EncoderOffset{} }

// TypeID implements SerializableMessage.
func (m *EncoderOffset) TypeID() uint32 { return EncoderOffsetTypeID }

// Serializable implements SerializableMessage.
func (m *EncoderOffset) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *EncoderOffset) ProtoMessage() {}

// Reset implements proto.Message.
func (m *EncoderOffset) Reset() { *m = EncoderOffset{} }

// String implements proto.Message.
func (m *EncoderOffset) String() string { return proto.CompactTextString(m) }

// EmergencyStop floats all motors.
type EmergencyStop struct {
}

// NewMessage implements Message.
func (m *EmergencyStop) NewMessage() fx.Message { return &EmergencyStop{} }

// TypeID implements SerializableMessage.
func (m *EmergencyStop) TypeID() uint32 { return EmergencyStopTypeID }

// Serializable implements SerializableMessage.
func (m *EmergencyStop) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *EmergencyStop) ProtoMessage() {}

// Reset implements proto.Message.
func (m *EmergencyStop) Reset() { *m = EmergencyStop{} }

// String implements proto.Message.
func (m *EmergencyStop) String() string { return proto.CompactTextString(m) }
