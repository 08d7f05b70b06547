// Package protocol defines the wire layout for the market-data feed:
// message-type tags, fixed record sizes, and field byte offsets. It
// carries no behavior — decoding lives in internal/decoder.
package protocol

// MessageType tags the kind of record a frame carries.
type MessageType uint8

const (
	MessageTypeAddOrder    MessageType = 1
	MessageTypeModifyOrder MessageType = 2
	MessageTypeDeleteOrder MessageType = 3
	MessageTypeTrade       MessageType = 4
	MessageTypeSnapshot    MessageType = 5
)

// Valid reports whether t is one of the five known message types.
func (t MessageType) Valid() bool {
	return t >= MessageTypeAddOrder && t <= MessageTypeSnapshot
}

func (t MessageType) String() string {
	switch t {
	case MessageTypeAddOrder:
		return "AddOrder"
	case MessageTypeModifyOrder:
		return "ModifyOrder"
	case MessageTypeDeleteOrder:
		return "DeleteOrder"
	case MessageTypeTrade:
		return "Trade"
	case MessageTypeSnapshot:
		return "Snapshot"
	default:
		return "Unknown"
	}
}

// Side is the two-valued bid/ask marker carried on the wire as a single byte.
type Side uint8

const (
	SideBid Side = 0
	SideAsk Side = 1
)

func (s Side) Valid() bool {
	return s == SideBid || s == SideAsk
}

func (s Side) String() string {
	if s == SideBid {
		return "bid"
	}
	return "ask"
}

// Header field offsets and width. Every record starts with this 8-byte
// header regardless of message type.
const (
	HeaderSize = 8

	OffsetMsgType  = 0
	OffsetLength   = 1 // 2 bytes, little-endian
	OffsetSequence = 3 // 4 bytes, little-endian
	OffsetPadding  = 7 // 1 byte, arbitrary, must be tolerated
)

// Fixed total record sizes (header included) for the four non-Snapshot
// message kinds.
const (
	AddOrderRecordSize    = 46
	ModifyOrderRecordSize = 26
	DeleteOrderRecordSize = 16
	TradeRecordSize       = 38
)

// AddOrder payload offsets (relative to the start of the record, header included).
const (
	OffsetAddOrderID       = 8  // 8 bytes, uint64
	OffsetAddOrderSide     = 16 // 1 byte
	OffsetAddOrderPrice    = 17 // 8 bytes, uint64
	OffsetAddOrderQuantity = 25 // 4 bytes, uint32
	// remaining bytes to AddOrderRecordSize are padding
)

// ModifyOrder payload offsets.
const (
	OffsetModifyOrderID       = 8  // 8 bytes, uint64
	OffsetModifyOrderQuantity = 16 // 4 bytes, uint32
	// offsets 20..25 (six bytes) are padding, per spec open question:
	// the field table names "padding u8[2]" at 20-21 but the record
	// size (26) leaves six trailing bytes after the 20-byte prefix;
	// all six are read-and-discarded, never interpreted as a field.
)

// DeleteOrder payload offsets.
const (
	OffsetDeleteOrderID = 8 // 8 bytes, uint64
)

// Trade payload offsets.
const (
	OffsetTradePrice    = 8  // 8 bytes, uint64
	OffsetTradeQuantity = 16 // 4 bytes, uint32
	OffsetTradeSide     = 20 // 1 byte
	// remaining bytes to TradeRecordSize are padding
)

// Snapshot header offsets (relative to the start of the record, header included).
const (
	OffsetSnapshotNumBids = 8  // 4 bytes, uint32
	OffsetSnapshotNumAsks = 12 // 4 bytes, uint32
	SnapshotLevelsOffset  = 16 // first level byte

	// SnapshotLevelSize is the width of one {price u64, quantity u32, 4B padding} entry.
	SnapshotLevelSize = 16

	// SnapshotMinRecordSize is the minimum legal Snapshot record length:
	// header + num_bids + num_asks, with zero levels.
	SnapshotMinRecordSize = SnapshotLevelsOffset
)

// SnapshotRecordSize returns the expected total record length for a
// Snapshot carrying numBids bid levels and numAsks ask levels.
func SnapshotRecordSize(numBids, numAsks uint32) uint32 {
	return SnapshotMinRecordSize + SnapshotLevelSize*(numBids+numAsks)
}
