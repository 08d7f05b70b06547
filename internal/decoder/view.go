package decoder

import (
	"encoding/binary"

	"github.com/quantrail/mdcore/internal/protocol"
)

// View is a borrowed, zero-copy reference over a caller-owned byte
// slice. It must not be retained past the lifetime of that slice — a
// View is a thin window into someone else's buffer, not an owned
// value.
type View struct {
	buf []byte
}

// MessageType returns the record's tag.
func (v View) MessageType() protocol.MessageType {
	return protocol.MessageType(v.buf[protocol.OffsetMsgType])
}

// Sequence returns the record's producer-assigned sequence number.
func (v View) Sequence() uint32 {
	return binary.LittleEndian.Uint32(v.buf[protocol.OffsetSequence:])
}

// declaredLength returns the header's little-endian length field.
func (v View) declaredLength() uint16 {
	return binary.LittleEndian.Uint16(v.buf[protocol.OffsetLength:])
}

// AddOrder returns the AddOrder-specific accessor. Callers must check
// MessageType() first; calling this on a view of a different kind
// yields meaningless results, same as reading the wrong union variant.
func (v View) AddOrder() AddOrderView { return AddOrderView{v.buf} }

func (v View) ModifyOrder() ModifyOrderView { return ModifyOrderView{v.buf} }

func (v View) DeleteOrder() DeleteOrderView { return DeleteOrderView{v.buf} }

func (v View) Trade() TradeView { return TradeView{v.buf} }

func (v View) Snapshot() SnapshotView { return SnapshotView{v.buf} }

// AddOrderView exposes the fields of an AddOrder record.
type AddOrderView struct{ buf []byte }

func (v AddOrderView) OrderID() uint64 {
	return binary.LittleEndian.Uint64(v.buf[protocol.OffsetAddOrderID:])
}

func (v AddOrderView) Side() protocol.Side {
	return protocol.Side(v.buf[protocol.OffsetAddOrderSide])
}

func (v AddOrderView) Price() uint64 {
	return binary.LittleEndian.Uint64(v.buf[protocol.OffsetAddOrderPrice:])
}

func (v AddOrderView) Quantity() uint32 {
	return binary.LittleEndian.Uint32(v.buf[protocol.OffsetAddOrderQuantity:])
}

// ModifyOrderView exposes the fields of a ModifyOrder record. The wire
// message carries only a new quantity; price does not change.
type ModifyOrderView struct{ buf []byte }

func (v ModifyOrderView) OrderID() uint64 {
	return binary.LittleEndian.Uint64(v.buf[protocol.OffsetModifyOrderID:])
}

func (v ModifyOrderView) NewQuantity() uint32 {
	return binary.LittleEndian.Uint32(v.buf[protocol.OffsetModifyOrderQuantity:])
}

// DeleteOrderView exposes the fields of a DeleteOrder record.
type DeleteOrderView struct{ buf []byte }

func (v DeleteOrderView) OrderID() uint64 {
	return binary.LittleEndian.Uint64(v.buf[protocol.OffsetDeleteOrderID:])
}

// TradeView exposes the fields of a Trade record. Trade is
// informational only — the book never mutates order/level state from
// it.
type TradeView struct{ buf []byte }

func (v TradeView) Price() uint64 {
	return binary.LittleEndian.Uint64(v.buf[protocol.OffsetTradePrice:])
}

func (v TradeView) Quantity() uint32 {
	return binary.LittleEndian.Uint32(v.buf[protocol.OffsetTradeQuantity:])
}

func (v TradeView) Side() protocol.Side {
	return protocol.Side(v.buf[protocol.OffsetTradeSide])
}

// SnapshotView exposes the fields of a Snapshot record.
type SnapshotView struct{ buf []byte }

func (v SnapshotView) NumBids() uint32 {
	return binary.LittleEndian.Uint32(v.buf[protocol.OffsetSnapshotNumBids:])
}

func (v SnapshotView) NumAsks() uint32 {
	return binary.LittleEndian.Uint32(v.buf[protocol.OffsetSnapshotNumAsks:])
}

// BidLevel returns the i'th bid level (0-indexed). Callers must not
// pass i >= NumBids().
func (v SnapshotView) BidLevel(i uint32) (price uint64, quantity uint32) {
	off := protocol.SnapshotLevelsOffset + int(i)*protocol.SnapshotLevelSize
	return binary.LittleEndian.Uint64(v.buf[off:]), binary.LittleEndian.Uint32(v.buf[off+8:])
}

// AskLevel returns the i'th ask level (0-indexed). Ask levels follow
// all bid levels in the record. Callers must not pass i >= NumAsks().
func (v SnapshotView) AskLevel(i uint32) (price uint64, quantity uint32) {
	base := protocol.SnapshotLevelsOffset + int(v.NumBids())*protocol.SnapshotLevelSize
	off := base + int(i)*protocol.SnapshotLevelSize
	return binary.LittleEndian.Uint64(v.buf[off:]), binary.LittleEndian.Uint32(v.buf[off+8:])
}
