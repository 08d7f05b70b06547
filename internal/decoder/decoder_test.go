package decoder_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantrail/mdcore/internal/decoder"
	"github.com/quantrail/mdcore/internal/protocol"
)

func putHeader(buf []byte, msgType protocol.MessageType, length uint16, seq uint32) {
	buf[protocol.OffsetMsgType] = byte(msgType)
	binary.LittleEndian.PutUint16(buf[protocol.OffsetLength:], length)
	binary.LittleEndian.PutUint32(buf[protocol.OffsetSequence:], seq)
	buf[protocol.OffsetPadding] = 0xAA // arbitrary, must be tolerated
}

func marshalAddOrder(seq uint32, orderID uint64, side protocol.Side, price uint64, qty uint32) []byte {
	buf := make([]byte, protocol.AddOrderRecordSize)
	putHeader(buf, protocol.MessageTypeAddOrder, protocol.AddOrderRecordSize, seq)
	binary.LittleEndian.PutUint64(buf[protocol.OffsetAddOrderID:], orderID)
	buf[protocol.OffsetAddOrderSide] = byte(side)
	binary.LittleEndian.PutUint64(buf[protocol.OffsetAddOrderPrice:], price)
	binary.LittleEndian.PutUint32(buf[protocol.OffsetAddOrderQuantity:], qty)
	return buf
}

func marshalModifyOrder(seq uint32, orderID uint64, newQty uint32) []byte {
	buf := make([]byte, protocol.ModifyOrderRecordSize)
	putHeader(buf, protocol.MessageTypeModifyOrder, protocol.ModifyOrderRecordSize, seq)
	binary.LittleEndian.PutUint64(buf[protocol.OffsetModifyOrderID:], orderID)
	binary.LittleEndian.PutUint32(buf[protocol.OffsetModifyOrderQuantity:], newQty)
	return buf
}

func marshalDeleteOrder(seq uint32, orderID uint64) []byte {
	buf := make([]byte, protocol.DeleteOrderRecordSize)
	putHeader(buf, protocol.MessageTypeDeleteOrder, protocol.DeleteOrderRecordSize, seq)
	binary.LittleEndian.PutUint64(buf[protocol.OffsetDeleteOrderID:], orderID)
	return buf
}

func marshalTrade(seq uint32, price uint64, qty uint32, side protocol.Side) []byte {
	buf := make([]byte, protocol.TradeRecordSize)
	putHeader(buf, protocol.MessageTypeTrade, protocol.TradeRecordSize, seq)
	binary.LittleEndian.PutUint64(buf[protocol.OffsetTradePrice:], price)
	binary.LittleEndian.PutUint32(buf[protocol.OffsetTradeQuantity:], qty)
	buf[protocol.OffsetTradeSide] = byte(side)
	return buf
}

func marshalSnapshot(seq uint32, bids, asks [][2]uint64) []byte {
	size := protocol.SnapshotRecordSize(uint32(len(bids)), uint32(len(asks)))
	buf := make([]byte, size)
	putHeader(buf, protocol.MessageTypeSnapshot, uint16(size), seq)
	binary.LittleEndian.PutUint32(buf[protocol.OffsetSnapshotNumBids:], uint32(len(bids)))
	binary.LittleEndian.PutUint32(buf[protocol.OffsetSnapshotNumAsks:], uint32(len(asks)))
	off := protocol.SnapshotLevelsOffset
	for _, lvl := range bids {
		binary.LittleEndian.PutUint64(buf[off:], lvl[0])
		binary.LittleEndian.PutUint32(buf[off+8:], uint32(lvl[1]))
		off += protocol.SnapshotLevelSize
	}
	for _, lvl := range asks {
		binary.LittleEndian.PutUint64(buf[off:], lvl[0])
		binary.LittleEndian.PutUint32(buf[off+8:], uint32(lvl[1]))
		off += protocol.SnapshotLevelSize
	}
	return buf
}

func TestDecodeAddOrderRoundTrip(t *testing.T) {
	buf := marshalAddOrder(7, 42, protocol.SideBid, 123_00000000, 500)
	view, consumed, err := decoder.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, protocol.AddOrderRecordSize, consumed)
	assert.Equal(t, protocol.MessageTypeAddOrder, view.MessageType())
	assert.Equal(t, uint32(7), view.Sequence())
	ao := view.AddOrder()
	assert.Equal(t, uint64(42), ao.OrderID())
	assert.Equal(t, protocol.SideBid, ao.Side())
	assert.Equal(t, uint64(123_00000000), ao.Price())
	assert.Equal(t, uint32(500), ao.Quantity())
}

func TestDecodeModifyOrderRoundTrip(t *testing.T) {
	buf := marshalModifyOrder(9, 11, 77)
	view, consumed, err := decoder.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, protocol.ModifyOrderRecordSize, consumed)
	mo := view.ModifyOrder()
	assert.Equal(t, uint64(11), mo.OrderID())
	assert.Equal(t, uint32(77), mo.NewQuantity())
}

func TestDecodeDeleteOrderRoundTrip(t *testing.T) {
	buf := marshalDeleteOrder(3, 99)
	view, consumed, err := decoder.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, protocol.DeleteOrderRecordSize, consumed)
	assert.Equal(t, uint64(99), view.DeleteOrder().OrderID())
}

func TestDecodeTradeRoundTrip(t *testing.T) {
	buf := marshalTrade(4, 555, 10, protocol.SideAsk)
	view, consumed, err := decoder.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, protocol.TradeRecordSize, consumed)
	tr := view.Trade()
	assert.Equal(t, uint64(555), tr.Price())
	assert.Equal(t, uint32(10), tr.Quantity())
	assert.Equal(t, protocol.SideAsk, tr.Side())
}

func TestDecodeSnapshotRoundTrip(t *testing.T) {
	bids := [][2]uint64{{100, 5}, {99, 10}}
	asks := [][2]uint64{{101, 3}}
	buf := marshalSnapshot(1, bids, asks)
	view, consumed, err := decoder.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), consumed)
	snap := view.Snapshot()
	require.Equal(t, uint32(2), snap.NumBids())
	require.Equal(t, uint32(1), snap.NumAsks())

	p, q := snap.BidLevel(0)
	assert.Equal(t, uint64(100), p)
	assert.Equal(t, uint32(5), q)
	p, q = snap.BidLevel(1)
	assert.Equal(t, uint64(99), p)
	assert.Equal(t, uint32(10), q)
	p, q = snap.AskLevel(0)
	assert.Equal(t, uint64(101), p)
	assert.Equal(t, uint32(3), q)
}

func TestDecodeSnapshotEmptyBook(t *testing.T) {
	buf := marshalSnapshot(2, nil, nil)
	view, consumed, err := decoder.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, protocol.SnapshotMinRecordSize, consumed)
	assert.Equal(t, uint32(0), view.Snapshot().NumBids())
	assert.Equal(t, uint32(0), view.Snapshot().NumAsks())
}

// Bounds safety: a buffer shorter than the header, or shorter than the
// record's own declared length, must error rather than read out of
// bounds.
func TestDecodeBufferTooSmall(t *testing.T) {
	_, _, err := decoder.Decode(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, decoder.ErrBufferTooSmall))

	full := marshalAddOrder(1, 1, protocol.SideBid, 1, 1)
	for n := 0; n < len(full); n++ {
		_, _, err := decoder.Decode(full[:n])
		require.Error(t, err, "truncated to %d bytes should error", n)
	}
}

func TestDecodeUnknownMessageType(t *testing.T) {
	buf := marshalAddOrder(1, 1, protocol.SideBid, 1, 1)
	buf[protocol.OffsetMsgType] = 0xFF
	_, _, err := decoder.Decode(buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, decoder.ErrUnknownMessageType))
}

func TestDecodeLengthMismatch(t *testing.T) {
	// Buffer is long enough to cover the (wrong) declared length; only
	// the declared-vs-fixed-size mismatch should fire.
	buf := marshalAddOrder(1, 1, protocol.SideBid, 1, 1)
	buf = append(buf, 0x00)
	binary.LittleEndian.PutUint16(buf[protocol.OffsetLength:], protocol.AddOrderRecordSize+1)
	_, _, err := decoder.Decode(buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, decoder.ErrLengthMismatch))
}

// Bounds safety takes priority over length mismatch: a buffer shorter
// than its own declared length is BufferTooSmall even when that
// declared length is also the wrong fixed size for msgType.
func TestDecodeBufferShorterThanDeclaredTakesPriorityOverLengthMismatch(t *testing.T) {
	buf := marshalAddOrder(1, 1, protocol.SideBid, 1, 1)
	binary.LittleEndian.PutUint16(buf[protocol.OffsetLength:], protocol.AddOrderRecordSize+1)
	_, _, err := decoder.Decode(buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, decoder.ErrBufferTooSmall))
}

func TestDecodeInvalidSideField(t *testing.T) {
	buf := marshalAddOrder(1, 1, protocol.SideBid, 1, 1)
	buf[protocol.OffsetAddOrderSide] = 0x7F
	_, _, err := decoder.Decode(buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, decoder.ErrInvalidField))
}

func TestDecodeSnapshotInconsistentLevelCounts(t *testing.T) {
	buf := marshalSnapshot(1, [][2]uint64{{1, 1}}, nil)
	// Declare one more bid level than the length field actually covers.
	binary.LittleEndian.PutUint32(buf[protocol.OffsetSnapshotNumBids:], 2)
	_, _, err := decoder.Decode(buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, decoder.ErrInvalidField))
}

// DecodeStream decodes a back-to-back run of heterogeneous records and
// stops cleanly once the buffer is exhausted.
func TestDecodeStreamMixedRecords(t *testing.T) {
	var buf []byte
	buf = append(buf, marshalAddOrder(1, 1, protocol.SideBid, 100, 10)...)
	buf = append(buf, marshalModifyOrder(2, 1, 20)...)
	buf = append(buf, marshalDeleteOrder(3, 1)...)
	buf = append(buf, marshalTrade(4, 100, 5, protocol.SideAsk)...)

	var kinds []protocol.MessageType
	n, err := decoder.DecodeStream(buf, func(v decoder.View) bool {
		kinds = append(kinds, v.MessageType())
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []protocol.MessageType{
		protocol.MessageTypeAddOrder,
		protocol.MessageTypeModifyOrder,
		protocol.MessageTypeDeleteOrder,
		protocol.MessageTypeTrade,
	}, kinds)
}

func TestDecodeStreamStopsWhenSinkReturnsFalse(t *testing.T) {
	var buf []byte
	buf = append(buf, marshalAddOrder(1, 1, protocol.SideBid, 100, 10)...)
	buf = append(buf, marshalAddOrder(2, 2, protocol.SideBid, 100, 10)...)

	n, err := decoder.DecodeStream(buf, func(v decoder.View) bool {
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDecodeStreamStopsOnTrailingPartialHeader(t *testing.T) {
	buf := marshalAddOrder(1, 1, protocol.SideBid, 100, 10)
	buf = append(buf, 0x01, 0x02, 0x03) // fewer than HeaderSize trailing bytes

	n, err := decoder.DecodeStream(buf, func(v decoder.View) bool { return true })
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDecodeStreamStopsOnFirstError(t *testing.T) {
	good := marshalAddOrder(1, 1, protocol.SideBid, 100, 10)
	bad := marshalAddOrder(2, 2, protocol.SideBid, 100, 10)
	bad[protocol.OffsetMsgType] = 0xFF
	buf := append(append([]byte{}, good...), bad...)

	n, err := decoder.DecodeStream(buf, func(v decoder.View) bool { return true })
	require.Error(t, err)
	assert.True(t, errors.Is(err, decoder.ErrUnknownMessageType))
	assert.Equal(t, 1, n)
}
