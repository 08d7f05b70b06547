// Package decoder turns raw market-data bytes into typed, borrowed
// views without copying or allocating on the success path.
package decoder

import (
	"encoding/binary"

	"github.com/quantrail/mdcore/internal/protocol"
)

// Decode parses exactly one record from the start of buf and returns a
// View borrowed from buf plus the number of bytes consumed. The
// returned View must not outlive buf.
func Decode(buf []byte) (View, int, error) {
	if len(buf) < protocol.HeaderSize {
		return View{}, 0, &Error{Kind: ErrorKindBufferTooSmall, Want: protocol.HeaderSize, Got: len(buf)}
	}

	msgType := protocol.MessageType(buf[protocol.OffsetMsgType])
	if !msgType.Valid() {
		return View{}, 0, &Error{Kind: ErrorKindUnknownMessageType, Offset: protocol.OffsetMsgType, Got: int(buf[protocol.OffsetMsgType])}
	}

	declared := int(binary.LittleEndian.Uint16(buf[protocol.OffsetLength:]))

	// A buffer shorter than the record's own declared length is always
	// BufferTooSmall, even if declared is itself the wrong fixed size
	// for msgType — bounds safety is checked against what the wire
	// actually claims before it's checked against what we expect.
	if len(buf) < declared {
		return View{}, 0, &Error{Kind: ErrorKindBufferTooSmall, Want: declared, Got: len(buf)}
	}

	var wantSize int
	switch msgType {
	case protocol.MessageTypeAddOrder:
		wantSize = protocol.AddOrderRecordSize
	case protocol.MessageTypeModifyOrder:
		wantSize = protocol.ModifyOrderRecordSize
	case protocol.MessageTypeDeleteOrder:
		wantSize = protocol.DeleteOrderRecordSize
	case protocol.MessageTypeTrade:
		wantSize = protocol.TradeRecordSize
	case protocol.MessageTypeSnapshot:
		// Snapshot's size depends on its own header fields. declared is
		// already known to be <= len(buf); checking it against
		// SnapshotMinRecordSize here (rather than reading the fields
		// first) keeps the offset-8..15 read below within bounds.
		if declared < protocol.SnapshotMinRecordSize {
			return View{}, 0, &Error{Kind: ErrorKindLengthMismatch, Want: protocol.SnapshotMinRecordSize, Got: declared}
		}
		numBids := binary.LittleEndian.Uint32(buf[protocol.OffsetSnapshotNumBids:])
		numAsks := binary.LittleEndian.Uint32(buf[protocol.OffsetSnapshotNumAsks:])
		// Computed in uint64 so that large level counts cannot wrap
		// around to a small, plausible-looking size.
		want := uint64(protocol.SnapshotMinRecordSize) + uint64(protocol.SnapshotLevelSize)*(uint64(numBids)+uint64(numAsks))
		if want > 0xFFFF || uint64(declared) != want {
			return View{}, 0, &Error{Kind: ErrorKindInvalidField, Offset: protocol.OffsetSnapshotNumBids}
		}
		wantSize = int(want)
	}

	if msgType != protocol.MessageTypeSnapshot && declared != wantSize {
		return View{}, 0, &Error{Kind: ErrorKindLengthMismatch, Want: wantSize, Got: declared}
	}

	record := buf[:wantSize]

	switch msgType {
	case protocol.MessageTypeAddOrder:
		side := protocol.Side(record[protocol.OffsetAddOrderSide])
		if !side.Valid() {
			return View{}, 0, &Error{Kind: ErrorKindInvalidField, Offset: protocol.OffsetAddOrderSide}
		}
	case protocol.MessageTypeTrade:
		side := protocol.Side(record[protocol.OffsetTradeSide])
		if !side.Valid() {
			return View{}, 0, &Error{Kind: ErrorKindInvalidField, Offset: protocol.OffsetTradeSide}
		}
	}

	return View{buf: record}, wantSize, nil
}

// DecodeStream repeatedly decodes records from the start of buf,
// invoking sink with each successfully-decoded View. It stops when sink
// returns false, when fewer than 8 bytes remain, or on the first
// decode error, and returns the number of records sink accepted (the
// record for which sink returns false is not counted).
func DecodeStream(buf []byte, sink func(View) bool) (int, error) {
	count := 0
	for len(buf) >= protocol.HeaderSize {
		view, consumed, err := Decode(buf)
		if err != nil {
			return count, err
		}
		if !sink(view) {
			return count, nil
		}
		count++
		buf = buf[consumed:]
	}
	return count, nil
}
