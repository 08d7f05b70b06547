package decoder

import "fmt"

// ErrorKind enumerates the decoder's framing-error taxonomy.
// Every decode failure is one of these four kinds; there is no
// catch-all.
type ErrorKind uint8

const (
	// ErrorKindBufferTooSmall means buf is shorter than the 8-byte
	// header, or shorter than the record's own declared length.
	ErrorKindBufferTooSmall ErrorKind = iota + 1
	// ErrorKindUnknownMessageType means the header's msg_type byte is
	// not one of the five known kinds.
	ErrorKindUnknownMessageType
	// ErrorKindLengthMismatch means the declared length doesn't match
	// the fixed size for the message's kind (or, for Snapshot, is below
	// the 16-byte minimum; a Snapshot length that doesn't match
	// 16 + 16*(num_bids+num_asks) is ErrorKindInvalidField).
	ErrorKindLengthMismatch
	// ErrorKindInvalidField means a field's value is wire-well-formed
	// but semantically impossible at the framing level (an out-of-range
	// side byte, or a num_bids/num_asks that makes the declared length
	// inconsistent with itself).
	ErrorKindInvalidField
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindBufferTooSmall:
		return "BufferTooSmall"
	case ErrorKindUnknownMessageType:
		return "UnknownMessageType"
	case ErrorKindLengthMismatch:
		return "LengthMismatch"
	case ErrorKindInvalidField:
		return "InvalidField"
	default:
		return "Unknown"
	}
}

// Error is the decoder's error type. It carries just enough context to
// be useful in a log line without allocating a details map or capturing
// a stack frame on every malformed record — this sits on the decode
// hot path.
type Error struct {
	Kind ErrorKind
	// Offset is the byte offset into the input slice where the problem
	// was detected (0 for whole-buffer-size failures).
	Offset int
	// Want and Got carry the expected/actual value relevant to Kind,
	// when applicable (e.g. expected vs. declared record length).
	Want, Got int
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrorKindBufferTooSmall:
		return fmt.Sprintf("decoder: buffer too small: want at least %d bytes, got %d", e.Want, e.Got)
	case ErrorKindUnknownMessageType:
		return fmt.Sprintf("decoder: unknown message type %d at offset %d", e.Got, e.Offset)
	case ErrorKindLengthMismatch:
		return fmt.Sprintf("decoder: length mismatch: want %d, declared %d", e.Want, e.Got)
	case ErrorKindInvalidField:
		return fmt.Sprintf("decoder: invalid field at offset %d", e.Offset)
	default:
		return "decoder: error"
	}
}

// Is supports errors.Is(err, target) comparisons by Kind, so callers can
// write errors.Is(err, decoder.ErrBufferTooSmall) without type-asserting.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel errors for use with errors.Is. Only Kind is compared.
var (
	ErrBufferTooSmall     = &Error{Kind: ErrorKindBufferTooSmall}
	ErrUnknownMessageType = &Error{Kind: ErrorKindUnknownMessageType}
	ErrLengthMismatch     = &Error{Kind: ErrorKindLengthMismatch}
	ErrInvalidField       = &Error{Kind: ErrorKindInvalidField}
)
