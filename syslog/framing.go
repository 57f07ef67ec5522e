package syslog

import (
	"bytes"
	"strconv"

	"logpipe/decode"
)

// DefaultMaxMessageSize bounds how large a single octet-counted frame's
// declared length may be before OctetFramer refuses it outright. This
// resolves an open question left by the wire grammar, which places no
// explicit ceiling on the length prefix: an unbounded length field lets
// one connection force an arbitrarily large buffer allocation.
const DefaultMaxMessageSize = 1 << 20 // 1 MiB

// OctetFramer implements decode.Decoder[[]byte] for RFC 5425
// octet-counted framing: an ASCII decimal length, a single space, then
// exactly that many bytes.
//
// A corrupted length field poisons every byte that follows it, so
// OctetFramer does not implement decode.Recoverer; a framing error ends
// the stream.
type OctetFramer struct {
	// MaxMessageSize caps the accepted length prefix. Zero means
	// DefaultMaxMessageSize.
	MaxMessageSize uint32
}

func (f *OctetFramer) maxSize() uint32 {
	if f.MaxMessageSize == 0 {
		return DefaultMaxMessageSize
	}
	return f.MaxMessageSize
}

// Decode implements decode.Decoder[[]byte].
func (f *OctetFramer) Decode(buf *bytes.Buffer) ([]byte, bool, error) {
	b := buf.Bytes()

	sp := bytes.IndexByte(b, ' ')
	if sp < 0 {
		if len(b) > 10 {
			// A decimal uint32 never exceeds 10 digits; this many bytes
			// with no space means the length prefix itself is malformed.
			return nil, false, &FramingError{Desc: "frame length prefix exceeds 10 digits"}
		}
		return nil, false, nil
	}
	if sp == 0 {
		return nil, false, &FramingError{Desc: "empty frame length prefix"}
	}

	n, err := strconv.ParseUint(string(b[:sp]), 10, 32)
	if err != nil {
		return nil, false, &FramingError{Desc: "frame length prefix is not a decimal integer"}
	}
	if uint32(n) > f.maxSize() {
		return nil, false, &FramingError{Desc: "frame length exceeds configured maximum"}
	}

	need := sp + 1 + int(n)
	if len(b) < need {
		return nil, false, nil
	}

	frame := make([]byte, n)
	copy(frame, b[sp+1:need])
	buf.Next(need)
	return frame, true, nil
}

// LineFramer implements decode.Decoder[[]byte] for newline framing:
// bytes up to (but not including) the next 0x0A form one record, and
// the newline is consumed.
type LineFramer struct{}

// Decode implements decode.Decoder[[]byte].
func (LineFramer) Decode(buf *bytes.Buffer) ([]byte, bool, error) {
	b := buf.Bytes()
	nl := bytes.IndexByte(b, '\n')
	if nl < 0 {
		return nil, false, nil
	}
	frame := make([]byte, nl)
	copy(frame, b[:nl])
	buf.Next(nl + 1)
	return frame, true, nil
}

// Recover discards bytes up to and including the next 0x0A, which is a
// valid resynchronization point even if what preceded it was garbage.
// It reports false, discarding nothing, when buf holds no newline.
func (LineFramer) Recover(buf *bytes.Buffer) bool {
	b := buf.Bytes()
	nl := bytes.IndexByte(b, '\n')
	if nl < 0 {
		return false
	}
	buf.Next(nl + 1)
	return true
}

var escapedNewline = []byte("#012")

// rehydrateNewlines rewrites every literal "#012" in s to "\n". It only
// ever applies to MessageString payloads decoded under newline framing,
// per the framing-specific rewrite rule.
func rehydrateNewlines(s string) string {
	if !bytes.Contains([]byte(s), escapedNewline) {
		return s
	}
	return string(bytes.ReplaceAll([]byte(s), escapedNewline, []byte{'\n'}))
}

// RecordDecoder composes a frame-level Decoder with ParseRecord into a
// single decode.Decoder[Record]. Newline is the only framing that
// rehydrates escaped newlines in a String message; Newline records
// whether that rule applies.
type RecordDecoder struct {
	Framing decode.Decoder[[]byte]
	Newline bool

	// frameDropped is set when the last Decode consumed a frame that
	// then failed to parse.
	frameDropped bool
}

// NewOctetRecordDecoder builds a RecordDecoder over RFC 5425
// octet-counted framing.
func NewOctetRecordDecoder(maxMessageSize uint32) *RecordDecoder {
	return &RecordDecoder{Framing: &OctetFramer{MaxMessageSize: maxMessageSize}}
}

// NewLineRecordDecoder builds a RecordDecoder over newline framing.
func NewLineRecordDecoder() *RecordDecoder {
	return &RecordDecoder{Framing: LineFramer{}, Newline: true}
}

// Decode implements decode.Decoder[Record].
func (d *RecordDecoder) Decode(buf *bytes.Buffer) (Record, bool, error) {
	frame, ok, err := d.Framing.Decode(buf)
	if err != nil || !ok {
		return Record{}, ok, err
	}

	rec, err := ParseRecord(frame)
	if err != nil {
		d.frameDropped = true
		return Record{}, false, err
	}

	if d.Newline && rec.Message.Kind == MessageString {
		rec.Message.Text = rehydrateNewlines(rec.Message.Text)
	}
	return rec, true, nil
}

// Recover resynchronizes after a Decode error. Under newline framing a
// frame that failed to parse has already been consumed, so buf already
// starts at the next record and nothing more is discarded. Otherwise it
// delegates to the underlying framing's Recoverer, if any.
func (d *RecordDecoder) Recover(buf *bytes.Buffer) bool {
	if d.Newline && d.frameDropped {
		d.frameDropped = false
		return true
	}
	rec, ok := d.Framing.(decode.Recoverer)
	if !ok {
		return false
	}
	return rec.Recover(buf)
}

// autoRecordDecoder detects octet-counted vs newline framing from the
// first byte of the stream and then sticks with that choice for the
// rest of the connection. The two wire forms are unambiguous at that
// first byte: an octet-counted frame always opens with a decimal
// digit (the length prefix), while a syslog record always opens with
// '<' (the PRI field) — newline framing never has anything ahead of
// that '<'.
type autoRecordDecoder struct {
	maxMessageSize uint32
	chosen         *RecordDecoder
}

// NewAutoRecordDecoder builds a decode.Decoder[Record] that detects
// octet-counted vs newline framing from the stream itself.
func NewAutoRecordDecoder(maxMessageSize uint32) decode.Decoder[Record] {
	return &autoRecordDecoder{maxMessageSize: maxMessageSize}
}

func (d *autoRecordDecoder) Decode(buf *bytes.Buffer) (Record, bool, error) {
	if d.chosen == nil {
		b := buf.Bytes()
		if len(b) == 0 {
			return Record{}, false, nil
		}
		switch {
		case b[0] == '<':
			d.chosen = NewLineRecordDecoder()
		case b[0] >= '0' && b[0] <= '9':
			d.chosen = NewOctetRecordDecoder(d.maxMessageSize)
		default:
			return Record{}, false, &FramingError{Desc: "frame starts with neither a digit nor '<'"}
		}
	}
	return d.chosen.Decode(buf)
}

func (d *autoRecordDecoder) Recover(buf *bytes.Buffer) bool {
	if d.chosen == nil {
		return false
	}
	return d.chosen.Recover(buf)
}
