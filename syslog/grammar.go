package syslog

import (
	"bytes"
	"time"
)

// bom is the UTF-8 byte-order mark that RFC 5424 mandates as the signal
// for a UTF-8 message payload.
var bom = []byte{0xEF, 0xBB, 0xBF}

// ParseRecord parses one complete RFC 5424 record out of frame.
//
// frame must already be isolated from its transport framing (see
// OctetFramer and LineFramer); ParseRecord never looks for a frame
// terminator of its own.
//
// Go strings are immutable, so each string field is copied out of frame
// rather than borrowed; only the raw-bytes Message variant reuses
// frame's backing array's contents via an explicit copy. This is a
// deliberate allocation cost against the zero-copy ideal described for
// languages with borrow checking.
func ParseRecord(frame []byte) (Record, error) {
	var rec Record

	i, pri, err := parsePriorityAndVersion(frame)
	if err != nil {
		return Record{}, err
	}
	rec.Facility = Facility(pri >> 3)
	rec.Severity = Severity(pri & 7)

	ts, i, err := parseField(frame, i, ErrTimestamp, parseTimestamp)
	if err != nil {
		return Record{}, err
	}
	rec.Timestamp = ts

	host, i, err := parseToken(frame, i)
	if err != nil {
		return Record{}, newGrammarError(ErrHostname)
	}
	if host == "-" || host == "" {
		return Record{}, newGrammarError(ErrHostname)
	}
	rec.Hostname = host

	if rec.AppName, i, err = parseOptionalToken(frame, i, ErrAppName); err != nil {
		return Record{}, err
	}
	if rec.ProcID, i, err = parseOptionalToken(frame, i, ErrProcID); err != nil {
		return Record{}, err
	}
	if rec.MsgID, i, err = parseOptionalToken(frame, i, ErrMsgID); err != nil {
		return Record{}, err
	}

	sd, i, err := parseStructuredData(frame, i)
	if err != nil {
		return Record{}, err
	}
	rec.StructuredData = sd

	msg, err := parseMessage(frame[i:])
	if err != nil {
		return Record{}, err
	}
	rec.Message = msg

	rec.Processed = time.Now().UTC()
	return rec, nil
}

// parsePriorityAndVersion consumes "<NNN>1 " and returns the index of
// the first byte of the timestamp field along with the decoded PRI
// value.
func parsePriorityAndVersion(data []byte) (next int, pri int, err error) {
	if len(data) == 0 || data[0] != '<' {
		return 0, 0, newGrammarError(ErrPriority)
	}
	end := 1
	for end < len(data) && data[end] != '>' {
		end++
	}
	if end >= len(data) || end == 1 || end-1 > 3 {
		return 0, 0, newGrammarError(ErrPriority)
	}
	priVal, convErr := parseUint8(data[1:end])
	if convErr != nil || priVal > 191 {
		return 0, 0, newGrammarError(ErrPriority)
	}
	pri = int(priVal)

	i := end + 1 // skip '>'
	if i >= len(data) || data[i] != '1' {
		return 0, 0, newGrammarError(ErrPriority)
	}
	i++
	if i >= len(data) || data[i] != ' ' {
		return 0, 0, newGrammarError(ErrPriority)
	}
	return i + 1, pri, nil
}

// parseField extracts the space-terminated token starting at i and runs
// decode over it, wrapping any failure as a GrammarError of kind.
func parseField[T any](data []byte, i int, kind ErrorKind, decode func([]byte) (T, error)) (T, int, error) {
	var zero T
	tok, next, ok := nextToken(data, i)
	if !ok {
		return zero, 0, newGrammarError(kind)
	}
	v, err := decode(tok)
	if err != nil {
		return zero, 0, newGrammarError(kind)
	}
	return v, next, nil
}

// parseToken extracts the space-terminated token starting at i as a
// plain string, without nil/absent handling.
func parseToken(data []byte, i int) (string, int, error) {
	tok, next, ok := nextToken(data, i)
	if !ok {
		return "", 0, errInvalidUTF8
	}
	s, err := parseString(tok)
	if err != nil {
		return "", 0, err
	}
	return s, next, nil
}

// parseOptionalToken extracts a space-terminated token, mapping the
// literal "-" to the empty (absent) string.
func parseOptionalToken(data []byte, i int, kind ErrorKind) (string, int, error) {
	tok, next, ok := nextToken(data, i)
	if !ok {
		return "", 0, newGrammarError(kind)
	}
	if len(tok) == 1 && tok[0] == '-' {
		return "", next, nil
	}
	s, err := parseString(tok)
	if err != nil {
		return "", 0, newGrammarError(kind)
	}
	if s == "" {
		return "", 0, newGrammarError(kind)
	}
	return s, next, nil
}

// nextToken returns the bytes from i up to (not including) the next
// space, and the index just past that space (or len(data) if the token
// runs to the end of the frame). ok is false if i is already past the
// end of data.
func nextToken(data []byte, i int) (tok []byte, next int, ok bool) {
	if i > len(data) {
		return nil, 0, false
	}
	j := i
	for j < len(data) && data[j] != ' ' {
		j++
	}
	tok = data[i:j]
	if j < len(data) {
		return tok, j + 1, true
	}
	return tok, j, true
}

// parseStructuredData parses the STRUCTURED-DATA field starting at i and
// returns the index of the first byte of the message region (which may
// equal len(data) if there is no message).
func parseStructuredData(data []byte, i int) (StructuredData, int, error) {
	if i >= len(data) {
		return nil, 0, newGrammarError(ErrStructuredDataElement)
	}

	if data[i] == '-' {
		i++
		if i >= len(data) {
			return nil, i, nil
		}
		if data[i] != ' ' {
			return nil, 0, newGrammarError(ErrStructuredDataElement)
		}
		return nil, i + 1, nil
	}

	if data[i] != '[' {
		return nil, 0, newGrammarError(ErrStructuredDataElement)
	}

	var sd StructuredData
	for i < len(data) && data[i] == '[' {
		elem, next, err := parseSDElement(data, i)
		if err != nil {
			return nil, 0, err
		}
		sd = append(sd, elem)
		i = next
	}

	if i >= len(data) {
		return sd, i, nil
	}
	if data[i] != ' ' {
		return nil, 0, newGrammarError(ErrStructuredDataElement)
	}
	return sd, i + 1, nil
}

// parseSDElement parses one "[id k=\"v\" ...]" element starting at
// data[i] == '[' and returns the index just past the closing ']'.
func parseSDElement(data []byte, i int) (SDElement, int, error) {
	i++ // skip '['
	start := i
	for i < len(data) && data[i] != ' ' && data[i] != ']' {
		i++
	}
	if i >= len(data) || i == start {
		return SDElement{}, 0, newGrammarError(ErrStructuredDataElement)
	}
	elem := SDElement{ID: string(data[start:i])}

	for {
		if i < len(data) && data[i] == ']' {
			return elem, i + 1, nil
		}
		if i >= len(data) || data[i] != ' ' {
			return SDElement{}, 0, newGrammarError(ErrStructuredDataElement)
		}
		i++ // skip separating space
		if i < len(data) && data[i] == ']' {
			return elem, i + 1, nil
		}

		nameStart := i
		for i < len(data) && data[i] != '=' {
			i++
		}
		if i >= len(data) || i == nameStart {
			return SDElement{}, 0, newGrammarError(ErrStructuredDataParam)
		}
		name := string(data[nameStart:i])
		i++ // skip '='

		if i >= len(data) || data[i] != '"' {
			return SDElement{}, 0, newGrammarError(ErrStructuredDataParam)
		}
		i++ // skip opening quote

		var val []byte
		for {
			if i >= len(data) {
				return SDElement{}, 0, newGrammarError(ErrStructuredDataParam)
			}
			c := data[i]
			if c == '\\' {
				if i+1 >= len(data) {
					return SDElement{}, 0, newGrammarError(ErrStructuredDataParam)
				}
				switch data[i+1] {
				case '"', '\\', ']':
					val = append(val, data[i+1])
					i += 2
					continue
				default:
					return SDElement{}, 0, newGrammarError(ErrStructuredDataParam)
				}
			}
			if c == '"' {
				i++
				break
			}
			val = append(val, c)
			i++
		}
		elem.setParam(name, string(val))
	}
}

// parseMessage decodes the optional message payload. An empty payload
// means the frame ended with a space but no bytes following (treated
// the same as "no message at all").
func parseMessage(payload []byte) (Message, error) {
	if len(payload) == 0 {
		return Message{Kind: MessageNone}, nil
	}
	if bytes.HasPrefix(payload, bom) {
		text := payload[len(bom):]
		s, err := parseString(text)
		if err != nil {
			return Message{}, newGrammarError(ErrPayloadEncoding)
		}
		return Message{Kind: MessageString, Text: s}, nil
	}
	raw := make([]byte, len(payload))
	copy(raw, payload)
	return Message{Kind: MessageRaw, Raw: raw}, nil
}
