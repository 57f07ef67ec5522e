package syslog

import "time"

// Facility is the RFC 5424 facility enumeration, 0..=23.
type Facility int

// facilityNames is indexed by Facility. Entries 4/10 and 9/15 are
// intentionally duplicated per the published mapping (both code points
// mean "security/authorization" and "clock" respectively).
var facilityNames = [...]string{
	"kernel",
	"user-level",
	"mail",
	"system",
	"security/authorization",
	"syslogd",
	"line printer",
	"network news",
	"UUCP",
	"clock",
	"security/authorization",
	"FTP",
	"NTP",
	"log audit",
	"log alert",
	"clock",
	"local0", "local1", "local2", "local3",
	"local4", "local5", "local6", "local7",
}

// String returns the symbolic facility name, e.g. "local4".
func (f Facility) String() string {
	if f < 0 || int(f) >= len(facilityNames) {
		return "unknown"
	}
	return facilityNames[f]
}

// Severity is the RFC 5424 severity enumeration, 0..=7.
type Severity int

var severityNames = [...]string{
	"Emergency", "Alert", "Critical", "Error",
	"Warning", "Notice", "Informational", "Debug",
}

// String returns the symbolic severity name, first letter capitalized,
// e.g. "Notice".
func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "Unknown"
	}
	return severityNames[s]
}

// MessageKind tags which variant a Message holds.
type MessageKind int

const (
	// MessageNone means the record ended before a message field.
	MessageNone MessageKind = iota
	// MessageString means the payload carried a leading UTF-8 BOM and
	// the remaining bytes decoded as valid UTF-8 text.
	MessageString
	// MessageRaw means the payload had no BOM; the bytes are kept as-is
	// and may or may not be valid UTF-8.
	MessageRaw
)

// Message is the record's optional payload. Its Kind is determined
// solely by the presence of a leading BOM in the wire bytes: absence of
// a BOM never promotes raw bytes to Text.
type Message struct {
	Kind MessageKind
	Text string
	Raw  []byte
}

// SDParam is one key/value parameter of a structured-data element.
type SDParam struct {
	Name  string
	Value string
}

// SDElement is one `[id k="v" ...]` structured-data element. Params
// preserves first-seen order; if the wire form repeats a parameter
// name within one element, the later occurrence's value wins and the
// original position is kept (last-wins, documented per spec).
type SDElement struct {
	ID     string
	Params []SDParam
}

// setParam applies last-wins semantics for duplicate parameter names.
func (e *SDElement) setParam(name, value string) {
	for i := range e.Params {
		if e.Params[i].Name == name {
			e.Params[i].Value = value
			return
		}
	}
	e.Params = append(e.Params, SDParam{Name: name, Value: value})
}

// StructuredData is the sequence of structured-data elements. A nil
// slice means the wire form was the single token "-".
type StructuredData []SDElement

// Record is the result of parsing one RFC 5424 syslog message.
//
// AppName, ProcID, and MsgID use the empty string to mean "absent"
// (the literal "-" on the wire); RFC 5424 field grammar forbids an
// empty token otherwise, so this is an unambiguous sentinel.
type Record struct {
	Facility       Facility
	Severity       Severity
	Timestamp      time.Time
	Hostname       string
	AppName        string
	ProcID         string
	MsgID          string
	StructuredData StructuredData
	Message        Message

	// Processed is the UTC wall-clock time captured when parsing
	// completed. It is the only field not derived purely from the
	// input bytes.
	Processed time.Time
}
