// Package syslogevent projects a parsed syslog record (C2's
// syslog.Record) into the event.Event and event.LogstashEvent
// capability sets (C5).
package syslogevent

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	"logpipe/event"
	"logpipe/syslog"
)

// Adapter wraps one syslog.Record and satisfies both event.Event and
// event.LogstashEvent. The generated fallback ID (used when MsgID is
// absent) is computed once at construction so repeated calls to ID
// return the same value rather than minting a fresh UUID each time.
type Adapter struct {
	rec syslog.Record
	id  string
}

// New builds an Adapter over rec.
func New(rec syslog.Record) *Adapter {
	return &Adapter{rec: rec, id: fallbackOrMsgID(rec)}
}

func fallbackOrMsgID(rec syslog.Record) string {
	if rec.MsgID != "" {
		return rec.MsgID
	}
	raw := uuid.New()
	return hex.EncodeToString(raw[:])
}

// ID returns msg_id when present, else the v4 UUID generated at
// construction, rendered as a dash-free hex string.
func (a *Adapter) ID() string { return a.id }

// Source returns the record's hostname.
func (a *Adapter) Source() string { return a.rec.Hostname }

// Timestamp returns the record's timestamp converted to UTC.
func (a *Adapter) Timestamp() time.Time { return a.rec.Timestamp.UTC() }

// Payload projects the record's message to event.Payload.
func (a *Adapter) Payload() event.Payload {
	switch a.rec.Message.Kind {
	case syslog.MessageString:
		return event.Payload{Kind: event.PayloadString, Text: a.rec.Message.Text}
	case syslog.MessageRaw:
		return event.Payload{Kind: event.PayloadData, Data: a.rec.Message.Raw}
	default:
		return event.Payload{Kind: event.PayloadNone}
	}
}

// Meta yields, in order: logsource, severity, facility, then optional
// program and pid. It is shared between the Event and LogstashEvent
// capability sets — the spec gives LogstashEvent::fields the same
// content as the generic meta sequence, under a different name.
func (a *Adapter) Meta() event.MetaIter {
	entries := make([]event.MetaEntry, 0, 5)
	entries = append(entries,
		event.MetaEntry{Name: "logsource", Value: event.MetaValue{Kind: event.MetaString, String: a.rec.Hostname}},
		event.MetaEntry{Name: "severity", Value: event.MetaValue{Kind: event.MetaString, String: a.rec.Severity.String()}},
		event.MetaEntry{Name: "facility", Value: event.MetaValue{Kind: event.MetaString, String: a.rec.Facility.String()}},
	)
	if a.rec.AppName != "" {
		entries = append(entries, event.MetaEntry{Name: "program", Value: event.MetaValue{Kind: event.MetaString, String: a.rec.AppName}})
	}
	if a.rec.ProcID != "" {
		entries = append(entries, event.MetaEntry{Name: "pid", Value: event.MetaValue{Kind: event.MetaString, String: a.rec.ProcID}})
	}
	return event.NewSliceMetaIter(entries)
}

// EventTimestamp returns the record's timestamp converted to UTC, for
// the LogstashEvent capability set's @timestamp field.
func (a *Adapter) EventTimestamp() time.Time { return a.Timestamp() }

// Version is always "1", the only Logstash envelope version this
// adapter emits.
func (a *Adapter) Version() string { return "1" }

// Message returns the UTF-8 form of the payload. A MessageRaw payload
// is lossily decoded; this is an explicit, one-way projection, never
// used to reconstruct the original bytes.
func (a *Adapter) Message() (string, bool) {
	switch a.rec.Message.Kind {
	case syslog.MessageString:
		return a.rec.Message.Text, true
	case syslog.MessageRaw:
		return strings.ToValidUTF8(string(a.rec.Message.Raw), "�"), true
	default:
		return "", false
	}
}

// EventType is always "syslog".
func (a *Adapter) EventType() string { return "syslog" }

// Tags is always ["class:syslog"].
func (a *Adapter) Tags() []string { return []string{"class:syslog"} }

// Processed returns the UTC time ParseRecord captured at parse
// completion.
func (a *Adapter) Processed() time.Time { return a.rec.Processed }

// Fields is an alias for Meta under the LogstashEvent capability set's
// naming.
func (a *Adapter) Fields() event.MetaIter { return a.Meta() }

var (
	_ event.Event         = (*Adapter)(nil)
	_ event.LogstashEvent = (*Adapter)(nil)
)
