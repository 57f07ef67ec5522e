// Package serialize writes event.Event and event.LogstashEvent values
// as JSON directly to a caller-supplied sink, without building an
// intermediate string or struct.
package serialize

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"logpipe/event"
)

// jsonWriter is a minimal hand-rolled streaming JSON object writer. It
// tracks only whether a comma is owed before the next field; actual
// string escaping is delegated to encoding/json, since no third-party
// streaming JSON encoder is available anywhere in the dependency
// surface this module draws on.
type jsonWriter struct {
	w     io.Writer
	wrote bool
	err   error
}

func newJSONWriter(w io.Writer) *jsonWriter { return &jsonWriter{w: w} }

func (j *jsonWriter) open() {
	if j.err != nil {
		return
	}
	_, j.err = io.WriteString(j.w, "{")
}

func (j *jsonWriter) close() {
	if j.err != nil {
		return
	}
	_, j.err = io.WriteString(j.w, "}")
}

func (j *jsonWriter) comma() {
	if j.wrote {
		if j.err == nil {
			_, j.err = io.WriteString(j.w, ",")
		}
	}
	j.wrote = true
}

func (j *jsonWriter) key(name string) {
	if j.err != nil {
		return
	}
	j.comma()
	j.writeString(name)
	if j.err == nil {
		_, j.err = io.WriteString(j.w, ":")
	}
}

func (j *jsonWriter) writeString(s string) {
	if j.err != nil {
		return
	}
	b, err := json.Marshal(s)
	if err != nil {
		j.err = err
		return
	}
	_, j.err = j.w.Write(b)
}

func (j *jsonWriter) stringField(name, value string) {
	j.key(name)
	j.writeString(value)
}

func (j *jsonWriter) stringArrayField(name string, values []string) {
	j.key(name)
	if j.err != nil {
		return
	}
	if _, err := io.WriteString(j.w, "["); err != nil {
		j.err = err
		return
	}
	for i, v := range values {
		if i > 0 {
			if _, err := io.WriteString(j.w, ","); err != nil {
				j.err = err
				return
			}
		}
		j.writeString(v)
		if j.err != nil {
			return
		}
	}
	_, j.err = io.WriteString(j.w, "]")
}

func (j *jsonWriter) byteArrayField(name string, data []byte) {
	j.key(name)
	if j.err != nil {
		return
	}
	if _, err := io.WriteString(j.w, "["); err != nil {
		j.err = err
		return
	}
	for i, b := range data {
		if i > 0 {
			if _, err := io.WriteString(j.w, ","); err != nil {
				j.err = err
				return
			}
		}
		if _, err := fmt.Fprintf(j.w, "%d", b); err != nil {
			j.err = err
			return
		}
	}
	_, j.err = io.WriteString(j.w, "]")
}

// writeMeta writes one MetaIter's entries as trailing top-level fields,
// pulling one entry at a time rather than collecting them first.
func (j *jsonWriter) writeMeta(it event.MetaIter) {
	for j.err == nil {
		entry, ok := it.Next()
		if !ok {
			return
		}
		j.writeMetaEntry(entry)
	}
}

func (j *jsonWriter) writeMetaEntry(entry event.MetaEntry) {
	j.key(entry.Name)
	if j.err != nil {
		return
	}
	switch entry.Value.Kind {
	case event.MetaString:
		j.writeString(entry.Value.String)
	case event.MetaUint64:
		_, j.err = fmt.Fprintf(j.w, "%d", entry.Value.Uint64)
	case event.MetaObject:
		if _, err := io.WriteString(j.w, "{"); err != nil {
			j.err = err
			return
		}
		nested := &jsonWriter{w: j.w}
		nested.writeMeta(entry.Value.Object)
		j.err = nested.err
		if j.err != nil {
			return
		}
		_, j.err = io.WriteString(j.w, "}")
	}
}

// Event writes ev as JSON: id, source, timestamp, then message or
// data, then each meta entry in iteration order.
func Event(w io.Writer, ev event.Event) error {
	j := newJSONWriter(w)
	j.open()
	j.stringField("id", ev.ID())
	j.stringField("source", ev.Source())
	j.stringField("timestamp", formatRFC3339(ev.Timestamp()))

	switch p := ev.Payload(); p.Kind {
	case event.PayloadString:
		j.stringField("message", p.Text)
	case event.PayloadData:
		j.byteArrayField("data", p.Data)
	}

	j.writeMeta(ev.Meta())
	j.close()
	return j.err
}

// Logstash writes ev as a Logstash-compatible JSON envelope:
// @timestamp, @version, message (if present), type, tags, @processed,
// @id, then each field from LogstashEvent::Fields.
func Logstash(w io.Writer, ev event.LogstashEvent) error {
	j := newJSONWriter(w)
	j.open()
	j.stringField("@timestamp", formatRFC3339(ev.EventTimestamp()))
	j.stringField("@version", ev.Version())
	if msg, ok := ev.Message(); ok {
		j.stringField("message", msg)
	}
	j.stringField("type", ev.EventType())
	j.stringArrayField("tags", ev.Tags())
	j.stringField("@processed", formatRFC3339(ev.Processed()))
	j.stringField("@id", ev.ID())

	j.writeMeta(ev.Fields())
	j.close()
	return j.err
}

// formatRFC3339 renders t in UTC with millisecond precision; per the
// resolved zero-offset convention, a UTC instant always renders with
// the "Z" suffix rather than "+00:00".
func formatRFC3339(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
