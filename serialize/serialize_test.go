package serialize

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"logpipe/syslog"
	"logpipe/syslogevent"
)

func sampleRecord() syslog.Record {
	ts, _ := time.Parse(time.RFC3339Nano, "2003-10-11T22:14:15.003Z")
	return syslog.Record{
		Facility:  20,
		Severity:  5,
		Timestamp: ts,
		Hostname:  "mymachine.example.com",
		AppName:   "evntslog",
		MsgID:     "ID47",
		Message:   syslog.Message{Kind: syslog.MessageRaw, Raw: []byte("foobar")},
		Processed: ts,
	}
}

func TestEventSerializesExpectedFields(t *testing.T) {
	ad := syslogevent.New(sampleRecord())
	var buf bytes.Buffer
	if err := Event(&buf, ad); err != nil {
		t.Fatalf("Event: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output not valid JSON: %v\n%s", err, buf.String())
	}
	if got["id"] != "ID47" {
		t.Errorf("id = %v, want ID47", got["id"])
	}
	if got["source"] != "mymachine.example.com" {
		t.Errorf("source = %v", got["source"])
	}
	if _, hasMessage := got["message"]; hasMessage {
		t.Error("raw-bytes payload must serialize as data, not message")
	}
	data, ok := got["data"].([]any)
	if !ok || len(data) != 6 {
		t.Errorf("data = %v, want 6-element byte array", got["data"])
	}
	if got["logsource"] != "mymachine.example.com" || got["severity"] != "Notice" || got["facility"] != "local4" {
		t.Errorf("meta fields = %v", got)
	}
}

func TestLogstashSerializesExpectedFields(t *testing.T) {
	ad := syslogevent.New(sampleRecord())
	var buf bytes.Buffer
	if err := Logstash(&buf, ad); err != nil {
		t.Fatalf("Logstash: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output not valid JSON: %v\n%s", err, buf.String())
	}
	if got["@version"] != "1" {
		t.Errorf("@version = %v, want \"1\"", got["@version"])
	}
	if got["type"] != "syslog" {
		t.Errorf("type = %v, want \"syslog\"", got["type"])
	}
	tags, ok := got["tags"].([]any)
	if !ok || len(tags) != 1 || tags[0] != "class:syslog" {
		t.Errorf("tags = %v", got["tags"])
	}
	if got["@id"] != "ID47" {
		t.Errorf("@id = %v, want ID47", got["@id"])
	}
	if got["program"] != "evntslog" {
		t.Errorf("program = %v, want evntslog", got["program"])
	}
}

func TestEventStringMessageSerializesAsMessageField(t *testing.T) {
	rec := sampleRecord()
	rec.Message = syslog.Message{Kind: syslog.MessageString, Text: "foobar"}
	ad := syslogevent.New(rec)

	var buf bytes.Buffer
	if err := Event(&buf, ad); err != nil {
		t.Fatalf("Event: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if got["message"] != "foobar" {
		t.Errorf("message = %v, want foobar", got["message"])
	}
	if _, hasData := got["data"]; hasData {
		t.Error("string payload must not also serialize as data")
	}
}
