package syslog

import (
	"testing"
	"time"
)

func TestParseRecordBasic(t *testing.T) {
	frame := []byte("<165>1 2003-10-11T22:14:15.003Z mymachine.example.com evntslog - ID47 - foobar")
	rec, err := ParseRecord(frame)
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	if rec.Facility != 20 {
		t.Errorf("facility = %d, want 20 (local4)", rec.Facility)
	}
	if rec.Severity != 5 {
		t.Errorf("severity = %d, want 5 (notice)", rec.Severity)
	}
	wantTS, _ := time.Parse(time.RFC3339Nano, "2003-10-11T22:14:15.003Z")
	if !rec.Timestamp.Equal(wantTS) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp, wantTS)
	}
	if rec.Hostname != "mymachine.example.com" {
		t.Errorf("hostname = %q", rec.Hostname)
	}
	if rec.AppName != "evntslog" {
		t.Errorf("app_name = %q", rec.AppName)
	}
	if rec.ProcID != "" {
		t.Errorf("proc_id = %q, want absent", rec.ProcID)
	}
	if rec.MsgID != "ID47" {
		t.Errorf("msg_id = %q", rec.MsgID)
	}
	if rec.StructuredData != nil {
		t.Errorf("structured_data = %v, want absent", rec.StructuredData)
	}
	if rec.Message.Kind != MessageRaw || rec.Message.Raw == nil || string(rec.Message.Raw) != "foobar" {
		t.Errorf("message = %+v, want MessageRaw(\"foobar\")", rec.Message)
	}
}

func TestParseRecordBOMMessage(t *testing.T) {
	frame := []byte("<165>1 2003-10-11T22:14:15.003Z mymachine.example.com evntslog - ID47 - \xEF\xBB\xBFfoo\nbar")
	rec, err := ParseRecord(frame)
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	if rec.Message.Kind != MessageString || rec.Message.Text != "foo\nbar" {
		t.Errorf("message = %+v, want MessageString(\"foo\\nbar\")", rec.Message)
	}
}

func TestParseRecordHostnameDashRejected(t *testing.T) {
	frame := []byte("<165>1 2003-10-11T22:14:15.003Z - evntslog - ID47 - foobar")
	_, err := ParseRecord(frame)
	ge, ok := err.(*GrammarError)
	if !ok {
		t.Fatalf("err = %v (%T), want *GrammarError", err, err)
	}
	if ge.Kind != ErrHostname {
		t.Errorf("kind = %d, want %d", ge.Kind, ErrHostname)
	}
}

func TestParseRecordAbsentOptionalFields(t *testing.T) {
	frame := []byte("<165>1 2003-10-11T22:14:15.003Z mymachine.example.com - - - -")
	rec, err := ParseRecord(frame)
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	if rec.AppName != "" || rec.ProcID != "" || rec.MsgID != "" {
		t.Errorf("optional fields = %q/%q/%q, want all absent", rec.AppName, rec.ProcID, rec.MsgID)
	}
	if rec.StructuredData != nil {
		t.Errorf("structured_data = %v, want absent", rec.StructuredData)
	}
	if rec.Message.Kind != MessageNone {
		t.Errorf("message kind = %v, want MessageNone", rec.Message.Kind)
	}
}

func TestParseRecordStructuredData(t *testing.T) {
	frame := []byte(`<165>1 2003-10-11T22:14:15.003Z mymachine.example.com evntslog - ID47 [exampleSDID@32473 iut="3" eventSource="Application" eventID="1011"][examplePriority@32473 class="high"] foobar`)
	rec, err := ParseRecord(frame)
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	if len(rec.StructuredData) != 2 {
		t.Fatalf("len(structured_data) = %d, want 2", len(rec.StructuredData))
	}
	first := rec.StructuredData[0]
	if first.ID != "exampleSDID@32473" {
		t.Errorf("first id = %q", first.ID)
	}
	if len(first.Params) != 3 || first.Params[0] != (SDParam{"iut", "3"}) {
		t.Errorf("first params = %+v", first.Params)
	}
	if rec.Message.Kind != MessageRaw || string(rec.Message.Raw) != "foobar" {
		t.Errorf("message = %+v", rec.Message)
	}
}

func TestParseRecordStructuredDataEscapes(t *testing.T) {
	frame := []byte(`<165>1 2003-10-11T22:14:15.003Z host app - - [id x="a\"b\\c\]d"]`)
	rec, err := ParseRecord(frame)
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	got := rec.StructuredData[0].Params[0].Value
	want := `a"b\c]d`
	if got != want {
		t.Errorf("value = %q, want %q", got, want)
	}
}

func TestParseRecordStructuredDataLastWins(t *testing.T) {
	frame := []byte(`<165>1 2003-10-11T22:14:15.003Z host app - - [id k="first" k="second"]`)
	rec, err := ParseRecord(frame)
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	params := rec.StructuredData[0].Params
	if len(params) != 1 || params[0].Value != "second" {
		t.Errorf("params = %+v, want single param with value \"second\"", params)
	}
}

func TestParseRecordBadPriority(t *testing.T) {
	frame := []byte("<16x5>1 2003-10-11T22:14:15.003Z host app - - -")
	_, err := ParseRecord(frame)
	ge, ok := err.(*GrammarError)
	if !ok {
		t.Fatalf("err = %v (%T), want *GrammarError", err, err)
	}
	if ge.Kind != ErrPriority {
		t.Errorf("kind = %d, want %d", ge.Kind, ErrPriority)
	}
	if ge.Desc != "Bad syslog priority tag format" {
		t.Errorf("desc = %q", ge.Desc)
	}
}

func TestParseRecordBadTimestamp(t *testing.T) {
	frame := []byte("<165>1 not-a-timestamp host app - - -")
	_, err := ParseRecord(frame)
	ge, ok := err.(*GrammarError)
	if !ok {
		t.Fatalf("err = %v (%T), want *GrammarError", err, err)
	}
	if ge.Kind != ErrTimestamp {
		t.Errorf("kind = %d, want %d", ge.Kind, ErrTimestamp)
	}
}

func TestParseRecordBOMNonUTF8Fails(t *testing.T) {
	frame := append([]byte("<165>1 2003-10-11T22:14:15.003Z host app - - - "), append([]byte{0xEF, 0xBB, 0xBF}, 0xFF, 0xFE)...)
	_, err := ParseRecord(frame)
	ge, ok := err.(*GrammarError)
	if !ok {
		t.Fatalf("err = %v (%T), want *GrammarError", err, err)
	}
	if ge.Kind != ErrPayloadEncoding {
		t.Errorf("kind = %d, want %d", ge.Kind, ErrPayloadEncoding)
	}
}
