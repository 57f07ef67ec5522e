package syslog

import (
	"errors"
	"fmt"
)

// ErrorKind identifies which field of the grammar a parse failure came
// from. Codes are part of the wire contract between versions of this
// package: keep them stable so error kinds can be matched across a log
// pipeline that mixes old and new binaries.
type ErrorKind int

const (
	ErrPriority ErrorKind = 1
	ErrTimestamp ErrorKind = 2
	ErrHostname ErrorKind = 3
	ErrAppName ErrorKind = 4
	ErrProcID ErrorKind = 5
	ErrMsgID ErrorKind = 6
	ErrStructuredDataElement ErrorKind = 11
	ErrStructuredDataParam   ErrorKind = 12
	ErrPayloadEncoding       ErrorKind = 20
	ErrFrameLength           ErrorKind = 30
)

func (k ErrorKind) String() string {
	switch k {
	case ErrPriority:
		return "Bad syslog priority tag format"
	case ErrTimestamp:
		return "bad syslog timestamp"
	case ErrHostname:
		return "bad syslog hostname"
	case ErrAppName:
		return "bad syslog app-name"
	case ErrProcID:
		return "bad syslog proc-id"
	case ErrMsgID:
		return "bad syslog msg-id"
	case ErrStructuredDataElement:
		return "bad structured-data element"
	case ErrStructuredDataParam:
		return "bad structured-data parameter"
	case ErrPayloadEncoding:
		return "bad message payload encoding"
	case ErrFrameLength:
		return "bad frame length"
	default:
		return fmt.Sprintf("syslog error kind %d", int(k))
	}
}

// GrammarError is returned by ParseRecord when a field fails to parse.
// Kind is stable across versions; Desc may gain detail over time.
type GrammarError struct {
	Kind ErrorKind
	Desc string
}

func (e *GrammarError) Error() string {
	return e.Desc
}

func newGrammarError(kind ErrorKind) *GrammarError {
	return &GrammarError{Kind: kind, Desc: kind.String()}
}

// FramingError is returned when the frame-length prefix of an
// octet-counted stream is malformed or exceeds the configured maximum,
// and by the auto-detecting decoder when a stream opens with neither a
// digit nor '<'. It carries a description only, no ErrorKind.
type FramingError struct {
	Desc string
}

func (e *FramingError) Error() string {
	return e.Desc
}

var (
	errInvalidUTF8  = errors.New("syslog: invalid UTF-8")
	errBadTimestamp = errors.New("syslog: timestamp matches neither RFC 3339 nor a BSD stamp")
)
