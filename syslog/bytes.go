package syslog

import (
	"strconv"
	"time"
	"unicode/utf8"
)

// bsdTimestampLayouts are tried, in order, after RFC 3339 fails. RFC 5424
// never emits these, but the primitive is kept general purpose the way
// the rest of the byte-level helpers are, and a handful of producers in
// the wild still send BSD-style stamps on an otherwise 5424 wire.
var bsdTimestampLayouts = []string{
	"Jan _2 15:04:05",
	"Jan 02 15:04:05",
}

// parseString returns b as a string, failing if it is not valid UTF-8.
// The conversion copies b into a newly allocated string.
func parseString(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", errInvalidUTF8
	}
	return string(b), nil
}

// parseUint8 parses b as a decimal uint8.
func parseUint8(b []byte) (uint8, error) {
	s, err := parseString(b)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(n), nil
}

// parseTimestamp decodes b as a date-time, trying RFC 3339 first and then
// the BSD syslog stamp formats.
func parseTimestamp(b []byte) (time.Time, error) {
	s, err := parseString(b)
	if err != nil {
		return time.Time{}, err
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	now := time.Now()
	for _, layout := range bsdTimestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			ts = ts.AddDate(now.Year(), 0, 0)
			if ts.After(now.Add(24 * time.Hour)) {
				ts = ts.AddDate(-1, 0, 0)
			}
			return ts, nil
		}
	}
	return time.Time{}, errBadTimestamp
}
