package timeutil

import (
	"strconv"
	"strings"
	"time"
)

// Timer is the cancellable handle returned by an AfterFunc.
type Timer interface {
	// Stop prevents the callback from running; it reports false if it already ran or was stopped.
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

// RealAfterFunc schedules on the runtime timer.
func RealAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// FormatUnixMillis formats t as a millisecond epoch string.
func FormatUnixMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// ParseUnixMillis parses a millisecond epoch string.
func ParseUnixMillis(value string) (time.Time, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}
