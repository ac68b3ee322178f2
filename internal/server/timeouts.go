package server

import "time"

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

// shutdownTimeout covers poller, synchronizer, HTTP and metrics shutdown together.
// It remains a var for tests to override.
var shutdownTimeout = 10 * time.Second
