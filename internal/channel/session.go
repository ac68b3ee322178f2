package channel

import "github.com/oklog/ulid/v2"

// newSessionID returns a sortable id for one channel session.
func newSessionID() string {
	return ulid.Make().String()
}
