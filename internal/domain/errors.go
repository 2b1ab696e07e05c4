package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")
var ErrAlreadyExists = errors.New("already exists")

// ErrHashMismatch means the stored file hash no longer matches the live
// upstream locator for the referenced message.
var ErrHashMismatch = errors.New("file hash mismatch")

// ErrAuthBytesInvalid is returned by a media session when imported
// authorization bytes are rejected. It is retriable.
var ErrAuthBytesInvalid = errors.New("auth bytes invalid")

var ErrNoWorkers = errors.New("no worker slots available")

// FloodWaitError is the upstream rate-limit signal. Callers honor it by
// sleeping for Seconds and retrying.
type FloodWaitError struct {
	Seconds int
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("flood wait: %d seconds", e.Seconds)
}

// AsFloodWait unwraps err and reports the wait duration if err carries a
// FloodWaitError anywhere in its chain.
func AsFloodWait(err error) (int, bool) {
	var fw *FloodWaitError
	if errors.As(err, &fw) {
		return fw.Seconds, true
	}
	return 0, false
}
