package syncer

import "errors"

// ErrUnauthorized is returned by a RemoteStore when the caller has no valid
// session. Load treats it as "no remote copy".
var ErrUnauthorized = errors.New("remote store: unauthorized")

// ErrClosed is returned by operations on a closed Synchronizer.
var ErrClosed = errors.New("synchronizer is closed")
