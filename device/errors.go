package device

import "errors"

// ErrNotYetRead is returned by Revision, SerialNumber and Channel when the
// corresponding exchange has never succeeded.
var ErrNotYetRead = errors.New("device: not yet read")

// ErrOutOfRange is returned by Channel for an index outside [0, 50).
var ErrOutOfRange = errors.New("device: channel index out of range")
