package coltype

import "github.com/cockroachdb/errors"

// ErrNotImplemented marks a documented stub: a feature the original
// implementation also leaves unfinished, kept here as a typed error rather
// than a panic so callers can detect and skip it deliberately.
var ErrNotImplemented = errors.New("coltype: not implemented")
