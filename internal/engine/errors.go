package engine

import "errors"

var ErrDuplicateEntry = errors.New("already in queue")
var ErrNotInQueue = errors.New("not in queue")
var ErrInvalidTableState = errors.New("invalid table state")
var ErrStaleInvite = errors.New("stale invite")
var ErrStaleClaim = errors.New("stale claim")
var ErrUnauthorized = errors.New("unauthorized")
var ErrUnsupportedCommand = errors.New("unsupported command")
