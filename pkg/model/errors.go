package model

import "errors"

// ErrUnknownID is returned by GetItem when the id is not present in the
// table.
var ErrUnknownID = errors.New("model: unknown id")

// ErrNoPath is returned by GetPath when the id is not reachable from the
// root (no path entry has ever been recorded for it).
var ErrNoPath = errors.New("model: id not reachable from root")
