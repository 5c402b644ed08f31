package blockstore

import "github.com/pkg/errors"

// ErrNotFound is returned by the read operations when no matching row
// exists anywhere the store looked (spec.md §7).
var ErrNotFound = errors.New("blockstore: not found")
