// Package storage defines errors shared by the persistence adapters.
package storage

import "errors"

// ErrNotFound is returned when a blob or order key has no stored value.
var ErrNotFound = errors.New("not found")
