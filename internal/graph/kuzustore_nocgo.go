//go:build !cgo

package graph

import "errors"

// ErrKuzuUnavailable is returned by the Kuzu constructors in builds without
// cgo.
var ErrKuzuUnavailable = errors.New("kuzu: store requires a cgo build")

// KuzuStore is unavailable without cgo; the constructors always fail.
type KuzuStore struct {
	*MemStore
}

// NewKuzuStore always returns ErrKuzuUnavailable.
func NewKuzuStore() (*KuzuStore, error) {
	return nil, ErrKuzuUnavailable
}

// NewKuzuFileStore always returns ErrKuzuUnavailable.
func NewKuzuFileStore(string) (*KuzuStore, error) {
	return nil, ErrKuzuUnavailable
}
