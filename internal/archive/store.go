// Package archive persists successful comparison outcomes so they can be
// replayed by id. Records are opaque JSON blobs to the store; the compare
// service owns their shape.
package archive

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("archive: record not found")

// Store persists comparison records keyed by id.
type Store interface {
	Save(ctx context.Context, id string, record []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
}
