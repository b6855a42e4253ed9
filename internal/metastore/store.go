// Package metastore provides the content-addressed metadata store the
// ledger's metadata refs point into. The ledger itself never interprets a
// ref; this package exists so the API layer can accept and serve the blobs
// those refs name.
package metastore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// RefPrefix is the scheme every ref produced by this package carries.
const RefPrefix = "sha256:"

// ErrNotFound is returned when a ref names no stored blob.
var ErrNotFound = errors.New("metadata blob not found")

// ErrBadRef is returned for refs that are not sha256-addressed.
var ErrBadRef = errors.New("malformed metadata ref")

// Store is a content-addressed blob store. Put is idempotent: storing the
// same bytes twice yields the same ref.
//
// Both MemoryStore and PostgresStore implement this interface.
type Store interface {
	// Put stores data and returns its content-addressed ref.
	Put(ctx context.Context, data []byte) (string, error)

	// Get returns the blob the ref names, or ErrNotFound.
	Get(ctx context.Context, ref string) ([]byte, error)
}

// RefFor computes the content-addressed ref for data.
func RefFor(data []byte) string {
	sum := sha256.Sum256(data)
	return RefPrefix + hex.EncodeToString(sum[:])
}

// ParseRef validates a ref's shape and returns its hex digest.
func ParseRef(ref string) (string, error) {
	digest, ok := strings.CutPrefix(ref, RefPrefix)
	if !ok || len(digest) != 64 {
		return "", ErrBadRef
	}
	return digest, nil
}
