// Package source defines the contract for raw dataset sources.
//
// A Source yields a sequence of named readers, one per raw file (local
// *.json files, S3 objects, ...). Sources only move bytes; they know
// nothing about record shapes. Readers are handed out in a stable order so
// that downstream determinism (dedup winners, tie fan-out ordering) is
// reproducible across runs over the same snapshot.
package source

import "io"

// NamedReadCloser is a reader that knows where its bytes came from, for
// error messages and logs.
type NamedReadCloser interface {
	io.ReadCloser
	Name() string
}

// Source enumerates the raw files of one dataset.
type Source interface {
	// NextReader returns the next file in the dataset, or io.EOF when the
	// dataset is exhausted. The caller must Close each returned reader.
	NextReader() (NamedReadCloser, error)
}
