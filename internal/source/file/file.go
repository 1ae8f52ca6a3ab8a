// Package file implements a local-filesystem source that walks a directory
// tree and yields every *.json file under it, in lexical path order.
//
// The raw datasets nest files several directories deep (for example
// song_data/A/B/C/TRAABJL12903CDCF1A.json), so the walk is recursive; the
// lexical ordering of filepath.WalkDir keeps runs deterministic.
package file

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"songlake/internal/source"
)

// Source yields the *.json files under a root directory.
type Source struct {
	paths []string
	idx   int
}

// NewSource lists all *.json files under root. Listing happens eagerly so
// that an unreadable tree fails the run before any output is touched.
func NewSource(root string) (*Source, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("file source: walk %s: %w", root, err)
	}
	return &Source{paths: paths}, nil
}

// Len reports how many files the source will yield.
func (s *Source) Len() int { return len(s.paths) }

// NextReader opens the next file, or returns io.EOF when done.
func (s *Source) NextReader() (source.NamedReadCloser, error) {
	if s.idx >= len(s.paths) {
		return nil, io.EOF
	}
	path := s.paths[s.idx]
	s.idx++
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("file source: open %s: %w", path, err)
	}
	return &namedFile{File: f, name: path}, nil
}

type namedFile struct {
	*os.File
	name string
}

func (f *namedFile) Name() string { return f.name }
