// Package json turns raw JSON bytes into canonical-keyed records for the
// warehouse builders.
//
// High-level flow:
//
//  1. Decode JSON from an io.Reader using encoding/json.Decoder so large
//     inputs and JSONL/NDJSON-style streams are handled without buffering
//     the whole file.
//  2. Support the envelope shapes seen in real exports:
//     - root array of objects: [ {...}, {...} ]
//     - root object with an array-of-object field: { "records": [...] }
//     - single object: { ... } (treated as one record)
//     - additional top-level values after the first (NDJSON; the log
//     datasets ship in this shape, one event object per line)
//  3. For each logical record (map[string]any), apply the schema.Normalizer
//     so every emitted records.Record is keyed by canonical field names
//     (e.g. "userId" → "user_id"). Unmodeled keys pass through unchanged.
//  4. Stream records into 'out' for downstream filter/build/load stages.
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"songlake/internal/records"
	"songlake/internal/schema"
)

// StreamRecords parses JSON from r and streams canonicalized records into
// 'out'. The caller owns the channel; StreamRecords never closes it, so
// multiple files can feed the same channel sequentially.
//
// The normalizer may be nil, in which case keys pass through untouched.
// onParseErr, when non-nil, is invoked with the 1-based record index before
// a parse error is returned; parse errors are fatal for the whole run (a
// malformed raw file is a schema fault, not a droppable row).
func StreamRecords(
	ctx context.Context,
	r io.Reader,
	normalizer *schema.Normalizer,
	out chan<- records.Record,
	onParseErr func(n int, err error),
) error {
	dec := json.NewDecoder(r)

	n := 0

	emit := func(obj map[string]any) error {
		n++
		rec := canonicalize(obj, normalizer)
		select {
		case out <- rec:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// Decode the first top-level value to determine the shape.
	var root any
	if err := dec.Decode(&root); err != nil {
		if err == io.EOF {
			return nil // empty input
		}
		if onParseErr != nil {
			onParseErr(0, err)
		}
		return fmt.Errorf("json: decode root: %w", err)
	}

	switch v := root.(type) {
	case []any:
		for _, elem := range v {
			obj, ok := elem.(map[string]any)
			if !ok {
				err := fmt.Errorf("json: array element not an object (got %T)", elem)
				if onParseErr != nil {
					onParseErr(n+1, err)
				}
				return err
			}
			if err := emit(obj); err != nil {
				return err
			}
		}

	case map[string]any:
		// Either a single record or an envelope containing the records in
		// one of its array-of-object fields.
		if slice := findObjectSlice(v); slice != nil {
			for _, obj := range slice {
				if err := emit(obj); err != nil {
					return err
				}
			}
		} else {
			if err := emit(v); err != nil {
				return err
			}
		}

	default:
		err := fmt.Errorf("json: unsupported root type %T (want object or array)", v)
		if onParseErr != nil {
			onParseErr(0, err)
		}
		return err
	}

	// Handle additional top-level values (JSONL/NDJSON style).
	for {
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			if err == io.EOF {
				break
			}
			if onParseErr != nil {
				onParseErr(n+1, err)
			}
			return fmt.Errorf("json: decode subsequent value: %w", err)
		}
		if err := emit(obj); err != nil {
			return err
		}
	}

	return nil
}

// canonicalize rebuilds obj keyed by canonical field names. With a nil
// normalizer the object is still copied so callers never share the decoder's
// map.
func canonicalize(obj map[string]any, n *schema.Normalizer) records.Record {
	rec := make(records.Record, len(obj))
	for k, v := range obj {
		rec[n.Rename(k)] = v
	}
	return rec
}

// findObjectSlice searches the top-level object for a value that is an
// array-of-object and returns the first such slice it finds. Given
//
//	{ "records": [ { ... }, { ... } ], "meta": { ... } }
//
// it returns the []map[string]any behind "records".
func findObjectSlice(root map[string]any) []map[string]any {
	for _, v := range root {
		rawSlice, ok := v.([]any)
		if !ok || len(rawSlice) == 0 {
			continue
		}
		objects := make([]map[string]any, 0, len(rawSlice))
		valid := true
		for _, elem := range rawSlice {
			if elem == nil {
				continue
			}
			m, ok := elem.(map[string]any)
			if !ok {
				valid = false
				break
			}
			objects = append(objects, m)
		}
		if valid && len(objects) > 0 {
			return objects
		}
	}
	return nil
}
