package json

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"testing"

	"songlake/internal/records"
	"songlake/internal/schema"
)

// drain runs StreamRecords over input and collects everything it emits.
func drain(t *testing.T, input string, n *schema.Normalizer) ([]records.Record, error) {
	t.Helper()

	out := make(chan records.Record, 64)
	err := StreamRecords(context.Background(), strings.NewReader(input), n, out, nil)
	close(out)

	var got []records.Record
	for rec := range out {
		got = append(got, rec)
	}
	return got, err
}

// TestStreamRecordsShapes covers the supported envelope shapes.
func TestStreamRecordsShapes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  int
	}{
		{"root array", `[{"a":1},{"a":2},{"a":3}]`, 3},
		{"envelope", `{"records":[{"a":1},{"a":2}],"meta":{"count":2}}`, 2},
		{"single object", `{"song_id":"S1","title":"A"}`, 1},
		{"ndjson", "{\"a\":1}\n{\"a\":2}\n{\"a\":3}\n{\"a\":4}", 4},
		{"empty input", ``, 0},
	}
	for _, c := range cases {
		got, err := drain(t, c.input, nil)
		if err != nil {
			t.Errorf("%s: StreamRecords: %v", c.name, err)
			continue
		}
		if len(got) != c.want {
			t.Errorf("%s: emitted %d records, want %d", c.name, len(got), c.want)
		}
	}
}

// TestStreamRecordsNormalizes checks keys are canonicalized at the parse
// boundary while unmodeled keys pass through.
func TestStreamRecordsNormalizes(t *testing.T) {
	t.Parallel()

	input := `{"userId":26,"firstName":"Ryan","page":"NextSong","ts":1542242205796}`
	got, err := drain(t, input, schema.NewNormalizer(schema.LogRenames))
	if err != nil {
		t.Fatalf("StreamRecords: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("emitted %d records, want 1", len(got))
	}

	var keys []string
	for k := range got[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	want := []string{"first_name", "page", "ts", "user_id"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

// TestStreamRecordsMalformed ensures malformed input is fatal and the
// callback sees the failing record index.
func TestStreamRecordsMalformed(t *testing.T) {
	t.Parallel()

	out := make(chan records.Record, 8)
	calls := 0
	err := StreamRecords(context.Background(),
		strings.NewReader("{\"a\":1}\n{broken"), nil, out,
		func(n int, err error) { calls++ })
	if err == nil {
		t.Fatal("StreamRecords on malformed input: want error, got nil")
	}
	if calls != 1 {
		t.Errorf("onParseErr called %d times, want 1", calls)
	}
}

// TestStreamRecordsScalarRoot rejects inputs whose root is not an object or
// array.
func TestStreamRecordsScalarRoot(t *testing.T) {
	t.Parallel()

	if _, err := drain(t, `42`, nil); err == nil {
		t.Fatal("StreamRecords on scalar root: want error, got nil")
	}
}

// TestStreamRecordsCanceled checks a canceled context stops the stream.
func TestStreamRecordsCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan records.Record) // unbuffered, nobody reading
	err := StreamRecords(ctx, strings.NewReader(`[{"a":1}]`), nil, out, nil)
	if err == nil {
		t.Fatal("StreamRecords with canceled ctx: want error, got nil")
	}
}
