package etl

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"songlake/internal/config"
	"songlake/internal/schema"
	"songlake/internal/storage"
)

// memRepo is an in-memory Repository capturing everything the run writes.
type memRepo struct {
	mu        sync.Mutex
	rows      map[string][][]any
	resets    map[string]int
	finalized map[string]int
}

func newMemRepo() *memRepo {
	return &memRepo{
		rows:      map[string][][]any{},
		resets:    map[string]int{},
		finalized: map[string]int{},
	}
}

func (m *memRepo) Reset(ctx context.Context, t schema.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[t.Name]++
	m.rows[t.Name] = nil
	return nil
}

func (m *memRepo) CopyFrom(ctx context.Context, t schema.Table, rows [][]any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[t.Name] = append(m.rows[t.Name], rows...)
	return int64(len(rows)), nil
}

func (m *memRepo) Finalize(ctx context.Context, t schema.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finalized[t.Name]++
	return nil
}

func (m *memRepo) Close() {}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestRunEndToEnd drives a full run over a tiny raw snapshot through an
// in-memory backend and checks every dataset lands with the right grain.
func TestRunEndToEnd(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "song_data", "A", "A", "TRAAAAW.json"), `{
		"num_songs": 1,
		"song_id": "SOZCTXZ12AB0182364",
		"title": "Setanta matins",
		"artist_id": "AR5KOSW1187FB35FF4",
		"artist_name": "Elena",
		"artist_location": "Dubai UAE",
		"artist_latitude": null,
		"artist_longitude": null,
		"year": 0,
		"duration": 269.58
	}`)

	writeFile(t, filepath.Join(root, "log_data", "2018", "11", "2018-11-15-events.json"),
		`{"userId":"26","firstName":"Ryan","lastName":"Smith","gender":"M","level":"paid","page":"NextSong","song":"Setanta matins","artist":"Elena","ts":1542242205796,"sessionId":583,"location":"San Jose-Sunnyvale-Santa Clara, CA","userAgent":"Mozilla/5.0"}
{"userId":26,"firstName":"Ryan","lastName":"Smith","gender":"M","level":"paid","page":"Home","ts":1542242300000}
{"userId":"7","firstName":"Ava","lastName":"Robinson","gender":"F","level":"free","page":"NextSong","song":"Not In Metadata","artist":"Nobody","ts":1542242400000,"sessionId":100,"location":null,"userAgent":"Mozilla/5.0"}
`)

	repo := newMemRepo()
	storage.Register("memtest", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return repo, nil
	})

	p := config.Pipeline{
		Job: "songlake-test",
		Source: config.Source{
			Kind: "file",
			File: config.SourceFile{Root: root},
		},
		Storage: config.Storage{Kind: "memtest"},
		Runtime: config.RuntimeConfig{BatchSize: 2, ChannelBuffer: 4},
	}
	if err := Run(context.Background(), p); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Every dataset goes through the full overwrite lifecycle exactly once.
	for _, name := range []string{"dim_songs", "dim_artists", "dim_users", "dim_time", "fact_songplays"} {
		if repo.resets[name] != 1 || repo.finalized[name] != 1 {
			t.Errorf("%s: resets=%d finalized=%d, want 1/1", name, repo.resets[name], repo.finalized[name])
		}
	}

	if n := len(repo.rows["dim_songs"]); n != 1 {
		t.Errorf("dim_songs rows = %d, want 1", n)
	}
	if n := len(repo.rows["dim_artists"]); n != 1 {
		t.Errorf("dim_artists rows = %d, want 1", n)
	}
	// The Home event is noise; two users remain after the page gate.
	if n := len(repo.rows["dim_users"]); n != 2 {
		t.Errorf("dim_users rows = %d, want 2", n)
	}
	if n := len(repo.rows["dim_time"]); n != 2 {
		t.Errorf("dim_time rows = %d, want 2", n)
	}

	facts := repo.rows["fact_songplays"]
	if len(facts) != 2 {
		t.Fatalf("fact_songplays rows = %d, want 2", len(facts))
	}
	if facts[0][4] != "SOZCTXZ12AB0182364" || facts[0][5] != "AR5KOSW1187FB35FF4" {
		t.Errorf("matched fact keys = %v/%v", facts[0][4], facts[0][5])
	}
	if facts[1][4] != nil || facts[1][5] != nil {
		t.Errorf("unmatched fact keys = %v/%v, want nil/nil", facts[1][4], facts[1][5])
	}
}

// TestOpenSourceUnknownKind ensures a bad source kind fails fast.
func TestOpenSourceUnknownKind(t *testing.T) {
	t.Parallel()

	if _, err := openSource(config.Source{Kind: "gopher"}, "song_data"); err == nil {
		t.Fatal("openSource(gopher): want error, got nil")
	}
}

// TestResolveRuntime checks defaults and environment overrides.
func TestResolveRuntime(t *testing.T) {
	rt := resolveRuntime(config.RuntimeConfig{})
	if rt.BatchSize != defaultBatchSize || rt.ChannelBuffer != defaultChannelBuffer {
		t.Fatalf("defaults = %+v", rt)
	}

	t.Setenv("BATCH_SIZE", "42")
	t.Setenv("CHANNEL_BUFFER", "7")
	rt = resolveRuntime(config.RuntimeConfig{BatchSize: 5})
	if rt.BatchSize != 42 || rt.ChannelBuffer != 7 {
		t.Fatalf("env overrides = %+v", rt)
	}

	t.Setenv("BATCH_SIZE", "zero")
	rt = resolveRuntime(config.RuntimeConfig{BatchSize: 5})
	if rt.BatchSize != 5 {
		t.Fatalf("bad env override changed batch size: %+v", rt)
	}
}

// TestDatasetName checks the default subpath fallback.
func TestDatasetName(t *testing.T) {
	t.Parallel()

	if got := datasetName("", defaultSongData); got != "song_data" {
		t.Errorf("datasetName empty = %q", got)
	}
	if got := datasetName("songs/v2", defaultSongData); got != "songs/v2" {
		t.Errorf("datasetName set = %q", got)
	}
}
