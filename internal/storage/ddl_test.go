package storage

import (
	"context"
	"fmt"
	"testing"

	"songlake/internal/schema"
)

func ansiQuote(s string) string { return `"` + s + `"` }

func ansiType(t schema.ColumnType) string {
	switch t {
	case schema.TypeText:
		return "TEXT"
	case schema.TypeInt:
		return "INTEGER"
	case schema.TypeBigInt:
		return "BIGINT"
	case schema.TypeDouble:
		return "DOUBLE PRECISION"
	case schema.TypeTimestamp:
		return "TIMESTAMP"
	}
	return "TEXT"
}

// TestCreateTableSQL checks column order and type mapping in generated DDL.
func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	got := CreateTableSQL(schema.Users, ansiType, ansiQuote)
	want := `CREATE TABLE "dim_users" ("user_id" TEXT, "first_name" TEXT, "last_name" TEXT, "gender" TEXT, "level" TEXT)`
	if got != want {
		t.Errorf("CreateTableSQL =\n%s\nwant\n%s", got, want)
	}
}

// TestInsertSQL checks positional placeholders for both dialect styles.
func TestInsertSQL(t *testing.T) {
	t.Parallel()

	got := InsertSQL(schema.Songs, ansiQuote, func(i int) string { return fmt.Sprintf("$%d", i) })
	want := `INSERT INTO "dim_songs" ("song_id", "title", "artist_id", "year", "duration") VALUES ($1, $2, $3, $4, $5)`
	if got != want {
		t.Errorf("InsertSQL =\n%s\nwant\n%s", got, want)
	}

	got = InsertSQL(schema.Songs, ansiQuote, func(i int) string { return "?" })
	want = `INSERT INTO "dim_songs" ("song_id", "title", "artist_id", "year", "duration") VALUES (?, ?, ?, ?, ?)`
	if got != want {
		t.Errorf("InsertSQL(?) =\n%s\nwant\n%s", got, want)
	}
}

// TestRegistry covers Register/Kinds/New resolution and the unknown-kind error.
func TestRegistry(t *testing.T) {
	Register("fake", func(ctx context.Context, cfg Config) (Repository, error) {
		return &fakeRepo{}, nil
	})

	found := false
	for _, k := range Kinds() {
		if k == "fake" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Kinds() = %v, missing registered kind", Kinds())
	}

	repo, err := New(context.Background(), Config{Kind: "fake"})
	if err != nil {
		t.Fatalf("New(fake): %v", err)
	}
	repo.Close()

	if _, err := New(context.Background(), Config{Kind: "no-such-backend"}); err == nil {
		t.Fatal("New(no-such-backend): want error, got nil")
	}
}
