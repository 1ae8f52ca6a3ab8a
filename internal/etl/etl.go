// Package etl drives a full warehouse run: it reads the two raw datasets
// (song metadata and log events), shapes them into the five star-schema
// datasets, and writes each with full-overwrite semantics through the
// configured storage backend.
//
// A run is all-or-nothing per dataset: the first error aborts, there are no
// retries. The song stage runs first because the fact builder joins log
// events back against the raw song records.
package etl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"songlake/internal/config"
	"songlake/internal/metrics"
	jsonparser "songlake/internal/parser/json"
	"songlake/internal/records"
	"songlake/internal/schema"
	"songlake/internal/source"
	filesource "songlake/internal/source/file"
	s3source "songlake/internal/source/s3"
	"songlake/internal/storage"
	"songlake/internal/warehouse"
)

const (
	defaultBatchSize     = 1000
	defaultChannelBuffer = 256

	defaultSongData = "song_data"
	defaultLogData  = "log_data"
)

// Run executes the pipeline described by p. It opens the storage backend,
// runs the song stage (dim_songs, dim_artists) and then the log stage
// (dim_users, dim_time, fact_songplays), recording per-stage metrics and
// flushing the metrics backend at the end.
func Run(ctx context.Context, p config.Pipeline) error {
	runID := uuid.NewString()
	rt := resolveRuntime(p.Runtime)
	started := time.Now()

	log.Printf("run %s: job=%s source=%s storage=%s batch_size=%d",
		runID, p.Job, p.Source.Kind, p.Storage.Kind, rt.BatchSize)

	repo, err := storage.New(ctx, storage.Config{
		Kind:   p.Storage.Kind,
		DSN:    p.Storage.DSN,
		Output: p.Storage.Output,
	})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer repo.Close()

	stageStart := time.Now()
	songs, err := runSongStage(ctx, p, repo, rt)
	metrics.RecordStage(p.Job, "song_data", err, time.Since(stageStart))
	if err != nil {
		return fmt.Errorf("song stage: %w", err)
	}

	stageStart = time.Now()
	err = runLogStage(ctx, p, repo, rt, songs)
	metrics.RecordStage(p.Job, "log_data", err, time.Since(stageStart))
	if err != nil {
		return fmt.Errorf("log stage: %w", err)
	}

	if err := metrics.Flush(); err != nil {
		log.Printf("run %s: metrics flush: %v", runID, err)
	}
	log.Printf("run %s: done in %s", runID, time.Since(started).Truncate(time.Millisecond))
	return nil
}

// runSongStage reads the song metadata dataset and writes dim_songs and
// dim_artists. It returns the raw song records so the log stage can build
// the songplay match index from them.
func runSongStage(ctx context.Context, p config.Pipeline, repo storage.Repository, rt config.RuntimeConfig) ([]records.Record, error) {
	songs, err := extract(ctx, p.Source, datasetName(p.Source.SongData, defaultSongData), nil, rt.ChannelBuffer)
	if err != nil {
		return nil, fmt.Errorf("song_data: %w", err)
	}
	metrics.RecordRows(p.Job, "song_data", "read", int64(len(songs)))
	log.Printf("song_data: parsed %s records", humanize.Comma(int64(len(songs))))

	songRows, err := warehouse.BuildSongs(songs)
	if err != nil {
		return nil, err
	}
	if err := writeDataset(ctx, p.Job, repo, schema.Songs, songRows, rt); err != nil {
		return nil, err
	}

	artistRows, err := warehouse.BuildArtists(songs)
	if err != nil {
		return nil, err
	}
	if err := writeDataset(ctx, p.Job, repo, schema.Artists, artistRows, rt); err != nil {
		return nil, err
	}

	return songs, nil
}

// runLogStage reads the log event dataset, keeps only play events, and
// writes dim_users, dim_time and fact_songplays.
func runLogStage(ctx context.Context, p config.Pipeline, repo storage.Repository, rt config.RuntimeConfig, songs []records.Record) error {
	norm := schema.NewNormalizer(schema.LogRenames)
	events, err := extract(ctx, p.Source, datasetName(p.Source.LogData, defaultLogData), norm, rt.ChannelBuffer)
	if err != nil {
		return fmt.Errorf("log_data: %w", err)
	}
	metrics.RecordRows(p.Job, "log_data", "read", int64(len(events)))

	plays := warehouse.FilterPlays(events)
	log.Printf("log_data: parsed %s events, %s are plays",
		humanize.Comma(int64(len(events))), humanize.Comma(int64(len(plays))))

	userRows, err := warehouse.BuildUsers(plays)
	if err != nil {
		return err
	}
	if err := writeDataset(ctx, p.Job, repo, schema.Users, userRows, rt); err != nil {
		return err
	}

	timeRows, err := warehouse.BuildTime(plays)
	if err != nil {
		return err
	}
	if err := writeDataset(ctx, p.Job, repo, schema.Time, timeRows, rt); err != nil {
		return err
	}

	var nexter warehouse.Nexter
	factRows, err := warehouse.BuildSongplays(plays, songs, &nexter)
	if err != nil {
		return err
	}
	return writeDataset(ctx, p.Job, repo, schema.Songplays, factRows, rt)
}

// extract drains every reader of the configured source through the JSON
// parser and collects the canonicalized records in memory. The producer and
// collector run under one errgroup so a parse error on either side cancels
// the other.
func extract(ctx context.Context, src config.Source, dataset string, norm *schema.Normalizer, buffer int) ([]records.Record, error) {
	s, err := openSource(src, dataset)
	if err != nil {
		return nil, err
	}

	out := make(chan records.Record, buffer)
	var recs []records.Record

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(out)
		for {
			r, err := s.NextReader()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			perr := jsonparser.StreamRecords(gctx, r, norm, out, func(n int, err error) {
				log.Printf("%s: record %d: %v", r.Name(), n, err)
			})
			cerr := r.Close()
			if perr != nil {
				return fmt.Errorf("%s: %w", r.Name(), perr)
			}
			if cerr != nil {
				return fmt.Errorf("%s: close: %w", r.Name(), cerr)
			}
		}
	})
	g.Go(func() error {
		for rec := range out {
			recs = append(recs, rec)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return recs, nil
}

// openSource resolves the configured source kind for one dataset. File
// sources walk root/dataset; S3 sources list prefix/dataset.
func openSource(src config.Source, dataset string) (source.Source, error) {
	switch src.Kind {
	case "file":
		return filesource.NewSource(filepath.Join(src.File.Root, dataset))
	case "s3":
		return s3source.NewSource(s3source.Config{
			Region:    src.S3.Region,
			Bucket:    src.S3.Bucket,
			Prefix:    path.Join(src.S3.Prefix, dataset),
			AccessKey: src.S3.AccessKey,
			SecretKey: src.S3.SecretKey,
		})
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

// writeDataset performs the full-overwrite write of one dataset: Reset,
// batched CopyFrom fed through a channel, Finalize. The producer and loader
// run under one errgroup so a failed flush cancels the feed.
func writeDataset(ctx context.Context, job string, repo storage.Repository, t schema.Table, rows [][]any, rt config.RuntimeConfig) error {
	start := time.Now()
	if err := repo.Reset(ctx, t); err != nil {
		return fmt.Errorf("%s: reset: %w", t.Name, err)
	}

	in := make(chan []any, rt.ChannelBuffer)
	var written int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(in)
		for _, row := range rows {
			select {
			case in <- row:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	g.Go(func() error {
		n, err := storage.LoadBatches(gctx, repo, t, in, rt.BatchSize)
		written = n
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%s: load: %w", t.Name, err)
	}

	if err := repo.Finalize(ctx, t); err != nil {
		return fmt.Errorf("%s: finalize: %w", t.Name, err)
	}
	metrics.RecordRows(job, t.Name, "written", written)
	log.Printf("%s: wrote %s rows in %s",
		t.Name, humanize.Comma(written), time.Since(start).Truncate(time.Millisecond))
	return nil
}

// datasetName applies the default dataset subpath when the config leaves it
// empty.
func datasetName(configured, def string) string {
	if configured != "" {
		return configured
	}
	return def
}

// resolveRuntime fills in defaults and applies the BATCH_SIZE and
// CHANNEL_BUFFER environment overrides.
func resolveRuntime(rt config.RuntimeConfig) config.RuntimeConfig {
	if rt.BatchSize <= 0 {
		rt.BatchSize = defaultBatchSize
	}
	if rt.ChannelBuffer <= 0 {
		rt.ChannelBuffer = defaultChannelBuffer
	}
	if v := os.Getenv("BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			rt.BatchSize = n
		} else {
			log.Printf("ignoring BATCH_SIZE=%q: not a positive integer", v)
		}
	}
	if v := os.Getenv("CHANNEL_BUFFER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			rt.ChannelBuffer = n
		} else {
			log.Printf("ignoring CHANNEL_BUFFER=%q: not a positive integer", v)
		}
	}
	return rt
}
