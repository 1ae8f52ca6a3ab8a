// Package config defines the canonical, JSON-serializable configuration
// model for the warehouse ETL. It is intentionally small, explicit, and
// dependency-free so that pipelines can be loaded from disk (or other
// sources) and passed through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: field names in Go mirror the JSON structure used in pipeline
//     files under configs/*.json.
//  3. Minimalism: no third-party config libraries; decoding is performed by
//     the standard library.
//
// Example (trimmed):
//
//	{
//	  "job":     "songlake",
//	  "source":  { "kind": "file", "file": { "root": "data" } },
//	  "storage": { "kind": "duckdb", "dsn": "", "output": "out" },
//	  "runtime": { "batch_size": 1000 }
//	}
package config

// Pipeline describes the full ETL run in JSON. It is the top-level object
// decoded from a pipeline file.
type Pipeline struct {
	// Job names the run for metrics labeling and log lines.
	Job string `json:"job"`

	// Source describes where the raw song and log datasets come from.
	Source Source `json:"source"`

	// Storage describes the warehouse destination.
	Storage Storage `json:"storage"`

	// Runtime controls batching and channel buffer sizes.
	Runtime RuntimeConfig `json:"runtime"`
}

// Source identifies the raw data location. The two datasets live under one
// root: song metadata under SongData, log events under LogData.
type Source struct {
	// Kind selects the source implementation: "file" or "s3".
	Kind string `json:"kind"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file"`

	// S3 carries options for the "s3" source kind.
	S3 SourceS3 `json:"s3"`

	// SongData is the dataset subpath (or key prefix) of the song metadata
	// files. Defaults to "song_data".
	SongData string `json:"song_data"`

	// LogData is the dataset subpath (or key prefix) of the log event
	// files. Defaults to "log_data".
	LogData string `json:"log_data"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Root is the local directory containing the raw datasets.
	Root string `json:"root"`
}

// SourceS3 holds configuration for the "s3" source kind. AccessKey and
// SecretKey are opaque credentials for the storage access layer; when empty
// the default AWS credential chain applies.
type SourceS3 struct {
	Region    string `json:"region"`
	Bucket    string `json:"bucket"`
	Prefix    string `json:"prefix"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

// Storage selects the warehouse backend used to persist the output
// datasets.
type Storage struct {
	// Kind selects the backend: "duckdb", "postgres", "sqlite", "mysql",
	// or "mssql".
	Kind string `json:"kind"`

	// DSN is the backend connection string, passed through uninspected.
	DSN string `json:"dsn"`

	// Output is the destination root for file-exporting backends (the
	// duckdb backend writes partitioned parquet datasets under it).
	Output string `json:"output"`
}

// RuntimeConfig controls batching and channel buffer sizes. Zero values
// select defaults at run time; environment variables BATCH_SIZE and
// CHANNEL_BUFFER override both (12-factor style).
type RuntimeConfig struct {
	BatchSize     int `json:"batch_size"`
	ChannelBuffer int `json:"channel_buffer"`
}
