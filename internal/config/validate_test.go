package config

import "testing"

func validPipeline() Pipeline {
	return Pipeline{
		Job: "songlake",
		Source: Source{
			Kind: "file",
			File: SourceFile{Root: "data"},
		},
		Storage: Storage{
			Kind:   "duckdb",
			Output: "out",
		},
		Runtime: RuntimeConfig{BatchSize: 1000, ChannelBuffer: 256},
	}
}

func countSeverity(issues []Issue, sev IssueSeverity) int {
	n := 0
	for _, iss := range issues {
		if iss.Severity == sev {
			n++
		}
	}
	return n
}

// TestValidatePipelineOK ensures a well-formed pipeline produces no issues.
func TestValidatePipelineOK(t *testing.T) {
	t.Parallel()

	if issues := ValidatePipeline(validPipeline()); len(issues) != 0 {
		t.Fatalf("valid pipeline produced issues: %v", issues)
	}
}

// TestValidatePipelineErrors covers the hard requirements per section.
func TestValidatePipelineErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Pipeline)
		path   string
	}{
		{"empty job", func(p *Pipeline) { p.Job = " " }, "job"},
		{"empty source kind", func(p *Pipeline) { p.Source.Kind = "" }, "source.kind"},
		{"file without root", func(p *Pipeline) { p.Source.File.Root = "" }, "source.file.root"},
		{"empty storage kind", func(p *Pipeline) { p.Storage.Kind = "" }, "storage.kind"},
		{"postgres without dsn", func(p *Pipeline) {
			p.Storage = Storage{Kind: "postgres"}
		}, "storage.dsn"},
		{"negative batch size", func(p *Pipeline) { p.Runtime.BatchSize = -1 }, "runtime.batch_size"},
	}
	for _, c := range cases {
		p := validPipeline()
		c.mutate(&p)
		issues := ValidatePipeline(p)

		found := false
		for _, iss := range issues {
			if iss.Severity == SeverityError && iss.Path == c.path {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: no error at %s, got %v", c.name, c.path, issues)
		}
	}
}

// TestValidatePipelineS3 checks bucket/region and credential pairing rules.
func TestValidatePipelineS3(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Source = Source{Kind: "s3", S3: SourceS3{Region: "us-west-2", Bucket: "raw", AccessKey: "AK"}}

	issues := ValidatePipeline(p)
	if countSeverity(issues, SeverityError) != 1 {
		t.Fatalf("lone access_key: issues = %v, want exactly one error", issues)
	}

	p.Source.S3.SecretKey = "SK"
	if issues := ValidatePipeline(p); countSeverity(issues, SeverityError) != 0 {
		t.Fatalf("paired credentials still flagged: %v", issues)
	}

	p.Source.S3.Bucket = ""
	p.Source.S3.Region = ""
	if issues := ValidatePipeline(p); countSeverity(issues, SeverityError) != 2 {
		t.Fatalf("missing bucket+region: issues = %v, want two errors", issues)
	}
}

// TestValidatePipelineWarnings checks advisory findings stay warnings.
func TestValidatePipelineWarnings(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Storage = Storage{Kind: "duckdb"} // no dsn, no output
	issues := ValidatePipeline(p)
	if countSeverity(issues, SeverityError) != 0 || countSeverity(issues, SeverityWarning) != 1 {
		t.Fatalf("ephemeral duckdb: issues = %v, want one warning", issues)
	}

	p = validPipeline()
	p.Storage = Storage{Kind: "clickhouse", DSN: "x"}
	issues = ValidatePipeline(p)
	if countSeverity(issues, SeverityWarning) == 0 {
		t.Fatalf("unknown storage kind produced no warning: %v", issues)
	}

	p = validPipeline()
	p.Storage = Storage{Kind: "sqlite", DSN: "file.db", Output: "out"}
	issues = ValidatePipeline(p)
	if countSeverity(issues, SeverityWarning) != 1 {
		t.Fatalf("ignored output: issues = %v, want one warning", issues)
	}
}
