// Package s3 implements an S3-backed source. It lists the objects under a
// bucket/prefix once, then serves each object body as a named reader.
//
// Credentials come from the standard AWS chain (environment, shared config,
// instance role); the pipeline config can additionally inject a static
// key/secret pair, which it treats as opaque strings.
package s3

import (
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"

	"songlake/internal/source"
)

// Config identifies the objects a Source will yield.
type Config struct {
	Region string
	Bucket string
	Prefix string

	// AccessKey/SecretKey optionally override the default credential chain.
	AccessKey string
	SecretKey string
}

// Source yields the objects under Bucket/Prefix in listing order.
type Source struct {
	cfg     Config
	s3      *awss3.S3
	objects []*awss3.Object
	idx     int
}

// NewSource opens an AWS session and lists the matching objects eagerly, so
// a bad bucket or missing credentials fail the run up front.
func NewSource(cfg Config) (*Source, error) {
	awsCfg := aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	sess, err := session.NewSession(&awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3 source: session: %w", err)
	}
	client := awss3.New(sess)

	var objects []*awss3.Object
	err = client.ListObjectsV2Pages(&awss3.ListObjectsV2Input{
		Bucket: aws.String(cfg.Bucket),
		Prefix: aws.String(cfg.Prefix),
	}, func(page *awss3.ListObjectsV2Output, lastPage bool) bool {
		objects = append(objects, page.Contents...)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("s3 source: list s3://%s/%s: %w", cfg.Bucket, cfg.Prefix, err)
	}

	return &Source{cfg: cfg, s3: client, objects: objects}, nil
}

// Len reports how many objects the source will yield.
func (s *Source) Len() int { return len(s.objects) }

// NextReader fetches the next object body, or returns io.EOF when done.
func (s *Source) NextReader() (source.NamedReadCloser, error) {
	if s.idx >= len(s.objects) {
		return nil, io.EOF
	}
	obj := s.objects[s.idx]
	s.idx++

	out, err := s.s3.GetObject(&awss3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    obj.Key,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 source: get s3://%s/%s: %w", s.cfg.Bucket, aws.StringValue(obj.Key), err)
	}
	return &objReader{name: aws.StringValue(obj.Key), body: out.Body}, nil
}

type objReader struct {
	name string
	body io.ReadCloser
}

func (o *objReader) Read(p []byte) (int, error) { return o.body.Read(p) }
func (o *objReader) Close() error               { return o.body.Close() }
func (o *objReader) Name() string               { return o.name }
