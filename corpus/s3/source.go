package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/gramstore/corpus"
)

// API is the subset of the S3 client used by Source.
type API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Option configures a Source.
type Option func(*Source)

// WithPrefix sets a key prefix prepended to all names (e.g. "corpora/").
func WithPrefix(prefix string) Option {
	return func(s *Source) {
		s.prefix = prefix
	}
}

// WithPartSize sets the byte size of each ranged download part.
func WithPartSize(n int64) Option {
	return func(s *Source) {
		s.partSize = n
	}
}

// WithConcurrency sets how many parts of one object are downloaded at once.
func WithConcurrency(n int) Option {
	return func(s *Source) {
		s.concurrency = n
	}
}

// Source implements corpus.Source for S3.
type Source struct {
	client      API
	bucket      string
	prefix      string
	partSize    int64
	concurrency int
	downloader  *manager.Downloader
}

// New creates a Source using the default AWS configuration chain
// (environment, shared config files, instance role).
func New(ctx context.Context, bucket string, opts ...Option) (*Source, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSource(s3.NewFromConfig(cfg), bucket, opts...), nil
}

// NewSource creates a Source on an existing client.
func NewSource(client API, bucket string, opts ...Option) *Source {
	s := &Source{
		client:      client,
		bucket:      bucket,
		partSize:    manager.DefaultDownloadPartSize,
		concurrency: manager.DefaultDownloadConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.downloader = manager.NewDownloader(client, func(d *manager.Downloader) {
		d.PartSize = s.partSize
		d.Concurrency = s.concurrency
	})
	return s
}

func (s *Source) key(name string) string {
	return path.Join(s.prefix, name)
}

// root returns the prefix as a directory, or "" without a prefix.
func (s *Source) root() string {
	if s.prefix == "" {
		return ""
	}
	return strings.TrimSuffix(s.prefix, "/") + "/"
}

// Open downloads an object and returns a reader over its contents.
func (s *Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := s.key(name)

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, corpus.ErrNotFound
		}
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, corpus.ErrNotFound
		}
		return nil, err
	}

	size := aws.ToInt64(head.ContentLength)
	if size == 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}

	buf := manager.NewWriteAtBuffer(make([]byte, 0, size))
	if _, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

// List returns all object names with the given prefix, relative to the
// source prefix.
func (s *Source) List(ctx context.Context, prefix string) ([]string, error) {
	root := s.root()
	fullPrefix := root + prefix

	var names []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(fullPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), root)
			if name != "" && !strings.HasSuffix(name, "/") {
				names = append(names, name)
			}
		}
	}

	sort.Strings(names)
	return names, nil
}
