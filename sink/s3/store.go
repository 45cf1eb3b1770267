package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/hupe1980/subclust/sink"
)

// ErrConflict is returned when a conditional write loses to an existing
// object.
var ErrConflict = errors.New("object already exists")

// Options configures the S3 sink.
type Options struct {
	// Prefix is prepended to all unit names (e.g. "hierarchies/").
	Prefix string

	// Region overrides the region resolved from the environment.
	// Only used by New.
	Region string

	// Upload tunes the multipart uploader.
	Upload UploadConfig
}

// WithPrefix sets the root prefix for all unit names.
func WithPrefix(prefix string) func(*Options) {
	return func(o *Options) {
		o.Prefix = prefix
	}
}

// WithRegion overrides the region resolved from the environment.
func WithRegion(region string) func(*Options) {
	return func(o *Options) {
		o.Region = region
	}
}

// WithUploadConfig tunes the multipart uploader.
func WithUploadConfig(cfg UploadConfig) func(*Options) {
	return func(o *Options) {
		o.Upload = cfg
	}
}

// Store implements sink.Sink for S3.
type Store struct {
	client   Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
	upload   UploadConfig
}

// New creates a Store with credentials and region resolved from the
// environment.
func New(ctx context.Context, bucket string, optFns ...func(*Options)) (*Store, error) {
	opts := Options{Upload: DefaultUploadConfig()}

	for _, fn := range optFns {
		fn(&opts)
	}

	var loadFns []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadFns = append(loadFns, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadFns...)
	if err != nil {
		return nil, err
	}

	return newStore(s3.NewFromConfig(cfg), bucket, opts), nil
}

// NewStore creates a Store on an explicit client.
// rootPrefix is prepended to all keys (e.g. "hierarchies/").
func NewStore(client Client, bucket, rootPrefix string, optFns ...func(*Options)) *Store {
	opts := Options{Prefix: rootPrefix, Upload: DefaultUploadConfig()}

	for _, fn := range optFns {
		fn(&opts)
	}

	return newStore(client, bucket, opts)
}

func newStore(client Client, bucket string, opts Options) *Store {
	return &Store{
		client:   client,
		uploader: newUploader(client, opts.Upload),
		bucket:   bucket,
		prefix:   opts.Prefix,
		upload:   opts.Upload,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// EnsureDir is a no-op, object keys have no directories.
func (s *Store) EnsureDir(_ context.Context, _ string) error {
	return nil
}

// Create opens a unit that streams into a multipart upload. The object
// only exists after Close; Sync is a no-op.
func (s *Store) Create(ctx context.Context, name string) (sink.Unit, error) {
	pr, pw := io.Pipe()

	u := &uploadUnit{
		pw:   pw,
		done: make(chan error, 1),
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   pr,
	}
	if s.upload.EnableChecksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}

	// Upload in the background; Close surfaces its result
	go func() {
		_, err := s.uploader.Upload(ctx, input)
		_ = pr.CloseWithError(err)
		u.done <- err
	}()

	return u, nil
}

// Put writes a whole unit, with CRC32C integrity validation when enabled.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if s.upload.EnableChecksum {
		input.ChecksumCRC32C = aws.String(checksumCRC32C(data))
	}

	_, err := s.client.PutObject(ctx, input)
	return err
}

// PutIfNotExists writes a unit only if the key is vacant, using an
// If-None-Match conditional write. Returns ErrConflict when the key
// already holds an object.
func (s *Store) PutIfNotExists(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        bytes.NewReader(data),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "PreconditionFailed", "ConditionalRequestConflict":
				return ErrConflict
			}
		}
		return err
	}
	return nil
}

// Open streams a unit. A missing key maps to sink.ErrNotFound.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if notFound(err) {
			return nil, sink.ErrNotFound
		}
		return nil, err
	}
	return resp.Body, nil
}

// Delete removes a unit. Deleting a missing key is not an error on S3.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

// List returns unit names below prefix with the root prefix stripped,
// sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	return listObjects(ctx, s.client, s.bucket, s.key(prefix), s.prefix)
}

// uploadUnit implements sink.Unit over a pipe feeding a background upload.
type uploadUnit struct {
	pw     *io.PipeWriter
	done   chan error
	closed atomic.Bool
}

func (u *uploadUnit) Write(p []byte) (int, error) {
	if u.closed.Load() {
		return 0, io.ErrClosedPipe
	}
	return u.pw.Write(p)
}

// Sync is a no-op for S3 uploads. The object only exists after Close.
func (u *uploadUnit) Sync() error {
	return nil
}

func (u *uploadUnit) Close() error {
	if !u.closed.CompareAndSwap(false, true) {
		return io.ErrClosedPipe
	}
	if err := u.pw.Close(); err != nil {
		return err
	}
	return <-u.done
}
