package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"go.uber.org/zap"

	"github.com/ebogdum/shardstore/config"
	"github.com/ebogdum/shardstore/contract"
)

const defaultShardPrefix = "shards/"

// shardStore persists payload blobs as objects under a dedicated key prefix.
// Listing uses ListObjectsV2 pagination exposed as one lazy sequence shared
// by size accounting and flush.
type shardStore struct {
	client               s3iface.S3API
	bucket               string
	prefix               string
	serverSideEncryption string
	acl                  string
	kmsKeyID             string
	logger               *zap.Logger
}

func newShardStore(client s3iface.S3API, cfg config.ObjectStoreConfig, logger *zap.Logger) *shardStore {
	prefix := cfg.ShardPrefix
	if prefix == "" {
		prefix = defaultShardPrefix
	}
	return &shardStore{
		client:               client,
		bucket:               cfg.Bucket,
		prefix:               prefix,
		serverSideEncryption: cfg.ServerSideEncryption,
		acl:                  cfg.ACL,
		kmsKeyID:             cfg.KMSKeyID,
		logger:               logger,
	}
}

func (s *shardStore) key(fskey string) string {
	return s.prefix + fskey
}

func (s *shardStore) OpenRead(ctx context.Context, fskey string) (io.ReadCloser, error) {
	result, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(fskey)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, contract.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to get shard %s: %v", contract.ErrUnavailable, fskey, err)
	}

	s.logger.Debug("Shard opened for read",
		zap.String("bucket", s.bucket),
		zap.String("key", s.key(fskey)))

	return result.Body, nil
}

// OpenWrite returns a writer that buffers the payload and uploads the object
// when closed; the shard is visible only after a successful upload.
func (s *shardStore) OpenWrite(ctx context.Context, fskey string) (io.WriteCloser, error) {
	return &objectWriter{ctx: ctx, store: s, fskey: fskey}, nil
}

func (s *shardStore) Exists(ctx context.Context, fskey string) (bool, error) {
	_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(fskey)),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	// Transport failures must never be conflated with absence.
	return false, fmt.Errorf("%w: failed to probe shard %s: %v", contract.ErrUnavailable, fskey, err)
}

func (s *shardStore) Unlink(ctx context.Context, fskey string) error {
	found, err := s.Exists(ctx, fskey)
	if err != nil {
		return err
	}
	if !found {
		return contract.ErrNotFound
	}
	if _, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(fskey)),
	}); err != nil {
		return fmt.Errorf("%w: failed to delete shard %s: %v", contract.ErrUnavailable, fskey, err)
	}
	return nil
}

func (s *shardStore) Size(ctx context.Context, fskey string) (int64, error) {
	result, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(fskey)),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, contract.ErrNotFound
		}
		return 0, fmt.Errorf("%w: failed to stat shard %s: %v", contract.ErrUnavailable, fskey, err)
	}
	if result.ContentLength == nil {
		return 0, nil
	}
	return *result.ContentLength, nil
}

// object is one listed entry of the shard namespace.
type object struct {
	key  string
	size int64
}

// list pages through the shard prefix as a lazy sequence. Breaking out early
// stops pagination; a listing failure is the terminal error of the sequence.
func (s *shardStore) list(ctx context.Context) iter.Seq2[object, error] {
	return func(yield func(object, error) bool) {
		input := &s3.ListObjectsV2Input{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(s.prefix),
		}
		for {
			result, err := s.client.ListObjectsV2WithContext(ctx, input)
			if err != nil {
				yield(object{}, fmt.Errorf("%w: failed to list shard namespace: %v", contract.ErrUnavailable, err))
				return
			}
			for _, obj := range result.Contents {
				if obj.Key == nil {
					continue
				}
				var size int64
				if obj.Size != nil {
					size = *obj.Size
				}
				if !yield(object{key: *obj.Key, size: size}, nil) {
					return
				}
			}
			if result.NextContinuationToken == nil {
				return
			}
			input.ContinuationToken = result.NextContinuationToken
		}
	}
}

// TotalSize sums reported object sizes across all pages of the shard
// namespace. The sum is exact as of the listing; objects written during
// pagination may be missed.
func (s *shardStore) TotalSize(ctx context.Context) (int64, error) {
	var total int64
	for obj, err := range s.list(ctx) {
		if err != nil {
			return 0, err
		}
		total += obj.size
	}
	return total, nil
}

// wipe deletes every object under the shard prefix in batches.
func (s *shardStore) wipe(ctx context.Context) error {
	const batchSize = 1000

	batch := make([]*s3.ObjectIdentifier, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := s.client.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3.Delete{
				Objects: batch,
				Quiet:   aws.Bool(true),
			},
		}); err != nil {
			return fmt.Errorf("%w: failed to delete shard batch: %v", contract.ErrUnavailable, err)
		}
		batch = batch[:0]
		return nil
	}

	for obj, err := range s.list(ctx) {
		if err != nil {
			return err
		}
		batch = append(batch, &s3.ObjectIdentifier{Key: aws.String(obj.key)})
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// objectWriter buffers shard payload and uploads it on Close.
type objectWriter struct {
	ctx    context.Context
	store  *shardStore
	fskey  string
	buf    bytes.Buffer
	closed bool
}

func (w *objectWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write on closed shard writer")
	}
	return w.buf.Write(p)
}

func (w *objectWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	s := w.store
	putInput := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(w.fskey)),
		Body:   bytes.NewReader(w.buf.Bytes()),
	}

	if s.serverSideEncryption != "" {
		putInput.ServerSideEncryption = aws.String(s.serverSideEncryption)
		if s.serverSideEncryption == "aws:kms" && s.kmsKeyID != "" {
			putInput.SSEKMSKeyId = aws.String(s.kmsKeyID)
		}
	}
	if s.acl != "" {
		putInput.ACL = aws.String(s.acl)
	}

	if _, err := s.client.PutObjectWithContext(w.ctx, putInput); err != nil {
		return fmt.Errorf("%w: failed to upload shard %s: %v", contract.ErrUnavailable, w.fskey, err)
	}

	s.logger.Debug("Shard uploaded",
		zap.String("bucket", s.bucket),
		zap.String("key", s.key(w.fskey)),
		zap.Int("size", w.buf.Len()))
	return nil
}

// isNotFound checks if an error indicates the object was not found.
func isNotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
