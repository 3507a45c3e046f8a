// Package objectstore implements the storage adapter contract with shard
// payloads in a remote S3-compatible object store and contract records in a
// local embedded key-value engine.
package objectstore

import (
	"context"
	"fmt"
	"iter"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"go.uber.org/zap"

	"github.com/ebogdum/shardstore/adapters"
	"github.com/ebogdum/shardstore/adapters/badgerkv"
	"github.com/ebogdum/shardstore/config"
	"github.com/ebogdum/shardstore/contract"
)

// Adapter implements the adapters.Adapter interface for S3-compatible object
// storage. Data operations before Open or after Close fail with
// contract.ErrNotOpen.
//
// TotalSize is an approximation: the shard component is an exact paginated
// sum of reported object sizes, the metadata component is the local engine's
// range estimate.
type Adapter struct {
	cfg    config.ObjectStoreConfig
	logger *zap.Logger

	pair   *adapters.Pair
	meta   *badgerkv.Store
	shards *shardStore
}

// New creates an object-store adapter from configuration. No connection is
// made until Open.
func New(cfg config.ObjectStoreConfig, logger *zap.Logger) (*Adapter, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: object store bucket name is required", contract.ErrInvalidConfig)
	}
	if cfg.MetadataPath == "" {
		return nil, fmt.Errorf("%w: metadata engine path is required", contract.ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{cfg: cfg, logger: logger}, nil
}

// Open establishes the S3 session, verifies bucket access, and opens the
// local metadata engine. Idempotent.
func (a *Adapter) Open(ctx context.Context) error {
	if a.pair != nil {
		return nil
	}

	awsConfig := &aws.Config{
		Region: aws.String(a.cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			a.cfg.AccessKey,
			a.cfg.SecretKey,
			"",
		),
		DisableSSL: aws.Bool(a.cfg.DisableSSL),
	}

	// Custom endpoint for MinIO compatibility
	if a.cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(a.cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true) // Required for MinIO
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return fmt.Errorf("%w: failed to create AWS session: %v", contract.ErrInvalidConfig, err)
	}

	client := s3.New(sess)

	// Verify bucket access before accepting operations
	if _, err := client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(a.cfg.Bucket),
	}); err != nil {
		return fmt.Errorf("%w: failed to access bucket %s: %v", contract.ErrUnavailable, a.cfg.Bucket, err)
	}

	meta, err := badgerkv.Open(badgerkv.Options{Path: a.cfg.MetadataPath}, a.logger)
	if err != nil {
		return err
	}

	shards := newShardStore(client, a.cfg, a.logger)

	a.meta = meta
	a.shards = shards
	a.pair = &adapters.Pair{Meta: meta, Shards: shards, Logger: a.logger}
	a.logger.Info("Object storage opened",
		zap.String("bucket", a.cfg.Bucket),
		zap.String("shard_prefix", shards.prefix))
	return nil
}

// Close releases the metadata engine; the S3 client itself holds no
// persistent connection. Idempotent.
func (a *Adapter) Close() error {
	if a.pair == nil {
		return nil
	}
	err := a.meta.Close()
	a.pair = nil
	a.meta = nil
	a.shards = nil
	if err != nil {
		return fmt.Errorf("failed to close metadata engine: %w", err)
	}
	return nil
}

func (a *Adapter) ready() (*adapters.Pair, error) {
	if a.pair == nil {
		return nil, contract.ErrNotOpen
	}
	return a.pair, nil
}

func (a *Adapter) Peek(ctx context.Context, key string) (*contract.StorageItem, error) {
	p, err := a.ready()
	if err != nil {
		return nil, err
	}
	return p.Peek(ctx, key)
}

func (a *Adapter) Put(ctx context.Context, key string, item *contract.StorageItem) (*contract.StorageItem, error) {
	p, err := a.ready()
	if err != nil {
		return nil, err
	}
	return p.Put(ctx, key, item)
}

func (a *Adapter) Get(ctx context.Context, key string) (*contract.StorageItem, error) {
	p, err := a.ready()
	if err != nil {
		return nil, err
	}
	return p.Get(ctx, key)
}

func (a *Adapter) Del(ctx context.Context, key string) error {
	p, err := a.ready()
	if err != nil {
		return err
	}
	return p.Del(ctx, key)
}

func (a *Adapter) Size(ctx context.Context, key string) (int64, error) {
	p, err := a.ready()
	if err != nil {
		return 0, err
	}
	return p.Size(ctx, key)
}

// TotalSize pages through the shard namespace summing reported object sizes
// and adds the metadata engine's estimate.
func (a *Adapter) TotalSize(ctx context.Context) (int64, error) {
	if _, err := a.ready(); err != nil {
		return 0, err
	}
	metaSize, err := a.meta.ApproxSize(ctx)
	if err != nil {
		return 0, err
	}
	shardSize, err := a.shards.TotalSize(ctx)
	if err != nil {
		return 0, err
	}
	return metaSize + shardSize, nil
}

func (a *Adapter) Keys(ctx context.Context) iter.Seq2[string, error] {
	p, err := a.ready()
	if err != nil {
		return adapters.FailedKeys(err)
	}
	return p.Keys(ctx)
}

// Flush deletes every object under the shard prefix and drops the metadata
// namespace.
func (a *Adapter) Flush(ctx context.Context) error {
	if _, err := a.ready(); err != nil {
		return err
	}
	if err := a.shards.wipe(ctx); err != nil {
		return err
	}
	if err := a.meta.DropAll(); err != nil {
		return err
	}
	a.logger.Info("Storage flushed", zap.String("bucket", a.cfg.Bucket))
	return nil
}
