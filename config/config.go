// Package config provides configuration management for shardstore.
// It handles loading and validating configuration from YAML/JSON files and
// environment variables.
package config

// Backend names selectable in StorageConfig.Backend
const (
	BackendFS          = "fs"
	BackendEmbedded    = "embedded"
	BackendObjectStore = "objectstore"
)

// AppConfig represents the complete application configuration
type AppConfig struct {
	Log     LogConfig     `koanf:"log"`
	Storage StorageConfig `koanf:"storage"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Backend     string            `koanf:"backend"` // "fs", "embedded" or "objectstore"
	FS          FSConfig          `koanf:"fs"`
	Embedded    EmbeddedConfig    `koanf:"embedded"`
	ObjectStore ObjectStoreConfig `koanf:"objectstore"`
}

// FSConfig holds filesystem backend configuration
type FSConfig struct {
	RootPath string `koanf:"rootpath"`
}

// EmbeddedConfig holds embedded backend configuration
type EmbeddedConfig struct {
	Path       string `koanf:"path"`
	ChunkSize  int64  `koanf:"chunksize"` // shard chunk file size in bytes; 0 = default
	SyncWrites bool   `koanf:"syncwrites"`
}

// ObjectStoreConfig holds object-store backend configuration
type ObjectStoreConfig struct {
	AccessKey            string `koanf:"accesskey"`
	SecretKey            string `koanf:"secretkey"`
	Region               string `koanf:"region"`
	Bucket               string `koanf:"bucket"`
	Endpoint             string `koanf:"endpoint"`    // Custom endpoint (e.g., for MinIO)
	DisableSSL           bool   `koanf:"disablessl"`  // MinIO setups often use HTTP
	ShardPrefix          string `koanf:"shardprefix"` // object key prefix of the shard namespace
	ServerSideEncryption string `koanf:"sse"`         // SSE algorithm (AES256, aws:kms)
	ACL                  string `koanf:"acl"`         // Object ACL (private, public-read, etc.)
	KMSKeyID             string `koanf:"kmskeyid"`    // KMS key ID for SSE-KMS
	MetadataPath         string `koanf:"metadatapath"`
}
