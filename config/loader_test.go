package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, BackendFS, cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/shardstore", cfg.Storage.FS.RootPath)
	assert.Equal(t, "us-east-1", cfg.Storage.ObjectStore.Region)
	assert.Equal(t, "shards/", cfg.Storage.ObjectStore.ShardPrefix)
}

func TestLoadConfigFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log:
  level: debug
storage:
  backend: embedded
  embedded:
    path: /data/shards
    chunksize: 1048576
    syncwrites: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfigFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format, "unset fields keep defaults")
	assert.Equal(t, BackendEmbedded, cfg.Storage.Backend)
	assert.Equal(t, "/data/shards", cfg.Storage.Embedded.Path)
	assert.Equal(t, int64(1048576), cfg.Storage.Embedded.ChunkSize)
	assert.True(t, cfg.Storage.Embedded.SyncWrites)
}

func TestLoadConfigFromJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
  "storage": {
    "backend": "objectstore",
    "objectstore": {
      "bucket": "shard-bucket",
      "endpoint": "http://minio:9000",
      "disablessl": true,
      "metadatapath": "/data/contracts"
    }
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfigFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, BackendObjectStore, cfg.Storage.Backend)
	assert.Equal(t, "shard-bucket", cfg.Storage.ObjectStore.Bucket)
	assert.Equal(t, "http://minio:9000", cfg.Storage.ObjectStore.Endpoint)
	assert.True(t, cfg.Storage.ObjectStore.DisableSSL)
	assert.Equal(t, "/data/contracts", cfg.Storage.ObjectStore.MetadataPath)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
storage:
  backend: fs
  fs:
    rootpath: /from/file
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("SHARDSTORE_LOG_LEVEL", "warn")
	t.Setenv("SHARDSTORE_STORAGE_FS_ROOTPATH", "/from/env")

	cfg, err := LoadConfigFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/from/env", cfg.Storage.FS.RootPath)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *AppConfig)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(cfg *AppConfig) {},
		},
		{
			name: "unknown backend",
			mutate: func(cfg *AppConfig) {
				cfg.Storage.Backend = "tape"
			},
			wantErr: "storage.backend",
		},
		{
			name: "fs without root path",
			mutate: func(cfg *AppConfig) {
				cfg.Storage.FS.RootPath = ""
			},
			wantErr: "storage.fs.rootpath",
		},
		{
			name: "embedded without path",
			mutate: func(cfg *AppConfig) {
				cfg.Storage.Backend = BackendEmbedded
				cfg.Storage.Embedded.Path = ""
			},
			wantErr: "storage.embedded.path",
		},
		{
			name: "embedded with negative chunk size",
			mutate: func(cfg *AppConfig) {
				cfg.Storage.Backend = BackendEmbedded
				cfg.Storage.Embedded.Path = "/data"
				cfg.Storage.Embedded.ChunkSize = -1
			},
			wantErr: "storage.embedded.chunksize",
		},
		{
			name: "objectstore without bucket",
			mutate: func(cfg *AppConfig) {
				cfg.Storage.Backend = BackendObjectStore
			},
			wantErr: "storage.objectstore.bucket",
		},
		{
			name: "objectstore without metadata path",
			mutate: func(cfg *AppConfig) {
				cfg.Storage.Backend = BackendObjectStore
				cfg.Storage.ObjectStore.Bucket = "b"
				cfg.Storage.ObjectStore.MetadataPath = ""
			},
			wantErr: "storage.objectstore.metadatapath",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAppConfig()
			tt.mutate(&cfg)
			err := validateConfig(&cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
