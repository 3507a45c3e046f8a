package config

// DefaultAppConfig returns an AppConfig struct with sensible default values
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Storage: StorageConfig{
			Backend: BackendFS,
			FS: FSConfig{
				RootPath: "/var/lib/shardstore",
			},
			Embedded: EmbeddedConfig{
				Path:       "/var/lib/shardstore",
				ChunkSize:  0, // chunk store default
				SyncWrites: false,
			},
			ObjectStore: ObjectStoreConfig{
				Region:               "us-east-1",
				ShardPrefix:          "shards/",
				ServerSideEncryption: "",
				ACL:                  "private",
				MetadataPath:         "/var/lib/shardstore/contracts",
			},
		},
	}
}
