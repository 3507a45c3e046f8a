package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ebogdum/shardstore/adapters"
	"github.com/ebogdum/shardstore/adapters/embedded"
	"github.com/ebogdum/shardstore/adapters/fs"
	"github.com/ebogdum/shardstore/adapters/objectstore"
	"github.com/ebogdum/shardstore/config"
	"github.com/ebogdum/shardstore/contract"
	"github.com/ebogdum/shardstore/metrics"
)

var rootCmd = &cobra.Command{
	Use:   "shardstore",
	Short: "shardstore - uniform storage for content-addressed shards and contracts",
	Long: `shardstore is a single-node storage facade for content-addressed data
shards and their JSON contract records, over interchangeable backends:
plain filesystem, embedded key-value engine with chunked shard files, or an
S3-compatible object store.`,
}

var (
	configFilePath string
	flushConfirmed bool
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "", "Path to configuration file")

	flushCmd.Flags().BoolVar(&flushConfirmed, "yes", false, "Confirm destroying every record and shard")

	configCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(keysCmd, peekCmd, putCmd, getCmd, delCmd, sizeCmd, flushCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List all logical keys in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdapter(func(ctx context.Context, adapter adapters.Adapter) error {
			for key, err := range adapter.Keys(ctx) {
				if err != nil {
					return err
				}
				fmt.Println(key)
			}
			return nil
		})
	},
}

var peekCmd = &cobra.Command{
	Use:   "peek KEY",
	Short: "Print the contract record for a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdapter(func(ctx context.Context, adapter adapters.Adapter) error {
			item, err := adapter.Peek(ctx, args[0])
			if err != nil {
				return err
			}
			return printRecord(item)
		})
	},
}

var putCmd = &cobra.Command{
	Use:   "put KEY [FILE]",
	Short: "Store a contract record read as JSON from FILE or stdin",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdapter(func(ctx context.Context, adapter adapters.Adapter) error {
			in := io.Reader(os.Stdin)
			if len(args) == 2 {
				file, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer file.Close()
				in = file
			}
			data, err := io.ReadAll(in)
			if err != nil {
				return err
			}
			item, err := contract.Decode(data)
			if err != nil {
				return err
			}
			stored, err := adapter.Put(ctx, args[0], item)
			if err != nil {
				return err
			}
			return printRecord(stored)
		})
	},
}

var getCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Download the shard payload to stdout, or upload it from stdin when absent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdapterNamed(func(ctx context.Context, adapter adapters.Adapter, backend string) error {
			item, err := adapter.Get(ctx, args[0])
			if err != nil {
				return err
			}
			switch item.Shard.Mode() {
			case contract.ModeRead:
				reader, err := item.Shard.Reader()
				if err != nil {
					return err
				}
				defer reader.Close()
				n, err := io.Copy(os.Stdout, reader)
				metrics.ShardBytesTotal.WithLabelValues(backend, "read").Add(float64(n))
				return err
			case contract.ModeWrite:
				writer, err := item.Shard.Writer()
				if err != nil {
					return err
				}
				n, err := io.Copy(writer, os.Stdin)
				metrics.ShardBytesTotal.WithLabelValues(backend, "write").Add(float64(n))
				if err != nil {
					writer.Close()
					return err
				}
				if err := writer.Close(); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "stored %d shard bytes for %s\n", n, args[0])
			}
			return nil
		})
	},
}

var delCmd = &cobra.Command{
	Use:   "del KEY",
	Short: "Delete the contract record and shard for a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdapter(func(ctx context.Context, adapter adapters.Adapter) error {
			return adapter.Del(ctx, args[0])
		})
	},
}

var sizeCmd = &cobra.Command{
	Use:   "size [KEY]",
	Short: "Report the byte count of one entry, or of the whole store",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdapter(func(ctx context.Context, adapter adapters.Adapter) error {
			var (
				n   int64
				err error
			)
			if len(args) == 1 {
				n, err = adapter.Size(ctx, args[0])
			} else {
				n, err = adapter.TotalSize(ctx)
			}
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		})
	},
}

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Erase every record and shard, restoring an empty store",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flushConfirmed {
			return fmt.Errorf("flush is irreversible; re-run with --yes to confirm")
		}
		return withAdapter(func(ctx context.Context, adapter adapters.Adapter) error {
			return adapter.Flush(ctx)
		})
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  "Validate the shardstore configuration and display the loaded settings",
	RunE:  validateConfig,
}

// withAdapter loads configuration, builds the configured backend, opens it,
// and runs fn with signal-aware cancellation.
func withAdapter(fn func(ctx context.Context, adapter adapters.Adapter) error) error {
	return withAdapterNamed(func(ctx context.Context, adapter adapters.Adapter, _ string) error {
		return fn(ctx, adapter)
	})
}

func withAdapterNamed(fn func(ctx context.Context, adapter adapters.Adapter, backend string) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := initializeLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync failures are unactionable

	adapter, err := newAdapter(cfg.Storage, logger)
	if err != nil {
		return err
	}
	if err := adapter.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := adapter.Close(); err != nil {
			logger.Error("Failed to close adapter", zap.Error(err))
		}
	}()

	return fn(ctx, adapter, cfg.Storage.Backend)
}

// newAdapter selects the concrete backend from configuration and wraps it
// with metrics instrumentation.
func newAdapter(cfg config.StorageConfig, logger *zap.Logger) (adapters.Adapter, error) {
	var (
		adapter adapters.Adapter
		err     error
	)
	switch cfg.Backend {
	case config.BackendFS:
		adapter, err = fs.New(cfg.FS.RootPath, logger)
	case config.BackendEmbedded:
		adapter, err = embedded.New(cfg.Embedded.Path, cfg.Embedded.ChunkSize, cfg.Embedded.SyncWrites, logger)
	case config.BackendObjectStore:
		adapter, err = objectstore.New(cfg.ObjectStore, logger)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", contract.ErrInvalidConfig, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return adapters.Instrument(adapter, cfg.Backend), nil
}

func printRecord(item *contract.StorageItem) error {
	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// validateConfig validates the shardstore configuration and displays settings
func validateConfig(cmd *cobra.Command, args []string) error {
	fmt.Println("Validating configuration...")

	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return err
	}

	fmt.Println("Configuration is valid")
	fmt.Printf("Backend: %s\n", cfg.Storage.Backend)
	switch cfg.Storage.Backend {
	case config.BackendFS:
		fmt.Printf("Root Path: %s\n", cfg.Storage.FS.RootPath)
	case config.BackendEmbedded:
		fmt.Printf("Data Path: %s\n", cfg.Storage.Embedded.Path)
		fmt.Printf("Chunk Size: %d\n", cfg.Storage.Embedded.ChunkSize)
	case config.BackendObjectStore:
		fmt.Printf("Bucket: %s\n", cfg.Storage.ObjectStore.Bucket)
		fmt.Printf("Region: %s\n", cfg.Storage.ObjectStore.Region)
		fmt.Printf("Shard Prefix: %s\n", cfg.Storage.ObjectStore.ShardPrefix)
		fmt.Printf("Metadata Path: %s\n", cfg.Storage.ObjectStore.MetadataPath)
	}

	return nil
}

// initializeLogger creates a zap logger based on configuration
func initializeLogger(logCfg config.LogConfig) (*zap.Logger, error) {
	var cfg zap.Config

	if logCfg.Format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	switch logCfg.Level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return cfg.Build()
}
