package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/anthanhphan/gosdk/conflux"
	"github.com/anthanhphan/gosdk/logger"
)

// Config holds the dedup file store configuration
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	App     AppConfig     `json:"app" yaml:"app"`
	Storage StorageConfig `json:"storage" yaml:"storage"`
	Redis   RedisConfig   `json:"redis" yaml:"redis"`
	Logger  logger.Config `json:"logger" yaml:"logger"`
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

type AppConfig struct {
	NodeID           int64 `json:"node_id" yaml:"node_id"`
	ChunkSize        int64 `json:"chunk_size" yaml:"chunk_size"`
	MaxFileSize      int64 `json:"max_file_size" yaml:"max_file_size"`
	MaxRetries       int   `json:"max_retries" yaml:"max_retries"`
	RetryBackoffMS   int   `json:"retry_backoff_ms" yaml:"retry_backoff_ms"`
	SessionTTLSec    int   `json:"session_ttl_sec" yaml:"session_ttl_sec"`
	SweepIntervalSec int   `json:"sweep_interval_sec" yaml:"sweep_interval_sec"`
	RetentionSec     int   `json:"retention_sec" yaml:"retention_sec"`
	SweepWorkers     int   `json:"sweep_workers" yaml:"sweep_workers"`
}

type StorageConfig struct {
	DataDir               string `json:"data_dir" yaml:"data_dir"`
	StagingDir            string `json:"staging_dir" yaml:"staging_dir"`
	MetadataPath          string `json:"metadata_path" yaml:"metadata_path"`
	FSync                 bool   `json:"fsync" yaml:"fsync"`
	CheckpointIntervalSec int    `json:"checkpoint_interval_sec" yaml:"checkpoint_interval_sec"`
}

type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8090",
		},
		App: AppConfig{
			NodeID:           1,
			ChunkSize:        1 * 1024 * 1024,        // 1MB: per-chunk upload bound
			MaxFileSize:      2 * 1024 * 1024 * 1024, // 2GB
			MaxRetries:       3,
			RetryBackoffMS:   200,
			SessionTTLSec:    1800, // 30 minutes of inactivity
			SweepIntervalSec: 60,
			RetentionSec:     300, // terminal sessions kept briefly for diagnosis
			SweepWorkers:     4,
		},
		Storage: StorageConfig{
			DataDir:               "data/blobs",
			StagingDir:            "data/staging",
			MetadataPath:          "data/metadata.gob",
			FSync:                 false,
			CheckpointIntervalSec: 30,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Logger: logger.Config{
			LogLevel:    logger.LevelInfo,
			LogEncoding: logger.EncodingJSON,
		},
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	configPath := path
	if configPath == "" {
		env := os.Getenv("ENV")
		if env == "" {
			env = "local"
		}
		configPath = filepath.Join("internal", "server", "config", env+".yaml")
	}

	cfg := DefaultConfig()

	parsedCfg, err := conflux.ParseConfig(configPath, cfg)
	if err != nil {
		log.Printf("Config file not found or failed to parse, using defaults if file not specified. Path: %s, Error: %v", configPath, err)
		if path != "" {
			return nil, err
		}
		return cfg, nil
	}

	return parsedCfg, nil
}

// MustLoad loads configuration or exits on error
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}
