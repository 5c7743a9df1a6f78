package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	StorageRedis = "redis"
	StorageBolt  = "bolt"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit               string        `yaml:"git_commit" envconfig:"BKCT_GIT_COMMIT"`
	GitTag                  string        `yaml:"git_tag" envconfig:"BKCT_GIT_TAG"`
	BuildTime               string        `yaml:"build_time" envconfig:"BKCT_BUILD_TIME"`
	IsProduction            bool          `yaml:"is_production" envconfig:"BKCT_IS_PRODUCTION"`
	LogLevel                zapcore.Level `yaml:"log_level" envconfig:"BKCT_LOG_LEVEL"`
	LogFolder               string        `yaml:"log_folder" envconfig:"BKCT_LOG_FOLDER"`
	LogMaxSize              int           `yaml:"log_max_size" envconfig:"BKCT_LOG_MAX_SIZE"` // in megabytes
	OpsEndpointsEnable      bool          `yaml:"ops_endpoints_enable" envconfig:"BKCT_OPS_ENDPOINTS_ENABLE"`
	ProfilerEndpointsEnable bool          `yaml:"profiler_endpoints_enable" envconfig:"BKCT_PROFILER_ENDPOINTS_ENABLE"`
	Server                  ServerConfig  `yaml:"server"`
	Catalog                 CatalogConfig `yaml:"catalog"`
	Redis                   RedisConfig   `yaml:"redis"`
	BoltDB                  BoltDBConfig  `yaml:"boltdb"`
}

type ServerConfig struct {
	Host                    string        `yaml:"host" envconfig:"BKCT_SERVER_HOST"`
	Port                    string        `yaml:"port" envconfig:"BKCT_SERVER_PORT"`
	ReadTimeout             time.Duration `yaml:"read_timeout" envconfig:"BKCT_SERVER_READ_TIMEOUT"`
	WriteTimeout            time.Duration `yaml:"write_timeout" envconfig:"BKCT_SERVER_WRITE_TIMEOUT"`
	LongRequestWriteTimeout time.Duration `yaml:"long_request_write_timeout" envconfig:"BKCT_SERVER_LONG_REQUEST_WRITE_TIMEOUT"`
	RequestTimeout          time.Duration `yaml:"request_timeout" envconfig:"BKCT_SERVER_REQUEST_TIMEOUT"` // Time to wait for a request to finish
	ShutdownTimeout         time.Duration `yaml:"shutdown_timeout" envconfig:"BKCT_SERVER_SHUTDOWN_TIMEOUT"`
}

type CatalogConfig struct {
	Storage   string `yaml:"storage" envconfig:"BKCT_CATALOG_STORAGE"`     // redis or bolt
	Replicate bool   `yaml:"replicate" envconfig:"BKCT_CATALOG_REPLICATE"` // mirror appends into boltdb through redis queue
	RedisKey  string `yaml:"redis_key" envconfig:"BKCT_CATALOG_REDIS_KEY"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"BKCT_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"BKCT_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"BKCT_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"BKCT_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"BKCT_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"BKCT_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"BKCT_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"BKCT_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"BKCT_REDIS_PASSWORD"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"BKCT_REDIS_DATABASE_INDEX"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"BKCT_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BKCT_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"BKCT_BOLTDB_BUCKET_NAME"`
}

// UsesRedis tells if the redis server is required by the catalog setup.
func (c *Config) UsesRedis() bool {
	return c.Catalog.Storage == StorageRedis || c.Catalog.Replicate
}

// UsesBolt tells if the boltdb file is required by the catalog setup.
func (c *Config) UsesBolt() bool {
	return c.Catalog.Storage == StorageBolt || c.Catalog.Replicate
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and provides an instance of the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if config.LogFolder == "" {
		config.LogFolder = "./logs"
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 10
	}

	if config.Catalog.Storage == "" {
		config.Catalog.Storage = StorageBolt
	}

	if config.Catalog.RedisKey == "" {
		config.Catalog.RedisKey = DefaultCatalogRedisKey
	}

	if config.Catalog.Storage != StorageRedis && config.Catalog.Storage != StorageBolt {
		return fmt.Errorf("unknown catalog storage %q, use %q or %q", config.Catalog.Storage, StorageRedis, StorageBolt)
	}

	if config.Catalog.Replicate && config.Catalog.Storage == StorageBolt {
		return errors.New("catalog replication into boltdb requires the redis storage")
	}

	if config.UsesRedis() && (len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0) {
		return errors.New("make sure to set valid redis address and port in configuration file")
	}

	if config.UsesBolt() && (len(config.BoltDB.FilePath) == 0 || len(config.BoltDB.BucketName) == 0) {
		return errors.New("make sure to set valid boltdb file path and bucket name in configuration file")
	}

	if config.Server.ShutdownTimeout <= 0 {
		config.Server.ShutdownTimeout = 10 * time.Second
	}

	if config.Server.LongRequestWriteTimeout == 0 {
		config.Server.LongRequestWriteTimeout = config.Server.WriteTimeout
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile("./config.yml")
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration. The file is optional.
	err = godotenv.Load("./config.env")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `BKCT`.
	err = LoadConfigEnvs("BKCT", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
