package config

import (
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Source      SourceConfig
	Destination DestinationConfig
	Transfer    TransferConfig
	Metrics     MetricsConfig
	Server      ServerConfig
	App         AppConfig
}

type SourceConfig struct {
	Bucket            string
	CredentialsSecret string
	AWSRegion         string
}

// DestinationConfig selects the placement target. Kind is either "s3"
// (S3-compatible object store via minio) or "fs" (mounted filesystem).
type DestinationConfig struct {
	Kind      string
	Bucket    string
	Prefix    string
	Directory string
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

type TransferConfig struct {
	Suffix         string
	LookbackHours  int
	WorkerCount    int
	Validate       bool
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

type MetricsConfig struct {
	Enabled   bool
	Namespace string
}

type ServerConfig struct {
	Port           string
	Mode           string
	AllowedOrigins []string
}

type AppConfig struct {
	LogLevel string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SOURCE_BUCKET", "")
		viper.SetDefault("SOURCE_CREDS_SECRET_NAME", "")
		viper.SetDefault("AWS_REGION", "us-east-1")
		viper.SetDefault("DEST_KIND", "s3")
		viper.SetDefault("DEST_BUCKET", "")
		viper.SetDefault("DEST_PREFIX", "")
		viper.SetDefault("DEST_DIR", "./data/output")
		viper.SetDefault("DEST_ENDPOINT", "")
		viper.SetDefault("DEST_ACCESS_KEY", "")
		viper.SetDefault("DEST_SECRET_KEY", "")
		viper.SetDefault("DEST_REGION", "us-east-1")
		viper.SetDefault("DEST_USE_SSL", true)
		viper.SetDefault("TRANSFER_SUFFIX", ".zip")
		viper.SetDefault("LOOKBACK_HOURS", 1)
		viper.SetDefault("WORKER_COUNT", 4)
		viper.SetDefault("VALIDATE_CONTENT", true)
		viper.SetDefault("RETRY_ATTEMPTS", 3)
		viper.SetDefault("RETRY_BASE_DELAY_SECONDS", 4)
		viper.SetDefault("RETRY_MAX_DELAY_SECONDS", 10)
		viper.SetDefault("METRICS_ENABLED", true)
		viper.SetDefault("METRICS_NAMESPACE", "MetSync")
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "release")
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("LOG_LEVEL", "info")

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Source: SourceConfig{
				Bucket:            viper.GetString("SOURCE_BUCKET"),
				CredentialsSecret: viper.GetString("SOURCE_CREDS_SECRET_NAME"),
				AWSRegion:         viper.GetString("AWS_REGION"),
			},
			Destination: DestinationConfig{
				Kind:      viper.GetString("DEST_KIND"),
				Bucket:    viper.GetString("DEST_BUCKET"),
				Prefix:    viper.GetString("DEST_PREFIX"),
				Directory: viper.GetString("DEST_DIR"),
				Endpoint:  viper.GetString("DEST_ENDPOINT"),
				AccessKey: viper.GetString("DEST_ACCESS_KEY"),
				SecretKey: viper.GetString("DEST_SECRET_KEY"),
				Region:    viper.GetString("DEST_REGION"),
				UseSSL:    viper.GetBool("DEST_USE_SSL"),
			},
			Transfer: TransferConfig{
				Suffix:         viper.GetString("TRANSFER_SUFFIX"),
				LookbackHours:  viper.GetInt("LOOKBACK_HOURS"),
				WorkerCount:    viper.GetInt("WORKER_COUNT"),
				Validate:       viper.GetBool("VALIDATE_CONTENT"),
				RetryAttempts:  viper.GetInt("RETRY_ATTEMPTS"),
				RetryBaseDelay: time.Duration(viper.GetInt("RETRY_BASE_DELAY_SECONDS")) * time.Second,
				RetryMaxDelay:  time.Duration(viper.GetInt("RETRY_MAX_DELAY_SECONDS")) * time.Second,
			},
			Metrics: MetricsConfig{
				Enabled:   viper.GetBool("METRICS_ENABLED"),
				Namespace: viper.GetString("METRICS_NAMESPACE"),
			},
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			App: AppConfig{
				LogLevel: viper.GetString("LOG_LEVEL"),
			},
		}
	})

	return instance
}
