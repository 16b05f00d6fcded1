package internal

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

// Config is the daemon configuration, read from the environment.
type Config struct {
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true" validate:"required"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	Host              string        `env:"HOST,default=0.0.0.0"`
	Port              int           `env:"PORT,default=50051" validate:"min=1,max=65535"`
	MetricsPort       int           `env:"METRICS_PORT,default=9090" validate:"min=1,max=65535"`
	DebugPort         int           `env:"DEBUG_PORT,default=8081" validate:"min=1,max=65535"`
	AuthSecret        string        `env:"AUTH_SECRET,required=true" validate:"min=16"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h" validate:"gt=0"`
	LiveWindow        int           `env:"LIVE_WINDOW,default=20" validate:"min=1"`
	StatsInterval     time.Duration `env:"STATS_INTERVAL,default=5s" validate:"gt=0"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	BlobBackend       string        `env:"BLOB_BACKEND,default=disk" validate:"oneof=disk s3"`
	BlobRoot          string        `env:"BLOB_ROOT,default=./blobs"`
	BlobBaseURL       string        `env:"BLOB_BASE_URL"`
	S3Bucket          string        `env:"S3_BUCKET" validate:"required_if=BlobBackend s3"`
	S3Region          string        `env:"S3_REGION,default=eu-west-1"`
	S3Endpoint        string        `env:"S3_ENDPOINT"`
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads the environment and checks the values together.
func LoadConfig() (Config, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}
