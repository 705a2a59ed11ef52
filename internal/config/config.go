package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port             int    `envconfig:"PORT" default:"8080"`
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL      string `envconfig:"DATABASE_URL" required:"true"`
	TokenSecret      string `envconfig:"TOKEN_SECRET" required:"true"`
	TokenTTLMinutes  int    `envconfig:"TOKEN_TTL_MINUTES" default:"30"`
	BcryptCost       int    `envconfig:"BCRYPT_COST" default:"12"`
	AWSRegion        string `envconfig:"AWS_REGION" default:"us-west-2"`
	AWSAccessKeyID   string `envconfig:"AWS_ACCESS_KEY_ID" default:""`
	AWSSecretKey     string `envconfig:"AWS_SECRET_ACCESS_KEY" default:""`
	CostTagKey       string `envconfig:"COST_TAG_KEY" default:"Team"`
	AllowedOrigin    string `envconfig:"ALLOWED_ORIGIN" default:"http://localhost:3000"`
	IngestEnabled    bool   `envconfig:"INGEST_ENABLED" default:"true"`
	IngestMaxRetries int    `envconfig:"INGEST_MAX_RETRIES" default:"3"`
	Version          string `envconfig:"VERSION" default:"dev"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
