package main

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Environment    string   `mapstructure:"ENVIRONMENT"`
	Version        string   `mapstructure:"VERSION"`
	ClientURL      string   `mapstructure:"CLIENT_URL"`
	TrustedOrigins []string `mapstructure:"TRUSTED_ORIGINS"`

	DBHost     string `mapstructure:"POSTGRES_HOST"`
	DBPort     string `mapstructure:"POSTGRES_PORT"`
	DBUser     string `mapstructure:"POSTGRES_USER"`
	DBPassword string `mapstructure:"POSTGRES_PASSWORD"`
	DBName     string `mapstructure:"POSTGRES_DB"`

	MailHost     string `mapstructure:"MAIL_HOST"`
	MailPort     int    `mapstructure:"MAIL_PORT"`
	MailUser     string `mapstructure:"MAIL_USER"`
	MailPassword string `mapstructure:"MAIL_PASSWORD"`
	MailSender   string `mapstructure:"MAIL_SENDER"`

	MQHost     string `mapstructure:"RABBITMQ_HOST"`
	MQPort     string `mapstructure:"RABBITMQ_PORT"`
	MQUser     string `mapstructure:"RABBITMQ_USER"`
	MQPassword string `mapstructure:"RABBITMQ_PASSWORD"`

	AccessSecret  string        `mapstructure:"JWT_ACCESS_SECRET"`
	RefreshSecret string        `mapstructure:"JWT_REFRESH_SECRET"`
	ResetSecret   string        `mapstructure:"JWT_RESET_SECRET"`
	AccessTTL     time.Duration `mapstructure:"JWT_ACCESS_TTL"`
	RefreshTTL    time.Duration `mapstructure:"JWT_REFRESH_TTL"`
	ResetTTL      time.Duration `mapstructure:"JWT_RESET_TTL"`
	BcryptCost    int           `mapstructure:"BCRYPT_COST"`

	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3Region    string `mapstructure:"S3_REGION"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3PublicURL string `mapstructure:"S3_PUBLIC_URL"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
}

func (c *Config) development() bool {
	return c.Environment == "development"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "production")
	v.SetDefault("VERSION", "1.0.0")
	v.SetDefault("CLIENT_URL", "http://localhost:3000")
	v.SetDefault("TRUSTED_ORIGINS", "http://localhost:3000")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("MAIL_PORT", 587)
	v.SetDefault("RABBITMQ_HOST", "localhost")
	v.SetDefault("RABBITMQ_PORT", "5672")
	v.SetDefault("JWT_ACCESS_TTL", "5m")
	v.SetDefault("JWT_REFRESH_TTL", "360h")
	v.SetDefault("JWT_RESET_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("RATE_LIMIT_RPS", 4)
	v.SetDefault("RATE_LIMIT_BURST", 8)
}

// loadConfig reads the env file at path. Variables set in the environment take precedence.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	for _, key := range v.AllKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.TrustedOrigins = splitOrigins(config.TrustedOrigins)
	if !strings.HasPrefix(config.Port, ":") {
		config.Port = ":" + config.Port
	}

	return &config, nil
}

// splitOrigins flattens comma separated entries into one origin per element.
func splitOrigins(origins []string) []string {
	out := []string{}
	for _, o := range origins {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
