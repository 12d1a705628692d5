package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	API     APIConfig     `mapstructure:"api"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Breaker BreakerConfig `mapstructure:"breaker"`
	Cascade CascadeConfig `mapstructure:"cascade"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
}

type HTTPConfig struct {
	Port            string        `mapstructure:"port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type APIConfig struct {
	Prefix string `mapstructure:"prefix"`
}

type MongoConfig struct {
	URI              string        `mapstructure:"uri"`
	Database         string        `mapstructure:"database"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	PriceTTL time.Duration `mapstructure:"price_ttl"`
}

// KafkaConfig leaves publishing disabled when Brokers is empty.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type AuthConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`
}

type BreakerConfig struct {
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures"`
	OpenTimeout         time.Duration `mapstructure:"open_timeout"`
}

type CascadeConfig struct {
	RecoveryInterval time.Duration `mapstructure:"recovery_interval"`
	StaleAfter       time.Duration `mapstructure:"stale_after"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var defaults = map[string]any{
	"server.http.port":                   "8080",
	"server.http.request_timeout":        "30s",
	"server.http.shutdown_timeout":       "10s",
	"server.http.max_body_bytes":         1 << 20,
	"server.http.cors.allowed_origins":   []string{"*"},
	"server.http.cors.allowed_methods":   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	"server.http.cors.allowed_headers":   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
	"server.http.cors.exposed_headers":   []string{"X-Request-ID"},
	"server.http.cors.allow_credentials": false,
	"server.http.cors.max_age":           300,
	"api.prefix":                         "/api/v1",
	"mongo.uri":                          "mongodb://localhost:27017",
	"mongo.database":                     "shop",
	"mongo.operation_timeout":            "5s",
	"redis.addr":                         "localhost:6379",
	"redis.password":                     "",
	"redis.db":                           0,
	"redis.price_ttl":                    "15m",
	"kafka.brokers":                      []string{},
	"kafka.topic":                        "orders.events",
	"auth.jwt_secret":                    "",
	"auth.bcrypt_cost":                   10,
	"breaker.consecutive_failures":       5,
	"breaker.open_timeout":               "10s",
	"cascade.recovery_interval":          "1m",
	"cascade.stale_after":                "30s",
	"log.level":                          "info",
	"log.format":                         "json",
}

// Load reads .env (optional), config.yaml from the given paths (optional)
// and environment overrides such as MONGO_URI for mongo.uri.
func Load(paths ...string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if len(paths) > 0 {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load(".", "/etc/shop-service")
	if err != nil {
		panic("error while loading config: " + err.Error())
	}
	return cfg
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Mongo.URI == "" || c.Mongo.Database == "" {
		return errors.New("mongo.uri and mongo.database are required")
	}
	if !strings.HasPrefix(c.API.Prefix, "/") {
		return fmt.Errorf("api.prefix %q must start with /", c.API.Prefix)
	}
	return nil
}
