package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type AppConfig struct {
	API       *APIConfig       `mapstructure:"api"`
	Gin       *GinConfig       `mapstructure:"gin"`
	Postgres  *PostgresConfig  `mapstructure:"postgres"`
	Redis     *RedisConfig     `mapstructure:"redis"`
	Ticketing *TicketingConfig `mapstructure:"ticketing"`
}

type APIConfig struct {
	Environment        string   `mapstructure:"environment"`
	Port               string   `mapstructure:"port"`
	BaseURL            string   `mapstructure:"base_url"`
	AllowedCORSDomains []string `mapstructure:"allowed_cors_domains"`
	JWTSigningKey      string   `mapstructure:"jwt_signing_key"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DB              string        `mapstructure:"db"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	URL             string        `mapstructure:"url"`
	AvailabilityTTL time.Duration `mapstructure:"availability_ttl"`
}

type TicketingConfig struct {
	MaxCapacity        int     `mapstructure:"max_capacity"`
	ClaimAttempts      int     `mapstructure:"claim_attempts"`
	InventoryBatchSize int     `mapstructure:"inventory_batch_size"`
	PurchaseRate       float64 `mapstructure:"purchase_rate"`
	PurchaseBurst      int     `mapstructure:"purchase_burst"`
}

var (
	ErrMissingPort          = errors.New("api.port is required")
	ErrMissingSigningKey    = errors.New("api.jwt_signing_key is required")
	ErrInvalidMaxCapacity   = errors.New("ticketing.max_capacity must be greater than 0")
	ErrInvalidClaimAttempts = errors.New("ticketing.claim_attempts must be at least 1")
	ErrInvalidPurchaseRate  = errors.New("ticketing.purchase_rate and purchase_burst must be greater than 0")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "8080")
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 25)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", "30m")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.availability_ttl", "15s")
	v.SetDefault("ticketing.max_capacity", 100000)
	v.SetDefault("ticketing.claim_attempts", 3)
	v.SetDefault("ticketing.inventory_batch_size", 500)
	v.SetDefault("ticketing.purchase_rate", 5)
	v.SetDefault("ticketing.purchase_burst", 10)
}

// Load reads the yaml file at path. Any key can be overridden from the
// environment, e.g. POSTGRES_HOST overrides postgres.host.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("conf.Validate -> %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		zap.L().Info("config file changed, restart to apply", zap.String("file", e.Name), zap.String("op", e.Op.String()))
	})
	v.WatchConfig()

	return conf, nil
}

func (c *AppConfig) Validate() error {
	if c.API == nil || c.API.Port == "" {
		return ErrMissingPort
	}
	if c.API.JWTSigningKey == "" {
		return ErrMissingSigningKey
	}
	if c.Gin == nil {
		c.Gin = &GinConfig{Mode: "debug"}
	}
	if c.Postgres == nil {
		c.Postgres = &PostgresConfig{}
	}
	if c.Redis == nil {
		c.Redis = &RedisConfig{}
	}
	if c.Ticketing == nil || c.Ticketing.MaxCapacity <= 0 {
		return ErrInvalidMaxCapacity
	}
	if c.Ticketing.ClaimAttempts < 1 {
		return ErrInvalidClaimAttempts
	}
	if c.Ticketing.PurchaseRate <= 0 || c.Ticketing.PurchaseBurst <= 0 {
		return ErrInvalidPurchaseRate
	}

	return nil
}

func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.DB, c.Port, c.SSLMode)
}
