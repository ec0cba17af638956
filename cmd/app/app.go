package app

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ticketi/ticketi-api/internal/api"
	"github.com/ticketi/ticketi-api/internal/config"
	"github.com/ticketi/ticketi-api/internal/db"
	"github.com/ticketi/ticketi-api/internal/logger"
)

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	defer func() { _ = zap.L().Sync() }()

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL, conf.Postgres)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	var redisClient redis.Cmdable
	if conf.Redis.Enabled {
		opts, err := redis.ParseURL(conf.Redis.URL)
		if err != nil {
			return fmt.Errorf("failed to parse redis url -> %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		redisClient = client
		zap.L().Info("availability cache enabled", zap.Duration("ttl", conf.Redis.AvailabilityTTL))
	}

	s := api.NewServer(conf, postgresDB, redisClient)

	addr := ":" + s.Config.API.Port
	zap.L().Info(fmt.Sprintf("starting server at %v", addr))
	if err = s.Router.Run(addr); err != nil {
		return fmt.Errorf("failed to start the server -> %w", err)
	}

	return nil
}
