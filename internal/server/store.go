package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sakif/repoedit/internal/config"
	"github.com/sakif/repoedit/internal/repository"
	redisRepo "github.com/sakif/repoedit/internal/repository/redis"
	sqliteRepo "github.com/sakif/repoedit/internal/repository/sqlite"
)

// openStore opens the AccountRepository named by cfg.StoreDriver and returns
// the function that closes it.
func openStore(cfg config.Config, logger *slog.Logger) (repository.AccountRepository, func() error, error) {
	switch cfg.StoreDriver {
	case config.StoreRedis:
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("server: connecting to redis at %s: %w", cfg.RedisAddr, err)
		}

		logger.Info("account store opened", slog.String("driver", "redis"), slog.String("addr", cfg.RedisAddr))
		return redisRepo.NewAccountStore(rdb), rdb.Close, nil

	case config.StoreSQLite, "":
		if cfg.DBPath != ":memory:" {
			// os.MkdirAll is `mkdir -p`; 0755 = rwx for owner, r-x for others.
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return nil, nil, fmt.Errorf("server: creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("server: opening database: %w", err)
		}

		logger.Info("account store opened", slog.String("driver", "sqlite"), slog.String("path", cfg.DBPath))
		return db, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("server: unknown store driver %q", cfg.StoreDriver)
	}
}
