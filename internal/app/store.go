package app

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper/internal/config"
	"github.com/vancomm/minesweeper/internal/database"
	"github.com/vancomm/minesweeper/internal/store"
)

// OpenStore connects the slot store selected by cfg.Driver. The returned
// func releases its connections.
func OpenStore(
	ctx context.Context,
	log logrus.FieldLogger,
	cfg config.Store,
	migrations fs.FS,
) (store.Slots, func(), error) {
	noop := func() {}
	switch cfg.Driver {
	case "", "memory":
		return store.NewMemory(), noop, nil
	case "file":
		slots, err := store.NewFile(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return slots, noop, nil
	case "postgres":
		pool, migrator, err := database.ConnectAndMigrate(ctx, migrations)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to connect to db: %w", err)
		}
		if version, dirty, err := migrator.Version(); err == nil {
			log.WithFields(logrus.Fields{
				"version": version,
				"dirty":   dirty,
			}).Info("database migrated")
		}
		return store.NewPostgres(pool), pool.Close, nil
	case "redis":
		options, err := config.NewRedisOptions()
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewClient(options)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("unable to ping redis: %w", err)
		}
		return store.NewRedis(client, cfg.RedisPrefix, cfg.RedisTTL.Duration), func() { client.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
