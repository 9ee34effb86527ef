package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"
)

func NewRedisOptions() (*redis.Options, error) {
	addr, ok := os.LookupEnv("REDIS_ADDR")
	if !ok {
		return nil, fmt.Errorf("no REDIS_ADDR env variable set")
	}

	db := 0
	if dbStr, ok := os.LookupEnv("REDIS_DB"); ok {
		var err error
		db, err = strconv.Atoi(dbStr)
		if err != nil {
			return nil, fmt.Errorf("unable to convert REDIS_DB to int: %w", err)
		}
	}

	options := &redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}

	return options, nil
}
