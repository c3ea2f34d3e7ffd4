package database

import (
	"fmt"
	"strconv"
	"strings"

	"chat-service/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis databases by number. 0 holds refresh tokens, 1 backs the socket.io
// adapter, 2 holds the call-attempt cache.
var Redis = make(map[int]*redis.Client)

const (
	RedisTokens    = 0
	RedisSocketIO  = 1
	RedisCallCache = 2
)

func RedisConnect() {
	for _, db := range strings.Split(config.ConfigDefault("REDIS_DB", "0,1,2"), ",") {
		dbNumber, _ := strconv.Atoi(db)

		options := &redis.Options{
			Addr: fmt.Sprintf(
				"%s:%s",
				config.Config("REDIS_HOST"),
				config.Config("REDIS_PORT"),
			),
			Password: config.Config("REDIS_PASSWORD"),
			DB:       dbNumber,
		}

		Redis[dbNumber] = redis.NewClient(options)
	}

	zap.L().Info("connections opened to Redis")
}
