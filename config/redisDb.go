package config

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	rdb *redis.Client
)

func GetRedisDB() *redis.Client {
	return rdb
}

// ConnectRedisWithRetry connects and sets the global redis client. Redis is
// only used for request rate limiting, so a missing REDIS_ADDRESS leaves the
// client nil and the limiter disabled.
func ConnectRedisWithRetry() {
	address := strings.TrimSpace(os.Getenv("REDIS_ADDRESS"))
	if address == "" {
		GetLogger().Info("REDIS_ADDRESS not set; rate limiting disabled")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr: address,
	})

	var attempt int
	for {
		attempt++
		err := client.Ping(context.Background()).Err()
		if err == nil {
			rdb = client
			return
		}
		if attempt >= 5 {
			GetLogger().Warn("could not reach redis after 5 attempts; rate limiting disabled: " + err.Error())
			return
		}
		time.Sleep(time.Second * time.Duration(attempt))
	}
}
