// Package redis connects the push engine to Redis using
// github.com/redis/go-redis/v9.
//
// Connect retries until the server answers PING or ConnectTimeout elapses;
// Healthcheck returns a readiness probe. Config is populated from REDIS_*
// environment variables.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	store := redisstore.New(client, redisstore.WithKeyPrefix(cfg.KeyPrefix))
package redis
