package audiocache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces clip keys so the cache can share a logical
// database with other applications.
const redisKeyPrefix = "zi2anki:audio:"

// RedisOptions carries the connection parameters for NewRedis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // 0 = entries never expire
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to Redis and verifies the connection with a ping
// before returning the store.
func NewRedis(opts RedisOptions) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	return &redisStore{client: client, ttl: opts.TTL}, nil
}

func (s *redisStore) Get(ctx context.Context, word string) ([]byte, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+Key(word)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

func (s *redisStore) Put(ctx context.Context, word string, data []byte) error {
	if err := s.client.Set(ctx, redisKeyPrefix+Key(word), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *redisStore) Len(ctx context.Context) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan: %w", err)
	}
	return n, nil
}

func (s *redisStore) Close() error { return s.client.Close() }
