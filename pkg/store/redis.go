package store

import (
	"context"
	stderrors "errors"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/gridpage/pkg/errors"
	"github.com/matzehuels/gridpage/pkg/page"
)

const backendRedis = "redis"

// Redis key layout.
const (
	redisKeyPrefix = "gridpage:page:"
	redisIndexKey  = "gridpage:pages"
)

// RedisStore keeps each page as a JSON string under gridpage:page:<id> and
// tracks ids in the gridpage:pages set.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client. Close closes the client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// DialRedisStore connects to addr and verifies the connection with PING.
func DialRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, storeErr(err, "connect redis %s", addr)
	}
	return NewRedisStore(client), nil
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (doc *page.Document, err error) {
	defer observe(ctx, backendRedis, "get", time.Now(), &err)
	if err := errors.ValidatePageID(id); err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storeErr(err, "get page %q", id)
	}
	return decode(id, data)
}

func (s *RedisStore) Put(ctx context.Context, doc *page.Document) (err error) {
	defer observe(ctx, backendRedis, "put", time.Now(), &err)
	if err := checkPut(doc); err != nil {
		return err
	}

	data, err := encode(doc)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKey(doc.ID), data, 0)
		pipe.SAdd(ctx, redisIndexKey, doc.ID)
		return nil
	})
	if err != nil {
		return storeErr(err, "put page %q", doc.ID)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) (err error) {
	defer observe(ctx, backendRedis, "delete", time.Now(), &err)
	if err := errors.ValidatePageID(id); err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisKey(id))
		pipe.SRem(ctx, redisIndexKey, id)
		return nil
	})
	if err != nil {
		return storeErr(err, "delete page %q", id)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) (ids []string, err error) {
	defer observe(ctx, backendRedis, "list", time.Now(), &err)

	ids, err = s.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, storeErr(err, "list pages")
	}
	slices.Sort(ids)
	return ids, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
