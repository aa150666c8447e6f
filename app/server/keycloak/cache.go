package keycloak

import (
	"context"
	"errors"
	"fmt"
	"ihfiction/app/server/constants"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenCache 管理令牌与角色 ID 的缓存；注入实现以便测试与替换过期策略
type TokenCache interface {
	GetToken(ctx context.Context, clientID string) (string, error) // 未命中返回 ("", nil)
	SetToken(ctx context.Context, clientID string, token string, ttl time.Duration) error
	GetRoleID(ctx context.Context, role string) (string, error) // 未命中返回 ("", nil)
	SetRoleID(ctx context.Context, role string, id string) error
}

// RedisTokenCache 基于 Redis 的缓存实现，令牌的过期由 TTL 保证
type RedisTokenCache struct {
	rdb *redis.Client
}

func NewRedisTokenCache(rdb *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{rdb: rdb}
}

func (c *RedisTokenCache) GetToken(ctx context.Context, clientID string) (string, error) {
	token, err := c.rdb.Get(ctx, fmt.Sprintf(constants.CacheKeyKeycloakAdminToken, clientID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return token, err
}

func (c *RedisTokenCache) SetToken(ctx context.Context, clientID string, token string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf(constants.CacheKeyKeycloakAdminToken, clientID), token, ttl).Err()
}

func (c *RedisTokenCache) GetRoleID(ctx context.Context, role string) (string, error) {
	id, err := c.rdb.Get(ctx, fmt.Sprintf(constants.CacheKeyKeycloakRoleID, role)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return id, err
}

func (c *RedisTokenCache) SetRoleID(ctx context.Context, role string, id string) error {
	return c.rdb.Set(ctx, fmt.Sprintf(constants.CacheKeyKeycloakRoleID, role), id, constants.CacheExpireKeycloakRoleID).Err()
}
