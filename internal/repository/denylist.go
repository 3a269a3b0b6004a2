package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bonmwang/Ajali-Incident-App/internal/service"
	"github.com/redis/go-redis/v9"
)

const revokedTokenPrefix = "revoked_token:"

// TokenDenylist хранит идентификаторы отозванных токенов в Redis.
type TokenDenylist struct {
	redisClient *redis.Client
}

func NewTokenDenylist(client *redis.Client) service.TokenDenylist {
	return &TokenDenylist{redisClient: client}
}

// Revoke помечает токен отозванным до истечения его срока действия
func (d *TokenDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		// Токен уже истек, хранить отметку незачем
		return nil
	}

	if err := d.redisClient.Set(ctx, revokedTokenPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked проверяет, был ли токен отозван
func (d *TokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.redisClient.Exists(ctx, revokedTokenPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}
