package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bonmwang/Ajali-Incident-App/internal/config"
	"github.com/bonmwang/Ajali-Incident-App/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenDenylist определяет контракт для хранения отозванных токенов
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// TokenManager определяет контракт для выпуска и проверки сессионных токенов
type TokenManager interface {
	Issue(user *models.User) (string, error)
	Verify(ctx context.Context, raw string) (*models.Claims, error)
	Revoke(ctx context.Context, raw string) error
}

type tokenManager struct {
	secret   []byte
	ttl      time.Duration
	denylist TokenDenylist
}

func NewTokenManager(cfg *config.Config, denylist TokenDenylist) TokenManager {
	return &tokenManager{
		secret:   []byte(cfg.JWTSecret),
		ttl:      cfg.TokenTTL,
		denylist: denylist,
	}
}

// Issue выпускает подписанный токен сессии для пользователя
func (m *tokenManager) Issue(user *models.User) (string, error) {
	now := time.Now().UTC()
	claims := models.Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("service: could not sign token: %w", err)
	}
	return signed, nil
}

// Verify разбирает токен и проверяет подпись, срок действия и отзыв
func (m *tokenManager) Verify(ctx context.Context, raw string) (*models.Claims, error) {
	claims, err := m.parse(raw)
	if err != nil {
		return nil, err
	}

	revoked, err := m.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("service: could not check token revocation: %w", err)
	}
	if revoked {
		return nil, models.ErrInvalidToken
	}
	return claims, nil
}

// Revoke помещает токен в список отозванных до конца его срока действия
func (m *tokenManager) Revoke(ctx context.Context, raw string) error {
	claims, err := m.parse(raw)
	if err != nil {
		return err
	}

	if err := m.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("service: could not revoke token: %w", err)
	}
	return nil
}

func (m *tokenManager) parse(raw string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &models.Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid {
		return nil, models.ErrInvalidToken
	}
	// Токены без срока действия не выпускаются
	if claims.ExpiresAt == nil {
		return nil, models.ErrInvalidToken
	}
	return claims, nil
}
