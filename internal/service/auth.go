package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bonmwang/Ajali-Incident-App/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository определяет контракт для работы с бд пользователей
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// AuthService определяет контракт для регистрации и сессий пользователей
type AuthService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.User, string, error)
	Logout(ctx context.Context, rawToken string) error
}

type authService struct {
	users  UserRepository
	tokens TokenManager
	logger *logrus.Logger
}

func NewAuthService(users UserRepository, tokens TokenManager, logger *logrus.Logger) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// Register создает нового пользователя с хешированным паролем
func (s *authService) Register(ctx context.Context, username, password string) (*models.User, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "auth",
		"method":   "Register",
		"username": username,
	})
	log.Info("Attempting to register a new user")

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Error("Failed to hash password")
		return nil, fmt.Errorf("service: could not hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrUserExists) {
			log.Warn("Attempted to register an existing username")
			return nil, err
		}
		log.WithError(err).Error("Failed to create user in repository")
		return nil, fmt.Errorf("service: could not create user: %w", err)
	}

	log.WithField("user_id", user.ID).Info("User registered successfully")
	return user, nil
}

// Login проверяет учетные данные и выпускает сессионный токен
func (s *authService) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "auth",
		"method":   "Login",
		"username": username,
	})
	log.Info("Attempting to log in")

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			// Ответ не различает неизвестное имя и неверный пароль
			log.Warn("Login attempt for unknown username")
			return nil, "", models.ErrInvalidCredentials
		}
		log.WithError(err).Error("Failed to get user from repository")
		return nil, "", fmt.Errorf("service: could not get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn("Login attempt with wrong password")
		return nil, "", models.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		log.WithError(err).Error("Failed to issue session token")
		return nil, "", fmt.Errorf("service: could not issue token: %w", err)
	}

	log.WithField("user_id", user.ID).Info("User logged in successfully")
	return user, token, nil
}

// Logout отзывает сессионный токен
func (s *authService) Logout(ctx context.Context, rawToken string) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "auth",
		"method":  "Logout",
	})

	if err := s.tokens.Revoke(ctx, rawToken); err != nil {
		log.WithError(err).Error("Failed to revoke session token")
		return fmt.Errorf("service: could not revoke token: %w", err)
	}

	log.Info("User logged out successfully")
	return nil
}
