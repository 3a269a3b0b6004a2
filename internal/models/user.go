package models

import (
	"time"

	"github.com/google/uuid"
)

// User - учетная запись пользователя. Пароль хранится только в виде bcrypt-хэша.
type User struct {
	ID           uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
