package models

import "errors"

// Доменные ошибки. Слои ниже оборачивают их через %w,
// хендлеры переводят в HTTP-статусы через errors.Is.
var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("token is invalid or expired")
	ErrIncidentNotFound   = errors.New("incident not found")
	ErrNotOwner           = errors.New("incident belongs to another user")
	ErrNoUpdateFields     = errors.New("no fields provided for update")
)
