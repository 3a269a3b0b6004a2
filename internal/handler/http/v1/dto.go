package v1

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest DTO для регистрации пользователя
// @Description DTO для регистрации пользователя
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest DTO для входа пользователя
// @Description DTO для входа пользователя
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateIncidentForm DTO для создания инцидента из multipart-формы.
// Координаты приходят строками и проверяются до преобразования в числа.
// @Description DTO для создания инцидента из multipart-формы
type CreateIncidentForm struct {
	Title       string `form:"title" validate:"required"`
	Description string `form:"description" validate:"required"`
	Lat         string `form:"lat" validate:"required,latitude"`
	Long        string `form:"long" validate:"required,longitude"`
	CreatedAt   string `form:"created_at" validate:"omitempty"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	IncidentID  uuid.UUID `json:"incident_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Lat         float64   `json:"lat"`
	Long        float64   `json:"long"`
	ImageURL    *string   `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	OwnerID     uuid.UUID `json:"owner_id"`
}

// MessageResponse DTO для ответа с одним сообщением
// @Description DTO для ответа с одним сообщением
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterResponse DTO для ответа на успешную регистрацию
// @Description DTO для ответа на успешную регистрацию
type RegisterResponse struct {
	Message string    `json:"message"`
	UserID  uuid.UUID `json:"user_id"`
}

// LoginResponse DTO для ответа на успешный вход
// @Description DTO для ответа на успешный вход
type LoginResponse struct {
	Message  string    `json:"message"`
	Token    string    `json:"token"`
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
}
