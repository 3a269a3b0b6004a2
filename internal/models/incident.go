package models

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// Incident - запись об инциденте с географической привязкой.
// ImageURL хранит относительную ссылку на загруженное изображение или nil.
type Incident struct {
	ID          uuid.UUID `json:"incident_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Lat         float64   `json:"lat"`
	Long        float64   `json:"long"`
	ImageURL    *string   `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	OwnerID     uuid.UUID `json:"owner_id"`
}

// IncidentUpdate - частичное обновление: применяются только заданные поля.
// Замена изображения идет отдельным путем через загрузку файла.
type IncidentUpdate struct {
	Title       *string
	Description *string
	Lat         *float64
	Long        *float64
}

// HasChanges сообщает, задано ли хотя бы одно поле для обновления.
func (u *IncidentUpdate) HasChanges() bool {
	return u.Title != nil || u.Description != nil || u.Lat != nil || u.Long != nil
}

// ImageUpload описывает принятый от клиента файл изображения.
type ImageUpload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// Close закрывает источник файла, если тот поддерживает закрытие.
func (u *ImageUpload) Close() error {
	if c, ok := u.Reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
