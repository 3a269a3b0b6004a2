package v1

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bonmwang/Ajali-Incident-App/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// FormToIncidentModel преобразует форму создания в доменную модель.
// created_at принимается в формате RFC3339 и по умолчанию остается нулевым.
func FormToIncidentModel(ownerID uuid.UUID, form CreateIncidentForm) (*models.Incident, error) {
	lat, err := strconv.ParseFloat(form.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lat value")
	}
	long, err := strconv.ParseFloat(form.Long, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid long value")
	}

	incident := &models.Incident{
		Title:       form.Title,
		Description: form.Description,
		Lat:         lat,
		Long:        long,
		OwnerID:     ownerID,
	}

	if form.CreatedAt != "" {
		createdAt, err := time.Parse(time.RFC3339, form.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at value, expected RFC3339")
		}
		incident.CreatedAt = createdAt
	}
	return incident, nil
}

// formToIncidentUpdate собирает частичное обновление из полей, присутствующих в форме
func formToIncidentUpdate(c *gin.Context, validate *validator.Validate) (*models.IncidentUpdate, error) {
	upd := &models.IncidentUpdate{}

	if title, ok := c.GetPostForm("title"); ok {
		upd.Title = &title
	}
	if description, ok := c.GetPostForm("description"); ok {
		upd.Description = &description
	}
	if latStr, ok := c.GetPostForm("lat"); ok {
		if err := validate.Var(latStr, "latitude"); err != nil {
			return nil, fmt.Errorf("invalid lat value")
		}
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid lat value")
		}
		upd.Lat = &lat
	}
	if longStr, ok := c.GetPostForm("long"); ok {
		if err := validate.Var(longStr, "longitude"); err != nil {
			return nil, fmt.Errorf("invalid long value")
		}
		long, err := strconv.ParseFloat(longStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid long value")
		}
		upd.Long = &long
	}

	return upd, nil
}

// formImage извлекает файл изображения из multipart-формы, если он приложен
func formImage(c *gin.Context) (*models.ImageUpload, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}

	return &models.ImageUpload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Reader:   f,
	}, nil
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	return &IncidentResponse{
		IncidentID:  model.ID,
		Title:       model.Title,
		Description: model.Description,
		Lat:         model.Lat,
		Long:        model.Long,
		ImageURL:    model.ImageURL,
		CreatedAt:   model.CreatedAt,
		OwnerID:     model.OwnerID,
	}
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(models []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToIncidentResponse(model)
	}
	return responses
}
