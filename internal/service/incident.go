package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bonmwang/Ajali-Incident-App/internal/cleanup"
	"github.com/bonmwang/Ajali-Incident-App/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// IncidentRepository определяет контракт для работы с бд инцидентов
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	Update(ctx context.Context, id uuid.UUID, upd *models.IncidentUpdate, imageURL *string) (*models.Incident, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListIncidents(ctx context.Context) ([]*models.Incident, error)
	GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	SetIncidentCache(ctx context.Context, incident *models.Incident) error
	InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error
}

// ImageStore определяет контракт для хранения файлов изображений
type ImageStore interface {
	Save(ctx context.Context, filename string, size int64, r io.Reader) (string, error)
	Resolve(name string) (string, error)
	Remove(imageURL string) error
}

// IncidentService определяет контракт для бизнес-логики управления инцидентами
type IncidentService interface {
	CreateIncident(ctx context.Context, incident *models.Incident, image *models.ImageUpload) error
	GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	UpdateIncident(ctx context.Context, actorID, id uuid.UUID, upd *models.IncidentUpdate, image *models.ImageUpload) (*models.Incident, error)
	DeleteIncident(ctx context.Context, actorID, id uuid.UUID) error
	ListIncidents(ctx context.Context) ([]*models.Incident, error)
}

type incidentService struct {
	repo      IncidentRepository
	images    ImageStore
	reclaimer cleanup.ReclaimPublisher
	logger    *logrus.Logger
}

func NewIncidentService(repo IncidentRepository, images ImageStore, reclaimer cleanup.ReclaimPublisher, logger *logrus.Logger) IncidentService {
	return &incidentService{
		repo:      repo,
		images:    images,
		reclaimer: reclaimer,
		logger:    logger,
	}
}

// CreateIncident сохраняет изображение (если есть) и создает инцидент
func (s *incidentService) CreateIncident(ctx context.Context, incident *models.Incident, image *models.ImageUpload) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "incident",
		"method":   "CreateIncident",
		"title":    incident.Title,
		"owner_id": incident.OwnerID,
	})
	log.Info("Attempting to create a new incident")

	if incident.CreatedAt.IsZero() {
		incident.CreatedAt = time.Now().UTC()
	}

	// Файл пишется до записи в бд: инцидент без файла невозможен,
	// а осиротевший файл подберет фоновый сборщик
	if image != nil {
		url, err := s.images.Save(ctx, image.Filename, image.Size, image.Reader)
		if err != nil {
			log.WithError(err).Warn("Failed to store incident image")
			return fmt.Errorf("service: could not store image: %w", err)
		}
		incident.ImageURL = &url
	}

	if err := s.repo.Create(ctx, incident); err != nil {
		if incident.ImageURL != nil {
			s.reclaim(ctx, *incident.ImageURL, cleanup.ReasonWriteFailed)
		}
		log.WithError(err).Error("Failed to create incident in repository")
		return fmt.Errorf("service: could not create incident: %w", err)
	}

	log.WithField("incident_id", incident.ID).Info("Incident created successfully")
	return nil
}

// GetIncident получает инцидент по ID, сначала из кеша, затем из бд
func (s *incidentService) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})
	log.Info("Fetching incident by ID")

	cached, err := s.repo.GetIncidentFromCache(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to read incident from cache")
	}
	if cached != nil {
		log.Debug("Incident served from cache")
		return cached, nil
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Error("Failed to get incident from repository")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}

	if err := s.repo.SetIncidentCache(ctx, incident); err != nil {
		log.WithError(err).Warn("Failed to cache incident")
	}

	log.Info("Incident fetched successfully")
	return incident, nil
}

// UpdateIncident обновляет поля инцидента, переданные в upd, и изображение
func (s *incidentService) UpdateIncident(ctx context.Context, actorID, id uuid.UUID, upd *models.IncidentUpdate, image *models.ImageUpload) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "UpdateIncident",
		"incident_id": id,
		"actor_id":    actorID,
	})
	log.Info("Attempting to update an incident")

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to update a non-existent incident")
		return nil, fmt.Errorf("service: incident with id %s not found for update: %w", id, err)
	}

	if existing.OwnerID != actorID {
		log.Warn("Attempted to update an incident owned by another user")
		return nil, models.ErrNotOwner
	}

	// Пустое обновление отклоняется только после проверок существования и прав
	if image == nil && !upd.HasChanges() {
		log.Warn("Attempted to update an incident without any fields")
		return nil, models.ErrNoUpdateFields
	}

	var newImageURL *string
	var replaced string
	if image != nil {
		url, err := s.images.Save(ctx, image.Filename, image.Size, image.Reader)
		if err != nil {
			log.WithError(err).Warn("Failed to store replacement image")
			return nil, fmt.Errorf("service: could not store image: %w", err)
		}
		if existing.ImageURL != nil {
			replaced = *existing.ImageURL
		}
		newImageURL = &url
	}

	updated, err := s.repo.Update(ctx, id, upd, newImageURL)
	if err != nil {
		// Строка не обновилась, новый файл осиротел
		if newImageURL != nil {
			s.reclaim(ctx, *newImageURL, cleanup.ReasonWriteFailed)
		}
		log.WithError(err).Error("Failed to update incident in repository")
		return nil, fmt.Errorf("service: could not update incident: %w", err)
	}

	if replaced != "" {
		s.reclaim(ctx, replaced, cleanup.ReasonImageReplaced)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	log.Info("Incident updated successfully")
	return updated, nil
}

// DeleteIncident удаляет инцидент и ставит его изображение в очередь на удаление
func (s *incidentService) DeleteIncident(ctx context.Context, actorID, id uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "DeleteIncident",
		"incident_id": id,
		"actor_id":    actorID,
	})
	log.Info("Attempting to delete incident")

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to delete a non-existent incident")
		return fmt.Errorf("service: incident with id %s not found for delete: %w", id, err)
	}

	if existing.OwnerID != actorID {
		log.Warn("Attempted to delete an incident owned by another user")
		return models.ErrNotOwner
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		log.WithError(err).Error("Failed to delete incident in repository")
		return fmt.Errorf("service: could not delete incident: %w", err)
	}

	if existing.ImageURL != nil {
		s.reclaim(ctx, *existing.ImageURL, cleanup.ReasonIncidentDeleted)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	log.Info("Incident deleted successfully")
	return nil
}

// ListIncidents возвращает все инциденты, новые первыми
func (s *incidentService) ListIncidents(ctx context.Context) ([]*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "ListIncidents",
	})
	log.Info("Listing incidents")

	incidents, err := s.repo.ListIncidents(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from repository")
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}

	log.WithField("count", len(incidents)).Info("Incidents listed successfully")
	return incidents, nil
}

// reclaim ставит файл в очередь на удаление, сбой очереди не прерывает операцию
func (s *incidentService) reclaim(ctx context.Context, imageURL, reason string) {
	event := cleanup.ReclaimEvent{
		ImageURL:    imageURL,
		Reason:      reason,
		RequestedAt: time.Now().UTC(),
	}
	if err := s.reclaimer.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithField("image_url", imageURL).Warn("Failed to enqueue image for reclaim")
	}
}
