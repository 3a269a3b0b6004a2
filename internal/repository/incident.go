package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bonmwang/Ajali-Incident-App/internal/models"
	"github.com/bonmwang/Ajali-Incident-App/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type IncidentRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
}

func NewIncidentRepository(db *pgxpool.Pool, redisClient *redis.Client) service.IncidentRepository {
	return &IncidentRepository{
		db:          db,
		redisClient: redisClient,
	}
}

// Create создает новую запись об инциденте в бд
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	query := `
		INSERT INTO incidents (owner_id, title, description, lat, long, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id;
	`
	err := r.db.QueryRow(ctx, query,
		incident.OwnerID,
		incident.Title,
		incident.Description,
		incident.Lat,
		incident.Long,
		incident.ImageURL,
		incident.CreatedAt,
	).Scan(&incident.ID)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// GetByID возвращает инцидент по его UUID
func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	incident := &models.Incident{}
	query := `
		SELECT id, owner_id, title, description, lat, long, image_url, created_at
		FROM incidents
		WHERE id = $1;
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&incident.ID,
		&incident.OwnerID,
		&incident.Title,
		&incident.Description,
		&incident.Lat,
		&incident.Long,
		&incident.ImageURL,
		&incident.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %s: %w", id, models.ErrIncidentNotFound)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	return incident, nil
}

// Update обновляет только переданные поля инцидента и возвращает итоговую строку.
// Колонки вне SET не трогаются, поэтому параллельное частичное обновление
// не затирает их значениями из устаревшего чтения.
func (r *IncidentRepository) Update(ctx context.Context, id uuid.UUID, upd *models.IncidentUpdate, imageURL *string) (*models.Incident, error) {
	set := make([]string, 0, 5)
	args := make([]any, 0, 6)

	if upd.Title != nil {
		args = append(args, *upd.Title)
		set = append(set, fmt.Sprintf("title = $%d", len(args)))
	}
	if upd.Description != nil {
		args = append(args, *upd.Description)
		set = append(set, fmt.Sprintf("description = $%d", len(args)))
	}
	if upd.Lat != nil {
		args = append(args, *upd.Lat)
		set = append(set, fmt.Sprintf("lat = $%d", len(args)))
	}
	if upd.Long != nil {
		args = append(args, *upd.Long)
		set = append(set, fmt.Sprintf("long = $%d", len(args)))
	}
	if imageURL != nil {
		args = append(args, *imageURL)
		set = append(set, fmt.Sprintf("image_url = $%d", len(args)))
	}

	if len(set) == 0 {
		return nil, models.ErrNoUpdateFields
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE incidents SET %s
		WHERE id = $%d
		RETURNING id, owner_id, title, description, lat, long, image_url, created_at;
	`, strings.Join(set, ", "), len(args))

	incident := &models.Incident{}
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&incident.ID,
		&incident.OwnerID,
		&incident.Title,
		&incident.Description,
		&incident.Lat,
		&incident.Long,
		&incident.ImageURL,
		&incident.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %s for update: %w", id, models.ErrIncidentNotFound)
		}
		return nil, fmt.Errorf("failed to update incident: %w", err)
	}
	return incident, nil
}

// Delete удаляет инцидент из бд
func (r *IncidentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM incidents
		WHERE id = $1;
	`
	cmdTag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete incident: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident with id %s for delete: %w", id, models.ErrIncidentNotFound)
	}
	return nil
}

// ListIncidents возвращает все инциденты, новые первыми
func (r *IncidentRepository) ListIncidents(ctx context.Context) ([]*models.Incident, error) {
	query := `
		SELECT id, owner_id, title, description, lat, long, image_url, created_at
		FROM incidents
		ORDER BY created_at DESC;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident := &models.Incident{}
		err := rows.Scan(
			&incident.ID,
			&incident.OwnerID,
			&incident.Title,
			&incident.Description,
			&incident.Lat,
			&incident.Long,
			&incident.ImageURL,
			&incident.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return incidents, nil
}

// GetIncidentFromCache пытается получить инцидент из Redis
func (r *IncidentRepository) GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	key := fmt.Sprintf("incident:%s", id.String())
	val, err := r.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incident from cache: %w", err)
	}

	incident := &models.Incident{}
	if err := json.Unmarshal(val, incident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident from cache: %w", err)
	}
	return incident, nil
}

// SetIncidentCache сохраняет инцидент в Redis
func (r *IncidentRepository) SetIncidentCache(ctx context.Context, incident *models.Incident) error {
	key := fmt.Sprintf("incident:%s", incident.ID.String())
	val, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident for cache: %w", err)
	}
	// Устанавливаем срок жизни кэша, например, 5 минут
	if err := r.redisClient.Set(ctx, key, val, 5*time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to set incident in cache: %w", err)
	}
	return nil
}

// InvalidateIncidentCache удаляет инцидент из Redis кэша
func (r *IncidentRepository) InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error {
	key := fmt.Sprintf("incident:%s", id.String())
	if err := r.redisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate incident cache: %w", err)
	}
	return nil
}
