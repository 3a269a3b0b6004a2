package cleanup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	reclaimQueueKey = "image_reclaim"
)

// Причины, по которым файл изображения подлежит удалению.
const (
	ReasonIncidentDeleted = "incident_deleted"
	ReasonImageReplaced   = "image_replaced"
	ReasonWriteFailed     = "write_rolled_back"
)

// ReclaimEvent - структура для данных об изображении, ставшем ненужным
type ReclaimEvent struct {
	ImageURL    string    `json:"image_url"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// ReclaimPublisher - интерфейс для постановки изображений в очередь на удаление
type ReclaimPublisher interface {
	Publish(ctx context.Context, event ReclaimEvent) error
}

// RedisReclaimPublisher - реализация ReclaimPublisher, использующая Redis
type RedisReclaimPublisher struct {
	redisClient *redis.Client
}

// NewRedisReclaimPublisher создает новый RedisReclaimPublisher
func NewRedisReclaimPublisher(client *redis.Client) *RedisReclaimPublisher {
	return &RedisReclaimPublisher{
		redisClient: client,
	}
}

// Publish публикует событие об удалении изображения в очередь Redis
func (p *RedisReclaimPublisher) Publish(ctx context.Context, event ReclaimEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal reclaim event: %w", err)
	}

	// Используем LPUSH для добавления события в левую часть списка (очереди)
	if err := p.redisClient.LPush(ctx, reclaimQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish reclaim event to Redis: %w", err)
	}
	return nil
}
