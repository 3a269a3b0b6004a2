package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bonmwang/Ajali-Incident-App/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// FileRemover удаляет файл изображения по его публичному URL.
type FileRemover interface {
	Remove(imageURL string) error
}

// ReclaimWorker - структура для фоновой очистки осиротевших изображений
type ReclaimWorker struct {
	redisClient *redis.Client
	files       FileRemover
	logger      *logrus.Logger
	cfg         *config.Config
}

// NewReclaimWorker создает новый ReclaimWorker
func NewReclaimWorker(redisClient *redis.Client, files FileRemover, logger *logrus.Logger, cfg *config.Config) *ReclaimWorker {
	return &ReclaimWorker{
		redisClient: redisClient,
		files:       files,
		logger:      logger,
		cfg:         cfg,
	}
}

// Start запускает горутину для обработки очереди удаления изображений
func (w *ReclaimWorker) Start(ctx context.Context) {
	w.logger.Info("Starting image reclaim worker...")
	go func() {
		for {
			select {
			case <-ctx.Done():
				w.logger.Info("Stopping image reclaim worker.")
				return
			default:
				// BRPOP - блокирующее извлечение из правой части списка (очереди)
				// 0 означает бесконечное ожидание
				result, err := w.redisClient.BRPop(ctx, 0, reclaimQueueKey).Result()
				if err != nil {
					if errors.Is(err, context.Canceled) {
						continue // Контекст отменен, но не ошибка Redis
					}
					w.logger.WithError(err).Error("Failed to pop reclaim event from Redis")
					time.Sleep(w.cfg.ReclaimBaseDelay) // Ждем перед повторной попыткой
					continue
				}

				// result[0] - ключ, result[1] - значение
				var event ReclaimEvent
				if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
					w.logger.WithError(err).Error("Failed to unmarshal reclaim event from Redis")
					continue
				}

				w.processReclaimEvent(event)
			}
		}
	}()
}

func (w *ReclaimWorker) processReclaimEvent(event ReclaimEvent) {
	log := w.logger.WithField("image_url", event.ImageURL).WithField("reason", event.Reason)
	log.Debug("Processing reclaim event...")

	if event.ImageURL == "" {
		log.Warn("Reclaim event without image URL. Skipping.")
		return
	}

	maxRetries := w.cfg.ReclaimMaxRetries
	baseDelay := w.cfg.ReclaimBaseDelay

	for i := 0; i < maxRetries; i++ {
		err := w.files.Remove(event.ImageURL)
		if err == nil {
			log.Info("Image file reclaimed successfully.")
			return
		}

		log.WithError(err).Warnf("Failed to remove image file. Retrying in %v. Retries left: %d", baseDelay, maxRetries-1-i)
		time.Sleep(baseDelay)
		baseDelay *= 2 // Экспоненциальная задержка
	}

	log.Errorf("Failed to reclaim image file after %d retries.", maxRetries)
}
