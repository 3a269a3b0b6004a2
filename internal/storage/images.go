package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bonmwang/Ajali-Incident-App/internal/config"
	"github.com/google/uuid"
)

// URLPrefix - публичный префикс, под которым раздаются сохраненные изображения.
const URLPrefix = "/uploads/"

var (
	// ErrUnsupportedType возвращается, когда расширение файла не входит в список разрешенных.
	ErrUnsupportedType = errors.New("storage: unsupported file type")
	// ErrTooLarge возвращается, когда файл превышает допустимый размер.
	ErrTooLarge = errors.New("storage: file too large")
	// ErrNotFound возвращается, когда запрошенный файл отсутствует на диске.
	ErrNotFound = errors.New("storage: file not found")
)

// Store хранит загруженные изображения инцидентов на локальном диске.
type Store struct {
	root     string
	allowed  map[string]struct{}
	maxBytes int64
}

// NewStore создает хранилище изображений в каталоге из конфигурации
func NewStore(cfg *config.Config) (*Store, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: could not create upload dir: %w", err)
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	return &Store{
		root:     cfg.UploadDir,
		allowed:  allowed,
		maxBytes: cfg.MaxUploadBytes,
	}, nil
}

// Save записывает содержимое r на диск под случайным именем и возвращает
// публичный URL файла. Исходное имя используется только для проверки расширения.
func (s *Store) Save(ctx context.Context, filename string, size int64, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if _, ok := s.allowed[ext]; ext == "" || !ok {
		return "", ErrUnsupportedType
	}
	if size > s.maxBytes {
		return "", ErrTooLarge
	}

	// Случайное имя исключает коллизии и перезапись чужих файлов
	name := uuid.NewString() + "." + ext

	tmp, err := os.CreateTemp(s.root, "upload-*")
	if err != nil {
		return "", fmt.Errorf("storage: could not create temp file: %w", err)
	}

	// Читаем на один байт больше лимита, чтобы отличить ровно лимит от превышения
	written, err := io.Copy(tmp, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("storage: could not write file: %w", err)
	}
	if written > s.maxBytes {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", ErrTooLarge
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("storage: could not close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.root, name)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("storage: could not move file into place: %w", err)
	}

	return URLPrefix + name, nil
}

// Resolve возвращает путь на диске для имени файла из URL.
// Имена с разделителями пути или ".." отклоняются как несуществующие.
func (s *Store) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return "", ErrNotFound
	}

	path := filepath.Join(s.root, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

// Remove удаляет файл по его публичному URL. Отсутствие файла не считается ошибкой.
func (s *Store) Remove(imageURL string) error {
	name := strings.TrimPrefix(imageURL, URLPrefix)
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return nil
	}

	if err := os.Remove(filepath.Join(s.root, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: could not remove file: %w", err)
	}
	return nil
}
