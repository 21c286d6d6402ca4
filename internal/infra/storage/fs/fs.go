package fs

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/EgorLis/my-records/internal/domain"
	"github.com/google/uuid"
)

// DefaultMaxAttempts: сколько раз Create пробует новый ключ при коллизии
const DefaultMaxAttempts = 5

const tmpPrefix = ".upload-"

type Config struct {
	Root        string
	MaxAttempts int
	KeyFunc     domain.KeyFunc // nil -> NewKey
}

// Storage хранит blob'ы файлами в одном каталоге: <root>/<key>.
type Storage struct {
	root        string
	maxAttempts int
	newKey      domain.KeyFunc
	logger      *log.Logger
}

func New(cfg Config, logger *log.Logger) (*Storage, error) {
	if cfg.Root == "" {
		return nil, errors.New("fs storage requires root dir")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = NewKey
	}
	return &Storage{
		root:        cfg.Root,
		maxAttempts: cfg.MaxAttempts,
		newKey:      cfg.KeyFunc,
		logger:      logger,
	}, nil
}

// NewKey возвращает случайный uuid в виде 32 hex-символов без дефисов.
func NewKey() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Create сначала пишет поток во временный файл в том же каталоге,
// затем публикует его под ключом через os.Link. Link не перезаписывает
// существующий файл, поэтому коллизия видна как fs.ErrExist, а под
// итоговым именем никогда не бывает недописанного содержимого.
func (s *Storage) Create(ctx context.Context, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("create store dir: %w", err)
	}

	tmp, size, err := s.writeTemp(r)
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp)

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		key := s.newKey()
		if err := validKey(key); err != nil {
			return "", err
		}
		err := os.Link(tmp, s.path(key))
		if err == nil {
			s.logger.Printf("create ok key=%s size=%d attempt=%d", key, size, attempt)
			return key, nil
		}
		if !errors.Is(err, iofs.ErrExist) {
			return "", fmt.Errorf("publish %s: %w", key, err)
		}
		lastErr = fmt.Errorf("create %s: %w: %w", key, domain.ErrKeyExists, err)
		s.logger.Printf("create collision key=%s attempt=%d/%d", key, attempt, s.maxAttempts)
	}
	return "", lastErr
}

func (s *Storage) writeTemp(r io.Reader) (string, int64, error) {
	f, err := os.CreateTemp(s.root, tmpPrefix+"*")
	if err != nil {
		return "", 0, fmt.Errorf("create temp: %w", err)
	}
	name := f.Name()

	n, err := io.Copy(f, r)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(name)
		return "", 0, fmt.Errorf("write temp: %w", err)
	}
	return name, n, nil
}

// Get открывает blob только на чтение.
func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(key))
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, fmt.Errorf("get %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return f, nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := os.Remove(s.path(key)); err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", key, domain.ErrNotFound)
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}
	s.logger.Printf("delete ok key=%s", key)
	return nil
}

// Ping проверяет, что корневой каталог существует (или может быть создан).
func (s *Storage) Ping(ctx context.Context) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("store dir: %w", err)
	}
	return nil
}

func (s *Storage) path(key string) string {
	return filepath.Join(s.root, key)
}

// ключ: один сегмент пути; временные файлы начинаются с точки
func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, ".") || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("invalid key %q: %w", key, domain.ErrBadParams)
	}
	return nil
}
