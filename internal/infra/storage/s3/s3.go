package s3

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/EgorLis/my-records/internal/domain"
	fsstorage "github.com/EgorLis/my-records/internal/infra/storage/fs"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool

	MaxAttempts int
	KeyFunc     domain.KeyFunc
	Prefix      string // например "records/"
	SpoolDir    string // временные файлы загрузки; пусто -> os.TempDir()
}

// objectAPI: то, что нам нужно от *minio.Client (подменяется в тестах)
type objectAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucket, object string, opts minio.GetObjectOptions) (*minio.Object, error)
	RemoveObject(ctx context.Context, bucket, object string, opts minio.RemoveObjectOptions) error
}

type Storage struct {
	cl          objectAPI
	bucket      string
	prefix      string
	spoolDir    string
	maxAttempts int
	newKey      domain.KeyFunc
	logger      *log.Logger
}

func New(ctx context.Context, cfg Config, logger *log.Logger) (*Storage, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, err
	}
	return newWithClient(cl, cfg, logger), nil
}

func newWithClient(cl objectAPI, cfg Config, logger *log.Logger) *Storage {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = fsstorage.DefaultMaxAttempts
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = fsstorage.NewKey
	}
	return &Storage{
		cl:          cl,
		bucket:      cfg.Bucket,
		prefix:      cfg.Prefix,
		spoolDir:    cfg.SpoolDir,
		maxAttempts: cfg.MaxAttempts,
		newKey:      cfg.KeyFunc,
		logger:      logger,
	}
}

// ensureBucket: аналог MkdirAll для файлового хранилища
func (s *Storage) ensureBucket(ctx context.Context) error {
	ok, err := s.cl.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("bucket exists: %w", err)
	}
	if ok {
		return nil
	}
	if err := s.cl.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		// бакет мог создать параллельный запрос
		code := minio.ToErrorResponse(err).Code
		if code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
		return fmt.Errorf("make bucket: %w", err)
	}
	s.logger.Printf("bucket %s created", s.bucket)
	return nil
}

// Create сначала сбрасывает поток во временный файл, затем загружает его
// под новым ключом с условием If-None-Match: *. Если объект с таким ключом
// уже есть, S3 отвечает 412 и попытка повторяется с другим ключом.
// StatObject перед PUT только экономит загрузку при очевидной коллизии.
func (s *Storage) Create(ctx context.Context, r io.Reader) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	spool, size, err := s.spool(r)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = spool.Close()
		_ = os.Remove(spool.Name())
	}()

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		key := s.newKey()
		_, err := s.cl.StatObject(ctx, s.bucket, s.object(key), minio.StatObjectOptions{})
		if err == nil {
			lastErr = fmt.Errorf("create %s: %w", key, domain.ErrKeyExists)
			s.logger.Printf("create collision key=%s attempt=%d/%d", key, attempt, s.maxAttempts)
			continue
		}
		if !isNotFound(err) {
			return "", fmt.Errorf("stat %s: %w", key, err)
		}

		if _, err := spool.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("rewind spool: %w", err)
		}
		opts := minio.PutObjectOptions{ContentType: "application/octet-stream"}
		opts.SetMatchETagExcept("*")

		info, err := s.cl.PutObject(ctx, s.bucket, s.object(key), spool, size, opts)
		if isPreconditionFailed(err) {
			lastErr = fmt.Errorf("create %s: %w: %w", key, domain.ErrKeyExists, err)
			s.logger.Printf("create lost race key=%s attempt=%d/%d", key, attempt, s.maxAttempts)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("put %s: %w", key, err)
		}
		s.logger.Printf("create ok key=%s size=%d attempt=%d", key, info.Size, attempt)
		return key, nil
	}
	return "", lastErr
}

// spool: повторная попытка PUT должна заново прочитать те же байты
func (s *Storage) spool(r io.Reader) (*os.File, int64, error) {
	f, err := os.CreateTemp(s.spoolDir, "s3-upload-*")
	if err != nil {
		return nil, 0, fmt.Errorf("create spool: %w", err)
	}
	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, 0, fmt.Errorf("write spool: %w", err)
	}
	return f, n, nil
}

// Get открывает поток для чтения.
func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if _, err := s.cl.StatObject(ctx, s.bucket, s.object(key), minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("get %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", key, err)
	}
	obj, err := s.cl.GetObject(ctx, s.bucket, s.object(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return obj, nil
}

// Delete: RemoveObject в S3 идемпотентен, поэтому отсутствие ключа проверяем сами.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if _, err := s.cl.StatObject(ctx, s.bucket, s.object(key), minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("delete %s: %w", key, domain.ErrNotFound)
		}
		return fmt.Errorf("stat %s: %w", key, err)
	}
	if err := s.cl.RemoveObject(ctx, s.bucket, s.object(key), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	s.logger.Printf("delete ok key=%s", key)
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	ok, err := s.cl.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s: %w", s.bucket, domain.ErrNotFound)
	}
	return nil
}

func (s *Storage) object(key string) string { return s.prefix + key }

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}

// isPreconditionFailed: If-None-Match не выполнилось, ключ уже занят
func isPreconditionFailed(err error) bool {
	if err == nil {
		return false
	}
	resp := minio.ToErrorResponse(err)
	return resp.Code == "PreconditionFailed" || resp.StatusCode == http.StatusPreconditionFailed
}
