package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/EgorLis/my-records/internal/domain"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI: бакет в памяти
type fakeAPI struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
	statErr error

	afterStat func() // вызывается после каждого StatObject, вне блокировки
	puts      int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{buckets: map[string]bool{}, objects: map[string][]byte{}}
}

var noSuchKey = minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}

func (f *fakeAPI) BucketExists(_ context.Context, bucket string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buckets[bucket], nil
}

func (f *fakeAPI) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[bucket] = true
	return nil
}

func (f *fakeAPI) StatObject(_ context.Context, bucket, object string, _ minio.StatObjectOptions) (minio.ObjectInfo, error) {
	if f.afterStat != nil {
		defer f.afterStat()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statErr != nil {
		return minio.ObjectInfo{}, f.statErr
	}
	b, ok := f.objects[bucket+"/"+object]
	if !ok {
		return minio.ObjectInfo{}, noSuchKey
	}
	return minio.ObjectInfo{Key: object, Size: int64(len(b))}, nil
}

var preconditionFailed = minio.ErrorResponse{Code: "PreconditionFailed", StatusCode: http.StatusPreconditionFailed}

// PutObject поддерживает If-None-Match: * так же, как S3/MinIO
func (f *fakeAPI) PutObject(_ context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	if size >= 0 && int64(len(b)) != size {
		return minio.UploadInfo{}, errors.New("size mismatch")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if _, exists := f.objects[bucket+"/"+object]; exists && opts.Header().Get("If-None-Match") == "*" {
		return minio.UploadInfo{}, preconditionFailed
	}
	f.objects[bucket+"/"+object] = b
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: int64(len(b))}, nil
}

func (f *fakeAPI) GetObject(context.Context, string, string, minio.GetObjectOptions) (*minio.Object, error) {
	return nil, errors.New("not supported by fake")
}

func (f *fakeAPI) RemoveObject(_ context.Context, bucket, object string, _ minio.RemoveObjectOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, bucket+"/"+object)
	return nil
}

func keys(ks ...string) domain.KeyFunc {
	i := 0
	return func() string {
		k := ks[i]
		if i < len(ks)-1 {
			i++
		}
		return k
	}
}

func newTestStorage(api *fakeAPI, cfg Config) *Storage {
	cfg.Bucket = "records"
	return newWithClient(api, cfg, log.New(io.Discard, "", 0))
}

func TestCreateMakesBucketAndStoresObject(t *testing.T) {
	api := newFakeAPI()
	s := newTestStorage(api, Config{Prefix: "files/"})

	key, err := s.Create(context.Background(), strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Len(t, key, 32)
	assert.True(t, api.buckets["records"])
	assert.Equal(t, []byte("abc"), api.objects["records/files/"+key])
}

func TestCreateRetriesOnExistingObject(t *testing.T) {
	api := newFakeAPI()
	s := newTestStorage(api, Config{KeyFunc: keys("k1", "k1", "k2")})
	ctx := context.Background()

	first, err := s.Create(ctx, strings.NewReader("one"))
	require.NoError(t, err)
	second, err := s.Create(ctx, strings.NewReader("two"))
	require.NoError(t, err)

	assert.Equal(t, "k1", first)
	assert.Equal(t, "k2", second)
	assert.Equal(t, []byte("one"), api.objects["records/k1"])
}

func TestCreateExhaustsAttempts(t *testing.T) {
	api := newFakeAPI()
	s := newTestStorage(api, Config{MaxAttempts: 2, KeyFunc: keys("k1")})
	ctx := context.Background()

	_, err := s.Create(ctx, strings.NewReader("one"))
	require.NoError(t, err)
	_, err = s.Create(ctx, strings.NewReader("two"))
	assert.ErrorIs(t, err, domain.ErrKeyExists)
}

func TestCreateStatFailureIsNotRetried(t *testing.T) {
	api := newFakeAPI()
	api.buckets["records"] = true
	api.statErr = minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}
	calls := 0
	s := newTestStorage(api, Config{KeyFunc: func() string { calls++; return "k" }})

	_, err := s.Create(context.Background(), strings.NewReader("x"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrKeyExists)
	assert.Equal(t, 1, calls)
}

// Оба вызова проходят StatObject раньше, чем любой из них делает PUT,
// и оба получают один и тот же ключ. Побеждает только один PUT.
func TestConcurrentCreateWithForcedCollision(t *testing.T) {
	api := newFakeAPI()
	api.buckets["records"] = true

	var statBarrier sync.WaitGroup
	statBarrier.Add(2)
	var stats atomic.Int32
	api.afterStat = func() {
		if stats.Add(1) <= 2 {
			statBarrier.Done()
			statBarrier.Wait()
		}
	}

	var drawn atomic.Int32
	keyFunc := func() string {
		if n := drawn.Add(1); n > 2 {
			return fmt.Sprintf("other-%d", n)
		}
		return "same"
	}
	s := newTestStorage(api, Config{KeyFunc: keyFunc, SpoolDir: t.TempDir()})

	payloads := []string{"AAA", "BBB"}
	got := make([]string, len(payloads))
	errs := make([]error, len(payloads))
	var wg sync.WaitGroup
	for i, p := range payloads {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			got[i], errs[i] = s.Create(context.Background(), strings.NewReader(p))
		}(i, p)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.NotEqual(t, got[0], got[1])
	for i, p := range payloads {
		assert.Equal(t, []byte(p), api.objects["records/"+got[i]], "payload %d", i)
	}
	assert.Equal(t, 3, api.puts)
}

func TestCreateExhaustedByLostRaces(t *testing.T) {
	api := newFakeAPI()
	api.buckets["records"] = true
	api.objects["records/taken"] = []byte("old")
	// StatObject не видит объект, но PUT упирается в If-None-Match
	api.statErr = noSuchKey
	spool := t.TempDir()
	s := newTestStorage(api, Config{MaxAttempts: 3, KeyFunc: keys("taken"), SpoolDir: spool})

	_, err := s.Create(context.Background(), strings.NewReader("new"))
	assert.ErrorIs(t, err, domain.ErrKeyExists)
	var resp minio.ErrorResponse
	require.ErrorAs(t, err, &resp)
	assert.Equal(t, "PreconditionFailed", resp.Code)
	assert.Equal(t, 3, api.puts)
	assert.Equal(t, []byte("old"), api.objects["records/taken"])

	left, err := os.ReadDir(spool)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestDeleteAndGetMissingKey(t *testing.T) {
	api := newFakeAPI()
	s := newTestStorage(api, Config{})
	ctx := context.Background()

	key, err := s.Create(ctx, strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, key))
	assert.Empty(t, api.objects)

	assert.ErrorIs(t, s.Delete(ctx, key), domain.ErrNotFound)
	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPing(t *testing.T) {
	api := newFakeAPI()
	s := newTestStorage(api, Config{})
	assert.ErrorIs(t, s.Ping(context.Background()), domain.ErrNotFound)

	api.buckets["records"] = true
	assert.NoError(t, s.Ping(context.Background()))
}
