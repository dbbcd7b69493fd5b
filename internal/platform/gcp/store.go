package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/healing-guide-backend/internal/platform/envutil"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectStore serves static downloadable assets such as the lead-magnet PDF.
type ObjectStore interface {
	Open(ctx context.Context, key string) (*Object, error)
	Upload(ctx context.Context, key string, r io.Reader) error
	Mode() ObjectStorageMode
}

type ObjectAttrs struct {
	Size        int64
	ContentType string
	Updated     time.Time
}

type Object struct {
	io.ReadCloser
	Attrs ObjectAttrs
}

func NewObjectStore(log *logger.Logger) (ObjectStore, error) {
	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("resolve object storage config: %w", err)
	}
	return NewObjectStoreWithConfig(context.Background(), log, cfg)
}

func NewObjectStoreWithConfig(ctx context.Context, log *logger.Logger, cfg ObjectStorageConfig) (ObjectStore, error) {
	if err := ValidateObjectStorageConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	storeLog := log.With("service", "ObjectStore")

	if cfg.Mode == ObjectStorageModeLocal {
		storeLog.Info("Object storage initialized", "mode", cfg.Mode, "mode_source", cfg.ModeSource(), "dir", cfg.LocalDir)
		return &localStore{dir: cfg.LocalDir}, nil
	}

	client, err := newStorageClientForMode(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	storeLog.Info("Object storage initialized",
		"mode", cfg.Mode,
		"mode_source", cfg.ModeSource(),
		"emulator_host", cfg.EmulatorHost,
		"bucket", cfg.Bucket,
	)
	return &gcsStore{log: storeLog, client: client, bucket: cfg.Bucket, mode: cfg.Mode}, nil
}

func newStorageClientForMode(ctx context.Context, cfg ObjectStorageConfig) (*storage.Client, error) {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		return storage.NewClient(ctx, append(credentialOptions(), option.WithScopes(storage.ScopeReadWrite))...)
	case ObjectStorageModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/") + "/storage/v1/"
		return storage.NewClient(ctx, option.WithoutAuthentication(), option.WithEndpoint(endpoint))
	default:
		return nil, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}

// credentialOptions reads service-account credentials from the environment.
// Without any, the client falls back to application default credentials.
func credentialOptions() []option.ClientOption {
	if inline := envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", ""); strings.HasPrefix(inline, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(inline))}
	}
	if path := envutil.String("GOOGLE_APPLICATION_CREDENTIALS", ""); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".pdf":
		return "application/pdf"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".json":
		return "application/json"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

// cleanKey rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	k := strings.TrimLeft(filepath.ToSlash(strings.TrimSpace(key)), "/")
	if k == "" {
		return "", fmt.Errorf("object key required")
	}
	for _, part := range strings.Split(k, "/") {
		if part == ".." {
			return "", fmt.Errorf("invalid object key %q", key)
		}
	}
	return k, nil
}

type gcsStore struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
	mode   ObjectStorageMode
}

func (s *gcsStore) Mode() ObjectStorageMode { return s.mode }

// readCloserWithCancel keeps the read context alive until Close.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (s *gcsStore) Open(ctx context.Context, key string) (*Object, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	r, err := s.client.Bucket(s.bucket).Object(k).NewReader(ctx2)
	if err != nil {
		cancel()
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, k)
		}
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	ct := r.Attrs.ContentType
	if ct == "" {
		ct = contentTypeForKey(k)
	}
	return &Object{
		ReadCloser: &readCloserWithCancel{ReadCloser: r, cancel: cancel},
		Attrs:      ObjectAttrs{Size: r.Attrs.Size, ContentType: ct, Updated: r.Attrs.LastModified},
	}, nil
}

func (s *gcsStore) Upload(ctx context.Context, key string, file io.Reader) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(k).NewWriter(ctx2)
	w.ContentType = contentTypeForKey(k)
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	s.log.Info("Object uploaded", "bucket", s.bucket, "key", k)
	return nil
}

type localStore struct {
	dir string
}

func (s *localStore) Mode() ObjectStorageMode { return ObjectStorageModeLocal }

func (s *localStore) path(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, filepath.FromSlash(k)), nil
}

func (s *localStore) Open(_ context.Context, key string) (*Object, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return &Object{
		ReadCloser: f,
		Attrs:      ObjectAttrs{Size: st.Size(), ContentType: contentTypeForKey(p), Updated: st.ModTime()},
	}, nil
}

func (s *localStore) Upload(_ context.Context, key string, r io.Reader) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p)
}
