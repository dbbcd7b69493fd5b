package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/yungbote/healing-guide-backend/internal/platform/gcp"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
)

type testObjectStore struct{}

func (testObjectStore) Open(context.Context, string) (*gcp.Object, error) {
	return nil, gcp.ErrObjectNotFound
}
func (testObjectStore) Upload(context.Context, string, io.Reader) error { return nil }
func (testObjectStore) Mode() gcp.ObjectStorageMode                     { return gcp.ObjectStorageModeGCS }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func stubObjectStore(t *testing.T) *gcp.ObjectStorageConfig {
	t.Helper()
	orig := newObjectStoreWithConfig
	t.Cleanup(func() { newObjectStoreWithConfig = orig })

	captured := &gcp.ObjectStorageConfig{}
	newObjectStoreWithConfig = func(_ context.Context, _ *logger.Logger, cfg gcp.ObjectStorageConfig) (gcp.ObjectStore, error) {
		*captured = cfg
		return testObjectStore{}, nil
	}
	return captured
}

func TestClassifyStorageProviderBootstrapError(t *testing.T) {
	tests := []struct {
		name string
		src  error
		want StorageProviderBootstrapErrorCode
	}{
		{"invalid mode", &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidMode}, StorageProviderBootstrapErrorInvalidMode},
		{"missing bucket", &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorMissingBucket}, StorageProviderBootstrapErrorMissingBucket},
		{"missing dir", &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorMissingLocalDir}, StorageProviderBootstrapErrorMissingLocalDir},
		{"missing emulator host", &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorMissingEmulatorHost}, StorageProviderBootstrapErrorMissingEmulatorHost},
		{"invalid emulator host", &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidEmulatorHost}, StorageProviderBootstrapErrorInvalidEmulatorHost},
		{"connect failed", errors.New("dial tcp: connection refused"), StorageProviderBootstrapErrorConnectFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyStorageProviderBootstrapError(gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeGCS}, tc.src)
			var got *StorageProviderBootstrapError
			if !errors.As(err, &got) {
				t.Fatalf("expected StorageProviderBootstrapError, got=%T", err)
			}
			if got.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, got.Code)
			}
			if !errors.Is(err, tc.src) {
				t.Fatalf("cause not preserved: %v", err)
			}
		})
	}
}

func TestResolveObjectStoreInvalidMode(t *testing.T) {
	_, err := resolveObjectStore(context.Background(), testLogger(t), Config{ObjectStorageMode: "s3"})
	if got := storageProviderBootstrapErrorCode(err); got != StorageProviderBootstrapErrorInvalidMode {
		t.Fatalf("code: want=%q got=%q (err=%v)", StorageProviderBootstrapErrorInvalidMode, got, err)
	}
}

func TestResolveObjectStoreMissingEmulatorHost(t *testing.T) {
	_, err := resolveObjectStore(context.Background(), testLogger(t), Config{
		ObjectStorageMode: string(gcp.ObjectStorageModeGCSEmulator),
		GCSBucket:         "lead-magnets",
	})
	if got := storageProviderBootstrapErrorCode(err); got != StorageProviderBootstrapErrorMissingEmulatorHost {
		t.Fatalf("code: want=%q got=%q (err=%v)", StorageProviderBootstrapErrorMissingEmulatorHost, got, err)
	}
}

func TestResolveObjectStoreInfersGCSFromBucket(t *testing.T) {
	captured := stubObjectStore(t)

	store, err := resolveObjectStore(context.Background(), testLogger(t), Config{GCSBucket: "lead-magnets"})
	if err != nil {
		t.Fatalf("resolveObjectStore: %v", err)
	}
	if store.Mode() != gcp.ObjectStorageModeGCS {
		t.Fatalf("mode: got=%q", store.Mode())
	}
	if captured.Mode != gcp.ObjectStorageModeGCS || !captured.Inferred {
		t.Fatalf("config: want inferred gcs got=%+v", *captured)
	}
	if captured.Bucket != "lead-magnets" {
		t.Fatalf("bucket: got=%q", captured.Bucket)
	}
}

func TestResolveObjectStoreExplicitEmulator(t *testing.T) {
	captured := stubObjectStore(t)

	_, err := resolveObjectStore(context.Background(), testLogger(t), Config{
		ObjectStorageMode:   "GCS_EMULATOR",
		GCSBucket:           "lead-magnets",
		StorageEmulatorHost: "http://fake-gcs:4443",
	})
	if err != nil {
		t.Fatalf("resolveObjectStore: %v", err)
	}
	if captured.Mode != gcp.ObjectStorageModeGCSEmulator || captured.Inferred {
		t.Fatalf("config: want explicit emulator got=%+v", *captured)
	}
	if captured.EmulatorHost != "http://fake-gcs:4443" {
		t.Fatalf("emulator host: got=%q", captured.EmulatorHost)
	}
}

func TestResolveObjectStoreLocalDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := resolveObjectStore(context.Background(), testLogger(t), Config{ObjectStorageDir: dir})
	if err != nil {
		t.Fatalf("resolveObjectStore: %v", err)
	}
	if store.Mode() != gcp.ObjectStorageModeLocal {
		t.Fatalf("mode: got=%q", store.Mode())
	}
}
