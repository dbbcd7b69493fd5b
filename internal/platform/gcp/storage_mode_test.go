package gcp

import (
	"errors"
	"testing"
)

func clearStorageEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OBJECT_STORAGE_MODE", "STORAGE_EMULATOR_HOST", "GCS_BUCKET_NAME", "OBJECT_STORAGE_LOCAL_DIR"} {
		t.Setenv(k, "")
	}
}

func TestResolveObjectStorageConfigFromEnvDefaultLocal(t *testing.T) {
	clearStorageEnv(t)

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeLocal {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeLocal, cfg.Mode)
	}
	if cfg.LocalDir != "./static" {
		t.Fatalf("local dir: want=%q got=%q", "./static", cfg.LocalDir)
	}
	if got := cfg.ModeSource(); got != "inferred" {
		t.Fatalf("ModeSource: want=inferred got=%q", got)
	}
}

func TestResolveObjectStorageConfigFromEnvInfersGCS(t *testing.T) {
	clearStorageEnv(t)
	t.Setenv("GCS_BUCKET_NAME", "healing-guide-assets")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCS {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeGCS, cfg.Mode)
	}
}

func TestResolveObjectStorageConfigFromEnvExplicitEmulator(t *testing.T) {
	clearStorageEnv(t)
	t.Setenv("OBJECT_STORAGE_MODE", "gcs_emulator")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443")
	t.Setenv("GCS_BUCKET_NAME", "assets")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if !cfg.IsEmulatorMode() || cfg.ModeSource() != "explicit" {
		t.Fatalf("cfg got=%+v", cfg)
	}
}

func TestResolveObjectStorageConfigFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		code ObjectStorageConfigErrorCode
	}{
		{"invalid mode", map[string]string{"OBJECT_STORAGE_MODE": "s3"}, ObjectStorageConfigErrorInvalidMode},
		{"gcs without bucket", map[string]string{"OBJECT_STORAGE_MODE": "gcs"}, ObjectStorageConfigErrorMissingBucket},
		{"emulator without host", map[string]string{"OBJECT_STORAGE_MODE": "gcs_emulator", "GCS_BUCKET_NAME": "b"}, ObjectStorageConfigErrorMissingEmulatorHost},
		{"emulator bad host", map[string]string{"OBJECT_STORAGE_MODE": "gcs_emulator", "GCS_BUCKET_NAME": "b", "STORAGE_EMULATOR_HOST": "fake-gcs:4443"}, ObjectStorageConfigErrorInvalidEmulatorHost},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearStorageEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := ResolveObjectStorageConfigFromEnv()
			var cfgErr *ObjectStorageConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("err: want ObjectStorageConfigError got=%v", err)
			}
			if cfgErr.Code != tc.code {
				t.Fatalf("code: want=%q got=%q", tc.code, cfgErr.Code)
			}
		})
	}
}
