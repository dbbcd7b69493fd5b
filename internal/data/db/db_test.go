package db

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	types "github.com/yungbote/healing-guide-backend/internal/domain"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	gdb, err := Open(log, Config{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := AutoMigrateAll(gdb); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	// idempotent
	if err := AutoMigrateAll(gdb); err != nil {
		t.Fatalf("AutoMigrateAll (second run): %v", err)
	}
	for _, m := range types.Models() {
		if !gdb.Migrator().HasTable(m) {
			t.Fatalf("missing table for %T", m)
		}
	}

	if err := gdb.Create(&types.User{Email: "dup@example.com"}).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	err = gdb.Create(&types.User{Email: "dup@example.com"}).Error
	if !IsUniqueViolation(err) {
		t.Fatalf("IsUniqueViolation: want true for %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	log, _ := logger.New("test")
	if _, err := Open(log, Config{Driver: "mysql"}); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{gorm.ErrDuplicatedKey, true},
		{fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"}), true},
		{&pgconn.PgError{Code: "23503"}, false},
		{gorm.ErrRecordNotFound, false},
	}
	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err); got != tc.want {
			t.Fatalf("IsUniqueViolation(%v) got=%v want=%v", tc.err, got, tc.want)
		}
	}
}

func TestPostgresDSN(t *testing.T) {
	c := Config{Host: "db", Port: "5432", User: "hg", Password: "pw", Name: "healing"}
	if got, want := c.postgresDSN(), "postgres://hg:pw@db:5432/healing?sslmode=disable"; got != want {
		t.Fatalf("postgresDSN got=%s want=%s", got, want)
	}
	c.DSN = "postgres://override"
	if got := c.postgresDSN(); got != "postgres://override" {
		t.Fatalf("postgresDSN override got=%s", got)
	}
}
