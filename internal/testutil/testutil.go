// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"hotelbooking/internal/database"
	"hotelbooking/internal/domain"
	"hotelbooking/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// OpenDB returns a migrated in-memory SQLite database private to the test.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])

	db, err := database.Connect(dsn)
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// PostgresURLEnv names the database for tests that need real row locks.
const PostgresURLEnv = "HOTELBOOKING_TEST_POSTGRES_URL"

// OpenPostgres returns a migrated connection to the database named by
// PostgresURLEnv and skips the test when it is unset. Rows are not cleaned
// up, so tests must seed uniquely named data.
func OpenPostgres(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := os.Getenv(PostgresURLEnv)
	if dsn == "" {
		t.Skipf("%s is not set", PostgresURLEnv)
	}

	db, err := database.Connect(dsn)
	if err != nil {
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func SeedRoomType(t testing.TB, db *gorm.DB, name string, price float64, total int) *domain.RoomType {
	t.Helper()
	rt := &domain.RoomType{Name: name, PricePerNight: price, TotalRooms: total}
	if err := repository.NewRoomTypeRepository(db).Create(context.Background(), rt); err != nil {
		t.Fatalf("seed room type %q: %v", name, err)
	}
	return rt
}

func SeedUser(t testing.TB, db *gorm.DB, email string, role domain.UserRole) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{Email: email, PasswordHash: string(hash), Role: role, Name: email}
	if err := repository.NewUserRepository(db).Create(context.Background(), u); err != nil {
		t.Fatalf("seed user %q: %v", email, err)
	}
	return u
}

// Principal builds the caller identity for a seeded user.
func Principal(u *domain.User) domain.Principal {
	return domain.Principal{UserID: u.ID, Role: u.Role}
}

func MustStay(t testing.TB, checkIn, checkOut string) domain.Stay {
	t.Helper()
	s, err := domain.ParseStay(checkIn, checkOut)
	if err != nil {
		t.Fatalf("parse stay %s..%s: %v", checkIn, checkOut, err)
	}
	return s
}
