package repository

import (
	"path/filepath"
	"testing"

	"portfolio_tracker/internal/database"
	"portfolio_tracker/internal/models"
)

func setupUserTestDB(t *testing.T) *database.DB {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := database.New(dbPath)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestUserRepository_Create_ValidUser_ReturnsID(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)

	id, err := repo.Create(&models.User{
		Email:        "alice@example.com",
		PasswordHash: "hashed",
		Name:         "Alice",
	})
	if err != nil {
		t.Fatalf("Create() error = %v, want nil", err)
	}
	if id <= 0 {
		t.Error("Create() returned non-positive ID")
	}
}

func TestUserRepository_Create_DuplicateEmail_ReturnsError(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)

	user := &models.User{Email: "alice@example.com", PasswordHash: "hashed", Name: "Alice"}
	if _, err := repo.Create(user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := repo.Create(user); err == nil {
		t.Error("Create() with duplicate email should return error")
	}
}

func TestUserRepository_GetByEmail_Existing_ReturnsUser(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)

	id, err := repo.Create(&models.User{Email: "alice@example.com", PasswordHash: "hashed", Name: "Alice"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v, want nil", err)
	}
	if got == nil {
		t.Fatal("GetByEmail() returned nil for existing user")
	}
	if got.ID != id {
		t.Errorf("ID = %d, want %d", got.ID, id)
	}
	if got.Name != "Alice" {
		t.Errorf("Name = %q, want %q", got.Name, "Alice")
	}
}

func TestUserRepository_GetByEmail_NotFound_ReturnsNil(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)

	got, err := repo.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v, want nil", err)
	}
	if got != nil {
		t.Error("GetByEmail() for missing email should return nil")
	}
}

func TestUserRepository_CountAll_ReflectsInserts(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)

	count, err := repo.CountAll()
	if err != nil {
		t.Fatalf("CountAll() error = %v", err)
	}
	if count != 0 {
		t.Errorf("CountAll() = %d, want 0", count)
	}

	if _, err := repo.Create(&models.User{Email: "alice@example.com", PasswordHash: "hashed", Name: "Alice"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	count, err = repo.CountAll()
	if err != nil {
		t.Fatalf("CountAll() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountAll() = %d, want 1", count)
	}
}

func TestUserRepository_UpdatePassword_ChangesHash(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)

	id, err := repo.Create(&models.User{Email: "alice@example.com", PasswordHash: "old", Name: "Alice"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.UpdatePassword(id, "new"); err != nil {
		t.Fatalf("UpdatePassword() error = %v, want nil", err)
	}

	got, err := repo.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.PasswordHash != "new" {
		t.Errorf("PasswordHash = %q, want %q", got.PasswordHash, "new")
	}
}
