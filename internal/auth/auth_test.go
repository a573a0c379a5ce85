package auth

import (
	"path/filepath"
	"testing"
	"time"

	"portfolio_tracker/internal/database"
	"portfolio_tracker/internal/errors"
	"portfolio_tracker/internal/repository"
)

func setupAuthTestDB(t *testing.T) *database.DB {
	t.Helper()
	tmpDir := t.TempDir()
	db, err := database.New(filepath.Join(tmpDir, "test.db"))
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

func newTestAuthenticator(t *testing.T) (*Authenticator, *SessionManager, *database.DB) {
	t.Helper()
	db := setupAuthTestDB(t)
	sm := NewSessionManager(db)
	return NewAuthenticator(repository.NewUserRepository(db), sm), sm, db
}

func TestHashPassword_ProducesVerifiableHash(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Error("hash equals plaintext")
	}
	if !CheckPassword("correct horse battery staple", hash) {
		t.Error("CheckPassword() rejected the original password")
	}
	if CheckPassword("wrong password", hash) {
		t.Error("CheckPassword() accepted a wrong password")
	}
}

func TestCheckPassword_EmptyInputs_Rejected(t *testing.T) {
	hash, _ := HashPassword("something")
	if CheckPassword("", hash) {
		t.Error("CheckPassword() accepted empty password")
	}
	if CheckPassword("something", "") {
		t.Error("CheckPassword() accepted empty hash")
	}
}

func TestSessionManager_CreateAndValidate_ReturnsUserID(t *testing.T) {
	_, sm, db := newTestAuthenticator(t)

	result, err := db.Exec(`INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)`,
		"alice@example.com", "hash", "Alice")
	if err != nil {
		t.Fatalf("failed to insert user: %v", err)
	}
	userID, _ := result.LastInsertId()

	session, err := sm.Create(userID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if session.ID == "" {
		t.Error("session ID is empty")
	}

	gotID, err := sm.Validate(session.ID)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if gotID != userID {
		t.Errorf("Validate() = %d, want %d", gotID, userID)
	}
}

func TestSessionManager_Validate_UnknownSession_Unauthorized(t *testing.T) {
	_, sm, _ := newTestAuthenticator(t)

	_, err := sm.Validate("no-such-session")
	if err == nil {
		t.Fatal("Validate() of unknown session should fail")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Type != errors.ErrUnauthorized {
		t.Errorf("error = %v, want unauthorized", err)
	}
}

func TestSessionManager_Validate_ExpiredSession_DeletedAndRejected(t *testing.T) {
	_, sm, db := newTestAuthenticator(t)
	sm.WithDuration(-time.Hour)

	result, err := db.Exec(`INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)`,
		"alice@example.com", "hash", "Alice")
	if err != nil {
		t.Fatalf("failed to insert user: %v", err)
	}
	userID, _ := result.LastInsertId()

	session, err := sm.Create(userID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := sm.Validate(session.ID); err == nil {
		t.Fatal("Validate() of expired session should fail")
	}

	// Expired session is removed on validation
	got, err := sm.Get(session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Error("expired session still present after Validate()")
	}
}

func TestSessionManager_CleanExpired_RemovesOnlyExpired(t *testing.T) {
	_, sm, db := newTestAuthenticator(t)

	result, err := db.Exec(`INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)`,
		"alice@example.com", "hash", "Alice")
	if err != nil {
		t.Fatalf("failed to insert user: %v", err)
	}
	userID, _ := result.LastInsertId()

	live, err := sm.Create(userID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	expired, err := sm.WithDuration(-time.Hour).Create(userID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	count, err := sm.CleanExpired()
	if err != nil {
		t.Fatalf("CleanExpired() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CleanExpired() = %d, want 1", count)
	}

	if got, _ := sm.Get(expired.ID); got != nil {
		t.Error("expired session survived CleanExpired()")
	}
	if got, _ := sm.Get(live.ID); got == nil {
		t.Error("live session removed by CleanExpired()")
	}
}

func TestAuthenticator_Register_CreatesUserAndSession(t *testing.T) {
	a, sm, _ := newTestAuthenticator(t)

	user, session, err := a.Register("Alice@Example.com", "supersecret", "Alice")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, want normalized lowercase", user.Email)
	}
	if user.PasswordHash == "supersecret" {
		t.Error("password stored in plaintext")
	}

	gotID, err := sm.Validate(session.ID)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if gotID != user.ID {
		t.Errorf("session user = %d, want %d", gotID, user.ID)
	}
}

func TestAuthenticator_Register_ShortPassword_Rejected(t *testing.T) {
	a, _, _ := newTestAuthenticator(t)

	_, _, err := a.Register("alice@example.com", "short", "Alice")
	if !errors.IsValidation(err) {
		t.Errorf("Register() error = %v, want validation error", err)
	}
}

func TestAuthenticator_Register_DuplicateEmail_Conflict(t *testing.T) {
	a, _, _ := newTestAuthenticator(t)

	if _, _, err := a.Register("alice@example.com", "supersecret", "Alice"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	_, _, err := a.Register("alice@example.com", "supersecret", "Alice Again")
	if err == nil {
		t.Fatal("Register() with duplicate email should fail")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Type != errors.ErrConflict {
		t.Errorf("error = %v, want conflict", err)
	}
}

func TestAuthenticator_Login_ValidCredentials_IssuesSession(t *testing.T) {
	a, _, _ := newTestAuthenticator(t)

	registered, _, err := a.Register("alice@example.com", "supersecret", "Alice")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, session, err := a.Login("alice@example.com", "supersecret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("user ID = %d, want %d", user.ID, registered.ID)
	}
	if session.ID == "" {
		t.Error("session ID is empty")
	}
}

func TestAuthenticator_Login_WrongPassword_Unauthorized(t *testing.T) {
	a, _, _ := newTestAuthenticator(t)

	if _, _, err := a.Register("alice@example.com", "supersecret", "Alice"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, _, err := a.Login("alice@example.com", "wrongpassword")
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Type != errors.ErrUnauthorized {
		t.Errorf("Login() error = %v, want unauthorized", err)
	}
}

func TestAuthenticator_Login_UnknownEmail_Unauthorized(t *testing.T) {
	a, _, _ := newTestAuthenticator(t)

	_, _, err := a.Login("nobody@example.com", "whatever")
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Type != errors.ErrUnauthorized {
		t.Errorf("Login() error = %v, want unauthorized", err)
	}
}

func TestAuthenticator_Logout_InvalidatesSession(t *testing.T) {
	a, sm, _ := newTestAuthenticator(t)

	_, session, err := a.Register("alice@example.com", "supersecret", "Alice")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := a.Logout(session.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := sm.Validate(session.ID); err == nil {
		t.Error("session still valid after Logout()")
	}
}
