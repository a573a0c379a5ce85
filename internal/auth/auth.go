// Package auth provides authentication and session management.
package auth

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"portfolio_tracker/internal/database"
	"portfolio_tracker/internal/errors"
	"portfolio_tracker/internal/models"
	"portfolio_tracker/internal/repository"
)

const (
	// DefaultSessionDuration is the default session lifetime.
	DefaultSessionDuration = 7 * 24 * time.Hour

	// BcryptCost is the bcrypt hashing cost.
	BcryptCost = 12

	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8
)

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword compares a password with a hash.
func CheckPassword(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// SessionManager handles session operations.
type SessionManager struct {
	db       *database.DB
	duration time.Duration
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(db *database.DB) *SessionManager {
	return &SessionManager{
		db:       db,
		duration: DefaultSessionDuration,
	}
}

// WithDuration sets a custom session duration.
func (sm *SessionManager) WithDuration(d time.Duration) *SessionManager {
	sm.duration = d
	return sm
}

// Create creates a new session for a user.
func (sm *SessionManager) Create(userID int64) (*models.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: time.Now().Add(sm.duration),
		CreatedAt: time.Now(),
	}

	_, err = sm.db.Exec(`
		INSERT INTO sessions (id, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`, session.ID, session.UserID, session.ExpiresAt, session.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return session, nil
}

// Get retrieves a session by ID. Returns nil if not found.
func (sm *SessionManager) Get(id string) (*models.Session, error) {
	session := &models.Session{}
	err := sm.db.QueryRow(`
		SELECT id, user_id, expires_at, created_at
		FROM sessions
		WHERE id = ?
	`, id).Scan(
		&session.ID,
		&session.UserID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return session, nil
}

// Validate checks if a session is valid and returns the user ID.
func (sm *SessionManager) Validate(id string) (int64, error) {
	session, err := sm.Get(id)
	if err != nil {
		return 0, err
	}
	if session == nil {
		return 0, errors.Unauthorized("session not found")
	}
	if session.IsExpired() {
		sm.Delete(id)
		return 0, errors.Unauthorized("session expired")
	}
	return session.UserID, nil
}

// Delete removes a session by ID.
func (sm *SessionManager) Delete(id string) error {
	_, err := sm.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteByUserID removes all sessions for a user.
func (sm *SessionManager) DeleteByUserID(userID int64) error {
	_, err := sm.db.Exec(`DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("deleting user sessions: %w", err)
	}
	return nil
}

// CleanExpired removes all expired sessions and returns the count.
func (sm *SessionManager) CleanExpired() (int64, error) {
	result, err := sm.db.Exec(`DELETE FROM sessions WHERE expires_at < ?`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("cleaning expired sessions: %w", err)
	}
	return result.RowsAffected()
}

// generateSessionID creates a cryptographically secure session ID.
func generateSessionID() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// Authenticator combines user lookup, credential checks and session
// issuance behind one surface for the handlers.
type Authenticator struct {
	users    *repository.UserRepository
	sessions *SessionManager
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(users *repository.UserRepository, sessions *SessionManager) *Authenticator {
	return &Authenticator{users: users, sessions: sessions}
}

// Register creates a user and an initial session.
func (a *Authenticator) Register(email, password, name string) (*models.User, *models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, nil, errors.ValidationField("email", errors.CodeRequired, "a valid email is required")
	}
	if len(password) < MinPasswordLength {
		return nil, nil, errors.ValidationField("password", errors.CodeOutOfRange,
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	existing, err := a.users.GetByEmail(email)
	if err != nil {
		return nil, nil, errors.Persistence("failed to check existing user", err)
	}
	if existing != nil {
		return nil, nil, errors.Conflict("an account with this email already exists")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, nil, errors.Persistence("failed to hash password", err)
	}

	user := &models.User{Email: email, PasswordHash: hash, Name: strings.TrimSpace(name)}
	id, err := a.users.Create(user)
	if err != nil {
		return nil, nil, errors.Persistence("failed to create user", err)
	}
	user.ID = id

	session, err := a.sessions.Create(id)
	if err != nil {
		return nil, nil, errors.Persistence("failed to create session", err)
	}
	return user, session, nil
}

// Login verifies credentials and issues a session.
func (a *Authenticator) Login(email, password string) (*models.User, *models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := a.users.GetByEmail(email)
	if err != nil {
		return nil, nil, errors.Persistence("failed to load user", err)
	}
	if user == nil || !CheckPassword(password, user.PasswordHash) {
		return nil, nil, errors.Unauthorized("invalid email or password")
	}

	session, err := a.sessions.Create(user.ID)
	if err != nil {
		return nil, nil, errors.Persistence("failed to create session", err)
	}
	return user, session, nil
}

// Logout deletes the session.
func (a *Authenticator) Logout(sessionID string) error {
	return a.sessions.Delete(sessionID)
}
