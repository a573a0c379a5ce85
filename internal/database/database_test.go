package database

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNew_CreatesConnection(t *testing.T) {
	// Setup: use temporary directory
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	// Test: create new database connection
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v, want nil", err)
	}
	defer db.Close()

	// Verify: database file exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}

	// Verify: can ping database
	if err := db.Ping(); err != nil {
		t.Errorf("Ping() error = %v, want nil", err)
	}
}

func TestNew_InvalidPath_ReturnsError(t *testing.T) {
	// Test with invalid path (directory that doesn't exist and can't be created)
	_, err := New("/nonexistent/path/that/cannot/be/created/test.db")
	if err == nil {
		t.Error("New() with invalid path should return error")
	}
}

func TestRunMigrations_CreatesAllTables(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations() error = %v, want nil", err)
	}

	// Verify: all tables exist
	expectedTables := []string{
		"users",
		"sessions",
		"portfolios",
		"transactions",
		"allocation_targets",
	}

	for _, table := range expectedTables {
		var exists int
		query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`
		err := db.QueryRow(query, table).Scan(&exists)
		if err != nil {
			t.Errorf("checking table %s: %v", table, err)
			continue
		}
		if exists != 1 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestRunMigrations_CreatesIndexes(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	expectedIndexes := []string{
		"idx_portfolios_user",
		"idx_transactions_portfolio",
		"idx_transactions_date",
		"idx_targets_portfolio",
		"idx_sessions_user",
		"idx_sessions_expires",
	}

	for _, index := range expectedIndexes {
		var exists int
		query := `SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?`
		err := db.QueryRow(query, index).Scan(&exists)
		if err != nil {
			t.Errorf("checking index %s: %v", index, err)
			continue
		}
		if exists != 1 {
			t.Errorf("index %s does not exist", index)
		}
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer db.Close()

	// Test: run migrations multiple times
	for i := 0; i < 3; i++ {
		if err := db.RunMigrations(); err != nil {
			t.Fatalf("RunMigrations() iteration %d error = %v, want nil", i+1, err)
		}
	}

	// Verify: still works and has correct tables
	var tableCount int
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'`
	if err := db.QueryRow(query).Scan(&tableCount); err != nil {
		t.Fatalf("counting tables: %v", err)
	}

	expectedCount := 5 // users, sessions, portfolios, transactions, allocation_targets
	if tableCount != expectedCount {
		t.Errorf("table count = %d, want %d", tableCount, expectedCount)
	}
}

func TestWithTx_CommitsOnNil(t *testing.T) {
	db := newTestDB(t)
	userID := insertTestUser(t, db)

	err := db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO portfolios (user_id, name) VALUES (?, ?)`, userID, "Growth")
		return err
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v, want nil", err)
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM portfolios`).Scan(&count)
	if count != 1 {
		t.Errorf("portfolio count = %d, want 1", count)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	userID := insertTestUser(t, db)

	sentinel := errors.New("boom")
	err := db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO portfolios (user_id, name) VALUES (?, ?)`, userID, "Growth"); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("WithTx() error = %v, want %v", err, sentinel)
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM portfolios`).Scan(&count)
	if count != 0 {
		t.Errorf("portfolio count after rollback = %d, want 0", count)
	}
}

func TestDB_ForeignKeyConstraints(t *testing.T) {
	db := newTestDB(t)

	// Test: try to insert portfolio with non-existent user_id
	_, err := db.Exec(
		`INSERT INTO portfolios (user_id, name) VALUES (?, ?)`,
		999, // Non-existent user
		"Test Portfolio",
	)
	if err == nil {
		t.Error("inserting portfolio with invalid user_id should fail")
	}
}

func TestDB_CascadeDelete(t *testing.T) {
	db := newTestDB(t)
	userID := insertTestUser(t, db)

	result, err := db.Exec(`INSERT INTO portfolios (user_id, name) VALUES (?, ?)`, userID, "Test Portfolio")
	if err != nil {
		t.Fatalf("insert portfolio error = %v", err)
	}
	portfolioID, _ := result.LastInsertId()

	_, err = db.Exec(
		`INSERT INTO transactions (portfolio_id, type, total_amount, transaction_date) VALUES (?, ?, ?, ?)`,
		portfolioID,
		"DEPOSIT",
		1000.00,
		"2024-01-15T00:00:00Z",
	)
	if err != nil {
		t.Fatalf("insert transaction error = %v", err)
	}

	// Test: delete portfolio (should cascade delete transactions)
	_, err = db.Exec(`DELETE FROM portfolios WHERE id = ?`, portfolioID)
	if err != nil {
		t.Fatalf("delete portfolio error = %v", err)
	}

	var txCount int
	db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE portfolio_id = ?`, portfolioID).Scan(&txCount)
	if txCount != 0 {
		t.Error("transactions should be deleted after portfolio delete")
	}
}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	tmpDir := t.TempDir()
	db, err := New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertTestUser(t *testing.T, db *DB) int64 {
	t.Helper()
	result, err := db.Exec(
		`INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)`,
		"test@example.com",
		"hashedpassword",
		"Test User",
	)
	if err != nil {
		t.Fatalf("insert user error = %v", err)
	}
	id, _ := result.LastInsertId()
	return id
}
