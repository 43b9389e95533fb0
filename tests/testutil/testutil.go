// Package testutil provides common test utilities for the workstation
// service: an in-memory database, bearer tokens, API requests and polling
// assertions.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/erp/workstation/internal/infrastructure/auth"
	"github.com/erp/workstation/internal/infrastructure/config"
	"github.com/erp/workstation/internal/infrastructure/persistence"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TestJWTSecret signs the tokens minted by IssueToken
const TestJWTSecret = "workstation-test-secret"

// NewSQLiteDatabase opens an in-memory SQLite database with the schema
// created. It is closed when the test ends.
func NewSQLiteDatabase(t *testing.T) *persistence.Database {
	t.Helper()

	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         ":memory:",
		MaxOpenConns: 1,
	})
	require.NoError(t, err, "Failed to open SQLite database")
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// TestJWTConfig returns the JWT settings IssueToken signs with
func TestJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: TestJWTSecret, Issuer: "workstation-test"}
}

// IssueToken signs a bearer token for userID with TestJWTConfig
func IssueToken(t *testing.T, userID string) string {
	t.Helper()

	token, err := auth.NewJWTService(TestJWTConfig()).IssueToken(auth.IssueInput{
		UserID:   userID,
		Username: userID,
		TTL:      time.Hour,
	})
	require.NoError(t, err, "Failed to issue token")
	return token
}

// ContextWithTimeout creates a context with a timeout for tests.
func ContextWithTimeout(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}

// AssertEventually retries an assertion function until it passes or times out.
func AssertEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...interface{}) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}

	t.Fatalf("Condition not met within %v: %v", timeout, msgAndArgs)
}

// AssertNever verifies a condition never becomes true within the duration.
func AssertNever(t *testing.T, condition func() bool, duration, interval time.Duration, msgAndArgs ...interface{}) {
	t.Helper()

	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if condition() {
			t.Fatalf("Condition unexpectedly became true: %v", msgAndArgs)
		}
		time.Sleep(interval)
	}
}
