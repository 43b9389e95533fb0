// Package integration runs the storage adapters against real PostgreSQL and
// Redis servers started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/erp/workstation/internal/infrastructure/config"
	"github.com/erp/workstation/internal/infrastructure/migration"
	"github.com/erp/workstation/internal/infrastructure/persistence"
	"github.com/erp/workstation/migrations"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

var (
	// Shared containers for all tests in the package
	sharedPostgres   *tcpostgres.PostgresContainer
	sharedPostgresMu sync.Mutex

	sharedRedis   testcontainers.Container
	sharedRedisMu sync.Mutex
)

// TestDB is a migrated PostgreSQL database
type TestDB struct {
	*persistence.Database
	Config config.DatabaseConfig
	t      *testing.T
}

// skipIfShort skips container tests under -short
func skipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
}

// NewTestDB connects to the shared PostgreSQL container, migrating it on
// first use. Tables are truncated before the test runs.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	skipIfShort(t)

	ctx := context.Background()
	container := postgresContainer(t)

	host, err := container.Host(ctx)
	require.NoError(t, err, "Failed to get container host")
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err, "Failed to get mapped port")

	cfg := config.DatabaseConfig{
		Driver:          "postgres",
		Host:            host,
		Port:            port.Int(),
		User:            "postgres",
		Password:        "workstation",
		DBName:          "workstation_test",
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5,
	}

	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = gormlogger.Info
	}
	db, err := persistence.NewDatabase(&cfg, persistence.WithLogger(zap.NewNop(), level))
	require.NoError(t, err, "Failed to connect to database")

	tdb := &TestDB{Database: db, Config: cfg, t: t}
	tdb.CleanTables()

	t.Cleanup(func() {
		_ = db.Close()
	})
	return tdb
}

func postgresContainer(t *testing.T) *tcpostgres.PostgresContainer {
	t.Helper()

	sharedPostgresMu.Lock()
	defer sharedPostgresMu.Unlock()
	if sharedPostgres != nil {
		return sharedPostgres
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("workstation_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("workstation"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")
	runMigrations(t, dsn)

	sharedPostgres = container
	return container
}

// runMigrations applies the embedded migrations on a dedicated connection,
// since closing the migrator closes its connection too.
func runMigrations(t *testing.T, dsn string) {
	t.Helper()

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err, "Failed to open migration connection")

	m, err := migration.New(sqlDB, "postgres", migration.Source{FS: migrations.FS}, zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	defer m.Close()

	require.NoError(t, m.Up(), "Failed to run migrations")
}

// CleanTables truncates every table except the migration bookkeeping
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != 'schema_migrations'
	`).Scan(&tables).Error
	require.NoError(tdb.t, err, "Failed to get table names")

	for _, table := range tables {
		err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error
		require.NoError(tdb.t, err, "Failed to truncate %s", table)
	}
}

// NewTestRedis returns the address of the shared Redis container
func NewTestRedis(t *testing.T) config.RedisConfig {
	t.Helper()
	skipIfShort(t)

	sharedRedisMu.Lock()
	defer sharedRedisMu.Unlock()

	ctx := context.Background()
	if sharedRedis == nil {
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor: wait.ForLog("Ready to accept connections").
					WithStartupTimeout(60 * time.Second),
			},
			Started: true,
		})
		require.NoError(t, err, "Failed to start Redis container")
		sharedRedis = container
	}

	host, err := sharedRedis.Host(ctx)
	require.NoError(t, err, "Failed to get container host")
	port, err := sharedRedis.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err, "Failed to get mapped port")

	return config.RedisConfig{Host: host, Port: port.Int()}
}

// CleanupSharedContainers terminates the shared containers.
// Call it from TestMain.
func CleanupSharedContainers() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sharedPostgresMu.Lock()
	if sharedPostgres != nil {
		_ = sharedPostgres.Terminate(ctx)
		sharedPostgres = nil
	}
	sharedPostgresMu.Unlock()

	sharedRedisMu.Lock()
	if sharedRedis != nil {
		_ = sharedRedis.Terminate(ctx)
		sharedRedis = nil
	}
	sharedRedisMu.Unlock()
}
