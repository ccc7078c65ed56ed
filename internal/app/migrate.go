package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/riskibarqy/matchthread-sync/internal/config"
	"github.com/riskibarqy/matchthread-sync/internal/platform/logging"
)

var defaultMigrationDirs = []string{"./db/migrations", "/app/db/migrations"}

// Migrator applies the schema under db/migrations to the state database.
type Migrator struct {
	m      *migrate.Migrate
	source string
	logger *logging.Logger
}

func NewMigrator(cfg config.Config, logger *logging.Logger) (*Migrator, error) {
	if logger == nil {
		logger = logging.Default()
	}
	dsn, err := parseStateDSN(cfg.DBURL, cfg.DBDisablePreparedBinary)
	if err != nil {
		return nil, err
	}
	if !dsn.isURL {
		return nil, errors.New("migrations need DB_URL in postgres://... form")
	}

	dir, err := resolveMigrationsDir(cfg.MigrationsDir)
	if err != nil {
		return nil, err
	}

	source := "file://" + filepath.ToSlash(dir)
	m, err := migrate.New(source, dsn.conn)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	logger = logger.Named("migrate")
	m.Log = migrateLogger{logger: logger}

	return &Migrator{m: m, source: source, logger: logger}, nil
}

// Up applies every pending migration. No pending change is not an error.
func (m *Migrator) Up() error {
	return m.done(m.m.Up(), "migrations applied")
}

func (m *Migrator) Down(steps int) error {
	if steps <= 0 {
		return errors.New("down steps must be > 0")
	}
	return m.done(m.m.Steps(-steps), "migrations rolled back", "steps", steps)
}

func (m *Migrator) Goto(version uint) error {
	return m.done(m.m.Migrate(version), "migrated to version", "version", version)
}

func (m *Migrator) Force(version int) error {
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	m.logger.Info("forced migration version", "version", version)
	return nil
}

// Version reports the applied version. ok is false on an empty database.
func (m *Migrator) Version() (version uint, dirty bool, ok bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("read version: %w", err)
	}
	return version, dirty, true, nil
}

func (m *Migrator) Close() {
	srcErr, dbErr := m.m.Close()
	if srcErr != nil {
		m.logger.Warn("close migration source", "error", srcErr)
	}
	if dbErr != nil {
		m.logger.Warn("close migration db", "error", dbErr)
	}
}

func (m *Migrator) done(err error, msg string, args ...any) error {
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("no migration changes", "source", m.source)
		return nil
	}
	if err != nil {
		return err
	}
	m.logger.Info(msg, append([]any{"source", m.source}, args...)...)
	return nil
}

func resolveMigrationsDir(configured string) (string, error) {
	candidates := append([]string{strings.TrimSpace(configured)}, defaultMigrationDirs...)
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}
	return "", fmt.Errorf("migration directory not found (checked MIGRATIONS_DIR, %s)", strings.Join(defaultMigrationDirs, ", "))
}

type migrateLogger struct {
	logger *logging.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return false
}
