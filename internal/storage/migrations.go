// Schema migrations are plain SQL files embedded in the binary, one directory
// per database driver:
//
//	migrations/<driver>/NNNN_name.up.sql
//	migrations/<driver>/NNNN_name.down.sql
//
// Each applied version is recorded in the schema_migrations table, created by
// migration 0001 itself. Adding a migration requires rebuilding the binary.

// Modeled after Authelia's migration system https://github.com/authelia/authelia/blob/master/internal/storage/migrations.go

package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strconv"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

var reMigrationFilename = regexp.MustCompile(`^(?P<Version>\d{4})\_(?P<Name>[^.]+)\.(?P<Direction>(up|down))\.sql$`)

var (
	ErrMigrateCurrentVersionSameAsTarget = errors.New("current version is the same as target version")
	ErrUnsupportedDriver                 = errors.New("unsupported database driver")
)

type SchemaMigration struct {
	Version int
	Name    string
	Up      bool
	SQL     string
}

// Before is the schema version the migration expects to start from.
func (m *SchemaMigration) Before() int {
	if m.Up {
		return m.Version - 1
	}
	return m.Version
}

// After is the schema version once the migration has run.
func (m *SchemaMigration) After() int {
	if m.Up {
		return m.Version
	}
	return m.Version - 1
}

type MigrationRunner struct {
	db     *sql.DB
	driver string
	source fs.FS
	logger *slog.Logger
}

func NewMigrationRunner(driver string) *MigrationRunner {
	return &MigrationRunner{
		driver: driver,
		source: migrationsFS,
		logger: slog.With("component", "migrations", "driver", driver),
	}
}

func (mr *MigrationRunner) dir() (string, error) {
	switch mr.driver {
	case "sqlite3", "pgx":
		return path.Join("migrations", mr.driver), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDriver, mr.driver)
	}
}

func (mr *MigrationRunner) readAll() ([]SchemaMigration, error) {
	dirPath, err := mr.dir()
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(mr.source, dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	migrations := make([]SchemaMigration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		migration, err := mr.parseMigrationFile(path.Join(dirPath, entry.Name()))
		if err != nil {
			mr.logger.Warn("Failed to parse migration file", "file", entry.Name(), "error", err)
			continue
		}
		migrations = append(migrations, migration)
	}
	return migrations, nil
}

// GetLatestMigrationVersion returns the highest "up" version available for the driver.
func (mr *MigrationRunner) GetLatestMigrationVersion() (int, error) {
	migrations, err := mr.readAll()
	if err != nil {
		return -1, err
	}

	latest := 0
	for _, m := range migrations {
		if m.Up && m.Version > latest {
			latest = m.Version
		}
	}
	return latest, nil
}

// LoadMigrations returns the migrations needed to move from prior to target, in
// execution order. A target of -1 means the latest version, 0 the empty schema.
func (mr *MigrationRunner) LoadMigrations(prior int, target int) ([]SchemaMigration, error) {
	if target == -1 {
		latest, err := mr.GetLatestMigrationVersion()
		if err != nil {
			return nil, fmt.Errorf("failed to get latest migration version: %w", err)
		}
		target = latest
	}

	if prior == target {
		return nil, ErrMigrateCurrentVersionSameAsTarget
	}

	all, err := mr.readAll()
	if err != nil {
		return nil, err
	}

	selected := []SchemaMigration{}
	for _, m := range all {
		if mr.skipMigration(m, prior, target) {
			continue
		}
		selected = append(selected, m)
	}

	up := prior < target
	sort.Slice(selected, func(i, j int) bool {
		if up {
			return selected[i].Version < selected[j].Version
		}
		return selected[i].Version > selected[j].Version
	})

	mr.logger.Debug("Loaded migrations", "count", len(selected), "from_version", prior, "to_version", target)
	return selected, nil
}

func (mr *MigrationRunner) skipMigration(m SchemaMigration, current int, target int) bool {
	if target > current {
		return !m.Up || m.Version > target || m.Version <= current
	}
	return m.Up || m.Version <= target || m.Version > current
}

// Migrate applies migrations from current to target, each in its own transaction.
func (mr *MigrationRunner) Migrate(ctx context.Context, current int, target int) error {
	if mr.db == nil {
		return errors.New("migration runner has no database")
	}

	migrations, err := mr.LoadMigrations(current, target)
	if errors.Is(err, ErrMigrateCurrentVersionSameAsTarget) {
		mr.logger.Debug("Schema is up to date", "version", current)
		return nil
	}
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if err := mr.apply(ctx, m); err != nil {
			return fmt.Errorf("migration %04d_%s failed: %w", m.Version, m.Name, err)
		}
		mr.logger.Info("Applied migration", "version", m.Version, "name", m.Name, "up", m.Up)
	}
	return nil
}

func (mr *MigrationRunner) apply(ctx context.Context, m SchemaMigration) error {
	tx, err := mr.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return err
	}

	// The down migration of 0001 drops schema_migrations altogether.
	if m.Up {
		insert := "INSERT INTO schema_migrations (version, name) VALUES (?, ?)"
		if mr.driver == "pgx" {
			insert = "INSERT INTO schema_migrations (version, name) VALUES ($1, $2)"
		}
		if _, err := tx.ExecContext(ctx, insert, m.Version, m.Name); err != nil {
			return err
		}
	} else if m.Version > 1 {
		del := "DELETE FROM schema_migrations WHERE version = ?"
		if mr.driver == "pgx" {
			del = "DELETE FROM schema_migrations WHERE version = $1"
		}
		if _, err := tx.ExecContext(ctx, del, m.Version); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// parseMigrationFile reads NNNN_description.up.sql or NNNN_description.down.sql.
func (mr *MigrationRunner) parseMigrationFile(filePath string) (SchemaMigration, error) {
	filename := path.Base(filePath)
	parts := reMigrationFilename.FindStringSubmatch(filename)
	if parts == nil {
		return SchemaMigration{}, fmt.Errorf("invalid migration filename: %s", filename)
	}

	content, err := fs.ReadFile(mr.source, filePath)
	if err != nil {
		return SchemaMigration{}, fmt.Errorf("failed to read migration file: %w", err)
	}

	version, _ := strconv.Atoi(parts[reMigrationFilename.SubexpIndex("Version")])
	return SchemaMigration{
		Version: version,
		Name:    parts[reMigrationFilename.SubexpIndex("Name")],
		Up:      parts[reMigrationFilename.SubexpIndex("Direction")] == "up",
		SQL:     string(content),
	}, nil
}
