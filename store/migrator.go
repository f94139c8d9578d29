package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/internal/version"
)

// Migration files live in migration/{driver}/. LATEST.sql holds the full
// schema for fresh installations; incremental migrations live in
// migration/{driver}/{version}/NN__description.sql and are applied in
// lexicographic order. Applied versions are recorded in migration_history.

//go:embed migration
var migrationFS embed.FS

const latestSchemaFileName = "LATEST.sql"

// Migrate brings the database schema up to the current version.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}

	targetVersion := version.GetSchemaVersion(version.GetCurrentVersion(s.profile.Mode))

	if !initialized {
		if err := s.applyLatestSchema(ctx); err != nil {
			return errors.Wrap(err, "failed to apply latest schema")
		}
		if err := s.recordSchemaVersion(ctx, targetVersion); err != nil {
			return errors.Wrap(err, "failed to record schema version")
		}
		slog.Info("database initialized", slog.String("schemaVersion", targetVersion))
		return nil
	}

	currentVersion, err := s.currentSchemaVersion(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to read schema version")
	}
	if !version.IsVersionGreaterThan(targetVersion, currentVersion) {
		return nil
	}

	if err := s.applyMigrations(ctx, currentVersion, targetVersion); err != nil {
		return errors.Wrapf(err, "failed to migrate schema from %s to %s", currentVersion, targetVersion)
	}
	if err := s.recordSchemaVersion(ctx, targetVersion); err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}
	slog.Info("database migrated",
		slog.String("from", currentVersion),
		slog.String("to", targetVersion))
	return nil
}

func (s *Store) applyLatestSchema(ctx context.Context) error {
	path := fmt.Sprintf("migration/%s/%s", s.profile.Driver, latestSchemaFileName)
	buf, err := migrationFS.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read schema file %q", path)
	}
	if err := s.execStatements(ctx, string(buf)); err != nil {
		return errors.Wrapf(err, "failed to execute schema file %q", path)
	}
	return nil
}

// applyMigrations applies every migration directory whose version is newer
// than the current schema version and not newer than the target version.
func (s *Store) applyMigrations(ctx context.Context, currentVersion, targetVersion string) error {
	root := fmt.Sprintf("migration/%s", s.profile.Driver)
	dirEntries, err := fs.ReadDir(migrationFS, root)
	if err != nil {
		return errors.Wrapf(err, "failed to read migration dir %q", root)
	}

	var versions []string
	for _, entry := range dirEntries {
		if !entry.IsDir() {
			continue
		}
		v := entry.Name()
		if version.IsVersionGreaterThan(v, currentVersion) && !version.IsVersionGreaterThan(v, targetVersion) {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(i, j int) bool {
		return version.IsVersionGreaterThan(versions[j], versions[i])
	})

	for _, v := range versions {
		files, err := fs.Glob(migrationFS, fmt.Sprintf("%s/%s/*.sql", root, v))
		if err != nil {
			return err
		}
		sort.Strings(files)
		for _, file := range files {
			buf, err := migrationFS.ReadFile(file)
			if err != nil {
				return errors.Wrapf(err, "failed to read migration file %q", file)
			}
			slog.Info("applying migration", slog.String("file", file))
			if err := s.execStatements(ctx, string(buf)); err != nil {
				return errors.Wrapf(err, "failed to execute migration file %q", file)
			}
		}
		if err := s.recordSchemaVersion(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

// execStatements runs a migration script inside one transaction so a partial
// schema is never left behind.
func (s *Store) execStatements(ctx context.Context, script string) error {
	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(script, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) currentSchemaVersion(ctx context.Context) (string, error) {
	rows, err := s.driver.GetDB().QueryContext(ctx, "SELECT version FROM migration_history")
	if err != nil {
		return "", err
	}
	defer rows.Close()

	latest := "0.0.0"
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return "", err
		}
		if version.IsVersionGreaterThan(v, latest) {
			latest = v
		}
	}
	return latest, rows.Err()
}

func (s *Store) recordSchemaVersion(ctx context.Context, v string) error {
	stmt := "INSERT INTO migration_history (version) VALUES ($1) ON CONFLICT (version) DO NOTHING"
	if s.profile.Driver == "sqlite" {
		stmt = "INSERT OR IGNORE INTO migration_history (version) VALUES ($1)"
	}
	_, err := s.driver.GetDB().ExecContext(ctx, stmt, v)
	return err
}
