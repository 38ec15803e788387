package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lysyi3m/appcaster/app/history"
)

var _ BuildRepository = (*BuildRepositoryImpl)(nil)

type BuildRepositoryImpl struct {
	db *DB
}

func NewBuildRepository(db *DB) *BuildRepositoryImpl {
	return &BuildRepositoryImpl{db: db}
}

// UpsertBuild stores a build with its changes and artifacts, replacing any
// earlier record with the same number.
func (r *BuildRepositoryImpl) UpsertBuild(build Build) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO builds (project, number, status)
		VALUES (?, ?, ?)
		ON CONFLICT (project, number) DO UPDATE SET
			status = excluded.status,
			updated_at = CURRENT_TIMESTAMP
	`, build.Project, build.Number, strings.ToUpper(build.Status))
	if err != nil {
		return fmt.Errorf("failed to upsert build: %w", err)
	}

	for _, table := range []string{"build_changes", "build_artifacts"} {
		_, err = tx.Exec(`DELETE FROM `+table+` WHERE project = ? AND build_number = ?`, build.Project, build.Number)
		if err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, message := range build.Changes {
		_, err = tx.Exec(`
			INSERT INTO build_changes (project, build_number, position, message)
			VALUES (?, ?, ?, ?)
		`, build.Project, build.Number, i, message)
		if err != nil {
			return fmt.Errorf("failed to store change: %w", err)
		}
	}

	for i, artifact := range build.Artifacts {
		_, err = tx.Exec(`
			INSERT INTO build_artifacts (project, build_number, position, name, path)
			VALUES (?, ?, ?, ?, ?)
		`, build.Project, build.Number, i, artifact.Name, artifact.Path)
		if err != nil {
			return fmt.Errorf("failed to store artifact: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit build: %w", err)
	}

	return nil
}

func (r *BuildRepositoryImpl) GetBuild(project string, number int) (*Build, error) {
	return r.queryBuild(`
		SELECT project, number, status, created_at, updated_at
		FROM builds
		WHERE project = ? AND number = ?
	`, project, number)
}

func (r *BuildRepositoryImpl) GetLatestBuild(project string) (*Build, error) {
	return r.queryBuild(`
		SELECT project, number, status, created_at, updated_at
		FROM builds
		WHERE project = ?
		ORDER BY number DESC
		LIMIT 1
	`, project)
}

func (r *BuildRepositoryImpl) GetPreviousBuild(project string, number int) (*Build, error) {
	return r.queryBuild(`
		SELECT project, number, status, created_at, updated_at
		FROM builds
		WHERE project = ? AND number < ?
		ORDER BY number DESC
		LIMIT 1
	`, project, number)
}

func (r *BuildRepositoryImpl) GetBuildCount(project string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM builds WHERE project = ?", project).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get build count: %w", err)
	}
	return count, nil
}

func (r *BuildRepositoryImpl) GetProjectCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(DISTINCT project) FROM builds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get project count: %w", err)
	}
	return count, nil
}

func (r *BuildRepositoryImpl) Latest(project string) (history.Build, error) {
	build, err := r.GetLatestBuild(project)
	if err != nil {
		return nil, err
	}
	if build == nil {
		return nil, nil
	}
	return &storedBuild{row: build, repo: r}, nil
}

func (r *BuildRepositoryImpl) queryBuild(query string, args ...any) (*Build, error) {
	var build Build
	err := r.db.QueryRow(query, args...).Scan(
		&build.Project, &build.Number, &build.Status, &build.CreatedAt, &build.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get build: %w", err)
	}

	if err := r.loadDetails(&build); err != nil {
		return nil, err
	}

	return &build, nil
}

func (r *BuildRepositoryImpl) loadDetails(build *Build) error {
	changes, err := r.loadChanges(build.Project, build.Number)
	if err != nil {
		return err
	}
	artifacts, err := r.loadArtifacts(build.Project, build.Number)
	if err != nil {
		return err
	}

	build.Changes = changes
	build.Artifacts = artifacts
	return nil
}

func (r *BuildRepositoryImpl) loadChanges(project string, number int) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT message FROM build_changes
		WHERE project = ? AND build_number = ?
		ORDER BY position
	`, project, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get build changes: %w", err)
	}
	defer rows.Close()

	var changes []string
	for rows.Next() {
		var message string
		if err := rows.Scan(&message); err != nil {
			return nil, fmt.Errorf("failed to scan change row: %w", err)
		}
		changes = append(changes, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating change rows: %w", err)
	}

	return changes, nil
}

func (r *BuildRepositoryImpl) loadArtifacts(project string, number int) ([]history.Artifact, error) {
	rows, err := r.db.Query(`
		SELECT name, path FROM build_artifacts
		WHERE project = ? AND build_number = ?
		ORDER BY position
	`, project, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get build artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []history.Artifact
	for rows.Next() {
		var artifact history.Artifact
		if err := rows.Scan(&artifact.Name, &artifact.Path); err != nil {
			return nil, fmt.Errorf("failed to scan artifact row: %w", err)
		}
		artifacts = append(artifacts, artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating artifact rows: %w", err)
	}

	return artifacts, nil
}
