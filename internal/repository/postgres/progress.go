package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
)

const progressColumns = `student_id, skill_id, status, updated_at`

type progressRepository struct {
	store *Store
}

func (r *progressRepository) List(ctx context.Context, studentID string) ([]models.StudentProgress, error) {
	progress := []models.StudentProgress{}
	query := "SELECT " + progressColumns + " FROM student_progress WHERE student_id = $1 ORDER BY skill_id ASC"
	if err := sqlx.SelectContext(ctx, r.store.ext, &progress, query, studentID); err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return progress, nil
}

func (r *progressRepository) Get(ctx context.Context, studentID, skillID string) (*models.StudentProgress, error) {
	var progress models.StudentProgress
	query := "SELECT " + progressColumns + " FROM student_progress WHERE student_id = $1 AND skill_id = $2"
	if err := sqlx.GetContext(ctx, r.store.ext, &progress, query, studentID, skillID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NotFound("progress", studentID+"/"+skillID)
		}
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return &progress, nil
}

func (r *progressRepository) Upsert(ctx context.Context, progress *models.StudentProgress) error {
	if progress.LastUpdated.IsZero() {
		progress.LastUpdated = time.Now().UTC()
	}
	if err := repository.ValidateEntity(progress); err != nil {
		return err
	}
	const query = `INSERT INTO student_progress (student_id, skill_id, status, updated_at)
        VALUES (:student_id, :skill_id, :status, :updated_at)
        ON CONFLICT (student_id, skill_id) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, r.store.ext, query, progress); err != nil {
		if isForeignKeyViolation(err) {
			return repository.NotFound("user", progress.StudentID)
		}
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

func (r *progressRepository) Delete(ctx context.Context, studentID, skillID string) error {
	if _, err := r.store.ext.ExecContext(ctx, `DELETE FROM student_progress WHERE student_id = $1 AND skill_id = $2`, studentID, skillID); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}
