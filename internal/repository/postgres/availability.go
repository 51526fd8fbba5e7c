package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
)

const (
	availabilityColumns = `id, instructor_id, day_of_week, start_time, end_time`
	blockoutColumns     = `id, instructor_id, date, start_time, end_time, reason`
)

type availabilityRepository struct {
	store *Store
}

func (r *availabilityRepository) List(ctx context.Context, instructorID string) ([]models.Availability, error) {
	query := "SELECT " + availabilityColumns + " FROM availability"
	var args []interface{}
	if instructorID != "" {
		query += " WHERE instructor_id = $1"
		args = append(args, instructorID)
	}
	query += " ORDER BY day_of_week ASC, start_time ASC"

	slots := []models.Availability{}
	if err := sqlx.SelectContext(ctx, r.store.ext, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return slots, nil
}

func (r *availabilityRepository) GetByID(ctx context.Context, id string) (*models.Availability, error) {
	var slot models.Availability
	if err := sqlx.GetContext(ctx, r.store.ext, &slot, "SELECT "+availabilityColumns+" FROM availability WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NotFound("availability", id)
		}
		return nil, fmt.Errorf("get availability: %w", err)
	}
	return &slot, nil
}

func (r *availabilityRepository) Create(ctx context.Context, slot *models.Availability) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if err := validateAvailability(slot); err != nil {
		return err
	}
	const query = `INSERT INTO availability (id, instructor_id, day_of_week, start_time, end_time)
        VALUES (:id, :instructor_id, :day_of_week, :start_time, :end_time)`
	if _, err := sqlx.NamedExecContext(ctx, r.store.ext, query, slot); err != nil {
		if isForeignKeyViolation(err) {
			return repository.NotFound("instructor", slot.InstructorID)
		}
		return fmt.Errorf("create availability: %w", err)
	}
	return nil
}

func (r *availabilityRepository) Update(ctx context.Context, slot *models.Availability) error {
	if err := validateAvailability(slot); err != nil {
		return err
	}
	const query = `UPDATE availability SET instructor_id = :instructor_id, day_of_week = :day_of_week,
        start_time = :start_time, end_time = :end_time WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, r.store.ext, query, slot)
	if err != nil {
		return fmt.Errorf("update availability: %w", err)
	}
	if rowsAffected(result) == 0 {
		return repository.NotFound("availability", slot.ID)
	}
	return nil
}

func (r *availabilityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.store.ext.ExecContext(ctx, `DELETE FROM availability WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	return nil
}

func validateAvailability(slot *models.Availability) error {
	if err := repository.ValidateEntity(slot); err != nil {
		return err
	}
	return repository.ValidateWindow(slot.StartTime, slot.EndTime)
}

type blockoutRepository struct {
	store *Store
}

func (r *blockoutRepository) List(ctx context.Context, instructorID string) ([]models.Blockout, error) {
	query := "SELECT " + blockoutColumns + " FROM blockouts"
	var args []interface{}
	if instructorID != "" {
		query += " WHERE instructor_id = $1"
		args = append(args, instructorID)
	}
	query += " ORDER BY date ASC, start_time ASC"

	blockouts := []models.Blockout{}
	if err := sqlx.SelectContext(ctx, r.store.ext, &blockouts, query, args...); err != nil {
		return nil, fmt.Errorf("list blockouts: %w", err)
	}
	return blockouts, nil
}

func (r *blockoutRepository) GetByID(ctx context.Context, id string) (*models.Blockout, error) {
	var blockout models.Blockout
	if err := sqlx.GetContext(ctx, r.store.ext, &blockout, "SELECT "+blockoutColumns+" FROM blockouts WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NotFound("blockout", id)
		}
		return nil, fmt.Errorf("get blockout: %w", err)
	}
	return &blockout, nil
}

func (r *blockoutRepository) Create(ctx context.Context, blockout *models.Blockout) error {
	if blockout.ID == "" {
		blockout.ID = uuid.NewString()
	}
	if err := validateBlockout(blockout); err != nil {
		return err
	}
	const query = `INSERT INTO blockouts (id, instructor_id, date, start_time, end_time, reason)
        VALUES (:id, :instructor_id, :date, :start_time, :end_time, :reason)`
	if _, err := sqlx.NamedExecContext(ctx, r.store.ext, query, blockout); err != nil {
		if isForeignKeyViolation(err) {
			return repository.NotFound("instructor", blockout.InstructorID)
		}
		return fmt.Errorf("create blockout: %w", err)
	}
	return nil
}

func (r *blockoutRepository) Update(ctx context.Context, blockout *models.Blockout) error {
	if err := validateBlockout(blockout); err != nil {
		return err
	}
	const query = `UPDATE blockouts SET instructor_id = :instructor_id, date = :date, start_time = :start_time,
        end_time = :end_time, reason = :reason WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, r.store.ext, query, blockout)
	if err != nil {
		return fmt.Errorf("update blockout: %w", err)
	}
	if rowsAffected(result) == 0 {
		return repository.NotFound("blockout", blockout.ID)
	}
	return nil
}

func (r *blockoutRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.store.ext.ExecContext(ctx, `DELETE FROM blockouts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete blockout: %w", err)
	}
	return nil
}

func validateBlockout(blockout *models.Blockout) error {
	if err := repository.ValidateEntity(blockout); err != nil {
		return err
	}
	return repository.ValidateWindow(blockout.StartTime, blockout.EndTime)
}
