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

const classTypeColumns = `id, name, description, price, price_package, duration_minutes, difficulty, capacity`

type classTypeRepository struct {
	store *Store
}

func (r *classTypeRepository) List(ctx context.Context) ([]models.ClassType, error) {
	classTypes := []models.ClassType{}
	if err := sqlx.SelectContext(ctx, r.store.ext, &classTypes, "SELECT "+classTypeColumns+" FROM class_types ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("list class types: %w", err)
	}
	for i := range classTypes {
		classTypes[i].ApplyDefaults()
	}
	return classTypes, nil
}

func (r *classTypeRepository) GetByID(ctx context.Context, id string) (*models.ClassType, error) {
	var classType models.ClassType
	if err := sqlx.GetContext(ctx, r.store.ext, &classType, "SELECT "+classTypeColumns+" FROM class_types WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NotFound("class type", id)
		}
		return nil, fmt.Errorf("get class type: %w", err)
	}
	classType.ApplyDefaults()
	return &classType, nil
}

func (r *classTypeRepository) Create(ctx context.Context, classType *models.ClassType) error {
	if classType.ID == "" {
		classType.ID = uuid.NewString()
	}
	classType.ApplyDefaults()
	if err := repository.ValidateEntity(classType); err != nil {
		return err
	}
	const query = `INSERT INTO class_types (id, name, description, price, price_package, duration_minutes, difficulty, capacity)
        VALUES (:id, :name, :description, :price, :price_package, :duration_minutes, :difficulty, :capacity)`
	if _, err := sqlx.NamedExecContext(ctx, r.store.ext, query, classType); err != nil {
		if isUniqueViolation(err) {
			return repository.Conflict(fmt.Sprintf("class type %s already exists", classType.ID))
		}
		return fmt.Errorf("create class type: %w", err)
	}
	return nil
}

func (r *classTypeRepository) Update(ctx context.Context, classType *models.ClassType) error {
	classType.ApplyDefaults()
	if err := repository.ValidateEntity(classType); err != nil {
		return err
	}
	const query = `UPDATE class_types SET name = :name, description = :description, price = :price, price_package = :price_package,
        duration_minutes = :duration_minutes, difficulty = :difficulty, capacity = :capacity WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, r.store.ext, query, classType)
	if err != nil {
		return fmt.Errorf("update class type: %w", err)
	}
	if rowsAffected(result) == 0 {
		return repository.NotFound("class type", classType.ID)
	}
	return nil
}

func (r *classTypeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.store.ext.ExecContext(ctx, `DELETE FROM class_types WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete class type: %w", err)
	}
	return nil
}
