package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
)

const (
	packageColumns  = `id, name, description, credits, price`
	purchaseColumns = `id, user_id, package_id, package_name, credits_purchased, amount_paid, purchase_date`
)

type packageRepository struct {
	store *Store
}

func (r *packageRepository) List(ctx context.Context) ([]models.Package, error) {
	packages := []models.Package{}
	if err := sqlx.SelectContext(ctx, r.store.ext, &packages, "SELECT "+packageColumns+" FROM packages ORDER BY price ASC"); err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return packages, nil
}

func (r *packageRepository) GetByID(ctx context.Context, id string) (*models.Package, error) {
	var pkg models.Package
	if err := sqlx.GetContext(ctx, r.store.ext, &pkg, "SELECT "+packageColumns+" FROM packages WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NotFound("package", id)
		}
		return nil, fmt.Errorf("get package: %w", err)
	}
	return &pkg, nil
}

func (r *packageRepository) Create(ctx context.Context, pkg *models.Package) error {
	if pkg.ID == "" {
		pkg.ID = uuid.NewString()
	}
	if err := repository.ValidateEntity(pkg); err != nil {
		return err
	}
	const query = `INSERT INTO packages (id, name, description, credits, price) VALUES (:id, :name, :description, :credits, :price)`
	if _, err := sqlx.NamedExecContext(ctx, r.store.ext, query, pkg); err != nil {
		if isUniqueViolation(err) {
			return repository.Conflict(fmt.Sprintf("package %s already exists", pkg.ID))
		}
		return fmt.Errorf("create package: %w", err)
	}
	return nil
}

func (r *packageRepository) Update(ctx context.Context, pkg *models.Package) error {
	if err := repository.ValidateEntity(pkg); err != nil {
		return err
	}
	const query = `UPDATE packages SET name = :name, description = :description, credits = :credits, price = :price WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, r.store.ext, query, pkg)
	if err != nil {
		return fmt.Errorf("update package: %w", err)
	}
	if rowsAffected(result) == 0 {
		return repository.NotFound("package", pkg.ID)
	}
	return nil
}

func (r *packageRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.store.ext.ExecContext(ctx, `DELETE FROM packages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete package: %w", err)
	}
	return nil
}

type purchaseRepository struct {
	store *Store
}

func (r *purchaseRepository) List(ctx context.Context, filter models.PurchaseFilter) ([]models.Purchase, error) {
	var conditions []string
	var args []interface{}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("purchase_date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("purchase_date < $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	purchases := []models.Purchase{}
	query := "SELECT " + purchaseColumns + " FROM purchases" + clause + " ORDER BY purchase_date DESC"
	if err := sqlx.SelectContext(ctx, r.store.ext, &purchases, query, args...); err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return purchases, nil
}

func (r *purchaseRepository) GetByID(ctx context.Context, id string) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := sqlx.GetContext(ctx, r.store.ext, &purchase, "SELECT "+purchaseColumns+" FROM purchases WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NotFound("purchase", id)
		}
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	return &purchase, nil
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *models.Purchase) error {
	if purchase.ID == "" {
		purchase.ID = uuid.NewString()
	}
	if purchase.Date.IsZero() {
		purchase.Date = time.Now().UTC()
	}
	if err := repository.ValidateEntity(purchase); err != nil {
		return err
	}
	const query = `INSERT INTO purchases (id, user_id, package_id, package_name, credits_purchased, amount_paid, purchase_date)
        VALUES (:id, :user_id, :package_id, :package_name, :credits_purchased, :amount_paid, :purchase_date)`
	if _, err := sqlx.NamedExecContext(ctx, r.store.ext, query, purchase); err != nil {
		if isForeignKeyViolation(err) {
			return repository.NotFound("user", purchase.UserID)
		}
		return fmt.Errorf("create purchase: %w", err)
	}
	return nil
}
