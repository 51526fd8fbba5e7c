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

const userColumns = `id, full_name, email, role, avatar_url, package_credits, password_hash, created_at, updated_at`

type userRepository struct {
	store *Store
}

func (r *userRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, string(*filter.Role))
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := "SELECT " + userColumns + " FROM profiles" + clause + " ORDER BY full_name ASC"
	users := []models.User{}
	if err := sqlx.SelectContext(ctx, r.store.ext, &users, query, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetByID locks the row when called inside a transaction.
func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM profiles WHERE id = $1"
	if r.store.tx != nil {
		query += " FOR UPDATE"
	}
	var user models.User
	if err := sqlx.GetContext(ctx, r.store.ext, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NotFound("user", id)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = "SELECT " + userColumns + " FROM profiles WHERE LOWER(email) = $1 LIMIT 1"
	var user models.User
	if err := sqlx.GetContext(ctx, r.store.ext, &user, query, models.NormalizeEmail(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NotFound("user", email)
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = models.NormalizeEmail(user.Email)
	if err := repository.ValidateEntity(user); err != nil {
		return err
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `INSERT INTO profiles (id, full_name, email, role, avatar_url, package_credits, password_hash, created_at, updated_at)
        VALUES (:id, :full_name, :email, :role, :avatar_url, :package_credits, :password_hash, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.store.ext, query, user); err != nil {
		if isUniqueViolation(err) {
			return repository.Conflict(fmt.Sprintf("email %s is already registered", user.Email))
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update writes profile fields. Credits only change through AdjustCredits.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	if err := repository.ValidateEntity(user); err != nil {
		return err
	}
	user.UpdatedAt = time.Now().UTC()

	const query = `UPDATE profiles SET full_name = :full_name, email = :email, role = :role, avatar_url = :avatar_url,
        password_hash = :password_hash, updated_at = :updated_at WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, r.store.ext, query, user)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.Conflict(fmt.Sprintf("email %s is already registered", user.Email))
		}
		return fmt.Errorf("update user: %w", err)
	}
	if rowsAffected(result) == 0 {
		return repository.NotFound("user", user.ID)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.store.ext.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id); err != nil {
		if isForeignKeyViolation(err) {
			return repository.Conflict(fmt.Sprintf("user %s still teaches sessions", id))
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (r *userRepository) AdjustCredits(ctx context.Context, id string, delta int) (int, error) {
	const query = `UPDATE profiles SET package_credits = package_credits + $2, updated_at = NOW()
        WHERE id = $1 AND package_credits + $2 >= 0 RETURNING package_credits`
	var balance int
	err := sqlx.GetContext(ctx, r.store.ext, &balance, query, id, delta)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("adjust credits: %w", err)
	}

	var exists bool
	if err := sqlx.GetContext(ctx, r.store.ext, &exists, `SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)`, id); err != nil {
		return 0, fmt.Errorf("check user exists: %w", err)
	}
	if !exists {
		return 0, repository.NotFound("user", id)
	}
	return 0, repository.InsufficientCredits(id)
}
