package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
)

const sessionColumns = `s.id, s.class_type_id, s.instructor_id, s.start_time, s.end_time, s.capacity, s.recurring_group_id`

type sessionRepository struct {
	store *Store
}

type enrollmentRow struct {
	SessionID string `db:"session_id"`
	UserID    string `db:"user_id"`
}

func (r *sessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.LessonSession, error) {
	var conditions []string
	var args []interface{}

	if filter.ClassTypeID != "" {
		conditions = append(conditions, fmt.Sprintf("s.class_type_id = $%d", len(args)+1))
		args = append(args, filter.ClassTypeID)
	}
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("s.instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM enrollments e WHERE e.session_id = s.id AND e.user_id = $%d)", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("s.start_time >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("s.start_time < $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.OnlyOpen {
		conditions = append(conditions, "(SELECT COUNT(*) FROM enrollments e WHERE e.session_id = s.id) < s.capacity")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := "SELECT " + sessionColumns + " FROM sessions s" + clause + " ORDER BY s.start_time ASC"
	sessions := []models.LessonSession{}
	if err := sqlx.SelectContext(ctx, r.store.ext, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if err := r.attachEnrollments(ctx, r.store.ext, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetByID locks the session row when called inside a transaction so seats
// cannot change until it commits.
func (r *sessionRepository) GetByID(ctx context.Context, id string) (*models.LessonSession, error) {
	session, err := r.get(ctx, r.store.ext, id, r.store.tx != nil)
	if err != nil {
		return nil, err
	}
	sessions := []models.LessonSession{*session}
	if err := r.attachEnrollments(ctx, r.store.ext, sessions); err != nil {
		return nil, err
	}
	return &sessions[0], nil
}

func (r *sessionRepository) get(ctx context.Context, q sqlx.QueryerContext, id string, forUpdate bool) (*models.LessonSession, error) {
	query := "SELECT " + sessionColumns + " FROM sessions s WHERE s.id = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}
	var session models.LessonSession
	if err := sqlx.GetContext(ctx, q, &session, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NotFound("session", id)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) attachEnrollments(ctx context.Context, q sqlx.QueryerContext, sessions []models.LessonSession) error {
	if len(sessions) == 0 {
		return nil
	}
	ids := make([]string, len(sessions))
	for i := range sessions {
		ids[i] = sessions[i].ID
		sessions[i].EnrolledUserIDs = []string{}
	}

	const query = `SELECT session_id, user_id FROM enrollments WHERE session_id = ANY($1) ORDER BY created_at ASC, user_id ASC`
	var rows []enrollmentRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("list enrollments: %w", err)
	}

	index := make(map[string]int, len(sessions))
	for i := range sessions {
		index[sessions[i].ID] = i
	}
	for _, row := range rows {
		if i, ok := index[row.SessionID]; ok {
			sessions[i].EnrolledUserIDs = append(sessions[i].EnrolledUserIDs, row.UserID)
		}
	}
	return nil
}

func (r *sessionRepository) Create(ctx context.Context, session *models.LessonSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if err := repository.ValidateEntity(session); err != nil {
		return err
	}
	enrolled := uniqueIDs(session.EnrolledUserIDs)
	if len(enrolled) > session.Capacity {
		return repository.SessionFull(session.ID)
	}

	return r.store.atomic(ctx, func(tx *sqlx.Tx) error {
		const query = `INSERT INTO sessions (id, class_type_id, instructor_id, start_time, end_time, capacity, recurring_group_id)
            VALUES (:id, :class_type_id, :instructor_id, :start_time, :end_time, :capacity, :recurring_group_id)`
		if _, err := sqlx.NamedExecContext(ctx, tx, query, session); err != nil {
			if isUniqueViolation(err) {
				return repository.Conflict(fmt.Sprintf("session %s already exists", session.ID))
			}
			if isForeignKeyViolation(err) {
				return repository.Conflict("session references an unknown class type or instructor")
			}
			return fmt.Errorf("create session: %w", err)
		}
		for _, userID := range enrolled {
			if _, err := tx.ExecContext(ctx, `INSERT INTO enrollments (session_id, user_id) VALUES ($1, $2)`, session.ID, userID); err != nil {
				if isForeignKeyViolation(err) {
					return repository.NotFound("user", userID)
				}
				return fmt.Errorf("create enrollment: %w", err)
			}
		}
		session.EnrolledUserIDs = enrolled
		return nil
	})
}

func (r *sessionRepository) Update(ctx context.Context, session *models.LessonSession) error {
	if err := repository.ValidateEntity(session); err != nil {
		return err
	}
	return r.store.atomic(ctx, func(tx *sqlx.Tx) error {
		if _, err := r.get(ctx, tx, session.ID, true); err != nil {
			return err
		}
		var enrolled int
		if err := sqlx.GetContext(ctx, tx, &enrolled, `SELECT COUNT(*) FROM enrollments WHERE session_id = $1`, session.ID); err != nil {
			return fmt.Errorf("count enrollments: %w", err)
		}
		if session.Capacity < enrolled {
			return repository.Invalid(fmt.Sprintf("capacity %d is below the %d enrolled clients", session.Capacity, enrolled))
		}

		const query = `UPDATE sessions SET class_type_id = :class_type_id, instructor_id = :instructor_id, start_time = :start_time,
            end_time = :end_time, capacity = :capacity, recurring_group_id = :recurring_group_id WHERE id = :id`
		if _, err := sqlx.NamedExecContext(ctx, tx, query, session); err != nil {
			return fmt.Errorf("update session: %w", err)
		}

		sessions := []models.LessonSession{*session}
		if err := r.attachEnrollments(ctx, tx, sessions); err != nil {
			return err
		}
		session.EnrolledUserIDs = sessions[0].EnrolledUserIDs
		return nil
	})
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.store.ext.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Enroll(ctx context.Context, sessionID, userID string) (bool, error) {
	var added bool
	err := r.store.atomic(ctx, func(tx *sqlx.Tx) error {
		session, err := r.get(ctx, tx, sessionID, true)
		if err != nil {
			return err
		}

		var exists bool
		if err := sqlx.GetContext(ctx, tx, &exists, `SELECT EXISTS (SELECT 1 FROM enrollments WHERE session_id = $1 AND user_id = $2)`, sessionID, userID); err != nil {
			return fmt.Errorf("check enrollment: %w", err)
		}
		if exists {
			return nil
		}

		var enrolled int
		if err := sqlx.GetContext(ctx, tx, &enrolled, `SELECT COUNT(*) FROM enrollments WHERE session_id = $1`, sessionID); err != nil {
			return fmt.Errorf("count enrollments: %w", err)
		}
		if enrolled >= session.Capacity {
			return repository.SessionFull(sessionID)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO enrollments (session_id, user_id) VALUES ($1, $2)`, sessionID, userID); err != nil {
			if isForeignKeyViolation(err) {
				return repository.NotFound("user", userID)
			}
			return fmt.Errorf("create enrollment: %w", err)
		}
		added = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

func (r *sessionRepository) Unenroll(ctx context.Context, sessionID, userID string) (bool, error) {
	result, err := r.store.ext.ExecContext(ctx, `DELETE FROM enrollments WHERE session_id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return false, fmt.Errorf("delete enrollment: %w", err)
	}
	return rowsAffected(result) > 0, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
