package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(sqlx.NewDb(db, "postgres"), nil), mock
}

var sessionCols = []string{"id", "class_type_id", "instructor_id", "start_time", "end_time", "capacity", "recurring_group_id"}

func TestGetUserByEmailNormalises(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "full_name", "email", "role", "avatar_url", "package_credits", "password_hash", "created_at", "updated_at"}).
		AddRow("u1", "Ada", "ada@example.com", "CLIENT", "", 3, "hash", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE LOWER(email) = $1 LIMIT 1")).
		WithArgs("ada@example.com").
		WillReturnRows(rows)

	user, err := store.Users().GetByEmail(context.Background(), " Ada@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, 3, user.PackageCredits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("FROM profiles WHERE id = ").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.Users().GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO profiles").WillReturnError(&pq.Error{Code: pqUniqueViolation})

	err := store.Users().Create(context.Background(), &models.User{Name: "Ada", Email: "ada@example.com", Role: models.RoleClient})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestCreateUserValidation(t *testing.T) {
	store, mock := newMockStore(t)
	err := store.Users().Create(context.Background(), &models.User{Email: "not-an-email", Role: models.RoleClient})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustCredits(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE profiles SET package_credits = package_credits + $2")).
		WithArgs("u1", 5).
		WillReturnRows(sqlmock.NewRows([]string{"package_credits"}).AddRow(7))

	balance, err := store.Users().AdjustCredits(context.Background(), "u1", 5)
	require.NoError(t, err)
	assert.Equal(t, 7, balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustCreditsInsufficient(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE profiles SET package_credits")).
		WithArgs("u1", -1).
		WillReturnRows(sqlmock.NewRows([]string{"package_credits"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := store.Users().AdjustCredits(context.Background(), "u1", -1)
	assert.True(t, errors.Is(err, appErrors.ErrInsufficientCredits))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustCreditsUnknownUser(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("UPDATE profiles SET package_credits").
		WillReturnRows(sqlmock.NewRows([]string{"package_credits"}))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := store.Users().AdjustCredits(context.Background(), "ghost", 1)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestEnrollSessionFull(t *testing.T) {
	store, mock := newMockStore(t)
	start := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions s WHERE s.id = $1 FOR UPDATE")).
		WithArgs("sess1").
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow("sess1", "c1", "i1", start, start.Add(45*time.Minute), 4, nil))
	mock.ExpectQuery("SELECT EXISTS \\(SELECT 1 FROM enrollments").
		WithArgs("sess1", "u6").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE session_id = $1")).
		WithArgs("sess1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectRollback()

	added, err := store.Sessions().Enroll(context.Background(), "sess1", "u6")
	assert.False(t, added)
	assert.True(t, errors.Is(err, appErrors.ErrSessionFull))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollAlreadyEnrolledIsNoop(t *testing.T) {
	store, mock := newMockStore(t)
	start := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow("sess1", "c1", "i1", start, start.Add(time.Hour), 4, nil))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectCommit()

	added, err := store.Sessions().Enroll(context.Background(), "sess1", "u2")
	require.NoError(t, err)
	assert.False(t, added)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollInsertsSeat(t *testing.T) {
	store, mock := newMockStore(t)
	start := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow("sess1", "c1", "i1", start, start.Add(time.Hour), 4, nil))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments (session_id, user_id) VALUES ($1, $2)")).
		WithArgs("sess1", "u4").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	added, err := store.Sessions().Enroll(context.Background(), "sess1", "u4")
	require.NoError(t, err)
	assert.True(t, added)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSessionsAttachesEnrollments(t *testing.T) {
	store, mock := newMockStore(t)
	start := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions s WHERE s.instructor_id = $1 ORDER BY s.start_time ASC")).
		WithArgs("i1").
		WillReturnRows(sqlmock.NewRows(sessionCols).
			AddRow("sess1", "c1", "i1", start, start.Add(time.Hour), 4, nil).
			AddRow("sess2", "c1", "i1", start.Add(24*time.Hour), start.Add(25*time.Hour), 4, "grp"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE session_id = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"session_id", "user_id"}).
			AddRow("sess1", "u2").
			AddRow("sess1", "u3"))

	sessions, err := store.Sessions().List(context.Background(), models.SessionFilter{InstructorID: "i1"})
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, []string{"u2", "u3"}, sessions[0].EnrolledUserIDs)
	assert.Empty(t, sessions[1].EnrolledUserIDs)
	require.NotNil(t, sessions[1].RecurringGroupID)
	assert.Equal(t, "grp", *sessions[1].RecurringGroupID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteIsIdempotent(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM packages WHERE id = $1")).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Packages().Delete(context.Background(), "gone"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO purchases").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE profiles SET package_credits").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(tx repository.Store) error {
		if err := tx.Purchases().Create(context.Background(), &models.Purchase{UserID: "u1", PackageID: "p1", Credits: 5, Price: 100}); err != nil {
			return err
		}
		_, err := tx.Users().AdjustCredits(context.Background(), "u1", 5)
		return err
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsUpsert(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE")).WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Settings().Save(context.Background(), &models.Settings{PoolCapacity: 25, CancellationHours: 24, ContactEmail: "admin@lovableswim.com"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRejectsEmptyWindow(t *testing.T) {
	store, _ := newMockStore(t)
	err := store.Availability().Create(context.Background(), &models.Availability{InstructorID: "i1", DayOfWeek: 1, StartTime: "17:00", EndTime: "09:00"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestUpdateUserLeavesCreditsAlone(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE profiles SET full_name = \$1, email = \$2, role = \$3, avatar_url = \$4,\s+password_hash = \$5, updated_at = \$6 WHERE id = \$7`).
		WithArgs("Ada L", "ada@example.com", "CLIENT", "", "hash", sqlmock.AnyArg(), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Users().Update(context.Background(), &models.User{
		ID: "u1", Name: "Ada L", Email: "ada@example.com", Role: models.RoleClient, PackageCredits: 0, PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSessionInsideTxLocksRow(t *testing.T) {
	store, mock := newMockStore(t)
	start := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions s WHERE s.id = $1 FOR UPDATE")).
		WithArgs("sess1").
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow("sess1", "c1", "i1", start, start.Add(time.Hour), 4, nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE session_id = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"session_id", "user_id"}).AddRow("sess1", "u2"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id = $1")).
		WithArgs("sess1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(tx repository.Store) error {
		session, err := tx.Sessions().GetByID(context.Background(), "sess1")
		if err != nil {
			return err
		}
		assert.Equal(t, []string{"u2"}, session.EnrolledUserIDs)
		return tx.Sessions().Delete(context.Background(), "sess1")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteInstructorWithSessionsConflicts(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM profiles WHERE id = $1")).
		WithArgs("i1").
		WillReturnError(&pq.Error{Code: pqForeignKeyViolation})

	err := store.Users().Delete(context.Background(), "i1")
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}
