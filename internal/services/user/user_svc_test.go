package user

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"chatsyncgo/internal/auth"
)

func newMockSvc(t *testing.T) (IUserService, sqlmock.Sqlmock, *auth.Verifier) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	verifier := auth.NewVerifier("user-test-secret", time.Hour)
	return NewUserService(db, verifier), mock, verifier
}

func TestRegister(t *testing.T) {
	svc, mock, _ := newMockSvc(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
			AddRow(int64(1), time.Now().UTC()))

	dto, err := svc.Register(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, int64(1), dto.ID)
	assert.Equal(t, "alice", dto.Username)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, mock, _ := newMockSvc(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	_, err := svc.Register(context.Background(), "alice", "s3cret")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc, mock, verifier := newMockSvc(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	mock.ExpectQuery("SELECT id, username, password_hash").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at"}).
			AddRow(int64(1), "alice", string(hash), time.Now().UTC()))

	token, dto, err := svc.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, int64(1), dto.ID)

	identity, err := verifier.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), identity.ID)
	assert.Equal(t, "alice", identity.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, mock, _ := newMockSvc(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	mock.ExpectQuery("SELECT id, username, password_hash").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at"}).
			AddRow(int64(1), "alice", string(hash), time.Now().UTC()))

	_, _, err = svc.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, mock, _ := newMockSvc(t)

	mock.ExpectQuery("SELECT id, username, password_hash").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, _, err := svc.Login(context.Background(), "ghost", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
