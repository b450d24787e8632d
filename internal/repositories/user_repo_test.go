package repositories

import (
	"context"
	"testing"
	"time"

	"invoicedesk/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type UserRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    UserRepository
	user    *models.User
	context context.Context
}

func (suite *UserRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewUserRepo(mock)
	suite.user = &models.User{
		ID:           uuid.New(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$hash",
		FirstName:    "Alice",
		DateJoined:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	suite.context = context.Background()
}

func (suite *UserRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestUserRepoTestSuite(t *testing.T) {
	suite.Run(t, new(UserRepoTestSuite))
}

func (suite *UserRepoTestSuite) expectInsert() *pgxmock.ExpectedExec {
	u := suite.user
	return suite.mock.ExpectExec(`INSERT INTO users \(id, username, email, password_hash, first_name, last_name, is_staff, date_joined\)`).
		WithArgs(u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.IsStaff, u.DateJoined)
}

func (suite *UserRepoTestSuite) TestCreate_Success() {
	suite.expectInsert().WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(suite.T(), suite.repo.Create(suite.context, suite.user))
}

func (suite *UserRepoTestSuite) TestCreate_DuplicateUsername() {
	suite.expectInsert().WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	assert.ErrorIs(suite.T(), suite.repo.Create(suite.context, suite.user), ErrDuplicateUsername)
}

func (suite *UserRepoTestSuite) TestCreate_DuplicateEmail() {
	suite.expectInsert().WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	assert.ErrorIs(suite.T(), suite.repo.Create(suite.context, suite.user), ErrDuplicateEmail)
}

func (suite *UserRepoTestSuite) TestGetByUsername_Success() {
	u := suite.user
	suite.mock.ExpectQuery(`FROM users WHERE username = \$1`).
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "email", "password_hash", "first_name", "last_name", "is_staff", "date_joined"}).
			AddRow(u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, true, u.DateJoined))

	user, err := suite.repo.GetByUsername(suite.context, "alice")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), u.ID, user.ID)
	assert.Equal(suite.T(), u.PasswordHash, user.PasswordHash)
	assert.True(suite.T(), user.IsStaff)
}

func (suite *UserRepoTestSuite) TestGetByID_NotFound() {
	suite.mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(suite.user.ID).
		WillReturnError(pgx.ErrNoRows)

	user, err := suite.repo.GetByID(suite.context, suite.user.ID)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
	assert.Nil(suite.T(), user)
}
