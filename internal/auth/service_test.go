package auth

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"minta-backend/internal/domain"
)

func setupAuthDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}))
	return db
}

func TestRegisterUser_CreatesMemberWithHashedPassword(t *testing.T) {
	db := setupAuthDB(t)

	u, err := RegisterUser(db, RegisterInput{
		Fullname: "Jordan Miles",
		Email:    "jordan@example.com",
		Password: "s3cret!pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "member", u.Role)
	assert.NotEqual(t, "s3cret!pass", u.PasswordHash)
	assert.Nil(t, u.OrgID)

	logged, err := LoginUser(db, LoginInput{Email: "jordan@example.com", Password: "s3cret!pass"})
	require.NoError(t, err)
	assert.Equal(t, u.UserID, logged.UserID)
}

func TestRegisterUser_DuplicateEmail(t *testing.T) {
	db := setupAuthDB(t)

	_, err := RegisterUser(db, RegisterInput{Fullname: "A", Email: "dup@example.com", Password: "s3cret!pass"})
	require.NoError(t, err)
	_, err = RegisterUser(db, RegisterInput{Fullname: "B", Email: "dup@example.com", Password: "s3cret!pass"})
	assert.Equal(t, ErrEmailTaken, err)
}

func TestRegisterUser_WeakPassword(t *testing.T) {
	db := setupAuthDB(t)

	_, err := RegisterUser(db, RegisterInput{Fullname: "A", Email: "weak@example.com", Password: "short"})
	assert.Equal(t, ErrWeakPassword, err)
}

func TestLoginUser_WrongPassword(t *testing.T) {
	db := setupAuthDB(t)

	_, err := RegisterUser(db, RegisterInput{Fullname: "A", Email: "a@example.com", Password: "s3cret!pass"})
	require.NoError(t, err)
	_, err = LoginUser(db, LoginInput{Email: "a@example.com", Password: "wrong-pass1!"})
	assert.Equal(t, ErrIncorrectPassword, err)
}

func TestLoginUser_UnknownEmail(t *testing.T) {
	db := setupAuthDB(t)

	_, err := LoginUser(db, LoginInput{Email: "nobody@example.com", Password: "s3cret!pass"})
	assert.Equal(t, ErrInvalidEmail, err)
}

func TestVerifyUser_Nil(t *testing.T) {
	u, err := VerifyUser(nil)
	assert.Nil(t, u)
	assert.Equal(t, ErrNotAuthenticated, err)
}

func TestVerifyUser_NoUserID(t *testing.T) {
	u, err := VerifyUser(map[string]interface{}{
		"fullname": "Test",
		"email":    "a@b.com",
	})
	assert.Nil(t, u)
	assert.Equal(t, ErrNotAuthenticated, err)
}

func TestVerifyUser_Valid(t *testing.T) {
	u, err := VerifyUser(map[string]interface{}{
		"user_id":  "550e8400-e29b-41d4-a716-446655440000",
		"fullname": "Test User",
		"email":    "test@example.com",
		"role":     "guardian",
		"org_id":   "660e8400-e29b-41d4-a716-446655440000",
	})
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "guardian", u.Role)
	require.NotNil(t, u.OrgID)
	assert.Equal(t, "660e8400-e29b-41d4-a716-446655440000", *u.OrgID)
}

func TestVerifyUser_NilOrgID(t *testing.T) {
	u, err := VerifyUser(map[string]interface{}{
		"user_id":  "550e8400-e29b-41d4-a716-446655440000",
		"fullname": "Test",
		"email":    "a@b.com",
		"role":     "member",
	})
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Nil(t, u.OrgID)
}
