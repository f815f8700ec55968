package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itadmit/ipalsam-sub000/internal/application/apptest"
	"github.com/itadmit/ipalsam-sub000/internal/application/auth"
	"github.com/itadmit/ipalsam-sub000/internal/application/dto"
	"github.com/itadmit/ipalsam-sub000/internal/domain"
	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
	pkgjwt "github.com/itadmit/ipalsam-sub000/pkg/jwt"
)

const testDept = "dept-av"

func newAuthUC(t *testing.T) *auth.AuthUseCase {
	t.Helper()
	store := apptest.NewMemStore()
	depRepo := store.DepartmentRepo()
	require.NoError(t, depRepo.Create(&entity.Department{ID: testDept, Name: "Audio/Visual"}))
	return auth.NewAuthUseCase(store.UserRepo(), depRepo, auth.JWTConfig{
		Secret: "test-secret", ExpMinutes: 60, Issuer: "ipalsam-test",
	})
}

func TestRegisterAndLogin(t *testing.T) {
	uc := newAuthUC(t)

	user, err := uc.Register(dto.RegisterRequest{
		DepartmentID: testDept,
		Email:        "dana@example.com",
		Password:     "s3cret",
		Name:         "Dana Levi",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleStaff, user.Role, "role defaults to staff")
	assert.Equal(t, "active", user.Status)

	out, err := uc.Login(dto.LoginRequest{Email: "dana@example.com", Password: "s3cret"})
	require.NoError(t, err)
	require.NotEmpty(t, out.Token)

	userID, deptID, role, err := pkgjwt.Parse("test-secret", out.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, testDept, deptID)
	assert.Equal(t, entity.RoleStaff, role)
}

func TestRegisterValidation(t *testing.T) {
	uc := newAuthUC(t)

	_, err := uc.Register(dto.RegisterRequest{DepartmentID: testDept, Email: "x@example.com"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.Register(dto.RegisterRequest{
		DepartmentID: "no-such-dept", Email: "x@example.com", Password: "pw",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Register(dto.RegisterRequest{
		DepartmentID: testDept, Email: "x@example.com", Password: "pw", Role: "superuser",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	uc := newAuthUC(t)

	_, err := uc.Register(dto.RegisterRequest{
		DepartmentID: testDept, Email: "dana@example.com", Password: "pw",
	})
	require.NoError(t, err)

	_, err = uc.Register(dto.RegisterRequest{
		DepartmentID: testDept, Email: "dana@example.com", Password: "pw2",
	})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	uc := newAuthUC(t)
	_, err := uc.Register(dto.RegisterRequest{
		DepartmentID: testDept, Email: "dana@example.com", Password: "s3cret",
	})
	require.NoError(t, err)

	_, err = uc.Login(dto.LoginRequest{Email: "dana@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(dto.LoginRequest{Email: "nobody@example.com", Password: "s3cret"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
