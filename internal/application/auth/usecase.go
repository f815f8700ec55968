// Package auth covers registration and login. The engine itself never
// authenticates; it consumes the actor context this package puts into tokens.
package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/itadmit/ipalsam-sub000/internal/application/dto"
	"github.com/itadmit/ipalsam-sub000/internal/domain"
	"github.com/itadmit/ipalsam-sub000/internal/domain/entity"
	"github.com/itadmit/ipalsam-sub000/internal/domain/repository"
	"github.com/itadmit/ipalsam-sub000/pkg/jwt"
)

// JWTConfig token generation settings.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase registration and login.
type AuthUseCase struct {
	userRepo repository.UserRepository
	depRepo  repository.DepartmentRepository
	jwtCfg   JWTConfig
}

// NewAuthUseCase builds the use case.
func NewAuthUseCase(userRepo repository.UserRepository, depRepo repository.DepartmentRepository, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, depRepo: depRepo, jwtCfg: jwtCfg}
}

// Register creates an account: bcrypt-hashes the password and persists the
// user under an existing department.
func (uc *AuthUseCase) Register(in dto.RegisterRequest) (*dto.UserResponse, error) {
	if in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("email and password are required: %w", domain.ErrValidation)
	}
	existing, err := uc.userRepo.FindByEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}
	dep, err := uc.depRepo.GetByID(in.DepartmentID)
	if err != nil {
		return nil, err
	}
	if dep == nil {
		return nil, fmt.Errorf("department %s: %w", in.DepartmentID, domain.ErrNotFound)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	role := in.Role
	switch role {
	case "":
		role = entity.RoleStaff
	case entity.RoleAdmin, entity.RoleManager, entity.RoleStaff:
	default:
		return nil, fmt.Errorf("unknown role %q: %w", in.Role, domain.ErrValidation)
	}
	name := in.Name
	if name == "" {
		name = in.Email
	}

	now := time.Now()
	user := &entity.User{
		ID:           uuid.New().String(),
		DepartmentID: in.DepartmentID,
		Email:        in.Email,
		PasswordHash: string(hash),
		Name:         name,
		Phone:        in.Phone,
		Role:         role,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(user); err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// Login verifies credentials and returns a signed token carrying the actor
// context (id, role, department).
func (uc *AuthUseCase) Login(in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.FindByEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if user.Status != "active" {
		return nil, domain.ErrForbidden
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.DepartmentID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{Token: token, User: *toUserResponse(user)}, nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:           u.ID,
		DepartmentID: u.DepartmentID,
		Email:        u.Email,
		Name:         u.Name,
		Phone:        u.Phone,
		Role:         u.Role,
		Status:       u.Status,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
