package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"digital-library-backend/internal/domains/user"
	"digital-library-backend/internal/shared/apperror"
	"digital-library-backend/pkg/jwt"
	"digital-library-backend/pkg/logger"
)

// userService implements user.Service
type userService struct {
	repo       user.Repository
	jwtManager *jwt.Manager
	bcryptCost int
}

func NewUserService(repo user.Repository, jwtManager *jwt.Manager) user.Service {
	return &userService{
		repo:       repo,
		jwtManager: jwtManager,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// ========================================
// AUTHENTICATION
// ========================================

func (s *userService) Register(ctx context.Context, req user.RegisterRequest) (*user.AuthResponse, error) {
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, apperror.NewMissingParams(missing...)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		Email:        user.NormalizeEmail(req.Email),
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	logger.Info("user registered", map[string]interface{}{"user_id": u.ID})
	return s.issue(u)
}

func (s *userService) Login(ctx context.Context, req user.LoginRequest) (*user.AuthResponse, error) {
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, apperror.NewMissingParams(missing...)
	}

	u, err := s.repo.FindByEmail(ctx, user.NormalizeEmail(req.Email))
	if err != nil {
		var nf *apperror.NotFoundError
		if errors.As(err, &nf) {
			return nil, user.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, user.ErrInvalidCredentials
	}

	return s.issue(u)
}

func (s *userService) Authenticate(ctx context.Context, token string) (*user.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, user.ErrTokenMissing
	}

	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, user.ErrTokenInvalid
	}
	id, err := claims.ParsedUserID()
	if err != nil {
		return nil, user.ErrTokenInvalid
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		var nf *apperror.NotFoundError
		if errors.As(err, &nf) {
			return nil, user.ErrTokenInvalid
		}
		return nil, err
	}
	return u, nil
}

func (s *userService) issue(u *user.User) (*user.AuthResponse, error) {
	token, expiresAt, err := s.jwtManager.GenerateToken(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &user.AuthResponse{Token: token, ExpiresAt: expiresAt, User: u.ToDTO()}, nil
}

// ========================================
// PROFILE
// ========================================

func (s *userService) Profile(ctx context.Context, u *user.User) (*user.ProfileDTO, error) {
	total, err := s.repo.CountMaterials(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &user.ProfileDTO{UserDTO: u.ToDTO(), TotalMaterials: total}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, u *user.User, req user.UpdateProfileRequest) (*user.UserDTO, error) {
	updated := *u
	updated.PasswordHash = ""

	if req.Email != nil {
		updated.Email = user.NormalizeEmail(*req.Email)
	}
	password := ""
	if req.Password != nil {
		password = *req.Password
	}

	if err := user.ValidateProfile(updated.Email, password); err != nil {
		return nil, err
	}

	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updated.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}

	*u = updated
	dto := u.ToDTO()
	return &dto, nil
}
