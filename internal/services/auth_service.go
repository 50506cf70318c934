package services

import (
	"context"
	"errors"
	"time"

	"github.com/gilangrmdn/preptalk/internal/models"
	mongorepo "github.com/gilangrmdn/preptalk/internal/repositories/mongo"
	"github.com/gilangrmdn/preptalk/internal/utils"
	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 24 * time.Hour

type AuthService interface {
	SignUp(ctx context.Context, name, email, password string) (string, error)
	SignIn(ctx context.Context, email, password string) (token string, user *models.User, err error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

type authService struct {
	users     mongorepo.UserRepository
	jwtSecret []byte
}

func NewAuthService(users mongorepo.UserRepository, jwtSecret []byte) AuthService {
	return &authService{users: users, jwtSecret: jwtSecret}
}

func (s *authService) SignUp(ctx context.Context, name, email, password string) (string, error) {
	const op = "AuthService.SignUp"

	if name == "" || email == "" || password == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "name, email, and password are required", nil)
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return "", utils.E(utils.CodeConflict, op, "user already exists, please sign in", nil)
	}
	if !errors.Is(err, utils.ErrNotFound) {
		return "", utils.E(utils.CodeInternal, op, "failed to check existing user", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to hash password", err)
	}

	id, err := s.users.Create(ctx, &models.User{
		Name:      name,
		Email:     email,
		Password:  hash,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to create user", err)
	}
	return id, nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (string, *models.User, error) {
	const op = "AuthService.SignIn"

	if email == "" || password == "" {
		return "", nil, utils.E(utils.CodeInvalidArgument, op, "email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return "", nil, utils.E(utils.CodeNotFound, op, "user not found, please sign up", err)
		}
		return "", nil, utils.E(utils.CodeInternal, op, "failed to fetch user", err)
	}

	if err := utils.CheckPassword(user.Password, password); err != nil {
		return "", nil, utils.E(utils.CodeUnauthorized, op, "incorrect password", nil)
	}

	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.Hex(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, utils.E(utils.CodeInternal, op, "failed to sign token", err)
	}
	return token, user, nil
}

func (s *authService) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "AuthService.GetUser"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user id is required", nil)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "user not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to fetch user", err)
	}
	return user, nil
}
