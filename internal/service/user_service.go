package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"intercompany/internal/access"
	"intercompany/internal/model"
	"intercompany/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is the lifetime of issued access tokens.
const TokenTTL = 24 * time.Hour

// DTOs for Request validation
type CreateUserRequest struct {
	Username   string   `json:"username" binding:"required"`
	Email      string   `json:"email" binding:"required,email"`
	Password   string   `json:"password" binding:"required,min=6"`
	Role       string   `json:"role" binding:"required,oneof=admin accountant"`
	CompanyID  string   `json:"company_id" binding:"required"`
	CompanyIDs []string `json:"company_ids"` // additional allowed companies
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	CompanyID  string    `json:"company_id"`
	CompanyIDs []string  `json:"company_ids"`
	CreatedAt  string    `json:"created_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	ResolveActor(ctx context.Context, userID string) (access.Actor, *model.User, error)
}

type userService struct {
	repo        repository.UserRepository
	companyRepo repository.CompanyRepository
	secret      []byte
	now         func() time.Time
}

// NewUserService returns a new instance of UserService signing tokens with secret.
func NewUserService(repo repository.UserRepository, companyRepo repository.CompanyRepository, secret string) UserService {
	return &userService{repo: repo, companyRepo: companyRepo, secret: []byte(secret), now: time.Now}
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	ids := user.AllowedCompanyIDs()
	companyIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		companyIDs = append(companyIDs, id.String())
	}
	return &UserResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Role:       user.Role,
		CompanyID:  user.CompanyID.String(),
		CompanyIDs: companyIDs,
		CreatedAt:  user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("%w: username already exists", ErrInvalidInput)
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("%w: email already exists", ErrInvalidInput)
	}

	companyID, err := parseID("company_id", req.CompanyID)
	if err != nil {
		return nil, err
	}
	home, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("%w: company %s not found", ErrInvalidInput, companyID)
	}

	companies := []model.Company{*home}
	for _, raw := range req.CompanyIDs {
		id, err := parseID("company_ids", raw)
		if err != nil {
			return nil, err
		}
		if id == companyID {
			continue
		}
		c, err := s.companyRepo.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%w: company %s not found", ErrInvalidInput, id)
		}
		companies = append(companies, *c)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(hashedPassword),
		Role:      req.Role,
		CompanyID: companyID,
		Companies: companies,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return mapToResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := s.now().Add(TokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  expiresAt.Unix(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &TokenResponse{Token: tokenString, ExpiresAt: expiresAt.Format(time.RFC3339)}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	userID, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}

	return responses, total, nil
}

// ResolveActor builds the capability a request acts under: the user's home
// company plus every company the user was granted.
func (s *userService) ResolveActor(ctx context.Context, userID string) (access.Actor, *model.User, error) {
	id, err := parseID("sub", userID)
	if err != nil {
		return access.Actor{}, nil, err
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return access.Actor{}, nil, fmt.Errorf("user not found: %w", err)
	}
	return access.ForUser(user.ID, user.AllowedCompanyIDs()...), user, nil
}
