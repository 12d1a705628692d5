package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/shop-service/internal/auth"
	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type RegisterUser struct {
	Name      string
	Email     string
	Password  string
	Street    string
	Apartment string
	City      string
	Zip       string
	Country   string
	Phone     string
}

type UserService struct {
	users      repository.UserRepository
	bcryptCost int
}

func NewUserService(users repository.UserRepository, bcryptCost int) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{users: users, bcryptCost: bcryptCost}
}

// Register creates a regular user. The password is stored only as a bcrypt hash.
func (s *UserService) Register(ctx context.Context, in RegisterUser) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, domain.NewValidationError("password is too long")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Street:       in.Street,
		Apartment:    in.Apartment,
		City:         in.City,
		Zip:          in.Zip,
		Country:      in.Country,
		Phone:        in.Phone,
		Role:         domain.RoleUser,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("user with this email %w", domain.ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string, actor domain.Principal) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, actor domain.Principal) ([]*domain.User, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

func (s *UserService) CountUsers(ctx context.Context, actor domain.Principal) (int64, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return 0, err
	}
	return s.users.Count(ctx)
}

func (s *UserService) DeleteUser(ctx context.Context, id string, actor domain.Principal) (*domain.User, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.users.Delete(ctx, id)
}
