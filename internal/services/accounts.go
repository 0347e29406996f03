package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"campus-chat/internal/models"
	"campus-chat/internal/repositories"
)

const (
	minPasswordLength = 6
	minSearchLength   = 2
	searchLimit       = 20
)

var clubCategories = map[string]struct{}{
	"tech": {}, "cultural": {}, "sports": {}, "social": {}, "academic": {}, "other": {},
}

// SignupInput carries the signup form.
type SignupInput struct {
	Name            string
	Username        string
	Regno           string
	Email           string
	Password        string
	AccountType     string
	ClubDescription string
	ClubCategory    string
}

// AccountService covers signup, login and the admin club approval flow.
type AccountService struct {
	users    repositories.UserRepository
	validate *validator.Validate
	hashCost int
}

// NewAccountService builds an AccountService.
func NewAccountService(users repositories.UserRepository) *AccountService {
	return &AccountService{users: users, validate: validator.New(), hashCost: bcrypt.DefaultCost}
}

// Signup creates an account. Students are approved immediately, clubs wait
// for an admin.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Regno = strings.TrimSpace(in.Regno)
	in.Email = strings.TrimSpace(in.Email)

	if in.Name == "" || in.Username == "" || in.Email == "" || in.Password == "" {
		return models.User{}, InvalidInput("All fields are required")
	}

	accountType := models.AccountType(in.AccountType)
	if accountType != models.AccountClub {
		accountType = models.AccountStudent
	}
	if accountType == models.AccountStudent && in.Regno == "" {
		return models.User{}, InvalidInput("Registration number is required")
	}
	if len(in.Password) < minPasswordLength {
		return models.User{}, InvalidInput(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	if err := s.validate.Var(in.Email, "email"); err != nil {
		return models.User{}, InvalidInput("Invalid email format")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Name:         in.Name,
		Username:     in.Username,
		Regno:        in.Regno,
		Email:        in.Email,
		PasswordHash: string(hash),
		AccountType:  accountType,
		IsApproved:   accountType == models.AccountStudent,
	}

	var club *models.ClubProfile
	if accountType == models.AccountClub {
		category := in.ClubCategory
		if _, ok := clubCategories[category]; !ok {
			category = "other"
		}
		club = &models.ClubProfile{Description: strings.TrimSpace(in.ClubDescription), Category: category}
	}

	created, err := s.users.Create(ctx, user, club)
	if errors.Is(err, repositories.ErrDuplicate) {
		return models.User{}, ErrAccountExists
	}
	if err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// Login resolves a username or email and checks the password.
func (s *AccountService) Login(ctx context.Context, identifier, password string) (models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return models.User{}, InvalidInput("Username/email and password are required")
	}

	user, err := s.users.GetByLogin(ctx, identifier)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	if user.AccountType == models.AccountClub && !user.IsApproved {
		return models.User{}, ErrPendingApproval
	}
	return user, nil
}

// CurrentUser returns the account behind a session.
func (s *AccountService) CurrentUser(ctx context.Context, userID int64) (models.User, error) {
	if err := requireUser(userID); err != nil {
		return models.User{}, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return models.User{}, ErrAuthRequired
	}
	return user, err
}

// GetProfile returns another user's public profile.
func (s *AccountService) GetProfile(ctx context.Context, viewerID, userID int64) (models.PublicProfile, error) {
	if err := requireUser(viewerID); err != nil {
		return models.PublicProfile{}, err
	}
	if userID <= 0 {
		return models.PublicProfile{}, InvalidInput("User ID required")
	}
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return models.PublicProfile{}, ErrUserNotFound
	}
	if err != nil {
		return models.PublicProfile{}, fmt.Errorf("load user: %w", err)
	}
	return user.Profile(), nil
}

// SearchUsers matches name, username or regno. Queries shorter than two
// characters return nothing.
func (s *AccountService) SearchUsers(ctx context.Context, userID int64, query string) ([]models.PublicProfile, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchLength {
		return []models.PublicProfile{}, nil
	}
	return s.users.Search(ctx, userID, query, searchLimit)
}

// PendingClubs lists club accounts awaiting approval.
func (s *AccountService) PendingClubs(ctx context.Context, adminID int64) ([]models.PendingClub, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.users.ListPendingClubs(ctx)
}

// ApproveClub approves a club account.
func (s *AccountService) ApproveClub(ctx context.Context, adminID, clubID int64) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	if clubID <= 0 {
		return InvalidInput("Club ID required")
	}
	err := s.users.ApproveClub(ctx, clubID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (s *AccountService) requireAdmin(ctx context.Context, userID int64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return ErrAdminRequired
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user.AccountType != models.AccountAdmin {
		return ErrAdminRequired
	}
	return nil
}
