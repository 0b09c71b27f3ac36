package user

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/featreq/feature-requestor/pkg/mailer"
	"github.com/featreq/feature-requestor/pkg/middleware"
)

// Common errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyInUse  = errors.New("email already in use")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidToken       = errors.New("invalid or expired verification token")
)

const verifyEmailText = `Hi {name},

Welcome to Feature Requestor. Please confirm your email address:

{link}

If you did not sign up, you can ignore this email.`

const verifyEmailHTML = `<p>Hi {name},</p>
<p>Welcome to Feature Requestor. Please confirm your email address:</p>
<p><a href="{link}">Confirm Email</a></p>
<p>If you did not sign up, you can ignore this email.</p>`

// Service handles user business logic
type Service struct {
	repo      *Repository
	jwtSecret string
	mail      mailer.Mailer
	baseURL   string
	logger    *zap.Logger
}

// NewService creates a new user service with repository dependency injected
func NewService(repo *Repository, jwtSecret string, mail mailer.Mailer, baseURL string, logger *zap.Logger) *Service {
	return &Service{repo: repo, jwtSecret: jwtSecret, mail: mail, baseURL: baseURL, logger: logger}
}

// Signup creates a new user account with a hashed password and sends a
// verification email. A failed send never fails the signup.
func (s *Service) Signup(ctx context.Context, req *SignupRequest) (*User, error) {
	if req.Role != RoleRequester && req.Role != RoleDev {
		return nil, ErrInvalidRole
	}

	existing, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyInUse
	}

	existing, err = s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.Create(ctx, req.Username, req.Name, req.Email, string(hash), req.Role)
	if err != nil {
		return nil, err
	}

	if err := s.sendVerificationEmail(u); err != nil {
		s.logger.Warn("failed to send verification email", zap.Int64("user_id", u.ID), zap.Error(err))
	}

	return u, nil
}

func (s *Service) sendVerificationEmail(u *User) error {
	token, err := middleware.GenerateToken(u.ID, u.Role, s.jwtSecret)
	if err != nil {
		return err
	}

	vars := map[string]string{
		"name": u.Name,
		"link": mailer.AbsoluteLink(s.baseURL, "/api/v1/auth/verify?token="+token),
	}
	return s.mail.Send(&mailer.Email{
		To:       u.Email,
		Subject:  "Feature Requestor: Confirm your email",
		TextBody: mailer.Substitute(verifyEmailText, vars),
		HTMLBody: mailer.Substitute(verifyEmailHTML, vars),
	})
}

// VerifyEmail confirms the address from a verification token
func (s *Service) VerifyEmail(ctx context.Context, tokenString string) error {
	claims, err := middleware.ParseToken(tokenString, s.jwtSecret)
	if err != nil {
		return ErrInvalidToken
	}
	return s.repo.SetEmailVerified(ctx, claims.UserID)
}

// Login verifies credentials and issues a JWT
func (s *Service) Login(ctx context.Context, req *LoginRequest) (string, *User, error) {
	u, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return "", nil, err
	}
	if u == nil {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := middleware.GenerateToken(u.ID, u.Role, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	return token, u, nil
}

// GetByID retrieves a user by their ID
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// List retrieves all users with pagination
func (s *Service) List(ctx context.Context, page, perPage int) ([]*User, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.List(ctx, perPage, offset)
}

// Update modifies an existing user's profile
func (s *Service) Update(ctx context.Context, id int64, req *UpdateUserRequest) (*User, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrUserNotFound
	}

	return s.repo.Update(ctx, id, req)
}

// LinkPaymentAccount stores the user's payment processor account
func (s *Service) LinkPaymentAccount(ctx context.Context, id int64, accountID string) (*User, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	status := "active"
	if err := s.repo.SetPaymentAccount(ctx, id, &accountID, &status); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}
