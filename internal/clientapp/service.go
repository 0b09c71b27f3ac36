package clientapp

import (
	"context"
	"errors"
	"regexp"
)

// Common errors
var (
	ErrAppNotFound   = errors.New("app not found")
	ErrNameTaken     = errors.New("app name already taken")
	ErrInvalidName   = errors.New("app name must be a url-safe identifier")
	ErrNotOwner      = errors.New("only the app owner can modify this app")
)

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-_]{1,63}$`)

// Service handles app registry business logic
type Service struct {
	repo *Repository
}

// NewService creates a new app service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new app owned by the caller
func (s *Service) Create(ctx context.Context, ownerID int64, req *CreateAppRequest) (*App, error) {
	if !namePattern.MatchString(req.Name) {
		return nil, ErrInvalidName
	}

	existing, err := s.repo.GetByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrNameTaken
	}

	return s.repo.Create(ctx, ownerID, req)
}

// GetByID retrieves an app by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*App, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAppNotFound
	}
	return a, nil
}

// List retrieves all registered apps
func (s *Service) List(ctx context.Context) ([]*App, error) {
	return s.repo.List(ctx)
}

// Update modifies an app owned by the caller
func (s *Service) Update(ctx context.Context, id, callerID int64, req *UpdateAppRequest) (*App, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrAppNotFound
	}
	if existing.OwnerID != callerID {
		return nil, ErrNotOwner
	}

	return s.repo.Update(ctx, id, req)
}

// Delete removes an app owned by the caller
func (s *Service) Delete(ctx context.Context, id, callerID int64) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrAppNotFound
	}
	if existing.OwnerID != callerID {
		return ErrNotOwner
	}

	return s.repo.Delete(ctx, id)
}
