package request

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/featreq/feature-requestor/internal/notification"
)

var (
	ErrRequestNotFound   = errors.New("feature request not found")
	ErrAppNotFound       = errors.New("client app not found")
	ErrInvalidType       = errors.New("type must be UI/UX or backend")
	ErrInvalidCategory   = errors.New("category must be bug or enhancement")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrNotOwner          = errors.New("only the request creator can do this")
	ErrNotDeveloper      = errors.New("only an assigned developer can do this")
	ErrNotEditable       = errors.New("request can only be edited before work starts")
	ErrPayoutFailed      = errors.New("payout failed")
)

// AppSource resolves a client app to its owner and display name
type AppSource interface {
	App(ctx context.Context, appID int64) (ownerID int64, name string, err error)
}

// Notifier records a notification for a user and routes it by preference
type Notifier interface {
	Notify(ctx context.Context, userID int64, notificationType string, data map[string]string) error
}

// PayoutTrigger executes the payout for a confirmed request
type PayoutTrigger interface {
	Execute(ctx context.Context, requestID int64) error
}

type Service struct {
	repo     *Repository
	apps     AppSource
	notifier Notifier
	payouts  PayoutTrigger
	logger   *zap.Logger

	similarThreshold  float64
	similarMaxResults int
}

func NewService(repo *Repository, apps AppSource, notifier Notifier, payouts PayoutTrigger,
	similarThreshold float64, similarMaxResults int, logger *zap.Logger) *Service {
	return &Service{
		repo:              repo,
		apps:              apps,
		notifier:          notifier,
		payouts:           payouts,
		logger:            logger,
		similarThreshold:  similarThreshold,
		similarMaxResults: similarMaxResults,
	}
}

// Create stores a new feature request and notifies the app owner
func (s *Service) Create(ctx context.Context, createdByID int64, req *CreateRequestRequest) (*FeatureRequest, error) {
	if !ValidType(req.Type) {
		return nil, ErrInvalidType
	}
	if !ValidCategory(req.Category) {
		return nil, ErrInvalidCategory
	}

	ownerID, appName, err := s.apps.App(ctx, req.AppID)
	if err != nil {
		return nil, ErrAppNotFound
	}

	fr, err := s.repo.Create(ctx, req.AppID, createdByID, req.Title, req.Description, req.Type, req.Category)
	if err != nil {
		return nil, err
	}

	if ownerID != createdByID {
		s.notify(ctx, ownerID, notification.TypeNewRequest, map[string]string{
			"title":              fr.Title,
			"app_name":           appName,
			"feature_request_id": strconv.FormatInt(fr.ID, 10),
		})
	}

	return fr, nil
}

// Similar ranks existing requests for the same app against a draft
func (s *Service) Similar(ctx context.Context, appID int64, title, description string) ([]Match, error) {
	candidates, err := s.repo.ListByApp(ctx, appID)
	if err != nil {
		return nil, err
	}
	return RankSimilar(title, description, candidates, s.similarThreshold, s.similarMaxResults), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*FeatureRequest, error) {
	fr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if fr == nil {
		return nil, ErrRequestNotFound
	}
	return fr, nil
}

func (s *Service) List(ctx context.Context, appID *int64, status *string, page, perPage int) ([]*FeatureRequest, int, error) {
	if status != nil && !ValidStatus(*status) {
		return nil, 0, ErrInvalidStatus
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.repo.List(ctx, appID, status, perPage, (page-1)*perPage)
}

// Update edits a request's fields. Only the creator or an admin may edit,
// and only while the request is still open.
func (s *Service) Update(ctx context.Context, id, callerID int64, callerRole string, req *UpdateRequestRequest) (*FeatureRequest, error) {
	fr, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if fr.CreatedByID != callerID && callerRole != "admin" {
		return nil, ErrNotOwner
	}
	if !Open(fr.Status) {
		return nil, ErrNotEditable
	}
	if req.Type != nil && !ValidType(*req.Type) {
		return nil, ErrInvalidType
	}
	if req.Category != nil && !ValidCategory(*req.Category) {
		return nil, ErrInvalidCategory
	}

	updated, err := s.repo.Update(ctx, id, req.Title, req.Description, req.Type, req.Category)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrRequestNotFound
	}
	return updated, nil
}

// Delete removes a request. Only the creator or an admin, and only while no
// work has started.
func (s *Service) Delete(ctx context.Context, id, callerID int64, callerRole string) error {
	fr, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if fr.CreatedByID != callerID && callerRole != "admin" {
		return ErrNotOwner
	}
	if !Open(fr.Status) {
		return ErrNotEditable
	}
	return s.repo.Delete(ctx, id)
}

// UpdateStatus moves a request along its lifecycle. Developers drive the
// work statuses, the creator confirms or cancels, and confirmation runs the
// payout before the status is stored so a failed payout never leaves a
// confirmed but unpaid request.
func (s *Service) UpdateStatus(ctx context.Context, id, callerID int64, callerRole string, newStatus string) (*FeatureRequest, error) {
	if !ValidStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	fr, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(fr.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, fr.Status, newStatus)
	}

	if err := s.authorizeTransition(ctx, fr, callerID, callerRole, newStatus); err != nil {
		return nil, err
	}

	if newStatus == StatusConfirmed {
		if err := s.payouts.Execute(ctx, id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPayoutFailed, err)
		}
	}

	updated, err := s.repo.UpdateStatus(ctx, id, newStatus)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrRequestNotFound
	}

	s.notifyStatusChange(ctx, updated, fr.Status, callerID)
	return updated, nil
}

func (s *Service) authorizeTransition(ctx context.Context, fr *FeatureRequest, callerID int64, callerRole, newStatus string) error {
	if callerRole == "admin" {
		return nil
	}

	switch newStatus {
	case StatusInProgress, StatusCompleted:
		assigned, err := s.repo.IsDeveloper(ctx, fr.ID, callerID)
		if err != nil {
			return err
		}
		if !assigned {
			return ErrNotDeveloper
		}
	case StatusConfirmed, StatusCancelled:
		if fr.CreatedByID != callerID {
			return ErrNotOwner
		}
	}
	return nil
}

func (s *Service) notifyStatusChange(ctx context.Context, fr *FeatureRequest, oldStatus string, actorID int64) {
	data := map[string]string{
		"title":              fr.Title,
		"old_status":         oldStatus,
		"new_status":         fr.Status,
		"feature_request_id": strconv.FormatInt(fr.ID, 10),
	}
	if _, appName, err := s.apps.App(ctx, fr.AppID); err == nil {
		data["app_name"] = appName
	}

	if fr.CreatedByID != actorID {
		notificationType := notification.TypeStatusChange
		if fr.Status == StatusCompleted {
			notificationType = notification.TypeRequestCompleted
		}
		s.notify(ctx, fr.CreatedByID, notificationType, data)
	}

	developers, err := s.repo.ListDevelopers(ctx, fr.ID)
	if err != nil {
		s.logger.Warn("failed to list developers for status notification",
			zap.Int64("feature_request_id", fr.ID), zap.Error(err))
		return
	}
	for _, dev := range developers {
		if dev.ID == actorID || dev.ID == fr.CreatedByID {
			continue
		}
		s.notify(ctx, dev.ID, notification.TypeStatusChange, data)
	}
}

// AssignDeveloper adds a developer to a request. Developers may join open or
// in-progress requests themselves; the creator or an admin may add anyone.
func (s *Service) AssignDeveloper(ctx context.Context, requestID, developerID, callerID int64, callerRole string) error {
	fr, err := s.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if fr.Status != StatusRequested && fr.Status != StatusInProgress {
		return fmt.Errorf("%w: cannot join a %s request", ErrInvalidTransition, fr.Status)
	}
	if callerID != developerID && fr.CreatedByID != callerID && callerRole != "admin" {
		return ErrNotOwner
	}

	// The first developer on a request becomes its lead
	existing, err := s.repo.ListDevelopers(ctx, requestID)
	if err != nil {
		return err
	}
	if err := s.repo.AddDeveloper(ctx, requestID, developerID, len(existing) == 0); err != nil {
		return err
	}

	if callerID != developerID {
		s.notify(ctx, developerID, notification.TypeDeveloperAdded, map[string]string{
			"title":              fr.Title,
			"feature_request_id": strconv.FormatInt(fr.ID, 10),
		})
	}
	return nil
}

// SetProjectedDate lets an assigned developer or an admin record the expected
// delivery date. Once the request reaches a terminal status the date is fixed.
func (s *Service) SetProjectedDate(ctx context.Context, requestID, callerID int64, callerRole string, date time.Time) (*FeatureRequest, error) {
	fr, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if fr.Status == StatusConfirmed || fr.Status == StatusCancelled {
		return nil, ErrNotEditable
	}
	if callerRole != "admin" {
		assigned, err := s.repo.IsDeveloper(ctx, requestID, callerID)
		if err != nil {
			return nil, err
		}
		if !assigned {
			return nil, ErrNotDeveloper
		}
	}

	updated, err := s.repo.SetProjectedDate(ctx, requestID, date)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrRequestNotFound
	}
	return updated, nil
}

// RemoveDeveloper takes a developer off a request
func (s *Service) RemoveDeveloper(ctx context.Context, requestID, developerID, callerID int64, callerRole string) error {
	fr, err := s.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if callerID != developerID && fr.CreatedByID != callerID && callerRole != "admin" {
		return ErrNotOwner
	}

	if err := s.repo.RemoveDeveloper(ctx, requestID, developerID); err != nil {
		return err
	}

	if callerID != developerID {
		s.notify(ctx, developerID, notification.TypeDeveloperRemoved, map[string]string{
			"title":              fr.Title,
			"feature_request_id": strconv.FormatInt(fr.ID, 10),
		})
	}
	return nil
}

func (s *Service) ListDevelopers(ctx context.Context, requestID int64) ([]Developer, error) {
	return s.repo.ListDevelopers(ctx, requestID)
}

// notify records a notification and logs instead of failing the operation
func (s *Service) notify(ctx context.Context, userID int64, notificationType string, data map[string]string) {
	if err := s.notifier.Notify(ctx, userID, notificationType, data); err != nil {
		s.logger.Warn("failed to create notification",
			zap.Int64("user_id", userID),
			zap.String("type", notificationType),
			zap.Error(err))
	}
}
