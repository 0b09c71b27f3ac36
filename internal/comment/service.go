package comment

import (
	"context"
	"errors"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/featreq/feature-requestor/internal/notification"
	"github.com/featreq/feature-requestor/internal/payout"
	"github.com/featreq/feature-requestor/internal/request"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotAuthor       = errors.New("only the comment author can do this")
	ErrInvalidBid      = errors.New("bid amount must be positive")
	ErrInvalidCurrency = errors.New("bid currency must be CAD, USD, or EUR")
	ErrBidsFrozen      = errors.New("bids are frozen once work has started")
	ErrRequestClosed   = errors.New("cannot comment on a cancelled request")
)

// RequestStore is the slice of the feature request layer comments depend on.
// Satisfied by the request repository.
type RequestStore interface {
	GetByID(ctx context.Context, id int64) (*request.FeatureRequest, error)
	ListDevelopers(ctx context.Context, requestID int64) ([]request.Developer, error)
	UpdateTotalBid(ctx context.Context, id int64, total decimal.Decimal) error
}

// UserSource resolves a user id to a display name for notification text
type UserSource interface {
	DisplayName(ctx context.Context, userID int64) (string, error)
}

// Notifier records a notification for a user and routes it by preference
type Notifier interface {
	Notify(ctx context.Context, userID int64, notificationType string, data map[string]string) error
}

type Service struct {
	repo              *Repository
	requests          RequestStore
	users             UserSource
	notifier          Notifier
	rates             payout.RateSource
	referenceCurrency string
	logger            *zap.Logger
}

func NewService(repo *Repository, requests RequestStore, users UserSource, notifier Notifier,
	rates payout.RateSource, referenceCurrency string, logger *zap.Logger) *Service {
	return &Service{
		repo:              repo,
		requests:          requests,
		users:             users,
		notifier:          notifier,
		rates:             rates,
		referenceCurrency: referenceCurrency,
		logger:            logger,
	}
}

// Create adds a comment, validating any bid up front: a bid with a bad
// amount or an unsupported currency never reaches the database, and bids are
// only accepted while the request is still open.
func (s *Service) Create(ctx context.Context, userID int64, req *CreateCommentRequest) (*Comment, error) {
	fr, err := s.requests.GetByID(ctx, req.FeatureRequestID)
	if err != nil {
		return nil, err
	}
	if fr == nil {
		return nil, request.ErrRequestNotFound
	}
	if fr.Status == request.StatusCancelled {
		return nil, ErrRequestClosed
	}

	var bidAmount *decimal.Decimal
	var bidCurrency *string
	if req.BidAmount != nil {
		amount, err := decimal.NewFromString(*req.BidAmount)
		if err != nil || !amount.IsPositive() {
			return nil, ErrInvalidBid
		}
		if req.BidCurrency == nil || !payout.SupportedCurrency(*req.BidCurrency) {
			return nil, ErrInvalidCurrency
		}
		if !request.Open(fr.Status) {
			return nil, ErrBidsFrozen
		}
		bidAmount = &amount
		bidCurrency = req.BidCurrency
	}

	c, err := s.repo.Create(ctx, req.FeatureRequestID, userID, req.Comment, bidAmount, bidCurrency)
	if err != nil {
		return nil, err
	}

	if c.HasBid() {
		if err := s.recomputeTotal(ctx, fr.ID); err != nil {
			s.logger.Warn("failed to recompute total bid amount",
				zap.Int64("feature_request_id", fr.ID), zap.Error(err))
		}
	}

	s.notifyComment(ctx, fr, c, userID)
	return c, nil
}

func (s *Service) ListByRequest(ctx context.Context, requestID int64) ([]*Comment, error) {
	return s.repo.ListByRequest(ctx, requestID)
}

// Update edits a comment's text or bid. Only the author may edit, and the
// bid part is immutable once the request has left the open status.
func (s *Service) Update(ctx context.Context, id, callerID int64, req *UpdateCommentRequest) (*Comment, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil || c.IsDeleted {
		return nil, ErrCommentNotFound
	}
	if c.UserID != callerID {
		return nil, ErrNotAuthor
	}

	var bidAmount *decimal.Decimal
	if req.BidAmount != nil || req.BidCurrency != nil {
		fr, err := s.requests.GetByID(ctx, c.FeatureRequestID)
		if err != nil {
			return nil, err
		}
		if fr == nil || !request.Open(fr.Status) {
			return nil, ErrBidsFrozen
		}
		if req.BidAmount != nil {
			amount, err := decimal.NewFromString(*req.BidAmount)
			if err != nil || !amount.IsPositive() {
				return nil, ErrInvalidBid
			}
			bidAmount = &amount
		}
		if req.BidCurrency != nil && !payout.SupportedCurrency(*req.BidCurrency) {
			return nil, ErrInvalidCurrency
		}
	}

	updated, err := s.repo.Update(ctx, id, req.Comment, bidAmount, req.BidCurrency)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrCommentNotFound
	}

	if bidAmount != nil || req.BidCurrency != nil {
		if err := s.recomputeTotal(ctx, updated.FeatureRequestID); err != nil {
			s.logger.Warn("failed to recompute total bid amount",
				zap.Int64("feature_request_id", updated.FeatureRequestID), zap.Error(err))
		}
	}
	return updated, nil
}

// Delete soft deletes a comment. A bid-carrying comment cannot be deleted
// after work starts; its money is already committed.
func (s *Service) Delete(ctx context.Context, id, callerID int64, callerRole string) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil || c.IsDeleted {
		return ErrCommentNotFound
	}
	if c.UserID != callerID && callerRole != "admin" {
		return ErrNotAuthor
	}

	if c.HasBid() {
		fr, err := s.requests.GetByID(ctx, c.FeatureRequestID)
		if err != nil {
			return err
		}
		if fr == nil || !request.Open(fr.Status) {
			return ErrBidsFrozen
		}
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	if c.HasBid() {
		if err := s.recomputeTotal(ctx, c.FeatureRequestID); err != nil {
			s.logger.Warn("failed to recompute total bid amount",
				zap.Int64("feature_request_id", c.FeatureRequestID), zap.Error(err))
		}
	}
	return nil
}

// RequestBids returns the live bids on a request for payout computation
func (s *Service) RequestBids(ctx context.Context, requestID int64) ([]payout.Bid, error) {
	return s.repo.ListBids(ctx, requestID)
}

// recomputeTotal re-sums a request's bids in the reference currency
func (s *Service) recomputeTotal(ctx context.Context, requestID int64) error {
	bids, err := s.repo.ListBids(ctx, requestID)
	if err != nil {
		return err
	}

	total := decimal.Zero
	for _, bid := range bids {
		converted, err := payout.Convert(bid.Amount, bid.Currency, s.referenceCurrency, s.rates)
		if err != nil {
			return err
		}
		total = total.Add(converted)
	}
	return s.requests.UpdateTotalBid(ctx, requestID, total.RoundBank(2))
}

// notifyComment tells the request creator and assigned developers about a
// new comment, skipping the commenter
func (s *Service) notifyComment(ctx context.Context, fr *request.FeatureRequest, c *Comment, commenterID int64) {
	name, err := s.users.DisplayName(ctx, commenterID)
	if err != nil {
		s.logger.Warn("failed to resolve commenter name", zap.Int64("user_id", commenterID), zap.Error(err))
		name = "Someone"
	}

	data := map[string]string{
		"commenter_name":     name,
		"title":              fr.Title,
		"feature_request_id": strconv.FormatInt(fr.ID, 10),
	}
	if c.HasBid() {
		data["bid_amount"] = c.BidAmount.StringFixed(2)
		data["bid_currency"] = *c.BidCurrency
	}

	recipients := map[int64]bool{fr.CreatedByID: true}
	developers, err := s.requests.ListDevelopers(ctx, fr.ID)
	if err != nil {
		s.logger.Warn("failed to list developers for comment notification",
			zap.Int64("feature_request_id", fr.ID), zap.Error(err))
	} else {
		for _, dev := range developers {
			recipients[dev.ID] = true
		}
	}
	delete(recipients, commenterID)

	for userID := range recipients {
		if err := s.notifier.Notify(ctx, userID, notification.TypeRequestComment, data); err != nil {
			s.logger.Warn("failed to create comment notification",
				zap.Int64("user_id", userID), zap.Error(err))
		}
	}
}
