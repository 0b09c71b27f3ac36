package payout

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/featreq/feature-requestor/pkg/metrics"
)

var (
	ErrPayoutAlreadyRun = errors.New("payout already executed for this request")
	ErrRatioNotFound    = errors.New("payment ratio not found")
	ErrNotDeveloper     = errors.New("user is not a developer on this request")
	ErrInvalidWeight    = errors.New("invalid ratio weight")
)

// Developer is the slice of a user the split engine needs
type Developer struct {
	ID                int64
	PreferredCurrency string
}

// RequestSource exposes the request details the payout flow depends on
// without importing the request package.
type RequestSource interface {
	RequestTitle(ctx context.Context, requestID int64) (string, error)
	RequestDevelopers(ctx context.Context, requestID int64) ([]Developer, error)
}

// BidSource returns the bids pledged on a request
type BidSource interface {
	RequestBids(ctx context.Context, requestID int64) ([]Bid, error)
}

// Notifier lets the payout flow tell developers they were paid
type Notifier interface {
	PaymentReceived(ctx context.Context, developerID int64, amount, currency, title string) error
}

// Store is the persistence surface the payout service works against
type Store interface {
	ListRatios(ctx context.Context, requestID int64) ([]PaymentRatio, error)
	UpsertRatio(ctx context.Context, requestID, developerID int64, weight decimal.Decimal) (*PaymentRatio, error)
	AcceptRatio(ctx context.Context, requestID, developerID int64) (*PaymentRatio, error)
	DeleteRatio(ctx context.Context, requestID, developerID int64) error
	CreateRatioMessage(ctx context.Context, requestID, senderID int64, message string) (*RatioMessage, error)
	ListRatioMessages(ctx context.Context, requestID int64) ([]RatioMessage, error)
	CreateTransaction(ctx context.Context, t *Transaction) (*Transaction, error)
	ListTransactionsByUser(ctx context.Context, userID int64) ([]Transaction, error)
	ListTransactionsByRequest(ctx context.Context, requestID int64) ([]Transaction, error)
}

type Service struct {
	repo              Store
	requests          RequestSource
	bids              BidSource
	notifier          Notifier
	guard             ConfirmGuard
	gateway           Gateway
	rates             RateSource
	referenceCurrency string
	logger            *zap.Logger
}

func NewService(repo Store, requests RequestSource, bids BidSource, notifier Notifier,
	guard ConfirmGuard, gateway Gateway, rates RateSource, referenceCurrency string, logger *zap.Logger) *Service {
	return &Service{
		repo:              repo,
		requests:          requests,
		bids:              bids,
		notifier:          notifier,
		guard:             guard,
		gateway:           gateway,
		rates:             rates,
		referenceCurrency: referenceCurrency,
		logger:            logger,
	}
}

// Execute runs the payout for a confirmed request exactly once. A second
// call, concurrent or later, gets ErrPayoutAlreadyRun. The guard is released
// when computation fails before any money moves, so a fixed configuration
// can be retried.
func (s *Service) Execute(ctx context.Context, requestID int64) error {
	acquired, err := s.guard.Acquire(ctx, requestID)
	if err != nil {
		return err
	}
	if !acquired {
		metrics.PayoutsComputed.WithLabelValues("duplicate").Inc()
		return ErrPayoutAlreadyRun
	}

	instructions, bids, err := s.computeInstructions(ctx, requestID)
	if err != nil {
		if releaseErr := s.guard.Release(ctx, requestID); releaseErr != nil {
			s.logger.Error("failed to release payout guard", zap.Int64("feature_request_id", requestID), zap.Error(releaseErr))
		}
		switch {
		case errors.Is(err, ErrZeroTotalWeight):
			metrics.PayoutsComputed.WithLabelValues("config_error").Inc()
		case errors.Is(err, ErrRateUnavailable):
			metrics.PayoutsComputed.WithLabelValues("rate_error").Inc()
		}
		return err
	}

	title, err := s.requests.RequestTitle(ctx, requestID)
	if err != nil {
		s.logger.Warn("failed to load request title for payout notifications", zap.Int64("feature_request_id", requestID), zap.Error(err))
	}

	var transferErrs []error
	transferred := false
	for _, instruction := range instructions {
		if instruction.Amount.IsZero() {
			continue
		}
		txID, err := s.gateway.Transfer(ctx, instruction)
		if err != nil {
			s.logger.Error("payout transfer failed",
				zap.Int64("feature_request_id", requestID),
				zap.Int64("developer_id", instruction.DeveloperID),
				zap.Error(err))
			transferErrs = append(transferErrs, fmt.Errorf("transfer to developer %d: %w", instruction.DeveloperID, err))
			continue
		}
		transferred = true

		_, err = s.repo.CreateTransaction(ctx, &Transaction{
			UserID:           instruction.DeveloperID,
			Type:             "payout",
			Amount:           instruction.Amount,
			Currency:         instruction.Currency,
			FeatureRequestID: requestID,
			ProcessorTxID:    &txID,
			Direction:        DirectionPaid,
		})
		if err != nil {
			transferErrs = append(transferErrs, err)
			continue
		}

		amount, _ := instruction.Amount.Float64()
		metrics.PayoutAmount.WithLabelValues(instruction.Currency).Observe(amount)

		if err := s.notifier.PaymentReceived(ctx, instruction.DeveloperID,
			instruction.Amount.StringFixed(2), instruction.Currency, title); err != nil {
			s.logger.Warn("failed to notify developer of payment",
				zap.Int64("developer_id", instruction.DeveloperID), zap.Error(err))
		}
	}

	// Bidders are charged in their original currencies, but only once
	// money has actually moved. A payout whose transfers all failed
	// leaves no charge rows behind.
	if transferred {
		for _, bid := range bids {
			_, err := s.repo.CreateTransaction(ctx, &Transaction{
				UserID:           bid.PayerID,
				Type:             "payout",
				Amount:           bid.Amount,
				Currency:         bid.Currency,
				FeatureRequestID: requestID,
				Direction:        DirectionCharged,
			})
			if err != nil {
				s.logger.Error("failed to record charge transaction",
					zap.Int64("user_id", bid.PayerID), zap.Error(err))
			}
		}
	}

	if len(transferErrs) > 0 {
		// Guard stays held: some transfers may have gone through and a
		// blind re-run would double pay. Recovery goes through Retrigger.
		return errors.Join(transferErrs...)
	}
	metrics.PayoutsComputed.WithLabelValues("success").Inc()
	return nil
}

// Retrigger forces a fresh payout run for a request. Admin-only; the caller
// is responsible for checking the processor side before re-running.
func (s *Service) Retrigger(ctx context.Context, requestID int64) error {
	if err := s.guard.Release(ctx, requestID); err != nil {
		return err
	}
	return s.Execute(ctx, requestID)
}

func (s *Service) computeInstructions(ctx context.Context, requestID int64) ([]Instruction, []Bid, error) {
	bids, err := s.bids.RequestBids(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	developers, err := s.requests.RequestDevelopers(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if len(bids) == 0 || len(developers) == 0 {
		return nil, nil, nil
	}

	ratios, err := s.repo.ListRatios(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	weights := make(map[int64]decimal.Decimal)
	for _, ratio := range ratios {
		if ratio.IsAccepted {
			weights[ratio.DeveloperID] = ratio.Weight
		}
	}

	shares := make([]Share, 0, len(developers))
	for _, dev := range developers {
		weight, ok := weights[dev.ID]
		if !ok {
			if len(developers) == 1 {
				// A lone developer needs no explicit ratio record
				weight = decimal.NewFromInt(1)
			} else {
				weight = decimal.Zero
			}
		}
		shares = append(shares, Share{
			DeveloperID: dev.ID,
			Weight:      weight,
			Currency:    dev.PreferredCurrency,
		})
	}

	instructions, err := ComputeInstructions(requestID, bids, shares, s.referenceCurrency, s.rates)
	if err != nil {
		return nil, nil, err
	}
	return instructions, bids, nil
}

// SetRatios replaces the full weight allocation for a request. Only a
// developer assigned to the request or an admin may rebalance, and every
// weight must belong to an assigned developer.
func (s *Service) SetRatios(ctx context.Context, requestID, callerID int64, callerRole string, inputs []RatioInput) ([]PaymentRatio, error) {
	developers, err := s.requests.RequestDevelopers(ctx, requestID)
	if err != nil {
		return nil, err
	}
	assigned := make(map[int64]bool, len(developers))
	for _, dev := range developers {
		assigned[dev.ID] = true
	}
	if callerRole != "admin" && !assigned[callerID] {
		return nil, ErrNotDeveloper
	}

	for _, input := range inputs {
		if !assigned[input.DeveloperID] {
			return nil, fmt.Errorf("%w: developer %d", ErrNotDeveloper, input.DeveloperID)
		}
		weight, err := decimal.NewFromString(input.Weight)
		if err != nil || weight.IsNegative() {
			return nil, ErrInvalidWeight
		}
		if _, err := s.repo.UpsertRatio(ctx, requestID, input.DeveloperID, weight); err != nil {
			return nil, err
		}
	}

	// Ratio rows for developers no longer in the allocation are removed
	keep := make(map[int64]bool, len(inputs))
	for _, input := range inputs {
		keep[input.DeveloperID] = true
	}
	existing, err := s.repo.ListRatios(ctx, requestID)
	if err != nil {
		return nil, err
	}
	for _, ratio := range existing {
		if !keep[ratio.DeveloperID] {
			if err := s.repo.DeleteRatio(ctx, requestID, ratio.DeveloperID); err != nil {
				return nil, err
			}
		}
	}

	return s.repo.ListRatios(ctx, requestID)
}

func (s *Service) ListRatios(ctx context.Context, requestID int64) ([]PaymentRatio, error) {
	return s.repo.ListRatios(ctx, requestID)
}

// AcceptRatio records the caller's agreement to their own current weight
func (s *Service) AcceptRatio(ctx context.Context, requestID, developerID int64) (*PaymentRatio, error) {
	ratio, err := s.repo.AcceptRatio(ctx, requestID, developerID)
	if err != nil {
		return nil, err
	}
	if ratio == nil {
		return nil, ErrRatioNotFound
	}
	return ratio, nil
}

func (s *Service) AddRatioMessage(ctx context.Context, requestID, senderID int64, message string) (*RatioMessage, error) {
	developers, err := s.requests.RequestDevelopers(ctx, requestID)
	if err != nil {
		return nil, err
	}
	isDeveloper := false
	for _, dev := range developers {
		if dev.ID == senderID {
			isDeveloper = true
			break
		}
	}
	if !isDeveloper {
		return nil, ErrNotDeveloper
	}
	return s.repo.CreateRatioMessage(ctx, requestID, senderID, message)
}

func (s *Service) ListRatioMessages(ctx context.Context, requestID int64) ([]RatioMessage, error) {
	return s.repo.ListRatioMessages(ctx, requestID)
}

func (s *Service) ListMyTransactions(ctx context.Context, userID int64) ([]Transaction, error) {
	return s.repo.ListTransactionsByUser(ctx, userID)
}

func (s *Service) ListRequestTransactions(ctx context.Context, requestID int64) ([]Transaction, error) {
	return s.repo.ListTransactionsByRequest(ctx, requestID)
}
