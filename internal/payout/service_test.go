package payout

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	ratios       []PaymentRatio
	transactions []Transaction
}

func (f *fakeStore) ListRatios(_ context.Context, _ int64) ([]PaymentRatio, error) {
	return f.ratios, nil
}

func (f *fakeStore) UpsertRatio(_ context.Context, requestID, developerID int64, weight decimal.Decimal) (*PaymentRatio, error) {
	return &PaymentRatio{FeatureRequestID: requestID, DeveloperID: developerID, Weight: weight}, nil
}

func (f *fakeStore) AcceptRatio(_ context.Context, _, _ int64) (*PaymentRatio, error) {
	return nil, nil
}

func (f *fakeStore) DeleteRatio(_ context.Context, _, _ int64) error { return nil }

func (f *fakeStore) CreateRatioMessage(_ context.Context, _, _ int64, _ string) (*RatioMessage, error) {
	return nil, nil
}

func (f *fakeStore) ListRatioMessages(_ context.Context, _ int64) ([]RatioMessage, error) {
	return nil, nil
}

func (f *fakeStore) CreateTransaction(_ context.Context, t *Transaction) (*Transaction, error) {
	t.ID = int64(len(f.transactions) + 1)
	f.transactions = append(f.transactions, *t)
	return t, nil
}

func (f *fakeStore) ListTransactionsByUser(_ context.Context, _ int64) ([]Transaction, error) {
	return f.transactions, nil
}

func (f *fakeStore) ListTransactionsByRequest(_ context.Context, _ int64) ([]Transaction, error) {
	return f.transactions, nil
}

func (f *fakeStore) byDirection(direction string) []Transaction {
	var out []Transaction
	for _, t := range f.transactions {
		if t.Direction == direction {
			out = append(out, t)
		}
	}
	return out
}

type fakeRequestSource struct {
	developers []Developer
}

func (f *fakeRequestSource) RequestTitle(_ context.Context, _ int64) (string, error) {
	return "Dark mode", nil
}

func (f *fakeRequestSource) RequestDevelopers(_ context.Context, _ int64) ([]Developer, error) {
	return f.developers, nil
}

type fakeBidSource struct {
	bids []Bid
}

func (f *fakeBidSource) RequestBids(_ context.Context, _ int64) ([]Bid, error) {
	return f.bids, nil
}

type fakePaymentNotifier struct {
	paid []int64
}

func (f *fakePaymentNotifier) PaymentReceived(_ context.Context, developerID int64, _, _, _ string) error {
	f.paid = append(f.paid, developerID)
	return nil
}

type fakeGuard struct {
	acquireOK bool
	released  int
}

func (f *fakeGuard) Acquire(_ context.Context, _ int64) (bool, error) { return f.acquireOK, nil }

func (f *fakeGuard) Release(_ context.Context, _ int64) error {
	f.released++
	return nil
}

type fakeGateway struct {
	fail      bool
	transfers []Instruction
}

func (f *fakeGateway) Transfer(_ context.Context, instruction Instruction) (string, error) {
	if f.fail {
		return "", errors.New("processor unavailable")
	}
	f.transfers = append(f.transfers, instruction)
	return "tx-1", nil
}

func acceptedRatio(requestID, developerID int64, weight string) PaymentRatio {
	w, _ := decimal.NewFromString(weight)
	return PaymentRatio{FeatureRequestID: requestID, DeveloperID: developerID, Weight: w, IsAccepted: true}
}

func newExecuteFixture(store *fakeStore, guard *fakeGuard, gateway *fakeGateway) (*Service, *fakePaymentNotifier) {
	requests := &fakeRequestSource{developers: []Developer{
		{ID: 1, PreferredCurrency: "CAD"},
		{ID: 2, PreferredCurrency: "CAD"},
	}}
	bids := &fakeBidSource{bids: []Bid{
		{PayerID: 7, Amount: decimal.RequireFromString("100.00"), Currency: "CAD"},
	}}
	notifier := &fakePaymentNotifier{}
	svc := NewService(store, requests, bids, notifier, guard, gateway, NewStaticRates(), "CAD", zap.NewNop())
	return svc, notifier
}

func TestExecuteRecordsChargeAndPayoutRows(t *testing.T) {
	store := &fakeStore{ratios: []PaymentRatio{
		acceptedRatio(1, 1, "2"),
		acceptedRatio(1, 2, "1"),
	}}
	guard := &fakeGuard{acquireOK: true}
	gateway := &fakeGateway{}
	svc, notifier := newExecuteFixture(store, guard, gateway)

	require.NoError(t, svc.Execute(context.Background(), 1))

	paid := store.byDirection(DirectionPaid)
	require.Len(t, paid, 2)
	assert.Equal(t, "66.67", paid[0].Amount.StringFixed(2))
	assert.Equal(t, "33.33", paid[1].Amount.StringFixed(2))

	charged := store.byDirection(DirectionCharged)
	require.Len(t, charged, 1)
	assert.Equal(t, int64(7), charged[0].UserID)
	assert.Equal(t, "100.00", charged[0].Amount.StringFixed(2))
	assert.Equal(t, "CAD", charged[0].Currency)

	assert.ElementsMatch(t, []int64{1, 2}, notifier.paid)
	assert.Zero(t, guard.released)
}

func TestExecuteLeavesNoChargesWhenAllTransfersFail(t *testing.T) {
	store := &fakeStore{ratios: []PaymentRatio{
		acceptedRatio(1, 1, "2"),
		acceptedRatio(1, 2, "1"),
	}}
	guard := &fakeGuard{acquireOK: true}
	gateway := &fakeGateway{fail: true}
	svc, notifier := newExecuteFixture(store, guard, gateway)

	err := svc.Execute(context.Background(), 1)
	require.Error(t, err)

	// Nothing moved, so nobody shows a charge in their history
	assert.Empty(t, store.transactions)
	assert.Empty(t, notifier.paid)

	// The guard stays held so a blind re-run cannot double pay
	assert.Zero(t, guard.released)
}

func TestExecuteSecondRunRejected(t *testing.T) {
	store := &fakeStore{}
	guard := &fakeGuard{acquireOK: false}
	svc, _ := newExecuteFixture(store, guard, &fakeGateway{})

	err := svc.Execute(context.Background(), 1)
	assert.ErrorIs(t, err, ErrPayoutAlreadyRun)
	assert.Empty(t, store.transactions)
}

func TestExecuteReleasesGuardOnConfigError(t *testing.T) {
	// Two developers, no accepted weights: total weight is zero
	store := &fakeStore{}
	guard := &fakeGuard{acquireOK: true}
	svc, _ := newExecuteFixture(store, guard, &fakeGateway{})

	err := svc.Execute(context.Background(), 1)
	assert.ErrorIs(t, err, ErrZeroTotalWeight)
	assert.Equal(t, 1, guard.released)
	assert.Empty(t, store.transactions)
}
