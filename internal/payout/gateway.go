package payout

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Gateway executes a payout instruction against a payment processor and
// returns the processor's transaction id.
type Gateway interface {
	Transfer(ctx context.Context, instruction Instruction) (string, error)
}

// LogGateway records instructions without moving money. Used until a real
// processor integration is configured.
type LogGateway struct {
	logger *zap.Logger
}

func NewLogGateway(logger *zap.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

func (g *LogGateway) Transfer(_ context.Context, instruction Instruction) (string, error) {
	txID := fmt.Sprintf("log-%d-%d-%d", instruction.FeatureRequestID, instruction.DeveloperID, time.Now().UnixNano())
	g.logger.Info("payout transfer",
		zap.Int64("feature_request_id", instruction.FeatureRequestID),
		zap.Int64("developer_id", instruction.DeveloperID),
		zap.String("amount", instruction.Amount.StringFixed(2)),
		zap.String("currency", instruction.Currency),
		zap.String("tx_id", txID),
	)
	return txID, nil
}
