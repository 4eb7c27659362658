package ledger

import (
	"context"

	"dbd/internal/providers"
)

// SettlementInterface receives sealed chain roots. The slow settlement
// layer is out of scope; the shipped implementation only records the
// handoff.
type SettlementInterface interface {
	SubmitRoot(ctx context.Context, tenant, chainRoot string) error
}

type LogSettlement struct {
	logger providers.Logger
}

func NewSettlement(logger providers.Logger) SettlementInterface {
	return &LogSettlement{logger: logger}
}

func (s *LogSettlement) SubmitRoot(_ context.Context, tenant, chainRoot string) error {
	s.logger.Infof(providers.TypeApp, "settlement root for %s: %s", tenant, chainRoot)
	return nil
}
