package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"checkbook/internal/core"
	"checkbook/internal/ledger"
)

// BalanceStore is the slice of the ledger balance computation reads.
type BalanceStore interface {
	ledger.AccountReader
	ledger.EntryReader
}

// BalanceService computes point-in-time balance snapshots. It only
// reads; snapshots are derived fresh on every call.
type BalanceService struct {
	store BalanceStore
}

func NewBalanceService(store BalanceStore) *BalanceService {
	return &BalanceService{store: store}
}

// ComputeBalance builds the user's balance picture as of the given day:
// the pooled cash net, each account's opening balance plus its check
// activity, and the overall total. Entries dated after asOf are
// invisible. The per-account sums run concurrently; results land in
// fixed slots so the output order matches the account listing and stays
// deterministic. Any storage error fails the whole computation, never a
// partial snapshot.
func (s *BalanceService) ComputeBalance(ctx context.Context, userID string, asOf core.Date) (core.BalanceSnapshot, error) {
	if strings.TrimSpace(userID) == "" {
		return core.BalanceSnapshot{}, core.ErrMissingUser
	}
	if err := asOf.Validate(); err != nil {
		return core.BalanceSnapshot{}, err
	}

	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return core.BalanceSnapshot{}, fmt.Errorf("list accounts: %w", err)
	}

	balances := make([]core.AccountBalance, len(accounts))
	var cashCents int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cents, err := s.store.SumCashCents(gctx, userID, asOf)
		if err != nil {
			return fmt.Errorf("sum cash entries: %w", err)
		}
		cashCents = cents
		return nil
	})
	for i, account := range accounts {
		i, account := i, account
		g.Go(func() error {
			cents, err := s.store.SumCheckCents(gctx, account.ID, asOf)
			if err != nil {
				return fmt.Errorf("sum account %d entries: %w", account.ID, err)
			}
			balance := account.OpeningBalance.Cents + cents
			balances[i] = core.AccountBalance{
				AccountID:    account.ID,
				Name:         account.Name,
				Balance:      core.Money{Cents: balance},
				IsLowBalance: balance < account.LowBalanceThreshold.Cents,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return core.BalanceSnapshot{}, err
	}

	overall := cashCents
	for _, b := range balances {
		overall += b.Balance.Cents
	}

	slog.DebugContext(ctx, "Computed balance snapshot",
		"user_id", userID,
		"as_of", asOf.String(),
		"accounts", len(accounts),
		"overall_cents", overall)

	return core.BalanceSnapshot{
		UserID:   userID,
		Date:     asOf,
		CashNet:  core.Money{Cents: cashCents},
		Accounts: balances,
		Overall:  core.Money{Cents: overall},
	}, nil
}
