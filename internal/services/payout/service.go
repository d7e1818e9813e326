package payout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"crashbot/internal/domain/model"
	pgrepo "crashbot/internal/repo/postgres"
	ledgersvc "crashbot/internal/services/ledger"
)

var (
	ErrUnauthorized  = errors.New("payout requires an admin")
	ErrInvalidAmount = errors.New("payout amount must be positive")
	ErrUserNotFound  = errors.New("payout target is not onboarded")
)

// InsufficientBalanceError carries the amounts so the caller can render a
// useful refusal instead of a bare "no".
type InsufficientBalanceError struct {
	TargetTGID int64
	Current    int64
	Requested  int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("user %d balance %d does not cover payout %d", e.TargetTGID, e.Current, e.Requested)
}

type Ledger interface {
	GetProfile(ctx context.Context, tgID int64) (model.UserProfile, error)
	Debit(ctx context.Context, tgID int64, amount int64) (int64, error)
}

type AdminChecker interface {
	IsAdmin(tgID int64) bool
}

type Result struct {
	TargetTGID int64
	Amount     int64
	NewBalance int64
}

type Service struct {
	ledger Ledger
	admins AdminChecker
	logger *slog.Logger
}

func NewService(ledger Ledger, admins AdminChecker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ledger: ledger, admins: admins, logger: logger}
}

// Pay debits amount from the target's balance. The pre-read is only for
// the error message; the debit itself is guarded, so a concurrent spend
// cannot push the balance negative.
func (s *Service) Pay(ctx context.Context, adminID, targetTGID, amount int64) (Result, error) {
	if !s.admins.IsAdmin(adminID) {
		return Result{}, fmt.Errorf("%w: %d", ErrUnauthorized, adminID)
	}
	if amount <= 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}

	profile, err := s.ledger.GetProfile(ctx, targetTGID)
	if err != nil {
		if errors.Is(err, ledgersvc.ErrUserNotFound) {
			return Result{}, ErrUserNotFound
		}
		return Result{}, fmt.Errorf("load payout target: %w", err)
	}
	if profile.Balance < amount {
		return Result{}, &InsufficientBalanceError{
			TargetTGID: targetTGID,
			Current:    profile.Balance,
			Requested:  amount,
		}
	}

	balance, err := s.ledger.Debit(ctx, targetTGID, amount)
	if err != nil {
		if errors.Is(err, pgrepo.ErrInsufficientBalance) {
			// Someone spent the balance between the read and the debit.
			current := profile.Balance
			if fresh, ferr := s.ledger.GetProfile(ctx, targetTGID); ferr == nil {
				current = fresh.Balance
			}
			return Result{}, &InsufficientBalanceError{
				TargetTGID: targetTGID,
				Current:    current,
				Requested:  amount,
			}
		}
		if errors.Is(err, ledgersvc.ErrUserNotFound) {
			return Result{}, ErrUserNotFound
		}
		return Result{}, fmt.Errorf("debit payout: %w", err)
	}

	s.logger.Info("payout completed",
		"admin_id", adminID,
		"target_id", targetTGID,
		"amount", amount,
		"balance", balance,
	)
	return Result{TargetTGID: targetTGID, Amount: amount, NewBalance: balance}, nil
}
