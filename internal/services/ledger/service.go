package ledger

import (
	"context"
	"errors"
	"fmt"

	"crashbot/internal/domain/model"
	pgrepo "crashbot/internal/repo/postgres"
)

var ErrUserNotFound = errors.New("user is not onboarded")

type UsersRepo interface {
	GetOrCreate(context.Context, int64, string) (model.UserProfile, bool, error)
	GetByID(context.Context, int64) (model.UserProfile, error)
	AdjustBalance(context.Context, int64, int64) (int64, error)
	DebitIfSufficient(context.Context, int64, int64) (int64, error)
	IncrementReportCount(context.Context, int64) error
	SetProfileFields(context.Context, int64, model.ProfileFields) error
}

type Service struct {
	repo UsersRepo
}

func NewService(repo UsersRepo) *Service {
	return &Service{repo: repo}
}

// GetOrCreate onboards on first contact. Repeated calls return the existing
// profile unchanged.
func (s *Service) GetOrCreate(ctx context.Context, tgID int64, username string) (model.UserProfile, bool, error) {
	if s.repo == nil {
		return model.UserProfile{}, false, fmt.Errorf("users repo is not configured")
	}
	if tgID == 0 {
		return model.UserProfile{}, false, fmt.Errorf("invalid telegram user id")
	}
	return s.repo.GetOrCreate(ctx, tgID, username)
}

func (s *Service) GetProfile(ctx context.Context, tgID int64) (model.UserProfile, error) {
	if s.repo == nil {
		return model.UserProfile{}, fmt.Errorf("users repo is not configured")
	}

	profile, err := s.repo.GetByID(ctx, tgID)
	if errors.Is(err, pgrepo.ErrUserNotFound) {
		return model.UserProfile{}, ErrUserNotFound
	}
	if err != nil {
		return model.UserProfile{}, err
	}
	return profile, nil
}

// AdjustBalance applies balance += delta and returns the new balance.
// Callers own any delta-vs-balance policy check; this operation only
// guarantees the arithmetic is atomic.
func (s *Service) AdjustBalance(ctx context.Context, tgID int64, delta int64) (int64, error) {
	if s.repo == nil {
		return 0, fmt.Errorf("users repo is not configured")
	}

	balance, err := s.repo.AdjustBalance(ctx, tgID, delta)
	if errors.Is(err, pgrepo.ErrUserNotFound) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Debit withdraws amount only while the balance covers it.
func (s *Service) Debit(ctx context.Context, tgID int64, amount int64) (int64, error) {
	if s.repo == nil {
		return 0, fmt.Errorf("users repo is not configured")
	}
	if amount <= 0 {
		return 0, fmt.Errorf("invalid debit amount %d", amount)
	}

	balance, err := s.repo.DebitIfSufficient(ctx, tgID, amount)
	if errors.Is(err, pgrepo.ErrUserNotFound) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *Service) IncrementReportCount(ctx context.Context, tgID int64) error {
	if s.repo == nil {
		return fmt.Errorf("users repo is not configured")
	}

	err := s.repo.IncrementReportCount(ctx, tgID)
	if errors.Is(err, pgrepo.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (s *Service) SetProfileFields(ctx context.Context, tgID int64, fields model.ProfileFields) error {
	if s.repo == nil {
		return fmt.Errorf("users repo is not configured")
	}

	err := s.repo.SetProfileFields(ctx, tgID, fields)
	if errors.Is(err, pgrepo.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}
