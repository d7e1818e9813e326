package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"crashbot/internal/domain/enums"
	"crashbot/internal/domain/model"
	pgrepo "crashbot/internal/repo/postgres"
)

var (
	ErrUnauthorized    = errors.New("reviewer is not an admin")
	ErrReportNotFound  = errors.New("report not found")
	ErrAlreadyReviewed = errors.New("report already reviewed")
	ErrUnknownAction   = errors.New("unknown review action")
)

// Action is the reviewer's verdict carried in the callback payload.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ParseAction splits a callback payload of the form "approve_<id>" or
// "reject_<id>". The id may itself contain underscores, so only the first
// one separates the action.
func ParseAction(payload string) (Action, string, error) {
	action, reportID, ok := strings.Cut(payload, "_")
	if !ok || reportID == "" {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownAction, payload)
	}
	switch Action(action) {
	case ActionApprove, ActionReject:
		return Action(action), reportID, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

type ReportsStore interface {
	GetByID(ctx context.Context, reportID string) (model.Report, error)
	SetStatusIfPending(ctx context.Context, reportID string, status enums.ReportStatus, reviewerID int64, rewardSent bool) error
}

type Ledger interface {
	AdjustBalance(ctx context.Context, tgID int64, delta int64) (int64, error)
}

type AdminChecker interface {
	IsAdmin(tgID int64) bool
}

type DecideResult struct {
	ReportID       string
	SubmitterID    int64
	Status         enums.ReportStatus
	RewardCredited bool
	RewardAmount   int64
	NewBalance     int64
}

// Service applies admin verdicts. The status flip is a conditional update,
// so two admins tapping the same report resolve to one winner and one
// ErrAlreadyReviewed.
type Service struct {
	reports ReportsStore
	ledger  Ledger
	admins  AdminChecker
	reward  int64
	logger  *slog.Logger
}

func NewService(reports ReportsStore, ledger Ledger, admins AdminChecker, reward int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		reports: reports,
		ledger:  ledger,
		admins:  admins,
		reward:  reward,
		logger:  logger,
	}
}

func (s *Service) Decide(ctx context.Context, reviewerID int64, action Action, reportID string) (DecideResult, error) {
	if !s.admins.IsAdmin(reviewerID) {
		return DecideResult{}, fmt.Errorf("%w: %d", ErrUnauthorized, reviewerID)
	}

	var target enums.ReportStatus
	switch action {
	case ActionApprove:
		target = enums.ReportStatusVerified
	case ActionReject:
		target = enums.ReportStatusRejected
	default:
		return DecideResult{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrReportNotFound) {
			return DecideResult{}, ErrReportNotFound
		}
		return DecideResult{}, fmt.Errorf("load report: %w", err)
	}
	if report.Status != enums.ReportStatusPending {
		return DecideResult{Status: report.Status}, ErrAlreadyReviewed
	}

	rewardSent := action == ActionApprove
	err = s.reports.SetStatusIfPending(ctx, reportID, target, reviewerID, rewardSent)
	if err != nil {
		if errors.Is(err, pgrepo.ErrReportNotPending) {
			return DecideResult{}, ErrAlreadyReviewed
		}
		if errors.Is(err, pgrepo.ErrReportNotFound) {
			return DecideResult{}, ErrReportNotFound
		}
		return DecideResult{}, fmt.Errorf("set report status: %w", err)
	}

	result := DecideResult{
		ReportID:    reportID,
		SubmitterID: report.TelegramUserID,
		Status:      target,
	}

	if rewardSent {
		balance, err := s.ledger.AdjustBalance(ctx, report.TelegramUserID, s.reward)
		if err != nil {
			// The status already flipped; surface the credit failure
			// instead of pretending the approval half-happened silently.
			return result, fmt.Errorf("credit reward for report %s: %w", reportID, err)
		}
		result.RewardCredited = true
		result.RewardAmount = s.reward
		result.NewBalance = balance
	}

	s.logger.Info("report reviewed",
		"report_id", reportID,
		"reviewer_id", reviewerID,
		"status", string(target),
		"reward_credited", result.RewardCredited,
	)
	return result, nil
}
