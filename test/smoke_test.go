package test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"crashbot/internal/domain/enums"
	"crashbot/internal/domain/model"
	pgrepo "crashbot/internal/repo/postgres"
	"crashbot/internal/services/intake"
	"crashbot/internal/services/ledger"
	"crashbot/internal/services/payout"
	"crashbot/internal/services/review"
)

// memStore backs all services with maps so the full report lifecycle can
// run without postgres.
type memStore struct {
	users   map[int64]*model.UserProfile
	reports map[string]*model.Report
	nextID  int
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[int64]*model.UserProfile{},
		reports: map[string]*model.Report{},
	}
}

func (m *memStore) GetOrCreate(_ context.Context, tgID int64, username string) (model.UserProfile, bool, error) {
	if user, ok := m.users[tgID]; ok {
		return *user, false, nil
	}
	user := &model.UserProfile{
		TelegramUserID: tgID,
		Username:       username,
		CreatedAt:      time.Now().UTC(),
		Balance:        99,
	}
	m.users[tgID] = user
	return *user, true, nil
}

func (m *memStore) GetByID(_ context.Context, tgID int64) (model.UserProfile, error) {
	user, ok := m.users[tgID]
	if !ok {
		return model.UserProfile{}, pgrepo.ErrUserNotFound
	}
	return *user, nil
}

func (m *memStore) AdjustBalance(_ context.Context, tgID int64, delta int64) (int64, error) {
	user, ok := m.users[tgID]
	if !ok {
		return 0, pgrepo.ErrUserNotFound
	}
	user.Balance += delta
	return user.Balance, nil
}

func (m *memStore) DebitIfSufficient(_ context.Context, tgID int64, amount int64) (int64, error) {
	user, ok := m.users[tgID]
	if !ok {
		return 0, pgrepo.ErrUserNotFound
	}
	if user.Balance < amount {
		return 0, pgrepo.ErrInsufficientBalance
	}
	user.Balance -= amount
	return user.Balance, nil
}

func (m *memStore) IncrementReportCount(_ context.Context, tgID int64) error {
	user, ok := m.users[tgID]
	if !ok {
		return pgrepo.ErrUserNotFound
	}
	user.ReportCount++
	return nil
}

func (m *memStore) SetProfileFields(_ context.Context, tgID int64, fields model.ProfileFields) error {
	user, ok := m.users[tgID]
	if !ok {
		return pgrepo.ErrUserNotFound
	}
	if fields.Username != nil {
		user.Username = *fields.Username
	}
	if fields.CourierCompany != nil {
		user.CourierCompany = fields.CourierCompany
	}
	if fields.PaymentMethod != nil {
		user.PaymentMethod = fields.PaymentMethod
	}
	if fields.ReportCount != nil {
		user.ReportCount = *fields.ReportCount
	}
	return nil
}

func (m *memStore) Create(_ context.Context, report model.Report) (string, error) {
	m.nextID++
	report.ReportID = "report-" + strconv.Itoa(m.nextID)
	report.SubmittedAt = time.Now().UTC()
	m.reports[report.ReportID] = &report
	return report.ReportID, nil
}

func (m *memStore) CountRecent(_ context.Context, tgID int64, since time.Time) (int, error) {
	count := 0
	for _, report := range m.reports {
		if report.TelegramUserID == tgID && report.SubmittedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (m *memStore) GetByIDReport(_ context.Context, reportID string) (model.Report, error) {
	report, ok := m.reports[reportID]
	if !ok {
		return model.Report{}, pgrepo.ErrReportNotFound
	}
	return *report, nil
}

func (m *memStore) SetStatusIfPending(_ context.Context, reportID string, status enums.ReportStatus, reviewerID int64, rewardSent bool) error {
	report, ok := m.reports[reportID]
	if !ok {
		return pgrepo.ErrReportNotFound
	}
	if report.Status != enums.ReportStatusPending {
		return pgrepo.ErrReportNotPending
	}
	report.Status = status
	report.ReviewedBy = &reviewerID
	report.RewardSent = rewardSent
	return nil
}

// reportReader bridges the differing GetByID shapes for users and reports.
type reportReader struct {
	store *memStore
}

func (r reportReader) GetByID(ctx context.Context, reportID string) (model.Report, error) {
	return r.store.GetByIDReport(ctx, reportID)
}

func (r reportReader) SetStatusIfPending(ctx context.Context, reportID string, status enums.ReportStatus, reviewerID int64, rewardSent bool) error {
	return r.store.SetStatusIfPending(ctx, reportID, status, reviewerID, rewardSent)
}

type adminSet map[int64]bool

func (a adminSet) IsAdmin(tgID int64) bool { return a[tgID] }

func TestReportLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	admins := adminSet{1: true}

	ledgerSvc := ledger.NewService(store)
	intakeSvc := intake.NewService(store, store, intake.Limits{
		MaxDescriptionLength: 200,
		MinCrashTime:         0,
		MaxCrashTime:         60,
		MaxReportsPerDay:     3,
	}, nil)
	reviewSvc := review.NewService(reportReader{store: store}, ledgerSvc, admins, 100, nil)
	payoutSvc := payout.NewService(ledgerSvc, admins, nil)

	// New courier gets the signup balance.
	reply, err := intakeSvc.Start(ctx, 42, "courier")
	if err != nil {
		t.Fatalf("start intake: %v", err)
	}
	if !reply.Created || reply.Profile.Balance != 99 {
		t.Fatalf("expected fresh profile with balance 99, got %+v", reply.Profile)
	}

	// Full intake run.
	intakeSvc.HandleLocation(42, 35.19, 33.36)
	intakeSvc.HandlePhoto(42, "photo-1")
	if _, err := intakeSvc.HandleText(ctx, 42, "iki araba"); err != nil {
		t.Fatalf("description: %v", err)
	}
	if _, err := intakeSvc.HandleText(ctx, 42, "10"); err != nil {
		t.Fatalf("crash time: %v", err)
	}
	submitted, err := intakeSvc.HandleText(ctx, 42, "Raporu Gönder")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submitted.Kind != intake.ReplySubmitted || submitted.ReportID == "" {
		t.Fatalf("expected submitted reply with id, got %+v", submitted)
	}

	stored := store.reports[submitted.ReportID]
	if stored == nil || stored.Status != enums.ReportStatusPending {
		t.Fatalf("expected stored pending report, got %+v", stored)
	}
	if store.users[42].ReportCount != 1 {
		t.Fatalf("expected report count 1, got %d", store.users[42].ReportCount)
	}

	// Approval credits the reward exactly once.
	result, err := reviewSvc.Decide(ctx, 1, review.ActionApprove, submitted.ReportID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if result.Status != enums.ReportStatusVerified || !result.RewardCredited {
		t.Fatalf("expected verified with reward, got %+v", result)
	}
	if result.NewBalance != 199 {
		t.Fatalf("expected balance 199, got %d", result.NewBalance)
	}

	if _, err := reviewSvc.Decide(ctx, 1, review.ActionApprove, submitted.ReportID); !errors.Is(err, review.ErrAlreadyReviewed) {
		t.Fatalf("expected already reviewed, got %v", err)
	}
	if store.users[42].Balance != 199 {
		t.Fatalf("second approval must not credit again, got %d", store.users[42].Balance)
	}

	// Payout above the balance is refused with the amounts spelled out.
	_, err = payoutSvc.Pay(ctx, 1, 42, 600)
	var insufficient *payout.InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if insufficient.Current != 199 || insufficient.Requested != 600 {
		t.Fatalf("unexpected amounts: %+v", insufficient)
	}

	// Once the balance covers it, the payout goes through.
	if _, err := ledgerSvc.AdjustBalance(ctx, 42, 401); err != nil {
		t.Fatalf("top up: %v", err)
	}
	paid, err := payoutSvc.Pay(ctx, 1, 42, 500)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if paid.NewBalance != 100 {
		t.Fatalf("expected balance 100 after payout, got %d", paid.NewBalance)
	}
}

func TestRejectLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	admins := adminSet{1: true}

	ledgerSvc := ledger.NewService(store)
	intakeSvc := intake.NewService(store, store, intake.Limits{
		MaxDescriptionLength: 200,
		MaxCrashTime:         60,
	}, nil)
	reviewSvc := review.NewService(reportReader{store: store}, ledgerSvc, admins, 100, nil)

	if _, err := intakeSvc.Start(ctx, 43, "other"); err != nil {
		t.Fatalf("start intake: %v", err)
	}
	intakeSvc.HandleLocation(43, 1, 2)
	intakeSvc.HandlePhoto(43, "photo-2")
	if _, err := intakeSvc.HandleText(ctx, 43, "Atla"); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if _, err := intakeSvc.HandleText(ctx, 43, "0"); err != nil {
		t.Fatalf("crash time: %v", err)
	}
	submitted, err := intakeSvc.HandleText(ctx, 43, "submit")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	result, err := reviewSvc.Decide(ctx, 1, review.ActionReject, submitted.ReportID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if result.Status != enums.ReportStatusRejected || result.RewardCredited {
		t.Fatalf("expected plain rejection, got %+v", result)
	}
	if store.users[43].Balance != 99 {
		t.Fatalf("rejection must not change balance, got %d", store.users[43].Balance)
	}
	if store.reports[submitted.ReportID].RewardSent {
		t.Fatal("reward_sent must stay false on reject")
	}
}
