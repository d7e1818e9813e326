package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"crashbot/internal/domain/model"
)

var ErrUserNotFound = errors.New("user not found")
var ErrInsufficientBalance = errors.New("insufficient balance")

type UsersRepo struct {
	db             *sql.DB
	initialBalance int64
}

func NewUsersRepo(db *sql.DB, initialBalance int64) *UsersRepo {
	return &UsersRepo{db: db, initialBalance: initialBalance}
}

// GetOrCreate onboards the user on first contact, seeding the starting
// balance and a zero report count. Returns created=true only when the row
// was inserted by this call.
func (r *UsersRepo) GetOrCreate(ctx context.Context, tgID int64, username string) (model.UserProfile, bool, error) {
	if r.db == nil {
		return model.UserProfile{
			TelegramUserID: tgID,
			Username:       username,
			CreatedAt:      time.Now().UTC(),
			Balance:        r.initialBalance,
		}, true, nil
	}

	var user model.UserProfile
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (telegram_user_id, username, created_at, report_count, balance)
		VALUES ($1, $2, $3, 0, $4)
		ON CONFLICT (telegram_user_id) DO NOTHING
		RETURNING telegram_user_id, COALESCE(username, ''), created_at, courier_company, payment_method, report_count, balance
	`, tgID, nullableString(username), time.Now().UTC(), r.initialBalance).Scan(
		&user.TelegramUserID,
		&user.Username,
		&user.CreatedAt,
		&user.CourierCompany,
		&user.PaymentMethod,
		&user.ReportCount,
		&user.Balance,
	)
	if err == nil {
		return user, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.UserProfile{}, false, fmt.Errorf("insert user: %w", err)
	}

	user, err = r.GetByID(ctx, tgID)
	if err != nil {
		return model.UserProfile{}, false, err
	}
	return user, false, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, tgID int64) (model.UserProfile, error) {
	if r.db == nil {
		return model.UserProfile{}, ErrUserNotFound
	}

	var user model.UserProfile
	err := r.db.QueryRowContext(ctx, `
		SELECT telegram_user_id, COALESCE(username, ''), created_at, courier_company, payment_method, report_count, balance
		FROM users
		WHERE telegram_user_id = $1
	`, tgID).Scan(
		&user.TelegramUserID,
		&user.Username,
		&user.CreatedAt,
		&user.CourierCompany,
		&user.PaymentMethod,
		&user.ReportCount,
		&user.Balance,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.UserProfile{}, ErrUserNotFound
		}
		return model.UserProfile{}, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

// AdjustBalance applies balance += delta in a single statement so concurrent
// adjustments never lose an update.
func (r *UsersRepo) AdjustBalance(ctx context.Context, tgID int64, delta int64) (int64, error) {
	if r.db == nil {
		return 0, ErrUserNotFound
	}

	var balance int64
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET balance = balance + $2
		WHERE telegram_user_id = $1
		RETURNING balance
	`, tgID, delta).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("adjust balance: %w", err)
	}

	return balance, nil
}

// DebitIfSufficient withdraws amount only while the balance covers it. The
// guard clause makes the check-and-debit a single atomic statement.
func (r *UsersRepo) DebitIfSufficient(ctx context.Context, tgID int64, amount int64) (int64, error) {
	if r.db == nil {
		return 0, ErrUserNotFound
	}
	if amount <= 0 {
		return 0, fmt.Errorf("invalid debit amount %d", amount)
	}

	var balance int64
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET balance = balance - $2
		WHERE telegram_user_id = $1
		  AND balance >= $2
		RETURNING balance
	`, tgID, amount).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("debit balance: %w", err)
	}

	var exists bool
	if existsErr := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE telegram_user_id = $1)
	`, tgID).Scan(&exists); existsErr != nil {
		return 0, fmt.Errorf("check user existence: %w", existsErr)
	}
	if !exists {
		return 0, ErrUserNotFound
	}
	return 0, ErrInsufficientBalance
}

func (r *UsersRepo) IncrementReportCount(ctx context.Context, tgID int64) error {
	if r.db == nil {
		return nil
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET report_count = report_count + 1
		WHERE telegram_user_id = $1
	`, tgID)
	if err != nil {
		return fmt.Errorf("increment report count: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for report count: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// SetProfileFields merges the non-nil fields into the profile row.
func (r *UsersRepo) SetProfileFields(ctx context.Context, tgID int64, fields model.ProfileFields) error {
	if r.db == nil {
		return nil
	}

	assignments := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	args = append(args, tgID)

	appendAssignment := func(column string, value interface{}) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if fields.Username != nil {
		appendAssignment("username", nullableString(*fields.Username))
	}
	if fields.CourierCompany != nil {
		appendAssignment("courier_company", nullableString(*fields.CourierCompany))
	}
	if fields.PaymentMethod != nil {
		appendAssignment("payment_method", nullableString(*fields.PaymentMethod))
	}
	if fields.ReportCount != nil {
		appendAssignment("report_count", *fields.ReportCount)
	}

	if len(assignments) == 0 {
		return nil
	}

	result, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE telegram_user_id = $1
	`, strings.Join(assignments, ", ")), args...)
	if err != nil {
		return fmt.Errorf("set profile fields: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for profile fields: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func nullableString(value string) interface{} {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return trimmed
}
