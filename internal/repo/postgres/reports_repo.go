package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crashbot/internal/domain/enums"
	"crashbot/internal/domain/model"
)

var ErrReportNotFound = errors.New("report not found")
var ErrReportNotPending = errors.New("report is not pending")

type ReportsRepo struct {
	db *sql.DB
}

func NewReportsRepo(db *sql.DB) *ReportsRepo {
	return &ReportsRepo{db: db}
}

// Create persists a completed intake as a fresh pending report and returns
// its generated id.
func (r *ReportsRepo) Create(ctx context.Context, report model.Report) (string, error) {
	reportID := uuid.NewString()
	submittedAt := time.Now().UTC()

	if r.db == nil {
		return reportID, nil
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reports (
			report_id,
			telegram_user_id,
			location_lat,
			location_lon,
			location_time,
			photo_file_id,
			photo_time,
			description,
			crash_time_delta,
			submitted_at,
			status,
			reward_sent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, FALSE)
	`,
		reportID,
		report.TelegramUserID,
		report.LocationLat,
		report.LocationLon,
		report.LocationTime,
		report.PhotoFileID,
		report.PhotoTime,
		report.Description,
		report.CrashTimeDelta,
		submittedAt,
		string(enums.ReportStatusPending),
	)
	if err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}

	return reportID, nil
}

func (r *ReportsRepo) GetByID(ctx context.Context, reportID string) (model.Report, error) {
	if r.db == nil {
		return model.Report{}, ErrReportNotFound
	}

	var report model.Report
	var status string
	err := r.db.QueryRowContext(ctx, `
		SELECT report_id,
		       telegram_user_id,
		       location_lat,
		       location_lon,
		       location_time,
		       photo_file_id,
		       photo_time,
		       description,
		       crash_time_delta,
		       submitted_at,
		       status,
		       reward_sent,
		       reviewed_by
		FROM reports
		WHERE report_id = $1
	`, reportID).Scan(
		&report.ReportID,
		&report.TelegramUserID,
		&report.LocationLat,
		&report.LocationLon,
		&report.LocationTime,
		&report.PhotoFileID,
		&report.PhotoTime,
		&report.Description,
		&report.CrashTimeDelta,
		&report.SubmittedAt,
		&status,
		&report.RewardSent,
		&report.ReviewedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Report{}, ErrReportNotFound
		}
		return model.Report{}, fmt.Errorf("get report: %w", err)
	}

	report.Status = enums.ReportStatus(status)
	return report, nil
}

// SetStatusIfPending transitions the report out of pending exactly once.
// The status predicate in the WHERE clause is what keeps a concurrent
// second review from applying.
func (r *ReportsRepo) SetStatusIfPending(
	ctx context.Context,
	reportID string,
	status enums.ReportStatus,
	reviewerID int64,
	rewardSent bool,
) error {
	if r.db == nil {
		return ErrReportNotFound
	}
	if !status.IsTerminal() {
		return fmt.Errorf("invalid target status %q", status)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE reports
		SET status = $2,
		    reviewed_by = $3,
		    reward_sent = $4
		WHERE report_id = $1
		  AND status = $5
	`, reportID, string(status), reviewerID, rewardSent, string(enums.ReportStatusPending))
	if err != nil {
		return fmt.Errorf("set report status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for report status: %w", err)
	}
	if affected == 0 {
		var exists bool
		if existsErr := r.db.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM reports WHERE report_id = $1)
		`, reportID).Scan(&exists); existsErr != nil {
			return fmt.Errorf("check report existence: %w", existsErr)
		}
		if !exists {
			return ErrReportNotFound
		}
		return ErrReportNotPending
	}

	return nil
}

func (r *ReportsRepo) CountRecent(ctx context.Context, tgID int64, since time.Time) (int, error) {
	if r.db == nil {
		return 0, nil
	}

	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM reports
		WHERE telegram_user_id = $1
		  AND submitted_at >= $2
	`, tgID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count recent reports: %w", err)
	}

	return count, nil
}
