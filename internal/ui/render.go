package ui

import (
	"fmt"
	"strconv"
	"strings"

	"crashbot/internal/domain/enums"
	"crashbot/internal/domain/model"
)

// StatusLabel is the user-facing Turkish verdict wording.
func StatusLabel(status enums.ReportStatus) string {
	switch status {
	case enums.ReportStatusVerified:
		return "onaylandı"
	case enums.ReportStatusRejected:
		return "reddedildi"
	default:
		return string(status)
	}
}

func descriptionOrNA(description *string) string {
	if description == nil || strings.TrimSpace(*description) == "" {
		return "N/A"
	}
	return *description
}

func WelcomeCaption(initialBalance, rewardAmount, payoutThreshold int64) string {
	return F("welcome_caption",
		"initial_balance", strconv.FormatInt(initialBalance, 10),
		"reward_amount", strconv.FormatInt(rewardAmount, 10),
		"payout_threshold", strconv.FormatInt(payoutThreshold, 10),
	)
}

func DescriptionTooLong(maxLen int) string {
	return F("description_too_long", "max_length", strconv.Itoa(maxLen))
}

func BalanceInfo(balance, payoutThreshold int64) string {
	return F("balance_info",
		"balance", strconv.FormatInt(balance, 10),
		"payout_threshold", strconv.FormatInt(payoutThreshold, 10),
	)
}

func RulesText(rewardAmount, payoutThreshold int64, serviceZones string) string {
	return F("rules_text",
		"reward_amount", strconv.FormatInt(rewardAmount, 10),
		"payout_threshold", strconv.FormatInt(payoutThreshold, 10),
		"service_zones", serviceZones,
	)
}

// RenderSummary is the confirmation screen shown before submit.
func RenderSummary(draft model.Report) string {
	return F("report_summary",
		"description", descriptionOrNA(draft.Description),
		"crash_time", strconv.Itoa(draft.CrashTimeDelta),
	)
}

// RenderAdminNotification is the review request sent to each admin.
func RenderAdminNotification(report model.Report, username string) string {
	mapsLink := fmt.Sprintf(
		"https://www.google.com/maps/search/?api=1&query=%s,%s",
		strconv.FormatFloat(report.LocationLat, 'f', -1, 64),
		strconv.FormatFloat(report.LocationLon, 'f', -1, 64),
	)
	return F("admin_notification",
		"maps_link", mapsLink,
		"report_id", report.ReportID,
		"username", username,
		"user_id", strconv.FormatInt(report.TelegramUserID, 10),
		"description", descriptionOrNA(report.Description),
		"crash_time", strconv.Itoa(report.CrashTimeDelta),
	)
}

// RenderDecisionSuffix is appended to the admin's original notification
// after a verdict, so the message itself records the outcome.
func RenderDecisionSuffix(status enums.ReportStatus, reviewerUsername string) string {
	return F("admin_decision_suffix",
		"status", strings.ToUpper(StatusLabel(status)),
		"username", reviewerUsername,
	)
}

// RenderUserDecision is the submitter's notification. The reward line is
// appended only when the verdict credited one.
func RenderUserDecision(reportID string, status enums.ReportStatus, rewardCredited bool, rewardAmount, newBalance int64) string {
	text := F("user_update_notification",
		"report_id", reportID,
		"status", StatusLabel(status),
	)
	if rewardCredited {
		text += F("user_reward_notification",
			"reward_amount", strconv.FormatInt(rewardAmount, 10),
			"new_balance", strconv.FormatInt(newBalance, 10),
		)
	}
	return text
}

func PayoutUserNotFound(userID int64) string {
	return F("payout_user_not_found", "user_id", strconv.FormatInt(userID, 10))
}

func PayoutInsufficientBalance(userID, currentBalance, amount int64) string {
	return F("payout_insufficient_balance",
		"user_id", strconv.FormatInt(userID, 10),
		"current_balance", strconv.FormatInt(currentBalance, 10),
		"amount", strconv.FormatInt(amount, 10),
	)
}

func PayoutSuccessAdmin(userID, amount, newBalance int64) string {
	return F("payout_success_admin",
		"user_id", strconv.FormatInt(userID, 10),
		"amount", strconv.FormatInt(amount, 10),
		"new_balance", strconv.FormatInt(newBalance, 10),
	)
}

func PayoutSuccessUser(amount, newBalance int64) string {
	return F("payout_success_user",
		"amount", strconv.FormatInt(amount, 10),
		"new_balance", strconv.FormatInt(newBalance, 10),
	)
}

func PayoutNotificationFailed(userID int64) string {
	return F("payout_notification_failed", "user_id", strconv.FormatInt(userID, 10))
}
