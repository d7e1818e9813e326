package model

import (
	"time"

	"crashbot/internal/domain/enums"
)

type Report struct {
	ReportID       string
	TelegramUserID int64
	LocationLat    float64
	LocationLon    float64
	LocationTime   time.Time
	PhotoFileID    string
	PhotoTime      time.Time
	Description    *string
	CrashTimeDelta int
	SubmittedAt    time.Time
	Status         enums.ReportStatus
	RewardSent     bool
	ReviewedBy     *int64
}
