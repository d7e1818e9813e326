package notify

import (
	"log/slog"
)

// Sender is the outbound side of the bot. The telegram client implements
// it; tests swap in a recorder.
type Sender interface {
	SendText(chatID int64, text string) error
	SendPhoto(chatID int64, fileID, caption string) error
	SendDecisionRequest(chatID int64, text, reportID string) error
}

// Service fans messages out to the admin list and pushes one-off notices
// to users. Every delivery is best effort: a failed send is logged and the
// rest of the recipients still get theirs.
type Service struct {
	sender   Sender
	adminIDs []int64
	logger   *slog.Logger
}

func NewService(sender Sender, adminIDs []int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{sender: sender, adminIDs: adminIDs, logger: logger}
}

// BroadcastReport sends the crash photo followed by the rendered report
// with approve/reject buttons to every configured admin. Returns how many
// decision requests were delivered; a failed photo does not block the
// request that follows it.
func (s *Service) BroadcastReport(photoFileID, text, reportID string) int {
	delivered := 0
	for _, adminID := range s.adminIDs {
		if photoFileID != "" {
			if err := s.sender.SendPhoto(adminID, photoFileID, ""); err != nil {
				s.logger.Warn("admin photo delivery failed",
					"admin_id", adminID,
					"report_id", reportID,
					"error", err,
				)
			}
		}
		if err := s.sender.SendDecisionRequest(adminID, text, reportID); err != nil {
			s.logger.Warn("admin notification failed",
				"admin_id", adminID,
				"report_id", reportID,
				"error", err,
			)
			continue
		}
		delivered++
	}
	if delivered == 0 && len(s.adminIDs) > 0 {
		s.logger.Error("report reached no admins", "report_id", reportID)
	}
	return delivered
}

// BroadcastText pushes a plain notice to every admin.
func (s *Service) BroadcastText(text string) int {
	delivered := 0
	for _, adminID := range s.adminIDs {
		if err := s.sender.SendText(adminID, text); err != nil {
			s.logger.Warn("admin notification failed", "admin_id", adminID, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// NotifyUser pushes a notice to a single user. Failure is logged, not
// returned; the triggering operation already committed.
func (s *Service) NotifyUser(chatID int64, text string) {
	if err := s.sender.SendText(chatID, text); err != nil {
		s.logger.Warn("user notification failed", "chat_id", chatID, "error", err)
	}
}
