package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"crashbot/internal/domain/enums"
	"crashbot/internal/domain/model"
)

var ErrDailyCapReached = errors.New("daily report cap reached")

// State names the step the conversation is waiting on. The chain is linear:
// location, photo, description, crash time, confirmation.
type State string

const (
	StateAwaitLocation     State = "AWAIT_LOCATION"
	StateAwaitPhoto        State = "AWAIT_PHOTO"
	StateAwaitDescription  State = "AWAIT_DESCRIPTION"
	StateAwaitCrashTime    State = "AWAIT_CRASH_TIME"
	StateAwaitConfirmation State = "AWAIT_CONFIRMATION"
)

type ReplyKind int

const (
	// ReplyNone means the input was not recognized for the current state
	// and nothing changed.
	ReplyNone ReplyKind = iota
	ReplyPromptLocation
	ReplyPromptPhoto
	ReplyPromptDescription
	ReplyDescriptionTooLong
	ReplyPromptCrashTime
	ReplyInvalidCrashTime
	ReplySummary
	ReplySubmitted
	ReplyCancelled
	ReplySessionLost
	ReplyDailyCapReached
)

type Reply struct {
	Kind     ReplyKind
	Profile  model.UserProfile
	Created  bool
	Draft    model.Report
	ReportID string
}

type ReportsStore interface {
	Create(context.Context, model.Report) (string, error)
	CountRecent(context.Context, int64, time.Time) (int, error)
}

type ProfilesStore interface {
	GetOrCreate(context.Context, int64, string) (model.UserProfile, bool, error)
	IncrementReportCount(context.Context, int64) error
}

type Limits struct {
	MaxDescriptionLength int
	MinCrashTime         int
	MaxCrashTime         int
	MaxReportsPerDay     int
	EnforceDailyCap      bool
}

type session struct {
	state State
	draft model.Report
}

// Service owns one in-progress intake per user. Sessions are allocated on
// Start and freed on submit or cancel; they do not survive a restart.
type Service struct {
	reports  ReportsStore
	profiles ProfilesStore
	limits   Limits
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[int64]*session
}

func NewService(reports ReportsStore, profiles ProfilesStore, limits Limits, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		reports:  reports,
		profiles: profiles,
		limits:   limits,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		sessions: make(map[int64]*session),
	}
}

var skipTokens = []string{"skip", "atla"}
var submitTokens = []string{"submit", "submit report", "raporu gönder"}
var cancelTokens = []string{"cancel", "iptal"}

// Start onboards the user if needed and opens a fresh session. A session
// already in flight is replaced, matching a user re-issuing /start.
func (s *Service) Start(ctx context.Context, tgID int64, username string) (Reply, error) {
	if tgID == 0 {
		return Reply{}, fmt.Errorf("invalid telegram user id")
	}

	profile, created, err := s.profiles.GetOrCreate(ctx, tgID, username)
	if err != nil {
		return Reply{}, fmt.Errorf("onboard user: %w", err)
	}

	if s.limits.EnforceDailyCap && s.limits.MaxReportsPerDay > 0 {
		since := s.now().Add(-24 * time.Hour)
		count, err := s.reports.CountRecent(ctx, tgID, since)
		if err != nil {
			return Reply{}, fmt.Errorf("count recent reports: %w", err)
		}
		if count >= s.limits.MaxReportsPerDay {
			return Reply{Kind: ReplyDailyCapReached, Profile: profile, Created: created}, ErrDailyCapReached
		}
	}

	s.mu.Lock()
	s.sessions[tgID] = &session{
		state: StateAwaitLocation,
		draft: model.Report{TelegramUserID: tgID},
	}
	s.mu.Unlock()

	return Reply{Kind: ReplyPromptLocation, Profile: profile, Created: created}, nil
}

func (s *Service) HasSession(tgID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[tgID]
	return ok
}

func (s *Service) SessionState(tgID int64) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[tgID]
	if !ok {
		return "", false
	}
	return sess.state, true
}

// HandleLocation consumes a geo pair while the session awaits one. Location
// messages in any other state are ignored without a transition.
func (s *Service) HandleLocation(tgID int64, lat, lon float64) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[tgID]
	if !ok || sess.state != StateAwaitLocation {
		return Reply{Kind: ReplyNone}
	}

	sess.draft.LocationLat = lat
	sess.draft.LocationLon = lon
	sess.draft.LocationTime = s.now()
	sess.state = StateAwaitPhoto
	return Reply{Kind: ReplyPromptPhoto}
}

func (s *Service) HandlePhoto(tgID int64, fileID string) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[tgID]
	if !ok || sess.state != StateAwaitPhoto || strings.TrimSpace(fileID) == "" {
		return Reply{Kind: ReplyNone}
	}

	sess.draft.PhotoFileID = fileID
	sess.draft.PhotoTime = s.now()
	sess.state = StateAwaitDescription
	return Reply{Kind: ReplyPromptDescription}
}

// HandleText drives the description, crash-time and confirmation steps.
func (s *Service) HandleText(ctx context.Context, tgID int64, text string) (Reply, error) {
	trimmed := strings.TrimSpace(text)

	s.mu.Lock()
	sess, ok := s.sessions[tgID]
	if !ok {
		s.mu.Unlock()
		// A submit token with no live session means the ephemeral state
		// was lost (restart); ask the user to begin again.
		if matchesToken(trimmed, submitTokens) {
			return Reply{Kind: ReplySessionLost}, nil
		}
		return Reply{Kind: ReplyNone}, nil
	}

	switch sess.state {
	case StateAwaitDescription:
		reply := s.applyDescriptionLocked(sess, trimmed)
		s.mu.Unlock()
		return reply, nil

	case StateAwaitCrashTime:
		reply := s.applyCrashTimeLocked(sess, trimmed)
		s.mu.Unlock()
		return reply, nil

	case StateAwaitConfirmation:
		if matchesToken(trimmed, cancelTokens) {
			delete(s.sessions, tgID)
			s.mu.Unlock()
			return Reply{Kind: ReplyCancelled}, nil
		}
		if !matchesToken(trimmed, submitTokens) {
			s.mu.Unlock()
			return Reply{Kind: ReplyNone}, nil
		}
		draft := sess.draft
		delete(s.sessions, tgID)
		s.mu.Unlock()
		return s.submit(ctx, tgID, draft)

	default:
		s.mu.Unlock()
		return Reply{Kind: ReplyNone}, nil
	}
}

func (s *Service) applyDescriptionLocked(sess *session, text string) Reply {
	// Stickers, voice notes and the like arrive with no text at all;
	// only real text or an explicit skip moves the flow forward.
	if text == "" {
		return Reply{Kind: ReplyNone}
	}
	if matchesToken(text, skipTokens) {
		sess.draft.Description = nil
		sess.state = StateAwaitCrashTime
		return Reply{Kind: ReplyPromptCrashTime}
	}

	if utf8.RuneCountInString(text) > s.limits.MaxDescriptionLength {
		return Reply{Kind: ReplyDescriptionTooLong}
	}

	description := text
	sess.draft.Description = &description
	sess.state = StateAwaitCrashTime
	return Reply{Kind: ReplyPromptCrashTime}
}

func (s *Service) applyCrashTimeLocked(sess *session, text string) Reply {
	minutes, err := strconv.Atoi(text)
	if err != nil || minutes < s.limits.MinCrashTime || minutes > s.limits.MaxCrashTime {
		return Reply{Kind: ReplyInvalidCrashTime}
	}

	sess.draft.CrashTimeDelta = minutes
	sess.state = StateAwaitConfirmation
	return Reply{Kind: ReplySummary, Draft: sess.draft}
}

func (s *Service) submit(ctx context.Context, tgID int64, draft model.Report) (Reply, error) {
	draft.Status = enums.ReportStatusPending
	reportID, err := s.reports.Create(ctx, draft)
	if err != nil {
		return Reply{}, fmt.Errorf("persist report: %w", err)
	}
	draft.ReportID = reportID
	draft.SubmittedAt = s.now()

	// The report is already committed; a failed counter bump must not
	// fail the submission.
	if err := s.profiles.IncrementReportCount(ctx, tgID); err != nil {
		s.logger.Warn("increment report count", "error", err, "tg_id", tgID)
	}

	return Reply{Kind: ReplySubmitted, ReportID: reportID, Draft: draft}, nil
}

// Cancel aborts the in-flight session from any non-terminal state.
func (s *Service) Cancel(tgID int64) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[tgID]; !ok {
		return Reply{Kind: ReplyNone}
	}
	delete(s.sessions, tgID)
	return Reply{Kind: ReplyCancelled}
}

func matchesToken(text string, tokens []string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	for _, token := range tokens {
		if lowered == token {
			return true
		}
	}
	return false
}
