package intake

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"crashbot/internal/domain/enums"
	"crashbot/internal/domain/model"
)

type fakeReports struct {
	created []model.Report
	recent  int
}

func (f *fakeReports) Create(_ context.Context, report model.Report) (string, error) {
	report.ReportID = "r-1"
	f.created = append(f.created, report)
	return report.ReportID, nil
}

func (f *fakeReports) CountRecent(_ context.Context, _ int64, _ time.Time) (int, error) {
	return f.recent, nil
}

type fakeProfiles struct {
	increments int
}

func (f *fakeProfiles) GetOrCreate(_ context.Context, tgID int64, username string) (model.UserProfile, bool, error) {
	return model.UserProfile{TelegramUserID: tgID, Username: username, Balance: 99}, true, nil
}

func (f *fakeProfiles) IncrementReportCount(_ context.Context, _ int64) error {
	f.increments++
	return nil
}

func defaultLimits() Limits {
	return Limits{
		MaxDescriptionLength: 200,
		MinCrashTime:         0,
		MaxCrashTime:         60,
		MaxReportsPerDay:     3,
	}
}

func newTestService(reports *fakeReports, profiles *fakeProfiles) *Service {
	return NewService(reports, profiles, defaultLimits(), nil)
}

func startSession(t *testing.T, svc *Service, tgID int64) {
	t.Helper()
	reply, err := svc.Start(context.Background(), tgID, "courier")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if reply.Kind != ReplyPromptLocation {
		t.Fatalf("expected location prompt, got %d", reply.Kind)
	}
}

func TestFullIntakeSequenceCreatesOnePendingReport(t *testing.T) {
	reports := &fakeReports{}
	profiles := &fakeProfiles{}
	svc := newTestService(reports, profiles)
	ctx := context.Background()

	startSession(t, svc, 100)

	if reply := svc.HandleLocation(100, 35.19, 33.36); reply.Kind != ReplyPromptPhoto {
		t.Fatalf("expected photo prompt after location, got %d", reply.Kind)
	}
	if reply := svc.HandlePhoto(100, "photo-file-id"); reply.Kind != ReplyPromptDescription {
		t.Fatalf("expected description prompt after photo, got %d", reply.Kind)
	}

	reply, err := svc.HandleText(ctx, 100, "iki araba, arkadan çarpma")
	if err != nil {
		t.Fatalf("description: %v", err)
	}
	if reply.Kind != ReplyPromptCrashTime {
		t.Fatalf("expected crash time prompt, got %d", reply.Kind)
	}

	reply, err = svc.HandleText(ctx, 100, "10")
	if err != nil {
		t.Fatalf("crash time: %v", err)
	}
	if reply.Kind != ReplySummary {
		t.Fatalf("expected summary, got %d", reply.Kind)
	}
	if reply.Draft.CrashTimeDelta != 10 {
		t.Fatalf("expected crash time 10 in summary, got %d", reply.Draft.CrashTimeDelta)
	}

	reply, err = svc.HandleText(ctx, 100, "Raporu Gönder")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if reply.Kind != ReplySubmitted {
		t.Fatalf("expected submitted, got %d", reply.Kind)
	}
	if reply.ReportID == "" {
		t.Fatal("expected report id on submit")
	}

	if len(reports.created) != 1 {
		t.Fatalf("expected exactly one report created, got %d", len(reports.created))
	}
	created := reports.created[0]
	if created.Status != enums.ReportStatusPending {
		t.Fatalf("expected pending status, got %s", created.Status)
	}
	if created.TelegramUserID != 100 {
		t.Fatalf("expected submitter 100, got %d", created.TelegramUserID)
	}
	if created.LocationLat != 35.19 || created.LocationLon != 33.36 {
		t.Fatalf("unexpected coordinates: %f,%f", created.LocationLat, created.LocationLon)
	}
	if created.LocationTime.IsZero() || created.PhotoTime.IsZero() {
		t.Fatal("expected capture timestamps to be set")
	}
	if created.PhotoFileID != "photo-file-id" {
		t.Fatalf("unexpected photo reference %q", created.PhotoFileID)
	}
	if created.Description == nil || *created.Description != "iki araba, arkadan çarpma" {
		t.Fatalf("unexpected description %+v", created.Description)
	}
	if profiles.increments != 1 {
		t.Fatalf("expected one report count increment, got %d", profiles.increments)
	}
	if svc.HasSession(100) {
		t.Fatal("expected session cleared after submit")
	}
}

func TestCrashTimeValidationKeepsState(t *testing.T) {
	reports := &fakeReports{}
	svc := newTestService(reports, &fakeProfiles{})
	ctx := context.Background()

	startSession(t, svc, 200)
	svc.HandleLocation(200, 1, 2)
	svc.HandlePhoto(200, "f")
	if _, err := svc.HandleText(ctx, 200, "skip"); err != nil {
		t.Fatalf("skip: %v", err)
	}

	for _, input := range []string{"-1", "61", "abc", "10.5", ""} {
		reply, err := svc.HandleText(ctx, 200, input)
		if err != nil {
			t.Fatalf("crash time %q: %v", input, err)
		}
		if reply.Kind != ReplyInvalidCrashTime {
			t.Fatalf("input %q: expected invalid crash time reply, got %d", input, reply.Kind)
		}
		if state, _ := svc.SessionState(200); state != StateAwaitCrashTime {
			t.Fatalf("input %q: expected state unchanged, got %s", input, state)
		}
	}

	if len(reports.created) != 0 {
		t.Fatalf("expected no report created, got %d", len(reports.created))
	}

	reply, err := svc.HandleText(ctx, 200, "0")
	if err != nil {
		t.Fatalf("crash time 0: %v", err)
	}
	if reply.Kind != ReplySummary {
		t.Fatalf("expected boundary value 0 accepted, got %d", reply.Kind)
	}
}

func TestDescriptionTooLongRepromptsInPlace(t *testing.T) {
	svc := newTestService(&fakeReports{}, &fakeProfiles{})
	ctx := context.Background()

	startSession(t, svc, 300)
	svc.HandleLocation(300, 1, 2)
	svc.HandlePhoto(300, "f")

	long := strings.Repeat("a", 250)
	reply, err := svc.HandleText(ctx, 300, long)
	if err != nil {
		t.Fatalf("long description: %v", err)
	}
	if reply.Kind != ReplyDescriptionTooLong {
		t.Fatalf("expected too-long reply, got %d", reply.Kind)
	}
	if state, _ := svc.SessionState(300); state != StateAwaitDescription {
		t.Fatalf("expected state unchanged, got %s", state)
	}
}

func TestNonTextInputDuringDescriptionIsIgnored(t *testing.T) {
	reports := &fakeReports{}
	svc := newTestService(reports, &fakeProfiles{})
	ctx := context.Background()

	startSession(t, svc, 350)
	svc.HandleLocation(350, 1, 2)
	svc.HandlePhoto(350, "f")

	// A sticker or voice note surfaces as a message with no text.
	reply, err := svc.HandleText(ctx, 350, "")
	if err != nil {
		t.Fatalf("empty input: %v", err)
	}
	if reply.Kind != ReplyNone {
		t.Fatalf("expected empty input ignored, got %d", reply.Kind)
	}
	if state, _ := svc.SessionState(350); state != StateAwaitDescription {
		t.Fatalf("expected state unchanged, got %s", state)
	}

	// Whitespace-only text is the same non-event.
	reply, err = svc.HandleText(ctx, 350, "   ")
	if err != nil {
		t.Fatalf("whitespace input: %v", err)
	}
	if reply.Kind != ReplyNone {
		t.Fatalf("expected whitespace input ignored, got %d", reply.Kind)
	}

	if _, err := svc.HandleText(ctx, 350, "gerçek açıklama"); err != nil {
		t.Fatalf("description: %v", err)
	}
	if state, _ := svc.SessionState(350); state != StateAwaitCrashTime {
		t.Fatalf("expected real text to advance, got %s", state)
	}
}

func TestSkipDescriptionIsCaseInsensitive(t *testing.T) {
	reports := &fakeReports{}
	svc := newTestService(reports, &fakeProfiles{})
	ctx := context.Background()

	for i, token := range []string{"skip", "SKIP", "Atla", "ATLA"} {
		tgID := int64(400 + i)
		startSession(t, svc, tgID)
		svc.HandleLocation(tgID, 1, 2)
		svc.HandlePhoto(tgID, "f")

		reply, err := svc.HandleText(ctx, tgID, token)
		if err != nil {
			t.Fatalf("skip %q: %v", token, err)
		}
		if reply.Kind != ReplyPromptCrashTime {
			t.Fatalf("token %q: expected crash time prompt, got %d", token, reply.Kind)
		}

		if _, err := svc.HandleText(ctx, tgID, "5"); err != nil {
			t.Fatalf("crash time: %v", err)
		}
		if _, err := svc.HandleText(ctx, tgID, "submit"); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	for _, created := range reports.created {
		if created.Description != nil {
			t.Fatalf("expected nil description after skip, got %q", *created.Description)
		}
	}
}

func TestCancelFromEveryStateProducesNoReport(t *testing.T) {
	reports := &fakeReports{}
	svc := newTestService(reports, &fakeProfiles{})
	ctx := context.Background()

	advance := map[State]func(tgID int64){
		StateAwaitLocation: func(int64) {},
		StateAwaitPhoto: func(tgID int64) {
			svc.HandleLocation(tgID, 1, 2)
		},
		StateAwaitDescription: func(tgID int64) {
			svc.HandleLocation(tgID, 1, 2)
			svc.HandlePhoto(tgID, "f")
		},
		StateAwaitCrashTime: func(tgID int64) {
			svc.HandleLocation(tgID, 1, 2)
			svc.HandlePhoto(tgID, "f")
			_, _ = svc.HandleText(ctx, tgID, "skip")
		},
		StateAwaitConfirmation: func(tgID int64) {
			svc.HandleLocation(tgID, 1, 2)
			svc.HandlePhoto(tgID, "f")
			_, _ = svc.HandleText(ctx, tgID, "skip")
			_, _ = svc.HandleText(ctx, tgID, "30")
		},
	}

	tgID := int64(500)
	for state, setup := range advance {
		tgID++
		startSession(t, svc, tgID)
		setup(tgID)

		if current, _ := svc.SessionState(tgID); current != state {
			t.Fatalf("setup for %s landed in %s", state, current)
		}

		reply := svc.Cancel(tgID)
		if reply.Kind != ReplyCancelled {
			t.Fatalf("state %s: expected cancelled, got %d", state, reply.Kind)
		}
		if svc.HasSession(tgID) {
			t.Fatalf("state %s: expected session cleared", state)
		}
	}

	if len(reports.created) != 0 {
		t.Fatalf("expected no reports after cancels, got %d", len(reports.created))
	}
}

func TestCancelTokenDuringConfirmation(t *testing.T) {
	reports := &fakeReports{}
	svc := newTestService(reports, &fakeProfiles{})
	ctx := context.Background()

	startSession(t, svc, 600)
	svc.HandleLocation(600, 1, 2)
	svc.HandlePhoto(600, "f")
	_, _ = svc.HandleText(ctx, 600, "skip")
	_, _ = svc.HandleText(ctx, 600, "15")

	reply, err := svc.HandleText(ctx, 600, "İptal")
	if err != nil {
		t.Fatalf("cancel token: %v", err)
	}
	if reply.Kind != ReplyCancelled {
		t.Fatalf("expected cancelled, got %d", reply.Kind)
	}
	if len(reports.created) != 0 {
		t.Fatal("expected no report after cancel")
	}
}

func TestIgnoredInputsDoNotTransition(t *testing.T) {
	svc := newTestService(&fakeReports{}, &fakeProfiles{})

	startSession(t, svc, 700)

	// Photo while waiting for location is ignored.
	if reply := svc.HandlePhoto(700, "f"); reply.Kind != ReplyNone {
		t.Fatalf("expected ignored photo, got %d", reply.Kind)
	}
	if state, _ := svc.SessionState(700); state != StateAwaitLocation {
		t.Fatalf("expected still awaiting location, got %s", state)
	}

	svc.HandleLocation(700, 1, 2)

	// A second location while waiting for the photo is ignored.
	if reply := svc.HandleLocation(700, 3, 4); reply.Kind != ReplyNone {
		t.Fatalf("expected ignored location, got %d", reply.Kind)
	}
	if state, _ := svc.SessionState(700); state != StateAwaitPhoto {
		t.Fatalf("expected still awaiting photo, got %s", state)
	}
}

func TestSubmitWithoutSessionReportsLostSession(t *testing.T) {
	svc := newTestService(&fakeReports{}, &fakeProfiles{})

	reply, err := svc.HandleText(context.Background(), 800, "Raporu Gönder")
	if err != nil {
		t.Fatalf("submit without session: %v", err)
	}
	if reply.Kind != ReplySessionLost {
		t.Fatalf("expected session lost reply, got %d", reply.Kind)
	}
}

func TestDailyCapBlocksStartWhenEnforced(t *testing.T) {
	reports := &fakeReports{recent: 3}
	limits := defaultLimits()
	limits.EnforceDailyCap = true
	svc := NewService(reports, &fakeProfiles{}, limits, nil)

	reply, err := svc.Start(context.Background(), 900, "courier")
	if !errors.Is(err, ErrDailyCapReached) {
		t.Fatalf("expected daily cap error, got %v", err)
	}
	if reply.Kind != ReplyDailyCapReached {
		t.Fatalf("expected daily cap reply, got %d", reply.Kind)
	}
	if svc.HasSession(900) {
		t.Fatal("expected no session when capped")
	}
}

func TestDailyCapIgnoredByDefault(t *testing.T) {
	reports := &fakeReports{recent: 10}
	svc := newTestService(reports, &fakeProfiles{})

	if _, err := svc.Start(context.Background(), 901, "courier"); err != nil {
		t.Fatalf("expected start to succeed with enforcement off, got %v", err)
	}
	if !svc.HasSession(901) {
		t.Fatal("expected session despite exceeding unenforced cap")
	}
}
