package tracking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/naebak/naebak-auth-service/pkg/db/models"
	"gorm.io/gorm"
)

type fakeStore struct {
	sessions    []*models.UserSession
	anonymous   []*models.AnonymousSession
	pages       []string
	attempts    []*models.LoginAttempt
	deactivated []string
	err         error
}

func (f *fakeStore) UpsertUserSession(_ context.Context, row *models.UserSession) error {
	f.sessions = append(f.sessions, row)
	return f.err
}

func (f *fakeStore) DeactivateUserSession(_ context.Context, key string, _ time.Time) error {
	f.deactivated = append(f.deactivated, key)
	return f.err
}

func (f *fakeStore) TouchAnonymous(_ context.Context, row *models.AnonymousSession, page string) error {
	f.anonymous = append(f.anonymous, row)
	f.pages = append(f.pages, page)
	return f.err
}

func (f *fakeStore) CreateLoginAttempt(_ context.Context, row *models.LoginAttempt) error {
	f.attempts = append(f.attempts, row)
	return f.err
}

func (f *fakeStore) CountFailedAttemptsSince(_ context.Context, email string, since time.Time) (int64, error) {
	var n int64
	for _, a := range f.attempts {
		if a.Email == email && !a.Success && !a.AttemptedAt.Before(since) {
			n++
		}
	}
	return n, f.err
}

func (f *fakeStore) ListUserSessions(_ context.Context, userID uuid.UUID) ([]models.UserSession, error) {
	var rows []models.UserSession
	for _, row := range f.sessions {
		if row.UserID == userID {
			rows = append(rows, *row)
		}
	}
	return rows, f.err
}

type fakeToucher struct {
	calls int
	ip    string
}

func (f *fakeToucher) TouchActivity(_ context.Context, _ uuid.UUID, _ time.Time, ip string) error {
	f.calls++
	f.ip = ip
	return nil
}

const iphoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

func TestTouchUserSessionRefreshesLoginIP(t *testing.T) {
	store := &fakeStore{}
	users := &fakeToucher{}
	svc, err := NewService(store, users)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	err = svc.TouchUserSession(context.Background(), Visit{
		SessionKey: "jti",
		UserID:     uuid.New(),
		IPAddress:  "203.0.113.9",
		UserAgent:  iphoneUA,
	})
	if err != nil {
		t.Fatalf("TouchUserSession: %v", err)
	}
	if len(store.sessions) != 1 || !store.sessions[0].IsActive {
		t.Fatalf("expected one active session upsert, got %+v", store.sessions)
	}
	if store.sessions[0].DeviceType != DeviceMobile {
		t.Fatalf("expected mobile device, got %q", store.sessions[0].DeviceType)
	}
	if users.calls != 1 || users.ip != "203.0.113.9" {
		t.Fatalf("expected activity touch with ip, got %+v", users)
	}
}

func TestTouchUserSessionRequiresIdentity(t *testing.T) {
	svc, _ := NewService(&fakeStore{}, nil)
	if err := svc.TouchUserSession(context.Background(), Visit{SessionKey: "jti"}); err == nil {
		t.Fatal("expected error without user id")
	}
}

func TestTouchAnonymousOnlyRecordsCandidatePages(t *testing.T) {
	store := &fakeStore{}
	svc, _ := NewService(store, nil)
	ctx := context.Background()

	for _, path := range []string{"/api/v1/candidates/12", "/api/v1/governorates", "/api/v1/candidates/"} {
		if err := svc.TouchAnonymous(ctx, Visit{SessionKey: "anon", Path: path}); err != nil {
			t.Fatalf("TouchAnonymous(%s): %v", path, err)
		}
	}
	want := []string{"/api/v1/candidates/12", "", ""}
	for i, page := range store.pages {
		if page != want[i] {
			t.Fatalf("page %d: expected %q, got %q", i, want[i], page)
		}
	}
}

func TestRecordLoginAttemptTruncatesReason(t *testing.T) {
	store := &fakeStore{}
	svc, _ := NewService(store, nil)

	err := svc.RecordLoginAttempt(context.Background(), LoginAttempt{
		Email:         " Sara@Example.com ",
		Success:       false,
		FailureReason: strings.Repeat("x", 150),
	})
	if err != nil {
		t.Fatalf("RecordLoginAttempt: %v", err)
	}
	row := store.attempts[0]
	if row.Email != "sara@example.com" {
		t.Fatalf("expected normalized email, got %q", row.Email)
	}
	if row.FailureReason == nil || len(*row.FailureReason) != maxFailureReasonLen {
		t.Fatalf("expected reason clipped to %d chars", maxFailureReasonLen)
	}

	if err := svc.RecordLoginAttempt(context.Background(), LoginAttempt{Email: "a@b.c", Success: true, FailureReason: "ignored"}); err != nil {
		t.Fatalf("RecordLoginAttempt success: %v", err)
	}
	if store.attempts[1].FailureReason != nil {
		t.Fatal("successful attempts carry no failure reason")
	}
}

func TestDeactivateSession(t *testing.T) {
	store := &fakeStore{}
	svc, _ := NewService(store, nil)
	if err := svc.DeactivateSession(context.Background(), ""); err != nil {
		t.Fatalf("empty key: %v", err)
	}
	if err := svc.DeactivateSession(context.Background(), "jti"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if len(store.deactivated) != 1 || store.deactivated[0] != "jti" {
		t.Fatalf("unexpected deactivations: %v", store.deactivated)
	}

	store.err = errors.New("db down")
	if err := svc.DeactivateSession(context.Background(), "jti"); err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestDeviceType(t *testing.T) {
	cases := []struct {
		ua   string
		want string
	}{
		{"", DeviceUnknown},
		{iphoneUA, DeviceMobile},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", DeviceDesktop},
		{"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1", DeviceTablet},
		{"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", DeviceBot},
	}
	for _, tc := range cases {
		if got := DeviceType(tc.ua); got != tc.want {
			t.Fatalf("DeviceType(%q) = %q, want %q", tc.ua, got, tc.want)
		}
	}
}

type fakeClaimer struct {
	mu    sync.Mutex
	keys  map[string]bool
	calls int
}

func (f *fakeClaimer) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.keys == nil {
		f.keys = map[string]bool{}
	}
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeClaimer) SweepWindowKey(job string, windowStart time.Time) string {
	return job + ":" + windowStart.Format(time.RFC3339)
}

func TestSweeperRunsOncePerWindow(t *testing.T) {
	var mu sync.Mutex
	var cutoffs []time.Time
	purge := func(_ context.Context, _ *gorm.DB, cutoff time.Time) (int64, error) {
		mu.Lock()
		defer mu.Unlock()
		cutoffs = append(cutoffs, cutoff)
		return 3, nil
	}
	claimer := &fakeClaimer{}
	sweeper := NewSweeper(SweeperParams{
		Claimer: claimer,
		Targets: []RetentionTarget{{Name: "a", Retention: 24 * time.Hour, Purge: purge}},
		Window:  time.Hour,
	})
	now := time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC)
	sweeper.now = func() time.Time { return now }

	if !sweeper.MaybeSweep(context.Background()) {
		t.Fatal("expected first call to claim the window")
	}
	if sweeper.MaybeSweep(context.Background()) {
		t.Fatal("expected second call in the same window to skip")
	}
	sweeper.Wait()

	if claimer.calls != 1 {
		t.Fatalf("expected one claim round trip, got %d", claimer.calls)
	}
	if len(cutoffs) != 1 {
		t.Fatalf("expected one purge, got %d", len(cutoffs))
	}
	want := time.Date(2026, 2, 28, 10, 0, 0, 0, time.UTC)
	if !cutoffs[0].Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, cutoffs[0])
	}

	// another replica already owns the next window
	now = now.Add(time.Hour)
	claimer.keys[claimer.SweepWindowKey("tracking", now.Truncate(time.Hour))] = true
	if sweeper.MaybeSweep(context.Background()) {
		t.Fatal("expected lost claim to skip")
	}
	sweeper.Wait()
	if len(cutoffs) != 1 {
		t.Fatalf("expected no extra purge, got %d", len(cutoffs))
	}
}

func TestSweeperLogsPurgeFailures(t *testing.T) {
	calls := 0
	failing := func(context.Context, *gorm.DB, time.Time) (int64, error) {
		calls++
		return 0, errors.New("boom")
	}
	sweeper := NewSweeper(SweeperParams{
		Claimer: &fakeClaimer{},
		Targets: []RetentionTarget{
			{Name: "a", Retention: time.Hour, Purge: failing},
			{Name: "b", Retention: time.Hour, Purge: failing},
		},
	})
	if !sweeper.MaybeSweep(context.Background()) {
		t.Fatal("expected claim")
	}
	sweeper.Wait()
	if calls != 2 {
		t.Fatalf("expected every target attempted, got %d", calls)
	}
}

func TestNilSweeperIsInert(t *testing.T) {
	var sweeper *Sweeper
	if sweeper.MaybeSweep(context.Background()) {
		t.Fatal("nil sweeper must not sweep")
	}
	sweeper.Wait()
}

func TestFailedLoginsSinceUsesWindow(t *testing.T) {
	store := &fakeStore{}
	svc, _ := NewService(store, nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	store.attempts = []*models.LoginAttempt{
		{Email: "x@example.com", AttemptedAt: now.Add(-5 * time.Minute)},
		{Email: "x@example.com", AttemptedAt: now.Add(-2 * time.Hour)},
		{Email: "x@example.com", Success: true, AttemptedAt: now.Add(-time.Minute)},
		{Email: "y@example.com", AttemptedAt: now.Add(-time.Minute)},
	}
	count, err := svc.FailedLoginsSince(context.Background(), " X@Example.com ", 30*time.Minute)
	if err != nil {
		t.Fatalf("FailedLoginsSince: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 recent failure, got %d", count)
	}
	if count, _ := svc.FailedLoginsSince(context.Background(), "x@example.com", 0); count != 0 {
		t.Fatalf("a zero window disables the count, got %d", count)
	}
}

func TestActiveSessionKeysSkipsInactive(t *testing.T) {
	userID := uuid.New()
	store := &fakeStore{sessions: []*models.UserSession{
		{SessionKey: "live", UserID: userID, IsActive: true},
		{SessionKey: "ended", UserID: userID, IsActive: false},
		{SessionKey: "other", UserID: uuid.New(), IsActive: true},
	}}
	svc, _ := NewService(store, nil)

	keys, err := svc.ActiveSessionKeys(context.Background(), userID)
	if err != nil {
		t.Fatalf("ActiveSessionKeys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "live" {
		t.Fatalf("expected only the live session, got %v", keys)
	}
}
