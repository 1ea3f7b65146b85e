package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/naebak/naebak-auth-service/internal/profiles"
	"github.com/naebak/naebak-auth-service/internal/tracking"
	"github.com/naebak/naebak-auth-service/internal/users"
	pkgAuth "github.com/naebak/naebak-auth-service/pkg/auth"
	"github.com/naebak/naebak-auth-service/pkg/auth/session"
	"github.com/naebak/naebak-auth-service/pkg/config"
	"github.com/naebak/naebak-auth-service/pkg/db"
	"github.com/naebak/naebak-auth-service/pkg/db/dbtest"
	"github.com/naebak/naebak-auth-service/pkg/db/models"
	"github.com/naebak/naebak-auth-service/pkg/enums"
	pkgerrors "github.com/naebak/naebak-auth-service/pkg/errors"
	"github.com/naebak/naebak-auth-service/pkg/mailer"
	"github.com/naebak/naebak-auth-service/pkg/security"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	testJWT = config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "naebak-auth-service",
		ExpirationMinutes:      60,
		RefreshTokenTTLMinutes: 10080,
	}
	testPassword = config.PasswordConfig{
		ArgonMemoryKB:    64,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
		MinLength:        8,
		RequireMixed:     true,
		ResetTokenTTL:    time.Hour,
		ResetURLPrefix:   "https://naebak.test/reset?token=",
	}
)

const goodPassword = "Secret123"

type storedSession struct {
	token    string
	remember bool
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]storedSession
	revoked  []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]storedSession{}}
}

func (f *fakeSessions) Generate(_ context.Context, accessID string, remember bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := "refresh-" + accessID
	f.sessions[accessID] = storedSession{token: token, remember: remember}
	return token, nil
}

func (f *fakeSessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.sessions[oldAccessID]
	if !ok || stored.token != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.sessions, oldAccessID)
	newID := session.NewAccessID()
	token := "refresh-" + newID
	f.sessions[newID] = storedSession{token: token, remember: stored.remember}
	return newID, token, nil
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, accessID)
	f.revoked = append(f.revoked, accessID)
	return nil
}

func (f *fakeSessions) has(accessID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.sessions[accessID]
	return ok
}

type fakeResets struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeResets() *fakeResets {
	return &fakeResets{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeResets) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeResets) GetDel(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	delete(f.values, key)
	return v, nil
}

func (f *fakeResets) PasswordResetKey(token string) string { return "reset:" + token }

type fakeTracker struct {
	mu          sync.Mutex
	attempts    []tracking.LoginAttempt
	deactivated []string
	activeKeys  []string
}

func (f *fakeTracker) RecordLoginAttempt(_ context.Context, a tracking.LoginAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, a)
	return nil
}

func (f *fakeTracker) DeactivateSession(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivated = append(f.deactivated, key)
	return nil
}

func (f *fakeTracker) FailedLoginsSince(_ context.Context, email string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.attempts {
		if !a.Success && a.Email == email {
			n++
		}
	}
	return n, nil
}

func (f *fakeTracker) ActiveSessionKeys(_ context.Context, _ uuid.UUID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.activeKeys...), nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	welcomes []mailer.Recipient
	links    []string
}

func (f *fakeNotifier) Welcome(_ context.Context, to mailer.Recipient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcomes = append(f.welcomes, to)
}

func (f *fakeNotifier) PasswordReset(_ context.Context, _ mailer.Recipient, link string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links = append(f.links, link)
}

type harness struct {
	conn     *gorm.DB
	svc      Service
	sessions *fakeSessions
	resets   *fakeResets
	tracker  *fakeTracker
	notifier *fakeNotifier
	gov      models.Governorate
	party    models.Party
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn := dbtest.Open(t, models.All()...)
	h := &harness{
		conn:     conn,
		sessions: newFakeSessions(),
		resets:   newFakeResets(),
		tracker:  &fakeTracker{},
		notifier: &fakeNotifier{},
		gov:      models.Governorate{Name: "القاهرة", NameEn: "Cairo", Code: "CAI"},
		party:    models.Party{Name: "مستقل", NameEn: "Independent"},
	}
	if err := conn.Create(&h.gov).Error; err != nil {
		t.Fatalf("seed governorate: %v", err)
	}
	if err := conn.Create(&h.party).Error; err != nil {
		t.Fatalf("seed party: %v", err)
	}

	svc, err := NewService(ServiceParams{
		DB:             db.NewFromGorm(conn),
		UserRepo:       users.NewRepository(conn),
		SessionManager: h.sessions,
		Resets:         h.resets,
		Tracker:        h.tracker,
		Notifier:       h.notifier,
		JWTConfig:      testJWT,
		PasswordConfig: testPassword,
		FeatureFlags:   config.FeatureFlagsConfig{AutoApproveCitizens: true},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	h.svc = svc
	return h
}

func ptr[T any](v T) *T { return &v }

func (h *harness) citizenRequest(email, nid string) RegisterRequest {
	return RegisterRequest{
		Email:                email,
		Password:             goodPassword,
		PasswordConfirmation: goodPassword,
		FirstName:            "أحمد",
		LastName:             "حسن",
		UserType:             "citizen",
		Fields: profiles.Fields{
			NationalID:    ptr(nid),
			GovernorateID: ptr(h.gov.ID),
		},
	}
}

func (h *harness) countUsers(t *testing.T, email string) int64 {
	t.Helper()
	var n int64
	if err := h.conn.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	return n
}

func TestRegisterCitizen(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp, err := h.svc.Register(ctx, h.citizenRequest(" Citizen@Example.com ", "29001011234567"), RequestMeta{IPAddress: "10.0.0.1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Email != "citizen@example.com" {
		t.Fatalf("expected normalized email, got %q", resp.User.Email)
	}
	if !resp.User.IsVerified || !resp.User.CanVote {
		t.Fatalf("expected auto-approved citizen, got %+v", resp.User)
	}
	if resp.Profile == nil || resp.Profile.NationalID != "29001011234567" || resp.Profile.Kind != enums.ProfileKindCitizen {
		t.Fatalf("unexpected profile %+v", resp.Profile)
	}
	if !resp.Welcome.IsNewUser || resp.Welcome.UserTypeDisplay != "مواطن" {
		t.Fatalf("unexpected welcome %+v", resp.Welcome)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != resp.User.ID || claims.UserType != enums.UserTypeCitizen {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if !h.sessions.has(claims.ID) {
		t.Fatalf("expected refresh session for jti %s", claims.ID)
	}
	if len(h.notifier.welcomes) != 1 || h.notifier.welcomes[0].Email != "citizen@example.com" {
		t.Fatalf("expected one welcome email, got %+v", h.notifier.welcomes)
	}
}

func TestRegisterCandidateStaysPending(t *testing.T) {
	h := newHarness(t)
	req := h.citizenRequest("cand@example.com", "29001011234500")
	req.UserType = "senate_candidate"
	req.PartyID = ptr(h.party.ID)
	req.Constituency = ptr("الدقي")

	resp, err := h.svc.Register(context.Background(), req, RequestMeta{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.VerificationStatus != enums.VerificationStatusPending {
		t.Fatalf("expected pending, got %s", resp.User.VerificationStatus)
	}
	if resp.Profile.ElectoralDTO == nil || resp.Profile.CouncilType != enums.CouncilTypeSenate {
		t.Fatalf("expected senate electoral profile, got %+v", resp.Profile)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.svc.Register(ctx, h.citizenRequest("dup@example.com", "29001011111111"), RequestMeta{}); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := h.svc.Register(ctx, h.citizenRequest("DUP@example.com", "29001012222222"), RequestMeta{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDuplicateAccount) {
		t.Fatalf("expected DUPLICATE_ACCOUNT, got %v", err)
	}
	if n := h.countUsers(t, "dup@example.com"); n != 1 {
		t.Fatalf("expected a single user, got %d", n)
	}
	var profileCount int64
	h.conn.Model(&models.CitizenProfile{}).Count(&profileCount)
	if profileCount != 1 {
		t.Fatalf("expected a single profile, got %d", profileCount)
	}
}

func TestRegisterDuplicateNationalIDRollsBack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.svc.Register(ctx, h.citizenRequest("first@example.com", "29001013333333"), RequestMeta{}); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := h.svc.Register(ctx, h.citizenRequest("second@example.com", "29001013333333"), RequestMeta{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDuplicateAccount) {
		t.Fatalf("expected DUPLICATE_ACCOUNT, got %v", err)
	}
	if n := h.countUsers(t, "second@example.com"); n != 0 {
		t.Fatalf("expected rollback of the identity, found %d rows", n)
	}
	if len(h.notifier.welcomes) != 1 {
		t.Fatalf("failed registration must not send mail")
	}
}

func TestRegisterProfileFailureRollsBack(t *testing.T) {
	h := newHarness(t)
	req := h.citizenRequest("nogov@example.com", "29001014444444")
	req.GovernorateID = ptr(uint(9999))

	_, err := h.svc.Register(context.Background(), req, RequestMeta{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeProfileValidation) {
		t.Fatalf("expected PROFILE_VALIDATION_FAILED, got %v", err)
	}
	if n := h.countUsers(t, "nogov@example.com"); n != 0 {
		t.Fatalf("expected no user row, got %d", n)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	cases := []struct {
		name   string
		mutate func(*RegisterRequest)
		code   pkgerrors.Code
	}{
		{"mismatched confirmation", func(r *RegisterRequest) { r.PasswordConfirmation = "Other1234" }, pkgerrors.CodeValidation},
		{"bad email", func(r *RegisterRequest) { r.Email = "not-an-email" }, pkgerrors.CodeValidation},
		{"weak password", func(r *RegisterRequest) { r.Password, r.PasswordConfirmation = "alllower1", "alllower1" }, pkgerrors.CodeWeakPassword},
		{"unknown user type", func(r *RegisterRequest) { r.UserType = "admin" }, pkgerrors.CodeInvalidUserType},
		{"malformed national id", func(r *RegisterRequest) { r.NationalID = ptr("1234567890123A") }, pkgerrors.CodeInvalidNationalID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := h.citizenRequest("bad-"+strings.ReplaceAll(tc.name, " ", "-")+"@example.com", "29001015555555")
			tc.mutate(&req)
			_, err := h.svc.Register(context.Background(), req, RequestMeta{})
			if !pkgerrors.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	reg, err := h.svc.Register(ctx, h.citizenRequest("login@example.com", "29001016666666"), RequestMeta{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, err := h.svc.Login(ctx, LoginRequest{Email: "LOGIN@example.com", Password: goodPassword, RememberMe: true}, RequestMeta{IPAddress: "10.1.1.1", UserAgent: "curl"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Welcome.IsNewUser || resp.User.LastLoginAt == nil {
		t.Fatalf("unexpected login response %+v", resp)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if stored := h.sessions.sessions[claims.ID]; !stored.remember {
		t.Fatalf("expected remember_me to carry to the session")
	}

	var stored models.User
	if err := h.conn.First(&stored, "id = ?", reg.User.ID).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if stored.LastLoginIP == nil || *stored.LastLoginIP != "10.1.1.1" || stored.LastLoginAt == nil {
		t.Fatalf("expected login stamps, got %+v", stored)
	}

	last := h.tracker.attempts[len(h.tracker.attempts)-1]
	if !last.Success || last.Email != "login@example.com" || last.FailureReason != "" {
		t.Fatalf("unexpected attempt %+v", last)
	}
}

func TestLoginFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	reg, err := h.svc.Register(ctx, h.citizenRequest("fail@example.com", "29001017777777"), RequestMeta{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err = h.svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: goodPassword}, RequestMeta{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidCredentials) {
		t.Fatalf("expected INVALID_CREDENTIALS for unknown email, got %v", err)
	}
	_, err = h.svc.Login(ctx, LoginRequest{Email: "fail@example.com", Password: "Wrong1234"}, RequestMeta{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidCredentials) {
		t.Fatalf("expected INVALID_CREDENTIALS for wrong password, got %v", err)
	}

	if err := h.conn.Model(&models.User{}).Where("id = ?", reg.User.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err = h.svc.Login(ctx, LoginRequest{Email: "fail@example.com", Password: "Wrong1234"}, RequestMeta{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidCredentials) {
		t.Fatalf("inactive account with wrong password must look like bad credentials, got %v", err)
	}
	_, err = h.svc.Login(ctx, LoginRequest{Email: "fail@example.com", Password: goodPassword}, RequestMeta{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeAccountInactive) {
		t.Fatalf("expected ACCOUNT_INACTIVE, got %v", err)
	}

	reasons := []string{}
	for _, a := range h.tracker.attempts {
		if a.Success {
			t.Fatalf("no attempt should have succeeded: %+v", a)
		}
		if strings.Contains(a.FailureReason, goodPassword) || strings.Contains(a.FailureReason, "Wrong1234") {
			t.Fatalf("failure reason leaks the password: %q", a.FailureReason)
		}
		reasons = append(reasons, a.FailureReason)
	}
	want := []string{reasonUnknownEmail, reasonInvalidPassword, reasonInvalidPassword, reasonAccountInactive}
	if strings.Join(reasons, ",") != strings.Join(want, ",") {
		t.Fatalf("expected reasons %v, got %v", want, reasons)
	}
}

func TestRefreshRotatesAndLogoutRevokes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	reg, err := h.svc.Register(ctx, h.citizenRequest("rotate@example.com", "29001018888888"), RequestMeta{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	tokens, err := h.svc.Refresh(ctx, reg.Tokens.AccessToken, reg.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if tokens.RefreshToken == reg.Tokens.RefreshToken || tokens.AccessToken == reg.Tokens.AccessToken {
		t.Fatalf("expected a rotated pair")
	}
	if _, err := h.svc.Refresh(ctx, reg.Tokens.AccessToken, reg.Tokens.RefreshToken); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected old refresh token to be rejected, got %v", err)
	}
	if _, err := h.svc.Refresh(ctx, "garbage", tokens.RefreshToken); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected malformed access token to be rejected, got %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, tokens.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := h.svc.Logout(ctx, claims.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if h.sessions.has(claims.ID) {
		t.Fatalf("expected session to be revoked")
	}
	if len(h.tracker.deactivated) != 1 || h.tracker.deactivated[0] != claims.ID {
		t.Fatalf("expected tracked session deactivation, got %v", h.tracker.deactivated)
	}
	if err := h.svc.Logout(ctx, ""); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED for empty session, got %v", err)
	}
}

func TestStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	anon, err := h.svc.Status(ctx, uuid.Nil)
	if err != nil || anon.Authenticated || anon.User != nil {
		t.Fatalf("expected anonymous status, got %+v %v", anon, err)
	}
	reg, err := h.svc.Register(ctx, h.citizenRequest("status@example.com", "29001019999999"), RequestMeta{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	st, err := h.svc.Status(ctx, reg.User.ID)
	if err != nil || !st.Authenticated || st.User.Email != "status@example.com" {
		t.Fatalf("expected authenticated status, got %+v %v", st, err)
	}
	if st.EmailVerificationRequired || st.PhoneVerificationRequired {
		t.Fatalf("verification flags default to off, got %+v", st)
	}

	h.svc.(*service).flags.EmailVerificationRequired = true
	anon, err = h.svc.Status(ctx, uuid.Nil)
	if err != nil || !anon.EmailVerificationRequired || anon.PhoneVerificationRequired {
		t.Fatalf("expected the email verification flag on anonymous status, got %+v %v", anon, err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.svc.Register(ctx, h.citizenRequest("reset@example.com", "29001010000001"), RequestMeta{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := h.svc.RequestPasswordReset(ctx, PasswordResetRequest{Email: "ghost@example.com"}); err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
	if len(h.notifier.links) != 0 {
		t.Fatalf("unknown email must not send mail")
	}

	if err := h.svc.RequestPasswordReset(ctx, PasswordResetRequest{Email: "Reset@example.com"}); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if len(h.notifier.links) != 1 {
		t.Fatalf("expected one reset link, got %d", len(h.notifier.links))
	}
	token := strings.TrimPrefix(h.notifier.links[0], testPassword.ResetURLPrefix)
	if ttl := h.resets.ttls[h.resets.PasswordResetKey(token)]; ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %s", ttl)
	}

	weak := PasswordResetConfirmRequest{Token: token, NewPassword: "short", NewPasswordConfirmation: "short"}
	if err := h.svc.ConfirmPasswordReset(ctx, weak); !pkgerrors.IsCode(err, pkgerrors.CodeWeakPassword) {
		t.Fatalf("expected WEAK_PASSWORD, got %v", err)
	}

	confirm := PasswordResetConfirmRequest{Token: token, NewPassword: "NewSecret456", NewPasswordConfirmation: "NewSecret456"}
	if err := h.svc.ConfirmPasswordReset(ctx, confirm); err != nil {
		t.Fatalf("confirm reset: %v", err)
	}
	if err := h.svc.ConfirmPasswordReset(ctx, confirm); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected reused token to be rejected, got %v", err)
	}

	if _, err := h.svc.Login(ctx, LoginRequest{Email: "reset@example.com", Password: "NewSecret456"}, RequestMeta{}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := h.svc.Login(ctx, LoginRequest{Email: "reset@example.com", Password: goodPassword}, RequestMeta{}); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	reg, err := h.svc.Register(ctx, h.citizenRequest("change@example.com", "29001010000002"), RequestMeta{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, reg.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	_, err = h.svc.ChangePassword(ctx, reg.User.ID, claims.ID, PasswordChangeRequest{
		OldPassword: "Wrong1234", NewPassword: "Changed789", NewPasswordConfirmation: "Changed789",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR for wrong old password, got %v", err)
	}

	tokens, err := h.svc.ChangePassword(ctx, reg.User.ID, claims.ID, PasswordChangeRequest{
		OldPassword: goodPassword, NewPassword: "Changed789", NewPasswordConfirmation: "Changed789",
	})
	if err != nil {
		t.Fatalf("change password: %v", err)
	}
	if h.sessions.has(claims.ID) {
		t.Fatalf("expected the old session to be revoked")
	}
	if tokens.RefreshToken == "" {
		t.Fatalf("expected a fresh pair")
	}
	if _, err := h.svc.Login(ctx, LoginRequest{Email: "change@example.com", Password: "Changed789"}, RequestMeta{}); err != nil {
		t.Fatalf("login with changed password: %v", err)
	}
}

func TestNewWelcomeAddsElectoralAction(t *testing.T) {
	member := &models.User{FirstName: "سعاد", LastName: "علي", UserType: enums.UserTypeParliamentMember}
	w := NewWelcome(member, false)
	if w.IsNewUser || !strings.Contains(w.WelcomeMessage, "سعاد علي") {
		t.Fatalf("unexpected welcome %+v", w)
	}
	if len(w.AvailableActions) != len(commonActions)+1 {
		t.Fatalf("expected electoral action for members, got %d actions", len(w.AvailableActions))
	}

	citizen := &models.User{FirstName: "منى", UserType: enums.UserTypeCitizen}
	if got := NewWelcome(citizen, true); len(got.AvailableActions) != len(commonActions) || !got.IsNewUser {
		t.Fatalf("unexpected citizen welcome %+v", got)
	}
}

func TestLoginUpgradesStaleHash(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	reg, err := h.svc.Register(ctx, h.citizenRequest("rehash@example.com", "29001018888888"), RequestMeta{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	older := testPassword
	older.ArgonTime = 2
	stale, err := security.HashPassword(goodPassword, older)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := h.conn.Model(&models.User{}).Where("id = ?", reg.User.ID).Update("password_hash", stale).Error; err != nil {
		t.Fatalf("seed stale hash: %v", err)
	}

	if _, err := h.svc.Login(ctx, LoginRequest{Email: "rehash@example.com", Password: goodPassword}, RequestMeta{}); err != nil {
		t.Fatalf("login: %v", err)
	}

	var stored models.User
	if err := h.conn.First(&stored, "id = ?", reg.User.ID).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if stored.PasswordHash == stale || security.NeedsRehash(stored.PasswordHash, testPassword) {
		t.Fatalf("expected hash upgraded to current params, got %q", stored.PasswordHash)
	}
	if ok, _ := security.VerifyPassword(goodPassword, stored.PasswordHash); !ok {
		t.Fatal("upgraded hash must still verify")
	}
}

func TestRegisterStoresPhoneNumber(t *testing.T) {
	h := newHarness(t)
	req := h.citizenRequest("phone@example.com", "29001010000003")
	req.Phone = ptr(" 01012345678 ")

	resp, err := h.svc.Register(context.Background(), req, RequestMeta{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Phone == nil || *resp.User.Phone != "01012345678" {
		t.Fatalf("expected trimmed phone number, got %v", resp.User.Phone)
	}
}

func TestConcurrentRegisterSameEmail(t *testing.T) {
	h := newHarness(t)
	// Shared-cache SQLite reports table locks instead of waiting, so the
	// two transactions queue on a single connection.
	sqlDB, err := h.conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	nids := []string{"29001010000004", "29001010000005"}
	errs := make([]error, len(nids))
	var wg sync.WaitGroup
	for i, nid := range nids {
		wg.Add(1)
		go func(i int, nid string) {
			defer wg.Done()
			_, errs[i] = h.svc.Register(context.Background(), h.citizenRequest("race@example.com", nid), RequestMeta{})
		}(i, nid)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case pkgerrors.IsCode(err, pkgerrors.CodeDuplicateAccount):
			dup++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 || dup != 1 {
		t.Fatalf("expected one winner and one duplicate, got %d ok %d duplicate", ok, dup)
	}
	if n := h.countUsers(t, "race@example.com"); n != 1 {
		t.Fatalf("expected a single user, got %d", n)
	}
}

func TestLoginLocksOutAfterRepeatedFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.svc.Register(ctx, h.citizenRequest("locked@example.com", "29001010000006"), RequestMeta{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	h.svc.(*service).lockout = config.LockoutConfig{MaxAttempts: 3, Window: 30 * time.Minute}

	for i := 0; i < 3; i++ {
		_, err := h.svc.Login(ctx, LoginRequest{Email: "locked@example.com", Password: "Wrong1234"}, RequestMeta{})
		if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidCredentials) {
			t.Fatalf("attempt %d: expected INVALID_CREDENTIALS, got %v", i+1, err)
		}
	}
	_, err := h.svc.Login(ctx, LoginRequest{Email: "Locked@example.com", Password: goodPassword}, RequestMeta{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeRateLimit) {
		t.Fatalf("expected RATE_LIMIT_EXCEEDED while locked out, got %v", err)
	}
	if len(h.tracker.attempts) != 3 {
		t.Fatalf("locked out attempts must not extend the lockout, got %d rows", len(h.tracker.attempts))
	}

	if _, err := h.svc.Login(ctx, LoginRequest{Email: "other@example.com", Password: goodPassword}, RequestMeta{}); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidCredentials) {
		t.Fatalf("lockout is per email, got %v", err)
	}
}

func TestLoginUnknownEmailVerifiesDecoyHash(t *testing.T) {
	h := newHarness(t)
	svc := h.svc.(*service)
	if ok, err := security.VerifyPassword(decoyPassword, svc.dummyHash); err != nil || !ok {
		t.Fatalf("decoy hash must be a valid argon2 hash: %v", err)
	}

	var verified []string
	svc.verify = func(password, encoded string) (bool, error) {
		verified = append(verified, encoded)
		return security.VerifyPassword(password, encoded)
	}
	_, err := h.svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: goodPassword}, RequestMeta{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidCredentials) {
		t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
	}
	if len(verified) != 1 || verified[0] != svc.dummyHash {
		t.Fatalf("expected one verification against the decoy hash, got %v", verified)
	}
}

func TestPasswordResetSignsOutEverywhere(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	reg, err := h.svc.Register(ctx, h.citizenRequest("everywhere@example.com", "29001010000007"), RequestMeta{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, reg.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	h.tracker.activeKeys = []string{claims.ID}

	if err := h.svc.RequestPasswordReset(ctx, PasswordResetRequest{Email: "everywhere@example.com"}); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	token := strings.TrimPrefix(h.notifier.links[0], testPassword.ResetURLPrefix)
	confirm := PasswordResetConfirmRequest{Token: token, NewPassword: "NewSecret456", NewPasswordConfirmation: "NewSecret456"}
	if err := h.svc.ConfirmPasswordReset(ctx, confirm); err != nil {
		t.Fatalf("confirm reset: %v", err)
	}

	if h.sessions.has(claims.ID) {
		t.Fatal("expected the tracked session to be revoked")
	}
	if len(h.tracker.deactivated) != 1 || h.tracker.deactivated[0] != claims.ID {
		t.Fatalf("expected tracked session deactivation, got %v", h.tracker.deactivated)
	}
	if _, err := h.svc.Refresh(ctx, reg.Tokens.AccessToken, reg.Tokens.RefreshToken); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected the old pair to stop refreshing, got %v", err)
	}
}

func TestRefreshRejectsTokensIssuedBeforePasswordChange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := h.svc.(*service)
	base := time.Now().UTC().Truncate(time.Second)
	svc.now = func() time.Time { return base }

	reg, err := h.svc.Register(ctx, h.citizenRequest("stale@example.com", "29001010000008"), RequestMeta{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	other, err := h.svc.Login(ctx, LoginRequest{Email: "stale@example.com", Password: goodPassword}, RequestMeta{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	regClaims, err := pkgAuth.ParseAccessToken(testJWT, reg.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	svc.now = func() time.Time { return base.Add(2 * time.Second) }
	fresh, err := h.svc.ChangePassword(ctx, reg.User.ID, regClaims.ID, PasswordChangeRequest{
		OldPassword: goodPassword, NewPassword: "Changed789", NewPasswordConfirmation: "Changed789",
	})
	if err != nil {
		t.Fatalf("change password: %v", err)
	}

	revokedBefore := len(h.sessions.revoked)
	if _, err := h.svc.Refresh(ctx, other.Tokens.AccessToken, other.Tokens.RefreshToken); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected a pre-change session to be refused, got %v", err)
	}
	if len(h.sessions.revoked) != revokedBefore+1 {
		t.Fatalf("expected the rotated session to be dropped")
	}

	if _, err := h.svc.Refresh(ctx, fresh.AccessToken, fresh.RefreshToken); err != nil {
		t.Fatalf("pair issued with the change must refresh: %v", err)
	}
}
