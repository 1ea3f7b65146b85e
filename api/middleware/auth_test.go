package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/naebak/naebak-auth-service/pkg/auth"
	"github.com/naebak/naebak-auth-service/pkg/auth/session"
	"github.com/naebak/naebak-auth-service/pkg/config"
	"github.com/naebak/naebak-auth-service/pkg/enums"
	pkgerrors "github.com/naebak/naebak-auth-service/pkg/errors"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "naebak-auth-service", ExpirationMinutes: 60, RefreshTokenTTLMinutes: 120}

func captureHandler(captured *Principal, found *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured, *found = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateLeavesAnonymousWithoutToken(t *testing.T) {
	var p Principal
	var found bool
	handler := Authenticate(testJWT, stubSessionVerifier{ok: true}, nil)(captureHandler(&p, &found))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusOK || found {
		t.Fatalf("expected anonymous pass-through, got %d found=%v", resp.Code, found)
	}
}

func TestAuthenticateIgnoresInvalidToken(t *testing.T) {
	var p Principal
	var found bool
	handler := Authenticate(testJWT, stubSessionVerifier{ok: true}, nil)(captureHandler(&p, &found))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || found {
		t.Fatalf("expected anonymous pass-through, got %d found=%v", resp.Code, found)
	}
}

func TestAuthenticateResolvesPrincipal(t *testing.T) {
	userID := uuid.New()
	token, jti := mintTestToken(t, userID, enums.UserTypeParliamentCandidate, enums.VerificationStatusPending)

	var p Principal
	var found bool
	handler := Authenticate(testJWT, stubSessionVerifier{ok: true}, nil)(captureHandler(&p, &found))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if !found {
		t.Fatal("expected principal in context")
	}
	if p.UserID != userID || p.SessionID != jti {
		t.Fatalf("unexpected principal %+v", p)
	}
	if p.UserType != enums.UserTypeParliamentCandidate || p.VerificationStatus != enums.VerificationStatusPending {
		t.Fatalf("unexpected claims %+v", p)
	}
}

func TestAuthenticateAcceptsBareToken(t *testing.T) {
	token, _ := mintTestToken(t, uuid.New(), enums.UserTypeCitizen, enums.VerificationStatusVerified)

	var p Principal
	var found bool
	handler := Authenticate(testJWT, nil, nil)(captureHandler(&p, &found))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !found {
		t.Fatal("expected principal for bare token")
	}
}

func TestAuthenticateDropsRevokedOrUncheckableSession(t *testing.T) {
	token, _ := mintTestToken(t, uuid.New(), enums.UserTypeCitizen, enums.VerificationStatusVerified)

	for name, verifier := range map[string]stubSessionVerifier{
		"revoked":     {ok: false},
		"store error": {err: errors.New("redis down")},
	} {
		t.Run(name, func(t *testing.T) {
			var p Principal
			var found bool
			handler := Authenticate(testJWT, verifier, nil)(captureHandler(&p, &found))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != http.StatusOK || found {
				t.Fatalf("expected anonymous, got %d found=%v", resp.Code, found)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	handler := RequireAuth(nil)(ok)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != string(pkgerrors.CodeAuthenticationRequired) {
		t.Fatalf("unexpected code %s", code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req = req.WithContext(WithPrincipal(req.Context(), Principal{UserID: uuid.New(), SessionID: "s"}))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
}

func mintTestToken(t *testing.T, userID uuid.UUID, userType enums.UserType, status enums.VerificationStatus) (string, string) {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := auth.MintAccessToken(testJWT, time.Now(), auth.AccessTokenPayload{
		UserID:             userID,
		UserType:           userType,
		VerificationStatus: status,
		JTI:                accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token, accessID
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload.Error.Code
}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(ctx context.Context, accessID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.ok, nil
}
