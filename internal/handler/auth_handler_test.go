package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/ledgerman/internal/model"
)

// mockAuthService はテスト用の認証サービスモック。
type mockAuthService struct {
	getLoginURLFn       func(state string) string
	handleCallbackFn    func(ctx context.Context, code string) (*model.Session, error)
	logoutFn            func(ctx context.Context, sessionID string) error
	getCurrentAccountFn func(ctx context.Context, sessionID string) (*model.Account, error)
}

func (m *mockAuthService) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, code)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) GetCurrentAccount(ctx context.Context, sessionID string) (*model.Account, error) {
	if m.getCurrentAccountFn != nil {
		return m.getCurrentAccountFn(ctx, sessionID)
	}
	return nil, nil
}

var _ AuthServiceInterface = (*mockAuthService)(nil)

func testAuthConfig() AuthHandlerConfig {
	return AuthHandlerConfig{
		BaseURL:       "http://localhost:5173",
		CookieSecure:  false,
		SessionMaxAge: 86400,
	}
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthLogin(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/google/login", nil)
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rec.Code)
	}

	stateCookie := findCookie(rec.Result().Cookies(), oauthStateCookie)
	if stateCookie == nil || stateCookie.Value == "" {
		t.Fatal("oauth state cookie should be set")
	}
	if !stateCookie.HttpOnly {
		t.Error("oauth state cookie should be HttpOnly")
	}

	// リダイレクト先のstateとCookieのstateが一致すること
	location := rec.Header().Get("Location")
	if location == "" {
		t.Fatal("Location header should be set")
	}
	wantSuffix := "state=" + stateCookie.Value
	if location[len(location)-len(wantSuffix):] != wantSuffix {
		t.Errorf("redirect URL %s should carry state %s", location, stateCookie.Value)
	}
}

func TestAuthCallback_Success(t *testing.T) {
	var gotCode string
	svc := &mockAuthService{
		handleCallbackFn: func(ctx context.Context, code string) (*model.Session, error) {
			gotCode = code
			return &model.Session{
				ID:        "sess-1",
				AccountID: "a-1",
				ExpiresAt: time.Now().Add(24 * time.Hour),
			}, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=auth-code&state=state-1", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "state-1"})
	rec := httptest.NewRecorder()
	h.Callback(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307, body: %s", rec.Code, rec.Body.String())
	}
	if gotCode != "auth-code" {
		t.Errorf("code = %s, want auth-code", gotCode)
	}

	sessionCookie := findCookie(rec.Result().Cookies(), sessionCookieName)
	if sessionCookie == nil || sessionCookie.Value != "sess-1" {
		t.Fatal("session cookie should be set to the new session ID")
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}

	if got := rec.Header().Get("Location"); got != "http://localhost:5173" {
		t.Errorf("redirect location = %s, want http://localhost:5173", got)
	}
}

func TestAuthCallback_StateMismatch(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{
		handleCallbackFn: func(ctx context.Context, code string) (*model.Session, error) {
			t.Fatal("callback should not be processed with a mismatched state")
			return nil, nil
		},
	}, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=auth-code&state=evil", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "state-1"})
	rec := httptest.NewRecorder()
	h.Callback(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAuthCallback_MissingCode(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=state-1", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "state-1"})
	rec := httptest.NewRecorder()
	h.Callback(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAuthCallback_ServiceError(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{
		handleCallbackFn: func(ctx context.Context, code string) (*model.Session, error) {
			return nil, errors.New("exchange failed")
		},
	}, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=auth-code&state=state-1", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "state-1"})
	rec := httptest.NewRecorder()
	h.Callback(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestAuthLogout(t *testing.T) {
	var loggedOut string
	h := NewAuthHandler(&mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			loggedOut = sessionID
			return nil
		},
	}, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess-1"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rec.Code)
	}
	if loggedOut != "sess-1" {
		t.Errorf("logged out session = %s, want sess-1", loggedOut)
	}

	cleared := findCookie(rec.Result().Cookies(), sessionCookieName)
	if cleared == nil || cleared.MaxAge != -1 {
		t.Error("session cookie should be cleared")
	}
}

func TestAuthMe(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{
		getCurrentAccountFn: func(ctx context.Context, sessionID string) (*model.Account, error) {
			if sessionID != "sess-1" {
				return nil, errors.New("session not found")
			}
			return &model.Account{
				ID:          "a-1",
				Email:       "tanaka@example.com",
				DisplayName: "田中",
				Roles:       []model.Role{model.RoleUser, model.RoleManager},
			}, nil
		},
	}, testAuthConfig())

	t.Run("ログイン済み", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess-1"})
		rec := httptest.NewRecorder()
		h.Me(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp struct {
			ID    string   `json:"id"`
			Email string   `json:"email"`
			Roles []string `json:"roles"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.ID != "a-1" || resp.Email != "tanaka@example.com" {
			t.Errorf("unexpected account: %+v", resp)
		}
		if len(resp.Roles) != 2 || resp.Roles[1] != "manager" {
			t.Errorf("roles = %v, want [user manager]", resp.Roles)
		}
	})

	t.Run("Cookieなし", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		rec := httptest.NewRecorder()
		h.Me(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("無効なセッション", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess-expired"})
		rec := httptest.NewRecorder()
		h.Me(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}
