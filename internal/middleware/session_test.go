package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/ledgerman/internal/model"
)

type mockSessionFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return m.findByIDFn(ctx, id)
}

type mockAccountFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Account, error)
}

func (m *mockAccountFinder) FindByID(ctx context.Context, id string) (*model.Account, error) {
	return m.findByIDFn(ctx, id)
}

func validSessionFinder(accountID string) *mockSessionFinder {
	return &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, AccountID: accountID, ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
}

func accountFinderWithRoles(roles ...model.Role) *mockAccountFinder {
	return &mockAccountFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Account, error) {
			return &model.Account{ID: id, Roles: roles}, nil
		},
	}
}

func TestSessionMiddleware_InjectsPrincipal(t *testing.T) {
	mw := NewSessionMiddleware(validSessionFinder("acct-1"), accountFinderWithRoles(model.RoleUser, model.RoleManager))

	var got *model.Principal
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := PrincipalFromContext(r.Context())
		if err != nil {
			t.Fatalf("PrincipalFromContext() error = %v", err)
		}
		got = principal
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/transfers", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess-1"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got == nil || got.ID != "acct-1" {
		t.Fatalf("principal = %v, want ID acct-1", got)
	}
	if !got.CanModerateTransfers() {
		t.Error("principal should carry the manager role")
	}
}

func TestSessionMiddleware_Unauthorized(t *testing.T) {
	tests := []struct {
		name          string
		sessionFinder SessionFinder
		accountFinder AccountFinder
		withCookie    bool
	}{
		{
			name:          "Cookieなし",
			sessionFinder: validSessionFinder("acct-1"),
			accountFinder: accountFinderWithRoles(model.RoleUser),
			withCookie:    false,
		},
		{
			name: "セッションが見つからない",
			sessionFinder: &mockSessionFinder{
				findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
					return nil, nil
				},
			},
			accountFinder: accountFinderWithRoles(model.RoleUser),
			withCookie:    true,
		},
		{
			name: "セッション検索エラー",
			sessionFinder: &mockSessionFinder{
				findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
					return nil, errors.New("db error")
				},
			},
			accountFinder: accountFinderWithRoles(model.RoleUser),
			withCookie:    true,
		},
		{
			name:          "アカウントが見つからない",
			sessionFinder: validSessionFinder("acct-gone"),
			accountFinder: &mockAccountFinder{
				findByIDFn: func(ctx context.Context, id string) (*model.Account, error) {
					return nil, nil
				},
			},
			withCookie: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := NewSessionMiddleware(tt.sessionFinder, tt.accountFinder)
			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be reached")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/transfers", nil)
			if tt.withCookie {
				req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess-1"})
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestManagerGuardMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		principal  *model.Principal
		wantStatus int
	}{
		{
			name:       "マネージャーは通過する",
			principal:  &model.Principal{ID: "acct-1", Roles: []model.Role{model.RoleManager}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "一般ユーザーは403",
			principal:  &model.Principal{ID: "acct-2", Roles: []model.Role{model.RoleUser}},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "ロールなしは403",
			principal:  &model.Principal{ID: "acct-3"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "プリンシパルなしは401",
			principal:  nil,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := NewManagerGuardMiddleware()
			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodDelete, "/api/transfers/t-1", nil)
			if tt.principal != nil {
				req = req.WithContext(ContextWithPrincipal(req.Context(), tt.principal))
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestPrincipalFromContext_Missing(t *testing.T) {
	if _, err := PrincipalFromContext(context.Background()); err == nil {
		t.Error("expected error for missing principal")
	}
}
