package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/ledgerman/internal/middleware"
	"github.com/hitoshi/ledgerman/internal/model"
	"github.com/hitoshi/ledgerman/internal/repository"
)

// DirectoryServiceInterface はアカウントハンドラーが必要とするサービスインターフェース。
type DirectoryServiceInterface interface {
	// Accounts はキャッシュの全アカウントをcreated_at昇順で返す。
	Accounts() []model.Account
	// Update はプロフィールの部分パッチを永続化し、更新後のアカウントを返す。
	Update(ctx context.Context, id string, patch repository.ProfilePatch) (*model.Account, error)
}

// AccountHandler はアカウントディレクトリのHTTPハンドラー。
type AccountHandler struct {
	service DirectoryServiceInterface
}

// NewAccountHandler はAccountHandlerを生成する。
func NewAccountHandler(service DirectoryServiceInterface) *AccountHandler {
	return &AccountHandler{
		service: service,
	}
}

// accountResponse はアカウント情報のAPIレスポンス。残高は小数2桁の文字列。
type accountResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Roles       []string  `json:"roles"`
	Balance     string    `json:"balance"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// updateProfileRequest はプロフィール更新リクエストのボディ。nilフィールドは変更しない。
// 残高は更新できない（残高を変更できるのはストアの送金反映のみ）。
type updateProfileRequest struct {
	DisplayName *string  `json:"display_name"`
	Roles       []string `json:"roles"`
}

// ListAccounts は全アカウントを残高付きで返す。
// GET /api/accounts
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.PrincipalFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	accounts := h.service.Accounts()
	responses := make([]accountResponse, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, toAccountResponse(&accounts[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// UpdateProfile はアカウントのプロフィールを部分更新する。マネージャー専用ルート。
// PATCH /api/accounts/:id
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	patch := repository.ProfilePatch{DisplayName: req.DisplayName}

	if req.Roles != nil {
		roles := make([]model.Role, 0, len(req.Roles))
		for _, s := range req.Roles {
			role, ok := model.ParseRole(s)
			if !ok {
				writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
					Code:     "INVALID_ROLE",
					Message:  "不明なロールが指定されました: " + s,
					Category: "validation",
					Action:   "user または manager を指定してください。",
				})
				return
			}
			roles = append(roles, role)
		}
		patch.Roles = roles
	}

	updated, err := h.service.Update(r.Context(), accountID, patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toAccountResponse(updated))
}

// toAccountResponse はmodel.AccountをAPIレスポンスに変換する。
func toAccountResponse(a *model.Account) accountResponse {
	return accountResponse{
		ID:          a.ID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Roles:       model.RoleStrings(a.Roles),
		Balance:     a.Balance.StringFixed(2),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
