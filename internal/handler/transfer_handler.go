package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/ledgerman/internal/ledger"
	"github.com/hitoshi/ledgerman/internal/middleware"
	"github.com/hitoshi/ledgerman/internal/model"
	"github.com/hitoshi/ledgerman/internal/repository"
)

// LedgerServiceInterface は送金ハンドラーが必要とするサービスインターフェース。
type LedgerServiceInterface interface {
	// Transfers は射影の全送金をcreated_at降順で返す。
	Transfers() []model.Transfer
	// Create は送金を検証・永続化し、作成されたレコードを返す。
	Create(ctx context.Context, input ledger.CreateTransferInput) (*model.Transfer, error)
	// Update は部分パッチを永続化し、更新後のレコードを返す。
	Update(ctx context.Context, id string, patch repository.TransferPatch) (*model.Transfer, error)
	// Delete は送金を削除する。
	Delete(ctx context.Context, id string) error
}

// TransferHandler は送金台帳のHTTPハンドラー。
type TransferHandler struct {
	service LedgerServiceInterface
}

// NewTransferHandler はTransferHandlerを生成する。
func NewTransferHandler(service LedgerServiceInterface) *TransferHandler {
	return &TransferHandler{
		service: service,
	}
}

// partyResponse は送金に含まれる当事者アカウントの概要。
type partyResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// transferResponse は送金情報のAPIレスポンス。金額は小数2桁の文字列。
type transferResponse struct {
	ID         string         `json:"id"`
	SenderID   string         `json:"sender_id"`
	ReceiverID string         `json:"receiver_id"`
	Reason     string         `json:"reason"`
	Amount     string         `json:"amount"`
	Status     string         `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Sender     *partyResponse `json:"sender,omitempty"`
	Receiver   *partyResponse `json:"receiver,omitempty"`
}

// createTransferRequest は送金作成リクエストのボディ。
// sender_idを省略した場合はログイン中のアカウントが送金元になる。
type createTransferRequest struct {
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Reason     string `json:"reason"`
	Amount     string `json:"amount"`
	Status     string `json:"status"`
}

// updateTransferRequest は送金更新リクエストのボディ。nilフィールドは変更しない。
type updateTransferRequest struct {
	Reason *string `json:"reason"`
	Amount *string `json:"amount"`
	Status *string `json:"status"`
}

// ListTransfers はロールに応じて絞り込んだ送金一覧を返す。
// マネージャーは全件、一般ユーザーは自分が関与する送金のみ。
// GET /api/transfers
func (h *TransferHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	visible := ledger.Visible(h.service.Transfers(), principal)

	responses := make([]transferResponse, 0, len(visible))
	for i := range visible {
		responses = append(responses, toTransferResponse(&visible[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// CreateTransfer は送金を作成する。
// 一般ユーザーは自分のアカウントからの送金のみ作成できる。
// POST /api/transfers
func (h *TransferHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	senderID := req.SenderID
	if senderID == "" {
		senderID = principal.ID
	}
	// 他人のアカウントからの送金はモデレーション権限が必要
	if senderID != principal.ID && !principal.CanModerateTransfers() {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidAmountError(decimal.Zero))
		return
	}

	created, err := h.service.Create(r.Context(), ledger.CreateTransferInput{
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Reason:     req.Reason,
		Amount:     amount,
		Status:     model.TransferStatus(req.Status),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toTransferResponse(created))
}

// UpdateTransfer は送金を部分更新する。マネージャー専用ルート。
// PATCH /api/transfers/:id
func (h *TransferHandler) UpdateTransfer(w http.ResponseWriter, r *http.Request) {
	transferID := chi.URLParam(r, "id")

	var req updateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	patch := repository.TransferPatch{Reason: req.Reason}

	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil || !amount.IsPositive() {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidAmountError(amount))
			return
		}
		patch.Amount = &amount
	}

	if req.Status != nil {
		status, ok := model.ParseTransferStatus(*req.Status)
		if !ok {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidStatusError(*req.Status))
			return
		}
		patch.Status = &status
	}

	updated, err := h.service.Update(r.Context(), transferID, patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTransferResponse(updated))
}

// DeleteTransfer は送金を削除する。マネージャー専用ルート。
// DELETE /api/transfers/:id
func (h *TransferHandler) DeleteTransfer(w http.ResponseWriter, r *http.Request) {
	transferID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), transferID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toTransferResponse はmodel.TransferをAPIレスポンスに変換する。
func toTransferResponse(t *model.Transfer) transferResponse {
	resp := transferResponse{
		ID:         t.ID,
		SenderID:   t.SenderID,
		ReceiverID: t.ReceiverID,
		Reason:     t.Reason,
		Amount:     t.Amount.StringFixed(2),
		Status:     string(t.Status),
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
	if t.Sender != nil {
		resp.Sender = &partyResponse{
			ID:          t.Sender.ID,
			Email:       t.Sender.Email,
			DisplayName: t.Sender.DisplayName,
		}
	}
	if t.Receiver != nil {
		resp.Receiver = &partyResponse{
			ID:          t.Receiver.ID,
			Email:       t.Receiver.Email,
			DisplayName: t.Receiver.DisplayName,
		}
	}
	return resp
}
