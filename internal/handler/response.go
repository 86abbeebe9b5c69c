package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/ledgerman/internal/model"
)

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// insufficientBalanceResponse は残高不足エラーのレスポンス。
// フロントエンドが不足額を提示できるよう、利用可能額と必要額を含む。
type insufficientBalanceResponse struct {
	apiErrorResponse
	Available string `json:"available"`
	Required  string `json:"required"`
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// 残高不足エラーは利用可能額・必要額付きの422で返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var insufficient *model.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		apiErr := insufficient.APIError()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(insufficientBalanceResponse{
			apiErrorResponse: apiErrorResponse{
				Code:     apiErr.Code,
				Message:  apiErr.Message,
				Category: apiErr.Category,
				Action:   apiErr.Action,
			},
			Available: insufficient.Available.StringFixed(2),
			Required:  insufficient.Required.StringFixed(2),
		})
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInsufficientBalance:
		return http.StatusUnprocessableEntity
	case model.ErrCodeInvalidAmount, model.ErrCodeInvalidTransfer,
		model.ErrCodeInvalidStatus, model.ErrCodeSameAccount:
		return http.StatusBadRequest
	case model.ErrCodeTransferNotFound, model.ErrCodeAccountNotFound,
		model.ErrCodeBalanceNotFound:
		return http.StatusNotFound
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeUnauthorized は401の統一レスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
}
