// Package model はドメインモデルを定義する。
package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, business, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrCodeInvalidAmount       = "INVALID_AMOUNT"
	ErrCodeInvalidTransfer     = "INVALID_TRANSFER"
	ErrCodeInvalidStatus       = "INVALID_STATUS"
	ErrCodeSameAccount         = "SAME_ACCOUNT"
	ErrCodeTransferNotFound    = "TRANSFER_NOT_FOUND"
	ErrCodeAccountNotFound     = "ACCOUNT_NOT_FOUND"
	ErrCodeBalanceNotFound     = "BALANCE_NOT_FOUND"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
)

// InsufficientBalanceError は残高不足による送金拒否を表す。
// 利用可能額と必要額を保持し、ユーザーが対処可能なエラーとして提示する。
type InsufficientBalanceError struct {
	Available decimal.Decimal
	Required  decimal.Decimal
}

// Error はerrorインターフェースを実装する。
func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("残高が不足しています。利用可能: %s、必要: %s",
		e.Available.StringFixed(2), e.Required.StringFixed(2))
}

// APIError は残高不足を統一エラーフォーマットに変換する。
func (e *InsufficientBalanceError) APIError() *APIError {
	return &APIError{
		Code:     ErrCodeInsufficientBalance,
		Message:  e.Error(),
		Category: "business",
		Action:   "送金額を利用可能残高以下にするか、入金を待ってから再度お試しください。",
	}
}

// NewInsufficientBalanceError は残高不足エラーを生成する。
func NewInsufficientBalanceError(available, required decimal.Decimal) *InsufficientBalanceError {
	return &InsufficientBalanceError{Available: available, Required: required}
}

// NewInvalidAmountError は送金額が正でない場合のエラーを生成する。
func NewInvalidAmountError(amount decimal.Decimal) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAmount,
		Message:  fmt.Sprintf("無効な送金額です: %s", amount.String()),
		Category: "validation",
		Action:   "送金額には0より大きい値を指定してください。",
	}
}

// NewInvalidTransferError は送金リクエストの形式不備エラーを生成する。
func NewInvalidTransferError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTransfer,
		Message:  fmt.Sprintf("無効な送金リクエストです: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認して再度お試しください。",
	}
}

// NewSameAccountError は自分自身への送金エラーを生成する。
func NewSameAccountError() *APIError {
	return &APIError{
		Code:     ErrCodeSameAccount,
		Message:  "送金元と送金先に同じアカウントは指定できません。",
		Category: "validation",
		Action:   "異なる送金先アカウントを選択してください。",
	}
}

// NewInvalidStatusError は未知の送金ステータスエラーを生成する。
func NewInvalidStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("無効な送金ステータスです: %s", status),
		Category: "validation",
		Action:   "ステータスには pending、completed、cancelled のいずれかを指定してください。",
	}
}

// NewTransferNotFoundError は送金が見つからない場合のエラーを生成する。
func NewTransferNotFoundError(transferID string) *APIError {
	return &APIError{
		Code:     ErrCodeTransferNotFound,
		Message:  fmt.Sprintf("指定された送金が見つかりません: %s", transferID),
		Category: "business",
		Action:   "送金一覧を再読み込みして最新の状態を確認してください。",
	}
}

// NewAccountNotFoundError はアカウントが見つからない場合のエラーを生成する。
func NewAccountNotFoundError(accountID string) *APIError {
	return &APIError{
		Code:     ErrCodeAccountNotFound,
		Message:  fmt.Sprintf("指定されたアカウントが見つかりません: %s", accountID),
		Category: "business",
		Action:   "アカウントIDを確認してください。",
	}
}

// NewBalanceNotFoundError は残高レコードが見つからない場合のエラーを生成する。
// 残高レコードはアカウント作成時にストアが必ず作成するため、通常は発生しない。
func NewBalanceNotFoundError(accountID string) *APIError {
	return &APIError{
		Code:     ErrCodeBalanceNotFound,
		Message:  fmt.Sprintf("アカウントの残高レコードが見つかりません: %s", accountID),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。解決しない場合は管理者に連絡してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作にはマネージャー権限が必要です。",
		Category: "auth",
		Action:   "マネージャー権限を持つアカウントでログインしてください。",
	}
}
