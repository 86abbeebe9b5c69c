// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account は送金に参加するアカウントを表す。
// Balanceはuser_balancesリレーションから読み取り時にJOINされる導出値であり、
// コアが直接書き込むことはない。残高を変更できるのはストア側の送金確定処理のみ。
type Account struct {
	ID          string
	Email       string
	DisplayName string
	Roles       []Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Balance     decimal.Decimal
}

// Identity は外部IdPとの紐付け情報を表す。
// 複数のIdP（Google, GitHub等）に対応可能な構造。
type Identity struct {
	ID             string
	AccountID      string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はアカウントのログインセッションを表す。
type Session struct {
	ID        string
	AccountID string
	ExpiresAt time.Time
	CreatedAt time.Time
}
