// Package ledger は送金台帳のドメインロジックを提供する。
// ストアの台帳を信頼の源泉とし、メモリ上の射影をそれに追従させる。
package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/ledgerman/internal/model"
)

// BalanceReader は残高の読み取りインターフェース。
type BalanceReader interface {
	BalanceByAccountID(ctx context.Context, id string) (decimal.Decimal, error)
}

// BalanceGuard は送金作成前の残高チェックを行う。
// 最終的な残高不変条件はストアのCHECK制約が強制するため、
// このガードは無駄な書き込みを避けるための事前検査にすぎない。
type BalanceGuard struct {
	balances BalanceReader
}

// NewBalanceGuard はBalanceGuardを生成する。
func NewBalanceGuard(balances BalanceReader) *BalanceGuard {
	return &BalanceGuard{balances: balances}
}

// Check は送金元の現在残高が送金額を満たすかを検査する。
// 残高不足の場合は利用可能額と必要額を持つInsufficientBalanceErrorを返す。
// 残高レコードが存在しない、または読み取りに失敗した場合はそのエラーを返す。
func (g *BalanceGuard) Check(ctx context.Context, senderAccountID string, amount decimal.Decimal) error {
	available, err := g.balances.BalanceByAccountID(ctx, senderAccountID)
	if err != nil {
		return fmt.Errorf("送金元残高の確認に失敗しました: %w", err)
	}
	if available.LessThan(amount) {
		return model.NewInsufficientBalanceError(available, amount)
	}
	return nil
}
