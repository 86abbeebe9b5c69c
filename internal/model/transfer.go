package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus は送金のライフサイクル状態。
type TransferStatus string

const (
	// TransferStatusPending は承認待ちの送金。残高にはまだ反映されない。
	TransferStatusPending TransferStatus = "pending"
	// TransferStatusCompleted は確定済みの送金。ストアが残高へ反映する。
	TransferStatusCompleted TransferStatus = "completed"
	// TransferStatusCancelled は取り消された送金。
	TransferStatusCancelled TransferStatus = "cancelled"
)

// ParseTransferStatus は文字列をTransferStatusに変換する。
func ParseTransferStatus(s string) (TransferStatus, bool) {
	switch TransferStatus(s) {
	case TransferStatusPending, TransferStatusCompleted, TransferStatusCancelled:
		return TransferStatus(s), true
	default:
		return "", false
	}
}

// Transfer はアカウント間の送金記録（台帳エントリ）を表す。
// 耐久性のある記録はリモートストアが所有し、Amountの残高への影響も
// ストアが単一の真実として適用する。SenderとReceiverは読み取り時に
// JOINされるアカウント概要で、参照先が存在しない場合はnilになり得る
// （参照整合性の強制はストアの責務）。
type Transfer struct {
	ID         string
	SenderID   string
	ReceiverID string
	Reason     string
	Amount     decimal.Decimal
	Status     TransferStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Sender     *Account
	Receiver   *Account
}

// Validate は送金リクエストの静的な制約を検証する。
// 残高との比較はここでは行わない（BalanceGuardの責務）。
func (t *Transfer) Validate() error {
	if t.SenderID == "" || t.ReceiverID == "" {
		return NewInvalidTransferError("送金元と送金先の両方を指定してください")
	}
	if t.SenderID == t.ReceiverID {
		return NewSameAccountError()
	}
	if !t.Amount.IsPositive() {
		return NewInvalidAmountError(t.Amount)
	}
	if t.Status != "" {
		if _, ok := ParseTransferStatus(string(t.Status)); !ok {
			return NewInvalidStatusError(string(t.Status))
		}
	}
	return nil
}
