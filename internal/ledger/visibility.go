package ledger

import (
	"errors"

	"github.com/hitoshi/ledgerman/internal/model"
)

// Visible は閲覧者のロールに応じて送金一覧を絞り込んだ新しいスライスを返す。
// 全送金閲覧権限を持つ閲覧者には全件、それ以外には自分が送金元または
// 送金先である送金のみを返す。入力の並び順は保存され、入力は変更されない。
// 閲覧者がnilの場合は空を返す。
func Visible(transfers []model.Transfer, principal *model.Principal) []model.Transfer {
	if principal == nil {
		return []model.Transfer{}
	}

	if principal.CanViewAllTransfers() {
		out := make([]model.Transfer, len(transfers))
		copy(out, transfers)
		return out
	}

	out := make([]model.Transfer, 0)
	for _, t := range transfers {
		if t.SenderID == principal.ID || t.ReceiverID == principal.ID {
			out = append(out, t)
		}
	}
	return out
}

// asInsufficientBalance はエラー連鎖から残高不足エラーを取り出す。
func asInsufficientBalance(err error) (*model.InsufficientBalanceError, bool) {
	var insufficient *model.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		return insufficient, true
	}
	return nil, false
}
