// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/ledgerman/internal/model"
)

// AccountRepository はアカウントデータの永続化インターフェース。
// 残高はuser_balancesリレーションの導出値であり、このインターフェースが
// 残高データへの唯一の読み取り経路となる。残高を書き込む操作は存在しない。
type AccountRepository interface {
	// List は全アカウントを残高付きでcreated_at昇順で返す。
	List(ctx context.Context) ([]model.Account, error)

	// FindByID は指定IDのアカウントを残高付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Account, error)

	// CreateWithIdentity はアカウントとidentityを同一トランザクションで作成する。
	// 残高レコードはストア側トリガーが作成する。
	CreateWithIdentity(ctx context.Context, account *model.Account, identity *model.Identity) error

	// UpdateProfile はプロフィールの部分更新を永続化し、更新後のアカウントを
	// 残高付きで返す。残高はパッチで表現できない。
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*model.Account, error)

	// BalanceByAccountID は指定アカウントの現在残高をストアから取得する。
	// 残高レコードが存在しない場合はエラーを返す。
	BalanceByAccountID(ctx context.Context, id string) (decimal.Decimal, error)
}

// ProfilePatch はプロフィールの部分更新を表す。nilフィールドは変更しない。
// 残高フィールドは意図的に存在しない（残高はストアのみが変更できる）。
type ProfilePatch struct {
	DisplayName *string
	Roles       []model.Role
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByAccountID は指定アカウントの全セッションを削除する。
	DeleteByAccountID(ctx context.Context, accountID string) error
}

// TransferRepository は送金台帳の永続化インターフェース（ストアクライアント）。
// 全ての読み取りは送金元・送金先のアカウント概要をJOINして返す。
type TransferRepository interface {
	// ListWithParties は全送金をcreated_at降順で返す。
	ListWithParties(ctx context.Context) ([]model.Transfer, error)

	// FindByIDWithParties は指定IDの送金を取得する。見つからない場合はnilを返す。
	FindByIDWithParties(ctx context.Context, id string) (*model.Transfer, error)

	// Create は送金を挿入し、JOIN済みの作成レコードを返す。
	// 確定済み送金の残高反映はストア側トリガーが原子的に行い、
	// 残高不足はCHECK制約違反として返る。
	Create(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error)

	// Update は部分パッチを永続化し、JOIN済みの更新後レコードを返す。
	// 対象が存在しない場合はTRANSFER_NOT_FOUNDエラーを返す。
	Update(ctx context.Context, id string, patch TransferPatch) (*model.Transfer, error)

	// Delete は指定IDの送金を削除する。
	// 対象が存在しない場合はTRANSFER_NOT_FOUNDエラーを返す。
	Delete(ctx context.Context, id string) error
}

// TransferPatch は送金の部分更新を表す。nilフィールドは変更しない。
type TransferPatch struct {
	Reason *string
	Amount *decimal.Decimal
	Status *model.TransferStatus
}
