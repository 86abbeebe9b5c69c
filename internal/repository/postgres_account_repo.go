package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/ledgerman/internal/model"
)

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

const accountColumns = `p.id, p.email, p.display_name, p.roles, p.created_at, p.updated_at,
	 COALESCE(b.balance, 0)`

// List は全アカウントを残高付きでcreated_at昇順で返す。
func (r *PostgresAccountRepo) List(ctx context.Context) ([]model.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+`
		 FROM user_profiles p
		 LEFT JOIN user_balances b ON b.user_id = p.id
		 ORDER BY p.created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("アカウント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("アカウント行の読み取りに失敗しました: %w", err)
		}
		accounts = append(accounts, *acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("アカウント一覧の走査に失敗しました: %w", err)
	}
	return accounts, nil
}

// FindByID は指定IDのアカウントを残高付きで取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+`
		 FROM user_profiles p
		 LEFT JOIN user_balances b ON b.user_id = p.id
		 WHERE p.id = $1`,
		id,
	)

	acct, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	return acct, nil
}

// CreateWithIdentity はアカウントとidentityを同一トランザクションで作成する。
// 残高レコードはuser_profilesのINSERTトリガーが作成する。
func (r *PostgresAccountRepo) CreateWithIdentity(ctx context.Context, account *model.Account, identity *model.Identity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_profiles (id, email, display_name, roles, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		account.ID, account.Email, account.DisplayName,
		pq.Array(model.RoleStrings(account.Roles)),
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("アカウントの作成に失敗しました: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO identities (id, user_id, provider, provider_user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		identity.ID, identity.AccountID, identity.Provider, identity.ProviderUserID, identity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("identityの作成に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// UpdateProfile はプロフィールの部分更新を永続化し、更新後のアカウントを残高付きで返す。
// パッチに残高は含められない。rolesがnilの場合は変更しない。
func (r *PostgresAccountRepo) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*model.Account, error) {
	var rolesArg interface{}
	if patch.Roles != nil {
		rolesArg = pq.Array(model.RoleStrings(patch.Roles))
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE user_profiles
		    SET display_name = COALESCE($2, display_name),
		        roles = COALESCE($3, roles)
		  WHERE id = $1`,
		id, patch.DisplayName, rolesArg,
	)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return nil, model.NewAccountNotFoundError(id)
	}

	acct, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, model.NewAccountNotFoundError(id)
	}
	return acct, nil
}

// BalanceByAccountID は指定アカウントの現在残高をストアから取得する。
// 残高データへの唯一の読み取り経路であり、BalanceGuardとAccount Directoryの
// 両方がここを通る。
func (r *PostgresAccountRepo) BalanceByAccountID(ctx context.Context, id string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT balance FROM user_balances WHERE user_id = $1`,
		id,
	).Scan(&balance)

	if err == sql.ErrNoRows {
		return decimal.Zero, model.NewBalanceNotFoundError(id)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("残高の取得に失敗しました: %w", err)
	}
	return balance, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanAccount はaccountColumnsの並びで1行をmodel.Accountに読み取る。
func scanAccount(row rowScanner) (*model.Account, error) {
	var acct model.Account
	var roles pq.StringArray

	err := row.Scan(
		&acct.ID, &acct.Email, &acct.DisplayName, &roles,
		&acct.CreatedAt, &acct.UpdatedAt, &acct.Balance,
	)
	if err != nil {
		return nil, err
	}

	acct.Roles = model.ParseRoles(roles)
	return &acct, nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
