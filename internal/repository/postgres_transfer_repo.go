package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/ledgerman/internal/model"
)

// PostgresTransferRepo はPostgreSQLを使用した送金台帳リポジトリ。
// 読み取りは常に送金元・送金先のアカウント概要をJOINする。
// 残高への反映はtransfersテーブルのトリガーがコミット時に原子的に行うため、
// ここでは残高を一切触らない。
type PostgresTransferRepo struct {
	db *sql.DB
}

// NewPostgresTransferRepo はPostgresTransferRepoを生成する。
func NewPostgresTransferRepo(db *sql.DB) *PostgresTransferRepo {
	return &PostgresTransferRepo{db: db}
}

const transferSelect = `
	SELECT t.id, t.sender_id, t.receiver_id, t.reason, t.amount, t.status,
	       t.created_at, t.updated_at,
	       s.id, s.email, s.display_name, s.roles, s.created_at, s.updated_at,
	       r.id, r.email, r.display_name, r.roles, r.created_at, r.updated_at
	  FROM transfers t
	  LEFT JOIN user_profiles s ON s.id = t.sender_id
	  LEFT JOIN user_profiles r ON r.id = t.receiver_id`

// ListWithParties は全送金をcreated_at降順で返す。
func (r *PostgresTransferRepo) ListWithParties(ctx context.Context) ([]model.Transfer, error) {
	rows, err := r.db.QueryContext(ctx, transferSelect+` ORDER BY t.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("送金一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var transfers []model.Transfer
	for rows.Next() {
		tr, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("送金行の読み取りに失敗しました: %w", err)
		}
		transfers = append(transfers, *tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("送金一覧の走査に失敗しました: %w", err)
	}
	return transfers, nil
}

// FindByIDWithParties は指定IDの送金を取得する。見つからない場合はnilを返す。
func (r *PostgresTransferRepo) FindByIDWithParties(ctx context.Context, id string) (*model.Transfer, error) {
	row := r.db.QueryRowContext(ctx, transferSelect+` WHERE t.id = $1`, id)

	tr, err := scanTransfer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("送金の取得に失敗しました: %w", err)
	}
	return tr, nil
}

// Create は送金を挿入し、JOIN済みの作成レコードを返す。
// 確定済み送金による残高のCHECK制約違反は残高不足エラーに変換する。
func (r *PostgresTransferRepo) Create(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transfers (id, sender_id, receiver_id, reason, amount, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		transfer.ID, transfer.SenderID, transfer.ReceiverID,
		transfer.Reason, transfer.Amount, transfer.Status,
	)
	if err != nil {
		if isBalanceCheckViolation(err) {
			return nil, r.insufficientBalance(ctx, transfer.SenderID, transfer.Amount)
		}
		return nil, fmt.Errorf("送金の作成に失敗しました: %w", err)
	}

	created, err := r.FindByIDWithParties(ctx, transfer.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, model.NewTransferNotFoundError(transfer.ID)
	}
	return created, nil
}

// Update は部分パッチを永続化し、JOIN済みの更新後レコードを返す。
func (r *PostgresTransferRepo) Update(ctx context.Context, id string, patch TransferPatch) (*model.Transfer, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE transfers
		    SET reason = COALESCE($2, reason),
		        amount = COALESCE($3, amount),
		        status = COALESCE($4, status)
		  WHERE id = $1`,
		id, patch.Reason, patch.Amount, patch.Status,
	)
	if err != nil {
		if isBalanceCheckViolation(err) {
			current, findErr := r.FindByIDWithParties(ctx, id)
			if findErr == nil && current != nil {
				required := current.Amount
				if patch.Amount != nil {
					required = *patch.Amount
				}
				return nil, r.insufficientBalance(ctx, current.SenderID, required)
			}
		}
		return nil, fmt.Errorf("送金の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return nil, model.NewTransferNotFoundError(id)
	}

	updated, err := r.FindByIDWithParties(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, model.NewTransferNotFoundError(id)
	}
	return updated, nil
}

// Delete は指定IDの送金を削除する。
func (r *PostgresTransferRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM transfers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("送金の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewTransferNotFoundError(id)
	}
	return nil
}

// insufficientBalance は現在残高を引いて残高不足エラーを組み立てる。
// 残高の読み取りに失敗した場合はゼロ残高として扱う。
func (r *PostgresTransferRepo) insufficientBalance(ctx context.Context, senderID string, required decimal.Decimal) error {
	available := decimal.Zero
	err := r.db.QueryRowContext(ctx,
		`SELECT balance FROM user_balances WHERE user_id = $1`,
		senderID,
	).Scan(&available)
	if err != nil {
		available = decimal.Zero
	}
	return model.NewInsufficientBalanceError(available, required)
}

// scanTransfer はtransferSelectの並びで1行をmodel.Transferに読み取る。
// LEFT JOINのため送金元・送金先はNULLになり得る（参照先アカウントの欠落を許容する）。
func scanTransfer(row rowScanner) (*model.Transfer, error) {
	var tr model.Transfer
	var status string

	var senderID, senderEmail, senderName sql.NullString
	var senderRoles pq.StringArray
	var senderCreated, senderUpdated sql.NullTime

	var receiverID, receiverEmail, receiverName sql.NullString
	var receiverRoles pq.StringArray
	var receiverCreated, receiverUpdated sql.NullTime

	err := row.Scan(
		&tr.ID, &tr.SenderID, &tr.ReceiverID, &tr.Reason, &tr.Amount, &status,
		&tr.CreatedAt, &tr.UpdatedAt,
		&senderID, &senderEmail, &senderName, &senderRoles, &senderCreated, &senderUpdated,
		&receiverID, &receiverEmail, &receiverName, &receiverRoles, &receiverCreated, &receiverUpdated,
	)
	if err != nil {
		return nil, err
	}

	tr.Status = model.TransferStatus(status)
	if senderID.Valid {
		tr.Sender = &model.Account{
			ID:          senderID.String,
			Email:       senderEmail.String,
			DisplayName: senderName.String,
			Roles:       model.ParseRoles(senderRoles),
			CreatedAt:   senderCreated.Time,
			UpdatedAt:   senderUpdated.Time,
		}
	}
	if receiverID.Valid {
		tr.Receiver = &model.Account{
			ID:          receiverID.String,
			Email:       receiverEmail.String,
			DisplayName: receiverName.String,
			Roles:       model.ParseRoles(receiverRoles),
			CreatedAt:   receiverCreated.Time,
			UpdatedAt:   receiverUpdated.Time,
		}
	}
	return &tr, nil
}

// isBalanceCheckViolation はエラーがuser_balancesの非負CHECK制約違反かを判定する。
// コミット時の残高不変条件はストアが強制するため、ここで拾ってビジネスエラーに変換する。
func isBalanceCheckViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	// 23514 = check_violation
	return pqErr.Code == "23514" && strings.Contains(pqErr.Constraint, "balance")
}

// compile-time interface check
var _ TransferRepository = (*PostgresTransferRepo)(nil)
