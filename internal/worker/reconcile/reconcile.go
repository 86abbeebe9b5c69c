// Package reconcile は残高の整合性監査ジョブを提供する。
// user_balancesの残高と、確定済み送金の積み上げから導出される残高を突合し、
// 不一致を検出した場合はログとメトリクスで通知する。
// 残高への反映はストア側のトリガーが唯一の書き込み経路であるため、
// このジョブは修復を行わず検出のみに徹する。
package reconcile

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Mismatch は突合で検出された残高の不一致を表す。
type Mismatch struct {
	AccountID string
	Stored    decimal.Decimal
	Derived   decimal.Decimal
}

// MismatchFinder は残高の不一致検出に必要なインターフェース。
type MismatchFinder interface {
	// FindMismatches は残高行と確定済み送金の積み上げが一致しない
	// アカウントをuser_id昇順で返す。
	FindMismatches(ctx context.Context) ([]Mismatch, error)
}

// Querier はSQLのQueryContextを抽象化するインターフェース。
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// PostgresMismatchFinder はPostgreSQLに対する残高突合の実装。
type PostgresMismatchFinder struct {
	db Querier
}

// NewPostgresMismatchFinder はPostgresMismatchFinderを生成する。
func NewPostgresMismatchFinder(db Querier) *PostgresMismatchFinder {
	return &PostgresMismatchFinder{db: db}
}

// auditQuery は残高行と確定済み送金の積み上げが一致しないアカウントを抽出する。
// 送金が1件もないアカウントはCOALESCEで導出残高0として扱う。
const auditQuery = `
SELECT
    b.user_id,
    b.balance,
    COALESCE(SUM(
        CASE
            WHEN t.receiver_id = b.user_id THEN t.amount
            WHEN t.sender_id = b.user_id THEN -t.amount
        END
    ), 0) AS derived
FROM user_balances b
LEFT JOIN transfers t
    ON t.status = 'completed'
    AND (t.sender_id = b.user_id OR t.receiver_id = b.user_id)
GROUP BY b.user_id, b.balance
HAVING b.balance <> COALESCE(SUM(
    CASE
        WHEN t.receiver_id = b.user_id THEN t.amount
        WHEN t.sender_id = b.user_id THEN -t.amount
    END
), 0)
ORDER BY b.user_id`

// FindMismatches は監査クエリを実行し、検出された不一致を返す。
func (f *PostgresMismatchFinder) FindMismatches(ctx context.Context) ([]Mismatch, error) {
	rows, err := f.db.QueryContext(ctx, auditQuery)
	if err != nil {
		return nil, fmt.Errorf("残高監査クエリの実行に失敗しました: %w", err)
	}
	defer rows.Close()

	var mismatches []Mismatch
	for rows.Next() {
		var m Mismatch
		var stored, derived string
		if err := rows.Scan(&m.AccountID, &stored, &derived); err != nil {
			return nil, fmt.Errorf("残高監査結果の読み取りに失敗しました: %w", err)
		}
		if m.Stored, err = decimal.NewFromString(stored); err != nil {
			return nil, fmt.Errorf("残高の解析に失敗しました: %w", err)
		}
		if m.Derived, err = decimal.NewFromString(derived); err != nil {
			return nil, fmt.Errorf("導出残高の解析に失敗しました: %w", err)
		}
		mismatches = append(mismatches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("残高監査結果の走査に失敗しました: %w", err)
	}

	return mismatches, nil
}

var _ MismatchFinder = (*PostgresMismatchFinder)(nil)

// MetricsRecorder は監査ジョブが記録するメトリクスのインターフェース。
type MetricsRecorder interface {
	RecordBalanceMismatch()
}

// AuditJob は残高整合性の監査ジョブ。
type AuditJob struct {
	finder  MismatchFinder
	logger  *slog.Logger
	metrics MetricsRecorder
}

// NewAuditJob は新しいAuditJobを生成する。
func NewAuditJob(finder MismatchFinder, logger *slog.Logger) *AuditJob {
	return &AuditJob{
		finder: finder,
		logger: logger,
	}
}

// SetMetrics はメトリクスレコーダーを設定する。未設定の場合は記録をスキップする。
func (j *AuditJob) SetMetrics(m MetricsRecorder) {
	j.metrics = m
}

// Run は全アカウントの残高を突合し、検出した不一致を返す。
// 不一致は異常系のシグナルであり、Run自体のエラーにはしない。
func (j *AuditJob) Run(ctx context.Context) ([]Mismatch, error) {
	start := time.Now()

	mismatches, err := j.finder.FindMismatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("残高監査の実行に失敗しました: %w", err)
	}

	for _, m := range mismatches {
		j.logger.Error("残高の不一致を検出しました",
			slog.String("account_id", m.AccountID),
			slog.String("stored", m.Stored.StringFixed(2)),
			slog.String("derived", m.Derived.StringFixed(2)),
		)
		if j.metrics != nil {
			j.metrics.RecordBalanceMismatch()
		}
	}

	duration := time.Since(start)
	j.logger.Info("残高監査ジョブが完了しました",
		slog.Int("mismatch_count", len(mismatches)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return mismatches, nil
}

// Start は指定間隔のティッカーで監査を定期実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *AuditJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("残高監査ジョブを開始しました",
		slog.Duration("interval", interval),
	)

	if _, err := j.Run(ctx); err != nil {
		j.logger.Error("残高監査の定期実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("残高監査ジョブを停止しました")
			return
		case <-ticker.C:
			if _, err := j.Run(ctx); err != nil {
				j.logger.Error("残高監査の定期実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
