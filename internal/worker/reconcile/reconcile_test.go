package reconcile

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

// mockMismatchFinder はテスト用のMismatchFinderモック。
type mockMismatchFinder struct {
	mismatches []Mismatch
	err        error
	called     bool
}

func (m *mockMismatchFinder) FindMismatches(ctx context.Context) ([]Mismatch, error) {
	m.called = true
	return m.mismatches, m.err
}

// mockMetrics はテスト用のメトリクスレコーダー。
type mockMetrics struct {
	mismatchCount int
}

func (m *mockMetrics) RecordBalanceMismatch() {
	m.mismatchCount++
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func TestAuditJob_Run_NoMismatches(t *testing.T) {
	var buf bytes.Buffer
	finder := &mockMismatchFinder{}
	job := NewAuditJob(finder, newTestLogger(&buf))

	mismatches, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}
	if !finder.called {
		t.Fatal("FindMismatches が呼び出されなかった")
	}
	if len(mismatches) != 0 {
		t.Errorf("mismatches = %d件, want 0件", len(mismatches))
	}
	if !strings.Contains(buf.String(), `"mismatch_count":0`) {
		t.Errorf("ログに不一致件数が含まれていない: %s", buf.String())
	}
}

func TestAuditJob_Run_DetectsMismatch(t *testing.T) {
	var buf bytes.Buffer
	finder := &mockMismatchFinder{
		mismatches: []Mismatch{
			{
				AccountID: "a-1",
				Stored:    decimal.RequireFromString("100.00"),
				Derived:   decimal.RequireFromString("60.00"),
			},
			{
				AccountID: "a-2",
				Stored:    decimal.RequireFromString("0.00"),
				Derived:   decimal.RequireFromString("40.00"),
			},
		},
	}
	job := NewAuditJob(finder, newTestLogger(&buf))

	metrics := &mockMetrics{}
	job.SetMetrics(metrics)

	mismatches, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}
	if len(mismatches) != 2 {
		t.Fatalf("mismatches = %d件, want 2件", len(mismatches))
	}

	// 不一致ごとにメトリクスが記録されること
	if metrics.mismatchCount != 2 {
		t.Errorf("RecordBalanceMismatch 呼び出し回数 = %d, want 2", metrics.mismatchCount)
	}

	logged := buf.String()
	if !strings.Contains(logged, `"account_id":"a-1"`) {
		t.Errorf("ログに不一致アカウントが含まれていない: %s", logged)
	}
	if !strings.Contains(logged, `"stored":"100.00"`) || !strings.Contains(logged, `"derived":"60.00"`) {
		t.Errorf("ログに保存残高と導出残高が含まれていない: %s", logged)
	}
}

func TestAuditJob_Run_MetricsUnset(t *testing.T) {
	var buf bytes.Buffer
	finder := &mockMismatchFinder{
		mismatches: []Mismatch{
			{AccountID: "a-1", Stored: decimal.Zero, Derived: decimal.RequireFromString("10.00")},
		},
	}
	job := NewAuditJob(finder, newTestLogger(&buf))

	// メトリクス未設定でもpanicしないこと
	if _, err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}
}

func TestAuditJob_Run_FinderError(t *testing.T) {
	var buf bytes.Buffer
	finder := &mockMismatchFinder{err: errors.New("connection refused")}
	job := NewAuditJob(finder, newTestLogger(&buf))

	_, err := job.Run(context.Background())
	if err == nil {
		t.Fatal("FindMismatches失敗時にエラーを返すべき")
	}
	if !strings.Contains(err.Error(), "残高監査の実行に失敗しました") {
		t.Errorf("エラーメッセージが期待と異なる: %v", err)
	}
}

// mockQuerier はQueryContextの失敗経路を検証するためのモック。
type mockQuerier struct {
	query string
	err   error
}

func (m *mockQuerier) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	m.query = query
	return nil, m.err
}

func TestPostgresMismatchFinder_QueryError(t *testing.T) {
	querier := &mockQuerier{err: errors.New("connection refused")}
	finder := NewPostgresMismatchFinder(querier)

	_, err := finder.FindMismatches(context.Background())
	if err == nil {
		t.Fatal("QueryContext失敗時にエラーを返すべき")
	}

	// 突合クエリが確定済み送金のみを対象にしていること
	if !strings.Contains(querier.query, "user_balances") {
		t.Errorf("クエリに 'user_balances' が含まれていない: %s", querier.query)
	}
	if !strings.Contains(querier.query, "'completed'") {
		t.Errorf("クエリが確定済み送金に絞られていない: %s", querier.query)
	}
}
