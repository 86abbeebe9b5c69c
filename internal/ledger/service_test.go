package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/ledgerman/internal/model"
	"github.com/hitoshi/ledgerman/internal/repository"
)

// mockTransferRepo はテスト用の送金リポジトリモック。
type mockTransferRepo struct {
	listWithPartiesFunc     func(ctx context.Context) ([]model.Transfer, error)
	findByIDWithPartiesFunc func(ctx context.Context, id string) (*model.Transfer, error)
	createFunc              func(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error)
	updateFunc              func(ctx context.Context, id string, patch repository.TransferPatch) (*model.Transfer, error)
	deleteFunc              func(ctx context.Context, id string) error
}

func (m *mockTransferRepo) ListWithParties(ctx context.Context) ([]model.Transfer, error) {
	return m.listWithPartiesFunc(ctx)
}

func (m *mockTransferRepo) FindByIDWithParties(ctx context.Context, id string) (*model.Transfer, error) {
	return m.findByIDWithPartiesFunc(ctx, id)
}

func (m *mockTransferRepo) Create(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error) {
	return m.createFunc(ctx, transfer)
}

func (m *mockTransferRepo) Update(ctx context.Context, id string, patch repository.TransferPatch) (*model.Transfer, error) {
	return m.updateFunc(ctx, id, patch)
}

func (m *mockTransferRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFunc(ctx, id)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func richBalanceReader(balance string) *mockBalanceReader {
	return &mockBalanceReader{
		balanceByAccountIDFunc: func(ctx context.Context, id string) (decimal.Decimal, error) {
			return decimal.RequireFromString(balance), nil
		},
	}
}

func makeTransfer(id string, createdAt time.Time) model.Transfer {
	return model.Transfer{
		ID:         id,
		SenderID:   "sender-1",
		ReceiverID: "receiver-1",
		Reason:     "ランチ代",
		Amount:     decimal.RequireFromString("10.00"),
		Status:     model.TransferStatusCompleted,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func TestService_Refresh_ReplacesProjection(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	stored := []model.Transfer{
		makeTransfer("t-3", base.Add(2*time.Hour)),
		makeTransfer("t-2", base.Add(time.Hour)),
		makeTransfer("t-1", base),
	}
	repo := &mockTransferRepo{
		listWithPartiesFunc: func(ctx context.Context) ([]model.Transfer, error) {
			return stored, nil
		},
	}
	svc := NewService(repo, NewBalanceGuard(richBalanceReader("100.00")), testLogger())

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	got := svc.Transfers()
	if len(got) != 3 {
		t.Fatalf("Transfers() len = %d, want 3", len(got))
	}
	for i, wantID := range []string{"t-3", "t-2", "t-1"} {
		if got[i].ID != wantID {
			t.Errorf("Transfers()[%d].ID = %s, want %s", i, got[i].ID, wantID)
		}
	}
}

// TestService_Refresh_FailureKeepsProjection は更新失敗時に既存の射影が
// そのまま残ることを検証する。
func TestService_Refresh_FailureKeepsProjection(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	repo := &mockTransferRepo{
		listWithPartiesFunc: func(ctx context.Context) ([]model.Transfer, error) {
			calls++
			if calls == 1 {
				return []model.Transfer{makeTransfer("t-1", base)}, nil
			}
			return nil, errors.New("connection refused")
		},
	}
	svc := NewService(repo, NewBalanceGuard(richBalanceReader("100.00")), testLogger())

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("first Refresh() error = %v", err)
	}
	if err := svc.Refresh(context.Background()); err == nil {
		t.Fatal("second Refresh() should fail")
	}

	got := svc.Transfers()
	if len(got) != 1 || got[0].ID != "t-1" {
		t.Errorf("projection should be untouched after failed refresh, got %v", got)
	}
}

// TestService_Create_PrependsStoreRecord は作成成功時にストアが返した
// JOIN済みレコードが射影の先頭に追加されることを検証する。
func TestService_Create_PrependsStoreRecord(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sender := &model.Account{ID: "sender-1", DisplayName: "田中"}
	repo := &mockTransferRepo{
		listWithPartiesFunc: func(ctx context.Context) ([]model.Transfer, error) {
			return []model.Transfer{makeTransfer("t-old", base)}, nil
		},
		createFunc: func(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error) {
			created := *transfer
			created.Sender = sender
			return &created, nil
		},
	}
	svc := NewService(repo, NewBalanceGuard(richBalanceReader("100.00")), testLogger())
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	created, err := svc.Create(context.Background(), CreateTransferInput{
		SenderID:   "sender-1",
		ReceiverID: "receiver-1",
		Reason:     "飲み会精算",
		Amount:     decimal.RequireFromString("40.00"),
		Status:     model.TransferStatusCompleted,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Sender == nil || created.Sender.DisplayName != "田中" {
		t.Error("Create() should return the store record with joined parties")
	}

	got := svc.Transfers()
	if len(got) != 2 {
		t.Fatalf("Transfers() len = %d, want 2", len(got))
	}
	if got[0].ID != created.ID {
		t.Errorf("new transfer should be first, got %s", got[0].ID)
	}
	if got[1].ID != "t-old" {
		t.Errorf("existing transfer should be preserved, got %s", got[1].ID)
	}
}

// TestService_Create_InsufficientBalance_DoesNotTouchStoreOrProjection は
// 残高不足時にストア書き込みも射影変更も起きないことを検証する。
func TestService_Create_InsufficientBalance_DoesNotTouchStoreOrProjection(t *testing.T) {
	createCalled := false
	repo := &mockTransferRepo{
		createFunc: func(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error) {
			createCalled = true
			return transfer, nil
		},
	}
	svc := NewService(repo, NewBalanceGuard(richBalanceReader("100.00")), testLogger())

	_, err := svc.Create(context.Background(), CreateTransferInput{
		SenderID:   "sender-1",
		ReceiverID: "receiver-1",
		Amount:     decimal.RequireFromString("150.00"),
		Status:     model.TransferStatusCompleted,
	})
	if err == nil {
		t.Fatal("expected insufficient balance error")
	}

	var insufficient *model.InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientBalanceError, got %T", err)
	}
	if createCalled {
		t.Error("store create should not be called when the guard rejects")
	}
	if len(svc.Transfers()) != 0 {
		t.Error("projection should be untouched")
	}
	if svc.Stats().InsufficientRejected != 1 {
		t.Errorf("InsufficientRejected = %d, want 1", svc.Stats().InsufficientRejected)
	}
}

// TestService_Create_ValidationErrors は不正な入力が型付きエラーで拒否され、
// ガードにもストアにも到達しないことを検証する。
func TestService_Create_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    CreateTransferInput
		wantCode string
	}{
		{
			name: "送金元と送金先が同一",
			input: CreateTransferInput{
				SenderID:   "acct-1",
				ReceiverID: "acct-1",
				Amount:     decimal.RequireFromString("10.00"),
			},
			wantCode: model.ErrCodeSameAccount,
		},
		{
			name: "金額がゼロ",
			input: CreateTransferInput{
				SenderID:   "acct-1",
				ReceiverID: "acct-2",
				Amount:     decimal.Zero,
			},
			wantCode: model.ErrCodeInvalidAmount,
		},
		{
			name: "金額が負",
			input: CreateTransferInput{
				SenderID:   "acct-1",
				ReceiverID: "acct-2",
				Amount:     decimal.RequireFromString("-5.00"),
			},
			wantCode: model.ErrCodeInvalidAmount,
		},
		{
			name: "送金元が空",
			input: CreateTransferInput{
				ReceiverID: "acct-2",
				Amount:     decimal.RequireFromString("10.00"),
			},
			wantCode: model.ErrCodeInvalidTransfer,
		},
		{
			name: "不明なステータス",
			input: CreateTransferInput{
				SenderID:   "acct-1",
				ReceiverID: "acct-2",
				Amount:     decimal.RequireFromString("10.00"),
				Status:     model.TransferStatus("archived"),
			},
			wantCode: model.ErrCodeInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guardCalled := false
			reader := &mockBalanceReader{
				balanceByAccountIDFunc: func(ctx context.Context, id string) (decimal.Decimal, error) {
					guardCalled = true
					return decimal.RequireFromString("1000.00"), nil
				},
			}
			repo := &mockTransferRepo{
				createFunc: func(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error) {
					t.Fatal("store create should not be called for invalid input")
					return nil, nil
				},
			}
			svc := NewService(repo, NewBalanceGuard(reader), testLogger())

			_, err := svc.Create(context.Background(), tt.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %T", err)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", apiErr.Code, tt.wantCode)
			}
			if guardCalled {
				t.Error("guard should not run for invalid input")
			}
		})
	}
}

// TestService_Create_StoreCheckViolationAfterGuard はガード通過後にストアの
// CHECK制約で競合負けした場合、エラーが返り射影が変わらないことを検証する。
func TestService_Create_StoreCheckViolationAfterGuard(t *testing.T) {
	repo := &mockTransferRepo{
		createFunc: func(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error) {
			return nil, model.NewInsufficientBalanceError(
				decimal.RequireFromString("5.00"), transfer.Amount)
		},
	}
	svc := NewService(repo, NewBalanceGuard(richBalanceReader("100.00")), testLogger())

	_, err := svc.Create(context.Background(), CreateTransferInput{
		SenderID:   "sender-1",
		ReceiverID: "receiver-1",
		Amount:     decimal.RequireFromString("40.00"),
		Status:     model.TransferStatusCompleted,
	})
	if err == nil {
		t.Fatal("expected error from store")
	}
	var insufficient *model.InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientBalanceError, got %T", err)
	}
	if len(svc.Transfers()) != 0 {
		t.Error("projection should be untouched after store failure")
	}
}

func TestService_Update_ReplacesInPlace(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	stored := []model.Transfer{
		makeTransfer("t-3", base.Add(2*time.Hour)),
		makeTransfer("t-2", base.Add(time.Hour)),
		makeTransfer("t-1", base),
	}
	repo := &mockTransferRepo{
		listWithPartiesFunc: func(ctx context.Context) ([]model.Transfer, error) {
			return stored, nil
		},
		updateFunc: func(ctx context.Context, id string, patch repository.TransferPatch) (*model.Transfer, error) {
			updated := makeTransfer(id, base.Add(time.Hour))
			updated.Reason = *patch.Reason
			return &updated, nil
		},
	}
	svc := NewService(repo, NewBalanceGuard(richBalanceReader("100.00")), testLogger())
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	reason := "旅行費の精算"
	if _, err := svc.Update(context.Background(), "t-2", repository.TransferPatch{Reason: &reason}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got := svc.Transfers()
	if len(got) != 3 {
		t.Fatalf("Transfers() len = %d, want 3", len(got))
	}
	// 位置は変わらず内容だけ入れ替わる
	if got[1].ID != "t-2" || got[1].Reason != reason {
		t.Errorf("Transfers()[1] = {%s %s}, want {t-2 %s}", got[1].ID, got[1].Reason, reason)
	}
	if got[0].ID != "t-3" || got[2].ID != "t-1" {
		t.Error("other entries should keep their positions")
	}
}

// TestService_Update_LocalMiss_InsertsAtCreatedAtPosition は射影に存在しない
// 送金の更新成功時、ストアのレコードがcreated_at降順の位置に取り込まれることを
// 検証する。
func TestService_Update_LocalMiss_InsertsAtCreatedAtPosition(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := &mockTransferRepo{
		listWithPartiesFunc: func(ctx context.Context) ([]model.Transfer, error) {
			return []model.Transfer{
				makeTransfer("t-3", base.Add(2*time.Hour)),
				makeTransfer("t-1", base),
			}, nil
		},
		updateFunc: func(ctx context.Context, id string, patch repository.TransferPatch) (*model.Transfer, error) {
			missing := makeTransfer("t-2", base.Add(time.Hour))
			return &missing, nil
		},
	}
	svc := NewService(repo, NewBalanceGuard(richBalanceReader("100.00")), testLogger())
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	reason := "x"
	if _, err := svc.Update(context.Background(), "t-2", repository.TransferPatch{Reason: &reason}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got := svc.Transfers()
	if len(got) != 3 {
		t.Fatalf("Transfers() len = %d, want 3", len(got))
	}
	for i, wantID := range []string{"t-3", "t-2", "t-1"} {
		if got[i].ID != wantID {
			t.Errorf("Transfers()[%d].ID = %s, want %s", i, got[i].ID, wantID)
		}
	}
}

func TestService_Update_StoreFailureKeepsProjection(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := &mockTransferRepo{
		listWithPartiesFunc: func(ctx context.Context) ([]model.Transfer, error) {
			return []model.Transfer{makeTransfer("t-1", base)}, nil
		},
		updateFunc: func(ctx context.Context, id string, patch repository.TransferPatch) (*model.Transfer, error) {
			return nil, model.NewTransferNotFoundError(id)
		},
	}
	svc := NewService(repo, NewBalanceGuard(richBalanceReader("100.00")), testLogger())
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	reason := "x"
	_, err := svc.Update(context.Background(), "t-missing", repository.TransferPatch{Reason: &reason})
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTransferNotFound {
		t.Errorf("expected TRANSFER_NOT_FOUND, got %v", err)
	}

	got := svc.Transfers()
	if len(got) != 1 || got[0].ID != "t-1" || got[0].Reason != "ランチ代" {
		t.Error("projection should be untouched after failed update")
	}
}

func TestService_Delete_RemovesExactlyOne(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := &mockTransferRepo{
		listWithPartiesFunc: func(ctx context.Context) ([]model.Transfer, error) {
			return []model.Transfer{
				makeTransfer("t-3", base.Add(2*time.Hour)),
				makeTransfer("t-2", base.Add(time.Hour)),
				makeTransfer("t-1", base),
			}, nil
		},
		deleteFunc: func(ctx context.Context, id string) error {
			return nil
		},
	}
	svc := NewService(repo, NewBalanceGuard(richBalanceReader("100.00")), testLogger())
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if err := svc.Delete(context.Background(), "t-2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got := svc.Transfers()
	if len(got) != 2 {
		t.Fatalf("Transfers() len = %d, want 2", len(got))
	}
	if got[0].ID != "t-3" || got[1].ID != "t-1" {
		t.Errorf("remaining transfers = [%s %s], want [t-3 t-1]", got[0].ID, got[1].ID)
	}
}

func TestService_Delete_StoreFailureKeepsProjection(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := &mockTransferRepo{
		listWithPartiesFunc: func(ctx context.Context) ([]model.Transfer, error) {
			return []model.Transfer{makeTransfer("t-1", base)}, nil
		},
		deleteFunc: func(ctx context.Context, id string) error {
			return model.NewTransferNotFoundError(id)
		},
	}
	svc := NewService(repo, NewBalanceGuard(richBalanceReader("100.00")), testLogger())
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if err := svc.Delete(context.Background(), "t-1"); err == nil {
		t.Fatal("expected error")
	}
	if len(svc.Transfers()) != 1 {
		t.Error("projection should be untouched after failed delete")
	}
}

// TestService_Transfers_ReturnsCopy は返されたスライスへの変更が
// 射影に影響しないことを検証する。
func TestService_Transfers_ReturnsCopy(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := &mockTransferRepo{
		listWithPartiesFunc: func(ctx context.Context) ([]model.Transfer, error) {
			return []model.Transfer{makeTransfer("t-1", base)}, nil
		},
	}
	svc := NewService(repo, NewBalanceGuard(richBalanceReader("100.00")), testLogger())
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	got := svc.Transfers()
	got[0].Reason = "改ざん"

	if svc.Transfers()[0].Reason != "ランチ代" {
		t.Error("mutation of the returned slice should not affect the projection")
	}
}

func TestInsertByCreatedAtDesc(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		existing  []model.Transfer
		insert    model.Transfer
		wantOrder []string
	}{
		{
			name:      "空のスライスへ挿入",
			existing:  nil,
			insert:    makeTransfer("t-1", base),
			wantOrder: []string{"t-1"},
		},
		{
			name: "最新として先頭へ挿入",
			existing: []model.Transfer{
				makeTransfer("t-2", base.Add(time.Hour)),
				makeTransfer("t-1", base),
			},
			insert:    makeTransfer("t-3", base.Add(2*time.Hour)),
			wantOrder: []string{"t-3", "t-2", "t-1"},
		},
		{
			name: "中間へ挿入",
			existing: []model.Transfer{
				makeTransfer("t-3", base.Add(2*time.Hour)),
				makeTransfer("t-1", base),
			},
			insert:    makeTransfer("t-2", base.Add(time.Hour)),
			wantOrder: []string{"t-3", "t-2", "t-1"},
		},
		{
			name: "最古として末尾へ挿入",
			existing: []model.Transfer{
				makeTransfer("t-3", base.Add(2*time.Hour)),
				makeTransfer("t-2", base.Add(time.Hour)),
			},
			insert:    makeTransfer("t-1", base),
			wantOrder: []string{"t-3", "t-2", "t-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := insertByCreatedAtDesc(tt.existing, tt.insert)
			if len(got) != len(tt.wantOrder) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.wantOrder))
			}
			for i, wantID := range tt.wantOrder {
				if got[i].ID != wantID {
					t.Errorf("[%d].ID = %s, want %s", i, got[i].ID, wantID)
				}
			}
		})
	}
}

func TestService_Stats(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := &mockTransferRepo{
		listWithPartiesFunc: func(ctx context.Context) ([]model.Transfer, error) {
			return []model.Transfer{makeTransfer("t-1", base)}, nil
		},
		createFunc: func(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error) {
			return transfer, nil
		},
	}
	svc := NewService(repo, NewBalanceGuard(richBalanceReader("100.00")), testLogger())

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateTransferInput{
		SenderID:   "sender-1",
		ReceiverID: "receiver-1",
		Amount:     decimal.RequireFromString("10.00"),
		Status:     model.TransferStatusCompleted,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	stats := svc.Stats()
	if stats.Refreshes != 1 {
		t.Errorf("Refreshes = %d, want 1", stats.Refreshes)
	}
	if stats.TransfersCreated != 1 {
		t.Errorf("TransfersCreated = %d, want 1", stats.TransfersCreated)
	}
	if stats.ProjectionSize != 2 {
		t.Errorf("ProjectionSize = %d, want 2", stats.ProjectionSize)
	}
}

// TestService_CreateThenRefresh_RoundTrip は作成した送金が次回の全件更新でも
// 同一内容で射影に現れることを検証する。
func TestService_CreateThenRefresh_RoundTrip(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var stored []model.Transfer

	repo := &mockTransferRepo{
		listWithPartiesFunc: func(ctx context.Context) ([]model.Transfer, error) {
			out := make([]model.Transfer, len(stored))
			copy(out, stored)
			return out, nil
		},
		createFunc: func(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error) {
			created := *transfer
			created.CreatedAt = base.Add(time.Duration(len(stored)+1) * time.Hour)
			created.UpdatedAt = created.CreatedAt
			// ストアはcreated_at降順で返すため先頭に積む
			stored = append([]model.Transfer{created}, stored...)
			return &created, nil
		},
	}
	svc := NewService(repo, NewBalanceGuard(richBalanceReader("100.00")), testLogger())

	created, err := svc.Create(context.Background(), CreateTransferInput{
		SenderID:   "sender-1",
		ReceiverID: "receiver-1",
		Reason:     "経費精算",
		Amount:     decimal.RequireFromString("40.00"),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	var found *model.Transfer
	for _, tr := range svc.Transfers() {
		if tr.ID == created.ID {
			f := tr
			found = &f
			break
		}
	}
	if found == nil {
		t.Fatal("created transfer should appear in the refreshed projection")
	}
	if found.SenderID != "sender-1" || found.ReceiverID != "receiver-1" {
		t.Errorf("parties = %s/%s, want sender-1/receiver-1", found.SenderID, found.ReceiverID)
	}
	if found.Reason != "経費精算" {
		t.Errorf("Reason = %s, want 経費精算", found.Reason)
	}
	if !found.Amount.Equal(decimal.RequireFromString("40.00")) {
		t.Errorf("Amount = %s, want 40.00", found.Amount)
	}
}
