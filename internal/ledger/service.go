package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/ledgerman/internal/model"
	"github.com/hitoshi/ledgerman/internal/repository"
)

// MetricsRecorder は台帳サービスが記録する運用メトリクスのインターフェース。
// metrics.Collectorの部分集合として定義する。
type MetricsRecorder interface {
	RecordTransferCreated(status string)
	RecordInsufficientBalance()
	RecordStoreFailure(operation string)
	RecordProjectionRefresh(count int)
	RecordStoreLatency(duration time.Duration)
}

// Service は送金台帳サービス。ストアの台帳を信頼の源泉とし、
// created_at降順のメモリ射影を各操作で追従させる。
// ストア操作が失敗した場合、射影は一切変更されない。
type Service struct {
	repo    repository.TransferRepository
	guard   *BalanceGuard
	logger  *slog.Logger
	metrics MetricsRecorder

	mu        sync.RWMutex
	transfers []model.Transfer

	stats struct {
		mu                   sync.Mutex
		created              uint64
		insufficientRejected uint64
		refreshes            uint64
		storeFailures        uint64
	}
}

// NewService はServiceを生成する。
func NewService(repo repository.TransferRepository, guard *BalanceGuard, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		guard:  guard,
		logger: logger,
	}
}

// SetMetrics は運用メトリクスの記録先を設定する。未設定でも動作する。
func (s *Service) SetMetrics(m MetricsRecorder) {
	s.metrics = m
}

// CreateTransferInput は送金作成の入力。
type CreateTransferInput struct {
	SenderID   string
	ReceiverID string
	Reason     string
	Amount     decimal.Decimal
	Status     model.TransferStatus
}

// Refresh はストアの全送金で射影を置き換える。
func (s *Service) Refresh(ctx context.Context) error {
	start := time.Now()
	transfers, err := s.repo.ListWithParties(ctx)
	s.recordStoreLatency(start)
	if err != nil {
		s.recordStoreFailure("list")
		s.logger.Error("送金一覧の更新に失敗しました", slog.String("error", err.Error()))
		return err
	}

	s.mu.Lock()
	s.transfers = transfers
	s.mu.Unlock()

	s.stats.mu.Lock()
	s.stats.refreshes++
	s.stats.mu.Unlock()
	if s.metrics != nil {
		s.metrics.RecordProjectionRefresh(len(transfers))
	}

	s.logger.Info("送金射影を更新しました", slog.Int("count", len(transfers)))
	return nil
}

// Transfers は射影のコピーを返す。並び順はcreated_at降順。
func (s *Service) Transfers() []model.Transfer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Transfer, len(s.transfers))
	copy(out, s.transfers)
	return out
}

// Create は入力を検証し、送金元残高を確認した上で送金をストアに永続化する。
// 成功時はストアが返したJOIN済みレコードを射影の先頭に追加して返す。
// いずれかの段階で失敗した場合、射影は変更されない。
func (s *Service) Create(ctx context.Context, input CreateTransferInput) (*model.Transfer, error) {
	now := time.Now()
	transfer := &model.Transfer{
		ID:         uuid.NewString(),
		SenderID:   input.SenderID,
		ReceiverID: input.ReceiverID,
		Reason:     input.Reason,
		Amount:     input.Amount,
		Status:     input.Status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if transfer.Status == "" {
		transfer.Status = model.TransferStatusCompleted
	}

	if err := transfer.Validate(); err != nil {
		return nil, err
	}

	if err := s.guard.Check(ctx, transfer.SenderID, transfer.Amount); err != nil {
		if insufficient, ok := asInsufficientBalance(err); ok {
			s.recordInsufficientRejection()
			s.logger.Warn("残高不足のため送金を拒否しました",
				slog.String("sender_id", transfer.SenderID),
				slog.String("available", insufficient.Available.StringFixed(2)),
				slog.String("required", insufficient.Required.StringFixed(2)),
			)
		}
		return nil, err
	}

	storeStart := time.Now()
	created, err := s.repo.Create(ctx, transfer)
	s.recordStoreLatency(storeStart)
	if err != nil {
		// ガード通過後でもストア側のCHECK制約で競合負けし得る
		if _, ok := asInsufficientBalance(err); ok {
			s.recordInsufficientRejection()
		} else {
			s.recordStoreFailure("create")
		}
		s.logger.Error("送金の作成に失敗しました",
			slog.String("sender_id", transfer.SenderID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.mu.Lock()
	s.transfers = append([]model.Transfer{*created}, s.transfers...)
	s.mu.Unlock()

	s.stats.mu.Lock()
	s.stats.created++
	s.stats.mu.Unlock()
	if s.metrics != nil {
		s.metrics.RecordTransferCreated(string(created.Status))
	}

	s.logger.Info("送金を作成しました",
		slog.String("transfer_id", created.ID),
		slog.String("sender_id", created.SenderID),
		slog.String("receiver_id", created.ReceiverID),
		slog.String("amount", created.Amount.StringFixed(2)),
		slog.String("status", string(created.Status)),
	)
	return created, nil
}

// Update は部分パッチをストアに永続化し、返ってきたレコードで射影の該当行を
// その場で置き換える。射影に該当行がない場合は、ストアのレコードを
// created_at降順の位置に挿入して整合させる。
func (s *Service) Update(ctx context.Context, id string, patch repository.TransferPatch) (*model.Transfer, error) {
	start := time.Now()
	updated, err := s.repo.Update(ctx, id, patch)
	s.recordStoreLatency(start)
	if err != nil {
		if _, ok := asInsufficientBalance(err); ok {
			s.recordInsufficientRejection()
		} else {
			s.recordStoreFailure("update")
		}
		s.logger.Error("送金の更新に失敗しました",
			slog.String("transfer_id", id),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.mu.Lock()
	replaced := false
	for i := range s.transfers {
		if s.transfers[i].ID == updated.ID {
			s.transfers[i] = *updated
			replaced = true
			break
		}
	}
	if !replaced {
		// 射影に存在しない行の更新に成功した場合、射影が遅れている。
		// ストアのレコードを正しい位置に取り込んで修復する。
		s.transfers = insertByCreatedAtDesc(s.transfers, *updated)
		s.logger.Warn("射影に存在しない送金を修復しました", slog.String("transfer_id", updated.ID))
	}
	s.mu.Unlock()

	s.logger.Info("送金を更新しました", slog.String("transfer_id", updated.ID))
	return updated, nil
}

// Delete は送金をストアから削除し、射影から該当行を取り除く。
func (s *Service) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.repo.Delete(ctx, id)
	s.recordStoreLatency(start)
	if err != nil {
		s.recordStoreFailure("delete")
		s.logger.Error("送金の削除に失敗しました",
			slog.String("transfer_id", id),
			slog.String("error", err.Error()),
		)
		return err
	}

	s.mu.Lock()
	for i := range s.transfers {
		if s.transfers[i].ID == id {
			s.transfers = append(s.transfers[:i], s.transfers[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.logger.Info("送金を削除しました", slog.String("transfer_id", id))
	return nil
}

// Stats は運用統計のスナップショットを返す。
func (s *Service) Stats() ServiceStats {
	s.mu.RLock()
	projectionSize := len(s.transfers)
	s.mu.RUnlock()

	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()
	return ServiceStats{
		ProjectionSize:       projectionSize,
		TransfersCreated:     s.stats.created,
		InsufficientRejected: s.stats.insufficientRejected,
		Refreshes:            s.stats.refreshes,
		StoreFailures:        s.stats.storeFailures,
	}
}

// ServiceStats は送金台帳サービスの運用統計。
type ServiceStats struct {
	ProjectionSize       int
	TransfersCreated     uint64
	InsufficientRejected uint64
	Refreshes            uint64
	StoreFailures        uint64
}

func (s *Service) recordStoreFailure(operation string) {
	s.stats.mu.Lock()
	s.stats.storeFailures++
	s.stats.mu.Unlock()
	if s.metrics != nil {
		s.metrics.RecordStoreFailure(operation)
	}
}

func (s *Service) recordStoreLatency(start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordStoreLatency(time.Since(start))
	}
}

func (s *Service) recordInsufficientRejection() {
	s.stats.mu.Lock()
	s.stats.insufficientRejected++
	s.stats.mu.Unlock()
	if s.metrics != nil {
		s.metrics.RecordInsufficientBalance()
	}
}

// insertByCreatedAtDesc はcreated_at降順を保つ位置にtransferを挿入した
// 新しいスライスを返す。
func insertByCreatedAtDesc(transfers []model.Transfer, transfer model.Transfer) []model.Transfer {
	pos := len(transfers)
	for i := range transfers {
		if transfer.CreatedAt.After(transfers[i].CreatedAt) {
			pos = i
			break
		}
	}
	out := make([]model.Transfer, 0, len(transfers)+1)
	out = append(out, transfers[:pos]...)
	out = append(out, transfer)
	out = append(out, transfers[pos:]...)
	return out
}
