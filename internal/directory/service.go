// Package directory はアカウント一覧のキャッシュとプロフィール更新を提供する。
package directory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/ledgerman/internal/model"
	"github.com/hitoshi/ledgerman/internal/repository"
)

// Service はアカウントディレクトリ。ストアのアカウント一覧（残高は
// user_balancesからの導出値）をcreated_at昇順でキャッシュする。
// 残高をローカルで書き換える操作は存在しない。
type Service struct {
	repo   repository.AccountRepository
	logger *slog.Logger

	mu       sync.RWMutex
	accounts []model.Account

	statsMu   sync.Mutex
	refreshes uint64
}

// NewService はServiceを生成する。
func NewService(repo repository.AccountRepository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Refresh はストアの全アカウントでキャッシュを置き換える。
// 残高はこの時点のストアの導出値を反映する。
func (s *Service) Refresh(ctx context.Context) error {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("アカウント一覧の更新に失敗しました", slog.String("error", err.Error()))
		return err
	}

	s.mu.Lock()
	s.accounts = accounts
	s.mu.Unlock()

	s.statsMu.Lock()
	s.refreshes++
	s.statsMu.Unlock()

	s.logger.Info("アカウントキャッシュを更新しました", slog.Int("count", len(accounts)))
	return nil
}

// Accounts はキャッシュのコピーを返す。並び順はcreated_at昇順。
func (s *Service) Accounts() []model.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Account, len(s.accounts))
	copy(out, s.accounts)
	return out
}

// FindByID はキャッシュから指定IDのアカウントを返す。見つからない場合はnil。
func (s *Service) FindByID(id string) *model.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.accounts {
		if s.accounts[i].ID == id {
			acct := s.accounts[i]
			return &acct
		}
	}
	return nil
}

// Update はプロフィールの部分パッチをストアに永続化し、返ってきたレコードで
// キャッシュの該当行をその場で置き換える。キャッシュに該当行がない場合は
// created_at昇順の位置に挿入して整合させる。失敗時はキャッシュを変更しない。
func (s *Service) Update(ctx context.Context, id string, patch repository.ProfilePatch) (*model.Account, error) {
	updated, err := s.repo.UpdateProfile(ctx, id, patch)
	if err != nil {
		s.logger.Error("プロフィールの更新に失敗しました",
			slog.String("account_id", id),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.mu.Lock()
	replaced := false
	for i := range s.accounts {
		if s.accounts[i].ID == updated.ID {
			s.accounts[i] = *updated
			replaced = true
			break
		}
	}
	if !replaced {
		s.accounts = insertByCreatedAtAsc(s.accounts, *updated)
		s.logger.Warn("キャッシュに存在しないアカウントを修復しました", slog.String("account_id", updated.ID))
	}
	s.mu.Unlock()

	s.logger.Info("プロフィールを更新しました", slog.String("account_id", updated.ID))
	return updated, nil
}

// Stats は運用統計のスナップショットを返す。
func (s *Service) Stats() ServiceStats {
	s.mu.RLock()
	size := len(s.accounts)
	s.mu.RUnlock()

	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return ServiceStats{
		CacheSize: size,
		Refreshes: s.refreshes,
	}
}

// ServiceStats はアカウントディレクトリの運用統計。
type ServiceStats struct {
	CacheSize int
	Refreshes uint64
}

// insertByCreatedAtAsc はcreated_at昇順を保つ位置にaccountを挿入した
// 新しいスライスを返す。
func insertByCreatedAtAsc(accounts []model.Account, account model.Account) []model.Account {
	pos := len(accounts)
	for i := range accounts {
		if account.CreatedAt.Before(accounts[i].CreatedAt) {
			pos = i
			break
		}
	}
	out := make([]model.Account, 0, len(accounts)+1)
	out = append(out, accounts[:pos]...)
	out = append(out, account)
	out = append(out, accounts[pos:]...)
	return out
}
