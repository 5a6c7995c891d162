package usecase

import (
	"context"

	"github.com/JoeShih716/go-mem-transfer/internal/app/core/domain"
)

// AccountStore 帳戶儲存介面
type AccountStore interface {
	// Create 新增帳戶，ID 重複時回傳 *domain.DuplicateAccountError
	Create(ctx context.Context, account domain.Account) error
	// Get 取得帳戶快照，不存在時回傳 *domain.AccountNotFoundError
	Get(ctx context.Context, accountID string) (domain.Account, error)
	// Update 取代既有帳戶並回傳新的快照
	Update(ctx context.Context, account domain.Account) (domain.Account, error)
	// All 所有帳戶快照
	All(ctx context.Context) ([]domain.Account, error)
}

// Locker 以帳戶 ID 為 key 的互斥鎖
// 實作必須以固定的全域順序取得多把鎖
type Locker interface {
	Lock(keys ...string) (unlock func())
}

// Notifier 轉帳後的通知出口
type Notifier interface {
	Notify(ctx context.Context, account domain.Account, message string) error
}
