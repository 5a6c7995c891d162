package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/JoeShih716/go-mem-transfer/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-transfer/internal/app/core/usecase"
)

// AccountStore 是一個使用 RWMutex 保護的記憶體帳戶表
//
// 結構:
//
//	accounts: 帳戶資料 Map，存放值而非指標，外部拿到的都是快照
//	mu: 保護 accounts
//
// 跨帳戶的原子性由 usecase.Locker 負責，這裡只保證單筆操作原子。
type AccountStore struct {
	accounts map[string]domain.Account
	mu       sync.RWMutex
}

// NewAccountStore 建立一個空的 AccountStore
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]domain.Account),
	}
}

// Create 新增帳戶
//
// 參數:
//
//	ctx: 上下文
//	account: 帳戶快照
//
// 回傳:
//
//	error: ID 已存在時回傳 *domain.DuplicateAccountError
func (s *AccountStore) Create(ctx context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.ID]; ok {
		return &domain.DuplicateAccountError{AccountID: account.ID}
	}
	s.accounts[account.ID] = account
	return nil
}

// Get 取得帳戶快照
//
// 參數:
//
//	ctx: 上下文
//	accountID: 帳戶 ID
//
// 回傳:
//
//	domain.Account: 最新一次提交的快照
//	error: 不存在時回傳 *domain.AccountNotFoundError
func (s *AccountStore) Get(ctx context.Context, accountID string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return domain.Account{}, &domain.AccountNotFoundError{AccountID: accountID}
	}
	return account, nil
}

// Update 取代既有帳戶
// 只應該在持有帳戶鎖時呼叫，帳戶不存在屬於邏輯錯誤
func (s *AccountStore) Update(ctx context.Context, account domain.Account) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.ID]; !ok {
		return domain.Account{}, &domain.AccountNotFoundError{AccountID: account.ID}
	}
	s.accounts[account.ID] = account
	return account, nil
}

// All 回傳所有帳戶快照，依 ID 排序
func (s *AccountStore) All(ctx context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	accounts := make([]domain.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, account)
	}
	s.mu.RUnlock()

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].ID < accounts[j].ID
	})
	return accounts, nil
}

// Clear 清空所有帳戶
// 僅供測試重置使用，不透過任何對外介面開放
func (s *AccountStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = make(map[string]domain.Account)
}

var _ usecase.AccountStore = (*AccountStore)(nil)
