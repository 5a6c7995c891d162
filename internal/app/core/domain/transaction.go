package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferRequest 轉帳請求
type TransferRequest struct {
	// ID: 外部追蹤號，只用於 Log 與 Metrics 關聯
	ID     uuid.UUID
	FromID string
	ToID   string
	Amount decimal.Decimal
}

// NewTransferRequest 建立轉帳請求並配置 UUIDv7 追蹤號
func NewTransferRequest(fromID, toID string, amount decimal.Decimal) TransferRequest {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return TransferRequest{
		ID:     id,
		FromID: fromID,
		ToID:   toID,
		Amount: amount,
	}
}

// LockIDs 回傳需要鎖定的帳號 ID
// 順序由 Locker 統一決定，這裡只負責列出
func (t TransferRequest) LockIDs() []string {
	return []string{t.FromID, t.ToID}
}

// TransferResult 轉帳完成後的兩個帳戶快照
type TransferResult struct {
	From Account
	To   Account
}
