package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Notification 轉帳後發給帳戶持有人的通知
type Notification struct {
	ID        uuid.UUID       `json:"id"`
	AccountID string          `json:"accountId"`
	Balance   decimal.Decimal `json:"balance"`
	Message   string          `json:"message"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewNotification 依帳戶快照建立通知
func NewNotification(account Account, message string) Notification {
	return Notification{
		ID:        uuid.New(),
		AccountID: account.ID,
		Balance:   account.Balance,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// DebitMessage 扣款通知內容
func DebitMessage(amount decimal.Decimal, account Account) string {
	return fmt.Sprintf("Amount [%s] debited from account. Updated balance [%s]", amount, account.Balance)
}

// CreditMessage 入帳通知內容
func CreditMessage(amount decimal.Decimal, account Account) string {
	return fmt.Sprintf("Amount [%s] credited to account. Updated balance [%s]", amount, account.Balance)
}
