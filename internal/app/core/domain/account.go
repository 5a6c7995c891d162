package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Account 帳戶快照
//
// Account 是值型別，decimal.Decimal 本身不可變，複製後可安全在 goroutine 間傳遞。
type Account struct {
	ID      string          `json:"accountId"`
	Balance decimal.Decimal `json:"balance"`
}

// NewAccount 建立帳戶並檢查初始資料
//
// 參數:
//
//	id: 帳戶 ID (不可為空白)
//	balance: 初始餘額 (不可為負數)
//
// 回傳:
//
//	Account: 帳戶快照
//	error: ErrInvalidAccount
func NewAccount(id string, balance decimal.Decimal) (Account, error) {
	if strings.TrimSpace(id) == "" {
		return Account{}, fmt.Errorf("%w: account id must not be empty", ErrInvalidAccount)
	}
	if balance.IsNegative() {
		return Account{}, fmt.Errorf("%w: initial balance [%s] must not be negative", ErrInvalidAccount, balance)
	}
	return Account{ID: id, Balance: balance}, nil
}

// Debit 扣款，回傳新的快照
func (a Account) Debit(amount decimal.Decimal) (Account, error) {
	if amount.IsNegative() {
		return a, &NegativeAmountError{Amount: amount}
	}
	if a.Balance.LessThan(amount) {
		return a, &InsufficientFundsError{AccountID: a.ID, Balance: a.Balance, Amount: amount}
	}
	a.Balance = a.Balance.Sub(amount)
	return a, nil
}

// Credit 入帳，回傳新的快照
func (a Account) Credit(amount decimal.Decimal) (Account, error) {
	if amount.IsNegative() {
		return a, &NegativeAmountError{Amount: amount}
	}
	a.Balance = a.Balance.Add(amount)
	return a, nil
}
