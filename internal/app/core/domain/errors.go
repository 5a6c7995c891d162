package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicateAccount 帳戶 ID 已存在
	ErrDuplicateAccount = errors.New("account already exists")

	// ErrAccountNotFound 找不到帳戶
	ErrAccountNotFound = errors.New("account not found")

	// ErrNegativeAmount 轉帳金額為負數
	ErrNegativeAmount = errors.New("negative transfer amount")

	// ErrInsufficientFunds 餘額不足
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSchedulerSaturated 工作池與佇列皆已滿
	ErrSchedulerSaturated = errors.New("transfer scheduler saturated")

	// ErrInvalidAccount 帳戶資料不合法 (空 ID 或負數初始餘額)
	ErrInvalidAccount = errors.New("invalid account")
)

// DuplicateAccountError 建立帳戶時 ID 衝突
type DuplicateAccountError struct {
	AccountID string
}

func (e *DuplicateAccountError) Error() string {
	return fmt.Sprintf("account id %s already exists", e.AccountID)
}

func (e *DuplicateAccountError) Unwrap() error { return ErrDuplicateAccount }

// AccountNotFoundError 轉帳引用了不存在的帳戶
type AccountNotFoundError struct {
	AccountID string
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("balance transfer failed: account [%s] does not exist", e.AccountID)
}

func (e *AccountNotFoundError) Unwrap() error { return ErrAccountNotFound }

// NegativeAmountError 轉帳金額小於零
type NegativeAmountError struct {
	Amount decimal.Decimal
}

func (e *NegativeAmountError) Error() string {
	return fmt.Sprintf("balance transfer failed: can not transfer negative amount [%s]", e.Amount)
}

func (e *NegativeAmountError) Unwrap() error { return ErrNegativeAmount }

// InsufficientFundsError 轉出帳戶餘額不足
type InsufficientFundsError struct {
	AccountID string
	Balance   decimal.Decimal
	Amount    decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("balance transfer failed: insufficient funds, account [%s] does not have sufficient balance to transfer [%s]",
		e.AccountID, e.Amount)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// SchedulerSaturatedError 排程器拒收 (Backpressure)
type SchedulerSaturatedError struct {
	FromID string
	ToID   string
	Amount decimal.Decimal
}

func (e *SchedulerSaturatedError) Error() string {
	return fmt.Sprintf("balance transfer rejected: scheduler saturated, transfer [%s] -> [%s] of [%s] not accepted",
		e.FromID, e.ToID, e.Amount)
}

func (e *SchedulerSaturatedError) Unwrap() error { return ErrSchedulerSaturated }
