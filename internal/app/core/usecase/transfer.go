package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-mem-transfer/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-transfer/internal/telemetry"
)

// TransferCoordinator 負責單筆轉帳的驗證、鎖定、扣款入帳與通知
//
// 驗證與兩次 Update 都在同時持有兩個帳戶鎖的期間完成，
// 其他轉帳看不到「已扣款未入帳」的中間狀態，也無法在檢查餘額後插隊扣款。
type TransferCoordinator struct {
	store    AccountStore
	locks    Locker
	notifier Notifier
	logger   *zap.Logger
}

// NewTransferCoordinator 建立 TransferCoordinator
//
// 參數:
//
//	store: 帳戶儲存
//	locks: 帳戶鎖
//	notifier: 通知出口，nil 表示不通知
//	logger: Logger
func NewTransferCoordinator(store AccountStore, locks Locker, notifier Notifier, logger *zap.Logger) *TransferCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferCoordinator{
		store:    store,
		locks:    locks,
		notifier: notifier,
		logger:   logger,
	}
}

// Transfer 執行轉帳
//
// 驗證順序固定: 金額正負 -> 轉出帳戶存在 -> 轉入帳戶存在 -> 餘額足夠
//
// 參數:
//
//	ctx: 上下文
//	req: 轉帳請求
//
// 回傳:
//
//	domain.TransferResult: 兩個帳戶更新後的快照
//	error: *domain.NegativeAmountError, *domain.AccountNotFoundError, *domain.InsufficientFundsError
func (c *TransferCoordinator) Transfer(ctx context.Context, req domain.TransferRequest) (domain.TransferResult, error) {
	start := time.Now()
	defer func() {
		telemetry.TransferDuration.Observe(time.Since(start).Seconds())
	}()

	// 1. 金額檢查在取得鎖之前
	if req.Amount.IsNegative() {
		telemetry.TransfersTotal.WithLabelValues(telemetry.StatusNegativeAmount).Inc()
		return domain.TransferResult{}, &domain.NegativeAmountError{Amount: req.Amount}
	}

	// 2~7. 臨界區
	result, err := c.commit(ctx, req)
	if err != nil {
		telemetry.TransfersTotal.WithLabelValues(statusOf(err)).Inc()
		return domain.TransferResult{}, err
	}
	telemetry.TransfersTotal.WithLabelValues(telemetry.StatusSuccess).Inc()

	// 8. 鎖已釋放，通知失敗不影響結果
	c.notify(ctx, result.From, domain.DebitMessage(req.Amount, result.From))
	c.notify(ctx, result.To, domain.CreditMessage(req.Amount, result.To))

	c.logger.Info("balance transfer success",
		zap.String("transfer_id", req.ID.String()),
		zap.String("from", req.FromID),
		zap.String("to", req.ToID),
		zap.String("amount", req.Amount.String()),
	)
	return result, nil
}

// commit 在持有兩把鎖的情況下驗證並更新帳戶
func (c *TransferCoordinator) commit(ctx context.Context, req domain.TransferRequest) (domain.TransferResult, error) {
	unlock := c.locks.Lock(req.LockIDs()...)
	defer unlock()

	from, err := c.store.Get(ctx, req.FromID)
	if err != nil {
		return domain.TransferResult{}, err
	}
	to, err := c.store.Get(ctx, req.ToID)
	if err != nil {
		return domain.TransferResult{}, err
	}

	debited, err := from.Debit(req.Amount)
	if err != nil {
		return domain.TransferResult{}, err
	}

	// 自己轉給自己: 驗證照做，餘額不變
	if req.FromID == req.ToID {
		return domain.TransferResult{From: from, To: from}, nil
	}

	credited, err := to.Credit(req.Amount)
	if err != nil {
		return domain.TransferResult{}, err
	}

	updatedFrom, err := c.store.Update(ctx, debited)
	if err != nil {
		return domain.TransferResult{}, fmt.Errorf("update account [%s]: %w", from.ID, err)
	}
	updatedTo, err := c.store.Update(ctx, credited)
	if err != nil {
		// 還原轉出帳戶，維持總額守恆
		if _, rollbackErr := c.store.Update(ctx, from); rollbackErr != nil {
			err = errors.Join(err, rollbackErr)
		}
		return domain.TransferResult{}, fmt.Errorf("update account [%s]: %w", to.ID, err)
	}
	return domain.TransferResult{From: updatedFrom, To: updatedTo}, nil
}

// notify 呼叫 Notifier，錯誤與 panic 只記錄
func (c *TransferCoordinator) notify(ctx context.Context, account domain.Account, message string) {
	if c.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			telemetry.NotificationsTotal.WithLabelValues("failed").Inc()
			c.logger.Warn("notifier panicked",
				zap.String("account", account.ID),
				zap.Any("panic", r),
			)
		}
	}()

	if err := c.notifier.Notify(ctx, account, message); err != nil {
		telemetry.NotificationsTotal.WithLabelValues("failed").Inc()
		c.logger.Warn("notification failed",
			zap.String("account", account.ID),
			zap.String("message", message),
			zap.Error(err),
		)
		return
	}
	telemetry.NotificationsTotal.WithLabelValues("sent").Inc()
}

func statusOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return telemetry.StatusAccountNotFound
	case errors.Is(err, domain.ErrInsufficientFunds):
		return telemetry.StatusInsufficientFunds
	case errors.Is(err, domain.ErrNegativeAmount):
		return telemetry.StatusNegativeAmount
	case errors.Is(err, domain.ErrSchedulerSaturated):
		return telemetry.StatusRejected
	default:
		return telemetry.StatusFailed
	}
}
