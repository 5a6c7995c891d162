package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-mem-transfer/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-transfer/internal/telemetry"
	"github.com/JoeShih716/go-mem-transfer/pkg/workerpool"
)

// TransferHandle 非同步轉帳的完成句柄
type TransferHandle = workerpool.Handle[domain.TransferResult]

// CoreUseCase 是核心業務邏輯層，對外只開放建立帳戶、查詢帳戶與轉帳
type CoreUseCase struct {
	store       AccountStore
	coordinator *TransferCoordinator
	scheduler   *workerpool.Pool
	logger      *zap.Logger
}

func NewCoreUseCase(store AccountStore, coordinator *TransferCoordinator, scheduler *workerpool.Pool, logger *zap.Logger) *CoreUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoreUseCase{
		store:       store,
		coordinator: coordinator,
		scheduler:   scheduler,
		logger:      logger,
	}
}

// CreateAccount 建立帳戶
func (c *CoreUseCase) CreateAccount(ctx context.Context, accountID string, balance decimal.Decimal) error {
	account, err := domain.NewAccount(accountID, balance)
	if err != nil {
		return err
	}
	if err := c.store.Create(ctx, account); err != nil {
		return err
	}
	telemetry.AccountsCreatedTotal.Inc()
	c.logger.Info("account created",
		zap.String("account", account.ID),
		zap.String("balance", account.Balance.String()),
	)
	return nil
}

// GetAccount 取得帳戶快照，直接在呼叫端執行不經過排程器
func (c *CoreUseCase) GetAccount(ctx context.Context, accountID string) (domain.Account, error) {
	return c.store.Get(ctx, accountID)
}

// Transfer 把轉帳交給排程器，立即回傳完成句柄
//
// 參數:
//
//	ctx: 在 worker 開始前取消時，轉帳不會執行
//	req: 轉帳請求
//
// 回傳:
//
//	*TransferHandle: 完成句柄
//	error: 排程器已滿時回傳 *domain.SchedulerSaturatedError
func (c *CoreUseCase) Transfer(ctx context.Context, req domain.TransferRequest) (*TransferHandle, error) {
	fields := []zap.Field{
		zap.String("transfer_id", req.ID.String()),
		zap.String("from", req.FromID),
		zap.String("to", req.ToID),
		zap.String("amount", req.Amount.String()),
	}
	handle, err := workerpool.Submit(c.scheduler, ctx, "transfer", fields, func(ctx context.Context) (domain.TransferResult, error) {
		return c.coordinator.Transfer(ctx, req)
	})
	if err != nil {
		if errors.Is(err, workerpool.ErrSaturated) {
			telemetry.TransfersTotal.WithLabelValues(telemetry.StatusRejected).Inc()
			c.logger.Warn("transfer rejected, scheduler saturated", fields...)
			return nil, &domain.SchedulerSaturatedError{FromID: req.FromID, ToID: req.ToID, Amount: req.Amount}
		}
		return nil, err
	}
	return handle, nil
}

// TransferSync 送出轉帳並等待結果
func (c *CoreUseCase) TransferSync(ctx context.Context, req domain.TransferRequest) (domain.TransferResult, error) {
	handle, err := c.Transfer(ctx, req)
	if err != nil {
		return domain.TransferResult{}, err
	}
	return handle.Wait(ctx)
}
