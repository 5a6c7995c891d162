package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-mem-transfer/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-transfer/internal/app/core/usecase"
)

// LogNotifier 把通知寫進 Log，作為沒有外部通道時的預設出口
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify 記錄一筆通知
func (n *LogNotifier) Notify(ctx context.Context, account domain.Account, message string) error {
	n.logger.Info("sending notification to owner",
		zap.String("account", account.ID),
		zap.String("balance", account.Balance.String()),
		zap.String("message", message),
	)
	return nil
}

var _ usecase.Notifier = (*LogNotifier)(nil)
