package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-mem-transfer/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-transfer/internal/app/core/usecase"
)

// DefaultSubject 預設的通知主題
const DefaultSubject = "ledger.notifications"

// NATSNotifier 把通知發佈到 NATS 主題
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
}

// Connect 建立 NATS 連線
//
// 參數:
//
//	url: NATS 位址，例如 nats://localhost:4222
//	logger: 記錄斷線與重連
//
// 回傳:
//
//	*nats.Conn: 連線
//	error: 連線錯誤
func Connect(url string, logger *zap.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("go-mem-transfer"),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(10),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

func NewNATSNotifier(conn *nats.Conn, subject string) *NATSNotifier {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSNotifier{conn: conn, subject: subject}
}

// Notify 發佈 JSON 編碼的 domain.Notification
func (n *NATSNotifier) Notify(ctx context.Context, account domain.Account, message string) error {
	data, err := json.Marshal(domain.NewNotification(account, message))
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

var _ usecase.Notifier = (*NATSNotifier)(nil)
