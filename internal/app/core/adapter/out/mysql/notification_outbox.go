package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/JoeShih716/go-mem-transfer/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-transfer/internal/app/core/usecase"
	"github.com/JoeShih716/go-mem-transfer/pkg/mysql"
)

// 通知狀態
const (
	StatusPending = "pending"
	StatusSent    = "sent"
)

// sqlNotification 對應資料庫的 notification_outbox 表
type sqlNotification struct {
	ID        []byte `gorm:"primaryKey;type:binary(16)"`
	AccountID string `gorm:"type:varchar(128);index"`
	Balance   string `gorm:"type:varchar(64)"`
	Message   string `gorm:"type:varchar(512)"`
	Status    string `gorm:"type:varchar(16);index"`
	CreatedAt int64  `gorm:"autoCreateTime:milli"`
	SentAt    *int64
}

func (*sqlNotification) TableName() string {
	return "notification_outbox"
}

// NotificationOutbox 把通知寫入 MySQL outbox 表，由外部投遞程式讀取並寄送
// 帳本本身仍只存在記憶體
type NotificationOutbox struct {
	client *mysql.Client
}

// NewNotificationOutbox 建立 outbox 並確保資料表存在
func NewNotificationOutbox(ctx context.Context, client *mysql.Client) (*NotificationOutbox, error) {
	if err := client.DB().WithContext(ctx).AutoMigrate(&sqlNotification{}); err != nil {
		return nil, fmt.Errorf("failed to migrate notification_outbox: %w", err)
	}
	return &NotificationOutbox{client: client}, nil
}

// Notify 新增一筆 pending 通知
func (o *NotificationOutbox) Notify(ctx context.Context, account domain.Account, message string) error {
	n := domain.NewNotification(account, message)
	row := sqlNotification{
		ID:        n.ID[:],
		AccountID: n.AccountID,
		Balance:   n.Balance.String(),
		Message:   n.Message,
		Status:    StatusPending,
	}
	if err := o.client.DB().WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert notification for account [%s]: %w", account.ID, err)
	}
	return nil
}

// ClaimPending 取出最多 limit 筆 pending 通知並標記為 sent
// 使用 FOR UPDATE SKIP LOCKED，多個投遞程式不會拿到同一筆
func (o *NotificationOutbox) ClaimPending(ctx context.Context, limit int) ([]domain.Notification, error) {
	var claimed []domain.Notification
	err := o.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []sqlNotification
		if err := tx.Raw("SELECT * FROM notification_outbox WHERE status = ? ORDER BY created_at LIMIT ? FOR UPDATE SKIP LOCKED",
			StatusPending, limit).Scan(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([][]byte, 0, len(rows))
		for _, row := range rows {
			n, err := row.toDomain()
			if err != nil {
				return err
			}
			claimed = append(claimed, n)
			ids = append(ids, row.ID)
		}
		return tx.Model(&sqlNotification{}).
			Where("id IN ?", ids).
			Updates(map[string]any{"status": StatusSent, "sent_at": gorm.Expr("UNIX_TIMESTAMP(NOW(3)) * 1000")}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to claim notifications: %w", err)
	}
	return claimed, nil
}

// Relay 定期取出 pending 通知交給 deliver，直到 ctx 結束
// 通知在交付前已標記為 sent，deliver 失敗只會記錄
func (o *NotificationOutbox) Relay(ctx context.Context, interval time.Duration, batch int, deliver func(context.Context, domain.Notification) error, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		claimed, err := o.ClaimPending(ctx, batch)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn("outbox claim failed", zap.Error(err))
			}
			continue
		}
		for _, n := range claimed {
			if err := deliver(ctx, n); err != nil {
				log.Warn("outbox delivery failed",
					zap.String("notification_id", n.ID.String()),
					zap.String("account", n.AccountID),
					zap.Error(err),
				)
			}
		}
	}
}

func (r sqlNotification) toDomain() (domain.Notification, error) {
	id, err := uuid.FromBytes(r.ID)
	if err != nil {
		return domain.Notification{}, err
	}
	n := domain.Notification{
		ID:        id,
		AccountID: r.AccountID,
		Message:   r.Message,
	}
	if err := n.Balance.UnmarshalText([]byte(r.Balance)); err != nil {
		return domain.Notification{}, err
	}
	n.CreatedAt = time.UnixMilli(r.CreatedAt).UTC()
	return n, nil
}

var _ usecase.Notifier = (*NotificationOutbox)(nil)
