package notify

import (
	"context"
	"fmt"

	"github.com/JoeShih716/go-mem-transfer/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-transfer/internal/app/core/usecase"
	"github.com/JoeShih716/go-mem-transfer/pkg/journal"
)

// JournalNotifier 把通知附加寫入本機檔案，供外部程式 tail 後投遞
type JournalNotifier struct {
	journal *journal.Journal
}

func NewJournalNotifier(j *journal.Journal) *JournalNotifier {
	return &JournalNotifier{journal: j}
}

// Notify 寫入一筆 domain.Notification
func (n *JournalNotifier) Notify(ctx context.Context, account domain.Account, message string) error {
	if err := n.journal.Append(domain.NewNotification(account, message)); err != nil {
		return fmt.Errorf("append notification for account [%s]: %w", account.ID, err)
	}
	return nil
}

var _ usecase.Notifier = (*JournalNotifier)(nil)
