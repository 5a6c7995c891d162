package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-mem-transfer/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-mem-transfer/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-transfer/internal/app/core/usecase"
	"github.com/JoeShih716/go-mem-transfer/pkg/keylock"
)

type sentNotification struct {
	AccountID string
	Balance   decimal.Decimal
	Message   string
}

// recordingNotifier 記錄所有通知，可設定回傳錯誤或 panic
type recordingNotifier struct {
	mu    sync.Mutex
	sent  []sentNotification
	err   error
	panic bool
}

func (n *recordingNotifier) Notify(ctx context.Context, account domain.Account, message string) error {
	n.mu.Lock()
	n.sent = append(n.sent, sentNotification{AccountID: account.ID, Balance: account.Balance, Message: message})
	n.mu.Unlock()
	if n.panic {
		panic("notifier exploded")
	}
	return n.err
}

func (n *recordingNotifier) all() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotification(nil), n.sent...)
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func setupCoordinator(t *testing.T, accounts map[string]int64) (*usecase.TransferCoordinator, *memory.AccountStore, *recordingNotifier) {
	t.Helper()
	store := memory.NewAccountStore()
	for id, balance := range accounts {
		require.NoError(t, store.Create(context.Background(), domain.Account{ID: id, Balance: dec(balance)}))
	}
	notifier := &recordingNotifier{}
	return usecase.NewTransferCoordinator(store, keylock.New(), notifier, nil), store, notifier
}

func balanceOf(t *testing.T, store *memory.AccountStore, id string) decimal.Decimal {
	t.Helper()
	account, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	return account.Balance
}

func totalOf(t *testing.T, store *memory.AccountStore) decimal.Decimal {
	t.Helper()
	all, err := store.All(context.Background())
	require.NoError(t, err)
	total := decimal.Zero
	for _, a := range all {
		total = total.Add(a.Balance)
	}
	return total
}

func TestTransfer_Pass(t *testing.T) {
	c, store, notifier := setupCoordinator(t, map[string]int64{"ACC-TEST1-1": 1000, "ACC-TEST1-2": 1000})

	req := domain.NewTransferRequest("ACC-TEST1-1", "ACC-TEST1-2", dec(300))
	result, err := c.Transfer(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, result.From.Balance.Equal(dec(700)))
	assert.True(t, result.To.Balance.Equal(dec(1300)))
	assert.True(t, balanceOf(t, store, "ACC-TEST1-1").Equal(dec(700)))
	assert.True(t, balanceOf(t, store, "ACC-TEST1-2").Equal(dec(1300)))

	sent := notifier.all()
	require.Len(t, sent, 2)
	assert.Equal(t, "ACC-TEST1-1", sent[0].AccountID)
	assert.Equal(t, "Amount [300] debited from account. Updated balance [700]", sent[0].Message)
	assert.Equal(t, "ACC-TEST1-2", sent[1].AccountID)
	assert.Equal(t, "Amount [300] credited to account. Updated balance [1300]", sent[1].Message)
}

func TestTransfer_FailsOnMissingFromAccount(t *testing.T) {
	c, store, notifier := setupCoordinator(t, map[string]int64{"ACC-TEST2-2": 1000})

	_, err := c.Transfer(context.Background(), domain.NewTransferRequest("ACC-TEST2-1", "ACC-TEST2-2", dec(300)))

	var nf *domain.AccountNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ACC-TEST2-1", nf.AccountID)
	assert.EqualError(t, err, "balance transfer failed: account [ACC-TEST2-1] does not exist")
	assert.True(t, balanceOf(t, store, "ACC-TEST2-2").Equal(dec(1000)))
	assert.Empty(t, notifier.all())
}

func TestTransfer_FailsOnMissingToAccount(t *testing.T) {
	c, store, _ := setupCoordinator(t, map[string]int64{"ACC-TEST3-2": 1000})

	_, err := c.Transfer(context.Background(), domain.NewTransferRequest("ACC-TEST3-2", "ACC-TEST3-1", dec(300)))

	var nf *domain.AccountNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ACC-TEST3-1", nf.AccountID)
	assert.True(t, balanceOf(t, store, "ACC-TEST3-2").Equal(dec(1000)))
}

func TestTransfer_NegativeAmountCheckedBeforeAccounts(t *testing.T) {
	c, _, _ := setupCoordinator(t, nil)

	_, err := c.Transfer(context.Background(), domain.NewTransferRequest("ACC-2", "ACC-1", dec(-300)))

	var neg *domain.NegativeAmountError
	require.ErrorAs(t, err, &neg)
	assert.True(t, neg.Amount.Equal(dec(-300)))
	assert.NotErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	c, store, notifier := setupCoordinator(t, map[string]int64{"ACC-1": 100, "ACC-2": 1000})

	_, err := c.Transfer(context.Background(), domain.NewTransferRequest("ACC-1", "ACC-2", dec(300)))

	var insufficient *domain.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "ACC-1", insufficient.AccountID)
	assert.Contains(t, err.Error(), "[ACC-1]")
	assert.True(t, balanceOf(t, store, "ACC-1").Equal(dec(100)))
	assert.True(t, balanceOf(t, store, "ACC-2").Equal(dec(1000)))
	assert.Empty(t, notifier.all())
}

func TestTransfer_ZeroAmountIsAccepted(t *testing.T) {
	c, store, _ := setupCoordinator(t, map[string]int64{"A": 0, "B": 0})

	_, err := c.Transfer(context.Background(), domain.NewTransferRequest("A", "B", decimal.Zero))
	require.NoError(t, err)
	assert.True(t, balanceOf(t, store, "A").IsZero())
	assert.True(t, balanceOf(t, store, "B").IsZero())
}

func TestTransfer_FractionalAmounts(t *testing.T) {
	c, store, _ := setupCoordinator(t, nil)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, domain.Account{ID: "A", Balance: decimal.RequireFromString("123.45")}))
	require.NoError(t, store.Create(ctx, domain.Account{ID: "B", Balance: decimal.RequireFromString("0.05")}))

	_, err := c.Transfer(ctx, domain.NewTransferRequest("A", "B", decimal.RequireFromString("0.10")))
	require.NoError(t, err)
	assert.Equal(t, "123.35", balanceOf(t, store, "A").String())
	assert.Equal(t, "0.15", balanceOf(t, store, "B").String())
}

func TestTransfer_SelfTransferKeepsBalance(t *testing.T) {
	c, store, notifier := setupCoordinator(t, map[string]int64{"A": 500})

	result, err := c.Transfer(context.Background(), domain.NewTransferRequest("A", "A", dec(200)))
	require.NoError(t, err)
	assert.True(t, result.From.Balance.Equal(dec(500)))
	assert.True(t, balanceOf(t, store, "A").Equal(dec(500)))
	assert.Len(t, notifier.all(), 2)

	_, err = c.Transfer(context.Background(), domain.NewTransferRequest("A", "A", dec(600)))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestTransfer_NotificationFailureDoesNotFailTransfer(t *testing.T) {
	c, store, notifier := setupCoordinator(t, map[string]int64{"A": 100, "B": 0})
	notifier.err = errors.New("smtp down")

	_, err := c.Transfer(context.Background(), domain.NewTransferRequest("A", "B", dec(40)))
	require.NoError(t, err)
	assert.True(t, balanceOf(t, store, "A").Equal(dec(60)))
	assert.True(t, balanceOf(t, store, "B").Equal(dec(40)))
	assert.Len(t, notifier.all(), 2)
}

func TestTransfer_NotificationPanicDoesNotFailTransfer(t *testing.T) {
	c, store, notifier := setupCoordinator(t, map[string]int64{"A": 100, "B": 0})
	notifier.panic = true

	_, err := c.Transfer(context.Background(), domain.NewTransferRequest("A", "B", dec(40)))
	require.NoError(t, err)
	assert.True(t, balanceOf(t, store, "B").Equal(dec(40)))
	assert.Len(t, notifier.all(), 2)
}

// failingStore 對指定帳戶的 Update 回傳錯誤
type failingStore struct {
	*memory.AccountStore
	failID string
}

func (s *failingStore) Update(ctx context.Context, account domain.Account) (domain.Account, error) {
	if account.ID == s.failID {
		return domain.Account{}, errors.New("disk on fire")
	}
	return s.AccountStore.Update(ctx, account)
}

func TestTransfer_RestoresSourceWhenCreditUpdateFails(t *testing.T) {
	inner := memory.NewAccountStore()
	ctx := context.Background()
	require.NoError(t, inner.Create(ctx, domain.Account{ID: "A", Balance: dec(100)}))
	require.NoError(t, inner.Create(ctx, domain.Account{ID: "B", Balance: dec(0)}))
	notifier := &recordingNotifier{}
	c := usecase.NewTransferCoordinator(&failingStore{AccountStore: inner, failID: "B"}, keylock.New(), notifier, nil)

	_, err := c.Transfer(ctx, domain.NewTransferRequest("A", "B", dec(30)))
	require.Error(t, err)
	assert.True(t, balanceOf(t, inner, "A").Equal(dec(100)))
	assert.True(t, balanceOf(t, inner, "B").Equal(dec(0)))
	assert.Empty(t, notifier.all())
}

func TestTransfer_ConcurrentSameDirection(t *testing.T) {
	c, store, _ := setupCoordinator(t, map[string]int64{"A": 1000, "B": 1000})

	var wg sync.WaitGroup
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Transfer(context.Background(), domain.NewTransferRequest("A", "B", dec(100)))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, balanceOf(t, store, "A").Equal(dec(400)))
	assert.True(t, balanceOf(t, store, "B").Equal(dec(1600)))
}

func TestTransfer_NoOverdraftUnderContention(t *testing.T) {
	c, store, _ := setupCoordinator(t, map[string]int64{"A": 500, "B": 0})

	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, insufficient int
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Transfer(context.Background(), domain.NewTransferRequest("A", "B", dec(100)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientFunds):
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 15, insufficient)
	assert.True(t, balanceOf(t, store, "A").IsZero())
	assert.True(t, balanceOf(t, store, "B").Equal(dec(500)))
}

func TestTransfer_OppositeDirectionsComplete(t *testing.T) {
	c, store, _ := setupCoordinator(t, map[string]int64{"A": 100, "B": 100})

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for i := range 400 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				from, to := "A", "B"
				if i%2 == 1 {
					from, to = "B", "A"
				}
				_, err := c.Transfer(context.Background(), domain.NewTransferRequest(from, to, dec(150)))
				if err != nil && !errors.Is(err, domain.ErrInsufficientFunds) {
					t.Errorf("unexpected error: %v", err)
				}
			}(i)
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("A->B and B->A transfers deadlocked")
	}
	assert.True(t, totalOf(t, store).Equal(dec(200)))
	assert.False(t, balanceOf(t, store, "A").IsNegative())
	assert.False(t, balanceOf(t, store, "B").IsNegative())
}

func TestTransfer_RandomTransfersConserveTotal(t *testing.T) {
	accounts := make(map[string]int64)
	for i := range 8 {
		accounts[fmt.Sprintf("acc-%d", i)] = 1000
	}
	c, store, _ := setupCoordinator(t, accounts)
	before := totalOf(t, store)

	var wg sync.WaitGroup
	for g := range 16 {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for range 200 {
				from := fmt.Sprintf("acc-%d", r.Intn(8))
				to := fmt.Sprintf("acc-%d", r.Intn(8))
				_, err := c.Transfer(context.Background(), domain.NewTransferRequest(from, to, dec(int64(r.Intn(400)))))
				if err != nil && !errors.Is(err, domain.ErrInsufficientFunds) {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}(int64(g))
	}
	wg.Wait()

	assert.True(t, totalOf(t, store).Equal(before))
	all, err := store.All(context.Background())
	require.NoError(t, err)
	for _, a := range all {
		assert.False(t, a.Balance.IsNegative(), "account %s went negative", a.ID)
	}
}
