// Package workerpool 實作固定數量 worker 與有界佇列的工作池。
//
// Submit 不會阻塞呼叫端：佇列已滿時立即回傳 ErrSaturated。
// 每個工作對應一個 Handle，worker 把結果寫入 Handle 後關閉 done channel，
// 呼叫端可以 Wait，也可以直接丟棄 Handle。
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrSaturated 佇列已滿且沒有空閒 worker
	ErrSaturated = errors.New("worker pool saturated")
	// ErrClosed 工作池已關閉
	ErrClosed = errors.New("worker pool closed")
)

// PanicError worker 執行工作時發生 panic
type PanicError struct {
	Operation string
	Value     any
	Stack     []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.Value)
}

// Config 工作池設定
type Config struct {
	Workers       int `yaml:"workers"`
	QueueCapacity int `yaml:"queue_capacity"`
}

const (
	DefaultWorkers       = 3
	DefaultQueueCapacity = 100
)

// WithDefaults 補全未設定或非正數的欄位
func (c Config) WithDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	return c
}

// Observer 接收工作池事件，用於 Metrics
type Observer interface {
	QueueDepth(depth int)
	Rejected()
	Panicked(operation string)
}

type nopObserver struct{}

func (nopObserver) QueueDepth(int)  {}
func (nopObserver) Rejected()       {}
func (nopObserver) Panicked(string) {}

// job 佇列中的一筆工作
type job struct {
	ctx       context.Context
	operation string
	fields    []zap.Field
	run       func(ctx context.Context)
	fail      func(err error)
}

// Pool 固定大小的工作池
//
// 結構:
//
//	queue: 有界佇列
//	mu: 保護 closed，避免對已關閉的 channel 送資料
//	wg: 等待所有 worker 結束
type Pool struct {
	queue    chan *job
	logger   *zap.Logger
	observer Observer
	mu       sync.RWMutex
	closed   bool
	wg       sync.WaitGroup
}

// Option 工作池選項
type Option func(*Pool)

// WithObserver 設定事件觀察者
func WithObserver(o Observer) Option {
	return func(p *Pool) {
		if o != nil {
			p.observer = o
		}
	}
}

// New 建立並啟動工作池
//
// 參數:
//
//	cfg: Workers 與 QueueCapacity，小於等於零時使用 3 與 100
//	logger: 記錄 worker 內的 panic
//	opts: 選項
//
// 回傳:
//
//	*Pool: 已啟動的工作池
func New(cfg Config, logger *zap.Logger, opts ...Option) *Pool {
	cfg = cfg.WithDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{
		queue:    make(chan *job, cfg.QueueCapacity),
		logger:   logger,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.worker(i)
	}
	return p
}

// Close 停止接收新工作，處理完佇列中剩餘的工作後返回
// ctx 到期時不再等待 worker，直接回傳 ctx.Err()
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending 佇列中等待執行的工作數量
func (p *Pool) Pending() int {
	return len(p.queue)
}

// enqueue 非阻塞地放入佇列
func (p *Pool) enqueue(j *job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.queue <- j:
		p.observer.QueueDepth(len(p.queue))
		return nil
	default:
		p.observer.Rejected()
		return ErrSaturated
	}
}

func (p *Pool) worker(idx int) {
	defer p.wg.Done()
	for j := range p.queue {
		p.observer.QueueDepth(len(p.queue))
		p.execute(idx, j)
	}
}

// execute 執行單筆工作，panic 會被轉為 PanicError 交給呼叫端
func (p *Pool) execute(idx int, j *job) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			fields := append([]zap.Field{
				zap.Int("worker", idx),
				zap.String("operation", j.operation),
				zap.Any("panic", r),
				zap.ByteString("stack", stack),
			}, j.fields...)
			p.logger.Error("worker recovered from panic", fields...)
			p.observer.Panicked(j.operation)
			j.fail(&PanicError{Operation: j.operation, Value: r, Stack: stack})
		}
	}()

	// 呼叫端在開始前就放棄了
	if err := j.ctx.Err(); err != nil {
		j.fail(err)
		return
	}
	// 開始後跑到結束，不再受呼叫端取消影響
	j.run(context.WithoutCancel(j.ctx))
}

// Submit 把 fn 放入工作池並回傳 Handle
//
// 參數:
//
//	p: 工作池
//	ctx: 若在 worker 開始前被取消，工作會被略過
//	operation: 操作名稱，panic 時寫入 Log
//	fields: 識別這筆工作的 Log 欄位
//	fn: 實際工作
//
// 回傳:
//
//	*Handle[T]: 完成後可取得結果
//	error: ErrSaturated 或 ErrClosed
func Submit[T any](p *Pool, ctx context.Context, operation string, fields []zap.Field, fn func(ctx context.Context) (T, error)) (*Handle[T], error) {
	h := newHandle[T]()
	j := &job{
		ctx:       ctx,
		operation: operation,
		fields:    fields,
		run: func(ctx context.Context) {
			v, err := fn(ctx)
			h.complete(v, err)
		},
		fail: func(err error) {
			var zero T
			h.complete(zero, err)
		},
	}
	if err := p.enqueue(j); err != nil {
		return nil, err
	}
	return h, nil
}
