package workerpool

import "context"

// Handle 單次賦值的結果槽
// worker 寫入結果後關閉 done，之後 Value/Err 不再改變
type Handle[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newHandle[T any]() *Handle[T] {
	return &Handle[T]{done: make(chan struct{})}
}

func (h *Handle[T]) complete(v T, err error) {
	h.value = v
	h.err = err
	close(h.done)
}

// Done 工作完成 (成功或失敗) 時關閉
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Wait 等待工作完成
// ctx 先到期時回傳 ctx.Err()，工作本身仍會在背景跑完
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
