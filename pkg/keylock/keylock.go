// Package keylock 提供以字串為 key 的互斥鎖表。
//
// 同時鎖定多個 key 時一律依字典序取得，A->B 與 B->A 會先搶同一把鎖，
// 因此不會形成循環等待。
package keylock

import (
	"slices"
	"sync"
)

// refLock 單一 key 的鎖，refs 記錄持有或等待中的數量
type refLock struct {
	mu   sync.Mutex
	refs int
}

// Locker 管理每個 key 的 Mutex
//
// 結構:
//
//	mu: 保護 locks 表本身
//	locks: key 對應的鎖，沒有人使用時會被移除
type Locker struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

// New 建立一個新的 Locker
func New() *Locker {
	return &Locker{
		locks: make(map[string]*refLock),
	}
}

// Order 回傳排序且去重後的 key (全域一致的鎖定順序)
func Order(keys ...string) []string {
	ordered := slices.Clone(keys)
	slices.Sort(ordered)
	return slices.Compact(ordered)
}

// Lock 依 Order 的順序鎖定所有 key，阻塞直到全部取得
//
// 參數:
//
//	keys: 要鎖定的 key，重複的 key 只鎖一次 (例如自己轉給自己)
//
// 回傳:
//
//	func(): 釋放函式，以相反順序解鎖，重複呼叫無副作用
func (l *Locker) Lock(keys ...string) (unlock func()) {
	ordered := Order(keys...)
	held := make([]*refLock, 0, len(ordered))
	for _, key := range ordered {
		rl := l.acquire(key)
		rl.mu.Lock()
		held = append(held, rl)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(held) - 1; i >= 0; i-- {
				held[i].mu.Unlock()
				l.release(ordered[i])
			}
		})
	}
}

// WithLock 在持有所有 key 的鎖期間執行 fn
// fn 回傳錯誤或 panic 時鎖都會被釋放
func (l *Locker) WithLock(keys []string, fn func() error) error {
	unlock := l.Lock(keys...)
	defer unlock()
	return fn()
}

// Len 回傳目前鎖表中的 key 數量
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func (l *Locker) acquire(key string) *refLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	rl, ok := l.locks[key]
	if !ok {
		rl = &refLock{}
		l.locks[key] = rl
	}
	rl.refs++
	return rl
}

func (l *Locker) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rl, ok := l.locks[key]
	if !ok {
		return
	}
	rl.refs--
	if rl.refs == 0 {
		delete(l.locks, key)
	}
}
