package dedup

import (
	"context"
	"sync"
)

// TitleLookup 按标题精确查询是否已存在
type TitleLookup interface {
	ExistsByTitle(ctx context.Context, title string) (bool, error)
}

// Gate 以标题精确匹配做去重；同一标题的 检查→插入 在进程内串行
type Gate struct {
	store TitleLookup

	mu    sync.Mutex
	locks map[string]*titleLock
}

type titleLock struct {
	mu   sync.Mutex
	refs int
}

func NewGate(store TitleLookup) *Gate {
	return &Gate{store: store, locks: make(map[string]*titleLock)}
}

// IsDuplicate 标题已存在返回 true；查询失败时把错误交给调用方决定
func (g *Gate) IsDuplicate(ctx context.Context, title string) (bool, error) {
	if title == "" {
		return false, nil
	}
	return g.store.ExistsByTitle(ctx, title)
}

// Guard 在持有该标题的锁期间执行 fn，不同标题互不阻塞
func (g *Gate) Guard(title string, fn func() error) error {
	l := g.acquire(title)
	defer g.release(title, l)
	return fn()
}

func (g *Gate) acquire(title string) *titleLock {
	g.mu.Lock()
	l, ok := g.locks[title]
	if !ok {
		l = &titleLock{}
		g.locks[title] = l
	}
	l.refs++
	g.mu.Unlock()

	l.mu.Lock()
	return l
}

func (g *Gate) release(title string, l *titleLock) {
	l.mu.Unlock()

	g.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(g.locks, title)
	}
	g.mu.Unlock()
}

// pending 当前持有或等待中的标题数
func (g *Gate) pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.locks)
}
