package lock

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// MemoryLocker 进程内房间锁，每个房间一个容量为 1 的信号量
type MemoryLocker struct {
	mu   sync.Mutex
	sems map[int]*semaphore.Weighted
	wait time.Duration
}

// NewMemoryLocker 创建进程内房间锁
func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	return &MemoryLocker{
		sems: make(map[int]*semaphore.Weighted),
		wait: wait,
	}
}

// Lock 获取房间锁
func (l *MemoryLocker) Lock(ctx context.Context, room int) (UnlockFunc, error) {
	sem := l.semaphore(room)

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	if err := sem.Acquire(waitCtx, 1); err != nil {
		return nil, busy(room, l.wait, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() { sem.Release(1) })
	}, nil
}

func (l *MemoryLocker) semaphore(room int) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.sems[room]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.sems[room] = sem
	}
	return sem
}
