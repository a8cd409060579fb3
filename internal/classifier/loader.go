package classifier

import (
	"context"
	"fmt"
	"log"
	"time"
)

const (
	warmupText    = "Warm up request."
	warmupTimeout = 60 * time.Second
)

// Load 在进程启动时加载一次模型：发一条预热请求，
// 失败则返回永久不可用的分类器，不让进程退出
func Load(ctx context.Context, name string, backend Backend, adapt LabelAdapter) *Model {
	if backend == nil {
		log.Printf("classifier: %s has no backend, disabled", name)
		return Disabled(name)
	}

	ctx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()

	start := time.Now()
	if err := warmup(ctx, backend); err != nil {
		log.Printf("classifier: failed to load %s: %v (disabled for process lifetime)", name, err)
		return Disabled(name)
	}

	log.Printf("classifier: %s loaded in %s", name, time.Since(start).Round(time.Millisecond))
	return New(name, backend, adapt)
}

// warmup 预热请求，后端 panic 同样视为加载失败
func warmup(ctx context.Context, backend Backend) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	_, err = backend.Predict(ctx, warmupText)
	return err
}
