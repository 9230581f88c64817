package job

import (
	"context"
	"log"
	"time"
)

// runLoop runs fn immediately, then on every tick until ctx is cancelled.
func runLoop(ctx context.Context, name string, interval time.Duration, fn func(context.Context)) {
	log.Printf("%s starting (interval %s)", name, interval)
	fn(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("%s stopped", name)
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}
