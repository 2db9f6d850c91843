// Package resource implements resource governance for the record store.
//
// Two resources are managed:
//
//   - Memory: every record table reserves its flat buffer against a budget
//     before it is allocated (non-blocking, fail-fast)
//   - Pace: a token bucket that spaces out emitted tokens during generation
//
// # Memory Management
//
// Memory tracking uses a weighted semaphore for hard limits and atomic counters
// for usage tracking. AcquireMemory is non-blocking and returns immediately
// with ErrMemoryLimitExceeded if the limit would be exceeded:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB limit
//	})
//
//	if err := rc.AcquireMemory(bytes); err != nil {
//	    // ErrMemoryLimitExceeded
//	}
//	defer rc.ReleaseMemory(bytes)
//
// # Pacing
//
//	p := resource.NewPacer(10 * time.Millisecond)
//	for {
//	    if err := p.Wait(ctx); err != nil {
//	        return err // ctx cancelled
//	    }
//	    emit()
//	}
//
// # Nil Safety
//
// All methods handle a nil Controller or Pacer gracefully - they become no-ops.
package resource
