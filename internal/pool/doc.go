// Package pool runs tasks on a fixed set of executor goroutines.
//
// Each executor loops on a shared inbound queue and handles exactly one task
// at a time. Submit hands back a Future immediately; results complete in
// whatever order the executors finish. A handler error or panic is caught at
// the executor boundary and delivered through the Future as a failed Result,
// so an executor never dies from a bad task.
//
// Usage:
//
//	p, err := pool.New(runtime.NumCPU(), func(ctx context.Context, t Task) (Out, error) {
//		return process(t), nil
//	})
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//
//	res := p.Submit(ctx, task).Result()
package pool
