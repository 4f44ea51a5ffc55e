package taskpool

import (
	"context"
	"sync"
	"testing"
)

// BenchmarkSubmitWait measures the round-trip overhead of submission plus
// handle delivery for a no-op task.
func BenchmarkSubmitWait(b *testing.B) {
	pool := New(4)
	defer pool.Shutdown()

	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handle, err := pool.Submit(TaskFunc(func(ctx context.Context) (interface{}, error) {
			return nil, nil
		}))
		if err != nil {
			b.Fatal(err)
		}
		if _, err := handle.Wait(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkParallelSubmit measures contention on the queue lock with many
// concurrent submitters.
func BenchmarkParallelSubmit(b *testing.B) {
	pool := New(8)
	defer pool.Shutdown()

	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			handle, err := pool.Submit(TaskFunc(func(ctx context.Context) (interface{}, error) {
				return nil, nil
			}))
			if err != nil {
				b.Fatal(err)
			}
			if _, err := handle.Wait(ctx); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkSubmitWithWork measures throughput with a small CPU-bound body.
func BenchmarkSubmitWithWork(b *testing.B) {
	pool := New(4)
	defer pool.Shutdown()

	ctx := context.Background()

	b.ResetTimer()
	var wg sync.WaitGroup
	for i := 0; i < b.N; i++ {
		handle, err := pool.Submit(TaskFunc(func(ctx context.Context) (interface{}, error) {
			sum := 0
			for j := 0; j < 1000; j++ {
				sum += j
			}
			return sum, nil
		}))
		if err != nil {
			b.Fatal(err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = handle.Wait(ctx)
		}()
	}
	wg.Wait()
}

// BenchmarkTypedSubmit measures the overhead the generic future adds on top
// of the erased handle.
func BenchmarkTypedSubmit(b *testing.B) {
	pool := New(4)
	defer pool.Shutdown()

	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		future, err := Submit(pool, func(ctx context.Context) (int, error) {
			return i, nil
		})
		if err != nil {
			b.Fatal(err)
		}
		if _, err := future.Wait(ctx); err != nil {
			b.Fatal(err)
		}
	}
}
