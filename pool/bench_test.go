package pool

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// cpuBoundWork simulates a CPU-intensive computation per item.
func cpuBoundWork(iterations int) ComputeFunc[testItem, int] {
	return func(ctx context.Context, item testItem) (int, error) {
		result := 0
		for i := range iterations {
			result += i * len(item)
		}
		return result, nil
	}
}

// ioBoundWork simulates a network call with a fixed delay.
func ioBoundWork(delay time.Duration) ComputeFunc[testItem, int] {
	return func(ctx context.Context, item testItem) (int, error) {
		select {
		case <-time.After(delay):
			return len(item), nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

func benchItems(n int) []testItem {
	items := make([]testItem, n)
	for i := range items {
		items[i] = testItem(fmt.Sprintf("item-%05d", i))
	}
	return items
}

func BenchmarkRun_CPUBound(b *testing.B) {
	items := benchItems(1000)
	fn := cpuBoundWork(1000)

	for _, workers := range []int{1, 4, 16} {
		b.Run(fmt.Sprintf("workers-%d", workers), func(b *testing.B) {
			p := New[testItem, int](WithWorkers(workers))
			b.ResetTimer()
			for range b.N {
				for range p.Run(context.Background(), items, fn) {
				}
			}
		})
	}
}

func BenchmarkRun_IOBound(b *testing.B) {
	items := benchItems(200)
	fn := ioBoundWork(time.Millisecond)

	for _, workers := range []int{4, 16, 64} {
		b.Run(fmt.Sprintf("workers-%d", workers), func(b *testing.B) {
			p := New[testItem, int](WithWorkers(workers))
			b.ResetTimer()
			for range b.N {
				for range p.Run(context.Background(), items, fn) {
				}
			}
		})
	}
}

func BenchmarkRun_RateLimited(b *testing.B) {
	items := benchItems(100)
	fn := cpuBoundWork(100)

	p := New[testItem, int](
		WithWorkers(16),
		WithMinInterval(100*time.Microsecond),
	)
	b.ResetTimer()
	for range b.N {
		for range p.Run(context.Background(), items, fn) {
		}
	}
}
