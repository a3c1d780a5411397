package benchmarks

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/comalice/reactchart/realtime"
)

// BenchmarkTickProcessing measures one tick applying a batch of queued events.
func BenchmarkTickProcessing(b *testing.B) {
	for _, n := range []int{1, 10, 100} {
		b.Run(fmt.Sprintf("events=%d", n), func(b *testing.B) {
			c, err := GenFlat(2).Build()
			if err != nil {
				b.Fatal(err)
			}
			rt := realtime.NewRuntime(c, realtime.Config{MaxEventsPerTick: n})
			if err := rt.Step(0); err != nil {
				b.Fatal(err)
			}
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				for j := 0; j < n; j++ {
					if err := rt.SendEventWithPriority("tick", j%3); err != nil {
						b.Fatal(err)
					}
				}
				if err := rt.Step(time.Millisecond); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkConcurrentSend measures queueing from many goroutines while the tick loop runs.
func BenchmarkConcurrentSend(b *testing.B) {
	c, err := GenFlat(2).Build()
	if err != nil {
		b.Fatal(err)
	}
	rt := realtime.NewRuntime(c, realtime.Config{TickRate: time.Millisecond, MaxEventsPerTick: 1 << 20})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := rt.Start(ctx); err != nil {
		b.Fatal(err)
	}
	defer rt.Stop()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = rt.SendEvent("tick")
		}
	})
}
