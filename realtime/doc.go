// Package realtime drives a reactchart.Chart from a fixed-rate tick loop.
//
// A Chart is confined to one goroutine. The Runtime owns that goroutine: other goroutines
// submit events, property changes and raw input, which are batched and applied at the next
// tick boundary in a deterministic order, followed by the tick notification itself.
//
// # Example Usage
//
//	chart, _ := builder.Build()
//	rt := realtime.NewRuntime(chart, realtime.Config{
//		TickRate: 16667 * time.Microsecond, // 60 FPS
//	})
//	rt.Start(ctx)
//	defer rt.Stop()
//	rt.SendEvent("open")
//
// # Event Ordering Guarantees
//
// Inputs queued for one tick are ordered by:
//  1. Priority (higher priority applied first)
//  2. Sequence number (FIFO for same priority)
//
// All inputs of a tick are applied inside one chart batch, so property changes made in
// the same tick are coalesced into a single property pass. Given the same sequence of
// submissions between ticks, the chart always executes the same way regardless of which
// goroutines submitted them.
//
// # Tick Phases
//
//  1. Enter the chart on the first tick after Start (the deferred enter of Chart.Ready)
//  2. Collect and sort queued inputs
//  3. Apply them inside one Chart.Batch
//  4. Call Chart.Process with the tick delta so tick reactions of active states fire
package realtime
