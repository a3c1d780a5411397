package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/comalice/reactchart"
)

// ErrQueueFull is returned when more inputs are queued than one tick accepts.
var ErrQueueFull = errors.New("input queue full")

// ErrStopped is returned by Start after Stop.
var ErrStopped = errors.New("runtime stopped")

// Config configures the real-time runtime.
type Config struct {
	TickRate         time.Duration // Fixed tick rate (default 16.67ms for 60 FPS)
	MaxEventsPerTick int           // Input queue capacity (default 1000)
	Logger           *slog.Logger
	// OnError receives dispatch errors from the tick loop. By default they are logged.
	OnError func(error)
}

// Runtime owns a chart and applies batched inputs at fixed tick boundaries.
type Runtime struct {
	chart   *reactchart.Chart
	chartMu sync.Mutex

	tickRate time.Duration
	logger   *slog.Logger
	onError  func(error)

	batch       []InputWithMeta
	batchMu     sync.Mutex
	sequenceNum uint64
	tickNum     uint64

	tickCancel context.CancelFunc
	stopped    chan struct{}
	stopOnce   sync.Once
}

// NewRuntime creates a tick runtime for chart. The runtime takes over the chart: after
// Start, access it only through Do.
func NewRuntime(chart *reactchart.Chart, cfg Config) *Runtime {
	if cfg.MaxEventsPerTick <= 0 {
		cfg.MaxEventsPerTick = 1000
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 16667 * time.Microsecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	rt := &Runtime{
		chart:    chart,
		tickRate: cfg.TickRate,
		logger:   cfg.Logger,
		onError:  cfg.OnError,
		batch:    make([]InputWithMeta, 0, cfg.MaxEventsPerTick),
		stopped:  make(chan struct{}),
	}
	if rt.onError == nil {
		rt.onError = func(err error) {
			rt.logger.Error("tick failed", "chart", chart.Name(), "error", err)
		}
	}
	return rt
}

// Start readies the chart and launches the tick loop. The chart is entered on the first tick.
func (rt *Runtime) Start(ctx context.Context) error {
	select {
	case <-rt.stopped:
		return ErrStopped
	default:
	}
	rt.chartMu.Lock()
	err := rt.chart.Ready()
	rt.chartMu.Unlock()
	if err != nil {
		return err
	}

	tickCtx, cancel := context.WithCancel(ctx)
	rt.tickCancel = cancel
	ticker := time.NewTicker(rt.tickRate)
	go rt.tickLoop(tickCtx, ticker)
	return nil
}

// Stop ends the tick loop and waits for the current tick to finish. Safe to call twice.
func (rt *Runtime) Stop() error {
	if rt.tickCancel == nil {
		rt.stopOnce.Do(func() { close(rt.stopped) })
		return nil
	}
	rt.tickCancel()
	<-rt.stopped
	return nil
}

func (rt *Runtime) tickLoop(ctx context.Context, ticker *time.Ticker) {
	defer rt.stopOnce.Do(func() { close(rt.stopped) })
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			delta := now.Sub(last)
			last = now
			if err := rt.safeStep(delta); err != nil {
				rt.onError(err)
			}
		}
	}
}

func (rt *Runtime) safeStep(delta time.Duration) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during tick: %v", r)
		}
	}()
	return rt.Step(delta)
}

// Step runs one tick synchronously. The tick loop calls it; tests and hosts with their own
// frame clock may call it directly instead of Start.
func (rt *Runtime) Step(delta time.Duration) error {
	rt.chartMu.Lock()
	defer rt.chartMu.Unlock()
	defer func() {
		rt.batchMu.Lock()
		rt.tickNum++
		rt.batchMu.Unlock()
	}()

	if !rt.chart.Initialized() {
		if err := rt.chart.Ready(); err != nil {
			return err
		}
	}
	if !rt.chart.Entered() {
		if err := rt.chart.Enter(); err != nil {
			return fmt.Errorf("enter: %w", err)
		}
	}

	inputs := rt.collectInputs()
	sortInputs(inputs)
	if len(inputs) > 0 {
		err := rt.chart.Batch(func() error {
			var errs []error
			for _, in := range inputs {
				errs = append(errs, rt.apply(in))
			}
			return errors.Join(errs...)
		})
		if err != nil {
			return err
		}
	}
	return rt.chart.Process(delta)
}

func (rt *Runtime) apply(in InputWithMeta) error {
	switch in.kind {
	case inputEvent:
		return rt.chart.SendEvent(in.Name)
	case inputProperty:
		return rt.chart.SetProperty(in.Name, in.Value)
	default:
		return rt.chart.Input(in.Value)
	}
}

// collectInputs atomically retrieves and clears the batch.
func (rt *Runtime) collectInputs() []InputWithMeta {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	inputs := rt.batch
	rt.batch = make([]InputWithMeta, 0, cap(rt.batch))
	return inputs
}

func (rt *Runtime) enqueue(in InputWithMeta) error {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	if len(rt.batch) >= cap(rt.batch) {
		return ErrQueueFull
	}
	in.SequenceNum = rt.sequenceNum
	rt.sequenceNum++
	rt.batch = append(rt.batch, in)
	return nil
}

// SendEvent queues an event for the next tick. Safe for concurrent use.
func (rt *Runtime) SendEvent(name string) error {
	return rt.enqueue(InputWithMeta{kind: inputEvent, Name: name})
}

// SendEventWithPriority queues an event that is applied before lower priority inputs.
func (rt *Runtime) SendEventWithPriority(name string, priority int) error {
	return rt.enqueue(InputWithMeta{kind: inputEvent, Name: name, Priority: priority})
}

// SetProperty queues a property change for the next tick.
func (rt *Runtime) SetProperty(name string, value any) error {
	return rt.enqueue(InputWithMeta{kind: inputProperty, Name: name, Value: value})
}

// Input queues a raw host input event for the active states' input reactions.
func (rt *Runtime) Input(ev any) error {
	return rt.enqueue(InputWithMeta{kind: inputRaw, Value: ev})
}

// Do runs fn with exclusive access to the chart, between ticks.
func (rt *Runtime) Do(fn func(*reactchart.Chart) error) error {
	rt.chartMu.Lock()
	defer rt.chartMu.Unlock()
	return fn(rt.chart)
}

// ActiveStates returns the chart's active leaves.
func (rt *Runtime) ActiveStates() []string {
	rt.chartMu.Lock()
	defer rt.chartMu.Unlock()
	return rt.chart.ActiveStates()
}

// TickNumber returns the number of completed ticks.
func (rt *Runtime) TickNumber() uint64 {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()
	return rt.tickNum
}
