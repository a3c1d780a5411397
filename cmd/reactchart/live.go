package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/comalice/reactchart"
	"github.com/comalice/reactchart/internal/catalog"
	"github.com/comalice/reactchart/realtime"
)

func newLiveCmd(a *app) *cobra.Command {
	var tick, duration time.Duration
	var trace bool
	cmd := &cobra.Command{
		Use:   "live <chart>",
		Short: "Drive a built-in chart at a fixed tick rate from stdin",
		Long: `Each input line is applied at the next tick: a bare word sends that event,
"set name=value" changes a property and "input text" delivers host input.
The active states are printed whenever they change. Stops on EOF, "quit",
--duration or an interrupt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.chartOptions()
			var records chan reactchart.TransitionRecord
			if trace {
				records = make(chan reactchart.TransitionRecord, 64)
				opts = append(opts, reactchart.WithObserver(reactchart.MultiObserver{
					a.observer, reactchart.NewChannelPublisher(records),
				}))
			}
			c, err := catalog.Build(args[0], opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			rt := realtime.NewRuntime(c, realtime.Config{TickRate: tick, Logger: a.logger})
			if err := rt.Start(ctx); err != nil {
				return err
			}
			defer rt.Stop()

			return live(ctx, rt, records, cmd.InOrStdin(), cmd.OutOrStdout(), tick, a)
		},
	}
	cmd.Flags().DurationVar(&tick, "tick", 100*time.Millisecond, "tick interval")
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long (0 runs until EOF or interrupt)")
	cmd.Flags().BoolVar(&trace, "trace", false, "print every transition as it is taken")
	return cmd
}

func live(ctx context.Context, rt *realtime.Runtime, records <-chan reactchart.TransitionRecord, in io.Reader, out io.Writer, tick time.Duration, a *app) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	poll := time.NewTicker(tick)
	defer poll.Stop()

	var last string
	var until uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				// Let queued input land before exiting.
				lines = nil
				until = rt.TickNumber() + 2
				continue
			}
			if strings.TrimSpace(line) == "quit" {
				return nil
			}
			if err := applyLine(rt, line); err != nil {
				a.logger.Warn("input rejected", "line", line, "error", err)
			}
		case rec := <-records:
			printRecord(out, rec)
		case <-poll.C:
			n := rt.TickNumber()
			if states := strings.Join(rt.ActiveStates(), ","); states != last && states != "" {
				last = states
				fmt.Fprintf(out, "tick %d: %s\n", n, states)
			}
			if until > 0 && n >= until {
				for {
					select {
					case rec := <-records:
						printRecord(out, rec)
					default:
						return nil
					}
				}
			}
		}
	}
}

func printRecord(out io.Writer, rec reactchart.TransitionRecord) {
	if rec.Automatic {
		fmt.Fprintf(out, "  %s -> %s\n", rec.From, rec.To)
		return
	}
	fmt.Fprintf(out, "  %s -> %s on %s\n", rec.From, rec.To, rec.Event)
}

func applyLine(rt *realtime.Runtime, line string) error {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return nil
	case strings.HasPrefix(line, "set "):
		name, raw, ok := strings.Cut(strings.TrimPrefix(line, "set "), "=")
		if !ok || strings.TrimSpace(name) == "" {
			return fmt.Errorf("want set name=value")
		}
		return rt.SetProperty(strings.TrimSpace(name), parseLiteral(strings.TrimSpace(raw)))
	case strings.HasPrefix(line, "input "):
		return rt.Input(strings.TrimPrefix(line, "input "))
	default:
		return rt.SendEvent(line)
	}
}

// parseLiteral reads a property value the way a YAML scalar is read, so 3 is an int,
// 0.5 a float, true a bool and anything else a string.
func parseLiteral(raw string) any {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	switch v.(type) {
	case bool, int, float64, string:
		return v
	}
	return raw
}
