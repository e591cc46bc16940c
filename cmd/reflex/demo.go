package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reflex-go/reflex"
)

func demoCmd() *cobra.Command {
	var (
		interval time.Duration
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a sample reactive graph",
		Long: `Run a small reactive graph that ticks on a timer.

A counter cell is bumped once per interval, a derived node squares
it, and an output renders both to the terminal. Stop with Ctrl-C,
or let it cancel itself after --limit ticks.

Examples:
  reflex demo
  reflex demo --interval=250ms --limit=20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(interval, limit)
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", time.Second, "Tick interval")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Stop after this many ticks (0 = run forever)")

	return cmd
}

// stdoutSink renders output values as terminal lines.
type stdoutSink struct{}

func (stdoutSink) RenderValue(name string, value any) {
	fmt.Printf("  %-8s %v\n", name, value)
}

func (stdoutSink) RenderError(name string, err error) {
	fmt.Fprintf(os.Stderr, "  %-8s error: %v\n", name, err)
}

func (stdoutSink) RenderClear(name string) {
	fmt.Printf("  %-8s (cleared)\n", name)
}

func runDemo(interval time.Duration, limit int) error {
	printBanner()
	info("ticking every %s, Ctrl-C to stop", interval)
	fmt.Println()

	g := reflex.NewGraph()
	defer g.Close()

	tick := reflex.NewValue(g, 0)
	squared := reflex.NewDerived(g, func() (int, error) {
		v := tick.Get()
		return v * v, nil
	})

	done := make(chan struct{})

	// Driver: bumps the counter once per interval.
	reflex.NewObserver(g, func() error {
		n := reflex.IsolateValue(func() int { return tick.Get() })
		if limit > 0 && n >= limit {
			close(done)
			return reflex.Stop("tick limit reached")
		}
		reflex.Isolate(func() { tick.Set(n + 1) })
		reflex.InvalidateLater(g, interval)
		return nil
	}, reflex.WithObserverName("ticker"))

	reflex.NewOutput(g, "tick", stdoutSink{}, func() (any, error) {
		return tick.Get(), nil
	})
	reflex.NewOutput(g, "squared", stdoutSink{}, func() (any, error) {
		return squared.Get()
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println()
		info("interrupted")
	case <-done:
		fmt.Println()
		success("finished after %d ticks", limit)
	}

	stats := g.Stats()
	info("recomputes=%d invalidations=%d flushes=%d",
		stats.Recomputes, stats.Invalidations, stats.Flushes)
	return nil
}
