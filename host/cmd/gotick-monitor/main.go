package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"gotick/host/monitor"
	"gotick/host/serial"
	"gotick/protocol"
)

var (
	monitorOpts = struct {
		device  string
		baud    int
		samples int
		verbose bool
		idle    time.Duration
	}{}

	rootCmd = &cobra.Command{
		Use:   "gotick-monitor",
		Short: "Check a gotick board's SysTick uptime against the host clock",
		Long: "Read the uptime reports streamed by gotick firmware, verify that the " +
			"millisecond counter is monotonic across wraparound, and estimate its " +
			"drift from the host clock.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
)

func init() {
	rootCmd.Flags().StringVarP(&monitorOpts.device, "device", "d", "/dev/ttyACM0", "Serial device path")
	rootCmd.Flags().IntVarP(&monitorOpts.baud, "baud", "b", 115200, "Baud rate (ignored for USB CDC)")
	rootCmd.Flags().IntVarP(&monitorOpts.samples, "samples", "n", 600, "Stop after this many reports (0 = until interrupted)")
	rootCmd.Flags().DurationVar(&monitorOpts.idle, "idle", 10*time.Second, "Give up after this long without data")
	rootCmd.Flags().BoolVarP(&monitorOpts.verbose, "verbose", "v", false, "Print every report")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := serial.DefaultConfig(monitorOpts.device)
	cfg.Baud = monitorOpts.baud

	fmt.Printf("Connecting to board on %s...\n", cfg.Device)
	port, err := serial.Open(cfg)
	if err != nil {
		return err
	}
	defer port.Close()

	if err := port.Discard(); err != nil {
		return err
	}

	tracker := monitor.NewTracker()
	collector := monitor.NewCollector(tracker, func(r protocol.Report, err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			return
		}
		if monitorOpts.verbose {
			fmt.Printf("seq=%2d uptime=%dms micros=%d ticks=%d\n", r.Seq, r.UptimeMillis, r.Micros, r.Ticks)
		}
	})

	if idleReads := int(monitorOpts.idle / cfg.IdleTimeout); idleReads > 0 {
		collector.MaxIdleReads = idleReads
	}

	err = collector.Collect(ctx, port, monitorOpts.samples)
	if errors.Is(err, monitor.ErrStreamIdle) {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	} else if err != nil {
		return err
	}

	printSummary(tracker, collector)
	return nil
}

func printSummary(tracker *monitor.Tracker, collector *monitor.Collector) {
	fmt.Println()
	fmt.Println("Summary")
	fmt.Println("=======")
	fmt.Printf("  reports accepted : %d\n", tracker.Len())
	fmt.Printf("  corrupt blocks   : %d\n", collector.Dropped())
	fmt.Printf("  non-monotonic    : %d\n", tracker.NonMonotonic)
	fmt.Printf("  tick mismatches  : %d\n", tracker.TickMismatches)
	fmt.Printf("  uptime covered   : %dms\n", tracker.Uptime())

	estimate, err := tracker.Fit()
	if err != nil {
		fmt.Printf("  drift            : %v\n", err)
		return
	}
	fmt.Printf("  drift            : %+.1f ppm (slope %.7f)\n", estimate.PPM, estimate.Slope)
	fmt.Printf("  jitter           : %.3fms\n", estimate.Jitter)
}
