package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"imgopt/internal/codec"
	"imgopt/internal/codec/libvips"
	"imgopt/internal/config"
	"imgopt/internal/ledger"
	"imgopt/internal/logging"
	"imgopt/internal/metrics"
	"imgopt/internal/processor"
	"imgopt/internal/tui"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [flags] <path>",
	Short: "Strip metadata, re-encode and rename every image under a folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runOptimize,
}

func init() {
	config.RegisterFlags(optimizeCmd.Flags())
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags(), configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	interactive := !cfg.Plain && isTerminal(out)

	logOpts := logging.Options{Level: cfg.Log.Level, File: cfg.Log.File}
	if !interactive {
		logOpts.Console = cmd.ErrOrStderr()
	}
	log, closeLog, err := logging.New(logOpts)
	if err != nil {
		return err
	}
	defer closeLog()

	files, err := processor.Scan(args[0], cfg.Dest)
	if err != nil {
		return err
	}

	var observers []processor.Observer
	if cfg.Ledger != "" {
		l, err := ledger.Open(cfg.Ledger, log)
		if err != nil {
			return err
		}
		defer l.Close()
		var skipped int
		files, skipped = l.Filter(files)
		if skipped > 0 {
			fmt.Fprintf(out, "Skipping %d image(s) already optimized by an earlier run\n", skipped)
		}
		observers = append(observers, l)
	}

	if len(files) == 0 {
		fmt.Fprintln(out, "No images found")
		return nil
	}

	var collector *metrics.Collector
	if cfg.MetricsFile != "" {
		collector = metrics.New()
		observers = append(observers, collector)
	}

	c, closeCodec := newCodec(cfg.Engine, log)
	defer closeCodec()

	pipeline := processor.NewPipeline(c, processor.Oxipng{Binary: cfg.Compressor}, log)
	runner := processor.NewRunner(pipeline, log, observers...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := runner.Start(ctx, files, cfg.Processor())

	var stats processor.Stats
	if interactive {
		stats, err = watchInteractive(queue, len(files), cancel, out)
		if err != nil {
			log.Warn("interactive view failed, falling back to plain output", zap.Error(err))
			stats = watchPlain(queue, out)
		}
	} else {
		stats = watchPlain(queue, out)
	}

	fmt.Fprintln(out, stats.Summary())
	fmt.Fprintln(out, tui.RenderSummary(tui.SummaryRows(stats)))
	if failures := tui.RenderFailures(stats.Failures); failures != "" {
		fmt.Fprintln(out, failures)
	}

	if collector != nil {
		if err := collector.WriteTextfile(cfg.MetricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

func newCodec(engine string, log *zap.Logger) (codec.Codec, func()) {
	if engine == config.EngineVips {
		v := libvips.New(log)
		return v, v.Close
	}
	return codec.NewNative(), func() {}
}

func watchInteractive(queue *processor.EventQueue, total int, cancel context.CancelFunc, out io.Writer) (processor.Stats, error) {
	program := tea.NewProgram(tui.NewModel(queue, total, cancel), tea.WithOutput(out))
	final, err := program.Run()
	if err != nil {
		return processor.Stats{}, err
	}
	m, ok := final.(tui.Model)
	if !ok || !m.Done() {
		return processor.Stats{}, fmt.Errorf("view exited before the run finished")
	}
	return m.Stats(), nil
}

// watchPlain polls the queue until the run reports completion.
func watchPlain(queue *processor.EventQueue, out io.Writer) processor.Stats {
	sink := tui.NewLineSink(out)
	for !queue.DrainTo(sink) {
		time.Sleep(tui.PollInterval)
	}
	return sink.Stats()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
