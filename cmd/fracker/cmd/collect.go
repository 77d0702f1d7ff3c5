package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fracker/fracker/analysis"
	"github.com/fracker/fracker/collector"
	"github.com/fracker/fracker/datarecording"
	"github.com/fracker/fracker/monitoring"
	"github.com/fracker/fracker/tracing"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Receive trace streams.",
	Long: "`collect` accepts trace streams until interrupted. Every " +
		"connection is one session. Records can be stored into a SQLite " +
		"file, a ClickHouse or a MongoDB database and watched from a web " +
		"monitor.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		applyCollectFlags(cmd)

		ctx, stop := signal.NotifyContext(cmd.Context(),
			os.Interrupt, syscall.SIGTERM)
		defer stop()

		return collect(ctx, cmd)
	},
}

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.Flags().String("listen", "", "Address to accept streams on")
	collectCmd.Flags().Int("monitor-port", 0,
		"Port of the web monitor, 0 disables it")
	collectCmd.Flags().String("record", "",
		"SQLite file, clickhouse:// DSN or mongodb:// URI to store records into")
	collectCmd.Flags().String("perf", "",
		"CSV file to write per-function timing into")
	collectCmd.Flags().Float64("perf-period", 0,
		"Seconds of trace time per timing summary, 0 for one per session")
	collectCmd.Flags().Bool("open", false,
		"Open the web monitor in a browser")
}

func applyCollectFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	if flags.Changed("listen") {
		cfg.Listen, _ = flags.GetString("listen")
	}

	if flags.Changed("monitor-port") {
		cfg.MonitorPort, _ = flags.GetInt("monitor-port")
	}

	if flags.Changed("record") {
		cfg.Record, _ = flags.GetString("record")
	}

	if flags.Changed("perf") {
		cfg.Perf, _ = flags.GetString("perf")
	}

	if flags.Changed("perf-period") {
		cfg.PerfPeriod, _ = flags.GetFloat64("perf-period")
	}
}

func collect(ctx context.Context, cmd *cobra.Command) error {
	stats := collector.NewStats()
	sinks := []collector.Sink{stats, collector.NewLogSink(logger)}

	var (
		dr     datarecording.DataRecorder
		reader datarecording.DataReader
		perf   analysis.PerfAnalyzerBackend
	)

	if cfg.Record != "" {
		var err error

		dr, err = datarecording.Open(cfg.Record)
		if err != nil {
			return fmt.Errorf("open record target: %w", err)
		}
		defer dr.Close()

		sinks = append(sinks, collector.NewRecordingSink(dr, logger))
	}

	switch {
	case cfg.Perf != "":
		csvBackend, err := analysis.NewCSVBackend(cfg.Perf)
		if err != nil {
			return fmt.Errorf("open perf file: %w", err)
		}
		defer closeAndLog("perf file", csvBackend.Close)

		perf = csvBackend
	case dr != nil:
		perf = analysis.NewRecorderBackend(dr)
	}

	if perf != nil {
		sinks = append(sinks, analysis.MakePerfAnalyzerBuilder().
			WithBackend(perf).
			WithPeriod(cfg.PerfPeriod).
			WithLogger(logger).
			Build())
	}

	if sqlite, ok := dr.(*datarecording.SQLiteRecorder); ok {
		var err error

		reader, err = datarecording.NewReader(sqlite.Filename())
		if err != nil {
			return err
		}
		defer reader.Close()

		tracing.MapTables(reader)

		if _, ok := perf.(*analysis.RecorderBackend); ok {
			reader.MapTable(analysis.PerfTable, analysis.PerfAnalyzerEntry{})
		}
	}

	openBrowser, _ := cmd.Flags().GetBool("open")
	if cfg.MonitorPort != 0 || openBrowser {
		m := monitoring.NewMonitor().
			WithLogger(logger).
			WithPortNumber(cfg.MonitorPort)
		m.RegisterStats(stats)

		if reader != nil {
			m.RegisterReader(reader)
		}

		url, err := m.StartServer()
		if err != nil {
			return err
		}
		defer shutdownMonitor(m)

		if openBrowser {
			if err := browser.OpenURL(url); err != nil {
				logger.Warn("Cannot open browser", zap.Error(err))
			}
		}
	}

	l, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return err
	}

	err = collector.NewServer(logger, sinks...).Serve(ctx, l)

	snapshot := stats.Snapshot()
	logger.Info("Collector stopped",
		zap.Int("sessions", snapshot.Sessions),
		zap.Int("unmatched_calls", snapshot.UnmatchedCalls),
		zap.Int("malformed", snapshot.Malformed))

	return err
}

func closeAndLog(what string, closer func() error) {
	if err := closer(); err != nil {
		logger.Warn("Cannot close "+what, zap.Error(err))
	}
}

func shutdownMonitor(m *monitoring.Monitor) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Shutdown(ctx); err != nil {
		logger.Warn("Monitor shutdown", zap.Error(err))
	}
}
