package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marintech/deckhand/pkg/command"
	"github.com/marintech/deckhand/pkg/cruise"
	"github.com/marintech/deckhand/pkg/events"
	"github.com/marintech/deckhand/pkg/journal"
	"github.com/marintech/deckhand/pkg/log"
	"github.com/marintech/deckhand/pkg/metrics"
	"github.com/marintech/deckhand/pkg/policy"
	"github.com/marintech/deckhand/pkg/runner"
	"github.com/marintech/deckhand/pkg/supervisor"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the logger supervisor",
	Long: `Run the deckhand supervisor daemon.

Loads a cruise configuration, applies its default mode (or --mode), and
keeps every logger pipeline converged on the active mode until told
otherwise. Commands are read line by line from stdin; SIGINT/SIGTERM
trigger the same cooperative shutdown as the quit command.`,
	RunE: runSupervisor,
}

func init() {
	runCmd.Flags().StringP("config", "c", "", "Cruise configuration YAML file")
	runCmd.Flags().String("mode", "", "Initial mode (default: the cruise file's default_mode)")
	runCmd.Flags().Duration("interval", supervisor.DefaultInterval, "Reconciliation polling interval")
	runCmd.Flags().String("policy", "fixed", "Retry policy: fixed or uptime")
	runCmd.Flags().Int("max-tries", 3, "Restart attempts before a logger is declared failed")
	runCmd.Flags().Duration("min-uptime", 10*time.Second, "Uptime that earns a clean retry slate (uptime policy)")
	runCmd.Flags().String("data-dir", "", "Directory for the run journal (empty: journaling off)")
	runCmd.Flags().String("metrics-addr", "", "Prometheus listen address, e.g. :9143 (empty: metrics off)")
	runCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
	runCmd.Flags().Bool("log-json", false, "Emit JSON logs instead of console output")
	runCmd.Flags().Bool("no-stdin", false, "Do not read commands from stdin")
}

func runSupervisor(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	mode, _ := cmd.Flags().GetString("mode")
	interval, _ := cmd.Flags().GetDuration("interval")
	policyName, _ := cmd.Flags().GetString("policy")
	maxTries, _ := cmd.Flags().GetInt("max-tries")
	minUptime, _ := cmd.Flags().GetDuration("min-uptime")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	logLevel, _ := cmd.Flags().GetString("log-level")
	logJSON, _ := cmd.Flags().GetBool("log-json")
	noStdin, _ := cmd.Flags().GetBool("no-stdin")

	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
	logger := log.WithComponent("main")

	retry, err := buildPolicy(policyName, maxTries, minUptime)
	if err != nil {
		return err
	}

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	var jrn *journal.Journal
	if dataDir != "" {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return fmt.Errorf("failed to create data dir: %w", err)
		}
		jrn, err = journal.Open(dataDir)
		if err != nil {
			return err
		}
		jrn.Follow(broker)
		defer jrn.Close()
		logger.Info().Str("data_dir", dataDir).Msg("run journal enabled")
	}

	sup := supervisor.New(supervisor.Config{
		Registry: runner.DefaultRegistry(),
		Policy:   retry,
		Broker:   broker,
		Interval: interval,
	})
	sup.Start()

	if metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				logger.Error().Err(err).Msg("metrics server error")
			}
		}()
		logger.Info().Str("addr", metricsAddr).Msg("metrics server started")
	}

	dispatcher := command.NewDispatcher(sup)

	if configPath != "" {
		cfg, err := cruise.Load(configPath)
		if err != nil {
			return err
		}
		out, err := dispatcher.ApplyCruise(cfg)
		if err != nil {
			return err
		}
		logger.Info().Msg(out)
		if mode != "" && mode != cfg.DefaultMode {
			if out, err := dispatcher.Execute("set_mode " + mode); err != nil {
				return err
			} else {
				logger.Info().Msg(out)
			}
		}
	} else if mode != "" {
		return fmt.Errorf("--mode requires --config")
	}

	// stdin commands and OS signals both end in the cooperative quit
	// path; the loop exits within one polling interval.
	loopDone := make(chan error, 1)
	if !noStdin {
		go func() {
			loopDone <- command.RunLoop(dispatcher, os.Stdin, os.Stdout)
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		sup.Quit()
	case err := <-loopDone:
		if err != nil {
			logger.Error().Err(err).Msg("command loop error")
		}
		sup.Quit()
	case <-sup.Stopped():
		// quit arrived via the command surface
	}

	sup.Join()
	logger.Info().Msg("shutdown complete")
	return nil
}

func buildPolicy(name string, maxTries int, minUptime time.Duration) (policy.Policy, error) {
	if maxTries <= 0 {
		return nil, fmt.Errorf("max-tries must be positive, got %d", maxTries)
	}
	switch name {
	case "fixed":
		return policy.NewFixedAttempt(maxTries), nil
	case "uptime":
		return policy.NewUptimeAware(maxTries, minUptime), nil
	default:
		return nil, fmt.Errorf("unknown policy %q (want fixed or uptime)", name)
	}
}
