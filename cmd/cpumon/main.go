package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/cpumon/internal/archive"
	"codeberg.org/mutker/cpumon/internal/config"
	"codeberg.org/mutker/cpumon/internal/errors"
	"codeberg.org/mutker/cpumon/internal/logger"
	"codeberg.org/mutker/cpumon/internal/monitor"
	"codeberg.org/mutker/cpumon/internal/pid"
	"codeberg.org/mutker/cpumon/internal/runner"
	"codeberg.org/mutker/cpumon/internal/sensor"
	"codeberg.org/mutker/cpumon/internal/tabular"
	"codeberg.org/mutker/cpumon/internal/telemetry"
	"github.com/spf13/pflag"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2

	cpuLoop         = "cpu"
	temperatureLoop = "temperature"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args)
	if err != nil {
		code := loadExitCode(err)
		switch code {
		case exitOK:
			fmt.Fprint(os.Stdout, config.Usage())
		case exitConfig:
			fmt.Fprintf(os.Stderr, "%s: %v\n\n%s", config.Name, err, config.Usage())
		default:
			fmt.Fprintf(os.Stderr, "%s: %v\n", config.Name, err)
		}
		return code
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogStyle); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", config.Name, err)
		return exitConfig
	}
	log := logger.Default()
	log.Debug().Interface("config", cfg).Msg("Config loaded")

	if err := pid.Write(cfg.PIDFile); err != nil {
		logErr(log, err, "Failed to write PID file")
		return exitFailed
	}
	defer func() {
		if err := pid.Remove(cfg.PIDFile); err != nil {
			logErr(log, err, "Failed to remove PID file")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(ctx, cancel)

	report, err := sample(ctx, cfg, log)
	if err != nil {
		logErr(log, err, "Failed to start sampling")
		return exitFailed
	}

	if cfg.Report != "" {
		if err := runner.WriteReport(cfg.Report, report); err != nil {
			logErr(log, err, "Failed to write run report")
		}
	}

	if err := report.Err(); err != nil {
		logErr(log, err, "Sampling finished with errors")
		return exitFailed
	}

	log.Info().Msg("Exiting...")
	return exitOK
}

// sample wires both loops to their sources and sinks and runs them to
// completion
func sample(ctx context.Context, cfg *config.Config, log logger.Logger) (runner.Report, error) {
	store, err := archive.NewService(archive.Config{
		Enabled: cfg.Archive != "",
		DBPath:  cfg.Archive,
	}, log)
	if err != nil {
		return runner.Report{}, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logErr(log, err, "Failed to close archive")
		}
	}()

	stats, err := telemetry.NewService(telemetry.Config{
		TextfilePath: cfg.MetricsTextfile,
		Namespace:    config.Name,
	}, log)
	if err != nil {
		return runner.Report{}, err
	}
	defer func() {
		if err := stats.Close(); err != nil {
			logErr(log, err, "Failed to write metrics textfile")
		}
	}()

	// Each loop owns its source; they share no mutable state
	cpuSampler := monitor.New(sensor.NewHostSource(ctx, log), monitor.WithLogger(log))
	tempSampler := monitor.New(sensor.NewHostSource(ctx, log),
		monitor.WithLogger(log),
		monitor.WithFilter(monitor.NewLabelFilter(cfg.SensorPrefix...)),
	)

	cpuSinks := []runner.Sink[monitor.CPUMetric]{
		tabular.NewFileSink[monitor.CPUMetric](cfg.CPUPath, cfg.Mode()),
	}
	tempSinks := []runner.Sink[monitor.Temperature]{
		tabular.NewFileSink[monitor.Temperature](cfg.TemperaturePath, cfg.Mode()),
	}
	if s := store.CPUSink(); s != nil {
		cpuSinks = append(cpuSinks, s)
	}
	if s := store.TemperatureSink(); s != nil {
		tempSinks = append(tempSinks, s)
	}

	loops := []*runner.Loop{
		runner.NewLoop(cpuLoop, runner.LoopConfig{
			Interval:     cfg.CPUInterval(),
			Duration:     cfg.RunDuration(),
			OnWriteError: cfg.Policy(),
		}, cpuSampler.CollectCPU, cpuSampler.CPUData, cpuSinks...),
		runner.NewLoop(temperatureLoop, runner.LoopConfig{
			Interval:     cfg.TemperatureEvery(),
			Duration:     cfg.RunDuration(),
			OnWriteError: cfg.Policy(),
		}, tempSampler.CollectTemperature, tempSampler.TemperatureData, tempSinks...),
	}

	log.Info().
		Str("cpu_path", cfg.CPUPath).
		Str("temperature_path", cfg.TemperaturePath).
		Dur("duration", cfg.RunDuration()).
		Msg("Sampling started")

	controller := runner.NewController(
		runner.WithLogger(log),
		runner.WithRecorder(stats),
	)

	return controller.Run(ctx, loops...), nil
}

// loadExitCode maps a config.Load failure to the process exit status
func loadExitCode(err error) int {
	switch {
	case errors.Is(err, pflag.ErrHelp):
		return exitOK
	case config.IsConfigError(err):
		return exitConfig
	default:
		return exitFailed
	}
}

func handleSignals(ctx context.Context, cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		logger.Info().Msg("Received termination signal.")
		cancel()
	case <-ctx.Done():
	}
}

func logErr(log logger.Logger, err error, msg string) {
	var coded errors.Error
	if errors.As(err, &coded) {
		log.ErrorWithCode(coded).Msg(msg)
		return
	}
	log.Error().Err(err).Msg(msg)
}
