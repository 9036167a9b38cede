package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/cpumon/internal/config"
	"codeberg.org/mutker/cpumon/internal/errors"
	"codeberg.org/mutker/cpumon/internal/load"
	"codeberg.org/mutker/cpumon/internal/logger"
	"codeberg.org/mutker/cpumon/internal/sensor"
	"github.com/spf13/pflag"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.LoadGenerator(args)
	if err != nil {
		switch {
		case errors.Is(err, pflag.ErrHelp):
			fmt.Fprint(os.Stdout, config.LoadUsage())
			return exitOK
		case config.IsConfigError(err):
			fmt.Fprintf(os.Stderr, "%s: %v\n\n%s", config.LoadName, err, config.LoadUsage())
			return exitConfig
		default:
			fmt.Fprintf(os.Stderr, "%s: %v\n", config.LoadName, err)
			return exitFailed
		}
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogStyle); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", config.LoadName, err)
		return exitConfig
	}
	log := logger.Default()
	log.Debug().Interface("config", cfg).Msg("Config loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(ctx, cancel)

	gen := load.New(sensor.NewHostSource(ctx, log),
		load.WithLogger(log),
		load.WithInterval(cfg.ControlInterval()),
	)

	if err := generate(ctx, gen, cfg); err != nil {
		logErr(log, err, "Load generation failed")
		if errors.HasCode(err, load.ErrInvalidCore) ||
			errors.HasCode(err, load.ErrInvalidLoad) ||
			errors.HasCode(err, load.ErrInvalidProfile) {
			return exitConfig
		}
		return exitFailed
	}

	log.Info().Msg("Exiting...")
	return exitOK
}

func generate(ctx context.Context, gen *load.Generator, cfg *config.LoadConfig) error {
	switch {
	case cfg.Profile != "":
		p, err := load.ReadProfile(cfg.Profile)
		if err != nil {
			return err
		}
		return gen.RunProfile(ctx, p)
	case len(cfg.Cores) > 0:
		return gen.LoadCores(ctx, cfg.Cores, cfg.RunDuration(), cfg.Load)
	default:
		return gen.LoadAllCores(ctx, cfg.RunDuration(), cfg.Load)
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
