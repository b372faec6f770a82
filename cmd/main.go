package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"vision-cam/config"
	telegram "vision-cam/internal/api"
	"vision-cam/internal/container"
	"vision-cam/internal/logging"
)

const (
	// Флаги, перекрывающие переменные окружения
	flagSource     = "source"
	flagReplayDir  = "replay-dir"
	flagInterval   = "interval"
	flagConfidence = "confidence"
	flagIoU        = "iou"
	flagBacklog    = "backlog"
	flagDetector   = "detector"
	flagCanvas     = "canvas"
	flagDebug      = "debug"
)

func main() {
	app := &cli.App{
		Name:  "vision-cam",
		Usage: "sample camera frames and overlay detected objects",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagSource, Usage: "frame source: camera or replay"},
			&cli.StringFlag{Name: flagReplayDir, Usage: "directory with images for the replay source", TakesFile: true},
			&cli.DurationFlag{Name: flagInterval, Usage: "sampling interval"},
			&cli.Float64Flag{Name: flagConfidence, Usage: "confidence threshold in [0,1]"},
			&cli.Float64Flag{Name: flagIoU, Usage: "IoU threshold in [0,1]"},
			&cli.StringFlag{Name: flagBacklog, Usage: "tick policy while busy: drop or latest"},
			&cli.StringFlag{Name: flagDetector, Usage: "detector command"},
			&cli.StringFlag{Name: flagCanvas, Usage: "overlay canvas: gg or mat"},
			&cli.BoolFlag{Name: flagDebug, Aliases: []string{"vvv"}, Usage: "enable debug logging"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("vision-cam: %v", err)
	}
}

func run(c *cli.Context) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	applyFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := container.New(cfg, clock.New(), logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, deps.Close()) }()

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, deps.Pipeline, deps.Snapshots, logger)
		if err != nil {
			return err
		}
		botDone := make(chan struct{})
		go func() {
			defer close(botDone)
			if err := bot.Run(ctx); err != nil {
				logger.Error("bot stopped", zap.Error(err))
			}
		}()
		defer func() {
			stop()
			<-botDone
		}()
	} else {
		logger.Info("TELEGRAM_TOKEN is not set, status bot disabled")
	}

	return deps.Pipeline.Run(ctx)
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet(flagSource) {
		cfg.FrameSource = c.String(flagSource)
	}
	if c.IsSet(flagReplayDir) {
		cfg.ReplayDir = c.String(flagReplayDir)
	}
	if c.IsSet(flagInterval) {
		cfg.SampleInterval = c.Duration(flagInterval)
	}
	if c.IsSet(flagConfidence) {
		cfg.Confidence = float32(c.Float64(flagConfidence))
	}
	if c.IsSet(flagIoU) {
		cfg.IoU = float32(c.Float64(flagIoU))
	}
	if c.IsSet(flagBacklog) {
		cfg.BacklogPolicy = c.String(flagBacklog)
	}
	if c.IsSet(flagDetector) {
		cfg.DetectorCmd = c.String(flagDetector)
	}
	if c.IsSet(flagCanvas) {
		cfg.OverlayCanvas = c.String(flagCanvas)
	}
	if c.Bool(flagDebug) {
		cfg.LogLevel = "debug"
	}
}
