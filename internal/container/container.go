package container

import (
	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"vision-cam/config"
	app "vision-cam/internal/application"
	"vision-cam/internal/domain/port"
	"vision-cam/internal/infrastructure/capture"
	"vision-cam/internal/infrastructure/codec"
	"vision-cam/internal/infrastructure/detector"
	"vision-cam/internal/infrastructure/render"
	"vision-cam/internal/infrastructure/storage"
	"vision-cam/internal/infrastructure/worker"
)

// canvas холст, который умеет отдавать PNG
type canvas interface {
	port.Canvas
	port.OverlayExporter
}

type Container struct {
	Pipeline  *app.Pipeline
	Snapshots *storage.MemorySnapshotStore
	Source    port.FrameSource

	closers []func() error
}

// New собирает конвейер по конфигурации
func New(cfg *config.Config, clk clock.Clock, logger *zap.Logger) (*Container, error) {
	c := &Container{Snapshots: storage.NewMemorySnapshotStore()}

	source, err := newSource(cfg, clk, logger)
	if err != nil {
		return nil, err
	}
	c.Source = source
	c.closers = append(c.closers, source.Close)

	cv, err := newCanvas(cfg)
	if err != nil {
		return nil, multierr.Append(err, c.Close())
	}
	if closer, ok := cv.(interface{ Close() error }); ok {
		c.closers = append(c.closers, closer.Close)
	}

	factory := detector.NewProcessFactory(detector.ProcessConfig{
		Command: cfg.DetectorCmd,
		Args:    cfg.DetectorArgs,
	}, logger)

	newChannel := func() port.InferenceChannel {
		return worker.NewChannel(factory, logger)
	}

	stats := app.NewStatsView(c.Snapshots, cv, clk, logger)

	c.Pipeline = app.NewPipeline(app.PipelineConfig{
		Interval:      cfg.SampleInterval,
		Confidence:    cfg.Confidence,
		IoU:           cfg.IoU,
		Backlog:       app.BacklogPolicy(cfg.BacklogPolicy),
		ReinitBackoff: cfg.ReinitBackoff,
	}, source, codec.NewDataURICodec(), newChannel, render.NewOverlay(cv), clk, logger, stats)

	return c, nil
}

// Close освобождает источник кадров и холст
func (c *Container) Close() error {
	var err error
	for i := len(c.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, c.closers[i]())
	}
	c.closers = nil
	return err
}

func newSource(cfg *config.Config, clk clock.Clock, logger *zap.Logger) (port.FrameSource, error) {
	switch cfg.FrameSource {
	case config.SourceCamera:
		cam, err := capture.NewCamera(capture.CameraConfig{
			Device:      cfg.CameraDevice,
			Width:       cfg.FrameWidth,
			Height:      cfg.FrameHeight,
			JPEGQuality: cfg.JPEGQuality,
		}, clk, logger)
		if err != nil {
			return nil, errors.Wrap(err, "open camera")
		}
		return cam, nil

	case config.SourceReplay:
		replay, err := capture.NewReplay(capture.ReplayConfig{
			Dir:         cfg.ReplayDir,
			Width:       cfg.FrameWidth,
			Height:      cfg.FrameHeight,
			JPEGQuality: cfg.JPEGQuality,
			FPS:         cfg.ReplayFPS,
		}, clk, logger)
		if err != nil {
			return nil, errors.Wrap(err, "open replay")
		}
		logger.Info("replay source ready", zap.String("dir", cfg.ReplayDir), zap.Int("frames", replay.Len()))
		return replay, nil

	default:
		return nil, errors.Errorf("unknown frame source %q", cfg.FrameSource)
	}
}

func newCanvas(cfg *config.Config) (canvas, error) {
	switch cfg.OverlayCanvas {
	case config.CanvasGG:
		cv, err := render.NewGGCanvas(cfg.FrameWidth, cfg.FrameHeight)
		if err != nil {
			return nil, errors.Wrap(err, "create overlay canvas")
		}
		return cv, nil

	case config.CanvasMat:
		cv, err := render.NewMatCanvas(cfg.FrameWidth, cfg.FrameHeight)
		if err != nil {
			return nil, errors.Wrap(err, "create overlay canvas")
		}
		return cv, nil

	default:
		return nil, errors.Errorf("unknown overlay canvas %q", cfg.OverlayCanvas)
	}
}
