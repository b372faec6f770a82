package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/multierr"
)

// Источники кадров
const (
	SourceCamera = "camera"
	SourceReplay = "replay"
)

// Бэкенды холста разметки
const (
	CanvasGG  = "gg"
	CanvasMat = "mat"
)

// Политики для тика при занятом воркере
const (
	BacklogDrop   = "drop"
	BacklogLatest = "latest"
)

type Config struct {
	FrameSource  string
	CameraDevice int
	ReplayDir    string
	ReplayFPS    float64
	FrameWidth   int
	FrameHeight  int
	JPEGQuality  int

	SampleInterval time.Duration
	Confidence     float32
	IoU            float32
	BacklogPolicy  string
	ReinitBackoff  time.Duration

	DetectorCmd  string
	DetectorArgs []string

	OverlayCanvas string
	TelegramToken string
	LogLevel      string
}

// Default значения по умолчанию
func Default() *Config {
	return &Config{
		FrameSource:    SourceCamera,
		CameraDevice:   0,
		ReplayFPS:      1,
		FrameWidth:     640,
		FrameHeight:    480,
		JPEGQuality:    92,
		SampleInterval: 2 * time.Second,
		Confidence:     0.5,
		IoU:            0.5,
		BacklogPolicy:  BacklogDrop,
		ReinitBackoff:  30 * time.Second,
		OverlayCanvas:  CanvasGG,
		LogLevel:       "info",
	}
}

// Load читает .env и переменные окружения поверх значений по умолчанию.
// Проверку делает Validate, после того как применены флаги командной строки.
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := Default()
	var err error

	str(&cfg.FrameSource, "FRAME_SOURCE")
	err = multierr.Append(err, integer(&cfg.CameraDevice, "CAMERA_DEVICE"))
	str(&cfg.ReplayDir, "REPLAY_DIR")
	err = multierr.Append(err, float(&cfg.ReplayFPS, "REPLAY_FPS"))
	err = multierr.Append(err, integer(&cfg.FrameWidth, "FRAME_WIDTH"))
	err = multierr.Append(err, integer(&cfg.FrameHeight, "FRAME_HEIGHT"))
	err = multierr.Append(err, integer(&cfg.JPEGQuality, "JPEG_QUALITY"))

	err = multierr.Append(err, duration(&cfg.SampleInterval, "SAMPLE_INTERVAL"))
	err = multierr.Append(err, threshold(&cfg.Confidence, "CONFIDENCE_THRESHOLD"))
	err = multierr.Append(err, threshold(&cfg.IoU, "IOU_THRESHOLD"))
	str(&cfg.BacklogPolicy, "BACKLOG_POLICY")
	err = multierr.Append(err, duration(&cfg.ReinitBackoff, "REINIT_BACKOFF"))

	str(&cfg.DetectorCmd, "DETECTOR_CMD")
	if v, ok := lookup("DETECTOR_ARGS"); ok {
		cfg.DetectorArgs = strings.Fields(v)
	}

	str(&cfg.OverlayCanvas, "OVERLAY_CANVAS")
	str(&cfg.TelegramToken, "TELEGRAM_TOKEN")
	str(&cfg.LogLevel, "LOG_LEVEL")

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	var err error

	switch c.FrameSource {
	case SourceCamera:
	case SourceReplay:
		if c.ReplayDir == "" {
			err = multierr.Append(err, errors.New("REPLAY_DIR is required for replay source"))
		}
		if c.ReplayFPS <= 0 {
			err = multierr.Append(err, errors.Errorf("REPLAY_FPS must be positive, got %v", c.ReplayFPS))
		}
	default:
		err = multierr.Append(err, errors.Errorf("unknown FRAME_SOURCE %q", c.FrameSource))
	}

	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		err = multierr.Append(err, errors.Errorf("invalid frame size %dx%d", c.FrameWidth, c.FrameHeight))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		err = multierr.Append(err, errors.Errorf("JPEG_QUALITY must be in [1,100], got %d", c.JPEGQuality))
	}
	if c.SampleInterval <= 0 {
		err = multierr.Append(err, errors.Errorf("SAMPLE_INTERVAL must be positive, got %s", c.SampleInterval))
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		err = multierr.Append(err, errors.Errorf("CONFIDENCE_THRESHOLD must be in [0,1], got %v", c.Confidence))
	}
	if c.IoU < 0 || c.IoU > 1 {
		err = multierr.Append(err, errors.Errorf("IOU_THRESHOLD must be in [0,1], got %v", c.IoU))
	}
	if c.BacklogPolicy != BacklogDrop && c.BacklogPolicy != BacklogLatest {
		err = multierr.Append(err, errors.Errorf("unknown BACKLOG_POLICY %q", c.BacklogPolicy))
	}
	if c.ReinitBackoff < 0 {
		err = multierr.Append(err, errors.Errorf("REINIT_BACKOFF must not be negative, got %s", c.ReinitBackoff))
	}
	if c.DetectorCmd == "" {
		err = multierr.Append(err, errors.New("DETECTOR_CMD is required"))
	}
	if c.OverlayCanvas != CanvasGG && c.OverlayCanvas != CanvasMat {
		err = multierr.Append(err, errors.Errorf("unknown OVERLAY_CANVAS %q", c.OverlayCanvas))
	}

	return err
}

func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func str(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func integer(dst *int, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return errors.Wrapf(err, "parse %s", key)
	}
	*dst = n
	return nil
}

func float(dst *float64, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return errors.Wrapf(err, "parse %s", key)
	}
	*dst = f
	return nil
}

func threshold(dst *float32, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	f, err := cast.ToFloat32E(v)
	if err != nil {
		return errors.Wrapf(err, "parse %s", key)
	}
	*dst = f
	return nil
}

func duration(dst *time.Duration, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	d, err := cast.ToDurationE(v)
	if err != nil {
		return errors.Wrapf(err, "parse %s", key)
	}
	*dst = d
	return nil
}
