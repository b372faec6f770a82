package capture

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vision-cam/internal/domain/entity"
	"vision-cam/internal/domain/port"
	"vision-cam/internal/infrastructure/codec"
)

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// ReplayConfig параметры воспроизведения каталога
type ReplayConfig struct {
	Dir         string
	Width       int
	Height      int
	JPEGQuality int
	FPS         float64
}

// Replay источник кадров из каталога с картинками.
// Кадры подгоняются под размер один раз и проигрываются по кругу как живой поток.
type Replay struct {
	cfg    ReplayConfig
	clock  clock.Clock
	logger *zap.Logger
	frames []string

	latest latestFrame
	cancel context.CancelFunc
	done   chan struct{}
}

// NewReplay загружает изображения каталога и запускает воспроизведение.
// Пустой каталог не ошибка: Capture просто не отдаёт кадров.
func NewReplay(cfg ReplayConfig, clk clock.Clock, logger *zap.Logger) (*Replay, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.Errorf("invalid capture size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.FPS <= 0 {
		return nil, errors.Errorf("invalid replay fps %v", cfg.FPS)
	}

	r := &Replay{
		cfg:    cfg,
		clock:  clk,
		logger: logger.Named("replay"),
		done:   make(chan struct{}),
	}

	frames, err := r.load()
	if err != nil {
		return nil, err
	}
	r.frames = frames
	if len(frames) == 0 {
		r.logger.Warn("replay directory has no images", zap.String("dir", cfg.Dir))
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	go r.play(ctx)

	return r, nil
}

// Capture возвращает текущий кадр воспроизведения
func (r *Replay) Capture() (entity.Frame, bool) {
	return r.latest.load()
}

// Size возвращает размер кадра
func (r *Replay) Size() (width, height int) {
	return r.cfg.Width, r.cfg.Height
}

// Close останавливает воспроизведение
func (r *Replay) Close() error {
	r.cancel()
	<-r.done
	return nil
}

// Len число загруженных кадров
func (r *Replay) Len() int {
	return len(r.frames)
}

func (r *Replay) load() ([]string, error) {
	entries, err := os.ReadDir(r.cfg.Dir)
	if err != nil {
		return nil, errors.Wrap(err, "read replay directory")
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	frames := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(r.cfg.Dir, name)

		img, err := imaging.Open(path, imaging.AutoOrientation(true))
		if err != nil {
			r.logger.Warn("skipping unreadable image", zap.String("path", path), zap.Error(err))
			continue
		}

		fitted := imaging.Fill(img, r.cfg.Width, r.cfg.Height, imaging.Center, imaging.Lanczos)
		uri, err := codec.EncodeImage(fitted, r.cfg.JPEGQuality)
		if err != nil {
			return nil, errors.Wrapf(err, "encode %s", name)
		}
		frames = append(frames, uri)
	}

	return frames, nil
}

func (r *Replay) play(ctx context.Context) {
	defer close(r.done)

	if len(r.frames) == 0 {
		<-ctx.Done()
		return
	}

	interval := time.Duration(float64(time.Second) / r.cfg.FPS)
	ticker := r.clock.Ticker(interval)
	defer ticker.Stop()

	next := 0
	for {
		r.latest.store(entity.Frame{
			URI:        r.frames[next],
			Width:      r.cfg.Width,
			Height:     r.cfg.Height,
			CapturedAt: r.clock.Now(),
		})
		next = (next + 1) % len(r.frames)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Проверка реализации интерфейса
var _ port.FrameSource = (*Replay)(nil)
