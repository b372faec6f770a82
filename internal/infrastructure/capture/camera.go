//go:build gocv
// +build gocv

package capture

import (
	"context"
	"image"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"vision-cam/internal/domain/entity"
	"vision-cam/internal/domain/port"
	"vision-cam/internal/infrastructure/codec"
)

// CameraConfig параметры камеры
type CameraConfig struct {
	Device      int
	Width       int
	Height      int
	JPEGQuality int
}

// Camera источник кадров с веб-камеры через OpenCV.
// Устройство читается в отдельной горутине, Capture отдаёт последний кадр.
type Camera struct {
	cfg    CameraConfig
	clock  clock.Clock
	logger *zap.Logger

	latest latestFrame
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCamera открывает устройство и запускает чтение кадров.
// Если устройство недоступно, камера остаётся пустой: Capture возвращает false.
func NewCamera(cfg CameraConfig, clk clock.Clock, logger *zap.Logger) (*Camera, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.Errorf("invalid capture size %dx%d", cfg.Width, cfg.Height)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Camera{
		cfg:    cfg,
		clock:  clk,
		logger: logger.Named("camera"),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go c.readLoop(ctx)
	return c, nil
}

// Capture возвращает последний кадр, не блокируя
func (c *Camera) Capture() (entity.Frame, bool) {
	return c.latest.load()
}

// Size возвращает размер кадра
func (c *Camera) Size() (width, height int) {
	return c.cfg.Width, c.cfg.Height
}

// Close останавливает чтение и освобождает устройство
func (c *Camera) Close() error {
	c.cancel()
	<-c.done
	return nil
}

func (c *Camera) readLoop(ctx context.Context) {
	defer close(c.done)

	webcam, err := gocv.OpenVideoCapture(c.cfg.Device)
	if err != nil {
		c.logger.Warn("camera is not available", zap.Int("device", c.cfg.Device), zap.Error(err))
		return
	}
	defer webcam.Close()

	webcam.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
	webcam.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))

	img := gocv.NewMat()
	defer img.Close()

	for ctx.Err() == nil {
		if ok := webcam.Read(&img); !ok || img.Empty() {
			// устройство ещё не готово
			c.clock.Sleep(50 * time.Millisecond)
			continue
		}

		frame, err := c.encode(img)
		if err != nil {
			c.logger.Debug("failed to encode frame", zap.Error(err))
			continue
		}
		c.latest.store(frame)
	}
}

// encode приводит кадр к заданному размеру и упаковывает JPEG в data URI
func (c *Camera) encode(img gocv.Mat) (entity.Frame, error) {
	mat := img
	if img.Cols() != c.cfg.Width || img.Rows() != c.cfg.Height {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(img, &resized, image.Pt(c.cfg.Width, c.cfg.Height), 0, 0, gocv.InterpolationArea)
		mat = resized
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, c.cfg.JPEGQuality})
	if err != nil {
		return entity.Frame{}, errors.Wrap(err, "encode jpeg")
	}
	defer buf.Close()

	return entity.Frame{
		URI:        codec.EncodeBytes("image/jpeg", buf.GetBytes()),
		Width:      c.cfg.Width,
		Height:     c.cfg.Height,
		CapturedAt: c.clock.Now(),
	}, nil
}

// Проверка реализации интерфейса
var _ port.FrameSource = (*Camera)(nil)
