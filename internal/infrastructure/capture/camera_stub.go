//go:build !gocv
// +build !gocv

package capture

import (
	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vision-cam/internal/domain/entity"
	"vision-cam/internal/domain/port"
)

// CameraConfig параметры камеры
type CameraConfig struct {
	Device      int
	Width       int
	Height      int
	JPEGQuality int
}

// Camera заглушка для сборки без OpenCV: устройство считается недоступным,
// Capture никогда не отдаёт кадр
type Camera struct {
	cfg CameraConfig
}

// NewCamera создаёт пустой источник и предупреждает, что камеры нет
func NewCamera(cfg CameraConfig, clk clock.Clock, logger *zap.Logger) (*Camera, error) {
	_ = clk
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.Errorf("invalid capture size %dx%d", cfg.Width, cfg.Height)
	}

	logger.Named("camera").Warn("built without gocv, camera is not available", zap.Int("device", cfg.Device))
	return &Camera{cfg: cfg}, nil
}

// Capture всегда возвращает false.
func (c *Camera) Capture() (entity.Frame, bool) {
	return entity.Frame{}, false
}

// Size возвращает заданный размер кадра.
func (c *Camera) Size() (width, height int) {
	return c.cfg.Width, c.cfg.Height
}

// Close ничего не делает.
func (c *Camera) Close() error {
	return nil
}

// Проверка реализации интерфейса
var _ port.FrameSource = (*Camera)(nil)
