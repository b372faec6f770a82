//go:build !gocv
// +build !gocv

package render

import (
	"errors"
	"image/color"

	"vision-cam/internal/domain/port"
)

// MatCanvas заглушка холста на gocv для сборки без OpenCV
type MatCanvas struct{}

// NewMatCanvas возвращает ошибку, если сборка без тега gocv.
func NewMatCanvas(width, height int) (*MatCanvas, error) {
	_ = width
	_ = height
	return nil, errors.New("gocv build tag is not enabled")
}

func (c *MatCanvas) Reset(width, height int)                             {}
func (c *MatCanvas) StrokeRect(r port.Rect, col color.Color, lw float64) {}
func (c *MatCanvas) FillRect(r port.Rect, col color.Color)               {}
func (c *MatCanvas) MeasureText(text string) float64                     { return 0 }
func (c *MatCanvas) FillText(text string, x, y float64, col color.Color) {}
func (c *MatCanvas) FillCircle(x, y, radius float64, col color.Color)    {}

// ExportPNG возвращает ошибку, если сборка без тега gocv.
func (c *MatCanvas) ExportPNG() ([]byte, error) {
	return nil, errors.New("gocv build tag is not enabled")
}

// Close ничего не делает
func (c *MatCanvas) Close() error {
	return nil
}
