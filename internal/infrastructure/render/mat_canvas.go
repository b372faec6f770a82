//go:build gocv
// +build gocv

package render

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"vision-cam/internal/domain/port"
)

const (
	matFont      = gocv.FontHersheySimplex
	matFontScale = 0.5
)

// MatCanvas холст на gocv.Mat (BGRA, прозрачный фон)
type MatCanvas struct {
	mat gocv.Mat
}

// NewMatCanvas создаёт прозрачный холст заданного размера
func NewMatCanvas(width, height int) (*MatCanvas, error) {
	c := &MatCanvas{mat: gocv.NewMat()}
	c.Reset(width, height)
	if c.mat.Empty() {
		return nil, errors.New("failed to allocate overlay mat")
	}
	return c, nil
}

// Reset заменяет слой новым прозрачным нужного размера
func (c *MatCanvas) Reset(width, height int) {
	c.mat.Close()
	c.mat = gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC4)
}

func (c *MatCanvas) StrokeRect(r port.Rect, col color.Color, lineWidth float64) {
	gocv.Rectangle(&c.mat, toImageRect(r), toRGBA(col), int(lineWidth))
}

func (c *MatCanvas) FillRect(r port.Rect, col color.Color) {
	// отрицательная толщина означает заливку
	gocv.Rectangle(&c.mat, toImageRect(r), toRGBA(col), -1)
}

func (c *MatCanvas) MeasureText(text string) float64 {
	size := gocv.GetTextSize(text, matFont, matFontScale, 1)
	return float64(size.X)
}

func (c *MatCanvas) FillText(text string, x, y float64, col color.Color) {
	gocv.PutText(&c.mat, text, image.Pt(int(x), int(y)), matFont, matFontScale, toRGBA(col), 1)
}

func (c *MatCanvas) FillCircle(x, y, radius float64, col color.Color) {
	gocv.Circle(&c.mat, image.Pt(int(x), int(y)), int(radius), toRGBA(col), -1)
}

// ExportPNG кодирует слой в PNG
func (c *MatCanvas) ExportPNG() ([]byte, error) {
	if c.mat.Empty() {
		return nil, errors.New("empty overlay")
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, c.mat)
	if err != nil {
		return nil, errors.Wrap(err, "encode overlay png")
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Close освобождает Mat
func (c *MatCanvas) Close() error {
	return c.mat.Close()
}

func toImageRect(r port.Rect) image.Rectangle {
	return image.Rect(int(r.X), int(r.Y), int(r.X+r.W), int(r.Y+r.H))
}

func toRGBA(col color.Color) color.RGBA {
	return color.RGBAModel.Convert(col).(color.RGBA)
}

var (
	_ port.Canvas          = (*MatCanvas)(nil)
	_ port.OverlayExporter = (*MatCanvas)(nil)
)
