package render

import (
	"bytes"
	"image"
	"image/color"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"

	"vision-cam/internal/domain/port"
)

const labelFontSize = 14

// GGCanvas холст на fogleman/gg, без cgo
type GGCanvas struct {
	mu   sync.Mutex
	dc   *gg.Context
	face font.Face
}

// NewGGCanvas создаёт прозрачный холст заданного размера
func NewGGCanvas(width, height int) (*GGCanvas, error) {
	f, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, errors.Wrap(err, "parse label font")
	}

	c := &GGCanvas{face: truetype.NewFace(f, &truetype.Options{Size: labelFontSize})}
	c.Reset(width, height)
	return c, nil
}

// Reset заменяет холст новым прозрачным нужного размера
func (c *GGCanvas) Reset(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dc = gg.NewContext(width, height)
	c.dc.SetFontFace(c.face)
}

func (c *GGCanvas) StrokeRect(r port.Rect, col color.Color, lineWidth float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dc.SetColor(col)
	c.dc.SetLineWidth(lineWidth)
	c.dc.DrawRectangle(r.X, r.Y, r.W, r.H)
	c.dc.Stroke()
}

func (c *GGCanvas) FillRect(r port.Rect, col color.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dc.SetColor(col)
	c.dc.DrawRectangle(r.X, r.Y, r.W, r.H)
	c.dc.Fill()
}

func (c *GGCanvas) MeasureText(text string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, _ := c.dc.MeasureString(text)
	return w
}

func (c *GGCanvas) FillText(text string, x, y float64, col color.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dc.SetColor(col)
	c.dc.DrawString(text, x, y)
}

func (c *GGCanvas) FillCircle(x, y, radius float64, col color.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dc.SetColor(col)
	c.dc.DrawCircle(x, y, radius)
	c.dc.Fill()
}

// layer текущий слой
func (c *GGCanvas) layer() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.dc.Image()
}

// ExportPNG кодирует слой в PNG
func (c *GGCanvas) ExportPNG() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var buf bytes.Buffer
	if err := c.dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(err, "encode overlay png")
	}
	return buf.Bytes(), nil
}

var (
	_ port.Canvas          = (*GGCanvas)(nil)
	_ port.OverlayExporter = (*GGCanvas)(nil)
)
