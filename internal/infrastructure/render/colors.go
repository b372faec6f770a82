package render

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Цвета классов; неизвестные классы рисуются fallbackHex
var paletteHex = map[string]string{
	"person":    "#FF6B6B",
	"car":       "#4ECDC4",
	"bicycle":   "#45B7D1",
	"motorbike": "#96CEB4",
	"bus":       "#FFEAA7",
	"truck":     "#DDA0DD",
	"cat":       "#98D8C8",
	"dog":       "#F7DC6F",
	"bird":      "#BB8FCE",
	"bottle":    "#85C1E9",
}

const fallbackHex = "#FFFFFF"

var (
	palette  = make(map[string]color.RGBA, len(paletteHex))
	fallback = mustParseHex(fallbackHex)

	labelTextColor = color.RGBA{A: 255}
	keypointColor  = color.RGBA{G: 255, A: 255}
)

func init() {
	for label, hex := range paletteHex {
		palette[label] = mustParseHex(hex)
	}
}

// ColorFor возвращает цвет класса. Определена для любой метки.
func ColorFor(label string) color.RGBA {
	if c, ok := palette[label]; ok {
		return c
	}
	return fallback
}

func mustParseHex(hex string) color.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		panic(err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
