package port

import (
	"image/color"

	"vision-cam/internal/domain/entity"
)

// Rect прямоугольник в координатах холста
type Rect struct {
	X, Y, W, H float64
}

// Canvas прозрачный слой поверх видео
type Canvas interface {
	// Reset очищает слой и задаёт ему размер области просмотра
	Reset(width, height int)
	StrokeRect(r Rect, c color.Color, lineWidth float64)
	FillRect(r Rect, c color.Color)
	// MeasureText возвращает ширину текста в пикселях
	MeasureText(text string) float64
	FillText(text string, x, y float64, c color.Color)
	FillCircle(x, y, radius float64, c color.Color)
}

// OverlayRenderer рисует найденные объекты поверх кадра
type OverlayRenderer interface {
	Render(set entity.DetectionSet, width, height int)
}

// OverlayExporter отдаёт текущий слой разметки в PNG
type OverlayExporter interface {
	ExportPNG() ([]byte, error)
}
