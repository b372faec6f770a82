package render

import (
	"fmt"

	"vision-cam/internal/domain/entity"
	"vision-cam/internal/domain/port"
)

const (
	boxLineWidth   = 3.0
	tagTextHeight  = 20.0
	tagPadding     = 4.0
	keypointRadius = 4.0
)

// Overlay рисует рамки, подписи и ключевые точки на прозрачном слое
type Overlay struct {
	canvas port.Canvas
}

// NewOverlay создаёт рендерер поверх холста
func NewOverlay(canvas port.Canvas) *Overlay {
	return &Overlay{canvas: canvas}
}

// Render очищает слой под размер области просмотра и рисует набор заново.
// Одинаковый набор даёт одинаковую последовательность команд рисования.
func (o *Overlay) Render(set entity.DetectionSet, width, height int) {
	o.canvas.Reset(width, height)

	for _, det := range set {
		o.drawDetection(det)
	}
}

func (o *Overlay) drawDetection(det entity.Detection) {
	c := ColorFor(det.Label)
	box := det.Box

	o.canvas.StrokeRect(port.Rect{X: box.XMin, Y: box.YMin, W: box.Width(), H: box.Height()}, c, boxLineWidth)

	// Плашка с подписью над рамкой
	text := LabelText(det)
	textWidth := o.canvas.MeasureText(text)
	o.canvas.FillRect(port.Rect{
		X: box.XMin,
		Y: box.YMin - tagTextHeight - tagPadding,
		W: textWidth + 2*tagPadding,
		H: tagTextHeight + tagPadding,
	}, c)
	o.canvas.FillText(text, box.XMin+tagPadding, box.YMin-2*tagPadding, labelTextColor)

	if !det.HasKeypoints() {
		return
	}
	for _, kp := range det.Keypoints {
		o.canvas.FillCircle(kp.X, kp.Y, keypointRadius, keypointColor)
	}
}

// LabelText подпись объекта: класс и уверенность в процентах с одним знаком
func LabelText(det entity.Detection) string {
	return fmt.Sprintf("%s %.1f%%", det.Label, det.Confidence*100)
}

// Проверка реализации интерфейса
var _ port.OverlayRenderer = (*Overlay)(nil)
