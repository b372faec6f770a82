package port

import (
	"context"
)

// Detector внешний детектор объектов
type Detector interface {
	// Run распознаёт изображение и возвращает сериализованный набор объектов
	Run(ctx context.Context, image []byte, confidence, iou float32) (string, error)

	// Close освобождает ресурсы детектора
	Close() error
}

// DetectorFactory создаёт детектор; вызывается не более одного раза на канал
type DetectorFactory interface {
	Initialize() (Detector, error)
}
